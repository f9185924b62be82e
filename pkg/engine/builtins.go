package engine

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/chazu/voxmesh/pkg/kernel"
	"github.com/chazu/voxmesh/pkg/voxel"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms job script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: front-only -> front_only
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpSolid wraps a kernel solid so it can be passed between builtins.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string { return s.desc }
func (s *sexpSolid) Type() *zygo.RegisteredType          { return nil }

// sexpMesh names a mesh file to be read when the job runs.
type sexpMesh struct {
	path string
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(mesh %q)", m.path)
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

type sexpVec3 struct {
	x, y, z float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.x, v.y, v.z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpJob is returned by voxelize.
type sexpJob struct {
	name string
}

func (j *sexpJob) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(job %q)", j.name)
}
func (j *sexpJob) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toSize extracts a grid edge length. It must be a positive integer that
// satisfies the grid packing rules.
func toSize(s zygo.Sexp) (uint32, error) {
	v, ok := s.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
	}
	if v.Val <= 0 || v.Val > math.MaxUint32 {
		return 0, fmt.Errorf("size %d out of range", v.Val)
	}
	size := uint32(v.Val)
	if err := voxel.Cube(size).Validate(); err != nil {
		return 0, err
	}
	return size, nil
}

func toVec3(s zygo.Sexp) (*sexpVec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSolid(s zygo.Sexp) (*sexpSolid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

// toFloats extracts exactly n numbers from args.
func toFloats(fn string, args []zygo.Sexp, names ...string) ([]float64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("%s requires exactly %d arguments, got %d", fn, len(names), len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", fn, names[i], err)
		}
		out[i] = f
	}
	return out, nil
}

// toSolids extracts at least min solids from args.
func toSolids(fn string, args []zygo.Sexp, min int) ([]*sexpSolid, error) {
	if len(args) < min {
		return nil, fmt.Errorf("%s requires at least %d solids, got %d", fn, min, len(args))
	}
	out := make([]*sexpSolid, len(args))
	for i, a := range args {
		s, err := toSolid(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = s
	}
	return out, nil
}

func describe(fn string, args ...fmt.Stringer) string {
	parts := []string{fn}
	for _, a := range args {
		parts = append(parts, a.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (s *sexpSolid) String() string { return s.desc }
func (v *sexpVec3) String() string  { return v.SexpString(nil) }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the job script builtins into a zygomys
// environment. Every (voxelize ...) call appends to jobs.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, k kernel.Kernel, jobs *[]Job) {
	needKernel := func(fn string) error {
		if k == nil {
			return fmt.Errorf("%s: no solid kernel configured", fn)
		}
		return nil
	}

	// -----------------------------------------------------------------------
	// (mesh "models/bunny.obj")
	// -----------------------------------------------------------------------
	env.AddFunction("mesh", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("mesh requires a file path")
		}
		path, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh: path: %w", err)
		}
		if path == "" {
			return zygo.SexpNull, fmt.Errorf("mesh: empty path")
		}
		return &sexpMesh{path: path}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := toFloats("vec3", args, "x", "y", "z")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpVec3{x: v[0], y: v[1], z: v[2]}, nil
	})

	// -----------------------------------------------------------------------
	// Primitives: (box 10 20 30) (cylinder 40 5) (sphere 12)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel(name); err != nil {
			return zygo.SexpNull, err
		}
		v, err := toFloats(name, args, "x", "y", "z")
		if err != nil {
			return zygo.SexpNull, err
		}
		if v[0] <= 0 || v[1] <= 0 || v[2] <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: dimensions must be positive")
		}
		return &sexpSolid{solid: k.Box(v[0], v[1], v[2]), desc: fmt.Sprintf("(box %g %g %g)", v[0], v[1], v[2])}, nil
	})

	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel(name); err != nil {
			return zygo.SexpNull, err
		}
		v, err := toFloats(name, args, "height", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		if v[0] <= 0 || v[1] <= 0 {
			return zygo.SexpNull, fmt.Errorf("cylinder: dimensions must be positive")
		}
		return &sexpSolid{solid: k.Cylinder(v[0], v[1]), desc: fmt.Sprintf("(cylinder %g %g)", v[0], v[1])}, nil
	})

	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel(name); err != nil {
			return zygo.SexpNull, err
		}
		v, err := toFloats(name, args, "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		if v[0] <= 0 {
			return zygo.SexpNull, fmt.Errorf("sphere: radius must be positive")
		}
		return &sexpSolid{solid: k.Sphere(v[0]), desc: fmt.Sprintf("(sphere %g)", v[0])}, nil
	})

	// -----------------------------------------------------------------------
	// Booleans: (union a b c ...) (difference a b) (intersection a b)
	// -----------------------------------------------------------------------
	env.AddFunction("union", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if err := needKernel(name); err != nil {
			return zygo.SexpNull, err
		}
		solids, err := toSolids(name, args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		acc := solids[0].solid
		descs := []fmt.Stringer{solids[0]}
		for _, s := range solids[1:] {
			acc = k.Union(acc, s.solid)
			descs = append(descs, s)
		}
		return &sexpSolid{solid: acc, desc: describe(name, descs...)}, nil
	})

	binary := map[string]func(a, b kernel.Solid) kernel.Solid{}
	if k != nil {
		binary["difference"] = k.Difference
		binary["intersection"] = k.Intersection
	}
	for _, fn := range []string{"difference", "intersection"} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := needKernel(name); err != nil {
				return zygo.SexpNull, err
			}
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly 2 solids, got %d", name, len(args))
			}
			solids, err := toSolids(name, args, 2)
			if err != nil {
				return zygo.SexpNull, err
			}
			op := binary[name]
			return &sexpSolid{
				solid: op(solids[0].solid, solids[1].solid),
				desc:  describe(name, solids[0], solids[1]),
			}, nil
		})
	}

	// -----------------------------------------------------------------------
	// Transforms: (translate s (vec3 1 2 3)) (rotate s (vec3 0 0 45))
	// -----------------------------------------------------------------------
	transforms := map[string]func(s kernel.Solid, x, y, z float64) kernel.Solid{}
	if k != nil {
		transforms["translate"] = k.Translate
		transforms["rotate"] = k.Rotate
	}
	for _, fn := range []string{"translate", "rotate"} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if err := needKernel(name); err != nil {
				return zygo.SexpNull, err
			}
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid and a vec3", name)
			}
			s, err := toSolid(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			v, err := toVec3(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			op := transforms[name]
			return &sexpSolid{solid: op(s.solid, v.x, v.y, v.z), desc: describe(name, s, v)}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (voxelize (mesh "part.stl") :size 64 :name "part")
	// -----------------------------------------------------------------------
	env.AddFunction("voxelize", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("voxelize requires exactly one mesh or solid")
		}

		var job Job
		switch src := pa.positional[0].(type) {
		case *sexpMesh:
			job.Path = src.path
			job.Name = strings.TrimSuffix(filepath.Base(src.path), filepath.Ext(src.path))
		case *sexpSolid:
			job.Solid = src.solid
			job.Name = fmt.Sprintf("solid%d", len(*jobs)+1)
		default:
			return zygo.SexpNull, fmt.Errorf("voxelize: expected mesh or solid, got %T (%s)", src, src.SexpString(nil))
		}

		if v, ok := pa.kw["size"]; ok {
			size, err := toSize(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("voxelize: size: %w", err)
			}
			job.Size = size
		}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("voxelize: name: %w", err)
			}
			job.Name = s
		}

		*jobs = append(*jobs, job)
		return &sexpJob{name: job.Name}, nil
	})
}
