package voxel

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"
)

// WordBits is the number of cells packed into one data word.
const WordBits = 32

// ErrInvalidDims is returned for dimensions that violate the packing rules.
var ErrInvalidDims = errors.New("invalid grid dimensions")

// Dims is the extent of a grid in cells. It encodes as a three-element
// array [x, y, z].
type Dims struct {
	_ struct{} `cbor:",toarray"`
	X uint32
	Y uint32
	Z uint32
}

// Cube returns cubic dimensions of the given edge length.
func Cube(size uint32) Dims {
	return Dims{X: size, Y: size, Z: size}
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}

// Cells returns the total number of cells.
func (d Dims) Cells() uint64 {
	return uint64(d.X) * uint64(d.Y) * uint64(d.Z)
}

// Words returns the number of packed words needed for d.
func (d Dims) Words() int {
	return int(d.X/WordBits) * int(d.Y) * int(d.Z)
}

// Validate checks that X is a non-zero multiple of WordBits and that Y and
// Z are non-zero.
func (d Dims) Validate() error {
	if d.X == 0 || d.Y == 0 || d.Z == 0 {
		return fmt.Errorf("%w: %s has a zero axis", ErrInvalidDims, d)
	}
	if d.X%WordBits != 0 {
		return fmt.Errorf("%w: x extent %d is not a multiple of %d", ErrInvalidDims, d.X, WordBits)
	}
	return nil
}

// Pos is an integer cell coordinate.
type Pos struct {
	X, Y, Z uint32
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Bitfield is a dense grid with one occupancy bit per cell, packed into
// 32-bit words in row-major order (x fastest, then y, then z).
//
// Because X is a multiple of 32, every (y, z) row occupies whole words, so
// writers that own disjoint rows never touch the same word.
type Bitfield struct {
	Name       string   `cbor:"grid_name"`
	Dimensions Dims     `cbor:"dimensions"`
	Data       []uint32 `cbor:"data"`
}

// NewBitfield returns an all-empty grid.
func NewBitfield(name string, dims Dims) (*Bitfield, error) {
	if err := dims.Validate(); err != nil {
		return nil, err
	}
	return &Bitfield{
		Name:       name,
		Dimensions: dims,
		Data:       make([]uint32, dims.Words()),
	}, nil
}

// Validate checks a decoded grid against its own dimensions.
func (b *Bitfield) Validate() error {
	if err := b.Dimensions.Validate(); err != nil {
		return err
	}
	if want := b.Dimensions.Words(); len(b.Data) != want {
		return fmt.Errorf("%w: %d data words for %s, want %d", ErrInvalidDims, len(b.Data), b.Dimensions, want)
	}
	return nil
}

// locate returns the word index and bit mask of p. Out-of-range
// coordinates are a caller bug and panic.
func (b *Bitfield) locate(p Pos) (int, uint32) {
	d := b.Dimensions
	if p.X >= d.X || p.Y >= d.Y || p.Z >= d.Z {
		panic(fmt.Sprintf("voxel: position %s outside grid %s", p, d))
	}
	linear := uint64(p.X) + uint64(p.Y)*uint64(d.X) + uint64(p.Z)*uint64(d.X)*uint64(d.Y)
	return int(linear / WordBits), 1 << (linear % WordBits)
}

// Get reports whether the cell at p is solid.
func (b *Bitfield) Get(p Pos) bool {
	w, mask := b.locate(p)
	return b.Data[w]&mask != 0
}

// Set marks the cell at p solid or empty.
func (b *Bitfield) Set(p Pos, solid bool) {
	w, mask := b.locate(p)
	if solid {
		b.Data[w] |= mask
	} else {
		b.Data[w] &^= mask
	}
}

// Count returns the number of solid cells.
func (b *Bitfield) Count() int {
	n := 0
	for _, w := range b.Data {
		n += bits.OnesCount32(w)
	}
	return n
}

// Words exposes the packed words, e.g. for upload into GPU memory.
// Callers must not modify the returned slice.
func (b *Bitfield) Words() []uint32 {
	return b.Data
}

// Equal reports whether two grids have the same name, dimensions and bits.
func (b *Bitfield) Equal(o *Bitfield) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.Name == o.Name && b.Dimensions == o.Dimensions && slices.Equal(b.Data, o.Data)
}
