package voxel

import (
	"errors"
	"testing"
)

func TestNewBitfieldDims(t *testing.T) {
	tests := []struct {
		name    string
		dims    Dims
		words   int
		wantErr bool
	}{
		{"cube 32", Cube(32), 32 * 32, false},
		{"flat", Dims{X: 64, Y: 1, Z: 1}, 2, false},
		{"x not a multiple of 32", Dims{X: 33, Y: 32, Z: 32}, 0, true},
		{"zero x", Dims{X: 0, Y: 32, Z: 32}, 0, true},
		{"zero z", Dims{X: 32, Y: 32, Z: 0}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBitfield("g", tt.dims)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDims) {
					t.Fatalf("NewBitfield(%s) error = %v, want ErrInvalidDims", tt.dims, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBitfield(%s) error = %v", tt.dims, err)
			}
			if len(b.Data) != tt.words {
				t.Errorf("len(Data) = %d, want %d", len(b.Data), tt.words)
			}
			if b.Count() != 0 {
				t.Errorf("new grid has %d solid cells, want 0", b.Count())
			}
		})
	}
}

func TestBitfieldSetGet(t *testing.T) {
	b, err := NewBitfield("g", Dims{X: 64, Y: 3, Z: 5})
	if err != nil {
		t.Fatal(err)
	}
	positions := []Pos{
		{0, 0, 0}, {63, 0, 0}, {31, 1, 0}, {32, 1, 0},
		{0, 2, 4}, {63, 2, 4}, {17, 1, 3},
	}
	for _, p := range positions {
		b.Set(p, true)
		if !b.Get(p) {
			t.Errorf("Get(%v) = false after Set true", p)
		}
	}
	if got := b.Count(); got != len(positions) {
		t.Errorf("Count() = %d, want %d", got, len(positions))
	}
	for _, p := range positions {
		b.Set(p, false)
		if b.Get(p) {
			t.Errorf("Get(%v) = true after Set false", p)
		}
	}
	if got := b.Count(); got != 0 {
		t.Errorf("Count() = %d after clearing, want 0", got)
	}
}

func TestBitfieldSetLeavesNeighbours(t *testing.T) {
	b, _ := NewBitfield("g", Cube(32))
	b.Set(Pos{5, 5, 5}, true)
	for _, p := range []Pos{{4, 5, 5}, {6, 5, 5}, {5, 4, 5}, {5, 6, 5}, {5, 5, 4}, {5, 5, 6}} {
		if b.Get(p) {
			t.Errorf("neighbour %v set", p)
		}
	}
}

// TestBitfieldPacking pins cells to words: linear = x + y*X + z*X*Y,
// word = linear/32, bit = linear%32.
func TestBitfieldPacking(t *testing.T) {
	tests := []struct {
		pos  Pos
		word int
		bit  uint
	}{
		{Pos{0, 0, 0}, 0, 0},
		{Pos{31, 0, 0}, 0, 31},
		{Pos{32, 0, 0}, 1, 0},
		{Pos{0, 1, 0}, 2, 0},
		{Pos{0, 0, 1}, 4, 0},
		{Pos{5, 1, 2}, 10, 5},
		{Pos{63, 1, 2}, 11, 31},
	}
	for _, tt := range tests {
		b, _ := NewBitfield("g", Dims{X: 64, Y: 2, Z: 3})
		b.Set(tt.pos, true)
		for i, w := range b.Data {
			want := uint32(0)
			if i == tt.word {
				want = 1 << tt.bit
			}
			if w != want {
				t.Errorf("Set(%v): word %d = %#x, want %#x", tt.pos, i, w, want)
			}
		}
	}
}

func TestBitfieldOutOfRangePanics(t *testing.T) {
	b, _ := NewBitfield("g", Dims{X: 32, Y: 4, Z: 4})
	for _, p := range []Pos{{32, 0, 0}, {0, 4, 0}, {0, 0, 4}} {
		t.Run(p.String(), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Get(%v) did not panic", p)
				}
			}()
			b.Get(p)
		})
	}
}

func TestBitfieldValidate(t *testing.T) {
	b, _ := NewBitfield("g", Cube(32))
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	b.Data = b.Data[:10]
	if err := b.Validate(); !errors.Is(err, ErrInvalidDims) {
		t.Errorf("Validate() with short data = %v, want ErrInvalidDims", err)
	}
}

func TestBitfieldEqual(t *testing.T) {
	a, _ := NewBitfield("g", Cube(32))
	b, _ := NewBitfield("g", Cube(32))
	if !a.Equal(b) {
		t.Fatal("empty grids should be equal")
	}
	b.Set(Pos{1, 2, 3}, true)
	if a.Equal(b) {
		t.Error("grids differing in one bit reported equal")
	}
	c, _ := NewBitfield("other", Cube(32))
	if a.Equal(c) {
		t.Error("grids with different names reported equal")
	}
	var nilGrid *Bitfield
	if a.Equal(nilGrid) {
		t.Error("grid equal to nil")
	}
}
