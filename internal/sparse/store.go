// Package sparse implements the coordinate-addressed store of raw cell
// expressions. Only written cells are materialised; every other coordinate
// implicitly holds the empty default.
package sparse

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/sparsegrid/internal/attrs"
	"github.com/specialistvlad/sparsegrid/internal/coord"
)

// Cell is the stored form of one cell: its expression text and, only when
// formatting differs from the defaults, its attribute set.
type Cell struct {
	Text  string
	Attrs attrs.Set
}

// Clone returns a copy of c that owns its attribute set.
func (c Cell) Clone() Cell {
	return Cell{Text: c.Text, Attrs: c.Attrs.Clone()}
}

// Store maps coordinates to cells inside a resizable shape. It is not safe
// for concurrent use; the grid serialises access.
type Store struct {
	shape coord.Shape
	cells map[coord.Coordinate]Cell
}

// New creates an empty store with the given shape.
func New(shape coord.Shape) (*Store, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Store{shape: shape, cells: make(map[coord.Coordinate]Cell)}, nil
}

// Shape returns the current shape.
func (s *Store) Shape() coord.Shape {
	return s.shape
}

// Len returns the number of materialised cells.
func (s *Store) Len() int {
	return len(s.cells)
}

// Get returns the cell at c or the empty default. It never fails, even for
// coordinates outside the shape.
func (s *Store) Get(c coord.Coordinate) Cell {
	return s.cells[c]
}

// Lookup returns the cell at c and whether it is materialised.
func (s *Store) Lookup(c coord.Coordinate) (Cell, bool) {
	cell, ok := s.cells[c]
	return cell, ok
}

// Text returns the expression text at c.
func (s *Store) Text(c coord.Coordinate) string {
	return s.cells[c].Text
}

// Set unconditionally stores cell at c.
func (s *Store) Set(c coord.Coordinate, cell Cell) {
	s.cells[c] = cell
}

// Remove deletes c and returns what was stored there.
func (s *Store) Remove(c coord.Coordinate) (Cell, bool) {
	cell, ok := s.cells[c]
	if ok {
		delete(s.cells, c)
	}
	return cell, ok
}

// Keys returns every materialised coordinate in ascending order.
func (s *Store) Keys() []coord.Coordinate {
	keys := make([]coord.Coordinate, 0, len(s.cells))
	for c := range s.cells {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Resize changes the shape. Cells that fall outside the new shape are
// deleted and returned.
func (s *Store) Resize(shape coord.Shape) (map[coord.Coordinate]Cell, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	dropped := make(map[coord.Coordinate]Cell)
	for c, cell := range s.cells {
		if !shape.Contains(c) {
			dropped[c] = cell
			delete(s.cells, c)
		}
	}
	s.shape = shape
	return dropped, nil
}

// AxisIndices expands the selector of key on axis a against the current
// shape.
func (s *Store) AxisIndices(key coord.Key, a coord.Axis) ([]int, error) {
	return key[a].Indices(s.shape.Len(a))
}

// SubKeys expands the slice on axis a of key into one key per selected
// index, with that axis pinned.
func (s *Store) SubKeys(key coord.Key, a coord.Axis) ([]coord.Key, error) {
	if !key[a].IsSlice {
		return nil, fmt.Errorf("%w: %s of key %s is not a slice", coord.ErrBounds, a, key)
	}
	idx, err := s.AxisIndices(key, a)
	if err != nil {
		return nil, err
	}
	keys := make([]coord.Key, len(idx))
	for i, n := range idx {
		keys[i] = key.Replace(a, coord.At(n))
	}
	return keys, nil
}

// Coordinates expands key into the coordinates it selects, iterating rows,
// then columns, then tables, together with the length of every axis.
func (s *Store) Coordinates(key coord.Key) ([]coord.Coordinate, [3]int, error) {
	var lens [3]int
	if err := key.Validate(); err != nil {
		return nil, lens, err
	}
	var fetch [3][]int
	for _, a := range coord.Axes {
		idx, err := s.AxisIndices(key, a)
		if err != nil {
			return nil, lens, err
		}
		fetch[a] = idx
		lens[a] = len(idx)
	}

	out := make([]coord.Coordinate, 0, lens[0]*lens[1]*lens[2])
	for _, r := range fetch[coord.AxisRow] {
		for _, c := range fetch[coord.AxisCol] {
			for _, t := range fetch[coord.AxisTab] {
				out = append(out, coord.C(r, c, t))
			}
		}
	}
	return out, lens, nil
}

// Slice returns the texts selected by key. Axes of length 1 are reshaped
// away, so the block has as many dimensions as axes with more than one
// selected index; a selection with an empty axis yields an empty
// one-dimensional block.
func (s *Store) Slice(key coord.Key) (*Block[string], error) {
	coords, lens, err := s.Coordinates(key)
	if err != nil {
		return nil, err
	}

	var shape []int
	for _, n := range lens {
		if n == 0 {
			return &Block[string]{Shape: []int{0}}, nil
		}
		if n > 1 {
			shape = append(shape, n)
		}
	}

	block := NewBlock[string](shape...)
	for i, c := range coords {
		block.Items[i] = s.cells[c].Text
	}
	return block, nil
}
