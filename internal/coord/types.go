// internal/coord/types.go
package coord

import (
	"errors"
	"fmt"
)

// ErrBounds reports a malformed key, a zero slice step or an axis selector
// that does not identify exactly one axis. These are caller contract
// violations rather than runtime states.
var ErrBounds = errors.New("coord: bounds violation")

// Axis identifies one of the three grid dimensions.
type Axis int

const (
	AxisRow Axis = iota
	AxisCol
	AxisTab
)

// Axes lists the axes in their fixed iteration order.
var Axes = [3]Axis{AxisRow, AxisCol, AxisTab}

// String returns the axis name.
func (a Axis) String() string {
	switch a {
	case AxisRow:
		return "row"
	case AxisCol:
		return "column"
	case AxisTab:
		return "table"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Valid reports whether a names one of the three axes.
func (a Axis) Valid() bool {
	return a >= AxisRow && a <= AxisTab
}

// Coordinate addresses a single cell.
type Coordinate struct {
	Row int
	Col int
	Tab int
}

// C is shorthand for Coordinate{row, col, tab}.
func C(row, col, tab int) Coordinate {
	return Coordinate{Row: row, Col: col, Tab: tab}
}

// Get returns the component of c along axis a.
func (c Coordinate) Get(a Axis) int {
	switch a {
	case AxisRow:
		return c.Row
	case AxisCol:
		return c.Col
	default:
		return c.Tab
	}
}

// With returns a copy of c with the component along a replaced by v.
func (c Coordinate) With(a Axis, v int) Coordinate {
	switch a {
	case AxisRow:
		c.Row = v
	case AxisCol:
		c.Col = v
	default:
		c.Tab = v
	}
	return c
}

// Add returns the component-wise sum of c and o.
func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{Row: c.Row + o.Row, Col: c.Col + o.Col, Tab: c.Tab + o.Tab}
}

// Compare orders coordinates lexicographically by (row, column, table). It
// returns -1, 0 or +1.
func (c Coordinate) Compare(o Coordinate) int {
	for _, a := range Axes {
		x, y := c.Get(a), o.Get(a)
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
	}
	return 0
}

// Less reports whether c sorts before o.
func (c Coordinate) Less(o Coordinate) bool {
	return c.Compare(o) < 0
}

// Valid reports whether every component is non-negative.
func (c Coordinate) Valid() bool {
	return c.Row >= 0 && c.Col >= 0 && c.Tab >= 0
}

// String renders the coordinate as "row,col,tab".
func (c Coordinate) String() string {
	return fmt.Sprintf("%d,%d,%d", c.Row, c.Col, c.Tab)
}

// Shape bounds the grid; every axis is at least 1.
type Shape struct {
	Rows int
	Cols int
	Tabs int
}

// Len returns the extent of the shape along a.
func (s Shape) Len(a Axis) int {
	switch a {
	case AxisRow:
		return s.Rows
	case AxisCol:
		return s.Cols
	default:
		return s.Tabs
	}
}

// With returns a copy of s with the extent along a replaced by n.
func (s Shape) With(a Axis, n int) Shape {
	switch a {
	case AxisRow:
		s.Rows = n
	case AxisCol:
		s.Cols = n
	default:
		s.Tabs = n
	}
	return s
}

// Contains reports whether c lies inside the shape.
func (s Shape) Contains(c Coordinate) bool {
	return c.Valid() && c.Row < s.Rows && c.Col < s.Cols && c.Tab < s.Tabs
}

// Validate returns an error if any axis is smaller than 1.
func (s Shape) Validate() error {
	if s.Rows < 1 || s.Cols < 1 || s.Tabs < 1 {
		return fmt.Errorf("%w: shape %s must be positive on every axis", ErrBounds, s)
	}
	return nil
}

// String renders the shape as "rows x cols x tabs".
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Rows, s.Cols, s.Tabs)
}

// AxisSelector locates an insertion or removal point: one axis and a
// position on it.
type AxisSelector struct {
	Axis Axis
	Pos  int
}

// Row, Col and Tab build selectors for the respective axis.
func Row(pos int) AxisSelector { return AxisSelector{Axis: AxisRow, Pos: pos} }
func Col(pos int) AxisSelector { return AxisSelector{Axis: AxisCol, Pos: pos} }
func Tab(pos int) AxisSelector { return AxisSelector{Axis: AxisTab, Pos: pos} }

// Validate checks that the selector names a real axis and a non-negative
// position.
func (s AxisSelector) Validate() error {
	if !s.Axis.Valid() {
		return fmt.Errorf("%w: unknown axis %d", ErrBounds, int(s.Axis))
	}
	if s.Pos < 0 {
		return fmt.Errorf("%w: negative %s position %d", ErrBounds, s.Axis, s.Pos)
	}
	return nil
}

// String renders the selector, e.g. "row 3".
func (s AxisSelector) String() string {
	return fmt.Sprintf("%s %d", s.Axis, s.Pos)
}

// SelectorFromTriple converts a (row, col, tab) triple in which exactly one
// entry is set into an AxisSelector.
func SelectorFromTriple(triple [3]*int) (AxisSelector, error) {
	var (
		sel   AxisSelector
		found int
	)
	for i, v := range triple {
		if v == nil {
			continue
		}
		found++
		sel = AxisSelector{Axis: Axis(i), Pos: *v}
	}
	if found != 1 {
		return AxisSelector{}, fmt.Errorf("%w: axis selector needs exactly one entry, got %d", ErrBounds, found)
	}
	return sel, sel.Validate()
}
