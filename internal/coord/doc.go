// Package coord defines how cells of the three-dimensional grid are addressed.
//
// # Coordinates and shapes
//
// A Coordinate is a (row, column, table) triple of non-negative integers,
// totally ordered lexicographically. A Shape bounds the valid coordinates
// with an exclusive upper bound per axis.
//
// # Keys
//
// A Key addresses either a single cell or a rectangular range. Each of its
// three Selectors is an index or a slice with the familiar start:stop:step
// semantics: omitted bounds cover the whole axis, negative bounds count from
// the end of the axis and a zero step is rejected with ErrBounds.
//
//	key, _ := coord.ParseKey("0:3, 1, 0") // rows 0..2 of column 1, table 0
//	key.SlicedAxes()                      // [AxisRow]
//
// # Axis selectors
//
// Inserting and removing rows, columns or tables is located by an
// AxisSelector: exactly one axis plus a position on it.
package coord
