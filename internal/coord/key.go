// internal/coord/key.go
package coord

import (
	"fmt"
	"strconv"
	"strings"
)

// Selector picks either a single index or a slice of an axis. The zero value
// selects index 0. Selectors are comparable so Keys can be used as map keys.
type Selector struct {
	Index int

	IsSlice  bool
	Start    int
	Stop     int
	Step     int
	HasStart bool
	HasStop  bool
	HasStep  bool
}

// At selects a single index.
func At(i int) Selector {
	return Selector{Index: i}
}

// All selects the whole axis.
func All() Selector {
	return Selector{IsSlice: true}
}

// Span selects [start, stop) with step 1.
func Span(start, stop int) Selector {
	return Selector{IsSlice: true, Start: start, Stop: stop, HasStart: true, HasStop: true}
}

// SpanStep selects start:stop:step.
func SpanStep(start, stop, step int) Selector {
	return Selector{IsSlice: true, Start: start, Stop: stop, Step: step, HasStart: true, HasStop: true, HasStep: true}
}

// Indices expands the selector against an axis of the given length. Slices
// follow the usual start:stop:step rules, clamped to the axis; a single
// index is returned as is.
func (s Selector) Indices(length int) ([]int, error) {
	if !s.IsSlice {
		return []int{s.Index}, nil
	}

	step := 1
	if s.HasStep {
		step = s.Step
	}
	if step == 0 {
		return nil, fmt.Errorf("%w: slice step cannot be zero", ErrBounds)
	}

	lower, upper := 0, length
	if step < 0 {
		lower, upper = -1, length-1
	}

	start, stop := lower, upper
	if step < 0 {
		start, stop = upper, lower
	}
	if s.HasStart {
		start = clampBound(s.Start, length, lower, upper)
	}
	if s.HasStop {
		stop = clampBound(s.Stop, length, lower, upper)
	}

	var out []int
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	return out, nil
}

func clampBound(i, length, lower, upper int) int {
	if i < 0 {
		i += length
		if i < lower {
			i = lower
		}
		return i
	}
	if i > upper {
		i = upper
	}
	return i
}

// Contains reports whether index lies in the selection of an axis with the
// given length.
func (s Selector) Contains(index, length int) (bool, error) {
	idx, err := s.Indices(length)
	if err != nil {
		return false, err
	}
	for _, i := range idx {
		if i == index {
			return true, nil
		}
	}
	return false, nil
}

// String renders the selector in key syntax.
func (s Selector) String() string {
	if !s.IsSlice {
		return strconv.Itoa(s.Index)
	}
	var b strings.Builder
	if s.HasStart {
		b.WriteString(strconv.Itoa(s.Start))
	}
	b.WriteByte(':')
	if s.HasStop {
		b.WriteString(strconv.Itoa(s.Stop))
	}
	if s.HasStep {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(s.Step))
	}
	return b.String()
}

// Key addresses a single cell or a range, one Selector per axis.
type Key [3]Selector

// KeyOf converts a coordinate into a single-cell key.
func KeyOf(c Coordinate) Key {
	return Key{At(c.Row), At(c.Col), At(c.Tab)}
}

// IsSingle reports whether no axis is sliced.
func (k Key) IsSingle() bool {
	return len(k.SlicedAxes()) == 0
}

// Coordinate returns the addressed cell of a single-cell key.
func (k Key) Coordinate() (Coordinate, bool) {
	if !k.IsSingle() {
		return Coordinate{}, false
	}
	return Coordinate{Row: k[0].Index, Col: k[1].Index, Tab: k[2].Index}, true
}

// SlicedAxes lists the sliced axes in (row, column, table) order.
func (k Key) SlicedAxes() []Axis {
	var axes []Axis
	for _, a := range Axes {
		if k[a].IsSlice {
			axes = append(axes, a)
		}
	}
	return axes
}

// Replace returns a copy of k with the selector on axis a replaced.
func (k Key) Replace(a Axis, s Selector) Key {
	k[a] = s
	return k
}

// Validate rejects negative single indices and zero slice steps.
func (k Key) Validate() error {
	for _, a := range Axes {
		s := k[a]
		if !s.IsSlice && s.Index < 0 {
			return fmt.Errorf("%w: negative %s index %d in key %s", ErrBounds, a, s.Index, k)
		}
		if s.IsSlice && s.HasStep && s.Step == 0 {
			return fmt.Errorf("%w: zero step on %s in key %s", ErrBounds, a, k)
		}
	}
	return nil
}

// Contains reports whether c is selected by k within shape.
func (k Key) Contains(c Coordinate, shape Shape) (bool, error) {
	for _, a := range Axes {
		ok, err := k[a].Contains(c.Get(a), shape.Len(a))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// String renders the key in the syntax accepted by ParseKey.
func (k Key) String() string {
	return k[0].String() + "," + k[1].String() + "," + k[2].String()
}
