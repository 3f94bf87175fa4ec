package coord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_Indices(t *testing.T) {
	testCases := []struct {
		name     string
		sel      Selector
		length   int
		expected []int
	}{
		{name: "single index", sel: At(4), length: 3, expected: []int{4}},
		{name: "whole axis", sel: All(), length: 4, expected: []int{0, 1, 2, 3}},
		{name: "span", sel: Span(1, 3), length: 10, expected: []int{1, 2}},
		{name: "span clamped to axis", sel: Span(2, 50), length: 4, expected: []int{2, 3}},
		{name: "negative bounds", sel: Span(-2, 10), length: 5, expected: []int{3, 4}},
		{name: "stepped", sel: SpanStep(0, 7, 3), length: 10, expected: []int{0, 3, 6}},
		{name: "reverse whole axis", sel: Selector{IsSlice: true, Step: -1, HasStep: true}, length: 3, expected: []int{2, 1, 0}},
		{name: "reverse span", sel: SpanStep(4, 1, -2), length: 10, expected: []int{4, 2}},
		{name: "empty span", sel: Span(3, 3), length: 10, expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.sel.Indices(tc.length)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSelector_ZeroStep(t *testing.T) {
	_, err := SpanStep(0, 3, 0).Indices(5)
	require.ErrorIs(t, err, ErrBounds)
}

func TestParseKey(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Key
	}{
		{name: "single cell", raw: "1,2,0", expected: Key{At(1), At(2), At(0)}},
		{name: "parenthesised with spaces", raw: "( 1, 2, 0 )", expected: Key{At(1), At(2), At(0)}},
		{name: "row slice", raw: "0:3,1,0", expected: Key{Span(0, 3), At(1), At(0)}},
		{name: "open slice", raw: ":,:,0", expected: Key{All(), All(), At(0)}},
		{name: "stepped slice", raw: "::2,0,0", expected: Key{{IsSlice: true, Step: 2, HasStep: true}, At(0), At(0)}},
		{name: "error - two components", raw: "1,2", expectErr: true},
		{name: "error - not a number", raw: "a,0,0", expectErr: true},
		{name: "error - zero step", raw: "0:4:0,0,0", expectErr: true},
		{name: "error - negative index", raw: "-1,0,0", expectErr: true},
		{name: "error - empty", raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := ParseKey(tc.raw)
			if tc.expectErr {
				require.ErrorIs(t, err, ErrBounds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, key)
		})
	}
}

func TestKey_RoundTrip(t *testing.T) {
	for _, raw := range []string{"1,2,0", "0:3,1,0", ":,:,0", "1:9:2,0,4"} {
		t.Run(raw, func(t *testing.T) {
			key, err := ParseKey(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, key.String())
		})
	}
}

func TestKey_SlicedAxesAndCoordinate(t *testing.T) {
	key := Key{Span(0, 2), At(1), All()}
	assert.Equal(t, []Axis{AxisRow, AxisTab}, key.SlicedAxes())
	_, ok := key.Coordinate()
	assert.False(t, ok)

	c, ok := KeyOf(C(3, 4, 5)).Coordinate()
	require.True(t, ok)
	assert.Equal(t, C(3, 4, 5), c)
}

func TestKey_Contains(t *testing.T) {
	shape := Shape{Rows: 10, Cols: 10, Tabs: 2}
	key := Key{SpanStep(0, 10, 2), At(1), All()}

	ok, err := key.Contains(C(4, 1, 1), shape)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = key.Contains(C(5, 1, 1), shape)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCoordinate_Compare(t *testing.T) {
	assert.True(t, C(0, 5, 5).Less(C(1, 0, 0)))
	assert.True(t, C(1, 0, 9).Less(C(1, 1, 0)))
	assert.Equal(t, 0, C(2, 2, 2).Compare(C(2, 2, 2)))
	assert.Equal(t, 1, C(2, 2, 3).Compare(C(2, 2, 2)))
}

func TestSelectorFromTriple(t *testing.T) {
	two := 2
	sel, err := SelectorFromTriple([3]*int{nil, &two, nil})
	require.NoError(t, err)
	assert.Equal(t, Col(2), sel)

	_, err = SelectorFromTriple([3]*int{&two, &two, nil})
	require.ErrorIs(t, err, ErrBounds)

	_, err = SelectorFromTriple([3]*int{nil, nil, nil})
	require.ErrorIs(t, err, ErrBounds)
}
