package expr

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var errBroken = errors.New("broken cell")

// fakeCells serves fixed values and records every request.
type fakeCells struct {
	values map[coord.Coordinate]cty.Value
	failAt map[coord.Coordinate]bool
	ranges []coord.Key
}

func (f *fakeCells) ReadCell(_ context.Context, c coord.Coordinate) (cty.Value, error) {
	if f.failAt[c] {
		return cty.DynamicVal, errBroken
	}
	if v, ok := f.values[c]; ok {
		return v, nil
	}
	return cty.NullVal(cty.DynamicPseudoType), nil
}

func (f *fakeCells) ReadRange(_ context.Context, key coord.Key) (cty.Value, error) {
	f.ranges = append(f.ranges, key)
	return cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NullVal(cty.DynamicPseudoType)}), nil
}

func evaluate(t *testing.T, source string, env *Environment) (cty.Value, error) {
	t.Helper()
	return NewHCLEvaluator().Evaluate(context.Background(), source, env)
}

func TestHCLEvaluator_Values(t *testing.T) {
	cells := &fakeCells{values: map[coord.Coordinate]cty.Value{
		coord.C(0, 0, 0): cty.NumberIntVal(2),
		coord.C(1, 0, 0): cty.StringVal("hi"),
	}}
	scope := NewScope()
	scope.Bind("rate", cty.NumberIntVal(10))

	testCases := []struct {
		name     string
		source   string
		expected cty.Value
	}{
		{name: "arithmetic", source: "1 + 2 * 3", expected: cty.NumberIntVal(7)},
		{name: "coordinate variables", source: "X * 100 + Y * 10 + Z", expected: cty.NumberIntVal(321)},
		{name: "global", source: "rate * 2", expected: cty.NumberIntVal(20)},
		{name: "cell reference", source: "S(0, 0, 0) + 1", expected: cty.NumberIntVal(3)},
		{name: "string reference", source: "upper(S(1, 0, 0))", expected: cty.StringVal("HI")},
		{name: "template", source: `"row ${X}"`, expected: cty.StringVal("row 3")},
		{name: "conditional", source: "X > 2 ? \"big\" : \"small\"", expected: cty.StringVal("big")},
		{name: "sum over range", source: `sum(S("0:3", 0, 0))`, expected: cty.NumberIntVal(3)},
		{name: "avg skips empty cells", source: `avg(S("0:3", 0, 0))`, expected: cty.NumberFloatVal(1.5)},
		{name: "sum of scalars", source: "sum(1, 2, [3, 4])", expected: cty.NumberIntVal(10)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := &Environment{Coord: coord.C(3, 2, 1), Scope: scope, Cells: cells}
			got, err := evaluate(t, tc.source, env)
			require.NoError(t, err)
			assert.True(t, got.Equals(tc.expected).True(), "got %#v, want %#v", got, tc.expected)
		})
	}
}

func TestHCLEvaluator_RangeKey(t *testing.T) {
	cells := &fakeCells{}
	env := &Environment{Coord: coord.C(0, 0, 0), Scope: NewScope(), Cells: cells}

	_, err := evaluate(t, `S("1:4", 2, ":")`, env)
	require.NoError(t, err)
	require.Len(t, cells.ranges, 1)
	assert.Equal(t, coord.Key{coord.Span(1, 4), coord.At(2), coord.All()}, cells.ranges[0])
}

func TestHCLEvaluator_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		source string
	}{
		{name: "syntax error", source: "1 +"},
		{name: "unknown variable", source: "nope + 1"},
		{name: "unknown function", source: `file("/etc/passwd")`},
		{name: "type error", source: `1 + "a"`},
		{name: "negative index", source: "S(-1, 0, 0)"},
		{name: "zero step", source: `S("0:4:0", 0, 0)`},
		{name: "bad selector type", source: "S(true, 0, 0)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := &Environment{Coord: coord.C(0, 0, 0), Scope: NewScope(), Cells: &fakeCells{}}
			_, err := evaluate(t, tc.source, env)
			require.Error(t, err)
			var exprErr *Error
			assert.ErrorAs(t, err, &exprErr)
		})
	}
}

func TestHCLEvaluator_ReferenceErrorCause(t *testing.T) {
	cells := &fakeCells{failAt: map[coord.Coordinate]bool{coord.C(0, 1, 0): true}}
	env := &Environment{Coord: coord.C(0, 0, 0), Scope: NewScope(), Cells: cells}

	_, err := evaluate(t, "S(0, 1, 0) * 2", env)
	require.Error(t, err)
	assert.ErrorIs(t, err, errBroken)
}

func TestHCLEvaluator_MacroFunctionsAreVisible(t *testing.T) {
	scope := NewScope()
	scope.Define("twice", SumFunc)
	env := &Environment{Coord: coord.C(0, 0, 0), Scope: scope, Cells: &fakeCells{}}

	got, err := evaluate(t, "twice(4, 4)", env)
	require.NoError(t, err)
	assert.True(t, got.Equals(cty.NumberIntVal(8)).True())
}

func TestHCLEvaluator_BuiltinsWinOverMacros(t *testing.T) {
	scope := NewScope()
	scope.Define("upper", stdlib.LowerFunc)
	env := &Environment{Coord: coord.C(0, 0, 0), Scope: scope, Cells: &fakeCells{}}

	got, err := evaluate(t, `upper("a")`, env)
	require.NoError(t, err)
	assert.Equal(t, "A", got.AsString())
}

func TestHCLEvaluator_NoCellResolver(t *testing.T) {
	env := &Environment{Coord: coord.C(0, 0, 0), Scope: NewScope()}
	_, err := evaluate(t, "S(0, 0, 0)", env)
	require.Error(t, err)
}

func TestHCLEvaluator_ContextOutsideEvaluation(t *testing.T) {
	e := NewHCLEvaluator()
	ctx := e.Context()
	require.NotNil(t, ctx)
	assert.Contains(t, ctx.Functions, "sum")
	assert.NotContains(t, ctx.Functions, CellFunctionName)
}

func TestText(t *testing.T) {
	testCases := []struct {
		name     string
		value    cty.Value
		expected string
	}{
		{name: "nil", value: cty.NilVal, expected: ""},
		{name: "null", value: cty.NullVal(cty.DynamicPseudoType), expected: ""},
		{name: "integer", value: cty.NumberIntVal(42), expected: "42"},
		{name: "fraction", value: cty.NumberFloatVal(2.5), expected: "2.5"},
		{name: "string", value: cty.StringVal("abc"), expected: "abc"},
		{name: "bool", value: cty.True, expected: "true"},
		{name: "unknown", value: cty.UnknownVal(cty.Number), expected: "(unknown)"},
		{name: "tuple", value: cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.StringVal("a")}), expected: `[1, "a"]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Text(tc.value))
		})
	}
}
