package macros

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/sparsegrid/internal/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const doubleSrc = `
function "double" {
  params = [x]
  result = x * 2
}
`

func newRegistry() *Registry {
	return NewRegistry(expr.NewHCLEvaluator().Context)
}

func TestRegistry_Add(t *testing.T) {
	r := newRegistry()

	name, ok, err := r.Add(doubleSrc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "double", name)

	m, found := r.Get("double")
	require.True(t, found)
	assert.Equal(t, doubleSrc, m.Source)

	got, err := m.Function.Call([]cty.Value{cty.NumberIntVal(21)})
	require.NoError(t, err)
	assert.True(t, got.Equals(cty.NumberIntVal(42)).True())
}

func TestRegistry_AddExistingNameIsRefused(t *testing.T) {
	r := newRegistry()
	_, ok, err := r.Add(doubleSrc)
	require.NoError(t, err)
	require.True(t, ok)

	other := `
function "double" {
  params = [x]
  result = x * 3
}
`
	name, ok, err := r.Add(other)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "double", name)

	m, _ := r.Get("double")
	assert.Equal(t, doubleSrc, m.Source, "the first definition must be kept")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_AddInvalid(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: `function "x" {`},
		{name: "no block", src: `x = 1`},
		{name: "two blocks", src: "function \"a\" {\n params = []\n result = 1\n}\nfunction \"b\" {\n params = []\n result = 2\n}\n"},
		{name: "wrong block type", src: "macro \"a\" {\n params = []\n result = 1\n}\n"},
		{name: "missing result", src: "function \"a\" {\n params = []\n}\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRegistry()
			_, ok, err := r.Add(tc.src)
			require.ErrorIs(t, err, ErrInvalidMacro)
			assert.False(t, ok)
			assert.Zero(t, r.Len())
		})
	}
}

func TestRegistry_NamesAndSources(t *testing.T) {
	r := newRegistry()
	src := "function \"alpha\" {\n  params = []\n  result = 1\n}\n"
	_, _, err := r.Add(doubleSrc)
	require.NoError(t, err)
	_, _, err = r.Add(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "double"}, r.Names())
	assert.Equal(t, []string{doubleSrc, src}, r.Sources())
	assert.Len(t, r.Functions(), 2)

	r.Reset()
	assert.Empty(t, r.Names())
	assert.Empty(t, r.Sources())
}

func TestRegistry_BodySeesContextFunctions(t *testing.T) {
	ctx := &hcl.EvalContext{Functions: expr.StandardFunctions()}
	r := NewRegistry(func() *hcl.EvalContext { return ctx })

	_, ok, err := r.Add("function \"total\" {\n  params = [xs]\n  result = sum(xs)\n}\n")
	require.NoError(t, err)
	require.True(t, ok)

	m, _ := r.Get("total")
	got, err := m.Function.Call([]cty.Value{cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})})
	require.NoError(t, err)
	assert.True(t, got.Equals(cty.NumberIntVal(3)).True())
}
