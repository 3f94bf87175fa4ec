// Package macros holds user-defined functions available to every cell of a
// grid. A macro is written as an HCL function block:
//
//	function "double" {
//	  params = [x]
//	  result = x * 2
//	}
//
// Its body is evaluated with the same functions and variables as the cell
// that calls it, so macros may read other cells through S().
package macros

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/userfunc"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty/function"
)

// BlockType is the HCL block type that declares a macro.
const BlockType = "function"

// ErrInvalidMacro is returned when a macro source is not exactly one
// well-formed function block.
var ErrInvalidMacro = errors.New("invalid macro")

// Macro is a registered function together with the text it was built from.
type Macro struct {
	Name     string
	Source   string
	Function function.Function
}

// Registry maps macro names to macros. Names are registered once; adding an
// existing name is refused rather than overwriting it.
type Registry struct {
	macros  map[string]Macro
	order   []string
	context userfunc.ContextFunc
}

// NewRegistry creates an empty registry. contextFn supplies the evaluation
// context macro bodies run in; it is called on every macro invocation.
func NewRegistry(contextFn userfunc.ContextFunc) *Registry {
	return &Registry{
		macros:  make(map[string]Macro),
		context: contextFn,
	}
}

// Add parses src and registers the macro it declares. It returns the macro
// name and false, without error, when that name is already registered.
func (r *Registry) Add(src string) (string, bool, error) {
	file, diags := hclsyntax.ParseConfig([]byte(src), "macro.hcl", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return "", false, fmt.Errorf("%w: %s", ErrInvalidMacro, diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return "", false, fmt.Errorf("%w: unexpected body type %T", ErrInvalidMacro, file.Body)
	}
	if len(body.Attributes) > 0 {
		return "", false, fmt.Errorf("%w: only a %s block is allowed", ErrInvalidMacro, BlockType)
	}
	if len(body.Blocks) != 1 || body.Blocks[0].Type != BlockType {
		return "", false, fmt.Errorf("%w: expected exactly one %s block", ErrInvalidMacro, BlockType)
	}

	funcs, _, diags := userfunc.DecodeUserFunctions(file.Body, BlockType, r.context)
	if diags.HasErrors() {
		return "", false, fmt.Errorf("%w: %s", ErrInvalidMacro, diags.Error())
	}

	for name, fn := range funcs {
		if _, exists := r.macros[name]; exists {
			return name, false, nil
		}
		r.macros[name] = Macro{Name: name, Source: src, Function: fn}
		r.order = append(r.order, name)
		return name, true, nil
	}
	return "", false, fmt.Errorf("%w: no function decoded", ErrInvalidMacro)
}

// Get returns the macro registered under name.
func (r *Registry) Get(name string) (Macro, bool) {
	m, ok := r.macros[name]
	return m, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.macros))
	for name := range r.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sources returns every macro source in registration order.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.macros[name].Source)
	}
	return out
}

// Functions returns the registered functions keyed by name.
func (r *Registry) Functions() map[string]function.Function {
	out := make(map[string]function.Function, len(r.macros))
	for name, m := range r.macros {
		out[name] = m.Function
	}
	return out
}

// Len returns the number of registered macros.
func (r *Registry) Len() int {
	return len(r.macros)
}

// Reset removes every macro.
func (r *Registry) Reset() {
	r.macros = make(map[string]Macro)
	r.order = nil
}
