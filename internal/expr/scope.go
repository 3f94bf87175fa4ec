package expr

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Scope is the namespace shared by every evaluation of one grid: globals
// bound by assignment expressions and functions installed as macros. It
// lives exactly as long as the grid that owns it.
type Scope struct {
	globals   map[string]cty.Value
	functions map[string]function.Function
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{
		globals:   make(map[string]cty.Value),
		functions: make(map[string]function.Function),
	}
}

// Bind sets the global name to v.
func (s *Scope) Bind(name string, v cty.Value) {
	s.globals[name] = v
}

// Lookup returns the global bound to name.
func (s *Scope) Lookup(name string) (cty.Value, bool) {
	v, ok := s.globals[name]
	return v, ok
}

// Globals returns a copy of every bound global.
func (s *Scope) Globals() map[string]cty.Value {
	out := make(map[string]cty.Value, len(s.globals))
	for k, v := range s.globals {
		out[k] = v
	}
	return out
}

// GlobalNames returns the bound global names in sorted order.
func (s *Scope) GlobalNames() []string {
	names := make([]string, 0, len(s.globals))
	for k := range s.globals {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Define installs fn under name, replacing any previous definition.
func (s *Scope) Define(name string, fn function.Function) {
	s.functions[name] = fn
}

// Functions returns a copy of the installed functions.
func (s *Scope) Functions() map[string]function.Function {
	out := make(map[string]function.Function, len(s.functions))
	for k, v := range s.functions {
		out[k] = v
	}
	return out
}

// Reset removes every global and function.
func (s *Scope) Reset() {
	s.globals = make(map[string]cty.Value)
	s.functions = make(map[string]function.Function)
}
