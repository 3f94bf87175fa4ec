// Package expr defines the contract between the evaluation engine and the
// expression language used in cells, and provides the default sandboxed
// implementation built on HCL native syntax and cty values.
//
// The engine never interprets cell text itself. It builds an Environment
// for the cell being evaluated and hands the text to an Evaluator, which
// returns a value or an error. Cell references made by an expression go
// back through the Environment's CellResolver, so the dependency graph is
// discovered implicitly while evaluating.
package expr

import (
	"context"
	"errors"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/zclconf/go-cty/cty"
)

// Evaluator turns a cell's source text into a value.
type Evaluator interface {
	Evaluate(ctx context.Context, source string, env *Environment) (cty.Value, error)
}

// EvaluatorFunc adapts a plain function to the Evaluator interface.
type EvaluatorFunc func(ctx context.Context, source string, env *Environment) (cty.Value, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, source string, env *Environment) (cty.Value, error) {
	return f(ctx, source, env)
}

// CellResolver resolves references to other cells. ReadRange returns the
// selected cells as nested tuples, one level per sliced axis.
type CellResolver interface {
	ReadCell(ctx context.Context, c coord.Coordinate) (cty.Value, error)
	ReadRange(ctx context.Context, key coord.Key) (cty.Value, error)
}

// Environment is what an expression can see while it is evaluated: the
// coordinate being computed, the shared scope and a cell resolver.
type Environment struct {
	Coord coord.Coordinate
	Scope *Scope
	Cells CellResolver
}

// Error is returned when an expression cannot be parsed or evaluated. When
// the failure originated in a function call (for example a reference to a
// cell that itself failed) Cause holds that underlying error.
type Error struct {
	Diags hcl.Diagnostics
	Cause error
}

func (e *Error) Error() string {
	return e.Diags.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(diags hcl.Diagnostics) *Error {
	return &Error{Diags: diags, Cause: causeOf(diags)}
}

// causeOf digs the first function-call error out of diags, following
// diagnostics returned by user-defined functions.
func causeOf(diags hcl.Diagnostics) error {
	for _, d := range diags {
		if d == nil {
			continue
		}
		extra, ok := d.Extra.(hclsyntax.FunctionCallDiagExtra)
		if !ok {
			continue
		}
		err := extra.FunctionCallError()
		var nested hcl.Diagnostics
		if errors.As(err, &nested) {
			if cause := causeOf(nested); cause != nil {
				return cause
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
