package expr

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// HCLEvaluator evaluates cell text as an HCL native-syntax expression. The
// grammar is closed: arithmetic, comparison, logic, conditionals,
// collection constructors, templates and calls to allow-listed functions.
// Nothing an expression does can reach outside its Environment.
type HCLEvaluator struct {
	functions map[string]function.Function

	// stack holds the contexts of the evaluations in progress so that
	// macros called from a cell see that cell's variables and functions.
	stack []*hcl.EvalContext
}

// NewHCLEvaluator creates an evaluator using StandardFunctions.
func NewHCLEvaluator() *HCLEvaluator {
	return &HCLEvaluator{functions: StandardFunctions()}
}

// Evaluate parses and evaluates source in env.
func (e *HCLEvaluator) Evaluate(ctx context.Context, source string, env *Environment) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	filename := fmt.Sprintf("cell[%s]", env.Coord)

	parsed, diags := hclsyntax.ParseExpression([]byte(source), filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		logger.Debug("Cell expression failed to parse.", "coord", env.Coord.String(), "error", diags.Error())
		return cty.NilVal, newError(diags)
	}

	evalCtx := e.evalContext(ctx, env)
	e.stack = append(e.stack, evalCtx)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	val, diags := parsed.Value(evalCtx)
	if diags.HasErrors() {
		logger.Debug("Cell expression failed to evaluate.", "coord", env.Coord.String(), "error", diags.Error())
		return cty.NilVal, newError(diags)
	}
	return val, nil
}

// Context returns the evaluation context of the innermost evaluation in
// progress, or a context exposing only the allow-listed functions when no
// evaluation is running. Macro bodies are evaluated in a child of it.
func (e *HCLEvaluator) Context() *hcl.EvalContext {
	if n := len(e.stack); n > 0 {
		return e.stack[n-1]
	}
	return &hcl.EvalContext{Functions: e.functions}
}

func (e *HCLEvaluator) evalContext(ctx context.Context, env *Environment) *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	funcs := make(map[string]function.Function, len(e.functions)+1)

	if env.Scope != nil {
		for name, v := range env.Scope.Globals() {
			vars[name] = v
		}
		for name, fn := range env.Scope.Functions() {
			funcs[name] = fn
		}
	}
	for name, fn := range e.functions {
		funcs[name] = fn
	}
	funcs[CellFunctionName] = cellFunction(ctx, env.Cells)

	vars["X"] = cty.NumberIntVal(int64(env.Coord.Row))
	vars["Y"] = cty.NumberIntVal(int64(env.Coord.Col))
	vars["Z"] = cty.NumberIntVal(int64(env.Coord.Tab))

	return &hcl.EvalContext{Variables: vars, Functions: funcs}
}
