// Package grid is the facade over a sparse three-dimensional spreadsheet.
//
// A Grid composes the cell store, the attribute layer, the evaluation engine
// and the undo log. Every mutation goes through the grid, which owns the
// invalidation policy (any value write clears the whole result cache) and
// records the inverse of what it did so the change can be undone.
package grid

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/sparsegrid/internal/attrs"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/engine"
	"github.com/specialistvlad/sparsegrid/internal/expr"
	"github.com/specialistvlad/sparsegrid/internal/history"
	"github.com/specialistvlad/sparsegrid/internal/macros"
	"github.com/specialistvlad/sparsegrid/internal/search"
	"github.com/specialistvlad/sparsegrid/internal/sparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// DefaultShape is the shape of a grid created without WithShape.
var DefaultShape = coord.Shape{Rows: 10, Cols: 10, Tabs: 10}

type config struct {
	shape     coord.Shape
	evaluator expr.Evaluator
	schema    attrs.Schema
	maxDepth  int
}

// Option configures a Grid.
type Option func(*config)

// WithShape sets the initial shape.
func WithShape(s coord.Shape) Option {
	return func(c *config) { c.shape = s }
}

// WithEvaluator replaces the HCL expression evaluator.
func WithEvaluator(ev expr.Evaluator) Option {
	return func(c *config) { c.evaluator = ev }
}

// WithSchema replaces the default attribute schema.
func WithSchema(s attrs.Schema) Option {
	return func(c *config) { c.schema = s }
}

// WithMaxDepth bounds nested evaluations.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// Grid is a sparse 3D spreadsheet. It is not safe for concurrent use.
type Grid struct {
	id     uuid.UUID
	cfg    config
	store  *sparse.Store
	engine *engine.Engine
	log    *history.Log
	macros *macros.Registry
	scope  *expr.Scope
}

// New creates an empty grid.
func New(opts ...Option) (*Grid, error) {
	cfg := config{shape: DefaultShape, schema: attrs.DefaultSchema()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.evaluator == nil {
		cfg.evaluator = expr.NewHCLEvaluator()
	}

	store, err := sparse.New(cfg.shape)
	if err != nil {
		return nil, fmt.Errorf("creating grid: %w", err)
	}

	g := &Grid{
		id:    uuid.New(),
		cfg:   cfg,
		store: store,
		log:   history.New(),
		scope: expr.NewScope(),
	}
	g.macros = macros.NewRegistry(g.macroContext)
	g.engine = g.newEngine()
	return g, nil
}

func (g *Grid) newEngine() *engine.Engine {
	return engine.New(g.store,
		engine.WithEvaluator(g.cfg.evaluator),
		engine.WithScope(g.scope),
		engine.WithMaxDepth(g.cfg.maxDepth),
	)
}

// macroContext is the evaluation context macro bodies run in: the context of
// the calling cell when the evaluator exposes one.
func (g *Grid) macroContext() *hcl.EvalContext {
	if ev, ok := g.cfg.evaluator.(interface{ Context() *hcl.EvalContext }); ok {
		return ev.Context()
	}
	return &hcl.EvalContext{Functions: expr.StandardFunctions()}
}

// ID identifies this grid instance.
func (g *Grid) ID() uuid.UUID {
	return g.id
}

// Shape returns the current shape.
func (g *Grid) Shape() coord.Shape {
	return g.store.Shape()
}

// Schema returns the attribute schema.
func (g *Grid) Schema() attrs.Schema {
	return g.cfg.schema
}

// Len returns the number of stored cells.
func (g *Grid) Len() int {
	return g.store.Len()
}

// Keys returns the stored coordinates in ascending order.
func (g *Grid) Keys() []coord.Coordinate {
	return g.store.Keys()
}

// Text returns the raw expression at c.
func (g *Grid) Text(c coord.Coordinate) string {
	return g.store.Text(c)
}

// TextKey returns the texts key selects without evaluating them, with the
// number of cells selected. A range key yields nested string tuples shaped
// like the result of ReadKey.
func (g *Grid) TextKey(key coord.Key) (cty.Value, int, error) {
	if c, ok := key.Coordinate(); ok {
		return cty.StringVal(g.Text(c)), 1, nil
	}
	b, err := g.store.Slice(key)
	if err != nil {
		return cty.NilVal, 0, err
	}
	return engine.TupleOf(sparse.Map(b, cty.StringVal).Nested()), b.Len(), nil
}

// Read returns the computed value of c. A cell that evaluated to an error
// returns that error.
func (g *Grid) Read(ctx context.Context, c coord.Coordinate) (cty.Value, error) {
	r := g.engine.Evaluate(ctx, c)
	if r.Err != nil {
		return cty.DynamicVal, r.Err
	}
	return r.Value, nil
}

// Value is the result of ReadKey: a scalar for a single-cell key or a block
// of results for a range key.
type Value struct {
	Scalar cty.Value
	Block  *engine.Block
}

// IsRange reports whether v holds a block.
func (v Value) IsRange() bool {
	return v.Block != nil
}

// ReadKey reads a single cell or a range. Errors of cells inside a range are
// kept in the block; the returned error reports a failure of the key itself.
func (g *Grid) ReadKey(ctx context.Context, key coord.Key) (Value, error) {
	if err := key.Validate(); err != nil {
		return Value{}, err
	}
	if c, ok := key.Coordinate(); ok {
		v, err := g.Read(ctx, c)
		return Value{Scalar: v}, err
	}
	b, err := g.engine.EvaluateRange(ctx, key)
	if err != nil {
		return Value{}, err
	}
	return Value{Block: b}, nil
}

// Write sets the text of c as one undoable step.
func (g *Grid) Write(ctx context.Context, c coord.Coordinate, text string) error {
	g.log.Mark()
	return g.write(ctx, c, text)
}

// write invalidates the result cache and stores text at c, keeping the
// attributes of the previous occupant. Rewriting the same text records
// nothing.
func (g *Grid) write(ctx context.Context, c coord.Coordinate, text string) error {
	if err := g.checkBounds(c); err != nil {
		return err
	}
	g.engine.Invalidate(ctx)

	old := g.store.Get(c)
	if old.Text == text {
		return nil
	}
	g.log.Record(history.WriteCell{Coord: c, Text: text, Prev: old.Text})
	ctxlog.FromContext(ctx).Debug("Writing cell.", "coord", c.String(), "grid_id", g.id.String())

	g.put(c, sparse.Cell{Text: text, Attrs: old.Attrs})
	return nil
}

// checkBounds rejects coordinates outside the current shape.
func (g *Grid) checkBounds(c coord.Coordinate) error {
	if !c.Valid() || !g.store.Shape().Contains(c) {
		return fmt.Errorf("%w: cell %s outside shape %s", coord.ErrBounds, c, g.store.Shape())
	}
	return nil
}

// put stores cell, dropping default attributes and removing cells left
// empty.
func (g *Grid) put(c coord.Coordinate, cell sparse.Cell) {
	if cell.Attrs.IsDefault(g.cfg.schema) {
		cell.Attrs = nil
	}
	if cell.Text == "" && cell.Attrs == nil {
		g.store.Remove(c)
		return
	}
	g.store.Set(c, cell)
}

// FindNextMatch returns the first stored cell, in circular order from start,
// whose text matches pattern.
func (g *Grid) FindNextMatch(start coord.Coordinate, pattern string, opts search.Options) (coord.Coordinate, bool, error) {
	return search.Next(g.store.Keys(), g.store.Text, start, pattern, opts)
}

// Undo reverts the last step.
func (g *Grid) Undo(ctx context.Context) error {
	return g.log.Undo(ctx, replayer{g})
}

// Redo re-applies the last undone step.
func (g *Grid) Redo(ctx context.Context) error {
	return g.log.Redo(ctx, replayer{g})
}

// Mark closes the current undo step.
func (g *Grid) Mark() {
	g.log.Mark()
}

// CanUndo reports whether there is a step to undo.
func (g *Grid) CanUndo() bool {
	return g.log.CanUndo()
}

// CanRedo reports whether there is a step to redo.
func (g *Grid) CanRedo() bool {
	return g.log.CanRedo()
}

// HistorySteps returns how many steps can be undone and redone.
func (g *Grid) HistorySteps() (undo, redo int) {
	return g.log.Steps()
}

// ResetHistory forgets every undo and redo step.
func (g *Grid) ResetHistory() {
	g.log.Reset()
}

// Freeze pins the current result of c.
func (g *Grid) Freeze(ctx context.Context, c coord.Coordinate) (cty.Value, error) {
	r := g.engine.Freeze(ctx, c)
	return r.Value, r.Err
}

// Unfreeze releases c and reports whether it was frozen.
func (g *Grid) Unfreeze(c coord.Coordinate) bool {
	return g.engine.Unfreeze(c)
}

// Frozen reports whether c is frozen.
func (g *Grid) Frozen(c coord.Coordinate) bool {
	return g.engine.Frozen(c)
}

// FrozenCells returns the frozen coordinates.
func (g *Grid) FrozenCells() []coord.Coordinate {
	return g.engine.FrozenCells()
}

// SetSafeMode makes reads return raw text when on.
func (g *Grid) SetSafeMode(on bool) {
	g.engine.SetSafeMode(on)
}

// SafeMode reports whether safe mode is on.
func (g *Grid) SafeMode() bool {
	return g.engine.SafeMode()
}

// AddMacro registers the macro declared by src and installs it in the shared
// scope. It returns false when a macro of that name already exists.
func (g *Grid) AddMacro(ctx context.Context, src string) (string, bool, error) {
	name, ok, err := g.macros.Add(src)
	if err != nil || !ok {
		return name, ok, err
	}
	m, _ := g.macros.Get(name)
	g.scope.Define(name, g.bounded(m.Function))
	g.engine.Invalidate(ctx)
	if _, builtin := expr.StandardFunctions()[name]; builtin {
		ctxlog.FromContext(ctx).Warn("Macro is shadowed by a built-in function.", "name", name)
	}
	return name, true, nil
}

// bounded wraps a macro so that every call counts against the engine's depth
// bound. A macro that recurses without end fails with
// engine.ErrDepthExceeded.
func (g *Grid) bounded(fn function.Function) function.Function {
	return function.New(&function.Spec{
		Description: fn.Description(),
		Params:      fn.Params(),
		VarParam:    fn.VarParam(),
		Type:        function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			release, err := g.engine.Nest()
			if err != nil {
				return cty.DynamicVal, err
			}
			defer release()
			return fn.Call(args)
		},
	})
}

// Macros returns the registered macros sorted by name.
func (g *Grid) Macros() []macros.Macro {
	names := g.macros.Names()
	out := make([]macros.Macro, 0, len(names))
	for _, name := range names {
		m, _ := g.macros.Get(name)
		out = append(out, m)
	}
	return out
}

// Globals returns the values bound by assignment expressions.
func (g *Grid) Globals() map[string]cty.Value {
	return g.scope.Globals()
}

// GlobalNames lists the bound globals in sorted order.
func (g *Grid) GlobalNames() []string {
	return g.scope.GlobalNames()
}

// Global returns the value bound to name.
func (g *Grid) Global(name string) (cty.Value, bool) {
	return g.scope.Lookup(name)
}
