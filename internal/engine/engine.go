package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/expr"
	"github.com/specialistvlad/sparsegrid/internal/telemetry"
	"github.com/zclconf/go-cty/cty"
)

// DefaultMaxDepth bounds how many cell evaluations may be nested inside one
// another.
const DefaultMaxDepth = 4096

// Result is the outcome of evaluating one cell: a value or an error.
type Result struct {
	Value cty.Value
	Err   error
}

// value returns r's value, mapping the zero Value to null.
func (r Result) value() cty.Value {
	if r.Value == cty.NilVal {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	return r.Value
}

// Store is the read side of the cell store the engine evaluates.
type Store interface {
	Text(c coord.Coordinate) string
	Shape() coord.Shape
	SubKeys(key coord.Key, a coord.Axis) ([]coord.Key, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithEvaluator replaces the default HCL evaluator.
func WithEvaluator(ev expr.Evaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

// WithScope shares an existing scope instead of creating a new one.
func WithScope(s *expr.Scope) Option {
	return func(e *Engine) { e.scope = s }
}

// WithMaxDepth sets the nesting bound. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// Engine evaluates cells of a Store. It is not safe for concurrent use.
type Engine struct {
	store     Store
	evaluator expr.Evaluator
	scope     *expr.Scope

	cache    map[coord.Coordinate]Result
	frozen   map[coord.Coordinate]Result
	safeMode bool

	// ranges holds the range keys being expanded; root is the key of the
	// top-level read in progress, nil between reads.
	ranges   map[coord.Key]bool
	root     *coord.Key
	depth    int
	maxDepth int
}

// New creates an engine over store.
func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		cache:    make(map[coord.Coordinate]Result),
		frozen:   make(map[coord.Coordinate]Result),
		ranges:   make(map[coord.Key]bool),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.evaluator == nil {
		e.evaluator = expr.NewHCLEvaluator()
	}
	if e.scope == nil {
		e.scope = expr.NewScope()
	}
	return e
}

// Scope returns the namespace shared by every evaluation.
func (e *Engine) Scope() *expr.Scope {
	return e.scope
}

// Evaluator returns the expression evaluator in use.
func (e *Engine) Evaluator() expr.Evaluator {
	return e.evaluator
}

// Evaluate returns the result of the cell at c. This is the entry point for
// direct callers; references made while evaluating go through ReadCell.
func (e *Engine) Evaluate(ctx context.Context, c coord.Coordinate) Result {
	defer e.enter(coord.KeyOf(c))()
	return e.evaluate(ctx, c)
}

// EvaluateRange returns the results of every cell key selects. The block has
// one dimension per sliced axis, in row, column, table order. Errors of
// individual cells are kept in their Results; the returned error reports a
// malformed key or infinite recursion.
func (e *Engine) EvaluateRange(ctx context.Context, key coord.Key) (*Block, error) {
	defer e.enter(key)()
	return e.evaluateRange(ctx, key)
}

// ReadCell implements expr.CellResolver.
func (e *Engine) ReadCell(ctx context.Context, c coord.Coordinate) (cty.Value, error) {
	r := e.evaluate(ctx, c)
	if r.Err != nil {
		return cty.DynamicVal, r.Err
	}
	return r.value(), nil
}

// ReadRange implements expr.CellResolver. The first failed cell fails the
// whole read.
func (e *Engine) ReadRange(ctx context.Context, key coord.Key) (cty.Value, error) {
	b, err := e.evaluateRange(ctx, key)
	if err != nil {
		return cty.DynamicVal, err
	}
	return b.Value()
}

// enter records the start of a top-level read.
func (e *Engine) enter(key coord.Key) func() {
	if e.root != nil {
		return func() {}
	}
	start := time.Now()
	e.root = &key
	return func() {
		e.root = nil
		telemetry.EvaluationDuration.Observe(time.Since(start).Seconds())
	}
}

func (e *Engine) evaluate(ctx context.Context, c coord.Coordinate) Result {
	if e.safeMode {
		telemetry.Evaluations.WithLabelValues(telemetry.OutcomeSafe).Inc()
		return Result{Value: cty.StringVal(e.store.Text(c))}
	}
	if r, ok := e.frozen[c]; ok {
		telemetry.Evaluations.WithLabelValues(telemetry.OutcomeFrozen).Inc()
		return r
	}
	if r, ok := e.cache[c]; ok {
		telemetry.CacheHits.Inc()
		if isMarker(r.Err) {
			telemetry.Evaluations.WithLabelValues(telemetry.OutcomeCircular).Inc()
		}
		return r
	}

	text := e.store.Text(c)
	if text == "" {
		r := Result{Value: cty.NullVal(cty.DynamicPseudoType)}
		e.cache[c] = r
		return r
	}
	if e.depth >= e.maxDepth {
		return Result{Err: &EvaluationError{Coord: c, Err: fmt.Errorf("%w (%d)", ErrDepthExceeded, e.maxDepth)}}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Evaluating cell.", "coord", c.String(), "depth", e.depth)

	e.cache[c] = Result{Err: &CircularDependencyError{Coord: c}}
	e.depth++
	r := e.compute(ctx, c, text)
	e.depth--
	if errors.Is(r.Err, ErrDepthExceeded) {
		// A shallower read of the same cell may succeed.
		delete(e.cache, c)
	} else {
		e.cache[c] = r
	}

	if r.Err != nil {
		telemetry.Evaluations.WithLabelValues(telemetry.OutcomeError).Inc()
		logger.Debug("Cell evaluated to an error.", "coord", c.String(), "error", r.Err)
	} else {
		telemetry.Evaluations.WithLabelValues(telemetry.OutcomeValue).Inc()
		logger.Debug("Cell evaluated.", "coord", c.String())
	}
	return r
}

func (e *Engine) compute(ctx context.Context, c coord.Coordinate, text string) Result {
	name, body, assign := SplitAssignment(text)
	if !assign {
		body = text
	}

	env := &expr.Environment{Coord: c, Scope: e.scope, Cells: e}
	val, err := e.evaluator.Evaluate(ctx, body, env)
	if err != nil {
		return Result{Err: &EvaluationError{Coord: c, Err: err}}
	}
	if val == cty.NilVal {
		val = cty.NullVal(cty.DynamicPseudoType)
	}
	if assign {
		e.scope.Bind(name, val)
		ctxlog.FromContext(ctx).Debug("Bound global.", "name", name, "coord", c.String())
	}
	return Result{Value: val}
}

// Nest counts one nested call, such as a macro invocation, against the same
// depth bound as cell evaluations. release must be called when the call
// returns.
func (e *Engine) Nest() (release func(), err error) {
	if e.depth >= e.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrDepthExceeded, e.maxDepth)
	}
	e.depth++
	return func() { e.depth-- }, nil
}

// Invalidate empties the result cache.
func (e *Engine) Invalidate(ctx context.Context) {
	if len(e.cache) == 0 {
		return
	}
	ctxlog.FromContext(ctx).Debug("Invalidating result cache.", "entries", len(e.cache))
	e.cache = make(map[coord.Coordinate]Result)
	telemetry.CacheInvalidations.Inc()
}

// Cached returns the cached result at c, if any.
func (e *Engine) Cached(c coord.Coordinate) (Result, bool) {
	r, ok := e.cache[c]
	return r, ok
}

// Freeze pins the current result of c until Unfreeze.
func (e *Engine) Freeze(ctx context.Context, c coord.Coordinate) Result {
	delete(e.frozen, c)
	r := e.Evaluate(ctx, c)
	e.frozen[c] = r
	return r
}

// Unfreeze releases c and reports whether it was frozen.
func (e *Engine) Unfreeze(c coord.Coordinate) bool {
	_, ok := e.frozen[c]
	delete(e.frozen, c)
	return ok
}

// Frozen reports whether c is frozen.
func (e *Engine) Frozen(c coord.Coordinate) bool {
	_, ok := e.frozen[c]
	return ok
}

// FrozenCells returns the frozen coordinates in ascending order.
func (e *Engine) FrozenCells() []coord.Coordinate {
	out := make([]coord.Coordinate, 0, len(e.frozen))
	for c := range e.frozen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// SetSafeMode switches raw-text reads on or off.
func (e *Engine) SetSafeMode(on bool) {
	e.safeMode = on
}

// SafeMode reports whether reads return raw text.
func (e *Engine) SafeMode() bool {
	return e.safeMode
}

func isMarker(err error) bool {
	_, ok := err.(*CircularDependencyError)
	return ok
}
