package engine

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/sparse"
	"github.com/specialistvlad/sparsegrid/internal/telemetry"
	"github.com/zclconf/go-cty/cty"
)

// Block holds the results of a range read.
type Block struct {
	*sparse.Block[Result]
}

// Err returns the first error among the block's results.
func (b *Block) Err() error {
	for _, r := range b.Items {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// Values returns the block's values, failing on the first error result.
func (b *Block) Values() (*sparse.Block[cty.Value], error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	return sparse.Map(b.Block, Result.value), nil
}

// Value converts the block to nested tuples, one level per dimension.
func (b *Block) Value() (cty.Value, error) {
	vals, err := b.Values()
	if err != nil {
		return cty.DynamicVal, err
	}
	return TupleOf(vals.Nested()), nil
}

// TupleOf converts nested []any slices of cty values, as returned by
// sparse.Block.Nested, into nested tuples.
func TupleOf(n any) cty.Value {
	switch t := n.(type) {
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal
		}
		elems := make([]cty.Value, len(t))
		for i, el := range t {
			elems[i] = TupleOf(el)
		}
		return cty.TupleVal(elems)
	case cty.Value:
		return t
	default:
		return cty.NullVal(cty.DynamicPseudoType)
	}
}

// evaluateRange reduces the last sliced axis of key, evaluating each
// sub-key either as a cell or as a smaller range.
func (e *Engine) evaluateRange(ctx context.Context, key coord.Key) (*Block, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	sliced := key.SlicedAxes()
	if len(sliced) == 0 {
		return nil, fmt.Errorf("%w: key %s has no sliced axis", coord.ErrBounds, key)
	}
	if e.ranges[key] {
		telemetry.InfiniteRecursions.Inc()
		return nil, fmt.Errorf("%w: range %s", ErrInfiniteRecursion, key)
	}

	last := sliced[len(sliced)-1]
	subs, err := e.store.SubKeys(key, last)
	if err != nil {
		return nil, err
	}
	if e.root != nil && *e.root != key {
		for _, sub := range subs {
			if sub == *e.root {
				telemetry.InfiniteRecursions.Inc()
				return nil, fmt.Errorf("%w: range %s contains %s", ErrInfiniteRecursion, key, sub)
			}
		}
	}

	shape := make([]int, len(sliced))
	for i, a := range sliced {
		idx, err := key[a].Indices(e.store.Shape().Len(a))
		if err != nil {
			return nil, err
		}
		shape[i] = len(idx)
	}

	ctxlog.FromContext(ctx).Debug("Evaluating range.", "key", key.String(), "shape", shape)
	e.ranges[key] = true
	defer delete(e.ranges, key)

	out := &Block{sparse.NewBlock[Result](shape...)}
	n := len(subs)
	for i, sub := range subs {
		if len(sliced) == 1 {
			c, _ := sub.Coordinate()
			out.Items[i] = e.evaluate(ctx, c)
			continue
		}
		inner, err := e.evaluateRange(ctx, sub)
		if err != nil {
			return nil, err
		}
		for j, r := range inner.Items {
			out.Items[j*n+i] = r
		}
	}
	return out, nil
}
