package sparse

import "fmt"

// Block is a dense, row-major multi-dimensional result whose shape is
// declared up front rather than inferred from its contents. A Block with an
// empty Shape holds exactly one item.
type Block[T any] struct {
	Shape []int
	Items []T
}

// NewBlock allocates a block of the given shape filled with zero values.
func NewBlock[T any](shape ...int) *Block[T] {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return &Block[T]{Shape: append([]int(nil), shape...), Items: make([]T, n)}
}

// Dims returns the number of dimensions.
func (b *Block[T]) Dims() int {
	return len(b.Shape)
}

// Len returns the number of items.
func (b *Block[T]) Len() int {
	return len(b.Items)
}

func (b *Block[T]) offset(idx []int) int {
	if len(idx) != len(b.Shape) {
		panic(fmt.Sprintf("sparse: block index %v does not match shape %v", idx, b.Shape))
	}
	off := 0
	for i, d := range b.Shape {
		if idx[i] < 0 || idx[i] >= d {
			panic(fmt.Sprintf("sparse: block index %v out of shape %v", idx, b.Shape))
		}
		off = off*d + idx[i]
	}
	return off
}

// At returns the item at idx, one index per dimension.
func (b *Block[T]) At(idx ...int) T {
	return b.Items[b.offset(idx)]
}

// Nested converts the block into nested []any slices, one level per
// dimension. A zero-dimensional block yields its single item.
func (b *Block[T]) Nested() any {
	if len(b.Shape) == 0 {
		if len(b.Items) == 0 {
			return nil
		}
		return b.Items[0]
	}
	items := b.Items
	var build func(dim int) []any
	build = func(dim int) []any {
		out := make([]any, b.Shape[dim])
		for i := range out {
			if dim == len(b.Shape)-1 {
				out[i] = items[0]
				items = items[1:]
				continue
			}
			out[i] = build(dim + 1)
		}
		return out
	}
	return build(0)
}

// Map returns a block of the same shape with f applied to every item.
func Map[T, U any](b *Block[T], f func(T) U) *Block[U] {
	out := &Block[U]{Shape: append([]int(nil), b.Shape...), Items: make([]U, len(b.Items))}
	for i, v := range b.Items {
		out.Items[i] = f(v)
	}
	return out
}
