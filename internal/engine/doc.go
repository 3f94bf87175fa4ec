// Package engine resolves coordinates to computed results.
//
// A cell is evaluated on demand by handing its text to the pluggable
// expr.Evaluator. Every result, value or error, is memoised in a result cache
// that the grid clears entirely on any write. While a cell is being
// evaluated its cache slot holds a CircularDependencyError, so an expression
// that re-enters the same cell before it completes reads that error instead
// of recursing forever. Range reads are expanded one sliced axis at a time
// and are rejected with ErrInfiniteRecursion when the same range reappears
// while it is still being computed.
//
// Frozen cells bypass evaluation entirely and safe mode bypasses it for
// every cell, returning raw text instead.
package engine
