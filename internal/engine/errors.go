package engine

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/coord"
)

var (
	// ErrCircularDependency matches the marker read by an evaluation that
	// re-enters a cell still in flight.
	ErrCircularDependency = errors.New("circular dependency")

	// ErrInfiniteRecursion is returned when a range read requires itself.
	ErrInfiniteRecursion = errors.New("infinite recursion detected")

	// ErrDepthExceeded is returned when nested evaluations go deeper than the
	// engine's configured bound.
	ErrDepthExceeded = errors.New("evaluation depth exceeded")
)

// CircularDependencyError is the in-flight marker of the cell at Coord.
type CircularDependencyError struct {
	Coord coord.Coordinate
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency at cell %s", e.Coord)
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// EvaluationError is the error result of the cell at Coord.
type EvaluationError struct {
	Coord coord.Coordinate
	Err   error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("cell %s: %v", e.Coord, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
