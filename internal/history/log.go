// Package history records grid mutations as pairs of inverse operations and
// replays them for undo and redo.
//
// Each user action is one step. Steps are delimited by marks on the undo
// stack: the grid marks the log before recording the first operation of an
// action, and marking is idempotent, so a single action may record any
// number of operations:
//
//	log.Mark()
//	log.Record(history.WriteCell{Coord: c, Text: "1", Prev: ""})
//	...
//	err := log.Undo(ctx, target)
//
// While a replay runs the log is active and records nothing, so operations
// re-executed by undo or redo do not record themselves again.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/telemetry"
)

// ErrReplayActive is returned by Undo and Redo when called from inside a
// replay.
var ErrReplayActive = errors.New("undo or redo already in progress")

// entry is either a step boundary or a recorded undo/redo pair.
type entry struct {
	mark bool
	undo Operation
	redo Operation
}

// Log holds the undo and redo stacks. It is not safe for concurrent use.
type Log struct {
	undoStack []entry
	redoStack []entry
	active    bool
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Append records an undo/redo pair. It does nothing while a replay is
// running; otherwise it discards everything that could have been redone.
func (l *Log) Append(undo, redo Operation) {
	if l.active {
		return
	}
	l.undoStack = append(l.undoStack, entry{undo: undo, redo: redo})
	l.redoStack = nil
}

// Record appends op together with its inverse.
func (l *Log) Record(op Operation) {
	l.Append(op.Invert(), op)
}

// Mark closes the current step. It does nothing on an empty log or when the
// step is already closed.
func (l *Log) Mark() {
	l.undoStack = markStack(l.undoStack)
}

// Active reports whether a replay is running.
func (l *Log) Active() bool {
	return l.active
}

// Undo reverts the most recent step by applying the undo half of each of
// its entries, newest first. Undo on an empty log does nothing.
func (l *Log) Undo(ctx context.Context, t Target) error {
	return l.replay(ctx, t, "undo")
}

// Redo re-applies the most recently undone step.
func (l *Log) Redo(ctx context.Context, t Target) error {
	return l.replay(ctx, t, "redo")
}

func (l *Log) replay(ctx context.Context, t Target, direction string) error {
	if l.active {
		return ErrReplayActive
	}
	l.active = true
	defer func() { l.active = false }()

	from, to := &l.undoStack, &l.redoStack
	if direction == "redo" {
		from, to = to, from
	}

	*from = trimMarks(*from)
	if len(*from) == 0 {
		return nil
	}
	*to = markStack(*to)

	logger := ctxlog.FromContext(ctx)
	applied := 0
	for len(*from) > 0 {
		top := (*from)[len(*from)-1]
		if top.mark {
			break
		}
		op := top.undo
		if direction == "redo" {
			op = top.redo
		}
		if err := op.Apply(ctx, t); err != nil {
			return fmt.Errorf("%s %s: %w", direction, op, err)
		}
		logger.Debug("Replayed operation.", "direction", direction, "operation", op.String())
		*from = (*from)[:len(*from)-1]
		*to = append(*to, top)
		applied++
	}

	telemetry.HistoryReplays.WithLabelValues(direction).Inc()
	logger.Debug("Replayed step.", "direction", direction, "operations", applied)
	return nil
}

// CanUndo reports whether there is a step to undo.
func (l *Log) CanUndo() bool {
	return len(trimMarks(l.undoStack)) > 0
}

// CanRedo reports whether there is a step to redo.
func (l *Log) CanRedo() bool {
	return len(trimMarks(l.redoStack)) > 0
}

// Steps returns the number of steps that can be undone and redone.
func (l *Log) Steps() (undo, redo int) {
	return countSteps(l.undoStack), countSteps(l.redoStack)
}

// Reset forgets every step.
func (l *Log) Reset() {
	l.undoStack = nil
	l.redoStack = nil
	l.active = false
}

func markStack(s []entry) []entry {
	if len(s) == 0 || s[len(s)-1].mark {
		return s
	}
	return append(s, entry{mark: true})
}

func trimMarks(s []entry) []entry {
	for len(s) > 0 && s[len(s)-1].mark {
		s = s[:len(s)-1]
	}
	return s
}

func countSteps(s []entry) int {
	n := 0
	for i, e := range s {
		if !e.mark && (i == 0 || s[i-1].mark) {
			n++
		}
	}
	return n
}
