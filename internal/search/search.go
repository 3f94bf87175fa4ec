// Package search finds cells whose text matches a query. Cells are visited in
// a circular order: from the start coordinate to the end of the grid and
// then from the beginning back up to the start.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"golang.org/x/text/cases"
)

// ErrDirection is returned when the search direction is missing or
// ambiguous.
var ErrDirection = errors.New("search needs exactly one direction")

// ErrInvalidPattern is returned when a regular expression does not compile.
var ErrInvalidPattern = errors.New("invalid search pattern")

// matchTimeout bounds a single regular expression match.
const matchTimeout = time.Second

// Direction is the order in which cells are visited. The zero value is not a
// valid direction.
type Direction int

const (
	// Down visits coordinates in ascending order.
	Down Direction = iota + 1
	// Up visits coordinates in descending order.
	Up
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Options select how a query matches.
type Options struct {
	Direction Direction
	WholeWord bool
	MatchCase bool
	Regexp    bool
}

// Validate checks the direction.
func (o Options) Validate() error {
	if o.Direction != Down && o.Direction != Up {
		return ErrDirection
	}
	return nil
}

// ParseFlags builds Options from flag names: exactly one of UP and DOWN, plus
// any of WHOLE_WORD, MATCH_CASE and REG_EXP. Names are case-insensitive.
func ParseFlags(flags []string) (Options, error) {
	var (
		opts       Options
		directions int
	)
	for _, f := range flags {
		switch strings.ToUpper(strings.TrimSpace(f)) {
		case "DOWN":
			opts.Direction = Down
			directions++
		case "UP":
			opts.Direction = Up
			directions++
		case "WHOLE_WORD":
			opts.WholeWord = true
		case "MATCH_CASE":
			opts.MatchCase = true
		case "REG_EXP":
			opts.Regexp = true
		default:
			return Options{}, fmt.Errorf("unknown search flag %q", f)
		}
	}
	if directions != 1 {
		return Options{}, ErrDirection
	}
	return opts, nil
}

// Matcher tests cell text against one compiled query.
type Matcher struct {
	re      *regexp2.Regexp
	fold    cases.Caser
	pattern string
	opts    Options
}

// Compile prepares pattern for matching with opts. Plain queries are
// substring matches; whole-word and regular-expression queries are compiled
// to a backtracking regular expression.
func Compile(pattern string, opts Options) (*Matcher, error) {
	m := &Matcher{pattern: pattern, opts: opts}

	if !opts.Regexp && !opts.WholeWord {
		if !opts.MatchCase {
			m.fold = cases.Fold()
			m.pattern = m.fold.String(pattern)
		}
		return m, nil
	}

	expr := pattern
	if !opts.Regexp {
		expr = regexp2.Escape(pattern)
	}
	if opts.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	reOpts := regexp2.None
	if !opts.MatchCase {
		reOpts |= regexp2.IgnoreCase
	}
	re, err := regexp2.Compile(expr, reOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	re.MatchTimeout = matchTimeout
	m.re = re
	return m, nil
}

// Match reports whether text contains the query.
func (m *Matcher) Match(text string) (bool, error) {
	if m.re != nil {
		return m.re.MatchString(text)
	}
	if m.opts.MatchCase {
		return strings.Contains(text, m.pattern), nil
	}
	return strings.Contains(m.fold.String(text), m.pattern), nil
}

// Order returns keys in the circular visiting order for dir: sorted
// ascending (Down) or descending (Up), rotated so that the first key is
// start or the first key after it.
func Order(keys []coord.Coordinate, start coord.Coordinate, dir Direction) []coord.Coordinate {
	sorted := append([]coord.Coordinate(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool {
		if dir == Up {
			return sorted[j].Less(sorted[i])
		}
		return sorted[i].Less(sorted[j])
	})

	pos := sort.Search(len(sorted), func(i int) bool {
		cmp := sorted[i].Compare(start)
		if dir == Up {
			return cmp <= 0
		}
		return cmp >= 0
	})
	out := make([]coord.Coordinate, 0, len(sorted))
	out = append(out, sorted[pos:]...)
	return append(out, sorted[:pos]...)
}

// Next returns the first coordinate in circular order from start whose text
// matches pattern.
func Next(keys []coord.Coordinate, text func(coord.Coordinate) string, start coord.Coordinate, pattern string, opts Options) (coord.Coordinate, bool, error) {
	if err := opts.Validate(); err != nil {
		return coord.Coordinate{}, false, err
	}
	m, err := Compile(pattern, opts)
	if err != nil {
		return coord.Coordinate{}, false, err
	}
	for _, c := range Order(keys, start, opts.Direction) {
		ok, err := m.Match(text(c))
		if err != nil {
			return coord.Coordinate{}, false, fmt.Errorf("matching cell %s: %w", c, err)
		}
		if ok {
			return c, true, nil
		}
	}
	return coord.Coordinate{}, false, nil
}
