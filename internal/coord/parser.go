// internal/coord/parser.go
package coord

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseKey parses "row,col,tab" where each part is an integer or a slice
// such as "0:3", ":" or "::-1". Surrounding parentheses and whitespace are
// ignored.
func ParseKey(raw string) (Key, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "(")
	trimmed = strings.TrimSuffix(trimmed, ")")
	if trimmed == "" {
		return Key{}, fmt.Errorf("%w: key cannot be empty", ErrBounds)
	}

	parts := strings.Split(trimmed, ",")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("%w: key %q needs 3 components, got %d", ErrBounds, raw, len(parts))
	}

	var key Key
	for i, part := range parts {
		sel, err := ParseSelector(part)
		if err != nil {
			return Key{}, fmt.Errorf("in key %q: %w", raw, err)
		}
		key[i] = sel
	}
	return key, key.Validate()
}

// ParseSelector parses a single key component.
func ParseSelector(raw string) (Selector, error) {
	part := strings.TrimSpace(raw)
	if !strings.Contains(part, ":") {
		i, err := strconv.Atoi(part)
		if err != nil {
			return Selector{}, fmt.Errorf("%w: invalid index %q", ErrBounds, part)
		}
		return At(i), nil
	}

	bounds := strings.Split(part, ":")
	if len(bounds) > 3 {
		return Selector{}, fmt.Errorf("%w: invalid slice %q", ErrBounds, part)
	}

	sel := Selector{IsSlice: true}
	for i, b := range bounds {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		n, err := strconv.Atoi(b)
		if err != nil {
			return Selector{}, fmt.Errorf("%w: invalid slice bound %q in %q", ErrBounds, b, part)
		}
		switch i {
		case 0:
			sel.Start, sel.HasStart = n, true
		case 1:
			sel.Stop, sel.HasStop = n, true
		case 2:
			if n == 0 {
				return Selector{}, fmt.Errorf("%w: slice step cannot be zero", ErrBounds)
			}
			sel.Step, sel.HasStep = n, true
		}
	}
	return sel, nil
}

// ParseCoordinate parses "row,col,tab" into a Coordinate.
func ParseCoordinate(raw string) (Coordinate, error) {
	key, err := ParseKey(raw)
	if err != nil {
		return Coordinate{}, err
	}
	c, ok := key.Coordinate()
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: %q is a range, not a single cell", ErrBounds, raw)
	}
	return c, nil
}
