// Package attrs holds per-cell formatting metadata. Attributes ride along
// with a cell's text without displacing it, and every lookup of a known
// attribute falls back to the schema's default.
package attrs

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Schema maps every known attribute name to a factory for its default value.
type Schema map[string]func() cty.Value

// DefaultSchema returns the attribute set understood by renderers.
func DefaultSchema() Schema {
	return Schema{
		"textfont":       func() cty.Value { return cty.StringVal("sans") },
		"pointsize":      func() cty.Value { return cty.NumberIntVal(10) },
		"fontweight":     func() cty.Value { return cty.StringVal("normal") },
		"fontstyle":      func() cty.Value { return cty.StringVal("normal") },
		"textcolor":      func() cty.Value { return cty.StringVal("#000000") },
		"bgcolor":        func() cty.Value { return cty.StringVal("#ffffff") },
		"underline":      func() cty.Value { return cty.False },
		"strikethrough":  func() cty.Value { return cty.False },
		"angle":          func() cty.Value { return cty.NumberIntVal(0) },
		"justification":  func() cty.Value { return cty.StringVal("left") },
		"vertical_align": func() cty.Value { return cty.StringVal("top") },
	}
}

// Names returns the attribute names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether name belongs to the schema.
func (s Schema) Known(name string) bool {
	_, ok := s[name]
	return ok
}

// Default returns a fresh default value for name. Unknown names yield a
// dynamic null and false.
func (s Schema) Default(name string) (cty.Value, bool) {
	factory, ok := s[name]
	if !ok {
		return cty.NullVal(cty.DynamicPseudoType), false
	}
	return factory(), true
}

// Set is the attribute mapping owned by one cell. A nil Set is valid and
// behaves as all-defaults.
type Set map[string]cty.Value

// Get returns the stored value of name or the schema default.
func (set Set) Get(schema Schema, name string) cty.Value {
	if v, ok := set[name]; ok {
		return v
	}
	v, _ := schema.Default(name)
	return v
}

// Ensure returns a set holding name, seeding the schema default when the
// name is missing. Existing values are left untouched. A nil receiver
// allocates a new set.
func (set Set) Ensure(schema Schema, name string) Set {
	if set == nil {
		set = make(Set)
	}
	if _, ok := set[name]; !ok {
		if v, known := schema.Default(name); known {
			set[name] = v
		}
	}
	return set
}

// Clone returns an independent copy of set.
func (set Set) Clone() Set {
	if set == nil {
		return nil
	}
	out := make(Set, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out
}

// IsDefault reports whether every schema attribute resolves to its default.
func (set Set) IsDefault(schema Schema) bool {
	for name := range schema {
		def, _ := schema.Default(name)
		if !set.Get(schema, name).RawEquals(def) {
			return false
		}
	}
	return true
}

// Copy copies the attributes of src that belong to the schema into dst and
// returns the resulting set. Names missing from src are skipped.
func Copy(schema Schema, src, dst Set) Set {
	for name := range schema {
		v, ok := src[name]
		if !ok {
			continue
		}
		if dst == nil {
			dst = make(Set)
		}
		dst[name] = v
	}
	return dst
}
