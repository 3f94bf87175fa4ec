// Package sheetfile reads and writes grids as HCL sheet files.
//
// A sheet file declares the shape, one block per stored cell keyed by its
// "row,col,tab" coordinate, and the source of every macro:
//
//	shape {
//	  rows = 10
//	  cols = 10
//	  tabs = 1
//	}
//
//	cell "0,1,0" {
//	  text       = "S(0, 0, 0) + 1"
//	  attributes = { bgcolor = "#ff0000" }
//	}
//
//	macros = ["function \"double\" {\n  params = [x]\n  result = x * 2\n}\n"]
package sheetfile

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/sparsegrid/internal/attrs"
	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/specialistvlad/sparsegrid/internal/ctxlog"
	"github.com/specialistvlad/sparsegrid/internal/grid"
	"github.com/zclconf/go-cty/cty"
)

// file is the decoded top level of a sheet file.
type file struct {
	Shape  *shapeBlock `hcl:"shape,block"`
	Cells  []cellBlock `hcl:"cell,block"`
	Macros []string    `hcl:"macros,optional"`
}

type shapeBlock struct {
	Rows int `hcl:"rows"`
	Cols int `hcl:"cols"`
	Tabs int `hcl:"tabs"`
}

type cellBlock struct {
	Key        string    `hcl:"key,label"`
	Text       string    `hcl:"text,optional"`
	Attributes cty.Value `hcl:"attributes,optional"`
}

// Load parses and decodes the sheet file at path.
func Load(ctx context.Context, path string) (grid.Snapshot, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding sheet file.", "path", path)

	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return grid.Snapshot{}, fmt.Errorf("failed to parse sheet file %s: %s", path, diags.Error())
	}
	s, err := decode(f.Body)
	if err != nil {
		return grid.Snapshot{}, fmt.Errorf("failed to decode sheet file %s: %w", path, err)
	}

	logger.Debug("Successfully decoded sheet file.", "path", path, "cells_found", len(s.Cells), "macros_found", len(s.Macros))
	return s, nil
}

// Parse decodes sheet file source held in memory. filename is only used in
// diagnostics.
func Parse(src []byte, filename string) (grid.Snapshot, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return grid.Snapshot{}, fmt.Errorf("failed to parse sheet file %s: %s", filename, diags.Error())
	}
	return decode(f.Body)
}

func decode(body hcl.Body) (grid.Snapshot, error) {
	var cfg file
	if diags := gohcl.DecodeBody(body, nil, &cfg); diags.HasErrors() {
		return grid.Snapshot{}, diags
	}

	s := grid.Snapshot{Shape: grid.DefaultShape, Macros: cfg.Macros}
	if cfg.Shape != nil {
		s.Shape = coord.Shape{Rows: cfg.Shape.Rows, Cols: cfg.Shape.Cols, Tabs: cfg.Shape.Tabs}
	}
	if err := s.Shape.Validate(); err != nil {
		return grid.Snapshot{}, err
	}

	seen := make(map[coord.Coordinate]bool, len(cfg.Cells))
	for _, block := range cfg.Cells {
		c, err := coord.ParseCoordinate(block.Key)
		if err != nil {
			return grid.Snapshot{}, fmt.Errorf("cell %q: %w", block.Key, err)
		}
		if seen[c] {
			return grid.Snapshot{}, fmt.Errorf("cell %s declared twice", c)
		}
		seen[c] = true

		set, err := attributeSet(block.Attributes)
		if err != nil {
			return grid.Snapshot{}, fmt.Errorf("cell %s: %w", c, err)
		}
		s.Cells = append(s.Cells, grid.CellRecord{Coord: c, Text: block.Text, Attrs: set})
	}
	return s, nil
}

func attributeSet(v cty.Value) (attrs.Set, error) {
	if v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("attributes must be an object, got %s", ty.FriendlyName())
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("attributes must be known values")
	}
	set := make(attrs.Set, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		k, el := it.Element()
		set[k.AsString()] = el
	}
	return set, nil
}

// Encode renders s as sheet file source. Cells appear in the order of
// s.Cells and attributes in name order.
func Encode(s grid.Snapshot) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	shape := body.AppendNewBlock("shape", nil).Body()
	shape.SetAttributeValue("rows", cty.NumberIntVal(int64(s.Shape.Rows)))
	shape.SetAttributeValue("cols", cty.NumberIntVal(int64(s.Shape.Cols)))
	shape.SetAttributeValue("tabs", cty.NumberIntVal(int64(s.Shape.Tabs)))

	for _, rec := range s.Cells {
		body.AppendNewline()
		cell := body.AppendNewBlock("cell", []string{rec.Coord.String()}).Body()
		cell.SetAttributeValue("text", cty.StringVal(rec.Text))
		if len(rec.Attrs) > 0 {
			cell.SetAttributeValue("attributes", cty.ObjectVal(rec.Attrs))
		}
	}

	if len(s.Macros) > 0 {
		srcs := make([]cty.Value, len(s.Macros))
		for i, m := range s.Macros {
			srcs[i] = cty.StringVal(m)
		}
		body.AppendNewline()
		body.SetAttributeValue("macros", cty.TupleVal(srcs))
	}
	return f.Bytes()
}

// Save writes s to path, replacing any existing file.
func Save(ctx context.Context, path string, s grid.Snapshot) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, Encode(s), 0o644); err != nil {
		return fmt.Errorf("failed to write sheet file %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace sheet file %s: %w", path, err)
	}
	ctxlog.FromContext(ctx).Info("Sheet file saved.", "path", path, "cells", len(s.Cells), "macros", len(s.Macros))
	return nil
}
