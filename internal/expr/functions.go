package expr

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/specialistvlad/sparsegrid/internal/coord"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// CellFunctionName is the function through which expressions read cells.
const CellFunctionName = "S"

// StandardFunctions returns the allow-listed functions every cell
// expression may call. Anything not in this table, or installed as a macro,
// is unknown to the expression language.
func StandardFunctions() map[string]function.Function {
	return map[string]function.Function{
		"abs":       stdlib.AbsoluteFunc,
		"ceil":      stdlib.CeilFunc,
		"floor":     stdlib.FloorFunc,
		"min":       stdlib.MinFunc,
		"max":       stdlib.MaxFunc,
		"pow":       stdlib.PowFunc,
		"log":       stdlib.LogFunc,
		"signum":    stdlib.SignumFunc,
		"int":       stdlib.IntFunc,
		"parseint":  stdlib.ParseIntFunc,
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"strlen":    stdlib.StrlenFunc,
		"substr":    stdlib.SubstrFunc,
		"join":      stdlib.JoinFunc,
		"split":     stdlib.SplitFunc,
		"format":    stdlib.FormatFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"replace":   stdlib.ReplaceFunc,
		"concat":    stdlib.ConcatFunc,
		"length":    stdlib.LengthFunc,
		"element":   stdlib.ElementFunc,
		"coalesce":  stdlib.CoalesceFunc,
		"flatten":   stdlib.FlattenFunc,
		"range":     stdlib.RangeFunc,
		"sort":      stdlib.SortFunc,
		"sum":       SumFunc,
		"avg":       AvgFunc,
	}
}

// SumFunc adds every number among its arguments, descending into tuples,
// lists and sets. Nulls (empty cells) are skipped.
var SumFunc = function.New(&function.Spec{
	Description: "Adds every number in the arguments, descending into collections.",
	VarParam: &function.Parameter{
		Name:      "values",
		Type:      cty.DynamicPseudoType,
		AllowNull: true,
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		total, _, err := accumulate(args)
		if err != nil {
			return cty.UnknownVal(cty.Number), err
		}
		return cty.NumberVal(total), nil
	},
})

// AvgFunc returns the arithmetic mean of the numbers among its arguments.
var AvgFunc = function.New(&function.Spec{
	Description: "Averages every number in the arguments, descending into collections.",
	VarParam: &function.Parameter{
		Name:      "values",
		Type:      cty.DynamicPseudoType,
		AllowNull: true,
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		total, n, err := accumulate(args)
		if err != nil {
			return cty.UnknownVal(cty.Number), err
		}
		if n == 0 {
			return cty.UnknownVal(cty.Number), errors.New("no numbers to average")
		}
		return cty.NumberVal(new(big.Float).Quo(total, new(big.Float).SetInt64(int64(n)))), nil
	},
})

func accumulate(values []cty.Value) (*big.Float, int, error) {
	total := new(big.Float)
	count := 0
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		if !v.IsKnown() {
			return nil, 0, errors.New("value is not yet known")
		}
		ty := v.Type()
		switch {
		case ty == cty.Number:
			total.Add(total, v.AsBigFloat())
			count++
		case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
			var elems []cty.Value
			it := v.ElementIterator()
			for it.Next() {
				_, ev := it.Element()
				elems = append(elems, ev)
			}
			sub, n, err := accumulate(elems)
			if err != nil {
				return nil, 0, err
			}
			total.Add(total, sub)
			count += n
		default:
			return nil, 0, fmt.Errorf("cannot add a value of type %s", ty.FriendlyName())
		}
	}
	return total, count, nil
}

// cellFunction builds the S(row, col, tab) function bound to one
// evaluation. Each argument is a number selecting a single index or a
// string slice such as "0:3"; any slice turns the call into a range read.
func cellFunction(ctx context.Context, cells CellResolver) function.Function {
	params := make([]function.Parameter, 0, 3)
	for _, a := range coord.Axes {
		params = append(params, function.Parameter{Name: a.String(), Type: cty.DynamicPseudoType})
	}

	return function.New(&function.Spec{
		Description: "Reads a cell, or a range of cells when any argument is a slice string.",
		Params:      params,
		Type:        function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			if cells == nil {
				return cty.DynamicVal, errors.New("cell references are not available here")
			}
			var key coord.Key
			for i, arg := range args {
				sel, err := selectorArg(arg)
				if err != nil {
					return cty.DynamicVal, function.NewArgError(i, err)
				}
				key[i] = sel
			}
			if err := key.Validate(); err != nil {
				return cty.DynamicVal, err
			}
			if c, ok := key.Coordinate(); ok {
				return cells.ReadCell(ctx, c)
			}
			return cells.ReadRange(ctx, key)
		},
	})
}

func selectorArg(v cty.Value) (coord.Selector, error) {
	switch v.Type() {
	case cty.Number:
		var i int
		if err := gocty.FromCtyValue(v, &i); err != nil {
			return coord.Selector{}, fmt.Errorf("index must be a whole number: %w", err)
		}
		return coord.At(i), nil
	case cty.String:
		return coord.ParseSelector(v.AsString())
	default:
		return coord.Selector{}, fmt.Errorf("must be a number or a slice string, not %s", v.Type().FriendlyName())
	}
}
