package expr

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Text renders v as cell text. Scalars become their plain representation
// (numbers without trailing zeros, strings unquoted, null as empty text);
// collections become HCL syntax that evaluates back to the same value.
func Text(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return ""
	}
	if !v.IsWhollyKnown() {
		return "(unknown)"
	}
	v, _ = v.Unmark()

	switch ty := v.Type(); {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Number:
		return numberText(v.AsBigFloat())
	case ty == cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		return strings.TrimSpace(string(hclwrite.TokensForValue(v).Bytes()))
	}
}

func numberText(f *big.Float) string {
	if f.IsInt() {
		i, _ := f.Int(nil)
		return i.String()
	}
	fl, _ := f.Float64()
	return strconv.FormatFloat(fl, 'g', -1, 64)
}
