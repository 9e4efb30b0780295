package price

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/itchyny/gojq"
	"github.com/shopspring/decimal"
)

// field is a compiled jq path that pulls a price out of a decoded response.
type field struct {
	expr string
	code *gojq.Code
}

// mustField compiles a jq expression. It panics on an invalid expression,
// so it is only used with the constant paths of this package.
func mustField(expr string) field {
	query, err := gojq.Parse(expr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse jq expression %q: %v", expr, err))
	}
	code, err := gojq.Compile(query)
	if err != nil {
		panic(fmt.Sprintf("failed to compile jq expression %q: %v", expr, err))
	}
	return field{expr: expr, code: code}
}

// decimal runs the expression against doc and converts the first result.
// JSON numbers are handed to jq as strings; jq would otherwise turn them
// into float64 and drop digits.
func (f field) decimal(doc map[string]any) (decimal.Decimal, error) {
	iter := f.code.Run(numbersToStrings(doc))
	v, ok := iter.Next()
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%s: no value", f.expr)
	}
	if err, isErr := v.(error); isErr {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", f.expr, err)
	}
	d, err := toDecimal(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", f.expr, err)
	}
	return d, nil
}

// numbersToStrings returns a copy of v with every json.Number replaced by
// its literal text.
func numbersToStrings(v any) any {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = numbersToStrings(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = numbersToStrings(e)
		}
		return out
	default:
		return v
	}
}

// toDecimal converts a jq result to a decimal. Prices may arrive as JSON
// numbers or as numeric strings.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Decimal{}, fmt.Errorf("value is null")
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case *big.Int:
		return decimal.NewFromBigInt(n, 0), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("value %q is not a number", n)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("value of type %T is not a number", v)
	}
}
