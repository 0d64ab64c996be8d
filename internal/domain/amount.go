package domain

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// API consumers read amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

var amountReplacer = strings.NewReplacer(",", "", "₹", "", "$", "", " ", "")

// ParseAmount coerces loosely typed numeric input into a decimal. Missing,
// malformed and non-finite values become zero; it never fails.
func ParseAmount(v interface{}) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(x)
	case float32:
		return ParseAmount(float64(x))
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case json.Number:
		return ParseAmount(x.String())
	case string:
		s := amountReplacer.Replace(strings.TrimSpace(x))
		if s == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}
