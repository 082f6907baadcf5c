package quote

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/generic"
)

// Num is a tolerant numeric field. Documents have been edited by several
// generations of the wizard: numbers arrive as numbers, as strings, as null
// or not at all. Anything unreadable, NaN or infinite reads as 0.
type Num float64

func (n *Num) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = 0
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	*n = Num(f)
	return nil
}

func (n Num) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	return json.Marshal(f)
}

func (n Num) Decimal() decimal.Decimal { return generic.Dec(float64(n)) }
func (n Num) Int() int                 { return generic.SafeInt(float64(n)) }

// IsWhole reports whether n has no fractional part.
func (n Num) IsWhole() bool { return float64(n) == math.Trunc(float64(n)) }

// NumOf converts a decimal back to a document number.
func NumOf(d decimal.Decimal) Num {
	f, _ := d.Float64()
	return Num(f)
}

func numsToDecimals(ns []Num) []decimal.Decimal {
	out := make([]decimal.Decimal, len(ns))
	for i, n := range ns {
		out[i] = n.Decimal()
	}
	return out
}
