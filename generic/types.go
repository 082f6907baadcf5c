/*
Package generic provides the domain-agnostic core of the incentive engine.

PURPOSE:
  This package contains the types and algorithms shared by every reward
  track. Whether a track counts SIM activations, broadband lines or energy
  contracts, the same pieces are reused: decimal quantities, entities
  (store or company), tier lookup against ordered thresholds, and payout
  breakdowns.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 135 points, 3600 euro, 180 pieces)
  - Entity: What a result is computed for (a store or a company)
  - Payout: Euro breakdown shared by every track result
  - Dec/SafeDecimal: NaN-safe conversion from raw float input

DESIGN PRINCIPLES:
  1. Purity: Nothing in this package performs I/O or holds mutable state
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Totality: Corrupt numeric input becomes zero, never NaN or Inf
  4. Type Safety: Strong typing for entity kinds and track IDs

USAGE:
  points := generic.NewAmount(135, generic.UnitPoints)
  store := generic.StoreEntity("PDV001")
  tier := generic.Thresholds{generic.Dec(70), generic.Dec(105)}.TierFor(points.Value)

SEE ALSO:
  - tiers.go: Threshold and multiplier lookup
  - time.go: Day-granularity dates
  - resource.go: Track registry
*/
package generic

import (
	"math"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitPoints Unit = "points"
	UnitEuro   Unit = "euro"
	UnitPieces Unit = "pieces"
	UnitDays   Unit = "days"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: Dec(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

// =============================================================================
// SAFE NUMERICS
// =============================================================================

// Dec converts a float to a decimal. NaN and infinities become zero so one
// corrupt record cannot poison a sum.
func Dec(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// SafeDecimal dereferences an optional float, treating nil as zero.
func SafeDecimal(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return Dec(*f)
}

// SafeInt converts a raw float piece count to an int. Negative, NaN and
// infinite values become zero; fractions are truncated.
func SafeInt(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// Pieces converts a piece count to a decimal.
func Pieces(n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(n))
}

// Ratio returns num/den, or fallback when den is zero.
func Ratio(num, den, fallback decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return fallback
	}
	return num.Div(den)
}

// =============================================================================
// ENTITIES
// =============================================================================

// EntityKind distinguishes per-store (PDV) from per-company (Ragione Sociale)
// computations. Tracks share one code path for both.
type EntityKind string

const (
	KindStore   EntityKind = "store"
	KindCompany EntityKind = "company"
)

type EntityID string

// Entity identifies what a result was computed for.
type Entity struct {
	ID   EntityID   `json:"id"`
	Kind EntityKind `json:"kind"`
}

func StoreEntity(code string) Entity   { return Entity{ID: EntityID(code), Kind: KindStore} }
func CompanyEntity(name string) Entity { return Entity{ID: EntityID(name), Kind: KindCompany} }
func (e Entity) IsCompany() bool       { return e.Kind == KindCompany }
func (e Entity) String() string        { return string(e.Kind) + ":" + string(e.ID) }

// GaraMode selects whether a track is priced per store or per company.
type GaraMode string

const (
	ModePerStore   GaraMode = "pdv"
	ModePerCompany GaraMode = "rs"
)

// Kind returns the entity kind a mode computes for. Unknown modes fall
// back to per-store.
func (m GaraMode) Kind() EntityKind {
	if m == ModePerCompany {
		return KindCompany
	}
	return KindStore
}

// =============================================================================
// PAYOUT - Euro breakdown shared by every track result
// =============================================================================

// Payout splits a track payout into its independent components.
//
//	Base:   rate-based payout (multiplier x pieces x rate, per-category rates)
//	Tokens: contractual/flat per-piece tokens, paid regardless of tier
//	Bonus:  threshold bonuses and tier-indexed category bonuses
type Payout struct {
	Base   decimal.Decimal `json:"base"`
	Tokens decimal.Decimal `json:"tokens"`
	Bonus  decimal.Decimal `json:"bonus"`
	Total  decimal.Decimal `json:"total"`
}

// NewPayout builds a payout with Total = Base + Tokens + Bonus.
func NewPayout(base, tokens, bonus decimal.Decimal) Payout {
	return Payout{Base: base, Tokens: tokens, Bonus: bonus, Total: base.Add(tokens).Add(bonus)}
}

func (p Payout) Add(o Payout) Payout {
	return NewPayout(p.Base.Add(o.Base), p.Tokens.Add(o.Tokens), p.Bonus.Add(o.Bonus))
}

// CategoryCount is one (category, pieces) row of a result.
type CategoryCount struct {
	Category string          `json:"category"`
	Pieces   int             `json:"pieces"`
	Points   decimal.Decimal `json:"points"`
	Payout   decimal.Decimal `json:"payout"`
}

// SumPayouts folds a slice of payouts.
func SumPayouts(ps []Payout) Payout {
	total := NewPayout(decimal.Zero, decimal.Zero, decimal.Zero)
	for _, p := range ps {
		total = total.Add(p)
	}
	return total
}

// =============================================================================
// ACTIVATION LINES
// =============================================================================

// Line is one activation row: pieces sold for a product category.
type Line struct {
	Category string `json:"category"`
	Pieces   int    `json:"pieces"`
}

// Lines is the activation list of one entity for one track.
type Lines []Line

// PiecesByCategory folds duplicate categories and drops non-positive rows.
// Category order follows first appearance.
func (ls Lines) PiecesByCategory() ([]string, map[string]int) {
	var order []string
	counts := make(map[string]int)
	for _, l := range ls {
		if l.Pieces <= 0 || l.Category == "" {
			continue
		}
		if _, seen := counts[l.Category]; !seen {
			order = append(order, l.Category)
		}
		counts[l.Category] += l.Pieces
	}
	return order, counts
}

// TotalPieces sums positive piece counts.
func (ls Lines) TotalPieces() int {
	total := 0
	for _, l := range ls {
		if l.Pieces > 0 {
			total += l.Pieces
		}
	}
	return total
}
