/*
Package partnership implements the Partnership/CB track.

PURPOSE:
  CB events (referrals, bank accounts, payment terminals sold through the
  store) pay a per-piece token and score partnership points. Points are
  compared against a two-level target: reaching 100% pays the full bonus,
  reaching 80% pays the reduced one.

COMPONENTS:
  totalTokens     = sum(pieces x tokenPerPiece), always paid
  thresholdPayout = payout100 | payout80 | 0
  totalPayout     = thresholdPayout + totalTokens

TARGETS:
  target80 = round(0.8 x target100), payout80 = round(0.8 x payout100).
  Use NewTarget to derive them.

SEE ALSO:
  - thresholds/: default targets by CB cluster
*/
package partnership

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
)

func init() {
	generic.RegisterTrack(generic.TrackInfo{
		ID:   generic.TrackPartnership,
		Name: "Partnership / CB",
		Kind: generic.KindStore,
	})
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is one CB activation line. Token and points travel with the line;
// a zero value is filled from the catalog when the event type is known.
type Event struct {
	EventType                 string          `json:"eventType"`
	Pieces                    int             `json:"pieces"`
	TokenPerPiece             decimal.Decimal `json:"tokenPerPiece"`
	PartnershipPointsPerPiece decimal.Decimal `json:"partnershipPointsPerPiece"`
}

// EventRate is the catalog entry for an event type.
type EventRate struct {
	TokenPerPiece             decimal.Decimal `json:"tokenPerPiece"`
	PartnershipPointsPerPiece decimal.Decimal `json:"partnershipPointsPerPiece"`
}

type Catalog map[string]EventRate

const (
	EventEnergyReferral    = "energy_referral"
	EventInsuranceReferral = "insurance_referral"
	EventBankAccount       = "bank_account"
	EventCreditCard        = "credit_card"
	EventPOSTerminal       = "pos_terminal"
)

// DefaultCatalog returns the standard CB event rates.
func DefaultCatalog() Catalog {
	return Catalog{
		EventEnergyReferral:    {TokenPerPiece: generic.Dec(10), PartnershipPointsPerPiece: generic.Dec(2)},
		EventInsuranceReferral: {TokenPerPiece: generic.Dec(8), PartnershipPointsPerPiece: generic.Dec(1.5)},
		EventBankAccount:       {TokenPerPiece: generic.Dec(15), PartnershipPointsPerPiece: generic.Dec(3)},
		EventCreditCard:        {TokenPerPiece: generic.Dec(12), PartnershipPointsPerPiece: generic.Dec(2)},
		EventPOSTerminal:       {TokenPerPiece: generic.Dec(20), PartnershipPointsPerPiece: generic.Dec(4)},
	}
}

func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Resolve fills missing token and points from the catalog. Lines carrying
// their own values are kept as entered.
func (c Catalog) Resolve(events []Event) []Event {
	out := make([]Event, len(events))
	for i, e := range events {
		if rate, ok := c[e.EventType]; ok {
			if e.TokenPerPiece.IsZero() {
				e.TokenPerPiece = rate.TokenPerPiece
			}
			if e.PartnershipPointsPerPiece.IsZero() {
				e.PartnershipPointsPerPiece = rate.PartnershipPointsPerPiece
			}
		}
		out[i] = e
	}
	return out
}

// =============================================================================
// TARGET
// =============================================================================

// Level is the target level reached.
type Level string

const (
	LevelNone Level = "none"
	Level80   Level = "80%"
	Level100  Level = "100%"
)

// Target is the two-level CB target.
type Target struct {
	Target100 decimal.Decimal `json:"target100"`
	Target80  decimal.Decimal `json:"target80"`
	Payout100 decimal.Decimal `json:"payout100"`
	Payout80  decimal.Decimal `json:"payout80"`
}

var eightyPercent = decimal.NewFromFloat(0.8)

// NewTarget derives the 80% level from the 100% level.
func NewTarget(target100, payout100 decimal.Decimal) Target {
	return Target{
		Target100: target100,
		Target80:  target100.Mul(eightyPercent).Round(0),
		Payout100: payout100,
		Payout80:  payout100.Mul(eightyPercent).Round(0),
	}
}

// LevelFor returns the level reached by a point total and its payout. An
// unset target (zero) is never reached.
func (t Target) LevelFor(points decimal.Decimal) (Level, decimal.Decimal) {
	switch {
	case t.Target100.IsPositive() && points.GreaterThanOrEqual(t.Target100):
		return Level100, t.Payout100
	case t.Target80.IsPositive() && points.GreaterThanOrEqual(t.Target80):
		return Level80, t.Payout80
	default:
		return LevelNone, decimal.Zero
	}
}

// Add sums two targets level by level (company targets in RS mode).
func (t Target) Add(o Target) Target {
	return Target{
		Target100: t.Target100.Add(o.Target100),
		Target80:  t.Target80.Add(o.Target80),
		Payout100: t.Payout100.Add(o.Payout100),
		Payout80:  t.Payout80.Add(o.Payout80),
	}
}

// =============================================================================
// CALCULATION
// =============================================================================

// Result is the Partnership outcome for one entity.
type Result struct {
	Entity          generic.Entity       `json:"entity"`
	Events          []Event              `json:"events"`
	TotalPieces     int                  `json:"totalPieces"`
	TotalPoints     decimal.Decimal      `json:"totalPoints"`
	TotalTokens     decimal.Decimal      `json:"totalTokens"`
	Level           Level                `json:"level"`
	ThresholdPayout decimal.Decimal      `json:"thresholdPayout"`
	Payout          generic.Payout       `json:"payout"`
	Target          Target               `json:"target"`
	Workdays        calendar.WorkdayInfo `json:"workdays"`
	RunRatePieces   decimal.Decimal      `json:"runRatePieces"`
}

// Calculate computes the Partnership result for one entity. Events must
// already be resolved against the catalog.
func Calculate(entity generic.Entity, events []Event, target Target, wd calendar.WorkdayInfo) Result {
	points := decimal.Zero
	tokens := decimal.Zero
	pieces := 0
	kept := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Pieces <= 0 {
			continue
		}
		n := generic.Pieces(e.Pieces)
		pieces += e.Pieces
		points = points.Add(n.Mul(e.PartnershipPointsPerPiece))
		tokens = tokens.Add(n.Mul(e.TokenPerPiece))
		kept = append(kept, e)
	}

	level, bonus := target.LevelFor(points)
	return Result{
		Entity:          entity,
		Events:          kept,
		TotalPieces:     pieces,
		TotalPoints:     points,
		TotalTokens:     tokens,
		Level:           level,
		ThresholdPayout: bonus,
		Payout:          generic.NewPayout(decimal.Zero, tokens, bonus),
		Target:          target,
		Workdays:        wd,
		RunRatePieces:   wd.RunRate(generic.Pieces(pieces)),
	}
}
