/*
Package insurance implements the Insurance track (Assicurazioni).

PURPOSE:
  Policies pay a fixed rate per piece and score weighted points. InGara
  stores compare points against an ordered ladder; only the highest step
  reached pays.

SPECIAL CATEGORIES:
  viaggio_mondo:  points = 1.5 per 100 euro of declared premium, per piece
                  payout = min(premium x 12.5%, 201) x pieces
  reload_forever: bonus points only once base points reach TargetNoMalus;
                  every 5 reload events make 1 point (floor)

EXAMPLE:
  TargetNoMalus 50, base categories 50 points, 10 reload events
  → 2 bonus points, 52 total

SEE ALSO:
  - energy/, protecta/: Same base + ladder shape
*/
package insurance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
)

const (
	CategoryCasa               = "casa"
	CategorySalute             = "salute"
	CategoryAuto               = "auto"
	CategoryInfortuni          = "infortuni"
	CategoryPet                = "pet"
	CategoryMultirischiImpresa = "multirischi_impresa"
	CategoryViaggioMondo       = "viaggio_mondo"
	CategoryReloadForever      = "reload_forever"
)

var Categories = []string{
	CategoryCasa, CategorySalute, CategoryAuto, CategoryInfortuni, CategoryPet,
	CategoryMultirischiImpresa, CategoryViaggioMondo, CategoryReloadForever,
}

func init() {
	generic.RegisterTrack(generic.TrackInfo{
		ID:         generic.TrackInsurance,
		Name:       "Assicurazioni",
		Kind:       generic.KindStore,
		Categories: Categories,
	})
}

// Line is an insurance activation. DeclaredPremium is only read for
// viaggio_mondo.
type Line struct {
	Category        string          `json:"category"`
	Pieces          int             `json:"pieces"`
	DeclaredPremium decimal.Decimal `json:"declaredPremium"`
}

// Product is the rate row of a standard category.
type Product struct {
	PointWeight decimal.Decimal `json:"pointWeight"`
	Rate        decimal.Decimal `json:"rate"`
}

// RateTable holds every insurance rate.
type RateTable struct {
	Products map[string]Product `json:"products"`

	ViaggioPointsPer100 decimal.Decimal `json:"viaggioPointsPer100"`
	ViaggioPremiumShare decimal.Decimal `json:"viaggioPremiumShare"`
	ViaggioCap          decimal.Decimal `json:"viaggioCap"`

	ReloadEventsPerPoint int             `json:"reloadEventsPerPoint"`
	ReloadRate           decimal.Decimal `json:"reloadRate"`
}

func (t RateTable) Clone() RateTable {
	out := t
	out.Products = make(map[string]Product, len(t.Products))
	for k, v := range t.Products {
		out.Products[k] = v
	}
	return out
}

func product(weight, rate float64) Product {
	return Product{PointWeight: generic.Dec(weight), Rate: generic.Dec(rate)}
}

// DefaultTable returns the standard insurance rates.
func DefaultTable() RateTable {
	return RateTable{
		Products: map[string]Product{
			CategoryCasa:               product(1, 15),
			CategorySalute:             product(2, 25),
			CategoryAuto:               product(1.5, 20),
			CategoryInfortuni:          product(1, 15),
			CategoryPet:                product(0.5, 8),
			CategoryMultirischiImpresa: product(3, 40),
		},
		ViaggioPointsPer100:  generic.Dec(1.5),
		ViaggioPremiumShare:  generic.Dec(0.125),
		ViaggioCap:           generic.Dec(201),
		ReloadEventsPerPoint: 5,
		ReloadRate:           decimal.Zero,
	}
}

// DefaultBonuses is the standard ladder on points.
func DefaultBonuses() generic.Bonuses {
	return generic.Bonuses{
		{Threshold: generic.Dec(50), Bonus: generic.Dec(150)},
		{Threshold: generic.Dec(80), Bonus: generic.Dec(300)},
		{Threshold: generic.Dec(120), Bonus: generic.Dec(500)},
	}
}

// Config is the per-store insurance target.
type Config struct {
	TargetNoMalus decimal.Decimal `json:"targetNoMalus"`
	Bonuses       generic.Bonuses `json:"bonuses"`
}

// Result is the Insurance outcome for one store.
type Result struct {
	Entity           generic.Entity          `json:"entity"`
	Categories       []generic.CategoryCount `json:"categories"`
	TotalPieces      int                     `json:"totalPieces"`
	BasePoints       decimal.Decimal         `json:"basePoints"`
	ReloadEvents     int                     `json:"reloadEvents"`
	ReloadPoints     decimal.Decimal         `json:"reloadPoints"`
	Points           decimal.Decimal         `json:"points"`
	TargetNoMalusMet bool                    `json:"targetNoMalusMet"`
	InGara           bool                    `json:"isInGara"`
	Tier             generic.Tier            `json:"tier"`
	ThresholdBonus   decimal.Decimal         `json:"thresholdBonus"`
	Payout           generic.Payout          `json:"payout"`
	Workdays         calendar.WorkdayInfo    `json:"workdays"`
	RunRatePoints    decimal.Decimal         `json:"runRatePoints"`
	Skipped          []string                `json:"skipped,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Calculate computes the Insurance result for one store.
func Calculate(entity generic.Entity, lines []Line, inGara bool, cfg Config, table RateTable, wd calendar.WorkdayInfo) Result {
	res := Result{
		Entity:         entity,
		InGara:         inGara,
		BasePoints:     decimal.Zero,
		ReloadPoints:   decimal.Zero,
		ThresholdBonus: decimal.Zero,
		Workdays:       wd,
	}
	base := decimal.Zero
	index := make(map[string]int)

	add := func(cat string, pieces int, points, payout decimal.Decimal) {
		i, ok := index[cat]
		if !ok {
			i = len(res.Categories)
			index[cat] = i
			res.Categories = append(res.Categories, generic.CategoryCount{Category: cat, Points: decimal.Zero, Payout: decimal.Zero})
		}
		c := &res.Categories[i]
		c.Pieces += pieces
		c.Points = c.Points.Add(points)
		c.Payout = c.Payout.Add(payout)
		res.TotalPieces += pieces
		base = base.Add(payout)
	}

	for _, l := range lines {
		if l.Pieces <= 0 {
			continue
		}
		n := generic.Pieces(l.Pieces)
		switch l.Category {
		case CategoryViaggioMondo:
			premium := l.DeclaredPremium
			if premium.IsNegative() {
				premium = decimal.Zero
			}
			points := premium.Div(hundred).Mul(table.ViaggioPointsPer100).Mul(n)
			perPiece := decimal.Min(premium.Mul(table.ViaggioPremiumShare), table.ViaggioCap)
			res.BasePoints = res.BasePoints.Add(points)
			add(l.Category, l.Pieces, points, perPiece.Mul(n))

		case CategoryReloadForever:
			res.ReloadEvents += l.Pieces
			add(l.Category, l.Pieces, decimal.Zero, n.Mul(table.ReloadRate))

		default:
			p, ok := table.Products[l.Category]
			if !ok {
				res.Skipped = append(res.Skipped, l.Category)
				continue
			}
			points := n.Mul(p.PointWeight)
			res.BasePoints = res.BasePoints.Add(points)
			add(l.Category, l.Pieces, points, n.Mul(p.Rate))
		}
	}

	// Reload events only convert once the base target is met.
	res.TargetNoMalusMet = cfg.TargetNoMalus.IsPositive() && res.BasePoints.GreaterThanOrEqual(cfg.TargetNoMalus)
	if res.TargetNoMalusMet && table.ReloadEventsPerPoint > 0 {
		res.ReloadPoints = decimal.NewFromInt(int64(res.ReloadEvents / table.ReloadEventsPerPoint))
		if i, ok := index[CategoryReloadForever]; ok {
			res.Categories[i].Points = res.ReloadPoints
		}
	}
	res.Points = res.BasePoints.Add(res.ReloadPoints)

	if inGara {
		res.Tier, res.ThresholdBonus = cfg.Bonuses.Reached(res.Points)
	}
	res.Payout = generic.NewPayout(base, decimal.Zero, res.ThresholdBonus)
	res.RunRatePoints = wd.RunRate(res.Points)
	return res
}
