/*
Package fixed implements the Fixed-line track (Pista Fisso).

PURPOSE:
  Same tier mechanism as Mobile with five tiers, but every one of the
  sixteen categories has its own closed-form payout rule. The rules are
  kept as independent branches of one switch so each can be read (and
  audited against the rate card) in isolation.

PAYOUT COMPONENTS:
  Base:   tier-multiplied line categories (FTTC/FTTH/FWA/P.IVA lines)
  Bonus:  flat bonuses (Netflix, convergence, linea attiva, migrations)
          and tier-lookup bonuses (unlimited calls, postal bill)
  Tokens: contractual token per piece (23 standard, 10 for the P.IVA
          second line, 0 for bonus-only categories), always paid

RULES:
  fttc, ftth, fwa_*, ftth_piva, piva_first_line:
      pieces x baseRate x multiplier[tier]
  piva_second_line:   pieces x 10 x multiplier[tier], token 10
  unlimited_calls:    pieces x 23 x {0, .25, .5, .75, 1, 1.5}[tier]
  postal_bill:        pieces x {23, 38, 43, 45, 48, 53}[tier]
  netflix_*, convergence_bonus, linea_attiva, smart_home_addon:
      pieces x flat amount
  migration_*:        pieces x 40, zero points (volume only)

SEE ALSO:
  - mobile/: The simpler four-tier variant
  - generic/tiers.go: Threshold lookup
*/
package fixed

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
)

// Config is the threshold configuration of one entity.
type Config struct {
	Thresholds     generic.Thresholds  `json:"thresholds"`
	Multipliers    generic.Multipliers `json:"multipliers"`
	ForecastTarget decimal.Decimal     `json:"forecastTarget"`
}

// CategoryPayout is one category row of a fixed-line result.
type CategoryPayout struct {
	Category string          `json:"category"`
	Pieces   int             `json:"pieces"`
	Points   decimal.Decimal `json:"points"`
	Base     decimal.Decimal `json:"base"`
	Bonus    decimal.Decimal `json:"bonus"`
	Token    decimal.Decimal `json:"token"`
}

func (c CategoryPayout) Total() decimal.Decimal {
	return c.Base.Add(c.Bonus).Add(c.Token)
}

// Result is the Fixed-line outcome for one entity.
type Result struct {
	Entity      generic.Entity   `json:"entity"`
	Categories  []CategoryPayout `json:"categories"`
	TotalPieces int              `json:"totalPieces"`
	Points      decimal.Decimal  `json:"points"`
	Tier        generic.Tier     `json:"tier"`
	Multiplier  decimal.Decimal  `json:"multiplier"`
	Payout      generic.Payout   `json:"payout"`

	PointsToNextTier decimal.Decimal `json:"pointsToNextTier"`
	ForecastTarget   decimal.Decimal `json:"forecastTarget"`

	Workdays         calendar.WorkdayInfo `json:"workdays"`
	ProjectionFactor decimal.Decimal      `json:"projectionFactor"`
	RunRatePoints    decimal.Decimal      `json:"runRatePoints"`
	RunRatePieces    decimal.Decimal      `json:"runRatePieces"`

	Skipped []string `json:"skipped,omitempty"`
}

// Calculate computes the Fixed-line result for one entity.
func Calculate(entity generic.Entity, lines generic.Lines, cfg Config, table RateTable, wd calendar.WorkdayInfo) Result {
	order, counts := lines.PiecesByCategory()

	known := make([]string, 0, len(order))
	var skipped []string
	points := decimal.Zero
	total := 0
	for _, cat := range order {
		if !isCategory(cat) {
			skipped = append(skipped, cat)
			continue
		}
		known = append(known, cat)
		total += counts[cat]
		points = points.Add(generic.Pieces(counts[cat]).Mul(table.PointWeights[cat]))
	}

	tier := cfg.Thresholds.TierFor(points)
	multiplier := cfg.Multipliers.At(tier)

	rows := make([]CategoryPayout, 0, len(known))
	payout := generic.NewPayout(decimal.Zero, decimal.Zero, decimal.Zero)
	for _, cat := range known {
		row := categoryPayout(cat, counts[cat], tier, multiplier, table)
		rows = append(rows, row)
		payout = payout.Add(generic.NewPayout(row.Base, row.Token, row.Bonus))
	}

	res := Result{
		Entity:           entity,
		Categories:       rows,
		TotalPieces:      total,
		Points:           points,
		Tier:             tier,
		Multiplier:       multiplier,
		Payout:           payout,
		ForecastTarget:   cfg.ForecastTarget,
		Workdays:         wd,
		ProjectionFactor: wd.ProjectionFactor(),
		RunRatePoints:    wd.RunRate(points),
		RunRatePieces:    wd.RunRate(generic.Pieces(total)),
		Skipped:          skipped,
	}
	if next, ok := cfg.Thresholds.Next(tier); ok {
		res.PointsToNextTier = next.Sub(points)
	}
	return res
}

func isCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// categoryPayout applies the closed-form rule of one category.
func categoryPayout(cat string, n int, tier generic.Tier, multiplier decimal.Decimal, t RateTable) CategoryPayout {
	pieces := generic.Pieces(n)
	row := CategoryPayout{
		Category: cat,
		Pieces:   n,
		Points:   pieces.Mul(t.PointWeights[cat]),
		Base:     decimal.Zero,
		Bonus:    decimal.Zero,
		Token:    decimal.Zero,
	}

	switch cat {
	case CategoryFTTC:
		row.Base = pieces.Mul(t.RateFTTC).Mul(multiplier)
		row.Token = pieces.Mul(t.TokenStandard)

	case CategoryFTTH:
		row.Base = pieces.Mul(t.RateFTTH).Mul(multiplier)
		row.Token = pieces.Mul(t.TokenStandard)

	case CategoryFWAIndoor:
		row.Base = pieces.Mul(t.RateFWAIndoor).Mul(multiplier)
		row.Token = pieces.Mul(t.TokenStandard)

	case CategoryFWAOutdoor:
		row.Base = pieces.Mul(t.RateFWAOutdoor).Mul(multiplier)
		row.Token = pieces.Mul(t.TokenStandard)

	case CategoryFTTHPIva:
		row.Base = pieces.Mul(t.RateFTTH).Mul(multiplier)
		row.Token = pieces.Mul(t.TokenStandard)

	case CategoryPIvaFirstLine:
		row.Base = pieces.Mul(t.RateFTTC).Mul(multiplier)
		row.Token = pieces.Mul(t.TokenStandard)

	case CategoryPIvaSecondLine:
		// Lower base rate and a single reduced token unit.
		row.Base = pieces.Mul(t.RatePIvaSecondLine).Mul(multiplier)
		row.Token = pieces.Mul(t.TokenPIvaSecondLine)

	case CategoryUnlimitedCalls:
		// Own tier table, not the generic multipliers.
		row.Bonus = pieces.Mul(t.RateFTTC).Mul(t.UnlimitedCallsFactor.At(tier))

	case CategoryPostalBill:
		row.Bonus = pieces.Mul(t.PostalBillToken.At(tier))

	case CategoryNetflixStandard:
		row.Bonus = pieces.Mul(t.NetflixStandard)

	case CategoryNetflixPremium:
		row.Bonus = pieces.Mul(t.NetflixPremium)

	case CategoryConvergenceBonus:
		row.Bonus = pieces.Mul(t.ConvergenceBonus)

	case CategoryLineaAttiva:
		row.Bonus = pieces.Mul(t.LineaAttiva)

	case CategorySmartHomeAddon:
		row.Bonus = pieces.Mul(t.SmartHomeAddon)

	case CategoryMigrationFTTCFTTH:
		row.Bonus = pieces.Mul(t.Migration)

	case CategoryMigrationOperator:
		row.Bonus = pieces.Mul(t.Migration)
	}
	return row
}
