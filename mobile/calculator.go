/*
Package mobile implements the Mobile track (Pista Mobile).

PURPOSE:
  Converts SIM and add-on activations of one entity (a store, or a company
  in RS mode) into points, a threshold tier and a euro payout.

ALGORITHM:
  1. First pass: points = sum(pieces x pointWeight); eligiblePieces = sum of
     pieces in fee-eligible categories
  2. Tier lookup: highest tier t with points >= threshold[t] (the fourth
     threshold is optional)
  3. Second pass: flat tokens (tier independent) and tier tokens
     (base + bonus[tier]) now that the tier is known
  4. payout = multiplier[tier] x eligiblePieces x averageFee
             + flat tokens + tier tokens

  Tier 0 has multiplier 0, so no rate payout, but tokens still pay: add-on
  categories earn regardless of the threshold.

EDGE CASES:
  - No pieces: points 0, tier 0, payout 0
  - Unknown category: skipped and reported in Result.Skipped

EXAMPLE:
  res := mobile.Calculate(generic.StoreEntity("PDV001"),
      generic.Lines{{Category: mobile.CategoryTied, Pieces: 180}},
      mobile.Config{
          Thresholds:  generic.ThresholdsOf(70, 105, 135, 165),
          Multipliers: mobile.DefaultMultipliers(),
          AverageFee:  generic.Dec(10),
      },
      mobile.DefaultTable(), workdays)
  // res.Points = 135, res.Tier = 3, res.Payout.Total = 1.5*180*10 + 5*180

SEE ALSO:
  - generic/tiers.go: Threshold lookup
  - thresholds/: Default thresholds by position type and cluster
*/
package mobile

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
)

// Config is the threshold configuration of one entity (PistaMobilePosConfig,
// or its per-company twin in RS mode).
type Config struct {
	Thresholds     generic.Thresholds  `json:"thresholds"`
	Multipliers    generic.Multipliers `json:"multipliers"`
	AverageFee     decimal.Decimal     `json:"averageFee"`
	ForecastTarget decimal.Decimal     `json:"forecastTarget"`
}

// Result is the Mobile outcome for one entity.
type Result struct {
	Entity         generic.Entity          `json:"entity"`
	Categories     []generic.CategoryCount `json:"categories"`
	TotalPieces    int                     `json:"totalPieces"`
	EligiblePieces int                     `json:"eligiblePieces"`
	Points         decimal.Decimal         `json:"points"`
	Tier           generic.Tier            `json:"tier"`
	Multiplier     decimal.Decimal         `json:"multiplier"`
	Payout         generic.Payout          `json:"payout"`

	// PointsToNextTier is zero when the top configured tier is reached.
	PointsToNextTier decimal.Decimal `json:"pointsToNextTier"`
	ForecastTarget   decimal.Decimal `json:"forecastTarget"`

	Workdays         calendar.WorkdayInfo `json:"workdays"`
	ProjectionFactor decimal.Decimal      `json:"projectionFactor"`
	RunRatePoints    decimal.Decimal      `json:"runRatePoints"`
	RunRateEligible  decimal.Decimal      `json:"runRateEligible"`

	Skipped []string `json:"skipped,omitempty"`
}

// Calculate computes the Mobile result for one entity.
func Calculate(entity generic.Entity, lines generic.Lines, cfg Config, table CategoryTable, wd calendar.WorkdayInfo) Result {
	order, counts := lines.PiecesByCategory()

	// First pass: points and fee-eligible pieces.
	points := decimal.Zero
	eligible := 0
	total := 0
	var skipped []string
	for _, cat := range order {
		row, ok := table[cat]
		if !ok {
			skipped = append(skipped, cat)
			continue
		}
		pieces := counts[cat]
		total += pieces
		points = points.Add(generic.Pieces(pieces).Mul(row.PointWeight))
		if row.FeeEligible {
			eligible += pieces
		}
	}

	tier := cfg.Thresholds.TierFor(points)
	multiplier := cfg.Multipliers.At(tier)

	// Second pass: tokens at the tier just found.
	flatTokens := decimal.Zero
	tierTokens := decimal.Zero
	categories := make([]generic.CategoryCount, 0, len(order))
	for _, cat := range order {
		row, ok := table[cat]
		if !ok {
			continue
		}
		pieces := generic.Pieces(counts[cat])
		flat := pieces.Mul(row.FlatToken)
		tiered := decimal.Zero
		if row.TierToken != nil {
			tiered = pieces.Mul(row.TierToken.PerPiece(tier))
		}
		flatTokens = flatTokens.Add(flat)
		tierTokens = tierTokens.Add(tiered)
		categories = append(categories, generic.CategoryCount{
			Category: cat,
			Pieces:   counts[cat],
			Points:   pieces.Mul(row.PointWeight),
			Payout:   flat.Add(tiered),
		})
	}

	base := multiplier.Mul(generic.Pieces(eligible)).Mul(cfg.AverageFee)

	res := Result{
		Entity:           entity,
		Categories:       categories,
		TotalPieces:      total,
		EligiblePieces:   eligible,
		Points:           points,
		Tier:             tier,
		Multiplier:       multiplier,
		Payout:           generic.NewPayout(base, flatTokens, tierTokens),
		ForecastTarget:   cfg.ForecastTarget,
		Workdays:         wd,
		ProjectionFactor: wd.ProjectionFactor(),
		RunRatePoints:    wd.RunRate(points),
		RunRateEligible:  wd.RunRate(generic.Pieces(eligible)),
		Skipped:          skipped,
	}
	if next, ok := cfg.Thresholds.Next(tier); ok {
		res.PointsToNextTier = next.Sub(points)
	}
	return res
}
