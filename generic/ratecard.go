package generic

import "github.com/shopspring/decimal"

// =============================================================================
// RATE CARD - fixed euro per piece, per category
// =============================================================================

// RateCard maps a category to its fixed euro rate per piece. Energy,
// Insurance and Protecta base payouts are built on it.
type RateCard map[string]decimal.Decimal

func RateCardOf(rates map[string]float64) RateCard {
	rc := make(RateCard, len(rates))
	for k, v := range rates {
		rc[k] = Dec(v)
	}
	return rc
}

func (rc RateCard) Clone() RateCard {
	out := make(RateCard, len(rc))
	for k, v := range rc {
		out[k] = v
	}
	return out
}

// BaseSummary is the result of pricing lines against a rate card.
type BaseSummary struct {
	Categories  []CategoryCount
	TotalPieces int
	Base        decimal.Decimal
	Skipped     []string
}

// Price applies the card to a set of lines. Categories missing from the
// card are skipped and reported.
func (rc RateCard) Price(lines Lines) BaseSummary {
	order, counts := lines.PiecesByCategory()
	sum := BaseSummary{Base: decimal.Zero}
	for _, cat := range order {
		rate, ok := rc[cat]
		if !ok {
			sum.Skipped = append(sum.Skipped, cat)
			continue
		}
		n := counts[cat]
		payout := Pieces(n).Mul(rate)
		sum.TotalPieces += n
		sum.Base = sum.Base.Add(payout)
		sum.Categories = append(sum.Categories, CategoryCount{
			Category: cat,
			Pieces:   n,
			Points:   decimal.Zero,
			Payout:   payout,
		})
	}
	return sum
}
