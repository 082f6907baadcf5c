// Package protecta implements the Protecta device-protection track: a
// fixed rate per piece plus, for InGara stores, the bonus of the highest
// piece threshold reached.
package protecta

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
)

const (
	CategoryBase     = "protecta_base"
	CategoryPlus     = "protecta_plus"
	CategoryPremium  = "protecta_premium"
	CategoryBusiness = "protecta_business"
)

var Categories = []string{CategoryBase, CategoryPlus, CategoryPremium, CategoryBusiness}

func init() {
	generic.RegisterTrack(generic.TrackInfo{
		ID:         generic.TrackProtecta,
		Name:       "Protecta",
		Kind:       generic.KindStore,
		Categories: Categories,
	})
}

func DefaultRates() generic.RateCard {
	return generic.RateCardOf(map[string]float64{
		CategoryBase:     10,
		CategoryPlus:     15,
		CategoryPremium:  20,
		CategoryBusiness: 18,
	})
}

func DefaultBonuses() generic.Bonuses {
	return generic.Bonuses{
		{Threshold: generic.Dec(5), Bonus: generic.Dec(50)},
		{Threshold: generic.Dec(10), Bonus: generic.Dec(120)},
		{Threshold: generic.Dec(20), Bonus: generic.Dec(300)},
	}
}

type Config struct {
	Bonuses generic.Bonuses `json:"bonuses"`
}

type Result struct {
	Entity         generic.Entity          `json:"entity"`
	Categories     []generic.CategoryCount `json:"categories"`
	TotalPieces    int                     `json:"totalPieces"`
	InGara         bool                    `json:"isInGara"`
	Tier           generic.Tier            `json:"tier"`
	ThresholdBonus decimal.Decimal         `json:"thresholdBonus"`
	Payout         generic.Payout          `json:"payout"`
	Workdays       calendar.WorkdayInfo    `json:"workdays"`
	RunRatePieces  decimal.Decimal         `json:"runRatePieces"`
	Skipped        []string                `json:"skipped,omitempty"`
}

func Calculate(entity generic.Entity, lines generic.Lines, inGara bool, cfg Config, rates generic.RateCard, wd calendar.WorkdayInfo) Result {
	base := rates.Price(lines)
	res := Result{
		Entity:         entity,
		Categories:     base.Categories,
		TotalPieces:    base.TotalPieces,
		InGara:         inGara,
		ThresholdBonus: decimal.Zero,
		Workdays:       wd,
		RunRatePieces:  wd.RunRate(generic.Pieces(base.TotalPieces)),
		Skipped:        base.Skipped,
	}
	if inGara {
		res.Tier, res.ThresholdBonus = cfg.Bonuses.Reached(generic.Pieces(base.TotalPieces))
	}
	res.Payout = generic.NewPayout(base.Base, decimal.Zero, res.ThresholdBonus)
	return res
}
