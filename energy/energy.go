/*
Package energy implements the Energy track (luce, gas, dual, solar).

PURPOSE:
  Every contract pays a fixed rate per piece. On top of that:
  - Threshold bonus: stores flagged InGara compare their pieces against an
    ordered ladder and earn the bonus of the highest step reached (not
    cumulative).
  - Company contract bonus: when the company's pieces across all its stores
    reach TargetPerStore x storeCount, every store earns a flat bonus per
    piece. Stores outside the competition still count toward the company
    total and still earn this bonus.

SEE ALSO:
  - insurance/, protecta/: Same base + ladder shape
  - extravat/: Reads the business-only categories
*/
package energy

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/network"
)

const (
	CategoryLuceConsumer = "luce_consumer"
	CategoryGasConsumer  = "gas_consumer"
	CategoryDualConsumer = "dual_consumer"
	CategoryLuceBusiness = "luce_business"
	CategoryGasBusiness  = "gas_business"
	CategoryDualBusiness = "dual_business"
	CategoryFotovoltaico = "fotovoltaico"
	CategoryGreenOption  = "green_option"
)

var Categories = []string{
	CategoryLuceConsumer, CategoryGasConsumer, CategoryDualConsumer,
	CategoryLuceBusiness, CategoryGasBusiness, CategoryDualBusiness,
	CategoryFotovoltaico, CategoryGreenOption,
}

// BusinessCategories are the business-only contracts.
var BusinessCategories = []string{CategoryLuceBusiness, CategoryGasBusiness, CategoryDualBusiness}

func init() {
	generic.RegisterTrack(generic.TrackInfo{
		ID:         generic.TrackEnergy,
		Name:       "Energia",
		Kind:       generic.KindStore,
		Categories: Categories,
	})
}

// DefaultRates returns the standard euro rate per contract.
func DefaultRates() generic.RateCard {
	return generic.RateCardOf(map[string]float64{
		CategoryLuceConsumer: 30,
		CategoryGasConsumer:  25,
		CategoryDualConsumer: 50,
		CategoryLuceBusiness: 40,
		CategoryGasBusiness:  35,
		CategoryDualBusiness: 70,
		CategoryFotovoltaico: 100,
		CategoryGreenOption:  5,
	})
}

// DefaultBonuses is the standard per-store ladder on pieces.
func DefaultBonuses() generic.Bonuses {
	return generic.Bonuses{
		{Threshold: generic.Dec(10), Bonus: generic.Dec(100)},
		{Threshold: generic.Dec(20), Bonus: generic.Dec(250)},
		{Threshold: generic.Dec(35), Bonus: generic.Dec(500)},
	}
}

// Program holds the company-wide contract bonus rules.
type Program struct {
	TargetPerStore decimal.Decimal `json:"targetPerStore"`
	BonusPerPiece  decimal.Decimal `json:"bonusPerPiece"`
}

func DefaultProgram() Program {
	return Program{TargetPerStore: generic.Dec(55), BonusPerPiece: generic.Dec(5)}
}

// Config is the per-store threshold ladder.
type Config struct {
	Bonuses generic.Bonuses `json:"bonuses"`
}

// =============================================================================
// STORE
// =============================================================================

// StoreInput is everything the calculator needs about one store.
type StoreInput struct {
	Store    network.Store
	Lines    generic.Lines
	Config   Config
	Workdays calendar.WorkdayInfo
}

// StoreResult is the Energy outcome for one store.
type StoreResult struct {
	Entity         generic.Entity          `json:"entity"`
	Categories     []generic.CategoryCount `json:"categories"`
	TotalPieces    int                     `json:"totalPieces"`
	InGara         bool                    `json:"isInGara"`
	Tier           generic.Tier            `json:"tier"`
	ThresholdBonus decimal.Decimal         `json:"thresholdBonus"`
	CompanyBonus   decimal.Decimal         `json:"companyBonus"`
	Payout         generic.Payout          `json:"payout"`
	Workdays       calendar.WorkdayInfo    `json:"workdays"`
	RunRatePieces  decimal.Decimal         `json:"runRatePieces"`
	Skipped        []string                `json:"skipped,omitempty"`
}

// CalculateStore prices one store without the company contract bonus.
func CalculateStore(in StoreInput, rates generic.RateCard) StoreResult {
	base := rates.Price(in.Lines)
	res := StoreResult{
		Entity:         generic.StoreEntity(in.Store.Code),
		Categories:     base.Categories,
		TotalPieces:    base.TotalPieces,
		InGara:         in.Store.InGara,
		ThresholdBonus: decimal.Zero,
		CompanyBonus:   decimal.Zero,
		Workdays:       in.Workdays,
		RunRatePieces:  in.Workdays.RunRate(generic.Pieces(base.TotalPieces)),
		Skipped:        base.Skipped,
	}
	if in.Store.InGara {
		res.Tier, res.ThresholdBonus = in.Config.Bonuses.Reached(generic.Pieces(base.TotalPieces))
	}
	res.Payout = generic.NewPayout(base.Base, decimal.Zero, res.ThresholdBonus)
	return res
}

// =============================================================================
// COMPANY
// =============================================================================

// CompanyResult is the Energy outcome for one company.
type CompanyResult struct {
	Company       string          `json:"company"`
	Stores        []StoreResult   `json:"stores"`
	StoreCount    int             `json:"storeCount"`
	TotalPieces   int             `json:"totalPieces"`
	CompanyTarget decimal.Decimal `json:"companyTarget"`
	TargetReached bool            `json:"targetReached"`
	Payout        generic.Payout  `json:"payout"`
}

// CalculateCompany prices every store of a company and applies the company
// contract bonus.
func CalculateCompany(name string, stores []StoreInput, program Program, rates generic.RateCard) CompanyResult {
	res := CompanyResult{Company: name, StoreCount: len(stores)}
	results := make([]StoreResult, len(stores))
	for i, in := range stores {
		results[i] = CalculateStore(in, rates)
		res.TotalPieces += results[i].TotalPieces
	}

	res.CompanyTarget = program.TargetPerStore.Mul(decimal.NewFromInt(int64(len(stores))))
	res.TargetReached = res.CompanyTarget.IsPositive() &&
		generic.Pieces(res.TotalPieces).GreaterThanOrEqual(res.CompanyTarget)

	payouts := make([]generic.Payout, len(results))
	for i := range results {
		if res.TargetReached {
			results[i].CompanyBonus = generic.Pieces(results[i].TotalPieces).Mul(program.BonusPerPiece)
			p := results[i].Payout
			results[i].Payout = generic.NewPayout(p.Base, p.Tokens, p.Bonus.Add(results[i].CompanyBonus))
		}
		payouts[i] = results[i].Payout
	}
	res.Stores = results
	res.Payout = generic.SumPayouts(payouts)
	return res
}
