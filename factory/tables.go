package factory

import (
	"github.com/warp/premi-engine/energy"
	"github.com/warp/premi-engine/extravat"
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/partnership"
	"github.com/warp/premi-engine/protecta"
)

// =============================================================================
// RATE TABLES - the resolved configuration snapshot
// =============================================================================

// RateTables is every rate, weight and default ladder the engine reads. It
// is built once per organization (defaults + overrides) and passed to the
// engine as an immutable snapshot.
type RateTables struct {
	Mobile            mobile.CategoryTable `json:"mobile"`
	MobileMultipliers generic.Multipliers  `json:"mobileMultipliers"`

	Fixed            fixed.RateTable     `json:"fixed"`
	FixedMultipliers generic.Multipliers `json:"fixedMultipliers"`

	Partnership partnership.Catalog `json:"partnership"`

	Energy        generic.RateCard `json:"energy"`
	EnergyBonuses generic.Bonuses  `json:"energyBonuses"`
	EnergyProgram energy.Program   `json:"energyProgram"`

	Insurance        insurance.RateTable `json:"insurance"`
	InsuranceBonuses generic.Bonuses     `json:"insuranceBonuses"`

	Protecta        generic.RateCard `json:"protecta"`
	ProtectaBonuses generic.Bonuses  `json:"protectaBonuses"`

	ExtraVAT extravat.RateTable `json:"extraVat"`
}

// DefaultRateTables returns the standard program for every track.
func DefaultRateTables() RateTables {
	return RateTables{
		Mobile:            mobile.DefaultTable(),
		MobileMultipliers: mobile.DefaultMultipliers(),
		Fixed:             fixed.DefaultTable(),
		FixedMultipliers:  fixed.DefaultMultipliers(),
		Partnership:       partnership.DefaultCatalog(),
		Energy:            energy.DefaultRates(),
		EnergyBonuses:     energy.DefaultBonuses(),
		EnergyProgram:     energy.DefaultProgram(),
		Insurance:         insurance.DefaultTable(),
		InsuranceBonuses:  insurance.DefaultBonuses(),
		Protecta:          protecta.DefaultRates(),
		ProtectaBonuses:   protecta.DefaultBonuses(),
		ExtraVAT:          extravat.DefaultTable(),
	}
}

// Clone returns a deep copy so overrides never touch the source tables.
func (t RateTables) Clone() RateTables {
	return RateTables{
		Mobile:            t.Mobile.Clone(),
		MobileMultipliers: append(generic.Multipliers(nil), t.MobileMultipliers...),
		Fixed:             t.Fixed.Clone(),
		FixedMultipliers:  append(generic.Multipliers(nil), t.FixedMultipliers...),
		Partnership:       t.Partnership.Clone(),
		Energy:            t.Energy.Clone(),
		EnergyBonuses:     append(generic.Bonuses(nil), t.EnergyBonuses...),
		EnergyProgram:     t.EnergyProgram,
		Insurance:         t.Insurance.Clone(),
		InsuranceBonuses:  append(generic.Bonuses(nil), t.InsuranceBonuses...),
		Protecta:          t.Protecta.Clone(),
		ProtectaBonuses:   append(generic.Bonuses(nil), t.ProtectaBonuses...),
		ExtraVAT:          t.ExtraVAT.Clone(),
	}
}
