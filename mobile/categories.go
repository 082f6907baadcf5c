package mobile

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/generic"
)

// =============================================================================
// MOBILE ACTIVATION CATEGORIES
// =============================================================================

const (
	CategoryTied                    = "tied"
	CategoryUntied                  = "untied"
	CategoryTiedYoung               = "tied_young"
	CategoryUntiedYoung             = "untied_young"
	CategoryTiedSenior              = "tied_senior"
	CategoryMNPTied                 = "mnp_tied"
	CategoryMNPUntied               = "mnp_untied"
	CategoryMNPMvnoTied             = "mnp_mvno_tied"
	CategoryMNPMvnoUntied           = "mnp_mvno_untied"
	CategoryDataOnly                = "data_only"
	CategoryDataOnlyMNP             = "data_only_mnp"
	CategoryBusinessTied            = "business_tied"
	CategoryBusinessUntied          = "business_untied"
	CategoryBusinessMNP             = "business_mnp"
	CategoryConvergenceMobile       = "convergence_mobile"
	CategoryFamilySIM               = "family_sim"
	CategoryKidsSIM                 = "kids_sim"
	CategoryPrepaidBasic            = "prepaid_basic"
	CategoryPrepaidMNP              = "prepaid_mnp"
	CategoryIoTSIM                  = "iot_sim"
	CategoryDeviceInstalment        = "device_instalment"
	CategoryDeviceInstalmentPremium = "device_instalment_premium"
	CategoryUnlimitedUpgrade        = "unlimited_upgrade"
	CategorySmartphoneInsurance     = "smartphone_insurance"
	CategoryAutoTopup               = "auto_topup"
	CategoryESIMSwap                = "esim_swap"
	CategoryRoamingAddon            = "roaming_addon"
)

// Categories lists every mobile category in display order.
var Categories = []string{
	CategoryTied, CategoryUntied, CategoryTiedYoung, CategoryUntiedYoung, CategoryTiedSenior,
	CategoryMNPTied, CategoryMNPUntied, CategoryMNPMvnoTied, CategoryMNPMvnoUntied,
	CategoryDataOnly, CategoryDataOnlyMNP,
	CategoryBusinessTied, CategoryBusinessUntied, CategoryBusinessMNP,
	CategoryConvergenceMobile, CategoryFamilySIM, CategoryKidsSIM,
	CategoryPrepaidBasic, CategoryPrepaidMNP, CategoryIoTSIM,
	CategoryDeviceInstalment, CategoryDeviceInstalmentPremium, CategoryUnlimitedUpgrade,
	CategorySmartphoneInsurance, CategoryAutoTopup, CategoryESIMSwap, CategoryRoamingAddon,
}

func init() {
	generic.RegisterTrack(generic.TrackInfo{
		ID:         generic.TrackMobile,
		Name:       "Pista Mobile",
		Kind:       generic.KindStore,
		Categories: Categories,
	})
}

// TierToken is a per-piece token that grows with the tier reached:
// Base + Bonus[tier]. It uses the same tier as the threshold lookup.
type TierToken struct {
	Base  decimal.Decimal   `json:"base"`
	Bonus generic.TierTable `json:"bonus"`
}

// PerPiece returns the token for one piece at a tier.
func (t TierToken) PerPiece(tier generic.Tier) decimal.Decimal {
	return t.Base.Add(t.Bonus.At(tier))
}

// CategoryConfig is the resolved rate row of one category.
type CategoryConfig struct {
	PointWeight decimal.Decimal `json:"pointWeight"`
	FeeEligible bool            `json:"feeEligible"`
	FlatToken   decimal.Decimal `json:"flatToken"`
	TierToken   *TierToken      `json:"tierToken,omitempty"`
}

// CategoryTable maps category → rate row. Tables are treated as immutable
// once built; Clone before modifying.
type CategoryTable map[string]CategoryConfig

func (t CategoryTable) Clone() CategoryTable {
	out := make(CategoryTable, len(t))
	for k, v := range t {
		if v.TierToken != nil {
			tt := *v.TierToken
			tt.Bonus = append(generic.TierTable(nil), v.TierToken.Bonus...)
			v.TierToken = &tt
		}
		out[k] = v
	}
	return out
}

func row(weight float64, eligible bool, flat float64) CategoryConfig {
	return CategoryConfig{PointWeight: generic.Dec(weight), FeeEligible: eligible, FlatToken: generic.Dec(flat)}
}

func tiered(weight float64, base float64, bonus ...float64) CategoryConfig {
	return CategoryConfig{
		PointWeight: generic.Dec(weight),
		FlatToken:   decimal.Zero,
		TierToken:   &TierToken{Base: generic.Dec(base), Bonus: generic.TierTableOf(bonus...)},
	}
}

// DefaultTable returns the standard mobile rate table.
func DefaultTable() CategoryTable {
	return CategoryTable{
		CategoryTied:                    row(0.75, true, 5),
		CategoryUntied:                  row(0.5, true, 1),
		CategoryTiedYoung:               row(0.75, true, 5),
		CategoryUntiedYoung:             row(0.5, true, 1),
		CategoryTiedSenior:              row(0.75, true, 5),
		CategoryMNPTied:                 row(1, true, 5),
		CategoryMNPUntied:               row(0.75, true, 1),
		CategoryMNPMvnoTied:             row(1.25, true, 5),
		CategoryMNPMvnoUntied:           row(1, true, 1),
		CategoryDataOnly:                row(0.5, true, 0),
		CategoryDataOnlyMNP:             row(0.75, true, 0),
		CategoryBusinessTied:            row(1, true, 5),
		CategoryBusinessUntied:          row(0.75, true, 1),
		CategoryBusinessMNP:             row(1.25, true, 5),
		CategoryConvergenceMobile:       row(0.5, true, 2),
		CategoryFamilySIM:               row(0.25, true, 0),
		CategoryKidsSIM:                 row(0.25, true, 0),
		CategoryPrepaidBasic:            row(0.25, false, 0),
		CategoryPrepaidMNP:              row(0.5, false, 0),
		CategoryIoTSIM:                  row(0.25, false, 0),
		CategoryDeviceInstalment:        tiered(0.5, 5, 0, 1, 2, 3, 5),
		CategoryDeviceInstalmentPremium: tiered(1, 10, 0, 2, 4, 6, 10),
		CategoryUnlimitedUpgrade:        tiered(0.25, 2, 0, 0.5, 1, 1.5, 2),
		CategorySmartphoneInsurance:     row(0, false, 3),
		CategoryAutoTopup:               row(0.25, false, 1),
		CategoryESIMSwap:                row(0, false, 0.5),
		CategoryRoamingAddon:            row(0, false, 1),
	}
}

// DefaultMultipliers are the standard rate multipliers for tiers 1..4.
func DefaultMultipliers() generic.Multipliers {
	return generic.MultipliersOf(1, 1.2, 1.5, 2)
}
