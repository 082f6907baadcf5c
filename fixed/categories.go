package fixed

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/generic"
)

// =============================================================================
// FIXED-LINE CATEGORIES
// =============================================================================

const (
	CategoryFTTC              = "fttc"
	CategoryFTTH              = "ftth"
	CategoryFWAIndoor         = "fwa_indoor"
	CategoryFWAOutdoor        = "fwa_outdoor"
	CategoryFTTHPIva          = "ftth_piva"
	CategoryPIvaFirstLine     = "piva_first_line"
	CategoryPIvaSecondLine    = "piva_second_line"
	CategoryUnlimitedCalls    = "unlimited_calls"
	CategoryPostalBill        = "postal_bill"
	CategoryNetflixStandard   = "netflix_standard"
	CategoryNetflixPremium    = "netflix_premium"
	CategoryConvergenceBonus  = "convergence_bonus"
	CategoryLineaAttiva       = "linea_attiva"
	CategorySmartHomeAddon    = "smart_home_addon"
	CategoryMigrationFTTCFTTH = "migration_fttc_ftth"
	CategoryMigrationOperator = "migration_operator"
)

// Categories lists every fixed-line category in display order.
var Categories = []string{
	CategoryFTTC, CategoryFTTH, CategoryFWAIndoor, CategoryFWAOutdoor,
	CategoryFTTHPIva, CategoryPIvaFirstLine, CategoryPIvaSecondLine,
	CategoryUnlimitedCalls, CategoryPostalBill,
	CategoryNetflixStandard, CategoryNetflixPremium, CategoryConvergenceBonus,
	CategoryLineaAttiva, CategorySmartHomeAddon,
	CategoryMigrationFTTCFTTH, CategoryMigrationOperator,
}

func init() {
	generic.RegisterTrack(generic.TrackInfo{
		ID:         generic.TrackFixed,
		Name:       "Pista Fisso",
		Kind:       generic.KindStore,
		Categories: Categories,
	})
}

// RateTable holds every resolved number the fixed-line rules read. Each
// category rule picks the fields it needs; there is no formula shared by
// all sixteen.
type RateTable struct {
	// Point weight per category. Categories absent here score zero points.
	PointWeights map[string]decimal.Decimal `json:"pointWeights"`

	// Base euro rates for the tier-multiplied line categories.
	RateFTTC           decimal.Decimal `json:"rateFttc"`
	RateFTTH           decimal.Decimal `json:"rateFtth"`
	RateFWAIndoor      decimal.Decimal `json:"rateFwaIndoor"`
	RateFWAOutdoor     decimal.Decimal `json:"rateFwaOutdoor"`
	RatePIvaSecondLine decimal.Decimal `json:"ratePivaSecondLine"`

	// Contractual tokens, paid per piece independent of tier.
	TokenStandard       decimal.Decimal `json:"tokenStandard"`
	TokenPIvaSecondLine decimal.Decimal `json:"tokenPivaSecondLine"`

	// Unlimited calls pay RateFTTC x UnlimitedCallsFactor[tier].
	UnlimitedCallsFactor generic.TierTable `json:"unlimitedCallsFactor"`
	// Postal bill pays PostalBillToken[tier] per piece.
	PostalBillToken generic.TierTable `json:"postalBillToken"`

	// Flat per-piece bonuses.
	NetflixStandard  decimal.Decimal `json:"netflixStandard"`
	NetflixPremium   decimal.Decimal `json:"netflixPremium"`
	ConvergenceBonus decimal.Decimal `json:"convergenceBonus"`
	LineaAttiva      decimal.Decimal `json:"lineaAttiva"`
	SmartHomeAddon   decimal.Decimal `json:"smartHomeAddon"`
	Migration        decimal.Decimal `json:"migration"`
}

func (t RateTable) Clone() RateTable {
	out := t
	out.PointWeights = make(map[string]decimal.Decimal, len(t.PointWeights))
	for k, v := range t.PointWeights {
		out.PointWeights[k] = v
	}
	out.UnlimitedCallsFactor = append(generic.TierTable(nil), t.UnlimitedCallsFactor...)
	out.PostalBillToken = append(generic.TierTable(nil), t.PostalBillToken...)
	return out
}

// DefaultTable returns the standard fixed-line rates.
func DefaultTable() RateTable {
	return RateTable{
		PointWeights: map[string]decimal.Decimal{
			CategoryFTTC:           generic.Dec(1),
			CategoryFTTH:           generic.Dec(1.25),
			CategoryFWAIndoor:      generic.Dec(1),
			CategoryFWAOutdoor:     generic.Dec(1),
			CategoryFTTHPIva:       generic.Dec(1.75),
			CategoryPIvaFirstLine:  generic.Dec(1.5),
			CategoryPIvaSecondLine: generic.Dec(1),
			CategoryUnlimitedCalls: generic.Dec(0.25),
		},
		RateFTTC:             generic.Dec(23),
		RateFTTH:             generic.Dec(28),
		RateFWAIndoor:        generic.Dec(20),
		RateFWAOutdoor:       generic.Dec(25),
		RatePIvaSecondLine:   generic.Dec(10),
		TokenStandard:        generic.Dec(23),
		TokenPIvaSecondLine:  generic.Dec(10),
		UnlimitedCallsFactor: generic.TierTableOf(0, 0.25, 0.5, 0.75, 1, 1.5),
		PostalBillToken:      generic.TierTableOf(23, 38, 43, 45, 48, 53),
		NetflixStandard:      generic.Dec(5),
		NetflixPremium:       generic.Dec(10),
		ConvergenceBonus:     generic.Dec(15),
		LineaAttiva:          generic.Dec(10),
		SmartHomeAddon:       generic.Dec(5),
		Migration:            generic.Dec(40),
	}
}

// DefaultMultipliers are the standard rate multipliers for tiers 1..5.
func DefaultMultipliers() generic.Multipliers {
	return generic.MultipliersOf(1, 1.2, 1.5, 1.8, 2.2)
}
