package extravat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/extravat"
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/network"
)

func company(stores ...network.Store) network.Company {
	return network.Company{Name: "ACME", Stores: stores}
}

func store(code string, piva network.PIvaCluster) network.Store {
	return network.Store{Code: code, RagioneSociale: "ACME", Clusters: network.Clusters{PIva: piva}}
}

func assertThresholds(t *testing.T, want, got generic.Thresholds) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "level %d: want %s got %s", i+1, want[i], got[i])
	}
}

func businessTied(n int) extravat.Sources {
	return extravat.Sources{generic.TrackMobile: {{Category: mobile.CategoryBusinessTied, Pieces: n}}}
}

func TestCalculate_BusinessPromoterUnlocksFourthTier(t *testing.T) {
	// GIVEN: a single-store company with 75 Extra-VAT points
	sources := map[string]extravat.Sources{"PDV001": businessTied(75)}

	// WHEN: the store is a Business-Promoter Plus
	bp := extravat.Calculate(company(store("PDV001", network.PIvaBusinessPromoterPlus)), sources, nil, extravat.DefaultTable())

	// THEN: the mono_bp thresholds 20/35/50/70 give tier 4
	assertThresholds(t, generic.ThresholdsOf(20, 35, 50, 70), bp.Thresholds)
	assert.Equal(t, generic.Tier(4), bp.Tier)
	assert.True(t, bp.Payout.Total.Equal(generic.Dec(75*16)))

	// WHEN: the same store has no Business-Promoter class
	plain := extravat.Calculate(company(store("PDV001", network.PIvaJunior)), sources, nil, extravat.DefaultTable())

	// THEN: the fourth level collapses onto the third and the tier stops at 3
	assert.True(t, plain.Thresholds[3].Equal(plain.Thresholds[2]))
	assert.Equal(t, generic.Tier(3), plain.Tier)
	assert.Equal(t, extravat.MaxTierWithoutBP, plain.MaxTier)
	assert.True(t, plain.PointsToNextTier.IsZero())
	assert.True(t, plain.Payout.Total.Equal(generic.Dec(75*5)))
}

func TestCalculate_StoreRateFollowsOwnClass(t *testing.T) {
	// GIVEN: a two-store company, 40 points each (multi: 30/56/80/80)
	sources := map[string]extravat.Sources{
		"A": businessTied(40),
		"B": {generic.TrackFixed: {{Category: fixed.CategoryPIvaFirstLine, Pieces: 20}}},
	}
	before := extravat.Calculate(company(store("A", network.PIvaSenior), store("B", network.PIvaJunior)), sources, nil, extravat.DefaultTable())

	// WHEN: only B's cluster changes, without affecting Business-Promoter status
	after := extravat.Calculate(company(store("A", network.PIvaSenior), store("B", network.PIvaSenior)), sources, nil, extravat.DefaultTable())

	// THEN: company tier is unchanged and only B's payout moves
	require.Equal(t, generic.Tier(3), before.Tier)
	require.Equal(t, before.Tier, after.Tier)
	assert.True(t, before.Stores[0].Payout.Total.Equal(after.Stores[0].Payout.Total))
	assert.True(t, before.Stores[0].Payout.Total.Equal(generic.Dec(360)))
	assert.True(t, before.Stores[1].Payout.Total.Equal(generic.Dec(100)))
	assert.True(t, after.Stores[1].Payout.Total.Equal(generic.Dec(180)))
}

func TestCalculate_OverrideReplacesDerivedThresholdsButKeepsCap(t *testing.T) {
	sources := map[string]extravat.Sources{"PDV001": businessTied(45)}
	override := generic.ThresholdsOf(10, 20, 30, 40)

	res := extravat.Calculate(company(store("PDV001", network.PIvaJunior)), sources, override, extravat.DefaultTable())

	assert.True(t, res.Overridden)
	assert.Equal(t, override, res.Thresholds)
	assert.Equal(t, generic.Tier(3), res.Tier, "no Business-Promoter store")
}

func TestCalculate_NoSourcesPaysNothing(t *testing.T) {
	res := extravat.Calculate(company(store("PDV001", network.PIvaBusinessPromoter)), nil, nil, extravat.DefaultTable())

	assert.Equal(t, generic.Tier(0), res.Tier)
	assert.True(t, res.Payout.Total.IsZero())
	assert.True(t, res.PointsToNextTier.Equal(generic.Dec(20)))
}

func TestScore_IgnoresNonContributingCategories(t *testing.T) {
	src := extravat.Sources{
		generic.TrackMobile: {
			{Category: mobile.CategoryTied, Pieces: 100},
			{Category: mobile.CategoryBusinessMNP, Pieces: 4},
		},
		generic.TrackFixed: {{Category: fixed.CategoryFTTHPIva, Pieces: 2}},
	}

	res := extravat.Score("PDV001", src, extravat.DefaultTable().Weights)

	assert.Equal(t, 6, res.Pieces)
	assert.True(t, res.Points.Equal(generic.Dec(11)), "4x1.5 + 2x2.5")
	require.Len(t, res.Contributions, 2)
	assert.Equal(t, generic.TrackFixed, res.Contributions[0].Track, "tracks in sorted order")
}

func TestProfileOf(t *testing.T) {
	assert.Equal(t, extravat.ProfileMono, extravat.ProfileOf(company(store("A", ""))))
	assert.Equal(t, extravat.ProfileMonoBP, extravat.ProfileOf(company(store("A", network.PIvaBusinessPromoter))))
	assert.Equal(t, extravat.ProfileMulti, extravat.ProfileOf(company(store("A", ""), store("B", network.PIvaSenior))))
	assert.Equal(t, extravat.ProfileMultiBP, extravat.ProfileOf(company(store("A", ""), store("B", network.PIvaBusinessPromoterPlus))))
}

func TestCompanyThresholds_SumPerStore(t *testing.T) {
	th := extravat.CompanyThresholds(company(store("A", ""), store("B", network.PIvaBusinessPromoter), store("C", "")), extravat.DefaultTable())

	assertThresholds(t, generic.ThresholdsOf(45, 84, 120, 180), th)
}
