package generic_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/generic"
)

func dec(f float64) decimal.Decimal { return generic.Dec(f) }

// =============================================================================
// THRESHOLDS
// =============================================================================

func TestThresholds_TierFor_HighestLevelReached(t *testing.T) {
	// GIVEN: the four mobile levels 70/105/135/165
	th := generic.ThresholdsOf(70, 105, 135, 165)

	// THEN: a level is reached at equality and kept until the next one
	cases := []struct {
		metric float64
		want   generic.Tier
	}{
		{0, 0}, {69.99, 0}, {70, 1}, {104, 1}, {105, 2},
		{135, 3}, {164.5, 3}, {165, 4}, {1000, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, th.TierFor(dec(c.metric)), "metric %v", c.metric)
	}
}

func TestThresholds_TierFor_IsMonotonic(t *testing.T) {
	// GIVEN: any non-decreasing ladder
	th := generic.ThresholdsOf(10, 20, 20, 45, 90)

	// WHEN: the metric grows
	// THEN: the tier never decreases
	prev := generic.Tier(0)
	for m := 0.0; m <= 120; m += 0.5 {
		tier := th.TierFor(dec(m))
		assert.GreaterOrEqual(t, int(tier), int(prev), "metric %v", m)
		prev = tier
	}
}

func TestThresholds_NonPositiveLevelCapsTier(t *testing.T) {
	// GIVEN: a ladder whose third level is not configured
	th := generic.ThresholdsOf(10, 20, 0, 40)

	// THEN: tiers past the gap are unreachable
	assert.Equal(t, generic.Tier(2), th.TierFor(dec(500)))
	assert.Equal(t, 2, th.Configured())

	_, ok := th.Next(2)
	assert.False(t, ok, "no next level after the cap")
	next, ok := th.Next(1)
	require.True(t, ok)
	assert.True(t, next.Equal(dec(20)))
}

func TestThresholds_EmptyReachesNothing(t *testing.T) {
	var th generic.Thresholds
	assert.Equal(t, generic.Tier(0), th.TierFor(dec(1e6)))
	assert.True(t, th.At(1).IsZero())
}

func TestThresholds_Add_PadsShorterSide(t *testing.T) {
	a := generic.ThresholdsOf(70, 105, 135, 165)
	b := generic.ThresholdsOf(55, 85, 110)

	sum := a.Add(b)

	require.Len(t, sum, 4)
	assert.True(t, sum[0].Equal(dec(125)))
	assert.True(t, sum[2].Equal(dec(245)))
	assert.True(t, sum[3].Equal(dec(165)))
}

func TestThresholds_Validate_RejectsDecrease(t *testing.T) {
	// GIVEN: a ladder whose third level is below the second
	err := generic.ThresholdsOf(10, 30, 20).Validate()

	// THEN: the error locates the level and unwraps to the sentinel
	var oe *generic.ThresholdOrderError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, 2, oe.Index)
	assert.True(t, errors.Is(err, generic.ErrInvalidThresholds))
	assert.True(t, generic.IsClientError(err))

	assert.NoError(t, generic.ThresholdsOf(10, 10, 20, 0, 5).Validate(), "levels after the cap are ignored")
}

// =============================================================================
// MULTIPLIERS / TIER TABLES / BONUSES
// =============================================================================

func TestMultipliers_TierZeroPaysNothing(t *testing.T) {
	m := generic.MultipliersOf(1, 1.2, 1.5, 2)

	assert.True(t, m.At(0).IsZero())
	assert.True(t, m.At(3).Equal(dec(1.5)))
	assert.True(t, m.At(5).IsZero(), "out of range")
}

func TestTierTable_ClampsAboveLastEntry(t *testing.T) {
	tt := generic.TierTableOf(0, 1, 2, 3)

	assert.True(t, tt.At(0).IsZero())
	assert.True(t, tt.At(2).Equal(dec(2)))
	assert.True(t, tt.At(7).Equal(dec(3)))
	assert.True(t, generic.TierTable(nil).At(2).IsZero())
}

func TestBonuses_OnlyHighestStepPays(t *testing.T) {
	// GIVEN: a 50/150, 80/300, 120/500 ladder
	b := generic.Bonuses{
		{Threshold: dec(50), Bonus: dec(150)},
		{Threshold: dec(80), Bonus: dec(300)},
		{Threshold: dec(120), Bonus: dec(500)},
	}

	// WHEN: the metric passes the second step
	tier, bonus := b.Reached(dec(95))

	// THEN: the second bonus is paid alone
	assert.Equal(t, generic.Tier(2), tier)
	assert.True(t, bonus.Equal(dec(300)))

	tier, bonus = b.Reached(dec(49))
	assert.Equal(t, generic.Tier(0), tier)
	assert.True(t, bonus.IsZero())
}

// =============================================================================
// SAFE NUMERICS / RATE CARD
// =============================================================================

func TestDec_CorruptInputBecomesZero(t *testing.T) {
	assert.True(t, generic.Dec(math.NaN()).IsZero())
	assert.True(t, generic.Dec(math.Inf(1)).IsZero())
	assert.True(t, generic.SafeDecimal(nil).IsZero())
	assert.Equal(t, 0, generic.SafeInt(-3))
	assert.Equal(t, 0, generic.SafeInt(math.NaN()))
	assert.Equal(t, 7, generic.SafeInt(7.9))
}

func TestRatio_FallbackOnZeroDenominator(t *testing.T) {
	assert.True(t, generic.Ratio(dec(10), decimal.Zero, dec(1)).Equal(dec(1)))
	assert.True(t, generic.Ratio(dec(10), dec(4), dec(1)).Equal(dec(2.5)))
}

func TestRateCard_Price_SkipsUnknownCategories(t *testing.T) {
	// GIVEN: a card with two categories and lines with a duplicate and an
	// unknown category
	card := generic.RateCardOf(map[string]float64{"a": 10, "b": 2.5})
	lines := generic.Lines{
		{Category: "a", Pieces: 3},
		{Category: "zzz", Pieces: 9},
		{Category: "b", Pieces: 4},
		{Category: "a", Pieces: 1},
		{Category: "b", Pieces: -5},
	}

	// WHEN: the lines are priced
	sum := card.Price(lines)

	// THEN: duplicates fold, negatives drop, unknowns are reported
	assert.True(t, sum.Base.Equal(dec(50)), "4×10 + 4×2.5")
	assert.Equal(t, 8, sum.TotalPieces)
	assert.Equal(t, []string{"zzz"}, sum.Skipped)
	require.Len(t, sum.Categories, 2)
	assert.Equal(t, "a", sum.Categories[0].Category)
	assert.Equal(t, 4, sum.Categories[0].Pieces)
}

func TestPayout_TotalIsSumOfParts(t *testing.T) {
	p := generic.NewPayout(dec(100), dec(20), dec(5)).Add(generic.NewPayout(dec(1), dec(2), dec(3)))

	assert.True(t, p.Total.Equal(dec(131)))
	assert.True(t, generic.SumPayouts(nil).Total.IsZero())
}

func TestGaraMode_UnknownFallsBackToStore(t *testing.T) {
	assert.Equal(t, generic.KindCompany, generic.ModePerCompany.Kind())
	assert.Equal(t, generic.KindStore, generic.ModePerStore.Kind())
	assert.Equal(t, generic.KindStore, generic.GaraMode("").Kind())
}
