package mobile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/mobile"
)

func cfg() mobile.Config {
	return mobile.Config{
		Thresholds:  generic.ThresholdsOf(70, 105, 135, 165),
		Multipliers: mobile.DefaultMultipliers(),
		AverageFee:  generic.Dec(10),
	}
}

func aprilFromThe15th() calendar.WorkdayInfo {
	cal := calendar.StoreCalendar{WeeklySchedule: calendar.ScheduleMonSat}
	return calendar.Workdays(2025, time.April, cal, generic.NewDate(2025, time.April, 15))
}

func TestCalculate_TiedActivationsReachThirdTier(t *testing.T) {
	// GIVEN: 180 tied activations at 0.75 points each, average fee 10
	lines := generic.Lines{{Category: mobile.CategoryTied, Pieces: 180}}

	// WHEN: the store result is computed
	res := mobile.Calculate(generic.StoreEntity("PDV001"), lines, cfg(), mobile.DefaultTable(), aprilFromThe15th())

	// THEN: 135 points land exactly on the third level
	assert.True(t, res.Points.Equal(generic.Dec(135)), "points %s", res.Points)
	assert.Equal(t, generic.Tier(3), res.Tier)
	assert.True(t, res.Multiplier.Equal(generic.Dec(1.5)))

	// AND: payout is 1.5 x 180 x 10 plus a 5 euro token per tied piece
	assert.True(t, res.Payout.Base.Equal(generic.Dec(2700)))
	assert.True(t, res.Payout.Tokens.Equal(generic.Dec(900)))
	assert.True(t, res.Payout.Total.Equal(generic.Dec(3600)))
	assert.Equal(t, 180, res.EligiblePieces)
	assert.True(t, res.PointsToNextTier.Equal(generic.Dec(30)))

	// AND: the 13 of 26 elapsed days double the projection
	assert.True(t, res.ProjectionFactor.Equal(generic.Dec(2)))
}

func TestCalculate_NoPiecesPaysNothing(t *testing.T) {
	res := mobile.Calculate(generic.StoreEntity("PDV001"), nil, cfg(), mobile.DefaultTable(), calendar.WorkdayInfo{})

	assert.True(t, res.Points.IsZero())
	assert.Equal(t, generic.Tier(0), res.Tier)
	assert.True(t, res.Payout.Total.IsZero())
	assert.True(t, res.PointsToNextTier.Equal(generic.Dec(70)))
}

func TestCalculate_TokensPayBelowFirstTier(t *testing.T) {
	// GIVEN: only add-ons, worth no points
	lines := generic.Lines{
		{Category: mobile.CategorySmartphoneInsurance, Pieces: 10},
		{Category: mobile.CategoryRoamingAddon, Pieces: 4},
	}

	// WHEN: computed
	res := mobile.Calculate(generic.StoreEntity("PDV001"), lines, cfg(), mobile.DefaultTable(), calendar.WorkdayInfo{})

	// THEN: no tier, no rate payout, but flat tokens still pay
	assert.Equal(t, generic.Tier(0), res.Tier)
	assert.True(t, res.Payout.Base.IsZero())
	assert.True(t, res.Payout.Tokens.Equal(generic.Dec(34)), "10x3 + 4x1")
}

func TestCalculate_TierTokensFollowTier(t *testing.T) {
	// GIVEN: 20 instalment devices alongside enough tied SIMs for the third tier
	lines := generic.Lines{
		{Category: mobile.CategoryTied, Pieces: 180},
		{Category: mobile.CategoryDeviceInstalment, Pieces: 20},
	}

	// WHEN: computed
	res := mobile.Calculate(generic.StoreEntity("PDV001"), lines, cfg(), mobile.DefaultTable(), calendar.WorkdayInfo{})

	// THEN: 145 points, still tier 3; each device pays base 5 + tier-3 bonus 3
	assert.True(t, res.Points.Equal(generic.Dec(145)))
	assert.Equal(t, generic.Tier(3), res.Tier)
	assert.True(t, res.Payout.Bonus.Equal(generic.Dec(160)))
	assert.Equal(t, 180, res.EligiblePieces, "devices are not fee eligible")
}

func TestCalculate_PayoutIsAdditiveAcrossParts(t *testing.T) {
	lines := generic.Lines{
		{Category: mobile.CategoryMNPTied, Pieces: 50},
		{Category: mobile.CategoryUnlimitedUpgrade, Pieces: 8},
		{Category: mobile.CategoryESIMSwap, Pieces: 3},
	}

	res := mobile.Calculate(generic.StoreEntity("PDV001"), lines, cfg(), mobile.DefaultTable(), calendar.WorkdayInfo{})

	sum := res.Payout.Base.Add(res.Payout.Tokens).Add(res.Payout.Bonus)
	assert.True(t, res.Payout.Total.Equal(sum))

	perCategory := generic.Dec(0)
	for _, c := range res.Categories {
		perCategory = perCategory.Add(c.Payout)
	}
	assert.True(t, perCategory.Equal(res.Payout.Tokens.Add(res.Payout.Bonus)))
}

func TestCalculate_UnknownCategoryIsSkipped(t *testing.T) {
	lines := generic.Lines{
		{Category: "carrier_pigeon", Pieces: 3},
		{Category: mobile.CategoryTied, Pieces: 4},
	}

	res := mobile.Calculate(generic.StoreEntity("PDV001"), lines, cfg(), mobile.DefaultTable(), calendar.WorkdayInfo{})

	require.Equal(t, []string{"carrier_pigeon"}, res.Skipped)
	assert.Equal(t, 4, res.TotalPieces)
	assert.Len(t, res.Categories, 1)
}

func TestCategoryTable_CloneIsIndependent(t *testing.T) {
	table := mobile.DefaultTable()
	clone := table.Clone()

	clone[mobile.CategoryDeviceInstalment].TierToken.Bonus[1] = generic.Dec(99)

	assert.True(t, table[mobile.CategoryDeviceInstalment].TierToken.Bonus[1].Equal(generic.Dec(1)))
}
