package insurance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
)

func cfg(targetNoMalus float64) insurance.Config {
	return insurance.Config{TargetNoMalus: generic.Dec(targetNoMalus), Bonuses: insurance.DefaultBonuses()}
}

func TestCalculate_ReloadPointsUnlockAtTarget(t *testing.T) {
	// GIVEN: 50 base points (casa 20x1 + salute 15x2) and 10 reload events
	lines := []insurance.Line{
		{Category: insurance.CategoryCasa, Pieces: 20},
		{Category: insurance.CategorySalute, Pieces: 15},
		{Category: insurance.CategoryReloadForever, Pieces: 10},
	}

	// WHEN: the target no malus is exactly 50
	res := insurance.Calculate(generic.StoreEntity("PDV001"), lines, true, cfg(50), insurance.DefaultTable(), calendar.WorkdayInfo{})

	// THEN: reload events add floor(10/5) = 2 points
	assert.True(t, res.BasePoints.Equal(generic.Dec(50)))
	assert.True(t, res.TargetNoMalusMet)
	assert.True(t, res.ReloadPoints.Equal(generic.Dec(2)))
	assert.True(t, res.Points.Equal(generic.Dec(52)))

	// AND: the first ladder step pays on top of the rates
	assert.Equal(t, generic.Tier(1), res.Tier)
	assert.True(t, res.Payout.Base.Equal(generic.Dec(675)), "20x15 + 15x25")
	assert.True(t, res.Payout.Total.Equal(generic.Dec(825)))
}

func TestCalculate_ReloadIgnoredBelowTarget(t *testing.T) {
	lines := []insurance.Line{
		{Category: insurance.CategoryCasa, Pieces: 49},
		{Category: insurance.CategoryReloadForever, Pieces: 14},
	}

	res := insurance.Calculate(generic.StoreEntity("PDV001"), lines, true, cfg(50), insurance.DefaultTable(), calendar.WorkdayInfo{})

	assert.False(t, res.TargetNoMalusMet)
	assert.True(t, res.ReloadPoints.IsZero())
	assert.True(t, res.Points.Equal(generic.Dec(49)))
	assert.Equal(t, 14, res.ReloadEvents)
	assert.Equal(t, generic.Tier(0), res.Tier)
}

func TestCalculate_ViaggioMondoPremiumAndCap(t *testing.T) {
	// GIVEN: two policies at 400 euro and one at 2000 euro
	lines := []insurance.Line{
		{Category: insurance.CategoryViaggioMondo, Pieces: 2, DeclaredPremium: generic.Dec(400)},
		{Category: insurance.CategoryViaggioMondo, Pieces: 1, DeclaredPremium: generic.Dec(2000)},
	}

	// WHEN: computed
	res := insurance.Calculate(generic.StoreEntity("PDV001"), lines, false, cfg(50), insurance.DefaultTable(), calendar.WorkdayInfo{})

	// THEN: points 1.5 per 100 euro per piece: 2x6 + 30
	assert.True(t, res.Points.Equal(generic.Dec(42)))

	// AND: payout 12.5% of premium capped at 201: 2x50 + 201
	require.Len(t, res.Categories, 1, "both lines fold into one category")
	assert.True(t, res.Payout.Base.Equal(generic.Dec(301)))
	assert.Equal(t, 3, res.TotalPieces)
}

func TestCalculate_OutsideCompetitionNoLadder(t *testing.T) {
	lines := []insurance.Line{{Category: insurance.CategoryMultirischiImpresa, Pieces: 50}}

	res := insurance.Calculate(generic.StoreEntity("PDV001"), lines, false, cfg(50), insurance.DefaultTable(), calendar.WorkdayInfo{})

	assert.True(t, res.Points.Equal(generic.Dec(150)))
	assert.Equal(t, generic.Tier(0), res.Tier)
	assert.True(t, res.ThresholdBonus.IsZero())
	assert.True(t, res.Payout.Total.Equal(generic.Dec(2000)))
}

func TestCalculate_OnlyHighestStepPays(t *testing.T) {
	lines := []insurance.Line{{Category: insurance.CategoryMultirischiImpresa, Pieces: 50}}

	res := insurance.Calculate(generic.StoreEntity("PDV001"), lines, true, cfg(50), insurance.DefaultTable(), calendar.WorkdayInfo{})

	assert.Equal(t, generic.Tier(3), res.Tier)
	assert.True(t, res.ThresholdBonus.Equal(generic.Dec(500)))
}

func TestCalculate_UnknownAndEmptyLines(t *testing.T) {
	lines := []insurance.Line{
		{Category: "vita", Pieces: 2},
		{Category: insurance.CategoryPet, Pieces: 0},
		{Category: insurance.CategoryViaggioMondo, Pieces: 1, DeclaredPremium: generic.Dec(-100)},
	}

	res := insurance.Calculate(generic.StoreEntity("PDV001"), lines, true, cfg(50), insurance.DefaultTable(), calendar.WorkdayInfo{})

	assert.Equal(t, []string{"vita"}, res.Skipped)
	assert.True(t, res.Points.IsZero())
	assert.True(t, res.Payout.Total.IsZero())
	assert.Equal(t, 1, res.TotalPieces)
}
