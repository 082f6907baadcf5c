package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/engine"
	"github.com/warp/premi-engine/factory"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/network"
)

func streetStore(code, company string) network.Store {
	return network.Store{
		Code:           code,
		RagioneSociale: company,
		PositionType:   network.PositionStreet,
		Clusters:       network.Clusters{Mobile: network.MobileM3, Fixed: network.FixedF2, CB: network.CB2},
		Calendar:       network.DefaultCalendar(network.PositionStreet),
		InGara:         true,
	}
}

func april(stores ...network.Store) engine.Input {
	return engine.Input{
		Stores: stores,
		Year:   2025,
		Month:  time.April,
		Today:  generic.NewDate(2025, time.April, 15),
	}
}

func TestRun_NoActivationsPaysNothing(t *testing.T) {
	// GIVEN: two companies without a single activation
	e := engine.New(factory.DefaultRateTables(), nil)
	in := april(streetStore("A1", "Alfa"), streetStore("A2", "Alfa"), streetStore("B1", "Beta"))

	// WHEN: the engine runs
	out := e.Run(in)

	// THEN: every track has a zero result and the grand total is zero
	assert.True(t, out.Summary.GrandTotal.Total.IsZero())
	require.Len(t, out.Summary.Companies, 2)
	assert.Len(t, out.Mobile, 3)
	assert.Len(t, out.Energy, 2)
	assert.Len(t, out.ExtraVAT, 2)
	for _, id := range generic.AllTracks {
		assert.True(t, out.Summary.Track(id).IsZero(), "track %s", id)
	}

	// AND: working days come from the store calendars
	assert.Equal(t, calendar.WorkdayInfo{Total: 26, Elapsed: 13, Remaining: 13}, out.Workdays["A1"])
	assert.Equal(t, 26, out.CompanyWorkdays["Alfa"].Total)
}

func TestRun_DefaultThresholdsFromCluster(t *testing.T) {
	// GIVEN: a street M3 store with 180 tied activations and no configuration
	in := april(streetStore("PDV001", "Alfa"))
	in.MobileLines = map[string]generic.Lines{"PDV001": {{Category: mobile.CategoryTied, Pieces: 180}}}

	// WHEN: the engine runs with default averageFee 10 configured
	in.Mobile = map[string]mobile.Config{"PDV001": {AverageFee: generic.Dec(10)}}
	out := engine.New(factory.DefaultRateTables(), nil).Run(in)

	// THEN: the M3 street ladder 70/105/135/165 puts 135 points on tier 3
	res := out.Mobile["PDV001"]
	assert.Equal(t, generic.Tier(3), res.Tier)
	assert.True(t, res.Payout.Total.Equal(generic.Dec(3600)))
	assert.True(t, out.Summary.GrandTotal.Total.Equal(generic.Dec(3600)))
	assert.True(t, res.ProjectionFactor.Equal(generic.Dec(2)))
}

func TestRun_CompanyModePoolsStores(t *testing.T) {
	// GIVEN: two stores of one company with 90 tied activations each and a
	// company ladder of 70/105/135/165
	in := april(streetStore("A1", "Alfa"), streetStore("A2", "Alfa"))
	in.MobileLines = map[string]generic.Lines{
		"A1": {{Category: mobile.CategoryTied, Pieces: 90}},
		"A2": {{Category: mobile.CategoryTied, Pieces: 90}},
	}
	ladder := mobile.Config{Thresholds: generic.ThresholdsOf(70, 105, 135, 165), AverageFee: generic.Dec(10)}
	in.Mobile = map[string]mobile.Config{"Alfa": ladder, "A1": ladder, "A2": ladder}
	e := engine.New(factory.DefaultRateTables(), nil)

	// WHEN: priced per store, each store reaches only 67.5 points
	pdv := e.Run(in)
	assert.Equal(t, generic.Tier(0), pdv.Mobile["A1"].Tier)
	assert.True(t, pdv.Summary.Track(generic.TrackMobile).Equal(generic.Dec(900)), "tokens only")

	// WHEN: priced per company, the pooled 135 points reach tier 3
	in.Modes.Mobile = generic.ModePerCompany
	rs := e.Run(in)
	res, ok := rs.Mobile["Alfa"]
	require.True(t, ok)
	assert.Equal(t, generic.Tier(3), res.Tier)
	assert.True(t, rs.Summary.Track(generic.TrackMobile).Equal(generic.Dec(3600)))
	_, perStore := rs.Mobile["A1"]
	assert.False(t, perStore)
}

func TestRun_InsuranceTargetDefaultsToFirstStep(t *testing.T) {
	// GIVEN: 50 base points and 10 reload events without a target no malus
	in := april(streetStore("PDV001", "Alfa"))
	in.InsuranceLines = map[string][]insurance.Line{"PDV001": {
		{Category: insurance.CategoryCasa, Pieces: 20},
		{Category: insurance.CategorySalute, Pieces: 15},
		{Category: insurance.CategoryReloadForever, Pieces: 10},
	}}

	// WHEN: the engine runs
	out := engine.New(factory.DefaultRateTables(), nil).Run(in)

	// THEN: the first ladder step (50) acts as the target and reloads count
	res := out.Insurance["PDV001"]
	assert.True(t, res.Points.Equal(generic.Dec(52)))
	assert.Equal(t, generic.Tier(1), res.Tier)
}

func TestRun_ExtraVATReadsOtherTracks(t *testing.T) {
	// GIVEN: a Business-Promoter store selling business SIMs on the mobile track
	s := streetStore("PDV001", "Alfa")
	s.Clusters.PIva = network.PIvaBusinessPromoterPlus
	in := april(s)
	in.MobileLines = map[string]generic.Lines{"PDV001": {{Category: mobile.CategoryBusinessTied, Pieces: 75}}}

	// WHEN: the engine runs
	out := engine.New(factory.DefaultRateTables(), nil).Run(in)

	// THEN: Extra-VAT re-scores them at company level and reaches tier 4
	vat := out.ExtraVAT["Alfa"]
	assert.Equal(t, generic.Tier(4), vat.Tier)
	assert.True(t, vat.Payout.Total.Equal(generic.Dec(1200)))

	// AND: the company total adds both tracks
	company := out.Summary.Companies[0]
	sum := company.Tracks[generic.TrackMobile].Total.Add(company.Tracks[generic.TrackExtraVAT].Total)
	assert.True(t, company.Total.Total.Equal(sum))
}

func TestInsuranceLines_DropsPremium(t *testing.T) {
	lines := engine.InsuranceLines([]insurance.Line{{Category: insurance.CategoryViaggioMondo, Pieces: 2, DeclaredPremium: generic.Dec(400)}})

	assert.Equal(t, generic.Lines{{Category: insurance.CategoryViaggioMondo, Pieces: 2}}, lines)
}
