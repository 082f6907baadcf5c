package rollup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/partnership"
	"github.com/warp/premi-engine/rollup"
)

func pay(total float64) generic.Payout {
	return generic.NewPayout(generic.Dec(total), generic.Dec(0), generic.Dec(0))
}

func companies() []network.Company {
	return network.GroupByCompany([]network.Store{
		{Code: "A1", RagioneSociale: "Alfa"},
		{Code: "A2", RagioneSociale: "Alfa"},
		{Code: "B1", RagioneSociale: "Beta"},
	})
}

func TestSummarize_StoreTracksSumPerCompany(t *testing.T) {
	// GIVEN: mobile priced per store and Extra-VAT priced per company
	in := rollup.Input{
		Companies: companies(),
		StoreTotals: map[generic.TrackID]map[string]generic.Payout{
			generic.TrackMobile: {"A1": pay(100), "A2": pay(50), "B1": pay(10)},
			generic.TrackEnergy: {"B1": pay(5)},
		},
		CompanyTotals: map[generic.TrackID]map[string]generic.Payout{
			generic.TrackExtraVAT: {"Alfa": pay(300)},
		},
	}

	// WHEN: summarized
	sum := rollup.Summarize(in)

	// THEN: company totals are the sum over their tracks
	require.Len(t, sum.Companies, 2)
	alfa, beta := sum.Companies[0], sum.Companies[1]
	assert.True(t, alfa.Total.Total.Equal(generic.Dec(450)))
	assert.True(t, beta.Total.Total.Equal(generic.Dec(15)))
	assert.True(t, alfa.Stores["A2"][generic.TrackMobile].Total.Equal(generic.Dec(50)))

	// AND: the grand total is the sum of company totals
	assert.True(t, sum.GrandTotal.Total.Equal(generic.Dec(465)))
	assert.True(t, sum.Track(generic.TrackMobile).Equal(generic.Dec(160)))
	assert.True(t, sum.Track(generic.TrackProtecta).IsZero())
}

func TestSummarize_CompanyEntryIsNotDoubleCounted(t *testing.T) {
	// GIVEN: mobile priced in RS mode for Alfa, with stale store entries
	in := rollup.Input{
		Companies: companies(),
		StoreTotals: map[generic.TrackID]map[string]generic.Payout{
			generic.TrackMobile: {"A1": pay(100), "A2": pay(50), "B1": pay(10)},
		},
		CompanyTotals: map[generic.TrackID]map[string]generic.Payout{
			generic.TrackMobile: {"Alfa": pay(200)},
		},
	}

	sum := rollup.Summarize(in)

	// THEN: the company result replaces its stores for that track
	assert.True(t, sum.Companies[0].Tracks[generic.TrackMobile].Total.Equal(generic.Dec(200)))
	assert.True(t, sum.GrandTotal.Total.Equal(generic.Dec(210)))
}

func TestSummarize_EmptyInput(t *testing.T) {
	sum := rollup.Summarize(rollup.Input{})

	assert.Empty(t, sum.Companies)
	assert.True(t, sum.GrandTotal.Total.IsZero())
}

func TestAggregateLines_FoldsAcrossStores(t *testing.T) {
	alfa := companies()[0]
	byStore := map[string]generic.Lines{
		"A1": {{Category: "tied", Pieces: 10}, {Category: "untied", Pieces: 2}},
		"A2": {{Category: "tied", Pieces: 5}},
		"B1": {{Category: "tied", Pieces: 99}},
	}

	lines := rollup.AggregateLines(alfa, byStore)

	assert.Equal(t, generic.Lines{{Category: "tied", Pieces: 15}, {Category: "untied", Pieces: 2}}, lines)
}

func TestAggregateEvents_KeepsLinesApart(t *testing.T) {
	alfa := companies()[0]
	byStore := map[string][]partnership.Event{
		"A1": {{EventType: partnership.EventBankAccount, Pieces: 1}},
		"A2": {{EventType: partnership.EventBankAccount, Pieces: 2}},
	}

	assert.Len(t, rollup.AggregateEvents(alfa, byStore), 2)
}

func TestCompanyWorkdays_TakesBusiestStore(t *testing.T) {
	alfa := companies()[0]
	byStore := map[string]calendar.WorkdayInfo{
		"A1": {Total: 26, Elapsed: 13, Remaining: 13},
		"A2": {Total: 30, Elapsed: 15, Remaining: 15},
	}

	assert.Equal(t, 30, rollup.CompanyWorkdays(alfa, byStore).Total)
}
