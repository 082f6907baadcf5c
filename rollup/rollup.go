/*
Package rollup groups track results by company and sums them into
company and grand totals.

PURPOSE:
  Track calculators produce one result per store (store mode) or one per
  company (RS mode, Extra-VAT). Roll-up is the pure reduce that follows:

    companyTrackTotal = company result, if the track was priced per company
                      | sum of the company's store results, otherwise
    companyTotal      = sum over tracks of companyTrackTotal
    grandTotal        = sum over companies of companyTotal

  It also prepares RS-mode inputs: the activation lines of every store of
  a company summed into one list.

SEE ALSO:
  - engine/: fills Input and reads Summary
  - network/: GroupByCompany
*/
package rollup

import (
	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/partnership"
)

// =============================================================================
// RS-MODE AGGREGATION
// =============================================================================

// AggregateLines sums the lines of a company's stores, folding duplicate
// categories. Category order follows first appearance across stores.
func AggregateLines(c network.Company, byStore map[string]generic.Lines) generic.Lines {
	var all generic.Lines
	for _, s := range c.Stores {
		all = append(all, byStore[s.Code]...)
	}
	order, counts := all.PiecesByCategory()
	out := make(generic.Lines, 0, len(order))
	for _, cat := range order {
		out = append(out, generic.Line{Category: cat, Pieces: counts[cat]})
	}
	return out
}

// AggregateEvents concatenates the CB events of a company's stores. Events
// keep their own token and points, so they are not folded.
func AggregateEvents(c network.Company, byStore map[string][]partnership.Event) []partnership.Event {
	var out []partnership.Event
	for _, s := range c.Stores {
		out = append(out, byStore[s.Code]...)
	}
	return out
}

// CompanyWorkdays returns the working days of the store with the most total
// working days.
func CompanyWorkdays(c network.Company, byStore map[string]calendar.WorkdayInfo) calendar.WorkdayInfo {
	var wd calendar.WorkdayInfo
	for _, s := range c.Stores {
		wd = wd.Max(byStore[s.Code])
	}
	return wd
}

// =============================================================================
// SUMMARY
// =============================================================================

// Totals maps a track to a payout.
type Totals map[generic.TrackID]generic.Payout

func (t Totals) add(track generic.TrackID, p generic.Payout) {
	if cur, ok := t[track]; ok {
		t[track] = cur.Add(p)
		return
	}
	t[track] = p
}

// Sum returns the payout summed over all tracks.
func (t Totals) Sum() generic.Payout {
	ps := make([]generic.Payout, 0, len(t))
	for _, id := range generic.AllTracks {
		if p, ok := t[id]; ok {
			ps = append(ps, p)
		}
	}
	return generic.SumPayouts(ps)
}

// Input is every track payout of a run, keyed by entity.
type Input struct {
	Companies []network.Company

	// StoreTotals[track][storeCode] for tracks priced per store.
	StoreTotals map[generic.TrackID]map[string]generic.Payout

	// CompanyTotals[track][companyName] for tracks priced per company.
	// When a company has an entry here its store entries for the same
	// track are not summed again.
	CompanyTotals map[generic.TrackID]map[string]generic.Payout
}

// CompanySummary is the roll-up of one company.
type CompanySummary struct {
	Company    string            `json:"company"`
	StoreCodes []string          `json:"storeCodes"`
	Stores     map[string]Totals `json:"stores"`
	Tracks     Totals            `json:"tracks"`
	Total      generic.Payout    `json:"total"`
}

// Summary is the roll-up of a whole run.
type Summary struct {
	Companies  []CompanySummary `json:"companies"`
	Tracks     Totals           `json:"tracks"`
	GrandTotal generic.Payout   `json:"grandTotal"`
}

// Summarize builds company and grand totals.
func Summarize(in Input) Summary {
	sum := Summary{Tracks: make(Totals)}
	companyTotals := make([]generic.Payout, 0, len(in.Companies))

	for _, c := range in.Companies {
		cs := CompanySummary{
			Company:    c.Name,
			StoreCodes: c.StoreCodes(),
			Stores:     make(map[string]Totals, len(c.Stores)),
			Tracks:     make(Totals),
		}
		for _, s := range c.Stores {
			cs.Stores[s.Code] = make(Totals)
		}

		for _, track := range generic.AllTracks {
			if p, ok := in.CompanyTotals[track][c.Name]; ok {
				cs.Tracks.add(track, p)
				continue
			}
			byStore, ok := in.StoreTotals[track]
			if !ok {
				continue
			}
			for _, s := range c.Stores {
				if p, ok := byStore[s.Code]; ok {
					cs.Stores[s.Code].add(track, p)
					cs.Tracks.add(track, p)
				}
			}
		}

		cs.Total = cs.Tracks.Sum()
		for track, p := range cs.Tracks {
			sum.Tracks.add(track, p)
		}
		companyTotals = append(companyTotals, cs.Total)
		sum.Companies = append(sum.Companies, cs)
	}

	sum.GrandTotal = generic.SumPayouts(companyTotals)
	return sum
}

// Track returns the grand total of one track, zero when absent.
func (s Summary) Track(id generic.TrackID) decimal.Decimal {
	if p, ok := s.Tracks[id]; ok {
		return p.Total
	}
	return decimal.Zero
}
