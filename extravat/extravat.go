/*
Package extravat implements the Extra-VAT track (Extra Gara IVA), the only
track that is always priced at company level.

PURPOSE:
  Business activations recorded on other tracks (business mobile lines,
  P.IVA fixed lines, business energy contracts, company insurance and
  business Protecta) are re-scored with Extra-VAT weights. The company's
  total points select a single tier; each store is then paid per piece at
  the rate of its own P.IVA class for that company tier.

THRESHOLDS:
  Company thresholds are the sum over stores of a per-store base table
  chosen by (mono vs multi store, has Business-Promoter store or not).

    profile    base per store
    mono       [20, 35, 50, 50]
    mono_bp    [20, 35, 50, 70]
    multi      [15, 28, 40, 40]
    multi_bp   [15, 28, 40, 60]

  Without a Business-Promoter store the fourth threshold equals the third
  and the reachable tier is capped at 3.

PAYOUT:
  storePayout   = storePieces x rate[storeClass][companyTier]
  companyPayout = sum(storePayout)

  Changing one store's P.IVA cluster changes only that store's rate.

SEE ALSO:
  - network/: PIvaClass, IsBusinessPromoter
  - rollup/: adds the company payout to the company grand total
*/
package extravat

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/premi-engine/energy"
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/protecta"
)

func init() {
	generic.RegisterTrack(generic.TrackInfo{
		ID:   generic.TrackExtraVAT,
		Name: "Extra Gara IVA",
		Kind: generic.KindCompany,
	})
}

// MaxTierWithoutBP is the highest tier a company without a
// Business-Promoter store can reach.
const MaxTierWithoutBP generic.Tier = 3

// =============================================================================
// RATE TABLE
// =============================================================================

// Weights holds the Extra-VAT point weight of each contributing category,
// per source track.
type Weights map[generic.TrackID]map[string]decimal.Decimal

// Weight returns the weight of a category, or false if it does not
// contribute.
func (w Weights) Weight(track generic.TrackID, category string) (decimal.Decimal, bool) {
	cats, ok := w[track]
	if !ok {
		return decimal.Zero, false
	}
	v, ok := cats[category]
	return v, ok
}

// Profile selects a per-store base threshold row.
type Profile string

const (
	ProfileMono    Profile = "mono"
	ProfileMonoBP  Profile = "mono_bp"
	ProfileMulti   Profile = "multi"
	ProfileMultiBP Profile = "multi_bp"
)

// ProfileOf returns the base-threshold profile of a company.
func ProfileOf(c network.Company) Profile {
	switch multi, bp := c.IsMultiStore(), c.HasBusinessPromoter(); {
	case multi && bp:
		return ProfileMultiBP
	case multi:
		return ProfileMulti
	case bp:
		return ProfileMonoBP
	default:
		return ProfileMono
	}
}

// RateTable is the complete Extra-VAT configuration.
type RateTable struct {
	Weights        Weights                                `json:"weights"`
	BaseThresholds map[Profile]generic.Thresholds         `json:"baseThresholds"`
	Rates          map[network.PIvaClass]generic.TierTable `json:"rates"`
}

func (t RateTable) Clone() RateTable {
	out := RateTable{
		Weights:        make(Weights, len(t.Weights)),
		BaseThresholds: make(map[Profile]generic.Thresholds, len(t.BaseThresholds)),
		Rates:          make(map[network.PIvaClass]generic.TierTable, len(t.Rates)),
	}
	for track, cats := range t.Weights {
		m := make(map[string]decimal.Decimal, len(cats))
		for k, v := range cats {
			m[k] = v
		}
		out.Weights[track] = m
	}
	for k, v := range t.BaseThresholds {
		out.BaseThresholds[k] = append(generic.Thresholds(nil), v...)
	}
	for k, v := range t.Rates {
		out.Rates[k] = append(generic.TierTable(nil), v...)
	}
	return out
}

func weights(m map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = generic.Dec(v)
	}
	return out
}

// DefaultTable returns the standard Extra-VAT configuration.
func DefaultTable() RateTable {
	return RateTable{
		Weights: Weights{
			generic.TrackMobile: weights(map[string]float64{
				mobile.CategoryBusinessTied:   1,
				mobile.CategoryBusinessUntied: 0.75,
				mobile.CategoryBusinessMNP:    1.5,
			}),
			generic.TrackFixed: weights(map[string]float64{
				fixed.CategoryPIvaFirstLine:  2,
				fixed.CategoryPIvaSecondLine: 1,
				fixed.CategoryFTTHPIva:       2.5,
			}),
			generic.TrackEnergy: weights(map[string]float64{
				energy.CategoryLuceBusiness: 1,
				energy.CategoryGasBusiness:  1,
				energy.CategoryDualBusiness: 2,
			}),
			generic.TrackInsurance: weights(map[string]float64{
				insurance.CategoryMultirischiImpresa: 2,
			}),
			generic.TrackProtecta: weights(map[string]float64{
				protecta.CategoryBusiness: 1,
			}),
		},
		BaseThresholds: map[Profile]generic.Thresholds{
			ProfileMono:    generic.ThresholdsOf(20, 35, 50, 50),
			ProfileMonoBP:  generic.ThresholdsOf(20, 35, 50, 70),
			ProfileMulti:   generic.ThresholdsOf(15, 28, 40, 40),
			ProfileMultiBP: generic.ThresholdsOf(15, 28, 40, 60),
		},
		Rates: map[network.PIvaClass]generic.TierTable{
			network.ClassPlus:     generic.TierTableOf(0, 5, 8, 12, 16),
			network.ClassStandard: generic.TierTableOf(0, 4, 6, 9, 12),
			network.ClassNone:     generic.TierTableOf(0, 2, 3, 5, 7),
		},
	}
}

// CompanyThresholds derives the company thresholds: the profile's base row
// summed once per store, with the fourth level collapsed onto the third when
// no store is a Business-Promoter.
func CompanyThresholds(c network.Company, table RateTable) generic.Thresholds {
	base := table.BaseThresholds[ProfileOf(c)]
	var th generic.Thresholds
	for range c.Stores {
		th = th.Add(base)
	}
	if !c.HasBusinessPromoter() && len(th) >= 4 {
		th[3] = th[2]
	}
	return th
}

// =============================================================================
// CALCULATION
// =============================================================================

// Sources are the raw activation lines of one store, by source track.
type Sources map[generic.TrackID]generic.Lines

// Contribution is one category counted toward Extra-VAT.
type Contribution struct {
	Track    generic.TrackID `json:"track"`
	Category string          `json:"category"`
	Pieces   int             `json:"pieces"`
	Weight   decimal.Decimal `json:"weight"`
	Points   decimal.Decimal `json:"points"`
}

// StoreResult is one store's share of the company result.
type StoreResult struct {
	Entity        generic.Entity      `json:"entity"`
	PIvaCluster   network.PIvaCluster `json:"pivaCluster,omitempty"`
	Class         network.PIvaClass   `json:"class"`
	Contributions []Contribution      `json:"contributions"`
	Pieces        int                 `json:"pieces"`
	Points        decimal.Decimal     `json:"points"`
	Rate          decimal.Decimal     `json:"rate"`
	Payout        generic.Payout      `json:"payout"`
}

// Result is the Extra-VAT outcome for one company.
type Result struct {
	Entity           generic.Entity     `json:"entity"`
	StoreCount       int                `json:"storeCount"`
	MultiStore       bool               `json:"isMultiStore"`
	BusinessPromoter bool               `json:"hasBusinessPromoter"`
	Thresholds       generic.Thresholds `json:"thresholds"`
	Overridden       bool               `json:"overridden"`
	Pieces           int                `json:"pieces"`
	Points           decimal.Decimal    `json:"points"`
	Tier             generic.Tier       `json:"tier"`
	MaxTier          generic.Tier       `json:"maxTier"`
	PointsToNextTier decimal.Decimal    `json:"pointsToNextTier"`
	Stores           []StoreResult      `json:"stores"`
	Payout           generic.Payout     `json:"payout"`
}

// Score re-scores one store's lines with Extra-VAT weights. Categories that
// do not contribute are ignored.
func Score(code string, src Sources, weights Weights) StoreResult {
	res := StoreResult{Entity: generic.StoreEntity(code), Points: decimal.Zero}
	tracks := make([]generic.TrackID, 0, len(src))
	for t := range src {
		tracks = append(tracks, t)
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i] < tracks[j] })

	for _, track := range tracks {
		order, counts := src[track].PiecesByCategory()
		for _, cat := range order {
			w, ok := weights.Weight(track, cat)
			if !ok {
				continue
			}
			n := counts[cat]
			points := generic.Pieces(n).Mul(w)
			res.Contributions = append(res.Contributions, Contribution{
				Track: track, Category: cat, Pieces: n, Weight: w, Points: points,
			})
			res.Pieces += n
			res.Points = res.Points.Add(points)
		}
	}
	return res
}

// Calculate prices one company. sources is keyed by store code; override,
// when configured, replaces the derived company thresholds.
func Calculate(c network.Company, sources map[string]Sources, override generic.Thresholds, table RateTable) Result {
	res := Result{
		Entity:           generic.CompanyEntity(c.Name),
		StoreCount:       c.StoreCount(),
		MultiStore:       c.IsMultiStore(),
		BusinessPromoter: c.HasBusinessPromoter(),
		Points:           decimal.Zero,
		PointsToNextTier: decimal.Zero,
		MaxTier:          4,
	}
	if override.Configured() > 0 {
		res.Thresholds = override
		res.Overridden = true
	} else {
		res.Thresholds = CompanyThresholds(c, table)
	}
	if !res.BusinessPromoter {
		res.MaxTier = MaxTierWithoutBP
	}

	res.Stores = make([]StoreResult, len(c.Stores))
	for i, s := range c.Stores {
		sr := Score(s.Code, sources[s.Code], table.Weights)
		sr.PIvaCluster = s.Clusters.PIva
		sr.Class = s.Clusters.PIva.Class()
		res.Stores[i] = sr
		res.Pieces += sr.Pieces
		res.Points = res.Points.Add(sr.Points)
	}

	res.Tier = res.Thresholds.TierFor(res.Points)
	if res.Tier > res.MaxTier {
		res.Tier = res.MaxTier
	}
	if res.Tier < res.MaxTier {
		if next, ok := res.Thresholds.Next(res.Tier); ok {
			res.PointsToNextTier = next.Sub(res.Points)
		}
	}

	payouts := make([]generic.Payout, len(res.Stores))
	for i := range res.Stores {
		sr := &res.Stores[i]
		sr.Rate = table.Rates[sr.Class].At(res.Tier)
		sr.Payout = generic.NewPayout(generic.Pieces(sr.Pieces).Mul(sr.Rate), decimal.Zero, decimal.Zero)
		payouts[i] = sr.Payout
	}
	res.Payout = generic.SumPayouts(payouts)
	return res
}
