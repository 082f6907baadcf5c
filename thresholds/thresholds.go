/*
Package thresholds derives default targets from store master data.

PURPOSE:
  When a store has no explicit configuration, its Mobile and Fixed-line
  thresholds come from its position type and cluster, and its CB target
  from its CB cluster. Company-level (RS mode) defaults are the sum of the
  store defaults.

TABLES:
  Mobile (4 tiers)                 Fixed-line (5 tiers)
  street/other  mall               street/other        mall
  M1 90..215    105..245           F1 30..90           35..105
  M5 40..100    45..115            F4 12..36           14..42

  The tables are returned as fresh copies; callers may modify them.

SEE ALSO:
  - engine/: falls back to these when a store has no configuration
  - api/: GET /api/thresholds/defaults
*/
package thresholds

import (
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/partnership"
)

// =============================================================================
// TABLES
// =============================================================================

var mobileStreet = map[network.MobileCluster][]float64{
	network.MobileM1: {90, 135, 175, 215},
	network.MobileM2: {80, 120, 155, 190},
	network.MobileM3: {70, 105, 135, 165},
	network.MobileM4: {55, 85, 110, 135},
	network.MobileM5: {40, 60, 80, 100},
}

var mobileMall = map[network.MobileCluster][]float64{
	network.MobileM1: {105, 155, 200, 245},
	network.MobileM2: {90, 135, 175, 215},
	network.MobileM3: {80, 120, 155, 190},
	network.MobileM4: {65, 95, 125, 155},
	network.MobileM5: {45, 70, 90, 115},
}

var fixedStreet = map[network.FixedCluster][]float64{
	network.FixedF1: {30, 45, 60, 75, 90},
	network.FixedF2: {24, 36, 48, 60, 72},
	network.FixedF3: {18, 27, 36, 45, 54},
	network.FixedF4: {12, 18, 24, 30, 36},
}

var fixedMall = map[network.FixedCluster][]float64{
	network.FixedF1: {35, 52, 70, 87, 105},
	network.FixedF2: {28, 42, 56, 70, 84},
	network.FixedF3: {21, 32, 42, 53, 63},
	network.FixedF4: {14, 21, 28, 35, 42},
}

var cbTargets = map[network.CBCluster][2]float64{
	network.CB1: {40, 600},
	network.CB2: {30, 450},
	network.CB3: {20, 300},
}

// =============================================================================
// STORE DEFAULTS
// =============================================================================

// MobileFor returns the default Mobile thresholds for a position type and
// cluster. An unset or unknown cluster has no default.
func MobileFor(p network.PositionType, c network.MobileCluster) (generic.Thresholds, bool) {
	table := mobileStreet
	if p == network.PositionMall {
		table = mobileMall
	}
	v, ok := table[c]
	if !ok {
		return nil, false
	}
	return generic.ThresholdsOf(v...), true
}

// FixedFor returns the default Fixed-line thresholds for a position type and
// cluster.
func FixedFor(p network.PositionType, c network.FixedCluster) (generic.Thresholds, bool) {
	table := fixedStreet
	if p == network.PositionMall {
		table = fixedMall
	}
	v, ok := table[c]
	if !ok {
		return nil, false
	}
	return generic.ThresholdsOf(v...), true
}

// CBFor returns the default Partnership target of a CB cluster.
func CBFor(c network.CBCluster) (partnership.Target, bool) {
	v, ok := cbTargets[c]
	if !ok {
		return partnership.Target{}, false
	}
	return partnership.NewTarget(generic.Dec(v[0]), generic.Dec(v[1])), true
}

// MobileMultipliers and FixedMultipliers are the default tier multipliers.
func MobileMultipliers() generic.Multipliers { return mobile.DefaultMultipliers() }
func FixedMultipliers() generic.Multipliers  { return fixed.DefaultMultipliers() }

// =============================================================================
// COMPANY DEFAULTS (RS mode)
// =============================================================================

// CompanyMobile sums the store defaults. Stores without a cluster
// contribute zero.
func CompanyMobile(stores []network.Store) generic.Thresholds {
	var th generic.Thresholds
	for _, s := range stores {
		if v, ok := MobileFor(s.PositionType, s.Clusters.Mobile); ok {
			th = th.Add(v)
		}
	}
	return th
}

// CompanyFixed sums the store defaults.
func CompanyFixed(stores []network.Store) generic.Thresholds {
	var th generic.Thresholds
	for _, s := range stores {
		if v, ok := FixedFor(s.PositionType, s.Clusters.Fixed); ok {
			th = th.Add(v)
		}
	}
	return th
}

// CompanyCB sums the store CB targets level by level.
func CompanyCB(stores []network.Store) partnership.Target {
	var t partnership.Target
	for _, s := range stores {
		if v, ok := CBFor(s.Clusters.CB); ok {
			t = t.Add(v)
		}
	}
	return t
}
