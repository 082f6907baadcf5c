/*
tiers.go - Threshold (soglia) lookup shared by every track

PURPOSE:
  Every track converts a metric (points or pieces) into a tier by comparing
  it against an ordered list of thresholds, then maps the tier to a payout
  multiplier or a fixed bonus. This file holds that shared pattern.

TIER RULES:
  - Tier 0 means no threshold was reached
  - Tier N requires metric >= thresholds[N-1] (ties favor the higher tier)
  - A non-positive threshold is "not configured" and caps the reachable
    tier at the previous level
  - Configured thresholds must be non-decreasing

EXAMPLE:
  th := Thresholds{Dec(70), Dec(105), Dec(135), Dec(165)}
  th.TierFor(Dec(140))           // 3
  Multipliers{Dec(1), Dec(1.2), Dec(1.5), Dec(2)}.At(3) // 1.5

SEE ALSO:
  - mobile/, fixed/: multiplier-based tracks
  - energy/, insurance/, protecta/: bonus-based tracks (Bonuses)
*/
package generic

import "github.com/shopspring/decimal"

// Tier is the 1-based threshold level reached; 0 means none.
type Tier int

// =============================================================================
// THRESHOLDS
// =============================================================================

// Thresholds is an ordered list of metric levels, one per tier.
type Thresholds []decimal.Decimal

// ThresholdsOf builds thresholds from floats.
func ThresholdsOf(values ...float64) Thresholds {
	th := make(Thresholds, len(values))
	for i, v := range values {
		th[i] = Dec(v)
	}
	return th
}

// TierFor returns the highest tier whose threshold is <= metric.
func (t Thresholds) TierFor(metric decimal.Decimal) Tier {
	tier := Tier(0)
	for i, level := range t {
		if !level.IsPositive() {
			break
		}
		if metric.LessThan(level) {
			break
		}
		tier = Tier(i + 1)
	}
	return tier
}

// Configured returns how many leading thresholds are set.
func (t Thresholds) Configured() int {
	n := 0
	for _, level := range t {
		if !level.IsPositive() {
			break
		}
		n++
	}
	return n
}

// At returns the threshold for a 1-based tier, or zero if out of range.
func (t Thresholds) At(tier Tier) decimal.Decimal {
	if tier < 1 || int(tier) > len(t) {
		return decimal.Zero
	}
	return t[tier-1]
}

// Next returns the threshold of the tier after the given one and whether it
// exists. Used to report the gap to the next level.
func (t Thresholds) Next(tier Tier) (decimal.Decimal, bool) {
	if int(tier) >= t.Configured() {
		return decimal.Zero, false
	}
	return t[tier], true
}

// Add sums two threshold lists position by position. The result is as long
// as the longer input.
func (t Thresholds) Add(o Thresholds) Thresholds {
	n := len(t)
	if len(o) > n {
		n = len(o)
	}
	out := make(Thresholds, n)
	for i := range out {
		out[i] = decimal.Zero
		if i < len(t) {
			out[i] = out[i].Add(t[i])
		}
		if i < len(o) {
			out[i] = out[i].Add(o[i])
		}
	}
	return out
}

// Validate rejects configured thresholds that decrease.
func (t Thresholds) Validate() error {
	for i := 1; i < t.Configured(); i++ {
		if t[i].LessThan(t[i-1]) {
			return &ThresholdOrderError{Index: i, Previous: t[i-1], Value: t[i]}
		}
	}
	return nil
}

// =============================================================================
// MULTIPLIERS
// =============================================================================

// Multipliers maps tiers 1..N to a payout multiplier. Tier 0 pays nothing.
type Multipliers []decimal.Decimal

func MultipliersOf(values ...float64) Multipliers {
	m := make(Multipliers, len(values))
	for i, v := range values {
		m[i] = Dec(v)
	}
	return m
}

func (m Multipliers) At(tier Tier) decimal.Decimal {
	if tier < 1 || int(tier) > len(m) {
		return decimal.Zero
	}
	return m[tier-1]
}

// TierTable is indexed directly by tier, including tier 0.
type TierTable []decimal.Decimal

func TierTableOf(values ...float64) TierTable {
	tt := make(TierTable, len(values))
	for i, v := range values {
		tt[i] = Dec(v)
	}
	return tt
}

// At returns the value for a tier, clamping above the table to its last
// entry.
func (tt TierTable) At(tier Tier) decimal.Decimal {
	if len(tt) == 0 || tier < 0 {
		return decimal.Zero
	}
	if int(tier) >= len(tt) {
		return tt[len(tt)-1]
	}
	return tt[tier]
}

// =============================================================================
// BONUS LADDER - thresholds paying a fixed euro amount
// =============================================================================

// BonusStep is one threshold with its fixed bonus.
type BonusStep struct {
	Threshold decimal.Decimal `json:"threshold"`
	Bonus     decimal.Decimal `json:"bonus"`
}

// Bonuses is an ordered ladder. Only the highest reached step pays; steps
// are not cumulative.
type Bonuses []BonusStep

func (b Bonuses) Thresholds() Thresholds {
	th := make(Thresholds, len(b))
	for i, s := range b {
		th[i] = s.Threshold
	}
	return th
}

// Reached returns the tier reached and its bonus.
func (b Bonuses) Reached(metric decimal.Decimal) (Tier, decimal.Decimal) {
	tier := b.Thresholds().TierFor(metric)
	if tier == 0 {
		return 0, decimal.Zero
	}
	return tier, b[tier-1].Bonus
}

func (b Bonuses) Validate() error {
	return b.Thresholds().Validate()
}
