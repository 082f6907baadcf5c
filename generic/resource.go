/*
resource.go - Track (pista) registration and lookup

PURPOSE:
  Provides a registry for track packages to describe themselves. The
  configuration-merge boundary uses it to reject overrides that name a
  track or category that does not exist, without importing every track.

HOW IT WORKS:
  1. Track packages define a TrackInfo with their ID and closed category set
  2. Track packages register it from init()
  3. factory/ looks tracks up by ID while validating org overrides

USAGE:
  // In mobile/categories.go
  func init() {
      generic.RegisterTrack(generic.TrackInfo{ID: generic.TrackMobile, ...})
  }

  // In factory
  info, ok := generic.LookupTrack("mobile")

SEE ALSO:
  - factory/overrides.go: Validates overrides against the registry
*/
package generic

import (
	"sort"
	"sync"
)

// =============================================================================
// TRACK IDS
// =============================================================================

// TrackID identifies one of the seven reward tracks.
type TrackID string

const (
	TrackMobile      TrackID = "mobile"
	TrackFixed       TrackID = "fixed"
	TrackPartnership TrackID = "partnership"
	TrackEnergy      TrackID = "energy"
	TrackInsurance   TrackID = "insurance"
	TrackProtecta    TrackID = "protecta"
	TrackExtraVAT    TrackID = "extra_vat"
)

// AllTracks lists tracks in display order.
var AllTracks = []TrackID{
	TrackMobile, TrackFixed, TrackPartnership, TrackEnergy,
	TrackInsurance, TrackProtecta, TrackExtraVAT,
}

// TrackInfo describes a registered track.
type TrackInfo struct {
	ID         TrackID
	Name       string     // display name, e.g. "Pista Mobile"
	Kind       EntityKind // default pricing granularity
	Categories []string   // closed category enumeration; empty for open catalogs
}

// HasCategory reports whether the track defines a category. Tracks with an
// open catalog accept any category.
func (t TrackInfo) HasCategory(category string) bool {
	if len(t.Categories) == 0 {
		return true
	}
	for _, c := range t.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// =============================================================================
// TRACK REGISTRY
// =============================================================================

var (
	trackRegistry = make(map[TrackID]TrackInfo)
	registryMu    sync.RWMutex
)

// RegisterTrack adds a track to the global registry.
// Call this from track package init() functions.
func RegisterTrack(t TrackInfo) {
	registryMu.Lock()
	defer registryMu.Unlock()
	trackRegistry[t.ID] = t
}

// LookupTrack finds a registered track by ID.
func LookupTrack(id TrackID) (TrackInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := trackRegistry[id]
	return t, ok
}

// ListTracks returns all registered tracks sorted by ID.
func ListTracks() []TrackInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]TrackInfo, 0, len(trackRegistry))
	for _, t := range trackRegistry {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
