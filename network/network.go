/*
Package network holds the sales-network master data: stores (PDV) and the
companies (Ragione Sociale) that own them.

PURPOSE:
  Every calculator needs to know who a store is: its position type selects
  default thresholds, its clusters select rate tables, its company decides
  which stores are evaluated together. This package is that vocabulary and
  nothing else. It has no arithmetic.

CLUSTERS:
  Each store carries four independent cluster assignments, one per track
  family. Codes are drawn from closed enumerations; the empty string means
  "not yet configured" and is always valid.

    Mobile: M1..M5          Fixed: F1..F4
    CB:     CB1..CB3        P.IVA: business_promoter_plus, business_promoter,
                                   senior, junior

COMPANIES:
  A company is derived, never stored: the set of stores sharing a
  RagioneSociale value. See GroupByCompany.

SEE ALSO:
  - calendar/: StoreCalendar
  - thresholds/: Default thresholds keyed by position type and cluster
  - extravat/: Uses P.IVA rate classes and Business-Promoter membership
*/
package network

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/warp/premi-engine/calendar"
)

// =============================================================================
// POSITION TYPE
// =============================================================================

type PositionType string

const (
	PositionMall   PositionType = "mall"
	PositionStreet PositionType = "street"
	PositionOther  PositionType = "other"
)

func (p PositionType) Valid() bool {
	switch p {
	case PositionMall, PositionStreet, PositionOther:
		return true
	}
	return false
}

// =============================================================================
// CLUSTERS
// =============================================================================

type MobileCluster string

const (
	MobileM1 MobileCluster = "M1"
	MobileM2 MobileCluster = "M2"
	MobileM3 MobileCluster = "M3"
	MobileM4 MobileCluster = "M4"
	MobileM5 MobileCluster = "M5"
)

var MobileClusters = []MobileCluster{MobileM1, MobileM2, MobileM3, MobileM4, MobileM5}

type FixedCluster string

const (
	FixedF1 FixedCluster = "F1"
	FixedF2 FixedCluster = "F2"
	FixedF3 FixedCluster = "F3"
	FixedF4 FixedCluster = "F4"
)

var FixedClusters = []FixedCluster{FixedF1, FixedF2, FixedF3, FixedF4}

type CBCluster string

const (
	CB1 CBCluster = "CB1"
	CB2 CBCluster = "CB2"
	CB3 CBCluster = "CB3"
)

var CBClusters = []CBCluster{CB1, CB2, CB3}

type PIvaCluster string

const (
	PIvaBusinessPromoterPlus PIvaCluster = "business_promoter_plus"
	PIvaBusinessPromoter     PIvaCluster = "business_promoter"
	PIvaSenior               PIvaCluster = "senior"
	PIvaJunior               PIvaCluster = "junior"
)

var PIvaClusters = []PIvaCluster{PIvaBusinessPromoterPlus, PIvaBusinessPromoter, PIvaSenior, PIvaJunior}

// PIvaClass is the rate class used by the Extra-VAT per-piece table.
type PIvaClass string

const (
	ClassPlus     PIvaClass = "plus"
	ClassStandard PIvaClass = "standard"
	ClassNone     PIvaClass = "none"
)

// Class maps a P.IVA cluster to its rate class.
func (c PIvaCluster) Class() PIvaClass {
	switch c {
	case PIvaBusinessPromoterPlus:
		return ClassPlus
	case PIvaBusinessPromoter, PIvaSenior:
		return ClassStandard
	default:
		return ClassNone
	}
}

// IsBusinessPromoter reports Business-Promoter class membership, which
// unlocks the fourth Extra-VAT threshold for the whole company.
func (c PIvaCluster) IsBusinessPromoter() bool {
	return c == PIvaBusinessPromoterPlus || c == PIvaBusinessPromoter
}

// Clusters groups the four independent cluster assignments of a store.
type Clusters struct {
	Mobile MobileCluster `json:"mobile,omitempty"`
	Fixed  FixedCluster  `json:"fixed,omitempty"`
	CB     CBCluster     `json:"cb,omitempty"`
	PIva   PIvaCluster   `json:"piva,omitempty"`
}

// =============================================================================
// STORE (PDV)
// =============================================================================

type Store struct {
	Code           string                 `json:"code"`
	Name           string                 `json:"name"`
	RagioneSociale string                 `json:"ragioneSociale"`
	PositionType   PositionType           `json:"positionType"`
	Channel        string                 `json:"channel,omitempty"`
	Clusters       Clusters               `json:"clusters"`
	Calendar       calendar.StoreCalendar `json:"calendar"`

	// InGara marks stores competing for Energy, Insurance and Protecta
	// threshold bonuses. Stores outside the competition still earn base
	// payouts and still count toward company aggregates.
	InGara bool `json:"isInGara"`
}

// CompanyName returns the company a store belongs to. A store without a
// RagioneSociale is its own company, named after its code.
func (s Store) CompanyName() string {
	if name := strings.TrimSpace(s.RagioneSociale); name != "" {
		return name
	}
	return s.Code
}

// ValidateStore checks cluster and position enumerations. Empty clusters
// are valid ("not yet configured").
func ValidateStore(s Store) error {
	if strings.TrimSpace(s.Code) == "" {
		return fmt.Errorf("store code is required")
	}
	if s.PositionType != "" && !s.PositionType.Valid() {
		return fmt.Errorf("store %s: unknown position type %q", s.Code, s.PositionType)
	}
	if s.Clusters.Mobile != "" && !containsCluster(MobileClusters, s.Clusters.Mobile) {
		return fmt.Errorf("store %s: unknown mobile cluster %q", s.Code, s.Clusters.Mobile)
	}
	if s.Clusters.Fixed != "" && !containsCluster(FixedClusters, s.Clusters.Fixed) {
		return fmt.Errorf("store %s: unknown fixed cluster %q", s.Code, s.Clusters.Fixed)
	}
	if s.Clusters.CB != "" && !containsCluster(CBClusters, s.Clusters.CB) {
		return fmt.Errorf("store %s: unknown CB cluster %q", s.Code, s.Clusters.CB)
	}
	if s.Clusters.PIva != "" && !containsCluster(PIvaClusters, s.Clusters.PIva) {
		return fmt.Errorf("store %s: unknown P.IVA cluster %q", s.Code, s.Clusters.PIva)
	}
	return nil
}

func containsCluster[T comparable](set []T, v T) bool {
	for _, c := range set {
		if c == v {
			return true
		}
	}
	return false
}

// =============================================================================
// COMPANY (RAGIONE SOCIALE)
// =============================================================================

// Company is the derived set of stores sharing a RagioneSociale.
type Company struct {
	Name   string
	Stores []Store
}

func (c Company) StoreCount() int    { return len(c.Stores) }
func (c Company) IsMultiStore() bool { return len(c.Stores) > 1 }

// HasBusinessPromoter reports whether any store carries a Business-Promoter
// class P.IVA cluster.
func (c Company) HasBusinessPromoter() bool {
	for _, s := range c.Stores {
		if s.Clusters.PIva.IsBusinessPromoter() {
			return true
		}
	}
	return false
}

func (c Company) StoreCodes() []string {
	codes := make([]string, len(c.Stores))
	for i, s := range c.Stores {
		codes[i] = s.Code
	}
	return codes
}

// GroupByCompany groups stores by company. Companies are sorted by name;
// stores keep their input order.
func GroupByCompany(stores []Store) []Company {
	index := make(map[string]int)
	var companies []Company
	for _, s := range stores {
		name := s.CompanyName()
		i, ok := index[name]
		if !ok {
			i = len(companies)
			index[name] = i
			companies = append(companies, Company{Name: name})
		}
		companies[i].Stores = append(companies[i].Stores, s)
	}
	sort.SliceStable(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })
	return companies
}

// CompanyOf returns the company containing the given store code.
func CompanyOf(companies []Company, storeCode string) (Company, bool) {
	for _, c := range companies {
		for _, s := range c.Stores {
			if s.Code == storeCode {
				return c, true
			}
		}
	}
	return Company{}, false
}

// DefaultCalendar returns the weekly schedule the intake wizard proposes for
// a position type: malls include Sunday, street and other stores don't.
func DefaultCalendar(p PositionType) calendar.StoreCalendar {
	schedule := calendar.ScheduleMonSat
	if p == PositionMall {
		schedule = calendar.ScheduleMonSun
	}
	return calendar.StoreCalendar{WeeklySchedule: append([]time.Weekday(nil), schedule...)}
}
