/*
Package quote reads and writes the Preventivo document.

PURPOSE:
  A quote (preventivo) is stored as one JSON document: store master data,
  the competition month, per-track configuration, per-track activations
  keyed by store code and, once computed, the results. This package is
  the bridge between that document and the engine's typed Input/Output.

DOCUMENT SHAPE:
  {
    "puntiVendita": [{"codice": "PDV001", "ragioneSociale": "Alfa Srl", ...}],
    "anno": 2025, "mese": 3,            // mese is 0-based (3 = April)
    "dataRiferimento": "2025-04-15",
    "modalitaGara": {"pistaMobile": "pdv", "pistaFisso": "rs", "partnership": "pdv"},
    "pistaMobile": {
      "config": {"PDV001": {"soglie": [70, 105, 135, 165], "canoneMedio": 10}},
      "attivazioni": {"PDV001": [{"categoria": "tied", "pezzi": 180}]}
    },
    ...
    "risultati": {"premio": 4210.5, "totali": [...], "dettaglio": {...}}
  }

TOLERANCE:
  The schema has grown additively. Absent numbers read as 0, numeric
  strings are accepted, and the legacy premioPrevistoFineMese is read when
  premio is missing.

SEE ALSO:
  - engine/: Input and Output
  - export/: reads risultati
*/
package quote

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/engine"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/network"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// Document is the Preventivo.data payload.
type Document struct {
	PuntiVendita    []StoreDoc `json:"puntiVendita"`
	Anno            Num        `json:"anno"`
	Mese            Num        `json:"mese"`
	DataRiferimento string     `json:"dataRiferimento,omitempty"`
	ModalitaGara    ModesDoc   `json:"modalitaGara"`

	PistaMobile   TrackDoc[MobileConfigDoc]      `json:"pistaMobile"`
	PistaFisso    TrackDoc[FixedConfigDoc]       `json:"pistaFisso"`
	Partnership   TrackDoc[PartnershipConfigDoc] `json:"partnership"`
	Energia       TrackDoc[LadderConfigDoc]      `json:"energia"`
	Assicurazioni TrackDoc[InsuranceConfigDoc]   `json:"assicurazioni"`
	Protecta      TrackDoc[LadderConfigDoc]      `json:"protecta"`
	ExtraGaraIva  TrackDoc[ExtraVATConfigDoc]    `json:"extraGaraIva"`

	Risultati *Results `json:"risultati,omitempty"`
}

type StoreDoc struct {
	Codice         string       `json:"codice"`
	Nome           string       `json:"nome"`
	RagioneSociale string       `json:"ragioneSociale"`
	TipoPosizione  string       `json:"tipoPosizione"`
	Canale         string       `json:"canale,omitempty"`
	ClusterMobile  string       `json:"clusterMobile,omitempty"`
	ClusterFisso   string       `json:"clusterFisso,omitempty"`
	ClusterCB      string       `json:"clusterCB,omitempty"`
	ClusterPIva    string       `json:"clusterPIva,omitempty"`
	IsInGara       bool         `json:"isInGara"`
	Calendario     *CalendarDoc `json:"calendario,omitempty"`
}

type CalendarDoc struct {
	GiorniSettimana []int           `json:"giorniSettimana"`
	GiorniSpeciali  []SpecialDayDoc `json:"giorniSpeciali,omitempty"`
	StatiGiorno     []DayStatusDoc  `json:"statiGiorno,omitempty"`
}

type SpecialDayDoc struct {
	Data   string `json:"data"`
	Aperto bool   `json:"aperto"`
}

type DayStatusDoc struct {
	Data  string `json:"data"`
	Stato string `json:"stato"`
}

type ModesDoc struct {
	PistaMobile string `json:"pistaMobile,omitempty"`
	PistaFisso  string `json:"pistaFisso,omitempty"`
	Partnership string `json:"partnership,omitempty"`
}

// TrackDoc is the config and activation block of one track.
type TrackDoc[C any] struct {
	Config      map[string]C         `json:"config,omitempty"`
	Attivazioni map[string][]LineDoc `json:"attivazioni,omitempty"`
}

// LineDoc is one activation row. Track-specific fields are ignored by the
// other tracks.
type LineDoc struct {
	Categoria        string `json:"categoria"`
	Pezzi            Num    `json:"pezzi"`
	PremioDichiarato Num    `json:"premioDichiarato,omitempty"`
	GettonePerPezzo  Num    `json:"gettonePerPezzo,omitempty"`
	PuntiPerPezzo    Num    `json:"puntiPerPezzo,omitempty"`
}

type MobileConfigDoc struct {
	Soglie             []Num `json:"soglie"`
	Moltiplicatori     []Num `json:"moltiplicatori,omitempty"`
	CanoneMedio        Num   `json:"canoneMedio"`
	TargetPrevisionale Num   `json:"targetPrevisionale,omitempty"`
}

type FixedConfigDoc struct {
	Soglie             []Num `json:"soglie"`
	Moltiplicatori     []Num `json:"moltiplicatori,omitempty"`
	TargetPrevisionale Num   `json:"targetPrevisionale,omitempty"`
}

type PartnershipConfigDoc struct {
	Target100 Num `json:"target100"`
	Premio100 Num `json:"premio100"`
}

type BonusDoc struct {
	Soglia Num `json:"soglia"`
	Premio Num `json:"premio"`
}

type LadderConfigDoc struct {
	Soglie []BonusDoc `json:"soglie,omitempty"`
}

type InsuranceConfigDoc struct {
	TargetNoMalus Num        `json:"targetNoMalus"`
	Soglie        []BonusDoc `json:"soglie,omitempty"`
}

type ExtraVATConfigDoc struct {
	Soglie []Num `json:"soglie"`
}

// =============================================================================
// RESULTS
// =============================================================================

// Results is the computed part of the document.
type Results struct {
	CalcolatoIl string         `json:"calcolatoIl"`
	Premio      Num            `json:"premio"`
	PerPista    map[string]Num `json:"perPista"`
	Totali      []CompanyTotal `json:"totali"`
	Dettaglio   *engine.Output `json:"dettaglio,omitempty"`
}

// CompanyTotal is the per-company line of the results.
type CompanyTotal struct {
	RagioneSociale string         `json:"ragioneSociale"`
	PuntiVendita   []string       `json:"puntiVendita"`
	PerPista       map[string]Num `json:"perPista"`
	Premio         Num            `json:"premio"`
}

// legacyPremio picks premio, or premioPrevistoFineMese when premio is
// absent.
func legacyPremio(premio, legacy *Num) Num {
	switch {
	case premio != nil:
		return *premio
	case legacy != nil:
		return *legacy
	default:
		return 0
	}
}

func (r *Results) UnmarshalJSON(b []byte) error {
	type plain Results
	var aux struct {
		plain
		Premio *Num `json:"premio"`
		Legacy *Num `json:"premioPrevistoFineMese"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = Results(aux.plain)
	r.Premio = legacyPremio(aux.Premio, aux.Legacy)
	return nil
}

func (t *CompanyTotal) UnmarshalJSON(b []byte) error {
	type plain CompanyTotal
	var aux struct {
		plain
		Premio *Num `json:"premio"`
		Legacy *Num `json:"premioPrevistoFineMese"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*t = CompanyTotal(aux.plain)
	t.Premio = legacyPremio(aux.Premio, aux.Legacy)
	return nil
}

// =============================================================================
// DECODE / ENCODE
// =============================================================================

// Decode reads a document. Only malformed JSON is an error.
func Decode(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrInvalidDocument, err)
	}
	return &d, nil
}

func (d *Document) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Month returns the competition month. mese is 0-based.
func (d *Document) Month() time.Month {
	return time.Month(d.Mese.Int() + 1)
}

func (d *Document) Year() int {
	return d.Anno.Int()
}

// Validate checks the parts the engine cannot default.
func (d *Document) Validate() error {
	if !d.Anno.IsWhole() || !d.Mese.IsWhole() || d.Mese < 0 {
		return fmt.Errorf("%w: anno %v mese %v", generic.ErrInvalidDocument, float64(d.Anno), float64(d.Mese))
	}
	if err := generic.ValidMonth(d.Year(), d.Month()); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrInvalidDocument, err)
	}
	seen := make(map[string]bool, len(d.PuntiVendita))
	for _, s := range d.PuntiVendita {
		st := s.Store()
		if seen[st.Code] {
			return fmt.Errorf("%w: duplicate store %s", generic.ErrInvalidDocument, st.Code)
		}
		seen[st.Code] = true
		if err := network.ValidateStore(st); err != nil {
			return fmt.Errorf("%w: %v", generic.ErrInvalidDocument, err)
		}
	}
	if err := d.validateThresholds(); err != nil {
		return err
	}
	for _, m := range []string{d.ModalitaGara.PistaMobile, d.ModalitaGara.PistaFisso, d.ModalitaGara.Partnership} {
		switch generic.GaraMode(m) {
		case "", generic.ModePerStore, generic.ModePerCompany:
		default:
			return fmt.Errorf("%w: unknown gara mode %q", generic.ErrInvalidDocument, m)
		}
	}
	return nil
}

// validateThresholds rejects decreasing soglie in any track configuration.
func (d *Document) validateThresholds() error {
	check := func(track, key string, th generic.Thresholds) error {
		if err := th.Validate(); err != nil {
			return fmt.Errorf("%w: %s.config.%s.soglie: %v", generic.ErrInvalidDocument, track, key, err)
		}
		return nil
	}
	for _, key := range sortedKeys(d.PistaMobile.Config) {
		if err := check("pistaMobile", key, numsToDecimals(d.PistaMobile.Config[key].Soglie)); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(d.PistaFisso.Config) {
		if err := check("pistaFisso", key, numsToDecimals(d.PistaFisso.Config[key].Soglie)); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(d.ExtraGaraIva.Config) {
		if err := check("extraGaraIva", key, numsToDecimals(d.ExtraGaraIva.Config[key].Soglie)); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(d.Energia.Config) {
		if err := check("energia", key, bonuses(d.Energia.Config[key].Soglie).Thresholds()); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(d.Assicurazioni.Config) {
		if err := check("assicurazioni", key, bonuses(d.Assicurazioni.Config[key].Soglie).Thresholds()); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(d.Protecta.Config) {
		if err := check("protecta", key, bonuses(d.Protecta.Config[key].Soglie).Thresholds()); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReferenceDate returns dataRiferimento, or fallback when it is unset.
func (d *Document) ReferenceDate(fallback generic.Date) (generic.Date, error) {
	if strings.TrimSpace(d.DataRiferimento) == "" {
		return fallback, nil
	}
	day, err := generic.ParseDate(d.DataRiferimento)
	if err != nil {
		return generic.Date{}, fmt.Errorf("%w: dataRiferimento: %v", generic.ErrInvalidDocument, err)
	}
	return day, nil
}

// =============================================================================
// STORES
// =============================================================================

// Store converts the document store to master data. A store without a
// calendar gets the default schedule of its position type.
func (s StoreDoc) Store() network.Store {
	st := network.Store{
		Code:           strings.TrimSpace(s.Codice),
		Name:           s.Nome,
		RagioneSociale: s.RagioneSociale,
		PositionType:   network.PositionType(s.TipoPosizione),
		Channel:        s.Canale,
		Clusters: network.Clusters{
			Mobile: network.MobileCluster(s.ClusterMobile),
			Fixed:  network.FixedCluster(s.ClusterFisso),
			CB:     network.CBCluster(s.ClusterCB),
			PIva:   network.PIvaCluster(s.ClusterPIva),
		},
		InGara: s.IsInGara,
	}
	if s.Calendario == nil {
		st.Calendar = network.DefaultCalendar(st.PositionType)
		return st
	}
	st.Calendar = s.Calendario.Calendar()
	return st
}

// Calendar converts the document calendar. Unreadable dates and statuses
// are dropped.
func (c CalendarDoc) Calendar() calendar.StoreCalendar {
	var cal calendar.StoreCalendar
	for _, d := range c.GiorniSettimana {
		if d >= 0 && d <= 6 {
			cal.WeeklySchedule = append(cal.WeeklySchedule, time.Weekday(d))
		}
	}
	for _, sd := range c.GiorniSpeciali {
		if day, err := generic.ParseDate(sd.Data); err == nil {
			cal.SpecialDays = append(cal.SpecialDays, calendar.SpecialDay{Date: day, Open: sd.Aperto})
		}
	}
	for _, st := range c.StatiGiorno {
		day, err := generic.ParseDate(st.Data)
		status := calendar.DayStatus(st.Stato)
		if err == nil && status.Valid() {
			cal.DayOverrides = append(cal.DayOverrides, calendar.DayOverride{Date: day, Status: status})
		}
	}
	return cal
}
