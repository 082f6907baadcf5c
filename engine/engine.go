/*
Package engine runs every track for one competition month.

PURPOSE:
  Takes a typed snapshot (stores, month, reference date, gara modes,
  per-track configuration and activation lines) and produces every track
  result plus the company and grand-total roll-up. The engine is a pure
  function of its Input and RateTables; it never mutates either.

FLOW:
  1. Group stores by company, compute each store's working days
  2. Mobile, Fixed-line, Partnership: per store (pdv) or per company (rs)
  3. Energy: per store, then the company contract bonus
  4. Insurance, Protecta: per store
  5. Extra-VAT: per company, fed by the other tracks' raw lines
  6. Roll-up

DEFAULTS:
  A store or company without thresholds falls back to the defaults of its
  position type and cluster (thresholds/). Missing multipliers and bonus
  ladders fall back to the rate tables. A missing Insurance TargetNoMalus
  falls back to the first step of the insurance ladder.

SEE ALSO:
  - quote/: Builds Input from a Preventivo document
  - rollup/: Company and grand totals
*/
package engine

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/energy"
	"github.com/warp/premi-engine/extravat"
	"github.com/warp/premi-engine/factory"
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/partnership"
	"github.com/warp/premi-engine/protecta"
	"github.com/warp/premi-engine/rollup"
	"github.com/warp/premi-engine/thresholds"
)

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Modes holds the gara mode of the tracks that can be priced per company.
type Modes struct {
	Mobile      generic.GaraMode `json:"mobile"`
	Fixed       generic.GaraMode `json:"fixed"`
	Partnership generic.GaraMode `json:"partnership"`
}

// Input is the snapshot of one run. Track configuration is keyed by store
// code, or by company name for tracks in rs mode and for Extra-VAT.
// Activation lines are always keyed by store code.
type Input struct {
	Stores []network.Store
	Year   int
	Month  time.Month
	// Today is the reference date for elapsed working days. The zero date
	// means nothing has elapsed yet.
	Today generic.Date
	Modes Modes

	Mobile      map[string]mobile.Config
	Fixed       map[string]fixed.Config
	Partnership map[string]partnership.Target
	Energy      map[string]energy.Config
	Insurance   map[string]insurance.Config
	Protecta    map[string]protecta.Config
	ExtraVAT    map[string]generic.Thresholds

	MobileLines       map[string]generic.Lines
	FixedLines        map[string]generic.Lines
	PartnershipEvents map[string][]partnership.Event
	EnergyLines       map[string]generic.Lines
	InsuranceLines    map[string][]insurance.Line
	ProtectaLines     map[string]generic.Lines
}

// Output carries every result of a run. Track results are keyed like their
// configuration; Energy and Extra-VAT are keyed by company name.
type Output struct {
	Year      int               `json:"year"`
	Month     time.Month        `json:"month"`
	Today     generic.Date      `json:"today"`
	Modes     Modes             `json:"modes"`
	Companies []network.Company `json:"-"`

	Workdays        map[string]calendar.WorkdayInfo `json:"workdays"`
	CompanyWorkdays map[string]calendar.WorkdayInfo `json:"companyWorkdays"`

	Mobile      map[string]mobile.Result        `json:"mobile"`
	Fixed       map[string]fixed.Result         `json:"fixed"`
	Partnership map[string]partnership.Result   `json:"partnership"`
	Energy      map[string]energy.CompanyResult `json:"energy"`
	Insurance   map[string]insurance.Result     `json:"insurance"`
	Protecta    map[string]protecta.Result      `json:"protecta"`
	ExtraVAT    map[string]extravat.Result      `json:"extraVat"`

	Summary rollup.Summary `json:"summary"`
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine holds the resolved rate tables of one organization.
type Engine struct {
	Tables factory.RateTables
	Logger *logrus.Logger
}

// New creates an engine. A nil logger discards output.
func New(tables factory.RateTables, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Engine{Tables: tables, Logger: logger}
}

// run carries the per-run lookups shared by the track steps.
type run struct {
	in       Input
	out      *Output
	storeTot map[generic.TrackID]map[string]generic.Payout
	compTot  map[generic.TrackID]map[string]generic.Payout
	log      *logrus.Entry
}

// Run computes every track for the input snapshot.
func (e *Engine) Run(in Input) *Output {
	r := &run{
		in: in,
		out: &Output{
			Year:            in.Year,
			Month:           in.Month,
			Today:           in.Today,
			Modes:           in.Modes,
			Companies:       network.GroupByCompany(in.Stores),
			Workdays:        make(map[string]calendar.WorkdayInfo, len(in.Stores)),
			CompanyWorkdays: make(map[string]calendar.WorkdayInfo),
			Mobile:          make(map[string]mobile.Result),
			Fixed:           make(map[string]fixed.Result),
			Partnership:     make(map[string]partnership.Result),
			Energy:          make(map[string]energy.CompanyResult),
			Insurance:       make(map[string]insurance.Result),
			Protecta:        make(map[string]protecta.Result),
			ExtraVAT:        make(map[string]extravat.Result),
		},
		storeTot: make(map[generic.TrackID]map[string]generic.Payout),
		compTot:  make(map[generic.TrackID]map[string]generic.Payout),
		log:      e.Logger.WithFields(logrus.Fields{"module": "engine", "funcName": "Run"}),
	}

	for _, s := range in.Stores {
		r.out.Workdays[s.Code] = calendar.WorkdaysFromOverrides(in.Year, in.Month, s.Calendar, in.Today)
	}
	for _, c := range r.out.Companies {
		r.out.CompanyWorkdays[c.Name] = rollup.CompanyWorkdays(c, r.out.Workdays)
	}

	for _, c := range r.out.Companies {
		e.runMobile(r, c)
		e.runFixed(r, c)
		e.runPartnership(r, c)
		e.runEnergy(r, c)
		e.runStoreTracks(r, c)
		e.runExtraVAT(r, c)
	}

	r.out.Summary = rollup.Summarize(rollup.Input{
		Companies:     r.out.Companies,
		StoreTotals:   r.storeTot,
		CompanyTotals: r.compTot,
	})

	r.log.WithFields(logrus.Fields{
		"stores":     len(in.Stores),
		"companies":  len(r.out.Companies),
		"period":     generic.MonthPeriod(in.Year, in.Month).String(),
		"grandTotal": r.out.Summary.GrandTotal.Total.StringFixed(2),
	}).Info("premi computed")
	return r.out
}

func (r *run) record(track generic.TrackID, e generic.Entity, p generic.Payout, skipped []string) {
	totals := r.storeTot
	if e.IsCompany() {
		totals = r.compTot
	}
	if totals[track] == nil {
		totals[track] = make(map[string]generic.Payout)
	}
	totals[track][string(e.ID)] = p
	if len(skipped) > 0 {
		r.log.WithFields(logrus.Fields{
			"track":   track,
			"entity":  e.String(),
			"skipped": skipped,
		}).Debug("unknown categories skipped")
	}
}

// =============================================================================
// TRACKS
// =============================================================================

func (e *Engine) mobileConfig(r *run, key string, fallback generic.Thresholds) mobile.Config {
	cfg := r.in.Mobile[key]
	if cfg.Thresholds.Configured() == 0 {
		cfg.Thresholds = fallback
	}
	if len(cfg.Multipliers) == 0 {
		cfg.Multipliers = e.Tables.MobileMultipliers
	}
	return cfg
}

func (e *Engine) runMobile(r *run, c network.Company) {
	if r.in.Modes.Mobile.Kind() == generic.KindCompany {
		cfg := e.mobileConfig(r, c.Name, thresholds.CompanyMobile(c.Stores))
		ent := generic.CompanyEntity(c.Name)
		res := mobile.Calculate(ent, rollup.AggregateLines(c, r.in.MobileLines), cfg, e.Tables.Mobile, r.out.CompanyWorkdays[c.Name])
		r.out.Mobile[c.Name] = res
		r.record(generic.TrackMobile, ent, res.Payout, res.Skipped)
		return
	}
	for _, s := range c.Stores {
		def, _ := thresholds.MobileFor(s.PositionType, s.Clusters.Mobile)
		cfg := e.mobileConfig(r, s.Code, def)
		ent := generic.StoreEntity(s.Code)
		res := mobile.Calculate(ent, r.in.MobileLines[s.Code], cfg, e.Tables.Mobile, r.out.Workdays[s.Code])
		r.out.Mobile[s.Code] = res
		r.record(generic.TrackMobile, ent, res.Payout, res.Skipped)
	}
}

func (e *Engine) fixedConfig(r *run, key string, fallback generic.Thresholds) fixed.Config {
	cfg := r.in.Fixed[key]
	if cfg.Thresholds.Configured() == 0 {
		cfg.Thresholds = fallback
	}
	if len(cfg.Multipliers) == 0 {
		cfg.Multipliers = e.Tables.FixedMultipliers
	}
	return cfg
}

func (e *Engine) runFixed(r *run, c network.Company) {
	if r.in.Modes.Fixed.Kind() == generic.KindCompany {
		cfg := e.fixedConfig(r, c.Name, thresholds.CompanyFixed(c.Stores))
		ent := generic.CompanyEntity(c.Name)
		res := fixed.Calculate(ent, rollup.AggregateLines(c, r.in.FixedLines), cfg, e.Tables.Fixed, r.out.CompanyWorkdays[c.Name])
		r.out.Fixed[c.Name] = res
		r.record(generic.TrackFixed, ent, res.Payout, res.Skipped)
		return
	}
	for _, s := range c.Stores {
		def, _ := thresholds.FixedFor(s.PositionType, s.Clusters.Fixed)
		cfg := e.fixedConfig(r, s.Code, def)
		ent := generic.StoreEntity(s.Code)
		res := fixed.Calculate(ent, r.in.FixedLines[s.Code], cfg, e.Tables.Fixed, r.out.Workdays[s.Code])
		r.out.Fixed[s.Code] = res
		r.record(generic.TrackFixed, ent, res.Payout, res.Skipped)
	}
}

func (e *Engine) runPartnership(r *run, c network.Company) {
	target := func(key string, fallback partnership.Target) partnership.Target {
		if t, ok := r.in.Partnership[key]; ok && t.Target100.IsPositive() {
			return t
		}
		return fallback
	}
	if r.in.Modes.Partnership.Kind() == generic.KindCompany {
		ent := generic.CompanyEntity(c.Name)
		events := e.Tables.Partnership.Resolve(rollup.AggregateEvents(c, r.in.PartnershipEvents))
		res := partnership.Calculate(ent, events, target(c.Name, thresholds.CompanyCB(c.Stores)), r.out.CompanyWorkdays[c.Name])
		r.out.Partnership[c.Name] = res
		r.record(generic.TrackPartnership, ent, res.Payout, nil)
		return
	}
	for _, s := range c.Stores {
		def, _ := thresholds.CBFor(s.Clusters.CB)
		ent := generic.StoreEntity(s.Code)
		events := e.Tables.Partnership.Resolve(r.in.PartnershipEvents[s.Code])
		res := partnership.Calculate(ent, events, target(s.Code, def), r.out.Workdays[s.Code])
		r.out.Partnership[s.Code] = res
		r.record(generic.TrackPartnership, ent, res.Payout, nil)
	}
}

func (e *Engine) runEnergy(r *run, c network.Company) {
	inputs := make([]energy.StoreInput, len(c.Stores))
	for i, s := range c.Stores {
		cfg := r.in.Energy[s.Code]
		if len(cfg.Bonuses) == 0 {
			cfg.Bonuses = e.Tables.EnergyBonuses
		}
		inputs[i] = energy.StoreInput{Store: s, Lines: r.in.EnergyLines[s.Code], Config: cfg, Workdays: r.out.Workdays[s.Code]}
	}
	res := energy.CalculateCompany(c.Name, inputs, e.Tables.EnergyProgram, e.Tables.Energy)
	r.out.Energy[c.Name] = res
	for _, sr := range res.Stores {
		r.record(generic.TrackEnergy, sr.Entity, sr.Payout, sr.Skipped)
	}
}

func (e *Engine) runStoreTracks(r *run, c network.Company) {
	for _, s := range c.Stores {
		ent := generic.StoreEntity(s.Code)
		wd := r.out.Workdays[s.Code]

		icfg := r.in.Insurance[s.Code]
		if len(icfg.Bonuses) == 0 {
			icfg.Bonuses = e.Tables.InsuranceBonuses
		}
		if !icfg.TargetNoMalus.IsPositive() && len(icfg.Bonuses) > 0 {
			icfg.TargetNoMalus = icfg.Bonuses[0].Threshold
		}
		ires := insurance.Calculate(ent, r.in.InsuranceLines[s.Code], s.InGara, icfg, e.Tables.Insurance, wd)
		r.out.Insurance[s.Code] = ires
		r.record(generic.TrackInsurance, ent, ires.Payout, ires.Skipped)

		pcfg := r.in.Protecta[s.Code]
		if len(pcfg.Bonuses) == 0 {
			pcfg.Bonuses = e.Tables.ProtectaBonuses
		}
		pres := protecta.Calculate(ent, r.in.ProtectaLines[s.Code], s.InGara, pcfg, e.Tables.Protecta, wd)
		r.out.Protecta[s.Code] = pres
		r.record(generic.TrackProtecta, ent, pres.Payout, pres.Skipped)
	}
}

func (e *Engine) runExtraVAT(r *run, c network.Company) {
	sources := make(map[string]extravat.Sources, len(c.Stores))
	for _, s := range c.Stores {
		sources[s.Code] = extravat.Sources{
			generic.TrackMobile:    r.in.MobileLines[s.Code],
			generic.TrackFixed:     r.in.FixedLines[s.Code],
			generic.TrackEnergy:    r.in.EnergyLines[s.Code],
			generic.TrackInsurance: InsuranceLines(r.in.InsuranceLines[s.Code]),
			generic.TrackProtecta:  r.in.ProtectaLines[s.Code],
		}
	}
	res := extravat.Calculate(c, sources, r.in.ExtraVAT[c.Name], e.Tables.ExtraVAT)
	r.out.ExtraVAT[c.Name] = res
	r.record(generic.TrackExtraVAT, res.Entity, res.Payout, nil)
}

// InsuranceLines drops the declared premium of insurance lines.
func InsuranceLines(lines []insurance.Line) generic.Lines {
	out := make(generic.Lines, len(lines))
	for i, l := range lines {
		out[i] = generic.Line{Category: l.Category, Pieces: l.Pieces}
	}
	return out
}
