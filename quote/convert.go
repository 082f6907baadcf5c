package quote

import (
	"time"

	"github.com/warp/premi-engine/energy"
	"github.com/warp/premi-engine/engine"
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/partnership"
	"github.com/warp/premi-engine/protecta"
)

// =============================================================================
// DOCUMENT → ENGINE INPUT
// =============================================================================

// Input validates the document and converts it to an engine snapshot.
// today is used when the document has no dataRiferimento.
func (d *Document) Input(today generic.Date) (engine.Input, error) {
	if err := d.Validate(); err != nil {
		return engine.Input{}, err
	}
	ref, err := d.ReferenceDate(today)
	if err != nil {
		return engine.Input{}, err
	}

	in := engine.Input{
		Stores: d.Stores(),
		Year:   d.Year(),
		Month:  d.Month(),
		Today:  ref,
		Modes: engine.Modes{
			Mobile:      generic.GaraMode(d.ModalitaGara.PistaMobile),
			Fixed:       generic.GaraMode(d.ModalitaGara.PistaFisso),
			Partnership: generic.GaraMode(d.ModalitaGara.Partnership),
		},
		Mobile:      make(map[string]mobile.Config, len(d.PistaMobile.Config)),
		Fixed:       make(map[string]fixed.Config, len(d.PistaFisso.Config)),
		Partnership: make(map[string]partnership.Target, len(d.Partnership.Config)),
		Energy:      make(map[string]energy.Config, len(d.Energia.Config)),
		Insurance:   make(map[string]insurance.Config, len(d.Assicurazioni.Config)),
		Protecta:    make(map[string]protecta.Config, len(d.Protecta.Config)),
		ExtraVAT:    make(map[string]generic.Thresholds, len(d.ExtraGaraIva.Config)),

		MobileLines:       lines(d.PistaMobile.Attivazioni),
		FixedLines:        lines(d.PistaFisso.Attivazioni),
		PartnershipEvents: events(d.Partnership.Attivazioni),
		EnergyLines:       lines(d.Energia.Attivazioni),
		InsuranceLines:    insuranceLines(d.Assicurazioni.Attivazioni),
		ProtectaLines:     lines(d.Protecta.Attivazioni),
	}

	for key, c := range d.PistaMobile.Config {
		in.Mobile[key] = mobile.Config{
			Thresholds:     numsToDecimals(c.Soglie),
			Multipliers:    numsToDecimals(c.Moltiplicatori),
			AverageFee:     c.CanoneMedio.Decimal(),
			ForecastTarget: c.TargetPrevisionale.Decimal(),
		}
	}
	for key, c := range d.PistaFisso.Config {
		in.Fixed[key] = fixed.Config{
			Thresholds:     numsToDecimals(c.Soglie),
			Multipliers:    numsToDecimals(c.Moltiplicatori),
			ForecastTarget: c.TargetPrevisionale.Decimal(),
		}
	}
	for key, c := range d.Partnership.Config {
		in.Partnership[key] = partnership.NewTarget(c.Target100.Decimal(), c.Premio100.Decimal())
	}
	for key, c := range d.Energia.Config {
		in.Energy[key] = energy.Config{Bonuses: bonuses(c.Soglie)}
	}
	for key, c := range d.Assicurazioni.Config {
		in.Insurance[key] = insurance.Config{TargetNoMalus: c.TargetNoMalus.Decimal(), Bonuses: bonuses(c.Soglie)}
	}
	for key, c := range d.Protecta.Config {
		in.Protecta[key] = protecta.Config{Bonuses: bonuses(c.Soglie)}
	}
	for key, c := range d.ExtraGaraIva.Config {
		in.ExtraVAT[key] = numsToDecimals(c.Soglie)
	}
	return in, nil
}

// Stores converts every store of the document.
func (d *Document) Stores() []network.Store {
	out := make([]network.Store, len(d.PuntiVendita))
	for i, s := range d.PuntiVendita {
		out[i] = s.Store()
	}
	return out
}

func lines(m map[string][]LineDoc) map[string]generic.Lines {
	out := make(map[string]generic.Lines, len(m))
	for code, ls := range m {
		gl := make(generic.Lines, 0, len(ls))
		for _, l := range ls {
			gl = append(gl, generic.Line{Category: l.Categoria, Pieces: l.Pezzi.Int()})
		}
		out[code] = gl
	}
	return out
}

func insuranceLines(m map[string][]LineDoc) map[string][]insurance.Line {
	out := make(map[string][]insurance.Line, len(m))
	for code, ls := range m {
		il := make([]insurance.Line, 0, len(ls))
		for _, l := range ls {
			il = append(il, insurance.Line{
				Category:        l.Categoria,
				Pieces:          l.Pezzi.Int(),
				DeclaredPremium: l.PremioDichiarato.Decimal(),
			})
		}
		out[code] = il
	}
	return out
}

func events(m map[string][]LineDoc) map[string][]partnership.Event {
	out := make(map[string][]partnership.Event, len(m))
	for code, ls := range m {
		ev := make([]partnership.Event, 0, len(ls))
		for _, l := range ls {
			ev = append(ev, partnership.Event{
				EventType:                 l.Categoria,
				Pieces:                    l.Pezzi.Int(),
				TokenPerPiece:             l.GettonePerPezzo.Decimal(),
				PartnershipPointsPerPiece: l.PuntiPerPezzo.Decimal(),
			})
		}
		out[code] = ev
	}
	return out
}

func bonuses(bs []BonusDoc) generic.Bonuses {
	if len(bs) == 0 {
		return nil
	}
	out := make(generic.Bonuses, len(bs))
	for i, b := range bs {
		out[i] = generic.BonusStep{Threshold: b.Soglia.Decimal(), Bonus: b.Premio.Decimal()}
	}
	return out
}

// =============================================================================
// ENGINE OUTPUT → DOCUMENT
// =============================================================================

// Attach stores an engine output in the document's results.
func (d *Document) Attach(out *engine.Output, at time.Time) {
	res := &Results{
		CalcolatoIl: at.UTC().Format(time.RFC3339),
		Premio:      NumOf(out.Summary.GrandTotal.Total),
		PerPista:    make(map[string]Num, len(out.Summary.Tracks)),
		Dettaglio:   out,
	}
	for track, p := range out.Summary.Tracks {
		res.PerPista[string(track)] = NumOf(p.Total)
	}
	for _, cs := range out.Summary.Companies {
		ct := CompanyTotal{
			RagioneSociale: cs.Company,
			PuntiVendita:   cs.StoreCodes,
			PerPista:       make(map[string]Num, len(cs.Tracks)),
			Premio:         NumOf(cs.Total.Total),
		}
		for track, p := range cs.Tracks {
			ct.PerPista[string(track)] = NumOf(p.Total)
		}
		res.Totali = append(res.Totali, ct)
	}
	d.Risultati = res
}

// Compute runs the engine on the document and attaches the results.
func Compute(d *Document, eng *engine.Engine, today generic.Date, now time.Time) (*engine.Output, error) {
	in, err := d.Input(today)
	if err != nil {
		return nil, err
	}
	out := eng.Run(in)
	d.Attach(out, now)
	return out, nil
}
