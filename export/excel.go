// Package export renders a computed quote as an Excel workbook.
//
// The workbook is read from the document's results only, so documents
// computed by older versions (legacy premioPrevistoFineMese, no detail
// block) still export.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/quote"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary = "Riepilogo"
	SheetStores  = "Punti vendita"
	SheetVAT     = "Extra Gara IVA"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrNotComputed is returned for a document without results.
var ErrNotComputed = fmt.Errorf("%w: quote has not been computed", generic.ErrInvalidDocument)

// Workbook builds the workbook of a computed document.
func Workbook(d *quote.Document) (*excelize.File, error) {
	if d.Risultati == nil {
		return nil, ErrNotComputed
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	if err := writeSummary(f, d.Risultati); err != nil {
		return nil, err
	}
	if d.Risultati.Dettaglio != nil {
		if err := writeStores(f, d.Risultati); err != nil {
			return nil, err
		}
		if err := writeExtraVAT(f, d.Risultati); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, d *quote.Document) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Filename is the download name of a quote's workbook.
func Filename(d *quote.Document) string {
	return fmt.Sprintf("premi_%04d_%02d.xlsx", d.Year(), int(d.Month()))
}

// =============================================================================
// SHEETS
// =============================================================================

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func trackHeader(first ...any) []any {
	out := append([]any{}, first...)
	for _, t := range generic.AllTracks {
		if info, ok := generic.LookupTrack(t); ok {
			out = append(out, info.Name)
		} else {
			out = append(out, string(t))
		}
	}
	return append(out, "Totale")
}

func trackValues(perTrack map[string]quote.Num, first ...any) []any {
	out := append([]any{}, first...)
	for _, t := range generic.AllTracks {
		out = append(out, float64(perTrack[string(t)]))
	}
	return out
}

func writeSummary(f *excelize.File, r *quote.Results) error {
	if err := setRow(f, SheetSummary, 1, trackHeader("Ragione sociale", "Punti vendita")...); err != nil {
		return err
	}
	row := 2
	for _, ct := range r.Totali {
		values := trackValues(ct.PerPista, ct.RagioneSociale, len(ct.PuntiVendita))
		if err := setRow(f, SheetSummary, row, append(values, float64(ct.Premio))...); err != nil {
			return err
		}
		row++
	}
	values := trackValues(r.PerPista, "Totale", "")
	return setRow(f, SheetSummary, row, append(values, float64(r.Premio))...)
}

func writeStores(f *excelize.File, r *quote.Results) error {
	if _, err := f.NewSheet(SheetStores); err != nil {
		return err
	}
	if err := setRow(f, SheetStores, 1, trackHeader("Ragione sociale", "Codice")...); err != nil {
		return err
	}
	row := 2
	for _, cs := range r.Dettaglio.Summary.Companies {
		for _, code := range cs.StoreCodes {
			totals := cs.Stores[code]
			values := []any{cs.Company, code}
			for _, t := range generic.AllTracks {
				v, _ := totals[t].Total.Float64()
				values = append(values, v)
			}
			total, _ := totals.Sum().Total.Float64()
			if err := setRow(f, SheetStores, row, append(values, total)...); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeExtraVAT(f *excelize.File, r *quote.Results) error {
	if _, err := f.NewSheet(SheetVAT); err != nil {
		return err
	}
	header := []any{"Ragione sociale", "Codice", "Classe P.IVA", "Pezzi", "Punti", "Fascia", "Tariffa", "Premio"}
	if err := setRow(f, SheetVAT, 1, header...); err != nil {
		return err
	}
	names := make([]string, 0, len(r.Dettaglio.ExtraVAT))
	for name := range r.Dettaglio.ExtraVAT {
		names = append(names, name)
	}
	sort.Strings(names)

	row := 2
	for _, name := range names {
		res := r.Dettaglio.ExtraVAT[name]
		for _, s := range res.Stores {
			points, _ := s.Points.Float64()
			rate, _ := s.Rate.Float64()
			payout, _ := s.Payout.Total.Float64()
			values := []any{name, string(s.Entity.ID), string(s.Class), s.Pieces, points, int(res.Tier), rate, payout}
			if err := setRow(f, SheetVAT, row, values...); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}
