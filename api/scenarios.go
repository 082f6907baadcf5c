/*
scenarios.go - Demo quotes for testing and demonstrations

PURPOSE:

	Provides pre-built Preventivo documents that populate the database with
	a computed quote. Each scenario shows one feature of a track.

AVAILABLE SCENARIOS:

	mobile-tied:       One store, 180 TIED activations, third tier
	insurance-reload:  Reload Forever points once the no-malus target is met
	extravat-bp:       Two-store company with a Business-Promoter store
	network:           Three stores in two companies, every track, rs mode

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build the document
 3. Compute it with the base rate tables
 4. Store it as a quote of the "demo" organization

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "mobile-tied"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add a builder to 'scenarioDocs'

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
  - quote/document.go: Document shape
*/
package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/warp/premi-engine/energy"
	"github.com/warp/premi-engine/fixed"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/insurance"
	"github.com/warp/premi-engine/mobile"
	"github.com/warp/premi-engine/partnership"
	"github.com/warp/premi-engine/protecta"
	"github.com/warp/premi-engine/quote"
)

// DemoOrganization owns every scenario quote.
const DemoOrganization = "demo"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "mobile-tied",
		Name:        "Mobile TIED",
		Description: "180 TIED activations (135 points) reach the third tier at multiplier 1.5",
		Track:       string(generic.TrackMobile),
	},
	{
		ID:          "insurance-reload",
		Name:        "Insurance Reload Forever",
		Description: "Base products reach the no-malus target, 10 Reload events add 2 points",
		Track:       string(generic.TrackInsurance),
	},
	{
		ID:          "extravat-bp",
		Name:        "Extra-VAT Business Promoter",
		Description: "Two-store company where one Business-Promoter store unlocks the fourth tier",
		Track:       string(generic.TrackExtraVAT),
	},
	{
		ID:          "network",
		Name:        "Network",
		Description: "Three stores in two companies, every track, Mobile priced per company",
		Track:       "all",
	},
}

var scenarioDocs = map[string]func() *quote.Document{
	"mobile-tied":      mobileTiedDoc,
	"insurance-reload": insuranceReloadDoc,
	"extravat-bp":      extraVATDoc,
	"network":          networkDoc,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and stores the scenario's computed quote.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	build, ok := scenarioDocs[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
		return
	}

	if rs, ok := h.Store.(resetter); ok {
		if err := rs.Reset(r.Context()); err != nil {
			h.writeDomainError(w, "LoadScenario", "Failed to reset database", err)
			return
		}
	}

	doc := build()
	if err := h.compute(r, "", doc); err != nil {
		h.writeDomainError(w, "LoadScenario", "Failed to calculate scenario", err)
		return
	}
	data, err := doc.Encode()
	if err != nil {
		h.writeDomainError(w, "LoadScenario", "Failed to encode scenario", err)
		return
	}

	now := h.Now().UTC()
	q := generic.Quote{
		ID:           uuid.NewString(),
		Organization: DemoOrganization,
		Name:         req.ScenarioID,
		Data:         data,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Store.SaveQuote(r.Context(), q); err != nil {
		h.writeDomainError(w, "LoadScenario", "Failed to save scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.log("LoadScenario").WithField("scenario", req.ScenarioID).Info("scenario loaded")
	writeJSON(w, http.StatusOK, toQuoteDTO(q))
}

// =============================================================================
// DOCUMENT BUILDERS
// =============================================================================

// April 2025 starts on a Tuesday and has four Sundays.
func baseDoc(stores ...quote.StoreDoc) *quote.Document {
	return &quote.Document{
		PuntiVendita:    stores,
		Anno:            2025,
		Mese:            3,
		DataRiferimento: "2025-04-15",
		ModalitaGara: quote.ModesDoc{
			PistaMobile: string(generic.ModePerStore),
			PistaFisso:  string(generic.ModePerStore),
			Partnership: string(generic.ModePerStore),
		},
	}
}

func storeDoc(code, company, position, mobileCluster, pivaCluster string) quote.StoreDoc {
	return quote.StoreDoc{
		Codice:         code,
		Nome:           "Negozio " + code,
		RagioneSociale: company,
		TipoPosizione:  position,
		ClusterMobile:  mobileCluster,
		ClusterFisso:   "F2",
		ClusterCB:      "CB2",
		ClusterPIva:    pivaCluster,
		IsInGara:       true,
	}
}

func line(category string, pieces float64) quote.LineDoc {
	return quote.LineDoc{Categoria: category, Pezzi: quote.Num(pieces)}
}

func mobileTiedDoc() *quote.Document {
	d := baseDoc(storeDoc("PDV001", "Alfa Srl", "street", "M3", ""))
	d.PistaMobile.Config = map[string]quote.MobileConfigDoc{
		"PDV001": {
			Soglie:         []quote.Num{70, 105, 135, 165},
			Moltiplicatori: []quote.Num{1, 1.2, 1.5, 2},
			CanoneMedio:    10,
		},
	}
	d.PistaMobile.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {line(mobile.CategoryTied, 180)},
	}
	return d
}

func insuranceReloadDoc() *quote.Document {
	d := baseDoc(storeDoc("PDV001", "Alfa Srl", "street", "M3", ""))
	d.Assicurazioni.Config = map[string]quote.InsuranceConfigDoc{
		"PDV001": {TargetNoMalus: 50},
	}
	// casa 20×1 + salute 15×2 = 50 points
	d.Assicurazioni.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {
			line(insurance.CategoryCasa, 20),
			line(insurance.CategorySalute, 15),
			line(insurance.CategoryReloadForever, 10),
		},
	}
	return d
}

func extraVATDoc() *quote.Document {
	d := baseDoc(
		storeDoc("PDV001", "Alfa Srl", "street", "M3", "business_promoter"),
		storeDoc("PDV002", "Alfa Srl", "street", "M4", "junior"),
	)
	d.PistaMobile.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {line(mobile.CategoryBusinessTied, 40), line(mobile.CategoryBusinessMNP, 20)},
		"PDV002": {line(mobile.CategoryBusinessUntied, 24)},
	}
	d.PistaFisso.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {line(fixed.CategoryPIvaFirstLine, 15)},
		"PDV002": {line(fixed.CategoryFTTHPIva, 4)},
	}
	return d
}

func networkDoc() *quote.Document {
	d := baseDoc(
		storeDoc("PDV001", "Alfa Srl", "street", "M2", "business_promoter_plus"),
		storeDoc("PDV002", "Alfa Srl", "mall", "M3", "senior"),
		storeDoc("PDV003", "Beta Snc", "other", "M5", ""),
	)
	d.ModalitaGara.PistaMobile = string(generic.ModePerCompany)

	d.PistaMobile.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {line(mobile.CategoryTied, 120), line(mobile.CategoryMNPTied, 30), line(mobile.CategoryBusinessTied, 12)},
		"PDV002": {line(mobile.CategoryUntied, 80), line(mobile.CategoryDeviceInstalment, 10)},
		"PDV003": {line(mobile.CategoryTied, 40), line(mobile.CategoryPrepaidBasic, 25)},
	}
	d.PistaFisso.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {line(fixed.CategoryFTTH, 20), line(fixed.CategoryPIvaFirstLine, 6)},
		"PDV002": {line(fixed.CategoryFTTH, 12), line(fixed.CategoryFWAIndoor, 5)},
		"PDV003": {line(fixed.CategoryFTTH, 8)},
	}
	d.Partnership.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {line(partnership.EventBankAccount, 18)},
		"PDV002": {line(partnership.EventCreditCard, 9)},
	}
	d.Energia.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {line(energy.CategoryLuceConsumer, 22), line(energy.CategoryDualBusiness, 4)},
		"PDV002": {line(energy.CategoryGasConsumer, 12)},
		"PDV003": {line(energy.CategoryLuceConsumer, 6)},
	}
	d.Assicurazioni.Attivazioni = map[string][]quote.LineDoc{
		"PDV001": {
			line(insurance.CategoryCasa, 30),
			line(insurance.CategoryAuto, 12),
			{Categoria: insurance.CategoryViaggioMondo, Pezzi: 3, PremioDichiarato: 400},
		},
	}
	d.Protecta.Attivazioni = map[string][]quote.LineDoc{
		"PDV002": {line(protecta.CategoryBase, 8), line(protecta.CategoryPlus, 4)},
	}
	return d
}
