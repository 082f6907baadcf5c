/*
handlers.go - HTTP API handlers for the incentive engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to quote/, factory/ and engine/.

ENDPOINTS:
  Calculation:
    POST   /api/calculate?org=          Compute a posted Preventivo document

  Quotes:
    GET    /api/quotes?org=             List quotes
    POST   /api/quotes                  Create quote
    GET    /api/quotes/{id}             Get quote
    PUT    /api/quotes/{id}             Replace quote document
    DELETE /api/quotes/{id}             Delete quote
    POST   /api/quotes/{id}/calculate   Compute and store results
    GET    /api/quotes/{id}/export      Excel workbook of the results

  Organization rates:
    GET    /api/organizations/{org}/rates   Stored overrides + resolved tables
    PUT    /api/organizations/{org}/rates   Validate and store overrides

  Tools:
    POST   /api/calendar/workdays       Working days of a store calendar
    GET    /api/thresholds/defaults     Default thresholds for a cluster set

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: quotes and organization overrides
  - Overrides: parses, validates and merges overrides
  - Base: default tables with the RATES_FILE override applied
  - Logger: logrus, fields module/funcName

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Resolve the organization's rate tables
  4. Run the engine
  5. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid document, override or request body
  - 404: Quote not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo quotes
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/config"
	"github.com/warp/premi-engine/engine"
	"github.com/warp/premi-engine/export"
	"github.com/warp/premi-engine/factory"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/network"
	"github.com/warp/premi-engine/quote"
	"github.com/warp/premi-engine/thresholds"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     generic.Store
	Overrides *factory.OverrideFactory
	Base      factory.RateTables
	Logger    *logrus.Logger

	// Now is the clock used for reference dates and timestamps.
	Now func() time.Time

	validate *validator.Validate

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a handler on the default rate tables. A nil logger
// discards output.
func NewHandler(store generic.Store, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return &Handler{
		Store:     store,
		Overrides: factory.NewOverrideFactory(),
		Base:      factory.DefaultRateTables(),
		Logger:    logger,
		Now:       time.Now,
		validate:  v,
	}
}

func (h *Handler) log(funcName string) *logrus.Entry {
	return h.Logger.WithFields(logrus.Fields{"module": "api", "funcName": funcName})
}

// engineFor resolves an organization's tables. An organization without
// stored overrides gets the base tables.
func (h *Handler) engineFor(r *http.Request, org string) (*engine.Engine, error) {
	if org == "" {
		return engine.New(h.Base, h.Logger), nil
	}
	rec, err := h.Store.GetRates(r.Context(), org)
	if errors.Is(err, generic.ErrOrganizationNotFound) {
		return engine.New(h.Base, h.Logger), nil
	}
	if err != nil {
		return nil, err
	}
	o, err := h.Overrides.ParseJSON(rec.Overrides)
	if err != nil {
		return nil, err
	}
	tables, err := h.Overrides.Apply(h.Base, o)
	if err != nil {
		return nil, err
	}
	return engine.New(tables, h.Logger), nil
}

func (h *Handler) compute(r *http.Request, org string, doc *quote.Document) error {
	eng, err := h.engineFor(r, org)
	if err != nil {
		return err
	}
	now := h.Now()
	_, err = quote.Compute(doc, eng, generic.DateOf(now), now)
	return err
}

// =============================================================================
// CALCULATION
// =============================================================================

// Calculate computes a posted document without storing it.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeDocument(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document", err)
		return
	}
	if err := h.compute(r, r.URL.Query().Get("org"), doc); err != nil {
		h.writeDomainError(w, "Calculate", "Failed to calculate quote", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// ListQuotes returns the quotes of an organization, or all of them.
func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.Store.ListQuotes(r.Context(), r.URL.Query().Get("org"))
	if err != nil {
		h.writeDomainError(w, "ListQuotes", "Failed to list quotes", err)
		return
	}

	dtos := make([]QuoteDTO, len(quotes))
	for i, q := range quotes {
		dtos[i] = toQuoteDTO(q)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetQuote returns a single quote.
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Store.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "GetQuote", "Failed to get quote", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(*q))
}

// CreateQuote stores a new quote. The document must decode.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	data := req.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	if _, err := quote.Decode(data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document", err)
		return
	}

	now := h.Now().UTC()
	q := generic.Quote{
		ID:           uuid.NewString(),
		Organization: req.Organization,
		Name:         req.Name,
		Data:         data,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Store.SaveQuote(r.Context(), q); err != nil {
		h.writeDomainError(w, "CreateQuote", "Failed to create quote", err)
		return
	}
	writeJSON(w, http.StatusCreated, toQuoteDTO(q))
}

// UpdateQuote replaces a quote's document.
func (h *Handler) UpdateQuote(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuoteRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}
	if _, err := quote.Decode(req.Data); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document", err)
		return
	}

	q, err := h.Store.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "UpdateQuote", "Failed to get quote", err)
		return
	}
	if req.Name != "" {
		q.Name = req.Name
	}
	q.Data = req.Data
	q.UpdatedAt = h.Now().UTC()
	if err := h.Store.SaveQuote(r.Context(), *q); err != nil {
		h.writeDomainError(w, "UpdateQuote", "Failed to update quote", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(*q))
}

// DeleteQuote removes a quote.
func (h *Handler) DeleteQuote(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteQuote(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "DeleteQuote", "Failed to delete quote", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CalculateQuote computes a stored quote with its organization's rates and
// stores the results.
func (h *Handler) CalculateQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Store.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "CalculateQuote", "Failed to get quote", err)
		return
	}
	doc, err := quote.Decode(q.Data)
	if err != nil {
		h.writeDomainError(w, "CalculateQuote", "Stored document is unreadable", err)
		return
	}
	if err := h.compute(r, q.Organization, doc); err != nil {
		h.writeDomainError(w, "CalculateQuote", "Failed to calculate quote", err)
		return
	}

	data, err := doc.Encode()
	if err != nil {
		h.writeDomainError(w, "CalculateQuote", "Failed to encode quote", err)
		return
	}
	q.Data = data
	q.UpdatedAt = h.Now().UTC()
	if err := h.Store.SaveQuote(r.Context(), *q); err != nil {
		h.writeDomainError(w, "CalculateQuote", "Failed to save quote", err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(*q))
}

// ExportQuote streams the Excel workbook of a computed quote.
func (h *Handler) ExportQuote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Store.GetQuote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "ExportQuote", "Failed to get quote", err)
		return
	}
	doc, err := quote.Decode(q.Data)
	if err != nil {
		h.writeDomainError(w, "ExportQuote", "Stored document is unreadable", err)
		return
	}
	f, err := export.Workbook(doc)
	if err != nil {
		h.writeDomainError(w, "ExportQuote", "Failed to export quote", err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(doc)))
	if err := f.Write(w); err != nil {
		h.log("ExportQuote").WithField("quote", q.ID).Error(err.Error())
	}
}

// =============================================================================
// ORGANIZATION RATES
// =============================================================================

// GetRates returns an organization's overrides and resolved tables. An
// organization with nothing stored gets the base tables.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	org := chi.URLParam(r, "org")
	resp := RatesResponse{Organization: org, Tables: h.Base}

	rec, err := h.Store.GetRates(r.Context(), org)
	switch {
	case errors.Is(err, generic.ErrOrganizationNotFound):
		writeJSON(w, http.StatusOK, resp)
		return
	case err != nil:
		h.writeDomainError(w, "GetRates", "Failed to get rates", err)
		return
	}

	o, err := h.Overrides.ParseJSON(rec.Overrides)
	if err != nil {
		h.writeDomainError(w, "GetRates", "Stored overrides are unreadable", err)
		return
	}
	tables, err := h.Overrides.Apply(h.Base, o)
	if err != nil {
		h.writeDomainError(w, "GetRates", "Stored overrides are invalid", err)
		return
	}
	resp.Overrides = o
	resp.Tables = tables
	resp.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
	writeJSON(w, http.StatusOK, resp)
}

// PutRates validates and stores an organization's overrides.
func (h *Handler) PutRates(w http.ResponseWriter, r *http.Request) {
	org := chi.URLParam(r, "org")

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	o, err := h.Overrides.ParseJSON(raw)
	if err != nil {
		h.writeDomainError(w, "PutRates", "Invalid overrides", err)
		return
	}
	o.Organization = org
	tables, err := h.Overrides.Apply(h.Base, o)
	if err != nil {
		h.writeDomainError(w, "PutRates", "Invalid overrides", err)
		return
	}

	data, err := json.Marshal(o)
	if err != nil {
		h.writeDomainError(w, "PutRates", "Failed to encode overrides", err)
		return
	}
	now := h.Now().UTC()
	if err := h.Store.SaveRates(r.Context(), generic.OrgRates{Organization: org, Overrides: data, UpdatedAt: now}); err != nil {
		h.writeDomainError(w, "PutRates", "Failed to save rates", err)
		return
	}

	h.log("PutRates").WithField("organization", org).Info("rates updated")
	writeJSON(w, http.StatusOK, RatesResponse{
		Organization: org,
		Overrides:    o,
		Tables:       tables,
		UpdatedAt:    now.Format(time.RFC3339),
	})
}

// =============================================================================
// TOOLS
// =============================================================================

// Workdays counts the working days of one store calendar.
func (h *Handler) Workdays(w http.ResponseWriter, r *http.Request) {
	var req WorkdaysRequest
	if !h.decodeRequest(w, r, &req) {
		return
	}

	today := generic.DateOf(h.Now())
	if req.Today != "" {
		d, err := generic.ParseDate(req.Today)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid today (use YYYY-MM-DD)", err)
			return
		}
		today = d
	}

	var cal calendar.StoreCalendar
	if req.Calendar != nil {
		cal = req.Calendar.Calendar()
	} else {
		cal = network.DefaultCalendar(network.PositionType(req.PositionType))
	}

	month := time.Month(req.Month)
	info := calendar.WorkdaysFromOverrides(req.Year, month, cal, today)
	factor, _ := info.ProjectionFactor().Float64()
	writeJSON(w, http.StatusOK, WorkdaysResponse{
		WorkdayInfo:      info,
		ProjectionFactor: factor,
		Days:             calendar.MonthView(req.Year, month, cal, today),
	})
}

// DefaultThresholds returns the default targets for a position type and
// cluster set.
func (h *Handler) DefaultThresholds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	position := network.PositionType(q.Get("position"))
	if position != "" && !position.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid position (use mall, street or other)", nil)
		return
	}

	resp := DefaultThresholdsResponse{
		PositionType:      string(position),
		MobileMultipliers: h.Base.MobileMultipliers,
		FixedMultipliers:  h.Base.FixedMultipliers,
	}
	if th, ok := thresholds.MobileFor(position, network.MobileCluster(strings.ToUpper(q.Get("mobile")))); ok {
		resp.Mobile = th
	}
	if th, ok := thresholds.FixedFor(position, network.FixedCluster(strings.ToUpper(q.Get("fixed")))); ok {
		resp.Fixed = th
	}
	if t, ok := thresholds.CBFor(network.CBCluster(strings.ToUpper(q.Get("cb")))); ok {
		resp.CB = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// resetter is implemented by stores that can be wiped.
type resetter interface {
	Reset(ctx context.Context) error
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.Store.(resetter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store does not support reset", nil)
		return
	}
	if err := rs.Reset(r.Context()); err != nil {
		h.writeDomainError(w, "ResetDatabase", "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine boundary errors to a status. Override errors
// report the offending path.
func (h *Handler) writeDomainError(w http.ResponseWriter, funcName, message string, err error) {
	var oe *generic.OverrideError
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.As(err, &oe):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   message,
			Code:    "invalid_override",
			Details: map[string]string{"path": oe.Path, "reason": oe.Error()},
		})
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		config.LogError(h.Logger, "api", funcName, message, nil, err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeRequest reads and validates a JSON body. It writes the 400 itself
// and reports whether the handler should continue.
func (h *Handler) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "validation",
				Details: details,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func decodeDocument(r *http.Request) (*quote.Document, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", generic.ErrInvalidDocument, err)
	}
	return quote.Decode(raw)
}
