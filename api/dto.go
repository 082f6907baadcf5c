/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. The Preventivo
  document itself travels as-is (quote.Document); these types wrap it and
  carry the smaller tool endpoints.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Quotes:
    QuoteDTO, CreateQuoteRequest, UpdateQuoteRequest

  Rates:
    RatesResponse

  Tools:
    WorkdaysRequest, WorkdaysResponse, DefaultThresholdsResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request types carry validator/v10 tags; handlers run them before
  touching the store.

SEE ALSO:
  - handlers.go: Uses these types
  - quote/document.go: The document carried in QuoteDTO.Data
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/premi-engine/calendar"
	"github.com/warp/premi-engine/factory"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/partnership"
	"github.com/warp/premi-engine/quote"
)

// =============================================================================
// QUOTES
// =============================================================================

// QuoteDTO represents a stored quote in API responses.
type QuoteDTO struct {
	ID           string          `json:"id"`
	Organization string          `json:"organization"`
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    string          `json:"created_at,omitempty"`
	UpdatedAt    string          `json:"updated_at,omitempty"`
}

// CreateQuoteRequest is the request to create a quote.
type CreateQuoteRequest struct {
	Organization string          `json:"organization" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Data         json.RawMessage `json:"data"`
}

// UpdateQuoteRequest replaces a quote's name and document. An empty name
// keeps the stored one.
type UpdateQuoteRequest struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data" validate:"required"`
}

func toQuoteDTO(q generic.Quote) QuoteDTO {
	data := q.Data
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	return QuoteDTO{
		ID:           q.ID,
		Organization: q.Organization,
		Name:         q.Name,
		Data:         data,
		CreatedAt:    q.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    q.UpdatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// RATES
// =============================================================================

// RatesResponse shows an organization's stored overrides and the tables
// they resolve to.
type RatesResponse struct {
	Organization string             `json:"organization"`
	Overrides    *factory.Overrides `json:"overrides"`
	Tables       factory.RateTables `json:"tables"`
	UpdatedAt    string             `json:"updated_at,omitempty"`
}

// =============================================================================
// CALENDAR / THRESHOLD TOOLS
// =============================================================================

// WorkdaysRequest asks for the working days of one store calendar. month is
// 1-based. A missing calendar uses the default of positionType.
type WorkdaysRequest struct {
	Year         int                `json:"year" validate:"required,gte=1900,lte=9999"`
	Month        int                `json:"month" validate:"required,gte=1,lte=12"`
	Today        string             `json:"today,omitempty"`
	PositionType string             `json:"positionType,omitempty" validate:"omitempty,oneof=mall street other"`
	Calendar     *quote.CalendarDoc `json:"calendar,omitempty"`
}

// WorkdaysResponse is the month's working days, projection factor and per
// day view.
type WorkdaysResponse struct {
	calendar.WorkdayInfo
	ProjectionFactor float64            `json:"projectionFactor"`
	Days             []calendar.DayView `json:"days"`
}

// DefaultThresholdsResponse holds the defaults for a position type and
// cluster set. Tracks whose cluster is unknown are omitted.
type DefaultThresholdsResponse struct {
	PositionType      string              `json:"positionType"`
	Mobile            generic.Thresholds  `json:"mobile,omitempty"`
	MobileMultipliers generic.Multipliers `json:"mobileMultipliers"`
	Fixed             generic.Thresholds  `json:"fixed,omitempty"`
	FixedMultipliers  generic.Multipliers `json:"fixedMultipliers"`
	CB                *partnership.Target `json:"cb,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Track       string `json:"track"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
