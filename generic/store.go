/*
store.go - Persistence interfaces for quotes and organization rates

PURPOSE:
  Defines the interface between the HTTP layer and the database. The
  calculators never touch storage: a quote is loaded, decoded, computed
  and written back as a whole document.

KEY INTERFACES:
  QuoteStore: Preventivo documents (CRUD, listed per organization)
  RateStore:  Per-organization rate overrides

PAYLOADS:
  Both records carry their payload as raw JSON. The store does not know the
  document schema; quote/ and factory/ own decoding. This keeps old
  documents loadable after the schema grows.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for tests

SEE ALSO:
  - quote/document.go: The document stored in Quote.Data
  - factory/overrides.go: The overrides stored in OrgRates.Overrides
*/
package generic

import (
	"context"
	"encoding/json"
	"time"
)

// =============================================================================
// RECORDS
// =============================================================================

// Quote is a stored Preventivo.
type Quote struct {
	ID           string          `json:"id"`
	Organization string          `json:"organization"`
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// OrgRates is the stored rate override of one organization.
type OrgRates struct {
	Organization string          `json:"organization"`
	Overrides    json.RawMessage `json:"overrides"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// =============================================================================
// INTERFACES
// =============================================================================

// QuoteStore persists quotes. Get and Delete return ErrQuoteNotFound for an
// unknown ID.
type QuoteStore interface {
	// SaveQuote inserts or replaces a quote. CreatedAt is kept on replace.
	SaveQuote(ctx context.Context, q Quote) error
	GetQuote(ctx context.Context, id string) (*Quote, error)
	// ListQuotes returns an organization's quotes, most recently updated
	// first. An empty organization lists every quote.
	ListQuotes(ctx context.Context, organization string) ([]Quote, error)
	DeleteQuote(ctx context.Context, id string) error
}

// RateStore persists organization overrides. GetRates returns
// ErrOrganizationNotFound when nothing is stored.
type RateStore interface {
	SaveRates(ctx context.Context, r OrgRates) error
	GetRates(ctx context.Context, organization string) (*OrgRates, error)
}

// Store is everything the API persists.
type Store interface {
	QuoteStore
	RateStore
}
