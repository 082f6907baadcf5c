// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/premi-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	quotes map[string]generic.Quote
	rates  map[string]generic.OrgRates
}

func NewMemory() *Memory {
	return &Memory{
		quotes: make(map[string]generic.Quote),
		rates:  make(map[string]generic.OrgRates),
	}
}

func (m *Memory) SaveQuote(_ context.Context, q generic.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.quotes[q.ID]; ok {
		q.CreatedAt = old.CreatedAt
	}
	q.Data = append([]byte(nil), q.Data...)
	m.quotes[q.ID] = q
	return nil
}

func (m *Memory) GetQuote(_ context.Context, id string) (*generic.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q, ok := m.quotes[id]
	if !ok {
		return nil, generic.ErrQuoteNotFound
	}
	q.Data = append([]byte(nil), q.Data...)
	return &q, nil
}

func (m *Memory) ListQuotes(_ context.Context, organization string) ([]generic.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []generic.Quote
	for _, q := range m.quotes {
		if organization == "" || q.Organization == organization {
			result = append(result, q)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) DeleteQuote(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.quotes[id]; !ok {
		return generic.ErrQuoteNotFound
	}
	delete(m.quotes, id)
	return nil
}

func (m *Memory) SaveRates(_ context.Context, r generic.OrgRates) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.Overrides = append([]byte(nil), r.Overrides...)
	m.rates[r.Organization] = r
	return nil
}

func (m *Memory) GetRates(_ context.Context, organization string) (*generic.OrgRates, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rates[organization]
	if !ok {
		return nil, generic.ErrOrganizationNotFound
	}
	return &r, nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quotes = make(map[string]generic.Quote)
	m.rates = make(map[string]generic.OrgRates)
	return nil
}

var _ generic.Store = (*Memory)(nil)
