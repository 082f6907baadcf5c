package sqlite_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/premi-engine/generic"
	"github.com/warp/premi-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)

func quoteAt(id, org string, updated time.Time) generic.Quote {
	return generic.Quote{
		ID:           id,
		Organization: org,
		Name:         "Preventivo " + id,
		Data:         json.RawMessage(`{"anno":2025,"mese":3}`),
		CreatedAt:    updated,
		UpdatedAt:    updated,
	}
}

// =============================================================================
// QUOTES
// =============================================================================

func TestSaveQuote_GetRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveQuote(ctx, quoteAt("q1", "acme", t0)))

	got, err := s.GetQuote(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Organization)
	assert.Equal(t, "Preventivo q1", got.Name)
	assert.JSONEq(t, `{"anno":2025,"mese":3}`, string(got.Data))
	assert.True(t, got.CreatedAt.Equal(t0))
}

func TestSaveQuote_ReplaceKeepsCreatedAt(t *testing.T) {
	// GIVEN: a stored quote
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveQuote(ctx, quoteAt("q1", "acme", t0)))

	// WHEN: it is saved again later with new data
	later := t0.Add(2 * time.Hour)
	q := quoteAt("q1", "acme", later)
	q.Data = json.RawMessage(`{"anno":2025,"mese":4}`)
	require.NoError(t, s.SaveQuote(ctx, q))

	// THEN: data and updated_at change, created_at does not
	got, err := s.GetQuote(ctx, "q1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"anno":2025,"mese":4}`, string(got.Data))
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.True(t, got.UpdatedAt.Equal(later))
}

func TestSaveQuote_FillsMissingTimestamps(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveQuote(ctx, generic.Quote{ID: "q1", Organization: "acme", Name: "x"}))

	got, err := s.GetQuote(ctx, "q1")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "{}", string(got.Data))
}

func TestListQuotes_MostRecentFirstPerOrganization(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveQuote(ctx, quoteAt("old", "acme", t0)))
	require.NoError(t, s.SaveQuote(ctx, quoteAt("new", "acme", t0.Add(time.Hour+500*time.Millisecond))))
	require.NoError(t, s.SaveQuote(ctx, quoteAt("mid", "acme", t0.Add(time.Hour))))
	require.NoError(t, s.SaveQuote(ctx, quoteAt("other", "beta", t0)))

	acme, err := s.ListQuotes(ctx, "acme")
	require.NoError(t, err)
	ids := make([]string, len(acme))
	for i, q := range acme {
		ids[i] = q.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)

	all, err := s.ListQuotes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := s.ListQuotes(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetAndDelete_NotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetQuote(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrQuoteNotFound)
	assert.ErrorIs(t, s.DeleteQuote(ctx, "missing"), generic.ErrQuoteNotFound)

	require.NoError(t, s.SaveQuote(ctx, quoteAt("q1", "acme", t0)))
	require.NoError(t, s.DeleteQuote(ctx, "q1"))
	_, err = s.GetQuote(ctx, "q1")
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// RATES
// =============================================================================

func TestRates_SaveReplaceGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetRates(ctx, "acme")
	assert.ErrorIs(t, err, generic.ErrOrganizationNotFound)

	require.NoError(t, s.SaveRates(ctx, generic.OrgRates{Organization: "acme", Overrides: json.RawMessage(`{"fixed":{"rates":{"rateFttc":25}}}`), UpdatedAt: t0}))
	require.NoError(t, s.SaveRates(ctx, generic.OrgRates{Organization: "acme", Overrides: json.RawMessage(`{"fixed":{"rates":{"rateFttc":30}}}`)}))

	got, err := s.GetRates(ctx, "acme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"fixed":{"rates":{"rateFttc":30}}}`, string(got.Overrides))
	assert.True(t, got.UpdatedAt.After(t0))
}

func TestReset_ClearsEverything(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveQuote(ctx, quoteAt("q1", "acme", t0)))
	require.NoError(t, s.SaveRates(ctx, generic.OrgRates{Organization: "acme"}))

	require.NoError(t, s.Reset(ctx))

	all, err := s.ListQuotes(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
	_, err = s.GetRates(ctx, "acme")
	assert.ErrorIs(t, err, generic.ErrOrganizationNotFound)
}

func TestNew_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "premi.db")
	ctx := context.Background()

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveQuote(ctx, quoteAt("q1", "acme", t0)))
	require.NoError(t, s.Close())

	reopened, err := sqlite.New(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.GetQuote(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Organization)
}
