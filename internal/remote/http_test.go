package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTransport(t *testing.T, srv *httptest.Server, opts ...HTTPOption) *HTTPTransport {
	t.Helper()
	base := []HTTPOption{
		WithHTTPClient(srv.Client()),
		WithRetries(0, time.Millisecond),
		WithTokenSource(func() string { return "tok123" }),
	}
	return NewHTTPTransport(srv.URL, "anonkey", append(base, opts...)...)
}

func TestUpsert_SendsBatchWithUpsertHeaders(t *testing.T) {
	var gotPath, gotQuery, gotPrefer, gotAuth, gotKey string
	var gotBody []Row

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotPrefer = r.Header.Get("Prefer")
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("apikey")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tr := newTransport(t, srv)
	rows := []Row{
		{ID: "a", UserID: "u1", Data: json.RawMessage(`{"id":"a"}`), UpdatedAt: 5},
		{ID: "b", UserID: "u1", Data: json.RawMessage(`{"id":"b"}`), UpdatedAt: 6},
	}
	require.NoError(t, tr.Upsert(context.Background(), "transactions", rows))

	assert.Equal(t, "/rest/v1/transactions", gotPath)
	assert.Equal(t, "on_conflict=id", gotQuery)
	assert.Contains(t, gotPrefer, "resolution=merge-duplicates")
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "anonkey", gotKey)
	require.Len(t, gotBody, 2)
	assert.Equal(t, "a", gotBody[0].ID)
	assert.Equal(t, int64(6), gotBody[1].UpdatedAt)
}

func TestUpsert_EmptyBatchSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tr := newTransport(t, srv)
	require.NoError(t, tr.Upsert(context.Background(), "assets", nil))
	assert.False(t, called)
}

func TestUpsert_ServerErrorWrapsErrRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tr := newTransport(t, srv)
	err := tr.Upsert(context.Background(), "assets", []Row{{ID: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRemote)
}

func TestUpsert_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tr := newTransport(t, srv, WithRetries(3, time.Millisecond))
	require.NoError(t, tr.Upsert(context.Background(), "budgets", []Row{{ID: "x"}}))
	assert.Equal(t, 3, attempts)
}

func TestUpsert_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := newTransport(t, srv, WithRetries(3, time.Millisecond))
	err := tr.Upsert(context.Background(), "budgets", []Row{{ID: "x"}})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestQueryUpdatedSince_FiltersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/credit_cards", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eq.u1", q.Get("user_id"))
		assert.Equal(t, "gt.1000", q.Get("updated_at"))
		assert.Equal(t, "updated_at.asc", q.Get("order"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"c1","user_id":"u1","data":{"id":"c1","updatedAt":1500},"updated_at":1500},
			{"id":"c2","user_id":"u1","data":{"id":"c2","updatedAt":2000},"updated_at":2000}
		]`))
	}))
	defer srv.Close()

	tr := newTransport(t, srv)
	rows, err := tr.QueryUpdatedSince(context.Background(), "credit_cards", "u1", 1000)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c1", rows[0].ID)
	assert.Equal(t, int64(2000), rows[1].UpdatedAt)
}

func TestQueryUpdatedSince_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"oops":`))
	}))
	defer srv.Close()

	tr := newTransport(t, srv)
	_, err := tr.QueryUpdatedSince(context.Background(), "assets", "u1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRemote)
}
