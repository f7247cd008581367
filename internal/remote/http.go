package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/sethvargo/go-retry"
)

// HTTPTransport talks to a PostgREST-style row store (the hosted backend
// exposes every table under /rest/v1/<table>). Transient failures (network
// errors, 429, 5xx) are retried with constant backoff; everything else
// surfaces immediately. All errors wrap common.ErrRemote.
type HTTPTransport struct {
	baseURL string
	apiKey  string
	token   func() string
	client  *http.Client
	log     logging.Logger

	maxRetries uint64
	backoff    time.Duration
}

// HTTPOption customizes an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default client (and its timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithTokenSource sets the access-token provider. The token is re-read on
// every request so a refreshed session takes effect without rebuilding the
// transport.
func WithTokenSource(fn func() string) HTTPOption {
	return func(t *HTTPTransport) { t.token = fn }
}

// WithRetries sets the number of retries after the first attempt.
func WithRetries(n uint64, backoff time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.maxRetries = n
		t.backoff = backoff
	}
}

// WithLogger sets the transport logger.
func WithLogger(l logging.Logger) HTTPOption {
	return func(t *HTTPTransport) { t.log = l }
}

// NewHTTPTransport builds a transport for the remote endpoint. apiKey is
// sent on every request; the bearer token comes from the token source.
func NewHTTPTransport(baseURL, apiKey string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL:    baseURL,
		apiKey:     apiKey,
		token:      func() string { return "" },
		client:     &http.Client{Timeout: 15 * time.Second},
		log:        logging.Discard(),
		maxRetries: 2,
		backoff:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Upsert(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("%w: marshal upsert batch for %s: %v", common.ErrRemote, table, err)
	}

	u := fmt.Sprintf("%s/rest/v1/%s?on_conflict=id", t.baseURL, url.PathEscape(table))
	t.log.Debug(ctx, "upserting batch", "table", table, "rows", len(rows))

	return t.withRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrRemote, err)
		}
		req.Header.Set("Content-Type", "application/json")
		// last-write-wins per id on the server side, no merge
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
		t.authorize(req)

		resp, err := t.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: upsert %s: %v", common.ErrRemote, table, err))
		}
		defer drain(resp)

		return t.checkStatus(resp, "upsert", table)
	})
}

func (t *HTTPTransport) QueryUpdatedSince(ctx context.Context, table, userID string, threshold int64) ([]Row, error) {
	q := url.Values{}
	q.Set("select", "id,user_id,data,updated_at")
	q.Set("user_id", "eq."+userID)
	q.Set("updated_at", "gt."+strconv.FormatInt(threshold, 10))
	q.Set("order", "updated_at.asc")
	u := fmt.Sprintf("%s/rest/v1/%s?%s", t.baseURL, url.PathEscape(table), q.Encode())

	var rows []Row
	err := t.withRetry(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrRemote, err)
		}
		t.authorize(req)

		resp, err := t.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: query %s: %v", common.ErrRemote, table, err))
		}
		defer drain(resp)

		if err := t.checkStatus(resp, "query", table); err != nil {
			return err
		}

		rows = rows[:0]
		if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
			return fmt.Errorf("%w: query %s: invalid response body: %v", common.ErrRemote, table, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.log.Debug(ctx, "pulled rows", "table", table, "rows", len(rows), "threshold", threshold)
	return rows, nil
}

func (t *HTTPTransport) withRetry(ctx context.Context, fn func(context.Context) error) error {
	b := retry.WithMaxRetries(t.maxRetries, retry.NewConstant(t.backoff))
	return retry.Do(ctx, b, fn)
}

func (t *HTTPTransport) authorize(req *http.Request) {
	req.Header.Set("apikey", t.apiKey)
	if tok := t.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}

func (t *HTTPTransport) checkStatus(resp *http.Response, op, table string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	err := fmt.Errorf("%w: %s %s: status %d", common.ErrRemote, op, table, resp.StatusCode)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return retry.RetryableError(err)
	}
	return err
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

var _ Transport = (*HTTPTransport)(nil)
