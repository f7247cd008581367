// Package fintrack is an offline-first sync engine for a personal finance
// tracker. Every write lands in a local SQLite replica first and the
// application reads only from that replica; a background reconciler then
// pushes unsynced rows to a remote per-user row store and pulls rows other
// devices pushed, merging by last-write-wins on update timestamps.
//
// The engine is a library. The application shell supplies a session (the
// engine never authenticates by itself) and reads and writes through the
// Store accessor; sync runs periodically once Start is called and on demand
// through SyncNow.
package fintrack

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/auth"
	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/config"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/remote"
	"github.com/dmitrijs2005/fintrack/internal/store"
	"github.com/dmitrijs2005/fintrack/internal/syncer"
)

// Config re-exports the engine configuration.
type Config = config.Config

// Session re-exports the authenticated session.
type Session = auth.Session

// Summary re-exports the result of one full sync pass.
type Summary = syncer.Summary

// LoadConfig builds a Config from defaults, an optional JSON file and
// environment variables.
func LoadConfig() (*Config, error) { return config.LoadConfig() }

// SessionFromToken builds a Session from a bearer access token.
func SessionFromToken(token string) (Session, error) {
	return auth.SessionFromToken(token)
}

// Engine owns the local replica, the remote transport and the sync loop.
type Engine struct {
	cfg    *Config
	log    logging.Logger
	store  *store.SQLite
	orch   *syncer.Orchestrator
	runner *syncer.Runner

	mu      sync.RWMutex
	session Session
}

// Open opens (and migrates) the local replica and wires the sync pipeline.
// A nil cfg loads configuration from the environment; a nil logger
// discards output. The engine starts without a session and stays inert
// until one is set.
func Open(ctx context.Context, cfg *Config, log logging.Logger) (*Engine, error) {
	if cfg == nil {
		loaded, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if log == nil {
		log = logging.Discard()
	}

	st, err := store.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open local replica: %w", err)
	}

	e := &Engine{cfg: cfg, log: log, store: st}

	transport := remote.NewHTTPTransport(cfg.RemoteEndpoint, cfg.APIKey,
		remote.WithTokenSource(e.accessToken),
		remote.WithLogger(log),
	)
	rec := syncer.NewReconciler(st, transport, cfg.SafetyBuffer, log)
	e.orch = syncer.NewOrchestrator(st, rec, log)
	e.runner = syncer.NewRunner(cfg.SyncInterval, cfg.SyncTimeout, e.syncPass, log)

	return e, nil
}

// Store exposes the local replica. The application shell performs all reads
// and writes through it; the engine syncs whatever it finds there.
func (e *Engine) Store() *store.SQLite { return e.store }

// SetSession installs the authenticated session and seeds first-run data for
// the user. If the periodic loop is running a sync pass is requested
// immediately so a fresh sign-in converges without waiting for the ticker.
func (e *Engine) SetSession(ctx context.Context, s Session) error {
	if !s.Valid(time.Now()) {
		return common.ErrNoSession
	}

	e.mu.Lock()
	e.session = s
	e.mu.Unlock()

	if err := e.store.Seed(ctx, s.UserID); err != nil {
		return fmt.Errorf("failed to seed user data: %w", err)
	}

	e.runner.Kick()
	return nil
}

// ClearSession removes the session. Local data stays intact; sync passes
// become no-ops until a session is set again.
func (e *Engine) ClearSession() {
	e.mu.Lock()
	e.session = Session{}
	e.mu.Unlock()
}

// Session returns the current session (zero value when signed out).
func (e *Engine) Session() Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session
}

// SyncNow runs one full sync pass immediately. It returns
// common.ErrNoSession without touching the network when no valid session is
// installed, and common.ErrSyncInProgress when a pass is already running.
func (e *Engine) SyncNow(ctx context.Context) (Summary, error) {
	return e.syncPass(ctx)
}

// Start launches the periodic sync loop and requests an immediate startup
// pass. Calling Start more than once is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.runner.Start(ctx)
	e.runner.Kick()
}

// Stop halts the periodic loop, waiting for an in-flight pass to finish.
func (e *Engine) Stop() {
	e.runner.Stop()
}

// Close stops the sync loop and closes the local replica.
func (e *Engine) Close() error {
	e.Stop()
	return e.store.Close()
}

func (e *Engine) syncPass(ctx context.Context) (Summary, error) {
	e.mu.RLock()
	s := e.session
	e.mu.RUnlock()

	if !s.Valid(time.Now()) {
		return Summary{}, common.ErrNoSession
	}
	return e.orch.SyncAll(ctx, s.UserID)
}

func (e *Engine) accessToken() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.AccessToken
}
