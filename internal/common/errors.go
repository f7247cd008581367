// Package common defines shared sentinel errors used across the sync
// engine's layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound          = errors.New("not found")
	ErrUnknownCollection = errors.New("unknown collection")

	// Remote transport errors. Every failure surfaced by a Transport
	// implementation wraps this value.
	ErrRemote = errors.New("remote unavailable")

	// ErrDecode marks a malformed remote payload. Rows that fail the typed
	// parse step never reach the local store.
	ErrDecode = errors.New("decode error")

	// Orchestration errors.
	ErrNoSession      = errors.New("no active session")
	ErrSyncInProgress = errors.New("sync already in progress")
)
