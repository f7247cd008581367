// Package syncer implements the reconciliation engine: a per-collection
// push-then-pull cycle with last-write-wins conflict resolution, an
// orchestrator that runs it over every collection behind a single-flight
// guard, and a runner for periodic and on-demand triggers.
//
// The engine assumes nothing about scheduling beyond what the store
// guarantees: each store write is atomic, and the mark-synced step is a
// compare-and-set against the pushed snapshot's timestamp, so a local edit
// racing a push is never silently marked synced.
package syncer
