package syncer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/models"
	"github.com/dmitrijs2005/fintrack/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, clk *testClock, tr *fakeTransport) (*Orchestrator, *store.SQLite) {
	t.Helper()
	s := newTestStore(t, clk)
	rec := newReconciler(s, tr)
	o := NewOrchestrator(s, rec, logging.Discard(), WithClock(clk.now))
	return o, s
}

func TestSyncAll_FixedCollectionOrder(t *testing.T) {
	clk := &testClock{ms: 1_000}
	tr := newFakeTransport()
	o, _ := newTestOrchestrator(t, clk, tr)

	summary, err := o.SyncAll(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, summary.Results, 7)

	want := []string{
		"transactions", "credit_cards", "recurring", "assets",
		"budgets", "categories", "settings",
	}
	assert.Equal(t, want, tr.queried)

	for i, col := range models.Collections() {
		assert.Equal(t, col, summary.Results[i].Collection)
	}
}

func TestSyncAll_AdvancesWatermarkOnFullSuccess(t *testing.T) {
	clk := &testClock{ms: 50_000}
	tr := newFakeTransport()
	o, s := newTestOrchestrator(t, clk, tr)
	ctx := context.Background()

	summary, err := o.SyncAll(ctx, "u1")
	require.NoError(t, err)
	require.True(t, summary.Ok())

	ts, err := s.LastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.FinishedAt, ts)
	assert.Equal(t, int64(50_000), ts)
}

func TestSyncAll_PartialFailureIsolatesCollectionsAndHoldsWatermark(t *testing.T) {
	clk := &testClock{ms: 50_000}
	tr := newFakeTransport()
	tr.queryErr["recurring"] = assert.AnError
	o, s := newTestOrchestrator(t, clk, tr)
	ctx := context.Background()

	require.NoError(t, s.SetLastSyncTimestamp(ctx, 40_000))

	summary, err := o.SyncAll(ctx, "u1")
	require.NoError(t, err, "a collection failure must not surface as a pass error")
	assert.False(t, summary.Ok())
	assert.Equal(t, []models.Collection{models.Recurring}, summary.Failed())

	// every collection still got its cycle
	require.Len(t, summary.Results, 7)
	assert.Len(t, tr.queried, 7)

	// the failed collection's un-pulled changes stay reachable next cycle
	ts, err := s.LastSyncTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(40_000), ts, "watermark must not advance on partial failure")
}

func TestSyncAll_UsesPersistedWatermarkForPullWindows(t *testing.T) {
	clk := &testClock{ms: 10_000_000}
	tr := newFakeTransport()
	o, s := newTestOrchestrator(t, clk, tr)
	ctx := context.Background()

	require.NoError(t, s.SetLastSyncTimestamp(ctx, 9_000_000))

	_, err := o.SyncAll(ctx, "u1")
	require.NoError(t, err)

	want := int64(9_000_000) - testBuffer.Milliseconds()
	for _, table := range tr.queried {
		assert.Equal(t, want, tr.thresholds[table], "table %s", table)
	}
}

func TestSyncAll_NoSession(t *testing.T) {
	clk := &testClock{ms: 1_000}
	o, _ := newTestOrchestrator(t, clk, newFakeTransport())

	_, err := o.SyncAll(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrNoSession)
}

func TestSyncAll_SingleFlightGuard(t *testing.T) {
	clk := &testClock{ms: 1_000}
	tr := newFakeTransport()
	tr.block = make(chan struct{})
	o, _ := newTestOrchestrator(t, clk, tr)
	ctx := context.Background()

	started := make(chan struct{})
	done := make(chan Summary, 1)
	go func() {
		close(started)
		summary, err := o.SyncAll(ctx, "u1")
		require.NoError(t, err)
		done <- summary
	}()

	<-started
	// release one table query at a time until the concurrent call has been
	// rejected; the first pass is guaranteed to be inside a query when we
	// attempt the second
	tr.block <- struct{}{}

	_, err := o.SyncAll(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrSyncInProgress)

	// let the first pass finish
	for i := 0; i < 6; i++ {
		tr.block <- struct{}{}
	}
	summary := <-done
	assert.True(t, summary.Ok())

	// the guard is released afterwards
	tr.block = nil
	_, err = o.SyncAll(ctx, "u1")
	assert.NoError(t, err)
}

func TestSyncAll_EndToEndAcrossTwoDevices(t *testing.T) {
	// A full pass on device A, then a full pass on device B, must leave B
	// with A's data across every collection.
	clk := &testClock{ms: 2_000}
	tr := newFakeTransport()
	ctx := context.Background()

	oA, sA := newTestOrchestrator(t, clk, tr)
	require.NoError(t, sA.Seed(ctx, "u1"))
	_, err := sA.Insert(ctx, models.Transactions, models.Record{
		Id: "t1", UserId: "u1", Payload: json.RawMessage(`{"amount":10,"category":"Food"}`),
	})
	require.NoError(t, err)
	_, err = sA.Insert(ctx, models.Assets, models.Record{
		Id: "a1", UserId: "u1", Payload: json.RawMessage(`{"name":"Savings","value":500}`),
	})
	require.NoError(t, err)

	summary, err := oA.SyncAll(ctx, "u1")
	require.NoError(t, err)
	require.True(t, summary.Ok())

	clk.advance(1_000)
	oB, sB := newTestOrchestrator(t, clk, tr)
	summary, err = oB.SyncAll(ctx, "u1")
	require.NoError(t, err)
	require.True(t, summary.Ok())

	state, err := sB.LoadState(ctx)
	require.NoError(t, err)
	require.Len(t, state.Transactions, 1)
	assert.Equal(t, "t1", state.Transactions[0].Id)
	assert.True(t, state.Transactions[0].IsSynced)
	require.Len(t, state.Assets, 1)
	require.NotNil(t, state.Settings)
	assert.Equal(t, models.SettingsRecordID, state.Settings.Id)
}
