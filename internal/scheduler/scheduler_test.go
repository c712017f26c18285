package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"price_tracker/internal/model"
	"price_tracker/internal/orchestrator"
	"price_tracker/internal/storage"
)

type mockRunner struct {
	mu  sync.Mutex
	ids []int64
}

func (m *mockRunner) ScrapeOne(_ context.Context, storeID int64) (*orchestrator.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, storeID)
	return &orchestrator.Result{StoreID: storeID, Items: 1, Saved: 1}, nil
}

func (m *mockRunner) getIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]int64, len(m.ids))
	copy(cp, m.ids)
	return cp
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	s, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createStore(t *testing.T, store *storage.SQLite, name string, active bool) *model.Store {
	t.Helper()
	st := &model.Store{
		Name:       name,
		URL:        "https://" + name + ".example.com",
		ScraperRef: "storefront_api",
		IsActive:   active,
	}
	if err := store.CreateStore(context.Background(), st); err != nil {
		t.Fatalf("create store: %v", err)
	}
	return st
}

func TestSchedulerScrapesDueStores(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	never := createStore(t, store, "greenmart", true)
	stale := createStore(t, store, "freshmart", true)
	fresh := createStore(t, store, "cornershop", true)
	createStore(t, store, "pausedmart", false)

	now := time.Now().UTC()
	if err := store.MarkStoreScraped(ctx, stale.ID, now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("mark scraped: %v", err)
	}
	if err := store.MarkStoreScraped(ctx, fresh.ID, now.Add(-time.Hour)); err != nil {
		t.Fatalf("mark scraped: %v", err)
	}

	runner := &mockRunner{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := New(store, runner, log)
	sched.checkDue(ctx)

	want := []int64{never.ID, stale.ID}
	if diff := cmp.Diff(want, runner.getIDs()); diff != "" {
		t.Errorf("scraped store IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestSchedulerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := newTestStore(t)

	createStore(t, store, "greenmart", true)
	createStore(t, store, "freshmart", true)

	cancel()

	runner := &mockRunner{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := New(store, runner, log)
	sched.checkDue(ctx)

	if ids := runner.getIDs(); len(ids) != 0 {
		t.Errorf("scraped %v with cancelled context, want none", ids)
	}
}

func TestRunExitsOnCancel(t *testing.T) {
	store := newTestStore(t)
	runner := &mockRunner{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sched := New(store, runner, log)
	sched.SetTickInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
