package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
	"github.com/oddsradar/oddsradar/internal/pkg/storage"
)

// fakeStore is an in-memory FixtureStorage for reconciler tests.
type fakeStore struct {
	mu         sync.Mutex
	fixtures   map[string]models.AggregatedFixture // by id
	history    []models.PriceHistoryEntry
	margins    []models.TournamentMarginSnapshot
	failInsert map[string]bool // canonical keys whose inserts fail
	pruneDays  []int

	activeSources  []string
	listSourcesErr error
}

var _ storage.FixtureStorage = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		fixtures:   make(map[string]models.AggregatedFixture),
		failInsert: make(map[string]bool),
	}
}

func (s *fakeStore) GetFixtureByCanonicalKey(_ context.Context, key string) (*models.AggregatedFixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fixtures {
		if f.CanonicalKey == key {
			f := f
			return &f, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetFixtureByDisplayTeams(_ context.Context, displayTeams string) (*models.AggregatedFixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fixtures {
		if f.DisplayTeams == displayTeams {
			f := f
			return &f, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) InsertFixture(_ context.Context, f *models.AggregatedFixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert[f.CanonicalKey] {
		return fmt.Errorf("insert rejected for %s", f.CanonicalKey)
	}
	// insert-or-update on canonical key, keeping the existing row id
	for id, existing := range s.fixtures {
		if existing.CanonicalKey == f.CanonicalKey {
			updated := *f
			updated.ID = id
			s.fixtures[id] = updated
			return nil
		}
	}
	s.fixtures[f.ID] = *f
	return nil
}

func (s *fakeStore) UpdateFixture(_ context.Context, id string, f *models.AggregatedFixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fixtures[id]; !ok {
		return fmt.Errorf("no fixture with id %s", id)
	}
	updated := *f
	updated.ID = id
	s.fixtures[id] = updated
	return nil
}

func (s *fakeStore) DeleteFixture(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fixtures, id)
	return nil
}

func (s *fakeStore) ListFixtures(_ context.Context) ([]models.AggregatedFixture, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AggregatedFixture, 0, len(s.fixtures))
	for _, f := range s.fixtures {
		out = append(out, f)
	}
	return out, nil
}

func (s *fakeStore) AppendPriceHistory(_ context.Context, e *models.PriceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *e)
	return nil
}

func (s *fakeStore) AppendMarginSnapshot(_ context.Context, m *models.TournamentMarginSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.margins = append(s.margins, *m)
	return nil
}

func (s *fakeStore) PruneHistoryOlderThan(_ context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneDays = append(s.pruneDays, days)
	return 0, nil
}

func (s *fakeStore) PruneMarginsOlderThan(_ context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneDays = append(s.pruneDays, days)
	return 0, nil
}

func (s *fakeStore) ListActiveSources(_ context.Context) ([]string, error) {
	if s.listSourcesErr != nil {
		return nil, s.listSourcesErr
	}
	if len(s.activeSources) > 0 {
		return s.activeSources, nil
	}
	return []string{"x", "y"}, nil
}

func (s *fakeStore) SyncSources(_ context.Context, _ []string) error { return nil }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) find(key string) *models.AggregatedFixture {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.fixtures {
		if f.CanonicalKey == key {
			f := f
			return &f
		}
	}
	return nil
}

func acceptedFixture(key, teams string) *models.AggregatedFixture {
	return &models.AggregatedFixture{
		CanonicalKey: key,
		DisplayTeams: teams,
		Country:      "Kenya",
		Tournament:   "Premier League",
		StartTime:    testCycleTime.Add(4 * time.Hour),
		SourceQuotes: map[string]models.PriceQuote{
			"x": {Home: 2.0, Draw: 3.0, Away: 4.0},
			"y": {Home: 2.1, Draw: 3.1, Away: 3.9},
		},
		BestPrice: models.PriceQuote{Home: 2.1, Draw: 3.1, Away: 4.0},
	}
}

func TestReconcile_InsertsNewFixture(t *testing.T) {
	store := newFakeStore()
	r := NewPersistenceReconciler(store, 2, 14)

	f := acceptedFixture("100", "A vs B")
	stats, err := r.Reconcile(context.Background(), []*models.AggregatedFixture{f}, testCycleTime)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if stats.Inserted != 1 || stats.Updated != 0 || stats.Deleted != 0 {
		t.Errorf("stats = %+v, want 1 insert only", stats)
	}
	if f.ID == "" {
		t.Error("fixture should receive a surrogate id on insert")
	}
	if got := store.find("100"); got == nil {
		t.Error("fixture 100 not persisted")
	}
	// one history row per contributing source, every cycle
	if len(store.history) != 2 {
		t.Errorf("history rows = %d, want 2", len(store.history))
	}
}

func TestReconcile_UpdatesExistingByCanonicalKey(t *testing.T) {
	store := newFakeStore()
	prev := acceptedFixture("100", "A vs B")
	prev.ID = "existing-id"
	store.fixtures[prev.ID] = *prev

	r := NewPersistenceReconciler(store, 2, 14)
	f := acceptedFixture("100", "A vs B")
	f.SourceQuotes["x"] = models.PriceQuote{Home: 2.5, Draw: 3.0, Away: 4.0}

	stats, err := r.Reconcile(context.Background(), []*models.AggregatedFixture{f}, testCycleTime)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if stats.Updated != 1 || stats.Inserted != 0 || stats.Deleted != 0 {
		t.Errorf("stats = %+v, want 1 update only", stats)
	}
	got := store.find("100")
	if got == nil {
		t.Fatal("fixture 100 missing after update")
	}
	if got.ID != "existing-id" {
		t.Errorf("update must keep row id, got %q", got.ID)
	}
	if got.SourceQuotes["x"].Home != 2.5 {
		t.Errorf("quote not replaced: %+v", got.SourceQuotes["x"])
	}
}

func TestReconcile_DeletesFixtureBelowCoverage(t *testing.T) {
	// A fixture persisted last cycle that no longer meets the coverage
	// threshold is removed in the same sweep.
	store := newFakeStore()
	stale := acceptedFixture("200", "C vs D")
	stale.ID = "stale-id"
	store.fixtures[stale.ID] = *stale

	r := NewPersistenceReconciler(store, 2, 14)
	fresh := acceptedFixture("100", "A vs B")

	stats, err := r.Reconcile(context.Background(), []*models.AggregatedFixture{fresh}, testCycleTime)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if stats.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", stats.Deleted)
	}
	if store.find("200") != nil {
		t.Error("fixture 200 should have been deleted")
	}
	if store.find("100") == nil {
		t.Error("fixture 100 should remain")
	}
}

func TestReconcile_DisplayTeamsFallbackOnIdentifierDrift(t *testing.T) {
	// The persisted record carries last cycle's canonical key. This cycle
	// the sources rotated identifiers, so the lookup falls back to the
	// display teams label, the row is rewritten under the new key, and the
	// sweep must not delete the row it just rewrote.
	store := newFakeStore()
	prev := acceptedFixture("old-777", "A vs B")
	prev.ID = "drift-id"
	store.fixtures[prev.ID] = *prev

	r := NewPersistenceReconciler(store, 2, 14)
	f := acceptedFixture("888", "A vs B")

	stats, err := r.Reconcile(context.Background(), []*models.AggregatedFixture{f}, testCycleTime)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if stats.Updated != 1 || stats.Inserted != 0 {
		t.Errorf("stats = %+v, want 1 update", stats)
	}
	if stats.Deleted != 0 {
		t.Errorf("deleted = %d, want 0: rewritten row must survive the sweep", stats.Deleted)
	}
	got := store.find("888")
	if got == nil {
		t.Fatal("fixture missing under new canonical key")
	}
	if got.ID != "drift-id" {
		t.Errorf("row id changed on drift: %q", got.ID)
	}
	if store.find("old-777") != nil {
		t.Error("old canonical key should no longer exist")
	}
}

func TestReconcile_HistoryAppendedEveryCycle(t *testing.T) {
	store := newFakeStore()
	r := NewPersistenceReconciler(store, 2, 14)

	for i := 0; i < 2; i++ {
		f := acceptedFixture("100", "A vs B")
		if _, err := r.Reconcile(context.Background(), []*models.AggregatedFixture{f}, testCycleTime.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Reconcile #%d: %v", i+1, err)
		}
	}

	// unchanged prices still produce a row per (fixture, source)
	if len(store.history) != 4 {
		t.Fatalf("history rows = %d, want 4", len(store.history))
	}
	for _, e := range store.history {
		if e.Margin <= 0 {
			t.Errorf("history margin = %v, want positive overround", e.Margin)
		}
		if e.FixtureID == "" {
			t.Error("history row missing fixture id")
		}
	}
}

func TestReconcile_HistorySeriesSurvivesIdentifierDrift(t *testing.T) {
	// When the sources rotate identifiers the rewritten row keeps its
	// surrogate id, and the history rows keep keying on it, so the
	// fixture's series never fragments under the new canonical key.
	store := newFakeStore()
	r := NewPersistenceReconciler(store, 2, 14)

	first := acceptedFixture("old-777", "A vs B")
	if _, err := r.Reconcile(context.Background(), []*models.AggregatedFixture{first}, testCycleTime); err != nil {
		t.Fatalf("Reconcile #1: %v", err)
	}
	if first.ID == "" {
		t.Fatal("fixture should receive a surrogate id on insert")
	}

	second := acceptedFixture("888", "A vs B")
	if _, err := r.Reconcile(context.Background(), []*models.AggregatedFixture{second}, testCycleTime.Add(time.Minute)); err != nil {
		t.Fatalf("Reconcile #2: %v", err)
	}

	if len(store.history) != 4 {
		t.Fatalf("history rows = %d, want 4", len(store.history))
	}
	for _, e := range store.history {
		if e.FixtureID != first.ID {
			t.Errorf("history fixture id = %q, want %q across both cycles", e.FixtureID, first.ID)
		}
	}
}

func TestReconcile_PerFixtureErrorDoesNotFailCycle(t *testing.T) {
	store := newFakeStore()
	store.failInsert["100"] = true

	r := NewPersistenceReconciler(store, 2, 14)
	fixtures := []*models.AggregatedFixture{
		acceptedFixture("100", "A vs B"),
		acceptedFixture("200", "C vs D"),
	}

	stats, err := r.Reconcile(context.Background(), fixtures, testCycleTime)
	if err != nil {
		t.Fatalf("cycle must not fail on a per-fixture error: %v", err)
	}

	if stats.Errors != 1 {
		t.Errorf("errors = %d, want 1", stats.Errors)
	}
	if stats.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", stats.Inserted)
	}
	if store.find("200") == nil {
		t.Error("fixture 200 should persist despite the other failing")
	}
}

func TestReconcile_PrunesHistoryWithConfiguredRetention(t *testing.T) {
	store := newFakeStore()
	r := NewPersistenceReconciler(store, 2, 7)

	if _, err := r.Reconcile(context.Background(), nil, testCycleTime); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	if len(store.pruneDays) != 1 || store.pruneDays[0] != 7 {
		t.Errorf("prune calls = %v, want [7]", store.pruneDays)
	}
}
