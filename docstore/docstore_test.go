package docstore

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndGet(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.Add("things", map[string]any{
		"name":       "widget",
		"count":      3,
		"created_at": ServerTimestamp,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "" {
		t.Fatal("Add should return a non-empty id")
	}

	doc, ok, err := s.Get("things", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("document should exist")
	}
	if doc.Data["name"] != "widget" {
		t.Errorf("name = %v, want widget", doc.Data["name"])
	}
	ts, ok := doc.Data["created_at"].(Timestamp)
	if !ok {
		t.Fatalf("created_at should decode as Timestamp, got %T", doc.Data["created_at"])
	}
	if time.Since(ts.Time) > time.Minute {
		t.Errorf("server timestamp should be recent, got %v", ts.Time)
	}
}

func TestGetMissingIsNotAnError(t *testing.T) {
	s := setupTestStore(t)

	_, ok, err := s.Get("things", "nope")
	if err != nil {
		t.Fatalf("Get on missing doc should not error, got %v", err)
	}
	if ok {
		t.Fatal("missing doc should report ok=false")
	}
}

func TestUpdateMergesFields(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.Add("things", map[string]any{"name": "widget", "color": "red"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Update("things", id, map[string]any{"color": "blue"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	doc, _, err := s.Get("things", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Data["color"] != "blue" {
		t.Errorf("color = %v, want blue", doc.Data["color"])
	}
	if doc.Data["name"] != "widget" {
		t.Errorf("name should be untouched by merge, got %v", doc.Data["name"])
	}
}

func TestUpdateMissingReturnsNotFound(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Update("things", "nope", map[string]any{"a": 1}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementIsAtomicUnderConcurrency(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.Add("posts", map[string]any{"views": 0})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Increment("posts", id, "views", 1); err != nil {
				t.Errorf("Increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	doc, _, err := s.Get("posts", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	views, ok := doc.Data["views"].(float64)
	if !ok {
		t.Fatalf("views should decode numeric, got %T", doc.Data["views"])
	}
	if int(views) != n {
		t.Errorf("views = %d, want %d", int(views), n)
	}
}

func TestIncrementMissingField(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.Add("posts", map[string]any{"title": "t"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Increment("posts", id, "views", 1); err != nil {
		t.Fatalf("Increment on missing field failed: %v", err)
	}
	doc, _, _ := s.Get("posts", id)
	if v, _ := doc.Data["views"].(float64); int(v) != 1 {
		t.Errorf("views = %v, want 1", doc.Data["views"])
	}
}

func TestIncrementMissingDoc(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Increment("posts", "nope", "views", 1); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.Add("things", map[string]any{"name": "gone"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Delete("things", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, ok, err := s.Get("things", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("document should be gone after delete")
	}

	// Deleting again is fine.
	if err := s.Delete("things", id); err != nil {
		t.Errorf("Delete on missing doc should not error, got %v", err)
	}
}

func TestListOrdersByTimestampDescending(t *testing.T) {
	s := setupTestStore(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := s.Add("rows", map[string]any{
			"n":          i,
			"created_at": base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	docs, err := s.List("rows", "created_at", true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("List count = %d, want 3", len(docs))
	}
	for i, want := range []int{2, 1, 0} {
		if n, _ := docs[i].Data["n"].(float64); int(n) != want {
			t.Errorf("docs[%d].n = %v, want %d", i, docs[i].Data["n"], want)
		}
	}
}

func TestQueryEqLimit(t *testing.T) {
	s := setupTestStore(t)

	for _, slug := range []string{"alpha", "alpha", "beta"} {
		if _, err := s.Add("posts", map[string]any{"slug": slug}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	docs, err := s.QueryEq("posts", "slug", "alpha", 1)
	if err != nil {
		t.Fatalf("QueryEq failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("QueryEq limit 1 count = %d, want 1", len(docs))
	}

	docs, err = s.QueryEq("posts", "slug", "missing", 1)
	if err != nil {
		t.Fatalf("QueryEq failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("QueryEq on missing slug count = %d, want 0", len(docs))
	}
}

func TestCountAndCountSince(t *testing.T) {
	s := setupTestStore(t)

	now := time.Now().UTC()
	old := now.Add(-30 * 24 * time.Hour)
	for _, ts := range []time.Time{old, now.Add(-time.Hour), now} {
		if _, err := s.Add("rows", map[string]any{"created_at": ts}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	total, err := s.Count("rows")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Count = %d, want 3", total)
	}

	recent, err := s.CountSince("rows", "created_at", now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("CountSince failed: %v", err)
	}
	if recent != 2 {
		t.Errorf("CountSince = %d, want 2", recent)
	}
}

func TestSubscribeDeliversAndDetaches(t *testing.T) {
	s := setupTestStore(t)

	var mu sync.Mutex
	var snapshots [][]Document
	unsubscribe, err := s.Subscribe("rows", "created_at", func(docs []Document) {
		mu.Lock()
		snapshots = append(snapshots, docs)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// Initial snapshot fires immediately.
	mu.Lock()
	if len(snapshots) != 1 || len(snapshots[0]) != 0 {
		t.Fatalf("expected one empty initial snapshot, got %d", len(snapshots))
	}
	mu.Unlock()

	id, err := s.Add("rows", map[string]any{"created_at": ServerTimestamp})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	mu.Lock()
	if len(snapshots) != 2 || len(snapshots[1]) != 1 {
		t.Fatalf("expected snapshot with one doc after insert, got %v", snapshots)
	}
	mu.Unlock()

	unsubscribe()
	if err := s.Delete("rows", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	mu.Lock()
	if len(snapshots) != 2 {
		t.Errorf("detached subscription should not receive updates, got %d snapshots", len(snapshots))
	}
	mu.Unlock()
}

func TestSubscribeOtherCollectionUnaffected(t *testing.T) {
	s := setupTestStore(t)

	calls := 0
	unsubscribe, err := s.Subscribe("rows", "created_at", func([]Document) { calls++ })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	if _, err := s.Add("other", map[string]any{"x": 1}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("mutation in another collection should not notify, calls = %d", calls)
	}
}

func TestNestedTimestampRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.Add("rows", map[string]any{
		"meta": map[string]any{"touched_at": ServerTimestamp},
		"tags": []any{"a", "b"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	doc, _, err := s.Get("rows", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	meta, ok := doc.Data["meta"].(map[string]any)
	if !ok {
		t.Fatalf("meta should decode as map, got %T", doc.Data["meta"])
	}
	if _, ok := meta["touched_at"].(Timestamp); !ok {
		t.Errorf("nested timestamp should decode as Timestamp, got %T", meta["touched_at"])
	}
	tags, ok := doc.Data["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Errorf("tags should round-trip as a 2-element slice, got %v", doc.Data["tags"])
	}
}
