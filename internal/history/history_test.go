package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, path string, limit int) *Store {
	t.Helper()
	store, err := Open(path, limit)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return store
}

func TestAppendAndRecentOrder(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "history.db"), 50)

	for _, stmt := range []string{"SELECT 1", "SELECT 2", "SELECT 3"} {
		if _, err := store.Append(stmt, stmt+" FROM logs"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, err := store.Recent(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Title != "SELECT 3" || items[2].Title != "SELECT 1" {
		t.Fatalf("not newest first: %q .. %q", items[0].Title, items[2].Title)
	}
	if items[0].ID == "" || items[0].CreatedAt.IsZero() {
		t.Fatalf("item identity missing: %+v", items[0])
	}
}

func TestCapTrimsOldest(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "history.db"), 3)

	for _, stmt := range []string{"one", "two", "three", "four", "five"} {
		if _, err := store.Append(stmt, "SELECT "+stmt); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, err := store.Recent(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("cap not enforced: %d items", len(items))
	}
	if items[0].Title != "five" || items[2].Title != "three" {
		t.Fatalf("wrong survivors: %q .. %q", items[0].Title, items[2].Title)
	}
}

func TestSearch(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "history.db"), 50)

	statements := map[string]string{
		"errors by host": "SELECT host, count(*) FROM logs WHERE level = 'error' GROUP BY host",
		"slow queries":   "SELECT * FROM logs WHERE took_ms > 500",
		"all indices":    "SHOW TABLES",
	}
	for title, stmt := range statements {
		if _, err := store.Append(title, stmt); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, err := store.Search("logs")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("search hit %d items, want 2", len(items))
	}
	items, err = store.Search("host")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Title != "errors by host" {
		t.Fatalf("title search = %+v", items)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "history.db"), 50)

	item, err := store.Append("gone", "SELECT 1")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	removed, err := store.Delete(item.ID)
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	removed, err = store.Delete(item.ID)
	if err != nil || removed {
		t.Fatalf("second delete = %v, %v", removed, err)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store := openTestStore(t, path, 50)
	if _, err := store.Append("kept", "SELECT 1"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path, 50)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	items, err := reopened.Recent(0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(items) != 1 || items[0].Title != "kept" {
		t.Fatalf("items after reopen = %+v", items)
	}
}
