package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"lookout/pkg/logging"
)

func writeProfiles(t *testing.T, lines string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.jsonl")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return NewStore(path, logging.NewLogger())
}

func TestStore_List(t *testing.T) {
	store := writeProfiles(t, `{"email":"a@example.com","name":"A","briefing_time":"08:00","topics":["ai"]}
{"email":"b@example.com","name":"B","briefing_time":"09:30","topics":["ml","llm"]}
`)
	got, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(got))
	}
	if got[0].Email != "a@example.com" || got[1].Email != "b@example.com" {
		t.Fatalf("order not preserved: %+v", got)
	}
}

func TestStore_SkipsInvalidLines(t *testing.T) {
	store := writeProfiles(t, `{"email":"a@example.com","topics":["ai"]}
not json at all
{"email":"no-at-sign","topics":["ai"]}
{"email":"c@example.com","briefing_time":"25:00","topics":["ai"]}
{"email":"d@example.com","topics":[]}
{"email":"e@example.com","topics":["ai"]}
`)
	got, err := store.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 valid profiles, got %d: %+v", len(got), got)
	}
	if got[0].Email != "a@example.com" || got[1].Email != "e@example.com" {
		t.Fatalf("wrong survivors: %+v", got)
	}
}

func TestStore_Get(t *testing.T) {
	store := writeProfiles(t, `{"email":"a@example.com","topics":["ai"]}
`)
	p, ok, err := store.Get("A@Example.com")
	if err != nil || !ok {
		t.Fatalf("expected profile, ok=%v err=%v", ok, err)
	}
	if p.Email != "a@example.com" {
		t.Fatalf("wrong profile: %+v", p)
	}

	_, ok, err = store.Get("missing@example.com")
	if err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestStore_MissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.jsonl"), logging.NewLogger())
	got, err := store.List()
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no profiles, got %d", len(got))
	}
}
