package session

import (
	"path/filepath"
	"reflect"
	"testing"

	"taskchat/internal/store"
	"taskchat/internal/types"
)

func TestPersistenceRoundTripAcrossBackends(t *testing.T) {
	history := []types.Message{
		{Role: types.RoleUser, Text: "open settings", Timestamp: "2026-01-01T00:00:00Z"},
		{Role: types.RoleAgent, Text: "{\n  \"ok\": true\n}"},
	}
	for _, backend := range []string{store.BackendFile, store.BackendBbolt, store.BackendSQLite, store.BackendMemory} {
		t.Run(backend, func(t *testing.T) {
			s, err := store.OpenHistoryStore(backend, filepath.Join(t.TempDir(), "history"))
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer s.Close()
			p := NewPersistence(s, nil)

			if got, outcome := p.Load(); outcome != OutcomeMissing || len(got) != 0 {
				t.Fatalf("expected missing empty history, got %v %s", got, outcome)
			}
			if outcome := p.Save(history); outcome != OutcomeOK {
				t.Fatalf("save: %s", outcome)
			}
			got, outcome := p.Load()
			if outcome != OutcomeOK || !reflect.DeepEqual(got, history) {
				t.Fatalf("round trip mismatch: %s %s", describe(got), outcome)
			}
			if outcome := p.Clear(); outcome != OutcomeOK {
				t.Fatalf("clear: %s", outcome)
			}
			if outcome := p.Clear(); outcome != OutcomeOK {
				t.Fatalf("second clear: %s", outcome)
			}
			if got, _ := p.Load(); len(got) != 0 {
				t.Fatalf("expected empty history after clear")
			}
		})
	}
}

func TestPersistenceWithoutStoreNeverFails(t *testing.T) {
	var p *Persistence
	if got, outcome := p.Load(); outcome != OutcomeFailed || got == nil || len(got) != 0 {
		t.Fatalf("unexpected nil-store load: %v %s", got, outcome)
	}
	if p.Save(nil) != OutcomeFailed || p.Clear() != OutcomeFailed {
		t.Fatalf("expected failed outcomes")
	}
	if NewPersistence(nil, nil).Backend() != "none" {
		t.Fatalf("expected none backend")
	}
}

func TestPersistenceCorruptRecord(t *testing.T) {
	for _, raw := range []string{"", "null", "{", `{"type":"user"}`} {
		mem := store.NewMemoryHistoryStore()
		mem.SetRaw([]byte(raw))
		got, outcome := NewPersistence(mem, nil).Load()
		if raw == "" {
			// SetRaw with no bytes leaves nothing stored.
			if outcome != OutcomeMissing {
				t.Fatalf("expected missing for empty raw, got %s", outcome)
			}
			continue
		}
		if outcome != OutcomeCorrupt || len(got) != 0 {
			t.Fatalf("raw %q: expected corrupt empty history, got %v %s", raw, got, outcome)
		}
	}
}
