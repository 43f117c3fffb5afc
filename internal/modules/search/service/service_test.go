package service

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
)

func rawString(t *testing.T, s string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal %q: %v", s, err)
	}
	return raw
}

func TestIDsFromHits(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	hits := meilisearch.Hits{
		{"id": rawString(t, first.String()), "title": rawString(t, "Calculus textbook")},
		{"title": rawString(t, "no id field")},
		{"id": rawString(t, "not-a-uuid")},
		{"id": json.RawMessage(`42`)},
		{"id": rawString(t, second.String())},
	}

	ids := idsFromHits(hits)

	want := []uuid.UUID{first, second}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
}

func TestIDsFromHitsEmpty(t *testing.T) {
	if ids := idsFromHits(nil); len(ids) != 0 {
		t.Errorf("got %d ids from nil hits, want 0", len(ids))
	}
}
