package embedIndex

import (
	"errors"
	"testing"

	"github.com/hanrgy/docs-bot/internal/rag/ragError"
)

func TestUpsertAndQuery(t *testing.T) {
	idx := New(3)

	if err := idx.Upsert("d1_0", "d1", []float32{1, 0, 0}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := idx.Upsert("d1_1", "d1", []float32{0, 1, 0}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := idx.Upsert("d2_0", "d2", []float32{0.9, 0.1, 0}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	hits, err := idx.Query([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkId != "d1_0" {
		t.Errorf("Top hit got %s, want d1_0", hits[0].ChunkId)
	}
	if hits[0].Similarity < 0.999 {
		t.Errorf("Exact match similarity got %f", hits[0].Similarity)
	}
	if hits[1].ChunkId != "d2_0" {
		t.Errorf("Second hit got %s, want d2_0", hits[1].ChunkId)
	}
}

func TestDimensionMismatch(t *testing.T) {
	idx := New(3)

	if err := idx.Upsert("d1_0", "d1", []float32{1, 0}); !errors.Is(err, ragError.ErrDimensionMismatch) {
		t.Errorf("Upsert: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := idx.Query([]float32{1, 0, 0, 0}, 5); !errors.Is(err, ragError.ErrDimensionMismatch) {
		t.Errorf("Query: expected ErrDimensionMismatch, got %v", err)
	}
}

func TestEmptyIndexReturnsEmpty(t *testing.T) {
	idx := New(3)
	hits, err := idx.Query([]float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Query on empty index should not error: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no hits, got %d", len(hits))
	}
}

func TestTieBreakByInsertionOrder(t *testing.T) {
	idx := New(2)

	//identical vectors, identical similarity - insertion order must decide
	idx.Upsert("z_later_id", "z", []float32{1, 1})
	idx.Upsert("a_earlier_id", "a", []float32{1, 1})

	hits, err := idx.Query([]float32{1, 1}, 2)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if hits[0].ChunkId != "z_later_id" {
		t.Errorf("Tie should go to the first inserted chunk, got %s", hits[0].ChunkId)
	}
}

func TestRemoveCascades(t *testing.T) {
	idx := New(2)
	idx.Upsert("d1_0", "d1", []float32{1, 0})
	idx.Upsert("d1_1", "d1", []float32{0, 1})
	idx.Upsert("d2_0", "d2", []float32{1, 1})

	removed := idx.Remove("d1")
	if removed != 2 {
		t.Errorf("Remove got %d, want 2", removed)
	}
	if idx.Size() != 1 {
		t.Errorf("Size got %d, want 1", idx.Size())
	}

	hits, _ := idx.Query([]float32{1, 0}, 10)
	for _, h := range hits {
		if h.DocId == "d1" {
			t.Errorf("Query still returns removed document chunk %s", h.ChunkId)
		}
	}
}

func TestUpsertReplacesVector(t *testing.T) {
	idx := New(2)
	idx.Upsert("d1_0", "d1", []float32{1, 0})
	idx.Upsert("d1_0", "d1", []float32{0, 1})

	if idx.Size() != 1 {
		t.Fatalf("Size got %d, want 1", idx.Size())
	}
	hits, _ := idx.Query([]float32{0, 1}, 1)
	if hits[0].Similarity < 0.999 {
		t.Errorf("Replaced vector not used, similarity %f", hits[0].Similarity)
	}
}
