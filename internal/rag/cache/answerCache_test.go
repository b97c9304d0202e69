package cache

import (
	"fmt"
	"testing"

	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
)

func answer(text string) commonModels.AnswerResult {
	return commonModels.AnswerResult{Answer: text}
}

func TestCache_HitRequiresSameQuestionAndFingerprint(t *testing.T) {
	c := New(4)
	c.Put("vacation days?", "fp1", answer("15 days"))

	if _, ok := c.Get("vacation days?", "fp1"); !ok {
		t.Error("Expected hit for identical question and fingerprint")
	}
	if _, ok := c.Get("vacation days?", "fp2"); ok {
		t.Error("Fingerprint change must miss")
	}
	if _, ok := c.Get("sick days?", "fp1"); ok {
		t.Error("Different question must miss")
	}
}

func TestCache_EvictsLeastRecentlyInserted(t *testing.T) {
	c := New(2)
	c.Put("q1", "fp", answer("a1"))
	c.Put("q2", "fp", answer("a2"))

	//reading q1 must not save it from eviction
	c.Get("q1", "fp")
	c.Put("q3", "fp", answer("a3"))

	if _, ok := c.Get("q1", "fp"); ok {
		t.Error("Oldest insertion should have been evicted")
	}
	if _, ok := c.Get("q2", "fp"); !ok {
		t.Error("q2 should survive")
	}
	if _, ok := c.Get("q3", "fp"); !ok {
		t.Error("q3 should be present")
	}
}

func TestCache_BoundedAtCapacity(t *testing.T) {
	c := New(8)
	for i := 0; i < 50; i++ {
		c.Put(fmt.Sprintf("q%d", i), "fp", answer("a"))
	}
	if c.Len() != 8 {
		t.Errorf("Cache size %d, want 8", c.Len())
	}
}

func TestCache_OverwriteKeepsPosition(t *testing.T) {
	c := New(2)
	c.Put("q1", "fp", answer("old"))
	c.Put("q2", "fp", answer("a2"))
	c.Put("q1", "fp", answer("new"))
	c.Put("q3", "fp", answer("a3")) //evicts q1, still the oldest insertion

	if _, ok := c.Get("q1", "fp"); ok {
		t.Error("Overwrite must not refresh insertion order")
	}
	if got, ok := c.Get("q2", "fp"); !ok || got.Answer != "a2" {
		t.Errorf("q2 lost or corrupted: %+v ok=%v", got, ok)
	}
}

func TestCache_ZeroCapacityStoresNothing(t *testing.T) {
	c := New(0)
	c.Put("q", "fp", answer("a"))
	if c.Len() != 0 {
		t.Errorf("Zero-capacity cache stored %d entries", c.Len())
	}
}
