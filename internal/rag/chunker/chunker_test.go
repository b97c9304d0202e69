package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hanrgy/docs-bot/internal/rag/ragError"
)

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("word%d", i))
	}
	return b.String()
}

func TestSplit_Degenerate(t *testing.T) {
	p := Params{TargetTokens: 50, OverlapTokens: 10, HardTokenRuneCeiling: 100}

	t.Run("empty document yields zero chunks", func(t *testing.T) {
		chunks, err := Split("doc-1", "   \n\t ", p)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if len(chunks) != 0 {
			t.Errorf("Expected 0 chunks, got %d", len(chunks))
		}
	})

	t.Run("document under target yields one chunk", func(t *testing.T) {
		chunks, err := Split("doc-1", words(20), p)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if len(chunks) != 1 {
			t.Fatalf("Expected 1 chunk, got %d", len(chunks))
		}
		if chunks[0].TokenCount != 20 {
			t.Errorf("TokenCount got %d, want 20", chunks[0].TokenCount)
		}
		if chunks[0].Id != "doc-1_0" {
			t.Errorf("Chunk id got %s", chunks[0].Id)
		}
	})

	t.Run("oversized indivisible token fails", func(t *testing.T) {
		giant := strings.Repeat("x", 101)
		_, err := Split("doc-1", "small "+giant+" tail", p)
		if !errors.Is(err, ragError.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("overlap not below target rejected", func(t *testing.T) {
		_, err := Split("doc-1", words(5), Params{TargetTokens: 10, OverlapTokens: 10, HardTokenRuneCeiling: 100})
		if !errors.Is(err, ragError.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSplit_OverlapAndCoverage(t *testing.T) {
	p := Params{TargetTokens: 50, OverlapTokens: 10, HardTokenRuneCeiling: 100}
	text := words(180)

	chunks, err := Split("doc-1", text, p)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("Expected several chunks for 180 tokens, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.TokenCount > p.TargetTokens {
			t.Errorf("Chunk %d has %d tokens, over target %d", i, c.TokenCount, p.TargetTokens)
		}
		if c.Sequence != i {
			t.Errorf("Chunk %d sequence got %d", i, c.Sequence)
		}
		if text[c.StartOffset:c.EndOffset] != c.Text {
			t.Errorf("Chunk %d text does not match its offsets", i)
		}
	}

	//completeness: offsets are monotone and the next chunk always starts
	//inside (or at the end of) the previous one - no uncovered gap
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		if cur.StartOffset < prev.StartOffset || cur.EndOffset < prev.EndOffset {
			t.Errorf("Offsets regressed between chunk %d and %d", i-1, i)
		}
		if cur.StartOffset > prev.EndOffset {
			t.Errorf("Gap between chunk %d (end %d) and chunk %d (start %d)", i-1, prev.EndOffset, i, cur.StartOffset)
		}
	}
	if chunks[len(chunks)-1].EndOffset != len(text) {
		t.Errorf("Final chunk ends at %d, want %d", chunks[len(chunks)-1].EndOffset, len(text))
	}

	//overlap: the head of each chunk repeats the tail of the one before it
	for i := 1; i < len(chunks); i++ {
		overlapText := text[chunks[i].StartOffset:chunks[i-1].EndOffset]
		if !strings.HasPrefix(chunks[i].Text, overlapText) {
			t.Errorf("Chunk %d head does not repeat chunk %d tail", i, i-1)
		}
		if !strings.HasSuffix(chunks[i-1].Text, overlapText) {
			t.Errorf("Chunk %d tail missing from overlap", i-1)
		}
	}
}

func TestSplit_Reconstruction(t *testing.T) {
	p := Params{TargetTokens: 40, OverlapTokens: 8, HardTokenRuneCeiling: 100}
	text := words(333)

	chunks, err := Split("doc-1", text, p)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	//stitch chunks back together by dropping each chunk's overlap prefix
	rebuilt := chunks[0].Text
	for i := 1; i < len(chunks); i++ {
		cut := chunks[i-1].EndOffset - chunks[i].StartOffset
		rebuilt += chunks[i].Text[cut:]
	}
	if rebuilt != text {
		t.Error("Re-concatenating chunks minus overlaps did not reconstruct the source")
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	p := Params{TargetTokens: 30, OverlapTokens: 5, HardTokenRuneCeiling: 100}

	//paragraph break after 20 tokens, well past the half-target floor
	text := words(20) + "\n\n" + strings.ReplaceAll(words(40), "word", "tail")

	chunks, err := Split("doc-1", text, p)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected at least 2 chunks, got %d", len(chunks))
	}
	if chunks[0].TokenCount != 20 {
		t.Errorf("First chunk should stop at the paragraph break (20 tokens), got %d", chunks[0].TokenCount)
	}
}

func TestSplit_SentenceFallback(t *testing.T) {
	p := Params{TargetTokens: 30, OverlapTokens: 5, HardTokenRuneCeiling: 100}

	//no paragraph breaks, one sentence end at token 25
	head := words(24) + " final."
	text := head + " " + strings.ReplaceAll(words(40), "word", "next")

	chunks, err := Split("doc-1", text, p)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "final.") {
		t.Errorf("First chunk should end at the sentence boundary, got %q tail", chunks[0].Text[len(chunks[0].Text)-20:])
	}
}
