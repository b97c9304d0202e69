package synthesizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/rag/assembler"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
)

type mockProvider struct {
	onGenerate func(ctx context.Context, prompt, systemInstruction string, mode llm.Mode) (string, error)
}

func (m *mockProvider) Generate(ctx context.Context, prompt, systemInstruction string, mode llm.Mode) (string, error) {
	return m.onGenerate(ctx, prompt, systemInstruction, mode)
}

func assembledFrom(texts ...string) assembler.Context {
	out := assembler.Context{}
	for i, text := range texts {
		out.Chunks = append(out.Chunks, commonModels.DocChunk{
			Id:    commonModels.ChunkId("d1", i),
			DocId: "d1",
			Text:  text,
		})
		out.Scores = append(out.Scores, 0.5)
	}
	return out
}

func filenames(docId string) string { return "handbook.pdf" }

func TestSynthesize_PromptNumbersSourcesInOrder(t *testing.T) {
	var gotPrompt string
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
			gotPrompt = prompt
			return "See [Source 1].", nil
		},
	}

	s := New(provider)
	_, err := s.Synthesize(context.Background(), "vacation?", assembledFrom("first text", "second text"), llm.ModeSummary, filenames)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	first := strings.Index(gotPrompt, "[Source 1] first text")
	second := strings.Index(gotPrompt, "[Source 2] second text")
	if first < 0 || second < 0 || second < first {
		t.Errorf("Prompt sources missing or out of order:\n%s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Question: vacation?") {
		t.Errorf("Prompt missing the question:\n%s", gotPrompt)
	}
}

func TestSynthesize_ExtractsCitedSourcesOnly(t *testing.T) {
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
			return "Policy per [Source 2], confirmed by [Source 2] again.", nil
		},
	}

	s := New(provider)
	result, err := s.Synthesize(context.Background(), "q", assembledFrom("a", "b", "c"), llm.ModeSummary, filenames)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(result.Citations) != 1 {
		t.Fatalf("Expected 1 deduplicated citation, got %d", len(result.Citations))
	}
	if result.Citations[0].Id != 2 || result.Citations[0].ChunkId != "d1_1" {
		t.Errorf("Wrong citation extracted: %+v", result.Citations[0])
	}
	if result.Citations[0].Filename != "handbook.pdf" {
		t.Errorf("Filename not resolved: %+v", result.Citations[0])
	}
}

func TestSynthesize_DropsOutOfRangeMarkers(t *testing.T) {
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
			return "Per [Source 1] and [Source 9].", nil
		},
	}

	s := New(provider)
	result, err := s.Synthesize(context.Background(), "q", assembledFrom("a"), llm.ModeSummary, filenames)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(result.Citations) != 1 || result.Citations[0].Id != 1 {
		t.Errorf("Expected only the in-range citation, got %+v", result.Citations)
	}
}

func TestSynthesize_ProviderFailureIsGenerationError(t *testing.T) {
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
			return "", errors.New("upstream 500")
		},
	}

	s := New(provider)
	_, err := s.Synthesize(context.Background(), "q", assembledFrom("a"), llm.ModeSummary, filenames)
	if !errors.Is(err, ragError.ErrGenerationFailed) {
		t.Fatalf("Expected ErrGenerationFailed, got %v", err)
	}
}

func TestSynthesize_QuoteModeTightensInstruction(t *testing.T) {
	var summarySys, quoteSys string
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
			if mode == llm.ModeQuote {
				quoteSys = sys
			} else {
				summarySys = sys
			}
			return "ok answer", nil
		},
	}

	s := New(provider)
	if _, err := s.Synthesize(context.Background(), "q", assembledFrom("a"), llm.ModeSummary, filenames); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "q", assembledFrom("a"), llm.ModeQuote, filenames); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !strings.Contains(quoteSys, "verbatim") || strings.Contains(summarySys, "verbatim") {
		t.Error("Quote mode must add the verbatim instruction, summary mode must not")
	}
}

func TestSynthesize_ExcerptIsBounded(t *testing.T) {
	long := strings.Repeat("x", config.MaxExcerptRunes*2)
	provider := &mockProvider{
		onGenerate: func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
			return "See [Source 1].", nil
		},
	}

	s := New(provider)
	result, err := s.Synthesize(context.Background(), "q", assembledFrom(long), llm.ModeSummary, filenames)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	got := result.Citations[0].Excerpt
	if len([]rune(got)) != config.MaxExcerptRunes+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("Excerpt not truncated to %d runes with ellipsis, got %d runes", config.MaxExcerptRunes, len([]rune(got)))
	}
}
