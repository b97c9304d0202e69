package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/metrics"
	"github.com/hanrgy/docs-bot/internal/rag/assembler"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
	"github.com/hanrgy/docs-bot/internal/rag/synthesizer"
)

func (s *service) executeBatchEmbeddingStep(ctx context.Context, chunks []commonModels.DocChunk) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, config.EmbeddingCallTimeout)
	defer cancel()

	vectors, err := s.embedder.BatchEmbedding(embedCtx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks: %w: %v", len(chunks), ragError.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks: %w", len(vectors), len(chunks), ragError.ErrEmbeddingFailed)
	}
	return vectors, nil
}

// executeQueryEmbeddingStep embeds the question for the semantic
// sub-query, bounded by the embedding timeout. Runs before the engine
// read lock is taken so a slow provider never blocks writers.
func (s *service) executeQueryEmbeddingStep(ctx context.Context, question string) ([]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("query_embedding", time.Since(start)) }()

	embedCtx, cancel := context.WithTimeout(ctx, config.EmbeddingCallTimeout)
	defer cancel()

	vector, err := s.embedder.GetEmbedding(embedCtx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w: %v", ragError.ErrEmbeddingFailed, err)
	}
	return vector, nil
}

// executeRetrievalStep ranks and assembles. Caller holds the read lock;
// nothing in here calls out of process.
func (s *service) executeRetrievalStep(question string, queryVector []float32) (assembler.Context, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("hybrid_search", time.Since(start)) }()

	candidates := s.ranker.Rank(question, queryVector, config.SearchTopK)
	return assembler.Assemble(candidates, config.ContextTokenBudget, func(chunkId string) (commonModels.DocChunk, bool) {
		chunk, ok := s.chunks[chunkId]
		return chunk, ok
	})
}

func (s *service) executeSynthesisStep(ctx context.Context, question string, assembled assembler.Context, mode llm.Mode, filenames map[string]string) (synthesizer.Result, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	genCtx, cancel := context.WithTimeout(ctx, config.GenerationCallTimeout)
	defer cancel()

	return s.synthesizer.Synthesize(genCtx, question, assembled, mode, func(docId string) string {
		return filenames[docId]
	})
}
