package rag_test

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/internal/rag/tokenizer"
)

// MockEmbedder implements embedding.Embedder with a deterministic
// bag-of-words hash. Texts sharing terms get similar vectors, so the
// semantic index behaves believably without a network call.
type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, query string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return hashVector(query), nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	out := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		out[i] = hashVector(chunk)
	}
	return out, nil
}

func hashVector(text string) []float32 {
	v := make([]float32, config.EmbeddingDims)
	for _, term := range tokenizer.LexicalTerms(text) {
		h := fnv.New32a()
		h.Write([]byte(term))
		v[h.Sum32()%uint32(config.EmbeddingDims)]++
	}
	norm := float32(0)
	for _, x := range v {
		norm += x * x
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(float64(norm)))
		for i := range v {
			v[i] *= scale
		}
	}
	return v
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, prompt string, systemInstruction string, mode llm.Mode) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, systemInstruction string, mode llm.Mode) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt, systemInstruction, mode)
	}
	return "mocked llm response [Source 1]", nil
}
