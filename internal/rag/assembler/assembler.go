package assembler

import (
	"fmt"

	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
)

// Context is the token-bounded selection handed to the synthesizer.
// Chunks keep candidate rank order, DocIds preserves first-seen order for
// multi-document attribution.
type Context struct {
	Chunks      []commonModels.DocChunk
	Scores      []float64 //fused score per chunk, same positions
	TokensUsed  int
	TokenBudget int
	DocIds      []string
}

// ChunkLookup resolves a candidate's chunk id to its stored chunk.
type ChunkLookup func(chunkId string) (commonModels.DocChunk, bool)

// Assemble selects the rank-order prefix of candidates whose cumulative
// token count fits the budget. A chunk is never split across the boundary:
// the first candidate that does not fit ends the prefix even if budget
// remains. When not even the first candidate fits, the smallest candidate
// that does fit is used alone, and if none fits the caller gets
// ErrContextTooLarge to resolve by raising the budget or dropping the set.
func Assemble(candidates []commonModels.RankedCandidate, tokenBudget int, lookup ChunkLookup) (Context, error) {
	out := Context{TokenBudget: tokenBudget}
	if len(candidates) == 0 {
		return out, nil
	}

	seenDocs := make(map[string]bool)
	for _, candidate := range candidates {
		chunk, ok := lookup(candidate.ChunkId)
		if !ok {
			continue //candidate raced a delete, skip it
		}
		if out.TokensUsed+chunk.TokenCount > tokenBudget {
			break
		}
		appendChunk(&out, chunk, candidate.FusedScore, seenDocs)
	}

	if len(out.Chunks) > 0 {
		return out, nil
	}

	//nothing fit as a prefix - fall back to the single smallest candidate
	smallest, score, found := smallestChunk(candidates, lookup)
	if !found {
		return out, nil //every candidate raced a delete, same as an empty set
	}
	if smallest.TokenCount <= tokenBudget {
		appendChunk(&out, smallest, score, seenDocs)
		return out, nil
	}
	return Context{}, fmt.Errorf("assembler: smallest candidate has %d tokens, budget %d: %w",
		smallest.TokenCount, tokenBudget, ragError.ErrContextTooLarge)
}

func appendChunk(out *Context, chunk commonModels.DocChunk, score float64, seenDocs map[string]bool) {
	out.Chunks = append(out.Chunks, chunk)
	out.Scores = append(out.Scores, score)
	out.TokensUsed += chunk.TokenCount
	if !seenDocs[chunk.DocId] {
		seenDocs[chunk.DocId] = true
		out.DocIds = append(out.DocIds, chunk.DocId)
	}
}

func smallestChunk(candidates []commonModels.RankedCandidate, lookup ChunkLookup) (commonModels.DocChunk, float64, bool) {
	var best commonModels.DocChunk
	var bestScore float64
	found := false
	for _, candidate := range candidates {
		chunk, ok := lookup(candidate.ChunkId)
		if !ok {
			continue
		}
		if !found || chunk.TokenCount < best.TokenCount {
			best, bestScore, found = chunk, candidate.FusedScore, true
		}
	}
	return best, bestScore, found
}
