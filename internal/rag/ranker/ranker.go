package ranker

import (
	"sort"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/rag/index/embedIndex"
	"github.com/hanrgy/docs-bot/internal/rag/index/keywordIndex"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

// Ranker fuses semantic and lexical retrieval into one candidate list.
// Both sub-indexes are injected, nothing here owns index state.
type Ranker struct {
	semantic    *embedIndex.Index
	lexical     *keywordIndex.Index
	rrfConstant int
	logger      *logger_i.Logger
}

func New(semantic *embedIndex.Index, lexical *keywordIndex.Index) *Ranker {
	return &Ranker{
		semantic:    semantic,
		lexical:     lexical,
		rrfConstant: config.RRFConstant,
		logger:      logger_i.NewLogger("HybridRanker"),
	}
}

// Rank runs both sub-queries concurrently and fuses the rankings. The
// caller embeds the question; a nil queryVector means the semantic side
// is unavailable and the lexical ranking stands alone. One sub-ranking
// contributing nothing is a degraded-but-valid outcome, an empty fused
// list included.
func (r *Ranker) Rank(question string, queryVector []float32, k int) []commonModels.RankedCandidate {
	if k <= 0 {
		return nil
	}
	subK := k * config.SubQueryExpand

	semanticChan := make(chan []embedIndex.Hit, 1)
	go func() {
		if queryVector == nil {
			semanticChan <- nil
			return
		}
		hits, err := r.semantic.Query(queryVector, subK)
		if err != nil {
			r.logger.Warn("Semantic sub-query failed, fusing lexical only", "error", err)
			semanticChan <- nil
			return
		}
		semanticChan <- hits
	}()

	lexicalChan := make(chan []keywordIndex.Hit, 1)
	go func() {
		lexicalChan <- r.lexical.Query(question, subK)
	}()

	fused := r.fuse(<-semanticChan, <-lexicalChan)
	if len(fused) > k {
		fused = fused[:k]
	}
	return fused
}

// fuse applies reciprocal rank fusion: a chunk at 1-indexed rank n in a
// sub-ranking contributes 1/(constant+n), contributions sum per chunk id.
// Final order is descending fused score, ties broken by the higher raw
// sub-score, then chunk id.
func (r *Ranker) fuse(semantic []embedIndex.Hit, lexical []keywordIndex.Hit) []commonModels.RankedCandidate {
	merged := make(map[string]*commonModels.RankedCandidate)

	for i, hit := range semantic {
		rank := i + 1
		merged[hit.ChunkId] = &commonModels.RankedCandidate{
			ChunkId:       hit.ChunkId,
			DocId:         hit.DocId,
			SemanticScore: hit.Similarity,
			SemanticRank:  rank,
			FusedScore:    1.0 / float64(r.rrfConstant+rank),
		}
	}

	for i, hit := range lexical {
		rank := i + 1
		contribution := 1.0 / float64(r.rrfConstant+rank)
		if existing, ok := merged[hit.ChunkId]; ok {
			existing.LexicalScore = hit.Score
			existing.LexicalRank = rank
			existing.FusedScore += contribution
		} else {
			merged[hit.ChunkId] = &commonModels.RankedCandidate{
				ChunkId:      hit.ChunkId,
				DocId:        hit.DocId,
				LexicalScore: hit.Score,
				LexicalRank:  rank,
				FusedScore:   contribution,
			}
		}
	}

	candidates := make([]commonModels.RankedCandidate, 0, len(merged))
	for _, c := range merged {
		candidates = append(candidates, *c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		if maxRaw(a) != maxRaw(b) {
			return maxRaw(a) > maxRaw(b)
		}
		return a.ChunkId < b.ChunkId
	})
	return candidates
}

func maxRaw(c commonModels.RankedCandidate) float64 {
	if c.SemanticScore > c.LexicalScore {
		return c.SemanticScore
	}
	return c.LexicalScore
}
