package keywordIndex

import (
	"math"
	"sort"
	"sync"

	"github.com/hanrgy/docs-bot/internal/rag/tokenizer"
)

// Hit is one lexical match. BM25 scores are non-negative and unbounded.
type Hit struct {
	ChunkId string
	DocId   string
	Score   float64
}

type chunkEntry struct {
	docId  string
	length int //term count, the BM25 document length
	freqs  map[string]int
	seq    int64
}

// Index is an inverted BM25 index over chunk text, rebuilt incrementally
// as chunks are added and removed. Tokenization is tokenizer.LexicalTerms,
// the tests depend on it staying deterministic.
type Index struct {
	mu       sync.RWMutex
	k1       float64
	b        float64
	postings map[string]map[string]int //term -> chunkId -> term frequency
	chunks   map[string]*chunkEntry
	totalLen int
	nextSeq  int64
}

func New(k1, b float64) *Index {
	return &Index{
		k1:       k1,
		b:        b,
		postings: make(map[string]map[string]int),
		chunks:   make(map[string]*chunkEntry),
	}
}

func (idx *Index) Upsert(chunkId string, docId string, text string) {
	terms := tokenizer.LexicalTerms(text)
	freqs := make(map[string]int, len(terms))
	for _, term := range terms {
		freqs[term]++
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.dropLocked(chunkId)

	entry := &chunkEntry{
		docId:  docId,
		length: len(terms),
		freqs:  freqs,
		seq:    idx.nextSeq,
	}
	idx.nextSeq++
	idx.chunks[chunkId] = entry
	idx.totalLen += entry.length

	for term, tf := range freqs {
		posting, ok := idx.postings[term]
		if !ok {
			posting = make(map[string]int)
			idx.postings[term] = posting
		}
		posting[chunkId] = tf
	}
}

// Remove drops every chunk belonging to the document and updates the
// index-wide frequency aggregates.
func (idx *Index) Remove(docId string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for chunkId, entry := range idx.chunks {
		if entry.docId == docId {
			idx.dropLocked(chunkId)
			removed++
		}
	}
	return removed
}

func (idx *Index) dropLocked(chunkId string) {
	entry, ok := idx.chunks[chunkId]
	if !ok {
		return
	}
	for term := range entry.freqs {
		posting := idx.postings[term]
		delete(posting, chunkId)
		if len(posting) == 0 {
			delete(idx.postings, term)
		}
	}
	idx.totalLen -= entry.length
	delete(idx.chunks, chunkId)
}

// Query scores every chunk containing at least one query term and returns
// the top k by descending BM25 score, ties broken by insertion order.
// Terms absent from the index contribute zero, a query matching nothing
// returns an empty list.
func (idx *Index) Query(text string, k int) []Hit {
	queryTerms := tokenizer.LexicalTerms(text)
	if len(queryTerms) == 0 || k <= 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.chunks)
	if n == 0 {
		return nil
	}
	avgdl := float64(idx.totalLen) / float64(n)

	scores := make(map[string]float64)
	seen := make(map[string]bool, len(queryTerms))
	for _, term := range queryTerms {
		if seen[term] {
			continue //repeated query terms count once
		}
		seen[term] = true

		posting, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := len(posting)
		idf := math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1.0)

		for chunkId, tf := range posting {
			entry := idx.chunks[chunkId]
			denom := float64(tf) + idx.k1*(1-idx.b+idx.b*float64(entry.length)/avgdl)
			scores[chunkId] += idf * float64(tf) * (idx.k1 + 1) / denom
		}
	}

	hits := make([]Hit, 0, len(scores))
	for chunkId, score := range scores {
		hits = append(hits, Hit{ChunkId: chunkId, DocId: idx.chunks[chunkId].docId, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return idx.chunks[hits[i].ChunkId].seq < idx.chunks[hits[j].ChunkId].seq
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}
