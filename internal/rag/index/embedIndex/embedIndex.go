package embedIndex

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hanrgy/docs-bot/internal/rag/ragError"
)

// Hit is one nearest-neighbor match, similarity in cosine terms.
type Hit struct {
	ChunkId    string
	DocId      string
	Similarity float64
}

type entry struct {
	chunkId string
	docId   string
	vector  []float32
	norm    float64
	seq     int64 //insertion order, breaks similarity ties deterministically
}

// Index is the in-memory semantic store. Dimensionality is fixed at
// construction, a mismatched vector is rejected before it can corrupt
// query results.
type Index struct {
	mu      sync.RWMutex
	dims    int
	entries map[string]*entry
	nextSeq int64
}

func New(dims int) *Index {
	return &Index{
		dims:    dims,
		entries: make(map[string]*entry),
	}
}

func (idx *Index) Upsert(chunkId string, docId string, vector []float32) error {
	if len(vector) != idx.dims {
		return fmt.Errorf("embedIndex: got %d dims, index holds %d: %w", len(vector), idx.dims, ragError.ErrDimensionMismatch)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.entries[chunkId]; ok {
		existing.vector = vector
		existing.norm = vectorNorm(vector)
		existing.docId = docId
		return nil
	}
	idx.entries[chunkId] = &entry{
		chunkId: chunkId,
		docId:   docId,
		vector:  vector,
		norm:    vectorNorm(vector),
		seq:     idx.nextSeq,
	}
	idx.nextSeq++
	return nil
}

// Remove drops every chunk belonging to the document.
func (idx *Index) Remove(docId string) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	removed := 0
	for id, e := range idx.entries {
		if e.docId == docId {
			delete(idx.entries, id)
			removed++
		}
	}
	return removed
}

// Query returns up to k hits ordered by descending cosine similarity,
// ties broken by chunk insertion order. An empty index returns an empty
// list, not an error.
func (idx *Index) Query(vector []float32, k int) ([]Hit, error) {
	if len(vector) != idx.dims {
		return nil, fmt.Errorf("embedIndex: query vector has %d dims, index holds %d: %w", len(vector), idx.dims, ragError.ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	queryNorm := vectorNorm(vector)
	type scored struct {
		hit Hit
		seq int64
	}
	results := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		results = append(results, scored{
			hit: Hit{ChunkId: e.chunkId, DocId: e.docId, Similarity: cosine(vector, queryNorm, e.vector, e.norm)},
			seq: e.seq,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].hit.Similarity != results[j].hit.Similarity {
			return results[i].hit.Similarity > results[j].hit.Similarity
		}
		return results[i].seq < results[j].seq
	})

	if len(results) > k {
		results = results[:k]
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = r.hit
	}
	return hits, nil
}

func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
