package rag

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/metrics"
	"github.com/hanrgy/docs-bot/internal/rag/assembler"
	"github.com/hanrgy/docs-bot/internal/rag/cache"
	"github.com/hanrgy/docs-bot/internal/rag/chunker"
	"github.com/hanrgy/docs-bot/internal/rag/confidence"
	"github.com/hanrgy/docs-bot/internal/rag/embedding"
	"github.com/hanrgy/docs-bot/internal/rag/index/embedIndex"
	"github.com/hanrgy/docs-bot/internal/rag/index/keywordIndex"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
	"github.com/hanrgy/docs-bot/internal/rag/ranker"
	"github.com/hanrgy/docs-bot/internal/rag/synthesizer"
	"github.com/hanrgy/docs-bot/internal/rag/tokenizer"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

// Service is the public contract of the question answering core. Callers
// (workers, handlers, the MCP server) only see this, never the indexes or
// provider clients behind it.
type Service interface {
	IngestDocument(ctx context.Context, docId string, filename string, fileType string, text string) (commonModels.Document, error)
	DeleteDocument(ctx context.Context, docId string) error
	AnswerQuestion(ctx context.Context, question string, mode llm.Mode) (commonModels.AnswerResult, error)
	ListDocuments() []commonModels.Document
	Health() commonModels.HealthStats
}

type service struct {
	//mu guards documents, chunks and both indexes as one unit, so a
	//commit lands in the semantic and lexical index atomically with
	//respect to readers.
	mu        sync.RWMutex
	documents map[string]commonModels.Document
	chunks    map[string]commonModels.DocChunk

	//docLocks serializes ingest and delete per document id while
	//leaving different documents free to proceed in parallel.
	docLocksMu sync.Mutex
	docLocks   map[string]*sync.Mutex

	semantic *embedIndex.Index
	lexical  *keywordIndex.Index

	ranker      *ranker.Ranker
	synthesizer *synthesizer.Synthesizer
	embedder    embedding.Embedder
	answerCache *cache.AnswerCache
	logger      *logger_i.Logger
}

// NewService wires the retrieval and synthesis pipeline. Both indexes are
// in-memory and owned here, the embedder and llm provider are injected so
// tests can swap them for mocks.
func NewService(embedder embedding.Embedder, provider llm.Provider) Service {
	semantic := embedIndex.New(config.EmbeddingDims)
	lexical := keywordIndex.New(config.BM25K1, config.BM25B)
	return &service{
		documents:   make(map[string]commonModels.Document),
		chunks:      make(map[string]commonModels.DocChunk),
		docLocks:    make(map[string]*sync.Mutex),
		semantic:    semantic,
		lexical:     lexical,
		ranker:      ranker.New(semantic, lexical),
		synthesizer: synthesizer.New(provider),
		embedder:    embedder,
		answerCache: cache.New(config.AnswerCacheCapacity),
		logger:      logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) IngestDocument(ctx context.Context, docId, filename, fileType, text string) (commonModels.Document, error) {
	if strings.TrimSpace(docId) == "" || strings.TrimSpace(text) == "" {
		return commonModels.Document{}, fmt.Errorf("ingest needs a document id and non-empty text: %w", ragError.ErrInvalidInput)
	}

	unlock := s.lockDocument(docId)
	defer unlock()

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	chunks, err := chunker.Split(docId, text, chunker.DefaultParams())
	if err != nil {
		return commonModels.Document{}, err
	}

	vectors, err := s.executeBatchEmbeddingStep(ctx, chunks)
	if err != nil {
		return commonModels.Document{}, err
	}
	for i := range chunks {
		chunks[i].Vector = vectors[i]
	}

	doc := commonModels.Document{
		Id:         docId,
		Filename:   filename,
		FileType:   commonModels.DocType(fileType),
		SizeBytes:  int64(len(text)),
		WordCount:  tokenizer.Count(text),
		ChunkCount: len(chunks),
		UploadedAt: time.Now().UTC(),
	}

	if err := s.commitDocument(doc, chunks); err != nil {
		return commonModels.Document{}, err
	}
	s.logger.Info("Document ingested", "docId", docId, "chunks", len(chunks), "words", doc.WordCount)
	return doc, nil
}

// commitDocument swaps the document into both indexes under the write
// lock. Re-ingesting an existing id replaces its previous chunks.
func (s *service) commitDocument(doc commonModels.Document, chunks []commonModels.DocChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.removeLocked(doc.Id)

	for _, chunk := range chunks {
		if err := s.semantic.Upsert(chunk.Id, chunk.DocId, chunk.Vector); err != nil {
			//roll the partial insert back so readers never see half a document
			s.removeLocked(doc.Id)
			return err
		}
		s.lexical.Upsert(chunk.Id, chunk.DocId, chunk.Text)
		s.chunks[chunk.Id] = chunk
	}
	s.documents[doc.Id] = doc

	metrics.AddIndexedChunks(len(chunks) - removed)
	metrics.SetIndexedDocuments(len(s.documents))
	return nil
}

func (s *service) DeleteDocument(ctx context.Context, docId string) error {
	if strings.TrimSpace(docId) == "" {
		return fmt.Errorf("delete needs a document id: %w", ragError.ErrInvalidInput)
	}

	unlock := s.lockDocument(docId)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[docId]; !ok {
		return fmt.Errorf("document %s: %w", docId, ragError.ErrDocumentNotFound)
	}
	removed := s.removeLocked(docId)
	metrics.AddIndexedChunks(-removed)
	metrics.SetIndexedDocuments(len(s.documents))
	s.logger.Info("Document deleted", "docId", docId, "chunksRemoved", removed)
	return nil
}

// removeLocked drops a document from every structure. Caller holds mu.
func (s *service) removeLocked(docId string) int {
	removed := s.semantic.Remove(docId)
	s.lexical.Remove(docId)
	for chunkId, chunk := range s.chunks {
		if chunk.DocId == docId {
			delete(s.chunks, chunkId)
		}
	}
	delete(s.documents, docId)
	return removed
}

func (s *service) AnswerQuestion(ctx context.Context, question string, mode llm.Mode) (commonModels.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return commonModels.AnswerResult{}, fmt.Errorf("question must not be empty: %w", ragError.ErrInvalidInput)
	}
	if mode == "" {
		mode = llm.ModeSummary
	}

	start := time.Now()
	status := "ok"
	defer func() { metrics.CaptureJobMetrics(status, time.Since(start)) }()

	s.mu.RLock()
	if len(s.documents) == 0 {
		s.mu.RUnlock()
		status = "no_documents"
		return commonModels.AnswerResult{}, fmt.Errorf("corpus is empty: %w", ragError.ErrNoDocuments)
	}
	fingerprint := s.fingerprintLocked()

	if cached, found := s.answerCache.Get(cacheKey(question, mode), fingerprint); found {
		s.mu.RUnlock()
		metrics.CaptureCacheLookup(true)
		s.logger.Debug("Answer served from cache", "question", question)
		return cached, nil
	}
	s.mu.RUnlock()
	metrics.CaptureCacheLookup(false)

	//the query embedding is an external call and runs outside the read
	//lock so a hung provider cannot stall ingestion. A failed embedding
	//degrades retrieval to the lexical sub-index alone.
	queryVector, err := s.executeQueryEmbeddingStep(ctx, question)
	if err != nil {
		s.logger.Warn("Query embedding failed, lexical retrieval only", "error", err)
	}

	//retrieval runs under the read lock so a concurrent ingest or delete
	//is either fully visible or not visible at all
	s.mu.RLock()
	fingerprint = s.fingerprintLocked() //the corpus may have moved while embedding
	assembled, err := s.executeRetrievalStep(question, queryVector)
	if err != nil {
		s.mu.RUnlock()
		status = "retrieval_failed"
		return commonModels.AnswerResult{}, err
	}
	filenames := s.filenameSnapshotLocked(assembled.DocIds)
	s.mu.RUnlock()

	if len(assembled.Chunks) == 0 {
		result := commonModels.AnswerResult{
			Question: question,
			Answer:   "I couldn't find relevant information in the uploaded documents to answer your question.",
			Band:     confidence.Band(0),
		}
		s.answerCache.Put(cacheKey(question, mode), fingerprint, result)
		return result, nil
	}

	synthesized, err := s.executeSynthesisStep(ctx, question, assembled, mode, filenames)
	if err != nil {
		status = "generation_failed"
		return commonModels.AnswerResult{}, err
	}

	score := confidence.Score(confidence.Inputs{
		DistinctDocuments: len(assembled.DocIds),
		TopFusedScore:     topScore(assembled),
		CitationCount:     len(synthesized.Citations),
		Answer:            synthesized.Answer,
	})

	result := commonModels.AnswerResult{
		Question:   question,
		Answer:     synthesized.Answer,
		Citations:  synthesized.Citations,
		Confidence: score,
		Band:       confidence.Band(score),
	}
	s.answerCache.Put(cacheKey(question, mode), fingerprint, result)
	return result, nil
}

func (s *service) ListDocuments() []commonModels.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]commonModels.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UploadedAt.Before(docs[j].UploadedAt) })
	return docs
}

func (s *service) Health() commonModels.HealthStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return commonModels.HealthStats{
		DocumentCount:      len(s.documents),
		EmbeddingIndexSize: s.semantic.Size(),
		LexicalIndexSize:   s.lexical.Size(),
	}
}

func (s *service) lockDocument(docId string) func() {
	s.docLocksMu.Lock()
	lock, ok := s.docLocks[docId]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[docId] = lock
	}
	s.docLocksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// fingerprintLocked hashes the visible document set. Any ingest or delete
// produces a new value, which invalidates cached answers implicitly.
func (s *service) fingerprintLocked() string {
	ids := make([]string, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := fnv.New64a()
	for _, id := range ids {
		fmt.Fprintf(h, "%s:%d;", id, s.documents[id].ChunkCount)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func (s *service) filenameSnapshotLocked(docIds []string) map[string]string {
	names := make(map[string]string, len(docIds))
	for _, id := range docIds {
		names[id] = s.documents[id].Filename
	}
	return names
}

func cacheKey(question string, mode llm.Mode) string {
	return string(mode) + "|" + question
}

func topScore(assembled assembler.Context) float64 {
	if len(assembled.Scores) == 0 {
		return 0
	}
	return assembled.Scores[0]
}
