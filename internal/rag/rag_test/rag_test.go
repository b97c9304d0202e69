package rag_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hanrgy/docs-bot/internal/rag"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
)

const handbookText = `Company Handbook

Employees receive 15 vacation days per year. Vacation days accrue monthly
and unused days roll over up to a maximum of 5 days.

Sick leave is unlimited but requires a doctor's note after three
consecutive days of absence. Remote work is allowed two days per week.`

// answerFromSources pulls the sentence mentioning vacation out of the
// prompt, the way a grounded model would, and cites the first source.
func answerFromSources(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
	for _, line := range strings.Split(prompt, "\n") {
		if strings.Contains(line, "15 vacation days") {
			return "Employees receive 15 vacation days per year [Source 1].", nil
		}
	}
	return "The sources do not mention vacation days.", nil
}

func newService(onGenerate func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error)) rag.Service {
	return rag.NewService(&MockEmbedder{}, &MockLLM{OnGenerate: onGenerate})
}

func TestAnswerQuestion_VacationDaysEndToEnd(t *testing.T) {
	svc := newService(answerFromSources)
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, "handbook", "handbook.md", "md", handbookText); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	result, err := svc.AnswerQuestion(ctx, "How many vacation days do employees get?", llm.ModeSummary)
	if err != nil {
		t.Fatalf("AnswerQuestion failed: %v", err)
	}
	if !strings.Contains(result.Answer, "15 vacation days") {
		t.Errorf("Answer missing the grounded fact: %q", result.Answer)
	}
	if len(result.Citations) == 0 {
		t.Fatal("Expected at least one citation")
	}
	if result.Citations[0].DocId != "handbook" || result.Citations[0].Filename != "handbook.md" {
		t.Errorf("Citation not attributed to the handbook: %+v", result.Citations[0])
	}
	if result.Confidence <= 0 {
		t.Errorf("Expected positive confidence, got %v", result.Confidence)
	}
	if result.Band == "" {
		t.Error("Band must be set")
	}
}

func TestAnswerQuestion_EmptyCorpusIsNoDocuments(t *testing.T) {
	svc := newService(nil)
	_, err := svc.AnswerQuestion(context.Background(), "anything?", llm.ModeSummary)
	if !errors.Is(err, ragError.ErrNoDocuments) {
		t.Fatalf("Expected ErrNoDocuments, got %v", err)
	}
}

func TestAnswerQuestion_EmptyQuestionIsInvalid(t *testing.T) {
	svc := newService(nil)
	_, err := svc.AnswerQuestion(context.Background(), "   ", llm.ModeSummary)
	if !errors.Is(err, ragError.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestDeleteDocument_CascadesEverywhere(t *testing.T) {
	svc := newService(answerFromSources)
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, "handbook", "handbook.md", "md", handbookText); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if err := svc.DeleteDocument(ctx, "handbook"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	stats := svc.Health()
	if stats.DocumentCount != 0 || stats.EmbeddingIndexSize != 0 || stats.LexicalIndexSize != 0 {
		t.Errorf("Delete left residue: %+v", stats)
	}
	if _, err := svc.AnswerQuestion(ctx, "vacation days?", llm.ModeSummary); !errors.Is(err, ragError.ErrNoDocuments) {
		t.Errorf("Deleted corpus should be empty-state, got %v", err)
	}
	if err := svc.DeleteDocument(ctx, "handbook"); !errors.Is(err, ragError.ErrDocumentNotFound) {
		t.Errorf("Second delete should be not-found, got %v", err)
	}
}

func TestAnswerQuestion_CacheInvalidatedByCorpusChange(t *testing.T) {
	var generations atomic.Int64
	svc := newService(func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
		generations.Add(1)
		return "Cached answer material [Source 1].", nil
	})
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, "handbook", "handbook.md", "md", handbookText); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	question := "How many vacation days do employees get?"
	if _, err := svc.AnswerQuestion(ctx, question, llm.ModeSummary); err != nil {
		t.Fatalf("First ask failed: %v", err)
	}
	if _, err := svc.AnswerQuestion(ctx, question, llm.ModeSummary); err != nil {
		t.Fatalf("Second ask failed: %v", err)
	}
	if got := generations.Load(); got != 1 {
		t.Errorf("Expected 1 generation before corpus change, got %d", got)
	}

	//any ingest changes the fingerprint, the cached entry must stop matching
	if _, err := svc.IngestDocument(ctx, "policy", "policy.txt", "txt", "Travel policy: vacation booking requires manager approval."); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, err := svc.AnswerQuestion(ctx, question, llm.ModeSummary); err != nil {
		t.Fatalf("Third ask failed: %v", err)
	}
	if got := generations.Load(); got != 2 {
		t.Errorf("Expected regeneration after corpus change, got %d generations", got)
	}
}

func TestIngestDocument_ReingestReplaces(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, "doc", "doc.txt", "txt", "first version about travel"); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	doc, err := svc.IngestDocument(ctx, "doc", "doc.txt", "txt", "second version about expenses")
	if err != nil {
		t.Fatalf("Re-ingest failed: %v", err)
	}

	stats := svc.Health()
	if stats.DocumentCount != 1 {
		t.Errorf("Expected 1 document, got %d", stats.DocumentCount)
	}
	if stats.EmbeddingIndexSize != doc.ChunkCount || stats.LexicalIndexSize != doc.ChunkCount {
		t.Errorf("Index sizes %d/%d, want %d", stats.EmbeddingIndexSize, stats.LexicalIndexSize, doc.ChunkCount)
	}
}

func TestIngestDocument_EmbeddingFailureLeavesNoTrace(t *testing.T) {
	embedder := &MockEmbedder{
		OnBatchEmbedding: func(ctx context.Context, chunks []string) ([][]float32, error) {
			return nil, errors.New("quota exhausted")
		},
	}
	svc := rag.NewService(embedder, &MockLLM{})

	_, err := svc.IngestDocument(context.Background(), "doc", "doc.txt", "txt", "some text")
	if !errors.Is(err, ragError.ErrEmbeddingFailed) {
		t.Fatalf("Expected ErrEmbeddingFailed, got %v", err)
	}
	if stats := svc.Health(); stats.DocumentCount != 0 || stats.EmbeddingIndexSize != 0 {
		t.Errorf("Failed ingest left residue: %+v", stats)
	}
}

func TestConcurrentIngestAndQuery_AtomicVisibility(t *testing.T) {
	svc := newService(answerFromSources)
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, "handbook", "handbook.md", "md", handbookText); err != nil {
		t.Fatalf("Seed ingest failed: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				docId := fmt.Sprintf("doc-%d-%d", w, i)
				text := fmt.Sprintf("Policy %d revision %d covers expenses and travel booking rules.", w, i)
				if _, err := svc.IngestDocument(ctx, docId, docId+".txt", "txt", text); err != nil {
					t.Errorf("Concurrent ingest failed: %v", err)
				}
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				result, err := svc.AnswerQuestion(ctx, "How many vacation days do employees get?", llm.ModeSummary)
				if err != nil {
					t.Errorf("Concurrent ask failed: %v", err)
					continue
				}
				if !strings.Contains(result.Answer, "15 vacation days") {
					t.Errorf("Handbook fact lost during concurrent ingest: %q", result.Answer)
				}
			}
		}()
	}
	wg.Wait()

	//both indexes must agree after the dust settles
	stats := svc.Health()
	if stats.EmbeddingIndexSize != stats.LexicalIndexSize {
		t.Errorf("Index sizes diverged: %+v", stats)
	}
	if stats.DocumentCount != 41 {
		t.Errorf("Expected 41 documents, got %d", stats.DocumentCount)
	}
}

func TestAnswerQuestion_HungEmbedderDoesNotBlockIngest(t *testing.T) {
	release := make(chan struct{})
	queryStarted := make(chan struct{})
	embedder := &MockEmbedder{
		OnGetEmbedding: func(ctx context.Context, query string) ([]float32, error) {
			close(queryStarted)
			<-release
			return hashVector(query), nil
		},
	}
	svc := rag.NewService(embedder, &MockLLM{OnGenerate: answerFromSources})
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, "handbook", "handbook.md", "md", handbookText); err != nil {
		t.Fatalf("Seed ingest failed: %v", err)
	}

	askDone := make(chan error, 1)
	go func() {
		_, err := svc.AnswerQuestion(ctx, "How many vacation days do employees get?", llm.ModeSummary)
		askDone <- err
	}()
	<-queryStarted

	//the query is parked inside its embedding call, writers must not care
	ingestDone := make(chan error, 1)
	go func() {
		_, err := svc.IngestDocument(ctx, "policy", "policy.txt", "txt", "Travel booking requires manager approval.")
		ingestDone <- err
	}()

	select {
	case err := <-ingestDone:
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Ingest stalled behind the hung query embedding")
	}

	close(release)
	if err := <-askDone; err != nil {
		t.Fatalf("Ask failed after the embedder was released: %v", err)
	}
}

func TestAnswerQuestion_QueryEmbeddingFailureFallsBackToKeywords(t *testing.T) {
	embedder := &MockEmbedder{
		OnGetEmbedding: func(ctx context.Context, query string) ([]float32, error) {
			return nil, errors.New("rate limited")
		},
	}
	svc := rag.NewService(embedder, &MockLLM{OnGenerate: answerFromSources})
	ctx := context.Background()

	if _, err := svc.IngestDocument(ctx, "handbook", "handbook.md", "md", handbookText); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	result, err := svc.AnswerQuestion(ctx, "How many vacation days do employees get?", llm.ModeSummary)
	if err != nil {
		t.Fatalf("Expected keyword-only degradation, got error: %v", err)
	}
	if !strings.Contains(result.Answer, "15 vacation days") {
		t.Errorf("Keyword-only retrieval lost the fact: %q", result.Answer)
	}
}

func TestAnswerQuestion_ConfidenceGrowsWithCorroboration(t *testing.T) {
	fixedAnswer := strings.Repeat("Vacation policy detail. ", 10) + "[Source 1]"
	generate := func(ctx context.Context, prompt, sys string, mode llm.Mode) (string, error) {
		return fixedAnswer, nil
	}

	single := newService(generate)
	ctx := context.Background()
	if _, err := single.IngestDocument(ctx, "d1", "a.txt", "txt", "Employees receive 15 vacation days per year."); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	one, err := single.AnswerQuestion(ctx, "vacation days?", llm.ModeSummary)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	multi := newService(generate)
	for i := 1; i <= 3; i++ {
		docId := fmt.Sprintf("d%d", i)
		text := fmt.Sprintf("Handbook copy %d: employees receive 15 vacation days per year.", i)
		if _, err := multi.IngestDocument(ctx, docId, docId+".txt", "txt", text); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}
	three, err := multi.AnswerQuestion(ctx, "vacation days?", llm.ModeSummary)
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if three.Confidence < one.Confidence {
		t.Errorf("Confidence with 3 corroborating docs (%v) below 1 doc (%v)", three.Confidence, one.Confidence)
	}
}

func TestListDocuments_SortedByUpload(t *testing.T) {
	svc := newService(nil)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := svc.IngestDocument(ctx, id, id+".txt", "txt", "content for "+id); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	docs := svc.ListDocuments()
	if len(docs) != 3 {
		t.Fatalf("Expected 3 documents, got %d", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].UploadedAt.Before(docs[i-1].UploadedAt) {
			t.Errorf("Documents out of upload order: %v", docs)
		}
	}
}
