package synthesizer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/rag/assembler"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

var citationMarker = regexp.MustCompile(`\[Source (\d+)\]`)

const systemInstruction = `You are a helpful assistant that answers questions based on provided document excerpts.

Guidelines:
1. Answer questions accurately based only on the provided sources
2. Include specific citations in your answer using [Source X] format
3. If the sources don't contain enough information, say so clearly
4. Be concise but comprehensive
5. If asked about something not in the sources, politely explain the limitation

Always cite your sources when making specific claims.`

const quoteInstruction = `

When quoting, reproduce the source wording verbatim and keep commentary minimal.`

// FilenameLookup resolves a document id to its display filename.
type FilenameLookup func(docId string) string

// Result carries the generated answer plus the subset of offered sources
// the answer actually referenced, in marker order.
type Result struct {
	Answer    string
	Citations []commonModels.Citation
	Offered   int
}

type Synthesizer struct {
	provider llm.Provider
	logger   *logger_i.Logger
}

func New(provider llm.Provider) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		logger:   logger_i.NewLogger("AnswerSynthesizer"),
	}
}

// Synthesize prompts the provider with the numbered sources and extracts
// the citations the answer used. Markers pointing outside the offered
// range are dropped, never invented.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, assembled assembler.Context, mode llm.Mode, filenames FilenameLookup) (Result, error) {
	offered := buildCitations(assembled, filenames)
	prompt := buildPrompt(question, assembled.Chunks)

	instruction := systemInstruction
	if mode == llm.ModeQuote {
		instruction += quoteInstruction
	}

	answer, err := s.provider.Generate(ctx, prompt, instruction, mode)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize answer: %w: %v", ragError.ErrGenerationFailed, err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Result{}, fmt.Errorf("synthesize answer: empty completion: %w", ragError.ErrGenerationFailed)
	}

	used := usedCitations(answer, offered)
	s.logger.Debug("Answer synthesized", "offeredSources", len(offered), "citedSources", len(used))
	return Result{Answer: answer, Citations: used, Offered: len(offered)}, nil
}

func buildPrompt(question string, chunks []commonModels.DocChunk) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nSources:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "[Source %d] %s\n\n", i+1, chunk.Text)
	}
	b.WriteString("Please answer the question based on the provided sources. " +
		"Include citations using [Source X] format when referencing specific information.")
	return b.String()
}

func buildCitations(assembled assembler.Context, filenames FilenameLookup) []commonModels.Citation {
	citations := make([]commonModels.Citation, len(assembled.Chunks))
	for i, chunk := range assembled.Chunks {
		filename := ""
		if filenames != nil {
			filename = filenames(chunk.DocId)
		}
		var score float64
		if i < len(assembled.Scores) {
			score = assembled.Scores[i]
		}
		citations[i] = commonModels.Citation{
			Id:       i + 1,
			ChunkId:  chunk.Id,
			DocId:    chunk.DocId,
			Filename: filename,
			Excerpt:  excerpt(chunk.Text),
			Score:    score,
		}
	}
	return citations
}

// usedCitations keeps each offered source the answer referenced, once,
// ordered by source number.
func usedCitations(answer string, offered []commonModels.Citation) []commonModels.Citation {
	matches := citationMarker.FindAllStringSubmatch(answer, -1)
	seen := make(map[int]bool)
	var used []commonModels.Citation
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(offered) || seen[n] {
			continue
		}
		seen[n] = true
		used = append(used, offered[n-1])
	}
	sort.Slice(used, func(i, j int) bool { return used[i].Id < used[j].Id })
	return used
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= config.MaxExcerptRunes {
		return text
	}
	return string(runes[:config.MaxExcerptRunes]) + "..."
}
