package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
	"github.com/hanrgy/docs-bot/internal/rag/tokenizer"
)

type Params struct {
	TargetTokens  int
	OverlapTokens int
	//a single token longer than this cannot be split anywhere we accept
	HardTokenRuneCeiling int
}

func DefaultParams() Params {
	return Params{
		TargetTokens:         config.ChunkSizeTokens,
		OverlapTokens:        config.ChunkOverlapTokens,
		HardTokenRuneCeiling: config.HardTokenRuneCeiling,
	}
}

// Split cuts normalized document text into overlapping chunks.
// Cut points prefer paragraph boundaries, then sentence ends, then a hard
// token-count boundary. The tail OverlapTokens of chunk i reappear at the
// head of chunk i+1, so re-concatenating chunks minus overlaps reconstructs
// the token coverage of the source with no gaps.
//
// An empty document yields zero chunks. A document at or under TargetTokens
// yields exactly one.
func Split(docId string, text string, p Params) ([]commonModels.DocChunk, error) {
	if p.TargetTokens <= 0 || p.OverlapTokens < 0 || p.OverlapTokens >= p.TargetTokens {
		return nil, fmt.Errorf("chunker: target %d overlap %d: %w", p.TargetTokens, p.OverlapTokens, ragError.ErrInvalidInput)
	}

	tokens := tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	for _, tok := range tokens {
		if utf8.RuneCountInString(tok.Text) > p.HardTokenRuneCeiling {
			return nil, fmt.Errorf("chunker: indivisible token of %d runes exceeds ceiling %d: %w",
				utf8.RuneCountInString(tok.Text), p.HardTokenRuneCeiling, ragError.ErrInvalidInput)
		}
	}

	var chunks []commonModels.DocChunk
	start := 0
	for {
		end := start + p.TargetTokens
		if end >= len(tokens) {
			end = len(tokens)
		} else {
			end = cutPoint(text, tokens, start, end)
		}

		chunks = append(chunks, makeChunk(docId, len(chunks), text, tokens, start, end))
		if end == len(tokens) {
			break
		}

		next := end - p.OverlapTokens
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks, nil
}

// cutPoint walks back from the hard limit looking for the best boundary.
// It refuses to shrink a chunk below half the target, a tiny chunk hurts
// retrieval more than a mid-paragraph cut.
func cutPoint(text string, tokens []tokenizer.Token, start, limit int) int {
	floor := start + (limit-start)/2

	for i := limit; i > floor; i-- {
		if isParagraphBreak(text, tokens, i) {
			return i
		}
	}
	for i := limit; i > floor; i-- {
		if isSentenceEnd(tokens[i-1].Text) {
			return i
		}
	}
	return limit
}

// isParagraphBreak reports whether a blank line separates tokens i-1 and i.
func isParagraphBreak(text string, tokens []tokenizer.Token, i int) bool {
	if i <= 0 || i >= len(tokens) {
		return false
	}
	gap := text[tokens[i-1].End:tokens[i].Start]
	return strings.Count(gap, "\n") >= 2
}

func isSentenceEnd(word string) bool {
	trimmed := strings.TrimRight(word, `"')]`)
	return strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") || strings.HasSuffix(trimmed, "?")
}

func makeChunk(docId string, sequence int, text string, tokens []tokenizer.Token, start, end int) commonModels.DocChunk {
	startOff := tokens[start].Start
	endOff := tokens[end-1].End
	return commonModels.DocChunk{
		Id:          commonModels.ChunkId(docId, sequence),
		DocId:       docId,
		Sequence:    sequence,
		Text:        text[startOff:endOff],
		TokenCount:  end - start,
		StartOffset: startOff,
		EndOffset:   endOff,
	}
}
