package tokenizer

import (
	"strings"
	"unicode"
)

// Token is a whitespace-delimited word with its byte span in the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokenize splits text on unicode whitespace and records byte offsets.
// A token here is the unit of chunk sizing and of the token budget.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Text: text[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: text[start:], Start: start, End: len(text)})
	}
	return tokens
}

// Count returns the token count of text under the same rules as Tokenize.
func Count(text string) int {
	return len(strings.Fields(text))
}

// LexicalTerms produces the deterministic term stream for BM25 indexing and
// querying: lowercase, leading/trailing punctuation stripped, no stemming.
// The scoring tests depend on this exact behavior.
func LexicalTerms(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		term := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
