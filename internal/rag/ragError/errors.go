package ragError

import "errors"

// Sentinel kinds for the retrieval/synthesis core. Callers match with
// errors.Is so every failure stays machine-distinguishable across the
// HTTP boundary.
var (
	//malformed or empty input, caller's fault, not retriable
	ErrInvalidInput = errors.New("invalid input")

	//a vector with the wrong dimensionality reached the embedding index
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	//the smallest candidate alone does not fit the token budget
	ErrContextTooLarge = errors.New("context exceeds token budget")

	//the generation capability failed or timed out
	ErrGenerationFailed = errors.New("answer generation failed")

	//the embedding capability failed or timed out
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	//nothing is indexed, a normal empty state and not a system fault
	ErrNoDocuments = errors.New("no documents to search")

	ErrDocumentNotFound = errors.New("document not found")
)

// Kind returns a stable string for the API layer. Unknown errors map to "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrContextTooLarge):
		return "context_too_large"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrEmbeddingFailed):
		return "embedding_failed"
	case errors.Is(err, ErrNoDocuments):
		return "no_documents"
	case errors.Is(err, ErrDocumentNotFound):
		return "document_not_found"
	default:
		return "internal"
	}
}

// Retriable reports whether the caller may retry the same request with backoff.
func Retriable(err error) bool {
	return errors.Is(err, ErrGenerationFailed) || errors.Is(err, ErrEmbeddingFailed)
}
