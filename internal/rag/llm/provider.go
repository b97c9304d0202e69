package llm

import "context"

// Mode selects how much creative latitude the generator gets. The citation
// contract is identical for both.
type Mode string

const (
	//answers restricted to near-verbatim quoting of the sources
	ModeQuote Mode = "quote"
	//answer composed across multiple sources
	ModeSummary Mode = "summary"
)

type Provider interface {
	Generate(ctx context.Context, prompt string, systemInstruction string, mode Mode) (string, error)
}
