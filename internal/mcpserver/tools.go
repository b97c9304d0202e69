package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hanrgy/docs-bot/internal/rag/llm"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
	Mode     string `json:"mode,omitempty" jsonschema:"answer mode, summary (default) or quote"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string           `json:"answer"`
	Confidence float64          `json:"confidence"`
	Band       string           `json:"confidence_band"`
	Citations  []CitationOutput `json:"citations"`
}

type CitationOutput struct {
	Id       int     `json:"id"`
	DocId    string  `json:"document_id"`
	Filename string  `json:"filename"`
	Excerpt  string  `json:"excerpt"`
	Score    float64 `json:"score"`
}

// ListDocumentsInput is the (empty) input schema for the list tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

type DocumentOutput struct {
	Id         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
	WordCount  int    `json:"word_count"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the ingested documents with citations and a confidence score",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents currently available for answering",
	}, s.handleListDocuments)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ragService.AnswerQuestion(ctx, input.Question, llm.Mode(input.Mode))
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     result.Answer,
		Confidence: result.Confidence,
		Band:       result.Band,
		Citations:  make([]CitationOutput, len(result.Citations)),
	}
	for i, c := range result.Citations {
		output.Citations[i] = CitationOutput{
			Id:       c.Id,
			DocId:    c.DocId,
			Filename: c.Filename,
			Excerpt:  c.Excerpt,
			Score:    c.Score,
		}
	}
	return nil, output, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs := s.ragService.ListDocuments()

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, d := range docs {
		output.Documents[i] = DocumentOutput{
			Id:         d.Id,
			Filename:   d.Filename,
			ChunkCount: d.ChunkCount,
			WordCount:  d.WordCount,
		}
	}
	return nil, output, nil
}
