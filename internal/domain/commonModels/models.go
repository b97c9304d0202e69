package commonModels

import (
	"fmt"
	"time"
)

type Document struct {
	Id         string    `json:"doc_id"`
	Filename   string    `json:"filename"`
	FileType   DocType   `json:"file_type"`
	SizeBytes  int64     `json:"size_bytes"`
	WordCount  int       `json:"word_count"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocChunk is the atomic unit of indexing and citation. Ids are
// "<doc id>_<sequence>" so both halves can be recovered from the key.
type DocChunk struct {
	Id          string    `json:"chunk_id"`
	DocId       string    `json:"doc_id"`
	Sequence    int       `json:"sequence"`
	Text        string    `json:"content"`
	TokenCount  int       `json:"token_count"`
	StartOffset int       `json:"start_offset"` //byte offset into the normalized document text
	EndOffset   int       `json:"end_offset"`
	Vector      []float32 `json:"-"`
}

func ChunkId(docId string, sequence int) string {
	return fmt.Sprintf("%s_%d", docId, sequence)
}

// RankedCandidate is one fused search hit. Sub-ranks are 1-indexed,
// 0 means the chunk did not appear in that sub-ranking.
type RankedCandidate struct {
	ChunkId       string
	DocId         string
	SemanticScore float64
	LexicalScore  float64
	FusedScore    float64
	SemanticRank  int
	LexicalRank   int
}

// Citation is derived from the candidate set used for an answer, never stored.
type Citation struct {
	Id       int     `json:"id"` //the [Source N] marker number
	ChunkId  string  `json:"chunk_id"`
	DocId    string  `json:"doc_id"`
	Filename string  `json:"filename"`
	Excerpt  string  `json:"excerpt"`
	Score    float64 `json:"score"`
}

type AnswerResult struct {
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Citations  []Citation `json:"citations"`
	Confidence float64    `json:"confidence"`
	Band       string     `json:"confidence_band"`
}

type HealthStats struct {
	DocumentCount      int `json:"document_count"`
	EmbeddingIndexSize int `json:"embedding_index_size"`
	LexicalIndexSize   int `json:"lexical_index_size"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var MD DocType = "MD"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"
