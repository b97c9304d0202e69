package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status string        `json:"status"`
	Ingest *IngestResult `json:"ingest_result,omitempty"`
}

type IngestResult struct {
	DocumentId string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type AskResponse struct {
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Citations  []CitationResponse `json:"citations"`
	Confidence float64            `json:"confidence"`
	Band       string             `json:"confidence_band"`
}

type CitationResponse struct {
	Id       int     `json:"id"`
	DocId    string  `json:"document_id"`
	Filename string  `json:"filename"`
	Excerpt  string  `json:"excerpt"`
	Score    float64 `json:"score"`
}

type DocumentInfo struct {
	Id         string    `json:"id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	SizeBytes  int       `json:"size_bytes"`
	WordCount  int       `json:"word_count"`
	ChunkCount int       `json:"chunk_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type DocumentListResponse struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

type HealthResponse struct {
	Status             string `json:"status" example:"ok"`
	DocumentCount      int    `json:"document_count"`
	EmbeddingIndexSize int    `json:"embedding_index_size"`
	LexicalIndexSize   int    `json:"lexical_index_size"`
}

// requests---------------------

type AskRequest struct {
	Question string `json:"question" validate:"required"`
	Mode     string `json:"mode,omitempty" example:"summary"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
