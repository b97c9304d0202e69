package ingest

import (
	"context"
	"net/http"
	"os"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/domain/jobModel"
	"github.com/hanrgy/docs-bot/internal/rag"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

var logger *logger_i.Logger

// ProcessDocumentIngestion runs the full pipeline for an uploaded file:
// extract, normalize, then hand the text to the core which chunks, embeds
// and commits it. The temp upload is removed afterwards either way.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, svc rag.Service) jobModel.Job {
	logger = logger_i.NewLogger("Document Ingestion ")
	log := logger.With("traceId", job.TraceId, "jobId", job.Id)

	docName := job.JobPayload.IngestFileName
	docPath := job.JobPayload.IngestURL
	log.Debug("Processing document", "filename", docName, "path", docPath)

	defer func() {
		if err := os.Remove(docPath); err != nil {
			log.Error("Error removing temp upload", "error", err)
		}
	}()

	job.CurrentStep = jobModel.IngestExtracting
	docType := getDocType(docName)
	if docType == commonModels.ERR {
		log.Error("Unsupported document type", "filename", docName)
		return failJob(job, http.StatusUnsupportedMediaType, "Unsupported document type", false)
	}

	text, err := extractText(docPath, docType)
	if err != nil {
		log.Error("Error extracting document content", "error", err)
		return failJob(job, http.StatusUnprocessableEntity, "Error extracting document content", false)
	}
	text = normalizeText(text)

	job.CurrentStep = jobModel.IngestIndexing
	ingestCtx, cancel := context.WithTimeout(ctx, config.IngestJobTimeout)
	defer cancel()

	doc, err := svc.IngestDocument(ingestCtx, job.JobPayload.DocumentId, docName, string(docType), text)
	if err != nil {
		log.Error("Error ingesting document", "error", err)
		return failJob(job, http.StatusInternalServerError, "Error ingesting document", true)
	}

	job.JobPayload.ChunkCount = doc.ChunkCount
	job.CurrentStep = jobModel.Complete
	job.Status = jobModel.JobStatusComplete
	log.Info("Document ingestion complete", "docId", doc.Id, "chunks", doc.ChunkCount)
	return job
}

func failJob(job jobModel.Job, code int, message string, canRetry bool) jobModel.Job {
	job.Status = jobModel.JobStatusError
	job.CurrentStep = jobModel.Error
	job.Error = jobModel.JobError{Code: code, Message: message, Retry: canRetry}
	return job
}
