package worker

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hanrgy/docs-bot/internal/config"
	jobmodel "github.com/hanrgy/docs-bot/internal/domain/jobModel"
	"github.com/hanrgy/docs-bot/internal/metrics"
	"github.com/hanrgy/docs-bot/internal/rag/ingest"
	"github.com/hanrgy/docs-bot/internal/rag/ragError"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestJobTimeout)
	defer cancel()
	logger.With("trace Id ", job.TraceId)
	logger.Debug("Processing job:", "job Id:", job.Id)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	switch job.JobType {
	case jobmodel.JobTypeIngest:
		job = ingest.ProcessDocumentIngestion(ctx, job, _ragService)
	case jobmodel.JobTypeDelete:
		job = deleteDocument(ctx, job)
	default:
		logger.Error("Unknown job type", "type", job.JobType)
		job.Status = jobmodel.JobStatusError
		job.Error = jobmodel.JobError{Code: http.StatusBadRequest, Message: "Unknown job type"}
	}

	job.EndTime = time.Now()
	if job.Status != jobmodel.JobStatusError {
		job.Status = jobmodel.JobStatusComplete
	}
	saveJobState(ctx, job, job.Status)
}

func deleteDocument(ctx context.Context, job jobmodel.Job) jobmodel.Job {
	docId := job.JobPayload.DeleteDocumentId
	if err := _ragService.DeleteDocument(ctx, docId); err != nil {
		logger.Error("Delete job failed", "docId", docId, "error", err)
		code := http.StatusInternalServerError
		if errors.Is(err, ragError.ErrDocumentNotFound) {
			code = http.StatusNotFound
		}
		job.Status = jobmodel.JobStatusError
		job.CurrentStep = jobmodel.Error
		job.Error = jobmodel.JobError{Code: code, Message: err.Error()}
		return job
	}
	job.CurrentStep = jobmodel.Complete
	job.Status = jobmodel.JobStatusComplete
	return job
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "err", err)
	}
}
