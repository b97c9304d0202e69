package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/jobModel"
	"github.com/hanrgy/docs-bot/internal/job"
	"github.com/hanrgy/docs-bot/internal/metrics"
	"github.com/hanrgy/docs-bot/internal/rag"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service    *job.Service
	ragService rag.Service
}

type newJobData struct {
	id               string
	traceId          string
	jobType          jobModel.JobType
	documentId       string
	documentName     string
	documentSource   string
	deleteDocumentId string
}

func InitJobHandler(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, ragService: ragService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "job id", newJob.id)
	logJH.Info("To create new job", "type", newJob.jobType)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = newJob.jobType

	switch newJob.jobType {
	case jobModel.JobTypeIngest:
		_job.CurrentStep = jobModel.IngestInit
		_job.JobPayload.IngestFileName = newJob.documentName
		_job.JobPayload.IngestURL = newJob.documentSource
		_job.JobPayload.DocumentId = newJob.documentId
	case jobModel.JobTypeDelete:
		_job.CurrentStep = jobModel.DeleteInit
		_job.JobPayload.DeleteDocumentId = newJob.deleteDocumentId
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//a new worker is added every N requests, and always for an ingest:
	//ingestion batches embedding calls which might take a while, and idle
	//workers retire on their own
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}
