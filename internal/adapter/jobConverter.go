package adapter

import (
	"fmt"
	"time"

	"github.com/hanrgy/docs-bot/internal/api"
	"github.com/hanrgy/docs-bot/internal/domain/commonModels"
	"github.com/hanrgy/docs-bot/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status: string(job.Status),
		Ingest: toIngestResult(job),
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func toIngestResult(job jobModel.Job) *api.IngestResult {
	if job.JobType != jobModel.JobTypeIngest || job.Status != jobModel.JobStatusComplete {
		return nil
	}
	return &api.IngestResult{
		DocumentId: job.JobPayload.DocumentId,
		Filename:   job.JobPayload.IngestFileName,
		ChunkCount: job.JobPayload.ChunkCount,
	}
}

func ToAskResponse(result commonModels.AnswerResult) api.AskResponse {
	citations := make([]api.CitationResponse, 0, len(result.Citations))
	for _, c := range result.Citations {
		citations = append(citations, api.CitationResponse{
			Id:       c.Id,
			DocId:    c.DocId,
			Filename: c.Filename,
			Excerpt:  c.Excerpt,
			Score:    c.Score,
		})
	}
	return api.AskResponse{
		Question:   result.Question,
		Answer:     result.Answer,
		Citations:  citations,
		Confidence: result.Confidence,
		Band:       result.Band,
	}
}

func ToDocumentListResponse(docs []commonModels.Document) api.DocumentListResponse {
	infos := make([]api.DocumentInfo, 0, len(docs))
	for _, d := range docs {
		infos = append(infos, api.DocumentInfo{
			Id:         d.Id,
			Filename:   d.Filename,
			FileType:   string(d.FileType),
			SizeBytes:  int(d.SizeBytes),
			WordCount:  d.WordCount,
			ChunkCount: d.ChunkCount,
			UploadedAt: d.UploadedAt,
		})
	}
	return api.DocumentListResponse{Documents: infos, Count: len(infos)}
}

func ToHealthResponse(stats commonModels.HealthStats) api.HealthResponse {
	return api.HealthResponse{
		Status:             "ok",
		DocumentCount:      stats.DocumentCount,
		EmbeddingIndexSize: stats.EmbeddingIndexSize,
		LexicalIndexSize:   stats.LexicalIndexSize,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
