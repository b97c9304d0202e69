package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hanrgy/docs-bot/internal/adapter"
	"github.com/hanrgy/docs-bot/internal/adapter/utils"
	"github.com/hanrgy/docs-bot/internal/api"
	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/domain/jobModel"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

var logRH *logger_i.Logger

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// AskHandler godoc
// @Summary      Ask a question over the ingested documents
// @Description  Runs hybrid retrieval and answer synthesis synchronously and returns the answer with citations and a confidence score.
// @Tags         Ask
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "Question and optional mode (summary or quote)"
// @Success      200      {object}  api.AskResponse "Grounded answer"
// @Failure      400      {object}  api.JobResponse "Empty question or empty corpus"
// @Failure      502      {object}  api.JobResponse "Embedding or generation provider failure"
// @Router       /ask [post]
func AskHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logRH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	var requestData api.AskRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the Ask handler reader :", err)
		}
	}(request.Body)
	if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || requestData.Question == "" {
		logRH.Warn("Bad Ask Request: ", "error:", err, "request data:", requestData)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	result, err := handlerInstance.ragService.AnswerQuestion(request.Context(), requestData.Question, llm.Mode(requestData.Mode))
	if err != nil {
		logRH.Warn("AnswerQuestion failed", "error", err)
		WriteErrorResponse(w, httpStatusForAskError(err), "", err.Error())
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(result))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse  "The current status of the job"
// @Failure      404  {object}  api.JobResponse  "Job not found"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// UploadHandler handles the uploading of documents for ingestion.
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, saves it to a temporary directory, and queues an ingestion job.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        document  formData  file  true  "The PDF, DOCX, MD or TXT file to upload"
// @Success      202  {object}  api.InitJobResponse  "Accepted - track via status_url"
// @Failure      400  {object}  api.JobResponse      "Bad Request - Missing file or file too large"
// @Failure      500  {object}  api.JobResponse      "Internal Server Error - Storage or Write Error"
// @Router       /upload [post]
func UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory :", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, fileMetadata.Filename, "Storage error")
		return
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, fileMetadata.Filename, "Write error")
		return
	}

	newJob := newJobData{
		id:             utils.GetNewUUID(),
		traceId:        r.Context().Value(config.TRACE_ID_KEY).(string),
		jobType:        jobModel.JobTypeIngest,
		documentId:     utils.GetNewUUID(),
		documentName:   fileMetadata.Filename,
		documentSource: tempFilePath,
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// ListDocumentsHandler godoc
// @Summary      List ingested documents
// @Tags         Documents
// @Produce      json
// @Success      200  {object}  api.DocumentListResponse
// @Router       /documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		docs := handlerInstance.ragService.ListDocuments()
		writeJsonResponse(w, http.StatusOK, adapter.ToDocumentListResponse(docs))
	}
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document
// @Description  Queues a delete job that removes the document and all of its chunks from both indexes.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  api.InitJobResponse  "Accepted - track via status_url"
// @Failure      404  {object}  api.JobResponse      "Document not found"
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	docId := utils.GetChiURLParam(r, "id")
	if docId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Document ID is required")
		return
	}

	//reject unknown ids up front, the job itself re-checks under the lock
	found := false
	for _, doc := range handlerInstance.ragService.ListDocuments() {
		if doc.Id == docId {
			found = true
			break
		}
	}
	if !found {
		WriteErrorResponse(w, http.StatusNotFound, docId, "Document not found")
		return
	}

	newJob := newJobData{
		id:               utils.GetNewUUID(),
		traceId:          r.Context().Value(config.TRACE_ID_KEY).(string),
		jobType:          jobModel.JobTypeDelete,
		deleteDocumentId: docId,
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// HealthHandler godoc
// @Summary      Service health and index statistics
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		stats := handlerInstance.ragService.Health()
		writeJsonResponse(w, http.StatusOK, adapter.ToHealthResponse(stats))
	}
}
