package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/helix-labs/quarry-core/internal/core/domain"
	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/helix-labs/quarry-core/internal/core/ports/driving"
)

// maxUploadSize limits multipart uploads to 32 MiB
const maxUploadSize = 32 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks storage and queue connections)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unavailable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]Pinger{}
	if s.db != nil {
		checks["database"] = s.db
	}
	if s.redisClient != nil {
		checks["redis"] = s.redisClient
	}
	if s.taskQueue != nil {
		checks["queue"] = s.taskQueue
	}

	for name, dep := range checks {
		if err := dep.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Auth endpoints

// handleExchangeToken godoc
// @Summary      Exchange an API key for a token
// @Description  Validates an API key and issues a short-lived JWT
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request  body      domain.TokenRequest  true  "API key"
// @Success      200      {object}  domain.TokenResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      401      {object}  ErrorResponse  "Unknown API key"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /api/v1/auth/token [post]
func (s *Server) handleExchangeToken(w http.ResponseWriter, r *http.Request) {
	var req domain.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.ExchangeAPIKey(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "api_key is required")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "invalid API key")
		default:
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Question answering endpoints

type askRequest struct {
	Question string `json:"question" example:"How does chunk overlap work?"`
	TopK     int    `json:"top_k,omitempty" example:"3"`
}

type retrieveRequest struct {
	Query string `json:"query" example:"chunk overlap"`
	TopK  int    `json:"top_k,omitempty" example:"3"`
}

// handleAsk godoc
// @Summary      Ask a question
// @Description  Retrieves relevant chunks and generates a grounded answer
// @Tags         Answering
// @Accept       json
// @Produce      json
// @Param        request  body      askRequest  true  "Question and retrieval options"
// @Success      200      {object}  domain.Answer
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      409      {object}  ErrorResponse  "No documents indexed yet"
// @Failure      503      {object}  ErrorResponse  "AI services not configured"
// @Router       /api/v1/ask [post]
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := domain.DefaultRetrievalOptions()
	if req.TopK > 0 {
		opts.TopK = req.TopK
	}

	answer, err := s.answerService.Ask(r.Context(), req.Question, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

// handleRetrieve godoc
// @Summary      Retrieve relevant chunks
// @Description  Runs vector retrieval without generation, returning scored chunks
// @Tags         Answering
// @Accept       json
// @Produce      json
// @Param        request  body      retrieveRequest  true  "Query and retrieval options"
// @Success      200      {object}  domain.Retrieval
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      409      {object}  ErrorResponse  "No documents indexed yet"
// @Failure      503      {object}  ErrorResponse  "Embedding service not configured"
// @Router       /api/v1/retrieve [post]
func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	opts := domain.DefaultRetrievalOptions()
	if req.TopK > 0 {
		opts.TopK = req.TopK
	}

	retrieval, err := s.answerService.Retrieve(r.Context(), req.Query, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, retrieval)
}

// Document endpoints

// handleIngestDocument godoc
// @Summary      Index a document
// @Description  Runs the full indexing pipeline. Pass ?async=true to enqueue a background task instead.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        async    query     bool                   false  "Index in the background"
// @Param        request  body      driving.IngestRequest  true   "Document to index"
// @Success      201      {object}  domain.IngestResult
// @Success      202      {object}  domain.Task  "Async mode: the queued task"
// @Failure      400      {object}  ErrorResponse  "Invalid request"
// @Failure      503      {object}  ErrorResponse  "Embedding service not configured"
// @Router       /api/v1/documents [post]
func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if r.URL.Query().Get("async") == "true" {
		task, err := s.ingestService.IndexAsync(r.Context(), req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, task)
		return
	}

	result, err := s.ingestService.Index(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleUploadDocument godoc
// @Summary      Upload a file for indexing
// @Description  Accepts a multipart file upload (plain text, markdown or PDF) and indexes it
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        file   formData  file    true   "File to index"
// @Param        title  formData  string  false  "Document title (defaults to filename)"
// @Success      201    {object}  domain.IngestResult
// @Failure      400    {object}  ErrorResponse  "Invalid or unsupported file"
// @Failure      503    {object}  ErrorResponse  "Embedding service not configured"
// @Router       /api/v1/documents/upload [post]
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	content, mimeType, err := extractUploadContent(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	result, err := s.ingestService.Index(r.Context(), driving.IngestRequest{
		Title:    title,
		Source:   "upload:" + header.Filename,
		MimeType: mimeType,
		Content:  content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// extractUploadContent converts an uploaded file to plain text.
// PDFs are parsed; everything else is treated as UTF-8 text.
func extractUploadContent(filename string, data []byte) (string, string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", "", errors.New("failed to parse PDF")
		}
		plain, err := reader.GetPlainText()
		if err != nil {
			return "", "", errors.New("failed to extract PDF text")
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(plain); err != nil {
			return "", "", errors.New("failed to extract PDF text")
		}
		return buf.String(), "application/pdf", nil
	case ".md", ".markdown":
		return string(data), "text/markdown", nil
	default:
		return string(data), "text/plain", nil
	}
}

type listDocumentsResponse struct {
	Documents []*domain.Document `json:"documents"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  Returns documents with pagination, newest first
// @Tags         Documents
// @Produce      json
// @Param        limit   query     int  false  "Page size (default 20, max 100)"
// @Param        offset  query     int  false  "Number of documents to skip"
// @Success      200     {object}  listDocumentsResponse
// @Router       /api/v1/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := s.docService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	total, err := s.docService.Count(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if docs == nil {
		docs = []*domain.Document{}
	}

	writeJSON(w, http.StatusOK, listDocumentsResponse{
		Documents: docs,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// handleGetDocument godoc
// @Summary      Get a document
// @Description  Returns document metadata by ID
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /api/v1/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleGetDocumentChunks godoc
// @Summary      Get a document with its chunks
// @Description  Returns document metadata and all of its chunks in order
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentWithChunks
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /api/v1/documents/{id}/chunks [get]
func (s *Server) handleGetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.GetWithChunks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleGetDocumentContent godoc
// @Summary      Get document content
// @Description  Returns the full normalised text of a document
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentContent
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /api/v1/documents/{id}/content [get]
func (s *Server) handleGetDocumentContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.docService.GetContent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

// handleReindexDocument godoc
// @Summary      Reindex a document
// @Description  Re-runs chunking and embedding for an existing document (admin only)
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.IngestResult
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      409  {object}  ErrorResponse  "Indexing already in progress"
// @Router       /api/v1/documents/{id}/reindex [post]
func (s *Server) handleReindexDocument(w http.ResponseWriter, r *http.Request) {
	result, err := s.ingestService.Reindex(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDeleteDocument godoc
// @Summary      Delete a document
// @Description  Removes a document, its chunks and its index entries (admin only)
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /api/v1/documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Task endpoints

type listTasksResponse struct {
	Tasks []*domain.Task `json:"tasks"`
}

// handleListTasks godoc
// @Summary      List background tasks
// @Description  Returns tasks matching the given filters, newest first
// @Tags         Tasks
// @Produce      json
// @Param        status  query     string  false  "Filter by status (pending, processing, completed, failed)"
// @Param        type    query     string  false  "Filter by task type"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Param        offset  query     int     false  "Number of tasks to skip"
// @Success      200     {object}  listTasksResponse
// @Router       /api/v1/tasks [get]
func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	filter := driven.TaskFilter{
		Status: domain.TaskStatus(r.URL.Query().Get("status")),
		Type:   domain.TaskType(r.URL.Query().Get("type")),
		Limit:  limit,
		Offset: queryInt(r, "offset", 0),
	}

	tasks, err := s.taskQueue.ListTasks(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	writeJSON(w, http.StatusOK, listTasksResponse{Tasks: tasks})
}

// handleGetTask godoc
// @Summary      Get a task
// @Description  Returns the status of a background task
// @Tags         Tasks
// @Produce      json
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  ErrorResponse  "Task not found"
// @Router       /api/v1/tasks/{id} [get]
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskQueue.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleTaskStats godoc
// @Summary      Queue statistics
// @Description  Returns counts of pending, processing, completed and failed tasks (admin only)
// @Tags         Tasks
// @Produce      json
// @Success      200  {object}  driven.QueueStats
// @Router       /api/v1/tasks/stats [get]
func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.taskQueue.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Settings endpoints

// handleGetSettings godoc
// @Summary      Get pipeline settings
// @Description  Returns chunking and retrieval settings (admin only)
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  domain.Settings
// @Router       /api/v1/settings [get]
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsService.Get(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings godoc
// @Summary      Update pipeline settings
// @Description  Updates chunking and retrieval settings (admin only)
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        request  body      driving.UpdateSettingsRequest  true  "Fields to update"
// @Success      200      {object}  domain.Settings
// @Failure      400      {object}  ErrorResponse  "Invalid settings"
// @Router       /api/v1/settings [put]
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.settingsService.Update(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleGetAISettings godoc
// @Summary      Get AI settings
// @Description  Returns AI provider configuration. API keys are never serialized.
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  domain.AISettings
// @Router       /api/v1/settings/ai [get]
func (s *Server) handleGetAISettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settingsService.GetAISettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateAISettings godoc
// @Summary      Update AI settings
// @Description  Updates AI provider configuration and hot-reloads the services (admin only)
// @Tags         Settings
// @Accept       json
// @Produce      json
// @Param        request  body      driving.UpdateAISettingsRequest  true  "Provider configuration"
// @Success      200      {object}  driving.AISettingsStatus
// @Failure      400      {object}  ErrorResponse  "Invalid provider or configuration"
// @Router       /api/v1/settings/ai [put]
func (s *Server) handleUpdateAISettings(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateAISettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := s.settingsService.UpdateAISettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleGetAIStatus godoc
// @Summary      AI service status
// @Description  Returns whether embedding and generation services are available
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  driving.AISettingsStatus
// @Router       /api/v1/settings/ai/status [get]
func (s *Server) handleGetAIStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.settingsService.GetAIStatus(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// handleTestAIConnection godoc
// @Summary      Test AI connections
// @Description  Pings the configured embedding and generation providers (admin only)
// @Tags         Settings
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A provider is unreachable"
// @Router       /api/v1/settings/ai/test [post]
func (s *Server) handleTestAIConnection(w http.ResponseWriter, r *http.Request) {
	if err := s.settingsService.TestConnection(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helpers

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// writeServiceError maps domain sentinel errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidChunkConfig),
		errors.Is(err, domain.ErrInvalidProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrEmptyIndex),
		errors.Is(err, domain.ErrIndexInProgress),
		errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing useful left to do
		return
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
