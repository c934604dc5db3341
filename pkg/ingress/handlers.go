package ingress

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cuemby/visionq/internal/apperr"
	"github.com/cuemby/visionq/internal/log"
	"github.com/cuemby/visionq/internal/metrics"
	"github.com/cuemby/visionq/pkg/bus"
	"github.com/cuemby/visionq/pkg/store"
	"github.com/cuemby/visionq/pkg/task"
)

type uploadResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleUpload implements POST /api/v1/images/upload. Validation order
// matches the original controller exactly: content-type, then file
// extension, then size — so a zero-byte file with a bad content-type
// is rejected 400, never 413.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadSizeBytes+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeStatus(w, http.StatusRequestEntityTooLarge, apperr.NewValidation("file exceeds maximum upload size"))
			return
		}
		writeError(w, apperr.NewValidation("malformed multipart upload: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.NewValidation("missing file field: %v", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, apperr.NewValidation("unsupported content type: %s", contentType))
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !supportedExtension(ext) {
		writeError(w, apperr.NewValidation("unsupported file extension: %s", ext))
		return
	}

	body, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperr.NewValidation("failed to read upload body: %v", err))
		return
	}
	if int64(len(body)) > s.MaxUploadSizeBytes {
		writeStatus(w, http.StatusRequestEntityTooLarge, apperr.NewValidation("file exceeds maximum upload size"))
		return
	}

	taskID := uuid.New().String()
	destPath := filepath.Join(s.UploadsDir, taskID+ext)
	if err := writeFile(destPath, body); err != nil {
		writeError(w, apperr.NewStore(err, "failed to persist upload"))
		return
	}

	metadata := map[string]string{
		"original_filename": header.Filename,
		"uploaded_at":       time.Now().UTC().Format(time.RFC3339),
		"file_size":         strconv.Itoa(len(body)),
		"content_type":      contentType,
	}
	if tag := r.FormValue("client_tag"); tag != "" {
		metadata["client_tag"] = tag
	}

	job := bus.Job{TaskID: taskID, ImagePath: destPath, Metadata: metadata}
	if err := s.Queue.Enqueue(r.Context(), job); err != nil {
		writeError(w, apperr.NewStore(err, "failed to enqueue task %s", taskID))
		return
	}
	if err := s.Results.Publish(r.Context(), taskID, bus.StatePending); err != nil {
		log.Errorf("failed to publish PENDING state", err)
	}
	metrics.UploadsTotal.WithLabelValues("accepted").Inc()

	writeJSON(w, http.StatusOK, uploadResponse{TaskID: taskID, Status: "pending", Message: "upload accepted, processing queued"})
}

func supportedExtension(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif":
		return true
	default:
		return false
	}
}

// handleGetResult implements the §4.6 three-tier fallback: the stored
// result, then task metadata (pending or processing -> 202, a terminal
// status without a result row -> the noted invariant-violation 404),
// then the result channel's progress token.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	ctx := r.Context()

	if result, ok, err := s.Store.GetResult(ctx, taskID); err != nil {
		writeError(w, err)
		return
	} else if ok {
		writeJSON(w, http.StatusOK, FormatResponse(*result))
		return
	}

	if meta, ok, err := s.Store.GetTaskMetadata(ctx, taskID); err != nil {
		writeError(w, err)
		return
	} else if ok {
		if meta.Status == task.StatusProcessing || meta.Status == task.StatusPending {
			writeError(w, apperr.NewInProgress("task %s is still processing", taskID))
			return
		}
		writeError(w, apperr.NewNotFound("task %s has no result", taskID))
		return
	}

	if state, ok, err := s.Results.Get(ctx, taskID); err != nil {
		writeError(w, err)
		return
	} else if ok && (state == bus.StatePending || state == bus.StateProcessing) {
		writeError(w, apperr.NewInProgress("task %s is still processing", taskID))
		return
	}

	writeError(w, apperr.NewNotFound("task %s not found", taskID))
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	deleted, err := s.Store.DeleteResult(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeError(w, apperr.NewNotFound("task %s not found", taskID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "task_id": taskID})
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxPeriodLimit   = 1000
)

// handleListResults implements GET /api/v1/results, reproducing the
// original's page*limit-then-slice pagination: the store is asked for
// limit*page rows, then the requested page is sliced out in-process.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	page := parseIntDefault(q.Get("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := parseIntDefault(q.Get("limit"), defaultListLimit)

	status := task.Status(q.Get("status"))
	startStr, endStr := q.Get("start_date"), q.Get("end_date")

	var (
		rows []store.TaskMetadata
		err  error
	)

	switch {
	case startStr != "" && endStr != "":
		if limit > maxPeriodLimit || limit <= 0 {
			limit = maxPeriodLimit
		}
		start, perr := time.Parse(time.RFC3339, startStr)
		if perr != nil {
			writeError(w, apperr.NewValidation("invalid start_date: %v", perr))
			return
		}
		end, perr := time.Parse(time.RFC3339, endStr)
		if perr != nil {
			writeError(w, apperr.NewValidation("invalid end_date: %v", perr))
			return
		}
		fetched, ferr := s.Store.ListResultsByPeriod(ctx, start, end, limit*page)
		rows, err = filterByStatus(fetched, status), ferr
	case status != "":
		if limit > maxListLimit || limit <= 0 {
			limit = maxListLimit
		}
		fetched, ferr := s.Store.ListResultsByStatus(ctx, status, limit*page)
		rows, err = fetched, ferr
	default:
		if limit > maxListLimit || limit <= 0 {
			limit = maxListLimit
		}
		fetched, ferr := s.Store.ListAllResults(ctx, limit*page)
		rows, err = fetched, ferr
	}

	if err != nil {
		writeError(w, err)
		return
	}

	startIdx := (page - 1) * limit
	endIdx := startIdx + limit
	if startIdx > len(rows) {
		startIdx = len(rows)
	}
	if endIdx > len(rows) {
		endIdx = len(rows)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": rows[startIdx:endIdx],
		"total": len(rows),
		"page":  page,
		"limit": limit,
	})
}

func filterByStatus(rows []store.TaskMetadata, status task.Status) []store.TaskMetadata {
	if status == "" {
		return rows
	}
	filtered := make([]store.TaskMetadata, 0, len(rows))
	for _, r := range rows {
		if r.Status == status {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := s.Health.Check(r.Context())
	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.GetStorageStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeStatus(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeError maps the apperr taxonomy to HTTP status via errors.As,
// never by matching on error text.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *apperr.ValidationError
	var notFoundErr *apperr.NotFoundError
	var inProgressErr *apperr.InProgressError
	var pipelineErr *apperr.PipelineError
	var storeErr *apperr.StoreError

	switch {
	case errors.As(err, &validationErr):
		writeStatus(w, http.StatusBadRequest, err)
	case errors.As(err, &notFoundErr):
		writeStatus(w, http.StatusNotFound, err)
	case errors.As(err, &inProgressErr):
		writeStatus(w, http.StatusAccepted, err)
	case errors.As(err, &pipelineErr):
		writeStatus(w, http.StatusInternalServerError, err)
	case errors.As(err, &storeErr):
		writeStatus(w, http.StatusInternalServerError, err)
	default:
		writeStatus(w, http.StatusInternalServerError, err)
	}
}
