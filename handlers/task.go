package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"docConverter/middleware"
	"docConverter/models"
	"docConverter/service"
	"docConverter/store"
)

const maxFormMemory = 32 << 20

// ConversionService is the slice of the task service the HTTP layer needs.
type ConversionService interface {
	Submit(ctx context.Context, files []service.UploadedFile, targetFormat string) (string, error)
	Status(ctx context.Context, taskID string) (models.TaskStatus, string, error)
	Fetch(ctx context.Context, taskID string) (*service.Artifact, error)
}

type SubmitResponse struct {
	TaskID string `json:"task_id"`
}

type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Detail  string `json:"detail"`
	TraceID string `json:"trace_id,omitempty"`
}

type TaskHandler struct {
	service ConversionService
	logger  *zap.Logger
}

func NewTaskHandler(service ConversionService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the public surface on mux.
func (h *TaskHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/upload", h.Upload)
	mux.HandleFunc("/status/", h.Status)
	mux.HandleFunc("/download/", h.Download)
	mux.HandleFunc("/health", h.Health)
}

func (h *TaskHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, r, "method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.respondError(w, r, "failed to parse form", err, http.StatusBadRequest)
		return
	}

	target := r.FormValue("target_format")
	if target == "" {
		h.respondError(w, r, "target_format is required", nil, http.StatusBadRequest)
		return
	}

	var files []service.UploadedFile
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			f, err := header.Open()
			if err != nil {
				h.respondError(w, r, "failed to read upload", err, http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				h.respondError(w, r, "failed to read upload", err, http.StatusBadRequest)
				return
			}
			files = append(files, service.UploadedFile{Name: header.Filename, Data: data})
		}
	}

	taskID, err := h.service.Submit(r.Context(), files, target)
	if err != nil {
		if service.IsAdmissionError(err) {
			h.respondError(w, r, err.Error(), nil, http.StatusBadRequest)
			return
		}
		h.respondError(w, r, "failed to create task", err, http.StatusInternalServerError)
		return
	}

	middleware.Logger(r.Context(), h.logger).Info("Upload accepted",
		zap.String("task_id", taskID),
		zap.Int("files", len(files)),
	)

	h.respondJSON(w, http.StatusCreated, SubmitResponse{TaskID: taskID})
}

func (h *TaskHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, r, "method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/status/")
	if taskID == "" {
		h.respondError(w, r, "task ID is required", nil, http.StatusBadRequest)
		return
	}

	status, errMsg, err := h.service.Status(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			h.respondError(w, r, "task not found", nil, http.StatusNotFound)
			return
		}
		h.respondError(w, r, "failed to get task status", err, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, StatusResponse{Status: string(status), Error: errMsg})
}

func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, r, "method not allowed", nil, http.StatusMethodNotAllowed)
		return
	}

	taskID := strings.TrimPrefix(r.URL.Path, "/download/")
	if taskID == "" {
		h.respondError(w, r, "task ID is required", nil, http.StatusBadRequest)
		return
	}

	artifact, err := h.service.Fetch(r.Context(), taskID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrTaskNotFound):
			h.respondError(w, r, "task not found", nil, http.StatusNotFound)
		case errors.Is(err, service.ErrNotReady):
			h.respondError(w, r, "conversion result not ready", nil, http.StatusNotFound)
		case errors.Is(err, service.ErrArtifactExpired):
			h.respondError(w, r, "conversion result has expired", nil, http.StatusGone)
		default:
			h.respondError(w, r, "failed to fetch result", err, http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

func (h *TaskHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TaskHandler) respondError(w http.ResponseWriter, r *http.Request, detail string, err error, status int) {
	if status >= http.StatusInternalServerError {
		middleware.Logger(r.Context(), h.logger).Error(detail, zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Detail: detail, TraceID: middleware.GetTraceID(r.Context())})
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
