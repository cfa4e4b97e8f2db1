package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skimlab/deepresearch/internal/models"
	"github.com/skimlab/deepresearch/internal/report"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Pipeline is the service surface the handlers need.
type Pipeline interface {
	Run(ctx context.Context, query string, depth models.Depth) (*RunResult, error)
	Export(ctx context.Context, id, format string) (*report.Artifact, error)
}

// Handler holds the research HTTP handlers.
type Handler struct {
	svc Pipeline
	log *zap.Logger
}

func NewHandler(svc Pipeline, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the research endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/research", h.Create)
	r.Get("/api/research/{id}/download/{format}", h.Download)
}

// Create runs the full pipeline and returns the linked answer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query must not be empty"})
		return
	}
	if req.Depth == "" {
		req.Depth = string(models.DepthQuick)
	}
	depth, ok := models.ParseDepth(req.Depth)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "depth must be quick or deep"})
		return
	}

	res, err := h.svc.Run(r.Context(), req.Query, depth)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ResearchResponse{
		AnswerHTML:    res.AnswerHTML,
		Sources:       res.Sources,
		ReportID:      res.ReportID,
		ResearchDepth: string(res.Depth),
	})
}

func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	var synthErr *SynthesisError
	if errors.As(err, &synthErr) {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":   synthErr.Error(),
			"sources": synthErr.Sources,
		})
		return
	}
	var discErr *DiscoveryError
	if errors.As(err, &discErr) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": discErr.Error()})
		return
	}
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": extErr.Error()})
		return
	}
	if errors.Is(err, ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query must not be empty"})
		return
	}
	h.log.Error("pipeline error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// Download builds and serves a report artifact.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")

	art, err := h.svc.Export(r.Context(), id, format)
	switch {
	case err == nil:
	case errors.Is(err, report.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
		return
	case errors.Is(err, report.ErrUnknownFormat):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be docx or pdf"})
		return
	default:
		h.log.Error("export error", zap.String("report_id", id), zap.String("format", format), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate export"})
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Write(art.Data)
}
