// Package handler exposes the evaluation lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"sdagate/internal/evaluation"
	"sdagate/internal/export"
	"sdagate/internal/platform/middleware"
	"sdagate/internal/transport/http/shared"
	"sdagate/pkg/domain"
	dErrors "sdagate/pkg/domain-errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handler handles evaluation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *evaluation.Service
	exporter *export.Service
}

// New creates an evaluation Handler.
func New(service *evaluation.Service, exporter *export.Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service, exporter: exporter}
}

// Register mounts the evaluation routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/evaluations", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Post("/classify", h.handleClassify)
		r.Get("/", h.handleList)
		r.Get("/{evaluationID}", h.handleGet)
		r.Delete("/{evaluationID}", h.handleDelete)
		r.Get("/{evaluationID}/export", h.handleExport)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req evaluation.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	eval, err := h.service.CreateEvaluation(r.Context(), req)
	if err != nil {
		h.logFailure(r, "create evaluation", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, eval)
}

// classifyRequest previews a conclusion without persisting anything. The
// wizard calls this after each step so the user sees where the evaluation is
// heading.
type classifyRequest struct {
	PermissionCode string   `json:"permission_code"`
	Significances  []string `json:"significances"`
	SafeguardCount int      `json:"safeguard_count"`
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	permission := domain.PermissionCode(req.PermissionCode)
	significances := make([]domain.Significance, 0, len(req.Significances))
	for _, raw := range req.Significances {
		significances = append(significances, domain.NormalizeSignificance(raw))
	}
	conclusion := h.service.ClassifyConclusion(permission, significances, req.SafeguardCount)
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"conclusion": conclusion,
		"display":    evaluation.DescribeConclusion(conclusion),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	evals, err := h.service.ListEvaluations(r.Context(), limit, offset)
	if err != nil {
		h.logFailure(r, "list evaluations", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"evaluations": evals,
		"limit":       limit,
		"offset":      offset,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r)
	if !ok {
		return
	}
	eval, err := h.service.GetEvaluation(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, eval)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteEvaluation(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r)
	if !ok {
		return
	}
	doc, err := h.exporter.BuildDocument(r.Context(), id)
	if err != nil {
		h.logFailure(r, "export evaluation", err)
		shared.WriteError(w, err)
		return
	}
	body, err := doc.RenderMarkdown()
	if err != nil {
		h.logFailure(r, "render export", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "render export"))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "evaluationID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "evaluation id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) logFailure(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(r.Context(), "evaluation operation failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"op", op,
		"error", err.Error(),
	)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
