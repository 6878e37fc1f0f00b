// Package handler exposes the reference catalog over HTTP. Read-only: the
// catalog is seeded at startup and immutable from the API's perspective.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"sdagate/internal/catalog"
	"sdagate/internal/evaluation"
	"sdagate/internal/platform/middleware"
	"sdagate/internal/transport/http/shared"
	"sdagate/pkg/domain"
	dErrors "sdagate/pkg/domain-errors"
)

// GateChecker runs the permission/gate pipeline for a stored service.
type GateChecker interface {
	CheckLegalGate(ctx context.Context, serviceID int64, category, kind string) (domain.PermissionCode, evaluation.GateResult, error)
}

// Handler handles catalog endpoints.
type Handler struct {
	logger *slog.Logger
	store  catalog.Store
	gate   GateChecker
}

// New creates a catalog Handler.
func New(store catalog.Store, gate GateChecker, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, store: store, gate: gate}
}

// Register mounts the catalog routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", h.handleListServices)
		r.Get("/categories", h.handleListCategories)
		r.Get("/{serviceID}", h.handleGetService)
		r.Get("/{serviceID}/threats", h.handleServiceThreats)
		r.Get("/{serviceID}/permission", h.handleServicePermission)
	})
	r.Route("/api/threats", func(r chi.Router) {
		r.Get("/", h.handleListThreats)
		r.Get("/safeguard-levels", h.handleListSafeguardLevels)
		r.Get("/{threatID}", h.handleGetThreat)
		r.Get("/{threatID}/safeguards", h.handleThreatSafeguards)
	})
	r.Get("/api/safeguards", h.handleListSafeguards)
	r.Route("/api/legal-rules", func(r chi.Router) {
		r.Get("/", h.handleListLegalRules)
		r.Get("/check", h.handleLegalGateCheck)
	})
}

// serviceResponse flattens the tuple-keyed matrix into a JSON object grouped
// by entity category.
type serviceResponse struct {
	catalog.Service
	Matrix map[string]map[string]string `json:"matrix"`
}

func toServiceResponse(svc catalog.Service) serviceResponse {
	matrix := make(map[string]map[string]string)
	for key, code := range svc.Matrix {
		category := string(key.Category)
		if matrix[category] == nil {
			matrix[category] = make(map[string]string)
		}
		matrix[category][string(key.Kind)] = string(code)
	}
	return serviceResponse{Service: svc, Matrix: matrix}
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	var filter catalog.ServiceFilter
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "category_id must be an integer"))
			return
		}
		filter.CategoryID = id
	}
	filter.Search = r.URL.Query().Get("search")

	services, err := h.store.ListServices(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, "list services", err)
		return
	}
	out := make([]serviceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toServiceResponse(svc))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.serverError(w, r, "list categories", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "serviceID")
	if !ok {
		return
	}
	svc, err := h.store.FindService(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toServiceResponse(*svc))
}

func (h *Handler) handleServiceThreats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "serviceID")
	if !ok {
		return
	}
	threats, err := h.store.ListThreatsForService(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, threats)
}

// permissionResponse mirrors the shape consumed by the evaluation wizard.
type permissionResponse struct {
	Permitted      bool    `json:"permitted"`
	PermissionCode *string `json:"permission_code"`
	Message        string  `json:"message"`
	Conclusion     *string `json:"conclusion"`
}

func toPermissionResponse(permission domain.PermissionCode, gate evaluation.GateResult) permissionResponse {
	resp := permissionResponse{
		Permitted: gate.Passed,
		Message:   gate.Reason,
	}
	if permission != domain.PermissionUnset {
		code := string(permission)
		resp.PermissionCode = &code
	}
	if gate.Forced() {
		conclusion := string(gate.ForcedConclusion)
		resp.Conclusion = &conclusion
	}
	return resp
}

func (h *Handler) handleServicePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "serviceID")
	if !ok {
		return
	}
	permission, gate, err := h.gate.CheckLegalGate(r.Context(), id,
		r.URL.Query().Get("entity_category"),
		r.URL.Query().Get("relationship_kind"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toPermissionResponse(permission, gate))
}

func (h *Handler) handleListThreats(w http.ResponseWriter, r *http.Request) {
	threats, err := h.store.ListThreats(r.Context())
	if err != nil {
		h.serverError(w, r, "list threats", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, threats)
}

func (h *Handler) handleListSafeguardLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.store.ListSafeguardLevels(r.Context())
	if err != nil {
		h.serverError(w, r, "list safeguard levels", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, levels)
}

func (h *Handler) handleGetThreat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "threatID")
	if !ok {
		return
	}
	threat, err := h.store.FindThreat(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	safeguards, err := h.store.ListSafeguards(r.Context(), catalog.SafeguardFilter{ThreatID: id})
	if err != nil {
		h.serverError(w, r, "list threat safeguards", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"threat":     threat,
		"safeguards": safeguards,
	})
}

func (h *Handler) handleThreatSafeguards(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "threatID")
	if !ok {
		return
	}
	if _, err := h.store.FindThreat(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	safeguards, err := h.store.ListSafeguards(r.Context(), catalog.SafeguardFilter{
		ThreatID:  id,
		LevelCode: r.URL.Query().Get("level"),
	})
	if err != nil {
		h.serverError(w, r, "list threat safeguards", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, safeguards)
}

func (h *Handler) handleListSafeguards(w http.ResponseWriter, r *http.Request) {
	safeguards, err := h.store.ListSafeguards(r.Context(), catalog.SafeguardFilter{
		LevelCode: r.URL.Query().Get("level"),
	})
	if err != nil {
		h.serverError(w, r, "list safeguards", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, safeguards)
}

func (h *Handler) handleListLegalRules(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("entity_category")
	if category != "" {
		if _, err := domain.ParseEntityCategory(category); err != nil {
			shared.WriteError(w, err)
			return
		}
	}
	rules, err := h.store.ListLegalRules(r.Context(), catalog.LegalRuleFilter{
		EntityCategory: category,
		RuleType:       r.URL.Query().Get("rule_type"),
	})
	if err != nil {
		h.serverError(w, r, "list legal rules", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rules)
}

// handleLegalGateCheck returns the gate outcome together with the applicable
// display-only rules. The rules never feed the decision; they ride along for
// presentation, which is why this endpoint lives with the catalog.
func (h *Handler) handleLegalGateCheck(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(r.URL.Query().Get("service_id"), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "service_id must be an integer"))
		return
	}
	category := r.URL.Query().Get("entity_category")
	permission, gate, err := h.gate.CheckLegalGate(r.Context(), serviceID, category,
		r.URL.Query().Get("relationship_kind"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rules, err := h.store.ListLegalRules(r.Context(), catalog.LegalRuleFilter{EntityCategory: category})
	if err != nil {
		h.serverError(w, r, "list applicable rules", err)
		return
	}

	resp := struct {
		permissionResponse
		Passed          bool                `json:"passed"`
		Reason          string              `json:"reason"`
		ApplicableRules []catalog.LegalRule `json:"applicable_rules"`
	}{
		permissionResponse: toPermissionResponse(permission, gate),
		Passed:             gate.Passed,
		Reason:             gate.Reason,
		ApplicableRules:    rules,
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, param+" must be an integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.ErrorContext(r.Context(), "catalog read failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"op", op,
		"error", err.Error(),
	)
	shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "catalog read failed"))
}
