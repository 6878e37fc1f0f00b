package evaluation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"sdagate/internal/catalog"
	"sdagate/internal/platform/metrics"
	"sdagate/pkg/domain"
	dErrors "sdagate/pkg/domain-errors"
	"sdagate/pkg/requestcontext"
)

// maxReferenceAttempts bounds regeneration when the store reports a
// reference-number collision.
const maxReferenceAttempts = 3

// CatalogReader is the slice of the catalog the builder needs: existence and
// matrix lookups. Defined here so the evaluation package states its own
// dependency instead of importing the full store surface.
type CatalogReader interface {
	FindService(ctx context.Context, id int64) (*catalog.Service, error)
	FindThreat(ctx context.Context, id int64) (*catalog.Threat, error)
	FindSafeguard(ctx context.Context, id int64) (*catalog.Safeguard, error)
}

// ThreatEntry is one identified threat in a create request. Significance
// arrives as free text and normalizes leniently to MEDIUM when unrecognized.
type ThreatEntry struct {
	ThreatID     int64  `json:"threat_id"`
	Significance string `json:"significance"`
	Notes        string `json:"notes,omitempty"`
}

// SafeguardEntry is one applied safeguard in a create request.
type SafeguardEntry struct {
	SafeguardID int64  `json:"safeguard_id"`
	Notes       string `json:"notes,omitempty"`
}

// CreateRequest carries everything needed to build an evaluation aggregate.
// Enum fields are raw strings: validating them is this service's job.
type CreateRequest struct {
	EntityName       string           `json:"entity_name"`
	EntityCategory   string           `json:"entity_category"`
	RelationshipKind string           `json:"relationship_kind"`
	ServiceID        int64            `json:"service_id"`
	Threats          []ThreatEntry    `json:"threats"`
	Safeguards       []SafeguardEntry `json:"safeguards"`
	AuditorName      string           `json:"auditor_name,omitempty"`
	Notes            string           `json:"notes,omitempty"`
}

// Service is the evaluation aggregate builder. It orchestrates permission
// resolution, the legal gate, and the classifier, then persists the result
// atomically. The decision functions themselves stay pure and free-standing;
// the service owns validation, reference generation, and storage.
type Service struct {
	catalog CatalogReader
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(catalogReader CatalogReader, store Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{catalog: catalogReader, store: store, logger: logger, metrics: m}
}

// ResolvePermission resolves the matrix cell for a stored service.
//
// Errors: CodeInvalidInput for bad enums, CodeNotFound for an unknown
// service.
func (s *Service) ResolvePermission(ctx context.Context, serviceID int64, categoryRaw, kindRaw string) (domain.PermissionCode, error) {
	category, err := domain.ParseEntityCategory(categoryRaw)
	if err != nil {
		return domain.PermissionUnset, err
	}
	kind, err := domain.ParseRelationshipKind(kindRaw)
	if err != nil {
		return domain.PermissionUnset, err
	}
	svc, err := s.catalog.FindService(ctx, serviceID)
	if err != nil {
		return domain.PermissionUnset, err
	}
	return ResolvePermission(svc.Matrix, category, kind), nil
}

// CheckLegalGate resolves the permission and runs the gate over it.
func (s *Service) CheckLegalGate(ctx context.Context, serviceID int64, categoryRaw, kindRaw string) (domain.PermissionCode, GateResult, error) {
	permission, err := s.ResolvePermission(ctx, serviceID, categoryRaw, kindRaw)
	if err != nil {
		return domain.PermissionUnset, GateResult{}, err
	}
	return permission, CheckLegalGate(permission), nil
}

// ClassifyConclusion previews the conclusion for a permission code and a set
// of threat significances and safeguards, honoring the gate's forced
// conclusions so the preview can never disagree with a created evaluation.
func (s *Service) ClassifyConclusion(permission domain.PermissionCode, significances []domain.Significance, safeguardCount int) domain.ConclusionCode {
	if gate := CheckLegalGate(permission); gate.Forced() {
		return gate.ForcedConclusion
	}
	return Classify(ClassifyInput{
		Permission: permission,
		Threats:    significances,
		Safeguards: safeguardCount,
	})
}

// CreateEvaluation validates the request, runs the decision pipeline, and
// persists the aggregate with its children as one unit.
//
// Errors: CodeInvalidInput/CodeBadRequest before any state change;
// CodeNotFound when the service, a threat, or a safeguard reference does not
// exist; CodeInternal when reference generation keeps colliding.
func (s *Service) CreateEvaluation(ctx context.Context, req CreateRequest) (*Evaluation, error) {
	if req.EntityName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "entity_name is required")
	}
	category, err := domain.ParseEntityCategory(req.EntityCategory)
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseRelationshipKind(req.RelationshipKind)
	if err != nil {
		return nil, err
	}

	svc, err := s.catalog.FindService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	for _, entry := range req.Threats {
		if _, err := s.catalog.FindThreat(ctx, entry.ThreatID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown threat reference")
		}
	}
	for _, entry := range req.Safeguards {
		if _, err := s.catalog.FindSafeguard(ctx, entry.SafeguardID); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown safeguard reference")
		}
	}

	permission := ResolvePermission(svc.Matrix, category, kind)
	gate := CheckLegalGate(permission)

	var conclusion domain.ConclusionCode
	if gate.Forced() {
		// The gate's decision is terminal; the classifier is never consulted.
		conclusion = gate.ForcedConclusion
		if permission == domain.PermissionProhibited {
			s.metrics.ObserveGateBlocked()
		}
	} else {
		significances := make([]domain.Significance, 0, len(req.Threats))
		for _, entry := range req.Threats {
			significances = append(significances, domain.NormalizeSignificance(entry.Significance))
		}
		conclusion = Classify(ClassifyInput{
			Permission: permission,
			Threats:    significances,
			Safeguards: len(req.Safeguards),
		})
	}

	now := requestcontext.Now(ctx)
	eval := &Evaluation{
		ID:               uuid.New(),
		CreatedAt:        now,
		EntityName:       req.EntityName,
		EntityCategory:   category,
		RelationshipKind: kind,
		ServiceID:        svc.ID,
		LegalGatePassed:  gate.Passed,
		LegalGateReason:  gate.Reason,
		Conclusion:       conclusion,
		Notes:            req.Notes,
		AuditorName:      req.AuditorName,
	}
	for _, entry := range req.Threats {
		eval.Threats = append(eval.Threats, ThreatAssessment{
			ID:           uuid.New(),
			EvaluationID: eval.ID,
			ThreatID:     entry.ThreatID,
			Significance: domain.NormalizeSignificance(entry.Significance),
			Notes:        entry.Notes,
		})
	}
	for _, entry := range req.Safeguards {
		eval.Safeguards = append(eval.Safeguards, SafeguardApplication{
			ID:           uuid.New(),
			EvaluationID: eval.ID,
			SafeguardID:  entry.SafeguardID,
			Applied:      true,
			Notes:        entry.Notes,
		})
	}

	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		eval.ReferenceNumber = NewReferenceNumber(now)
		err = s.store.Create(ctx, eval)
		if err == nil {
			break
		}
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "reference number collision, regenerating",
			"request_id", requestcontext.RequestID(ctx),
			"reference", eval.ReferenceNumber,
		)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not allocate a unique reference number")
	}

	s.metrics.ObserveEvaluationCreated(string(conclusion))
	s.logger.InfoContext(ctx, "evaluation created",
		"request_id", requestcontext.RequestID(ctx),
		"reference", eval.ReferenceNumber,
		"service_id", svc.ID,
		"conclusion", string(conclusion),
		"legal_gate_passed", gate.Passed,
	)
	return eval, nil
}

// GetEvaluation loads one aggregate with both child collections.
func (s *Service) GetEvaluation(ctx context.Context, id uuid.UUID) (*Evaluation, error) {
	return s.store.FindByID(ctx, id)
}

// ListEvaluations pages through stored aggregates, newest last.
func (s *Service) ListEvaluations(ctx context.Context, limit, offset int) ([]*Evaluation, error) {
	return s.store.List(ctx, limit, offset)
}

// DeleteEvaluation removes the aggregate and both child collections.
//
// Errors: CodeNotFound when no such evaluation exists.
func (s *Service) DeleteEvaluation(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.ObserveEvaluationDeleted()
	s.logger.InfoContext(ctx, "evaluation deleted",
		"request_id", requestcontext.RequestID(ctx),
		"evaluation_id", id.String(),
	)
	return nil
}
