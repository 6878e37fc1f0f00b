package evaluation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"sdagate/internal/catalog"
	"sdagate/pkg/domain"
	dErrors "sdagate/pkg/domain-errors"
	"sdagate/pkg/requestcontext"
)

type EvaluationServiceSuite struct {
	suite.Suite
	ctx     context.Context
	catalog *catalog.InMemoryStore
	store   *InMemoryStore
	service *Service

	allowedService    catalog.Service
	limitedService    catalog.Service
	prohibitedService catalog.Service
	unsetService      catalog.Service
	threat            catalog.Threat
	safeguard         catalog.Safeguard
}

func TestEvaluationServiceSuite(t *testing.T) {
	suite.Run(t, new(EvaluationServiceSuite))
}

func (s *EvaluationServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.catalog = catalog.NewInMemoryStore()
	s.store = NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = NewService(s.catalog, s.store, logger, nil)

	cat := catalog.Category{Code: "CAT-TST", Name: "Testing"}
	s.Require().NoError(s.catalog.UpsertCategory(s.ctx, &cat))

	uniformMatrix := func(code domain.PermissionCode) domain.PermissionMatrix {
		m := make(domain.PermissionMatrix)
		for _, cell := range domain.Cells() {
			m[cell] = code
		}
		return m
	}

	s.allowedService = catalog.Service{Code: "SVC-A", Name: "Allowed everywhere", CategoryID: cat.ID, Matrix: uniformMatrix(domain.PermissionAllowed)}
	s.limitedService = catalog.Service{Code: "SVC-L", Name: "Limited everywhere", CategoryID: cat.ID, Matrix: uniformMatrix(domain.PermissionLimited)}
	s.prohibitedService = catalog.Service{Code: "SVC-P", Name: "Prohibited everywhere", CategoryID: cat.ID, Matrix: uniformMatrix(domain.PermissionProhibited)}
	s.unsetService = catalog.Service{Code: "SVC-U", Name: "Never populated", CategoryID: cat.ID, Matrix: domain.PermissionMatrix{}}
	for _, svc := range []*catalog.Service{&s.allowedService, &s.limitedService, &s.prohibitedService, &s.unsetService} {
		s.Require().NoError(s.catalog.UpsertService(s.ctx, svc))
	}

	s.threat = catalog.Threat{Code: "SELF_REVIEW", Name: "Self review"}
	s.Require().NoError(s.catalog.UpsertThreat(s.ctx, &s.threat))

	level := catalog.SafeguardLevel{Code: "FIRM", Name: "Firm level"}
	s.Require().NoError(s.catalog.UpsertSafeguardLevel(s.ctx, &level))
	s.safeguard = catalog.Safeguard{ThreatID: s.threat.ID, LevelID: level.ID, Description: "Separate engagement teams"}
	s.Require().NoError(s.catalog.UpsertSafeguard(s.ctx, &s.safeguard))
}

func (s *EvaluationServiceSuite) validRequest(serviceID int64) CreateRequest {
	return CreateRequest{
		EntityName:       "Acme Holdings",
		EntityCategory:   "EIP",
		RelationshipKind: "AUDITED",
		ServiceID:        serviceID,
	}
}

// TestResolvePermission covers the enum-validation surface in front of the
// pure matrix lookup.
func (s *EvaluationServiceSuite) TestResolvePermission() {
	s.Run("resolves a populated cell", func() {
		code, err := s.service.ResolvePermission(s.ctx, s.limitedService.ID, "EIP", "CHAIN")
		s.Require().NoError(err)
		s.Equal(domain.PermissionLimited, code)
	})

	s.Run("unpopulated cell resolves to unset, not an error", func() {
		code, err := s.service.ResolvePermission(s.ctx, s.unsetService.ID, "NO_EIP", "AFFILIATED")
		s.Require().NoError(err)
		s.Equal(domain.PermissionUnset, code)
	})

	s.Run("rejects unknown entity category", func() {
		_, err := s.service.ResolvePermission(s.ctx, s.allowedService.ID, "MAYBE_EIP", "AUDITED")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects unknown relationship kind", func() {
		_, err := s.service.ResolvePermission(s.ctx, s.allowedService.ID, "EIP", "COUSIN")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown service is not found", func() {
		_, err := s.service.ResolvePermission(s.ctx, 99999, "EIP", "AUDITED")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestCreateValidation covers the rejections that happen before any state
// change.
func (s *EvaluationServiceSuite) TestCreateValidation() {
	s.Run("empty entity name", func() {
		req := s.validRequest(s.allowedService.ID)
		req.EntityName = ""
		_, err := s.service.CreateEvaluation(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("bad enums", func() {
		req := s.validRequest(s.allowedService.ID)
		req.EntityCategory = "PUBLIC"
		_, err := s.service.CreateEvaluation(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown threat reference", func() {
		req := s.validRequest(s.allowedService.ID)
		req.Threats = []ThreatEntry{{ThreatID: 424242, Significance: "LOW"}}
		_, err := s.service.CreateEvaluation(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown safeguard reference", func() {
		req := s.validRequest(s.allowedService.ID)
		req.Safeguards = []SafeguardEntry{{SafeguardID: 424242}}
		_, err := s.service.CreateEvaluation(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("nothing persisted after a rejection", func() {
		req := s.validRequest(s.allowedService.ID)
		req.EntityName = ""
		_, _ = s.service.CreateEvaluation(s.ctx, req)
		evals, err := s.store.List(s.ctx, 10, 0)
		s.Require().NoError(err)
		s.Empty(evals)
	})
}

// TestCreatePipeline verifies the permission, gate, and classifier wiring end
// to end through the builder.
func (s *EvaluationServiceSuite) TestCreatePipeline() {
	s.Run("clean path approves", func() {
		eval, err := s.service.CreateEvaluation(s.ctx, s.validRequest(s.allowedService.ID))
		s.Require().NoError(err)
		s.True(eval.LegalGatePassed)
		s.Equal(domain.ConclusionApproved, eval.Conclusion)
		s.Regexp(referencePattern, eval.ReferenceNumber)
	})

	s.Run("prohibited cell forces C5 regardless of threat input", func() {
		req := s.validRequest(s.prohibitedService.ID)
		req.Threats = []ThreatEntry{{ThreatID: s.threat.ID, Significance: "LOW"}}
		req.Safeguards = []SafeguardEntry{{SafeguardID: s.safeguard.ID}}
		eval, err := s.service.CreateEvaluation(s.ctx, req)
		s.Require().NoError(err)
		s.False(eval.LegalGatePassed)
		s.Equal(domain.ConclusionProhibited, eval.Conclusion)
	})

	s.Run("unset cell forces C7 and still persists", func() {
		eval, err := s.service.CreateEvaluation(s.ctx, s.validRequest(s.unsetService.ID))
		s.Require().NoError(err)
		s.False(eval.LegalGatePassed)
		s.Equal(domain.ConclusionNeedsAnalysis, eval.Conclusion)

		stored, err := s.store.FindByID(s.ctx, eval.ID)
		s.Require().NoError(err)
		s.Equal(eval.ReferenceNumber, stored.ReferenceNumber)
	})

	s.Run("limited cell with mitigated threat is conditional", func() {
		req := s.validRequest(s.limitedService.ID)
		req.Threats = []ThreatEntry{{ThreatID: s.threat.ID, Significance: "MEDIUM"}}
		req.Safeguards = []SafeguardEntry{{SafeguardID: s.safeguard.ID}}
		eval, err := s.service.CreateEvaluation(s.ctx, req)
		s.Require().NoError(err)
		s.True(eval.LegalGatePassed)
		s.Equal(domain.ConclusionConditional, eval.Conclusion)
	})

	s.Run("unrecognized significance normalizes to MEDIUM", func() {
		req := s.validRequest(s.allowedService.ID)
		req.Threats = []ThreatEntry{{ThreatID: s.threat.ID, Significance: "severe-ish"}}
		req.Safeguards = []SafeguardEntry{{SafeguardID: s.safeguard.ID}}
		eval, err := s.service.CreateEvaluation(s.ctx, req)
		s.Require().NoError(err)
		s.Require().Len(eval.Threats, 1)
		s.Equal(domain.SignificanceMedium, eval.Threats[0].Significance)
		s.Equal(domain.ConclusionApprovedWithSafeguards, eval.Conclusion)
	})

	s.Run("creation time comes from the request clock", func() {
		frozen := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(s.ctx, frozen)
		eval, err := s.service.CreateEvaluation(ctx, s.validRequest(s.allowedService.ID))
		s.Require().NoError(err)
		s.True(eval.CreatedAt.Equal(frozen))
		s.Contains(eval.ReferenceNumber, "SDA-20260701-")
	})
}

// TestClassifyConclusion verifies the preview honors forced gate outcomes.
func (s *EvaluationServiceSuite) TestClassifyConclusion() {
	s.Run("forced gate outcome wins over classifier input", func() {
		high := []domain.Significance{domain.SignificanceHigh}
		s.Equal(domain.ConclusionProhibited,
			s.service.ClassifyConclusion(domain.PermissionProhibited, high, 3))
		s.Equal(domain.ConclusionNeedsAnalysis,
			s.service.ClassifyConclusion(domain.PermissionUnset, nil, 0))
	})

	s.Run("open gate defers to the classifier", func() {
		s.Equal(domain.ConclusionApproved,
			s.service.ClassifyConclusion(domain.PermissionAllowed, nil, 0))
	})
}

// collidingStore forces reference conflicts for the first n Create calls.
type collidingStore struct {
	*InMemoryStore
	remaining int
	attempts  int
}

func (c *collidingStore) Create(ctx context.Context, eval *Evaluation) error {
	c.attempts++
	if c.remaining > 0 {
		c.remaining--
		return ErrDuplicateReference
	}
	return c.InMemoryStore.Create(ctx, eval)
}

// TestReferenceCollisions verifies the bounded regenerate-and-retry loop.
func (s *EvaluationServiceSuite) TestReferenceCollisions() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.Run("retries through transient collisions", func() {
		store := &collidingStore{InMemoryStore: NewInMemoryStore(), remaining: maxReferenceAttempts - 1}
		svc := NewService(s.catalog, store, logger, nil)
		eval, err := svc.CreateEvaluation(s.ctx, s.validRequest(s.allowedService.ID))
		s.Require().NoError(err)
		s.Equal(maxReferenceAttempts, store.attempts)
		s.NotEmpty(eval.ReferenceNumber)
	})

	s.Run("gives up when every attempt collides", func() {
		store := &collidingStore{InMemoryStore: NewInMemoryStore(), remaining: maxReferenceAttempts}
		svc := NewService(s.catalog, store, logger, nil)
		_, err := svc.CreateEvaluation(s.ctx, s.validRequest(s.allowedService.ID))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("non-conflict store errors do not retry", func() {
		store := &failingStore{err: dErrors.New(dErrors.CodeTimeout, "connection lost")}
		svc := NewService(s.catalog, store, logger, nil)
		_, err := svc.CreateEvaluation(s.ctx, s.validRequest(s.allowedService.ID))
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
		s.Equal(1, store.attempts)
	})
}

// failingStore fails every Create with a fixed error.
type failingStore struct {
	*InMemoryStore
	err      error
	attempts int
}

func (f *failingStore) Create(context.Context, *Evaluation) error {
	f.attempts++
	return f.err
}

// TestLifecycle covers get, list, and delete through the service.
func (s *EvaluationServiceSuite) TestLifecycle() {
	s.Run("get returns the full aggregate", func() {
		req := s.validRequest(s.allowedService.ID)
		req.Threats = []ThreatEntry{{ThreatID: s.threat.ID, Significance: "LOW"}}
		req.Safeguards = []SafeguardEntry{{SafeguardID: s.safeguard.ID}}
		created, err := s.service.CreateEvaluation(s.ctx, req)
		s.Require().NoError(err)

		got, err := s.service.GetEvaluation(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Len(got.Threats, 1)
		s.Len(got.Safeguards, 1)
		s.Equal(created.ID, got.Threats[0].EvaluationID)
	})

	s.Run("delete removes the aggregate", func() {
		created, err := s.service.CreateEvaluation(s.ctx, s.validRequest(s.allowedService.ID))
		s.Require().NoError(err)

		s.Require().NoError(s.service.DeleteEvaluation(s.ctx, created.ID))
		_, err = s.service.GetEvaluation(s.ctx, created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("deleting twice is not found", func() {
		created, err := s.service.CreateEvaluation(s.ctx, s.validRequest(s.allowedService.ID))
		s.Require().NoError(err)
		s.Require().NoError(s.service.DeleteEvaluation(s.ctx, created.ID))
		err = s.service.DeleteEvaluation(s.ctx, created.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown id is not found", func() {
		_, err := s.service.GetEvaluation(s.ctx, uuid.New())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
