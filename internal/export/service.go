package export

import (
	"context"

	"github.com/google/uuid"

	"sdagate/internal/catalog"
	"sdagate/internal/evaluation"
)

// EvaluationReader is the slice of the evaluation service this package needs.
type EvaluationReader interface {
	GetEvaluation(ctx context.Context, id uuid.UUID) (*evaluation.Evaluation, error)
}

// CatalogReader resolves referenced catalog records to display text.
type CatalogReader interface {
	FindService(ctx context.Context, id int64) (*catalog.Service, error)
	FindThreat(ctx context.Context, id int64) (*catalog.Threat, error)
	FindSafeguard(ctx context.Context, id int64) (*catalog.Safeguard, error)
}

// Service builds export documents from stored evaluations.
type Service struct {
	evaluations EvaluationReader
	catalog     CatalogReader
}

func NewService(evaluations EvaluationReader, catalogReader CatalogReader) *Service {
	return &Service{evaluations: evaluations, catalog: catalogReader}
}

// BuildDocument loads the aggregate and denormalizes every reference.
// Catalog records that vanished after the evaluation was created are skipped
// rather than failing the export, matching read-only aggregate semantics.
func (s *Service) BuildDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	eval, err := s.evaluations.GetEvaluation(ctx, id)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.FindService(ctx, eval.ServiceID)
	if err != nil {
		return nil, err
	}

	bundle := evaluation.DescribeConclusion(eval.Conclusion)
	doc := &Document{
		ReferenceNumber:       eval.ReferenceNumber,
		CreatedAt:             eval.CreatedAt,
		EntityName:            eval.EntityName,
		EntityCategory:        string(eval.EntityCategory),
		RelationshipKind:      string(eval.RelationshipKind),
		ServiceCode:           svc.Code,
		ServiceName:           svc.Name,
		LegalGatePassed:       eval.LegalGatePassed,
		LegalGateReason:       eval.LegalGateReason,
		ConclusionCode:        string(eval.Conclusion),
		ConclusionTitle:       bundle.Title,
		ConclusionDescription: bundle.Description,
		AuditorName:           eval.AuditorName,
		Notes:                 eval.Notes,
	}

	for _, t := range eval.Threats {
		threat, err := s.catalog.FindThreat(ctx, t.ThreatID)
		if err != nil {
			continue
		}
		doc.Threats = append(doc.Threats, ThreatLine{
			Name:         threat.DisplayOrName(),
			Significance: string(t.Significance),
			Notes:        t.Notes,
		})
	}
	for _, sg := range eval.Safeguards {
		safeguard, err := s.catalog.FindSafeguard(ctx, sg.SafeguardID)
		if err != nil {
			continue
		}
		doc.Safeguards = append(doc.Safeguards, SafeguardLine{
			Description: safeguard.DisplayOrDescription(),
			Notes:       sg.Notes,
		})
	}
	return doc, nil
}
