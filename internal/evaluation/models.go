// Package evaluation implements the conflict-of-interest decision engine:
// permission resolution over the service matrix, the legal gate, the
// conclusion classifier, and the evaluation aggregate built from them.
package evaluation

import (
	"time"

	"github.com/google/uuid"

	"sdagate/pkg/domain"
)

// ThreatAssessment asserts that a specific threat was identified at a
// specific significance for one evaluation. Owned exclusively by its parent.
type ThreatAssessment struct {
	ID           uuid.UUID           `json:"id"`
	EvaluationID uuid.UUID           `json:"evaluation_id"`
	ThreatID     int64               `json:"threat_id"`
	Significance domain.Significance `json:"significance"`
	Notes        string              `json:"notes,omitempty"`
}

// SafeguardApplication asserts that a specific safeguard was applied for one
// evaluation.
type SafeguardApplication struct {
	ID           uuid.UUID `json:"id"`
	EvaluationID uuid.UUID `json:"evaluation_id"`
	SafeguardID  int64     `json:"safeguard_id"`
	Applied      bool      `json:"applied"`
	Notes        string    `json:"notes,omitempty"`
}

// Evaluation is the aggregate root. It is created atomically with its
// children and read-only afterward except for deletion.
type Evaluation struct {
	ID               uuid.UUID               `json:"id"`
	ReferenceNumber  string                  `json:"reference_number"`
	CreatedAt        time.Time               `json:"created_at"`
	EntityName       string                  `json:"entity_name"`
	EntityCategory   domain.EntityCategory   `json:"entity_category"`
	RelationshipKind domain.RelationshipKind `json:"relationship_kind"`
	ServiceID        int64                   `json:"service_id"`
	LegalGatePassed  bool                    `json:"legal_gate_passed"`
	LegalGateReason  string                  `json:"legal_gate_reason"`
	Conclusion       domain.ConclusionCode   `json:"conclusion"`
	Notes            string                  `json:"notes,omitempty"`
	AuditorName      string                  `json:"auditor_name,omitempty"`

	Threats    []ThreatAssessment     `json:"threats"`
	Safeguards []SafeguardApplication `json:"safeguards"`
}

// HighSignificance reports whether any identified threat reached HIGH.
func (e *Evaluation) HighSignificance() bool {
	for _, t := range e.Threats {
		if t.Significance == domain.SignificanceHigh {
			return true
		}
	}
	return false
}
