package evaluation

import (
	"context"

	"github.com/google/uuid"

	dErrors "sdagate/pkg/domain-errors"
)

var (
	// ErrNotFound keeps evaluation 404s consistent across implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "evaluation not found")

	// ErrDuplicateReference signals a reference-number collision. The service
	// regenerates and retries a bounded number of times.
	ErrDuplicateReference = dErrors.New(dErrors.CodeConflict, "reference number already exists")
)

// Store persists evaluation aggregates. Create writes the parent and both
// child collections as one all-or-nothing unit; Delete cascades children
// before the parent. Implementations enforce reference-number uniqueness.
type Store interface {
	Create(ctx context.Context, eval *Evaluation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	List(ctx context.Context, limit, offset int) ([]*Evaluation, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
