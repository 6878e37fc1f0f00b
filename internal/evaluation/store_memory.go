package evaluation

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore backs unit tests and DATABASE_URL-less development. The
// coarse lock stands in for the database transaction: a Create is observed
// entirely or not at all.
type InMemoryStore struct {
	mu          sync.RWMutex
	evaluations map[uuid.UUID]*Evaluation
	references  map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		evaluations: make(map[uuid.UUID]*Evaluation),
		references:  make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, eval *Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.references[eval.ReferenceNumber]; exists {
		return ErrDuplicateReference
	}
	cp := cloneEvaluation(eval)
	s.evaluations[eval.ID] = cp
	s.references[eval.ReferenceNumber] = eval.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eval, ok := s.evaluations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEvaluation(eval), nil
}

func (s *InMemoryStore) List(_ context.Context, limit, offset int) ([]*Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*Evaluation, 0, len(s.evaluations))
	for _, eval := range s.evaluations {
		all = append(all, eval)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ReferenceNumber < all[j].ReferenceNumber
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	out := make([]*Evaluation, len(all))
	for i, eval := range all {
		out[i] = cloneEvaluation(eval)
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	eval, ok := s.evaluations[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.references, eval.ReferenceNumber)
	delete(s.evaluations, id)
	return nil
}

func cloneEvaluation(eval *Evaluation) *Evaluation {
	cp := *eval
	cp.Threats = append([]ThreatAssessment(nil), eval.Threats...)
	cp.Safeguards = append([]SafeguardApplication(nil), eval.Safeguards...)
	return &cp
}
