package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryStore backs unit tests and DATABASE_URL-less development.
type InMemoryStore struct {
	mu             sync.RWMutex
	nextID         int64
	categories     map[int64]Category
	services       map[int64]Service
	threats        map[int64]Threat
	levels         map[int64]SafeguardLevel
	safeguards     map[int64]Safeguard
	legalRules     map[int64]LegalRule
	serviceThreats map[int64]map[int64]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		categories:     make(map[int64]Category),
		services:       make(map[int64]Service),
		threats:        make(map[int64]Threat),
		levels:         make(map[int64]SafeguardLevel),
		safeguards:     make(map[int64]Safeguard),
		legalRules:     make(map[int64]LegalRule),
		serviceThreats: make(map[int64]map[int64]bool),
	}
}

func (s *InMemoryStore) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *InMemoryStore) ListCategories(_ context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ListServices(_ context.Context, filter ServiceFilter) ([]Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(filter.Search)
	out := make([]Service, 0, len(s.services))
	for _, svc := range s.services {
		if filter.CategoryID != 0 && svc.CategoryID != filter.CategoryID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(svc.Name), needle) &&
			!strings.Contains(strings.ToLower(svc.Code), needle) {
			continue
		}
		out = append(out, svc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) FindService(_ context.Context, id int64) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := svc
	return &cp, nil
}

func (s *InMemoryStore) ListThreats(_ context.Context) ([]Threat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Threat, 0, len(s.threats))
	for _, t := range s.threats {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) FindThreat(_ context.Context, id int64) (*Threat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.threats[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := t
	return &cp, nil
}

func (s *InMemoryStore) ListThreatsForService(_ context.Context, serviceID int64) ([]Threat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.services[serviceID]; !ok {
		return nil, ErrNotFound
	}
	var out []Threat
	for threatID := range s.serviceThreats[serviceID] {
		if t, ok := s.threats[threatID]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ListSafeguardLevels(_ context.Context) ([]SafeguardLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SafeguardLevel, 0, len(s.levels))
	for _, l := range s.levels {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) ListSafeguards(_ context.Context, filter SafeguardFilter) ([]Safeguard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var levelID int64
	if filter.LevelCode != "" {
		for _, l := range s.levels {
			if l.Code == filter.LevelCode {
				levelID = l.ID
				break
			}
		}
		if levelID == 0 {
			return nil, nil
		}
	}
	var out []Safeguard
	for _, sg := range s.safeguards {
		if filter.ThreatID != 0 && sg.ThreatID != filter.ThreatID {
			continue
		}
		if levelID != 0 && sg.LevelID != levelID {
			continue
		}
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) FindSafeguard(_ context.Context, id int64) (*Safeguard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.safeguards[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := sg
	return &cp, nil
}

func (s *InMemoryStore) ListLegalRules(_ context.Context, filter LegalRuleFilter) ([]LegalRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LegalRule
	for _, r := range s.legalRules {
		switch filter.EntityCategory {
		case "EIP":
			if !r.AppliesToEIP {
				continue
			}
		case "NO_EIP":
			if !r.AppliesNonEIP {
				continue
			}
		}
		if filter.RuleType != "" && r.RuleType != filter.RuleType {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) UpsertCategory(_ context.Context, c *Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.categories {
		if existing.Code == c.Code {
			c.ID = id
			s.categories[id] = *c
			return nil
		}
	}
	c.ID = s.allocID()
	s.categories[c.ID] = *c
	return nil
}

func (s *InMemoryStore) UpsertService(_ context.Context, svc *Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.services {
		if existing.Code == svc.Code {
			svc.ID = id
			s.services[id] = *svc
			return nil
		}
	}
	svc.ID = s.allocID()
	s.services[svc.ID] = *svc
	return nil
}

func (s *InMemoryStore) UpsertThreat(_ context.Context, t *Threat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.threats {
		if existing.Code == t.Code {
			t.ID = id
			s.threats[id] = *t
			return nil
		}
	}
	t.ID = s.allocID()
	s.threats[t.ID] = *t
	return nil
}

func (s *InMemoryStore) UpsertSafeguardLevel(_ context.Context, l *SafeguardLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.levels {
		if existing.Code == l.Code {
			l.ID = id
			s.levels[id] = *l
			return nil
		}
	}
	l.ID = s.allocID()
	s.levels[l.ID] = *l
	return nil
}

func (s *InMemoryStore) UpsertSafeguard(_ context.Context, sg *Safeguard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.safeguards {
		if existing.ThreatID == sg.ThreatID && existing.LevelID == sg.LevelID && existing.Description == sg.Description {
			sg.ID = id
			s.safeguards[id] = *sg
			return nil
		}
	}
	sg.ID = s.allocID()
	s.safeguards[sg.ID] = *sg
	return nil
}

func (s *InMemoryStore) UpsertLegalRule(_ context.Context, r *LegalRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.legalRules {
		if existing.RuleType == r.RuleType && existing.Article == r.Article {
			r.ID = id
			s.legalRules[id] = *r
			return nil
		}
	}
	r.ID = s.allocID()
	s.legalRules[r.ID] = *r
	return nil
}

func (s *InMemoryStore) LinkServiceThreat(_ context.Context, serviceID, threatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceThreats[serviceID] == nil {
		s.serviceThreats[serviceID] = make(map[int64]bool)
	}
	s.serviceThreats[serviceID][threatID] = true
	return nil
}
