package catalog

import (
	"context"

	dErrors "sdagate/pkg/domain-errors"
)

// ErrNotFound keeps catalog 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "catalog record not found")

// ServiceFilter narrows service listings.
type ServiceFilter struct {
	CategoryID int64  // 0 means any
	Search     string // matches code or name, case-insensitive substring
}

// SafeguardFilter narrows safeguard listings.
type SafeguardFilter struct {
	ThreatID  int64  // 0 means any
	LevelCode string // "" means any
}

// LegalRuleFilter narrows legal rule listings.
type LegalRuleFilter struct {
	EntityCategory string // "EIP", "NO_EIP", or "" for any
	RuleType       string // "" means any
}

// Store is the read/seed boundary for reference data. Stores are
// interface-driven so the in-memory and Postgres implementations stay
// swappable without rewiring business code.
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListServices(ctx context.Context, filter ServiceFilter) ([]Service, error)
	FindService(ctx context.Context, id int64) (*Service, error)

	ListThreats(ctx context.Context) ([]Threat, error)
	FindThreat(ctx context.Context, id int64) (*Threat, error)
	ListThreatsForService(ctx context.Context, serviceID int64) ([]Threat, error)

	ListSafeguardLevels(ctx context.Context) ([]SafeguardLevel, error)
	ListSafeguards(ctx context.Context, filter SafeguardFilter) ([]Safeguard, error)
	FindSafeguard(ctx context.Context, id int64) (*Safeguard, error)

	ListLegalRules(ctx context.Context, filter LegalRuleFilter) ([]LegalRule, error)

	// Seed-side writes. Upserts key on the record's code (or, for safeguards
	// and mappings, the natural composite) so seeding stays idempotent.
	UpsertCategory(ctx context.Context, c *Category) error
	UpsertService(ctx context.Context, s *Service) error
	UpsertThreat(ctx context.Context, t *Threat) error
	UpsertSafeguardLevel(ctx context.Context, l *SafeguardLevel) error
	UpsertSafeguard(ctx context.Context, s *Safeguard) error
	UpsertLegalRule(ctx context.Context, r *LegalRule) error
	LinkServiceThreat(ctx context.Context, serviceID, threatID int64) error
}
