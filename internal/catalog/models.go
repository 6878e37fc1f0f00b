// Package catalog holds the read-only reference data the evaluation engine
// looks up against: service permission matrices, the threat and safeguard
// catalogs, and the informational legal rules.
package catalog

import "sdagate/pkg/domain"

// Category groups services by practice area.
type Category struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Parent string `json:"parent_category,omitempty"`
}

// Service is a professional service with its six-cell permission matrix.
// Immutable once seeded; the engine only reads it.
type Service struct {
	ID         int64                   `json:"id"`
	Code       string                  `json:"code"`
	Name       string                  `json:"name"`
	CategoryID int64                   `json:"category_id"`
	Matrix     domain.PermissionMatrix `json:"-"`
}

// Threat is a named category of independence risk (self-review, familiarity,
// and so on). DisplayName carries the localized human-facing form; Name is
// the canonical one.
type Threat struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// SafeguardLevel scopes a safeguard to firm, situation, or audited-entity
// level.
type SafeguardLevel struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// Safeguard is a mitigating measure tied to one threat and one level. It is
// descriptive only: the classifier cares about its existence, never its text.
type Safeguard struct {
	ID                 int64  `json:"id"`
	ThreatID           int64  `json:"threat_id"`
	LevelID            int64  `json:"level_id"`
	Description        string `json:"description"`
	DisplayDescription string `json:"display_description,omitempty"`
}

// LegalRule is informational text shown alongside gate results. The decision
// logic never consults it; it filters by applicability flags for display.
type LegalRule struct {
	ID            int64  `json:"id"`
	RuleType      string `json:"rule_type"`
	Article       string `json:"article,omitempty"`
	Description   string `json:"description"`
	AppliesToEIP  bool   `json:"applies_to_eip"`
	AppliesNonEIP bool   `json:"applies_to_no_eip"`
	SafeguardText string `json:"safeguard_text,omitempty"`
}

// DisplayOrName returns the localized threat name, falling back to the
// canonical one.
func (t Threat) DisplayOrName() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

// DisplayOrDescription returns the localized safeguard text, falling back to
// the canonical one.
func (s Safeguard) DisplayOrDescription() string {
	if s.DisplayDescription != "" {
		return s.DisplayDescription
	}
	return s.Description
}
