package domain

import dErrors "sdagate/pkg/domain-errors"

// EntityCategory classifies the audited entity for permission purposes.
// Invariant: the value is one of the supported categories.
//
// Usage: construct via ParseEntityCategory at trust boundaries; direct casting
// bypasses validation.
type EntityCategory string

const (
	// EntityEIP is a public-interest entity, subject to the stricter
	// permission column of the service matrix.
	EntityEIP EntityCategory = "EIP"

	// EntityNoEIP is any other audited entity.
	EntityNoEIP EntityCategory = "NO_EIP"
)

var validEntityCategories = map[EntityCategory]bool{
	EntityEIP:   true,
	EntityNoEIP: true,
}

// ParseEntityCategory constructs an EntityCategory from external input.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseEntityCategory(s string) (EntityCategory, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "entity_category cannot be empty")
	}
	c := EntityCategory(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "entity_category must be EIP or NO_EIP, got "+s)
	}
	return c, nil
}

// IsValid checks membership in the closed enumeration.
func (c EntityCategory) IsValid() bool {
	return validEntityCategories[c]
}
