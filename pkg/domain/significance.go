package domain

import dErrors "sdagate/pkg/domain-errors"

// Significance grades an identified threat. The classifier only ever
// distinguishes HIGH from the rest; LOW and MEDIUM are never told apart.
type Significance string

const (
	SignificanceLow    Significance = "LOW"
	SignificanceMedium Significance = "MEDIUM"
	SignificanceHigh   Significance = "HIGH"
)

var validSignificances = map[Significance]bool{
	SignificanceLow:    true,
	SignificanceMedium: true,
	SignificanceHigh:   true,
}

// ParseSignificance constructs a Significance from external input.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseSignificance(s string) (Significance, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "significance cannot be empty")
	}
	v := Significance(s)
	if !v.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "significance must be LOW, MEDIUM or HIGH, got "+s)
	}
	return v, nil
}

// NormalizeSignificance maps any unrecognized value to MEDIUM. The leniency
// is deliberate and matches the documented evaluation-creation behavior;
// surfaces that want a hard rejection use ParseSignificance instead.
func NormalizeSignificance(s string) Significance {
	v := Significance(s)
	if v.IsValid() {
		return v
	}
	return SignificanceMedium
}

// IsValid checks membership in the closed enumeration.
func (s Significance) IsValid() bool {
	return validSignificances[s]
}
