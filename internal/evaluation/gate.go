package evaluation

import "sdagate/pkg/domain"

// GateResult is the outcome of the legal gate: a pass/fail, a human-facing
// reason, and - when the gate decides terminally - a forced conclusion that
// bypasses the classifier entirely.
type GateResult struct {
	Passed           bool                  `json:"passed"`
	Reason           string                `json:"reason"`
	ForcedConclusion domain.ConclusionCode `json:"forced_conclusion,omitempty"`
}

// Forced reports whether the gate already decided the evaluation.
func (g GateResult) Forced() bool {
	return g.ForcedConclusion != ""
}

// CheckLegalGate applies the gate decision table. This is pure domain logic -
// no I/O, no side effects. The table is total over the four possible resolver
// outputs; the gate never consults threats, safeguards, or legal rule texts.
//
// Priority order, first match governs:
//  1. PROHIBITED: blocked, forced C5.
//  2. LIMITED: passed, conditions apply downstream.
//  3. ALLOWED: passed.
//  4. UNSET: blocked, forced C7 - "we don't know" is a first-class outcome,
//     not a failure.
func CheckLegalGate(permission domain.PermissionCode) GateResult {
	switch permission {
	case domain.PermissionProhibited:
		return GateResult{
			Passed:           false,
			Reason:           "service legally prohibited for this entity/relationship",
			ForcedConclusion: domain.ConclusionProhibited,
		}
	case domain.PermissionLimited:
		return GateResult{
			Passed: true,
			Reason: "permitted with conditions; proceed to threat analysis",
		}
	case domain.PermissionAllowed:
		return GateResult{
			Passed: true,
			Reason: "permitted; proceed to threat analysis",
		}
	default:
		return GateResult{
			Passed:           false,
			Reason:           "permission state undetermined; requires manual analysis",
			ForcedConclusion: domain.ConclusionNeedsAnalysis,
		}
	}
}
