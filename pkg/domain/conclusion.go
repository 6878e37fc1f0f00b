package domain

// ConclusionCode is one of seven terminal classifications an evaluation can
// reach.
type ConclusionCode string

const (
	// ConclusionApproved: no significant threats, no safeguards needed.
	ConclusionApproved ConclusionCode = "C1"

	// ConclusionApprovedWithSafeguards: threats mitigated by safeguards.
	ConclusionApprovedWithSafeguards ConclusionCode = "C2"

	// ConclusionEthicsPartner: a HIGH threat with safeguards needs
	// ethics-partner sign-off.
	ConclusionEthicsPartner ConclusionCode = "C3"

	// ConclusionConditional: permitted only under the conditional permission
	// regime.
	ConclusionConditional ConclusionCode = "C4"

	// ConclusionProhibited: legally prohibited, forced by the legal gate.
	ConclusionProhibited ConclusionCode = "C5"

	// ConclusionUnmitigable: a HIGH threat with no safeguards cannot proceed.
	ConclusionUnmitigable ConclusionCode = "C6"

	// ConclusionNeedsAnalysis: the system cannot decide; a human must.
	ConclusionNeedsAnalysis ConclusionCode = "C7"
)

var validConclusions = map[ConclusionCode]bool{
	ConclusionApproved:               true,
	ConclusionApprovedWithSafeguards: true,
	ConclusionEthicsPartner:          true,
	ConclusionConditional:            true,
	ConclusionProhibited:             true,
	ConclusionUnmitigable:            true,
	ConclusionNeedsAnalysis:          true,
}

// IsValid checks membership in the closed enumeration.
func (c ConclusionCode) IsValid() bool {
	return validConclusions[c]
}
