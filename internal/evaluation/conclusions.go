package evaluation

import "sdagate/pkg/domain"

// ConclusionBundle is the fixed presentation metadata for one conclusion
// code. Presentation only; nothing downstream branches on it.
type ConclusionBundle struct {
	Code        domain.ConclusionCode `json:"code"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       string                `json:"color"`
	Icon        string                `json:"icon"`
}

// conclusionBundles is total over the seven codes; TestConclusionBundlesTotal
// guards the no-gaps invariant.
var conclusionBundles = map[domain.ConclusionCode]ConclusionBundle{
	domain.ConclusionApproved: {
		Code:        domain.ConclusionApproved,
		Title:       "Approved without safeguards",
		Description: "The service may be provided without additional safeguard measures.",
		Color:       "green",
		Icon:        "check-circle",
	},
	domain.ConclusionApprovedWithSafeguards: {
		Code:        domain.ConclusionApprovedWithSafeguards,
		Title:       "Approved with safeguards",
		Description: "The service may be provided once the selected safeguard measures are implemented.",
		Color:       "blue",
		Icon:        "shield-check",
	},
	domain.ConclusionEthicsPartner: {
		Code:        domain.ConclusionEthicsPartner,
		Title:       "Requires ethics partner approval",
		Description: "Given the significance of the identified threats, the ethics partner must approve before proceeding.",
		Color:       "yellow",
		Icon:        "user-check",
	},
	domain.ConclusionConditional: {
		Code:        domain.ConclusionConditional,
		Title:       "Conditional approval",
		Description: "The service is subject to the conditions of the limited-permission regime.",
		Color:       "orange",
		Icon:        "alert-triangle",
	},
	domain.ConclusionProhibited: {
		Code:        domain.ConclusionProhibited,
		Title:       "Legally prohibited",
		Description: "The service cannot be provided: it is expressly prohibited by the applicable regulation.",
		Color:       "red",
		Icon:        "x-circle",
	},
	domain.ConclusionUnmitigable: {
		Code:        domain.ConclusionUnmitigable,
		Title:       "Unmitigable threat",
		Description: "The identified threats cannot be adequately mitigated. The service cannot be provided.",
		Color:       "red",
		Icon:        "alert-octagon",
	},
	domain.ConclusionNeedsAnalysis: {
		Code:        domain.ConclusionNeedsAnalysis,
		Title:       "Requires further analysis",
		Description: "A more detailed analysis is needed to determine whether the service may be provided.",
		Color:       "gray",
		Icon:        "help-circle",
	},
}

// DescribeConclusion returns the display bundle for a code, defaulting to the
// needs-analysis bundle for anything unknown.
func DescribeConclusion(code domain.ConclusionCode) ConclusionBundle {
	if b, ok := conclusionBundles[code]; ok {
		return b
	}
	return conclusionBundles[domain.ConclusionNeedsAnalysis]
}
