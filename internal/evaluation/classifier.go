package evaluation

import "sdagate/pkg/domain"

// ClassifyInput is everything the conclusion classifier looks at. Safeguard
// text carries no decision weight, so only the count of applied safeguards
// crosses this boundary.
type ClassifyInput struct {
	Permission domain.PermissionCode
	Threats    []domain.Significance
	Safeguards int
}

func (in ClassifyInput) hasHigh() bool {
	for _, s := range in.Threats {
		if s == domain.SignificanceHigh {
			return true
		}
	}
	return false
}

// classificationRule is one entry of the ordered decision list. Rules are not
// mutually exclusive in their raw conditions; the slice order is the
// tie-break policy.
type classificationRule struct {
	name     string
	matches  func(in ClassifyInput) bool
	conclude func(in ClassifyInput) domain.ConclusionCode
}

// classificationRules is evaluated top to bottom, first match wins. LOW and
// MEDIUM are only ever distinguished from HIGH, never from each other - a
// deliberate constraint of this rule table, not an oversight.
var classificationRules = []classificationRule{
	{
		name:    "no threats identified",
		matches: func(in ClassifyInput) bool { return len(in.Threats) == 0 },
		conclude: func(in ClassifyInput) domain.ConclusionCode {
			if in.Permission == domain.PermissionLimited {
				return domain.ConclusionConditional
			}
			return domain.ConclusionApproved
		},
	},
	{
		name:    "high threat without safeguards",
		matches: func(in ClassifyInput) bool { return in.hasHigh() && in.Safeguards == 0 },
		conclude: func(ClassifyInput) domain.ConclusionCode {
			return domain.ConclusionUnmitigable
		},
	},
	{
		name:    "high threat with safeguards",
		matches: func(in ClassifyInput) bool { return in.hasHigh() && in.Safeguards > 0 },
		conclude: func(ClassifyInput) domain.ConclusionCode {
			return domain.ConclusionEthicsPartner
		},
	},
	{
		name:    "threats mitigated by safeguards",
		matches: func(in ClassifyInput) bool { return len(in.Threats) > 0 && in.Safeguards > 0 },
		conclude: func(in ClassifyInput) domain.ConclusionCode {
			if in.Permission == domain.PermissionLimited {
				return domain.ConclusionConditional
			}
			return domain.ConclusionApprovedWithSafeguards
		},
	},
	{
		name:    "conditional permission regime",
		matches: func(in ClassifyInput) bool { return in.Permission == domain.PermissionLimited },
		conclude: func(ClassifyInput) domain.ConclusionCode {
			return domain.ConclusionConditional
		},
	},
}

// Classify applies the ordered rule table and falls through to C7 when no
// rule matches. This is pure domain logic - no I/O, no side effects. It is
// never invoked when the legal gate already forced a conclusion.
func Classify(in ClassifyInput) domain.ConclusionCode {
	for _, rule := range classificationRules {
		if rule.matches(in) {
			return rule.conclude(in)
		}
	}
	return domain.ConclusionNeedsAnalysis
}
