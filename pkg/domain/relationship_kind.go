package domain

import dErrors "sdagate/pkg/domain-errors"

// RelationshipKind classifies the audited entity's relation to the service
// recipient: directly audited, part of its control chain, or a significant
// affiliate.
type RelationshipKind string

const (
	RelationshipAudited    RelationshipKind = "AUDITED"
	RelationshipChain      RelationshipKind = "CHAIN"
	RelationshipAffiliated RelationshipKind = "AFFILIATED"
)

var validRelationshipKinds = map[RelationshipKind]bool{
	RelationshipAudited:    true,
	RelationshipChain:      true,
	RelationshipAffiliated: true,
}

// ParseRelationshipKind constructs a RelationshipKind from external input.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseRelationshipKind(s string) (RelationshipKind, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "relationship_kind cannot be empty")
	}
	k := RelationshipKind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "relationship_kind must be AUDITED, CHAIN or AFFILIATED, got "+s)
	}
	return k, nil
}

// IsValid checks membership in the closed enumeration.
func (k RelationshipKind) IsValid() bool {
	return validRelationshipKinds[k]
}
