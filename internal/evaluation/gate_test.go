package evaluation

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"sdagate/pkg/domain"
)

type GateSuite struct {
	suite.Suite
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateSuite))
}

// TestDecisionTable verifies the gate over all four resolver outputs.
func (s *GateSuite) TestDecisionTable() {
	s.Run("prohibited blocks with forced C5", func() {
		g := CheckLegalGate(domain.PermissionProhibited)
		s.False(g.Passed)
		s.True(g.Forced())
		s.Equal(domain.ConclusionProhibited, g.ForcedConclusion)
		s.NotEmpty(g.Reason)
	})

	s.Run("limited passes without forcing", func() {
		g := CheckLegalGate(domain.PermissionLimited)
		s.True(g.Passed)
		s.False(g.Forced())
	})

	s.Run("allowed passes without forcing", func() {
		g := CheckLegalGate(domain.PermissionAllowed)
		s.True(g.Passed)
		s.False(g.Forced())
	})

	s.Run("unset blocks with forced C7", func() {
		g := CheckLegalGate(domain.PermissionUnset)
		s.False(g.Passed)
		s.True(g.Forced())
		s.Equal(domain.ConclusionNeedsAnalysis, g.ForcedConclusion)
	})

	s.Run("unknown code treated as unset", func() {
		g := CheckLegalGate(domain.PermissionCode("MAYBE"))
		s.False(g.Passed)
		s.Equal(domain.ConclusionNeedsAnalysis, g.ForcedConclusion)
	})
}

// TestBlockedReasonsDiffer: a prohibited block and an unset block must be
// distinguishable by their reasons, since only one represents a legal bar.
func (s *GateSuite) TestBlockedReasonsDiffer() {
	prohibited := CheckLegalGate(domain.PermissionProhibited)
	unset := CheckLegalGate(domain.PermissionUnset)
	s.NotEqual(prohibited.Reason, unset.Reason)
	s.NotEqual(prohibited.ForcedConclusion, unset.ForcedConclusion)
}

// TestResolvePermission verifies exact-tuple matrix lookup.
func (s *GateSuite) TestResolvePermission() {
	matrix := domain.PermissionMatrix{
		{Category: domain.EntityEIP, Kind: domain.RelationshipAudited}:   domain.PermissionProhibited,
		{Category: domain.EntityNoEIP, Kind: domain.RelationshipAudited}: domain.PermissionLimited,
		{Category: domain.EntityNoEIP, Kind: domain.RelationshipChain}:   domain.PermissionAllowed,
	}

	s.Run("exact pair resolves its own cell", func() {
		s.Equal(domain.PermissionProhibited,
			ResolvePermission(matrix, domain.EntityEIP, domain.RelationshipAudited))
		s.Equal(domain.PermissionLimited,
			ResolvePermission(matrix, domain.EntityNoEIP, domain.RelationshipAudited))
	})

	s.Run("no inheritance between cells", func() {
		// EIP/CHAIN is unpopulated even though EIP/AUDITED and NO_EIP/CHAIN
		// both are.
		s.Equal(domain.PermissionUnset,
			ResolvePermission(matrix, domain.EntityEIP, domain.RelationshipChain))
	})

	s.Run("empty matrix resolves everything to unset", func() {
		for _, cell := range domain.Cells() {
			s.Equal(domain.PermissionUnset,
				ResolvePermission(domain.PermissionMatrix{}, cell.Category, cell.Kind))
		}
	})
}
