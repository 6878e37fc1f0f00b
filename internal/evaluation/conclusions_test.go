package evaluation

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"sdagate/pkg/domain"
)

type ConclusionsSuite struct {
	suite.Suite
}

func TestConclusionsSuite(t *testing.T) {
	suite.Run(t, new(ConclusionsSuite))
}

var allConclusions = []domain.ConclusionCode{
	domain.ConclusionApproved,
	domain.ConclusionApprovedWithSafeguards,
	domain.ConclusionEthicsPartner,
	domain.ConclusionConditional,
	domain.ConclusionProhibited,
	domain.ConclusionUnmitigable,
	domain.ConclusionNeedsAnalysis,
}

// TestConclusionBundlesTotal guards the no-gaps invariant: every valid code
// has a complete bundle.
func (s *ConclusionsSuite) TestConclusionBundlesTotal() {
	s.Len(conclusionBundles, len(allConclusions))
	for _, code := range allConclusions {
		bundle, ok := conclusionBundles[code]
		s.Require().True(ok, "missing bundle for %s", code)
		s.Equal(code, bundle.Code)
		s.NotEmpty(bundle.Title, "%s title", code)
		s.NotEmpty(bundle.Description, "%s description", code)
		s.NotEmpty(bundle.Color, "%s color", code)
		s.NotEmpty(bundle.Icon, "%s icon", code)
	}
}

func (s *ConclusionsSuite) TestDescribeConclusion() {
	s.Run("known code returns its own bundle", func() {
		b := DescribeConclusion(domain.ConclusionProhibited)
		s.Equal(domain.ConclusionProhibited, b.Code)
		s.Equal("red", b.Color)
	})

	s.Run("unknown code falls back to needs-analysis", func() {
		b := DescribeConclusion(domain.ConclusionCode("C99"))
		s.Equal(domain.ConclusionNeedsAnalysis, b.Code)
	})
}
