package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type MatcherSuite struct {
	suite.Suite
	candidate Candidate
}

func TestMatcherSuite(t *testing.T) {
	suite.Run(t, new(MatcherSuite))
}

func (s *MatcherSuite) SetupTest() {
	s.candidate = Candidate{
		FullName: "Ayesha Khan",
		CNIC:     "35202-1234567-1",
		Email:    "ayesha@example.com",
		Phone:    "03001234567",
	}
}

func (s *MatcherSuite) TestCNICDominance() {
	s.Run("cnic match is the last finding and stops the scan", func() {
		existing := []Record{
			{ID: "a", FullName: "Someone", Email: "AYESHA@example.com"},
			{ID: "b", FullName: "Other", CNIC: "35202-1234567-1"},
			{ID: "c", FullName: "Third", Phone: "03001234567"},
		}
		findings := FindDuplicates(s.candidate, existing)
		s.Require().Len(findings, 2)
		s.Equal(KindEmail, findings[0].Kind)
		s.Equal(SeverityCritical, findings[1].Severity)
		s.Equal("b", findings[1].RecordID)
		s.True(HasCritical(findings))
	})
}

func (s *MatcherSuite) TestStrictMatches() {
	s.Run("email is case-insensitive and phone is exact", func() {
		existing := []Record{{ID: "x", FullName: "Different Person", Email: " Ayesha@Example.com ", Phone: "03001234567"}}
		findings := FindDuplicates(s.candidate, existing)
		s.Require().Len(findings, 2)
		s.Equal(Finding{Severity: SeverityHigh, Kind: KindEmail, RecordID: "x"}, findings[0])
		s.Equal(Finding{Severity: SeverityHigh, Kind: KindPhone, RecordID: "x"}, findings[1])
	})

	s.Run("empty values never match", func() {
		cand := Candidate{FullName: "Bilal Ahmed"}
		existing := []Record{{ID: "y", FullName: "Zara", Email: "", Phone: "", CNIC: ""}}
		s.Empty(FindDuplicates(cand, existing))
	})
}

func (s *MatcherSuite) TestFuzzyName() {
	s.Run("near-identical name yields a medium finding", func() {
		existing := []Record{{ID: "n", FullName: "Ayesha Khann"}}
		findings := FindDuplicates(s.candidate, existing)
		s.Require().Len(findings, 1)
		s.Equal(SeverityMedium, findings[0].Severity)
		s.Equal("ayesha khann", findings[0].MatchedName)
		s.Greater(findings[0].Similarity, NameSimilarityThreshold)
	})

	s.Run("fuzzy is skipped when the same record matched strictly", func() {
		existing := []Record{{ID: "n", FullName: "Ayesha Khan", Email: "ayesha@example.com"}}
		findings := FindDuplicates(s.candidate, existing)
		s.Require().Len(findings, 1)
		s.Equal(KindEmail, findings[0].Kind)
	})

	s.Run("fuzzy still applies to other records after a strict match", func() {
		existing := []Record{
			{ID: "p", FullName: "Unrelated", Phone: "03001234567"},
			{ID: "q", FullName: "AYESHA KHAN"},
		}
		findings := FindDuplicates(s.candidate, existing)
		s.Require().Len(findings, 2)
		s.Equal(KindPhone, findings[0].Kind)
		s.Equal(KindName, findings[1].Kind)
		s.Equal("q", findings[1].RecordID)
	})

	s.Run("dissimilar names are ignored", func() {
		existing := []Record{{ID: "r", FullName: "Muhammad Usman"}}
		s.Empty(FindDuplicates(s.candidate, existing))
	})
}

func (s *MatcherSuite) TestMalformedRecordsAreSkipped() {
	existing := []Record{
		{ID: "", CNIC: "35202-1234567-1"},
		{ID: "blank"},
		{ID: "ok", Email: "ayesha@example.com"},
	}
	findings := FindDuplicates(s.candidate, existing)
	s.Require().Len(findings, 1)
	s.Equal("ok", findings[0].RecordID)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, Similarity("Ali", "ali"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", ""), 1e-9)
	assert.InDelta(t, 0.75, Similarity("abcd", "abce"), 1e-9)
	assert.InDelta(t, 1-3.0/7.0, Similarity("kitten", "sitting"), 1e-9)
	assert.InDelta(t, Similarity("ayesha", "aisha"), Similarity("aisha", "ayesha"), 1e-9)
}
