package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/eml"
)

func TestNullRendererEMLReturnsCanonicalBytes(t *testing.T) {
	election := domain.Election{ID: 1, Name: "Gemeenteraad", NumberOfSeats: 15, ElectionDate: time.Now(),
		PoliticalGroups: []domain.PoliticalGroup{{Number: 1, Candidates: []domain.Candidate{{Number: 1}}}}}
	doc, err := eml.FromSummary("510b", election, "Gemeente X", nil, nil, domain.ElectionSummary{}, time.Now())
	require.NoError(t, err)

	var r NullRenderer
	artifact, err := r.RenderEML(doc)
	require.NoError(t, err)
	require.Equal(t, "application/xml", artifact.ContentType)
	require.Contains(t, string(artifact.Bytes), "<EML")
}

func TestNullRendererProcessPDFIsDeterministic(t *testing.T) {
	election := domain.Election{Name: "Gemeenteraad"}
	summary := domain.ElectionSummary{Votes: domain.VotesCounts{TotalVotesCastCount: 42}}

	var r NullRenderer
	a1, err := r.RenderProcessPDF(election, summary)
	require.NoError(t, err)
	a2, err := r.RenderProcessPDF(election, summary)
	require.NoError(t, err)
	require.Equal(t, a1.Bytes, a2.Bytes)
	require.Contains(t, string(a1.Bytes), "42")
}
