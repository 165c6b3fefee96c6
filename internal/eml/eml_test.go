package eml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/domain"
)

func sampleElection() domain.Election {
	return domain.Election{
		ID:            1,
		Name:          "Gemeenteraad Voorbeeld",
		ElectionDate:  time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC),
		NumberOfSeats: 15,
		PoliticalGroups: []domain.PoliticalGroup{
			{Number: 1, Name: "Lijst A", Candidates: []domain.Candidate{{Number: 1, LastName: "Jansen"}}},
		},
	}
}

func TestFromSummaryBuildsOneReportingUnitPerStation(t *testing.T) {
	election := sampleElection()
	station := domain.PollingStation{ID: 1, Number: 1, Name: "Stemlokaal 1"}
	result := domain.CSOFirstSession{
		Voters: domain.VotersCounts{TotalAdmittedVoters: 10},
		Votes:  domain.VotesCounts{PoliticalGroupTotals: []int32{10}, VotesCandidatesTotal: 10, TotalVotesCastCount: 10},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 10, CandidateVotes: []int32{10}},
		},
	}
	summary := domain.ElectionSummary{
		Votes: domain.VotesCounts{VotesCandidatesTotal: 10, TotalVotesCastCount: 10},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 10, CandidateVotes: []int32{10}},
		},
	}

	doc, err := FromSummary("510b", election, "Gemeente Voorbeeld", []domain.PollingStation{station}, []domain.PollingStationResults{result}, summary, time.Now())
	require.NoError(t, err)
	require.Len(t, doc.Count.Election.Contests[0].ReportingUnitVotes, 1)
	require.Equal(t, int32(10), doc.Count.Election.Contests[0].TotalVotes.Cast)
}

func TestEmitProducesWellFormedXML(t *testing.T) {
	election := sampleElection()
	summary := domain.ElectionSummary{}
	doc, err := FromSummary("510b", election, "Gemeente Voorbeeld", nil, nil, summary, time.Now())
	require.NoError(t, err)

	out, err := Emit(doc)
	require.NoError(t, err)
	require.Contains(t, string(out), "<EML")
	require.Contains(t, string(out), "ElectionName")
}

func TestFromSummaryRejectsMismatchedSlices(t *testing.T) {
	election := sampleElection()
	_, err := FromSummary("510b", election, "x", []domain.PollingStation{{}}, nil, domain.ElectionSummary{}, time.Now())
	require.Error(t, err)
}
