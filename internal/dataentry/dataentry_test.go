package dataentry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
)

func sampleElection() domain.Election {
	return domain.Election{
		NumberOfSeats: 15,
		PoliticalGroups: []domain.PoliticalGroup{
			{Number: 1, Candidates: []domain.Candidate{{Number: 1, LastName: "A"}}},
		},
	}
}

func cleanResult() domain.PollingStationResults {
	return domain.CSOFirstSession{
		Voters: domain.VotersCounts{PollCardCount: 100, TotalAdmittedVoters: 100},
		Votes: domain.VotesCounts{
			PoliticalGroupTotals: []int32{100},
			VotesCandidatesTotal: 100,
			TotalVotesCastCount:  100,
		},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 100, CandidateVotes: []int32{100}},
		},
	}
}

func brokenResult() domain.PollingStationResults {
	return domain.CSOFirstSession{
		Voters: domain.VotersCounts{PollCardCount: 100, TotalAdmittedVoters: 999},
	}
}

func TestFirstEntryHappyPathToDefinitive(t *testing.T) {
	user1, user2 := domain.UserID(1), domain.UserID(2)
	election := sampleElection()
	station := domain.PollingStation{Number: 1}

	d := New()
	d, err := d.ClaimFirstEntry(user1, domain.CSOFirstSession{})
	require.NoError(t, err)
	require.Equal(t, FirstEntryInProgress, d.Status)

	d, err = d.UpdateFirstEntry(user1, cleanResult(), 100, "{}")
	require.NoError(t, err)

	d, diags, err := d.FinaliseFirstEntry(election, station)
	require.NoError(t, err)
	require.Empty(t, diags)
	require.Equal(t, SecondEntryNotStarted, d.Status)

	d, err = d.ClaimSecondEntry(user2, domain.CSOFirstSession{})
	require.NoError(t, err)
	require.Equal(t, SecondEntryInProgress, d.Status)

	d, err = d.UpdateSecondEntry(user2, cleanResult(), 100, "{}")
	require.NoError(t, err)

	d, err = d.FinaliseSecondEntry()
	require.NoError(t, err)
	require.Equal(t, Definitive, d.Status)
	require.NotNil(t, d.FinishedAt)
}

func TestFinaliseFirstEntryWithErrorsGoesToHasErrors(t *testing.T) {
	user1 := domain.UserID(1)
	d := New()
	d, _ = d.ClaimFirstEntry(user1, domain.CSOFirstSession{})
	d, _ = d.UpdateFirstEntry(user1, brokenResult(), 100, "{}")

	d, diags, err := d.FinaliseFirstEntry(sampleElection(), domain.PollingStation{})
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	require.Equal(t, FirstEntryHasErrors, d.Status)

	d, err = d.ResumeEdit()
	require.NoError(t, err)
	require.Equal(t, FirstEntryInProgress, d.Status)
}

func TestSecondEntryMustBeDifferentUser(t *testing.T) {
	user1 := domain.UserID(1)
	d := New()
	d, _ = d.ClaimFirstEntry(user1, domain.CSOFirstSession{})
	d, _ = d.UpdateFirstEntry(user1, cleanResult(), 100, "{}")
	d, _, _ = d.FinaliseFirstEntry(sampleElection(), domain.PollingStation{})

	_, err := d.ClaimSecondEntry(user1, domain.CSOFirstSession{})
	require.Error(t, err)
	var conflict *apperr.Conflict
	require.ErrorAs(t, err, &conflict)
}

func TestDivergingEntriesRequireResolution(t *testing.T) {
	user1, user2 := domain.UserID(1), domain.UserID(2)
	d := New()
	d, _ = d.ClaimFirstEntry(user1, domain.CSOFirstSession{})
	d, _ = d.UpdateFirstEntry(user1, cleanResult(), 100, "{}")
	d, _, _ = d.FinaliseFirstEntry(sampleElection(), domain.PollingStation{})
	d, _ = d.ClaimSecondEntry(user2, domain.CSOFirstSession{})

	different := cleanResult().(domain.CSOFirstSession)
	different.Voters.PollCardCount = 50
	d, _ = d.UpdateSecondEntry(user2, different, 100, "{}")

	d, err := d.FinaliseSecondEntry()
	require.NoError(t, err)
	require.Equal(t, EntriesDifferent, d.Status)

	diffs := DiffFields(d.FirstEntry, d.SecondEntry)
	require.Contains(t, diffs, "Voters")

	d, err = d.KeepFirstEntry()
	require.NoError(t, err)
	require.Equal(t, Definitive, d.Status)
}

func TestBlankResultsShapesMatchCountingMethod(t *testing.T) {
	election := sampleElection()
	election.CountingMethod = domain.CountingCSO

	first := BlankResults(election, 1)
	require.IsType(t, domain.CSOFirstSession{}, first)
	require.Len(t, first.GroupVotes()[0].CandidateVotes, 1)

	next := BlankResults(election, 2)
	require.IsType(t, domain.CSONextSession{}, next)

	election.CountingMethod = domain.CountingDSO
	dsoFirst := BlankResults(election, 1)
	require.IsType(t, domain.DSOFirstSession{}, dsoFirst)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	d := New()
	_, err := d.UpdateFirstEntry(domain.UserID(1), cleanResult(), 0, "")
	require.Error(t, err)
	var transitionErr *apperr.InvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)
}
