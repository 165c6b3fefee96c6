package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/domain"
)

func sampleElection() domain.Election {
	return domain.Election{
		NumberOfSeats: 15,
		PoliticalGroups: []domain.PoliticalGroup{
			{Number: 1, Candidates: []domain.Candidate{{Number: 1, LastName: "A"}, {Number: 2, LastName: "B"}}},
			{Number: 2, Candidates: []domain.Candidate{{Number: 1, LastName: "C"}}},
		},
	}
}

func hasCode(diags []Diagnostic, code string) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestValidateCleanResultHasNoErrors(t *testing.T) {
	station := domain.PollingStation{Number: 1}
	results := domain.CSOFirstSession{
		Voters: domain.VotersCounts{PollCardCount: 80, ProxyCertificateCount: 20, TotalAdmittedVoters: 100},
		Votes: domain.VotesCounts{
			PoliticalGroupTotals: []int32{70, 30},
			VotesCandidatesTotal: 100,
			TotalVotesCastCount:  100,
		},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 70, CandidateVotes: []int32{50, 20}},
			{Number: 2, Total: 30, CandidateVotes: []int32{30}},
		},
	}
	errs, warns := Validate(results, sampleElection(), station)
	require.Empty(t, errs)
	require.Empty(t, warns)
}

func TestF201VoterMismatch(t *testing.T) {
	results := domain.CSOFirstSession{
		Voters: domain.VotersCounts{PollCardCount: 80, ProxyCertificateCount: 20, TotalAdmittedVoters: 99},
	}
	errs, _ := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(errs, "F.201"))
}

func TestF203VoteArithmeticMismatch(t *testing.T) {
	results := domain.CSOFirstSession{
		Votes: domain.VotesCounts{VotesCandidatesTotal: 90, BlankVotesCount: 5, InvalidVotesCount: 5, TotalVotesCastCount: 101},
	}
	errs, _ := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(errs, "F.203"))
}

func TestF401SuppressesF402AndF403(t *testing.T) {
	results := domain.CSOFirstSession{
		Votes: domain.VotesCounts{PoliticalGroupTotals: []int32{0, 30}, VotesCandidatesTotal: 30},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 0, CandidateVotes: []int32{10, 5}}, // candidates have votes but declared total is 0
			{Number: 2, Total: 30, CandidateVotes: []int32{30}},
		},
	}
	errs, _ := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(errs, "F.401"))
	require.False(t, hasCode(errs, "F.402"))
	require.False(t, hasCode(errs, "F.403"))
}

func TestF402WithoutF401(t *testing.T) {
	results := domain.CSOFirstSession{
		Votes: domain.VotesCounts{PoliticalGroupTotals: []int32{70, 30}, VotesCandidatesTotal: 100},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 70, CandidateVotes: []int32{50, 10}}, // sums to 60, not 70
			{Number: 2, Total: 30, CandidateVotes: []int32{30}},
		},
	}
	errs, _ := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(errs, "F.402"))
}

func TestF403ListTotalMismatch(t *testing.T) {
	results := domain.CSOFirstSession{
		Votes: domain.VotesCounts{PoliticalGroupTotals: []int32{65, 30}, VotesCandidatesTotal: 95},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 70, CandidateVotes: []int32{50, 20}},
			{Number: 2, Total: 30, CandidateVotes: []int32{30}},
		},
	}
	errs, _ := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(errs, "F.403"))
}

func TestF204MissingDifferenceFlagAgainstActualDelta(t *testing.T) {
	results := domain.CSOFirstSession{
		Voters: domain.VotersCounts{TotalAdmittedVoters: 100},
		Votes:  domain.VotesCounts{TotalVotesCastCount: 120, VotesCandidatesTotal: 120},
	}
	errs, _ := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(errs, "F.204"))
}

func TestF204CorrectlyFlaggedDifferenceDoesNotFire(t *testing.T) {
	results := domain.CSOFirstSession{
		Voters: domain.VotersCounts{TotalAdmittedVoters: 100},
		Votes:  domain.VotesCounts{TotalVotesCastCount: 120, VotesCandidatesTotal: 120},
		Differences: domain.DifferencesCounts{
			MoreBallotsCountedThanVotersCardsCount: true,
			MoreBallotsCount:                       20,
		},
	}
	errs, _ := Validate(results, sampleElection(), domain.PollingStation{})
	require.False(t, hasCode(errs, "F.204"))
}

func TestW204ZeroCast(t *testing.T) {
	results := domain.CSOFirstSession{}
	_, warns := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(warns, "W.204"))
}

func TestW201BlankThreshold(t *testing.T) {
	results := domain.CSOFirstSession{
		Votes: domain.VotesCounts{TotalVotesCastCount: 100, BlankVotesCount: 3},
	}
	_, warns := Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(warns, "W.201"))
}

func TestW203UsesFloorOf15WhenPercentIsSmaller(t *testing.T) {
	// cast=100 -> 2% = 2, floor is 15, so a diff of 14 must NOT warn.
	results := domain.CSOFirstSession{
		Voters: domain.VotersCounts{TotalAdmittedVoters: 114},
		Votes:  domain.VotesCounts{TotalVotesCastCount: 100},
	}
	_, warns := Validate(results, sampleElection(), domain.PollingStation{})
	require.False(t, hasCode(warns, "W.203"))

	results.Voters.TotalAdmittedVoters = 115
	_, warns = Validate(results, sampleElection(), domain.PollingStation{})
	require.True(t, hasCode(warns, "W.203"))
}
