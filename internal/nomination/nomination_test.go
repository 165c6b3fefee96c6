package nomination

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/apportionment"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/fraction"
)

func listElection(candidateCount int) domain.Election {
	cands := make([]domain.Candidate, candidateCount)
	for i := range cands {
		cands[i] = domain.Candidate{Number: i + 1, LastName: "Cand"}
	}
	return domain.Election{
		PoliticalGroups: []domain.PoliticalGroup{{Number: 1, Candidates: cands}},
	}
}

func resultWithSeats(quotaNum, quotaDen uint64, pgSeats int) *apportionment.Result {
	quota, err := fraction.New(quotaNum, quotaDen)
	if err != nil {
		panic(err)
	}
	return &apportionment.Result{
		Quota: quota,
		FinalStanding: []apportionment.PoliticalGroupStanding{
			{PgNumber: 1, TotalSeats: pgSeats},
		},
	}
}

func TestS5PreferentialNomination(t *testing.T) {
	election := listElection(12)
	apResult := resultWithSeats(5104, 15, 8)
	votes := []domain.PoliticalGroupCandidateVotes{
		{Number: 1, CandidateVotes: []int32{1069, 303, 321, 210, 36, 101, 79, 121, 150, 149, 15, 17}},
	}

	res, err := Nominate(15, election, apResult, votes)
	require.NoError(t, err)
	require.Len(t, res.ListNominations, 1)

	ln := res.ListNominations[0]
	require.Equal(t, []int{1, 3, 2, 4}, ln.PreferentialNomination)
	require.Equal(t, []int{5, 6, 7, 8}, ln.OtherNomination)
	require.Equal(t, []int{1, 3, 2, 4, 5, 6, 7, 8, 9, 10, 11, 12}, ln.UpdatedCandidateRanking)
}

func TestS6DrawingOfLotsOnNomination(t *testing.T) {
	election := listElection(6)
	apResult := resultWithSeats(7600, 19, 5)
	votes := []domain.PoliticalGroupCandidateVotes{
		{Number: 1, CandidateVotes: []int32{400, 400, 400, 400, 400, 400}},
	}

	_, err := Nominate(19, election, apResult, votes)
	require.Error(t, err)
	var lotsErr *apperr.DrawingOfLotsRequired
	require.ErrorAs(t, err, &lotsErr)
	require.Len(t, lotsErr.TyingNumbers, 6)
	require.Equal(t, 5, lotsErr.RemainingSeats)
}

func TestUpdatedRankingEmptyWhenUnchanged(t *testing.T) {
	election := listElection(3)
	apResult := resultWithSeats(300, 3, 3)
	votes := []domain.PoliticalGroupCandidateVotes{
		{Number: 1, CandidateVotes: []int32{100, 100, 100}},
	}
	res, err := Nominate(15, election, apResult, votes)
	require.NoError(t, err)
	require.Nil(t, res.ListNominations[0].UpdatedCandidateRanking)
}

func TestChosenCandidatesSortedBySurname(t *testing.T) {
	election := domain.Election{
		PoliticalGroups: []domain.PoliticalGroup{
			{Number: 1, Candidates: []domain.Candidate{{Number: 1, LastName: "Zeeman"}}},
			{Number: 2, Candidates: []domain.Candidate{{Number: 1, LastName: "Aalders"}}},
		},
	}
	quota, err := fraction.New(100, 2)
	require.NoError(t, err)
	apResult := &apportionment.Result{
		Quota: quota,
		FinalStanding: []apportionment.PoliticalGroupStanding{
			{PgNumber: 1, TotalSeats: 1},
			{PgNumber: 2, TotalSeats: 1},
		},
	}
	votes := []domain.PoliticalGroupCandidateVotes{
		{Number: 1, CandidateVotes: []int32{60}},
		{Number: 2, CandidateVotes: []int32{40}},
	}
	res, err := Nominate(15, election, apResult, votes)
	require.NoError(t, err)
	require.Len(t, res.ChosenCandidates, 2)
	require.Equal(t, "Aalders", res.ChosenCandidates[0].Surname())
	require.Equal(t, "Zeeman", res.ChosenCandidates[1].Surname())
}
