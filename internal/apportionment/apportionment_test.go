package apportionment

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
)

func electionWithLists(candidatesPerList ...int) domain.Election {
	groups := make([]domain.PoliticalGroup, len(candidatesPerList))
	for i, n := range candidatesPerList {
		cands := make([]domain.Candidate, n)
		for j := range cands {
			cands[j] = domain.Candidate{Number: j + 1, LastName: "X"}
		}
		groups[i] = domain.PoliticalGroup{Number: i + 1, Candidates: cands}
	}
	return domain.Election{NumberOfSeats: 0, PoliticalGroups: groups}
}

func summaryFromVotes(votes ...int32) domain.ElectionSummary {
	pgs := make([]domain.PoliticalGroupCandidateVotes, len(votes))
	for i, v := range votes {
		pgs[i] = domain.PoliticalGroupCandidateVotes{Number: i + 1, Total: v}
	}
	return domain.ElectionSummary{PoliticalGroupVotes: pgs}
}

func totalSeats(r *Result) []int {
	out := make([]int, len(r.FinalStanding))
	for i, s := range r.FinalStanding {
		out[i] = s.TotalSeats
	}
	return out
}

func TestS1SmallCouncilLargestRemainder(t *testing.T) {
	votes := []int32{540, 160, 160, 80, 80, 80, 60, 40}
	election := electionWithLists(20, 20, 20, 20, 20, 20, 20, 20)
	summary := summaryFromVotes(votes...)

	r, err := Apportion(15, election, summary)
	require.NoError(t, err)
	require.Equal(t, []int{7, 2, 2, 1, 1, 1, 1, 0}, totalSeats(r))
	require.Len(t, r.Steps, 2)
}

func TestS2SmallCouncilUniqueHighestAverageFallback(t *testing.T) {
	votes := []int32{808, 59, 58, 57, 56, 55, 54, 53}
	election := electionWithLists(20, 20, 20, 20, 20, 20, 20, 20)
	summary := summaryFromVotes(votes...)

	r, err := Apportion(15, election, summary)
	require.NoError(t, err)
	require.Equal(t, []int{12, 1, 1, 1, 0, 0, 0, 0}, totalSeats(r))
	require.Len(t, r.Steps, 5)
}

func TestS3LargeCouncilDHondt(t *testing.T) {
	votes := []int32{600, 302, 98, 99, 101}
	election := electionWithLists(20, 20, 20, 20, 20)
	summary := summaryFromVotes(votes...)

	r, err := Apportion(23, election, summary)
	require.NoError(t, err)
	require.Equal(t, []int{12, 6, 1, 2, 2}, totalSeats(r))
	require.Len(t, r.Steps, 4)
	for _, step := range r.Steps {
		require.Equal(t, ChangeHighestAverage, step.Change.Kind)
	}
}

func TestS4DrawingOfLotsRequired(t *testing.T) {
	votes := []int32{500, 140, 140, 140, 140, 140}
	election := electionWithLists(20, 20, 20, 20, 20, 20)
	summary := summaryFromVotes(votes...)

	_, err := Apportion(15, election, summary)
	require.Error(t, err)
	var lotsErr *apperr.DrawingOfLotsRequired
	require.ErrorAs(t, err, &lotsErr)
}

func TestZeroVotesCastFails(t *testing.T) {
	election := electionWithLists(5)
	summary := summaryFromVotes(0)
	_, err := Apportion(5, election, summary)
	var zvc *apperr.ZeroVotesCast
	require.ErrorAs(t, err, &zvc)
}

func TestAllListsExhausted(t *testing.T) {
	election := electionWithLists(2, 2) // 4 candidates total
	summary := summaryFromVotes(100, 50)
	_, err := Apportion(10, election, summary)
	var exhausted *apperr.AllListsExhausted
	require.ErrorAs(t, err, &exhausted)
}

func TestTotalSeatsEqualsCouncilSize(t *testing.T) {
	votes := []int32{600, 302, 98, 99, 101}
	election := electionWithLists(20, 20, 20, 20, 20)
	summary := summaryFromVotes(votes...)
	r, err := Apportion(23, election, summary)
	require.NoError(t, err)
	sum := 0
	for _, n := range totalSeats(r) {
		sum += n
	}
	require.Equal(t, 23, sum)
}
