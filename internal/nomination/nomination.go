// Package nomination implements candidate nomination: given an
// apportionment result and per-candidate vote counts, it selects which
// candidates fill each political group's seats and builds the cross-list
// chosen-candidate list. Like apportionment, every threshold comparison
// uses exact fraction.Fraction arithmetic.
package nomination

import (
	"sort"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/apportionment"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/fraction"
)

// largeCouncilPreferencePercent and smallCouncilPreferencePercent are the
// statutory preference-threshold percentages of the quota.
const (
	largeCouncilPreferencePercent = 25
	smallCouncilPreferencePercent = 50
)

// PreferenceThreshold is the vote count a candidate must reach to compete
// for a preferential seat, expressed both as the statutory percentage and
// the resolved vote count.
type PreferenceThreshold struct {
	Percentage    int
	NumberOfVotes fraction.Fraction
}

// ListNomination is one political group's nomination outcome.
type ListNomination struct {
	PgNumber                int
	PgSeats                 int
	PreferentialNomination  []int // candidate numbers, descending vote order
	OtherNomination         []int // candidate numbers, original list order
	UpdatedCandidateRanking []int // empty when unchanged from the original list order
}

// Result is the full candidate-nomination outcome for an election.
type Result struct {
	Threshold        PreferenceThreshold
	ChosenCandidates []domain.Candidate
	ListNominations  []ListNomination
}

// Nominate fills every political group's apportioned seats with
// candidates, given the apportionment result and per-list candidate vote
// counts (matched to election.PoliticalGroups by group Number, candidate
// order matching domain.PoliticalGroup.Candidates).
func Nominate(seats int, election domain.Election, apportionmentResult *apportionment.Result, groupVotes []domain.PoliticalGroupCandidateVotes) (*Result, error) {
	percentage := smallCouncilPreferencePercent
	if seats >= apportionment.LargeCouncilThreshold {
		percentage = largeCouncilPreferencePercent
	}
	pct, err := fraction.New(uint64(percentage), 100)
	if err != nil {
		return nil, err
	}
	thresholdVotes, err := apportionmentResult.Quota.Mul(pct)
	if err != nil {
		return nil, err
	}
	threshold := PreferenceThreshold{Percentage: percentage, NumberOfVotes: thresholdVotes}

	seatsByPg := make(map[int]int, len(apportionmentResult.FinalStanding))
	for _, s := range apportionmentResult.FinalStanding {
		seatsByPg[s.PgNumber] = s.TotalSeats
	}
	votesByPg := make(map[int]domain.PoliticalGroupCandidateVotes, len(groupVotes))
	for _, g := range groupVotes {
		votesByPg[g.Number] = g
	}

	var listNominations []ListNomination
	var chosen []domain.Candidate

	for _, pg := range election.PoliticalGroups {
		pgSeats := seatsByPg[pg.Number]
		votes := votesByPg[pg.Number]

		nomination, nominatedCandidates, err := nominateList(seats, pg, pgSeats, votes, threshold)
		if err != nil {
			return nil, err
		}
		listNominations = append(listNominations, nomination)
		chosen = append(chosen, nominatedCandidates...)
	}

	sort.Slice(chosen, func(i, j int) bool {
		return chosen[i].Surname() < chosen[j].Surname()
	})

	return &Result{
		Threshold:        threshold,
		ChosenCandidates: chosen,
		ListNominations:  listNominations,
	}, nil
}

type scoredCandidate struct {
	candidate domain.Candidate
	votes     int32
}

func nominateList(seats int, pg domain.PoliticalGroup, pgSeats int, votes domain.PoliticalGroupCandidateVotes, threshold PreferenceThreshold) (ListNomination, []domain.Candidate, error) {
	candidateVotes := make(map[int]int32, len(pg.Candidates))
	for i, c := range pg.Candidates {
		var v int32
		if i < len(votes.CandidateVotes) {
			v = votes.CandidateVotes[i]
		}
		candidateVotes[c.Number] = v
	}

	var meeting []scoredCandidate
	for _, c := range pg.Candidates {
		v := candidateVotes[c.Number]
		if fraction.FromInt(uint64(v)).GreaterOrEqual(threshold.NumberOfVotes) {
			meeting = append(meeting, scoredCandidate{candidate: c, votes: v})
		}
	}
	sort.SliceStable(meeting, func(i, j int) bool {
		if meeting[i].votes != meeting[j].votes {
			return meeting[i].votes > meeting[j].votes
		}
		return meeting[i].candidate.Number < meeting[j].candidate.Number
	})

	preferential, err := selectPreferential(meeting, pgSeats)
	if err != nil {
		return ListNomination{}, nil, err
	}

	isPreferential := make(map[int]bool, len(preferential))
	for _, c := range preferential {
		isPreferential[c.Number] = true
	}

	other := selectOther(pg, isPreferential, pgSeats-len(preferential))

	ranking := updatedRanking(seats, pg, pgSeats, meeting)

	nominated := make([]domain.Candidate, 0, len(preferential)+len(other))
	nominated = append(nominated, preferential...)
	for _, n := range other {
		nominated = append(nominated, candidateByNumber(pg, n))
	}

	return ListNomination{
		PgNumber:                pg.Number,
		PgSeats:                 pgSeats,
		PreferentialNomination:  candidateNumbers(preferential),
		OtherNomination:         other,
		UpdatedCandidateRanking: ranking,
	}, nominated, nil
}

// selectPreferential returns the candidates preferentially nominated, in
// descending-vote order, or DrawingOfLotsRequired if a tied block at the
// pg_seats boundary cannot be split.
func selectPreferential(meeting []scoredCandidate, pgSeats int) ([]domain.Candidate, error) {
	if len(meeting) <= pgSeats {
		out := make([]domain.Candidate, len(meeting))
		for i, m := range meeting {
			out[i] = m.candidate
		}
		return out, nil
	}

	var out []domain.Candidate
	remaining := pgSeats
	i := 0
	for i < len(meeting) && remaining > 0 {
		j := i
		for j < len(meeting) && meeting[j].votes == meeting[i].votes {
			j++
		}
		block := meeting[i:j]
		if len(block) <= remaining {
			for _, m := range block {
				out = append(out, m.candidate)
			}
			remaining -= len(block)
			i = j
			continue
		}
		tied := make([]int, len(block))
		for k, m := range block {
			tied[k] = m.candidate.Number
		}
		return nil, &apperr.DrawingOfLotsRequired{TyingNumbers: tied, RemainingSeats: remaining}
	}
	return out, nil
}

// selectOther fills the remaining seats from the original list order,
// skipping candidates already preferentially nominated.
func selectOther(pg domain.PoliticalGroup, isPreferential map[int]bool, remaining int) []int {
	var out []int
	for _, c := range pg.Candidates {
		if remaining <= 0 {
			break
		}
		if isPreferential[c.Number] {
			continue
		}
		out = append(out, c.Number)
		remaining--
	}
	return out
}

// updatedRanking implements the per-list-order update: only computed when
// the council is small or the list won at least one seat, and at least one
// candidate met the threshold; otherwise nil. Equal to the original order
// collapses to nil too.
func updatedRanking(seats int, pg domain.PoliticalGroup, pgSeats int, meeting []scoredCandidate) []int {
	if !(seats < apportionment.LargeCouncilThreshold || pgSeats > 0) || len(meeting) == 0 {
		return nil
	}

	metByNumber := make(map[int]bool, len(meeting))
	ordered := make([]int, 0, len(pg.Candidates))
	for _, m := range meeting {
		ordered = append(ordered, m.candidate.Number)
		metByNumber[m.candidate.Number] = true
	}
	for _, c := range pg.Candidates {
		if !metByNumber[c.Number] {
			ordered = append(ordered, c.Number)
		}
	}

	original := make([]int, len(pg.Candidates))
	for i, c := range pg.Candidates {
		original[i] = c.Number
	}
	if equalInts(ordered, original) {
		return nil
	}
	return ordered
}

func candidateNumbers(cands []domain.Candidate) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.Number
	}
	return out
}

func candidateByNumber(pg domain.PoliticalGroup, number int) domain.Candidate {
	for _, c := range pg.Candidates {
		if c.Number == number {
			return c
		}
	}
	return domain.Candidate{}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
