// Package aggregation implements cross-session results resolution: for
// every polling station currently belonging to a committee session, walk
// backward through id_prev_session links until a definitive result is
// found, then sum everything into an ElectionSummary. Like validation and
// apportionment, Aggregate is pure given the lookups it's handed —
// persistence concerns are pushed to the Lookup interface, keeping the
// domain logic separate from the Postgres row-fetching that feeds it.
package aggregation

import (
	"sort"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/validation"
)

// Lookup supplies the persistence-backed facts aggregation needs without
// this package ever touching a database handle directly.
type Lookup interface {
	Result(station domain.PollingStationID) (domain.PollingStationResults, bool, error)
	Investigation(station domain.PollingStationID) (domain.Investigation, bool, error)
	Station(id domain.PollingStationID) (domain.PollingStation, bool, error)
}

// Resolve walks the id_prev_session chain starting at station and returns
// the authoritative result for it.
func Resolve(station domain.PollingStation, lookup Lookup) (domain.PollingStationResults, error) {
	current := station
	for {
		if result, ok, err := lookup.Result(current.ID); err != nil {
			return nil, err
		} else if ok {
			return result, nil
		}

		if inv, ok, err := lookup.Investigation(current.ID); err != nil {
			return nil, err
		} else if ok && inv.RequiresFreshResult() {
			return nil, &apperr.IncompleteResults{PollingStationNumber: station.Number}
		}

		if current.IDPrevSession == nil {
			return nil, &apperr.IncompleteResults{PollingStationNumber: station.Number}
		}
		prev, ok, err := lookup.Station(*current.IDPrevSession)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &apperr.IncompleteResults{PollingStationNumber: station.Number}
		}
		current = prev
	}
}

// StationResult pairs a polling station with its resolved result, for
// composing an ElectionSummary and for EML/PDF rendering per station.
type StationResult struct {
	Station domain.PollingStation
	Result  domain.PollingStationResults
}

// Aggregate resolves every station's result and composes the
// ElectionSummary, re-validating each resolved result against the current
// election shape before summing it in.
func Aggregate(election domain.Election, stations []domain.PollingStation, lookup Lookup) (*domain.ElectionSummary, []StationResult, error) {
	seen := make(map[int]bool, len(stations))
	var resolved []StationResult
	for _, st := range stations {
		if seen[st.Number] {
			return nil, nil, &apperr.PollingStationRepeated{StationNumber: st.Number}
		}
		seen[st.Number] = true

		result, err := Resolve(st, lookup)
		if err != nil {
			return nil, nil, err
		}

		errs, _ := validation.Validate(result, election, st)
		if len(errs) > 0 {
			return nil, nil, &apperr.PollingStationValidationErrors{StationNumber: st.Number, ErrorCount: len(errs)}
		}

		resolved = append(resolved, StationResult{Station: st, Result: result})
	}

	summary, err := summarize(election, resolved)
	if err != nil {
		return nil, nil, err
	}
	return summary, resolved, nil
}

func summarize(election domain.Election, resolved []StationResult) (*domain.ElectionSummary, error) {
	summary := &domain.ElectionSummary{}

	groupTotals := make(map[int]int32, len(election.PoliticalGroups))
	candidateTotals := make(map[int][]int32, len(election.PoliticalGroups))
	for _, pg := range election.PoliticalGroups {
		candidateTotals[pg.Number] = make([]int32, len(pg.Candidates))
	}

	contributors := map[string][]int{
		"more_ballots":  {},
		"fewer_ballots": {},
		"unexplained":   {},
	}

	for _, sr := range resolved {
		voters := sr.Result.VotersTotals()
		votes := sr.Result.VotesTotals()
		diffs := sr.Result.DifferencesTotals()

		summary.Voters.PollCardCount += voters.PollCardCount
		summary.Voters.ProxyCertificateCount += voters.ProxyCertificateCount
		summary.Voters.TotalAdmittedVoters += voters.TotalAdmittedVoters

		summary.Votes.VotesCandidatesTotal += votes.VotesCandidatesTotal
		summary.Votes.BlankVotesCount += votes.BlankVotesCount
		summary.Votes.InvalidVotesCount += votes.InvalidVotesCount
		summary.Votes.TotalVotesCastCount += votes.TotalVotesCastCount

		summary.Differences.MoreBallotsCount += diffs.MoreBallotsCount
		summary.Differences.FewerBallotsCount += diffs.FewerBallotsCount

		if diffs.MoreBallotsCountedThanVotersCardsCount {
			contributors["more_ballots"] = append(contributors["more_ballots"], sr.Station.Number)
		}
		if diffs.FewerBallotsCountedThanVotersCardsCount {
			contributors["fewer_ballots"] = append(contributors["fewer_ballots"], sr.Station.Number)
		}
		if diffs.UnexplainedDifferenceOngoing {
			contributors["unexplained"] = append(contributors["unexplained"], sr.Station.Number)
		}

		for _, g := range sr.Result.GroupVotes() {
			pg, ok := election.Group(g.Number)
			if !ok {
				return nil, &apperr.InvalidPoliticalGroup{PgNumber: g.Number}
			}
			if len(g.CandidateVotes) != len(pg.Candidates) {
				return nil, &apperr.InvalidVoteGroup{PgNumber: g.Number}
			}
			groupTotals[g.Number] += g.Total
			for i, v := range g.CandidateVotes {
				candidateTotals[g.Number][i] += v
			}
		}
	}

	for _, pg := range election.PoliticalGroups {
		summary.PoliticalGroupVotes = append(summary.PoliticalGroupVotes, domain.PoliticalGroupCandidateVotes{
			Number:         pg.Number,
			Total:          groupTotals[pg.Number],
			CandidateVotes: candidateTotals[pg.Number],
		})
	}

	for _, counter := range []string{"more_ballots", "fewer_ballots", "unexplained"} {
		stations := contributors[counter]
		sort.Ints(stations)
		summary.DifferenceContributors = append(summary.DifferenceContributors, domain.DifferenceContribution{
			Counter:         counter,
			PollingStations: stations,
		})
	}

	return summary, nil
}
