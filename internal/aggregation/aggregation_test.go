package aggregation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
)

type fakeLookup struct {
	results        map[domain.PollingStationID]domain.PollingStationResults
	investigations map[domain.PollingStationID]domain.Investigation
	stations       map[domain.PollingStationID]domain.PollingStation
}

func (f *fakeLookup) Result(id domain.PollingStationID) (domain.PollingStationResults, bool, error) {
	r, ok := f.results[id]
	return r, ok, nil
}

func (f *fakeLookup) Investigation(id domain.PollingStationID) (domain.Investigation, bool, error) {
	inv, ok := f.investigations[id]
	return inv, ok, nil
}

func (f *fakeLookup) Station(id domain.PollingStationID) (domain.PollingStation, bool, error) {
	s, ok := f.stations[id]
	return s, ok, nil
}

func sampleElection() domain.Election {
	return domain.Election{
		NumberOfSeats: 15,
		PoliticalGroups: []domain.PoliticalGroup{
			{Number: 1, Candidates: []domain.Candidate{{Number: 1, LastName: "A"}, {Number: 2, LastName: "B"}}},
		},
	}
}

func cleanResult() domain.CSOFirstSession {
	return domain.CSOFirstSession{
		Voters: domain.VotersCounts{PollCardCount: 100, TotalAdmittedVoters: 100},
		Votes: domain.VotesCounts{
			PoliticalGroupTotals: []int32{100},
			VotesCandidatesTotal: 100,
			TotalVotesCastCount:  100,
		},
		PoliticalGroupVotes: []domain.PoliticalGroupCandidateVotes{
			{Number: 1, Total: 100, CandidateVotes: []int32{60, 40}},
		},
	}
}

func TestResolveUsesDirectResult(t *testing.T) {
	station := domain.PollingStation{ID: 1, Number: 1}
	lookup := &fakeLookup{
		results: map[domain.PollingStationID]domain.PollingStationResults{1: cleanResult()},
	}
	res, err := Resolve(station, lookup)
	require.NoError(t, err)
	require.Equal(t, int32(100), res.VotersTotals().TotalAdmittedVoters)
}

func TestResolveWalksToPreviousSession(t *testing.T) {
	prevID := domain.PollingStationID(10)
	station := domain.PollingStation{ID: 1, Number: 1, IDPrevSession: &prevID}
	lookup := &fakeLookup{
		results: map[domain.PollingStationID]domain.PollingStationResults{10: cleanResult()},
		stations: map[domain.PollingStationID]domain.PollingStation{
			10: {ID: 10, Number: 1},
		},
	}
	res, err := Resolve(station, lookup)
	require.NoError(t, err)
	require.Equal(t, int32(100), res.VotersTotals().TotalAdmittedVoters)
}

func TestResolveFailsWhenInvestigationRequiresFreshResult(t *testing.T) {
	corrected := true
	station := domain.PollingStation{ID: 1, Number: 1}
	lookup := &fakeLookup{
		investigations: map[domain.PollingStationID]domain.Investigation{
			1: {CorrectedResults: &corrected},
		},
	}
	_, err := Resolve(station, lookup)
	require.Error(t, err)
	var incomplete *apperr.IncompleteResults
	require.ErrorAs(t, err, &incomplete)
}

func TestResolveFailsWithNoPreviousSession(t *testing.T) {
	station := domain.PollingStation{ID: 1, Number: 1}
	lookup := &fakeLookup{}
	_, err := Resolve(station, lookup)
	require.Error(t, err)
}

func TestAggregateSumsAcrossStations(t *testing.T) {
	election := sampleElection()
	stations := []domain.PollingStation{
		{ID: 1, Number: 1},
		{ID: 2, Number: 2},
	}
	lookup := &fakeLookup{
		results: map[domain.PollingStationID]domain.PollingStationResults{
			1: cleanResult(),
			2: cleanResult(),
		},
	}
	summary, resolved, err := Aggregate(election, stations, lookup)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	require.Equal(t, int32(200), summary.Voters.TotalAdmittedVoters)
	require.Equal(t, int32(200), summary.Votes.VotesCandidatesTotal)
	require.Equal(t, int32(200), summary.PoliticalGroupVotes[0].Total)
	require.Equal(t, []int32{120, 80}, summary.PoliticalGroupVotes[0].CandidateVotes)
}

func TestAggregateRejectsRepeatedStation(t *testing.T) {
	election := sampleElection()
	stations := []domain.PollingStation{
		{ID: 1, Number: 1},
		{ID: 1, Number: 1},
	}
	lookup := &fakeLookup{
		results: map[domain.PollingStationID]domain.PollingStationResults{1: cleanResult()},
	}
	_, _, err := Aggregate(election, stations, lookup)
	require.Error(t, err)
	var repeated *apperr.PollingStationRepeated
	require.ErrorAs(t, err, &repeated)
}

func TestAggregateRejectsInvalidResult(t *testing.T) {
	election := sampleElection()
	stations := []domain.PollingStation{{ID: 1, Number: 1}}
	broken := cleanResult()
	broken.Voters.TotalAdmittedVoters = 999
	lookup := &fakeLookup{
		results: map[domain.PollingStationID]domain.PollingStationResults{1: broken},
	}
	_, _, err := Aggregate(election, stations, lookup)
	require.Error(t, err)
	var valErr *apperr.PollingStationValidationErrors
	require.ErrorAs(t, err, &valErr)
}
