package domain

import "time"

// Investigation records a committee's review of one polling station
// within one committee session. It controls whether aggregation.Resolve
// expects a fresh result in the current session or may inherit the
// previous session's.
type Investigation struct {
	PollingStation   PollingStationID
	CommitteeSession CommitteeSessionID
	Reason           string
	Findings         *string
	CorrectedResults *bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RequiresFreshResult reports whether this investigation forces
// aggregation to require a definitive result in the current session
// rather than falling back to a previous session's.
func (i Investigation) RequiresFreshResult() bool {
	return i.CorrectedResults != nil && *i.CorrectedResults
}

// DifferenceContribution records which polling stations contributed to one
// of ElectionSummary's difference counters, preserving station number
// order for reproducible reporting.
type DifferenceContribution struct {
	Counter         string
	PollingStations []int
}

// ElectionSummary is the sum of voters/votes/differences/per-group
// per-candidate votes across all polling stations in a committee
// session, the input to apportionment and candidate nomination.
type ElectionSummary struct {
	Voters                 VotersCounts
	Votes                  VotesCounts
	Differences            DifferencesCounts
	PoliticalGroupVotes    []PoliticalGroupCandidateVotes
	DifferenceContributors []DifferenceContribution
}

// TotalVotesCandidates returns the quota numerator for apportionment: the
// sum of every political group's candidate-vote total.
func (s ElectionSummary) TotalVotesCandidates() int64 {
	var total int64
	for _, pg := range s.PoliticalGroupVotes {
		total += int64(pg.Total)
	}
	return total
}
