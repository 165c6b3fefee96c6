package domain

import "time"

// ElectionCategory enumerates the kinds of election this system counts.
// Only Municipal is modelled; the enum leaves room for the other
// statutory categories without implying they are supported.
type ElectionCategory string

const (
	CategoryMunicipal ElectionCategory = "municipal"
)

// CountingMethod selects which counting procedure a committee session
// follows: central summation (CSO) or decentralised summation (DSO).
type CountingMethod string

const (
	CountingCSO CountingMethod = "CSO"
	CountingDSO CountingMethod = "DSO"
)

// Candidate is one contestant on a political group's list. Number is
// 1-based and contiguous within its group.
type Candidate struct {
	Number     int
	FirstName  string
	LastName   string
	LocalityOf string // municipality of residence, as printed on the list
}

// Surname is used for the cross-list alphabetical ordering in candidate
// nomination.
func (c Candidate) Surname() string { return c.LastName }

// PoliticalGroup ("lijst") is one party list within an election. Number is
// 1-based and contiguous across the election's group list.
type PoliticalGroup struct {
	Number     int
	Name       string
	Candidates []Candidate
}

// CandidateCount returns how many candidates stand on this list — the
// exhaustion bound in apportionment step 5 and candidate nomination.
func (g PoliticalGroup) CandidateCount() int { return len(g.Candidates) }

// Election is immutable once imported. NumberOfSeats must be >= 1 and
// PoliticalGroups must be non-empty with contiguous Numbers.
type Election struct {
	ID              ElectionID
	Name            string
	Category        ElectionCategory
	ElectionDate    time.Time
	NumberOfSeats   int
	CountingMethod  CountingMethod
	PoliticalGroups []PoliticalGroup
}

// Group returns the political group with the given number, or false if no
// such group exists on this election.
func (e Election) Group(number int) (PoliticalGroup, bool) {
	for _, g := range e.PoliticalGroups {
		if g.Number == number {
			return g, true
		}
	}
	return PoliticalGroup{}, false
}

// Validate checks the structural invariants an election must satisfy: at
// least one seat, at least one group, contiguous group numbers 1..G, and
// contiguous candidate numbers 1..C within each group.
func (e Election) Validate() error {
	if e.NumberOfSeats < 1 {
		return &ErrInvalidElection{Reason: "number_of_seats must be >= 1"}
	}
	if len(e.PoliticalGroups) == 0 {
		return &ErrInvalidElection{Reason: "election must have at least one political group"}
	}
	for i, g := range e.PoliticalGroups {
		if g.Number != i+1 {
			return &ErrInvalidElection{Reason: "political group numbers must be contiguous starting at 1"}
		}
		if len(g.Candidates) == 0 {
			return &ErrInvalidElection{Reason: "political group must have at least one candidate"}
		}
		for j, c := range g.Candidates {
			if c.Number != j+1 {
				return &ErrInvalidElection{Reason: "candidate numbers must be contiguous starting at 1 within a group"}
			}
		}
	}
	return nil
}

// ErrInvalidElection reports a structural invariant violation in imported
// election data.
type ErrInvalidElection struct {
	Reason string
}

func (e *ErrInvalidElection) Error() string { return "invalid election: " + e.Reason }
