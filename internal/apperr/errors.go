// Package apperr defines the stable, machine-readable error taxonomy the
// core reports to its callers. Every exported error type carries a
// Reference() string for i18n-safe client handling — free-text fields
// are never used for flow control; status codes and Reference() do the
// actual branching.
package apperr

import "fmt"

// InvalidStateTransition is returned when a caller attempts a transition
// not in the entry-state or committee-session transition table.
type InvalidStateTransition struct {
	CurrentState string
	Attempted    string
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition: cannot %q from state %q", e.Attempted, e.CurrentState)
}

func (e *InvalidStateTransition) Reference() string { return "invalid_state_transition" }

// EntryNotReady is returned by finalise when validation errors remain.
type EntryNotReady struct {
	ErrorCount int
}

func (e *EntryNotReady) Error() string {
	return fmt.Sprintf("entry not ready: %d validation error(s) outstanding", e.ErrorCount)
}

func (e *EntryNotReady) Reference() string { return "entry_not_ready" }

// DrawingOfLotsRequired is returned when apportionment or candidate
// nomination hits a tie this system deliberately refuses to break
// automatically; resolving it is left to a manual drawing of lots by the
// committee.
type DrawingOfLotsRequired struct {
	TyingNumbers   []int // political group or candidate numbers
	RemainingSeats int
}

func (e *DrawingOfLotsRequired) Error() string {
	return fmt.Sprintf("drawing of lots required among %v for %d remaining seat(s)", e.TyingNumbers, e.RemainingSeats)
}

func (e *DrawingOfLotsRequired) Reference() string { return "drawing_of_lots_required" }

// AllListsExhausted is returned when the number of seats exceeds the
// total number of candidates across all lists.
type AllListsExhausted struct{}

func (e *AllListsExhausted) Error() string {
	return "all lists exhausted: not enough candidates for the number of seats"
}
func (e *AllListsExhausted) Reference() string { return "all_lists_exhausted" }

// ZeroVotesCast is returned when apportionment's input has no candidate
// votes to compute a quota from.
type ZeroVotesCast struct{}

func (e *ZeroVotesCast) Error() string     { return "zero votes cast: cannot compute a quota" }
func (e *ZeroVotesCast) Reference() string { return "zero_votes_cast" }

// IncompleteResults is returned when aggregation cannot locate a required
// result for a polling station.
type IncompleteResults struct {
	PollingStationNumber int
}

func (e *IncompleteResults) Error() string {
	return fmt.Sprintf("incomplete results: no result found for polling station %d", e.PollingStationNumber)
}

func (e *IncompleteResults) Reference() string { return "incomplete_results" }

// InvestigationRequiresCorrectedResults is returned when a caller tries to
// set corrected_results=false while a definitive result already exists
// for this session, without accepting deletion of that entry.
type InvestigationRequiresCorrectedResults struct{}

func (e *InvestigationRequiresCorrectedResults) Error() string {
	return "investigation requires corrected_results=true: a definitive result already exists for this session"
}
func (e *InvestigationRequiresCorrectedResults) Reference() string {
	return "investigation_requires_corrected_results"
}

// CommitteeSessionPaused is returned for any mutation attempted while a
// committee session is in DataEntryPaused.
type CommitteeSessionPaused struct{}

func (e *CommitteeSessionPaused) Error() string     { return "committee session is paused" }
func (e *CommitteeSessionPaused) Reference() string { return "committee_session_paused" }

// PollingStationRepeated is returned when an aggregation input lists the
// same polling station more than once.
type PollingStationRepeated struct {
	StationNumber int
}

func (e *PollingStationRepeated) Error() string {
	return fmt.Sprintf("polling station %d appears more than once in the aggregation input", e.StationNumber)
}
func (e *PollingStationRepeated) Reference() string { return "polling_station_repeated" }

// PollingStationValidationErrors is returned when a result resolved during
// aggregation fails re-validation against the current election shape.
type PollingStationValidationErrors struct {
	StationNumber int
	ErrorCount    int
}

func (e *PollingStationValidationErrors) Error() string {
	return fmt.Sprintf("polling station %d result fails re-validation with %d error(s)", e.StationNumber, e.ErrorCount)
}
func (e *PollingStationValidationErrors) Reference() string {
	return "polling_station_validation_errors"
}

// InvalidPoliticalGroup is returned when a result references a political
// group number the election does not define.
type InvalidPoliticalGroup struct {
	PgNumber int
}

func (e *InvalidPoliticalGroup) Error() string {
	return fmt.Sprintf("political group %d is not part of this election", e.PgNumber)
}
func (e *InvalidPoliticalGroup) Reference() string { return "invalid_political_group" }

// InvalidVoteGroup is returned when a result's candidate-vote slice for a
// group does not match that group's candidate count.
type InvalidVoteGroup struct {
	PgNumber int
}

func (e *InvalidVoteGroup) Error() string {
	return fmt.Sprintf("candidate vote count for political group %d does not match its candidate list", e.PgNumber)
}
func (e *InvalidVoteGroup) Reference() string { return "invalid_vote_group" }

// Conflict, NotFound, and Unauthorized surface transport-layer concerns
// through the same taxonomy so callers can branch uniformly.
type Conflict struct{ Message string }

func (e *Conflict) Error() string     { return e.Message }
func (e *Conflict) Reference() string { return "conflict" }

type NotFound struct{ Message string }

func (e *NotFound) Error() string     { return e.Message }
func (e *NotFound) Reference() string { return "not_found" }

type Unauthorized struct{ Message string }

func (e *Unauthorized) Error() string     { return e.Message }
func (e *Unauthorized) Reference() string { return "unauthorized" }
