// Package committeesession implements the committee-session lifecycle
// finite-state machine: five states, gated by capability predicates the
// persistence layer supplies rather than computed here, keeping pure
// transition logic separate from the caller deciding what data to feed it.
// Every transition function takes the current domain.CommitteeSession by
// value and returns the next value; callers are responsible for
// persisting it inside the same transaction that recorded the audit
// event.
package committeesession

import (
	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
)

// Predicates are computed by the persistence layer and passed in, never
// queried by this package directly, so the state machine stays pure.
type Predicates struct {
	HasPollingStations bool
	HasInvestigations  bool
	HasCompleteResults bool
}

// FileDeletedEvent records one artifact invalidated by a resume from
// DataEntryFinished, for the caller to emit as an audit-log entry.
type FileDeletedEvent struct {
	FileID domain.FileID
	Field  string // "results_eml", "results_pdf", or "overview_pdf"
}

func invalid(current domain.CommitteeSessionStatus, attempted string) error {
	return &apperr.InvalidStateTransition{CurrentState: string(current), Attempted: attempted}
}

// OnFirstPollingStationCreated fires when a committee session's first
// polling station is registered: Created -> DataEntryNotStarted.
func OnFirstPollingStationCreated(s domain.CommitteeSession) (domain.CommitteeSession, error) {
	if s.Status != domain.SessionCreated {
		return s, invalid(s.Status, "first_polling_station_created")
	}
	s.Status = domain.SessionDataEntryNotStarted
	return s, nil
}

// OnLastPollingStationDeleted fires when a committee session's last
// polling station is removed: DataEntryNotStarted -> Created.
func OnLastPollingStationDeleted(s domain.CommitteeSession) (domain.CommitteeSession, error) {
	if s.Status != domain.SessionDataEntryNotStarted {
		return s, invalid(s.Status, "last_polling_station_deleted")
	}
	s.Status = domain.SessionCreated
	return s, nil
}

// Start moves a session from DataEntryNotStarted to DataEntryInProgress.
// It requires polling stations to exist, and for session number > 1, a
// recorded investigation as well.
func Start(s domain.CommitteeSession, p Predicates) (domain.CommitteeSession, error) {
	if s.Status != domain.SessionDataEntryNotStarted {
		return s, invalid(s.Status, "start")
	}
	if !p.HasPollingStations {
		return s, invalid(s.Status, "start")
	}
	if s.Number > 1 && !p.HasInvestigations {
		return s, invalid(s.Status, "start")
	}
	s.Status = domain.SessionDataEntryInProgress
	return s, nil
}

// Pause moves DataEntryInProgress to DataEntryPaused unconditionally.
func Pause(s domain.CommitteeSession) (domain.CommitteeSession, error) {
	if s.Status != domain.SessionDataEntryInProgress {
		return s, invalid(s.Status, "pause")
	}
	s.Status = domain.SessionDataEntryPaused
	return s, nil
}

// Resume moves a session back to DataEntryInProgress, either from a plain
// pause or by reopening a finished session. Reopening a finished session
// invalidates its three file artifacts; the caller must persist their
// deletion and emit the returned FileDeletedEvents as audit entries in the
// same transaction.
func Resume(s domain.CommitteeSession) (domain.CommitteeSession, []FileDeletedEvent, error) {
	switch s.Status {
	case domain.SessionDataEntryPaused:
		s.Status = domain.SessionDataEntryInProgress
		return s, nil, nil
	case domain.SessionDataEntryFinished:
		var events []FileDeletedEvent
		if s.ResultsEML != nil {
			events = append(events, FileDeletedEvent{FileID: *s.ResultsEML, Field: "results_eml"})
			s.ResultsEML = nil
		}
		if s.ResultsPDF != nil {
			events = append(events, FileDeletedEvent{FileID: *s.ResultsPDF, Field: "results_pdf"})
			s.ResultsPDF = nil
		}
		if s.OverviewPDF != nil {
			events = append(events, FileDeletedEvent{FileID: *s.OverviewPDF, Field: "overview_pdf"})
			s.OverviewPDF = nil
		}
		s.Status = domain.SessionDataEntryInProgress
		return s, events, nil
	default:
		return s, nil, invalid(s.Status, "resume")
	}
}

// Finish moves DataEntryInProgress to DataEntryFinished once every
// polling station has a complete, definitive result.
func Finish(s domain.CommitteeSession, p Predicates) (domain.CommitteeSession, error) {
	if s.Status != domain.SessionDataEntryInProgress {
		return s, invalid(s.Status, "finish")
	}
	if !p.HasCompleteResults {
		return s, invalid(s.Status, "finish")
	}
	s.Status = domain.SessionDataEntryFinished
	return s, nil
}

// NewSession creates the next corrigendum session from a finished one:
// the returned session starts in Created with Number+1, no voters count,
// and no file artifacts. It does not mutate s.
func NewSession(s domain.CommitteeSession) (domain.CommitteeSession, error) {
	if s.Status != domain.SessionDataEntryFinished {
		return domain.CommitteeSession{}, invalid(s.Status, "new_session")
	}
	return domain.CommitteeSession{
		ElectionID: s.ElectionID,
		Number:     s.Number + 1,
		Status:     domain.SessionCreated,
		Location:   s.Location,
	}, nil
}
