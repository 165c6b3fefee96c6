package domain

import "time"

// CommitteeSessionStatus is the lifecycle tag driven by the
// committeesession package's finite-state machine.
type CommitteeSessionStatus string

const (
	SessionCreated             CommitteeSessionStatus = "created"
	SessionDataEntryNotStarted CommitteeSessionStatus = "data_entry_not_started"
	SessionDataEntryInProgress CommitteeSessionStatus = "data_entry_in_progress"
	SessionDataEntryPaused     CommitteeSessionStatus = "data_entry_paused"
	SessionDataEntryFinished   CommitteeSessionStatus = "data_entry_finished"
)

// CommitteeSession is one sitting of the central polling office: the
// initial count (number 1) or a corrigendum (number > 1). Exactly one
// session per election is "current" — the highest-numbered one; earlier
// sessions are frozen.
type CommitteeSession struct {
	ID             CommitteeSessionID
	ElectionID     ElectionID
	Number         int
	Status         CommitteeSessionStatus
	Location       string
	StartDateTime  time.Time
	NumberOfVoters int
	ResultsEML     *FileID
	ResultsPDF     *FileID
	OverviewPDF    *FileID
}

// IsCurrent reports whether this is the highest-numbered session for its
// election, given the full set of that election's session numbers.
func (s CommitteeSession) IsCurrent(allSessionNumbers []int) bool {
	for _, n := range allSessionNumbers {
		if n > s.Number {
			return false
		}
	}
	return true
}

// HasFileArtifacts reports whether any of the three produced files are
// still attached, i.e. whether a resume would detach any files.
func (s CommitteeSession) HasFileArtifacts() bool {
	return s.ResultsEML != nil || s.ResultsPDF != nil || s.OverviewPDF != nil
}

// PollingStation belongs to exactly one committee session of one
// election. IDPrevSession, when set, links to this station's instance in
// the previous session for corrigendum aggregation.
type PollingStation struct {
	ID               PollingStationID
	CommitteeSession CommitteeSessionID
	Number           int
	Name             string
	Address          string
	NumberOfVoters   *int
	Type             *string
	IDPrevSession    *PollingStationID
}
