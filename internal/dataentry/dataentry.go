// Package dataentry implements the dual-entry state machine: a tagged
// union over every phase a polling station's result can be in, with one
// method per allowed transition. Each method takes the current
// DataEntryStatus by value and returns the next value — there is no
// implicit default interpretation of fields that don't apply to the
// current tag; only the fields relevant to the variant that produced it
// are populated.
package dataentry

import (
	"reflect"
	"time"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
	"github.com/rawblock/abacus/internal/validation"
)

// Status tags which variant of DataEntryStatus is populated.
type Status int

const (
	FirstEntryNotStarted Status = iota
	FirstEntryInProgress
	SecondEntryNotStarted
	SecondEntryInProgress
	EntriesDifferent
	FirstEntryHasErrors
	Definitive
)

// DataEntryStatus is the sum type over all dual-entry phases. Only the
// fields relevant to Status are meaningful; callers must switch on Status
// before reading anything else.
type DataEntryStatus struct {
	Status Status

	FirstEntryUserID      *domain.UserID
	FirstEntry            domain.PollingStationResults
	FirstEntryProgress    int
	FirstEntryClientState string
	FirstEntryFinishedAt  *time.Time

	SecondEntryUserID      *domain.UserID
	SecondEntry            domain.PollingStationResults
	SecondEntryProgress    int
	SecondEntryClientState string

	FinishedAt *time.Time
}

// New returns the starting state for a polling station that has never
// been claimed.
func New() DataEntryStatus {
	return DataEntryStatus{Status: FirstEntryNotStarted}
}

// BlankResults builds the zero-valued PollingStationResults variant a
// claim should scaffold a typist's entry with, chosen by the election's
// counting method and whether this is the first committee session or a
// corrigendum. Each political group's CandidateVotes slice is
// pre-sized to that group's candidate count so a client never has to
// guess the shape it is filling in.
func BlankResults(election domain.Election, sessionNumber int) domain.PollingStationResults {
	groups := make([]domain.PoliticalGroupCandidateVotes, len(election.PoliticalGroups))
	for i, pg := range election.PoliticalGroups {
		groups[i] = domain.PoliticalGroupCandidateVotes{
			Number:         pg.Number,
			CandidateVotes: make([]int32, len(pg.Candidates)),
		}
	}

	switch {
	case election.CountingMethod == domain.CountingDSO && sessionNumber == 1:
		return domain.DSOFirstSession{PoliticalGroupVotes: groups}
	case election.CountingMethod == domain.CountingDSO:
		return domain.DSONextSession{PoliticalGroupVotes: groups}
	case sessionNumber == 1:
		return domain.CSOFirstSession{PoliticalGroupVotes: groups}
	default:
		return domain.CSONextSession{PoliticalGroupVotes: groups}
	}
}

func invalid(d DataEntryStatus, attempted string) error {
	return &apperr.InvalidStateTransition{CurrentState: stateName(d.Status), Attempted: attempted}
}

// StatusName returns the stable, machine-readable name for a Status, used
// as the metrics label and in audit details.
func StatusName(s Status) string { return stateName(s) }

func stateName(s Status) string {
	switch s {
	case FirstEntryNotStarted:
		return "first_entry_not_started"
	case FirstEntryInProgress:
		return "first_entry_in_progress"
	case SecondEntryNotStarted:
		return "second_entry_not_started"
	case SecondEntryInProgress:
		return "second_entry_in_progress"
	case EntriesDifferent:
		return "entries_different"
	case FirstEntryHasErrors:
		return "first_entry_has_errors"
	case Definitive:
		return "definitive"
	default:
		return "unknown"
	}
}

// ClaimFirstEntry initialises the first entry, scaffolded from blank, the
// zero-valued PollingStationResults variant appropriate for this station
// (chosen by the caller based on election counting method and session
// number).
func (d DataEntryStatus) ClaimFirstEntry(user domain.UserID, blank domain.PollingStationResults) (DataEntryStatus, error) {
	if d.Status != FirstEntryNotStarted {
		return d, invalid(d, "claim_first_entry")
	}
	return DataEntryStatus{
		Status:           FirstEntryInProgress,
		FirstEntryUserID: &user,
		FirstEntry:       blank,
	}, nil
}

// UpdateFirstEntry saves in-progress keystrokes. Only the claiming user
// may call it.
func (d DataEntryStatus) UpdateFirstEntry(user domain.UserID, entry domain.PollingStationResults, progress int, clientState string) (DataEntryStatus, error) {
	if d.Status != FirstEntryInProgress {
		return d, invalid(d, "update_first_entry")
	}
	if d.FirstEntryUserID == nil || *d.FirstEntryUserID != user {
		return d, &apperr.Conflict{Message: "first entry can only be updated by the user who claimed it"}
	}
	d.FirstEntry = entry
	d.FirstEntryProgress = progress
	d.FirstEntryClientState = clientState
	return d, nil
}

// DeleteFirstEntry discards the in-progress first entry.
func (d DataEntryStatus) DeleteFirstEntry(user domain.UserID) (DataEntryStatus, error) {
	if d.Status != FirstEntryInProgress {
		return d, invalid(d, "delete_first_entry")
	}
	if d.FirstEntryUserID == nil || *d.FirstEntryUserID != user {
		return d, &apperr.Conflict{Message: "first entry can only be deleted by the user who claimed it"}
	}
	return DataEntryStatus{Status: FirstEntryNotStarted}, nil
}

// FinaliseFirstEntry runs validation against the first entry. Validation
// errors move the entry to FirstEntryHasErrors for coordinator review; a
// clean entry opens the second-entry phase.
func (d DataEntryStatus) FinaliseFirstEntry(election domain.Election, station domain.PollingStation) (DataEntryStatus, []validation.Diagnostic, error) {
	if d.Status != FirstEntryInProgress {
		return d, nil, invalid(d, "finalise_first_entry")
	}
	errs, _ := validation.Validate(d.FirstEntry, election, station)
	now := stamp()
	if len(errs) > 0 {
		return DataEntryStatus{
			Status:               FirstEntryHasErrors,
			FirstEntryUserID:     d.FirstEntryUserID,
			FirstEntry:           d.FirstEntry,
			FirstEntryFinishedAt: &now,
		}, errs, nil
	}
	return DataEntryStatus{
		Status:               SecondEntryNotStarted,
		FirstEntryUserID:     d.FirstEntryUserID,
		FirstEntry:           d.FirstEntry,
		FirstEntryFinishedAt: &now,
	}, nil, nil
}

// ResumeEdit returns a FirstEntryHasErrors entry to editing, after a
// coordinator has reviewed it.
func (d DataEntryStatus) ResumeEdit() (DataEntryStatus, error) {
	if d.Status != FirstEntryHasErrors {
		return d, invalid(d, "resume_edit")
	}
	return DataEntryStatus{
		Status:           FirstEntryInProgress,
		FirstEntryUserID: d.FirstEntryUserID,
		FirstEntry:       d.FirstEntry,
	}, nil
}

// ClaimSecondEntry opens the second-entry phase. The second typist must
// differ from the first.
func (d DataEntryStatus) ClaimSecondEntry(user domain.UserID, blank domain.PollingStationResults) (DataEntryStatus, error) {
	if d.Status != SecondEntryNotStarted {
		return d, invalid(d, "claim_second_entry")
	}
	if d.FirstEntryUserID != nil && *d.FirstEntryUserID == user {
		return d, &apperr.Conflict{Message: "second entry must be made by a different user than the first"}
	}
	d.Status = SecondEntryInProgress
	d.SecondEntryUserID = &user
	d.SecondEntry = blank
	return d, nil
}

// UpdateSecondEntry saves in-progress keystrokes for the second entry.
func (d DataEntryStatus) UpdateSecondEntry(user domain.UserID, entry domain.PollingStationResults, progress int, clientState string) (DataEntryStatus, error) {
	if d.Status != SecondEntryInProgress {
		return d, invalid(d, "update_second_entry")
	}
	if d.SecondEntryUserID == nil || *d.SecondEntryUserID != user {
		return d, &apperr.Conflict{Message: "second entry can only be updated by the user who claimed it"}
	}
	d.SecondEntry = entry
	d.SecondEntryProgress = progress
	d.SecondEntryClientState = clientState
	return d, nil
}

// DeleteSecondEntry discards the in-progress second entry, returning to
// SecondEntryNotStarted.
func (d DataEntryStatus) DeleteSecondEntry(user domain.UserID) (DataEntryStatus, error) {
	if d.Status != SecondEntryInProgress {
		return d, invalid(d, "delete_second_entry")
	}
	if d.SecondEntryUserID == nil || *d.SecondEntryUserID != user {
		return d, &apperr.Conflict{Message: "second entry can only be deleted by the user who claimed it"}
	}
	return DataEntryStatus{
		Status:               SecondEntryNotStarted,
		FirstEntryUserID:     d.FirstEntryUserID,
		FirstEntry:           d.FirstEntry,
		FirstEntryFinishedAt: d.FirstEntryFinishedAt,
	}, nil
}

// FinaliseSecondEntry compares the two entries. Byte-identical entries
// become Definitive immediately; any difference moves to EntriesDifferent
// for coordinator resolution.
func (d DataEntryStatus) FinaliseSecondEntry() (DataEntryStatus, error) {
	if d.Status != SecondEntryInProgress {
		return d, invalid(d, "finalise_second_entry")
	}
	now := stamp()
	if EntriesEqual(d.FirstEntry, d.SecondEntry) {
		return DataEntryStatus{
			Status:            Definitive,
			FirstEntryUserID:  d.FirstEntryUserID,
			SecondEntryUserID: d.SecondEntryUserID,
			FinishedAt:        &now,
		}, nil
	}
	return DataEntryStatus{
		Status:            EntriesDifferent,
		FirstEntryUserID:  d.FirstEntryUserID,
		FirstEntry:        d.FirstEntry,
		SecondEntryUserID: d.SecondEntryUserID,
		SecondEntry:       d.SecondEntry,
	}, nil
}

// KeepFirstEntry resolves a difference in favour of the first entry.
func (d DataEntryStatus) KeepFirstEntry() (DataEntryStatus, error) {
	if d.Status != EntriesDifferent {
		return d, invalid(d, "keep_first_entry")
	}
	now := stamp()
	return DataEntryStatus{
		Status:            Definitive,
		FirstEntryUserID:  d.FirstEntryUserID,
		SecondEntryUserID: d.SecondEntryUserID,
		FinishedAt:        &now,
	}, nil
}

// KeepSecondEntry resolves a difference in favour of the second entry.
func (d DataEntryStatus) KeepSecondEntry() (DataEntryStatus, error) {
	if d.Status != EntriesDifferent {
		return d, invalid(d, "keep_second_entry")
	}
	now := stamp()
	return DataEntryStatus{
		Status:            Definitive,
		FirstEntryUserID:  d.FirstEntryUserID,
		SecondEntryUserID: d.SecondEntryUserID,
		FinishedAt:        &now,
	}, nil
}

// DeleteEntries discards both entries and restarts dual entry from
// scratch, for when neither entry can be trusted.
func (d DataEntryStatus) DeleteEntries() (DataEntryStatus, error) {
	if d.Status != EntriesDifferent {
		return d, invalid(d, "delete_entries")
	}
	return DataEntryStatus{Status: FirstEntryNotStarted}, nil
}

// EntriesEqual reports whether two PollingStationResults are semantically
// equal: every field compares equal, regardless of concrete variant.
func EntriesEqual(a, b domain.PollingStationResults) bool {
	return reflect.DeepEqual(a, b)
}

// DiffFields reports the list of field names that differ between two
// results of the same concrete variant, driving the reconciliation
// screen's diff view. A type mismatch reports a single sentinel entry.
func DiffFields(a, b domain.PollingStationResults) []string {
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return []string{"__type_mismatch__"}
	}
	var out []string
	for i := 0; i < va.NumField(); i++ {
		fv, sv := va.Field(i), vb.Field(i)
		if !reflect.DeepEqual(fv.Interface(), sv.Interface()) {
			out = append(out, va.Type().Field(i).Name)
		}
	}
	return out
}

// stamp is overridable in tests; production code always uses time.Now.
var stamp = time.Now
