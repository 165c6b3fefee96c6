package committeesession

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawblock/abacus/internal/apperr"
	"github.com/rawblock/abacus/internal/domain"
)

func TestFullLifecycleFirstSession(t *testing.T) {
	s := domain.CommitteeSession{Number: 1, Status: domain.SessionCreated}

	s, err := OnFirstPollingStationCreated(s)
	require.NoError(t, err)
	require.Equal(t, domain.SessionDataEntryNotStarted, s.Status)

	s, err = Start(s, Predicates{HasPollingStations: true})
	require.NoError(t, err)
	require.Equal(t, domain.SessionDataEntryInProgress, s.Status)

	s, err = Pause(s)
	require.NoError(t, err)
	require.Equal(t, domain.SessionDataEntryPaused, s.Status)

	s, events, err := Resume(s)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, domain.SessionDataEntryInProgress, s.Status)

	s, err = Finish(s, Predicates{HasCompleteResults: true})
	require.NoError(t, err)
	require.Equal(t, domain.SessionDataEntryFinished, s.Status)
}

func TestStartRequiresInvestigationsForLaterSessions(t *testing.T) {
	s := domain.CommitteeSession{Number: 2, Status: domain.SessionDataEntryNotStarted}

	_, err := Start(s, Predicates{HasPollingStations: true, HasInvestigations: false})
	require.Error(t, err)
	var transitionErr *apperr.InvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)

	s2, err := Start(s, Predicates{HasPollingStations: true, HasInvestigations: true})
	require.NoError(t, err)
	require.Equal(t, domain.SessionDataEntryInProgress, s2.Status)
}

func TestFinishRequiresCompleteResults(t *testing.T) {
	s := domain.CommitteeSession{Status: domain.SessionDataEntryInProgress}
	_, err := Finish(s, Predicates{HasCompleteResults: false})
	require.Error(t, err)
}

func TestResumeFromFinishedDeletesArtifacts(t *testing.T) {
	eml := domain.FileID(1)
	pdf := domain.FileID(2)
	overview := domain.FileID(3)
	s := domain.CommitteeSession{
		Status:      domain.SessionDataEntryFinished,
		ResultsEML:  &eml,
		ResultsPDF:  &pdf,
		OverviewPDF: &overview,
	}

	next, events, err := Resume(s)
	require.NoError(t, err)
	require.Equal(t, domain.SessionDataEntryInProgress, next.Status)
	require.Nil(t, next.ResultsEML)
	require.Nil(t, next.ResultsPDF)
	require.Nil(t, next.OverviewPDF)
	require.Len(t, events, 3)
}

func TestNewSessionAdvancesNumber(t *testing.T) {
	s := domain.CommitteeSession{ElectionID: 7, Number: 1, Status: domain.SessionDataEntryFinished}
	next, err := NewSession(s)
	require.NoError(t, err)
	require.Equal(t, domain.ElectionID(7), next.ElectionID)
	require.Equal(t, 2, next.Number)
	require.Equal(t, domain.SessionCreated, next.Status)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	s := domain.CommitteeSession{Status: domain.SessionCreated}
	_, err := Pause(s)
	require.Error(t, err)
	var transitionErr *apperr.InvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)

	_, _, err = Resume(s)
	require.Error(t, err)

	_, err = Finish(s, Predicates{HasCompleteResults: true})
	require.Error(t, err)

	_, err = NewSession(s)
	require.Error(t, err)
}
