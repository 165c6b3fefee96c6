package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validElection() Election {
	return Election{
		ID:             1,
		Name:           "Gemeenteraad Voorbeeld",
		Category:       CategoryMunicipal,
		NumberOfSeats:  15,
		CountingMethod: CountingCSO,
		PoliticalGroups: []PoliticalGroup{
			{Number: 1, Name: "Lijst A", Candidates: []Candidate{{Number: 1, LastName: "Jansen"}}},
			{Number: 2, Name: "Lijst B", Candidates: []Candidate{{Number: 1, LastName: "De Vries"}}},
		},
	}
}

func TestElectionValidateOK(t *testing.T) {
	require.NoError(t, validElection().Validate())
}

func TestElectionValidateRejectsZeroSeats(t *testing.T) {
	e := validElection()
	e.NumberOfSeats = 0
	require.Error(t, e.Validate())
}

func TestElectionValidateRejectsNonContiguousGroups(t *testing.T) {
	e := validElection()
	e.PoliticalGroups[1].Number = 3
	require.Error(t, e.Validate())
}

func TestElectionValidateRejectsNonContiguousCandidates(t *testing.T) {
	e := validElection()
	e.PoliticalGroups[0].Candidates = append(e.PoliticalGroups[0].Candidates, Candidate{Number: 3, LastName: "Bakker"})
	require.Error(t, e.Validate())
}

func TestGroupLookup(t *testing.T) {
	e := validElection()
	g, ok := e.Group(2)
	require.True(t, ok)
	require.Equal(t, "Lijst B", g.Name)

	_, ok = e.Group(99)
	require.False(t, ok)
}
