package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChainVerifiesWhenUntampered(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e0 := Append(1, 7, "finalise_first_entry", "polling_station:12", "", GenesisHash, now)
	e1 := Append(2, 7, "finalise_second_entry", "polling_station:12", "", e0.Hash, now.Add(time.Minute))
	e2 := Append(3, 9, "start_session", "committee_session:1", "", e1.Hash, now.Add(2*time.Minute))

	require.Equal(t, -1, VerifyChain([]Entry{e0, e1, e2}))
}

func TestChainDetectsTamperedEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e0 := Append(1, 7, "finalise_first_entry", "polling_station:12", "", GenesisHash, now)
	e1 := Append(2, 7, "finalise_second_entry", "polling_station:12", "", e0.Hash, now.Add(time.Minute))

	e1.Detail = "tampered"
	require.Equal(t, 1, VerifyChain([]Entry{e0, e1}))
}

func TestChainDetectsBrokenLink(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e0 := Append(1, 7, "finalise_first_entry", "polling_station:12", "", GenesisHash, now)
	e1 := Append(2, 7, "finalise_second_entry", "polling_station:12", "", "wrong-prev-hash", now.Add(time.Minute))

	require.Equal(t, 1, VerifyChain([]Entry{e0, e1}))
}

func TestGenesisEntryMustChainFromGenesisHash(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e0 := Append(1, 7, "finalise_first_entry", "polling_station:12", "", "not-genesis", now)
	require.Equal(t, 0, VerifyChain([]Entry{e0}))
}
