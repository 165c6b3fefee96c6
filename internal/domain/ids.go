// Package domain holds the immutable election data model: elections,
// political groups, candidates, polling stations, committee sessions,
// counted results, and investigations. Types here carry no behaviour
// beyond shape invariants — the state machines and algorithms that act on
// them live in sibling packages (dataentry, validation, apportionment,
// nomination, committeesession, aggregation).
package domain

// Opaque nominal ID types. Distinct ID kinds are never interchangeable —
// the compiler rejects passing a UserID where a PollingStationID is
// expected.
type (
	ElectionID         int64
	CommitteeSessionID int64
	PollingStationID   int64
	UserID             int64
	FileID             int64
)
