// Package store defines the persistence boundary the core domain
// packages depend on without committing to a storage engine. Every
// mutation the core packages perform goes through one Tx, so a
// per-station logical lock and the audit write for the same transition
// always commit or roll back together.
package store

import (
	"context"

	"github.com/rawblock/abacus/internal/aggregation"
	"github.com/rawblock/abacus/internal/committeesession"
	"github.com/rawblock/abacus/internal/dataentry"
	"github.com/rawblock/abacus/internal/domain"
)

// Store opens transactions. One Tx serialises all reads and writes for
// the station or session it touches for its lifetime.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Close()
}

// Tx is the unit-of-work the core transacts through. LockPollingStation
// must take a row-level lock that blocks a concurrent Tx from observing
// or mutating the same station's entry state until this Tx ends, so two
// concurrent finalise attempts produce one success and one
// InvalidStateTransition deterministically.
type Tx interface {
	aggregation.Lookup

	Election(ctx context.Context, id domain.ElectionID) (domain.Election, error)

	LockPollingStation(ctx context.Context, id domain.PollingStationID) (domain.PollingStation, error)
	LockCommitteeSession(ctx context.Context, id domain.CommitteeSessionID) (domain.CommitteeSession, error)

	EntryStatus(ctx context.Context, station domain.PollingStationID) (dataentry.DataEntryStatus, error)
	SaveEntryStatus(ctx context.Context, station domain.PollingStationID, status dataentry.DataEntryStatus) error

	// PersistDefinitiveResult materialises the result a polling station's
	// DataEntryStatus carried into Definitive, so aggregation.Lookup.Result
	// can find it once the sum type itself has dropped the entry data.
	PersistDefinitiveResult(ctx context.Context, station domain.PollingStationID, results domain.PollingStationResults) error

	// DeleteDefinitiveResult removes a station's materialised result, for
	// the accept_data_entry_deletion recovery flow that lets a new
	// investigation override a session's existing definitive entry.
	DeleteDefinitiveResult(ctx context.Context, station domain.PollingStationID) error

	SaveCommitteeSession(ctx context.Context, session domain.CommitteeSession) error
	PollingStationsOf(ctx context.Context, session domain.CommitteeSessionID) ([]domain.PollingStation, error)

	SaveInvestigation(ctx context.Context, inv domain.Investigation) error

	RecordFileDeleted(ctx context.Context, event committeesession.FileDeletedEvent) error

	// LastAuditEntry returns the most recently appended entry for subject,
	// so a caller can chain the next one's PrevHash/Sequence onto it. found
	// is false for a subject's first entry, in which case the caller must
	// use audit.GenesisHash and sequence 1.
	LastAuditEntry(ctx context.Context, subject string) (sequence int64, hash string, found bool, err error)
	AppendAuditEntry(ctx context.Context, entry AuditEntry) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// AuditEntry is the persistence-facing shape of one audit.Entry; store
// implementations append it inside the same Tx as the state change it
// describes.
type AuditEntry struct {
	Sequence int64
	Actor    domain.UserID
	Action   string
	Subject  string
	Detail   string
	Hash     string
	PrevHash string
}
