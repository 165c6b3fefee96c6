// Package audit implements a tamper-evident log: every state-changing
// operation appends one entry whose hash commits to its own content and
// to the previous entry's hash, so any after-the-fact edit or deletion
// breaks the chain from that point forward.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rawblock/abacus/internal/domain"
)

// Entry is one immutable record in the chain. Hash is computed over every
// other field plus PrevHash, so verifying one entry only requires the
// entry before it, not the whole chain.
type Entry struct {
	Sequence  int64
	Timestamp time.Time
	Actor     domain.UserID
	Action    string
	Subject   string
	Detail    string
	PrevHash  string
	Hash      string
}

// GenesisHash seeds each subject's chain: the first entry for a subject
// carries it as PrevHash.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000"

// Append builds the next entry in the chain given the previous entry's
// hash, computing and stamping its own Hash. It never mutates past
// entries; callers persist Entry through store.Tx.AppendAuditEntry inside
// the same transaction as the state change it documents.
func Append(sequence int64, actor domain.UserID, action, subject, detail, prevHash string, now time.Time) Entry {
	e := Entry{
		Sequence:  sequence,
		Timestamp: now,
		Actor:     actor,
		Action:    action,
		Subject:   subject,
		Detail:    detail,
		PrevHash:  prevHash,
	}
	e.Hash = computeHash(e)
	return e
}

func computeHash(e Entry) string {
	payload := fmt.Sprintf("%d|%s|%d|%s|%s|%s|%s",
		e.Sequence, e.Timestamp.UTC().Format(time.RFC3339Nano), e.Actor, e.Action, e.Subject, e.Detail, e.PrevHash)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether entry's Hash is consistent with its own fields
// and the hash of the entry immediately before it in the chain.
func Verify(entry, previous Entry) bool {
	if entry.PrevHash != previous.Hash {
		return false
	}
	return entry.Hash == computeHash(Entry{
		Sequence:  entry.Sequence,
		Timestamp: entry.Timestamp,
		Actor:     entry.Actor,
		Action:    entry.Action,
		Subject:   entry.Subject,
		Detail:    entry.Detail,
		PrevHash:  entry.PrevHash,
	})
}

// VerifyChain walks an ordered slice of entries and reports the index of
// the first entry whose hash breaks the chain, or -1 if the whole chain
// verifies. entries[0].PrevHash must equal GenesisHash.
func VerifyChain(entries []Entry) int {
	if len(entries) == 0 {
		return -1
	}
	if entries[0].PrevHash != GenesisHash {
		return 0
	}
	if entries[0].Hash != computeHash(entries[0]) {
		return 0
	}
	for i := 1; i < len(entries); i++ {
		if !Verify(entries[i], entries[i-1]) {
			return i
		}
	}
	return -1
}
