// Package storage defines the narrow collaborator contract the core
// (parser, event processor, commit coordinator, rating engine) requires
// from whatever persistence technology backs it, per spec §6. The core
// never imports a concrete storage technology directly; it depends only on
// Driver and Tx.
package storage

import (
	"time"

	"rankforge/internal/models"
)

// Driver is the storage collaborator the parser's admission filter and the
// commit coordinator both use. Exactly one concrete implementation ships
// with this repository (PocketBase, see pocketbase.go), but the core is
// written against this interface alone.
type Driver interface {
	// FindGameEvent reports whether a GameOver (or any other) event with
	// this exact timestamp has already been committed. It backs the
	// admission filter's duplicate-ingest guard and is safe to call
	// outside of any transaction.
	FindGameEvent(eventType models.EventType, ts time.Time) (bool, error)

	// RunInTransaction runs fn inside a single storage transaction. A
	// non-nil return rolls the transaction back; nil commits it. The core
	// never holds a transaction open across a suspension point other than
	// the transaction call itself (§5).
	RunInTransaction(fn func(tx Tx) error) error
}

// Tx is the transactional half of the contract: insert and upsert
// operations available once a commit is underway. IDs are assigned by the
// implementation at insert time, never before.
type Tx interface {
	// InsertGame assigns and returns the new Game's id.
	InsertGame(g *models.Game) (id string, err error)

	// InsertRoundStart assigns and returns the new RoundStart's id. Callers
	// insert RoundStarts in round order, matching the mandatory flush
	// order in §4.4.
	InsertRoundStart(rs *models.RoundStart) (id string, err error)

	// InsertEvent persists one kill/assist/attack/bomb/round-end/game-over/
	// game-processed row. The events table is a single collection
	// discriminated by eventType, per the tagged-union design in spec §9;
	// data carries the variant's own fields as a JSON-compatible map.
	InsertEvent(gameID, roundStartID string, eventType models.EventType, ts time.Time, data map[string]any) (id string, err error)

	// InsertAccolade assigns and returns the new Accolade's id.
	InsertAccolade(a *models.Accolade) (id string, err error)

	// UpsertPlayerStats performs a read-modify-write of one player's
	// aggregate row under per-key serialization, so two concurrently
	// committing matches that share a player still serialize their rank
	// updates (§5). mutate receives the current (or zero-value, newly
	// initialized) stats and should update it in place.
	UpsertPlayerStats(steamID string, mutate func(*models.PlayerStats)) error
}
