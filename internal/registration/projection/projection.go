// Package projection holds the UI-facing shadow of registration records.
// Entries are updated on user intent before the backend write completes; the
// sync state makes "is this value backend-confirmed" an explicit, testable
// property instead of an implicit assumption.
//
// A store instance is owned by a single UI session: created when the session
// starts, discarded on logout or navigation. The orchestrator writes to it
// but never reads it to make decisions with external side effects.
package projection

import (
	"context"
	"time"

	"clubreg/internal/registration/models"
	id "clubreg/pkg/domain"
)

// SyncState tags whether the user-visible value matches the last known
// persisted value.
type SyncState string

const (
	// SyncConfirmed means the entry mirrors a successfully persisted record.
	SyncConfirmed SyncState = "confirmed"
	// SyncLocallyAhead means the user-visible value advanced past the store
	// because persistence failed or has not completed yet.
	SyncLocallyAhead SyncState = "locally-ahead"
)

// Entry is one registration's shadow plus its sync state.
type Entry struct {
	Registration *models.Registration `json:"registration"`
	SyncState    SyncState            `json:"sync_state"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// Store is the session-scoped projection store.
type Store interface {
	Get(ctx context.Context, regID id.RegistrationID) (Entry, bool, error)
	MarkLocallyAhead(ctx context.Context, reg *models.Registration) error
	MarkConfirmed(ctx context.Context, reg *models.Registration) error
	// LocallyAhead lists entries awaiting background reconciliation.
	LocallyAhead(ctx context.Context) ([]Entry, error)
	Discard(ctx context.Context, regID id.RegistrationID) error
	Clear(ctx context.Context) error
}
