package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncAction identifies what kind of state transition was attempted.
type SyncAction string

const (
	SyncActionSale       SyncAction = "sale"
	SyncActionDelist     SyncAction = "delist"
	SyncActionStatusSync SyncAction = "status_sync"
	SyncActionArchive    SyncAction = "archive"
)

// SyncOutcome is the result of an attempted transition.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeFailure SyncOutcome = "failure"
)

// SyncLogEntry records one attempted state transition. Entries are
// append-only: they serve audit and retry diagnostics, never control flow.
type SyncLogEntry struct {
	ID           uuid.UUID
	ListingID    uuid.UUID
	PlatformCode PlatformCode
	Action       SyncAction
	Outcome      SyncOutcome
	// Detail is a free-form JSON payload (reason, error text, prices)
	Detail    map[string]any
	CreatedAt time.Time
}

// NewSyncLogEntry creates an entry for one attempt.
func NewSyncLogEntry(listingID uuid.UUID, code PlatformCode, action SyncAction, outcome SyncOutcome, detail map[string]any, now time.Time) *SyncLogEntry {
	return &SyncLogEntry{
		ID:           uuid.New(),
		ListingID:    listingID,
		PlatformCode: code,
		Action:       action,
		Outcome:      outcome,
		Detail:       detail,
		CreatedAt:    now,
	}
}

// SyncLogRepository is the append-only persistence port for sync log entries.
type SyncLogRepository interface {
	// Append inserts the entry; entries are never mutated afterwards
	Append(ctx context.Context, entry *SyncLogEntry) error

	// FindByListing returns entries for a listing, newest first, up to limit
	FindByListing(ctx context.Context, listingID uuid.UUID, limit int) ([]SyncLogEntry, error)
}
