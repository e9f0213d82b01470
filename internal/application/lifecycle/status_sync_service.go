package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
)

// StatusSyncService fans a status change out across a listing's platform
// rows. The local row is the source of truth and is always updated; the
// remote push is best-effort and reported per platform, so one marketplace
// outage never blocks the rest.
type StatusSyncService struct {
	platforms      marketplace.PlatformListingRepository
	adapters       marketplace.AdapterRegistry
	syncLog        marketplace.SyncLogRepository
	clock          shared.Clock
	logger         *zap.Logger
	adapterTimeout time.Duration
}

// NewStatusSyncService creates a new StatusSyncService.
func NewStatusSyncService(
	platforms marketplace.PlatformListingRepository,
	adapters marketplace.AdapterRegistry,
	syncLog marketplace.SyncLogRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *StatusSyncService {
	return &StatusSyncService{
		platforms:      platforms,
		adapters:       adapters,
		syncLog:        syncLog,
		clock:          clock,
		logger:         logger,
		adapterTimeout: DefaultAdapterTimeout,
	}
}

// SyncStatus applies newStatus to every platform row of the listing except
// the excluded platforms, in stable platform order. Partial failure is not
// an error: the caller inspects the per-platform outcomes and retries just
// the failed subset.
func (s *StatusSyncService) SyncStatus(ctx context.Context, listingID uuid.UUID, newStatus marketplace.ListingStatus, exclude []marketplace.PlatformCode) (*SyncStatusResult, error) {
	if !newStatus.IsValid() {
		return nil, marketplace.ErrInvalidPlatformStatus
	}

	rows, err := s.platforms.FindByListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, marketplace.ErrPlatformListingNotFound
	}

	excluded := make(map[marketplace.PlatformCode]bool, len(exclude))
	for _, code := range exclude {
		excluded[code] = true
	}

	result := &SyncStatusResult{
		ListingID: listingID,
		Status:    newStatus,
		Outcomes:  []PlatformOutcome{},
		Skipped:   []marketplace.PlatformCode{},
	}

	now := s.clock.Now()

	for i := range rows {
		pl := &rows[i]
		if excluded[pl.PlatformCode] {
			result.Skipped = append(result.Skipped, pl.PlatformCode)
			continue
		}

		outcome := PlatformOutcome{PlatformCode: pl.PlatformCode, Success: true}
		if err := s.syncOne(ctx, pl, newStatus, now); err != nil {
			outcome.Success = false
			outcome.Error = err.Error()
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.logger.Info("Status fan-out completed",
		zap.String("listing_id", listingID.String()),
		zap.String("status", newStatus.String()),
		zap.Int("platforms", len(result.Outcomes)),
		zap.Bool("all_succeeded", result.Succeeded()),
	)

	return result, nil
}

// syncOne updates one platform row locally and pushes the status remotely
// when the row has a remote id. The local write happens first: if the remote
// push then fails the row stays consistent with the operator's intent and
// only the marketplace lags.
func (s *StatusSyncService) syncOne(ctx context.Context, pl *marketplace.PlatformListing, newStatus marketplace.ListingStatus, now time.Time) error {
	if err := s.platforms.UpdateStatus(ctx, pl.ListingID, pl.PlatformCode, newStatus, now); err != nil {
		s.appendLog(ctx, pl.ListingID, pl.PlatformCode, marketplace.SyncOutcomeFailure,
			map[string]any{"status": newStatus.String(), "error": err.Error()}, now)
		return err
	}

	if pl.RemoteID != "" {
		adapter, err := s.adapters.Get(pl.PlatformCode)
		if err == nil {
			callCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
			err = adapter.UpdateStatus(callCtx, pl.RemoteID, newStatus)
			cancel()
		}
		if err != nil {
			s.appendLog(ctx, pl.ListingID, pl.PlatformCode, marketplace.SyncOutcomeFailure,
				map[string]any{"status": newStatus.String(), "error": err.Error(), "remote": true}, now)
			return err
		}
	}

	s.appendLog(ctx, pl.ListingID, pl.PlatformCode, marketplace.SyncOutcomeSuccess,
		map[string]any{"status": newStatus.String()}, now)
	return nil
}

func (s *StatusSyncService) appendLog(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, outcome marketplace.SyncOutcome, detail map[string]any, now time.Time) {
	entry := marketplace.NewSyncLogEntry(listingID, code, marketplace.SyncActionStatusSync, outcome, detail, now)
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Warn("Sync log append failed",
			zap.String("listing_id", listingID.String()),
			zap.String("platform_code", code.String()),
			zap.Error(err),
		)
	}
}
