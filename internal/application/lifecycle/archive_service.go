package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
)

// Default archival behavior
const (
	DefaultArchiveRetention = 30 * 24 * time.Hour
	DefaultArchiveBatchSize = 200
)

// ArchiveService moves long-sold listings into the archived state so the
// active working set stays small. Archival is presentation-only: it never
// touches platform rows or marketplaces.
type ArchiveService struct {
	listings  listing.ListingRepository
	syncLog   marketplace.SyncLogRepository
	clock     shared.Clock
	logger    *zap.Logger
	retention time.Duration
	batchSize int
}

// NewArchiveService creates a new ArchiveService. A non-positive retention
// or batch size falls back to the default.
func NewArchiveService(
	listings listing.ListingRepository,
	syncLog marketplace.SyncLogRepository,
	clock shared.Clock,
	logger *zap.Logger,
	retention time.Duration,
	batchSize int,
) *ArchiveService {
	if retention <= 0 {
		retention = DefaultArchiveRetention
	}
	if batchSize <= 0 {
		batchSize = DefaultArchiveBatchSize
	}
	return &ArchiveService{
		listings:  listings,
		syncLog:   syncLog,
		clock:     clock,
		logger:    logger,
		retention: retention,
		batchSize: batchSize,
	}
}

// ArchiveSoldListings archives every sold listing whose sold date is past
// the retention window. Safe to re-run: the guarded transition skips rows
// another sweep already archived.
func (s *ArchiveService) ArchiveSoldListings(ctx context.Context) (*ArchiveResult, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.retention)

	candidates, err := s.listings.FindArchivable(ctx, cutoff, s.batchSize)
	if err != nil {
		return nil, err
	}

	result := &ArchiveResult{ListingIDs: nil}
	for i := range candidates {
		l := &candidates[i]

		archived, err := s.listings.MarkArchived(ctx, l.ID, now)
		if err != nil {
			s.logger.Error("Failed to archive listing",
				zap.String("listing_id", l.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !archived {
			continue
		}

		result.Archived++
		result.ListingIDs = append(result.ListingIDs, l.ID)

		entry := marketplace.NewSyncLogEntry(l.ID, "", marketplace.SyncActionArchive, marketplace.SyncOutcomeSuccess,
			map[string]any{"sold_at": l.SoldAt, "retention_days": int(s.retention.Hours() / 24)}, now)
		if err := s.syncLog.Append(ctx, entry); err != nil {
			s.logger.Warn("Sync log append failed",
				zap.String("listing_id", l.ID.String()),
				zap.Error(err),
			)
		}
	}

	if result.Archived > 0 {
		s.logger.Info("Archival sweep completed",
			zap.Int("archived", result.Archived),
			zap.Time("cutoff", cutoff),
		)
	}

	return result, nil
}
