package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
)

// Default sweep behavior
const (
	DefaultSweepBatchSize    = 100
	DefaultSweepWorkers      = 5
	DefaultRetryCooldown     = 5 * time.Minute
	DefaultMaxCancelAttempts = 10
)

// RetirementConfig holds tunables for the scheduled retirement sweep.
type RetirementConfig struct {
	// BatchSize caps how many due rows one sweep picks up
	BatchSize int
	// Workers is the number of rows processed concurrently
	Workers int
	// AdapterTimeout bounds each marketplace call
	AdapterTimeout time.Duration
	// RetryCooldown skips rows whose last failure is younger than this,
	// so the sweep does not hot-loop against a failing adapter
	RetryCooldown time.Duration
	// MaxAttempts parks a row as failed once this many retirement attempts
	// have failed; zero means retry forever
	MaxAttempts int
}

// DefaultRetirementConfig returns the default sweep configuration.
func DefaultRetirementConfig() RetirementConfig {
	return RetirementConfig{
		BatchSize:      DefaultSweepBatchSize,
		Workers:        DefaultSweepWorkers,
		AdapterTimeout: DefaultAdapterTimeout,
		RetryCooldown:  DefaultRetryCooldown,
		MaxAttempts:    DefaultMaxCancelAttempts,
	}
}

// RetirementService executes due scheduled cancellations. Rows are processed
// independently: one stuck or failing platform never aborts the sweep for
// the others, and re-running a sweep over already-retired rows is a no-op.
type RetirementService struct {
	platforms marketplace.PlatformListingRepository
	adapters  marketplace.AdapterRegistry
	syncLog   marketplace.SyncLogRepository
	notifier  marketplace.Notifier
	clock     shared.Clock
	logger    *zap.Logger
	config    RetirementConfig
}

// NewRetirementService creates a new RetirementService.
func NewRetirementService(
	platforms marketplace.PlatformListingRepository,
	adapters marketplace.AdapterRegistry,
	syncLog marketplace.SyncLogRepository,
	notifier marketplace.Notifier,
	clock shared.Clock,
	logger *zap.Logger,
	config RetirementConfig,
) *RetirementService {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultSweepBatchSize
	}
	if config.Workers <= 0 {
		config.Workers = DefaultSweepWorkers
	}
	if config.AdapterTimeout <= 0 {
		config.AdapterTimeout = DefaultAdapterTimeout
	}
	return &RetirementService{
		platforms: platforms,
		adapters:  adapters,
		syncLog:   syncLog,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
		config:    config,
	}
}

// ProcessDue retires every platform listing whose scheduled cancellation has
// elapsed. Returns a per-row breakdown; the error covers only the selection
// query, never individual retirements.
func (s *RetirementService) ProcessDue(ctx context.Context) (*SweepResult, error) {
	now := s.clock.Now()

	due, err := s.platforms.FindCancelDue(ctx, now, s.config.RetryCooldown, s.config.BatchSize)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Details: []SweepDetail{}}
	if len(due) == 0 {
		return result, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.config.Workers)
	)

	for i := range due {
		pl := due[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			detail := s.retire(ctx, &pl)

			mu.Lock()
			result.Processed++
			if detail.Success {
				result.Succeeded++
			} else {
				result.Failed++
			}
			result.Details = append(result.Details, detail)
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.logger.Info("Retirement sweep completed",
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// retire executes one retirement attempt for one row.
func (s *RetirementService) retire(ctx context.Context, pl *marketplace.PlatformListing) SweepDetail {
	detail := SweepDetail{
		ListingID:    pl.ListingID,
		PlatformCode: pl.PlatformCode,
	}
	now := s.clock.Now()

	if err := s.delistRemote(ctx, pl); err != nil {
		s.recordFailure(ctx, pl, err, now)
		detail.Error = err.Error()
		return detail
	}

	done, err := s.platforms.CompleteCancel(ctx, pl.ListingID, pl.PlatformCode, marketplace.ListingStatusCanceled, now)
	if err != nil {
		s.recordFailure(ctx, pl, err, now)
		detail.Error = err.Error()
		return detail
	}
	if !done {
		// another worker or a manual action already retired the row; the
		// sweep is idempotent so this counts as success without a new log
		detail.Success = true
		return detail
	}

	s.appendLog(ctx, pl.ListingID, pl.PlatformCode, marketplace.SyncOutcomeSuccess,
		map[string]any{"reason": "sold_on_other_platform", "auto_delisted": true}, now)
	detail.Success = true
	return detail
}

// delistRemote performs the bounded adapter call. Rows that never got a
// remote id (publish was still pending) have nothing to delist remotely.
func (s *RetirementService) delistRemote(ctx context.Context, pl *marketplace.PlatformListing) error {
	if pl.RemoteID == "" {
		return nil
	}
	adapter, err := s.adapters.Get(pl.PlatformCode)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, s.config.AdapterTimeout)
	defer cancel()
	// a timeout is a failure, never a success; the scheduled timestamp
	// stays intact so the next sweep retries
	return adapter.Delist(callCtx, pl.RemoteID)
}

// recordFailure logs a failed attempt and, when attempts are exhausted,
// parks the row as failed so operators can intervene.
func (s *RetirementService) recordFailure(ctx context.Context, pl *marketplace.PlatformListing, cause error, now time.Time) {
	s.appendLog(ctx, pl.ListingID, pl.PlatformCode, marketplace.SyncOutcomeFailure,
		map[string]any{"error": cause.Error(), "attempt": pl.CancelAttempts + 1}, now)

	if err := s.platforms.RecordCancelFailure(ctx, pl.ListingID, pl.PlatformCode, cause.Error(), now); err != nil {
		s.logger.Error("Failed to record retirement failure",
			zap.String("listing_id", pl.ListingID.String()),
			zap.String("platform_code", pl.PlatformCode.String()),
			zap.Error(err),
		)
		return
	}

	attempts := pl.CancelAttempts + 1
	if s.config.MaxAttempts > 0 && attempts >= s.config.MaxAttempts {
		if err := s.platforms.MarkFailed(ctx, pl.ListingID, pl.PlatformCode, cause.Error(), now); err != nil {
			s.logger.Error("Failed to park exhausted platform listing",
				zap.String("listing_id", pl.ListingID.String()),
				zap.String("platform_code", pl.PlatformCode.String()),
				zap.Error(err),
			)
			return
		}
		s.notify(ctx, marketplace.Notification{
			Type:         marketplace.NotificationTypeRetirementExhausted,
			ListingID:    pl.ListingID,
			PlatformCode: pl.PlatformCode,
			Title:        "Delisting needs attention",
			Message:      "Automatic delisting gave up after repeated failures. Remove the listing manually.",
			Payload:      map[string]any{"attempts": attempts, "error": cause.Error()},
			CreatedAt:    now,
		})
		s.logger.Warn("Retirement attempts exhausted",
			zap.String("listing_id", pl.ListingID.String()),
			zap.String("platform_code", pl.PlatformCode.String()),
			zap.Int("attempts", attempts),
		)
		return
	}

	s.notify(ctx, marketplace.Notification{
		Type:         marketplace.NotificationTypeRetirementFailed,
		ListingID:    pl.ListingID,
		PlatformCode: pl.PlatformCode,
		Title:        "Delisting failed",
		Message:      "A delisting attempt failed and will be retried.",
		Payload:      map[string]any{"attempts": attempts, "error": cause.Error()},
		CreatedAt:    now,
	})

	s.logger.Warn("Retirement attempt failed",
		zap.String("listing_id", pl.ListingID.String()),
		zap.String("platform_code", pl.PlatformCode.String()),
		zap.Int("attempt", attempts),
		zap.Error(cause),
	)
}

func (s *RetirementService) notify(ctx context.Context, n marketplace.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("Notification emit failed",
			zap.String("type", string(n.Type)),
			zap.String("listing_id", n.ListingID.String()),
			zap.Error(err),
		)
	}
}

func (s *RetirementService) appendLog(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, outcome marketplace.SyncOutcome, detail map[string]any, now time.Time) {
	entry := marketplace.NewSyncLogEntry(listingID, code, marketplace.SyncActionDelist, outcome, detail, now)
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Warn("Sync log append failed",
			zap.String("listing_id", listingID.String()),
			zap.String("platform_code", code.String()),
			zap.Error(err),
		)
	}
}
