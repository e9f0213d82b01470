package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/listing"
	"github.com/crosslist/backend/internal/domain/marketplace"
	"github.com/crosslist/backend/internal/domain/shared"
)

// Default sale handling behavior
const (
	// DefaultDelistDelay is the grace period before sibling retirement, so
	// a just-placed duplicate order elsewhere can still be honored
	DefaultDelistDelay = 15 * time.Minute
	// DefaultAdapterTimeout bounds every marketplace call made on the sale path
	DefaultAdapterTimeout = 10 * time.Second
)

// SaleService reacts to confirmed sales: it applies the authoritative local
// sale, wins or loses the cross-platform conflict, and retires sibling
// platform listings immediately or on a schedule.
type SaleService struct {
	listings  listing.ListingRepository
	platforms marketplace.PlatformListingRepository
	adapters  marketplace.AdapterRegistry
	syncLog   marketplace.SyncLogRepository
	notifier  marketplace.Notifier
	clock     shared.Clock
	logger    *zap.Logger

	delistDelay    time.Duration
	adapterTimeout time.Duration
}

// SaleServiceOption configures a SaleService.
type SaleServiceOption func(*SaleService)

// WithDelistDelay overrides the default sibling retirement grace period.
func WithDelistDelay(d time.Duration) SaleServiceOption {
	return func(s *SaleService) {
		if d >= 0 {
			s.delistDelay = d
		}
	}
}

// WithAdapterTimeout overrides the per-call marketplace timeout.
func WithAdapterTimeout(d time.Duration) SaleServiceOption {
	return func(s *SaleService) {
		if d > 0 {
			s.adapterTimeout = d
		}
	}
}

// NewSaleService creates a new SaleService.
func NewSaleService(
	listings listing.ListingRepository,
	platforms marketplace.PlatformListingRepository,
	adapters marketplace.AdapterRegistry,
	syncLog marketplace.SyncLogRepository,
	notifier marketplace.Notifier,
	clock shared.Clock,
	logger *zap.Logger,
	opts ...SaleServiceOption,
) *SaleService {
	s := &SaleService{
		listings:       listings,
		platforms:      platforms,
		adapters:       adapters,
		syncLog:        syncLog,
		notifier:       notifier,
		clock:          clock,
		logger:         logger,
		delistDelay:    DefaultDelistDelay,
		adapterTimeout: DefaultAdapterTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleSale processes one confirmed sale. The local sale projection is
// authoritative the instant it is recorded; sibling delisting is best-effort
// and retried by the sweep, so adapter failures never roll the sale back.
func (s *SaleService) HandleSale(ctx context.Context, in HandleSaleInput) (*SaleResult, error) {
	if !in.PlatformCode.IsValid() {
		return nil, marketplace.ErrInvalidPlatformCode
	}
	if in.Units <= 0 {
		in.Units = 1
	}

	now := s.clock.Now()

	// The selling platform's row must exist before the sale projection is
	// applied; otherwise a request naming the wrong platform would leave a
	// sold listing with no sold platform row.
	if _, err := s.platforms.Find(ctx, in.ListingID, in.PlatformCode); err != nil {
		return nil, err
	}

	// The conditional update on the listing row is the linearization point:
	// the first confirmation to apply it wins, any later one gets
	// ErrListingAlreadySold and takes the oversold path.
	l, err := s.listings.RecordSale(ctx, in.ListingID, in.Units, in.SoldPrice, now)
	if errors.Is(err, listing.ErrListingAlreadySold) {
		return nil, s.handleOversold(ctx, in, now)
	}
	if err != nil {
		return nil, err
	}

	// Mark the selling platform's row sold. The row-level guard keeps at
	// most one sold row per listing even if the webhook is replayed.
	if err := s.platforms.MarkSold(ctx, l.ID, in.PlatformCode, now); err != nil {
		if errors.Is(err, marketplace.ErrAlreadySold) {
			// replayed confirmation for the winning platform; the sale
			// projection is already applied, nothing more to do here
			s.logger.Debug("Duplicate sale confirmation for winning platform",
				zap.String("listing_id", l.ID.String()),
				zap.String("platform_code", in.PlatformCode.String()),
			)
		} else if !errors.Is(err, marketplace.ErrPlatformListingNotFound) {
			// the sale stands regardless; nothing retries this write, so
			// log the inconsistency and surface it to an operator
			s.appendLog(ctx, l.ID, in.PlatformCode, marketplace.SyncActionSale, marketplace.SyncOutcomeFailure,
				map[string]any{"error": err.Error()}, now)
			s.notify(ctx, marketplace.Notification{
				Type:         marketplace.NotificationTypeSaleSyncFailed,
				ListingID:    l.ID,
				PlatformCode: in.PlatformCode,
				Title:        fmt.Sprintf("Sale bookkeeping failed on %s", in.PlatformCode.DisplayName()),
				Message: fmt.Sprintf("The sale was recorded but the %s listing could not be marked sold. Check the platform listing state.",
					in.PlatformCode.DisplayName()),
				Payload:   map[string]any{"error": err.Error()},
				CreatedAt: now,
			})
		} else {
			return nil, err
		}
	}

	result := &SaleResult{
		ListingID:       l.ID,
		PlatformCode:    in.PlatformCode,
		SoldPrice:       in.SoldPrice,
		SoldOut:         l.IsSold(),
		QuantityLeft:    l.Quantity,
		StorageLocation: l.StorageLocation,
		DelistedNow:     []marketplace.PlatformCode{},
		Scheduled:       []ScheduledDelisting{},
	}

	s.appendLog(ctx, l.ID, in.PlatformCode, marketplace.SyncActionSale, marketplace.SyncOutcomeSuccess,
		saleDetail(in), now)
	s.notifySale(ctx, l, in, now)

	// Siblings only need retiring once the listing is sold out; a partial
	// sale leaves every copy purchasable.
	if in.AutoDelist && l.IsSold() {
		s.retireSiblings(ctx, l.ID, in, result, now)
	}

	s.logger.Info("Sale handled",
		zap.String("listing_id", l.ID.String()),
		zap.String("platform_code", in.PlatformCode.String()),
		zap.String("sold_price", in.SoldPrice.String()),
		zap.Bool("sold_out", result.SoldOut),
		zap.Int("delisted_now", len(result.DelistedNow)),
		zap.Int("scheduled", len(result.Scheduled)),
	)

	return result, nil
}

// HandleManualSale applies a sale reported by the seller, with the service's
// configured auto-delist behavior.
func (s *SaleService) HandleManualSale(ctx context.Context, in HandleSaleInput) (*SaleResult, error) {
	in.AutoDelist = true
	in.DelistDelay = s.delistDelay
	return s.HandleSale(ctx, in)
}

// HandleRemoteSale resolves a marketplace webhook payload (platform + remote
// listing id) to the canonical listing and delegates to HandleSale with the
// default auto-delist behavior.
func (s *SaleService) HandleRemoteSale(ctx context.Context, code marketplace.PlatformCode, remoteID string, soldPrice decimal.Decimal, buyer *BuyerInfo) (*SaleResult, error) {
	if !code.IsValid() {
		return nil, marketplace.ErrInvalidPlatformCode
	}
	pl, err := s.platforms.FindByRemoteID(ctx, code, remoteID)
	if err != nil {
		return nil, err
	}
	return s.HandleSale(ctx, HandleSaleInput{
		ListingID:    pl.ListingID,
		PlatformCode: code,
		SoldPrice:    soldPrice,
		Buyer:        buyer,
		AutoDelist:   true,
		DelistDelay:  s.delistDelay,
	})
}

// handleOversold records and surfaces a losing sale confirmation. The
// winner's state is left untouched, including any scheduled retirement of
// the losing platform's row.
func (s *SaleService) handleOversold(ctx context.Context, in HandleSaleInput, now time.Time) error {
	s.appendLog(ctx, in.ListingID, in.PlatformCode, marketplace.SyncActionSale, marketplace.SyncOutcomeFailure,
		map[string]any{
			"reason":     "oversold",
			"sold_price": in.SoldPrice.String(),
		}, now)

	n := marketplace.Notification{
		Type:         marketplace.NotificationTypeOversold,
		ListingID:    in.ListingID,
		PlatformCode: in.PlatformCode,
		Title:        fmt.Sprintf("Oversold on %s", in.PlatformCode.DisplayName()),
		Message: fmt.Sprintf("%s reported a sale for an item already sold elsewhere. Cancel the %s order.",
			in.PlatformCode.DisplayName(), in.PlatformCode.DisplayName()),
		Payload: map[string]any{
			"sold_price": in.SoldPrice.String(),
			"buyer":      in.Buyer,
		},
		CreatedAt: now,
	}
	s.notify(ctx, n)

	s.logger.Warn("Oversold sale confirmation rejected",
		zap.String("listing_id", in.ListingID.String()),
		zap.String("platform_code", in.PlatformCode.String()),
	)

	return listing.ErrListingAlreadySold
}

// retireSiblings schedules or immediately retires every non-terminal sibling
// platform listing.
func (s *SaleService) retireSiblings(ctx context.Context, listingID uuid.UUID, in HandleSaleInput, result *SaleResult, now time.Time) {
	siblings, err := s.platforms.FindByListing(ctx, listingID)
	if err != nil {
		s.logger.Error("Failed to load sibling platform listings",
			zap.String("listing_id", listingID.String()),
			zap.Error(err),
		)
		return
	}

	delay := in.DelistDelay

	for i := range siblings {
		pl := &siblings[i]
		if pl.PlatformCode == in.PlatformCode || pl.Status.IsTerminal() {
			continue
		}

		if delay > 0 {
			cancelAt := now.Add(delay)
			scheduled, err := s.platforms.ScheduleCancel(ctx, listingID, pl.PlatformCode, cancelAt, now)
			if err != nil {
				result.Failed = append(result.Failed, PlatformOutcome{
					PlatformCode: pl.PlatformCode,
					Error:        err.Error(),
				})
				continue
			}
			if scheduled {
				result.Scheduled = append(result.Scheduled, ScheduledDelisting{
					PlatformCode: pl.PlatformCode,
					ScheduledAt:  cancelAt,
				})
			}
			continue
		}

		// zero delay: retire within this invocation
		if err := s.retireNow(ctx, pl, now); err != nil {
			// hand the row to the sweep: scheduling it now plus the recorded
			// failure puts it on the normal retry/backoff/exhaustion path
			// instead of leaving it purchasable with no retry
			if _, schedErr := s.platforms.ScheduleCancel(ctx, listingID, pl.PlatformCode, now, now); schedErr != nil {
				s.logger.Error("Failed to schedule retry after immediate retirement failure",
					zap.String("listing_id", listingID.String()),
					zap.String("platform_code", pl.PlatformCode.String()),
					zap.Error(schedErr),
				)
			}
			if failErr := s.platforms.RecordCancelFailure(ctx, listingID, pl.PlatformCode, err.Error(), now); failErr != nil {
				s.logger.Error("Failed to record immediate retirement failure",
					zap.String("listing_id", listingID.String()),
					zap.String("platform_code", pl.PlatformCode.String()),
					zap.Error(failErr),
				)
			}
			result.Failed = append(result.Failed, PlatformOutcome{
				PlatformCode: pl.PlatformCode,
				Error:        err.Error(),
			})
			continue
		}
		result.DelistedNow = append(result.DelistedNow, pl.PlatformCode)
	}
}

// retireNow performs an immediate retirement through the platform adapter.
func (s *SaleService) retireNow(ctx context.Context, pl *marketplace.PlatformListing, now time.Time) error {
	adapter, err := s.adapters.Get(pl.PlatformCode)
	if err != nil {
		return err
	}

	if pl.RemoteID != "" {
		callCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
		err = adapter.Delist(callCtx, pl.RemoteID)
		cancel()
		if err != nil {
			s.appendLog(ctx, pl.ListingID, pl.PlatformCode, marketplace.SyncActionDelist, marketplace.SyncOutcomeFailure,
				map[string]any{"error": err.Error(), "auto_delisted": true}, now)
			return fmt.Errorf("%w: %v", marketplace.ErrAdapterRequestFailed, err)
		}
	}

	if _, err := s.platforms.CompleteCancel(ctx, pl.ListingID, pl.PlatformCode, marketplace.ListingStatusCanceled, now); err != nil {
		return err
	}

	s.appendLog(ctx, pl.ListingID, pl.PlatformCode, marketplace.SyncActionDelist, marketplace.SyncOutcomeSuccess,
		map[string]any{"reason": "sold_on_other_platform", "auto_delisted": true}, now)
	return nil
}

func (s *SaleService) notifySale(ctx context.Context, l *listing.Listing, in HandleSaleInput, now time.Time) {
	n := marketplace.Notification{
		Type:         marketplace.NotificationTypeSale,
		ListingID:    l.ID,
		PlatformCode: in.PlatformCode,
		Title:        fmt.Sprintf("Item Sold on %s!", in.PlatformCode.DisplayName()),
		Message:      fmt.Sprintf("%s sold for $%s", l.Title, in.SoldPrice.StringFixed(2)),
		Payload: map[string]any{
			"sold_price":       in.SoldPrice.String(),
			"buyer":            in.Buyer,
			"storage_location": l.StorageLocation,
		},
		CreatedAt: now,
	}
	s.notify(ctx, n)
}

// notify emits a notification without letting a slow or failing sink affect
// the caller.
func (s *SaleService) notify(ctx context.Context, n marketplace.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("Notification emit failed",
			zap.String("type", string(n.Type)),
			zap.String("listing_id", n.ListingID.String()),
			zap.Error(err),
		)
	}
}

func (s *SaleService) appendLog(ctx context.Context, listingID uuid.UUID, code marketplace.PlatformCode, action marketplace.SyncAction, outcome marketplace.SyncOutcome, detail map[string]any, now time.Time) {
	entry := marketplace.NewSyncLogEntry(listingID, code, action, outcome, detail, now)
	if err := s.syncLog.Append(ctx, entry); err != nil {
		s.logger.Error("Failed to append sync log entry",
			zap.String("listing_id", listingID.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func saleDetail(in HandleSaleInput) map[string]any {
	detail := map[string]any{
		"sold_price": in.SoldPrice.String(),
		"units":      in.Units,
	}
	if in.Buyer != nil {
		detail["buyer"] = in.Buyer
	}
	return detail
}
