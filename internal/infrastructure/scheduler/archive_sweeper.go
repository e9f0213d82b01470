package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/lifecycle"
)

// ListingArchiver executes one archival sweep pass
type ListingArchiver interface {
	// ArchiveSoldListings archives sold listings past the retention window
	ArchiveSoldListings(ctx context.Context) (*lifecycle.ArchiveResult, error)
}

// ArchiveSweeperConfig holds configuration for the archive sweeper
type ArchiveSweeperConfig struct {
	// Enabled determines if the sweeper is active
	Enabled bool
	// Interval is how often the sweep runs
	Interval time.Duration
	// SweepTimeout is the maximum time for one sweep pass
	SweepTimeout time.Duration
}

// DefaultArchiveSweeperConfig returns default configuration
func DefaultArchiveSweeperConfig() ArchiveSweeperConfig {
	return ArchiveSweeperConfig{
		Enabled:      true,
		Interval:     time.Hour,
		SweepTimeout: 10 * time.Minute,
	}
}

// Validate validates the configuration
func (c *ArchiveSweeperConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.SweepTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ArchiveSweeper runs the archival sweep on a fixed interval.
type ArchiveSweeper struct {
	archiver ListingArchiver
	logger   *zap.Logger
	config   ArchiveSweeperConfig

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewArchiveSweeper creates a new archive sweeper
func NewArchiveSweeper(archiver ListingArchiver, logger *zap.Logger, config ArchiveSweeperConfig) (*ArchiveSweeper, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ArchiveSweeper{
		archiver: archiver,
		logger:   logger,
		config:   config,
	}, nil
}

// Start starts the sweep loop
func (s *ArchiveSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Archive sweeper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Archive sweeper started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the sweeper
func (s *ArchiveSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Archive sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Archive sweeper stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the sweeper is running
func (s *ArchiveSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// run executes the sweep loop until the context is canceled
func (s *ArchiveSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Archive sweep loop stopping")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep executes one archival pass with a bounded context
func (s *ArchiveSweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.archiver.ArchiveSoldListings(sweepCtx)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Archive sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	if result.Archived > 0 {
		s.logger.Info("Archive sweep completed",
			zap.Duration("duration", duration),
			zap.Int("archived", result.Archived),
		)
	}
}
