package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/lifecycle"
)

// RetirementProcessor executes one retirement sweep pass
type RetirementProcessor interface {
	// ProcessDue picks up due platform listings and delists them
	ProcessDue(ctx context.Context) (*lifecycle.SweepResult, error)
}

// DelistSweeperConfig holds configuration for the delist sweeper
type DelistSweeperConfig struct {
	// Enabled determines if the sweeper is active
	Enabled bool
	// Interval is how often the sweep runs
	Interval time.Duration
	// SweepTimeout is the maximum time for one sweep pass
	SweepTimeout time.Duration
}

// DefaultDelistSweeperConfig returns default configuration
func DefaultDelistSweeperConfig() DelistSweeperConfig {
	return DelistSweeperConfig{
		Enabled:      true,
		Interval:     time.Minute,
		SweepTimeout: 5 * time.Minute,
	}
}

// Validate validates the configuration
func (c *DelistSweeperConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.SweepTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// DelistSweeper runs the retirement sweep on a fixed interval. Missed
// delistings are picked up by the next pass, so a crashed sweep loses
// nothing: due rows stay due until completed.
type DelistSweeper struct {
	processor RetirementProcessor
	logger    *zap.Logger
	config    DelistSweeperConfig

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewDelistSweeper creates a new delist sweeper
func NewDelistSweeper(processor RetirementProcessor, logger *zap.Logger, config DelistSweeperConfig) (*DelistSweeper, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &DelistSweeper{
		processor: processor,
		logger:    logger,
		config:    config,
	}, nil
}

// Start starts the sweep loop
func (s *DelistSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Delist sweeper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Delist sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("sweep_timeout", s.config.SweepTimeout),
	)

	return nil
}

// Stop gracefully stops the sweeper
func (s *DelistSweeper) Stop(ctx context.Context) error {
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
		s.logger.Info("Delist sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Delist sweeper stop timed out")
		return ctx.Err()
	}
}

// TriggerImmediate runs one sweep pass outside the interval loop
func (s *DelistSweeper) TriggerImmediate(ctx context.Context) (*lifecycle.SweepResult, error) {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil, ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	s.logger.Info("Triggering immediate delist sweep")
	return s.sweep(ctx)
}

// IsRunning returns whether the sweeper is running
func (s *DelistSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// run executes the sweep loop until the context is canceled
func (s *DelistSweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Delist sweep loop stopping")
			return
		case <-ticker.C:
			if _, err := s.sweep(ctx); err != nil {
				s.logger.Error("Delist sweep failed", zap.Error(err))
			}
		}
	}
}

// sweep executes one retirement pass with a bounded context
func (s *DelistSweeper) sweep(ctx context.Context) (*lifecycle.SweepResult, error) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.processor.ProcessDue(sweepCtx)
	duration := time.Since(startTime)

	if err != nil {
		return nil, err
	}

	if result.Processed > 0 {
		s.logger.Info("Delist sweep completed",
			zap.Duration("duration", duration),
			zap.Int("processed", result.Processed),
			zap.Int("succeeded", result.Succeeded),
			zap.Int("failed", result.Failed),
		)
	}

	return result, nil
}
