package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/lifecycle"
)

type fakeRetirementProcessor struct {
	calls  atomic.Int32
	result *lifecycle.SweepResult
	err    error
	done   chan struct{}
}

func newFakeRetirementProcessor(result *lifecycle.SweepResult, err error) *fakeRetirementProcessor {
	return &fakeRetirementProcessor{
		result: result,
		err:    err,
		done:   make(chan struct{}, 16),
	}
}

func (f *fakeRetirementProcessor) ProcessDue(_ context.Context) (*lifecycle.SweepResult, error) {
	f.calls.Add(1)
	select {
	case f.done <- struct{}{}:
	default:
	}
	return f.result, f.err
}

func waitForSweep(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run in time")
	}
}

func TestDelistSweeper_StartStop(t *testing.T) {
	processor := newFakeRetirementProcessor(&lifecycle.SweepResult{Processed: 1, Succeeded: 1}, nil)
	sweeper, err := NewDelistSweeper(processor, zap.NewNop(), DelistSweeperConfig{
		Enabled:      true,
		Interval:     10 * time.Millisecond,
		SweepTimeout: time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, sweeper.Start(context.Background()))
	assert.True(t, sweeper.IsRunning())

	waitForSweep(t, processor.done)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(stopCtx))
	assert.False(t, sweeper.IsRunning())
	assert.GreaterOrEqual(t, processor.calls.Load(), int32(1))
}

func TestDelistSweeper_Disabled(t *testing.T) {
	processor := newFakeRetirementProcessor(&lifecycle.SweepResult{}, nil)
	sweeper, err := NewDelistSweeper(processor, zap.NewNop(), DelistSweeperConfig{
		Enabled:      false,
		Interval:     10 * time.Millisecond,
		SweepTimeout: time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, sweeper.Start(context.Background()))
	assert.False(t, sweeper.IsRunning())
	assert.Equal(t, int32(0), processor.calls.Load())
}

func TestDelistSweeper_TriggerImmediate(t *testing.T) {
	t.Run("runs one pass while running", func(t *testing.T) {
		processor := newFakeRetirementProcessor(&lifecycle.SweepResult{Processed: 2, Succeeded: 2}, nil)
		sweeper, err := NewDelistSweeper(processor, zap.NewNop(), DelistSweeperConfig{
			Enabled:      true,
			Interval:     time.Hour, // interval loop will not fire during the test
			SweepTimeout: time.Second,
		})
		require.NoError(t, err)

		require.NoError(t, sweeper.Start(context.Background()))
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = sweeper.Stop(stopCtx)
		}()

		result, err := sweeper.TriggerImmediate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, result.Processed)
		assert.Equal(t, int32(1), processor.calls.Load())
	})

	t.Run("rejected when stopped", func(t *testing.T) {
		processor := newFakeRetirementProcessor(&lifecycle.SweepResult{}, nil)
		sweeper, err := NewDelistSweeper(processor, zap.NewNop(), DefaultDelistSweeperConfig())
		require.NoError(t, err)

		_, err = sweeper.TriggerImmediate(context.Background())
		assert.ErrorIs(t, err, ErrSchedulerNotRunning)
	})
}

func TestDelistSweeper_InvalidConfig(t *testing.T) {
	processor := newFakeRetirementProcessor(&lifecycle.SweepResult{}, nil)

	_, err := NewDelistSweeper(processor, zap.NewNop(), DelistSweeperConfig{
		Enabled:      true,
		Interval:     0,
		SweepTimeout: time.Second,
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewDelistSweeper(processor, zap.NewNop(), DelistSweeperConfig{
		Enabled:      true,
		Interval:     time.Minute,
		SweepTimeout: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDelistSweeper_SweepErrorKeepsLoopAlive(t *testing.T) {
	processor := newFakeRetirementProcessor(nil, assert.AnError)
	sweeper, err := NewDelistSweeper(processor, zap.NewNop(), DelistSweeperConfig{
		Enabled:      true,
		Interval:     10 * time.Millisecond,
		SweepTimeout: time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, sweeper.Start(context.Background()))

	// two passes prove the loop survives a failed sweep
	waitForSweep(t, processor.done)
	waitForSweep(t, processor.done)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sweeper.Stop(stopCtx))
}
