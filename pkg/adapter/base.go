package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/linkfs/internal/logger"
)

// DefaultShutdownTimeout bounds Stop when BaseConfig.ShutdownTimeout is zero.
const DefaultShutdownTimeout = 5 * time.Second

// BaseConfig holds configuration common to all protocol adapters.
type BaseConfig struct {
	// ShutdownTimeout is the maximum duration to wait for worker goroutines
	// to finish during graceful shutdown.
	ShutdownTimeout time.Duration
}

// BaseAdapter provides shutdown signalling and worker tracking for protocol
// adapters that process requests on their own goroutines.
//
// Thread safety:
// All exported methods are safe for concurrent use. Shutdown is initiated at
// most once regardless of how many times Stop is called.
type BaseAdapter struct {
	Config BaseConfig

	protocolName string

	workers      sync.WaitGroup
	shutdownOnce sync.Once

	// Shutdown is closed when graceful shutdown begins.
	Shutdown chan struct{}

	// ShutdownCtx is cancelled during shutdown to abort in-flight requests
	// (reply backoff, burst pacing).
	ShutdownCtx context.Context

	// CancelRequests cancels ShutdownCtx.
	CancelRequests context.CancelFunc
}

// NewBaseAdapter creates a BaseAdapter in the running state.
func NewBaseAdapter(config BaseConfig, protocol string) *BaseAdapter {
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BaseAdapter{
		Config:         config,
		protocolName:   protocol,
		Shutdown:       make(chan struct{}),
		ShutdownCtx:    ctx,
		CancelRequests: cancel,
	}
}

// Go runs fn on a tracked goroutine. fn receives ShutdownCtx and must return
// once it is cancelled.
func (b *BaseAdapter) Go(fn func(ctx context.Context)) {
	b.workers.Add(1)
	go func() {
		defer b.workers.Done()
		fn(b.ShutdownCtx)
	}()
}

// ShuttingDown reports whether shutdown has been initiated.
func (b *BaseAdapter) ShuttingDown() bool {
	select {
	case <-b.Shutdown:
		return true
	default:
		return false
	}
}

// InitiateShutdown closes Shutdown and cancels ShutdownCtx. Safe to call
// multiple times.
func (b *BaseAdapter) InitiateShutdown() {
	b.shutdownOnce.Do(func() {
		logger.Debug(b.protocolName + " shutdown initiated")
		close(b.Shutdown)
		b.CancelRequests()
	})
}

// Stop initiates shutdown and waits for tracked goroutines, bounded by
// ShutdownTimeout and ctx.
//
// Returns:
//   - nil when every worker finished
//   - an error if the timeout elapsed or ctx was cancelled first
func (b *BaseAdapter) Stop(ctx context.Context) error {
	b.InitiateShutdown()

	if ctx == nil {
		ctx = context.Background()
	}

	done := make(chan struct{})
	go func() {
		b.workers.Wait()
		close(done)
	}()

	timer := time.NewTimer(b.Config.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		logger.Info(b.protocolName + " graceful shutdown complete")
		return nil
	case <-timer.C:
		logger.Warn(b.protocolName+" shutdown timeout exceeded", "timeout", b.Config.ShutdownTimeout)
		return fmt.Errorf("%s shutdown timeout after %s", b.protocolName, b.Config.ShutdownTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%s shutdown: %w", b.protocolName, ctx.Err())
	}
}
