// Package ftp implements the file transfer engine that serves a vehicle
// filesystem to ground stations over the telemetry bus.
//
// Requests are decoded by the transport and handed to Submit. A single
// worker goroutine drains a bounded queue, executes each opcode against the
// filesystem and pushes the reply back through the Transport. The engine
// holds at most one open file, shared by every session and channel.
package ftp

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/pkg/adapter"
	"github.com/marmos91/linkfs/pkg/metrics"
	"github.com/marmos91/linkfs/pkg/vfs"
)

// Adapter is the FTP engine.
//
// Submit may be called from any goroutine. Everything else that touches the
// session state runs on the worker goroutine started by Serve.
type Adapter struct {
	*adapter.BaseAdapter

	cfg     Config
	fs      vfs.FS
	tr      Transport
	metrics metrics.FTPMetrics
	queue   *Queue

	initErr  error
	disabled atomic.Bool
	serving  atomic.Bool

	// Worker-owned state.
	sess *session
	last types.Packet // last pushed reply, replayed for duplicate requests

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	status    atomic.Pointer[Status]
	requests  atomic.Uint64
	retrans   atomic.Uint64
	startTime time.Time
}

var _ adapter.Adapter = (*Adapter)(nil)

// Option customises an Adapter.
type Option func(*Adapter)

// WithMetrics attaches a metrics sink. A nil sink disables collection.
func WithMetrics(m metrics.FTPMetrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// New creates the engine. Configuration or collaborator errors do not fail
// construction: they disable the engine, which then ignores every request
// and returns the error from Serve.
func New(cfg Config, fsys vfs.FS, tr Transport, opts ...Option) *Adapter {
	cfg.ApplyDefaults()

	a := &Adapter{
		BaseAdapter: adapter.NewBaseAdapter(adapter.BaseConfig{ShutdownTimeout: cfg.ShutdownTimeout}, "FTP"),
		cfg:         cfg,
		fs:          fsys,
		tr:          tr,
		sess:        newSession(),
		now:         time.Now,
		sleep:       sleepCtx,
		startTime:   time.Now(),
	}
	a.last.Session = types.NoSession

	for _, opt := range opts {
		opt(a)
	}

	switch {
	case fsys == nil:
		a.initErr = errors.New("no filesystem")
	case tr == nil:
		a.initErr = errors.New("no transport")
	default:
		a.initErr = cfg.Validate()
	}

	if a.initErr != nil {
		a.initErr = errors.Join(ErrDisabled, a.initErr)
		a.disabled.Store(true)
		logger.Error("Failed to initialize FTP engine", logger.Err(a.initErr))
	} else {
		a.queue = NewQueue(cfg.QueueSize)
	}

	a.publishStatus()
	return a
}

// Protocol returns "FTP".
func (a *Adapter) Protocol() string {
	return "FTP"
}

// Enabled reports whether the engine initialised successfully.
func (a *Adapter) Enabled() bool {
	return !a.disabled.Load()
}

// Submit queues a decoded request. It never blocks. Returns false if the
// request was dropped because the queue is full or the engine is disabled
// or shutting down.
func (a *Adapter) Submit(req types.Packet) bool {
	if a.disabled.Load() || a.ShuttingDown() {
		return false
	}
	if !a.queue.Push(req) {
		if a.metrics != nil {
			a.metrics.RecordQueueDrop()
		}
		logger.Debug("FTP request dropped, queue full",
			logger.Channel(req.Channel),
			logger.Session(req.Session),
			logger.Seq(req.Seq),
			logger.KeyOpcode, req.Opcode.String(),
			logger.KeyDropped, a.queue.Dropped())
		return false
	}
	return true
}

// Serve runs the worker until ctx is cancelled or Stop is called.
func (a *Adapter) Serve(ctx context.Context) error {
	if a.initErr != nil {
		return a.initErr
	}
	if !a.serving.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	logger.Info("FTP engine started",
		"queue_size", a.cfg.QueueSize,
		"session_timeout", a.cfg.SessionTimeout,
		"burst_quota", a.cfg.BurstQuota)

	a.Go(a.work)

	select {
	case <-ctx.Done():
		logger.Info("FTP shutdown signal received", logger.Err(ctx.Err()))
		return a.Stop(context.Background())
	case <-a.Shutdown:
		return nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
