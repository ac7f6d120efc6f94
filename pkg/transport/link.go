// Package transport carries MAVLink frames between the FTP engine and the
// ground over UDP and serial links.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/mavlink"
	"github.com/marmos91/linkfs/pkg/bufpool"
	"github.com/marmos91/linkfs/pkg/metrics"
)

// DefaultTxQueue is the transmit queue length in frames when LinkConfig.TxQueue is zero.
const DefaultTxQueue = 64

var (
	// ErrChannelNotFound is returned for a channel with no link.
	ErrChannelNotFound = errors.New("transport: channel not found")

	// ErrTxFull is returned when the transmit queue has no free slot.
	ErrTxFull = errors.New("transport: transmit queue full")

	// ErrLinkClosed is returned by Send after Close.
	ErrLinkClosed = errors.New("transport: link closed")
)

// LinkConfig describes one link.
type LinkConfig struct {
	Name    string
	Channel uint8
	Type    string

	// Bandwidth in bytes per second used to pace bursts. Zero disables pacing.
	Bandwidth uint32

	// FlowControl marks links that cannot overrun, so bursts are not paced.
	FlowControl bool

	// TxQueue is the transmit queue length in frames.
	TxQueue int
}

// LinkStats are the counters of one link.
type LinkStats struct {
	Name      string `json:"name"`
	Channel   uint8  `json:"channel"`
	Type      string `json:"type"`
	FramesIn  uint64 `json:"frames_in"`
	FramesOut uint64 `json:"frames_out"`
	BytesIn   uint64 `json:"bytes_in"`
	BytesOut  uint64 `json:"bytes_out"`
	Errors    uint64 `json:"errors"`
	Ignored   uint64 `json:"ignored"`
	TxDrops   uint64 `json:"tx_drops"`
	TxSpace   int    `json:"tx_space"`
}

// Link is a framed byte stream with a bounded transmit queue. Frames are
// queued by Send and written by a single writer goroutine, so TxSpace
// reflects how far the physical link is behind.
type Link struct {
	cfg     LinkConfig
	rw      io.ReadWriteCloser
	metrics metrics.LinkMetrics

	// mu serialises every sender on the channel. It also guards seq.
	mu  sync.Mutex
	seq uint8

	tx        chan []byte
	closeOnce sync.Once
	closed    chan struct{}

	framesIn, framesOut atomic.Uint64
	bytesIn, bytesOut   atomic.Uint64
	errs, drops         atomic.Uint64
	ignored             atomic.Uint64
}

// NewLink wraps rw. The caller starts it with Run.
func NewLink(cfg LinkConfig, rw io.ReadWriteCloser, m metrics.LinkMetrics) *Link {
	if cfg.TxQueue <= 0 {
		cfg.TxQueue = DefaultTxQueue
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("chan%d", cfg.Channel)
	}
	return &Link{
		cfg:     cfg,
		rw:      rw,
		metrics: m,
		tx:      make(chan []byte, cfg.TxQueue),
		closed:  make(chan struct{}),
	}
}

// Config returns the link configuration.
func (l *Link) Config() LinkConfig { return l.cfg }

// Lock takes the channel lock and returns its release.
func (l *Link) Lock() func() {
	l.mu.Lock()
	return l.mu.Unlock
}

// TxSpace returns the percentage of free transmit queue slots.
func (l *Link) TxSpace() int {
	return 100 * (cap(l.tx) - len(l.tx)) / cap(l.tx)
}

// Send frames f with the next link sequence number and queues it. Callers
// hold the channel lock.
func (l *Link) Send(f *mavlink.Frame) error {
	select {
	case <-l.closed:
		return ErrLinkClosed
	default:
	}

	f.Seq = l.seq
	buf := bufpool.Get(mavlink.FrameLen(mavlink.MaxPayloadLen))
	n, err := mavlink.EncodeTo(buf, f)
	if err != nil {
		bufpool.Put(buf)
		return err
	}

	select {
	case l.tx <- buf[:n]:
		l.seq++
		return nil
	default:
		bufpool.Put(buf)
		l.drops.Add(1)
		if l.metrics != nil {
			l.metrics.RecordTxDrop(l.cfg.Name)
		}
		return ErrTxFull
	}
}

// Run writes queued frames and feeds received frames to fn until ctx is
// cancelled or the link fails. It closes the link on return.
func (l *Link) Run(ctx context.Context, fn func(*Link, mavlink.Frame)) error {
	defer l.Close()

	readErr := make(chan error, 1)
	go func() { readErr <- l.readLoop(fn) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if l.isClosed() {
				return nil
			}
			return err
		case buf := <-l.tx:
			if err := l.write(buf); err != nil {
				return err
			}
		}
	}
}

func (l *Link) write(buf []byte) error {
	defer bufpool.Put(buf)

	n, err := l.rw.Write(buf)
	if err != nil {
		if errors.Is(err, errNoPeer) {
			// Nobody to talk to yet; the frame is lost like on a radio link.
			return nil
		}
		l.errs.Add(1)
		if l.metrics != nil {
			l.metrics.RecordFrameError(l.cfg.Name, "write")
		}
		logger.Warn("Link write failed", logger.KeyLink, l.cfg.Name, logger.Err(err))
		if isTransient(err) {
			return nil
		}
		return fmt.Errorf("link %s: write: %w", l.cfg.Name, err)
	}
	l.framesOut.Add(1)
	l.bytesOut.Add(uint64(n))
	if l.metrics != nil {
		l.metrics.RecordFrame(l.cfg.Name, "tx", n)
	}
	return nil
}

func (l *Link) readLoop(fn func(*Link, mavlink.Frame)) error {
	p := mavlink.NewParser()
	buf := bufpool.Get(bufpool.DefaultDatagramSize)
	defer bufpool.Put(buf)
	for {
		n, err := l.rw.Read(buf)
		if n > 0 {
			l.bytesIn.Add(uint64(n))
			_, _ = p.Write(buf[:n])
			l.drain(p, fn)
		}
		if err != nil {
			if isTransient(err) {
				continue
			}
			if errors.Is(err, io.EOF) || l.isClosed() {
				return nil
			}
			return fmt.Errorf("link %s: read: %w", l.cfg.Name, err)
		}
	}
}

func (l *Link) drain(p *mavlink.Parser, fn func(*Link, mavlink.Frame)) {
	for {
		f, err := p.Next()
		switch {
		case errors.Is(err, mavlink.ErrIncomplete):
			return
		case err != nil:
			// Well-formed traffic we do not serve shares the link with us.
			if kind, ok := ignoredKind(err); ok {
				l.ignored.Add(1)
				if l.metrics != nil {
					l.metrics.RecordFrameIgnored(l.cfg.Name, kind)
				}
				continue
			}
			l.errs.Add(1)
			if l.metrics != nil {
				l.metrics.RecordFrameError(l.cfg.Name, frameErrorReason(err))
			}
			logger.Debug("Frame skipped", logger.KeyLink, l.cfg.Name, logger.Err(err))
		default:
			l.framesIn.Add(1)
			if l.metrics != nil {
				l.metrics.RecordFrame(l.cfg.Name, "rx", mavlink.FrameLen(len(f.Payload)))
			}
			fn(l, f)
		}
	}
}

// ignoredKind classifies parser skips of valid frames that are not ours.
func ignoredKind(err error) (string, bool) {
	switch {
	case errors.Is(err, mavlink.ErrUnknownMessage):
		return "unknown", true
	case errors.Is(err, mavlink.ErrV1Frame):
		return "v1", true
	case errors.Is(err, mavlink.ErrSignedFrame):
		return "signed", true
	default:
		return "", false
	}
}

func frameErrorReason(err error) string {
	if errors.Is(err, mavlink.ErrBadCRC) {
		return "crc"
	}
	return "other"
}

// isTransient reports read timeouts, which serial ports and deadline-bound
// sockets return while idle.
func isTransient(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Close closes the underlying stream. Safe to call more than once.
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.rw.Close()
	})
	return err
}

func (l *Link) isClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

// Stats returns a snapshot of the link counters.
func (l *Link) Stats() LinkStats {
	return LinkStats{
		Name:      l.cfg.Name,
		Channel:   l.cfg.Channel,
		Type:      l.cfg.Type,
		FramesIn:  l.framesIn.Load(),
		FramesOut: l.framesOut.Load(),
		BytesIn:   l.bytesIn.Load(),
		BytesOut:  l.bytesOut.Load(),
		Errors:    l.errs.Load(),
		Ignored:   l.ignored.Load(),
		TxDrops:   l.drops.Load(),
		TxSpace:   l.TxSpace(),
	}
}
