package ftp

import (
	"context"
	"sync/atomic"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
)

// Queue is the bounded FIFO between the receive path and the worker.
// Push never blocks: a full queue drops the request, which the protocol
// treats as a lost packet.
type Queue struct {
	ch       chan types.Packet
	enqueued atomic.Uint64
	dropped  atomic.Uint64
}

// NewQueue creates a queue holding up to size requests.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan types.Packet, size)}
}

// Push enqueues p. Returns false if the queue is full.
func (q *Queue) Push(p types.Packet) bool {
	select {
	case q.ch <- p:
		q.enqueued.Add(1)
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Pop blocks until a request is available or ctx is cancelled.
func (q *Queue) Pop(ctx context.Context) (types.Packet, error) {
	select {
	case p := <-q.ch:
		return p, nil
	case <-ctx.Done():
		return types.Packet{}, ctx.Err()
	}
}

// Len returns the number of queued requests.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }

// Enqueued returns the number of requests accepted so far.
func (q *Queue) Enqueued() uint64 { return q.enqueued.Load() }

// Dropped returns the number of requests dropped because the queue was full.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
