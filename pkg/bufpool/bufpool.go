// Package bufpool recycles the byte slices links use for encoded frames and
// read buffers, keeping steady-state telemetry traffic allocation free.
//
// Buffers come in three size classes:
//   - Frame (default 512B): one encoded MAVLink frame, signed or not
//   - Chunk (default 4KB): serial reads
//   - Datagram (default 64KB): UDP reads, the largest possible datagram
//
// Requests above the largest class are allocated directly and never pooled.
//
//	buf := bufpool.Get(n)
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
)

// Default size classes.
const (
	DefaultFrameSize    = 512
	DefaultChunkSize    = 4 << 10
	DefaultDatagramSize = 64 << 10
)

// Config sets the size classes of a Pool. Zero fields take the defaults.
type Config struct {
	FrameSize    int
	ChunkSize    int
	DatagramSize int
}

// class is one size tier.
type class struct {
	size int
	pool sync.Pool
}

// Pool hands out byte slices by size class. Safe for concurrent use.
type Pool struct {
	classes [3]*class
}

func newClass(size int) *class {
	c := &class{size: size}
	c.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return c
}

// NewPool creates a pool. A nil cfg uses the defaults.
func NewPool(cfg *Config) *Pool {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.FrameSize <= 0 {
		c.FrameSize = DefaultFrameSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.DatagramSize <= 0 {
		c.DatagramSize = DefaultDatagramSize
	}

	return &Pool{classes: [3]*class{
		newClass(c.FrameSize),
		newClass(c.ChunkSize),
		newClass(c.DatagramSize),
	}}
}

// Get returns a slice of length size backed by the smallest class that fits.
// The caller must Put it back when done.
func (p *Pool) Get(size int) []byte {
	for _, c := range p.classes {
		if size <= c.size {
			buf := *c.pool.Get().(*[]byte)
			return buf[:size]
		}
	}
	return make([]byte, size)
}

// Put returns buf to its class. Slices whose capacity matches no class,
// such as oversized direct allocations, are left to the garbage collector.
// buf must not be used afterwards.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	for _, c := range p.classes {
		if cap(buf) == c.size {
			full := buf[:cap(buf)]
			c.pool.Put(&full)
			return
		}
	}
}

var globalPool = NewPool(nil)

// Get returns a buffer of length size from the shared pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the shared pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
