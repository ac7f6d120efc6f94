package ftp

import (
	"context"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/adapter/ftp/wire"
	"github.com/marmos91/linkfs/pkg/vfs"
	"github.com/marmos91/linkfs/pkg/vfs/memfs"
)

const (
	gcsSysID  = 255
	gcsCompID = 190
)

// fakeTransport records replies and lets tests script link conditions.
type fakeTransport struct {
	mu      sync.Mutex
	sent    []types.Packet
	banners []uint8
	events  []string // "send" and "banner" in call order

	txSpace func(ch uint8) int
	flow    bool
	bw      uint32
	sendErr error
	locked  bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{txSpace: func(uint8) int { return 100 }}
}

func (f *fakeTransport) TxSpace(ch uint8) int { return f.txSpace(ch) }

func (f *fakeTransport) Lock(uint8) func() {
	f.mu.Lock()
	f.locked = true
	return func() {
		f.locked = false
		f.mu.Unlock()
	}
}

// Send is called with the lock held by Lock.
func (f *fakeTransport) Send(reply *types.Packet) error {
	if !f.locked {
		panic("send without channel lock")
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, *reply)
	f.events = append(f.events, "send")
	return nil
}

func (f *fakeTransport) FlowControl(uint8) bool { return f.flow }
func (f *fakeTransport) Bandwidth(uint8) uint32 { return f.bw }

func (f *fakeTransport) FrameSize(_ uint8, payloadLen int) int {
	return 12 + 3 + payloadLen
}

func (f *fakeTransport) Banner(ch uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.banners = append(f.banners, ch)
	f.events = append(f.events, "banner")
	return nil
}

func (f *fakeTransport) replies() []types.Packet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Packet(nil), f.sent...)
}

// countingFS wraps an FS, counting calls and tracking open handles.
type countingFS struct {
	vfs.FS
	mu      sync.Mutex
	calls   int
	open    int
	maxOpen int
}

func (c *countingFS) touch() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingFS) Open(name string, flag int) (vfs.File, error) {
	c.touch()
	f, err := c.FS.Open(name, flag)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.open++
	c.maxOpen = max(c.maxOpen, c.open)
	c.mu.Unlock()
	return &countingFile{File: f, fs: c}, nil
}

func (c *countingFS) Stat(name string) (fs.FileInfo, error) { c.touch(); return c.FS.Stat(name) }
func (c *countingFS) Mkdir(name string) error               { c.touch(); return c.FS.Mkdir(name) }
func (c *countingFS) Unlink(name string) error              { c.touch(); return c.FS.Unlink(name) }
func (c *countingFS) Rename(o, n string) error              { c.touch(); return c.FS.Rename(o, n) }
func (c *countingFS) OpenDir(name string) (vfs.Dir, error)  { c.touch(); return c.FS.OpenDir(name) }
func (c *countingFS) CRC32(name string) (uint32, error)     { c.touch(); return c.FS.CRC32(name) }

func (c *countingFS) stats() (calls, open, maxOpen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.open, c.maxOpen
}

type countingFile struct {
	vfs.File
	fs     *countingFS
	closed bool
}

func (f *countingFile) Close() error {
	if !f.closed {
		f.closed = true
		f.fs.mu.Lock()
		f.fs.open--
		f.fs.mu.Unlock()
	}
	return f.File.Close()
}

// harness drives an Adapter synchronously through handle with a fake
// clock and a recording sleep.
type harness struct {
	t      *testing.T
	a      *Adapter
	mem    *memfs.FS
	fs     *countingFS
	tr     *fakeTransport
	clock  time.Time
	sleeps []time.Duration
	seq    uint16
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		mem:   memfs.New(),
		tr:    newFakeTransport(),
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	h.fs = &countingFS{FS: h.mem}
	h.a = New(cfg, h.fs, h.tr)
	require.True(t, h.a.Enabled())
	h.a.now = func() time.Time { return h.clock }
	h.a.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clock = h.clock.Add(d)
}

// do handles req and returns the replies it produced.
func (h *harness) do(req types.Packet) []types.Packet {
	h.t.Helper()
	before := len(h.tr.replies())
	h.a.handle(context.Background(), &req)
	return h.tr.replies()[before:]
}

// one handles req and requires exactly one reply.
func (h *harness) one(req types.Packet) types.Packet {
	h.t.Helper()
	out := h.do(req)
	require.Len(h.t, out, 1)
	return out[0]
}

// req builds a request with a fresh sequence number.
func (h *harness) req(op types.Opcode, session int8) types.Packet {
	h.seq += 2
	return types.Packet{
		SysID:   gcsSysID,
		CompID:  gcsCompID,
		Seq:     h.seq,
		Session: session,
		Opcode:  op,
	}
}

func (h *harness) pathReq(op types.Opcode, session int8, path string) types.Packet {
	h.t.Helper()
	p := h.req(op, session)
	require.True(h.t, wire.PutPath(&p, path))
	return p
}

func requireAck(t *testing.T, p types.Packet) {
	t.Helper()
	require.Equal(t, types.OpAck, p.Opcode, "expected Ack, got Nack %s", types.ErrorCode(p.Data[0]))
}

func requireNack(t *testing.T, p types.Packet, kind types.ErrorCode) {
	t.Helper()
	require.Equal(t, types.OpNack, p.Opcode)
	require.Equal(t, kind, types.ErrorCode(p.Data[0]), "got %s", types.ErrorCode(p.Data[0]))
}
