package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/adapter/ftp/wire"
	"github.com/marmos91/linkfs/internal/mavlink"
	"github.com/marmos91/linkfs/pkg/adapter/ftp"
	"github.com/marmos91/linkfs/pkg/vfs/memfs"
)

// fakeStream feeds injected bytes to the link and captures its writes.
type fakeStream struct {
	r   *io.PipeReader
	w   *io.PipeWriter
	out chan []byte
}

func newFakeStream() *fakeStream {
	r, w := io.Pipe()
	return &fakeStream{r: r, w: w, out: make(chan []byte, 64)}
}

func (s *fakeStream) Read(b []byte) (int, error) { return s.r.Read(b) }

func (s *fakeStream) Write(b []byte) (int, error) {
	s.out <- bytes.Clone(b)
	return len(b), nil
}

func (s *fakeStream) Close() error { return s.r.Close() }

func (s *fakeStream) inject(t *testing.T, b []byte) {
	t.Helper()
	_, err := s.w.Write(b)
	require.NoError(t, err)
}

// next returns the next frame the link wrote.
func (s *fakeStream) next(t *testing.T) mavlink.Frame {
	t.Helper()
	select {
	case b := <-s.out:
		p := mavlink.NewParser()
		_, _ = p.Write(b)
		f, err := p.Next()
		require.NoError(t, err)
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame written")
		return mavlink.Frame{}
	}
}

const (
	gcsSys  = 255
	gcsComp = 190
)

var testID = Identity{SystemID: 1, ComponentID: 1, Version: "v1.2.3", InstanceID: "abc"}

func requestFrame(t *testing.T, target uint8, p types.Packet) []byte {
	t.Helper()
	msg := mavlink.FileTransfer{TargetSystem: target, TargetComponent: 1, Payload: wire.Encode(&p)}
	b, err := mavlink.Encode(&mavlink.Frame{SysID: gcsSys, CompID: gcsComp, MsgID: mavlink.MsgIDFileTransfer, Payload: msg.Marshal()})
	require.NoError(t, err)
	return b
}

func TestLinkTxQueue(t *testing.T) {
	l := NewLink(LinkConfig{Channel: 2, TxQueue: 4}, newFakeStream(), nil)
	assert.Equal(t, "chan2", l.Config().Name)
	assert.Equal(t, 100, l.TxSpace())

	st := mavlink.StatusText{Text: "x"}
	for i := 0; i < 2; i++ {
		require.NoError(t, l.Send(&mavlink.Frame{MsgID: mavlink.MsgIDStatusText, Payload: st.Marshal()}))
	}
	assert.Equal(t, 50, l.TxSpace())

	for i := 0; i < 2; i++ {
		require.NoError(t, l.Send(&mavlink.Frame{MsgID: mavlink.MsgIDStatusText, Payload: st.Marshal()}))
	}
	assert.Equal(t, 0, l.TxSpace())

	err := l.Send(&mavlink.Frame{MsgID: mavlink.MsgIDStatusText, Payload: st.Marshal()})
	assert.ErrorIs(t, err, ErrTxFull)
	assert.Equal(t, uint64(1), l.Stats().TxDrops)

	// Queued frames carry consecutive sequence numbers.
	for want := uint8(0); want < 4; want++ {
		buf := <-l.tx
		assert.Equal(t, want, buf[4])
	}

	require.NoError(t, l.Close())
	assert.ErrorIs(t, l.Send(&mavlink.Frame{MsgID: mavlink.MsgIDStatusText}), ErrLinkClosed)
}

func TestMuxRouting(t *testing.T) {
	s := newFakeStream()
	l := NewLink(LinkConfig{Name: "telem1", Channel: 1, Type: "udp", Bandwidth: 5760}, s, nil)
	m, err := NewMux(testID, l)
	require.NoError(t, err)

	got := make(chan types.Packet, 8)
	m.SetHandler(func(p types.Packet) bool { got <- p; return true })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	req := types.Packet{Seq: 40, Session: 2, Opcode: types.OpOpenFileRO}
	require.True(t, wire.PutPath(&req, "/a"))

	s.inject(t, requestFrame(t, 7, req)) // another vehicle
	s.inject(t, requestFrame(t, 1, req))
	s.inject(t, requestFrame(t, 0, req)) // broadcast

	for i := 0; i < 2; i++ {
		select {
		case p := <-got:
			assert.Equal(t, uint8(1), p.Channel)
			assert.Equal(t, uint8(gcsSys), p.SysID)
			assert.Equal(t, uint8(gcsComp), p.CompID)
			assert.Equal(t, uint16(40), p.Seq)
			assert.Equal(t, types.OpOpenFileRO, p.Opcode)
			assert.Equal(t, "/a", wire.PathArg(&p))
		case <-time.After(2 * time.Second):
			t.Fatal("request not routed")
		}
	}
	assert.Empty(t, got)

	t.Run("Send", func(t *testing.T) {
		reply := types.Packet{Channel: 1, SysID: gcsSys, CompID: gcsComp, Seq: 41, Session: 2, Opcode: types.OpAck, ReqOpcode: types.OpOpenFileRO, Size: 4}
		wire.PutUint32(&reply, 1234)

		unlock := m.Lock(1)
		require.NoError(t, m.Send(&reply))
		unlock()

		f := s.next(t)
		assert.Equal(t, mavlink.MsgIDFileTransfer, f.MsgID)
		assert.Equal(t, testID.SystemID, f.SysID)
		msg := mavlink.UnmarshalFileTransfer(f.Payload)
		assert.Equal(t, uint8(gcsSys), msg.TargetSystem)
		assert.Equal(t, uint8(gcsComp), msg.TargetComponent)

		back := wire.Decode(msg.Payload[:])
		assert.Equal(t, uint16(41), back.Seq)
		assert.Equal(t, uint32(1234), wire.Uint32(&back))
	})

	t.Run("Banner", func(t *testing.T) {
		require.NoError(t, m.Banner(1))
		first := mavlink.UnmarshalStatusText(s.next(t).Payload)
		second := mavlink.UnmarshalStatusText(s.next(t).Payload)
		assert.Equal(t, "linkfs v1.2.3", first.Text)
		assert.Equal(t, "instance abc", second.Text)
		assert.Equal(t, mavlink.SeverityInfo, first.Severity)
	})

	t.Run("UnknownChannel", func(t *testing.T) {
		assert.ErrorIs(t, m.Send(&types.Packet{Channel: 9}), ErrChannelNotFound)
		assert.ErrorIs(t, m.Banner(9), ErrChannelNotFound)
		assert.Equal(t, 100, m.TxSpace(9))
		assert.Zero(t, m.Bandwidth(9))
		m.Lock(9)()
	})

	t.Run("Properties", func(t *testing.T) {
		assert.Equal(t, uint32(5760), m.Bandwidth(1))
		assert.False(t, m.FlowControl(1))
		assert.Equal(t, 12+3+251, m.FrameSize(1, types.PayloadSize))

		stats := m.Stats()
		require.Len(t, stats, 1)
		assert.Equal(t, "telem1", stats[0].Name)
		assert.Equal(t, uint64(3), stats[0].FramesIn)
		assert.Eventually(t, func() bool { return m.Stats()[0].FramesOut >= 3 }, time.Second, time.Millisecond)
	})

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestMuxRejectsDuplicateChannels(t *testing.T) {
	a := NewLink(LinkConfig{Channel: 0}, newFakeStream(), nil)
	b := NewLink(LinkConfig{Channel: 0}, newFakeStream(), nil)
	_, err := NewMux(testID, a, b)
	assert.Error(t, err)
}

func TestMuxCountsCorruptFrames(t *testing.T) {
	s := newFakeStream()
	l := NewLink(LinkConfig{Channel: 0}, s, nil)
	m, err := NewMux(testID, l)
	require.NoError(t, err)
	got := make(chan types.Packet, 1)
	m.SetHandler(func(p types.Packet) bool { got <- p; return true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	bad := requestFrame(t, 1, types.Packet{Seq: 1})
	bad[len(bad)-1] ^= 0xFF
	s.inject(t, bad)
	s.inject(t, requestFrame(t, 1, types.Packet{Seq: 3}))

	select {
	case p := <-got:
		assert.Equal(t, uint16(3), p.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame not delivered")
	}
	assert.GreaterOrEqual(t, l.Stats().Errors, uint64(1))
}

// TestEngineOverMux runs the FTP engine behind a Mux and reads a file
// through the framed link.
func TestMuxIgnoresForeignFrames(t *testing.T) {
	s := newFakeStream()
	l := NewLink(LinkConfig{Channel: 0}, s, nil)
	m, err := NewMux(testID, l)
	require.NoError(t, err)
	got := make(chan types.Packet, 1)
	m.SetHandler(func(p types.Packet) bool { got <- p; return true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	// HEARTBEAT from an autopilot sharing the link.
	heartbeat := []byte{mavlink.Magic, 9, 0, 0, 7, 1, 1, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, mavlink.MagicV1, 0x40, 0x03, 0x04, 0x03,
		0x5A, 0xFE}
	s.inject(t, append(heartbeat, requestFrame(t, 1, types.Packet{Seq: 5})...))

	select {
	case p := <-got:
		assert.Equal(t, uint16(5), p.Seq)
	case <-time.After(2 * time.Second):
		t.Fatal("frame after heartbeat not delivered")
	}
	stats := l.Stats()
	assert.Zero(t, stats.Errors)
	assert.Equal(t, uint64(1), stats.Ignored)
	assert.Equal(t, uint64(1), stats.FramesIn)
}

func TestEngineOverMux(t *testing.T) {
	fsys := memfs.New()
	require.NoError(t, fsys.WriteFile("/logs/00000001.BIN", []byte("flight data")))

	s := newFakeStream()
	l := NewLink(LinkConfig{Channel: 0, FlowControl: true}, s, nil)
	m, err := NewMux(testID, l)
	require.NoError(t, err)

	engine := ftp.New(ftp.Config{}, fsys, m)
	require.True(t, engine.Enabled())
	m.SetHandler(engine.Submit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()
	go func() { _ = engine.Serve(ctx) }()

	open := types.Packet{Seq: 10, Session: 1, Opcode: types.OpOpenFileRO}
	require.True(t, wire.PutPath(&open, "/logs/00000001.BIN"))
	s.inject(t, requestFrame(t, 1, open))

	ft := mavlink.UnmarshalFileTransfer(s.next(t).Payload)
	ack := wire.Decode(ft.Payload[:])
	assert.Equal(t, types.OpAck, ack.Opcode)
	assert.Equal(t, uint16(11), ack.Seq)
	assert.Equal(t, uint32(11), wire.Uint32(&ack))

	s.inject(t, requestFrame(t, 1, types.Packet{Seq: 12, Session: 1, Opcode: types.OpBurstReadFile, Size: 4}))

	var data []byte
	for {
		ft := mavlink.UnmarshalFileTransfer(s.next(t).Payload)
		p := wire.Decode(ft.Payload[:])
		if p.Opcode == types.OpNack {
			assert.Equal(t, types.ErrEndOfFile, types.ErrorCode(p.Data[0]))
			break
		}
		data = append(data, p.Payload()...)
		if p.BurstComplete {
			break
		}
	}
	assert.Equal(t, "flight data", string(data))
}

func TestUDPConn(t *testing.T) {
	u, err := ListenUDP("127.0.0.1", 0, "udp-test")
	require.NoError(t, err)
	defer u.Close()

	_, err = u.Write([]byte("early"))
	assert.True(t, errors.Is(err, errNoPeer))

	client, err := net.DialUDP("udp", nil, u.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 16)
	require.NoError(t, u.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := u.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf[:n]))

	_, err = u.Write([]byte("pong"))
	require.NoError(t, err)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err = client.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(buf[:n]))
}

func TestSerialBandwidth(t *testing.T) {
	assert.Equal(t, uint32(5760), SerialBandwidth(57600))
	assert.Equal(t, uint32(11520), SerialBandwidth(115200))
	assert.Zero(t, SerialBandwidth(0))
}
