package transport

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/adapter/ftp/wire"
	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/mavlink"
	"github.com/marmos91/linkfs/pkg/adapter/ftp"
)

// Identity is how linkfs appears on the bus.
type Identity struct {
	SystemID    uint8
	ComponentID uint8
	Version     string
	InstanceID  string
}

// Handler receives decoded FTP requests. It must not block.
type Handler func(req types.Packet) bool

// Mux owns the links by channel and implements ftp.Transport.
type Mux struct {
	id      Identity
	links   map[uint8]*Link
	handler Handler
}

var _ ftp.Transport = (*Mux)(nil)

// NewMux groups links. Channels must be unique.
func NewMux(id Identity, links ...*Link) (*Mux, error) {
	m := &Mux{id: id, links: make(map[uint8]*Link, len(links))}
	for _, l := range links {
		ch := l.cfg.Channel
		if _, dup := m.links[ch]; dup {
			return nil, fmt.Errorf("duplicate link channel %d", ch)
		}
		m.links[ch] = l
	}
	return m, nil
}

// SetHandler installs the request sink. Call before Run.
func (m *Mux) SetHandler(h Handler) {
	m.handler = h
}

// Run serves every link until ctx is cancelled or one fails.
func (m *Mux) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range m.links {
		g.Go(func() error {
			logger.Info("Link started",
				logger.KeyLink, l.cfg.Name,
				logger.Channel(l.cfg.Channel),
				logger.KeyLinkType, l.cfg.Type,
				logger.KeyBandwidth, l.cfg.Bandwidth)
			return l.Run(ctx, m.receive)
		})
	}
	return g.Wait()
}

// Close closes every link.
func (m *Mux) Close() error {
	var first error
	for _, l := range m.links {
		if err := l.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// receive routes FTP frames addressed to us, or broadcast, to the handler.
func (m *Mux) receive(l *Link, f mavlink.Frame) {
	if f.MsgID != mavlink.MsgIDFileTransfer || m.handler == nil {
		return
	}
	msg := mavlink.UnmarshalFileTransfer(f.Payload)
	if msg.TargetSystem != 0 && msg.TargetSystem != m.id.SystemID {
		return
	}

	req := wire.Decode(msg.Payload[:])
	req.Channel = l.cfg.Channel
	req.SysID = f.SysID
	req.CompID = f.CompID
	m.handler(req)
}

// Link returns the link on channel ch.
func (m *Mux) Link(ch uint8) (*Link, error) {
	l, ok := m.links[ch]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrChannelNotFound, ch)
	}
	return l, nil
}

// Stats returns per-link counters ordered by channel.
func (m *Mux) Stats() []LinkStats {
	out := make([]LinkStats, 0, len(m.links))
	for _, l := range m.links {
		out = append(out, l.Stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out
}

// TxSpace reports an unknown channel as empty so senders fail fast in Send.
func (m *Mux) TxSpace(ch uint8) int {
	if l, ok := m.links[ch]; ok {
		return l.TxSpace()
	}
	return 100
}

func (m *Mux) Lock(ch uint8) func() {
	if l, ok := m.links[ch]; ok {
		return l.Lock()
	}
	return func() {}
}

// Send frames reply as FILE_TRANSFER_PROTOCOL addressed to the requester.
// The caller holds the channel lock.
func (m *Mux) Send(reply *types.Packet) error {
	l, err := m.Link(reply.Channel)
	if err != nil {
		return err
	}
	msg := mavlink.FileTransfer{
		TargetSystem:    reply.SysID,
		TargetComponent: reply.CompID,
		Payload:         wire.Encode(reply),
	}
	return l.Send(m.frame(mavlink.MsgIDFileTransfer, msg.Marshal()))
}

func (m *Mux) FlowControl(ch uint8) bool {
	if l, ok := m.links[ch]; ok {
		return l.cfg.FlowControl
	}
	return false
}

func (m *Mux) Bandwidth(ch uint8) uint32 {
	if l, ok := m.links[ch]; ok {
		return l.cfg.Bandwidth
	}
	return 0
}

// FrameSize is the wire size of a FILE_TRANSFER_PROTOCOL frame carrying
// payloadLen FTP bytes.
func (m *Mux) FrameSize(_ uint8, payloadLen int) int {
	return mavlink.FrameLen(3 + payloadLen)
}

// Banner announces the daemon on ch with STATUSTEXT.
func (m *Mux) Banner(ch uint8) error {
	l, err := m.Link(ch)
	if err != nil {
		return err
	}

	lines := []string{"linkfs " + m.id.Version}
	if m.id.InstanceID != "" {
		lines = append(lines, "instance "+m.id.InstanceID)
	}

	unlock := l.Lock()
	defer unlock()
	for _, line := range lines {
		st := mavlink.StatusText{Severity: mavlink.SeverityInfo, Text: line}
		if err := l.Send(m.frame(mavlink.MsgIDStatusText, st.Marshal())); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mux) frame(msgID uint32, payload []byte) *mavlink.Frame {
	return &mavlink.Frame{
		SysID:   m.id.SystemID,
		CompID:  m.id.ComponentID,
		MsgID:   msgID,
		Payload: payload,
	}
}
