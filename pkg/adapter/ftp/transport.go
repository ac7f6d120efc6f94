package ftp

import "github.com/marmos91/linkfs/internal/adapter/ftp/types"

// Transport is the message bus the engine replies on. Channels are the
// logical link identifiers carried in types.Packet.Channel.
type Transport interface {
	// TxSpace returns the free transmit buffer of channel as a percentage.
	TxSpace(channel uint8) int

	// Lock acquires the send lock of channel and returns its release func.
	// Every sender on the channel shares this lock so frames never interleave.
	Lock(channel uint8) func()

	// Send transmits reply on reply.Channel addressed to reply.SysID and
	// reply.CompID. The caller holds the channel lock.
	Send(reply *types.Packet) error

	// FlowControl reports whether channel has hardware flow control.
	FlowControl(channel uint8) bool

	// Bandwidth returns the channel's bandwidth in bytes per second, 0 if unknown.
	Bandwidth(channel uint8) uint32

	// FrameSize returns the on-wire size of an FTP message whose payload is
	// payloadLen bytes long.
	FrameSize(channel uint8, payloadLen int) int

	// Banner broadcasts the daemon identity on channel. It takes the channel
	// lock itself.
	Banner(channel uint8) error
}
