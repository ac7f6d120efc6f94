package logger

import (
	"log/slog"
	"syscall"
)

// Standard field keys. Every log statement in linkfs uses these keys so that
// link, session and file activity can be correlated across components.
const (
	// Tracing
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// Link layer
	KeyLink      = "link"      // configured link name
	KeyChannel   = "channel"   // logical transport channel
	KeyLinkType  = "type"      // udp, serial
	KeyAddress   = "address"   // socket address or serial device
	KeyPeer      = "peer"      // remote UDP endpoint
	KeyMsgID     = "msgid"     // MAVLink message id
	KeyDropped   = "dropped"   // frames or requests dropped
	KeyBaud      = "baud"      // serial baud rate
	KeyBandwidth = "bandwidth" // link bandwidth in bytes per second

	// Request identity
	KeySysID   = "sysid"
	KeyCompID  = "compid"
	KeySession = "session"
	KeySeq     = "seq"
	KeyOpcode  = "opcode"

	// File activity
	KeyPath    = "path"
	KeyOldPath = "old_path"
	KeyNewPath = "new_path"
	KeyMode    = "mode"
	KeyOffset  = "offset"
	KeySize    = "size"
	KeyEntries = "entries"
	KeyPackets = "packets"
	KeyDelay   = "delay"

	// Outcome
	KeyResult     = "result" // ack, or the wire error kind
	KeyErrno      = "errno"
	KeyError      = "error"
	KeyDurationMs = "duration_ms"
)

// Channel returns an attr for a transport channel.
func Channel(ch uint8) slog.Attr {
	return slog.Int(KeyChannel, int(ch))
}

// Session returns an attr for an FTP session id.
func Session(s int8) slog.Attr {
	return slog.Int(KeySession, int(s))
}

// Seq returns an attr for a packet sequence number.
func Seq(seq uint16) slog.Attr {
	return slog.Int(KeySeq, int(seq))
}

// Path returns an attr for a filesystem path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Offset returns an attr for a file offset.
func Offset(off uint32) slog.Attr {
	return slog.Uint64(KeyOffset, uint64(off))
}

// Size returns an attr for a byte count.
func Size(n int) slog.Attr {
	return slog.Int(KeySize, n)
}

// Errno returns an attr naming an OS error code. Zero renders as "0".
func Errno(e syscall.Errno) slog.Attr {
	return slog.String(KeyErrno, errnoName(e))
}

// Err returns an attr for an error, or an empty attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns an attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
