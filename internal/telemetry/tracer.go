package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanRequest = "ftp.request"
	SpanBurst   = "ftp.burst"
	SpanListDir = "ftp.list_directory"
)

// Attribute keys for FTP spans.
const (
	AttrLink       = "link.name"
	AttrChannel    = "link.channel"
	AttrSysID      = "mavlink.sysid"
	AttrCompID     = "mavlink.compid"
	AttrSession    = "ftp.session"
	AttrSeq        = "ftp.seq"
	AttrOpcode     = "ftp.opcode"
	AttrOffset     = "ftp.offset"
	AttrSize       = "ftp.size"
	AttrPath       = "ftp.path"
	AttrResult     = "ftp.result"
	AttrErrno      = "ftp.errno"
	AttrPackets    = "ftp.burst.packets"
	AttrBytes      = "ftp.burst.bytes"
	AttrEntries    = "ftp.list.entries"
	AttrRetransmit = "ftp.retransmit"
)

// RequestAttrs describes an incoming FTP request for span creation.
type RequestAttrs struct {
	Channel uint8
	SysID   uint8
	CompID  uint8
	Session int8
	Seq     uint16
	Opcode  string
	Offset  uint32
	Size    uint8
}

// StartRequestSpan starts the server span covering one FTP request.
func StartRequestSpan(ctx context.Context, r RequestAttrs) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanRequest,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.Int(AttrChannel, int(r.Channel)),
			attribute.Int(AttrSysID, int(r.SysID)),
			attribute.Int(AttrCompID, int(r.CompID)),
			attribute.Int(AttrSession, int(r.Session)),
			attribute.Int(AttrSeq, int(r.Seq)),
			attribute.String(AttrOpcode, r.Opcode),
			attribute.Int64(AttrOffset, int64(r.Offset)),
			attribute.Int(AttrSize, int(r.Size)),
		),
	)
}

// Path returns the attribute for a request path.
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// Result returns the attribute for a reply outcome ("ack" or an error kind).
func Result(r string) attribute.KeyValue {
	return attribute.String(AttrResult, r)
}

// Entries returns the attribute for the number of listed entries.
func Entries(n int) attribute.KeyValue {
	return attribute.Int(AttrEntries, n)
}

// Burst returns the attributes describing a finished burst read.
func Burst(packets int, bytes uint64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrPackets, packets),
		attribute.Int64(AttrBytes, int64(bytes)),
	}
}
