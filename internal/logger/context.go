package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds the request-scoped fields of one FTP request.
type LogContext struct {
	TraceID   string
	SpanID    string
	Link      string // configured link name
	Channel   uint8
	SysID     uint8
	CompID    uint8
	Session   int8
	Opcode    string
	StartTime time.Time
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for a request received on channel.
func NewLogContext(channel, sysID, compID uint8, session int8) *LogContext {
	return &LogContext{
		Channel:   channel,
		SysID:     sysID,
		CompID:    compID,
		Session:   session,
		StartTime: time.Now(),
	}
}

// Clone returns a copy of lc.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithOpcode returns a copy with the opcode name set.
func (lc *LogContext) WithOpcode(op string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Opcode = op
	}
	return c
}

// WithTrace returns a copy with the trace and span ids set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.TraceID = traceID
		c.SpanID = spanID
	}
	return c
}

// DurationMs returns milliseconds elapsed since StartTime.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}
