package metrics

import "time"

// FTPMetrics provides observability for the FTP engine.
//
// The interface is optional: pass nil to the engine to disable collection.
// Label values are opcode and result names (types.Opcode.String,
// types.ErrorCode.String, "ack").
type FTPMetrics interface {
	// RecordRequest records a processed request with its opcode, outcome and
	// handling duration (including reply delivery).
	RecordRequest(opcode string, result string, duration time.Duration)

	// RecordQueueDrop counts a request dropped because the queue was full.
	RecordQueueDrop()

	// SetQueueDepth reports the number of requests waiting for the worker.
	SetQueueDepth(depth int)

	// RecordRetransmit counts a cached reply resent for a duplicate request.
	RecordRetransmit()

	// RecordBurst records one finished burst read.
	RecordBurst(packets int, bytes uint64)

	// RecordBytes counts file bytes moved by ReadFile ("read") or WriteFile ("write").
	RecordBytes(direction string, bytes uint64)

	// SetOpenFile reports whether the single file handle is in use.
	SetOpenFile(open bool)

	// RecordSessionTakeover counts a stale session force-closed by another.
	RecordSessionTakeover()
}
