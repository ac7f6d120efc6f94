package metrics

// LinkMetrics provides observability for telemetry links. Pass nil to disable.
type LinkMetrics interface {
	// RecordFrame counts a frame sent ("tx") or received ("rx") on link.
	RecordFrame(link string, direction string, bytes int)

	// RecordFrameError counts a corrupt frame or a failed write.
	RecordFrameError(link string, reason string)

	// RecordFrameIgnored counts a valid frame the engine does not serve:
	// another message id, MAVLink v1 or a signed frame.
	RecordFrameIgnored(link string, kind string)

	// RecordTxDrop counts a frame dropped because the transmit queue was full.
	RecordTxDrop(link string)
}
