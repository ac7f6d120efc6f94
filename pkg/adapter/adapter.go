// Package adapter defines the contract between the linkfs daemon and the
// protocol engines it hosts, plus the lifecycle plumbing they share.
package adapter

import "context"

// Adapter is a protocol engine served by the daemon.
//
// Lifecycle:
//  1. Creation: the engine is built with its configuration and collaborators
//  2. Serve: blocks processing requests until ctx is cancelled or Stop is called
//  3. Stop: stops accepting work and waits for in-flight requests
//
// Serve and Stop may be called from different goroutines. Stop is idempotent.
type Adapter interface {
	// Serve runs the engine until ctx is cancelled or Stop is called.
	//
	// Returns nil on graceful shutdown, or the error that prevented the
	// engine from running.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown and waits for in-flight work, bounded
	// by ctx and the engine's shutdown timeout.
	Stop(ctx context.Context) error

	// Protocol returns a short protocol name for logs and the status API.
	Protocol() string

	// MapError classifies err the way the protocol would report it on the wire.
	MapError(err error) ProtocolError
}
