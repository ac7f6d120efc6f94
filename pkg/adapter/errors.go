package adapter

// ProtocolError is an error classified into a protocol's wire error space.
//
// Adapters return it from MapError so that code outside the request path
// (status API, logs, metrics) reports failures with the same code a client
// would have received.
type ProtocolError interface {
	error

	// Code returns the protocol-specific error code.
	Code() uint32

	// Message returns a short human-readable description of Code.
	Message() string

	// Unwrap returns the underlying error, if any.
	Unwrap() error
}
