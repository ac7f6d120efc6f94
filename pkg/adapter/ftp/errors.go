package ftp

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/pkg/adapter"
	"github.com/marmos91/linkfs/pkg/vfs"
)

var (
	// ErrDisabled is returned by Serve when the engine failed to initialise.
	ErrDisabled = errors.New("ftp engine disabled")

	// ErrAlreadyStarted is returned by a second call to Serve.
	ErrAlreadyStarted = errors.New("ftp engine already started")
)

// Error is a failure classified into the FTP wire error space.
type Error struct {
	Kind  types.ErrorCode
	Errno syscall.Errno // set when Kind is ErrFailErrno
	Err   error
}

var _ adapter.ProtocolError = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message(), e.Err)
	}
	return e.Message()
}

// Code returns the wire error code.
func (e *Error) Code() uint32 { return uint32(e.Kind) }

// Message returns the error kind name, with the errno when it is passed through.
func (e *Error) Message() string {
	if e.Kind == types.ErrFailErrno && e.Errno != 0 {
		return fmt.Sprintf("%s(%d)", e.Kind, uint8(e.Errno))
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// classify maps a filesystem error to its reply code. EEXIST and ENOENT
// get dedicated codes; anything else is FailErrno with the raw errno.
func classify(err error) (types.ErrorCode, syscall.Errno) {
	switch errno := vfs.Errno(err); errno {
	case syscall.EEXIST:
		return types.ErrFileExists, 0
	case syscall.ENOENT:
		return types.ErrFileNotFound, 0
	default:
		return types.ErrFailErrno, errno
	}
}

// MapError classifies err the way the worker reports it to clients.
func (a *Adapter) MapError(err error) adapter.ProtocolError {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	kind, errno := classify(err)
	return &Error{Kind: kind, Errno: errno, Err: err}
}

// makeError turns reply into a Nack carrying kind. For ErrFailErrno the
// errno carried by err is translated by classify.
func makeError(reply *types.Packet, kind types.ErrorCode, err error) {
	reply.Opcode = types.OpNack
	reply.Data = [types.DataSize]byte{}
	reply.Size = 1

	if kind != types.ErrFailErrno {
		reply.Data[0] = byte(kind)
		return
	}

	code, errno := classify(err)
	reply.Data[0] = byte(code)
	if code == types.ErrFailErrno {
		reply.Data[1] = byte(errno)
		reply.Size = 2
	}
}
