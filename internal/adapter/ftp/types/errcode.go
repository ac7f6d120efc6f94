package types

import "fmt"

// ErrorCode is the reason carried in Data[0] of a Nack.
type ErrorCode uint8

const (
	ErrNone                ErrorCode = 0
	ErrFail                ErrorCode = 1 // unspecified failure
	ErrFailErrno           ErrorCode = 2 // OS error, errno in Data[1]
	ErrInvalidDataSize     ErrorCode = 3 // Size or path length mismatch
	ErrInvalidSession      ErrorCode = 4 // file held by another live session
	ErrNoSessionsAvailable ErrorCode = 5
	ErrEndOfFile           ErrorCode = 6 // read or listing past the end
	ErrUnknownCommand      ErrorCode = 7
	ErrFileExists          ErrorCode = 8
	ErrFileProtected       ErrorCode = 9
	ErrFileNotFound        ErrorCode = 10
)

var errorNames = [...]string{
	ErrNone:                "None",
	ErrFail:                "Fail",
	ErrFailErrno:           "FailErrno",
	ErrInvalidDataSize:     "InvalidDataSize",
	ErrInvalidSession:      "InvalidSession",
	ErrNoSessionsAvailable: "NoSessionsAvailable",
	ErrEndOfFile:           "EndOfFile",
	ErrUnknownCommand:      "UnknownCommand",
	ErrFileExists:          "FileExists",
	ErrFileProtected:       "FileProtected",
	ErrFileNotFound:        "FileNotFound",
}

func (e ErrorCode) String() string {
	if int(e) < len(errorNames) {
		return errorNames[e]
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(e))
}
