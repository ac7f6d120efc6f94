package mavlink

import (
	"bytes"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
)

// Message ids handled by linkfs.
const (
	MsgIDFileTransfer uint32 = 110
	MsgIDStatusText   uint32 = 253
)

// crcExtras holds the CRC_EXTRA seed of every message the parser accepts.
var crcExtras = map[uint32]byte{
	MsgIDFileTransfer: 84,
	MsgIDStatusText:   83,
}

// CRCExtra returns the CRC_EXTRA seed for msgID.
func CRCExtra(msgID uint32) (byte, bool) {
	extra, ok := crcExtras[msgID]
	return extra, ok
}

// FileTransfer is the FILE_TRANSFER_PROTOCOL message.
type FileTransfer struct {
	TargetNetwork   uint8
	TargetSystem    uint8
	TargetComponent uint8
	Payload         [types.PayloadSize]byte
}

// FileTransferLen is the untruncated wire length of FileTransfer.
const FileTransferLen = 3 + types.PayloadSize

// Marshal returns the full payload; Encode drops the trailing zeros.
func (m *FileTransfer) Marshal() []byte {
	buf := make([]byte, FileTransferLen)
	buf[0] = m.TargetNetwork
	buf[1] = m.TargetSystem
	buf[2] = m.TargetComponent
	copy(buf[3:], m.Payload[:])
	return buf
}

// UnmarshalFileTransfer decodes p, zero-extending a truncated payload.
func UnmarshalFileTransfer(p []byte) FileTransfer {
	var buf [FileTransferLen]byte
	copy(buf[:], p)

	m := FileTransfer{
		TargetNetwork:   buf[0],
		TargetSystem:    buf[1],
		TargetComponent: buf[2],
	}
	copy(m.Payload[:], buf[3:])
	return m
}

// Severity levels of STATUSTEXT, as in syslog.
const (
	SeverityEmergency uint8 = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

// StatusTextLen is the length of the text field; longer text is cut.
const StatusTextLen = 50

// StatusText is the STATUSTEXT message without its chunking extensions.
type StatusText struct {
	Severity uint8
	Text     string
}

func (m *StatusText) Marshal() []byte {
	buf := make([]byte, 1+StatusTextLen)
	buf[0] = m.Severity
	copy(buf[1:], m.Text)
	return buf
}

// UnmarshalStatusText decodes p. The text ends at the first NUL.
func UnmarshalStatusText(p []byte) StatusText {
	var buf [1 + StatusTextLen]byte
	copy(buf[:], p)

	text := buf[1:]
	if i := bytes.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	return StatusText{Severity: buf[0], Text: string(text)}
}
