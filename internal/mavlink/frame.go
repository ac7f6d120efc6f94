// Package mavlink implements the subset of MAVLink v2 framing linkfs needs:
// encoding and streaming decode of FILE_TRANSFER_PROTOCOL and STATUSTEXT.
//
// Frame layout:
//
//	0xFD len incompat compat seq sysid compid msgid(3, LE) payload crc(2, LE) [signature(13)]
//
// The checksum is CRC-16/MCRF4XX over len..payload followed by the
// message's CRC_EXTRA byte.
package mavlink

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// Magic starts a MAVLink v2 frame.
	Magic byte = 0xFD

	// MagicV1 starts a MAVLink v1 frame. v1 frames are recognised and skipped.
	MagicV1 byte = 0xFE

	// HeaderLen is the v2 header length including the magic byte.
	HeaderLen = 10

	// ChecksumLen is the trailing checksum length.
	ChecksumLen = 2

	// SignatureLen is the length of the optional signature block.
	SignatureLen = 13

	// MaxPayloadLen is the largest payload a frame can carry.
	MaxPayloadLen = 255

	// IncompatSigned marks a frame followed by a signature block.
	IncompatSigned byte = 0x01

	v1HeaderLen = 6
)

// Overhead is the framing cost added to a payload on the wire, unsigned.
const Overhead = HeaderLen + ChecksumLen

var (
	ErrPayloadTooLarge = errors.New("mavlink: payload too large")
	ErrUnknownMessage  = errors.New("mavlink: unknown message id")
	ErrBadCRC          = errors.New("mavlink: bad checksum")
	ErrV1Frame         = errors.New("mavlink: v1 frame skipped")
	ErrSignedFrame     = errors.New("mavlink: signed frame skipped")
	ErrIncomplete      = errors.New("mavlink: incomplete frame")
)

// Frame is a decoded v2 frame. Payload is zero-extended by the caller's
// message decoder, never by the parser.
type Frame struct {
	Seq      uint8
	SysID    uint8
	CompID   uint8
	MsgID    uint32
	Incompat byte
	Compat   byte
	Payload  []byte
}

// Encode renders f as an unsigned v2 frame. Trailing zero bytes of the
// payload are dropped, keeping at least one byte.
func Encode(f *Frame) ([]byte, error) {
	buf := make([]byte, FrameLen(max(len(f.Payload), 1)))
	n, err := EncodeTo(buf, f)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// EncodeTo frames f into dst and returns the number of bytes written. dst
// must hold FrameLen of the payload length, at least one byte.
func EncodeTo(dst []byte, f *Frame) (int, error) {
	extra, ok := CRCExtra(f.MsgID)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMessage, f.MsgID)
	}
	if len(f.Payload) > MaxPayloadLen {
		return 0, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(f.Payload))
	}

	payload := bytes.TrimRight(f.Payload, "\x00")
	if len(payload) == 0 {
		payload = []byte{0}
	}

	end := HeaderLen + len(payload)
	if len(dst) < end+ChecksumLen {
		return 0, io.ErrShortBuffer
	}

	dst[0] = Magic
	dst[1] = byte(len(payload))
	dst[2] = f.Incompat &^ IncompatSigned
	dst[3] = f.Compat
	dst[4] = f.Seq
	dst[5] = f.SysID
	dst[6] = f.CompID
	dst[7] = byte(f.MsgID)
	dst[8] = byte(f.MsgID >> 8)
	dst[9] = byte(f.MsgID >> 16)
	copy(dst[HeaderLen:], payload)

	binary.LittleEndian.PutUint16(dst[end:], frameChecksum(dst[1:end], extra))
	return end + ChecksumLen, nil
}

// FrameLen returns the wire length of an unsigned frame carrying payloadLen
// bytes before truncation.
func FrameLen(payloadLen int) int {
	return Overhead + payloadLen
}
