package mavlink

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func ftpFrame(seq uint8, payload ...byte) *Frame {
	m := FileTransfer{TargetNetwork: 0, TargetSystem: 255, TargetComponent: 190}
	copy(m.Payload[:], payload)
	return &Frame{Seq: seq, SysID: 1, CompID: 1, MsgID: MsgIDFileTransfer, Payload: m.Marshal()}
}

// v1Frame builds a MAVLink v1 frame with a valid checksum.
func v1Frame(msgID uint32, payload ...byte) []byte {
	buf := append([]byte{MagicV1, byte(len(payload)), 0, 1, 1, byte(msgID)}, payload...)
	extra, _ := CRCExtra(msgID)
	crc := frameChecksum(buf[1:], extra)
	return append(buf, byte(crc), byte(crc>>8))
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, uint16(0x6F91), Checksum([]byte("123456789")))
	assert.Equal(t, crcInit, Checksum(nil))
}

func TestEncodeKnownFrames(t *testing.T) {
	t.Run("FileTransfer", func(t *testing.T) {
		got, err := Encode(ftpFrame(7, 0x02, 0x01, 3, 4, 5))
		require.NoError(t, err)
		assert.Equal(t, mustHex(t, "fd0800000701016e000000ffbe020103040564db"), got)
	})

	t.Run("StatusText", func(t *testing.T) {
		m := StatusText{Severity: SeverityInfo, Text: "linkfs"}
		got, err := Encode(&Frame{SysID: 1, CompID: 1, MsgID: MsgIDStatusText, Payload: m.Marshal()})
		require.NoError(t, err)
		assert.Equal(t, mustHex(t, "fd070000000101fd0000066c696e6b667339e6"), got)
	})
}

func TestEncodeTruncation(t *testing.T) {
	got, err := Encode(&Frame{MsgID: MsgIDFileTransfer, Payload: make([]byte, FileTransferLen)})
	require.NoError(t, err)
	assert.Equal(t, byte(1), got[1], "an all-zero payload keeps one byte")
	assert.Len(t, got, FrameLen(1))

	_, err = Encode(&Frame{MsgID: 9999, Payload: []byte{1}})
	assert.ErrorIs(t, err, ErrUnknownMessage)

	_, err = Encode(&Frame{MsgID: MsgIDFileTransfer, Payload: make([]byte, MaxPayloadLen+1)})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestEncodeTo(t *testing.T) {
	f := ftpFrame(3, 0x01, 0x02)
	want, err := Encode(f)
	require.NoError(t, err)

	dst := make([]byte, FrameLen(MaxPayloadLen))
	n, err := EncodeTo(dst, f)
	require.NoError(t, err)
	assert.Equal(t, want, dst[:n])

	_, err = EncodeTo(make([]byte, n-1), f)
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	empty := &Frame{MsgID: MsgIDFileTransfer}
	n, err = EncodeTo(make([]byte, Overhead+1), empty)
	require.NoError(t, err)
	assert.Equal(t, Overhead+1, n)
}

func TestParserRoundTrip(t *testing.T) {
	p := NewParser()

	var stream []byte
	for i := 0; i < 3; i++ {
		b, err := Encode(ftpFrame(uint8(i), byte(i+1), 0, 0, 9))
		require.NoError(t, err)
		stream = append(stream, b...)
	}

	// Feed one byte at a time to exercise partial frames.
	var frames []Frame
	for _, b := range stream {
		_, _ = p.Write([]byte{b})
		for {
			f, err := p.Next()
			if errors.Is(err, ErrIncomplete) {
				break
			}
			require.NoError(t, err)
			frames = append(frames, f)
		}
	}

	require.Len(t, frames, 3)
	for i, f := range frames {
		assert.Equal(t, uint8(i), f.Seq)
		assert.Equal(t, MsgIDFileTransfer, f.MsgID)
		m := UnmarshalFileTransfer(f.Payload)
		assert.Equal(t, uint8(255), m.TargetSystem)
		assert.Equal(t, uint8(190), m.TargetComponent)
		assert.Equal(t, byte(i+1), m.Payload[0])
		assert.Equal(t, byte(9), m.Payload[3])
		assert.Zero(t, m.Payload[250], "zero-extended")
	}
	assert.Zero(t, p.Buffered())
}

// drain collects frames and skip errors until the parser needs more input.
func drain(p *Parser) ([]Frame, []error) {
	var (
		frames []Frame
		errs   []error
	)
	for {
		f, err := p.Next()
		switch {
		case errors.Is(err, ErrIncomplete):
			return frames, errs
		case err != nil:
			errs = append(errs, err)
		default:
			frames = append(frames, f)
		}
	}
}

func TestParserResync(t *testing.T) {
	good, err := Encode(ftpFrame(1, 0xAA))
	require.NoError(t, err)

	t.Run("LeadingGarbage", func(t *testing.T) {
		p := NewParser()
		_, _ = p.Write(append([]byte{0x00, 0x11, 0x22}, good...))
		frames, errs := drain(p)
		assert.Len(t, frames, 1)
		assert.Empty(t, errs)
		assert.Equal(t, uint64(3), p.Discarded())
	})

	t.Run("CorruptedThenGood", func(t *testing.T) {
		bad := bytes.Clone(good)
		bad[len(bad)-3] ^= 0xFF

		p := NewParser()
		_, _ = p.Write(append(bad, good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		assert.Equal(t, uint8(1), frames[0].Seq)
		require.NotEmpty(t, errs)
		assert.ErrorIs(t, errs[0], ErrBadCRC)
	})

	t.Run("UnknownMessage", func(t *testing.T) {
		unknown := []byte{Magic, 1, 0, 0, 0, 1, 1, 0x00, 0x00, 0x00, 0x42, 0x12, 0x34}
		p := NewParser()
		_, _ = p.Write(append(unknown, good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		assert.ErrorIs(t, errs[0], ErrUnknownMessage)
	})

	t.Run("V1Skipped", func(t *testing.T) {
		p := NewParser()
		_, _ = p.Write(append(v1Frame(MsgIDStatusText, SeverityInfo, 'h', 'i'), good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrV1Frame)
	})

	t.Run("StrayV1MagicDoesNotSwallowFrame", func(t *testing.T) {
		stray := []byte{MagicV1, 2, 0, 1, 1, 0, 0xAB, 0xCD, 0x00, 0x00}
		p := NewParser()
		_, _ = p.Write(append(stray, good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		assert.Empty(t, errs)
		assert.Equal(t, uint64(len(stray)), p.Discarded())
	})

	t.Run("V1BadChecksumRescanned", func(t *testing.T) {
		v1 := v1Frame(MsgIDFileTransfer, 0, 255, 190)
		v1[len(v1)-1] ^= 0xFF
		p := NewParser()
		_, _ = p.Write(append(v1, good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		assert.Empty(t, errs)
	})

	t.Run("MagicInsideUnknownFrame", func(t *testing.T) {
		// A HEARTBEAT whose payload holds a v1 magic must be skipped whole.
		heartbeat := []byte{Magic, 9, 0, 0, 7, 1, 1, 0x00, 0x00, 0x00,
			0x00, 0x00, 0x00, 0x00, MagicV1, 0x40, 0x03, 0x04, 0x03,
			0x5A, 0xFE}
		p := NewParser()
		_, _ = p.Write(append(heartbeat, good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		assert.Equal(t, MsgIDFileTransfer, frames[0].MsgID)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrUnknownMessage)
		assert.Zero(t, p.Buffered())
	})

	t.Run("FalseMagicInGarbage", func(t *testing.T) {
		garbage := []byte{Magic, 1, 0, 0, 0, 1, 1, 0x05, 0x00, 0x00, 0x42, 0x12, 0x34, 0x77}
		p := NewParser()
		_, _ = p.Write(append(garbage, good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		assert.Empty(t, errs)
		assert.Equal(t, uint64(len(garbage)), p.Discarded())
	})

	t.Run("SignedSkipped", func(t *testing.T) {
		signed := bytes.Clone(good)
		signed[2] = IncompatSigned
		// Incompat is covered by the checksum.
		end := HeaderLen + int(signed[1])
		extra, _ := CRCExtra(MsgIDFileTransfer)
		crc := frameChecksum(signed[1:end], extra)
		signed[end] = byte(crc)
		signed[end+1] = byte(crc >> 8)
		signed = append(signed, make([]byte, SignatureLen)...)

		p := NewParser()
		_, _ = p.Write(append(signed, good...))
		frames, errs := drain(p)
		require.Len(t, frames, 1)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrSignedFrame)
	})

	t.Run("PartialHeaderWaits", func(t *testing.T) {
		p := NewParser()
		_, _ = p.Write(good[:5])
		_, err := p.Next()
		assert.ErrorIs(t, err, ErrIncomplete)
		assert.Equal(t, 5, p.Buffered())
		_, _ = p.Write(good[5:])
		frames, _ := drain(p)
		assert.Len(t, frames, 1)
	})
}

func TestStatusText(t *testing.T) {
	long := StatusText{Severity: SeverityWarning, Text: string(bytes.Repeat([]byte("x"), 60))}
	got := UnmarshalStatusText(long.Marshal())
	assert.Equal(t, SeverityWarning, got.Severity)
	assert.Len(t, got.Text, StatusTextLen)

	short := UnmarshalStatusText([]byte{SeverityInfo, 'o', 'k'})
	assert.Equal(t, "ok", short.Text)
}
