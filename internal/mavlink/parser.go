package mavlink

import (
	"encoding/binary"
	"fmt"
)

// Parser decodes frames from a byte stream. Feed it with Write and drain
// it with Next. Garbage between frames is discarded; a frame failing its
// checksum costs only its magic byte, so the parser resynchronises on the
// next candidate. v2 frames of messages it does not decode are skipped
// whole when another frame follows them, so magic bytes inside their
// payload are not mistaken for frame starts.
//
// A Parser is not safe for concurrent use.
type Parser struct {
	buf       []byte
	discarded uint64
}

// NewParser returns an empty parser.
func NewParser() *Parser {
	return &Parser{buf: make([]byte, 0, 2*(HeaderLen+MaxPayloadLen+ChecksumLen+SignatureLen))}
}

// Write appends stream bytes. It never fails.
func (p *Parser) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	return len(b), nil
}

// Buffered returns the number of bytes waiting for a complete frame.
func (p *Parser) Buffered() int { return len(p.buf) }

// Discarded returns the number of garbage bytes dropped while resyncing.
func (p *Parser) Discarded() uint64 { return p.discarded }

// Next returns the next valid frame. ErrIncomplete means more input is
// needed. Any other error reports a frame that was skipped; the caller
// should keep calling Next.
func (p *Parser) Next() (Frame, error) {
	for {
		if !p.sync() {
			return Frame{}, ErrIncomplete
		}

		if p.buf[0] == MagicV1 {
			n, ok := p.v1Frame()
			if n == 0 {
				return Frame{}, ErrIncomplete
			}
			if ok {
				p.consume(n)
				return Frame{}, ErrV1Frame
			}
			p.skipByte()
			continue
		}

		if len(p.buf) < HeaderLen {
			return Frame{}, ErrIncomplete
		}
		plen := int(p.buf[1])
		incompat := p.buf[2]
		end := HeaderLen + plen
		n := end + ChecksumLen
		if incompat&IncompatSigned != 0 {
			n += SignatureLen
		}
		if len(p.buf) < n {
			return Frame{}, ErrIncomplete
		}

		msgID := uint32(p.buf[7]) | uint32(p.buf[8])<<8 | uint32(p.buf[9])<<16
		extra, ok := CRCExtra(msgID)
		if !ok {
			// Without CRC_EXTRA the checksum cannot be verified. Trust the
			// declared length only when another frame, or the end of the
			// input, follows it.
			if len(p.buf) > n && p.buf[n] != Magic && p.buf[n] != MagicV1 {
				p.skipByte()
				continue
			}
			p.consume(n)
			return Frame{}, fmt.Errorf("%w: %d", ErrUnknownMessage, msgID)
		}

		want := binary.LittleEndian.Uint16(p.buf[end:])
		if got := frameChecksum(p.buf[1:end], extra); got != want {
			p.consume(1)
			return Frame{}, fmt.Errorf("%w: msg %d got %#04x want %#04x", ErrBadCRC, msgID, got, want)
		}

		f := Frame{
			Incompat: incompat,
			Compat:   p.buf[3],
			Seq:      p.buf[4],
			SysID:    p.buf[5],
			CompID:   p.buf[6],
			MsgID:    msgID,
			Payload:  append([]byte(nil), p.buf[HeaderLen:end]...),
		}
		p.consume(n)

		if incompat&IncompatSigned != 0 {
			return Frame{}, ErrSignedFrame
		}
		return f, nil
	}
}

// skipByte drops a magic byte that did not start a frame.
func (p *Parser) skipByte() {
	p.discarded++
	p.consume(1)
}

// v1Frame checks the v1 frame at the head of buf. n is its length, or 0
// when more input is needed. ok reports a message we know whose checksum
// matches. Unknown message ids are rejected from the header alone, so a
// stray 0xFE does not hold back the frames after it.
func (p *Parser) v1Frame() (n int, ok bool) {
	if len(p.buf) < v1HeaderLen {
		return 0, false
	}
	end := v1HeaderLen + int(p.buf[1])
	n = end + ChecksumLen
	extra, known := CRCExtra(uint32(p.buf[5]))
	if !known {
		return n, false
	}
	if len(p.buf) < n {
		return 0, false
	}
	want := binary.LittleEndian.Uint16(p.buf[end:])
	return n, frameChecksum(p.buf[1:end], extra) == want
}

// sync drops bytes up to the next magic. Reports whether one was found.
func (p *Parser) sync() bool {
	for i, b := range p.buf {
		if b == Magic || b == MagicV1 {
			p.discarded += uint64(i)
			p.consume(i)
			return true
		}
	}
	p.discarded += uint64(len(p.buf))
	p.buf = p.buf[:0]
	return false
}

func (p *Parser) consume(n int) {
	if n == 0 {
		return
	}
	rest := copy(p.buf, p.buf[n:])
	p.buf = p.buf[:rest]
}
