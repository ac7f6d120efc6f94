// Package wire converts between FTP payload bytes and types.Packet, and
// holds the bounds-checked helpers for the variable-length arguments packed
// into Data.
package wire

import (
	"encoding/binary"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
)

// Header field offsets.
const (
	offSeq       = 0
	offSession   = 2
	offOpcode    = 3
	offSize      = 4
	offReqOpcode = 5
	offBurst     = 6
	offOffset    = 8
)

// Decode parses an FTP payload into a Packet. It never fails: a short
// payload is treated as zero-extended (MAVLink v2 drops trailing zeros) and
// bytes past PayloadSize are ignored. Opcodes are kept verbatim.
//
// Envelope fields (Channel, SysID, CompID) are left zero for the caller.
func Decode(payload []byte) types.Packet {
	var buf [types.PayloadSize]byte
	copy(buf[:], payload)

	p := types.Packet{
		Seq:           binary.LittleEndian.Uint16(buf[offSeq:]),
		Session:       int8(buf[offSession]),
		Opcode:        types.Opcode(buf[offOpcode]),
		Size:          buf[offSize],
		ReqOpcode:     types.Opcode(buf[offReqOpcode]),
		BurstComplete: buf[offBurst] != 0,
		Offset:        binary.LittleEndian.Uint32(buf[offOffset:]),
	}
	copy(p.Data[:], buf[types.HeaderSize:])
	return p
}

// Encode renders p as a full zero-padded payload.
func Encode(p *types.Packet) [types.PayloadSize]byte {
	var buf [types.PayloadSize]byte
	binary.LittleEndian.PutUint16(buf[offSeq:], p.Seq)
	buf[offSession] = byte(p.Session)
	buf[offOpcode] = byte(p.Opcode)
	buf[offSize] = p.Size
	buf[offReqOpcode] = byte(p.ReqOpcode)
	if p.BurstComplete {
		buf[offBurst] = 1
	}
	binary.LittleEndian.PutUint32(buf[offOffset:], p.Offset)
	copy(buf[types.HeaderSize:], p.Data[:])
	return buf
}

// PutUint32 stores v little-endian at the start of Data and sets Size to 4.
func PutUint32(p *types.Packet, v uint32) {
	binary.LittleEndian.PutUint32(p.Data[:4], v)
	p.Size = 4
}

// Uint32 reads a little-endian uint32 from the start of Data.
func Uint32(p *types.Packet) uint32 {
	return binary.LittleEndian.Uint32(p.Data[:4])
}
