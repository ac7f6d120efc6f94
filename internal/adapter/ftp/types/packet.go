package types

import "bytes"

const (
	// PayloadSize is the FTP payload carried by one FILE_TRANSFER_PROTOCOL message.
	PayloadSize = 251

	// HeaderSize is the fixed header preceding Data.
	HeaderSize = 12

	// DataSize is the capacity of Data.
	DataSize = PayloadSize - HeaderSize

	// NoSession marks a packet that belongs to no session.
	NoSession int8 = -1
)

// Packet is the decoded form of one request or reply. Channel, SysID and
// CompID come from the transport envelope, the rest from the payload.
type Packet struct {
	Channel uint8
	SysID   uint8
	CompID  uint8

	Seq           uint16
	Session       int8
	Opcode        Opcode
	Size          uint8
	ReqOpcode     Opcode
	BurstComplete bool
	Offset        uint32
	Data          [DataSize]byte
}

// SameClient reports whether p and q carry the same endpoint identity and session.
func (p *Packet) SameClient(q *Packet) bool {
	return p.SysID == q.SysID && p.CompID == q.CompID && p.Session == q.Session
}

// Payload returns the Data bytes counted by Size, bounded by DataSize.
func (p *Packet) Payload() []byte {
	n := int(p.Size)
	if n > DataSize {
		n = DataSize
	}
	return p.Data[:n]
}

// CString returns the bytes of Data up to the first NUL, or all of Data.
func (p *Packet) CString() []byte {
	if i := bytes.IndexByte(p.Data[:], 0); i >= 0 {
		return p.Data[:i]
	}
	return p.Data[:]
}
