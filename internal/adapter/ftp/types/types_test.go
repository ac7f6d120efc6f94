package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeKnown(t *testing.T) {
	for op := range opcodeNames {
		assert.True(t, op.Known(), op.String())
	}

	for _, raw := range []uint8{16, 42, 127, 130, 255} {
		op := Opcode(raw)
		assert.False(t, op.Known())
		assert.Contains(t, op.String(), "Unknown(")
	}
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "BurstReadFile", OpBurstReadFile.String())
	assert.Equal(t, "Nack", OpNack.String())
	assert.Equal(t, "Unknown(77)", Opcode(77).String())
}

func TestOpcodeIsReply(t *testing.T) {
	assert.True(t, OpAck.IsReply())
	assert.True(t, OpNack.IsReply())
	assert.False(t, OpNone.IsReply())
	assert.False(t, OpReadFile.IsReply())
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "FileNotFound", ErrFileNotFound.String())
	assert.Equal(t, "InvalidSession", ErrInvalidSession.String())
	assert.Equal(t, "ErrorCode(200)", ErrorCode(200).String())
}

func TestSizes(t *testing.T) {
	assert.Equal(t, 239, DataSize)
	assert.Equal(t, PayloadSize, HeaderSize+DataSize)
}

func TestPacketHelpers(t *testing.T) {
	p := Packet{SysID: 255, CompID: 190, Session: 1}
	copy(p.Data[:], "/a.txt")
	p.Size = 6

	assert.Equal(t, []byte("/a.txt"), p.Payload())
	assert.Equal(t, []byte("/a.txt"), p.CString())

	p.Size = 250
	assert.Len(t, p.Payload(), DataSize)

	q := p
	assert.True(t, p.SameClient(&q))
	q.Session = 2
	assert.False(t, p.SameClient(&q))
}
