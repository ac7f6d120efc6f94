package types

import "fmt"

// Opcode identifies a request or reply.
type Opcode uint8

const (
	OpNone             Opcode = 0
	OpTerminateSession Opcode = 1
	OpResetSessions    Opcode = 2
	OpListDirectory    Opcode = 3
	OpOpenFileRO       Opcode = 4
	OpReadFile         Opcode = 5
	OpCreateFile       Opcode = 6
	OpWriteFile        Opcode = 7
	OpRemoveFile       Opcode = 8
	OpCreateDirectory  Opcode = 9
	OpRemoveDirectory  Opcode = 10
	OpOpenFileWO       Opcode = 11
	OpTruncateFile     Opcode = 12
	OpRename           Opcode = 13
	OpCalcFileCRC32    Opcode = 14
	OpBurstReadFile    Opcode = 15
	OpAck              Opcode = 128
	OpNack             Opcode = 129
)

var opcodeNames = map[Opcode]string{
	OpNone:             "None",
	OpTerminateSession: "TerminateSession",
	OpResetSessions:    "ResetSessions",
	OpListDirectory:    "ListDirectory",
	OpOpenFileRO:       "OpenFileRO",
	OpReadFile:         "ReadFile",
	OpCreateFile:       "CreateFile",
	OpWriteFile:        "WriteFile",
	OpRemoveFile:       "RemoveFile",
	OpCreateDirectory:  "CreateDirectory",
	OpRemoveDirectory:  "RemoveDirectory",
	OpOpenFileWO:       "OpenFileWO",
	OpTruncateFile:     "TruncateFile",
	OpRename:           "Rename",
	OpCalcFileCRC32:    "CalcFileCRC32",
	OpBurstReadFile:    "BurstReadFile",
	OpAck:              "Ack",
	OpNack:             "Nack",
}

// Known reports whether op is a defined opcode.
func (op Opcode) Known() bool {
	_, ok := opcodeNames[op]
	return ok
}

// IsReply reports whether op is Ack or Nack.
func (op Opcode) IsReply() bool {
	return op == OpAck || op == OpNack
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(op))
}
