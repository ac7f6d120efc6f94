// Package types contains the constants and records of the tunneled FTP
// protocol carried in MAVLink FILE_TRANSFER_PROTOCOL messages.
//
// # Payload Layout
//
// Every request and reply occupies the same 251-byte payload:
//
//	Offset  Size  Field           Description
//	------  ----  --------------  ----------------------------------
//	0       2     Seq             Sequence number (LE)
//	2       1     Session         Session id, -1 when none
//	3       1     Opcode          Command or Ack/Nack
//	4       1     Size            Bytes used in Data
//	5       1     ReqOpcode       Opcode being answered (replies)
//	6       1     BurstComplete   Last packet of a burst read
//	7       1     Reserved        Zero
//	8       4     Offset          File offset or listing index (LE)
//	12      239   Data            Paths, file content, listing text
//
// # Opcodes
//
// Opcode is a closed type: values outside the table decode verbatim and
// report Known() == false, so the worker can reject them with a Nack instead
// of misinterpreting them.
//
// # Errors
//
// A Nack carries an ErrorCode in Data[0]. FailErrno additionally carries the
// raw OS errno in Data[1].
package types
