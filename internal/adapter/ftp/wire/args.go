package wire

import (
	"bytes"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
)

// strnlen returns the index of the first NUL in b, or len(b).
func strnlen(b []byte) int {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return i
	}
	return len(b)
}

// ValidateNameLength checks a path argument against the declared Size.
// The path length must equal Size, or be one less when the client counted
// the terminator and the last Data byte is NUL. Size zero is never valid.
func ValidateNameLength(p *types.Packet) bool {
	size := int(p.Size)
	if size == 0 {
		return false
	}
	n := strnlen(p.Data[:])
	return n == size || (size-n == 1 && p.Data[types.DataSize-1] == 0)
}

// EnsureTerminated forces a NUL into the last Data byte so no argument can
// run past the buffer.
func EnsureTerminated(p *types.Packet) {
	p.Data[types.DataSize-1] = 0
}

// PathArg terminates Data and returns the path it holds. Call it only after
// ValidateNameLength.
func PathArg(p *types.Packet) string {
	EnsureTerminated(p)
	return string(p.CString())
}

// RenameArgs extracts the source and destination paths of a Rename request,
// stored back to back as NUL-terminated strings. ok is false when the
// lengths do not agree with Size under the same terminator tolerance as
// ValidateNameLength.
func RenameArgs(p *types.Packet) (from, to string, ok bool) {
	len1 := strnlen(p.Data[:types.DataSize-2])
	len2 := strnlen(p.Data[len1+1:])
	size := int(p.Size)

	countsFinalNul := size-(len1+len2) == 2 && p.Data[types.DataSize-1] == 0
	if p.Data[len1] != 0 || (len1+len2+1 != size && !countsFinalNul) || size == 0 {
		return "", "", false
	}

	EnsureTerminated(p)
	from = string(p.Data[:len1])
	to = string(p.Data[len1+1 : len1+1+strnlen(p.Data[len1+1:])])
	return from, to, true
}

// PutRenameArgs packs from and to into p the way clients do, with Size
// counting the separator but not the final terminator. ok is false when the
// paths do not fit.
func PutRenameArgs(p *types.Packet, from, to string) bool {
	n := len(from) + 1 + len(to)
	if n+1 > types.DataSize {
		return false
	}
	p.Data = [types.DataSize]byte{}
	copy(p.Data[:], from)
	copy(p.Data[len(from)+1:], to)
	p.Size = uint8(n)
	return true
}

// PutPath stores a path argument with Size equal to its length. ok is false
// when the path and its terminator do not fit.
func PutPath(p *types.Packet, path string) bool {
	if len(path)+1 > types.DataSize || path == "" {
		return false
	}
	p.Data = [types.DataSize]byte{}
	copy(p.Data[:], path)
	p.Size = uint8(len(path))
	return true
}
