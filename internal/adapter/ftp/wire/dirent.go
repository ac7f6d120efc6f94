package wire

import "strconv"

// Directory listing markers.
const (
	MarkerFile = 'F'
	MarkerDir  = 'D'
)

// DirEntry is one formatted line of a ListDirectory reply.
type DirEntry struct {
	Name string
	Dir  bool
	Size int64 // files only
}

// AppendDirEntry appends e as "F<name>\t<size>\x00" or "D<name>\x00".
func AppendDirEntry(dst []byte, e DirEntry) []byte {
	if e.Dir {
		dst = append(dst, MarkerDir)
		dst = append(dst, e.Name...)
		return append(dst, 0)
	}
	dst = append(dst, MarkerFile)
	dst = append(dst, e.Name...)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, e.Size, 10)
	return append(dst, 0)
}

// EncodedLen returns the number of bytes AppendDirEntry writes for e.
func (e DirEntry) EncodedLen() int {
	if e.Dir {
		return len(e.Name) + 2
	}
	return len(e.Name) + 3 + len(strconv.FormatInt(e.Size, 10))
}

// ParseDirEntries splits listing data back into entries. Empty segments
// and unknown markers are skipped, matching what ground stations tolerate.
func ParseDirEntries(data []byte) []DirEntry {
	var out []DirEntry
	for len(data) > 0 {
		n := strnlen(data)
		seg := data[:n]
		if n < len(data) {
			data = data[n+1:]
		} else {
			data = nil
		}
		if len(seg) == 0 {
			continue
		}

		switch seg[0] {
		case MarkerDir:
			out = append(out, DirEntry{Name: string(seg[1:]), Dir: true})
		case MarkerFile:
			name, size := string(seg[1:]), int64(0)
			for i := len(seg) - 1; i > 0; i-- {
				if seg[i] == '\t' {
					name = string(seg[1:i])
					size, _ = strconv.ParseInt(string(seg[i+1:]), 10, 64)
					break
				}
			}
			out = append(out, DirEntry{Name: name, Size: size})
		}
	}
	return out
}
