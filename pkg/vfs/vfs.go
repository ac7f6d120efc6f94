// Package vfs defines the filesystem the FTP engine serves.
//
// Paths are slash-separated and interpreted relative to the backend root;
// a leading "/" is optional. Failures are returned as errors that carry an
// OS error number (usually a *fs.PathError wrapping a syscall.Errno) so the
// engine can translate them into wire error codes with Errno.
package vfs

import (
	"errors"
	"hash/crc32"
	"io"
	"io/fs"
	"path"
	"syscall"
)

// File is an open file. Reads and writes use the current position.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
}

// EntryType classifies a directory entry.
type EntryType uint8

const (
	TypeOther EntryType = iota
	TypeFile
	TypeDir
	TypeSymlink
)

// DirEntry is one name returned by Dir.Next.
type DirEntry struct {
	Name string
	Type EntryType
}

// Dir is an open directory stream.
type Dir interface {
	// Next returns the next entry, or io.EOF after the last one.
	Next() (DirEntry, error)
	Close() error
}

// FS is the set of operations the FTP engine needs from a filesystem.
type FS interface {
	// Open opens name with os.O_* flags.
	Open(name string, flag int) (File, error)
	Stat(name string) (fs.FileInfo, error)
	Mkdir(name string) error
	// Unlink removes a file or an empty directory.
	Unlink(name string) error
	Rename(oldname, newname string) error
	OpenDir(name string) (Dir, error)
	// CRC32 checksums the whole file (see Checksum).
	CRC32(name string) (uint32, error)
}

// Errno extracts the OS error number carried by err. Errors without one are
// classified by their fs sentinel, falling back to EIO. A nil error yields 0.
func Errno(err error) syscall.Errno {
	if err == nil {
		return 0
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, fs.ErrExist):
		return syscall.EEXIST
	case errors.Is(err, fs.ErrPermission):
		return syscall.EACCES
	case errors.Is(err, fs.ErrInvalid):
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}

// Checksum computes the file checksum expected by ground stations: the
// reflected CRC-32 polynomial (0xEDB88320) with a zero seed and no final
// inversion. hash/crc32 applies both inversions, so they are undone here.
func Checksum(r io.Reader) (uint32, error) {
	var (
		sum uint32
		buf [4096]byte
	)
	for {
		n, err := r.Read(buf[:])
		if n > 0 {
			sum = ^crc32.Update(^sum, crc32.IEEETable, buf[:n])
		}
		if err == io.EOF {
			return sum, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// Clean normalises name to an absolute slash path ("/" for the root).
func Clean(name string) string {
	return path.Clean("/" + name)
}

// Join joins a directory and an entry name.
func Join(dir, name string) string {
	return path.Join(Clean(dir), name)
}
