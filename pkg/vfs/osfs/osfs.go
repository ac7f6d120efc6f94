// Package osfs serves a host directory through vfs.FS. Every operation goes
// through an os.Root, so request paths cannot escape the directory.
package osfs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/marmos91/linkfs/pkg/vfs"
)

// FS is a vfs.FS rooted at a host directory.
type FS struct {
	root *os.Root
	dir  string
}

var _ vfs.FS = (*FS)(nil)

// New opens dir as the filesystem root.
func New(dir string) (*FS, error) {
	r, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open root %q: %w", dir, err)
	}
	return &FS{root: r, dir: dir}, nil
}

// Dir returns the host directory being served.
func (f *FS) Dir() string { return f.dir }

// Close releases the root directory handle.
func (f *FS) Close() error { return f.root.Close() }

// rel maps a request path to a root-relative name.
func rel(name string) string {
	c := vfs.Clean(name)
	if c == "/" {
		return "."
	}
	return c[1:]
}

func (f *FS) Open(name string, flag int) (vfs.File, error) {
	fh, err := f.root.OpenFile(rel(name), flag, 0o644)
	if err != nil {
		return nil, err
	}
	return fh, nil
}

func (f *FS) Stat(name string) (fs.FileInfo, error) {
	return f.root.Stat(rel(name))
}

func (f *FS) Mkdir(name string) error {
	return f.root.Mkdir(rel(name), 0o755)
}

func (f *FS) Unlink(name string) error {
	return f.root.Remove(rel(name))
}

func (f *FS) Rename(oldname, newname string) error {
	return f.root.Rename(rel(oldname), rel(newname))
}

func (f *FS) CRC32(name string) (uint32, error) {
	fh, err := f.root.Open(rel(name))
	if err != nil {
		return 0, err
	}
	defer fh.Close()
	return vfs.Checksum(fh)
}

// OpenDir snapshots the directory in name order so paginated listings see
// a stable sequence between requests.
func (f *FS) OpenDir(name string) (vfs.Dir, error) {
	fh, err := f.root.Open(rel(name))
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	entries, err := fh.ReadDir(-1)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	out := make([]vfs.DirEntry, len(entries))
	for i, e := range entries {
		out[i] = vfs.DirEntry{Name: e.Name(), Type: entryType(e.Type())}
	}
	return &dir{entries: out}, nil
}

func entryType(m fs.FileMode) vfs.EntryType {
	switch {
	case m.IsDir():
		return vfs.TypeDir
	case m&fs.ModeSymlink != 0:
		return vfs.TypeSymlink
	case m.IsRegular():
		return vfs.TypeFile
	default:
		return vfs.TypeOther
	}
}

type dir struct {
	entries []vfs.DirEntry
	pos     int
}

func (d *dir) Next() (vfs.DirEntry, error) {
	if d.pos >= len(d.entries) {
		return vfs.DirEntry{}, io.EOF
	}
	e := d.entries[d.pos]
	d.pos++
	return e, nil
}

func (d *dir) Close() error { return nil }
