// Package memfs is an in-memory vfs.FS. It backs tests and dry runs of the
// daemon and reports the same errno values a POSIX filesystem would.
package memfs

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/marmos91/linkfs/pkg/vfs"
)

type node struct {
	name     string
	dir      bool
	data     []byte
	children map[string]*node
	modTime  time.Time
}

func newDir(name string) *node {
	return &node{name: name, dir: true, children: make(map[string]*node), modTime: time.Now()}
}

// FS is an in-memory filesystem safe for concurrent use.
type FS struct {
	mu   sync.RWMutex
	root *node
}

var _ vfs.FS = (*FS)(nil)

// New returns an empty filesystem containing only "/".
func New() *FS {
	return &FS{root: newDir("/")}
}

func pathErr(op, name string, errno syscall.Errno) error {
	return &fs.PathError{Op: op, Path: name, Err: errno}
}

// split returns the cleaned parent directory and base name of p.
func split(p string) (string, string) {
	c := vfs.Clean(p)
	return path.Dir(c), path.Base(c)
}

// lookup walks to p. Callers hold mu.
func (m *FS) lookup(op, p string) (*node, error) {
	n := m.root
	c := vfs.Clean(p)
	if c == "/" {
		return n, nil
	}
	for _, part := range strings.Split(c[1:], "/") {
		if !n.dir {
			return nil, pathErr(op, p, syscall.ENOTDIR)
		}
		child, ok := n.children[part]
		if !ok {
			return nil, pathErr(op, p, syscall.ENOENT)
		}
		n = child
	}
	return n, nil
}

// parent returns the directory that holds p. Callers hold mu.
func (m *FS) parent(op, p string) (*node, string, error) {
	dir, base := split(p)
	if base == "/" {
		return nil, "", pathErr(op, p, syscall.EBUSY)
	}
	d, err := m.lookup(op, dir)
	if err != nil {
		return nil, "", pathErr(op, p, vfs.Errno(err))
	}
	if !d.dir {
		return nil, "", pathErr(op, p, syscall.ENOTDIR)
	}
	return d, base, nil
}

func (m *FS) Open(name string, flag int) (vfs.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	writable := flag&(os.O_WRONLY|os.O_RDWR) != 0

	n, err := m.lookup("open", name)
	switch {
	case err == nil:
		if flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0 {
			return nil, pathErr("open", name, syscall.EEXIST)
		}
		if n.dir && writable {
			return nil, pathErr("open", name, syscall.EISDIR)
		}
		if flag&os.O_TRUNC != 0 && writable {
			n.data = nil
			n.modTime = time.Now()
		}
	case vfs.Errno(err) == syscall.ENOENT && flag&os.O_CREATE != 0:
		d, base, perr := m.parent("open", name)
		if perr != nil {
			return nil, perr
		}
		n = &node{name: base, modTime: time.Now()}
		d.children[base] = n
	default:
		return nil, err
	}

	return &file{fs: m, n: n, name: name, flag: flag}, nil
}

func (m *FS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return n.info(), nil
}

func (m *FS) Mkdir(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, base, err := m.parent("mkdir", name)
	if err != nil {
		if vfs.Clean(name) == "/" {
			return pathErr("mkdir", name, syscall.EEXIST)
		}
		return err
	}
	if _, ok := d.children[base]; ok {
		return pathErr("mkdir", name, syscall.EEXIST)
	}
	d.children[base] = newDir(base)
	return nil
}

// MkdirAll creates name and any missing parents.
func (m *FS) MkdirAll(name string) error {
	c := vfs.Clean(name)
	if c == "/" {
		return nil
	}
	cur := ""
	for _, part := range strings.Split(c[1:], "/") {
		cur += "/" + part
		if err := m.Mkdir(cur); err != nil && vfs.Errno(err) != syscall.EEXIST {
			return err
		}
	}
	info, err := m.Stat(c)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return pathErr("mkdir", name, syscall.ENOTDIR)
	}
	return nil
}

// WriteFile creates or replaces name with data, creating parent directories.
func (m *FS) WriteFile(name string, data []byte) error {
	if err := m.MkdirAll(path.Dir(vfs.Clean(name))); err != nil {
		return err
	}
	f, err := m.Open(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile returns the contents of name.
func (m *FS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookup("open", name)
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, pathErr("read", name, syscall.EISDIR)
	}
	return bytes.Clone(n.data), nil
}

func (m *FS) Unlink(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, base, err := m.parent("unlink", name)
	if err != nil {
		return err
	}
	n, ok := d.children[base]
	if !ok {
		return pathErr("unlink", name, syscall.ENOENT)
	}
	if n.dir && len(n.children) > 0 {
		return pathErr("unlink", name, syscall.ENOTEMPTY)
	}
	delete(d.children, base)
	return nil
}

func (m *FS) Rename(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, sbase, err := m.parent("rename", oldname)
	if err != nil {
		return err
	}
	n, ok := src.children[sbase]
	if !ok {
		return pathErr("rename", oldname, syscall.ENOENT)
	}

	dst, dbase, err := m.parent("rename", newname)
	if err != nil {
		return err
	}

	oldc, newc := vfs.Clean(oldname), vfs.Clean(newname)
	if oldc == newc {
		return nil
	}
	if n.dir && strings.HasPrefix(newc, oldc+"/") {
		return pathErr("rename", newname, syscall.EINVAL)
	}

	if existing, ok := dst.children[dbase]; ok {
		switch {
		case existing.dir && !n.dir:
			return pathErr("rename", newname, syscall.EISDIR)
		case !existing.dir && n.dir:
			return pathErr("rename", newname, syscall.ENOTDIR)
		case existing.dir && len(existing.children) > 0:
			return pathErr("rename", newname, syscall.ENOTEMPTY)
		}
	}

	delete(src.children, sbase)
	n.name = dbase
	dst.children[dbase] = n
	return nil
}

func (m *FS) OpenDir(name string) (vfs.Dir, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookup("opendir", name)
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, pathErr("opendir", name, syscall.ENOTDIR)
	}

	entries := make([]vfs.DirEntry, 0, len(n.children))
	for childName, c := range n.children {
		t := vfs.TypeFile
		if c.dir {
			t = vfs.TypeDir
		}
		entries = append(entries, vfs.DirEntry{Name: childName, Type: t})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return &dirStream{entries: entries}, nil
}

func (m *FS) CRC32(name string) (uint32, error) {
	data, err := m.ReadFile(name)
	if err != nil {
		return 0, err
	}
	return vfs.Checksum(bytes.NewReader(data))
}

type dirStream struct {
	entries []vfs.DirEntry
	pos     int
	closed  bool
}

func (d *dirStream) Next() (vfs.DirEntry, error) {
	if d.closed || d.pos >= len(d.entries) {
		return vfs.DirEntry{}, io.EOF
	}
	e := d.entries[d.pos]
	d.pos++
	return e, nil
}

func (d *dirStream) Close() error {
	d.closed = true
	return nil
}

// file is an open handle with its own position.
type file struct {
	fs     *FS
	n      *node
	name   string
	flag   int
	pos    int64
	closed bool
}

func (f *file) readable() bool {
	return f.flag&os.O_WRONLY == 0
}

func (f *file) writable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != 0
}

func (f *file) Read(p []byte) (int, error) {
	if f.closed {
		return 0, pathErr("read", f.name, syscall.EBADF)
	}
	if !f.readable() {
		return 0, pathErr("read", f.name, syscall.EBADF)
	}

	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	if f.n.dir {
		return 0, pathErr("read", f.name, syscall.EISDIR)
	}
	if f.pos >= int64(len(f.n.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.n.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *file) Write(p []byte) (int, error) {
	if f.closed || !f.writable() {
		return 0, pathErr("write", f.name, syscall.EBADF)
	}

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	if f.flag&os.O_APPEND != 0 {
		f.pos = int64(len(f.n.data))
	}
	end := f.pos + int64(len(p))
	if end > int64(len(f.n.data)) {
		grown := make([]byte, end)
		copy(grown, f.n.data)
		f.n.data = grown
	}
	copy(f.n.data[f.pos:], p)
	f.pos = end
	f.n.modTime = time.Now()
	return len(p), nil
}

func (f *file) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, pathErr("seek", f.name, syscall.EBADF)
	}

	f.fs.mu.RLock()
	size := int64(len(f.n.data))
	f.fs.mu.RUnlock()

	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.pos + offset
	case io.SeekEnd:
		abs = size + offset
	default:
		return 0, pathErr("seek", f.name, syscall.EINVAL)
	}
	if abs < 0 {
		return 0, pathErr("seek", f.name, syscall.EINVAL)
	}
	f.pos = abs
	return abs, nil
}

func (f *file) Close() error {
	if f.closed {
		return pathErr("close", f.name, syscall.EBADF)
	}
	f.closed = true
	return nil
}

func (n *node) info() fs.FileInfo {
	return fileInfo{name: n.name, size: int64(len(n.data)), dir: n.dir, modTime: n.modTime}
}

type fileInfo struct {
	name    string
	size    int64
	dir     bool
	modTime time.Time
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) ModTime() time.Time { return fi.modTime }
func (fi fileInfo) IsDir() bool        { return fi.dir }
func (fi fileInfo) Sys() any           { return nil }

func (fi fileInfo) Mode() fs.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
