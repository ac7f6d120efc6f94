package osfs

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/linkfs/pkg/vfs"
)

func newFS(t *testing.T) (*FS, string) {
	t.Helper()
	dir := t.TempDir()
	f, err := New(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, dir
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestCreateWriteRead(t *testing.T) {
	f, dir := newFS(t)

	w, err := f.Open("/a.txt", os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	onDisk, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(onDisk))

	r, err := f.Open("a.txt", os.O_RDONLY)
	require.NoError(t, err)
	defer r.Close()
	_, err = r.Seek(1, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ello", string(rest))

	info, err := f.Stat("/a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}

func TestErrorsCarryErrno(t *testing.T) {
	f, _ := newFS(t)

	_, err := f.Open("/missing.txt", os.O_RDONLY)
	assert.Equal(t, syscall.ENOENT, vfs.Errno(err))

	require.NoError(t, f.Mkdir("/d"))
	assert.Equal(t, syscall.EEXIST, vfs.Errno(f.Mkdir("/d")))

	assert.Equal(t, syscall.ENOENT, vfs.Errno(f.Unlink("/nothing")))
	_, err = f.CRC32("/nothing")
	assert.Equal(t, syscall.ENOENT, vfs.Errno(err))
}

func TestPathsStayInsideRoot(t *testing.T) {
	f, dir := newFS(t)
	outside := filepath.Join(filepath.Dir(dir), "escape.txt")
	t.Cleanup(func() { _ = os.Remove(outside) })

	w, err := f.Open("/../escape.txt", os.O_WRONLY|os.O_CREATE)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(outside)
	assert.True(t, os.IsNotExist(err))
}

func TestUnlinkAndRename(t *testing.T) {
	f, dir := newFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("1"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	require.NoError(t, f.Rename("/a", "/sub/b"))
	_, err := os.Stat(filepath.Join(dir, "sub", "b"))
	require.NoError(t, err)

	assert.Error(t, f.Unlink("/sub"))
	require.NoError(t, f.Unlink("/sub/b"))
	require.NoError(t, f.Unlink("/sub"))
}

func TestOpenDirSorted(t *testing.T) {
	f, dir := newFS(t)
	for _, n := range []string{"c.bin", "a.bin", "b.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "logs"), 0o755))
	require.NoError(t, os.Symlink("a.bin", filepath.Join(dir, "link")))

	d, err := f.OpenDir("/")
	require.NoError(t, err)
	defer d.Close()

	var got []vfs.DirEntry
	for {
		e, err := d.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, e)
	}

	assert.Equal(t, []vfs.DirEntry{
		{Name: "a.bin", Type: vfs.TypeFile},
		{Name: "b.bin", Type: vfs.TypeFile},
		{Name: "c.bin", Type: vfs.TypeFile},
		{Name: "link", Type: vfs.TypeSymlink},
		{Name: "logs", Type: vfs.TypeDir},
	}, got)

	_, err = f.OpenDir("/a.bin")
	assert.Error(t, err)
}

func TestCRC32(t *testing.T) {
	f, dir := newFS(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v"), []byte("123456789"), 0o644))

	sum, err := f.CRC32("/v")
	require.NoError(t, err)
	want, _ := vfs.Checksum(strings.NewReader("123456789"))
	assert.Equal(t, want, sum)
}
