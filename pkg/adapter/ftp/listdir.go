package ftp

import (
	"context"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/adapter/ftp/wire"
	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/telemetry"
	"github.com/marmos91/linkfs/pkg/vfs"
)

// listDirectory handles ListDirectory. req.Offset is the number of
// listable entries to skip; the reply packs as many of the following
// entries as fit in Data.
func (a *Adapter) listDirectory(ctx context.Context, req *types.Packet, reply *types.Packet) {
	reply.Offset = req.Offset

	dir, ok := pathArg(ctx, req, reply)
	if !ok {
		return
	}
	if len(dir) > 1 && dir[len(dir)-1] == '/' {
		dir = dir[:len(dir)-1]
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanListDir)
	defer span.End()

	d, err := a.fs.OpenDir(dir)
	if err != nil {
		logger.DebugCtx(ctx, "FTP opendir failed", logger.Path(dir), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	defer func() { _ = d.Close() }()

	// Skip pass. Entries that could never be listed are not counted, so
	// offsets stay consistent with what earlier pages returned.
	for skip := req.Offset; skip > 0; {
		e, err := d.Next()
		if err != nil {
			makeError(reply, types.ErrEndOfFile, nil)
			return
		}
		if _, ok := a.dirEntry(dir, e); ok {
			skip--
		}
	}

	buf := make([]byte, 0, types.DataSize)
	entries := 0
	for {
		e, err := d.Next()
		if err != nil {
			break
		}
		ent, ok := a.dirEntry(dir, e)
		if !ok {
			continue
		}
		// Leave an entry that does not fit for the next page.
		if len(buf)+ent.EncodedLen() > types.DataSize {
			break
		}
		buf = wire.AppendDirEntry(buf, ent)
		entries++
	}

	if entries == 0 {
		makeError(reply, types.ErrEndOfFile, nil)
		return
	}

	reply.Data = [types.DataSize]byte{}
	copy(reply.Data[:], buf)
	reply.Size = uint8(len(buf))
	reply.Opcode = types.OpAck

	telemetry.SetAttributes(ctx, telemetry.Entries(entries))
	logger.DebugCtx(ctx, "FTP listed directory", logger.Path(dir), logger.KeyEntries, entries)
}

// dirEntry formats e for a listing. Files and symlinks are stat'ed for
// their size. ok is false for entries that are never listed: other types,
// entries whose stat fails and names too long for one reply.
func (a *Adapter) dirEntry(dir string, e vfs.DirEntry) (wire.DirEntry, bool) {
	var ent wire.DirEntry
	switch e.Type {
	case vfs.TypeDir:
		ent = wire.DirEntry{Name: e.Name, Dir: true}
	case vfs.TypeFile, vfs.TypeSymlink:
		info, err := a.fs.Stat(vfs.Join(dir, e.Name))
		if err != nil {
			return ent, false
		}
		ent = wire.DirEntry{Name: e.Name, Size: info.Size()}
	default:
		return ent, false
	}
	if ent.EncodedLen() > types.DataSize {
		return ent, false
	}
	return ent, true
}
