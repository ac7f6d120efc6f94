package ftp

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/adapter/ftp/wire"
	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/telemetry"
)

// releaseStale closes the open file when no reply has been pushed for
// longer than the session timeout; the client most likely never saw the
// reply to its open.
func (a *Adapter) releaseStale(ctx context.Context, now time.Time) {
	if a.sess.isOpen() && a.sess.idle(now) > a.cfg.SessionTimeout {
		logger.DebugCtx(ctx, "FTP closing stale file", logger.Path(a.sess.path))
		a.closeFile()
	}
}

// openFileRO handles OpenFileRO: reply carries the file size.
func (a *Adapter) openFileRO(ctx context.Context, req *types.Packet, reply *types.Packet, now time.Time) {
	a.releaseStale(ctx, now)
	if a.sess.isOpen() {
		makeError(reply, types.ErrFail, nil)
		return
	}

	if !wire.ValidateNameLength(req) {
		makeError(reply, types.ErrInvalidDataSize, nil)
		return
	}
	path := wire.PathArg(req)
	telemetry.SetAttributes(ctx, telemetry.Path(path))

	info, err := a.fs.Stat(path)
	if err != nil {
		logger.DebugCtx(ctx, "FTP stat failed", logger.Path(path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}

	f, err := a.fs.Open(path, os.O_RDONLY)
	if err != nil {
		logger.DebugCtx(ctx, "FTP open failed", logger.Path(path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	a.sess.bind(f, path, ModeRead, req.Session)
	if a.metrics != nil {
		a.metrics.SetOpenFile(true)
	}

	reply.Opcode = types.OpAck
	wire.PutUint32(reply, uint32(info.Size()))

	if strings.HasPrefix(path, a.cfg.BannerFile) {
		a.sess.markBanner(req.Channel)
	}

	logger.InfoCtx(ctx, "FTP file opened", logger.Path(path), logger.KeyMode, ModeRead.String(), logger.KeySize, info.Size())
}

// openFileWO handles OpenFileWO and CreateFile.
func (a *Adapter) openFileWO(ctx context.Context, req *types.Packet, reply *types.Packet, now time.Time) {
	a.releaseStale(ctx, now)
	if a.sess.isOpen() {
		makeError(reply, types.ErrFail, nil)
		return
	}

	if !wire.ValidateNameLength(req) {
		makeError(reply, types.ErrInvalidDataSize, nil)
		return
	}
	path := wire.PathArg(req)
	telemetry.SetAttributes(ctx, telemetry.Path(path))

	flag := os.O_WRONLY
	if req.Opcode == types.OpCreateFile {
		flag |= os.O_CREATE | os.O_TRUNC
	}

	f, err := a.fs.Open(path, flag)
	if err != nil {
		logger.DebugCtx(ctx, "FTP open failed", logger.Path(path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	a.sess.bind(f, path, ModeWrite, req.Session)
	if a.metrics != nil {
		a.metrics.SetOpenFile(true)
	}

	reply.Opcode = types.OpAck
	logger.InfoCtx(ctx, "FTP file opened", logger.Path(path), logger.KeyMode, ModeWrite.String())
}

// requireOpen checks that the session holds a file in mode. It fills reply
// with the error and returns false otherwise.
func (a *Adapter) requireOpen(reply *types.Packet, mode FileMode) bool {
	if !a.sess.isOpen() {
		makeError(reply, types.ErrFileNotFound, nil)
		return false
	}
	if a.sess.mode != mode {
		makeError(reply, types.ErrFail, nil)
		return false
	}
	return true
}

// seek positions the open file at offset.
func (a *Adapter) seek(reply *types.Packet, offset uint32) bool {
	if _, err := a.sess.file.Seek(int64(offset), io.SeekStart); err != nil {
		makeError(reply, types.ErrFailErrno, err)
		return false
	}
	return true
}

// readFull fills buf from the open file, stopping early only at end of file.
func (a *Adapter) readFull(buf []byte) (int, error) {
	n, err := io.ReadFull(a.sess.file, buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	return n, err
}

// readFile handles ReadFile.
func (a *Adapter) readFile(ctx context.Context, req *types.Packet, reply *types.Packet) {
	if !a.requireOpen(reply, ModeRead) || !a.seek(reply, req.Offset) {
		return
	}

	n, err := a.readFull(reply.Data[:min(types.DataSize, int(req.Size))])
	if err != nil {
		logger.DebugCtx(ctx, "FTP read failed", logger.Path(a.sess.path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	if n == 0 {
		makeError(reply, types.ErrEndOfFile, nil)
		return
	}

	reply.Opcode = types.OpAck
	reply.Offset = req.Offset
	reply.Size = uint8(n)
	if a.metrics != nil {
		a.metrics.RecordBytes("read", uint64(n))
	}
}

// writeFile handles WriteFile.
func (a *Adapter) writeFile(ctx context.Context, req *types.Packet, reply *types.Packet) {
	if !a.requireOpen(reply, ModeWrite) || !a.seek(reply, req.Offset) {
		return
	}

	n, err := a.sess.file.Write(req.Payload())
	if err != nil {
		logger.DebugCtx(ctx, "FTP write failed", logger.Path(a.sess.path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}

	reply.Opcode = types.OpAck
	reply.Offset = req.Offset
	if a.metrics != nil {
		a.metrics.RecordBytes("write", uint64(n))
	}
}
