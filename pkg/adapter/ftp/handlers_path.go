package ftp

import (
	"context"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/adapter/ftp/wire"
	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/telemetry"
)

// pathArg validates and extracts the single path argument of req, filling
// reply with InvalidDataSize when the declared size does not match.
func pathArg(ctx context.Context, req *types.Packet, reply *types.Packet) (string, bool) {
	if !wire.ValidateNameLength(req) {
		makeError(reply, types.ErrInvalidDataSize, nil)
		return "", false
	}
	path := wire.PathArg(req)
	telemetry.SetAttributes(ctx, telemetry.Path(path))
	return path, true
}

// createDirectory handles CreateDirectory.
func (a *Adapter) createDirectory(ctx context.Context, req *types.Packet, reply *types.Packet) {
	path, ok := pathArg(ctx, req, reply)
	if !ok {
		return
	}
	if err := a.fs.Mkdir(path); err != nil {
		logger.DebugCtx(ctx, "FTP mkdir failed", logger.Path(path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	reply.Opcode = types.OpAck
	logger.InfoCtx(ctx, "FTP directory created", logger.Path(path))
}

// remove handles RemoveFile and RemoveDirectory. Both unlink the path; the
// filesystem decides whether it may go.
func (a *Adapter) remove(ctx context.Context, req *types.Packet, reply *types.Packet) {
	path, ok := pathArg(ctx, req, reply)
	if !ok {
		return
	}
	if err := a.fs.Unlink(path); err != nil {
		logger.DebugCtx(ctx, "FTP unlink failed", logger.Path(path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	reply.Opcode = types.OpAck
	logger.InfoCtx(ctx, "FTP path removed", logger.Path(path))
}

// calcCRC32 handles CalcFileCRC32.
func (a *Adapter) calcCRC32(ctx context.Context, req *types.Packet, reply *types.Packet) {
	path, ok := pathArg(ctx, req, reply)
	if !ok {
		return
	}
	sum, err := a.fs.CRC32(path)
	if err != nil {
		logger.DebugCtx(ctx, "FTP crc32 failed", logger.Path(path), logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	reply.Data = [types.DataSize]byte{}
	wire.PutUint32(reply, sum)
	reply.Opcode = types.OpAck
}

// rename handles Rename: Data holds the source and destination paths back
// to back, each NUL terminated.
func (a *Adapter) rename(ctx context.Context, req *types.Packet, reply *types.Packet) {
	from, to, ok := wire.RenameArgs(req)
	if !ok {
		makeError(reply, types.ErrInvalidDataSize, nil)
		return
	}
	if err := a.fs.Rename(from, to); err != nil {
		logger.DebugCtx(ctx, "FTP rename failed", logger.KeyOldPath, from, logger.KeyNewPath, to, logger.Err(err))
		makeError(reply, types.ErrFailErrno, err)
		return
	}
	reply.Opcode = types.OpAck
	logger.InfoCtx(ctx, "FTP path renamed", logger.KeyOldPath, from, logger.KeyNewPath, to)
}
