package ftp

import (
	"context"
	"fmt"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/telemetry"
)

// work is the worker goroutine: it drains the queue until ctx is cancelled
// and then releases the open file.
func (a *Adapter) work(ctx context.Context) {
	defer func() {
		if a.sess.isOpen() {
			logger.Info("Closing open file on shutdown", logger.Path(a.sess.path))
		}
		a.closeFile()
		a.publishStatus()
	}()

	for {
		req, err := a.queue.Pop(ctx)
		if err != nil {
			return
		}
		if a.metrics != nil {
			a.metrics.SetQueueDepth(a.queue.Len())
		}
		a.handle(ctx, &req)
		a.publishStatus()
	}
}

// handle processes one request end to end, including reply delivery.
func (a *Adapter) handle(ctx context.Context, req *types.Packet) {
	a.requests.Add(1)
	start := time.Now()

	lc := logger.NewLogContext(req.Channel, req.SysID, req.CompID, req.Session).WithOpcode(req.Opcode.String())

	// A client that missed our reply repeats its request unchanged. Replay
	// the reply instead of executing the request twice.
	if a.isRetransmit(req) {
		a.retrans.Add(1)
		if a.metrics != nil {
			a.metrics.RecordRetransmit()
		}
		ctx = logger.WithContext(ctx, lc)
		logger.DebugCtx(ctx, "FTP retransmit", logger.Seq(req.Seq))
		cached := a.last
		_ = a.pushReply(ctx, &cached)
		return
	}

	ctx, span := telemetry.StartRequestSpan(ctx, telemetry.RequestAttrs{
		Channel: req.Channel,
		SysID:   req.SysID,
		CompID:  req.CompID,
		Session: req.Session,
		Seq:     req.Seq,
		Opcode:  req.Opcode.String(),
		Offset:  req.Offset,
		Size:    req.Size,
	})
	defer span.End()

	lc = lc.WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
	ctx = logger.WithContext(ctx, lc)

	logger.DebugCtx(ctx, "FTP request", logger.Seq(req.Seq), logger.Offset(req.Offset), logger.Size(int(req.Size)))

	reply := newReply(req)
	if a.safeDispatch(ctx, req, &reply) {
		_ = a.pushReply(ctx, &reply)
	}

	result := resultOf(&reply)
	telemetry.SetAttributes(ctx, telemetry.Result(result))
	if a.metrics != nil {
		a.metrics.RecordRequest(req.Opcode.String(), result, time.Since(start))
	}
	args := []any{logger.KeyResult, result, logger.DurationMs(lc.DurationMs())}
	if reply.Opcode == types.OpNack && reply.Size > 1 {
		args = append(args, logger.Errno(syscall.Errno(reply.Data[1])))
	}
	logger.DebugCtx(ctx, "FTP reply", args...)
}

// isRetransmit reports whether req repeats the request answered by the
// cached reply.
func (a *Adapter) isRetransmit(req *types.Packet) bool {
	return req.SameClient(&a.last) && req.Seq+1 == a.last.Seq
}

// newReply builds the reply skeleton for req.
func newReply(req *types.Packet) types.Packet {
	return types.Packet{
		Channel:   req.Channel,
		SysID:     req.SysID,
		CompID:    req.CompID,
		Seq:       req.Seq + 1,
		Session:   req.Session,
		ReqOpcode: req.Opcode,
	}
}

func resultOf(reply *types.Packet) string {
	switch reply.Opcode {
	case types.OpAck:
		return "ack"
	case types.OpNack:
		return types.ErrorCode(reply.Data[0]).String()
	default:
		return "discarded"
	}
}

// safeDispatch runs dispatch, turning a handler panic into a Fail reply.
func (a *Adapter) safeDispatch(ctx context.Context, req *types.Packet, reply *types.Packet) (push bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "FTP handler panic",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			*reply = newReply(req)
			makeError(reply, types.ErrFail, nil)
			push = true
		}
	}()
	return a.dispatch(ctx, req, reply)
}

// dispatch runs admission checks and the opcode handler. It reports whether
// the generic reply push should run.
func (a *Adapter) dispatch(ctx context.Context, req *types.Packet, reply *types.Packet) bool {
	// ========================================================================
	// Step 1: Sanity check the declared size
	// ========================================================================

	if int(req.Size) > types.DataSize {
		makeError(reply, types.ErrInvalidDataSize, nil)
		return true
	}

	// ========================================================================
	// Step 2: Session admission
	// ========================================================================

	now := a.now()
	s := a.sess
	otherSession := req.Session != s.id

	switch {
	case otherSession && (req.Opcode == types.OpTerminateSession || req.Opcode == types.OpResetSessions):
		// Terminating a session we do not own is a no-op.
		reply.Opcode = types.OpAck
		return true

	case s.isOpen() && otherSession && s.idle(now) < a.cfg.SessionTimeout:
		logger.DebugCtx(ctx, "FTP request rejected, file held by another session",
			"owner", s.id, logger.Path(s.path))
		makeError(reply, types.ErrInvalidSession, nil)
		return true

	case s.isOpen() && otherSession:
		logger.InfoCtx(ctx, "FTP idle session taken over",
			"owner", s.id, logger.Path(s.path), "idle", s.idle(now))
		if a.metrics != nil {
			a.metrics.RecordSessionTakeover()
		}
		a.closeFile()
	}

	// ========================================================================
	// Step 3: Dispatch by opcode
	// ========================================================================

	switch req.Opcode {
	case types.OpNone:
		reply.Opcode = types.OpAck
	case types.OpTerminateSession, types.OpResetSessions:
		a.closeFile()
		reply.Opcode = types.OpAck
	case types.OpListDirectory:
		a.listDirectory(ctx, req, reply)
	case types.OpOpenFileRO:
		a.openFileRO(ctx, req, reply, now)
	case types.OpReadFile:
		a.readFile(ctx, req, reply)
	case types.OpOpenFileWO, types.OpCreateFile:
		a.openFileWO(ctx, req, reply, now)
	case types.OpWriteFile:
		a.writeFile(ctx, req, reply)
	case types.OpCreateDirectory:
		a.createDirectory(ctx, req, reply)
	case types.OpRemoveDirectory, types.OpRemoveFile:
		a.remove(ctx, req, reply)
	case types.OpCalcFileCRC32:
		a.calcCRC32(ctx, req, reply)
	case types.OpRename:
		a.rename(ctx, req, reply)
	case types.OpBurstReadFile:
		return a.burstRead(ctx, req, reply)
	case types.OpAck, types.OpNack:
		// Unexpected replies from the client are dropped.
		return false
	default:
		logger.DebugCtx(ctx, "Unsupported FTP opcode", "opcode_value", uint8(req.Opcode))
		makeError(reply, types.ErrFail, nil)
	}
	return true
}

// closeFile releases the open file and clears the session binding.
func (a *Adapter) closeFile() {
	wasOpen := a.sess.isOpen()
	if err := a.sess.close(); err != nil {
		logger.Warn("FTP close failed", logger.Err(err))
	}
	if wasOpen && a.metrics != nil {
		a.metrics.SetOpenFile(false)
	}
}
