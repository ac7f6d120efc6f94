package ftp

import (
	"context"
	"time"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/internal/telemetry"
)

// burstRead handles BurstReadFile: it streams consecutive chunks of the
// open file, pushing each reply as it is read. It returns true when the
// final reply is a Nack that still needs the generic push.
func (a *Adapter) burstRead(ctx context.Context, req *types.Packet, reply *types.Packet) bool {
	maxRead := int(req.Size)
	if maxRead == 0 {
		maxRead = types.DataSize
	}

	if !a.requireOpen(reply, ModeRead) || !a.seek(reply, req.Offset) {
		return true
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanBurst)
	defer span.End()

	delay := a.burstDelay(req.Channel, maxRead)
	quota := a.cfg.BurstQuota

	var (
		packets int
		total   uint64
	)
	for i := 0; i < quota; i++ {
		reply.Data = [types.DataSize]byte{}
		n, err := a.readFull(reply.Data[:maxRead])
		if err != nil {
			logger.DebugCtx(ctx, "FTP burst read failed", logger.Path(a.sess.path), logger.Err(err))
			makeError(reply, types.ErrFailErrno, err)
			break
		}
		if n == 0 {
			makeError(reply, types.ErrEndOfFile, nil)
			break
		}

		reply.Opcode = types.OpAck
		reply.Offset = req.Offset + uint32(i*maxRead)
		reply.BurstComplete = n < maxRead || i == quota-1
		reply.Size = uint8(n)

		if err := a.pushReply(ctx, reply); err != nil {
			return false
		}
		packets++
		total += uint64(n)

		// A following EndOfFile must carry the end offset.
		if n < maxRead {
			reply.Offset += uint32(n)
		}
		reply.Seq++

		if err := a.sleep(ctx, delay); err != nil {
			return false
		}
	}

	telemetry.SetAttributes(ctx, telemetry.Burst(packets, total)...)
	if a.metrics != nil {
		a.metrics.RecordBurst(packets, total)
	}
	logger.DebugCtx(ctx, "FTP burst finished",
		logger.Path(a.sess.path),
		logger.KeyPackets, packets,
		logger.KeySize, total,
		logger.KeyDelay, delay)

	return reply.Opcode == types.OpNack
}

// burstDelay paces bursts to about a third of the channel bandwidth on
// links without flow control.
func (a *Adapter) burstDelay(channel uint8, maxRead int) time.Duration {
	if a.tr.FlowControl(channel) {
		return 0
	}
	bw := uint64(a.tr.Bandwidth(channel))
	if bw == 0 {
		return 0
	}
	frame := uint64(a.tr.FrameSize(channel, types.HeaderSize+maxRead))
	return time.Duration(3000*frame/bw) * time.Millisecond
}
