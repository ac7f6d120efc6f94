package ftp

import (
	"context"
	"time"

	"github.com/marmos91/linkfs/internal/adapter/ftp/types"
	"github.com/marmos91/linkfs/internal/logger"
)

// pushReply sends reply, waiting for the channel to drain below the
// watermark first. The pushed reply becomes the retransmission cache.
//
// Returns an error only when ctx is cancelled or the transport rejects the
// send; the reply is then lost like any dropped packet.
func (a *Adapter) pushReply(ctx context.Context, reply *types.Packet) error {
	// Replies keep the owning session alive.
	a.sess.lastSend = a.now()

	if err := a.waitTxSpace(ctx, reply.Channel); err != nil {
		return err
	}

	unlock := a.tr.Lock(reply.Channel)
	err := a.tr.Send(reply)
	unlock()

	a.last = *reply

	if err != nil {
		logger.WarnCtx(ctx, "FTP reply not sent", logger.Channel(reply.Channel), logger.Seq(reply.Seq), logger.Err(err))
		return err
	}

	if reply.ReqOpcode == types.OpTerminateSession {
		a.sess.lastSend = time.Time{}
	}

	// The banner goes out after the reply so slow links see the reply first.
	if a.sess.takeBanner(reply.Channel) {
		if err := a.tr.Banner(reply.Channel); err != nil {
			logger.WarnCtx(ctx, "Banner not sent", logger.Channel(reply.Channel), logger.Err(err))
		}
	}
	return nil
}

// waitTxSpace backs off exponentially, from PollInterval up to MaxBackoff,
// until channel has more free transmit buffer than the watermark.
func (a *Adapter) waitTxSpace(ctx context.Context, channel uint8) error {
	delay := a.cfg.PollInterval
	for a.tr.TxSpace(channel) <= a.cfg.TxWatermark {
		if err := a.sleep(ctx, delay); err != nil {
			return err
		}
		delay = min(delay*2, a.cfg.MaxBackoff)
	}
	return nil
}
