package commands

import (
	"fmt"
	"io"

	"github.com/marmos91/linkfs/internal/logger"
	"github.com/marmos91/linkfs/pkg/adapter/ftp"
	"github.com/marmos91/linkfs/pkg/config"
	"github.com/marmos91/linkfs/pkg/metrics"
	"github.com/marmos91/linkfs/pkg/transport"
	"github.com/marmos91/linkfs/pkg/vfs"
	"github.com/marmos91/linkfs/pkg/vfs/memfs"
	"github.com/marmos91/linkfs/pkg/vfs/osfs"
)

// daemon is the wired set of components the start command runs.
type daemon struct {
	fs      vfs.FS
	fsClose io.Closer
	mux     *transport.Mux
	engine  *ftp.Adapter
}

// buildDaemon opens the filesystem and links and connects the engine to
// them. Metrics sinks may be nil.
func buildDaemon(cfg *config.Config, instanceID string, fm metrics.FTPMetrics, lm metrics.LinkMetrics) (*daemon, error) {
	d := &daemon{}

	switch cfg.Filesystem.Backend {
	case config.BackendMemory:
		d.fs = memfs.New()
		logger.Warn("Serving an in-memory filesystem, uploads are lost on exit")
	default:
		fsys, err := osfs.New(cfg.Filesystem.Root)
		if err != nil {
			return nil, fmt.Errorf("failed to open filesystem root: %w", err)
		}
		d.fs = fsys
		d.fsClose = fsys
		logger.Info("Serving directory", logger.Path(fsys.Dir()))
	}

	links := make([]*transport.Link, 0, len(cfg.Links))
	closeLinks := func() {
		for _, l := range links {
			_ = l.Close()
		}
	}
	for _, lc := range cfg.Links {
		rw, err := openLink(lc)
		if err != nil {
			closeLinks()
			d.close()
			return nil, err
		}
		links = append(links, transport.NewLink(transport.LinkConfig{
			Name:        lc.Name,
			Channel:     lc.Channel,
			Type:        lc.Type,
			Bandwidth:   lc.Bandwidth.Uint32(),
			FlowControl: lc.FlowControl,
			TxQueue:     lc.TxQueue,
		}, rw, lm))
	}

	mux, err := transport.NewMux(transport.Identity{
		SystemID:    cfg.FTP.SystemID,
		ComponentID: cfg.FTP.ComponentID,
		Version:     Version,
		InstanceID:  instanceID,
	}, links...)
	if err != nil {
		closeLinks()
		d.close()
		return nil, err
	}
	d.mux = mux

	d.engine = ftp.New(cfg.EngineConfig(), d.fs, mux, ftp.WithMetrics(fm))
	mux.SetHandler(d.engine.Submit)
	return d, nil
}

func openLink(lc config.LinkConfig) (io.ReadWriteCloser, error) {
	switch lc.Type {
	case config.LinkSerial:
		port, err := transport.OpenSerial(lc.Address, lc.Baud, lc.Name)
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", lc.Name, err)
		}
		return port, nil
	case config.LinkUDP:
		conn, err := transport.ListenUDP(lc.Address, lc.Port, lc.Name)
		if err != nil {
			return nil, fmt.Errorf("link %q: %w", lc.Name, err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("link %q: unknown type %q", lc.Name, lc.Type)
	}
}

// close releases the links and the filesystem.
func (d *daemon) close() {
	if d.mux != nil {
		if err := d.mux.Close(); err != nil {
			logger.Debug("Closing links", logger.Err(err))
		}
	}
	if d.fsClose != nil {
		_ = d.fsClose.Close()
	}
}
