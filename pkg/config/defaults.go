package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/linkfs/internal/bytesize"
	"github.com/marmos91/linkfs/pkg/adapter/ftp"
	"github.com/marmos91/linkfs/pkg/transport"
)

// Default ports and identities.
const (
	DefaultMAVLinkPort = 14550
	DefaultSerialBaud  = 57600
	DefaultSystemID    = 1
	DefaultComponentID = 1
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	cfg.API.ApplyDefaults()
	applyFTPDefaults(&cfg.FTP)
	if cfg.Filesystem.Backend == "" {
		cfg.Filesystem.Backend = BackendOS
	}
	for i := range cfg.Links {
		applyLinkDefaults(&cfg.Links[i], i)
	}
}

// applyLoggingDefaults sets logging defaults and normalizes the level.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
}

// applyFTPDefaults mirrors the engine defaults so they show up in
// generated config files.
func applyFTPDefaults(cfg *FTPConfig) {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = ftp.DefaultQueueSize
	}
	if cfg.SessionTimeout == 0 {
		cfg.SessionTimeout = ftp.DefaultSessionTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = ftp.DefaultPollInterval
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = ftp.DefaultMaxBackoff
	}
	if cfg.BurstQuota == 0 {
		cfg.BurstQuota = ftp.DefaultBurstQuota
	}
	if cfg.TxWatermark == 0 {
		cfg.TxWatermark = ftp.DefaultTxWatermark
	}
	if cfg.BannerFile == "" {
		cfg.BannerFile = ftp.DefaultBannerFile
	}
	if cfg.SystemID == 0 {
		cfg.SystemID = DefaultSystemID
	}
	if cfg.ComponentID == 0 {
		cfg.ComponentID = DefaultComponentID
	}
}

func applyLinkDefaults(cfg *LinkConfig, i int) {
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("link%d", i)
	}
	if cfg.TxQueue == 0 {
		cfg.TxQueue = transport.DefaultTxQueue
	}
	switch cfg.Type {
	case LinkUDP:
		if cfg.Address == "" {
			cfg.Address = "0.0.0.0"
		}
		if cfg.Port == 0 {
			cfg.Port = DefaultMAVLinkPort
		}
	case LinkSerial:
		if cfg.Baud == 0 {
			cfg.Baud = DefaultSerialBaud
		}
		if cfg.Bandwidth == 0 {
			cfg.Bandwidth = bytesize.ByteSize(transport.SerialBandwidth(cfg.Baud))
		}
	}
}

// EngineConfig converts the ftp section to the engine's configuration.
func (c *Config) EngineConfig() ftp.Config {
	return ftp.Config{
		QueueSize:       c.FTP.QueueSize,
		SessionTimeout:  c.FTP.SessionTimeout,
		PollInterval:    c.FTP.PollInterval,
		MaxBackoff:      c.FTP.MaxBackoff,
		BurstQuota:      c.FTP.BurstQuota,
		TxWatermark:     c.FTP.TxWatermark,
		BannerFile:      c.FTP.BannerFile,
		ShutdownTimeout: c.ShutdownTimeout,
	}
}

// GetDefaultConfig returns a Config with all default values applied: the
// current directory served over UDP on the standard ground station port.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Filesystem: FilesystemConfig{
			Backend: BackendOS,
			Root:    ".",
		},
		Links: []LinkConfig{
			{Name: "udp0", Channel: 0, Type: LinkUDP},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
