package ftp

import (
	"errors"
	"fmt"
	"time"
)

// Defaults for Config fields left at zero.
const (
	DefaultQueueSize       = 5
	DefaultSessionTimeout  = 3 * time.Second
	DefaultPollInterval    = 2 * time.Millisecond
	DefaultMaxBackoff      = 50 * time.Millisecond
	DefaultBurstQuota      = 500
	DefaultTxWatermark     = 33
	DefaultBannerFile      = "@PARAM/param.pck"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config tunes the FTP engine.
type Config struct {
	// QueueSize is the number of requests buffered for the worker. Requests
	// arriving while the queue is full are dropped.
	QueueSize int

	// SessionTimeout is how long an open file stays bound to its session
	// without a reply being sent before another session may take it over.
	SessionTimeout time.Duration

	// PollInterval is the first backoff step while waiting for transmit space.
	PollInterval time.Duration

	// MaxBackoff caps the backoff while waiting for transmit space.
	MaxBackoff time.Duration

	// BurstQuota is the maximum number of packets sent for one BurstReadFile.
	BurstQuota int

	// TxWatermark is the percentage of free transmit buffer a channel must
	// exceed before a reply is sent.
	TxWatermark int

	// BannerFile is the path prefix whose OpenFileRO triggers the banner.
	BannerFile string

	// ShutdownTimeout bounds Stop.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	if c.BurstQuota == 0 {
		c.BurstQuota = DefaultBurstQuota
	}
	if c.TxWatermark == 0 {
		c.TxWatermark = DefaultTxWatermark
	}
	if c.BannerFile == "" {
		c.BannerFile = DefaultBannerFile
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", c.QueueSize))
	}
	if c.SessionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("session timeout must be positive, got %s", c.SessionTimeout))
	}
	if c.PollInterval <= 0 || c.MaxBackoff < c.PollInterval {
		errs = append(errs, fmt.Errorf("invalid backoff %s..%s", c.PollInterval, c.MaxBackoff))
	}
	if c.BurstQuota < 1 {
		errs = append(errs, fmt.Errorf("burst quota must be positive, got %d", c.BurstQuota))
	}
	if c.TxWatermark < 0 || c.TxWatermark >= 100 {
		errs = append(errs, fmt.Errorf("tx watermark must be in [0,100), got %d", c.TxWatermark))
	}
	return errors.Join(errs...)
}
