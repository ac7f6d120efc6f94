package api

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Defaults for APIConfig.
const (
	DefaultPort            = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// APIConfig configures the status HTTP server. The server is read-only, so
// it runs unless explicitly disabled.
type APIConfig struct {
	// Enabled is a pointer so an absent key means enabled.
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Address is the interface to bind. Empty binds all interfaces.
	Address string `mapstructure:"address" validate:"omitempty,ip|hostname" yaml:"address,omitempty"`

	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// CORSOrigins lists browser origins allowed to read the API, for ground
	// station dashboards served from another host. Empty disables CORS.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// IsEnabled reports whether the server should run.
func (c *APIConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ApplyDefaults fills in zero values.
func (c *APIConfig) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// ListenAddr is the host:port the server binds.
func (c *APIConfig) ListenAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.Port))
}

// URL is the base URL a local client uses to reach the server. A wildcard
// bind is reached through localhost.
func (c *APIConfig) URL() string {
	host := c.Address
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(c.Port)))
}
