package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/linkfs/internal/bytesize"
	"github.com/marmos91/linkfs/pkg/api"
)

// Config represents the linkfs daemon configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (LINKFS_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API configures the status HTTP server
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// FTP tunes the file transfer engine
	FTP FTPConfig `mapstructure:"ftp" yaml:"ftp"`

	// Filesystem selects what the engine serves
	Filesystem FilesystemConfig `mapstructure:"filesystem" yaml:"filesystem"`

	// Links lists the telemetry links, one per channel
	Links []LinkConfig `mapstructure:"links" validate:"dive" yaml:"links"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS towards the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures Prometheus metrics. When Enabled is false, no
// metrics are collected. Metrics are served by the API server at /metrics.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// FTPConfig tunes the file transfer engine and sets the identity it uses
// on the bus.
type FTPConfig struct {
	// QueueSize is the number of requests buffered for the worker
	// Default: 5
	QueueSize int `mapstructure:"queue_size" validate:"gte=1" yaml:"queue_size"`

	// SessionTimeout is how long an idle session keeps the open file
	// Default: 3s
	SessionTimeout time.Duration `mapstructure:"session_timeout" validate:"gt=0" yaml:"session_timeout"`

	// PollInterval is the first backoff step while a link is congested
	// Default: 2ms
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0" yaml:"poll_interval"`

	// MaxBackoff caps the congestion backoff
	// Default: 50ms
	MaxBackoff time.Duration `mapstructure:"max_backoff" validate:"gtefield=PollInterval" yaml:"max_backoff"`

	// BurstQuota is the maximum number of packets per burst read
	// Default: 500
	BurstQuota int `mapstructure:"burst_quota" validate:"gte=1" yaml:"burst_quota"`

	// TxWatermark is the free transmit buffer percentage a link must exceed
	// before a reply is sent
	// Default: 33
	TxWatermark int `mapstructure:"tx_watermark" validate:"gte=0,lt=100" yaml:"tx_watermark"`

	// BannerFile is the path prefix whose read triggers the identity banner
	// Default: "@PARAM/param.pck"
	BannerFile string `mapstructure:"banner_file" yaml:"banner_file"`

	// SystemID and ComponentID identify linkfs on the bus
	// Default: 1 and 1
	SystemID    uint8 `mapstructure:"system_id" validate:"gte=1" yaml:"system_id"`
	ComponentID uint8 `mapstructure:"component_id" validate:"gte=1" yaml:"component_id"`
}

// Filesystem backends.
const (
	BackendOS     = "os"
	BackendMemory = "memory"
)

// FilesystemConfig selects the served filesystem.
type FilesystemConfig struct {
	// Backend is "os" (a directory on disk) or "memory"
	// Default: "os"
	Backend string `mapstructure:"backend" validate:"required,oneof=os memory" yaml:"backend"`

	// Root is the served directory for the os backend
	Root string `mapstructure:"root" yaml:"root,omitempty"`
}

// Link types.
const (
	LinkUDP    = "udp"
	LinkSerial = "serial"
)

// LinkConfig describes one telemetry link.
type LinkConfig struct {
	// Name labels the link in logs and metrics
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Channel is the logical channel id replies are routed by
	Channel uint8 `mapstructure:"channel" yaml:"channel"`

	// Type is "udp" or "serial"
	Type string `mapstructure:"type" validate:"required,oneof=udp serial" yaml:"type"`

	// Address is the listen address for udp or the device path for serial
	Address string `mapstructure:"address" yaml:"address"`

	// Port is the UDP listen port
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`

	// Baud is the serial baud rate
	Baud int `mapstructure:"baud" validate:"omitempty,gt=0" yaml:"baud,omitempty"`

	// Bandwidth paces burst reads, per second. Supports "5.6KB" style sizes.
	// Default: baud/10 for serial, unpaced for udp
	Bandwidth bytesize.ByteSize `mapstructure:"bandwidth" yaml:"bandwidth,omitempty"`

	// FlowControl disables burst pacing on links that cannot overrun
	FlowControl bool `mapstructure:"flow_control" yaml:"flow_control"`

	// TxQueue is the transmit queue length in frames
	// Default: 64
	TxQueue int `mapstructure:"tx_queue" validate:"omitempty,gt=0" yaml:"tx_queue,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, explaining how to create a config file
// when none is found.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  linkfs config init\n\n"+
				"Or specify a custom config file:\n"+
				"  linkfs <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  linkfs config init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures environment overrides and the config file location.
func setupViper(v *viper.Viper, configPath string) {
	// LINKFS_LOGGING_LEVEL=DEBUG overrides logging.level
	v.SetEnvPrefix("LINKFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks combines the decode hooks for custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings like "5.6KB" and plain numbers to
// bytesize.ByteSize.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.Parse(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings like "3s" or "2ms" to time.Duration.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Raw integers are nanoseconds
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/linkfs, else ~/.config/linkfs,
// else the current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "linkfs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "linkfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
