package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(GetDefaultConfig()); err != nil {
		t.Errorf("Expected default config to pass validation, got error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"InvalidLogLevel", func(c *Config) { c.Logging.Level = "INVALID" }, "oneof"},
		{"InvalidLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "oneof"},
		{"APIPortOutOfRange", func(c *Config) { c.API.Port = 70000 }, "max"},
		{"SampleRate", func(c *Config) { c.Telemetry.SampleRate = 1.5 }, "lte"},
		{"QueueSize", func(c *Config) { c.FTP.QueueSize = 0 }, "QueueSize"},
		{"Watermark", func(c *Config) { c.FTP.TxWatermark = 100 }, "TxWatermark"},
		{"BackoffBelowPoll", func(c *Config) { c.FTP.MaxBackoff = c.FTP.PollInterval / 2 }, "MaxBackoff"},
		{"Backend", func(c *Config) { c.Filesystem.Backend = "s3" }, "oneof"},
		{"MissingRoot", func(c *Config) { c.Filesystem.Root = "" }, "filesystem.root"},
		{"TelemetryWithoutEndpoint", func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = ""
		}, "telemetry.endpoint"},
		{"NoLinks", func(c *Config) { c.Links = nil }, "at least one link"},
		{"LinkType", func(c *Config) { c.Links[0].Type = "tcp" }, "oneof"},
		{"UDPWithoutPort", func(c *Config) { c.Links[0].Port = 0 }, "port is required"},
		{"SerialWithoutDevice", func(c *Config) {
			c.Links[0] = LinkConfig{Name: "radio", Type: LinkSerial, Baud: 57600}
		}, "device"},
		{"DuplicateChannel", func(c *Config) {
			c.Links = append(c.Links, LinkConfig{Name: "dup", Type: LinkUDP, Port: 14551})
		}, "share channel 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_LogLevelNotNormalized(t *testing.T) {
	for _, level := range []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"} {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}

	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected ApplyDefaults to normalize 'info' to 'INFO', got %q", cfg.Logging.Level)
	}
}
