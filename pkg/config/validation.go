package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the rules that span fields. It does not
// modify cfg.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint is required when telemetry is enabled"))
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.profiling.endpoint is required when profiling is enabled"))
	}

	if cfg.Filesystem.Backend == BackendOS && cfg.Filesystem.Root == "" {
		errs = append(errs, errors.New("filesystem.root is required for the os backend"))
	}

	if len(cfg.Links) == 0 {
		errs = append(errs, errors.New("at least one link is required"))
	}
	channels := make(map[uint8]string, len(cfg.Links))
	for _, l := range cfg.Links {
		if other, dup := channels[l.Channel]; dup {
			errs = append(errs, fmt.Errorf("links %q and %q share channel %d", other, l.Name, l.Channel))
		}
		channels[l.Channel] = l.Name

		switch l.Type {
		case LinkUDP:
			if l.Port == 0 {
				errs = append(errs, fmt.Errorf("link %q: port is required for udp", l.Name))
			}
		case LinkSerial:
			if l.Address == "" {
				errs = append(errs, fmt.Errorf("link %q: address (device) is required for serial", l.Name))
			}
			if l.Baud == 0 {
				errs = append(errs, fmt.Errorf("link %q: baud is required for serial", l.Name))
			}
		}
	}

	return errors.Join(errs...)
}
