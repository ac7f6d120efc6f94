package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/linkfs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the linkfs configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  linkfs config validate
  linkfs config validate --config /etc/linkfs/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	var warnings []string
	for _, l := range cfg.Links {
		if l.Type == config.LinkSerial && l.FlowControl && l.Bandwidth > 0 {
			warnings = append(warnings, fmt.Sprintf("link %q: bandwidth is ignored when flow_control is set", l.Name))
		}
	}
	if cfg.Filesystem.Backend == config.BackendMemory {
		warnings = append(warnings, "memory backend: uploaded files are lost on restart")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Filesystem:      %s %s\n", cfg.Filesystem.Backend, cfg.Filesystem.Root)
	_, _ = fmt.Fprintf(out, "  Links:           %d\n", len(cfg.Links))
	_, _ = fmt.Fprintf(out, "  Identity:        %d/%d\n", cfg.FTP.SystemID, cfg.FTP.ComponentID)
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.API.Port)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}
