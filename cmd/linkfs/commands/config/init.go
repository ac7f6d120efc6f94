package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/linkfs/internal/cli/prompt"
	"github.com/marmos91/linkfs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a linkfs configuration file with default values: the current
directory served on UDP port 14550.

By default, the configuration file is created at $XDG_CONFIG_HOME/linkfs/config.yaml.
Use --config to specify a custom path. An existing file is only replaced
after confirmation or with --force.

Examples:
  linkfs config init
  linkfs config init --config /etc/linkfs/config.yaml
  linkfs config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	force := initForce
	if _, err := os.Stat(path); err == nil && !force {
		ok, err := prompt.Confirm(fmt.Sprintf("%s exists, overwrite", path), false)
		if err != nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
		if !ok {
			return nil
		}
		force = true
	}

	if err := config.InitConfigToPath(path, force); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the links section to match your telemetry radios")
	_, _ = fmt.Fprintf(out, "  2. Start the daemon with: linkfs start --config %s\n", path)
	return nil
}
