package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/linkfs/internal/cli/output"
	"github.com/marmos91/linkfs/internal/cli/timeutil"
	"github.com/marmos91/linkfs/pkg/api/handlers"
	"github.com/marmos91/linkfs/pkg/apiclient"
	"github.com/marmos91/linkfs/pkg/config"
)

var (
	statusAddr   string
	statusOutput string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running daemon",
	Long: `Query the status API of a running daemon and print the file transfer
session and per-link counters.

The API address defaults to localhost on the port from the configuration
file.

Examples:
  linkfs status
  linkfs status --addr http://drone.local:8080 --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "", "API base URL (default: http://localhost:<api.port>)")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	addr := statusAddr
	if addr == "" {
		cfg, err := config.Load(GetConfigFile())
		if err != nil {
			return err
		}
		addr = cfg.API.URL()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	st, err := apiclient.New(addr).Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", addr, err)
	}

	w := cmd.OutOrStdout()
	if format != output.FormatTable {
		return output.Print(w, format, st)
	}

	output.PrintPairs(w, sessionPairs(st, time.Now()))
	_, _ = fmt.Fprintln(w)
	output.PrintTable(w, linkTable(st))
	return nil
}

func sessionPairs(st *handlers.StatusResponse, now time.Time) [][2]string {
	session := "none"
	if st.FTP.Open {
		session = fmt.Sprintf("%d (%s %s)", st.FTP.Session, st.FTP.Mode, st.FTP.Path)
	}
	return [][2]string{
		{"Instance", st.InstanceID},
		{"Version", st.Version},
		{"Uptime", timeutil.FormatUptime(st.Uptime)},
		{"Engine", enabledString(st.FTP.Enabled)},
		{"Session", session},
		{"Last activity", timeutil.FormatAgo(st.FTP.LastActivity, now)},
		{"Queue", fmt.Sprintf("%d/%d (dropped %d)", st.FTP.QueueDepth, st.FTP.QueueCapacity, st.FTP.Dropped)},
		{"Requests", fmt.Sprintf("%d (retransmits %d)", st.FTP.Requests, st.FTP.Retransmits)},
	}
}

func linkTable(st *handlers.StatusResponse) *output.Rows {
	rows := output.NewRows("Channel", "Name", "Type", "Frames In", "Frames Out", "Errors", "Ignored", "TX Drops", "TX Free")
	for _, l := range st.Links {
		rows.Add(
			strconv.Itoa(int(l.Channel)),
			l.Name,
			l.Type,
			strconv.FormatUint(l.FramesIn, 10),
			strconv.FormatUint(l.FramesOut, 10),
			strconv.FormatUint(l.Errors, 10),
			strconv.FormatUint(l.Ignored, 10),
			strconv.FormatUint(l.TxDrops, 10),
			fmt.Sprintf("%d%%", l.TxSpace),
		)
	}
	return rows
}

func enabledString(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
