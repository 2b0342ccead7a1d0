package cmd

import (
	"github.com/spf13/cobra"

	"histbeat/internal/adapters/terminal"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "List the heartbeats a backfill would send",
	Long: `List every deduplicated heartbeat inside the time window, one per line,
without contacting the tracker.

Example:
  histbeat scan -s "2024-03-01" -e "2024-03-02"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newScanCommand().Execute(cmd.Context())
		if err != nil {
			return err
		}

		terminal.NewReport(cmd.OutOrStdout(), nil).Heartbeats(result.Retained)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
