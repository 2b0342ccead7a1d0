package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"histbeat/internal/adapters/datetime"
	"histbeat/internal/adapters/filesystem"
	"histbeat/internal/adapters/sqlite"
	"histbeat/internal/adapters/terminal"
	"histbeat/internal/adapters/wakatime"
	"histbeat/internal/application/commands"
	"histbeat/internal/config"
	"histbeat/internal/logging"
	"histbeat/internal/ports"
)

var (
	configPath string
	historyDir string
	startTime  string
	endTime    string
	execute    bool
	ledgerPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "histbeat",
	Short: "Backfill time-tracking heartbeats from editor local history",
	Long: `histbeat reads the local edit history kept by VS Code style editors and
replays it as heartbeats through the wakatime command line client.

By default it only reports what it would send. Pass --execute to send.

Examples:
  histbeat -s "2024-03-01" -e "2024-03-31 23:59:59"
  histbeat -s "May 8, 2009 5:57:51 PM MST" -e "May 9, 2009 MST" --execute
  histbeat -d ~/.config/VSCodium/User/History -s 2024-03-01 -e 2024-03-02 --execute --ledger`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip initialization for help commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "init" {
			return nil
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, loaded)
		cfg = loaded

		return logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
	RunE: runBackfill,
}

// applyFlags lets explicitly set flags win over file and environment values
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("history-dir") {
		c.HistoryDir = config.ExpandHome(historyDir)
	}
	if flags.Changed("start") {
		c.Start = startTime
	}
	if flags.Changed("end") {
		c.End = endTime
	}
	if flags.Changed("ledger") {
		c.Ledger = config.ExpandHome(ledgerPath)
	}
	if verbose {
		c.Log.Level = "debug"
	}
}

func newScanCommand() *commands.ScanCommand {
	return commands.NewScanCommand(
		filesystem.NewHistoryScanner(cfg.HomeMarker),
		datetime.NewResolver(cfg.Timezones),
		cfg.HistoryDir,
		cfg.Start,
		cfg.End,
		cfg.DedupThreshold,
	)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var ledger ports.SentLedger
	if execute && cfg.Ledger != "" {
		l, err := sqlite.OpenLedger(cfg.Ledger, cfg.Tracker.Plugin)
		if err != nil {
			return err
		}
		defer l.Close()
		logging.L().Info("using sent ledger", zap.String("path", l.Path()))
		ledger = l
	}

	tracker := wakatime.NewCLI(
		wakatime.WithCommand(cfg.Tracker.Command),
		wakatime.WithPlugin(cfg.Tracker.Plugin),
	)

	backfill := commands.NewBackfillCommand(newScanCommand(), tracker, ledger, !execute)
	backfill.SampleSize = cfg.SampleSize
	backfill.ProgressEvery = cfg.ProgressEvery

	result, err := backfill.Execute(ctx)
	if err != nil {
		return err
	}

	report := terminal.NewReport(cmd.OutOrStdout(), nil)
	report.Window(cfg.Start, cfg.End, result.Scan.Window)
	if result.DryRun {
		report.DryRun(result, cfg.DedupThreshold)
	} else {
		report.Completed(result, cfg.DedupThreshold)
	}
	return nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default $HISTBEAT_CONFIG or "+config.DefaultConfigPath+")")
	flags.StringVarP(&historyDir, "history-dir", "d", "", "editor history directory (default "+config.DefaultHistoryDir+")")
	flags.StringVarP(&startTime, "start", "s", "", "start of the time window, e.g. \"2024-03-01 09:00 EST\"")
	flags.StringVarP(&endTime, "end", "e", "", "end of the time window, inclusive")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every heartbeat")

	rootCmd.Flags().BoolVar(&execute, "execute", false, "send heartbeats instead of a dry run")
	rootCmd.Flags().StringVar(&ledgerPath, "ledger", "", "record sent heartbeats in a SQLite ledger and skip them on later runs\n(bare --ledger uses "+sqlite.DefaultLedgerPath()+"; give a file as --ledger=PATH)")
	rootCmd.Flags().Lookup("ledger").NoOptDefVal = sqlite.DefaultLedgerName
}
