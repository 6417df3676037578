package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rubika_content_bot/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagContent string
	flagDryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "rubika-bot",
	Short: "Publish CSV content to a Rubika channel",
	Long: `rubika-bot reads posts from a CSV file, builds a decorated Persian caption
for each one, attaches a stock photo and sends it through the Rubika bot API.

Running without a subcommand performs one publishing pass, the same as "run".`,
	RunE:         runJob,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&flagContent, "content", "", "override the content CSV path")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "render captions without publishing or touching state")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rubika-bot %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
