package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rubika_content_bot/config"
	"rubika_content_bot/logging"
	"rubika_content_bot/state"
)

var statsCmd = &cobra.Command{
	Use:          "stats",
	Short:        "Show publish state and analytics",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnv(logging.NewLogger())
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := state.LoadPublishState(cfg.StatePath)
		if err != nil {
			return fmt.Errorf("reading state: %w", err)
		}
		an, err := state.LoadAnalytics(cfg.AnalyticsPath)
		if err != nil {
			return fmt.Errorf("reading analytics: %w", err)
		}
		printStats(cmd.OutOrStdout(), st, an)
		return nil
	},
}

func printStats(w io.Writer, st state.PublishState, an state.Analytics) {
	last := "(none)"
	if st.LastPost != nil {
		last = *st.LastPost
	}
	fmt.Fprintf(w, "Posts sent: %d\n", an.PostsSent)
	fmt.Fprintf(w, "Last post: %s\n", last)
}
