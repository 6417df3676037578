package cmd

import (
	"github.com/spf13/cobra"

	"rubika_content_bot/config"
	"rubika_content_bot/logging"
)

var flagNoImages bool

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the captions the next run would send",
	Long: `Render every item in the content file to stdout without publishing,
saving state or updating analytics.

With --no-images the Pexels search is skipped and the placeholder photo is shown.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.NewLogger()
		config.LoadEnv(logger)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagNoImages {
			cfg.Pexels.APIKey = ""
		}

		r := buildRunner(cfg, logger)
		r.DryRun = true
		r.Preview = cmd.OutOrStdout()
		sum := r.Run(contextOf(cmd))

		logger.WithFields(logging.Fields{
			"read":         sum.Read,
			"skipped":      sum.Skipped,
			"invalid_rows": sum.RowErrors,
		}).Info("Preview finished")
		return nil
	},
}

func init() {
	previewCmd.Flags().BoolVar(&flagNoImages, "no-images", false, "skip image search and use the placeholder photo")
}
