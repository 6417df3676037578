package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"rubika_content_bot/caption"
	"rubika_content_bot/config"
	"rubika_content_bot/localize"
	"rubika_content_bot/logging"
	"rubika_content_bot/media"
	"rubika_content_bot/metrics"
	"rubika_content_bot/publisher"
	"rubika_content_bot/runner"
)

var runCmd = &cobra.Command{
	Use:          "run",
	Short:        "Publish every new item in the content file once",
	RunE:         runJob,
	SilenceUsage: true,
}

func init() {
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "render captions without publishing or touching state")
}

// runJob always exits cleanly: configuration and content problems are
// logged and reported as an empty summary.
func runJob(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger()
	config.LoadEnv(logger)
	out := cmd.OutOrStdout()

	printBanner(out, time.Now())

	cfg, err := loadConfig()
	if err != nil {
		logger.WithError(err).Error("Configuration unusable; nothing will be published")
		printSummary(out, runner.Summary{})
		return nil
	}
	if !cfg.Bot.HasCredentials() && !flagDryRun {
		logger.Warn("Missing rubika credentials! Set BOT_TOKEN and CHAT_ID")
	}

	r := buildRunner(cfg, logger)
	r.DryRun = flagDryRun
	summary := r.Run(contextOf(cmd))

	if err := r.Metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.WithError(err).Warn("Writing metrics textfile failed")
	}
	printSummary(out, summary)
	return nil
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if flagContent != "" {
		cfg.ContentPath = flagContent
	}
	return cfg, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// buildRunner wires the production components for one pass.
func buildRunner(cfg config.Config, logger *logrus.Logger) *runner.Runner {
	rnd := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	tables := localize.DefaultTables()

	translator, err := buildTranslator(cfg, tables.Translation, logger)
	if err != nil {
		logger.WithError(err).Warn("LLM translation disabled; using the phrase table only")
		translator = localize.TableTranslator{Table: tables.Translation}
	}

	client := &http.Client{}
	return &runner.Runner{
		ContentPath:   cfg.ContentPath,
		StatePath:     cfg.StatePath,
		AnalyticsPath: cfg.AnalyticsPath,
		Tables:        tables,
		Resolver:      media.NewResolver(cfg.Pexels, client, rnd, logger),
		Formatter:     caption.NewFormatter(tables, translator, rnd, cfg.LocaleTag(), logger),
		Poster:        publisher.New(cfg.Bot, client, logger),
		Metrics:       metrics.NewRecorder(),
		Logger:        logger,
	}
}

// buildTranslator returns the table translator unless an LLM provider is
// configured, in which case unmatched titles go to the model.
func buildTranslator(cfg config.Config, table localize.Table, logger *logrus.Logger) (localize.Translator, error) {
	if !cfg.LLM.Enabled() {
		return localize.TableTranslator{Table: table}, nil
	}
	settings := &localize.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	}
	switch cfg.LLM.Provider {
	case "openai":
	case "deepseek":
		// OpenAI-compatible endpoint; there is no default base URL.
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
	client, err := localize.NewOpenAILLM(settings)
	if err != nil {
		return nil, err
	}
	return &localize.LLMTranslator{Table: table, Client: client, Logger: logger}, nil
}

var rule = strings.Repeat("=", 50)

func printBanner(w io.Writer, now time.Time) {
	fmt.Fprintln(w, "🚀 Starting rubika Content Automation...")
	fmt.Fprintf(w, "⏰ Time: %s\n", now.Format(time.DateTime))
	fmt.Fprintln(w, rule)
}

func printSummary(w io.Writer, s runner.Summary) {
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "✅ Automation complete! %d posts sent.\n", s.Sent)
	fmt.Fprintf(w, "📊 read=%d failed=%d skipped=%d invalid_rows=%d\n", s.Read, s.Failed, s.Skipped, s.RowErrors)
	fmt.Fprintln(w, "🔄 Waiting for next scheduled run...")
}
