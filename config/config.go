package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// DefaultPath is used when --config is not given. A missing file at this
// path is not an error.
const DefaultPath = "config/config.json"

const (
	DefaultRubikaAPIBase = "https://botapi.rubika.ir"
	DefaultPexelsAPIBase = "https://api.pexels.com"
)

// Config holds everything a run needs. It is built once by Load and passed
// to each component.
type Config struct {
	ContentPath     string     `json:"content_path,omitempty"`
	StatePath       string     `json:"state_path,omitempty"`
	AnalyticsPath   string     `json:"analytics_path,omitempty"`
	MetricsTextfile string     `json:"metrics_textfile,omitempty"`
	Locale          string     `json:"locale,omitempty"`
	Bot             Bot        `json:"bot"`
	Pexels          Pexels     `json:"pexels"`
	LLM             *LLMConfig `json:"llm,omitempty"`
}

// Bot describes the Rubika bot endpoint. Token and ChatID only ever come
// from the environment.
type Bot struct {
	APIBase string `json:"api_base,omitempty"`
	Token   string `json:"-"`
	ChatID  string `json:"-"`
}

// HasCredentials reports whether both bot credentials are present.
func (b Bot) HasCredentials() bool {
	return b.Token != "" && b.ChatID != ""
}

// Pexels describes the image search provider.
type Pexels struct {
	APIBase string `json:"api_base,omitempty"`
	APIKey  string `json:"-"`
}

// LLMConfig enables the optional title translation fallback.
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"-"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Enabled reports whether a provider and key are configured.
func (l *LLMConfig) Enabled() bool {
	return l != nil && l.Provider != "" && l.APIKey != ""
}

// Defaults returns the configuration used when no file or environment
// overrides are present.
func Defaults() Config {
	return Config{
		ContentPath:   "content.csv",
		StatePath:     "state.json",
		AnalyticsPath: "analytics.json",
		Locale:        "fa",
		Bot:           Bot{APIBase: DefaultRubikaAPIBase},
		Pexels:        Pexels{APIBase: DefaultPexelsAPIBase},
	}
}

// LoadEnv loads .env files from the working directory without overriding
// variables already set in the process environment.
func LoadEnv(logger *logrus.Logger) {
	files := []string{".env.local", ".env"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", file)
			}
			continue
		}
		loaded = append(loaded, file)
	}
	if logger == nil {
		return
	}
	if len(loaded) == 0 {
		logger.Debug("No local env files loaded; relying on process environment")
	} else {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

// Load reads the JSON config at path on top of Defaults and then applies
// environment overrides. An empty path means DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Bot.Token = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	cfg.Bot.ChatID = strings.TrimSpace(os.Getenv("CHAT_ID"))
	cfg.Pexels.APIKey = strings.TrimSpace(os.Getenv("PEXELS_KEY"))

	cfg.Bot.APIBase = GetEnv("RUBIKA_API_BASE", cfg.Bot.APIBase)
	cfg.Pexels.APIBase = GetEnv("PEXELS_API_BASE", cfg.Pexels.APIBase)
	cfg.ContentPath = GetEnv("CONTENT_PATH", cfg.ContentPath)
	cfg.StatePath = GetEnv("STATE_PATH", cfg.StatePath)
	cfg.AnalyticsPath = GetEnv("ANALYTICS_PATH", cfg.AnalyticsPath)
	cfg.MetricsTextfile = GetEnv("METRICS_TEXTFILE", cfg.MetricsTextfile)
	cfg.Locale = GetEnv("CAPTION_LOCALE", cfg.Locale)

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		if cfg.LLM == nil {
			cfg.LLM = &LLMConfig{}
		}
		cfg.LLM.Provider = provider
	}
	if cfg.LLM != nil {
		cfg.LLM.Model = GetEnv("LLM_MODEL", cfg.LLM.Model)
		cfg.LLM.BaseURL = GetEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
		cfg.LLM.APIKey = strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	}
}

func validate(cfg *Config) error {
	if cfg.ContentPath == "" {
		return errors.New("content_path must not be empty")
	}
	if cfg.StatePath == "" || cfg.AnalyticsPath == "" {
		return errors.New("state_path and analytics_path must not be empty")
	}
	if _, err := language.Parse(cfg.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
	}
	cfg.Bot.APIBase = strings.TrimRight(cfg.Bot.APIBase, "/")
	cfg.Pexels.APIBase = strings.TrimRight(cfg.Pexels.APIBase, "/")
	return nil
}

// LocaleTag returns the parsed caption locale, falling back to Persian.
func (c Config) LocaleTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Persian
	}
	return tag
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
