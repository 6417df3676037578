package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

var envKeys = []string{
	"BOT_TOKEN", "CHAT_ID", "PEXELS_KEY", "RUBIKA_API_BASE", "PEXELS_API_BASE",
	"CONTENT_PATH", "STATE_PATH", "ANALYTICS_PATH", "METRICS_TEXTFILE", "CAPTION_LOCALE",
	"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "LLM_BASE_URL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWhenDefaultFileMissing(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "content.csv", cfg.ContentPath)
	assert.Equal(t, "state.json", cfg.StatePath)
	assert.Equal(t, "analytics.json", cfg.AnalyticsPath)
	assert.Equal(t, DefaultRubikaAPIBase, cfg.Bot.APIBase)
	assert.False(t, cfg.Bot.HasCredentials())
	assert.Nil(t, cfg.LLM)
	assert.Equal(t, language.Persian, cfg.LocaleTag())
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
		"content_path": "data/posts.csv",
		"state_path": "data/state.json",
		"bot": {"api_base": "https://bot.example.com/"},
		"llm": {"provider": "openai", "model": "gpt-4o-mini"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	t.Setenv("BOT_TOKEN", " tok ")
	t.Setenv("CHAT_ID", "c1")
	t.Setenv("PEXELS_KEY", "px")
	t.Setenv("STATE_PATH", "override.json")
	t.Setenv("LLM_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/posts.csv", cfg.ContentPath)
	assert.Equal(t, "override.json", cfg.StatePath)
	assert.Equal(t, "https://bot.example.com", cfg.Bot.APIBase)
	assert.Equal(t, "tok", cfg.Bot.Token)
	assert.True(t, cfg.Bot.HasCredentials())
	assert.Equal(t, "px", cfg.Pexels.APIKey)
	require.NotNil(t, cfg.LLM)
	assert.True(t, cfg.LLM.Enabled())
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoadIgnoresCredentialsInFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bot": {"Token": "leaked", "ChatID": "x"}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Bot.Token)
	assert.Empty(t, cfg.Bot.ChatID)
}

func TestLoadRejectsBadLocale(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("CAPTION_LOCALE", "not a locale!!")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadEnvDoesNotOverrideProcessEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("BOT_TOKEN=fromfile\nCHAT_ID=chat-from-file\n"), 0o644))
	t.Setenv("BOT_TOKEN", "fromprocess")
	// CHAT_ID is registered with t.Setenv("") above; unset it so the file value applies.
	require.NoError(t, os.Unsetenv("CHAT_ID"))

	LoadEnv(nil)

	assert.Equal(t, "fromprocess", os.Getenv("BOT_TOKEN"))
	assert.Equal(t, "chat-from-file", os.Getenv("CHAT_ID"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FOO", "")
	assert.Equal(t, "bar", GetEnv("FOO", "bar"))
	t.Setenv("FOO", "baz")
	assert.Equal(t, "baz", GetEnv("FOO", "bar"))
}
