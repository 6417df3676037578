package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromEnv(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"WARN":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"bogus": logrus.InfoLevel,
	}
	for in, want := range cases {
		t.Setenv("LOG_LEVEL", in)
		assert.Equal(t, want, LevelFromEnv(), "LOG_LEVEL=%q", in)
	}
}

func TestNewLoggerFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")
	_, ok := NewLogger().Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)

	t.Setenv("LOG_FORMAT", "")
	_, ok = NewLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}
