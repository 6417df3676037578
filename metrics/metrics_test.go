package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder()
	r.PostSent()
	r.PostSent()
	r.PostFailed()
	r.ImageFallback()
	r.Skipped(SkipEmptyTitle)
	r.Skipped(SkipAlreadyPosted)
	r.Skipped(SkipAlreadyPosted)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.postsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.postsFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.imageFallbacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.itemsSkipped.WithLabelValues(SkipAlreadyPosted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.itemsSkipped.WithLabelValues(SkipEmptyTitle)))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.PostSent()
	r.Finish(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "rubika_bot.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.Contains(text, "rubika_bot_posts_sent_total 1"), text)
	assert.Contains(t, text, "# TYPE rubika_bot_last_run_timestamp_seconds gauge")
}

func TestWriteTextfileEmptyPathIsNoop(t *testing.T) {
	assert.NoError(t, NewRecorder().WriteTextfile(""))
}
