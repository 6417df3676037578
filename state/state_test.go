package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishStateMissingFile(t *testing.T) {
	st, err := LoadPublishState(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	assert.Nil(t, st.LastPost)
	assert.False(t, st.IsLast(""))
}

func TestPublishStateRoundTripOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_post": "old", "extra": 1}`), 0o644))

	require.NoError(t, SavePublishState(path, "new-id"))

	st, err := LoadPublishState(path)
	require.NoError(t, err)
	require.NotNil(t, st.LastPost)
	assert.Equal(t, "new-id", *st.LastPost)
	assert.True(t, st.IsLast("new-id"))
	assert.False(t, st.IsLast("old"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "extra", "state is overwritten, not merged")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestPublishStateNullLastPost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"last_post": null}`), 0o644))

	st, err := LoadPublishState(path)
	require.NoError(t, err)
	assert.Nil(t, st.LastPost)
}

func TestPublishStateCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := LoadPublishState(path)
	require.Error(t, err)
}

func TestAnalyticsCreatedWithZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.json")

	a, err := LoadAnalytics(path)
	require.NoError(t, err)
	assert.Equal(t, 0, a.PostsSent)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"posts_sent": 0}`, string(raw))
}

func TestIncrementPostsSent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.json")

	for i := 1; i <= 3; i++ {
		a, err := IncrementPostsSent(path)
		require.NoError(t, err)
		assert.Equal(t, i, a.PostsSent)
	}
	a, err := LoadAnalytics(path)
	require.NoError(t, err)
	assert.Equal(t, 3, a.PostsSent)
}

func TestSaveIntoMissingDirectoryFails(t *testing.T) {
	err := SavePublishState(filepath.Join(t.TempDir(), "nope", "state.json"), "x")
	require.Error(t, err)
}
