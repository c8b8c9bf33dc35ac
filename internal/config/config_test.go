package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, defaultRefresh, cfg.Refresh)
	assert.Nil(t, cfg.Feed)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
timezone: America/Chicago
feed:
  name: canvas
  url: https://canvas.example.edu/feeds/calendars/user_x.ics
assistant:
  model: gemini-2.5-flash
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	require.NotNil(t, cfg.Feed)
	assert.Equal(t, "canvas", cfg.Feed.Name)
	assert.Equal(t, "gemini-2.5-flash", cfg.Assistant.Model)
	assert.Equal(t, 60*time.Second, cfg.AssistantTimeout())
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL())
	assert.Equal(t, defaultChatPerMin, cfg.Assistant.ChatPerMinute)
	require.NoError(t, cfg.Validate())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestNormalizeDropsFeedWithoutURL(t *testing.T) {
	cfg := &Config{Feed: &FeedConfig{Name: "empty"}}
	cfg.Normalize()
	assert.Nil(t, cfg.Feed)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Refresh = "every now and then"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRejectsEmptyInputs(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
}
