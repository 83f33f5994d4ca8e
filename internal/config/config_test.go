package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithPrefix("TASKHUBTEST")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, "ws://localhost:8080/ws/websocket", cfg.WSURL)
	assert.Equal(t, "/topic/messages", cfg.ChatTopic)
	assert.Equal(t, "/app/chat", cfg.ChatDestination)
	assert.Equal(t, 4*time.Second, cfg.ChatHeartbeat)
	assert.Equal(t, 5*time.Second, cfg.ChatReconnectDelay)
	assert.Equal(t, 30*time.Second, cfg.ChatMaxReconnectDelay)
	assert.Equal(t, "/login", cfg.LoginRoute)
	assert.Equal(t, 32, cfg.InboxCapacity)
	assert.Zero(t, cfg.RequestTimeout)
	assert.Empty(t, cfg.MetricsAddr)
	assert.True(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKHUB_API_BASE_URL", "https://api.example.com")
	t.Setenv("TASKHUB_REQUEST_TIMEOUT", "15s")
	t.Setenv("TASKHUB_INBOX_CAPACITY", "8")
	t.Setenv("TASKHUB_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 8, cfg.InboxCapacity)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_YAMLOverlayLosesToEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_base_url: https://${TASKHUB_TEST_HOST}
ws_url: wss://chat.example.com/ws/websocket
chat_heartbeat: 10s
inbox_capacity: 4
log_level: debug
`), 0o600))

	t.Setenv("TASKHUB_TEST_HOST", "yaml.example.com")
	t.Setenv("TASKHUB_CONFIG_FILE", path)
	t.Setenv("TASKHUB_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://yaml.example.com", cfg.APIBaseURL)
	assert.Equal(t, "wss://chat.example.com/ws/websocket", cfg.WSURL)
	assert.Equal(t, 10*time.Second, cfg.ChatHeartbeat)
	assert.Equal(t, 4, cfg.InboxCapacity)
	assert.Equal(t, "warn", cfg.LogLevel)
	// untouched by both
	assert.Equal(t, "/app/chat", cfg.ChatDestination)
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	t.Setenv("TASKHUB_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("TASKHUB_CHAT_HEARTBEAT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TASKHUB_DOTENV_PROBE=from-file\n"), 0o600))
	t.Setenv("TASKHUB_DOTENV_PROBE", "")
	os.Unsetenv("TASKHUB_DOTENV_PROBE")

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("TASKHUB_DOTENV_PROBE"))

	require.NoError(t, loadDotEnv(filepath.Join(dir, "absent.env")))
}

func TestLoadBytes_ExpandsEnv(t *testing.T) {
	t.Setenv("TASKHUB_TEST_TOPIC", "/topic/other")
	cfg, err := LoadBytes([]byte("chat_topic: ${TASKHUB_TEST_TOPIC}\nmetrics_addr: $TASKHUB_TEST_MISSING\n"))
	require.NoError(t, err)
	assert.Equal(t, "/topic/other", cfg.ChatTopic)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			APIBaseURL:            "http://localhost:8080",
			WSURL:                 "ws://localhost:8080/ws/websocket",
			InboxCapacity:         1,
			ChatReconnectDelay:    time.Second,
			ChatMaxReconnectDelay: time.Second,
		}
	}
	require.NoError(t, base().Validate())

	c := base()
	c.APIBaseURL = "localhost:8080"
	assert.ErrorContains(t, c.Validate(), "api base url")

	c = base()
	c.WSURL = "http://localhost:8080/ws"
	assert.ErrorContains(t, c.Validate(), "ws url")

	c = base()
	c.InboxCapacity = 0
	assert.ErrorContains(t, c.Validate(), "inbox capacity")

	c = base()
	c.ChatMaxReconnectDelay = 0
	assert.ErrorContains(t, c.Validate(), "reconnect delay")

	c = base()
	c.RequestTimeout = -time.Second
	assert.ErrorContains(t, c.Validate(), "negative")
}
