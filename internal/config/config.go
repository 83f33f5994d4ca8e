// Package config loads taskhub client settings from the environment, an
// optional .env file and an optional YAML overlay.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultPrefix is the environment variable prefix used by Load.
const DefaultPrefix = "TASKHUB"

// Config holds all client configuration.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development" yaml:"environment"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" yaml:"log_level"`

	// Backend
	APIBaseURL     string        `envconfig:"API_BASE_URL" default:"http://localhost:8080" yaml:"api_base_url"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s" yaml:"request_timeout"` // 0 = no timeout
	LoginRoute     string        `envconfig:"LOGIN_ROUTE" default:"/login" yaml:"login_route"`

	// Local state (SQLite file; empty keeps it in memory)
	StatePath string `envconfig:"STATE_PATH" yaml:"state_path"`

	// Chat
	WSURL                 string        `envconfig:"WS_URL" default:"ws://localhost:8080/ws/websocket" yaml:"ws_url"`
	ChatTopic             string        `envconfig:"CHAT_TOPIC" default:"/topic/messages" yaml:"chat_topic"`
	ChatDestination       string        `envconfig:"CHAT_DESTINATION" default:"/app/chat" yaml:"chat_destination"`
	ChatHeartbeat         time.Duration `envconfig:"CHAT_HEARTBEAT" default:"4s" yaml:"chat_heartbeat"`
	ChatReconnectDelay    time.Duration `envconfig:"CHAT_RECONNECT_DELAY" default:"5s" yaml:"chat_reconnect_delay"`
	ChatMaxReconnectDelay time.Duration `envconfig:"CHAT_MAX_RECONNECT_DELAY" default:"30s" yaml:"chat_max_reconnect_delay"`
	InboxCapacity         int           `envconfig:"INBOX_CAPACITY" default:"32" yaml:"inbox_capacity"`

	// Observability
	MetricsAddr string `envconfig:"METRICS_ADDR" yaml:"metrics_addr"` // empty = disabled

	// ConfigFile names the YAML overlay. Only read from the environment.
	ConfigFile string `envconfig:"CONFIG_FILE" yaml:"-"`
}

// IsDevelopment reports whether human-readable console logging applies.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if err := checkURL(c.APIBaseURL, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("api base url: %w", err))
	}
	if err := checkURL(c.WSURL, "ws", "wss"); err != nil {
		errs = append(errs, fmt.Errorf("ws url: %w", err))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout must not be negative"))
	}
	if c.InboxCapacity < 1 {
		errs = append(errs, errors.New("inbox capacity must be at least 1"))
	}
	if c.ChatMaxReconnectDelay < c.ChatReconnectDelay {
		errs = append(errs, errors.New("chat max reconnect delay is below the initial delay"))
	}
	return errors.Join(errs...)
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%q must use one of %s", raw, strings.Join(schemes, ", "))
}

// Load reads configuration from TASKHUB_* variables.
func Load() (*Config, error) {
	return LoadWithPrefix(DefaultPrefix)
}

// LoadWithPrefix loads .env (when present), then the environment, then
// fills anything the environment left unset from the YAML overlay.
func LoadWithPrefix(prefix string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}

	if cfg.ConfigFile != "" {
		file, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		overlay(&cfg, file, prefix)
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	// godotenv never overrides variables already set
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// LoadFile parses a YAML config file, expanding ${VAR} references first.
func LoadFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return LoadBytes(raw)
}

// LoadBytes parses YAML config bytes.
func LoadBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}

// overlay copies non-zero file values into cfg for every field whose
// environment variable is unset.
func overlay(cfg, file *Config, prefix string) {
	dst := reflect.ValueOf(cfg).Elem()
	src := reflect.ValueOf(file).Elem()
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("envconfig")
		if key == "" || t.Field(i).Tag.Get("yaml") == "-" {
			continue
		}
		if envSet(key) || (prefix != "" && envSet(prefix+"_"+key)) {
			continue
		}
		if v := src.Field(i); !v.IsZero() {
			dst.Field(i).Set(v)
		}
	}
}

// envSet mirrors envconfig, which also accepts the unprefixed name.
func envSet(key string) bool {
	_, ok := os.LookupEnv(strings.ToUpper(key))
	return ok
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the environment value. Missing
// variables become empty.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimSuffix(name, "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}
