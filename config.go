package tglog

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/config"
)

// configPrefix is the TOML table the handler settings live under
const configPrefix = "tglog."

// Config holds all handler configuration values
type Config struct {
	// Destination
	Token                 string `toml:"token"`
	ChatID                string `toml:"chat_id"` // Numeric id or "@channel"
	APIURL                string `toml:"api_url"`
	ParseMode             string `toml:"parse_mode"` // "HTML", "MARKDOWN", or "MarkdownV2"
	DisableWebPagePreview bool   `toml:"disable_web_page_preview"`
	DisableNotification   bool   `toml:"disable_notification"`

	// Delivery
	RetryStrategy    string `toml:"retry_strategy"` // "exponential_backoff", "linear_backoff", or "drop"
	MaxRetries       int64  `toml:"max_retries"`    // 0 disables retries
	RetryBaseMs      int64  `toml:"retry_base_ms"`
	RetryMaxMs       int64  `toml:"retry_max_ms"`
	MinIntervalMs    int64  `toml:"min_interval_ms"` // Spacing between sends to the chat
	RequestTimeoutMs int64  `toml:"request_timeout_ms"`

	// Filtering and formatting
	Level           int64  `toml:"level"`
	Format          string `toml:"format"` // "txt", "json", or "raw"
	ShowTimestamp   bool   `toml:"show_timestamp"`
	ShowLevel       bool   `toml:"show_level"`
	TimestampFormat string `toml:"timestamp_format"`

	// Worker and shutdown
	PollIntervalMs   int64 `toml:"poll_interval_ms"`
	DrainTimeoutMs   int64 `toml:"drain_timeout_ms"`
	CleanupTimeoutMs int64 `toml:"cleanup_timeout_ms"`
	JoinTimeoutMs    int64 `toml:"join_timeout_ms"`
	QueueSize        int64 `toml:"queue_size"` // Capacity of the QueuedHandler buffer

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	APIURL:                DefaultAPIURL,
	ParseMode:             string(ParseModeHTML),
	DisableWebPagePreview: true,
	DisableNotification:   false,

	RetryStrategy:    string(RetryExponentialBackoff),
	MaxRetries:       0,
	RetryBaseMs:      1000,
	RetryMaxMs:       30000,
	MinIntervalMs:    1000,
	RequestTimeoutMs: 10000,

	Level:           LevelDebug,
	Format:          "txt",
	ShowTimestamp:   true,
	ShowLevel:       true,
	TimestampFormat: time.RFC3339,

	PollIntervalMs:   100,
	DrainTimeoutMs:   5000,
	CleanupTimeoutMs: 5000,
	JoinTimeoutMs:    5000,
	QueueSize:        1000,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads the [tglog] table of a TOML file and returns a validated Config.
// A missing file yields the defaults, which still fail validation without token and chat_id.
func NewConfigFromFile(path string) (*Config, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile is NewConfigFromFile without validation, for callers that
// complete the configuration afterwards (e.g. a token from the environment).
func LoadConfigFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct(configPrefix, *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, configPrefix, cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}
	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides keyed by toml name
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies loader values into cfg, leaving defaults for absent keys
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	fields := configFields(cfg)
	for tag, field := range fields {
		val, found := loader.Get(prefix + tag)
		if !found {
			continue
		}
		if err := setFieldValue(field, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", tag, err)
		}
	}
	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	fields := configFields(cfg)
	for key, value := range overrides {
		field, exists := fields[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// configFields maps toml tags to the settable fields of cfg
func configFields(cfg *Config) map[string]reflect.Value {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fields := make(map[string]reflect.Value, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("toml"); tag != "" {
			fields[tag] = v.Field(i)
		}
	}
	return fields
}

// setFieldValue sets a reflect.Value with proper type conversion.
// Integers are accepted for string fields so a numeric chat_id may be written unquoted.
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		switch v := value.(type) {
		case string:
			field.SetString(v)
		case int64:
			field.SetString(strconv.FormatInt(v, 10))
		case int:
			field.SetString(strconv.Itoa(v))
		default:
			return fmt.Errorf("expected string, got %T", value)
		}

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}

// Validate checks the configuration for missing or out of range values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return fmtErrorf("token is required")
	}
	if strings.TrimSpace(c.ChatID) == "" {
		return fmtErrorf("chat_id is required")
	}

	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmtErrorf("invalid api_url: '%s'", c.APIURL)
	}

	if _, err := ParseParseMode(c.ParseMode); err != nil {
		return err
	}
	if _, err := ParseRetryStrategy(c.RetryStrategy); err != nil {
		return err
	}

	if c.Format != "txt" && c.Format != "json" && c.Format != "raw" {
		return fmtErrorf("invalid format: '%s' (use txt, json, or raw)", c.Format)
	}
	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if c.MaxRetries < 0 {
		return fmtErrorf("max_retries cannot be negative: %d", c.MaxRetries)
	}
	if c.MaxRetries > 0 {
		if c.RetryBaseMs <= 0 {
			return fmtErrorf("retry_base_ms must be positive when retries are enabled: %d", c.RetryBaseMs)
		}
		if c.RetryMaxMs < c.RetryBaseMs {
			return fmtErrorf("retry_max_ms (%d) cannot be less than retry_base_ms (%d)", c.RetryMaxMs, c.RetryBaseMs)
		}
	}

	if c.MinIntervalMs < 0 {
		return fmtErrorf("min_interval_ms cannot be negative: %d", c.MinIntervalMs)
	}
	if c.RequestTimeoutMs <= 0 || c.PollIntervalMs <= 0 {
		return fmtErrorf("request_timeout_ms and poll_interval_ms must be positive")
	}
	if c.DrainTimeoutMs <= 0 || c.CleanupTimeoutMs <= 0 || c.JoinTimeoutMs <= 0 {
		return fmtErrorf("shutdown timeouts must be positive")
	}
	if c.QueueSize <= 0 {
		return fmtErrorf("queue_size must be positive: %d", c.QueueSize)
	}

	return nil
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// Destination returns the delivery target described by the configuration
func (c *Config) Destination() (Destination, error) {
	mode, err := ParseParseMode(c.ParseMode)
	if err != nil {
		return Destination{}, err
	}
	return Destination{
		ChatID:                ChatID(strings.TrimSpace(c.ChatID)),
		ParseMode:             mode,
		DisableWebPagePreview: c.DisableWebPagePreview,
		DisableNotification:   c.DisableNotification,
	}, nil
}

// Endpoint returns the sendMessage URL for the configured bot
func (c *Config) Endpoint() string {
	return strings.TrimRight(c.APIURL, "/") + "/bot" + c.Token + "/sendMessage"
}

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
