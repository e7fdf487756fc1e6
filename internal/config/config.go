package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	resilientmaps "github.com/opengovern/resilient-maps"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Pretty     bool   `yaml:"pretty"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// RetryConfig mirrors resilientmaps.RetryConfig with YAML tags.
type RetryConfig struct {
	InitialInterval     time.Duration `yaml:"initial_interval"`
	Multiplier          float64       `yaml:"multiplier"`
	RandomizationFactor float64       `yaml:"randomization_factor"`
	MaxInterval         time.Duration `yaml:"max_interval"`
	MaxElapsedTime      time.Duration `yaml:"max_elapsed_time"`
	MaxRetries          int           `yaml:"max_retries"`
}

// Config is the top-level CLI configuration.
type Config struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
	// RateLimits maps a category name ("all", "geocoding", ...) to a limit
	// such as "50/s", "3000/m" or "10/s:20" (burst 20).
	RateLimits  map[string]string `yaml:"rate_limits"`
	Logging     LoggingConfig     `yaml:"logging"`
	MetricsAddr string            `yaml:"metrics_addr"`
}

func Default() Config {
	rc := resilientmaps.DefaultRetryConfig()
	return Config{
		BaseURL: resilientmaps.DefaultBaseURL,
		Timeout: resilientmaps.DefaultTimeout,
		Retry: RetryConfig{
			InitialInterval:     rc.InitialInterval,
			Multiplier:          rc.Multiplier,
			RandomizationFactor: rc.RandomizationFactor,
			MaxInterval:         rc.MaxInterval,
			MaxElapsedTime:      rc.MaxElapsedTime,
			MaxRetries:          rc.MaxRetries,
		},
		RateLimits: map[string]string{},
		Logging: LoggingConfig{
			Level:      "info",
			Pretty:     true,
			MaxSizeMB:  100,
			MaxBackups: 10,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// LoadDotEnv loads .env files into the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads defaults, then the YAML file at path (if any), then environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
		if cfg.RateLimits == nil {
			cfg.RateLimits = map[string]string{}
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// FromEnv is Load without a file.
func FromEnv() (Config, error) {
	return Load("")
}

func applyEnv(cfg *Config) {
	cfg.APIKey = getEnv("GOOGLE_MAPS_API_KEY", cfg.APIKey)
	cfg.BaseURL = getEnv("MAPS_BASE_URL", cfg.BaseURL)
	cfg.Timeout = parseDuration(getEnv("MAPS_TIMEOUT", ""), cfg.Timeout)
	cfg.MetricsAddr = getEnv("MAPS_METRICS_ADDR", cfg.MetricsAddr)

	cfg.Retry.InitialInterval = parseDuration(getEnv("MAPS_RETRY_INITIAL_INTERVAL", ""), cfg.Retry.InitialInterval)
	cfg.Retry.Multiplier = parseFloat(getEnv("MAPS_RETRY_MULTIPLIER", ""), cfg.Retry.Multiplier)
	cfg.Retry.RandomizationFactor = parseFloat(getEnv("MAPS_RETRY_JITTER", ""), cfg.Retry.RandomizationFactor)
	cfg.Retry.MaxInterval = parseDuration(getEnv("MAPS_RETRY_MAX_INTERVAL", ""), cfg.Retry.MaxInterval)
	cfg.Retry.MaxElapsedTime = parseDuration(getEnv("MAPS_RETRY_MAX_ELAPSED", ""), cfg.Retry.MaxElapsedTime)
	cfg.Retry.MaxRetries = parseInt(getEnv("MAPS_RETRY_MAX_RETRIES", ""), cfg.Retry.MaxRetries)

	for _, api := range resilientmaps.Apis() {
		key := "MAPS_RATE_" + strings.ToUpper(api.String())
		if v := getEnv(key, ""); v != "" {
			cfg.RateLimits[api.String()] = v
		}
	}

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = parseBool(getEnv("LOG_PRETTY", ""), cfg.Logging.Pretty)
	cfg.Logging.File = getEnv("LOG_FILE", cfg.Logging.File)
	cfg.Logging.MaxSizeMB = parseInt(getEnv("LOG_MAX_SIZE_MB", ""), cfg.Logging.MaxSizeMB)
	cfg.Logging.MaxBackups = parseInt(getEnv("LOG_MAX_BACKUPS", ""), cfg.Logging.MaxBackups)
	cfg.Logging.MaxAgeDays = parseInt(getEnv("LOG_MAX_AGE_DAYS", ""), cfg.Logging.MaxAgeDays)
	cfg.Logging.Compress = parseBool(getEnv("LOG_COMPRESS", ""), cfg.Logging.Compress)
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry multiplier must be >= 1, got %v", c.Retry.Multiplier)
	}
	if c.Retry.RandomizationFactor < 0 || c.Retry.RandomizationFactor > 1 {
		return fmt.Errorf("retry randomization factor must be in [0, 1], got %v", c.Retry.RandomizationFactor)
	}
	if c.Retry.MaxElapsedTime <= 0 && c.Retry.MaxRetries <= 0 {
		return errors.New("retry needs max_elapsed_time or max_retries, otherwise it never gives up")
	}
	for name, v := range c.RateLimits {
		if _, ok := resilientmaps.ParseApi(name); !ok {
			return fmt.Errorf("rate_limits: unknown api %q", name)
		}
		if _, err := ParseRateLimit(v); err != nil {
			return fmt.Errorf("rate_limits.%s: %w", name, err)
		}
	}
	return nil
}

// ParseRateLimit reads "N/unit" or "N/unit:burst". unit is s, m, h or any
// Go duration ("500ms").
func ParseRateLimit(s string) (resilientmaps.RateLimit, error) {
	var l resilientmaps.RateLimit
	s = strings.TrimSpace(s)
	if rest, burst, ok := strings.Cut(s, ":"); ok {
		b, err := strconv.Atoi(strings.TrimSpace(burst))
		if err != nil || b <= 0 {
			return l, fmt.Errorf("invalid burst in %q", s)
		}
		l.Burst = b
		s = rest
	}
	n, unit, ok := strings.Cut(s, "/")
	if !ok {
		return l, fmt.Errorf("expected N/unit, got %q", s)
	}
	req, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil || req <= 0 {
		return l, fmt.Errorf("invalid request count in %q", s)
	}
	l.Requests = req

	switch strings.TrimSpace(unit) {
	case "s", "sec", "second":
		l.Per = time.Second
	case "m", "min", "minute":
		l.Per = time.Minute
	case "h", "hour":
		l.Per = time.Hour
	default:
		d, err := time.ParseDuration(strings.TrimSpace(unit))
		if err != nil || d <= 0 {
			return l, fmt.Errorf("invalid period in %q", s)
		}
		l.Per = d
	}
	return l, nil
}

// ClientOptions turns the configuration into resilientmaps options.
func (c Config) ClientOptions(logger zerolog.Logger) ([]resilientmaps.Option, error) {
	opts := []resilientmaps.Option{
		resilientmaps.WithBaseURL(c.BaseURL),
		resilientmaps.WithTimeout(c.Timeout),
		resilientmaps.WithLogger(logger),
		resilientmaps.WithRetryConfig(resilientmaps.RetryConfig{
			InitialInterval:     c.Retry.InitialInterval,
			Multiplier:          c.Retry.Multiplier,
			RandomizationFactor: c.Retry.RandomizationFactor,
			MaxInterval:         c.Retry.MaxInterval,
			MaxElapsedTime:      c.Retry.MaxElapsedTime,
			MaxRetries:          c.Retry.MaxRetries,
		}),
	}
	for name, v := range c.RateLimits {
		api, ok := resilientmaps.ParseApi(name)
		if !ok {
			return nil, fmt.Errorf("unknown api %q", name)
		}
		l, err := ParseRateLimit(v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, resilientmaps.WithRateLimit(api, l))
	}
	return opts, nil
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func parseBool(s string, def bool) bool {
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
