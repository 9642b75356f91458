// Package config handles configuration loading for equitylens.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seenimoa/equitylens/internal/analysis/fundamental"
	"github.com/seenimoa/equitylens/internal/analysis/technical"
)

// Config represents the complete application configuration.
type Config struct {
	Valuation ValuationConfig  `mapstructure:"valuation" yaml:"valuation"`
	Technical technical.Params `mapstructure:"technical" yaml:"technical"`
	Scanner   ScannerConfig    `mapstructure:"scanner"   yaml:"scanner"`
	Provider  ProviderConfig   `mapstructure:"provider"  yaml:"provider"`
	Sheets    SheetsConfig     `mapstructure:"sheets"    yaml:"sheets"`
	Calendar  CalendarConfig   `mapstructure:"calendar"  yaml:"calendar"`
	Recorder  RecorderConfig   `mapstructure:"recorder"  yaml:"recorder"`
	LLM       LLMConfig        `mapstructure:"llm"       yaml:"llm"`
	API       APIConfig        `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig    `mapstructure:"logging"   yaml:"logging"`
}

// ValuationConfig holds the default model assumptions. Command flags
// override them per run.
type ValuationConfig struct {
	DCF fundamental.DCFAssumptions `mapstructure:"dcf" yaml:"dcf"`
	DDM fundamental.DDMAssumptions `mapstructure:"ddm" yaml:"ddm"`
}

// ScannerConfig holds the golden cross scanner settings.
type ScannerConfig struct {
	Workers         int    `mapstructure:"workers"          yaml:"workers"`
	DailyPeriod     string `mapstructure:"daily_period"     yaml:"daily_period"`
	HourlyPeriod    string `mapstructure:"hourly_period"    yaml:"hourly_period"`
	UniverseURL     string `mapstructure:"universe_url"     yaml:"universe_url"`
	Schedule        string `mapstructure:"schedule"         yaml:"schedule"` // cron spec with seconds, empty = run once
	MetricsTextfile string `mapstructure:"metrics_textfile" yaml:"metrics_textfile"`
}

// ProviderConfig tunes the Yahoo Finance client.
type ProviderConfig struct {
	BaseURL            string  `mapstructure:"base_url"              yaml:"base_url"`
	RateLimit          float64 `mapstructure:"rate_limit"            yaml:"rate_limit"`           // requests per second
	Burst              int     `mapstructure:"burst"                 yaml:"burst"`
	TimeoutSec         int     `mapstructure:"timeout_sec"           yaml:"timeout_sec"`
	CacheTTL           int     `mapstructure:"cache_ttl"             yaml:"cache_ttl"`            // seconds
	BreakerMaxFailures uint32  `mapstructure:"breaker_max_failures"  yaml:"breaker_max_failures"`
	BreakerCooldownSec int     `mapstructure:"breaker_cooldown_sec"  yaml:"breaker_cooldown_sec"`
	NewsLimit          int     `mapstructure:"news_limit"            yaml:"news_limit"`
}

// Timeout returns the HTTP timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration { return time.Duration(p.TimeoutSec) * time.Second }

// CacheDuration returns the response cache TTL as a duration.
func (p ProviderConfig) CacheDuration() time.Duration { return time.Duration(p.CacheTTL) * time.Second }

// BreakerCooldown returns how long the breaker stays open.
func (p ProviderConfig) BreakerCooldown() time.Duration {
	return time.Duration(p.BreakerCooldownSec) * time.Second
}

// SheetsConfig holds the Google Sheets sink settings. Credentials is the
// service account JSON itself, usually supplied through GOOGLE_CREDENTIALS.
type SheetsConfig struct {
	Credentials string `mapstructure:"credentials" yaml:"credentials"`
	UserEmail   string `mapstructure:"user_email"  yaml:"user_email"`
	SheetName   string `mapstructure:"sheet_name"  yaml:"sheet_name"`
	OutputDir   string `mapstructure:"output_dir"  yaml:"output_dir"` // CSV fallback location
}

// CalendarConfig holds the earnings calendar sync settings.
type CalendarConfig struct {
	Tickers         []string `mapstructure:"tickers"          yaml:"tickers"`
	Timezone        string   `mapstructure:"timezone"         yaml:"timezone"`
	CalendarID      string   `mapstructure:"calendar_id"      yaml:"calendar_id"`
	CredentialsFile string   `mapstructure:"credentials_file" yaml:"credentials_file"`
	TokenFile       string   `mapstructure:"token_file"       yaml:"token_file"`
	MaxEvents       int      `mapstructure:"max_events"       yaml:"max_events"`
}

// RecorderConfig enables the SQLite scan history.
type RecorderConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// LLMConfig holds the Gemini settings used for news analysis.
type LLMConfig struct {
	GeminiKey   string  `mapstructure:"gemini_key"  yaml:"gemini_key"`
	Model       string  `mapstructure:"model"       yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"  yaml:"max_tokens"`
	NewsLimit   int     `mapstructure:"news_limit"  yaml:"news_limit"`
}

// APIConfig holds dashboard API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

const envPrefix = "EQUITYLENS"

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.equitylens/config.yaml (home directory)
//  3. /etc/equitylens/config.yaml (system)
//
// Environment variables override config file values.
// Format: EQUITYLENS_<SECTION>_<KEY>, e.g., EQUITYLENS_SCANNER_WORKERS
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".equitylens"))
	v.AddConfigPath("/etc/equitylens")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Valuation defaults
	v.SetDefault("valuation.dcf.years", 5)
	v.SetDefault("valuation.dcf.short_term_growth", 0.12)
	v.SetDefault("valuation.dcf.discount_rate", 0.09)
	v.SetDefault("valuation.dcf.terminal_growth", 0.025)
	v.SetDefault("valuation.ddm.growth", 0.05)
	v.SetDefault("valuation.ddm.required_return", 0.10)

	// Technical defaults
	p := technical.DefaultParams()
	v.SetDefault("technical.short_window", p.ShortWindow)
	v.SetDefault("technical.long_window", p.LongWindow)
	v.SetDefault("technical.rsi_period", p.RSIPeriod)
	v.SetDefault("technical.fib_lookback", p.FibLookback)

	// Scanner defaults
	v.SetDefault("scanner.workers", 10)
	v.SetDefault("scanner.daily_period", "2y")
	v.SetDefault("scanner.hourly_period", "1mo")
	v.SetDefault("scanner.universe_url", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies")
	v.SetDefault("scanner.schedule", "")

	// Provider defaults
	v.SetDefault("provider.base_url", "https://query2.finance.yahoo.com")
	v.SetDefault("provider.rate_limit", 5.0)
	v.SetDefault("provider.burst", 5)
	v.SetDefault("provider.timeout_sec", 15)
	v.SetDefault("provider.cache_ttl", 300) // 5 minutes
	v.SetDefault("provider.breaker_max_failures", 5)
	v.SetDefault("provider.breaker_cooldown_sec", 30)
	v.SetDefault("provider.news_limit", 20)

	// Sheets defaults
	v.SetDefault("sheets.sheet_name", "S&P 500 Golden Cross Master Report")
	v.SetDefault("sheets.output_dir", ".")

	// Calendar defaults
	v.SetDefault("calendar.tickers", []string{"GOOG", "MSFT", "AAPL", "AMZN", "NVDA", "TSLA"})
	v.SetDefault("calendar.timezone", "America/New_York")
	v.SetDefault("calendar.calendar_id", "primary")
	v.SetDefault("calendar.credentials_file", "credentials.json")
	v.SetDefault("calendar.token_file", "token.json")
	v.SetDefault("calendar.max_events", 4)

	// Recorder defaults
	v.SetDefault("recorder.enabled", false)
	v.SetDefault("recorder.path", filepath.Join(homeDir(), ".equitylens", "history.db"))

	// LLM defaults
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.news_limit", 10)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
// GOOGLE_CREDENTIALS and USER_EMAIL keep their conventional unprefixed names.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("EQUITYLENS_LLM_GEMINI_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" && cfg.LLM.GeminiKey == "" {
		cfg.LLM.GeminiKey = key
	}
	if creds := os.Getenv("GOOGLE_CREDENTIALS"); creds != "" {
		cfg.Sheets.Credentials = creds
	}
	if email := os.Getenv("USER_EMAIL"); email != "" {
		cfg.Sheets.UserEmail = email
	}
}

// Validate checks the relationships the models depend on. It reports every
// problem at once.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Valuation.DCF.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("valuation.dcf: %w", err))
	}
	if err := c.Valuation.DDM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("valuation.ddm: %w", err))
	}

	t := c.Technical
	if t.ShortWindow <= 0 || t.LongWindow <= 0 || t.RSIPeriod <= 0 || t.FibLookback <= 0 {
		errs = append(errs, errors.New("technical windows must be positive"))
	} else if t.ShortWindow >= t.LongWindow {
		errs = append(errs, fmt.Errorf("technical.short_window (%d) must be below long_window (%d)",
			t.ShortWindow, t.LongWindow))
	}

	if c.Scanner.Workers <= 0 {
		errs = append(errs, fmt.Errorf("scanner.workers must be positive, got %d", c.Scanner.Workers))
	}
	if c.Provider.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("provider.rate_limit must not be negative, got %.2f", c.Provider.RateLimit))
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port out of range: %d", c.API.Port))
	}
	return errors.Join(errs...)
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
