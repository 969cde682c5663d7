// Package config resolves the settings of the mediascan commands from
// defaults, ~/.mediascan/config.yaml, a .env file and MEDIASCAN_*
// environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config is the resolved configuration.
type Config struct {
	Storage struct {
		Type        string `json:"type"`
		DSN         string `json:"-"`
		ArticlesDSN string `json:"articles_dsn"`
	} `json:"storage"`

	Browser struct {
		Headless      bool          `json:"headless"`
		ExecPath      string        `json:"exec_path,omitempty"`
		Timeout       time.Duration `json:"timeout"`
		Retries       int           `json:"retries"`
		Backoff       time.Duration `json:"backoff"`
		RatePerMinute int           `json:"rate_per_minute"`
		FromHeader    string        `json:"from_header,omitempty"`
	} `json:"browser"`

	Pipeline struct {
		MaxCandidates int `json:"max_candidates"`
		MaxAccepted   int `json:"max_accepted"`
	} `json:"pipeline"`

	AI struct {
		APIKey        string `json:"-"`
		BaseURL       string `json:"base_url,omitempty"`
		Model         string `json:"model"`
		RatePerMinute int    `json:"rate_per_minute"`
	} `json:"ai"`

	Notify struct {
		InvalidateURL     string        `json:"invalidate_url,omitempty"`
		InvalidateTimeout time.Duration `json:"invalidate_timeout"`
		RedisAddr         string        `json:"redis_addr,omitempty"`
		RedisPassword     string        `json:"-"`
		RedisDB           int           `json:"redis_db"`
		RedisPattern      string        `json:"redis_pattern,omitempty"`
		TelegramToken     string        `json:"-"`
		TelegramChatID    int64         `json:"telegram_chat_id,omitempty"`
	} `json:"notify"`

	Schedule struct {
		At       string        `json:"at,omitempty"`
		Interval time.Duration `json:"interval"`
		Timeout  time.Duration `json:"timeout"`
	} `json:"schedule"`

	Log struct {
		Level      string `json:"level"`
		Format     string `json:"format"`
		File       string `json:"file,omitempty"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
		MaxAgeDays int    `json:"max_age_days"`
	} `json:"log"`

	RosterFile string `json:"roster_file,omitempty"`
	APIAddr    string `json:"api_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.Type = StorageSQLite
	cfg.Storage.DSN = "media.db"
	cfg.Storage.ArticlesDSN = "articles.db"

	cfg.Browser.Headless = true
	cfg.Browser.Timeout = 15 * time.Second
	cfg.Browser.Retries = 2
	cfg.Browser.Backoff = 2 * time.Second

	cfg.Pipeline.MaxCandidates = 10
	cfg.Pipeline.MaxAccepted = 5

	cfg.AI.Model = "gpt-4o-mini"

	cfg.Notify.InvalidateTimeout = 120 * time.Second

	cfg.Schedule.At = "03:00"
	cfg.Schedule.Interval = 24 * time.Hour
	cfg.Schedule.Timeout = 6 * time.Hour

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Log.MaxSizeMB = 100
	cfg.Log.MaxBackups = 3
	cfg.Log.MaxAgeDays = 28

	cfg.APIAddr = ":8080"
	return cfg
}

// Load resolves the configuration: defaults, then ~/.mediascan/config.yaml,
// then a .env file in the working directory, then the environment.
func Load() (*Config, error) {
	cfg := Default()

	file, err := LoadConfigFile()
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFile(file); err != nil {
		return nil, err
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadDotEnv loads variables from path into the environment without
// overriding variables that are already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyFile overlays the values set in file. A nil file changes nothing.
func (c *Config) ApplyFile(file *FileConfig) error {
	if file == nil {
		return nil
	}

	setString(&c.Storage.Type, file.Storage.Type)
	setString(&c.Storage.DSN, file.Storage.DSN)
	setString(&c.Storage.ArticlesDSN, file.Storage.ArticlesDSN)

	if file.Browser.Headless != nil {
		c.Browser.Headless = *file.Browser.Headless
	}
	setString(&c.Browser.ExecPath, file.Browser.ExecPath)
	setInt(&c.Browser.Retries, file.Browser.Retries)
	setInt(&c.Browser.RatePerMinute, file.Browser.RatePerMinute)
	setString(&c.Browser.FromHeader, file.Browser.FromHeader)

	setInt(&c.Pipeline.MaxCandidates, file.Pipeline.MaxCandidates)
	setInt(&c.Pipeline.MaxAccepted, file.Pipeline.MaxAccepted)

	setString(&c.AI.APIKey, file.AI.APIKey)
	setString(&c.AI.BaseURL, file.AI.BaseURL)
	setString(&c.AI.Model, file.AI.Model)
	setInt(&c.AI.RatePerMinute, file.AI.RatePerMinute)

	setString(&c.Notify.InvalidateURL, file.Notify.InvalidateURL)
	setString(&c.Notify.RedisAddr, file.Notify.RedisAddr)
	setString(&c.Notify.RedisPassword, file.Notify.RedisPassword)
	setInt(&c.Notify.RedisDB, file.Notify.RedisDB)
	setString(&c.Notify.RedisPattern, file.Notify.RedisPattern)
	setString(&c.Notify.TelegramToken, file.Notify.TelegramToken)
	if file.Notify.TelegramChatID != 0 {
		c.Notify.TelegramChatID = file.Notify.TelegramChatID
	}

	setString(&c.Schedule.At, file.Schedule.At)

	setString(&c.Log.Level, file.Log.Level)
	setString(&c.Log.Format, file.Log.Format)
	setString(&c.Log.File, file.Log.File)
	setInt(&c.Log.MaxSizeMB, file.Log.MaxSizeMB)
	setInt(&c.Log.MaxBackups, file.Log.MaxBackups)
	setInt(&c.Log.MaxAgeDays, file.Log.MaxAgeDays)

	setString(&c.RosterFile, file.RosterFile)
	setString(&c.APIAddr, file.APIAddr)

	for _, d := range []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"browser.timeout", file.Browser.Timeout, &c.Browser.Timeout},
		{"browser.backoff", file.Browser.Backoff, &c.Browser.Backoff},
		{"notify.invalidate_timeout", file.Notify.InvalidateTimeout, &c.Notify.InvalidateTimeout},
		{"schedule.interval", file.Schedule.Interval, &c.Schedule.Interval},
		{"schedule.timeout", file.Schedule.Timeout, &c.Schedule.Timeout},
	} {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		*d.dest = parsed
	}

	return nil
}

// ApplyEnv overlays MEDIASCAN_* environment variables. Malformed numbers
// and durations are errors.
func (c *Config) ApplyEnv() error {
	c.Storage.Type = getEnv("MEDIASCAN_STORAGE_TYPE", c.Storage.Type)
	c.Storage.DSN = getEnv("MEDIASCAN_STORAGE_DSN", c.Storage.DSN)
	c.Storage.ArticlesDSN = getEnv("MEDIASCAN_ARTICLES_DSN", c.Storage.ArticlesDSN)

	c.Browser.ExecPath = getEnv("MEDIASCAN_BROWSER_EXEC_PATH", c.Browser.ExecPath)
	c.Browser.FromHeader = getEnv("MEDIASCAN_FROM_HEADER", c.Browser.FromHeader)

	c.AI.APIKey = getEnv("MEDIASCAN_AI_API_KEY", getEnv("OPENAI_API_KEY", c.AI.APIKey))
	c.AI.BaseURL = getEnv("MEDIASCAN_AI_BASE_URL", c.AI.BaseURL)
	c.AI.Model = getEnv("MEDIASCAN_AI_MODEL", c.AI.Model)

	c.Notify.InvalidateURL = getEnv("MEDIASCAN_INVALIDATE_URL", c.Notify.InvalidateURL)
	c.Notify.RedisAddr = getEnv("MEDIASCAN_REDIS_ADDR", c.Notify.RedisAddr)
	c.Notify.RedisPassword = getEnv("MEDIASCAN_REDIS_PASSWORD", c.Notify.RedisPassword)
	c.Notify.RedisPattern = getEnv("MEDIASCAN_REDIS_PATTERN", c.Notify.RedisPattern)
	c.Notify.TelegramToken = getEnv("MEDIASCAN_TELEGRAM_TOKEN", c.Notify.TelegramToken)

	c.Schedule.At = getEnv("MEDIASCAN_SCHEDULE_AT", c.Schedule.At)

	c.Log.Level = getEnv("MEDIASCAN_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("MEDIASCAN_LOG_FORMAT", c.Log.Format)
	c.Log.File = getEnv("MEDIASCAN_LOG_FILE", c.Log.File)

	c.RosterFile = getEnv("MEDIASCAN_ROSTER", c.RosterFile)
	c.APIAddr = getEnv("MEDIASCAN_API_ADDR", c.APIAddr)

	var err error
	if c.Browser.Headless, err = getEnvBool("MEDIASCAN_BROWSER_HEADLESS", c.Browser.Headless); err != nil {
		return err
	}

	for _, v := range []struct {
		key  string
		dest *int
	}{
		{"MEDIASCAN_BROWSER_RETRIES", &c.Browser.Retries},
		{"MEDIASCAN_BROWSER_RATE", &c.Browser.RatePerMinute},
		{"MEDIASCAN_MAX_CANDIDATES", &c.Pipeline.MaxCandidates},
		{"MEDIASCAN_MAX_ACCEPTED", &c.Pipeline.MaxAccepted},
		{"MEDIASCAN_AI_RATE", &c.AI.RatePerMinute},
		{"MEDIASCAN_REDIS_DB", &c.Notify.RedisDB},
	} {
		if *v.dest, err = getEnvInt(v.key, *v.dest); err != nil {
			return err
		}
	}

	if raw := os.Getenv("MEDIASCAN_TELEGRAM_CHAT_ID"); raw != "" {
		if c.Notify.TelegramChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Errorf("invalid MEDIASCAN_TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
	}

	for _, v := range []struct {
		key  string
		dest *time.Duration
	}{
		{"MEDIASCAN_BROWSER_TIMEOUT", &c.Browser.Timeout},
		{"MEDIASCAN_BROWSER_BACKOFF", &c.Browser.Backoff},
		{"MEDIASCAN_INVALIDATE_TIMEOUT", &c.Notify.InvalidateTimeout},
		{"MEDIASCAN_SCHEDULE_INTERVAL", &c.Schedule.Interval},
		{"MEDIASCAN_RUN_TIMEOUT", &c.Schedule.Timeout},
	} {
		if *v.dest, err = getEnvDuration(v.key, *v.dest); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("invalid storage type %q: must be %s or %s", c.Storage.Type, StorageSQLite, StoragePostgres)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage dsn cannot be empty")
	}
	if c.Storage.Type == StorageSQLite && c.Storage.ArticlesDSN == "" {
		return fmt.Errorf("articles dsn cannot be empty for sqlite storage")
	}
	if c.Pipeline.MaxAccepted <= 0 || c.Pipeline.MaxCandidates <= 0 {
		return fmt.Errorf("pipeline limits must be positive")
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == 0) {
		return fmt.Errorf("telegram token and chat id must be set together")
	}
	return nil
}

func setString(dest *string, value string) {
	if value != "" {
		*dest = value
	}
}

func setInt(dest *int, value int) {
	if value != 0 {
		*dest = value
	}
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration parses a duration from environment variable or returns default.
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return duration, nil
}

// getEnvInt parses an int from environment variable or returns default.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return intVal, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}
