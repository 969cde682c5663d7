package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// StorageConfig represents storage configuration from config file.
type StorageConfig struct {
	Type string `yaml:"type"`
	DSN  string `yaml:"dsn"`
	// ArticlesDSN is the article database when Type is sqlite. Postgres
	// keeps everything in DSN.
	ArticlesDSN string `yaml:"articles_dsn"`
}

// BrowserConfig represents fetch engine configuration from config file.
type BrowserConfig struct {
	Headless      *bool  `yaml:"headless"`
	ExecPath      string `yaml:"exec_path"`
	Timeout       string `yaml:"timeout"`
	Retries       int    `yaml:"retries"`
	Backoff       string `yaml:"backoff"`
	RatePerMinute int    `yaml:"rate_per_minute"`
	FromHeader    string `yaml:"from_header"`
}

// PipelineFileConfig represents run limits from config file.
type PipelineFileConfig struct {
	MaxCandidates int `yaml:"max_candidates"`
	MaxAccepted   int `yaml:"max_accepted"`
}

// AIConfig represents classifier configuration from config file.
type AIConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

// NotifyConfig represents end-of-run collaborators from config file.
type NotifyConfig struct {
	InvalidateURL     string `yaml:"invalidate_url"`
	InvalidateTimeout string `yaml:"invalidate_timeout"`
	RedisAddr         string `yaml:"redis_addr"`
	RedisPassword     string `yaml:"redis_password"`
	RedisDB           int    `yaml:"redis_db"`
	RedisPattern      string `yaml:"redis_pattern"`
	TelegramToken     string `yaml:"telegram_token"`
	TelegramChatID    int64  `yaml:"telegram_chat_id"`
}

// ScheduleFileConfig represents daemon scheduling from config file.
type ScheduleFileConfig struct {
	At       string `yaml:"at"`
	Interval string `yaml:"interval"`
	Timeout  string `yaml:"timeout"`
}

// LogConfig represents logging configuration from config file.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// FileConfig represents the structure of ~/.mediascan/config.yaml.
type FileConfig struct {
	Storage    StorageConfig      `yaml:"storage"`
	Browser    BrowserConfig      `yaml:"browser"`
	Pipeline   PipelineFileConfig `yaml:"pipeline"`
	AI         AIConfig           `yaml:"ai"`
	Notify     NotifyConfig       `yaml:"notify"`
	Schedule   ScheduleFileConfig `yaml:"schedule"`
	Log        LogConfig          `yaml:"log"`
	RosterFile string             `yaml:"roster_file"`
	APIAddr    string             `yaml:"api_addr"`
}

// ConfigDir returns ~/.mediascan.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".mediascan"), nil
}

// ConfigFilePath returns ~/.mediascan/config.yaml.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// DefaultConfigFile renders the template written by WriteDefaultConfigFile.
// Store paths are absolute under dir so commands behave the same from any
// working directory.
func DefaultConfigFile(dir string) ([]byte, error) {
	d := Default()
	headless := d.Browser.Headless

	file := FileConfig{
		Storage: StorageConfig{
			Type:        d.Storage.Type,
			DSN:         filepath.Join(dir, "media.db"),
			ArticlesDSN: filepath.Join(dir, "articles.db"),
		},
		Browser: BrowserConfig{
			Headless:      &headless,
			Timeout:       d.Browser.Timeout.String(),
			Retries:       d.Browser.Retries,
			Backoff:       d.Browser.Backoff.String(),
			RatePerMinute: d.Browser.RatePerMinute,
		},
		Pipeline: PipelineFileConfig{
			MaxCandidates: d.Pipeline.MaxCandidates,
			MaxAccepted:   d.Pipeline.MaxAccepted,
		},
		AI: AIConfig{
			Model:         d.AI.Model,
			RatePerMinute: d.AI.RatePerMinute,
		},
		Notify: NotifyConfig{
			InvalidateTimeout: d.Notify.InvalidateTimeout.String(),
		},
		Schedule: ScheduleFileConfig{
			At:       d.Schedule.At,
			Interval: d.Schedule.Interval.String(),
			Timeout:  d.Schedule.Timeout.String(),
		},
		Log: LogConfig{
			Level:      d.Log.Level,
			Format:     d.Log.Format,
			MaxSizeMB:  d.Log.MaxSizeMB,
			MaxBackups: d.Log.MaxBackups,
			MaxAgeDays: d.Log.MaxAgeDays,
		},
		APIAddr: d.APIAddr,
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("failed to render config file: %w", err)
	}
	return data, nil
}

// WriteDefaultConfigFile writes the default config file unless one exists
// and force is false. It reports whether a file was written.
func WriteDefaultConfigFile(force bool) (bool, error) {
	dir, err := ConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := DefaultConfigFile(dir)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}
	return true, nil
}

// LoadConfigFile loads configuration from ~/.mediascan/config.yaml. Returns
// nil if the file doesn't exist (not an error). Returns error if the file
// exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return ReadConfigFile(filepath.Join(dir, "config.yaml"))
}

// ReadConfigFile loads configuration from path with the same rules as
// LoadConfigFile.
func ReadConfigFile(configPath string) (*FileConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
