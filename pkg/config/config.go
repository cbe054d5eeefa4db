package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// API
	API struct {
		Port  int    `toml:"port"`
		Host  string `toml:"host"`
		Token string `toml:"token"` // optional bearer token required by the dashboard API
	} `toml:"api"`

	// Scraper backend
	Scraper struct {
		BaseURL        string `toml:"base_url"`
		BasePath       string `toml:"base_path"`
		APIKey         string `toml:"api_key"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
		MaxRetries     int    `toml:"max_retries"`
		RetryBackoffMS int    `toml:"retry_backoff_ms"`
	} `toml:"scraper"`

	// Scrape orchestration
	Scrape struct {
		UploadID        int64 `toml:"upload_id"` // 0 = all uploads
		Concurrency     int   `toml:"concurrency"`
		SettleDelayMS   int   `toml:"settle_delay_ms"` // 0 uses the default, negative disables
		BatchLimitSlack int   `toml:"batch_limit_slack"`
		PageSize        int   `toml:"page_size"`
	} `toml:"scrape"`

	// Database (optional registry source)
	Database struct {
		URL string `toml:"url"`
	} `toml:"database"`

	// Logging
	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text or json
		File   string `toml:"file"`   // empty = tmp/<app>-<timestamp>.log
	} `toml:"logging"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.API.Port = 8080
	cfg.API.Host = "0.0.0.0"
	cfg.Scraper.BaseURL = "http://localhost:3000"
	cfg.Scraper.BasePath = "/api/scraping"
	cfg.Scraper.TimeoutSeconds = 60
	cfg.Scraper.MaxRetries = 2
	cfg.Scraper.RetryBackoffMS = 250
	cfg.Scrape.Concurrency = 5
	cfg.Scrape.SettleDelayMS = 500
	cfg.Scrape.BatchLimitSlack = 10
	cfg.Scrape.PageSize = 25
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}

// ScraperTimeout returns the per-request timeout for backend calls.
func (c *Config) ScraperTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// RetryBackoff returns the base delay between retried backend calls.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Scraper.RetryBackoffMS) * time.Millisecond
}

// SettleDelay returns how long a retry waits before refreshing.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Scrape.SettleDelayMS) * time.Millisecond
}

// ConfigPath returns the path to the config file. CONTACT_SCRAPE_CONFIG
// overrides the default location.
func ConfigPath() (string, error) {
	if path := os.Getenv("CONTACT_SCRAPE_CONFIG"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	configDir := filepath.Join(homeDir, ".config", "contact-scrape")
	return filepath.Join(configDir, "config.toml"), nil
}

// Load reads configuration from ~/.config/contact-scrape/config.toml
// Creates the file with defaults if it doesn't exist
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile reads configuration from path, creating it with defaults when
// missing.
func LoadFile(configPath string) (*Config, error) {
	configPath, err := expandHome(configPath)
	if err != nil {
		return nil, err
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := SaveFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		applyEnv(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// mergeDefaults fills any missing values from DefaultConfig.
func mergeDefaults(cfg *Config) {
	defaultCfg := DefaultConfig()
	if cfg.API.Port == 0 {
		cfg.API.Port = defaultCfg.API.Port
	}
	if cfg.API.Host == "" {
		cfg.API.Host = defaultCfg.API.Host
	}
	if cfg.Scraper.BaseURL == "" {
		cfg.Scraper.BaseURL = defaultCfg.Scraper.BaseURL
	}
	if cfg.Scraper.BasePath == "" {
		cfg.Scraper.BasePath = defaultCfg.Scraper.BasePath
	}
	if cfg.Scraper.TimeoutSeconds == 0 {
		cfg.Scraper.TimeoutSeconds = defaultCfg.Scraper.TimeoutSeconds
	}
	if cfg.Scraper.RetryBackoffMS == 0 {
		cfg.Scraper.RetryBackoffMS = defaultCfg.Scraper.RetryBackoffMS
	}
	if cfg.Scrape.Concurrency == 0 {
		cfg.Scrape.Concurrency = defaultCfg.Scrape.Concurrency
	}
	if cfg.Scrape.BatchLimitSlack == 0 {
		cfg.Scrape.BatchLimitSlack = defaultCfg.Scrape.BatchLimitSlack
	}
	if cfg.Scrape.PageSize == 0 {
		cfg.Scrape.PageSize = defaultCfg.Scrape.PageSize
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultCfg.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultCfg.Logging.Format
	}
}

// applyEnv overrides values with environment variables if set (useful for Docker)
func applyEnv(cfg *Config) {
	if baseURL := os.Getenv("CONTACT_SCRAPE_BASE_URL"); baseURL != "" {
		cfg.Scraper.BaseURL = baseURL
	}
	if apiKey := os.Getenv("CONTACT_SCRAPE_API_KEY"); apiKey != "" {
		cfg.Scraper.APIKey = apiKey
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if level := os.Getenv("CONTACT_SCRAPE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// Save writes the configuration to the config file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(cfg, configPath)
}

// SaveFile writes the configuration to path.
func SaveFile(cfg *Config, configPath string) error {
	configPath, err := expandHome(configPath)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Set updates one value addressed as "section.key".
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api.host":
		c.API.Host = value
	case "api.port":
		return setInt(&c.API.Port, key, value)
	case "api.token":
		c.API.Token = value
	case "scraper.base_url":
		c.Scraper.BaseURL = value
	case "scraper.base_path":
		c.Scraper.BasePath = value
	case "scraper.api_key":
		c.Scraper.APIKey = value
	case "scraper.timeout_seconds":
		return setInt(&c.Scraper.TimeoutSeconds, key, value)
	case "scraper.max_retries":
		return setInt(&c.Scraper.MaxRetries, key, value)
	case "scraper.retry_backoff_ms":
		return setInt(&c.Scraper.RetryBackoffMS, key, value)
	case "scrape.upload_id":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", key, value)
		}
		c.Scrape.UploadID = n
	case "scrape.concurrency":
		return setInt(&c.Scrape.Concurrency, key, value)
	case "scrape.settle_delay_ms":
		return setInt(&c.Scrape.SettleDelayMS, key, value)
	case "scrape.batch_limit_slack":
		return setInt(&c.Scrape.BatchLimitSlack, key, value)
	case "scrape.page_size":
		return setInt(&c.Scrape.PageSize, key, value)
	case "database.url":
		c.Database.URL = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "logging.file":
		c.Logging.File = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, value)
	}
	if n < 0 {
		return fmt.Errorf("%s: must not be negative", key)
	}
	*dst = n
	return nil
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return strings.Replace(path, "~", homeDir, 1), nil
}
