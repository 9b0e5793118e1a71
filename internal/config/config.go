package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"time"

	errors "github.com/Laisky/errors/v2"
)

const (
	defaultBaseURL        = "http://localhost:8000"
	defaultTopK           = 20
	defaultTimeoutSeconds = 10
	defaultLogLevel       = "info"
)

type Config struct {
	BaseURL        string `json:"base_url"`
	TopK           int    `json:"top_k"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	LogFile        string `json:"log_file"`
	LogLevel       string `json:"log_level"`
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "emofind"), nil
}

func configPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "efind.log"), nil
}

func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.TopK == 0 {
		c.TopK = defaultTopK
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFile == "" {
		if path, err := LogPath(); err == nil {
			c.LogFile = path
		}
	}
}

func (c *Config) Validate() error {
	if c.TopK <= 0 {
		return errors.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.TimeoutSeconds <= 0 {
		return errors.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.Wrapf(err, "invalid base_url %q", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("base_url must be http or https, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return errors.Errorf("base_url has no host: %q", c.BaseURL)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	return os.WriteFile(path, data, 0600)
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}
