package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/raysh454/centinela/internal/demoserver"
	"github.com/raysh454/centinela/internal/logging"
	"github.com/raysh454/centinela/internal/webclient"
)

const (
	EnvConfigPath = "CENTINELA_CONFIG"
	EnvAPIBaseURL = "CENTINELA_API_BASE_URL"
	EnvListenAddr = "CENTINELA_LISTEN_ADDR"
	EnvLogLevel   = "CENTINELA_LOG_LEVEL"
)

// Config contains the runtime options resolved once at startup.
type Config struct {
	// APIBaseURL is the Analysis Service address, e.g. http://localhost:8000.
	APIBaseURL string `yaml:"api_base_url"`

	// ListenAddr is where the presentation API listens in -serve mode.
	ListenAddr string `yaml:"listen_addr"`

	// HealthCheckSpec is a cron spec for probing the Analysis Service.
	// Empty disables the monitor.
	HealthCheckSpec string `yaml:"health_check_spec"`

	LogLevel string `yaml:"log_level"`

	// WebClient configuration
	WebClientCfg webclient.Config `yaml:"webclient"`

	// DemoCfg configures the local reference Analysis Service.
	DemoCfg demoserver.Config `yaml:"demo"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:      "http://localhost:8000",
		ListenAddr:      ":8080",
		HealthCheckSpec: "@every 30s",
		LogLevel:        "info",
		WebClientCfg: webclient.Config{
			Client:  webclient.ClientNetHTTP,
			Timeout: 60 * time.Second,
		},
		DemoCfg: demoserver.DefaultConfig(),
	}
}

// ConfigPath returns the config file path from the environment, or "" when unset.
func ConfigPath() string {
	return os.Getenv(EnvConfigPath)
}

// LoadConfig reads path (when non-empty) over the defaults, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	applyEnvironmentOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyEnvironmentOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListenAddr)); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks the fields that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return errors.New("api_base_url is required")
	}
	u, err := url.Parse(strings.TrimSpace(c.APIBaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_base_url must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.HealthCheckSpec != "" {
		if _, err := cron.ParseStandard(c.HealthCheckSpec); err != nil {
			return fmt.Errorf("invalid health_check_spec %q: %w", c.HealthCheckSpec, err)
		}
	}
	// Analysis requests are POSTs; the chromedp backend only renders GETs.
	switch webclient.Client(strings.ToLower(strings.TrimSpace(string(c.WebClientCfg.Client)))) {
	case "", webclient.ClientNetHTTP:
	default:
		return fmt.Errorf("webclient.client must be %q for the Analysis Service, got %q", webclient.ClientNetHTTP, c.WebClientCfg.Client)
	}
	if c.WebClientCfg.Timeout < 0 {
		return fmt.Errorf("webclient.timeout must not be negative, got %s", c.WebClientCfg.Timeout)
	}
	return nil
}
