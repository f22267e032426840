package config

import (
	"embed"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML embed.FS

// Config is the full gateway configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Refresh  RefreshConfig  `yaml:"refresh"`
}

// ServerConfig configures the dashboard HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// UpstreamConfig configures the Market Radar API client.
type UpstreamConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 5
}

// RefreshConfig configures the periodic ranking refresh.
type RefreshConfig struct {
	IntervalSeconds int `yaml:"interval_seconds,omitempty"` // Default: 120
	Limit           int `yaml:"limit,omitempty"`            // Ranking fetch size, default: 50
}

// Load reads the embedded default.yaml and returns a Config. The path
// parameter, when non-empty, points to a filesystem override used instead.
func Load(path string) (*Config, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = defaultYAML.ReadFile("default.yaml")
	}
	if err != nil {
		return nil, err
	}

	// Expand environment variables within the YAML content (e.g. ${RADAR_API_URL})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8090"
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "http://localhost:5000/api"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 30
	}
	if c.Upstream.RateLimitRPS == 0 {
		c.Upstream.RateLimitRPS = 5
	}
	if c.Refresh.IntervalSeconds == 0 {
		c.Refresh.IntervalSeconds = 120
	}
	if c.Refresh.Limit == 0 {
		c.Refresh.Limit = 50
	}
}
