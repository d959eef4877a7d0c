package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type JMAPConfig struct {
	WellKnownURL string `toml:"well_known_url"`
}

type RateLimitConfig struct {
	Requests      int `toml:"requests"`
	WindowSeconds int `toml:"window_seconds"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	JMAP      JMAPConfig      `toml:"jmap"`
	RateLimit RateLimitConfig `toml:"ratelimit"`
}

// LoadConfig reads a TOML config file. Defaults are set before decoding so the
// file only needs to name what it changes.
func LoadConfig(filepath string) (*Config, error) {
	var config Config

	config.Server.Host = "127.0.0.1"
	config.Server.Port = 3000
	config.RateLimit.Requests = 100
	config.RateLimit.WindowSeconds = 60

	if _, err := toml.DecodeFile(filepath, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.JMAP.WellKnownURL == "" {
		return nil, fmt.Errorf("jmap.well_known_url is required")
	}

	return &config, nil
}

// ListenAddress returns the host:port the server binds to.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
