package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration, loaded from an optional YAML file
// with environment variable overrides on top.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Gateway struct {
		WriteTimeoutSec int   `yaml:"write_timeout_sec"`
		ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
		PingIntervalSec int   `yaml:"ping_interval_sec"`
		MaxMessageSize  int64 `yaml:"max_message_size"`
	} `yaml:"gateway"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

func defaultConfig() *Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Gateway.WriteTimeoutSec = 10
	cfg.Gateway.ReadTimeoutSec = 60
	cfg.Gateway.PingIntervalSec = 30
	cfg.Gateway.MaxMessageSize = 4096
	cfg.NATS.SubjectPrefix = "buzzer.events"
	return &cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML config at path when it exists, then applies
// environment overrides. A missing file is not an error; defaults apply.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.Gateway.PingIntervalSec = getEnvAsInt("PING_INTERVAL_SEC", config.Gateway.PingIntervalSec)

	return config, nil
}

func (c *Config) writeTimeout() time.Duration {
	return time.Duration(c.Gateway.WriteTimeoutSec) * time.Second
}

func (c *Config) readTimeout() time.Duration {
	return time.Duration(c.Gateway.ReadTimeoutSec) * time.Second
}

func (c *Config) pingInterval() time.Duration {
	return time.Duration(c.Gateway.PingIntervalSec) * time.Second
}
