package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Terminal TerminalConfig `yaml:"terminal"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AuthToken      string   `yaml:"auth_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type TerminalConfig struct {
	Shell       string        `yaml:"shell"`
	Term        string        `yaml:"term"`
	DefaultCols int           `yaml:"default_cols"`
	DefaultRows int           `yaml:"default_rows"`
	ExecTimeout time.Duration `yaml:"exec_timeout"`
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8767,
		},
		Terminal: TerminalConfig{
			Term:        "xterm-256color",
			DefaultCols: 80,
			DefaultRows: 24,
			ExecTimeout: 30 * time.Second,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
