package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no other config path is given.
const DefaultFile = "config.yaml"

type ServerConfig struct {
	Port            string        `yaml:"port"`
	SecureCookie    bool          `yaml:"secure-cookie"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type StorageConfig struct {
	DBPath string `yaml:"db-path"`
}

type AuthConfig struct {
	// PasscodeHash is a bcrypt hash; empty disables the login page.
	PasscodeHash string `yaml:"passcode-hash"`
}

type AppConfig struct {
	CurrencySymbol string `yaml:"currency-symbol"`
}

type LogConfig struct {
	Env string `yaml:"env"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	App     AppConfig     `yaml:"app"`
	Log     LogConfig     `yaml:"log"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080", ShutdownTimeout: 30 * time.Second},
		Session: SessionConfig{TTL: 12 * time.Hour},
		Storage: StorageConfig{DBPath: ":memory:"},
		App:     AppConfig{CurrencySymbol: "$"},
		Log:     LogConfig{Env: "dev"},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		rawYAML, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrap(err, "reading config file")
		default:
			if err := yaml.Unmarshal(rawYAML, cfg); err != nil {
				return nil, errors.Wrap(err, "parsing yaml")
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid SECURE_COOKIE %q", v)
		}
		c.Server.SecureCookie = b
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrapf(err, "invalid SESSION_TTL %q", v)
		}
		c.Session.TTL = d
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("PASSCODE_HASH"); v != "" {
		c.Auth.PasscodeHash = v
	}
	if v := os.Getenv("CURRENCY_SYMBOL"); v != "" {
		c.App.CurrencySymbol = v
	}
	if v := os.Getenv("LOG_ENV"); v != "" {
		c.Log.Env = v
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Server.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Server.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}
	if c.Server.ShutdownTimeout <= 0 {
		problems = append(problems, "shutdown timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		problems = append(problems, "session ttl must be positive")
	}
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if c.App.CurrencySymbol == "" {
		problems = append(problems, "currency symbol cannot be empty")
	}
	if c.Log.Env != "dev" && c.Log.Env != "prod" {
		problems = append(problems, fmt.Sprintf("invalid log env '%s': must be dev or prod", c.Log.Env))
	}

	if len(problems) > 0 {
		return errors.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
