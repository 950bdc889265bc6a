// Package config loads reposnap configuration. Precedence, lowest to
// highest: built-in defaults, the optional YAML config file, a .env file in
// the working directory, then process environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file consulted when REPOSNAP_CONFIG is unset.
const DefaultFile = "reposnap.yaml"

// Config holds everything the CLI and server need.
type Config struct {
	// Token is a personal access token. Empty means unauthenticated unless
	// app auth is configured.
	Token string `yaml:"token"`

	// APIBaseURL overrides the GitHub API endpoint, e.g. for a mock server.
	// Empty means the public API.
	APIBaseURL string `yaml:"apiBaseURL"`

	// GitHub App installation auth. All three must be set to take effect.
	AppID             int64  `yaml:"appID"`
	AppInstallationID int64  `yaml:"appInstallationID"`
	AppPrivateKeyPath string `yaml:"appPrivateKeyPath"`

	// Port for the HTTP server.
	Port int `yaml:"port"`

	// RedisAddr enables the user-info cache when non-empty.
	RedisAddr string `yaml:"redisAddr"`

	// CacheTTL bounds cached user-info records. Zero means no expiry.
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// HasAppAuth reports whether GitHub App auth is fully configured.
func (c *Config) HasAppAuth() bool {
	return c.AppID != 0 && c.AppInstallationID != 0 && c.AppPrivateKeyPath != ""
}

// Load reads configuration from the default locations.
func Load() (*Config, error) {
	file := os.Getenv("REPOSNAP_CONFIG")
	if file == "" {
		file = DefaultFile
	}
	return LoadFrom(file)
}

// LoadFrom reads configuration using the given YAML file. A missing file is
// not an error; a malformed one is.
func LoadFrom(file string) (*Config, error) {
	cfg := &Config{Port: 8080}

	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", file, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}

	// .env supplies environment variables without clobbering ones already
	// set by the process environment.
	_ = godotenv.Load()

	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("GITHUB_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("GITHUB_APP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GITHUB_APP_ID %q: %w", v, err)
		}
		cfg.AppID = id
	}
	if v := os.Getenv("GITHUB_APP_INSTALLATION_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid GITHUB_APP_INSTALLATION_ID %q: %w", v, err)
		}
		cfg.AppInstallationID = id
	}
	if v := os.Getenv("GITHUB_APP_PRIVATE_KEY_PATH"); v != "" {
		cfg.AppPrivateKeyPath = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", v, err)
		}
		cfg.CacheTTL = d
	}

	return cfg, nil
}
