// Package config reads the credentials and settings the fetcher needs from
// the process environment, optionally seeded from a local .env file.
//
// Required keys:
//
//	APP_INSIGHTS_APP_ID   application id used in the query URL
//	APP_INSIGHTS_API_KEY  API key sent in the x-api-key header
//
// Optional keys:
//
//	APP_INSIGHTS_ENDPOINT base URL of the query API (default https://api.applicationinsights.io)
//	PORT                  listen port for the serve command (default 8080)
package config

import (
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"insightsfetch/helper"
	"insightsfetch/internal/service"
)

const (
	EnvAppID    = "APP_INSIGHTS_APP_ID"
	EnvAPIKey   = "APP_INSIGHTS_API_KEY"
	EnvEndpoint = "APP_INSIGHTS_ENDPOINT"
	EnvPort     = "PORT"

	DefaultEnvFile = ".env"
	DefaultPort    = "8080"
)

type Config struct {
	AppID    string
	APIKey   string
	Endpoint string
	Port     string
}

// ClientConfig returns the settings for a service.InsightsClient.
func (c *Config) ClientConfig() service.ClientConfig {
	return service.ClientConfig{
		Endpoint: c.Endpoint,
		AppID:    c.AppID,
		APIKey:   c.APIKey,
	}
}

// ConfigError reports missing or unusable configuration.
type ConfigError struct {
	Missing []string
	Reason  string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return "missing required environment variable(s): " + strings.Join(e.Missing, ", ")
	}
	return "invalid configuration: " + e.Reason
}

// LoadEnvFile loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errors.Wrapf(err, "load env file %q", path)
	}
	return true, nil
}

// Load seeds the environment from envFile and then reads Config from it.
func Load(envFile string) (*Config, error) {
	if _, err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup, failing with a ConfigError that
// names every required key that is unset or blank.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		AppID:    get(EnvAppID),
		APIKey:   get(EnvAPIKey),
		Endpoint: get(EnvEndpoint),
		Port:     get(EnvPort),
	}

	var missing []string
	if cfg.AppID == "" {
		missing = append(missing, EnvAppID)
	}
	if cfg.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Missing: missing}
	}

	if !helper.IsValidAppID(cfg.AppID) {
		return nil, &ConfigError{Reason: EnvAppID + " contains characters that are not allowed in an app id"}
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = service.DefaultEndpoint
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	return cfg, nil
}
