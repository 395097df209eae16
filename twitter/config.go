package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAPIHost     = "https://api.twitter.com"
	defaultMinInterval = time.Second
)

// Config holds the OAuth 1.0a user-context credentials
type Config struct {
	APIKey            string
	APISecretKey      string
	AccessToken       string
	AccessTokenSecret string
}

// credentialVar binds a Config field to its env variable and the
// TWITTER_-prefixed fallback name.
type credentialVar struct {
	name     string
	fallback string
	set      func(*Config, string)
}

var credentialVars = []credentialVar{
	{"API_KEY", "TWITTER_API_KEY", func(c *Config, v string) { c.APIKey = v }},
	{"API_SECRET_KEY", "TWITTER_API_SECRET", func(c *Config, v string) { c.APISecretKey = v }},
	{"ACCESS_TOKEN", "TWITTER_ACCESS_TOKEN", func(c *Config, v string) { c.AccessToken = v }},
	{"ACCESS_TOKEN_SECRET", "TWITTER_ACCESS_SECRET", func(c *Config, v string) { c.AccessTokenSecret = v }},
}

// ConfigError lists every credential that is missing or empty
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadConfig reads and validates the four credentials.
func LoadConfig(lookup LookupFunc) (Config, error) {
	var cfg Config
	var missing []string
	for _, cv := range credentialVars {
		v := lookupTrimmed(lookup, cv.name)
		if v == "" {
			v = lookupTrimmed(lookup, cv.fallback)
		}
		if v == "" {
			missing = append(missing, cv.name)
			continue
		}
		cv.set(&cfg, v)
	}
	if len(missing) > 0 {
		return Config{}, &ConfigError{Missing: missing}
	}
	return cfg, nil
}

func lookupTrimmed(lookup LookupFunc, key string) string {
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// loadDotEnv loads .env from the working directory if it exists. Variables
// already present in the environment win.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Settings are the non-credential knobs. They come from an optional YAML file
// and are overridden by env variables.
type Settings struct {
	APIHost     string                   `yaml:"api_host"`
	MetricsAddr string                   `yaml:"metrics_addr"`
	Debug       bool                     `yaml:"debug"`
	RateLimits  map[string]time.Duration `yaml:"rate_limits"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		APIHost: defaultAPIHost,
		RateLimits: map[string]time.Duration{
			EndpointCreatePost: defaultMinInterval,
			EndpointSearch:     defaultMinInterval,
		},
	}
}

var rateLimitEnv = map[string]string{
	EndpointCreatePost: "TWITTER_RATE_LIMIT_CREATE_POST",
	EndpointSearch:     "TWITTER_RATE_LIMIT_SEARCH",
}

// LoadSettings merges defaults, the YAML file named by TWITTER_MCP_CONFIG (if
// any) and env overrides.
func LoadSettings(lookup LookupFunc) (Settings, error) {
	s := DefaultSettings()

	if path := lookupTrimmed(lookup, "TWITTER_MCP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read settings file: %w", err)
		}
		var fromFile Settings
		if err := yaml.Unmarshal(data, &fromFile); err != nil {
			return Settings{}, fmt.Errorf("parse settings file %s: %w", path, err)
		}
		if fromFile.APIHost != "" {
			s.APIHost = fromFile.APIHost
		}
		if fromFile.MetricsAddr != "" {
			s.MetricsAddr = fromFile.MetricsAddr
		}
		s.Debug = fromFile.Debug
		for key, d := range fromFile.RateLimits {
			if d < 0 {
				return Settings{}, fmt.Errorf("rate limit for %q must not be negative", key)
			}
			s.RateLimits[key] = d
		}
	}

	if v := lookupTrimmed(lookup, "TWITTER_API_HOST"); v != "" {
		s.APIHost = strings.TrimRight(v, "/")
	}
	if v := lookupTrimmed(lookup, "METRICS_ADDR"); v != "" {
		s.MetricsAddr = v
	}
	for key, env := range rateLimitEnv {
		v := lookupTrimmed(lookup, env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", env, err)
		}
		if d < 0 {
			return Settings{}, fmt.Errorf("%s must not be negative", env)
		}
		s.RateLimits[key] = d
	}
	return s, nil
}
