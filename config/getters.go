package config

import (
	"errors"
	"strings"
	"time"

	qyhttp "github.com/qyquant/qyquant-client/http"
)

var errConfigNotInitialized = errors.New("configuration not initialized")

// BaseURL joins the API host and base path.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.API.Host, "/") + c.API.BasePath
}

// RetryPlan converts the retry section into the client's plan.
func (c *Config) RetryPlan() qyhttp.RetryPlan {
	delays := make([]time.Duration, len(c.Retry.Delays))
	copy(delays, c.Retry.Delays)
	return qyhttp.RetryPlan{MaxAttempts: c.Retry.MaxAttempts, Delays: delays}
}

// Locale returns the configured message locale.
func (c *Config) Locale() qyhttp.Locale {
	return qyhttp.Locale(c.Session.Locale)
}

// MarketStyle returns the configured price color convention.
func (c *Config) MarketStyle() qyhttp.MarketStyle {
	return qyhttp.MarketStyle(c.Session.MarketStyle)
}

// ClientConfig builds the http client configuration.
func (c *Config) ClientConfig() qyhttp.Config {
	return qyhttp.Config{
		BaseURL:            c.BaseURL(),
		Timeout:            c.API.Timeout,
		Retry:              c.RetryPlan(),
		Dialect:            qyhttp.Dialect(c.API.Dialect),
		UserAgent:          c.API.UserAgent,
		LogPayloads:        c.API.LogPayloads,
		MaxPayloadLogBytes: c.API.MaxPayloadLogBytes,
	}
}

// NewSession creates a client session seeded with the configured preferences.
func (c *Config) NewSession() *qyhttp.Session {
	s := qyhttp.NewSession()
	s.SetLocale(c.Locale())
	s.SetMarketStyle(c.MarketStyle())
	return s
}

// Exists reports whether key was set by any source.
func (c *Config) Exists(key string) bool {
	return c != nil && c.k != nil && c.k.Exists(key)
}

// GetString retrieves a string value from the configuration or the provided default.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if !c.Exists(key) {
		return optionalDefault("", defaultVal...)
	}
	return c.k.String(key)
}

// GetInt retrieves an int value from the configuration or the provided default.
func (c *Config) GetInt(key string, defaultVal ...int) int {
	if !c.Exists(key) {
		return optionalDefault(0, defaultVal...)
	}
	return c.k.Int(key)
}

// GetBool retrieves a bool value from the configuration or the provided default.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	if !c.Exists(key) {
		return optionalDefault(false, defaultVal...)
	}
	return c.k.Bool(key)
}

// GetDuration retrieves a duration such as "250ms" or the provided default.
func (c *Config) GetDuration(key string, defaultVal ...time.Duration) time.Duration {
	if !c.Exists(key) {
		return optionalDefault(time.Duration(0), defaultVal...)
	}
	return c.k.Duration(key)
}

// GetRequiredString retrieves a string value and errors if it is missing or empty.
func (c *Config) GetRequiredString(key string) (string, error) {
	if c == nil || c.k == nil {
		return "", errConfigNotInitialized
	}
	v := strings.TrimSpace(c.k.String(key))
	if v == "" {
		return "", NewMissingFieldError(key)
	}
	return v, nil
}

// Unmarshal decodes the subtree at path into out, for application specific sections.
func (c *Config) Unmarshal(path string, out any) error {
	if c == nil || c.k == nil {
		return errConfigNotInitialized
	}
	return c.k.Unmarshal(path, out)
}

func optionalDefault[T any](zero T, defaultVal ...T) T {
	if len(defaultVal) > 0 {
		return defaultVal[0]
	}
	return zero
}
