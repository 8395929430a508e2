// Package config loads the client configuration from defaults, an optional
// YAML file and QYQUANT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is stripped from environment variables before mapping them to keys.
	EnvPrefix = "QYQUANT_"

	// DefaultFile is the YAML file Load reads when QYQUANT_CONFIG is unset.
	DefaultFile = "config.yaml"

	envConfigFile = "QYQUANT_CONFIG"
)

// Load reads DefaultFile (or the file named by QYQUANT_CONFIG) if it exists.
func Load() (*Config, error) {
	path := os.Getenv(envConfigFile)
	if path == "" {
		path = DefaultFile
	}
	return LoadFile(path)
}

// LoadFile loads configuration with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path, skipped when it does not exist
// 3. Default values (lowest priority)
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, &ConfigError{Category: "load", Field: path, Message: "could not read yaml", Details: []string{err.Error()}}
		}
	}

	return finish(k)
}

// LoadBytes loads configuration from YAML content instead of a file.
// Defaults and environment variables apply as in LoadFile.
func LoadBytes(content []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, &ConfigError{Category: "load", Field: "yaml", Message: "could not parse yaml", Details: []string{err.Error()}}
	}
	return finish(k)
}

func finish(k *koanf.Koanf) (*Config, error) {
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// QYQUANT_API_HOST -> api.host
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			key = strings.ReplaceAll(key, "_", ".")
			if strings.Contains(value, ",") {
				parts := strings.Split(value, ",")
				for i := range parts {
					parts[i] = strings.TrimSpace(parts[i])
				}
				return key, parts
			}
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"api.host":               "http://localhost:5000",
		"api.basepath":           "/api",
		"api.timeout":            "8s",
		"api.dialect":            "code",
		"api.useragent":          "qyquant-client",
		"api.logpayloads":        false,
		"api.maxpayloadlogbytes": 1024,

		"retry.maxattempts": 3,
		"retry.delays":      []string{"200ms", "400ms", "800ms"},

		"session.locale":      "en",
		"session.marketstyle": "cn",

		"log.level":  "info",
		"log.pretty": false,

		"mock.addr":      "127.0.0.1:5000",
		"mock.latency":   "0s",
		"mock.ratelimit": 0,

		// Observability stays off unless explicitly enabled
		"observability.enabled": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
