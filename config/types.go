package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/qyquant/qyquant-client/observability"
)

// Config is the complete client configuration.
type Config struct {
	API           APIConfig            `koanf:"api"`
	Retry         RetryConfig          `koanf:"retry"`
	Session       SessionConfig        `koanf:"session"`
	Log           LogConfig            `koanf:"log"`
	Mock          MockConfig           `koanf:"mock"`
	Observability observability.Config `koanf:"observability"`

	// k keeps the merged sources for the Get* accessors.
	k *koanf.Koanf
}

// APIConfig describes the dashboard API the client talks to.
type APIConfig struct {
	// Host is scheme and authority, e.g. http://localhost:5000.
	Host string `koanf:"host" validate:"required,url"`
	// BasePath is appended to Host to form the API root.
	BasePath  string        `koanf:"basepath" validate:"omitempty,startswith=/"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
	Dialect   string        `koanf:"dialect" validate:"dialect"`
	UserAgent string        `koanf:"useragent"`

	// LogPayloads logs request and response bodies at debug level.
	LogPayloads        bool `koanf:"logpayloads"`
	MaxPayloadLogBytes int  `koanf:"maxpayloadlogbytes" validate:"gte=0"`
}

// RetryConfig is the attempt budget and backoff schedule.
type RetryConfig struct {
	MaxAttempts int             `koanf:"maxattempts" validate:"gte=1,lte=10"`
	Delays      []time.Duration `koanf:"delays" validate:"dive,gte=0"`
}

// SessionConfig holds the initial display preferences.
type SessionConfig struct {
	Locale      string `koanf:"locale" validate:"locale"`
	MarketStyle string `koanf:"marketstyle" validate:"oneof=cn us"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

// MockConfig configures the local mock API server.
type MockConfig struct {
	Addr string `koanf:"addr" validate:"required"`
	// Latency is added before every mock response.
	Latency time.Duration `koanf:"latency" validate:"gte=0"`
	// RateLimit caps requests per second per client; 0 disables it.
	RateLimit float64 `koanf:"ratelimit" validate:"gte=0"`
}
