package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	content := `
app:
  name: dashboard
  refresh: 15s
  pagesize: 25
  compact: true
  blank: "  "
`
	cfg, err := LoadBytes([]byte(content))
	require.NoError(t, err)

	assert.Equal(t, "dashboard", cfg.GetString("app.name"))
	assert.Equal(t, "fallback", cfg.GetString("app.missing", "fallback"))
	assert.Empty(t, cfg.GetString("app.missing"))

	assert.Equal(t, 25, cfg.GetInt("app.pagesize"))
	assert.Equal(t, 7, cfg.GetInt("app.missing", 7))

	assert.True(t, cfg.GetBool("app.compact"))
	assert.True(t, cfg.GetBool("app.missing", true))

	assert.Equal(t, 15*time.Second, cfg.GetDuration("app.refresh"))
	assert.Equal(t, time.Minute, cfg.GetDuration("app.missing", time.Minute))
	assert.Equal(t, 8*time.Second, cfg.GetDuration("api.timeout"))

	assert.True(t, cfg.Exists("app.name"))
	assert.False(t, cfg.Exists("app.missing"))

	v, err := cfg.GetRequiredString("app.name")
	require.NoError(t, err)
	assert.Equal(t, "dashboard", v)

	_, err = cfg.GetRequiredString("app.blank")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "missing", cfgErr.Category)
	assert.Contains(t, cfgErr.Error(), "QYQUANT_APP_BLANK")
}

func TestUnmarshalSection(t *testing.T) {
	cfg, err := LoadBytes([]byte("app:\n  name: dashboard\n  refresh: 15s\n"))
	require.NoError(t, err)

	var app struct {
		Name    string        `koanf:"name"`
		Refresh time.Duration `koanf:"refresh"`
	}
	require.NoError(t, cfg.Unmarshal("app", &app))
	assert.Equal(t, "dashboard", app.Name)
	assert.Equal(t, 15*time.Second, app.Refresh)
}

func TestGettersOnNilConfig(t *testing.T) {
	var cfg *Config
	assert.Equal(t, "x", cfg.GetString("a", "x"))
	assert.Zero(t, cfg.GetInt("a"))
	assert.False(t, cfg.Exists("a"))

	_, err := cfg.GetRequiredString("a")
	assert.ErrorIs(t, err, errConfigNotInitialized)
	assert.ErrorIs(t, cfg.Unmarshal("a", &struct{}{}), errConfigNotInitialized)
}
