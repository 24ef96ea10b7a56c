// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "testlab", cfg.Logger().ServiceName)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 1920, cfg.Browser().Viewport.Width)
	assert.Equal(t, 1080, cfg.Browser().Viewport.Height)
	assert.Equal(t, 100*time.Millisecond, cfg.Waits().Implicit)
	assert.Equal(t, 2*time.Second, cfg.Waits().Short)
	assert.Equal(t, 3*time.Second, cfg.Waits().Element)
	assert.Equal(t, 200*time.Millisecond, cfg.Waits().KeysRetryDelay)
	assert.Equal(t, 10, cfg.Waits().KeysRetries)
	assert.Contains(t, cfg.Browser().Args, "--no-sandbox")
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Valid Defaults", func(t *testing.T) {
		cfg := NewDefaultConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Invalid Viewport", func(t *testing.T) {
		cfg := *NewDefaultConfig()
		cfg.BrowserCfg.Viewport.Width = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser.viewport")
	})

	t.Run("Invalid Poll Interval", func(t *testing.T) {
		cfg := *NewDefaultConfig()
		cfg.WaitsCfg.PollInterval = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "poll_interval must be positive")
	})

	t.Run("Negative Waits", func(t *testing.T) {
		w := NewDefaultConfig().Waits()
		w.Short = -time.Second
		assert.Error(t, w.Validate())

		w = NewDefaultConfig().Waits()
		w.KeysRetries = -1
		assert.Error(t, w.Validate())
	})
}

// -- Loading Tests --

func TestNewConfigFromViper(t *testing.T) {
	yamlConfig := []byte(`
logger:
  level: debug
browser:
  headless: false
  remote_url: ws://127.0.0.1:9222
waits:
  implicit: 250ms
  short: 5s
report:
  results_dir: ~/results
`)
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.Browser().RemoteURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Waits().Implicit)
	assert.Equal(t, 5*time.Second, cfg.Waits().Short)
	// Untouched keys keep their defaults.
	assert.Equal(t, 3*time.Second, cfg.Waits().Element)
	assert.Equal(t, "~/results", cfg.Report().ResultsDir)
}

func TestNewConfigFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("waits.poll_interval", "0s")

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSetters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetBrowserHeadless(false)
	cfg.SetBrowserRemoteURL("ws://grid:9222")
	cfg.SetReportResultsDir("/tmp/out")

	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, "ws://grid:9222", cfg.Browser().RemoteURL)
	assert.Equal(t, "/tmp/out", cfg.Report().ResultsDir)
}
