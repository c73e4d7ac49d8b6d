package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_Service(t *testing.T) {
	t.Run("PACKVIEW_SERVICE_URL replaces base url", func(t *testing.T) {
		t.Setenv("PACKVIEW_SERVICE_URL", "https://packing.example:9000")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "https://packing.example:9000", cfg.Service.BaseURL)
	})

	t.Run("PACKVIEW_TIMEOUT replaces timeout", func(t *testing.T) {
		t.Setenv("PACKVIEW_TIMEOUT", "5s")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "5s", cfg.Service.Timeout)
	})

	t.Run("unset variables leave config alone", func(t *testing.T) {
		t.Setenv("PACKVIEW_SERVICE_URL", "")
		t.Setenv("PACKVIEW_TIMEOUT", "")

		cfg := &Config{Service: ServiceConfig{BaseURL: "http://keep", Timeout: "1m"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "http://keep", cfg.Service.BaseURL)
		assert.Equal(t, "1m", cfg.Service.Timeout)
	})
}

func TestEnvOverrides_DarkMode(t *testing.T) {
	cases := map[string]string{
		"true":  "dark",
		"1":     "dark",
		"false": "light",
		"0":     "light",
		"maybe": "auto",
	}
	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("PACKVIEW_DARK_MODE", value)

			cfg := DefaultConfig()
			cfg.applyEnvOverrides()

			assert.Equal(t, want, cfg.Viewer.Theme)
		})
	}
}

func TestEnvOverrides_LogLevel(t *testing.T) {
	t.Setenv("PACKVIEW_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "debug", cfg.Logging.Level)
}
