package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigFailsValidationWithoutToken(t *testing.T) {
	cfg := DefaultConfig()
	err := Validate(cfg)
	require.Error(t, err)
}

func TestLoadFromFlagsAppliesOverrides(t *testing.T) {
	v := viper.New()
	v.Set("database-url", "postgres://user:pass@db:5432/abacus")
	v.Set("api-port", 9090)
	v.Set("api-token", "secret")
	v.Set("log-level", "debug")

	cfg, err := LoadFromFlags(v)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.APIPort)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIToken = "secret"
	cfg.APIPort = 70000
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIToken = "secret"
	cfg.LogLevel = "verbose"
	require.Error(t, Validate(cfg))
}
