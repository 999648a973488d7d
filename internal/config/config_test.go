package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("LOG_FILE", "")

	cfg := Load()
	require.Equal(t, "8008", cfg.Port)
	require.Equal(t, ":8008", cfg.Addr())
	require.Equal(t, 15*time.Second, cfg.RequestTimeout)
	require.Empty(t, cfg.LogFile)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("UPLOAD_DIR", "/srv/kyc")
	t.Setenv("REQUEST_TIMEOUT", "20s")

	cfg := Load()
	require.Equal(t, ":9090", cfg.Addr())
	require.Equal(t, "/srv/kyc", cfg.UploadDir)
	require.Equal(t, 20*time.Second, cfg.RequestTimeout)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	require.Equal(t, 15*time.Second, Load().RequestTimeout)
}
