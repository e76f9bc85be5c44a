package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	require.Equal(t, "data/resume.db", cfg.Database.Path)
	require.Equal(t, "HS256", cfg.Auth.Algorithm)
	require.Equal(t, 30, cfg.Auth.TokenTTLMinutes)
	require.Equal(t, "avatars", cfg.Storage.KeyPrefix)
	require.Equal(t, "us-east-1", cfg.Storage.Region)
	require.Empty(t, cfg.Auth.Secret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RESUME_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("RESUME_AUTH_SECRET", "super-secret")
	t.Setenv("RESUME_AUTH_ALGORITHM", "HS512")
	t.Setenv("RESUME_AUTH_TOKENTTLMINUTES", "15")
	t.Setenv("RESUME_STORAGE_BUCKET", "avatars-bucket")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	require.Equal(t, "super-secret", cfg.Auth.Secret)
	require.Equal(t, "HS512", cfg.Auth.Algorithm)
	require.Equal(t, 15, cfg.Auth.TokenTTLMinutes)
	require.Equal(t, "avatars-bucket", cfg.Storage.Bucket)
}
