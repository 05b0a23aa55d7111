package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sample = `
app:
  name: folio
  debug: true
otp:
  ttl_minute: 10
  max_attempts: 5
server:
  shutdown_timeout: 15
cors:
  allowed_origins: "http://localhost:3000, ,https://folio.dev"
maintenance:
  routes: "GET:/api/v1/me,POST:/api/v1/auth/sessions"
session:
  secret: c2VjcmV0
`

func TestViperFromBytes(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, cfg.Close()) })

	require.Equal(t, "folio", cfg.GetString("app.name"))
	require.True(t, cfg.GetBool("app.debug"))
	require.Equal(t, 5, cfg.GetInt("otp.max_attempts"))
	require.Equal(t, 10*time.Minute, cfg.GetMinute("otp.ttl_minute"))
	require.Equal(t, 15*time.Second, cfg.GetSecond("server.shutdown_timeout"))
	require.Equal(t, []string{"http://localhost:3000", "https://folio.dev"}, cfg.GetArray("cors.allowed_origins"))
	require.Equal(t, map[string]string{"GET": "/api/v1/me", "POST": "/api/v1/auth/sessions"}, cfg.GetMap("maintenance.routes"))
	require.Equal(t, []byte("secret"), cfg.GetBinary("session.secret"))
	require.Empty(t, cfg.GetArray("missing.key"))
}

func TestViperFromBytesRequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(sample))
	require.Error(t, err)
}

func TestViperEnvOverride(t *testing.T) {
	t.Setenv("APP_NAME", "from-env")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.GetString("app.name"))
}
