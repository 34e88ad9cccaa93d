package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  tz: Asia/Jakarta
  server:
    cors: "http://localhost:3000, https://app.example.com"
    http:
      read_timeout_seconds: 15
oidc:
  clients:
    - "web:secret"
    - "cli:"
jwt:
  ttl_minutes: 15
mfa:
  secret: c2VjcmV0
database:
  url: postgres://localhost/app
`

func TestViper_Getters(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	// Act & Assert
	assert.Equal(t, "Asia/Jakarta", cfg.GetString("app.tz"))
	assert.Equal(t, 15*time.Second, cfg.GetSecond("app.server.http.read_timeout_seconds"))
	assert.Equal(t, 15*time.Minute, cfg.GetMinute("jwt.ttl_minutes"))
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.GetArray("app.server.cors"))
	assert.Equal(t, []string{"web:secret", "cli:"}, cfg.GetArray("oidc.clients"))
	assert.Equal(t, map[string]string{"web": "secret", "cli": ""}, cfg.GetMap("oidc.clients"))
	assert.Equal(t, []byte("secret"), cfg.GetBinary("mfa.secret"))
	assert.Empty(t, cfg.GetArray("missing.key"))
	assert.NoError(t, cfg.Close())
}

func TestViper_EnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("DATABASE_URL", "postgres://override/app")

	// Act
	cfg, err := NewViperFromBytes("yaml", []byte(sampleYAML))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "postgres://override/app", cfg.GetString("database.url"))
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte("a: 1"))
	assert.Error(t, err)
}

func TestNewViper_ReloadsOnWrite(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: before\n"), 0o600))

	cfg, err := NewViper(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cfg.Close()) })
	require.Equal(t, "before", cfg.GetString("app.name"))

	// Act
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: after\n"), 0o600))

	// Assert
	assert.Eventually(t, func() bool {
		return cfg.GetString("app.name") == "after"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestNewViper_KeepsSnapshotOnBadReload(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: good\n"), 0o600))

	cfg, err := NewViper(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cfg.Close()) })

	// Act
	staged := filepath.Join(filepath.Dir(path), "staged.yaml")
	require.NoError(t, os.WriteFile(staged, []byte("app: [unclosed\n"), 0o600))
	require.NoError(t, os.Rename(staged, path))
	time.Sleep(200 * time.Millisecond)

	// Assert
	assert.Equal(t, "good", cfg.GetString("app.name"))
}

func TestNewViper_MissingFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
