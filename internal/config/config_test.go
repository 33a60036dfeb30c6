package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
port: 8081
public_url: https://kitchen.example.com
mini_app_url: https://app.example.com
auth:
  jwt_secret: test-secret
mongo:
  uri: mongodb://db:27017
tenants:
  - slug: demo
    name: Demo Kitchen
    database: brigade_demo
    bot_token: ${TEST_BOT_TOKEN}
    webhook_secret: hook-secret
    manager_ids: [7]
`

func TestLoad(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "12345:ABC")
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, 9090, cfg.MetricsPort) // default kept
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	require.Len(t, cfg.Tenants, 1)
	assert.Equal(t, "12345:ABC", cfg.Tenants[0].BotToken) // env expanded
	assert.True(t, cfg.Tenants[0].IsManager(7))
	assert.False(t, cfg.Tenants[0].IsManager(8))
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(writeConfig(t, `
tenants:
  - slug: demo
    database: d
    bot_token: t
    webhook_secret: s
`))
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestLoad_NoTenants(t *testing.T) {
	_, err := Load(writeConfig(t, `
auth:
  jwt_secret: x
`))
	assert.ErrorContains(t, err, "tenant")
}

func TestLoad_DuplicateSlug(t *testing.T) {
	_, err := Load(writeConfig(t, `
auth:
  jwt_secret: x
tenants:
  - {slug: a, database: d1, bot_token: t, webhook_secret: s}
  - {slug: a, database: d2, bot_token: t, webhook_secret: s}
`))
	assert.ErrorContains(t, err, "duplicate tenant slug")
}

func TestLoad_TenantMissingDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, `
auth:
  jwt_secret: x
tenants:
  - {slug: a, bot_token: t, webhook_secret: s}
`))
	assert.ErrorContains(t, err, "database")
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
