package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, ".SA", c.Providers.Primary.MarketSuffix)
	assert.Equal(t, "1y", c.Providers.Primary.Range)
	assert.Equal(t, "3mo", c.Providers.Secondary.Range)
	assert.Equal(t, "badger", c.Cache.Backend)
	assert.Equal(t, 6*time.Hour, c.Cache.TTL)
	assert.Equal(t, float32(0.5), c.Insights.Temperature)
	assert.True(t, c.Artifacts.MatchPipeline)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	p := writeFile(t, "config.yaml", `
environment: production
server:
  port: 9090
cache:
  backend: memory
  ttl: 30m
artifacts:
  booster_path: /srv/models/booster.json
`)
	c, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "memory", c.Cache.Backend)
	assert.Equal(t, 30*time.Minute, c.Cache.TTL)
	assert.Equal(t, "/srv/models/booster.json", c.Artifacts.BoosterPath)
	// untouched keys keep their defaults
	assert.Equal(t, "models/feature_spec.yaml", c.Artifacts.FeatureSpecPath)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	p := writeFile(t, "config.yaml", "cache:\n  backend: etcd\n")
	_, err := Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestLoadWithEnvAppliesOverrides(t *testing.T) {
	envFile := writeFile(t, ".env", "BRAPI_TOKEN=from-dotenv\n")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "7001")
	t.Setenv("CACHE_BACKEND", "memory")
	// ensure the dotenv value is not shadowed by the caller's environment
	t.Setenv("BRAPI_TOKEN", "")
	require.NoError(t, os.Unsetenv("BRAPI_TOKEN"))

	c, err := LoadWithEnv("", envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", c.Providers.Secondary.Token)
	assert.Equal(t, "sk-test", c.Insights.OpenAIAPIKey)
	assert.Equal(t, 7001, c.Server.Port)
	assert.Equal(t, "memory", c.Cache.Backend)
}

func TestLoadWithEnvMissingDotenvIsFine(t *testing.T) {
	_, err := LoadWithEnv("", filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}
