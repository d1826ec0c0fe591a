package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopbridge/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_NAME", "MyApp")
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("APP_AUTHORIZE_CALLBACK_URL", "https://app.test/app/register/confirm")
	t.Setenv("APP_HTTP_TIMEOUT_SEC", "5")

	cfg := config.Load()

	assert.Equal(t, "MyApp", cfg.AppName)
	assert.Equal(t, "s3cret", cfg.AppSecret)
	assert.Equal(t, "https://app.test/app/register/confirm", cfg.AuthorizeCallbackURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestYAMLOverlayWinsOverEnv(t *testing.T) {
	t.Setenv("APP_NAME", "EnvApp")

	file := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(file, []byte("app_name: FileApp\nhttp_addr: \":9090\"\n"), 0o600))
	t.Setenv("APP_CONFIG_FILE", file)

	cfg := config.Load()

	assert.Equal(t, "FileApp", cfg.AppName)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	// Values absent from the file keep their env defaults.
	assert.Equal(t, "dev", cfg.Env)
}
