package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rrens/sign-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "python3", cfg.Classifier.Command)
	assert.Equal(t, []string{"python_predictor.py"}, cfg.Classifier.Args)
	assert.Equal(t, 60*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Classifier.MaxOutputBytes)
	assert.Equal(t, int64(20<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "http://0.0.0.0:5000", cfg.Server.PublicURL())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "6000")
	t.Setenv("BASE_URL", "https://signs.example.com/")
	t.Setenv("CLASSIFIER_TIMEOUT", "0s")
	t.Setenv("FRONTEND_URL", "https://app.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Server.Port)
	assert.Equal(t, "https://signs.example.com", cfg.Server.PublicURL())
	assert.Zero(t, cfg.Classifier.Timeout)
	assert.Contains(t, cfg.CORS.Origins(), "https://app.example.com")
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  driver: sqlite
  sqlite:
    path: /tmp/users.db
classifier:
  command: /opt/classifier/predict
  args: []
  timeout: 30s
  env:
    - MODEL_DIR=/opt/models
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/users.db", cfg.Store.SQLite.Path)
	assert.Equal(t, "/opt/classifier/predict", cfg.Classifier.Command)
	assert.Equal(t, 30*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, []string{"MODEL_DIR=/opt/models"}, cfg.Classifier.Env)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Env:   "development",
			Store: config.StoreConfig{Driver: "memory"},
			Auth:  config.AuthConfig{TokenTTL: time.Hour},
			Classifier: config.ClassifierConfig{
				Command:        "python3",
				Timeout:        time.Minute,
				MaxOutputBytes: 1024,
			},
			Upload: config.UploadConfig{MaxBytes: 1024},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{"valid", func(c *config.Config) {}, false},
		{"no timeout is allowed", func(c *config.Config) { c.Classifier.Timeout = 0 }, false},
		{"negative timeout", func(c *config.Config) { c.Classifier.Timeout = -time.Second }, true},
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "mysql" }, true},
		{"empty command", func(c *config.Config) { c.Classifier.Command = "" }, true},
		{"zero output cap", func(c *config.Config) { c.Classifier.MaxOutputBytes = 0 }, true},
		{"classifier env", func(c *config.Config) { c.Classifier.Env = []string{"MODEL_DIR=/opt/models", "EMPTY="} }, false},
		{"malformed classifier env", func(c *config.Config) { c.Classifier.Env = []string{"MODEL_DIR"} }, true},
		{"zero upload cap", func(c *config.Config) { c.Upload.MaxBytes = 0 }, true},
		{"production without secret", func(c *config.Config) { c.Env = "production" }, true},
		{"rate limit without window", func(c *config.Config) {
			c.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 10}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
