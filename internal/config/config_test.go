package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults проверяет значения по умолчанию без .env файла
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, "8800", cfg.App.Port)
	assert.Equal(t, "http://localhost:8800", cfg.App.PublicURL)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "tracking.db", cfg.DB.Path)
	assert.True(t, cfg.DB.ResetActionsOnStartup)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.GeoIP.CacheTTL)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.SMTPHost)
	assert.Equal(t, 587, cfg.Mail.SMTPPort)
	assert.Equal(t, fallbackEmail, cfg.Mail.From)
	assert.Equal(t, fallbackEmail, cfg.Mail.Recipient)
	assert.True(t, cfg.Report.Enabled)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.BurstSize)
	assert.Empty(t, cfg.Auth.APIKeys)
}

// TestLoad_EnvOverrides проверяет переопределение через переменные окружения
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("APP_PUBLIC_URL", "https://stats.example.com/")
	t.Setenv("EMAIL_USER", "bot@example.com")
	t.Setenv("RECIPIENT_EMAIL", "owner@example.com")
	t.Setenv("DB_RESET_ACTIONS_ON_STARTUP", "false")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("API_KEYS", "k1:dashboard, k2:cron")

	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "https://stats.example.com", cfg.App.PublicURL)
	assert.Equal(t, "bot@example.com", cfg.Mail.From)
	assert.Equal(t, "owner@example.com", cfg.Mail.Recipient)
	assert.False(t, cfg.DB.ResetActionsOnStartup)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, map[string]string{"k1": "dashboard", "k2": "cron"}, cfg.Auth.APIKeys)
}

// TestLoad_EnvFile проверяет чтение .env файла
func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_DRIVER=postgres\nDB_NAME=analytics\n"), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "analytics", cfg.DB.Name)
}

func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := load(filepath.Join(t.TempDir(), ".env"))
	assert.Error(t, err)
}

func TestParseAPIKeys(t *testing.T) {
	assert.Empty(t, parseAPIKeys(""))
	assert.Equal(t, map[string]string{"a": "b"}, parseAPIKeys("a:b,broken,:nokey"))
}

// TestLoad_PortFallback проверяет чтение порта из PORT
func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "3000")

	cfg, err := load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.App.Port)

	// APP_PORT приоритетнее
	t.Setenv("APP_PORT", "9100")
	cfg, err = load(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.App.Port)
}
