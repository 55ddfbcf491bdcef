package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOOKING_POSTGRES_DSN", "postgres://localhost/chargeslot")
	t.Setenv("BOOKING_QR_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8084", cfg.HTTPAddress())
	assert.Equal(t, 14, cfg.Policy.MaxHorizonDays)
	assert.Equal(t, 2, cfg.Policy.ModifyLockHours)
	assert.Equal(t, 15, cfg.Policy.EarliestCheckInMinutes)
	assert.Equal(t, 15, cfg.Policy.GraceMinutes)
	assert.Equal(t, 6*time.Hour, cfg.RegenerateInterval())
	assert.Equal(t, time.Minute, cfg.SweepInterval())
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 100, cfg.Sweeper.PageSize)
	assert.Equal(t, "notifications:outbox", cfg.Redis.Queue)
}

func TestLoadRequiredFields(t *testing.T) {
	t.Setenv("BOOKING_POSTGRES_DSN", "")
	t.Setenv("BOOKING_QR_SECRET", "s3cret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("BOOKING_POSTGRES_DSN", "postgres://localhost/chargeslot")
	t.Setenv("BOOKING_QR_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOOKING_POSTGRES_DSN", "postgres://localhost/chargeslot")
	t.Setenv("BOOKING_QR_SECRET", "s3cret")
	t.Setenv("BOOKING_HTTP_PORT", "9090")
	t.Setenv("BOOKING_MAX_HORIZON_DAYS", "30")
	t.Setenv("BOOKING_SWEEPER_ENABLED", "false")
	t.Setenv("BOOKING_SWEEPER_INTERVAL_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, 30, cfg.Policy.MaxHorizonDays)
	assert.False(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 15*time.Second, cfg.SweepInterval())
}

func TestYAMLFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booking.yaml")
	data := []byte(`
http:
  port: "9000"
database:
  dsn: "postgres://file-host/chargeslot"
qr:
  secret: "from-file"
policy:
  graceMinutes: 30
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("BOOKING_HTTP_PORT", "9100") // env wins over file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.HTTPAddress())
	assert.Equal(t, "postgres://file-host/chargeslot", cfg.Database.DSN)
	assert.Equal(t, "from-file", cfg.QR.Secret)
	assert.Equal(t, 30, cfg.Policy.GraceMinutes)
}
