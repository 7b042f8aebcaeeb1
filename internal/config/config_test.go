package config

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.RESTPort)
	assert.Equal(t, 70, cfg.RatingFloor)
	assert.Equal(t, 5*time.Minute, cfg.RosterCacheTTL)
	assert.Equal(t, 30*time.Second, cfg.LeaseTTL)
	assert.Equal(t, 4, cfg.SyncHour)
	assert.True(t, cfg.EnableRatingSync)
	assert.False(t, cfg.StrictTotals)
	assert.Empty(t, cfg.Ratings.Teams)
	assert.Equal(t, BackendRedis, cfg.LeaseBackend)
	assert.Equal(t, BackendPostgres, cfg.GuardBackend)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REST_PORT", "9090")
	t.Setenv("RATING_FLOOR", "65")
	t.Setenv("ROSTER_CACHE_TTL", "90s")
	t.Setenv("RATINGS_TEAMS", "Sixers, Knicks ,,Heat")
	t.Setenv("RATINGS_HEADLESS", "true")
	t.Setenv("STRICT_TOTALS", "1")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.RESTPort)
	assert.Equal(t, 65, cfg.RatingFloor)
	assert.Equal(t, 90*time.Second, cfg.RosterCacheTTL)
	assert.Equal(t, []string{"Sixers", "Knicks", "Heat"}, cfg.Ratings.Teams)
	assert.True(t, cfg.Ratings.Headless)
	assert.True(t, cfg.StrictTotals)
}

func TestLoadReportsEveryProblem(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RATING_FLOOR", "high")
	t.Setenv("LEASE_TTL", "forever")
	t.Setenv("SYNC_HOUR", "25")
	t.Setenv("WS_PORT", "8080")
	t.Setenv("GUARD_BACKEND", "etcd")

	_, err := Load()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "RATING_FLOOR: not an integer")
	assert.Contains(t, msg, "LEASE_TTL: not a duration")
	assert.Contains(t, msg, "SYNC_HOUR must be within 0-23")
	assert.Contains(t, msg, "REST_PORT and WS_PORT must differ")
	assert.Contains(t, msg, `GUARD_BACKEND must be redis or postgres, got "etcd"`)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("debug", "json")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	_, err = NewLogger("loud", "text")
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
