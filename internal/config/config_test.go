package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "gridyield.db", c.Database.Path)
	assert.Equal(t, "catalog", c.Catalog.Dir)
	assert.Equal(t, int64(10), c.Economy.DailyVotes)
	assert.Equal(t, 3, c.Economy.GridWidth)
	assert.Equal(t, 4, c.Economy.GridHeight)
	assert.Zero(t, c.Economy.Seed)
	assert.False(t, c.Audit.Enabled)
	assert.Equal(t, "0 0 * * *", c.Schedule.AllowanceCron)
	assert.Equal(t, "UTC", c.Schedule.Timezone)
	assert.Equal(t, 4, c.Simulate.Workers)
	assert.Equal(t, "info", c.Log.Level)
	assert.NoError(t, c.Validate())
}

func TestParse_OverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
database:
  path: /var/lib/gridyield/state.db
economy:
  daily_votes: 25
  seed: 7
audit:
  enabled: true
log:
  level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/gridyield/state.db", c.Database.Path)
	assert.Equal(t, int64(25), c.Economy.DailyVotes)
	assert.Equal(t, uint64(7), c.Economy.Seed)
	assert.Equal(t, 3, c.Economy.GridWidth, "unset keys keep defaults")
	assert.True(t, c.Audit.Enabled)
	assert.Equal(t, "audit", c.Audit.Dir)
}

func TestParse_Empty(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), c.Economy.DailyVotes)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("economy:\n  daily_vote: 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily_vote")
}

func TestParse_Validation(t *testing.T) {
	_, err := Parse([]byte("economy:\n  grid_width: 0\nsimulate:\n  workers: 0\nlog:\n  level: loud\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid")
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "loud")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridyield.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  dir: ./modules\n"), 0o644))

	c, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, "./modules", c.Catalog.Dir)

	missing := filepath.Join(dir, "absent.yaml")
	_, err = Load(missing, false)
	assert.Error(t, err)

	c, err = Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, "catalog", c.Catalog.Dir)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":  slog.LevelDebug,
		"INFO":   slog.LevelInfo,
		"warn":   slog.LevelWarn,
		" error": slog.LevelError,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}
