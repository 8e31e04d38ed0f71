package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"shopadmin/database"
	"shopadmin/dbtest"
	"shopadmin/loader"
	"shopadmin/settings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
settings:
  - key: loyalty_enabled
    value: "true"
    type: boolean
  - key: points_earning_rate
    value: "2"
    type: number
  - key: store_name
    value: Corner Shop
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitDatabase_IsRepeatable(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, loader.InitDatabase(db))
}

func TestParseSeed(t *testing.T) {
	entries, err := loader.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "store_name", entries[2].Key)
	assert.Equal(t, "Corner Shop", entries[2].Value)

	_, err = loader.ParseSeed([]byte("settings:\n  - key: points_earning_rate\n    value: \"-1\"\n"))
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)

	_, err = loader.ParseSeed([]byte("settings:\n  - value: orphan\n"))
	assert.Error(t, err)

	_, err = loader.ParseSeed([]byte("settings: ["))
	assert.Error(t, err)
}

func TestSeedSettings_InsertsOnlyAbsentKeys(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, settings.SetSetting(db, settings.KeyEarningRate, "5", "", ""))

	inserted, err := loader.SeedSettings(db, writeSeed(t, seedYAML))
	require.NoError(t, err)
	// シード2件 (earning_rate は既存) + 残りの既定値6件
	assert.Equal(t, 8, inserted)

	m, err := database.GetSettingsMap(db)
	require.NoError(t, err)
	assert.Equal(t, "5", m[settings.KeyEarningRate])
	assert.Equal(t, "true", m[settings.KeyLoyaltyEnabled])
	assert.Equal(t, "Corner Shop", m["store_name"])
	assert.Equal(t, "365", m[settings.KeyExpiryDays])

	inserted, err = loader.SeedSettings(db, writeSeed(t, seedYAML))
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestSeedSettings_MissingFileUsesDefaults(t *testing.T) {
	db := dbtest.Open(t)

	inserted, err := loader.SeedSettings(db, filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, len(settings.Defaults()), inserted)

	l, err := settings.LoadLoyalty(db)
	require.NoError(t, err)
	assert.False(t, l.Enabled)
}

func TestSeedSettings_InvalidFile(t *testing.T) {
	db := dbtest.Open(t)

	_, err := loader.SeedSettings(db, writeSeed(t, "settings:\n  - key: loyalty_enabled\n    value: maybe\n"))
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)

	all, err := database.GetAllSettings(db)
	require.NoError(t, err)
	assert.Empty(t, all)
}
