package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGameConfigDefaults(t *testing.T) {
	cfg, err := LoadGameConfig("")
	require.NoError(t, err)

	assert.Equal(t, int64(1), cfg.Casino.MinBet)
	assert.Equal(t, int64(10000), cfg.Casino.MaxBet)
	assert.Equal(t, 64, cfg.Map.PlotsPerLocation)
	assert.Equal(t, int64(2500), cfg.Map.BuildingCost)
	assert.Equal(t, int64(10000), cfg.Map.StartingCash)
	assert.Equal(t, 50, cfg.Attack.SuccessChance)
	assert.Equal(t, 30, cfg.Attack.PrisonMinutes)
}

func TestLoadGameConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	content := []byte(`
casino:
  min_bet: 5
  max_bet: 500
attack:
  steal_percent: 25
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadGameConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(5), cfg.Casino.MinBet)
	assert.Equal(t, int64(500), cfg.Casino.MaxBet)
	assert.Equal(t, 25, cfg.Attack.StealPercent)
	// unset values keep their defaults
	assert.Equal(t, 64, cfg.Map.PlotsPerLocation)
	assert.Equal(t, 50, cfg.Attack.SuccessChance)
}

func TestLoadGameConfigMissingFile(t *testing.T) {
	_, err := LoadGameConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
