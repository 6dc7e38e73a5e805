package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tankarena.json"), []byte(body), 0o644))
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	resetViper(t)
	s, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", s.Addr)
	assert.Equal(t, "tankarena.db", s.DBPath)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, DefaultRegionSize, s.RegionSize)
	assert.Equal(t, time.Second/30, s.MotionInterval)
	assert.Equal(t, time.Second/10, s.MineInterval)
	assert.Equal(t, time.Second, s.AIInterval)
	assert.Equal(t, 2, s.BroadcastEvery)
	assert.Equal(t, 16, s.MaxSessions)
	assert.Equal(t, 300.0, s.Match.TimeLimit)
	assert.Equal(t, 25, s.Match.ScoreLimit)
	assert.Equal(t, 10*time.Second, s.Match.ResultsDelay)
	assert.Equal(t, 3, s.Match.BotsPerTeam)
	assert.False(t, s.AuthRequired)
}

func TestLoadConfigFile(t *testing.T) {
	resetViper(t)
	dir := writeConfig(t, `{
		"server": {"addr": ":9999"},
		"sim": {"motionHz": 60, "broadcastHz": 20, "aiInterval": "500ms"},
		"match": {"botsPerTeam": 1, "timeLimit": "90s"}
	}`)
	s, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9999", s.Addr)
	assert.Equal(t, time.Second/60, s.MotionInterval)
	assert.Equal(t, 3, s.BroadcastEvery)
	assert.Equal(t, 500*time.Millisecond, s.AIInterval)
	assert.Equal(t, 1, s.Match.BotsPerTeam)
	assert.Equal(t, 90.0, s.Match.TimeLimit)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("TANKARENA_MATCH_SCORELIMIT", "7")
	t.Setenv("TANKARENA_LOGLEVEL", "debug")
	s, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7, s.Match.ScoreLimit)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	resetViper(t)
	_, err := LoadConfig(writeConfig(t, `{"sim": {"motionHz": 0}}`))
	assert.Error(t, err)

	resetViper(t)
	_, err = LoadConfig(writeConfig(t, `{"sim": {"regionSize": -1}}`))
	assert.Error(t, err)

	resetViper(t)
	_, err = LoadConfig(writeConfig(t, `{not json`))
	assert.Error(t, err)
}
