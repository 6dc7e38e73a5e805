package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)

	v, err := db.GetSetting("missing")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, db.SetSetting("motd", "hello"))
	require.NoError(t, db.SetSetting("motd", "bye"))
	v, err = db.GetSetting("motd")
	require.NoError(t, err)
	assert.Equal(t, "bye", v)
}

func TestWorldRecords(t *testing.T) {
	db := openTestDB(t)
	records := []EntityRecord{
		{Kind: KindTank, ID: "t1", Region: RegionKey{0, 0}, Data: []byte{1}},
		{Kind: KindTank, ID: "t2", Region: RegionKey{2, 1}, Data: []byte{2}},
		{Kind: KindMine, ID: "m1", Region: RegionKey{0, 0}, Data: []byte{3}},
	}
	require.NoError(t, db.ReplaceWorldRecords("w1", records))
	require.NoError(t, db.ReplaceWorldRecords("w2", records[:1]))

	all, err := db.WorldRecords("w1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, KindMine, all[0].Kind, "records are ordered by kind")
	assert.Equal(t, "w1", all[0].WorldID)

	inRegion, err := db.RecordsInRegion("w1", RegionKey{0, 0})
	require.NoError(t, err)
	require.Len(t, inRegion, 2)
	assert.Equal(t, "m1", inRegion[0].ID)
	assert.Equal(t, "t1", inRegion[1].ID)
	assert.Equal(t, []byte{1}, inRegion[1].Data)

	// a new snapshot replaces the old one entirely
	require.NoError(t, db.ReplaceWorldRecords("w1", records[1:2]))
	all, err = db.WorldRecords("w1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, RegionKey{2, 1}, all[0].Region)

	require.NoError(t, db.DeleteWorldRecords("w1"))
	all, err = db.WorldRecords("w1")
	require.NoError(t, err)
	assert.Empty(t, all)

	other, err := db.WorldRecords("w2")
	require.NoError(t, err)
	assert.Len(t, other, 1, "other worlds are untouched")
}

func TestRecordMatch(t *testing.T) {
	db := openTestDB(t)
	res := &MatchResult{
		WorldID:  "w1",
		Winner:   2,
		Duration: 120.5,
		Players: []PlayerResult{
			{ID: "p1", Name: "Alice", Alliance: 1, Kills: 1, Deaths: 3},
			{ID: "b1", Name: "Bot", AI: true, Alliance: 2, Kills: 4},
		},
	}
	id, err := db.RecordMatch(res)
	require.NoError(t, err)
	assert.Positive(t, id)

	players, err := db.GetMatchPlayers(id)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Bot", players[0].Name, "ordered by kills")
	assert.True(t, players[0].AI)
	assert.Equal(t, 3, players[1].Deaths)

	_, err = db.RecordMatch(&MatchResult{WorldID: "w1"})
	require.NoError(t, err)

	matches, err := db.RecentMatches("w1", 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Winner, "newest first")
	assert.Equal(t, 2, matches[1].Winner)
	assert.Equal(t, 120.5, matches[1].Duration)

	none, err := db.RecentMatches("w9", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
