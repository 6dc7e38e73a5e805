package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackEvents(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, nil)
	a.TrackEvents("w1", []Event{
		{Kind: EventHit, Actor: "t1", Subject: "t2", Value: 20},
		{Kind: EventHit, Actor: "t1", Subject: "t2", Value: 20},
		{Kind: EventKill, Actor: "t1", Subject: "t2"},
		{Kind: EventFire, Actor: "t1"},
	})
	a.Stop()

	counts, err := a.EventCounts(1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"hit": 2, "kill": 1}, counts)
}

func TestTrackMatchFeedsLeaderboard(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db, nil)
	a.TrackMatch(&MatchResult{WorldID: "w1", Winner: 1, Players: []PlayerResult{
		{ID: "p1", Name: "Alice", Alliance: 1, Kills: 3},
		{ID: "p2", Name: "Bob", Alliance: 2, Kills: 1},
	}})
	a.TrackMatch(&MatchResult{WorldID: "w1", Winner: 2, Players: []PlayerResult{
		{ID: "p2", Name: "Bob", Alliance: 2, Kills: 4},
	}})
	a.Stop()
	a.Stop()

	top, err := a.TopKillers(10)
	require.NoError(t, err)
	assert.Equal(t, []KillerRow{{Name: "Bob", Kills: 5}, {Name: "Alice", Kills: 3}}, top)

	matches, err := db.RecentMatches("w1", 5)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
