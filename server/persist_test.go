package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRecords(t *testing.T) {
	rows := withTile(openRows(10, 10), 8, 8, TilePickup)
	w := newTestWorld(t, rows)
	tank := addTank(w, "a", 1, 1.5, 1.5)
	addMine(w, tank, 5.5, 5.5)

	var records []EntityRecord
	w.View(func() {
		var err error
		records, err = SnapshotRecords(w)
		require.NoError(t, err)
	})
	require.Len(t, records, 3)

	byKind := make(map[EntityKind]EntityRecord)
	for _, r := range records {
		byKind[r.Kind] = r
		assert.Equal(t, w.ID, r.WorldID)
	}
	assert.Equal(t, RegionKey{0, 0}, byKind[KindTank].Region)
	assert.Equal(t, RegionKey{1, 1}, byKind[KindMine].Region)
	assert.Equal(t, RegionKey{2, 2}, byKind[KindPickup].Region)

	v, err := DecodeRecord(byKind[KindTank])
	require.NoError(t, err)
	st, ok := v.(TankState)
	require.True(t, ok, "expected a TankState, got %T", v)
	assert.Equal(t, "a", st.ID)
	assert.Equal(t, 1.5, st.X)

	_, err = DecodeRecord(EntityRecord{Kind: 'z'})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersisterWritesSnapshot(t *testing.T) {
	db := openTestDB(t)
	w := newTestWorld(t, openRows(10, 10))
	addTank(w, "a", 1, 1.5, 1.5)
	addTank(w, "b", 2, 8.5, 8.5)

	var records []EntityRecord
	w.View(func() { records, _ = SnapshotRecords(w) })

	p := NewPersister(db, nil)
	assert.True(t, p.Submit(w.ID, records))
	p.Stop()
	p.Stop()

	stored, err := db.WorldRecords(w.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	far, err := db.RecordsInRegion(w.ID, RegionKey{2, 2})
	require.NoError(t, err)
	require.Len(t, far, 1)
	assert.Equal(t, "b", far[0].ID)
}

func TestPersisterWithoutDB(t *testing.T) {
	p := NewPersister(nil, nil)
	assert.True(t, p.Submit("w1", nil))
	p.Stop()
}
