package main

import "testing"

func TestParseDefaultLayout(t *testing.T) {
	terrain, err := ParseTerrain(DefaultLayout)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if terrain.Width != 40 || terrain.Height != 20 {
		t.Errorf("expected 40x20, got %dx%d", terrain.Width, terrain.Height)
	}
	if len(terrain.SpawnZone[1]) == 0 || len(terrain.SpawnZone[2]) == 0 {
		t.Error("expected spawn zones for both alliances")
	}
	if len(terrain.Pickups) == 0 || len(terrain.Fences) == 0 {
		t.Error("expected pickups and fences")
	}
}

func TestWaterBlocksTanksOnly(t *testing.T) {
	terrain, err := ParseTerrain(DefaultLayout)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if terrain.Tanks.Traversable(27, 6) {
		t.Error("water should block tanks")
	}
	if !terrain.Shells.Traversable(27, 6) {
		t.Error("shells should fly over water")
	}
	if terrain.Destructible(Tile{27, 6}) {
		t.Error("water is not destructible")
	}
}

func TestRockIsIndestructible(t *testing.T) {
	terrain, err := ParseTerrain([]string{"@."})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if e := terrain.DamageTile(Tile{0, 0}, 1000); e != nil {
		t.Error("rock should not take damage")
	}
	if terrain.Shells.Traversable(0, 0) {
		t.Error("rock should block shells")
	}
}

func TestParseTerrainErrors(t *testing.T) {
	cases := map[string][]string{
		"empty":   nil,
		"width":   {"...", ".."},
		"unknown": {"..x"},
	}
	for name, rows := range cases {
		if _, err := ParseTerrain(rows); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestOutOfBoundsIsBlocked(t *testing.T) {
	m := NewTraversibilityMap(3, 3)
	if m.Traversable(-1, 0) || m.Traversable(3, 0) || m.Traversable(0, 3) {
		t.Error("out of bounds tiles must be blocked")
	}
	m.Set(5, 5, true)
	if m.Traversable(5, 5) {
		t.Error("set out of bounds should be ignored")
	}
}

func TestDamageTileDestroysWall(t *testing.T) {
	terrain, err := ParseTerrain([]string{".#."})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	wall := Tile{1, 0}

	e := terrain.DamageTile(wall, 20)
	if e == nil || e.Destroyed {
		t.Fatalf("expected a partial edit, got %+v", e)
	}
	if terrain.TileHP(wall) != WallHP-20 {
		t.Errorf("expected hp %d, got %d", WallHP-20, terrain.TileHP(wall))
	}

	e = terrain.DamageTile(wall, WallHP)
	if e == nil || !e.Destroyed {
		t.Fatalf("expected the wall destroyed, got %+v", e)
	}
	if !terrain.Tanks.Traversable(1, 0) || !terrain.Shells.Traversable(1, 0) {
		t.Error("destroyed wall should open both maps")
	}
	if terrain.Destructible(wall) {
		t.Error("destroyed wall is no longer destructible")
	}

	terrain.Undo(*e)
	if terrain.TileHP(wall) != WallHP-20 || terrain.Tanks.Traversable(1, 0) {
		t.Errorf("undo did not restore the wall: hp %d", terrain.TileHP(wall))
	}
}

func TestTerrainCloneIsIndependent(t *testing.T) {
	terrain, err := ParseTerrain([]string{"#A"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	c := terrain.Clone()
	c.DamageTile(Tile{0, 0}, WallHP)
	if terrain.TileHP(Tile{0, 0}) != WallHP || !c.Tanks.Traversable(0, 0) {
		t.Error("clone shares state with the original")
	}
	if len(c.SpawnZone[1]) != 1 {
		t.Error("clone lost the spawn zone")
	}
}

func TestTileCenter(t *testing.T) {
	x, y := TileAt(2.9, 7.1).Center()
	if x != 2.5 || y != 7.5 {
		t.Errorf("expected (2.5, 7.5), got (%v, %v)", x, y)
	}
}
