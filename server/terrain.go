package main

import (
	"fmt"
	"math"
)

const (
	WallHP          = 60 // hit points of a destructible wall tile
	TileOpen   byte = '.'
	TileWall   byte = '#' // destructible, blocks tanks and projectiles
	TileRock   byte = '@' // indestructible
	TileWater  byte = '~' // blocks tanks, projectiles fly over
	TileFence  byte = 'f' // open tile carrying a fence segment
	TilePickup byte = 'p' // open tile carrying a pickup spawn point
	TileSpawnA byte = 'A' // open tile in alliance 1 spawn zone
	TileSpawnB byte = 'B' // open tile in alliance 2 spawn zone
)

// Tile is an integer grid coordinate
type Tile struct {
	X, Y int
}

// TileAt returns the tile containing a world position
func TileAt(x, y float64) Tile {
	return Tile{int(math.Floor(x)), int(math.Floor(y))}
}

// Center returns the world position of the tile centre
func (t Tile) Center() (float64, float64) {
	return float64(t.X) + 0.5, float64(t.Y) + 0.5
}

// TraversibilityMap is a per-tile passable flag. Out of bounds is blocked.
type TraversibilityMap struct {
	Width, Height int
	open          []bool
}

// NewTraversibilityMap returns a fully open map
func NewTraversibilityMap(w, h int) *TraversibilityMap {
	m := &TraversibilityMap{Width: w, Height: h, open: make([]bool, w*h)}
	for i := range m.open {
		m.open[i] = true
	}
	return m
}

// InBounds reports whether the tile is on the map
func (m *TraversibilityMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// Traversable reports whether the tile can be occupied or crossed
func (m *TraversibilityMap) Traversable(x, y int) bool {
	if !m.InBounds(x, y) {
		return false
	}
	return m.open[y*m.Width+x]
}

// Set marks a tile open or blocked. Out of bounds is ignored.
func (m *TraversibilityMap) Set(x, y int, open bool) {
	if !m.InBounds(x, y) {
		return
	}
	m.open[y*m.Width+x] = open
}

// Clone returns a deep copy
func (m *TraversibilityMap) Clone() *TraversibilityMap {
	c := &TraversibilityMap{Width: m.Width, Height: m.Height, open: make([]bool, len(m.open))}
	copy(c.open, m.open)
	return c
}

// TileEdit records one tile change so clients and rollbacks can follow it
type TileEdit struct {
	Tile       Tile
	PrevHP     int
	PrevTank   bool
	PrevShell  bool
	Destroyed  bool
}

// Terrain holds the tank and projectile maps plus wall hit points
type Terrain struct {
	Width, Height int
	Tanks         *TraversibilityMap
	Shells        *TraversibilityMap
	hp            map[Tile]int // destructible tiles only

	Fences    []Tile
	Pickups   []Tile
	SpawnZone map[int][]Tile // alliance -> tiles
}

// NewTerrain returns an open terrain of the given size
func NewTerrain(w, h int) *Terrain {
	return &Terrain{
		Width:     w,
		Height:    h,
		Tanks:     NewTraversibilityMap(w, h),
		Shells:    NewTraversibilityMap(w, h),
		hp:        make(map[Tile]int),
		SpawnZone: make(map[int][]Tile),
	}
}

// ParseTerrain builds terrain from rows of layout characters
func ParseTerrain(rows []string) (*Terrain, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("parse terrain: empty layout")
	}
	w := len(rows[0])
	t := NewTerrain(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("parse terrain: row %d has width %d, want %d", y, len(row), w)
		}
		for x := 0; x < w; x++ {
			tile := Tile{x, y}
			switch row[x] {
			case TileOpen:
			case TileWall:
				t.Tanks.Set(x, y, false)
				t.Shells.Set(x, y, false)
				t.hp[tile] = WallHP
			case TileRock:
				t.Tanks.Set(x, y, false)
				t.Shells.Set(x, y, false)
			case TileWater:
				t.Tanks.Set(x, y, false)
			case TileFence:
				t.Fences = append(t.Fences, tile)
			case TilePickup:
				t.Pickups = append(t.Pickups, tile)
			case TileSpawnA:
				t.SpawnZone[1] = append(t.SpawnZone[1], tile)
			case TileSpawnB:
				t.SpawnZone[2] = append(t.SpawnZone[2], tile)
			default:
				return nil, fmt.Errorf("parse terrain: unknown tile %q at %d,%d", row[x], x, y)
			}
		}
	}
	return t, nil
}

// Destructible reports whether the tile is a wall that can be destroyed
func (t *Terrain) Destructible(tile Tile) bool {
	_, ok := t.hp[tile]
	return ok
}

// TileHP returns the remaining hit points of a destructible tile
func (t *Terrain) TileHP(tile Tile) int {
	return t.hp[tile]
}

// DamageTile applies damage to a destructible tile. When its hit points run
// out the tile is cleared in both maps. The returned edit is nil when the
// tile is not destructible.
func (t *Terrain) DamageTile(tile Tile, dmg int) *TileEdit {
	hp, ok := t.hp[tile]
	if !ok || dmg <= 0 {
		return nil
	}
	edit := &TileEdit{
		Tile:      tile,
		PrevHP:    hp,
		PrevTank:  t.Tanks.Traversable(tile.X, tile.Y),
		PrevShell: t.Shells.Traversable(tile.X, tile.Y),
	}
	hp -= dmg
	if hp <= 0 {
		delete(t.hp, tile)
		t.Tanks.Set(tile.X, tile.Y, true)
		t.Shells.Set(tile.X, tile.Y, true)
		edit.Destroyed = true
	} else {
		t.hp[tile] = hp
	}
	return edit
}

// Undo reverts an edit made by DamageTile
func (t *Terrain) Undo(e TileEdit) {
	t.hp[e.Tile] = e.PrevHP
	t.Tanks.Set(e.Tile.X, e.Tile.Y, e.PrevTank)
	t.Shells.Set(e.Tile.X, e.Tile.Y, e.PrevShell)
}

// Clone returns a deep copy, used when a world is reset
func (t *Terrain) Clone() *Terrain {
	c := &Terrain{
		Width:     t.Width,
		Height:    t.Height,
		Tanks:     t.Tanks.Clone(),
		Shells:    t.Shells.Clone(),
		hp:        make(map[Tile]int, len(t.hp)),
		Fences:    append([]Tile(nil), t.Fences...),
		Pickups:   append([]Tile(nil), t.Pickups...),
		SpawnZone: make(map[int][]Tile, len(t.SpawnZone)),
	}
	for k, v := range t.hp {
		c.hp[k] = v
	}
	for k, v := range t.SpawnZone {
		c.SpawnZone[k] = append([]Tile(nil), v...)
	}
	return c
}

// TerrainSource produces the terrain for a new world. World generation lives
// outside this server; LayoutSource is the built-in fixed-layout source.
type TerrainSource interface {
	Generate(seed int64) (*Terrain, error)
}

// LayoutSource serves a fixed ASCII layout
type LayoutSource struct {
	Rows []string
}

// Generate parses the layout; the seed is ignored
func (s LayoutSource) Generate(seed int64) (*Terrain, error) {
	return ParseTerrain(s.Rows)
}

// DefaultLayout is a two-base arena used when no generator is configured
var DefaultLayout = []string{
	"@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@",
	"@AAAA..................................@",
	"@AAAA.......p.............####.........@",
	"@AAAA.....................####.........@",
	"@AAAA.......####.......................@",
	"@...........####..........ffff.........@",
	"@..........................~~~.....p...@",
	"@.......ffff...............~~~.........@",
	"@.....p....................~~~.........@",
	"@............#####.....................@",
	"@............#####.............####....@",
	"@..............................####....@",
	"@...~~~..........p.....................@",
	"@...~~~...............####.............@",
	"@.....................####......ffff...@",
	"@....####..............................@",
	"@....####.........ffff..........p......@",
	"@..........p......................BBBB.@",
	"@.................................BBBB.@",
	"@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@@",
}
