package main

import (
	"fmt"
	"sort"
)

const (
	RespawnDelay     = 3.0 // seconds before a destroyed tank returns
	MaxSpawnAttempts = 24
	SpawnClearance   = 1.2 // no other tank may be this close to a spawn point
)

// Player is a participant in a world, human or bot. The tank is recreated on
// every respawn; the player survives across lives.
type Player struct {
	ID       string
	Name     string
	AI       bool
	Alliance int
	Class    TankClass
	TankID   string
	Kills    int
	Deaths   int
	RespawnT float64
	Bot      BotMemory
}

// AddPlayer registers a player and spawns their first tank. Alliance 0 picks
// the alliance with fewer players.
func (w *World) AddPlayer(tc *TickContext, id, name string, ai bool, alliance int, class TankClass) (*Player, error) {
	if _, ok := w.Players[id]; ok {
		return nil, fmt.Errorf("player %s: %w", id, ErrInvalidState)
	}
	if alliance == 0 {
		alliance = w.smallestAlliance()
	}
	p := &Player{ID: id, Name: name, AI: ai, Alliance: alliance, Class: class}
	w.Players[id] = p
	if _, err := w.spawnTank(tc, p); err != nil {
		delete(w.Players, id)
		return nil, err
	}
	return p, nil
}

// RemovePlayer removes a player and their tank
func (w *World) RemovePlayer(id string) {
	p := w.Players[id]
	if p == nil {
		return
	}
	if t := w.Tanks[p.TankID]; t != nil {
		w.removeTank(t)
	}
	delete(w.Players, id)
}

// PlayerTank returns the player's living tank
func (w *World) PlayerTank(playerID string) (*Tank, error) {
	p := w.Players[playerID]
	if p == nil {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotFound)
	}
	t := w.Tanks[p.TankID]
	if t == nil || !t.Alive {
		return nil, fmt.Errorf("player %s has no tank: %w", playerID, ErrInvalidState)
	}
	return t, nil
}

func (w *World) smallestAlliance() int {
	counts := map[int]int{1: 0, 2: 0}
	for a := range w.Terrain.SpawnZone {
		counts[a] += 0
	}
	for _, p := range w.Players {
		counts[p.Alliance]++
	}
	alliances := make([]int, 0, len(counts))
	for a := range counts {
		alliances = append(alliances, a)
	}
	sort.Ints(alliances)
	best := alliances[0]
	for _, a := range alliances[1:] {
		if counts[a] < counts[best] {
			best = a
		}
	}
	return best
}

// spawnTank creates a tank for the player at a free point of their zone
func (w *World) spawnTank(tc *TickContext, p *Player) (*Tank, error) {
	code, err := w.codes.Acquire()
	if err != nil {
		return nil, err
	}
	x, y, err := w.spawnPoint(p.Alliance)
	if err != nil {
		w.log.Warn().Err(err).Str("player", p.ID).Msg("spawn fell back to zone centre")
	}
	t := NewTank(NextEntityID("t"), p.Class, p.Alliance, x, y)
	t.PlayerID = p.ID
	t.Name = p.Name
	t.AI = p.AI
	t.Code = code
	if ex, ey, ok := w.enemyBase(t); ok {
		t.Rotation = NormalizeAngle(angleTo(x, y, ex, ey))
		t.TurretRotation = t.Rotation
		t.TargetTurretRotation = t.Rotation
	}
	w.Tanks[t.ID] = t
	w.Index.Track(KindTank, t.ID, &t.Region, t.X, t.Y)
	p.TankID = t.ID
	p.RespawnT = 0
	if tc != nil {
		tc.Emit(Event{Kind: EventSpawn, X: x, Y: y, Subject: t.ID, Actor: p.ID})
	}
	return t, nil
}

// spawnPoint picks a random unoccupied traversable tile of the alliance zone.
// After MaxSpawnAttempts misses it returns the zone centre and
// ErrResourceExhausted.
func (w *World) spawnPoint(alliance int) (float64, float64, error) {
	zone := w.Terrain.SpawnZone[alliance]
	if len(zone) == 0 {
		zone = w.openTiles()
	}
	for i := 0; i < MaxSpawnAttempts && len(zone) > 0; i++ {
		tile := zone[w.rng.IntN(len(zone))]
		if !w.Terrain.Tanks.Traversable(tile.X, tile.Y) {
			continue
		}
		x, y := tile.Center()
		if w.occupied(x, y) {
			continue
		}
		return x, y, nil
	}
	if cx, cy, ok := w.ZoneCenter(alliance); ok {
		return cx, cy, fmt.Errorf("spawn alliance %d: %w", alliance, ErrResourceExhausted)
	}
	return float64(w.Terrain.Width) / 2, float64(w.Terrain.Height) / 2,
		fmt.Errorf("spawn alliance %d: %w", alliance, ErrResourceExhausted)
}

func (w *World) occupied(x, y float64) bool {
	for _, id := range w.Index.Query(KindTank, x, y, SpawnClearance) {
		t := w.Tanks[id]
		if t != nil && t.Alive && Distance(x, y, t.X, t.Y) < SpawnClearance {
			return true
		}
	}
	return false
}

func (w *World) openTiles() []Tile {
	var out []Tile
	for y := 0; y < w.Terrain.Height; y++ {
		for x := 0; x < w.Terrain.Width; x++ {
			if w.Terrain.Tanks.Traversable(x, y) {
				out = append(out, Tile{x, y})
			}
		}
	}
	return out
}

// removeTank takes a tank out of the world. Its mines go with it and its
// player starts the respawn timer.
func (w *World) removeTank(t *Tank) {
	w.Index.Untrack(KindTank, t.ID, &t.Region)
	delete(w.Tanks, t.ID)
	w.codes.Release(t.Code)
	for _, m := range w.Mines {
		if m.OwnerID == t.ID {
			m.Dead = true
		}
	}
	if p := w.Players[t.PlayerID]; p != nil && p.TankID == t.ID {
		p.TankID = ""
		p.RespawnT = RespawnDelay
	}
}

// RespawnPlayers brings back players whose respawn timer ran out
func RespawnPlayers(tc *TickContext) {
	w := tc.World
	for _, id := range sortedKeys(w.Players) {
		p := w.Players[id]
		if p.TankID != "" {
			continue
		}
		p.RespawnT -= tc.DT
		if p.RespawnT > 0 {
			continue
		}
		if _, err := w.spawnTank(tc, p); err != nil {
			w.log.Warn().Err(err).Str("player", p.ID).Msg("respawn deferred")
		}
	}
}
