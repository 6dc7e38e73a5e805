package main

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Phase is the match phase of a world
type Phase int

const (
	PhasePlaying Phase = iota
	PhaseResults
)

func (p Phase) String() string {
	if p == PhaseResults {
		return "results"
	}
	return "playing"
}

// World is the authoritative state of one match. All mutation goes through
// Transact, which serializes ticks and commands on the world lock.
type World struct {
	mu sync.Mutex

	ID      string
	Name    string
	Seed    int64
	Config  MatchConfig
	Phase   Phase
	Elapsed float64 // seconds of play this round

	Terrain  *Terrain
	pristine *Terrain
	Index    *RegionIndex

	Tanks       map[string]*Tank
	Projectiles map[string]*Projectile
	Mines       map[string]*SpiderMine
	Smokes      map[string]*SmokeCloud
	Pickups     map[string]*Pickup
	Fences      map[Tile]bool
	Players     map[string]*Player
	Scores      map[int]int // alliance -> kills

	src   *rand.PCG
	rng   *rand.Rand
	codes *CodeAllocator

	pending []Event
	edits   []TileEdit
	log     zerolog.Logger
}

// NewWorld creates a world over the given terrain
func NewWorld(id, name string, terrain *Terrain, cfg MatchConfig, seed int64, regionSize float64) *World {
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	w := &World{
		ID:       id,
		Name:     name,
		Seed:     seed,
		Config:   cfg,
		pristine: terrain.Clone(),
		Index:    NewRegionIndex(regionSize),
		Players:  make(map[string]*Player),
		src:      src,
		rng:      rand.New(src),
		codes:    NewCodeAllocator(cfg.MaxTanks),
		log:      Logger.With().Str("world", id).Logger(),
	}
	w.resetEntities(terrain)
	return w
}

// resetEntities clears every entity and installs a fresh copy of terrain
func (w *World) resetEntities(terrain *Terrain) {
	for _, t := range w.Tanks {
		w.codes.Release(t.Code)
	}
	w.Terrain = terrain
	w.Index.Reset()
	w.Tanks = make(map[string]*Tank)
	w.Projectiles = make(map[string]*Projectile)
	w.Mines = make(map[string]*SpiderMine)
	w.Smokes = make(map[string]*SmokeCloud)
	w.Pickups = make(map[string]*Pickup)
	w.Fences = make(map[Tile]bool, len(terrain.Fences))
	w.Scores = make(map[int]int)
	for _, f := range terrain.Fences {
		w.Fences[f] = true
	}
	for i, tile := range terrain.Pickups {
		kind, gun := pickupKindFor(i)
		p := NewPickup(NextEntityID("k"), tile, kind, gun)
		w.Pickups[p.ID] = p
		x, y := tile.Center()
		w.Index.Track(KindPickup, p.ID, &p.Region, x, y)
	}
}

// Width returns the world width in tiles
func (w *World) Width() int { return w.Terrain.Width }

// Height returns the world height in tiles
func (w *World) Height() int { return w.Terrain.Height }

// Transact runs fn as one atomic unit under the world lock. If fn returns an
// error or panics every entity and terrain change made during the call is
// rolled back and the error is returned.
func (w *World) Transact(now time.Time, dt float64, fn func(tc *TickContext) error) (err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := w.snapshot()
	tc := newTickContext(w, now, dt)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("world %s: tick panic: %v", w.ID, r)
		}
		if err != nil {
			w.restore(snap, tc)
			return
		}
		w.pending = append(w.pending, tc.events...)
		w.edits = append(w.edits, tc.edits...)
	}()

	if err = fn(tc); err != nil {
		return err
	}
	tc.finish()
	return nil
}

// View runs fn under the world lock without snapshotting
func (w *World) View(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
}

// DrainEvents returns and clears the events and tile edits committed since
// the last call
func (w *World) DrainEvents() ([]Event, []TileEdit) {
	w.mu.Lock()
	defer w.mu.Unlock()
	ev, ed := w.pending, w.edits
	w.pending, w.edits = nil, nil
	return ev, ed
}

type worldSnapshot struct {
	phase       Phase
	elapsed     float64
	terrain     *Terrain
	tanks       map[string]*Tank
	projectiles map[string]*Projectile
	mines       map[string]*SpiderMine
	smokes      map[string]*SmokeCloud
	pickups     map[string]*Pickup
	fences      map[Tile]bool
	players     map[string]*Player
	scores      map[int]int
	rng         []byte
}

func (w *World) snapshot() *worldSnapshot {
	s := &worldSnapshot{
		phase:       w.Phase,
		elapsed:     w.Elapsed,
		terrain:     w.Terrain,
		tanks:       make(map[string]*Tank, len(w.Tanks)),
		projectiles: make(map[string]*Projectile, len(w.Projectiles)),
		mines:       make(map[string]*SpiderMine, len(w.Mines)),
		smokes:      make(map[string]*SmokeCloud, len(w.Smokes)),
		pickups:     make(map[string]*Pickup, len(w.Pickups)),
		fences:      make(map[Tile]bool, len(w.Fences)),
		players:     make(map[string]*Player, len(w.Players)),
		scores:      make(map[int]int, len(w.Scores)),
	}
	for k, v := range w.Tanks {
		s.tanks[k] = v.Clone()
	}
	for k, v := range w.Projectiles {
		s.projectiles[k] = v.Clone()
	}
	for k, v := range w.Mines {
		c := *v
		s.mines[k] = &c
	}
	for k, v := range w.Smokes {
		c := *v
		s.smokes[k] = &c
	}
	for k, v := range w.Pickups {
		c := *v
		s.pickups[k] = &c
	}
	for k, v := range w.Fences {
		s.fences[k] = v
	}
	for k, v := range w.Players {
		c := *v
		s.players[k] = &c
	}
	for k, v := range w.Scores {
		s.scores[k] = v
	}
	s.rng, _ = w.src.MarshalBinary()
	return s
}

// restore puts the world back to the snapshot and rebuilds the region index
func (w *World) restore(s *worldSnapshot, tc *TickContext) {
	for i := len(tc.edits) - 1; i >= 0; i-- {
		w.Terrain.Undo(tc.edits[i])
	}
	for id, t := range w.Tanks {
		if _, ok := s.tanks[id]; !ok {
			w.codes.Release(t.Code)
		}
	}
	for _, t := range s.tanks {
		w.codes.Hold(t.Code)
	}
	w.Phase = s.phase
	w.Elapsed = s.elapsed
	w.Terrain = s.terrain
	w.Tanks = s.tanks
	w.Projectiles = s.projectiles
	w.Mines = s.mines
	w.Smokes = s.smokes
	w.Pickups = s.pickups
	w.Fences = s.fences
	w.Players = s.players
	w.Scores = s.scores
	if s.rng != nil {
		_ = w.src.UnmarshalBinary(s.rng)
	}
	w.rebuildIndex()
}

func (w *World) rebuildIndex() {
	w.Index.Reset()
	for id, t := range w.Tanks {
		t.Region.Indexed = false
		w.Index.Track(KindTank, id, &t.Region, t.X, t.Y)
	}
	for id, p := range w.Projectiles {
		p.Region.Indexed = false
		w.Index.Track(KindProjectile, id, &p.Region, p.X, p.Y)
	}
	for id, m := range w.Mines {
		m.Region.Indexed = false
		w.Index.Track(KindMine, id, &m.Region, m.X, m.Y)
	}
	for id, s := range w.Smokes {
		s.Region.Indexed = false
		w.Index.Track(KindSmoke, id, &s.Region, s.X, s.Y)
	}
	for id, p := range w.Pickups {
		p.Region.Indexed = false
		x, y := p.Tile.Center()
		w.Index.Track(KindPickup, id, &p.Region, x, y)
	}
}

// sortedKeys returns map keys in a stable order so ticks are reproducible
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TankByCode finds a living tank by its target code
func (w *World) TankByCode(code string) *Tank {
	for _, t := range w.Tanks {
		if t.Alive && t.Code == code {
			return t
		}
	}
	return nil
}

// ZoneCenter returns the centroid of an alliance's spawn zone
func (w *World) ZoneCenter(alliance int) (float64, float64, bool) {
	zone := w.Terrain.SpawnZone[alliance]
	if len(zone) == 0 {
		return 0, 0, false
	}
	var sx, sy float64
	for _, t := range zone {
		cx, cy := t.Center()
		sx += cx
		sy += cy
	}
	n := float64(len(zone))
	return sx / n, sy / n, true
}

// Counts returns entity totals for metrics and the session list
func (w *World) Counts() (tanks, projectiles, mines int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.Tanks), len(w.Projectiles), len(w.Mines)
}
