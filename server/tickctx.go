package main

import (
	"math"
	"time"
)

// EventKind names something that happened during a tick
type EventKind string

const (
	EventFire          EventKind = "fire"
	EventHit           EventKind = "hit"
	EventKill          EventKind = "kill"
	EventExplosion     EventKind = "explosion"
	EventTile          EventKind = "tile"
	EventBounce        EventKind = "bounce"
	EventCatch         EventKind = "catch"
	EventMinePlanted   EventKind = "mine"
	EventMineDetonated EventKind = "mine_detonated"
	EventMineDestroyed EventKind = "mine_destroyed"
	EventPickup        EventKind = "pickup"
	EventFence         EventKind = "fence"
	EventSmoke         EventKind = "smoke"
	EventAbility       EventKind = "ability"
	EventSpawn         EventKind = "spawn"
	EventChat          EventKind = "chat"
	EventMatchEnd      EventKind = "match_end"
	EventMatchStart    EventKind = "match_start"
)

// Event is a committed tick outcome forwarded to clients and analytics
type Event struct {
	Kind    EventKind `msgpack:"k" json:"kind"`
	X       float64   `msgpack:"x" json:"x"`
	Y       float64   `msgpack:"y" json:"y"`
	Subject string    `msgpack:"s,omitempty" json:"subject,omitempty"`
	Actor   string    `msgpack:"a,omitempty" json:"actor,omitempty"`
	Value   float64   `msgpack:"v,omitempty" json:"value,omitempty"`
	Text    string    `msgpack:"t,omitempty" json:"text,omitempty"`
}

// TickContext is the scratch state of one tick. It is built when the tick
// starts and discarded when it ends; nothing in it survives to the next tick.
type TickContext struct {
	World *World
	Now   time.Time
	DT    float64

	pickupsByTile map[Tile]*Pickup
	events        []Event
	edits         []TileEdit
	killed        []*Tank
}

func newTickContext(w *World, now time.Time, dt float64) *TickContext {
	return &TickContext{World: w, Now: now, DT: dt}
}

// Emit queues an event for commit
func (tc *TickContext) Emit(e Event) {
	tc.events = append(tc.events, e)
}

// Events returns the events queued so far
func (tc *TickContext) Events() []Event {
	return tc.events
}

// Tank returns a living tank by id or nil
func (tc *TickContext) Tank(id string) *Tank {
	t := tc.World.Tanks[id]
	if t == nil || !t.Alive {
		return nil
	}
	return t
}

// NearestEnemy returns the closest living tank not in alliance within r.
// Ties go to the tank found first in region order.
func (tc *TickContext) NearestEnemy(x, y, r float64, alliance int) *Tank {
	var best *Tank
	bestD := math.MaxFloat64
	for _, id := range tc.World.Index.Query(KindTank, x, y, r) {
		t := tc.Tank(id)
		if t == nil || t.Alliance == alliance {
			continue
		}
		d := DistanceSq(x, y, t.X, t.Y)
		if d <= r*r && d < bestD {
			best, bestD = t, d
		}
	}
	return best
}

// InSmoke reports whether the point is inside any smoke cloud
func (tc *TickContext) InSmoke(x, y float64) bool {
	for _, id := range tc.World.Index.Query(KindSmoke, x, y, MaxSmokeRadius) {
		s := tc.World.Smokes[id]
		if s != nil && s.Covers(x, y) {
			return true
		}
	}
	return false
}

// PickupAt returns the active pickup on a tile or nil
func (tc *TickContext) PickupAt(tile Tile) *Pickup {
	if tc.pickupsByTile == nil {
		tc.pickupsByTile = make(map[Tile]*Pickup, len(tc.World.Pickups))
		for _, p := range tc.World.Pickups {
			tc.pickupsByTile[p.Tile] = p
		}
	}
	p := tc.pickupsByTile[tile]
	if p == nil || !p.Active {
		return nil
	}
	return p
}

// DamageTile damages a destructible tile and logs the edit for rollback
func (tc *TickContext) DamageTile(tile Tile, dmg int) {
	e := tc.World.Terrain.DamageTile(tile, dmg)
	if e == nil {
		return
	}
	tc.edits = append(tc.edits, *e)
	if e.Destroyed {
		x, y := tile.Center()
		tc.Emit(Event{Kind: EventTile, X: x, Y: y, Value: 0})
	}
}

// SpawnProjectile adds a shell fired by t
func (tc *TickContext) SpawnProjectile(t *Tank, gun GunType, x, y, angle float64) *Projectile {
	p := NewProjectile(NextEntityID("r"), t, gun, x, y, angle)
	tc.World.Projectiles[p.ID] = p
	tc.World.Index.Track(KindProjectile, p.ID, &p.Region, p.X, p.Y)
	tc.Emit(Event{Kind: EventFire, X: x, Y: y, Subject: p.ID, Actor: t.ID, Value: float64(gun)})
	return p
}

// PlantMine turns a mine shell into a spider mine owned by its shooter
func (tc *TickContext) PlantMine(p *Projectile, x, y float64, targetID string) *SpiderMine {
	owner := tc.Tank(p.ShooterID)
	if owner == nil {
		return nil
	}
	m := NewSpiderMine(NextEntityID("m"), owner, x, y)
	m.TargetID = targetID
	tc.World.Mines[m.ID] = m
	tc.World.Index.Track(KindMine, m.ID, &m.Region, m.X, m.Y)
	tc.Emit(Event{Kind: EventMinePlanted, X: x, Y: y, Subject: m.ID, Actor: owner.ID})
	return m
}

// finish removes everything that died during the tick
func (tc *TickContext) finish() {
	w := tc.World
	for _, id := range sortedKeys(w.Projectiles) {
		p := w.Projectiles[id]
		if p.Dead {
			w.Index.Untrack(KindProjectile, id, &p.Region)
			delete(w.Projectiles, id)
		}
	}
	for _, t := range tc.killed {
		w.removeTank(t)
	}
	for _, id := range sortedKeys(w.Mines) {
		m := w.Mines[id]
		if m.Dead || w.Tanks[m.OwnerID] == nil {
			w.Index.Untrack(KindMine, id, &m.Region)
			delete(w.Mines, id)
		}
	}
	for _, id := range sortedKeys(w.Smokes) {
		s := w.Smokes[id]
		if s.Life <= 0 {
			w.Index.Untrack(KindSmoke, id, &s.Region)
			delete(w.Smokes, id)
		}
	}
}
