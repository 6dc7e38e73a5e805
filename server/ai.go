package main

import (
	"math"
	"sort"
)

const (
	BotPickupRange   = 8.0
	BotEngageRange   = 10.0
	BotAimTolerance  = 0.1  // radians
	BotAdvanceProbe  = 4.0  // tiles ahead of the tank toward the enemy base
	BotSnapRadius    = 2    // rings searched for a traversable probe tile
	BotPickupTries   = 3    // A* searches spent on pickups per plan
	BotLowHealth     = 0.25 // fraction of max health that triggers a repair
	BotChatterChance = 0.15
)

// Bot chatter keyed by situation
var botPhrases = map[string][]string{
	"notice": {
		"Target acquired!",
		"Contact, turret traversing.",
		"Got eyes on one.",
		"Engaging!",
	},
	"low_hp": {
		"Armour's cracking!",
		"Taking heavy fire!",
		"Need a wrench over here.",
		"Tracks are shot!",
	},
	"pickup": {
		"Grabbing that crate.",
		"Mine now.",
		"Reloading from the field.",
	},
}

// BotMemory is per-tank planner state that persists between plans
type BotMemory struct {
	Engaged   string // enemy engaged on the last plan
	SaidLowHP bool
}

// pickPhrase randomly selects a phrase from a pool with a chance gate
func (w *World) pickPhrase(pool string) string {
	if w.rng.Float64() > BotChatterChance {
		return ""
	}
	phrases := botPhrases[pool]
	if len(phrases) == 0 {
		return ""
	}
	return phrases[w.rng.IntN(len(phrases))]
}

func (tc *TickContext) chatter(t *Tank, pool string) {
	if text := tc.World.pickPhrase(pool); text != "" {
		tc.Emit(Event{Kind: EventChat, X: t.X, Y: t.Y, Actor: t.ID, Text: text})
	}
}

// PlanBot runs the bot behaviour tree for one AI tank. The first rule that
// produces an intent wins: seek a useful pickup, engage a visible enemy,
// advance toward the enemy base.
func PlanBot(tc *TickContext, t *Tank) {
	if !t.Alive || !t.AI {
		return
	}
	mem := tc.World.botMemory(t.PlayerID)
	maybeRepair(tc, t, mem)
	if seekPickup(tc, t) {
		return
	}
	if engage(tc, t, mem) {
		return
	}
	mem.Engaged = ""
	advance(tc, t)
}

func (w *World) botMemory(playerID string) *BotMemory {
	if p := w.Players[playerID]; p != nil {
		return &p.Bot
	}
	return &BotMemory{}
}

func maybeRepair(tc *TickContext, t *Tank, mem *BotMemory) {
	if t.Health > t.MaxHealth*BotLowHealth {
		mem.SaidLowHP = false
		return
	}
	if !mem.SaidLowHP {
		mem.SaidLowHP = true
		tc.chatter(t, "low_hp")
	}
	if t.CanActivate(AbilityRepair) {
		t.PendingAbility = AbilityRepair
	}
}

// seekPickup paths to the nearest reachable pickup the tank can use
func seekPickup(tc *TickContext, t *Tank) bool {
	w := tc.World
	var cands []*Pickup
	for _, id := range w.Index.Query(KindPickup, t.X, t.Y, BotPickupRange) {
		p := w.Pickups[id]
		if p == nil || !p.Useful(t) {
			continue
		}
		x, y := p.Tile.Center()
		if Distance(t.X, t.Y, x, y) <= BotPickupRange {
			cands = append(cands, p)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		xi, yi := cands[i].Tile.Center()
		xj, yj := cands[j].Tile.Center()
		return DistanceSq(t.X, t.Y, xi, yi) < DistanceSq(t.X, t.Y, xj, yj)
	})
	start := TileAt(t.X, t.Y)
	for i, p := range cands {
		if i >= BotPickupTries {
			break
		}
		if p.Tile == start {
			continue
		}
		res := FindPath(w.Terrain.Tanks, start, p.Tile, MaxExpansions)
		if !res.Reached {
			continue
		}
		t.SetPath(PathPoints(res.Waypoints, 0))
		tc.chatter(t, "pickup")
		return true
	}
	return false
}

// engage aims at the nearest visible enemy with a lead on its velocity and
// requests fire once the turret is on target
func engage(tc *TickContext, t *Tank, mem *BotMemory) bool {
	enemy := tc.NearestEnemy(t.X, t.Y, BotEngageRange, t.Alliance)
	if enemy == nil || tc.InSmoke(enemy.X, enemy.Y) {
		return false
	}
	if !LineOfSight(tc.World.Terrain.Shells, t.X, t.Y, enemy.X, enemy.Y) {
		return false
	}
	speed := GetGunDef(GunCannon).Shell.Speed
	if g := t.SelectedGun(); g != nil {
		speed = GetGunDef(g.Type).Shell.Speed
	}
	ax, ay := LeadPoint(t.X, t.Y, enemy.X, enemy.Y, enemy.VX, enemy.VY, speed)
	aim := math.Atan2(ay-t.Y, ax-t.X)
	t.TargetID = ""
	t.TargetTurretRotation = aim
	if math.Abs(NormalizeAngle(aim-t.TurretRotation)) <= BotAimTolerance {
		t.FireRequested = true
	}
	if mem.Engaged != enemy.ID {
		mem.Engaged = enemy.ID
		tc.chatter(t, "notice")
	}
	return true
}

// LeadPoint returns where to aim so a shell of the given speed meets a
// target moving at constant velocity. Uses the flight time to the target's
// current position.
func LeadPoint(sx, sy, tx, ty, vx, vy, shellSpeed float64) (float64, float64) {
	if shellSpeed <= 0 {
		return tx, ty
	}
	flight := Distance(sx, sy, tx, ty) / shellSpeed
	return tx + vx*flight, ty + vy*flight
}

// advance steps toward the enemy base: probe a point a few tiles ahead,
// snap it to a traversable tile and path there
func advance(tc *TickContext, t *Tank) {
	w := tc.World
	gx, gy, ok := w.enemyBase(t)
	if !ok {
		angle := w.rng.Float64() * 2 * math.Pi
		gx, gy = t.X+math.Cos(angle)*BotAdvanceProbe, t.Y+math.Sin(angle)*BotAdvanceProbe
	}
	dx, dy := gx-t.X, gy-t.Y
	dist := math.Hypot(dx, dy)
	px, py := gx, gy
	if dist > BotAdvanceProbe {
		px = t.X + dx/dist*BotAdvanceProbe
		py = t.Y + dy/dist*BotAdvanceProbe
	}
	goal, found := SnapTraversable(w.Terrain.Tanks, TileAt(px, py), BotSnapRadius)
	if !found {
		return
	}
	start := TileAt(t.X, t.Y)
	if goal == start {
		return
	}
	res := FindPath(w.Terrain.Tanks, start, goal, MaxExpansions)
	if len(res.Waypoints) == 0 {
		return
	}
	t.SetPath(PathPoints(res.Waypoints, 0))
}

// enemyBase picks the spawn zone centre of the first opposing alliance, or
// the nearest enemy tank when no zone exists
func (w *World) enemyBase(t *Tank) (float64, float64, bool) {
	alliances := make([]int, 0, len(w.Terrain.SpawnZone))
	for a := range w.Terrain.SpawnZone {
		if a != t.Alliance {
			alliances = append(alliances, a)
		}
	}
	sort.Ints(alliances)
	for _, a := range alliances {
		if x, y, ok := w.ZoneCenter(a); ok {
			return x, y, true
		}
	}
	var best *Tank
	bestD := math.MaxFloat64
	for _, id := range sortedKeys(w.Tanks) {
		e := w.Tanks[id]
		if !e.Alive || e.Alliance == t.Alliance {
			continue
		}
		if d := DistanceSq(t.X, t.Y, e.X, e.Y); d < bestD {
			best, bestD = e, d
		}
	}
	if best == nil {
		return 0, 0, false
	}
	return best.X, best.Y, true
}

// SnapTraversable returns the tile itself if open, otherwise the first open
// tile found on square rings of growing radius up to maxRing
func SnapTraversable(m *TraversibilityMap, tile Tile, maxRing int) (Tile, bool) {
	if m.Traversable(tile.X, tile.Y) {
		return tile, true
	}
	for r := 1; r <= maxRing; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx != -r && dx != r && dy != -r && dy != r {
					continue
				}
				if m.Traversable(tile.X+dx, tile.Y+dy) {
					return Tile{tile.X + dx, tile.Y + dy}, true
				}
			}
		}
	}
	return Tile{}, false
}
