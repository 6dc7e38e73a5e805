package main

import "math"

const (
	MaxSubStep     = 0.25 // longest distance a shell travels between collision checks
	DedupWindow    = 0.5  // seconds a tank or tile stays immune to the same shell
	MineHitRadius  = 0.5
	BoomerangFloor = 0.15 // slowest boomerang speed as a fraction of spawn speed
)

type hitMark struct {
	key string
	at  float64 // projectile age when recorded
}

type tileMark struct {
	tile Tile
	at   float64
}

// Projectile is a shell in flight
type Projectile struct {
	ID        string
	ShooterID string
	Alliance  int
	Gun       GunType
	Def       ProjectileDef

	X, Y      float64
	VX, VY    float64
	Speed     float64
	BaseSpeed float64
	Age       float64

	Returning  bool // boomerang has reversed
	Collisions int
	Dead       bool

	hitTanks []hitMark
	hitTiles []tileMark
	Region   RegionRef
}

// NewProjectile creates a shell of the given gun heading along angle
func NewProjectile(id string, shooter *Tank, gun GunType, x, y, angle float64) *Projectile {
	def := GetGunDef(gun).Shell
	p := &Projectile{
		ID:        id,
		Gun:       gun,
		Def:       def,
		X:         x,
		Y:         y,
		VX:        math.Cos(angle) * def.Speed,
		VY:        math.Sin(angle) * def.Speed,
		Speed:     def.Speed,
		BaseSpeed: def.Speed,
	}
	if shooter != nil {
		p.ShooterID = shooter.ID
		p.Alliance = shooter.Alliance
	}
	return p
}

// Clone returns a deep copy for tick rollback
func (p *Projectile) Clone() *Projectile {
	c := *p
	c.hitTanks = append([]hitMark(nil), p.hitTanks...)
	c.hitTiles = append([]tileMark(nil), p.hitTiles...)
	return &c
}

// Heading returns the direction of travel
func (p *Projectile) Heading() float64 {
	return math.Atan2(p.VY, p.VX)
}

func (p *Projectile) setSpeed(s float64) {
	p.Speed = s
	mag := math.Hypot(p.VX, p.VY)
	if mag == 0 {
		return
	}
	p.VX = p.VX / mag * s
	p.VY = p.VY / mag * s
}

func (p *Projectile) setHeading(h float64) {
	p.VX = math.Cos(h) * p.Speed
	p.VY = math.Sin(h) * p.Speed
}

// boomerangFactor scales spawn speed by age: full speed at launch and on
// return, slowest at the turnaround
func boomerangFactor(age, lifetime float64) float64 {
	if lifetime <= 0 {
		return 1
	}
	u := 1 - 2*age/lifetime
	return BoomerangFloor + (1-BoomerangFloor)*u*u
}

func (p *Projectile) pruneMarks() {
	n := 0
	for _, m := range p.hitTanks {
		if p.Age-m.at < DedupWindow {
			p.hitTanks[n] = m
			n++
		}
	}
	p.hitTanks = p.hitTanks[:n]
	n = 0
	for _, m := range p.hitTiles {
		if p.Age-m.at < DedupWindow {
			p.hitTiles[n] = m
			n++
		}
	}
	p.hitTiles = p.hitTiles[:n]
}

func (p *Projectile) recentlyHit(id string) bool {
	for _, m := range p.hitTanks {
		if m.key == id {
			return true
		}
	}
	return false
}

func (p *Projectile) recentlyGround(tile Tile) bool {
	for _, m := range p.hitTiles {
		if m.tile == tile {
			return true
		}
	}
	return false
}

// countHit records a counted collision and reports whether the shell is spent
func (p *Projectile) countHit() bool {
	p.Collisions++
	return p.Collisions > p.Def.MaxCollisions
}

// UpdateProjectile advances one shell by the tick's delta: flight adjustments
// first, then sub-stepped movement with terrain, tank and mine checks, then
// expiration.
func UpdateProjectile(tc *TickContext, p *Projectile) {
	if p.Dead {
		return
	}
	dt := tc.DT
	p.Age += dt
	p.pruneMarks()

	if p.Def.Returning {
		if !p.Returning && p.Age >= p.Def.Lifetime/2 {
			p.VX, p.VY = -p.VX, -p.VY
			p.Returning = true
		}
		p.setSpeed(p.BaseSpeed * boomerangFactor(p.Age, p.Def.Lifetime))
	}
	if p.Def.TrackingStrength > 0 {
		steer(tc, p, dt)
	}
	if d := p.Def.Damping; d > 0 && d < 1 {
		p.setSpeed(p.Speed * math.Pow(d, dt))
	}

	dx, dy := p.VX*dt, p.VY*dt
	steps := int(math.Ceil(math.Hypot(dx, dy) / MaxSubStep))
	if steps < 1 {
		steps = 1
	}
	sx, sy := p.X, p.Y
	for i := 1; i <= steps; i++ {
		prevX, prevY := p.X, p.Y
		f := float64(i) / float64(steps)
		p.X, p.Y = sx+dx*f, sy+dy*f
		if hitTerrain(tc, p, prevX, prevY) || p.Dead {
			break
		}
		if hitTanks(tc, p) || p.Dead {
			break
		}
		if hitMines(tc, p) || p.Dead {
			break
		}
	}
	if p.Dead {
		return
	}
	tc.World.Index.Track(KindProjectile, p.ID, &p.Region, p.X, p.Y)

	if p.Age >= p.Def.Lifetime {
		if p.Def.Explode == ExplodeOnExpire {
			tc.Explode(p, p.X, p.Y)
		}
		p.Dead = true
	}
}

// steer turns a homing shell toward the nearest enemy tank in range
func steer(tc *TickContext, p *Projectile, dt float64) {
	target := tc.NearestEnemy(p.X, p.Y, p.Def.TrackingRadius, p.Alliance)
	if target == nil {
		return
	}
	bearing := math.Atan2(target.Y-p.Y, target.X-p.X)
	p.setHeading(RotateToward(p.Heading(), bearing, p.Def.TrackingStrength*dt))
}

// hitTerrain handles the projectile map. Returns true when movement must
// end for this tick.
func hitTerrain(tc *TickContext, p *Projectile, prevX, prevY float64) bool {
	shells := tc.World.Terrain.Shells
	if p.Def.PassTerrain {
		if p.Def.TerrainRadius > 0 {
			grind(tc, p)
		}
		return false
	}
	tile := TileAt(p.X, p.Y)
	if shells.Traversable(tile.X, tile.Y) {
		return false
	}
	switch {
	case p.Def.Mine:
		tc.PlantMine(p, prevX, prevY, "")
		p.Dead = true
	case p.Def.Bounce:
		bounce(tc, p, prevX, prevY, tile)
	default:
		// an exploding shell damages the impact tile through its blast
		if p.Def.Explode == ExplodeOnHit && p.Def.ExplosionRadius > 0 {
			tc.Explode(p, prevX, prevY)
		} else {
			tc.DamageTile(tile, p.Def.TileDamage)
		}
		p.Dead = true
	}
	return true
}

// bounce reflects the velocity off the blocked tile and puts the shell back
// on its last free position
func bounce(tc *TickContext, p *Projectile, prevX, prevY float64, tile Tile) {
	shells := tc.World.Terrain.Shells
	prev := TileAt(prevX, prevY)
	rx := tile.X != prev.X
	ry := tile.Y != prev.Y
	if rx && ry {
		// diagonal entry: reflect only the axis whose neighbour is solid,
		// both when it is a pure corner
		bx := !shells.Traversable(tile.X, prev.Y)
		by := !shells.Traversable(prev.X, tile.Y)
		if bx || by {
			rx, ry = bx, by
		}
	}
	if !rx && !ry {
		rx, ry = true, true
	}
	if rx {
		p.VX = -p.VX
	}
	if ry {
		p.VY = -p.VY
	}
	p.X, p.Y = prevX, prevY
	tc.Emit(Event{Kind: EventBounce, X: prevX, Y: prevY, Subject: p.ID})
}

// grind damages every destructible tile the shell's area overlaps, at most
// once per tile per dedup window
func grind(tc *TickContext, p *Projectile) {
	r := p.Def.TerrainRadius
	min := TileAt(p.X-r, p.Y-r)
	max := TileAt(p.X+r, p.Y+r)
	for y := min.Y; y <= max.Y; y++ {
		for x := min.X; x <= max.X; x++ {
			tile := Tile{x, y}
			if !CircleOverlapsTile(p.X, p.Y, r, tile) || p.recentlyGround(tile) {
				continue
			}
			if tc.World.Terrain.Destructible(tile) {
				tc.DamageTile(tile, p.Def.TileDamage)
				p.hitTiles = append(p.hitTiles, tileMark{tile, p.Age})
			}
		}
	}
}

// hitTanks checks the shell against tanks near its position. Every counted
// hit ends movement for this tick; tanks overlapping at the same sub-step are
// all hit.
func hitTanks(tc *TickContext, p *Projectile) bool {
	reach := p.Def.Radius + TankRadius
	hit := false
	for _, id := range tc.World.Index.Query(KindTank, p.X, p.Y, reach) {
		t := tc.Tank(id)
		if t == nil || !CheckCollision(p.X, p.Y, p.Def.Radius, t.X, t.Y, TankRadius) {
			continue
		}
		if t.ID == p.ShooterID {
			if p.Returning {
				catchBoomerang(tc, p, t)
				return true
			}
			continue
		}
		if t.Alliance == p.Alliance || p.recentlyHit(t.ID) {
			continue
		}
		if p.Def.Mine {
			tc.PlantMine(p, p.X, p.Y, t.ID)
			p.Dead = true
			return true
		}
		if p.Def.Explode == ExplodeOnHit {
			tc.Explode(p, p.X, p.Y)
		} else {
			tc.DamageTank(t, p.Def.Damage, p.ShooterID)
		}
		p.hitTanks = append(p.hitTanks, hitMark{t.ID, p.Age})
		hit = true
		if p.countHit() {
			p.Dead = true
			return true
		}
	}
	return hit
}

// catchBoomerang hands the gun back to its shooter
func catchBoomerang(tc *TickContext, p *Projectile, t *Tank) {
	t.GrantGun(p.Gun, 1)
	p.Dead = true
	tc.Emit(Event{Kind: EventCatch, X: p.X, Y: p.Y, Subject: p.ID, Actor: t.ID})
}

// hitMines lets shells shoot down enemy mines
func hitMines(tc *TickContext, p *Projectile) bool {
	if p.Def.Mine {
		return false
	}
	for _, id := range tc.World.Index.Query(KindMine, p.X, p.Y, MineHitRadius) {
		m := tc.World.Mines[id]
		if m == nil || m.Dead || m.Alliance == p.Alliance {
			continue
		}
		if DistanceSq(p.X, p.Y, m.X, m.Y) > MineHitRadius*MineHitRadius {
			continue
		}
		m.Dead = true
		tc.Emit(Event{Kind: EventMineDestroyed, X: m.X, Y: m.Y, Subject: m.ID, Actor: p.ShooterID})
		if p.countHit() {
			p.Dead = true
		}
		return true
	}
	return false
}
