package main

import "math"

const (
	TankRadius        = 0.45
	ArrivalThreshold  = 0.05 // waypoint counts as reached within this distance
	MaxTargetRange    = 20.0 // a lock is dropped beyond this distance
	MuzzleOffset      = 0.6
	SpawnImmunityTime = 2.0
	RepairPerTick     = 0.5 // health restored each motion tick while repairing
)

// PathPoint is a waypoint with per-segment throttle
type PathPoint struct {
	X, Y     float64
	Throttle float64 // percent of top speed, 0 means full
	Reverse  bool    // drive backwards toward this point
}

func (p PathPoint) throttle() float64 {
	if p.Throttle <= 0 || p.Throttle > 100 {
		return 1
	}
	return p.Throttle / 100
}

// Tank is a controllable vehicle
type Tank struct {
	ID       string
	PlayerID string
	Name     string
	Code     string // short code other players type to target this tank
	AI       bool
	Alliance int
	Class    TankClass

	X, Y     float64
	VX, VY   float64
	Rotation float64 // body heading

	TurretRotation        float64
	TargetTurretRotation  float64
	TurretAngularVelocity float64

	TopSpeed    float64
	TurretSpeed float64

	Path []PathPoint

	Health    float64
	MaxHealth float64
	Alive     bool

	TargetID   string
	TargetLead float64 // distance to lead the target along its velocity

	Guns          []Gun
	Selected      int
	ReloadT       float64
	FireRequested bool

	PendingAbility AbilityType
	Overdrive      float64 // remaining boost time
	OverdriveCD    float64
	SmokeCD        float64
	RepairCD       float64
	Repairing      bool
	Immunity       float64

	LastTile  Tile
	tileKnown bool
	Region    RegionRef
}

// NewTank creates a tank of the given class at (x, y)
func NewTank(id string, class TankClass, alliance int, x, y float64) *Tank {
	def := GetClassDef(class)
	return &Tank{
		ID:             id,
		Class:          class,
		Alliance:       alliance,
		X:              x,
		Y:              y,
		TopSpeed:       def.TopSpeed,
		TurretSpeed:    def.TurretSpeed,
		Health:         def.MaxHealth,
		MaxHealth:      def.MaxHealth,
		Alive:          true,
		Guns:           DefaultGuns(),
		PendingAbility: AbilityNone,
		Immunity:       SpawnImmunityTime,
		LastTile:       TileAt(x, y),
		tileKnown:      true,
	}
}

// Clone returns a deep copy for tick rollback
func (t *Tank) Clone() *Tank {
	c := *t
	c.Path = append([]PathPoint(nil), t.Path...)
	c.Guns = append([]Gun(nil), t.Guns...)
	return &c
}

// Speed returns the current speed in units/s
func (t *Tank) Speed() float64 {
	return math.Hypot(t.VX, t.VY)
}

func (t *Tank) boost() float64 {
	if t.Overdrive > 0 {
		return OverdriveMultiplier
	}
	return 1
}

// SetPath replaces the waypoint list wholesale
func (t *Tank) SetPath(points []PathPoint) {
	t.Path = append([]PathPoint(nil), points...)
}

// Stop clears the path and halts the tank
func (t *Tank) Stop() {
	t.Path = nil
	t.VX, t.VY = 0, 0
}

// Heal restores health up to the maximum
func (t *Tank) Heal(amount float64) {
	t.Health = Clamp(t.Health+amount, 0, t.MaxHealth)
}

func (t *Tank) tickTimers(dt float64) {
	dec := func(v *float64) {
		if *v > 0 {
			*v -= dt
			if *v < 0 {
				*v = 0
			}
		}
	}
	dec(&t.ReloadT)
	dec(&t.Overdrive)
	dec(&t.OverdriveCD)
	dec(&t.SmokeCD)
	dec(&t.RepairCD)
	dec(&t.Immunity)
}

// followPath advances along the head waypoint. A waypoint that can be reached
// within this tick's budget snaps the tank onto it and is popped; velocity
// then points at the next waypoint or drops to zero. Returns false if the
// tank was blocked by terrain.
func (t *Tank) followPath(m *TraversibilityMap, dt float64) bool {
	if len(t.Path) == 0 {
		return true
	}
	wp := t.Path[0]
	dx, dy := wp.X-t.X, wp.Y-t.Y
	dist := math.Hypot(dx, dy)
	budget := t.TopSpeed * wp.throttle() * t.boost() * dt

	if dist <= ArrivalThreshold || budget >= dist {
		if m != nil && !t.canOccupy(m, wp.X, wp.Y) {
			t.Stop()
			return false
		}
		t.X, t.Y = wp.X, wp.Y
		t.Path = t.Path[1:]
		if len(t.Path) == 0 {
			t.Path = nil
			t.VX, t.VY = 0, 0
			return true
		}
		next := t.Path[0]
		nx, ny := next.X-t.X, next.Y-t.Y
		nd := math.Hypot(nx, ny)
		if nd == 0 {
			t.VX, t.VY = 0, 0
			return true
		}
		speed := t.TopSpeed * next.throttle() * t.boost()
		t.VX, t.VY = nx/nd*speed, ny/nd*speed
		t.face(nx, ny, next.Reverse)
		return true
	}

	ux, uy := dx/dist, dy/dist
	nx, ny := t.X+ux*budget, t.Y+uy*budget
	if m != nil && !t.canOccupy(m, nx, ny) {
		t.Stop()
		return false
	}
	t.X, t.Y = nx, ny
	speed := t.TopSpeed * wp.throttle() * t.boost()
	t.VX, t.VY = ux*speed, uy*speed
	t.face(ux, uy, wp.Reverse)
	return true
}

func (t *Tank) canOccupy(m *TraversibilityMap, x, y float64) bool {
	tile := TileAt(x, y)
	if tile == TileAt(t.X, t.Y) {
		return true
	}
	return m.Traversable(tile.X, tile.Y)
}

func (t *Tank) face(dx, dy float64, reverse bool) {
	h := math.Atan2(dy, dx)
	if reverse {
		h += math.Pi
	}
	t.Rotation = NormalizeAngle(h)
}

// rotateTurret turns toward the target rotation along the shorter arc,
// never overshooting
func (t *Tank) rotateTurret(dt float64) {
	diff := NormalizeAngle(t.TargetTurretRotation - t.TurretRotation)
	step := t.TurretSpeed * dt
	if math.Abs(diff) <= step {
		t.TurretRotation = NormalizeAngle(t.TargetTurretRotation)
		t.TurretAngularVelocity = 0
		return
	}
	t.TurretRotation = NormalizeAngle(t.TurretRotation + sign(diff)*step)
	t.TurretAngularVelocity = sign(diff) * t.TurretSpeed
}

// UpdateTank runs one motion tick for a tank
func UpdateTank(tc *TickContext, t *Tank) {
	if !t.Alive {
		return
	}
	dt := tc.DT
	t.tickTimers(dt)
	if t.PendingAbility != AbilityNone {
		tc.UseAbility(t, t.PendingAbility)
		t.PendingAbility = AbilityNone
	}
	if t.Repairing {
		t.Heal(RepairPerTick)
		if t.Health >= t.MaxHealth {
			t.Repairing = false
		}
	}

	t.followPath(tc.World.Terrain.Tanks, dt)
	updateTargeting(tc, t)
	t.rotateTurret(dt)
	tc.World.Index.Track(KindTank, t.ID, &t.Region, t.X, t.Y)
	enterTile(tc, t)
	tryFire(tc, t)
}

// updateTargeting keeps the turret aimed at the locked target, dropping the
// lock when the target died, left range or is hidden in smoke
func updateTargeting(tc *TickContext, t *Tank) {
	if t.TargetID == "" {
		return
	}
	target := tc.Tank(t.TargetID)
	if target == nil || Distance(t.X, t.Y, target.X, target.Y) > MaxTargetRange || tc.InSmoke(target.X, target.Y) {
		t.TargetID = ""
		return
	}
	ax, ay := target.X, target.Y
	if speed := target.Speed(); speed > 0 && t.TargetLead != 0 {
		ax += target.VX / speed * t.TargetLead
		ay += target.VY / speed * t.TargetLead
	}
	t.TargetTurretRotation = math.Atan2(ay-t.Y, ax-t.X)
}

// enterTile applies tile effects once per tile change
func enterTile(tc *TickContext, t *Tank) {
	tile := TileAt(t.X, t.Y)
	if t.tileKnown && tile == t.LastTile {
		return
	}
	t.LastTile = tile
	t.tileKnown = true
	if p := tc.PickupAt(tile); p != nil {
		CollectPickup(tc, t, p)
	}
	tc.FlattenFence(tile, t)
}

// tryFire spawns the selected gun's shells if a shot is requested and the
// gun is loaded. The request stays pending while reloading.
func tryFire(tc *TickContext, t *Tank) {
	if !t.FireRequested || t.ReloadT > 0 {
		return
	}
	gun := t.SelectedGun()
	if gun == nil || gun.Empty() {
		t.FireRequested = false
		return
	}
	def := GetGunDef(gun.Type)
	n := def.Pellets
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		angle := t.TurretRotation
		if n > 1 {
			angle += -def.Spread/2 + def.Spread*float64(i)/float64(n-1)
		}
		x := t.X + math.Cos(angle)*MuzzleOffset
		y := t.Y + math.Sin(angle)*MuzzleOffset
		tc.SpawnProjectile(t, gun.Type, x, y, angle)
	}
	t.ReloadT = def.Reload
	t.FireRequested = false
	if gun.Ammo > 0 {
		gun.Ammo--
		if gun.Ammo == 0 {
			t.dropSlot(t.Selected)
		}
	}
}
