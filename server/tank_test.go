package main

import (
	"math"
	"testing"
)

func TestFollowPathSnapsOntoReachableWaypoint(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 5, 5)
	tank.SetPath([]PathPoint{{X: 8, Y: 5}})
	if !tank.followPath(nil, 1) {
		t.Fatal("unexpected block")
	}
	if tank.X != 8 || tank.Y != 5 {
		t.Errorf("expected (8, 5), got (%v, %v)", tank.X, tank.Y)
	}
	if len(tank.Path) != 0 {
		t.Errorf("expected empty path, got %v", tank.Path)
	}
	if tank.VX != 0 || tank.VY != 0 {
		t.Errorf("expected zero velocity, got (%v, %v)", tank.VX, tank.VY)
	}
}

func TestFollowPathPartialStep(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 5, 5)
	tank.SetPath([]PathPoint{{X: 8, Y: 5}})
	tank.followPath(nil, 0.5)
	if math.Abs(tank.X-6.5) > 1e-9 || tank.Y != 5 {
		t.Errorf("expected (6.5, 5), got (%v, %v)", tank.X, tank.Y)
	}
	if math.Abs(tank.VX-3) > 1e-9 {
		t.Errorf("expected VX 3, got %v", tank.VX)
	}
	if tank.Rotation != 0 {
		t.Errorf("expected heading 0, got %v", tank.Rotation)
	}
}

func TestFollowPathZeroDelta(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 5, 5)
	tank.SetPath([]PathPoint{{X: 8, Y: 5}})
	tank.followPath(nil, 0)
	if tank.X != 5 || tank.Y != 5 {
		t.Errorf("expected no movement, got (%v, %v)", tank.X, tank.Y)
	}
	if math.IsNaN(tank.VX) || math.IsNaN(tank.VY) || math.Abs(tank.VX-3) > 1e-9 {
		t.Errorf("expected VX 3 toward the waypoint, got (%v, %v)", tank.VX, tank.VY)
	}
}

func TestIdleTankStaysPut(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := addTank(w, "a", 1, 4.5, 4.5)
	for i := 0; i < 5; i++ {
		step(t, w, 0.1, func(tc *TickContext) { UpdateTank(tc, tank) })
		if tank.X != 4.5 || tank.Y != 4.5 || tank.VX != 0 || tank.VY != 0 {
			t.Fatalf("tick %d: idle tank moved to (%v, %v) vel (%v, %v)", i, tank.X, tank.Y, tank.VX, tank.VY)
		}
	}
}

func TestFollowPathThrottleAndNextWaypoint(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 0, 0)
	tank.SetPath([]PathPoint{{X: 1, Y: 0}, {X: 1, Y: 5, Throttle: 50}})
	tank.followPath(nil, 1)
	if tank.X != 1 || tank.Y != 0 || len(tank.Path) != 1 {
		t.Fatalf("expected to sit on the first waypoint, got (%v, %v) path %v", tank.X, tank.Y, tank.Path)
	}
	if math.Abs(tank.VY-1.5) > 1e-9 || math.Abs(tank.VX) > 1e-9 {
		t.Errorf("velocity should point at the next waypoint at half speed, got (%v, %v)", tank.VX, tank.VY)
	}
}

func TestFollowPathReverse(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 5, 5)
	tank.SetPath([]PathPoint{{X: 8, Y: 5, Reverse: true}})
	tank.followPath(nil, 0.1)
	if math.Abs(math.Abs(tank.Rotation)-math.Pi) > 1e-9 {
		t.Errorf("reversing tank should face away from travel, got %v", tank.Rotation)
	}
}

func TestFollowPathStopsAtBlockedTile(t *testing.T) {
	m := NewTraversibilityMap(10, 5)
	m.Set(6, 2, false)
	tank := NewTank("t", ClassMedium, 1, 5.5, 2.5)
	tank.SetPath([]PathPoint{{X: 8.5, Y: 2.5}})
	if tank.followPath(m, 0.2) {
		t.Fatal("expected the tank to be blocked")
	}
	if tank.X != 5.5 || tank.Path != nil || tank.VX != 0 {
		t.Errorf("blocked tank should stop in place, got x=%v path=%v vx=%v", tank.X, tank.Path, tank.VX)
	}
}

func TestRotateTurretNeverOvershoots(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 0, 0)
	tank.TargetTurretRotation = 1
	for i := 0; i < 100; i++ {
		tank.rotateTurret(0.05)
		if tank.TurretRotation > 1+1e-9 {
			t.Fatalf("overshot target: %v", tank.TurretRotation)
		}
	}
	if tank.TurretRotation != 1 {
		t.Errorf("expected to settle on 1, got %v", tank.TurretRotation)
	}
	if tank.TurretAngularVelocity != 0 {
		t.Errorf("expected zero angular velocity, got %v", tank.TurretAngularVelocity)
	}
}

func TestRotateTurretTakesShortestArc(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 0, 0)
	tank.TurretRotation = 3.0
	tank.TargetTurretRotation = -3.0
	tank.rotateTurret(0.01)
	if tank.TurretAngularVelocity <= 0 {
		t.Errorf("expected positive rotation across pi, got %v", tank.TurretAngularVelocity)
	}
	if tank.TurretRotation <= 3.0 {
		t.Errorf("expected rotation past 3.0, got %v", tank.TurretRotation)
	}
}

func TestTimersClampAtZero(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 0, 0)
	tank.ReloadT = 0.1
	tank.SmokeCD = 0.2
	tank.tickTimers(0.5)
	if tank.ReloadT != 0 || tank.SmokeCD != 0 || tank.Immunity != SpawnImmunityTime-0.5 {
		t.Errorf("unexpected timers: reload %v smoke %v immunity %v", tank.ReloadT, tank.SmokeCD, tank.Immunity)
	}
}

func TestFireRequestWaitsForReload(t *testing.T) {
	w := newTestWorld(t, openRows(10, 5))
	tank := addTank(w, "t1", 1, 2.5, 2.5)
	tank.ReloadT = 0.5
	tank.FireRequested = true

	step(t, w, 0.1, func(tc *TickContext) { UpdateTank(tc, tank) })
	if len(w.Projectiles) != 0 || !tank.FireRequested {
		t.Fatalf("should hold fire while reloading: %d shells, requested %v", len(w.Projectiles), tank.FireRequested)
	}

	step(t, w, 0.5, func(tc *TickContext) { UpdateTank(tc, tank) })
	if len(w.Projectiles) != 1 {
		t.Fatalf("expected one shell, got %d", len(w.Projectiles))
	}
	if tank.FireRequested || tank.ReloadT != GetGunDef(GunCannon).Reload {
		t.Errorf("fire not consumed: requested %v reload %v", tank.FireRequested, tank.ReloadT)
	}
	for _, p := range w.Projectiles {
		if math.Abs(p.X-(2.5+MuzzleOffset)) > 1e-9 || p.ShooterID != "t1" {
			t.Errorf("unexpected shell %+v", p)
		}
	}
}

func TestEmptiedSlotIsDropped(t *testing.T) {
	w := newTestWorld(t, openRows(10, 5))
	tank := addTank(w, "t1", 1, 2.5, 2.5)
	tank.GrantGun(GunRail, 1)
	tank.Selected = 1
	tank.FireRequested = true

	step(t, w, 0.1, func(tc *TickContext) { UpdateTank(tc, tank) })
	if len(tank.Guns) != 1 || tank.Selected != 0 {
		t.Errorf("expected the rail slot gone, guns %v selected %d", tank.Guns, tank.Selected)
	}
}

func TestTargetLockFollowsAndDrops(t *testing.T) {
	w := newTestWorld(t, openRows(40, 5))
	tank := addTank(w, "t1", 1, 2.5, 2.5)
	enemy := addTank(w, "t2", 2, 6.5, 2.5)
	tank.TargetID = enemy.ID

	step(t, w, 0.01, func(tc *TickContext) { UpdateTank(tc, tank) })
	if tank.TargetID != enemy.ID || tank.TargetTurretRotation != 0 {
		t.Fatalf("lock lost or aim wrong: %q %v", tank.TargetID, tank.TargetTurretRotation)
	}

	// smoke over the target breaks the lock
	smoke := NewSmokeCloud("s1", enemy.X, enemy.Y, enemy)
	w.Smokes[smoke.ID] = smoke
	w.Index.Track(KindSmoke, smoke.ID, &smoke.Region, smoke.X, smoke.Y)
	step(t, w, 0.01, func(tc *TickContext) { UpdateTank(tc, tank) })
	if tank.TargetID != "" {
		t.Error("lock should drop when the target is in smoke")
	}

	// out of range
	far := addTank(w, "t3", 2, 2.5+MaxTargetRange+5, 2.5)
	tank.TargetID = far.ID
	step(t, w, 0.01, func(tc *TickContext) { UpdateTank(tc, tank) })
	if tank.TargetID != "" {
		t.Error("lock should drop beyond max range")
	}
}

func TestTargetLeadFollowsVelocity(t *testing.T) {
	w := newTestWorld(t, openRows(20, 10))
	tank := addTank(w, "t1", 1, 2.5, 2.5)
	enemy := addTank(w, "t2", 2, 6.5, 2.5)
	enemy.VY = 2
	tank.TargetID = enemy.ID
	tank.TargetLead = 4

	step(t, w, 0.01, func(tc *TickContext) { updateTargeting(tc, tank) })
	want := math.Atan2(4, 4)
	if math.Abs(tank.TargetTurretRotation-want) > 1e-9 {
		t.Errorf("expected aim %v, got %v", want, tank.TargetTurretRotation)
	}
}

func TestFenceFlattenedOnce(t *testing.T) {
	rows := withTile(openRows(10, 5), 4, 2, TileFence)
	w := newTestWorld(t, rows)
	tank := addTank(w, "t1", 1, 2.5, 2.5)
	tank.SetPath([]PathPoint{{X: 6.5, Y: 2.5}})

	step(t, w, 0.5, func(tc *TickContext) { UpdateTank(tc, tank) })
	if w.Fences[Tile{4, 2}] {
		t.Fatal("fence should be flattened")
	}
	if math.Abs(tank.VX-3*FenceDrag) > 1e-9 {
		t.Errorf("expected drag on velocity, got %v", tank.VX)
	}
	step(t, w, 0.5, func(tc *TickContext) { UpdateTank(tc, tank) })

	ev, _ := w.DrainEvents()
	n := 0
	for _, e := range ev {
		if e.Kind == EventFence {
			n++
		}
	}
	if n != 1 {
		t.Errorf("expected one fence event, got %d", n)
	}
}

func TestPickupCollectedOncePerEntry(t *testing.T) {
	rows := withTile(openRows(10, 5), 4, 2, TilePickup)
	w := newTestWorld(t, rows)
	tank := addTank(w, "t1", 1, 2.5, 2.5)
	tank.SetPath([]PathPoint{{X: 4.5, Y: 2.5}})

	step(t, w, 1, func(tc *TickContext) { UpdateTank(tc, tank) })
	if len(tank.Guns) != 2 || tank.Guns[1].Type != GunMachineGun {
		t.Fatalf("expected the machine gun, got %v", tank.Guns)
	}
	ammo := tank.Guns[1].Ammo

	// the pickup comes back while the tank is still parked on it
	for _, p := range w.Pickups {
		p.Active = true
	}
	step(t, w, 0.1, func(tc *TickContext) { UpdateTank(tc, tank) })
	if tank.Guns[1].Ammo != ammo {
		t.Errorf("pickup applied twice without leaving the tile: ammo %d", tank.Guns[1].Ammo)
	}
}

func TestRepairAbilityHeals(t *testing.T) {
	w := newTestWorld(t, openRows(10, 5))
	tank := addTank(w, "t1", 1, 2.5, 2.5)
	tank.Health = 50
	tank.PendingAbility = AbilityRepair

	step(t, w, 0.1, func(tc *TickContext) { UpdateTank(tc, tank) })
	if !tank.Repairing || tank.Health != 50+RepairPerTick {
		t.Errorf("expected repair to start, repairing %v health %v", tank.Repairing, tank.Health)
	}
	if tank.RepairCD != RepairCooldown || tank.PendingAbility != AbilityNone {
		t.Errorf("ability not consumed: cd %v pending %v", tank.RepairCD, tank.PendingAbility)
	}
}

func TestOverdriveBoostsSpeed(t *testing.T) {
	tank := NewTank("t", ClassMedium, 1, 0, 0)
	tank.Overdrive = 1
	tank.SetPath([]PathPoint{{X: 100, Y: 0}})
	tank.followPath(nil, 1)
	if math.Abs(tank.X-3*OverdriveMultiplier) > 1e-9 {
		t.Errorf("expected boosted distance, got %v", tank.X)
	}
}
