package main

import (
	"errors"
	"math"
	"testing"
	"time"
)

// joinWorld adds a human player and returns their tank
func joinWorld(t *testing.T, w *World, id, name string, alliance int) *Tank {
	t.Helper()
	var tank *Tank
	step(t, w, 0, func(tc *TickContext) {
		if _, err := w.AddPlayer(tc, id, name, false, alliance, ClassMedium); err != nil {
			t.Fatalf("add player: %v", err)
		}
		tank, _ = w.PlayerTank(id)
	})
	tank.Immunity = 0
	return tank
}

func TestApplyPath(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)

	err := w.Apply("p1", Command{Op: CmdPath, Points: []PathPoint{{X: 1, Y: 1}, {X: 5, Y: 5, Throttle: 50}}})
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if len(tank.Path) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(tank.Path))
	}

	err = w.Apply("p1", Command{Op: CmdAppend, Points: []PathPoint{{X: 9, Y: 9}}})
	if err != nil || len(tank.Path) != 3 {
		t.Errorf("append failed: %v, path %d", err, len(tank.Path))
	}

	if err := w.Apply("p1", Command{Op: CmdStop}); err != nil || tank.Path != nil {
		t.Errorf("stop failed: %v, path %v", err, tank.Path)
	}
}

func TestApplyRejectsBadPath(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)
	tank.SetPath([]PathPoint{{X: 2, Y: 2}})

	bad := []Command{
		{Op: CmdPath},
		{Op: CmdPath, Points: []PathPoint{{X: 11, Y: 1}}},
		{Op: CmdPath, Points: []PathPoint{{X: -1, Y: 1}}},
		{Op: CmdPath, Points: []PathPoint{{X: 1, Y: 1, Throttle: 150}}},
		{Op: CmdPath, Points: make([]PathPoint, MaxPathPoints+1)},
	}
	for i, cmd := range bad {
		err := w.Apply("p1", cmd)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("case %d: expected ErrInvalidState, got %v", i, err)
		}
	}
	got := w.Tanks[tank.ID]
	if len(got.Path) != 1 || got.Path[0].X != 2 {
		t.Errorf("rejected commands must not change the path, got %v", got.Path)
	}
}

func TestApplyAppendOverflow(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	joinWorld(t, w, "p1", "Alice", 1)
	full := make([]PathPoint, MaxPathPoints)
	if err := w.Apply("p1", Command{Op: CmdPath, Points: full}); err != nil {
		t.Fatalf("path: %v", err)
	}
	err := w.Apply("p1", Command{Op: CmdAppend, Points: []PathPoint{{X: 1, Y: 1}}})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestApplyAim(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)
	tank.TargetID = "someone"

	if err := w.Apply("p1", Command{Op: CmdAim, Angle: 1.25}); err != nil {
		t.Fatalf("aim: %v", err)
	}
	tank = w.Tanks[tank.ID]
	if tank.TargetTurretRotation != 1.25 || tank.TargetID != "" {
		t.Errorf("aim should set rotation and clear the lock, got %v %q", tank.TargetTurretRotation, tank.TargetID)
	}
	if err := w.Apply("p1", Command{Op: CmdAim, Angle: math.NaN()}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("NaN aim: expected ErrInvalidState, got %v", err)
	}
}

func TestApplyTarget(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)
	ally := joinWorld(t, w, "p2", "Bob", 1)
	enemy := joinWorld(t, w, "p3", "Carol", 2)

	if err := w.Apply("p1", Command{Op: CmdTarget, Target: enemy.Code, Lead: 50}); err != nil {
		t.Fatalf("target by code: %v", err)
	}
	got := w.Tanks[tank.ID]
	if got.TargetID != enemy.ID || got.TargetLead != MaxTargetRange {
		t.Errorf("expected lock on %s with clamped lead, got %q %v", enemy.ID, got.TargetID, got.TargetLead)
	}

	if err := w.Apply("p1", Command{Op: CmdTarget, Target: "carol"}); err != nil {
		t.Errorf("target by name: %v", err)
	}
	if err := w.Apply("p1", Command{Op: CmdTarget, Target: ally.Code}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("ally target: expected ErrInvalidState, got %v", err)
	}
	if err := w.Apply("p1", Command{Op: CmdTarget, Target: "nobody"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing target: expected ErrNotFound, got %v", err)
	}
	if err := w.Apply("p1", Command{Op: CmdTarget}); err != nil || w.Tanks[tank.ID].TargetID != "" {
		t.Errorf("empty target should clear the lock: %v", err)
	}
}

func TestApplyFireAndGun(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)

	if err := w.Apply("p1", Command{Op: CmdFire}); err != nil || !w.Tanks[tank.ID].FireRequested {
		t.Errorf("fire: %v", err)
	}
	if err := w.Apply("p1", Command{Op: CmdGun, Slot: 3}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("empty slot: expected ErrInvalidState, got %v", err)
	}

	w.View(func() {
		w.Tanks[tank.ID].GrantGun(GunRail, 2)
	})
	if err := w.Apply("p1", Command{Op: CmdGun, Slot: 1}); err != nil || w.Tanks[tank.ID].Selected != 1 {
		t.Errorf("select slot 1: %v", err)
	}

	w.View(func() {
		w.Tanks[tank.ID].Guns[1].Ammo = 0
	})
	if err := w.Apply("p1", Command{Op: CmdFire}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("empty gun: expected ErrInvalidState, got %v", err)
	}
}

func TestApplyAbility(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)

	if err := w.Apply("p1", Command{Op: CmdAbility, Ability: "smoke"}); err != nil {
		t.Fatalf("ability: %v", err)
	}
	if w.Tanks[tank.ID].PendingAbility != AbilitySmokescreen {
		t.Error("expected a pending smokescreen")
	}
	if err := w.Apply("p1", Command{Op: CmdAbility, Ability: "teleport"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown ability: expected ErrNotFound, got %v", err)
	}

	w.View(func() {
		w.Tanks[tank.ID].OverdriveCD = 5
	})
	if err := w.Apply("p1", Command{Op: CmdAbility, Ability: "overdrive"}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("cooldown: expected ErrInvalidState, got %v", err)
	}
}

func TestApplyUnknownOpAndPlayer(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	joinWorld(t, w, "p1", "Alice", 1)

	if err := w.Apply("p1", Command{Op: "warp"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown op: expected ErrNotFound, got %v", err)
	}
	if err := w.Apply("ghost", Command{Op: CmdStop}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown player: expected ErrNotFound, got %v", err)
	}
}

func TestApplyToDeadTankFails(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)
	step(t, w, 0, func(tc *TickContext) {
		tc.DamageTank(tank, tank.MaxHealth, "")
	})
	if err := w.Apply("p1", Command{Op: CmdStop}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("dead tank: expected ErrInvalidState, got %v", err)
	}
}

func TestSmokeAbilityRunsOnMotionTick(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)
	if err := w.Apply("p1", Command{Op: CmdAbility, Ability: "smoke"}); err != nil {
		t.Fatalf("ability: %v", err)
	}
	if err := w.Transact(time.Now(), 0.1, func(tc *TickContext) error {
		MotionStep(tc)
		return nil
	}); err != nil {
		t.Fatalf("motion: %v", err)
	}
	if len(w.Smokes) != 1 || w.Tanks[tank.ID].SmokeCD != SmokeCooldown {
		t.Errorf("expected one smoke cloud, got %d", len(w.Smokes))
	}
}

func TestSmokeCloudExpires(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	joinWorld(t, w, "p1", "Alice", 1)
	if err := w.Apply("p1", Command{Op: CmdAbility, Ability: "smoke"}); err != nil {
		t.Fatalf("ability: %v", err)
	}
	step(t, w, 0.1, MotionStep)
	if len(w.Smokes) != 1 {
		t.Fatalf("expected one smoke cloud, got %d", len(w.Smokes))
	}
	step(t, w, SmokeDuration, MotionStep)
	if len(w.Smokes) != 0 {
		t.Errorf("expired cloud should be dropped, %d left", len(w.Smokes))
	}
}
