package main

import (
	"errors"
	"testing"
)

func TestKillScoresForAlliance(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	killer := joinWorld(t, w, "p1", "Alice", 1)
	victim := joinWorld(t, w, "p2", "Bob", 2)

	step(t, w, 0.1, func(tc *TickContext) {
		if !tc.DamageTank(victim, victim.MaxHealth, killer.ID) {
			t.Error("expected a kill")
		}
	})
	if w.Scores[1] != 1 {
		t.Errorf("expected alliance 1 score 1, got %d", w.Scores[1])
	}
	if w.Players["p1"].Kills != 1 || w.Players["p2"].Deaths != 1 {
		t.Errorf("unexpected tallies: kills %d deaths %d", w.Players["p1"].Kills, w.Players["p2"].Deaths)
	}
	if _, ok := w.Tanks[victim.ID]; ok {
		t.Error("dead tank should be removed")
	}
	if p := w.Players["p2"]; p.TankID != "" || p.RespawnT != RespawnDelay {
		t.Errorf("expected respawn timer, got tank %q timer %v", p.TankID, p.RespawnT)
	}
}

func TestRespawnAfterDelay(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	victim := joinWorld(t, w, "p2", "Bob", 2)
	step(t, w, 0, func(tc *TickContext) {
		tc.DamageTank(victim, victim.MaxHealth, "")
	})

	for i := 0; i < 2; i++ {
		step(t, w, 1, func(tc *TickContext) { CleanupStep(tc) })
		if w.Players["p2"].TankID != "" {
			t.Fatalf("respawned early after %d ticks", i+1)
		}
	}
	step(t, w, 1, func(tc *TickContext) { CleanupStep(tc) })
	p := w.Players["p2"]
	if p.TankID == "" {
		t.Fatal("expected a respawn")
	}
	tank := w.Tanks[p.TankID]
	if tank.ID == victim.ID || !tank.Alive || tank.Immunity != SpawnImmunityTime {
		t.Errorf("expected a fresh immune tank, got %+v", tank)
	}
}

func TestScoreLimitEndsMatch(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	joinWorld(t, w, "p1", "Alice", 1)
	w.Config.ScoreLimit = 2
	w.Scores[2] = 2
	w.Scores[1] = 1

	var res *MatchResult
	step(t, w, 0.1, func(tc *TickContext) { res = CleanupStep(tc) })
	if res == nil {
		t.Fatal("expected the match to end")
	}
	if res.Winner != 2 || w.Phase != PhaseResults {
		t.Errorf("expected winner 2 in results, got %d %v", res.Winner, w.Phase)
	}
	if len(res.Players) != 1 || res.Players[0].Name != "Alice" {
		t.Errorf("unexpected players %+v", res.Players)
	}

	// a finished match does not end again
	step(t, w, 0.1, func(tc *TickContext) { res = CleanupStep(tc) })
	if res != nil {
		t.Error("results phase should not produce another result")
	}
}

func TestTimeLimitDraw(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	w.Config.TimeLimit = 1
	w.Scores[1], w.Scores[2] = 3, 3

	var res *MatchResult
	step(t, w, 0.6, func(tc *TickContext) { res = CleanupStep(tc) })
	if res != nil {
		t.Fatal("ended too early")
	}
	step(t, w, 0.6, func(tc *TickContext) { res = CleanupStep(tc) })
	if res == nil || res.Winner != 0 {
		t.Fatalf("expected a draw, got %+v", res)
	}
}

func TestResetMatchRestoresWorld(t *testing.T) {
	rows := withTile(openRows(10, 10), 5, 5, TileWall)
	w := newTestWorld(t, rows)
	joinWorld(t, w, "p1", "Alice", 1)
	step(t, w, 0, func(tc *TickContext) {
		tc.DamageTile(Tile{5, 5}, WallHP)
		w.Scores[1] = 4
		w.Players["p1"].Kills = 4
		w.Phase = PhaseResults
	})

	step(t, w, 0, ResetMatch)
	if w.Phase != PhasePlaying || w.Elapsed != 0 {
		t.Errorf("expected a fresh round, phase %v elapsed %v", w.Phase, w.Elapsed)
	}
	if w.Terrain.TileHP(Tile{5, 5}) != WallHP {
		t.Error("terrain should be pristine")
	}
	if len(w.Scores) != 0 || w.Players["p1"].Kills != 0 {
		t.Errorf("scores not cleared: %v", w.Scores)
	}
	if len(w.Tanks) != 1 || w.Players["p1"].TankID == "" {
		t.Error("player should be respawned")
	}
}

func TestPhaseGatesSimulation(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)
	tank.SetPath([]PathPoint{{X: 9, Y: tank.Y}})
	x := tank.X
	w.Phase = PhaseResults

	step(t, w, 0.5, MotionStep)
	if w.Tanks[tank.ID].X != x {
		t.Error("tanks should not move outside the playing phase")
	}
}

func TestAddPlayerBalancesAlliances(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	step(t, w, 0, func(tc *TickContext) {
		a, err := w.AddPlayer(tc, "p1", "A", false, 0, ClassMedium)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		b, err := w.AddPlayer(tc, "p2", "B", false, 0, ClassLight)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if a.Alliance == b.Alliance {
			t.Errorf("expected different alliances, both %d", a.Alliance)
		}
		if _, err := w.AddPlayer(tc, "p1", "A", false, 0, ClassMedium); !errors.Is(err, ErrInvalidState) {
			t.Errorf("duplicate player: expected ErrInvalidState, got %v", err)
		}
	})
}

func TestSpawnInsideZone(t *testing.T) {
	rows := openRows(10, 10)
	rows = withTile(rows, 1, 1, TileSpawnA)
	rows = withTile(rows, 8, 8, TileSpawnB)
	w := newTestWorld(t, rows)
	tank := joinWorld(t, w, "p1", "Alice", 2)
	if TileAt(tank.X, tank.Y) != (Tile{8, 8}) {
		t.Errorf("expected spawn on the B tile, got (%v, %v)", tank.X, tank.Y)
	}
	// the tank faces the opposing zone
	if tank.Rotation >= 0 {
		t.Errorf("expected to face up-left toward A, rotation %v", tank.Rotation)
	}
}

func TestRemovePlayerReleasesCode(t *testing.T) {
	w := newTestWorld(t, openRows(10, 10))
	tank := joinWorld(t, w, "p1", "Alice", 1)
	code := tank.Code
	w.View(func() { w.RemovePlayer("p1") })
	if len(w.Tanks) != 0 || len(w.Players) != 0 {
		t.Fatal("player and tank should be gone")
	}
	if w.TankByCode(code) != nil {
		t.Error("code should no longer resolve")
	}
}
