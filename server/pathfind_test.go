package main

import (
	"reflect"
	"testing"
)

func TestFindPathOpenGrid(t *testing.T) {
	m := NewTraversibilityMap(10, 10)
	res := FindPath(m, Tile{0, 0}, Tile{9, 9}, MaxExpansions)
	if !res.Reached {
		t.Fatal("expected the goal to be reached")
	}
	if res.Cost != 9*DiagonalCost {
		t.Errorf("expected cost %d, got %d", 9*DiagonalCost, res.Cost)
	}
	if len(res.Tiles) != 10 || res.Tiles[0] != (Tile{0, 0}) {
		t.Errorf("unexpected raw path %v", res.Tiles)
	}
	if len(res.Waypoints) == 0 || len(res.Waypoints) > 2 {
		t.Errorf("expected at most 2 waypoints, got %v", res.Waypoints)
	}
	if last := res.Waypoints[len(res.Waypoints)-1]; last != (Tile{9, 9}) {
		t.Errorf("expected to end on the goal, got %v", last)
	}
}

func TestFindPathStartIsGoal(t *testing.T) {
	m := NewTraversibilityMap(3, 3)
	res := FindPath(m, Tile{1, 1}, Tile{1, 1}, MaxExpansions)
	if !res.Reached || res.Cost != 0 || len(res.Waypoints) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestFindPathUnreachableGoalGivesPartialPath(t *testing.T) {
	m := NewTraversibilityMap(10, 10)
	for y := 4; y <= 6; y++ {
		for x := 4; x <= 6; x++ {
			if x != 5 || y != 5 {
				m.Set(x, y, false)
			}
		}
	}
	res := FindPath(m, Tile{0, 0}, Tile{5, 5}, MaxExpansions)
	if res.Reached {
		t.Fatal("goal should be unreachable")
	}
	if len(res.Tiles) < 2 {
		t.Fatalf("expected a partial path, got %v", res.Tiles)
	}
	last := res.Tiles[len(res.Tiles)-1]
	// closest reachable tiles sit two straight steps from the goal
	if d := octile(last, Tile{5, 5}); d != 2*StepCost {
		t.Errorf("partial path ends at %v (h=%d), want h=%d", last, d, 2*StepCost)
	}
}

func TestFindPathRespectsExpansionLimit(t *testing.T) {
	m := NewTraversibilityMap(50, 50)
	res := FindPath(m, Tile{0, 0}, Tile{49, 0}, 5)
	if res.Reached {
		t.Error("expected the search to stop early")
	}
	if res.Expanded != 5 {
		t.Errorf("expected 5 expansions, got %d", res.Expanded)
	}
	if len(res.Tiles) == 0 || res.Tiles[0] != (Tile{0, 0}) {
		t.Errorf("partial path should start at the start tile: %v", res.Tiles)
	}
}

func TestFindPathCornerCutting(t *testing.T) {
	// both flanks blocked: the diagonal is refused
	m := NewTraversibilityMap(2, 2)
	m.Set(1, 0, false)
	m.Set(0, 1, false)
	res := FindPath(m, Tile{0, 0}, Tile{1, 1}, MaxExpansions)
	if res.Reached {
		t.Error("diagonal between two blocked flanks must be refused")
	}

	// one flank open: the diagonal is allowed
	m = NewTraversibilityMap(2, 2)
	m.Set(1, 0, false)
	res = FindPath(m, Tile{0, 0}, Tile{1, 1}, MaxExpansions)
	if !res.Reached || res.Cost != DiagonalCost {
		t.Errorf("expected a diagonal step of cost %d, got %+v", DiagonalCost, res)
	}
}

func TestFindPathIsDeterministic(t *testing.T) {
	terrain, err := ParseTerrain(DefaultLayout)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	first := FindPath(terrain.Tanks, Tile{2, 2}, Tile{36, 17}, MaxExpansions*4)
	for i := 0; i < 5; i++ {
		again := FindPath(terrain.Tanks, Tile{2, 2}, Tile{36, 17}, MaxExpansions*4)
		if !reflect.DeepEqual(first.Tiles, again.Tiles) {
			t.Fatalf("run %d produced a different path", i)
		}
	}
}

func TestFindPathAvoidsWalls(t *testing.T) {
	m := NewTraversibilityMap(5, 5)
	for y := 0; y < 4; y++ {
		m.Set(2, y, false)
	}
	res := FindPath(m, Tile{0, 0}, Tile{4, 0}, MaxExpansions)
	if !res.Reached {
		t.Fatal("expected a path around the wall")
	}
	for _, tile := range res.Tiles {
		if !m.Traversable(tile.X, tile.Y) {
			t.Errorf("path crosses blocked tile %v", tile)
		}
	}
}

func TestSimplifyPath(t *testing.T) {
	tiles := []Tile{{0, 0}, {1, 0}, {2, 0}, {3, 1}, {4, 2}}
	got := SimplifyPath(tiles)
	want := []Tile{{2, 0}, {4, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if SimplifyPath([]Tile{{0, 0}}) != nil {
		t.Error("single tile path simplifies to nothing")
	}
}

func TestPathPoints(t *testing.T) {
	pts := PathPoints([]Tile{{1, 2}}, 50)
	if len(pts) != 1 || pts[0].X != 1.5 || pts[0].Y != 2.5 || pts[0].Throttle != 50 {
		t.Errorf("unexpected points %+v", pts)
	}
}
