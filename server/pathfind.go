package main

import "container/heap"

const (
	StepCost      = 10
	DiagonalCost  = 14
	MaxExpansions = 500
)

// neighbours in expansion order: orthogonal first, then diagonal
var neighbourDirs = [8][2]int{
	{1, 0}, {0, 1}, {-1, 0}, {0, -1},
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
}

// PathResult is the outcome of a search
type PathResult struct {
	Tiles     []Tile // raw path including the start tile
	Waypoints []Tile // simplified turning points, start excluded
	Cost      int
	Reached   bool // false means a partial path toward the closest node
	Expanded  int
}

type pathNode struct {
	tile   Tile
	g, h   int
	parent int
	seq    int
	closed bool
	index  int // position in the open heap, -1 when not queued
}

type openSet struct {
	nodes []pathNode
	items []int
}

func (o *openSet) Len() int { return len(o.items) }

func (o *openSet) Less(i, j int) bool {
	a, b := &o.nodes[o.items[i]], &o.nodes[o.items[j]]
	if fa, fb := a.g+a.h, b.g+b.h; fa != fb {
		return fa < fb
	}
	return a.seq < b.seq
}

func (o *openSet) Swap(i, j int) {
	o.items[i], o.items[j] = o.items[j], o.items[i]
	o.nodes[o.items[i]].index = i
	o.nodes[o.items[j]].index = j
}

func (o *openSet) Push(x any) {
	n := x.(int)
	o.nodes[n].index = len(o.items)
	o.items = append(o.items, n)
}

func (o *openSet) Pop() any {
	old := o.items
	n := old[len(old)-1]
	o.items = old[:len(old)-1]
	o.nodes[n].index = -1
	return n
}

// octile is the 8-direction distance heuristic in step-cost units
func octile(a, b Tile) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dx < dy {
		dx, dy = dy, dx
	}
	return DiagonalCost*dy + StepCost*(dx-dy)
}

// FindPath runs A* over the traversability map from start to goal. The open
// set is ordered by f then insertion order. A diagonal step is refused only
// when both orthogonal neighbours are blocked. When the goal cannot be reached
// within maxExpand expansions the path leads to the expanded node with the
// smallest heuristic instead.
func FindPath(m *TraversibilityMap, start, goal Tile, maxExpand int) PathResult {
	if maxExpand <= 0 {
		maxExpand = MaxExpansions
	}
	open := &openSet{}
	lookup := make(map[Tile]int)
	add := func(t Tile, g, parent int) int {
		open.nodes = append(open.nodes, pathNode{
			tile: t, g: g, h: octile(t, goal), parent: parent, seq: len(open.nodes), index: -1,
		})
		i := len(open.nodes) - 1
		lookup[t] = i
		heap.Push(open, i)
		return i
	}

	best := add(start, 0, -1)
	end := -1
	expanded := 0
	for open.Len() > 0 && expanded < maxExpand {
		cur := heap.Pop(open).(int)
		open.nodes[cur].closed = true
		expanded++
		if open.nodes[cur].h < open.nodes[best].h {
			best = cur
		}
		ct := open.nodes[cur].tile
		if ct == goal {
			end = cur
			break
		}
		for _, d := range neighbourDirs {
			nx, ny := ct.X+d[0], ct.Y+d[1]
			if !m.Traversable(nx, ny) {
				continue
			}
			cost := StepCost
			if d[0] != 0 && d[1] != 0 {
				if !m.Traversable(ct.X+d[0], ct.Y) && !m.Traversable(ct.X, ct.Y+d[1]) {
					continue
				}
				cost = DiagonalCost
			}
			g := open.nodes[cur].g + cost
			nt := Tile{nx, ny}
			if i, ok := lookup[nt]; ok {
				n := &open.nodes[i]
				if n.closed || g >= n.g {
					continue
				}
				// an improved node keeps its original insertion order
				n.g = g
				n.parent = cur
				if n.index >= 0 {
					heap.Fix(open, n.index)
				} else {
					heap.Push(open, i)
				}
				continue
			}
			add(nt, g, cur)
		}
	}

	res := PathResult{Expanded: expanded}
	if end >= 0 {
		res.Reached = true
	} else {
		end = best
	}
	for i := end; i >= 0; i = open.nodes[i].parent {
		res.Tiles = append(res.Tiles, open.nodes[i].tile)
	}
	for i, j := 0, len(res.Tiles)-1; i < j; i, j = i+1, j-1 {
		res.Tiles[i], res.Tiles[j] = res.Tiles[j], res.Tiles[i]
	}
	res.Cost = open.nodes[end].g
	res.Waypoints = SimplifyPath(res.Tiles)
	return res
}

// SimplifyPath keeps only the tiles where the step direction changes plus
// the final tile. The start tile is dropped.
func SimplifyPath(tiles []Tile) []Tile {
	if len(tiles) < 2 {
		return nil
	}
	var out []Tile
	for i := 1; i < len(tiles)-1; i++ {
		dx1, dy1 := tiles[i].X-tiles[i-1].X, tiles[i].Y-tiles[i-1].Y
		dx2, dy2 := tiles[i+1].X-tiles[i].X, tiles[i+1].Y-tiles[i].Y
		if dx1 != dx2 || dy1 != dy2 {
			out = append(out, tiles[i])
		}
	}
	return append(out, tiles[len(tiles)-1])
}

// PathPoints converts waypoint tiles to tile-centre path points
func PathPoints(tiles []Tile, throttle float64) []PathPoint {
	pts := make([]PathPoint, 0, len(tiles))
	for _, t := range tiles {
		x, y := t.Center()
		pts = append(pts, PathPoint{X: x, Y: y, Throttle: throttle})
	}
	return pts
}
