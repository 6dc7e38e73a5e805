package main

import "math"

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

// CircleOverlapsTile checks if a circle touches the unit square of a tile
func CircleOverlapsTile(cx, cy, r float64, tile Tile) bool {
	x0, y0 := float64(tile.X), float64(tile.Y)
	nx := Clamp(cx, x0, x0+1)
	ny := Clamp(cy, y0, y0+1)
	return DistanceSq(cx, cy, nx, ny) <= r*r
}

// LineOfSight samples the segment at unit intervals and reports whether
// every sampled tile is traversable. The end tiles are not sampled.
func LineOfSight(m *TraversibilityMap, x0, y0, x1, y1 float64) bool {
	dist := Distance(x0, y0, x1, y1)
	if dist < 1 {
		return true
	}
	ux, uy := (x1-x0)/dist, (y1-y0)/dist
	start, end := TileAt(x0, y0), TileAt(x1, y1)
	n := int(math.Floor(dist))
	for i := 1; i <= n; i++ {
		tile := TileAt(x0+ux*float64(i), y0+uy*float64(i))
		if tile == start || tile == end {
			continue
		}
		if !m.Traversable(tile.X, tile.Y) {
			return false
		}
	}
	return true
}
