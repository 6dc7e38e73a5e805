package main

import "math"

// DefaultRegionSize is the edge length of a collision region in world units
const DefaultRegionSize = 4.0

// EntityKind selects which per-kind index a query runs against
type EntityKind byte

const (
	KindTank       EntityKind = 't'
	KindProjectile EntityKind = 'r'
	KindMine       EntityKind = 'm'
	KindSmoke      EntityKind = 's'
	KindPickup     EntityKind = 'k'
)

func (k EntityKind) String() string { return string(rune(k)) }

// RegionKey is the (floor(x/S), floor(y/S)) cell an entity sits in
type RegionKey struct {
	X, Y int
}

// RegionRef is the region an entity was last indexed under. Entities embed it
// so the index only does work when a boundary is crossed.
type RegionRef struct {
	Key     RegionKey
	Indexed bool
}

type regionCell struct {
	kind EntityKind
	key  RegionKey
}

// RegionIndex maps (kind, region) to the ids inside it
type RegionIndex struct {
	size  float64
	cells map[regionCell][]string
}

// NewRegionIndex creates an empty index with the given region size
func NewRegionIndex(size float64) *RegionIndex {
	if size <= 0 {
		size = DefaultRegionSize
	}
	return &RegionIndex{
		size:  size,
		cells: make(map[regionCell][]string),
	}
}

// Size returns the region edge length
func (ri *RegionIndex) Size() float64 {
	return ri.size
}

// RegionOf returns the region key for a position
func (ri *RegionIndex) RegionOf(x, y float64) RegionKey {
	return RegionKey{
		X: int(math.Floor(x / ri.size)),
		Y: int(math.Floor(y / ri.size)),
	}
}

// Track places the entity in the region matching (x, y). It is a no-op when
// the cached region still matches. Returns true if membership changed.
func (ri *RegionIndex) Track(kind EntityKind, id string, ref *RegionRef, x, y float64) bool {
	key := ri.RegionOf(x, y)
	if ref.Indexed && ref.Key == key {
		return false
	}
	if ref.Indexed {
		ri.remove(regionCell{kind, ref.Key}, id)
	}
	c := regionCell{kind, key}
	ri.cells[c] = append(ri.cells[c], id)
	ref.Key = key
	ref.Indexed = true
	return true
}

// Untrack removes the entity from its cached region
func (ri *RegionIndex) Untrack(kind EntityKind, id string, ref *RegionRef) {
	if !ref.Indexed {
		return
	}
	ri.remove(regionCell{kind, ref.Key}, id)
	ref.Indexed = false
}

func (ri *RegionIndex) remove(c regionCell, id string) {
	ids := ri.cells[c]
	for i, v := range ids {
		if v == id {
			// keep insertion order so neighbour scans stay deterministic
			copy(ids[i:], ids[i+1:])
			ids = ids[:len(ids)-1]
			break
		}
	}
	if len(ids) == 0 {
		delete(ri.cells, c)
		return
	}
	ri.cells[c] = ids
}

// In returns the ids of kind in exactly this region. The slice is owned by
// the index; callers must not modify it.
func (ri *RegionIndex) In(kind EntityKind, key RegionKey) []string {
	return ri.cells[regionCell{kind, key}]
}

// QueryBuf appends to buf the ids of kind whose region overlaps the disc of
// radius r around (x, y) and returns the extended slice. Only regions
// touching the disc are visited. Callers still need an exact distance check.
func (ri *RegionIndex) QueryBuf(kind EntityKind, x, y, r float64, buf []string) []string {
	if r < 0 {
		r = 0
	}
	min := ri.RegionOf(x-r, y-r)
	max := ri.RegionOf(x+r, y+r)
	r2 := r * r
	for ry := min.Y; ry <= max.Y; ry++ {
		for rx := min.X; rx <= max.X; rx++ {
			// closest point of the region square to the disc centre
			x0 := float64(rx) * ri.size
			y0 := float64(ry) * ri.size
			cx := Clamp(x, x0, x0+ri.size)
			cy := Clamp(y, y0, y0+ri.size)
			if DistanceSq(x, y, cx, cy) > r2 {
				continue
			}
			buf = append(buf, ri.cells[regionCell{kind, RegionKey{rx, ry}}]...)
		}
	}
	return buf
}

// Query returns ids of kind in regions overlapping the disc
func (ri *RegionIndex) Query(kind EntityKind, x, y, r float64) []string {
	return ri.QueryBuf(kind, x, y, r, nil)
}

// Count returns the number of indexed entities of kind
func (ri *RegionIndex) Count(kind EntityKind) int {
	n := 0
	for c, ids := range ri.cells {
		if c.kind == kind {
			n += len(ids)
		}
	}
	return n
}

// Reset empties the index
func (ri *RegionIndex) Reset() {
	ri.cells = make(map[regionCell][]string)
}
