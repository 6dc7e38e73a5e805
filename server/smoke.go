package main

// MaxSmokeRadius bounds smoke region queries; no cloud is larger
const MaxSmokeRadius = SmokeRadius

// SmokeCloud hides tanks inside it from target locks and bot sight
type SmokeCloud struct {
	ID       string
	X, Y     float64
	Radius   float64
	OwnerID  string
	Alliance int
	Life     float64
	Region   RegionRef
}

// NewSmokeCloud creates a smoke cloud at the given position
func NewSmokeCloud(id string, x, y float64, owner *Tank) *SmokeCloud {
	return &SmokeCloud{
		ID:       id,
		X:        x,
		Y:        y,
		Radius:   SmokeRadius,
		OwnerID:  owner.ID,
		Alliance: owner.Alliance,
		Life:     SmokeDuration,
	}
}

// Update ticks the cloud lifetime. Expired clouds are dropped when the tick
// commits.
func (s *SmokeCloud) Update(dt float64) {
	s.Life -= dt
}

// Covers reports whether a point is inside the cloud
func (s *SmokeCloud) Covers(x, y float64) bool {
	return DistanceSq(s.X, s.Y, x, y) <= s.Radius*s.Radius
}
