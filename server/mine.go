package main

import "math"

const (
	MineArmTime      = 0.6 // seconds before a fresh mine starts hunting
	MineDetectRadius = 6.0
	MineSpeed        = 2.5
	MineContactDist  = 0.6
	MineDamage       = 30.0
)

// SpiderMine crawls toward the nearest enemy and detonates on contact
type SpiderMine struct {
	ID       string
	OwnerID  string // the laying tank; the mine dies with it
	Alliance int
	X, Y     float64
	VX, VY   float64
	Planted  bool
	ArmT     float64
	TargetID string
	Dead     bool
	Region   RegionRef
}

// NewSpiderMine creates an unarmed mine owned by the laying tank
func NewSpiderMine(id string, owner *Tank, x, y float64) *SpiderMine {
	return &SpiderMine{
		ID:       id,
		OwnerID:  owner.ID,
		Alliance: owner.Alliance,
		X:        x,
		Y:        y,
		ArmT:     MineArmTime,
	}
}

// UpdateMine runs one mine tick: arm, pick a target, crawl, detonate
func UpdateMine(tc *TickContext, m *SpiderMine) {
	if m.Dead {
		return
	}
	if tc.Tank(m.OwnerID) == nil {
		m.Dead = true
		return
	}
	dt := tc.DT
	if !m.Planted {
		m.ArmT -= dt
		if m.ArmT > 0 {
			return
		}
		m.Planted = true
	}

	target := tc.Tank(m.TargetID)
	if target == nil || target.Alliance == m.Alliance {
		m.TargetID = ""
		target = tc.NearestEnemy(m.X, m.Y, MineDetectRadius, m.Alliance)
		if target != nil {
			m.TargetID = target.ID
		}
	}
	if target == nil {
		m.VX, m.VY = 0, 0
		return
	}

	if detonate(tc, m, target) {
		return
	}
	dx, dy := target.X-m.X, target.Y-m.Y
	dist := math.Hypot(dx, dy)
	step := MineSpeed * dt
	if step > dist {
		step = dist
	}
	m.VX, m.VY = dx/dist*MineSpeed, dy/dist*MineSpeed
	m.X += dx / dist * step
	m.Y += dy / dist * step
	tc.World.Index.Track(KindMine, m.ID, &m.Region, m.X, m.Y)
	detonate(tc, m, target)
}

func detonate(tc *TickContext, m *SpiderMine, target *Tank) bool {
	if Distance(m.X, m.Y, target.X, target.Y) > MineContactDist {
		return false
	}
	tc.DamageTank(target, MineDamage, m.OwnerID)
	m.Dead = true
	tc.Emit(Event{Kind: EventMineDetonated, X: m.X, Y: m.Y, Subject: m.ID, Actor: m.OwnerID})
	return true
}
