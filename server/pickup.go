package main

const (
	PickupRespawn = 20.0 // seconds before a collected pickup returns
	RepairKitHeal = 35.0
)

// PickupKind is what a pickup grants
type PickupKind int

const (
	PickupGun PickupKind = iota
	PickupRepair
)

// Pickup sits on a tile and grants a gun or a repair kit to the first tank
// that drives onto it
type Pickup struct {
	ID       string
	Tile     Tile
	Kind     PickupKind
	Gun      GunType
	Active   bool
	RespawnT float64
	Region   RegionRef
}

// pickupRotation is the gun each pickup spot offers, by spot index
var pickupRotation = []GunType{
	GunMachineGun, GunHoming, GunRicochet, GunFlak, GunMortar,
	GunRail, GunDrill, GunBoomerang, GunSpiderMine,
}

// pickupKindFor returns what the i-th pickup spot carries. Every fourth spot
// is a repair kit.
func pickupKindFor(i int) (PickupKind, GunType) {
	if i%4 == 3 {
		return PickupRepair, GunCannon
	}
	return PickupGun, pickupRotation[i%len(pickupRotation)]
}

// NewPickup creates an active pickup on a tile
func NewPickup(id string, tile Tile, kind PickupKind, gun GunType) *Pickup {
	return &Pickup{ID: id, Tile: tile, Kind: kind, Gun: gun, Active: true}
}

// Useful reports whether collecting the pickup would change the tank
func (p *Pickup) Useful(t *Tank) bool {
	if !p.Active {
		return false
	}
	if p.Kind == PickupRepair {
		return t.Health < t.MaxHealth
	}
	return t.CanTakeGun(p.Gun)
}

// Update ticks the respawn timer of a collected pickup
func (p *Pickup) Update(dt float64) bool {
	if p.Active {
		return false
	}
	p.RespawnT -= dt
	if p.RespawnT <= 0 {
		p.RespawnT = 0
		p.Active = true
		return true
	}
	return false
}

// CollectPickup applies the pickup to the tank if it is useful
func CollectPickup(tc *TickContext, t *Tank, p *Pickup) bool {
	if !p.Useful(t) {
		return false
	}
	switch p.Kind {
	case PickupRepair:
		t.Heal(RepairKitHeal)
	default:
		t.GrantGun(p.Gun, GetGunDef(p.Gun).Ammo)
	}
	p.Active = false
	p.RespawnT = PickupRespawn
	x, y := p.Tile.Center()
	tc.Emit(Event{Kind: EventPickup, X: x, Y: y, Subject: p.ID, Actor: t.ID, Value: float64(p.Gun)})
	return true
}
