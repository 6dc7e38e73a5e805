package main

// GunType identifies a weapon in the catalogue
type GunType int

const (
	GunCannon GunType = iota
	GunMachineGun
	GunHoming
	GunRicochet
	GunBoomerang
	GunFlak
	GunMortar
	GunRail
	GunDrill
	GunSpiderMine
	gunTypeCount
)

// ExplodeTrigger says when a projectile detonates as an area effect
type ExplodeTrigger int

const (
	ExplodeNever ExplodeTrigger = iota
	ExplodeOnHit
	ExplodeOnExpire
)

// ProjectileDef holds the per-type physics of a shell
type ProjectileDef struct {
	Speed    float64 // units/s at spawn
	Lifetime float64 // seconds
	Radius   float64 // collision radius against tanks
	Damage   float64
	// Tile hit points removed on a terrain hit
	TileDamage int

	TrackingStrength float64 // rad/s, 0 disables homing
	TrackingRadius   float64

	Explode         ExplodeTrigger
	ExplosionRadius float64
	ExplosionDamage float64

	Damping       float64 // speed *= Damping^dt when in (0,1)
	Bounce        bool
	PassTerrain   bool
	TerrainRadius float64 // area tile damage radius while passing through terrain
	MaxCollisions int     // counted hits allowed before removal is max+1
	Returning     bool    // boomerang
	Mine          bool    // becomes a spider mine on impact
}

// GunDef describes a gun: its shell, reload and magazine
type GunDef struct {
	Name    string
	Reload  float64 // seconds between shots
	Ammo    int     // rounds granted by a pickup, -1 for unlimited
	Pellets int
	Spread  float64 // total fan angle in radians
	Shell   ProjectileDef
}

var GunDefs = [gunTypeCount]GunDef{
	GunCannon: {
		Name: "cannon", Reload: 0.8, Ammo: -1, Pellets: 1,
		Shell: ProjectileDef{Speed: 12, Lifetime: 2, Radius: 0.1, Damage: 20, TileDamage: 20},
	},
	GunMachineGun: {
		Name: "machinegun", Reload: 0.12, Ammo: 60, Pellets: 1,
		Shell: ProjectileDef{Speed: 16, Lifetime: 0.9, Radius: 0.06, Damage: 5, TileDamage: 4},
	},
	GunHoming: {
		Name: "homing", Reload: 1.2, Ammo: 6, Pellets: 1,
		Shell: ProjectileDef{
			Speed: 8, Lifetime: 3.5, Radius: 0.12, Damage: 28, TileDamage: 20,
			TrackingStrength: 2.5, TrackingRadius: 9,
		},
	},
	GunRicochet: {
		Name: "ricochet", Reload: 0.9, Ammo: 12, Pellets: 1,
		Shell: ProjectileDef{Speed: 11, Lifetime: 3, Radius: 0.1, Damage: 18, Bounce: true},
	},
	GunBoomerang: {
		Name: "boomerang", Reload: 0.5, Ammo: 1, Pellets: 1,
		Shell: ProjectileDef{
			Speed: 10, Lifetime: 2.4, Radius: 0.2, Damage: 25, TileDamage: 10,
			Returning: true, PassTerrain: true, MaxCollisions: 3,
		},
	},
	GunFlak: {
		Name: "flak", Reload: 1.5, Ammo: 8, Pellets: 1,
		Shell: ProjectileDef{
			Speed: 10, Lifetime: 0.8, Radius: 0.12, Damage: 10, TileDamage: 10,
			Explode: ExplodeOnExpire, ExplosionRadius: 2.2, ExplosionDamage: 22,
		},
	},
	GunMortar: {
		Name: "mortar", Reload: 2.2, Ammo: 5, Pellets: 1,
		Shell: ProjectileDef{
			Speed: 7, Lifetime: 2.5, Radius: 0.15, TileDamage: 30,
			Explode: ExplodeOnHit, ExplosionRadius: 1.8, ExplosionDamage: 35,
			Damping: 0.6,
		},
	},
	GunRail: {
		Name: "rail", Reload: 2.5, Ammo: 4, Pellets: 1,
		Shell: ProjectileDef{Speed: 30, Lifetime: 0.8, Radius: 0.08, Damage: 45, TileDamage: 60, MaxCollisions: 2},
	},
	GunDrill: {
		Name: "drill", Reload: 1.8, Ammo: 4, Pellets: 1,
		Shell: ProjectileDef{
			Speed: 4, Lifetime: 2.5, Radius: 0.2, Damage: 15, TileDamage: 30,
			PassTerrain: true, TerrainRadius: 0.7,
		},
	},
	GunSpiderMine: {
		Name: "spidermine", Reload: 1.5, Ammo: 3, Pellets: 1,
		Shell: ProjectileDef{Speed: 6, Lifetime: 1.2, Radius: 0.15, Mine: true},
	},
}

// GetGunDef returns the definition for a gun type
func GetGunDef(g GunType) GunDef {
	if g < 0 || g >= gunTypeCount {
		return GunDefs[GunCannon]
	}
	return GunDefs[g]
}

// MaxGuns is the number of inventory slots a tank has
const MaxGuns = 4

// Gun is one inventory slot
type Gun struct {
	Type GunType
	Ammo int // -1 for unlimited
}

// Empty reports whether the slot cannot fire
func (g Gun) Empty() bool {
	return g.Ammo == 0
}

// DefaultGuns is the loadout of a freshly spawned tank
func DefaultGuns() []Gun {
	return []Gun{{Type: GunCannon, Ammo: -1}}
}

// gunSlot returns the index of the first slot holding the gun type or -1
func gunSlot(guns []Gun, g GunType) int {
	for i := range guns {
		if guns[i].Type == g {
			return i
		}
	}
	return -1
}

// GrantGun refills the gun if the tank already carries it, otherwise adds a
// new slot when there is room. Returns false if nothing changed.
func (t *Tank) GrantGun(g GunType, ammo int) bool {
	if i := gunSlot(t.Guns, g); i >= 0 {
		if t.Guns[i].Ammo < 0 {
			return false
		}
		t.Guns[i].Ammo += ammo
		return true
	}
	if len(t.Guns) >= MaxGuns {
		return false
	}
	t.Guns = append(t.Guns, Gun{Type: g, Ammo: ammo})
	return true
}

// CanTakeGun reports whether a pickup of this gun would be used
func (t *Tank) CanTakeGun(g GunType) bool {
	if i := gunSlot(t.Guns, g); i >= 0 {
		return t.Guns[i].Ammo >= 0
	}
	return len(t.Guns) < MaxGuns
}

// SelectedGun returns the active slot or nil if the selection is invalid
func (t *Tank) SelectedGun() *Gun {
	if t.Selected < 0 || t.Selected >= len(t.Guns) {
		return nil
	}
	return &t.Guns[t.Selected]
}

// dropSlot removes an emptied slot; slot 0 is never dropped
func (t *Tank) dropSlot(i int) {
	if i <= 0 || i >= len(t.Guns) {
		return
	}
	t.Guns = append(t.Guns[:i], t.Guns[i+1:]...)
	if t.Selected >= len(t.Guns) || t.Selected == i {
		t.Selected = 0
	} else if t.Selected > i {
		t.Selected--
	}
}
