package main

import "fmt"

// AbilityType identifies a tank ability
type AbilityType int

const (
	AbilityNone        AbilityType = -1
	AbilityOverdrive   AbilityType = 0 // temporary speed boost
	AbilitySmokescreen AbilityType = 1 // drop a smoke cloud that breaks locks
	AbilityRepair      AbilityType = 2 // heal over time until full or hit
)

// Ability cooldowns and durations
const (
	OverdriveDuration   = 4.0
	OverdriveCooldown   = 15.0
	OverdriveMultiplier = 1.5

	SmokeCooldown = 12.0
	SmokeDuration = 8.0
	SmokeRadius   = 2.5

	RepairCooldown = 20.0
)

// ParseAbility maps a wire name to an ability
func ParseAbility(name string) (AbilityType, error) {
	switch name {
	case "overdrive":
		return AbilityOverdrive, nil
	case "smoke", "smokescreen":
		return AbilitySmokescreen, nil
	case "repair":
		return AbilityRepair, nil
	}
	return AbilityNone, fmt.Errorf("ability %q: %w", name, ErrNotFound)
}

// CanActivate returns true if the ability is off cooldown
func (t *Tank) CanActivate(a AbilityType) bool {
	switch a {
	case AbilityOverdrive:
		return t.OverdriveCD <= 0
	case AbilitySmokescreen:
		return t.SmokeCD <= 0
	case AbilityRepair:
		return t.RepairCD <= 0 && !t.Repairing
	}
	return false
}

// UseAbility activates an ability for the tank if it is ready
func (tc *TickContext) UseAbility(t *Tank, a AbilityType) bool {
	if !t.Alive || !t.CanActivate(a) {
		return false
	}
	switch a {
	case AbilityOverdrive:
		t.Overdrive = OverdriveDuration
		t.OverdriveCD = OverdriveCooldown
	case AbilitySmokescreen:
		s := NewSmokeCloud(NextEntityID("s"), t.X, t.Y, t)
		tc.World.Smokes[s.ID] = s
		tc.World.Index.Track(KindSmoke, s.ID, &s.Region, s.X, s.Y)
		t.SmokeCD = SmokeCooldown
		tc.Emit(Event{Kind: EventSmoke, X: s.X, Y: s.Y, Subject: s.ID, Actor: t.ID, Value: s.Radius})
	case AbilityRepair:
		t.Repairing = true
		t.RepairCD = RepairCooldown
	}
	tc.Emit(Event{Kind: EventAbility, X: t.X, Y: t.Y, Actor: t.ID, Value: float64(a)})
	return true
}
