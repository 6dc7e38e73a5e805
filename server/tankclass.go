package main

import "math"

// TankClass identifies the chassis of a tank
type TankClass int

const (
	ClassMedium TankClass = 0
	ClassLight  TankClass = 1
	ClassHeavy  TankClass = 2
)

// TankClassDef holds the stats for a tank class
type TankClassDef struct {
	Name        string
	MaxHealth   float64
	TopSpeed    float64 // units/s at full throttle
	TurretSpeed float64 // rad/s
}

var TankClasses = [3]TankClassDef{
	// Medium: the all-rounder every player starts with
	{Name: "medium", MaxHealth: 100, TopSpeed: 3, TurretSpeed: math.Pi},
	// Light: quick chassis, quick turret, thin armour
	{Name: "light", MaxHealth: 70, TopSpeed: 4.2, TurretSpeed: 4.5},
	// Heavy: slow, but takes a beating
	{Name: "heavy", MaxHealth: 160, TopSpeed: 2.2, TurretSpeed: 2.2},
}

// GetClassDef returns the definition for a tank class
func GetClassDef(class TankClass) TankClassDef {
	if class < 0 || int(class) >= len(TankClasses) {
		return TankClasses[ClassMedium]
	}
	return TankClasses[class]
}
