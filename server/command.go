package main

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxPathPoints bounds a single path command
const MaxPathPoints = 64

// Command ops
const (
	CmdPath    = "path"
	CmdAppend  = "append"
	CmdStop    = "stop"
	CmdAim     = "aim"
	CmdTarget  = "target"
	CmdFire    = "fire"
	CmdGun     = "gun"
	CmdAbility = "ability"
)

// Command is a player intent. Only the fields of its op are read.
type Command struct {
	Op      string      `json:"op"`
	Points  []PathPoint `json:"pts,omitempty"`
	Angle   float64     `json:"a,omitempty"`
	Target  string      `json:"tg,omitempty"` // target code or tank name, "" clears the lock
	Lead    float64     `json:"lead,omitempty"`
	Slot    int         `json:"slot,omitempty"`
	Ability string      `json:"ab,omitempty"`
}

// Apply validates a command and writes it onto the player's tank. The
// motion tick consumes it. Commands against a dead tank fail with
// ErrInvalidState and change nothing.
func (w *World) Apply(playerID string, cmd Command) error {
	return w.Transact(time.Now(), 0, func(tc *TickContext) error {
		t, err := w.PlayerTank(playerID)
		if err != nil {
			return err
		}
		return applyCommand(tc, t, cmd)
	})
}

func applyCommand(tc *TickContext, t *Tank, cmd Command) error {
	switch cmd.Op {
	case CmdPath, CmdAppend:
		if err := validatePath(tc.World, cmd.Points); err != nil {
			return err
		}
		if cmd.Op == CmdPath {
			t.SetPath(cmd.Points)
		} else {
			if len(t.Path)+len(cmd.Points) > MaxPathPoints {
				return fmt.Errorf("path of %d points: %w", len(t.Path)+len(cmd.Points), ErrInvalidState)
			}
			t.Path = append(t.Path, cmd.Points...)
		}
	case CmdStop:
		t.Stop()
	case CmdAim:
		if math.IsNaN(cmd.Angle) || math.IsInf(cmd.Angle, 0) {
			return fmt.Errorf("aim angle: %w", ErrInvalidState)
		}
		t.TargetID = ""
		t.TargetTurretRotation = NormalizeAngle(cmd.Angle)
	case CmdTarget:
		return lockTarget(tc.World, t, cmd.Target, cmd.Lead)
	case CmdFire:
		g := t.SelectedGun()
		if g == nil || g.Empty() {
			return fmt.Errorf("fire slot %d: %w", t.Selected, ErrInvalidState)
		}
		t.FireRequested = true
	case CmdGun:
		if cmd.Slot < 0 || cmd.Slot >= len(t.Guns) {
			return fmt.Errorf("gun slot %d: %w", cmd.Slot, ErrInvalidState)
		}
		t.Selected = cmd.Slot
	case CmdAbility:
		a, err := ParseAbility(cmd.Ability)
		if err != nil {
			return err
		}
		if !t.CanActivate(a) {
			return fmt.Errorf("ability %s on cooldown: %w", cmd.Ability, ErrInvalidState)
		}
		t.PendingAbility = a
	default:
		return fmt.Errorf("command %q: %w", cmd.Op, ErrNotFound)
	}
	return nil
}

func validatePath(w *World, pts []PathPoint) error {
	if len(pts) == 0 || len(pts) > MaxPathPoints {
		return fmt.Errorf("path of %d points: %w", len(pts), ErrInvalidState)
	}
	maxX, maxY := float64(w.Terrain.Width), float64(w.Terrain.Height)
	for i, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || p.X < 0 || p.Y < 0 || p.X > maxX || p.Y > maxY {
			return fmt.Errorf("waypoint %d out of bounds: %w", i, ErrInvalidState)
		}
		if p.Throttle < 0 || p.Throttle > 100 {
			return fmt.Errorf("waypoint %d throttle %v: %w", i, p.Throttle, ErrInvalidState)
		}
	}
	return nil
}

// lockTarget resolves a code or tank name to an enemy tank id
func lockTarget(w *World, t *Tank, ref string, lead float64) error {
	if ref == "" {
		t.TargetID = ""
		return nil
	}
	target := w.TankByCode(strings.ToUpper(ref))
	if target == nil {
		for _, id := range sortedKeys(w.Tanks) {
			if c := w.Tanks[id]; c.Alive && strings.EqualFold(c.Name, ref) {
				target = c
				break
			}
		}
	}
	if target == nil || !target.Alive {
		return fmt.Errorf("target %q: %w", ref, ErrNotFound)
	}
	if target.Alliance == t.Alliance {
		return fmt.Errorf("target %q is an ally: %w", ref, ErrInvalidState)
	}
	t.TargetID = target.ID
	t.TargetLead = Clamp(lead, 0, MaxTargetRange)
	return nil
}
