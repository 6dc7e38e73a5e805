package main

// DamageTank applies damage and records a kill. Returns true if the tank died.
func (tc *TickContext) DamageTank(t *Tank, dmg float64, sourceID string) bool {
	if !t.Alive || dmg <= 0 || t.Immunity > 0 {
		return false
	}
	t.Health = Clamp(t.Health-dmg, 0, t.MaxHealth)
	t.Repairing = false
	tc.Emit(Event{Kind: EventHit, X: t.X, Y: t.Y, Subject: t.ID, Actor: sourceID, Value: dmg})
	if t.Health > 0 {
		return false
	}
	t.Alive = false
	t.Stop()
	tc.killed = append(tc.killed, t)
	tc.Emit(Event{Kind: EventKill, X: t.X, Y: t.Y, Subject: t.ID, Actor: sourceID})
	if src := tc.World.Tanks[sourceID]; src != nil && src.Alliance != t.Alliance {
		tc.World.Scores[src.Alliance]++
		if pl := tc.World.Players[src.PlayerID]; pl != nil {
			pl.Kills++
		}
	}
	if pl := tc.World.Players[t.PlayerID]; pl != nil {
		pl.Deaths++
	}
	return true
}

// Explode applies a projectile's area damage to enemy tanks and tiles
func (tc *TickContext) Explode(p *Projectile, x, y float64) {
	r := p.Def.ExplosionRadius
	if r <= 0 {
		return
	}
	for _, id := range tc.World.Index.Query(KindTank, x, y, r+TankRadius) {
		t := tc.Tank(id)
		if t == nil || t.Alliance == p.Alliance {
			continue
		}
		if CheckCollision(x, y, r, t.X, t.Y, TankRadius) {
			tc.DamageTank(t, p.Def.ExplosionDamage, p.ShooterID)
		}
	}
	min := TileAt(x-r, y-r)
	max := TileAt(x+r, y+r)
	for ty := min.Y; ty <= max.Y; ty++ {
		for tx := min.X; tx <= max.X; tx++ {
			tile := Tile{tx, ty}
			if CircleOverlapsTile(x, y, r, tile) {
				tc.DamageTile(tile, p.Def.TileDamage)
			}
		}
	}
	tc.Emit(Event{Kind: EventExplosion, X: x, Y: y, Subject: p.ID, Actor: p.ShooterID, Value: r})
}
