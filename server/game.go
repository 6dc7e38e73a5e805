package main

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Broadcaster sends messages to one connected client
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// MotionStep moves every tank, resolves tile effects and fires requested
// shots. Smoke clouds age here too.
func MotionStep(tc *TickContext) {
	w := tc.World
	if w.Phase != PhasePlaying {
		return
	}
	for _, id := range sortedKeys(w.Tanks) {
		UpdateTank(tc, w.Tanks[id])
	}
	for _, id := range sortedKeys(w.Smokes) {
		w.Smokes[id].Update(tc.DT)
	}
}

// ProjectileStep advances every shell in flight
func ProjectileStep(tc *TickContext) {
	w := tc.World
	if w.Phase != PhasePlaying {
		return
	}
	for _, id := range sortedKeys(w.Projectiles) {
		UpdateProjectile(tc, w.Projectiles[id])
	}
}

// MineStep runs every spider mine
func MineStep(tc *TickContext) {
	w := tc.World
	if w.Phase != PhasePlaying {
		return
	}
	for _, id := range sortedKeys(w.Mines) {
		UpdateMine(tc, w.Mines[id])
	}
}

// AIStep plans for every bot tank
func AIStep(tc *TickContext) {
	w := tc.World
	if w.Phase != PhasePlaying {
		return
	}
	for _, id := range sortedKeys(w.Tanks) {
		if t := w.Tanks[id]; t.AI {
			PlanBot(tc, t)
		}
	}
}

// CleanupStep respawns players and pickups and checks the round limits.
// Returns the result when the round just ended.
func CleanupStep(tc *TickContext) *MatchResult {
	w := tc.World
	if w.Phase != PhasePlaying {
		return nil
	}
	for _, id := range sortedKeys(w.Pickups) {
		p := w.Pickups[id]
		if p.Update(tc.DT) {
			x, y := p.Tile.Center()
			tc.Emit(Event{Kind: EventPickup, X: x, Y: y, Subject: p.ID, Value: -1})
		}
	}
	RespawnPlayers(tc)
	return CheckMatchEnd(tc)
}

func (s *Session) motionTick(now time.Time, delta time.Duration) error {
	err := s.World.Transact(now, delta.Seconds(), func(tc *TickContext) error {
		MotionStep(tc)
		return nil
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.motionTicks++
	send := s.broadcastEvery <= 1 || s.motionTicks%uint64(s.broadcastEvery) == 0
	s.mu.Unlock()
	if send {
		s.broadcastState()
	}
	return nil
}

func (s *Session) projectileTick(now time.Time, delta time.Duration) error {
	return s.World.Transact(now, delta.Seconds(), func(tc *TickContext) error {
		ProjectileStep(tc)
		return nil
	})
}

func (s *Session) mineTick(now time.Time, delta time.Duration) error {
	return s.World.Transact(now, delta.Seconds(), func(tc *TickContext) error {
		MineStep(tc)
		return nil
	})
}

func (s *Session) aiTick(now time.Time, delta time.Duration) error {
	return s.World.Transact(now, delta.Seconds(), func(tc *TickContext) error {
		AIStep(tc)
		return nil
	})
}

func (s *Session) cleanupTick(now time.Time, delta time.Duration) error {
	var result *MatchResult
	err := s.World.Transact(now, delta.Seconds(), func(tc *TickContext) error {
		result = CleanupStep(tc)
		return nil
	})
	if err != nil {
		return err
	}
	if result != nil {
		s.endRound(now, result)
	}
	return nil
}

// endRound records the result and schedules the reset one-shot
func (s *Session) endRound(now time.Time, result *MatchResult) {
	s.log.Info().
		Int("winner", result.Winner).
		Float64("duration", result.Duration).
		Msg("round ended")
	if s.analytics != nil {
		s.analytics.TrackMatch(result)
	}
	s.broadcastJSON(Envelope{T: MsgResults, Data: result})
	delay := s.World.Config.ResultsDelay
	s.sched.At(s.ID, JobReset, now.Add(delay), s.resetTick)
}

func (s *Session) resetTick(now time.Time, delta time.Duration) error {
	err := s.World.Transact(now, delta.Seconds(), func(tc *TickContext) error {
		ResetMatch(tc)
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Msg("round reset")
	s.broadcastTerrain()
	return nil
}

func (s *Session) persistTick(now time.Time, delta time.Duration) error {
	if s.persister == nil {
		return nil
	}
	var records []EntityRecord
	var err error
	s.World.View(func() {
		records, err = SnapshotRecords(s.World)
	})
	if err != nil {
		return err
	}
	s.persister.Submit(s.ID, records)
	return nil
}

// broadcastState sends the current world state to all clients
func (s *Session) broadcastState() {
	events, edits := s.World.DrainEvents()
	if s.analytics != nil {
		s.analytics.TrackEvents(s.ID, events)
	}

	var state GameState
	s.World.View(func() {
		state = BuildState(s.World)
	})
	state.Events = events
	for _, e := range edits {
		state.Tiles = append(state.Tiles, TileState{X: e.Tile.X, Y: e.Tile.Y, HP: s.tileHP(e)})
	}

	data, err := msgpack.Marshal(&state)
	if err != nil {
		s.log.Error().Err(err).Msg("encode state")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.SendBinary(data)
	}
}

func (s *Session) tileHP(e TileEdit) int {
	if e.Destroyed {
		return 0
	}
	var hp int
	s.World.View(func() {
		hp = s.World.Terrain.TileHP(e.Tile)
	})
	return hp
}

// broadcastTerrain sends the full terrain after a reset
func (s *Session) broadcastTerrain() {
	var msg TerrainMsg
	s.World.View(func() {
		msg = BuildTerrain(s.World)
	})
	s.broadcastJSON(Envelope{T: MsgTerrain, Data: msg})
}

// broadcastJSON sends a control message to all clients
func (s *Session) broadcastJSON(msg Envelope) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		c.SendJSON(msg)
	}
}
