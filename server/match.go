package main

import (
	"sort"
	"time"
)

// MatchConfig holds settings for a match
type MatchConfig struct {
	TimeLimit    float64 // seconds, 0 for no limit
	ScoreLimit   int     // alliance kills, 0 for no limit
	ResultsDelay time.Duration
	BotsPerTeam  int
	MaxTanks     int
}

// DefaultMatchConfig returns the settings used when config leaves them unset
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		TimeLimit:    300,
		ScoreLimit:   25,
		ResultsDelay: 10 * time.Second,
		BotsPerTeam:  3,
		MaxTanks:     64,
	}
}

// MatchResult summarises a finished round
type MatchResult struct {
	WorldID  string
	Winner   int // alliance, 0 for a draw
	Scores   map[int]int
	Duration float64
	Players  []PlayerResult
}

// PlayerResult is one row of the results screen
type PlayerResult struct {
	ID       string
	Name     string
	AI       bool
	Alliance int
	Kills    int
	Deaths   int
}

// CheckMatchEnd advances the round clock and ends the round when the time
// or score limit is hit. Returns the result when the round just ended.
func CheckMatchEnd(tc *TickContext) *MatchResult {
	w := tc.World
	if w.Phase != PhasePlaying {
		return nil
	}
	w.Elapsed += tc.DT
	timeUp := w.Config.TimeLimit > 0 && w.Elapsed >= w.Config.TimeLimit
	scoreHit := false
	if w.Config.ScoreLimit > 0 {
		for _, s := range w.Scores {
			if s >= w.Config.ScoreLimit {
				scoreHit = true
			}
		}
	}
	if !timeUp && !scoreHit {
		return nil
	}
	w.Phase = PhaseResults
	res := w.result()
	tc.Emit(Event{Kind: EventMatchEnd, Value: float64(res.Winner)})
	return res
}

func (w *World) result() *MatchResult {
	res := &MatchResult{WorldID: w.ID, Scores: make(map[int]int), Duration: w.Elapsed}
	best, tie := -1, false
	alliances := make([]int, 0, len(w.Scores))
	for a, s := range w.Scores {
		res.Scores[a] = s
		alliances = append(alliances, a)
	}
	sort.Ints(alliances)
	for _, a := range alliances {
		s := w.Scores[a]
		switch {
		case s > best:
			best, tie = s, false
			res.Winner = a
		case s == best:
			tie = true
		}
	}
	if tie {
		res.Winner = 0
	}
	for _, id := range sortedKeys(w.Players) {
		p := w.Players[id]
		res.Players = append(res.Players, PlayerResult{
			ID: p.ID, Name: p.Name, AI: p.AI, Alliance: p.Alliance, Kills: p.Kills, Deaths: p.Deaths,
		})
	}
	return res
}

// ResetMatch restores pristine terrain, clears every entity and respawns all
// players for a new round
func ResetMatch(tc *TickContext) {
	w := tc.World
	w.resetEntities(w.pristine.Clone())
	w.Phase = PhasePlaying
	w.Elapsed = 0
	for _, id := range sortedKeys(w.Players) {
		p := w.Players[id]
		p.Kills, p.Deaths = 0, 0
		p.TankID = ""
		p.Bot = BotMemory{}
		if _, err := w.spawnTank(tc, p); err != nil {
			p.RespawnT = RespawnDelay
			w.log.Warn().Err(err).Str("player", p.ID).Msg("reset spawn deferred")
		}
	}
	tc.Emit(Event{Kind: EventMatchStart})
}
