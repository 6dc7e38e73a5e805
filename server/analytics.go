package main

import (
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	analyticsQueueSize = 1024
	analyticsBatchSize = 50
	analyticsFlushTick = 5 * time.Second

	// matches what datetime('now') produces so range filters compare as text
	sqliteTimeLayout = "2006-01-02 15:04:05"
)

// trackedKinds are the tick events worth keeping in the combat log
var trackedKinds = map[EventKind]bool{
	EventHit:           true,
	EventKill:          true,
	EventExplosion:     true,
	EventCatch:         true,
	EventMineDetonated: true,
	EventPickup:        true,
	EventAbility:       true,
}

// CombatEvent is one row of the combat log
type CombatEvent struct {
	Type      EventKind
	WorldID   string
	Actor     string
	Subject   string
	Value     float64
	Timestamp time.Time
}

// Analytics handles combat event tracking with batched background writes.
// Finished rounds go through the same writer.
type Analytics struct {
	db      *DB
	metrics *Metrics
	log     zerolog.Logger
	events  chan CombatEvent
	matches chan *MatchResult
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB, metrics *Metrics) *Analytics {
	a := &Analytics{
		db:      db,
		metrics: metrics,
		log:     Logger.With().Str("component", "analytics").Logger(),
		events:  make(chan CombatEvent, analyticsQueueSize),
		matches: make(chan *MatchResult, 16),
		stop:    make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// TrackEvents enqueues the combat events of a tick batch (non-blocking).
// Events that don't fit are dropped and counted.
func (a *Analytics) TrackEvents(worldID string, events []Event) {
	now := time.Now().UTC()
	dropped := 0
	for _, e := range events {
		if !trackedKinds[e.Kind] {
			continue
		}
		select {
		case a.events <- CombatEvent{
			Type:      e.Kind,
			WorldID:   worldID,
			Actor:     e.Actor,
			Subject:   e.Subject,
			Value:     e.Value,
			Timestamp: now,
		}:
		default:
			dropped++
		}
	}
	a.metrics.RecordDropped("analytics", dropped)
}

// TrackMatch enqueues a finished round (non-blocking)
func (a *Analytics) TrackMatch(res *MatchResult) {
	select {
	case a.matches <- res:
	default:
		a.metrics.RecordDropped("matches", 1)
		a.log.Warn().Str("world", res.WorldID).Msg("match result dropped")
	}
}

// Stop flushes pending events and shuts down the writer. Safe to call twice.
func (a *Analytics) Stop() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]CombatEvent, 0, 64)
	ticker := time.NewTicker(analyticsFlushTick)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case res := <-a.matches:
			a.recordMatch(res)
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain whatever is still queued
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				case res := <-a.matches:
					a.recordMatch(res)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

func (a *Analytics) recordMatch(res *MatchResult) {
	if a.db == nil {
		return
	}
	id, err := a.db.RecordMatch(res)
	if err != nil {
		a.log.Error().Err(err).Str("world", res.WorldID).Msg("record match")
		return
	}
	a.log.Debug().Int64("match", id).Int("players", len(res.Players)).Msg("match recorded")
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []CombatEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		a.log.Error().Err(err).Msg("begin tx")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO combat_events (event_type, world_id, actor, subject, value, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		a.log.Error().Err(err).Msg("prepare insert")
		return
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(string(e.Type), e.WorldID, e.Actor, e.Subject, e.Value, e.Timestamp.Format(sqliteTimeLayout)); err != nil {
			a.log.Error().Err(err).Msg("insert event")
		}
	}
	if err := tx.Commit(); err != nil {
		a.log.Error().Err(err).Msg("commit events")
	}
}

// --- Query methods ---

// EventCounts returns event counts by type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM combat_events
		WHERE created_at >= datetime('now', ?)
		GROUP BY event_type`,
		daysAgo(days),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		result[t] = n
	}
	return result, rows.Err()
}

// KillerRow is one line of the kill leaderboard
type KillerRow struct {
	Name  string `json:"name"`
	Kills int    `json:"kills"`
}

// TopKillers returns the players with the most recorded round kills
func (a *Analytics) TopKillers(limit int) ([]KillerRow, error) {
	rows, err := a.db.conn.Query(`
		SELECT name, SUM(kills) AS k FROM match_players
		GROUP BY name ORDER BY k DESC, name LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []KillerRow
	for rows.Next() {
		var r KillerRow
		if err := rows.Scan(&r.Name, &r.Kills); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func daysAgo(days int) string {
	if days <= 0 {
		days = 1
	}
	return "-" + strconv.Itoa(days) + " days"
}
