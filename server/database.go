package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// MatchRow represents a completed round
type MatchRow struct {
	ID        int64
	WorldID   string
	Winner    int
	Duration  float64
	CreatedAt time.Time
}

// MatchPlayerRow represents a player's line in a finished round
type MatchPlayerRow struct {
	MatchID  int64
	PlayerID string
	Name     string
	AI       bool
	Alliance int
	Kills    int
	Deaths   int
}

// EntityRecord is one persisted entity, keyed by world, kind and id, and
// indexed by region so region scans stay cheap
type EntityRecord struct {
	WorldID string
	Kind    EntityKind
	ID      string
	Region  RegionKey
	Data    []byte // msgpack-encoded entity state
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		world_id TEXT NOT NULL,
		winner INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		player_id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		ai INTEGER NOT NULL DEFAULT 0,
		alliance INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, player_id)
	);

	CREATE TABLE IF NOT EXISTS entity_records (
		world_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		region_x INTEGER NOT NULL,
		region_y INTEGER NOT NULL,
		data BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (world_id, kind, id)
	);

	CREATE TABLE IF NOT EXISTS combat_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		world_id TEXT,
		actor TEXT,
		subject TEXT,
		value REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entity_records_world ON entity_records(world_id);
	CREATE INDEX IF NOT EXISTS idx_entity_records_region ON entity_records(world_id, region_x, region_y);
	CREATE INDEX IF NOT EXISTS idx_match_players_player ON match_players(player_id);
	CREATE INDEX IF NOT EXISTS idx_combat_events_type ON combat_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		Logger.Error().Err(err).Msg("db migration failed")
	}
	return err
}

// GetSetting returns a stored setting or "" when missing
func (db *DB) GetSetting(key string) (string, error) {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetSetting stores a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// RecordMatch records a finished round and its players in one transaction
func (db *DB) RecordMatch(res *MatchResult) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	r, err := tx.Exec(
		"INSERT INTO matches (world_id, winner, duration) VALUES (?, ?, ?)",
		res.WorldID, res.Winner, res.Duration,
	)
	if err != nil {
		return 0, err
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, p := range res.Players {
		_, err := tx.Exec(
			`INSERT INTO match_players (match_id, player_id, name, ai, alliance, kills, deaths)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, p.ID, p.Name, p.AI, p.Alliance, p.Kills, p.Deaths,
		)
		if err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

// GetMatchPlayers returns the player lines of a round
func (db *DB) GetMatchPlayers(matchID int64) ([]MatchPlayerRow, error) {
	rows, err := db.conn.Query(`
		SELECT match_id, player_id, name, ai, alliance, kills, deaths
		FROM match_players WHERE match_id = ?
		ORDER BY kills DESC, player_id`,
		matchID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchPlayerRow
	for rows.Next() {
		var r MatchPlayerRow
		if err := rows.Scan(&r.MatchID, &r.PlayerID, &r.Name, &r.AI, &r.Alliance, &r.Kills, &r.Deaths); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// RecentMatches returns the latest rounds of a world
func (db *DB) RecentMatches(worldID string, limit int) ([]MatchRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, world_id, winner, duration, created_at FROM matches
		WHERE world_id = ? ORDER BY id DESC LIMIT ?`,
		worldID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []MatchRow
	for rows.Next() {
		var r MatchRow
		if err := rows.Scan(&r.ID, &r.WorldID, &r.Winner, &r.Duration, &r.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// ReplaceWorldRecords swaps the stored entities of a world for a new
// snapshot in one transaction
func (db *DB) ReplaceWorldRecords(worldID string, records []EntityRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entity_records WHERE world_id = ?", worldID); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO entity_records (world_id, kind, id, region_x, region_y, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range records {
		if _, err := stmt.Exec(worldID, r.Kind.String(), r.ID, r.Region.X, r.Region.Y, r.Data); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteWorldRecords drops every stored entity of a world
func (db *DB) DeleteWorldRecords(worldID string) error {
	_, err := db.conn.Exec("DELETE FROM entity_records WHERE world_id = ?", worldID)
	return err
}

// RecordsInRegion returns the stored entities of a world in one region
func (db *DB) RecordsInRegion(worldID string, key RegionKey) ([]EntityRecord, error) {
	return db.queryRecords(`
		SELECT world_id, kind, id, region_x, region_y, data FROM entity_records
		WHERE world_id = ? AND region_x = ? AND region_y = ?
		ORDER BY kind, id`,
		worldID, key.X, key.Y,
	)
}

// WorldRecords returns every stored entity of a world
func (db *DB) WorldRecords(worldID string) ([]EntityRecord, error) {
	return db.queryRecords(`
		SELECT world_id, kind, id, region_x, region_y, data FROM entity_records
		WHERE world_id = ? ORDER BY kind, id`,
		worldID,
	)
}

func (db *DB) queryRecords(query string, args ...any) ([]EntityRecord, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EntityRecord
	for rows.Next() {
		var r EntityRecord
		var kind string
		if err := rows.Scan(&r.WorldID, &kind, &r.ID, &r.Region.X, &r.Region.Y, &r.Data); err != nil {
			return nil, err
		}
		if len(kind) > 0 {
			r.Kind = EntityKind(kind[0])
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
