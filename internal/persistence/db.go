// Package persistence stores league snapshots and the season archive in
// SQLite.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/touchline/internal/league"
	"github.com/talgya/touchline/internal/standings"
)

// ErrNoState is returned when no snapshot has been saved yet.
var ErrNoState = errors.New("no saved state")

// DefaultKeep is how many weekly snapshots are retained.
const DefaultKeep = 20

// DB wraps a SQLite connection for league persistence.
type DB struct {
	conn *sqlx.DB
	keep int
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Single writer; avoids SQLITE_BUSY between pooled connections.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, keep: DefaultKeep}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// SetKeep changes how many snapshots are retained (minimum 1).
func (db *DB) SetKeep(n int) {
	db.keep = max(1, n)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		season INTEGER NOT NULL,
		week INTEGER NOT NULL,
		saved_at TEXT NOT NULL,
		blob BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS season_records (
		season INTEGER PRIMARY KEY,
		champions_json TEXT NOT NULL,
		top_scorers_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS game_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_week ON snapshots(season, week);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveState writes a snapshot of the state, refreshes the season archive
// and prunes old snapshots, all in one transaction.
func (db *DB) SaveState(ctx context.Context, s *league.State) error {
	blob, err := s.Encode()
	if err != nil {
		return err
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshots (season, week, saved_at, blob) VALUES (?, ?, ?, ?)",
		s.Season, s.Week, time.Now().UTC().Format(time.RFC3339), blob,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	for _, rec := range s.History {
		champions, err := json.Marshal(rec.Champions)
		if err != nil {
			return fmt.Errorf("encode season %d champions: %w", rec.Season, err)
		}
		scorers, err := json.Marshal(rec.TopScorers)
		if err != nil {
			return fmt.Errorf("encode season %d top scorers: %w", rec.Season, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO season_records (season, champions_json, top_scorers_json) VALUES (?, ?, ?)",
			rec.Season, string(champions), string(scorers),
		); err != nil {
			return fmt.Errorf("insert season record %d: %w", rec.Season, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)",
		db.keep,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	for key, value := range map[string]string{
		"seed":        strconv.FormatInt(s.Seed, 10),
		"last_season": strconv.Itoa(s.Season),
		"last_week":   strconv.Itoa(s.Week),
	} {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO game_meta (key, value) VALUES (?, ?)", key, value,
		); err != nil {
			return fmt.Errorf("save meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	slog.Debug("league state saved", "season", s.Season, "week", s.Week, "bytes", len(blob))
	return nil
}

// HasState reports whether any snapshot exists.
func (db *DB) HasState(ctx context.Context) (bool, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM snapshots"); err != nil {
		return false, err
	}
	return n > 0, nil
}

// LoadLatest restores the most recent snapshot.
func (db *DB) LoadLatest(ctx context.Context) (*league.State, error) {
	var blob []byte
	err := db.conn.GetContext(ctx, &blob, "SELECT blob FROM snapshots ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return league.Decode(blob)
}

// LoadWeek restores the latest snapshot saved at a given season and week.
func (db *DB) LoadWeek(ctx context.Context, season, week int) (*league.State, error) {
	var blob []byte
	err := db.conn.GetContext(ctx, &blob,
		"SELECT blob FROM snapshots WHERE season = ? AND week = ? ORDER BY id DESC LIMIT 1", season, week)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("season %d week %d: %w", season, week, ErrNoState)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return league.Decode(blob)
}

type recordRow struct {
	Season     int    `db:"season"`
	Champions  string `db:"champions_json"`
	TopScorers string `db:"top_scorers_json"`
}

// Records returns the season archive in season order.
func (db *DB) Records(ctx context.Context) ([]league.SeasonRecord, error) {
	var rows []recordRow
	if err := db.conn.SelectContext(ctx, &rows,
		"SELECT season, champions_json, top_scorers_json FROM season_records ORDER BY season",
	); err != nil {
		return nil, fmt.Errorf("select season records: %w", err)
	}
	out := make([]league.SeasonRecord, 0, len(rows))
	for _, r := range rows {
		rec := league.SeasonRecord{Season: r.Season}
		if err := json.Unmarshal([]byte(r.Champions), &rec.Champions); err != nil {
			return nil, fmt.Errorf("season %d champions: %w", r.Season, err)
		}
		rec.TopScorers = make(map[int]standings.Scorer)
		if err := json.Unmarshal([]byte(r.TopScorers), &rec.TopScorers); err != nil {
			return nil, fmt.Errorf("season %d top scorers: %w", r.Season, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetMeta returns a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM game_meta WHERE key = ?", key)
	return value, err
}
