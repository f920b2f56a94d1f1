// Package database keeps a history of completed generations so finished
// lyric files survive a session reset.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"lrcforge/models"
)

type Database struct {
	db *sql.DB
}

type GenerationRecord struct {
	ID        int64     `json:"id"`
	TrackID   string    `json:"trackId"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Lrc       string    `json:"lrc"`
	LineCount int       `json:"lineCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// New opens (or creates) the history database. An empty path defaults to
// data/lrcforge.db under the working directory.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "lrcforge.db")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL keeps history reads cheap while workers write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS generations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			track_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '',
			lrc TEXT NOT NULL,
			line_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_generations_title ON generations(title, artist)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// SaveGeneration records a completed track's lyric output.
func (d *Database) SaveGeneration(t *models.Track) error {
	lineCount := strings.Count(t.LrcContent, "\n") + 1
	_, err := d.db.Exec(
		`INSERT INTO generations (track_id, filename, title, artist, lrc, line_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Filename, t.Title, t.Artist, t.LrcContent, lineCount,
	)
	if err != nil {
		return fmt.Errorf("failed to save generation: %w", err)
	}
	return nil
}

// RecentGenerations returns the newest records first.
func (d *Database) RecentGenerations(limit int) ([]GenerationRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.db.Query(
		`SELECT id, track_id, filename, title, artist, lrc, line_count, created_at
		 FROM generations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var records []GenerationRecord
	for rows.Next() {
		var r GenerationRecord
		if err := rows.Scan(&r.ID, &r.TrackID, &r.Filename, &r.Title, &r.Artist,
			&r.Lrc, &r.LineCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
