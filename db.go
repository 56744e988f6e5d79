package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

const (
	createScrapeHistoryTableSQL = `
	CREATE TABLE IF NOT EXISTS scrape_history (
		"timestamp" TEXT NOT NULL PRIMARY KEY,
		"pages_visited" INTEGER NOT NULL DEFAULT 0,
		"families_saved" INTEGER NOT NULL DEFAULT 0,
		"assets_downloaded" INTEGER NOT NULL DEFAULT 0,
		"duration_seconds" REAL NOT NULL DEFAULT 0
	);`

	createScrapeEventsTableSQL = `
	CREATE TABLE IF NOT EXISTS scrape_events (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"event_timestamp" TEXT NOT NULL,
		"event_type" TEXT NOT NULL,
		"unit_id" TEXT,
		"display_name" TEXT,
		"details" TEXT
	);`

	createFamilyChangelogTableSQL = `
	CREATE TABLE IF NOT EXISTS family_changelog (
		"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"change_time" TEXT NOT NULL,
		"unit_id" TEXT NOT NULL,
		"variant_key" TEXT NOT NULL,
		"change_type" TEXT NOT NULL
	);`
)

func initDB(filepath string) (*sql.DB, error) {
	var err error
	db, err = sql.Open("sqlite3", filepath)
	if err != nil {
		return nil, err
	}

	queries := map[string]string{
		"scrape_history":   createScrapeHistoryTableSQL,
		"scrape_events":    createScrapeEventsTableSQL,
		"family_changelog": createFamilyChangelogTableSQL,
	}
	for name, query := range queries {
		if _, err = db.Exec(query); err != nil {
			return nil, fmt.Errorf("could not create table '%s': %w", name, err)
		}
	}

	indexQueries := []string{
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp_desc ON scrape_events (event_timestamp DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_events_unit_type ON scrape_events (unit_id, event_type);`,
		`CREATE INDEX IF NOT EXISTS idx_changelog_unit_time_desc ON family_changelog (unit_id, change_time DESC);`,
	}
	for i, query := range indexQueries {
		if _, err = db.Exec(query); err != nil {
			return nil, fmt.Errorf("could not create index #%d: %w", i, err)
		}
	}

	return db, nil
}

func recordScrapeRun(db *sql.DB, pages, families, assets int, duration time.Duration) error {
	_, err := db.Exec(
		`INSERT OR REPLACE INTO scrape_history (timestamp, pages_visited, families_saved, assets_downloaded, duration_seconds) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), pages, families, assets, duration.Seconds(),
	)
	return err
}

func recordScrapeEvent(db *sql.DB, eventType, unitID, displayName, details string) error {
	_, err := db.Exec(
		`INSERT INTO scrape_events (event_timestamp, event_type, unit_id, display_name, details) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), eventType, unitID, displayName, details,
	)
	return err
}

func recordVariantChange(db *sql.DB, unitID, variantKey, changeType string) error {
	_, err := db.Exec(
		`INSERT INTO family_changelog (change_time, unit_id, variant_key, change_type) VALUES (?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), unitID, variantKey, changeType,
	)
	return err
}

// lastScrapeTime returns the most recent completed run timestamp, or the
// zero time when the history table is empty.
func lastScrapeTime(db *sql.DB) (time.Time, error) {
	var ts string
	err := db.QueryRow(`SELECT timestamp FROM scrape_history ORDER BY timestamp DESC LIMIT 1`).Scan(&ts)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, ts)
}
