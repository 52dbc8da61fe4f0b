package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"radar/internal/core"
)

// SQLiteStore is the durable dedup store backed by a SQLite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the dedup database under dataDir.
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "radar.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, path: dbPath}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

// initialize creates the alerted_events table.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS alerted_events (
		fingerprint TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		company_name TEXT NOT NULL,
		category TEXT NOT NULL,
		source_url TEXT,
		first_seen_at DATETIME NOT NULL,
		alerted_at DATETIME
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create alerted_events table: %w", err)
	}
	return nil
}

// HasAlerted reports whether the fingerprint has a record with a delivery
// timestamp.
func (s *SQLiteStore) HasAlerted(fingerprint string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		"SELECT COUNT(1) FROM alerted_events WHERE fingerprint = ? AND alerted_at IS NOT NULL",
		fingerprint,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query fingerprint: %w", err)
	}
	return n > 0, nil
}

// MarkAlerted inserts the record if the fingerprint is new. INSERT OR IGNORE
// makes the first writer win, which is the compare-and-set that keeps
// parallel company fetches from double-alerting one fingerprint.
func (s *SQLiteStore) MarkAlerted(record core.DedupRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.FirstSeenAt.IsZero() {
		record.FirstSeenAt = time.Now().UTC()
	}
	alertedAt := record.AlertedAt
	if alertedAt == nil {
		now := time.Now().UTC()
		alertedAt = &now
	}

	result, err := s.db.Exec(`
		INSERT OR IGNORE INTO alerted_events
		(fingerprint, id, company_name, category, source_url, first_seen_at, alerted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.Fingerprint, record.ID, record.CompanyName, string(record.Category),
		record.SourceURL, record.FirstSeenAt, alertedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert dedup record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// Record returns the stored record for a fingerprint, or nil when unseen.
func (s *SQLiteStore) Record(fingerprint string) (*core.DedupRecord, error) {
	row := s.db.QueryRow(`
		SELECT fingerprint, id, company_name, category, source_url, first_seen_at, alerted_at
		FROM alerted_events WHERE fingerprint = ?`, fingerprint)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dedup record: %w", err)
	}
	return record, nil
}

// List returns up to limit records, most recently alerted first.
func (s *SQLiteStore) List(limit int) ([]core.DedupRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT fingerprint, id, company_name, category, source_url, first_seen_at, alerted_at
		FROM alerted_events ORDER BY alerted_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dedup records: %w", err)
	}
	defer rows.Close()

	var records []core.DedupRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dedup record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating dedup records: %w", err)
	}
	return records, nil
}

// Stats summarizes the record set.
func (s *SQLiteStore) Stats() (Stats, error) {
	stats := Stats{ByCategory: make(map[string]int)}

	rows, err := s.db.Query("SELECT category, COUNT(1) FROM alerted_events GROUP BY category")
	if err != nil {
		return stats, fmt.Errorf("failed to query dedup stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return stats, fmt.Errorf("failed to scan dedup stats: %w", err)
		}
		stats.ByCategory[category] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("failed iterating dedup stats: %w", err)
	}
	return stats, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*core.DedupRecord, error) {
	var record core.DedupRecord
	var category string
	var sourceURL sql.NullString
	var alertedAt sql.NullTime

	err := row.Scan(&record.Fingerprint, &record.ID, &record.CompanyName,
		&category, &sourceURL, &record.FirstSeenAt, &alertedAt)
	if err != nil {
		return nil, err
	}
	record.Category = core.EventCategory(category)
	record.SourceURL = sourceURL.String
	if alertedAt.Valid {
		t := alertedAt.Time
		record.AlertedAt = &t
	}
	return &record, nil
}
