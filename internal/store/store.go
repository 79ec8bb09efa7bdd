package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/celiabustea/revu/internal/review"
	_ "modernc.org/sqlite"
)

// Store persists review history in a local sqlite database.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path TEXT NOT NULL,
			language TEXT NOT NULL,
			total_issues INTEGER NOT NULL,
			critical_count INTEGER NOT NULL,
			high_count INTEGER NOT NULL,
			summary TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_file_path ON reviews(file_path);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate db: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ReviewRecord is one row of review history.
type ReviewRecord struct {
	ID            int64
	FilePath      string
	Language      string
	TotalIssues   int
	CriticalCount int
	HighCount     int
	Summary       string
	PayloadJSON   string
	CreatedAt     time.Time
}

// SaveReview records a completed review. Severity counts are derived from
// the findings, never from the reported total.
func (s *Store) SaveReview(ctx context.Context, result review.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode review payload: %w", err)
	}
	counts := review.CountBySeverity(result.Findings)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reviews (file_path, language, total_issues, critical_count, high_count, summary, payload_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`, result.FilePath, result.Language, result.TotalIssues,
		counts[review.SeverityCritical], counts[review.SeverityHigh],
		result.Summary, string(payload))
	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

// RecentReviews lists the newest reviews first.
func (s *Store) RecentReviews(ctx context.Context, limit int) ([]ReviewRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, language, total_issues, critical_count, high_count, summary, payload_json, created_at
		FROM reviews
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read review history: %w", err)
	}
	defer rows.Close()

	var records []ReviewRecord
	for rows.Next() {
		var record ReviewRecord
		var createdAtStr string
		if err := rows.Scan(
			&record.ID,
			&record.FilePath,
			&record.Language,
			&record.TotalIssues,
			&record.CriticalCount,
			&record.HighCount,
			&record.Summary,
			&record.PayloadJSON,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("failed to read review row: %w", err)
		}
		if parsed, err := time.Parse("2006-01-02 15:04:05", createdAtStr); err == nil {
			record.CreatedAt = parsed
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// LastReview returns the newest stored review for a path.
func (s *Store) LastReview(ctx context.Context, filePath string) (review.Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT payload_json FROM reviews
		WHERE file_path = ?
		ORDER BY id DESC
		LIMIT 1
	`, filePath)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return review.Result{}, err
		}
		return review.Result{}, fmt.Errorf("failed to read last review: %w", err)
	}
	var result review.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return review.Result{}, fmt.Errorf("failed to decode stored review: %w", err)
	}
	return result, nil
}
