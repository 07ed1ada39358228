// Package storage implements the SQLite-backed scan history and profile
// store. It is the downstream store the offline queue replays into, so every
// write is an idempotent upsert by natural key.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/safebite/safebite/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrProfileNotFound is returned when no profile exists for the given id.
var ErrProfileNotFound = errors.New("profile not found")

// SQLiteStore persists user profiles and scan history.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the store at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Available probes the store. The orchestrator uses this to decide between
// writing directly and enqueueing the write for later replay.
func (s *SQLiteStore) Available(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

// SaveProfile upserts a profile by id. Replay-safe: re-applying the same
// profile is a no-op beyond refreshing updated_at.
func (s *SQLiteStore) SaveProfile(ctx context.Context, profile model.UserProfile) error {
	if profile.ID == "" {
		return fmt.Errorf("profile id is required")
	}

	restrictions, err := json.Marshal(profile.Restrictions)
	if err != nil {
		return fmt.Errorf("failed to encode restrictions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, restrictions, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			restrictions = excluded.restrictions,
			updated_at = excluded.updated_at`,
		profile.ID, string(restrictions), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile loads a profile by id.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (model.UserProfile, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT restrictions FROM profiles WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}

	profile := model.UserProfile{ID: id}
	if err := json.Unmarshal([]byte(raw), &profile.Restrictions); err != nil {
		return model.UserProfile{}, fmt.Errorf("failed to decode restrictions for %s: %w", id, err)
	}
	return profile, nil
}

// SaveScanHistory upserts one scan record by id.
func (s *SQLiteStore) SaveScanHistory(ctx context.Context, record model.ScanRecord) error {
	if record.ID == "" {
		return fmt.Errorf("scan record id is required")
	}

	analysis, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_history (id, profile_id, barcode, product_name, analysis, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			profile_id = excluded.profile_id,
			barcode = excluded.barcode,
			product_name = excluded.product_name,
			analysis = excluded.analysis,
			scanned_at = excluded.scanned_at`,
		record.ID, record.ProfileID, record.Barcode, record.Product, string(analysis), record.ScannedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	return nil
}

// ListScanHistory returns up to limit scans for a profile, newest first.
func (s *SQLiteStore) ListScanHistory(ctx context.Context, profileID string, limit int) ([]model.ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, barcode, product_name, analysis, scanned_at
		FROM scan_history
		WHERE profile_id = ?
		ORDER BY scanned_at DESC, id DESC
		LIMIT ?`, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.ScanRecord
	for rows.Next() {
		var (
			record   model.ScanRecord
			analysis string
		)
		if err := rows.Scan(&record.ID, &record.ProfileID, &record.Barcode, &record.Product, &analysis, &record.ScannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(analysis), &record.Analysis); err != nil {
			return nil, fmt.Errorf("failed to decode analysis for scan %s: %w", record.ID, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan history: %w", err)
	}
	return records, nil
}
