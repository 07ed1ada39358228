// Package queue implements the durable offline operation queue. Writes that
// fail due to connectivity are appended here and replayed later in strict
// arrival order once connectivity returns.
package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/safebite/safebite/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrApplyFailed wraps the first failure during a drain. The drain halts at
// that operation and resumes from it on the next connectivity event.
var ErrApplyFailed = errors.New("queued operation apply failed")

// Queue is a SQLite-backed FIFO of deferred writes. Enqueue and dequeue are
// serialized by an internal lock; the slow work of applying an operation
// happens outside it, so a background drain can overlap a scan enqueueing
// further operations.
type Queue struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// Open opens (creating if needed) the queue database at dbPath.
func Open(dbPath string, logger *slog.Logger) (*Queue, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("queue database path is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create queue directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping queue database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS operations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		enqueued_at DATETIME NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("failed to create operations table: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{db: db, logger: logger}, nil
}

// Close closes the queue database.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Enqueue appends an operation. The payload is stored as JSON; the returned
// operation carries the monotonic id the queue assigned.
func (q *Queue) Enqueue(ctx context.Context, kind model.OperationKind, payload any) (model.QueuedOperation, error) {
	if _, err := model.ParseOperationKind(string(kind)); err != nil {
		return model.QueuedOperation{}, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return model.QueuedOperation{}, fmt.Errorf("failed to encode operation payload: %w", err)
	}

	now := time.Now().UTC()

	q.mu.Lock()
	defer q.mu.Unlock()

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO operations (kind, payload, enqueued_at) VALUES (?, ?, ?)`,
		string(kind), string(body), now)
	if err != nil {
		return model.QueuedOperation{}, fmt.Errorf("failed to enqueue operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.QueuedOperation{}, fmt.Errorf("failed to read operation id: %w", err)
	}

	q.logger.Debug("operation enqueued", "id", id, "kind", kind)

	return model.QueuedOperation{
		ID:         id,
		Kind:       kind,
		Payload:    body,
		EnqueuedAt: now,
	}, nil
}

// Len returns the number of pending operations.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count operations: %w", err)
	}
	return n, nil
}

// DrainInOrder replays pending operations oldest-first. Each operation is
// deleted only after apply succeeds; the first failure halts the drain so
// ordering is preserved, and the failing operation stays at the head for the
// next drain. Returns how many operations were applied.
func (q *Queue) DrainInOrder(ctx context.Context, apply func(context.Context, model.QueuedOperation) error) (int, error) {
	applied := 0
	for {
		if err := ctx.Err(); err != nil {
			return applied, err
		}

		op, ok, err := q.peek(ctx)
		if err != nil {
			return applied, err
		}
		if !ok {
			return applied, nil
		}

		// Apply outside the queue lock; only the ordering structure
		// needs mutual exclusion with enqueue.
		if err := apply(ctx, op); err != nil {
			q.logger.Warn("drain halted", "id", op.ID, "kind", op.Kind, "applied", applied, "error", err)
			return applied, fmt.Errorf("%w: operation %d (%s): %v", ErrApplyFailed, op.ID, op.Kind, err)
		}

		if err := q.remove(ctx, op.ID); err != nil {
			return applied, err
		}
		applied++
		q.logger.Debug("operation replayed", "id", op.ID, "kind", op.Kind)
	}
}

func (q *Queue) peek(ctx context.Context) (model.QueuedOperation, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var (
		op         model.QueuedOperation
		kind       string
		payload    string
		enqueuedAt time.Time
	)
	err := q.db.QueryRowContext(ctx,
		`SELECT id, kind, payload, enqueued_at FROM operations ORDER BY id ASC LIMIT 1`,
	).Scan(&op.ID, &kind, &payload, &enqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QueuedOperation{}, false, nil
	}
	if err != nil {
		return model.QueuedOperation{}, false, fmt.Errorf("failed to read queue head: %w", err)
	}

	parsedKind, err := model.ParseOperationKind(kind)
	if err != nil {
		return model.QueuedOperation{}, false, fmt.Errorf("queue row %d: %w", op.ID, err)
	}

	op.Kind = parsedKind
	op.Payload = json.RawMessage(payload)
	op.EnqueuedAt = enqueuedAt
	return op, true, nil
}

func (q *Queue) remove(ctx context.Context, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove applied operation %d: %w", id, err)
	}
	return nil
}
