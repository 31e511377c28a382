package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/todoflow/internal/repository"
)

// SlotRepository implements task.Slot for SQLite
type SlotRepository struct {
	db  *DB
	now func() time.Time
}

// NewSlotRepository creates a new SlotRepository
func NewSlotRepository(db *DB) *SlotRepository {
	return &SlotRepository{db: db, now: time.Now}
}

// Get returns the value stored under key
func (r *SlotRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM slots WHERE key = ?`

	var value []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get slot %s: %w", key, err)
	}

	return value, nil
}

// Put replaces the value stored under key
func (r *SlotRepository) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return repository.ErrInvalidInput
	}

	query := `
		INSERT INTO slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, value, r.now()); err != nil {
		return fmt.Errorf("failed to put slot %s: %w", key, err)
	}

	return nil
}
