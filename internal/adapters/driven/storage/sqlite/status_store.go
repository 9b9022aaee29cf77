package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// statusKey is the index_status row holding the initialised flag.
const statusKey = "index_initialized"

// StatusStore implements driven.StatusStore on the index_status table.
type StatusStore struct {
	store *Store
}

var _ driven.StatusStore = (*StatusStore)(nil)

// GetFlag returns the stored flag, or false if it was never set.
func (s *StatusStore) GetFlag(ctx context.Context) (bool, error) {
	var value int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT value FROM index_status WHERE key = ?", statusKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading index status: %w", err)
	}
	return value == 1, nil
}

// SetFlag stores the flag.
func (s *StatusStore) SetFlag(ctx context.Context, value bool) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_status (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, statusKey, boolToInt(value))
	if err != nil {
		return fmt.Errorf("writing index status: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
