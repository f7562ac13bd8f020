package storage

import (
	"context"
	"fmt"
	"time"
)

type preferenceRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Preferences returns every stored preference of a user as key/value
// pairs. A user who never saved anything gets an empty map.
func (d *DB) Preferences(ctx context.Context, userID string) (map[string]string, error) {
	rows := []preferenceRow{}
	const q = `SELECT key, value FROM preferences WHERE user_id = ?`
	if err := d.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("select preferences: %w", err)
	}

	prefs := make(map[string]string, len(rows))
	for _, r := range rows {
		prefs[r.Key] = r.Value
	}
	return prefs, nil
}

// SetPreferences stores the given keys for a user in one transaction,
// replacing earlier values.
func (d *DB) SetPreferences(ctx context.Context, userID string, values map[string]string) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}

	const q = `INSERT INTO preferences (user_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	now := time.Now().UTC()
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, q, userID, key, value, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("set preference %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// SetPreference stores a single key for a user.
func (d *DB) SetPreference(ctx context.Context, userID, key, value string) error {
	return d.SetPreferences(ctx, userID, map[string]string{key: value})
}
