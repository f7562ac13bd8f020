package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

// AddMessages appends messages to their conversations.
func (d *DB) AddMessages(ctx context.Context, msgs ...models.Message) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add messages: %w", err)
	}

	const q = `INSERT INTO chat_messages (id, session_id, text, from_user, created_at)
		VALUES (:id, :session_id, :text, :from_user, :created_at)`
	for _, m := range msgs {
		m.CreatedAt = m.CreatedAt.UTC()
		if _, err := tx.NamedExecContext(ctx, q, m); err != nil {
			tx.Rollback()
			return fmt.Errorf("add message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// Messages returns the most recent messages of a session in
// chronological order. A limit of zero returns the whole conversation.
func (d *DB) Messages(ctx context.Context, session string, limit int) ([]models.Message, error) {
	msgs := []models.Message{}

	q := `SELECT id, session_id, text, from_user, created_at FROM chat_messages
		WHERE session_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{session}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	if err := d.db.SelectContext(ctx, &msgs, q, args...); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}
