package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

type noticeRow struct {
	models.Notice
	Dated bool `db:"dated"`
}

// UpsertNotices inserts notices or refreshes the ones already stored
// under the same id. A notice without a publication date is stamped
// with the current time on insert and keeps its stored date on refresh.
func (d *DB) UpsertNotices(ctx context.Context, notices []models.Notice) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert notices: %w", err)
	}

	const q = `INSERT INTO notices (id, title, content, detailed_info, link, published_at)
		VALUES (:id, :title, :content, :detailed_info, :link, :published_at)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			detailed_info = excluded.detailed_info,
			link = excluded.link,
			published_at = CASE WHEN :dated THEN excluded.published_at ELSE notices.published_at END`

	now := time.Now().UTC()
	for _, n := range notices {
		row := noticeRow{Notice: n, Dated: !n.PublishedAt.IsZero()}
		if row.Dated {
			row.PublishedAt = n.PublishedAt.UTC()
		} else {
			row.PublishedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, q, row); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert notice %s: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

// Notices returns every notice, newest first.
func (d *DB) Notices(ctx context.Context) ([]models.Notice, error) {
	notices := []models.Notice{}
	const q = `SELECT id, title, content, detailed_info, link, published_at
		FROM notices ORDER BY published_at DESC, id`
	if err := d.db.SelectContext(ctx, &notices, q); err != nil {
		return nil, fmt.Errorf("select notices: %w", err)
	}
	return notices, nil
}

func (d *DB) Notice(ctx context.Context, id string) (*models.Notice, error) {
	var n models.Notice
	const q = `SELECT id, title, content, detailed_info, link, published_at
		FROM notices WHERE id = ?`
	if err := d.db.GetContext(ctx, &n, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select notice %s: %w", id, err)
	}
	return &n, nil
}

// CountNotices returns how many notices are stored.
func (d *DB) CountNotices(ctx context.Context) (int, error) {
	var n int
	if err := d.db.GetContext(ctx, &n, `SELECT count(*) FROM notices`); err != nil {
		return 0, fmt.Errorf("count notices: %w", err)
	}
	return n, nil
}
