package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeshaw/aveiro-bus/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SetPreference(context.Background(), "u1", models.PrefLanguage, "en"))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	prefs, err := db.Preferences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "en", prefs[models.PrefLanguage])
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(context.Background()))
	n, err := db.CountNotices(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPreferences(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	prefs, err := db.Preferences(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, prefs)

	require.NoError(t, db.SetPreferences(ctx, "u1", map[string]string{
		models.PrefDarkMode: "true",
		models.PrefLanguage: "pt",
	}))
	require.NoError(t, db.SetPreference(ctx, "u1", models.PrefLanguage, "es"))
	require.NoError(t, db.SetPreference(ctx, "u2", models.PrefWheelchairAccessible, "true"))

	prefs, err = db.Preferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		models.PrefDarkMode: "true",
		models.PrefLanguage: "es",
	}, prefs)

	prefs, err = db.Preferences(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{models.PrefWheelchairAccessible: "true"}, prefs)
}

func TestMessages(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, db.AddMessages(ctx,
		models.Message{ID: "m1", Session: "s1", Text: "Olá", FromUser: true, CreatedAt: base},
		models.Message{ID: "m2", Session: "s1", Text: "Olá! Como posso ajudar?", CreatedAt: base.Add(time.Second)},
		models.Message{ID: "m3", Session: "s2", Text: "other", FromUser: true, CreatedAt: base},
		models.Message{ID: "m4", Session: "s1", Text: "Horário da L4?", FromUser: true, CreatedAt: base.Add(2 * time.Second)},
	))

	all, err := db.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"m1", "m2", "m4"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.True(t, all[0].FromUser)
	assert.False(t, all[1].FromUser)
	assert.Equal(t, "s1", all[0].Session)
	assert.True(t, base.Equal(all[0].CreatedAt))

	recent, err := db.Messages(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "m2", recent[0].ID)
	assert.Equal(t, "m4", recent[1].ID)

	none, err := db.Messages(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddMessagesDuplicateID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	m := models.Message{ID: "m1", Session: "s1", Text: "a", CreatedAt: time.Now()}
	require.NoError(t, db.AddMessages(ctx, m))
	assert.Error(t, db.AddMessages(ctx, m))
}

func TestNotices(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	older := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := older.AddDate(0, 1, 0)
	require.NoError(t, db.UpsertNotices(ctx, []models.Notice{
		{ID: "n1", Title: "Obras", Content: "Desvio", PublishedAt: older},
		{ID: "n2", Title: "Greve", Content: "Serviços mínimos", PublishedAt: newer},
	}))

	list, err := db.Notices(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "n2", list[0].ID)

	require.NoError(t, db.UpsertNotices(ctx, []models.Notice{
		{ID: "n1", Title: "Obras na Av. Dr. Lourenço Peixinho", Content: "Desvio", PublishedAt: newer.AddDate(1, 0, 0)},
	}))

	n, err := db.Notice(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "Obras na Av. Dr. Lourenço Peixinho", n.Title)
	assert.True(t, newer.AddDate(1, 0, 0).Equal(n.PublishedAt), "a dated refresh moves the publication date")

	require.NoError(t, db.UpsertNotices(ctx, []models.Notice{
		{ID: "n2", Title: "Greve geral", Content: "Serviços mínimos"},
		{ID: "n3", Title: "Feriado", Content: "Horário de domingo"},
	}))

	n, err = db.Notice(ctx, "n2")
	require.NoError(t, err)
	assert.Equal(t, "Greve geral", n.Title)
	assert.True(t, newer.Equal(n.PublishedAt), "an undated refresh keeps the stored date")

	n, err = db.Notice(ctx, "n3")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), n.PublishedAt, time.Minute, "undated notices are stamped on insert")

	count, err := db.CountNotices(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = db.Notice(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
