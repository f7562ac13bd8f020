package notices

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/storage"
)

const page = `<!DOCTYPE html>
<html><body>
<main>
  <article>
    <h2>  L5: Alteração de paragens </h2>
    <time datetime="2025-06-02">2 de junho</time>
    <p>As paragens da Avenida   estão desativadas.</p>
    <p>Use a paragem Fórum B.</p>
    <a href="/avisos/l5">Saber mais</a>
  </article>
  <article>
    <h3>Greve geral</h3>
    <p>Serviços mínimos garantidos.</p>
  </article>
  <article><p>Sem título</p></article>
</main>
</body></html>`

func TestParse(t *testing.T) {
	base, _ := url.Parse("https://www.aveirobus.pt/avisos")

	got, err := Parse(strings.NewReader(page), base, Selectors{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "L5: Alteração de paragens", first.Title)
	assert.Equal(t, "As paragens da Avenida estão desativadas.", first.Content)
	assert.Equal(t, "As paragens da Avenida estão desativadas.\n\nUse a paragem Fórum B.", first.DetailedInfo)
	assert.Equal(t, "https://www.aveirobus.pt/avisos/l5", first.Link)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), first.PublishedAt)
	assert.Equal(t, StableID("l5: alteração de paragens", "https://www.aveirobus.pt/avisos/l5", "2025-06-02"), first.ID)

	second := got[1]
	assert.Equal(t, "Greve geral", second.Title)
	assert.Empty(t, second.Link)
	assert.True(t, second.PublishedAt.IsZero(), "undated notices are stamped when stored")
	assert.Equal(t, StableID("Greve geral"), second.ID)
}

func TestParseCustomSelectors(t *testing.T) {
	html := `<ul class="alerts"><li><strong>Obras</strong><span>Desvio na L2</span></li></ul>`
	got, err := Parse(strings.NewReader(html), nil, Selectors{Item: "ul.alerts li", Title: "strong", Body: "span"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Obras", got[0].Title)
	assert.Equal(t, "Desvio na L2", got[0].Content)
}

func TestStableID(t *testing.T) {
	assert.Equal(t, StableID("Greve geral"), StableID("  greve   GERAL "))
	assert.NotEqual(t, StableID("Greve geral"), StableID("Greve parcial"))
	assert.True(t, strings.HasPrefix(StableID("x"), "web-"))

	assert.Equal(t, StableID("Greve geral", "", " "), StableID("Greve geral"))
	assert.NotEqual(t, StableID("Greve geral", "2025-06-02"), StableID("Greve geral", "2025-07-14"))
	assert.NotEqual(t, StableID("Greve geral", "https://x/a"), StableID("Greve geral", "https://x/b"))
	assert.NotEqual(t, StableID("Greve geral", "2025"), StableID("Greve geral2025"))
}

func newService(t *testing.T, source Source) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "notices.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, source), db
}

func TestSeed(t *testing.T) {
	svc, db := newService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))
	require.NoError(t, svc.Seed(ctx))

	count, err := db.CountNotices(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(Seed), count)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "Atualização de Horários do Terminal", list[0].Title)
	assert.Equal(t, "L07: Condicionamento de Percurso", list[3].Title)

	n, err := svc.Get(ctx, "3")
	require.NoError(t, err)
	assert.Contains(t, n.DetailedInfo, "zona das Alagoas")

	_, err = svc.Get(ctx, "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshFromScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/avisos", r.URL.Path)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, page)
	}))
	defer srv.Close()

	svc, _ := newService(t, NewScraper(srv.URL+"/avisos", Selectors{}, srv.Client(), nil))
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	n, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 6, "refresh upserts by id")

	got, err := svc.Get(ctx, StableID("L5: Alteração de paragens", srv.URL+"/avisos/l5", "2025-06-02"))
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/avisos/l5", got.Link)
}

func TestRefreshErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	svc, _ := newService(t, NewScraper(srv.URL, Selectors{}, srv.Client(), nil))
	_, err := svc.Refresh(context.Background())
	assert.Error(t, err)

	svc, _ = newService(t, nil)
	n, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

type failingSource struct{}

func (failingSource) Fetch(context.Context) ([]models.Notice, error) {
	return nil, errors.New("boom")
}

func TestRefreshKeepsStoredNoticesOnFailure(t *testing.T) {
	svc, _ := newService(t, failingSource{})
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx))

	_, err := svc.Refresh(ctx)
	require.Error(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 4)
}
