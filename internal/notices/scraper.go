package notices

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/joeshaw/aveiro-bus/internal/metrics"
	"github.com/joeshaw/aveiro-bus/internal/models"
)

// Selectors locate notices on the operator's page.
type Selectors struct {
	Item  string
	Title string
	Body  string
}

func (s Selectors) withDefaults() Selectors {
	if s.Item == "" {
		s.Item = "article"
	}
	if s.Title == "" {
		s.Title = "h2, h3"
	}
	if s.Body == "" {
		s.Body = "p"
	}
	return s
}

// Scraper reads service alerts from an HTML page.
type Scraper struct {
	url       string
	selectors Selectors
	client    *http.Client
	metrics   metrics.Metricer
}

func NewScraper(pageURL string, selectors Selectors, client *http.Client, m metrics.Metricer) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if m == nil {
		m = metrics.Noop
	}
	return &Scraper{
		url:       pageURL,
		selectors: selectors.withDefaults(),
		client:    client,
		metrics:   m,
	}
}

// Fetch downloads the page and extracts its notices.
func (s *Scraper) Fetch(ctx context.Context) ([]models.Notice, error) {
	base, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parse notices URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "aveiro-bus/1.0")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordUpstream("notices", metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("fetch notices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.metrics.RecordUpstream("notices", metrics.OutcomeStatus, time.Since(start))
		return nil, fmt.Errorf("fetch notices: HTTP %d", resp.StatusCode)
	}
	s.metrics.RecordUpstream("notices", metrics.OutcomeOK, time.Since(start))

	return Parse(resp.Body, base, s.selectors)
}

// Parse extracts notices from an HTML document. Items without a title
// are skipped. Links are resolved against base. Items without a
// <time datetime> have a zero PublishedAt and are stamped when stored.
func Parse(r io.Reader, base *url.URL, sel Selectors) ([]models.Notice, error) {
	sel = sel.withDefaults()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse notices page: %w", err)
	}

	var notices []models.Notice
	doc.Find(sel.Item).Each(func(_ int, item *goquery.Selection) {
		title := collapse(item.Find(sel.Title).First().Text())
		if title == "" {
			return
		}

		var paragraphs []string
		item.Find(sel.Body).Each(func(_ int, p *goquery.Selection) {
			if text := collapse(p.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		n := models.Notice{
			Title:        title,
			DetailedInfo: strings.Join(paragraphs, "\n\n"),
		}
		if len(paragraphs) > 0 {
			n.Content = paragraphs[0]
		}
		if href, ok := item.Find("a[href]").First().Attr("href"); ok && base != nil {
			if u, err := base.Parse(href); err == nil {
				n.Link = u.String()
			}
		}
		if dt, ok := item.Find("time[datetime]").First().Attr("datetime"); ok {
			if t, ok := parseDate(dt); ok {
				n.PublishedAt = t
			}
		}

		var date string
		if !n.PublishedAt.IsZero() {
			date = n.PublishedAt.Format(time.DateOnly)
		}
		n.ID = StableID(title, n.Link, date)
		notices = append(notices, n)
	})

	return notices, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StableID derives a notice id from its title and the link or date the
// page gives it, so a notice keeps its id across refreshes while
// recurring alerts under the same title stay apart. Empty parts are
// ignored.
func StableID(title string, parts ...string) string {
	h := sha1.New()
	h.Write([]byte(strings.ToLower(collapse(title))))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			h.Write([]byte{0})
			h.Write([]byte(part))
		}
	}
	return "web-" + hex.EncodeToString(h.Sum(nil)[:6])
}
