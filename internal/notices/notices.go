// Package notices publishes the operator's service alerts ("Avisos").
package notices

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/logging"
	"github.com/joeshaw/aveiro-bus/internal/models"
	"github.com/joeshaw/aveiro-bus/internal/storage"
)

// ErrNotFound is returned for an unknown notice id.
var ErrNotFound = errors.New("notices: not found")

type Store interface {
	UpsertNotices(ctx context.Context, notices []models.Notice) error
	Notices(ctx context.Context) ([]models.Notice, error)
	Notice(ctx context.Context, id string) (*models.Notice, error)
	CountNotices(ctx context.Context) (int, error)
}

// Source provides fresh notices, typically a Scraper.
type Source interface {
	Fetch(ctx context.Context) ([]models.Notice, error)
}

type Service struct {
	store  Store
	source Source
}

// NewService creates the service. source may be nil, in which case
// only stored notices are served.
func NewService(store Store, source Source) *Service {
	return &Service{store: store, source: source}
}

// Seed stores the initial notices when none are stored yet.
func (s *Service) Seed(ctx context.Context) error {
	n, err := s.store.CountNotices(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := s.store.UpsertNotices(ctx, Seed); err != nil {
		return fmt.Errorf("seed notices: %w", err)
	}
	logging.WithContext(ctx).Info("Seeded notices", zap.Int("count", len(Seed)))
	return nil
}

// Refresh fetches notices from the source and stores them, returning
// how many were found.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, nil
	}

	fetched, err := s.source.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	if len(fetched) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertNotices(ctx, fetched); err != nil {
		return 0, err
	}

	logging.WithContext(ctx).Info("Refreshed notices", zap.Int("count", len(fetched)))
	return len(fetched), nil
}

// List returns every notice, newest first.
func (s *Service) List(ctx context.Context) ([]models.Notice, error) {
	return s.store.Notices(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Notice, error) {
	n, err := s.store.Notice(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return n, err
}
