package catalog

import (
	"context"
	"fmt"
	"sync"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
)

// CategoryFetcher loads the nested category graph from the remote API.
type CategoryFetcher interface {
	FetchCategories(ctx context.Context) ([]*Category, error)
}

// Service keeps the most recently reconciled catalog.
type Service struct {
	fetcher CategoryFetcher
	logg    *logger.Logger

	mu      sync.RWMutex
	current *Catalog
}

func NewService(fetcher CategoryFetcher, logg *logger.Logger) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("category fetcher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{fetcher: fetcher, logg: logg}, nil
}

// Refresh fetches and reconciles the catalog. On failure the previous catalog
// stays current.
func (s *Service) Refresh(ctx context.Context) (*Catalog, error) {
	categories, err := s.fetcher.FetchCategories(ctx)
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch categories")
		}
		s.logg.Error(ctx, "catalog refresh failed", err)
		return nil, err
	}

	next := NewCatalog(categories)
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"categories": len(categories),
		"products":   next.Len(),
	}), "catalog refreshed")
	return next, nil
}

// Current returns the last reconciled catalog, or nil before the first refresh.
func (s *Service) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
