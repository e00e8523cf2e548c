package cache

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/dharmasatrya/trotair/internal/models"
	"github.com/dharmasatrya/trotair/internal/providers"
)

// CachedSearcher serves repeated identical searches from the cache. Cache
// failures are logged and never reach the caller.
type CachedSearcher struct {
	next   providers.FlightSearcher
	cache  Cache
	logger *logrus.Logger
}

func NewCachedSearcher(next providers.FlightSearcher, c Cache, logger *logrus.Logger) *CachedSearcher {
	return &CachedSearcher{
		next:   next,
		cache:  c,
		logger: logger,
	}
}

func (s *CachedSearcher) Name() string {
	return s.next.Name()
}

func (s *CachedSearcher) Search(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, error) {
	result, _, err := s.SearchWithHit(ctx, criteria)
	return result, err
}

// SearchWithHit is Search plus whether the result came from the cache.
func (s *CachedSearcher) SearchWithHit(ctx context.Context, criteria models.SearchCriteria) (models.SearchResult, bool, error) {
	if cached, found := s.cache.Get(ctx, criteria); found {
		s.logger.WithField("key", GenerateKey(criteria)).Debug("Search cache hit")
		return cached, true, nil
	}

	result, err := s.next.Search(ctx, criteria)
	if err != nil {
		return models.SearchResult{}, false, err
	}

	if err := s.cache.Set(ctx, criteria, result); err != nil {
		s.logger.WithError(err).Warn("Failed to cache search result")
	}
	return result, false, nil
}
