package flight

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/cache"
	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

// API is the part of the flight client the service consumes.
type API interface {
	Search(ctx context.Context, q Query) ([]model.Flight, error)
	Random(ctx context.Context) (*model.Flight, error)
}

// Service fronts the flight API with the search-result cache and the recent
// random flights pool.
type Service struct {
	api    API
	cache  *cache.TTL[[]model.Flight]
	recent *cache.Recent[model.Flight]
	logger *logger.Logger
}

// NewService creates a flight service with the given cache freshness window
// and recent-pool capacity.
func NewService(api API, window time.Duration, recentMax int, log *logger.Logger) *Service {
	return &Service{
		api:    api,
		cache:  cache.NewTTL[[]model.Flight](window),
		recent: cache.NewRecent[model.Flight](recentMax),
		logger: log,
	}
}

// Search returns flights for the query, served from cache within the
// freshness window. The second result reports whether the cache answered.
func (s *Service) Search(ctx context.Context, q Query) ([]model.Flight, bool, error) {
	key := q.Key()
	if flights, ok := s.cache.Get(key); ok {
		metrics.RecordCacheLookup("flight_search", true)
		return flights, true, nil
	}
	metrics.RecordCacheLookup("flight_search", false)

	flights, err := s.api.Search(ctx, q)
	if err != nil {
		return nil, false, err
	}

	s.cache.Put(key, flights)
	s.logger.Debug("flight search cached",
		zap.String("key", cache.Normalize(key)),
		zap.Int("results", len(flights)),
	)
	return flights, false, nil
}

// Random returns one random flight and feeds it into the recent pool.
func (s *Service) Random(ctx context.Context) (*model.Flight, error) {
	f, err := s.api.Random(ctx)
	if err != nil {
		return nil, err
	}
	s.recent.Add(f.Key(), *f)
	return f, nil
}

// Recent returns the recent random flights, newest first.
func (s *Service) Recent() []model.Flight {
	return s.recent.Values()
}

// ClearCache drops the search cache and the recent pool.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.recent.Clear()
	s.logger.Info("flight caches cleared")
}
