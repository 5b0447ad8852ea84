package eastmoney

import (
	"context"
	"time"

	"github.com/wonny/instock/internal/contracts"
	"github.com/wonny/instock/pkg/logger"
	"github.com/wonny/instock/pkg/redis"
)

// CachedScorer caches resolved scores per code and run date.
// Unavailable scores are not cached so the next run retries them.
type CachedScorer struct {
	next   contracts.ScoreFetcher
	cache  *redis.Cache
	logger *logger.Logger
}

// NewCachedScorer wraps next with the score cache
func NewCachedScorer(next contracts.ScoreFetcher, cache *redis.Cache, log *logger.Logger) *CachedScorer {
	return &CachedScorer{
		next:   next,
		cache:  cache,
		logger: log.WithField("module", "score_cache"),
	}
}

// FetchScore reads the cache first and falls back to next
func (s *CachedScorer) FetchScore(ctx context.Context, code string, date time.Time) *float64 {
	key := redis.ScoreKey(code, date.Format(contracts.DateLayout))

	var cached float64
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("code", code).Warn("Score cache read failed")
	}
	if found {
		return &cached
	}

	score := s.next.FetchScore(ctx, code, date)
	if score == nil {
		return nil
	}

	if err := s.cache.Set(ctx, key, *score, redis.TTLDaily); err != nil {
		s.logger.WithError(err).WithField("code", code).Warn("Score cache write failed")
	}

	return score
}
