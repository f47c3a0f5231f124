package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tracknow/internal/apperr"
	"tracknow/internal/cache"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

const keyPrefix = "tracknow:report:performance"

type reportStore interface {
	Performance(ctx context.Context, f domain.PerformanceFilter) (domain.PerformanceReport, error)
}

// Service builds the performance report, caching results per filter.
type Service struct {
	repo             reportStore
	cache            cache.Store
	ttl              time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates a new report Service. A nil store disables caching.
func NewService(repo reportStore, store cache.Store, ttl, timeout time.Duration, logger logx.Logger) *Service {
	if store == nil {
		store = cache.Noop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		repo:             repo,
		cache:            store,
		ttl:              ttl,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Performance returns delivery metrics. Admins only.
func (s *Service) Performance(ctx context.Context, actor domain.Actor, f domain.PerformanceFilter) (domain.PerformanceReport, error) {
	if !actor.Is(domain.RoleAdmin) {
		return domain.PerformanceReport{}, fmt.Errorf("%w: reports are admin only", apperr.ErrForbidden)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return domain.PerformanceReport{}, fmt.Errorf("%w: from is after to", apperr.ErrInvalid)
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	key := cacheKey(f)
	if rep, ok := s.cached(ctx, key); ok {
		return rep, nil
	}
	return s.build(ctx, key, f)
}

// Refresh recomputes the unfiltered report and stores it in the cache.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	_, err := s.build(ctx, cacheKey(domain.PerformanceFilter{}), domain.PerformanceFilter{})
	return err
}

func (s *Service) build(ctx context.Context, key string, f domain.PerformanceFilter) (domain.PerformanceReport, error) {
	rep, err := s.repo.Performance(ctx, f)
	if err != nil {
		return domain.PerformanceReport{}, err
	}
	rep.GeneratedAt = s.now()

	if raw, err := json.Marshal(rep); err == nil {
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.logger.Warn("report cache write failed", logx.String("key", key), logx.Err(err))
		}
	}
	return rep, nil
}

func (s *Service) cached(ctx context.Context, key string) (domain.PerformanceReport, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("report cache read failed", logx.String("key", key), logx.Err(err))
		}
		return domain.PerformanceReport{}, false
	}
	var rep domain.PerformanceReport
	if err := json.Unmarshal(raw, &rep); err != nil {
		s.logger.Warn("report cache entry corrupt", logx.String("key", key), logx.Err(err))
		return domain.PerformanceReport{}, false
	}
	return rep, true
}

func cacheKey(f domain.PerformanceFilter) string {
	part := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	courier := "-"
	if f.CourierID != nil {
		courier = fmt.Sprint(*f.CourierID)
	}
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, part(f.From), part(f.To), courier)
}
