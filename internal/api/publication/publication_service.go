package publication

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/wanderplan/internal/api/textnorm"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// SelectPool returns the approved publications matching destination, in
	// insertion order. An empty result is not an error.
	SelectPool(ctx context.Context, destination string) ([]types.Publication, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]types.Publication, error)
	GetCards(ctx context.Context, userID uuid.UUID, ids []int64) ([]types.PublicationCard, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	repository Repository
	cache      PoolCache
}

func NewServiceImpl(repository Repository, cache PoolCache, logger *slog.Logger) *ServiceImpl {
	if cache == nil {
		cache = NoopPoolCache{}
	}
	return &ServiceImpl{
		logger:     logger,
		repository: repository,
		cache:      cache,
	}
}

func (s *ServiceImpl) SelectPool(ctx context.Context, destination string) ([]types.Publication, error) {
	ctx, span := otel.Tracer("PublicationService").Start(ctx, "SelectPool", trace.WithAttributes(
		attribute.String("destination", destination),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "SelectPool"))

	normalized := textnorm.Normalize(destination)
	if normalized == "" {
		return []types.Publication{}, nil
	}

	if cached, ok := s.cache.Get(ctx, normalized); ok {
		if pool, fresh := s.recheckCached(ctx, cached); fresh {
			span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("pool.size", len(pool)))
			l.DebugContext(ctx, "Pool served from cache", slog.String("destination", normalized), slog.Int("size", len(pool)))
			return pool, nil
		}
		span.SetAttributes(attribute.Bool("cache.stale", true))
		l.InfoContext(ctx, "Cached pool is stale, selecting again", slog.String("destination", normalized))
	}

	raw := strings.ToLower(strings.TrimSpace(destination))
	pool, pass, err := s.repository.SelectApprovedPool(ctx, raw, normalized, textnorm.Keywords(normalized))
	if err != nil {
		l.ErrorContext(ctx, "Failed to select publication pool", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "pool selection failed")
		return nil, fmt.Errorf("failed to select publications for %q: %w", destination, err)
	}
	if pool == nil {
		pool = []types.Publication{}
	}

	span.SetAttributes(attribute.String("selection.pass", string(pass)), attribute.Int("pool.size", len(pool)))
	l.InfoContext(ctx, "Publication pool selected",
		slog.String("destination", normalized),
		slog.String("pass", string(pass)),
		slog.Int("size", len(pool)))

	// Empty pools are not cached so newly approved publications show up at once.
	if len(pool) > 0 {
		s.cache.Set(ctx, normalized, pool)
	}
	return pool, nil
}

// recheckCached reloads a cached pool by id and reports whether every member
// is still approved. The reloaded records replace the cached ones.
func (s *ServiceImpl) recheckCached(ctx context.Context, cached []types.Publication) ([]types.Publication, bool) {
	ids := make([]int64, 0, len(cached))
	for _, p := range cached {
		ids = append(ids, p.ID)
	}
	current, err := s.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to recheck cached pool", slog.Any("error", err))
		return nil, false
	}
	pool := make([]types.Publication, 0, len(cached))
	for _, id := range ids {
		p, ok := current[id]
		if !ok || !p.IsApproved() {
			return nil, false
		}
		pool = append(pool, p)
	}
	return pool, true
}

func (s *ServiceImpl) GetByIDs(ctx context.Context, ids []int64) (map[int64]types.Publication, error) {
	pubs, err := s.repository.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]types.Publication, len(pubs))
	for _, p := range pubs {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *ServiceImpl) GetCards(ctx context.Context, userID uuid.UUID, ids []int64) ([]types.PublicationCard, error) {
	cards, err := s.repository.GetCards(ctx, userID, ids)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hydrate publication cards", slog.Any("error", err))
		return nil, err
	}
	return cards, nil
}
