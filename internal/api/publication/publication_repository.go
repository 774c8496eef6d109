package publication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/wanderplan/app/db"
	"github.com/FACorreiaa/wanderplan/app/observability/metrics"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// SelectApprovedPool runs the exact pass and, when it finds nothing, the
	// keyword pass inside one read-only snapshot.
	SelectApprovedPool(ctx context.Context, rawNeedle, normalizedNeedle string, keywords []string) ([]types.Publication, types.SelectionPass, error)
	GetByIDs(ctx context.Context, ids []int64) ([]types.Publication, error)
	GetCards(ctx context.Context, userID uuid.UUID, ids []int64) ([]types.PublicationCard, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const publicationColumns = `
    p.id, p.place_name, coalesce(p.country, ''), coalesce(p.province, ''),
    coalesce(p.city, ''), coalesce(p.address, ''), p.description, p.status,
    coalesce(p.continent, ''), coalesce(p.climate, ''), p.activities,
    p.cost_per_day, p.duration_min, p.available_days, p.available_hours,
    p.rating_avg, p.rating_count, p.created_at`

var locationFields = []string{"p.city", "p.province", "p.country", "p.address"}

// fieldsContain renders "any location field contains the needle" for the raw
// and accent-folded parameter positions.
func fieldsContain(rawParam, normParam int) string {
	parts := make([]string, 0, len(locationFields)*2)
	for _, f := range locationFields {
		parts = append(parts,
			fmt.Sprintf("strpos(lower(coalesce(%s, '')), $%d) > 0", f, rawParam),
			fmt.Sprintf("strpos(unaccent(lower(coalesce(%s, ''))), $%d) > 0", f, normParam),
		)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func exactPassQuery() string {
	return `SELECT` + publicationColumns + `
    FROM publications p
    WHERE p.status = 'approved' AND ` + fieldsContain(1, 2) + `
    ORDER BY p.id`
}

// keywordPassQuery ANDs one fieldsContain group per keyword.
func keywordPassQuery(n int) string {
	groups := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		groups = append(groups, fieldsContain(i, i))
	}
	return `SELECT` + publicationColumns + `
    FROM publications p
    WHERE p.status = 'approved' AND ` + strings.Join(groups, " AND ") + `
    ORDER BY p.id`
}

func (r *RepositoryImpl) SelectApprovedPool(ctx context.Context, rawNeedle, normalizedNeedle string, keywords []string) ([]types.Publication, types.SelectionPass, error) {
	ctx, span := otel.Tracer("PublicationRepository").Start(ctx, "SelectApprovedPool", trace.WithAttributes(
		attribute.String("needle", normalizedNeedle),
		attribute.Int("keywords.count", len(keywords)),
	))
	defer span.End()

	start := time.Now()
	pool, pass, err := r.selectApprovedPool(ctx, rawNeedle, normalizedNeedle, keywords)
	metrics.ObserveQuery(ctx, "select_approved_pool", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pool selection failed")
		return nil, types.SelectionPassNone, err
	}
	span.SetAttributes(attribute.String("selection.pass", string(pass)), attribute.Int("pool.size", len(pool)))
	span.SetStatus(codes.Ok, "pool selected")
	return pool, pass, nil
}

func (r *RepositoryImpl) selectApprovedPool(ctx context.Context, rawNeedle, normalizedNeedle string, keywords []string) ([]types.Publication, types.SelectionPass, error) {
	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, types.SelectionPassNone, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	pass := types.SelectionPassExact
	pool, err := queryPublications(ctx, tx, exactPassQuery(), rawNeedle, normalizedNeedle)
	if err != nil {
		return nil, types.SelectionPassNone, fmt.Errorf("exact pass: %w", err)
	}

	if len(pool) == 0 && len(keywords) > 0 {
		pass = types.SelectionPassKeyword
		args := make([]any, len(keywords))
		for i, k := range keywords {
			args[i] = k
		}
		pool, err = queryPublications(ctx, tx, keywordPassQuery(len(keywords)), args...)
		if err != nil {
			return nil, types.SelectionPassNone, fmt.Errorf("keyword pass: %w", err)
		}
	}

	if len(pool) == 0 {
		if err := tx.Commit(ctx); err != nil {
			return nil, types.SelectionPassNone, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, types.SelectionPassNone, nil
	}

	if err := attachDetails(ctx, tx, pool); err != nil {
		return nil, types.SelectionPassNone, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, types.SelectionPassNone, fmt.Errorf("failed to commit transaction: %w", err)
	}
	r.logger.DebugContext(ctx, "Publication pool selected",
		slog.String("pass", string(pass)),
		slog.Int("size", len(pool)))
	return pool, pass, nil
}

func (r *RepositoryImpl) GetByIDs(ctx context.Context, ids []int64) ([]types.Publication, error) {
	ctx, span := otel.Tracer("PublicationRepository").Start(ctx, "GetByIDs", trace.WithAttributes(
		attribute.Int("ids.count", len(ids)),
	))
	defer span.End()

	if len(ids) == 0 {
		return []types.Publication{}, nil
	}

	start := time.Now()
	pubs, err := queryPublications(ctx, r.pgpool, `SELECT`+publicationColumns+`
    FROM publications p
    WHERE p.id = ANY($1) AND p.status <> 'deleted'
    ORDER BY p.id`, ids)
	metrics.ObserveQuery(ctx, "publications_by_ids", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to load publications: %w", err)
	}
	return pubs, nil
}

// GetCards returns hydrated publications in the order of ids, skipping ids
// that no longer resolve. Categories, photos and favorites load concurrently.
func (r *RepositoryImpl) GetCards(ctx context.Context, userID uuid.UUID, ids []int64) ([]types.PublicationCard, error) {
	ctx, span := otel.Tracer("PublicationRepository").Start(ctx, "GetCards", trace.WithAttributes(
		attribute.Int("ids.count", len(ids)),
	))
	defer span.End()

	if len(ids) == 0 {
		return []types.PublicationCard{}, nil
	}

	pubs, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(pubs) == 0 {
		return []types.PublicationCard{}, nil
	}
	found := make([]int64, len(pubs))
	for i, p := range pubs {
		found[i] = p.ID
	}

	var (
		categories map[int64][]string
		photos     map[int64][]string
		favorites  map[int64]bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = loadCategories(gctx, r.pgpool, found)
		return err
	})
	g.Go(func() error {
		var err error
		photos, err = loadPhotos(gctx, r.pgpool, found)
		return err
	})
	g.Go(func() error {
		var err error
		favorites, err = r.loadFavorites(gctx, userID, found)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hydration failed")
		return nil, err
	}

	byID := make(map[int64]types.Publication, len(pubs))
	for _, p := range pubs {
		p.Categories = nonNil(categories[p.ID])
		p.Photos = nonNil(photos[p.ID])
		byID[p.ID] = p
	}
	cards := make([]types.PublicationCard, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cards = append(cards, types.PublicationCard{Publication: p, IsFavorite: favorites[id]})
	}
	return cards, nil
}

func queryPublications(ctx context.Context, q querier, sql string, args ...any) ([]types.Publication, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query publications: %w", err)
	}
	defer rows.Close()

	pubs := make([]types.Publication, 0)
	for rows.Next() {
		var p types.Publication
		var status string
		if err := rows.Scan(
			&p.ID, &p.PlaceName, &p.Country, &p.Province,
			&p.City, &p.Address, &p.Description, &status,
			&p.Continent, &p.Climate, &p.Activities,
			&p.CostPerDay, &p.DurationMin, &p.AvailableDays, &p.AvailableHours,
			&p.RatingAvg, &p.RatingCount, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan publication: %w", err)
		}
		p.Status = types.PublicationStatus(status)
		p.Activities = nonNil(p.Activities)
		p.AvailableDays = nonNil(p.AvailableDays)
		p.AvailableHours = nonNil(p.AvailableHours)
		p.Categories = []string{}
		p.Photos = []string{}
		pubs = append(pubs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publication rows: %w", err)
	}
	return pubs, nil
}

// attachDetails fills categories and photos of pool in place.
func attachDetails(ctx context.Context, q querier, pool []types.Publication) error {
	ids := make([]int64, len(pool))
	for i, p := range pool {
		ids[i] = p.ID
	}
	categories, err := loadCategories(ctx, q, ids)
	if err != nil {
		return err
	}
	photos, err := loadPhotos(ctx, q, ids)
	if err != nil {
		return err
	}
	for i := range pool {
		pool[i].Categories = nonNil(categories[pool[i].ID])
		pool[i].Photos = nonNil(photos[pool[i].ID])
	}
	return nil
}

func loadCategories(ctx context.Context, q querier, ids []int64) (map[int64][]string, error) {
	return loadStringsByPublication(ctx, q, `
        SELECT pc.publication_id, c.slug
        FROM publication_categories pc
        JOIN categories c ON c.id = pc.category_id
        WHERE pc.publication_id = ANY($1)
        ORDER BY pc.publication_id, c.slug`, ids)
}

func loadPhotos(ctx context.Context, q querier, ids []int64) (map[int64][]string, error) {
	return loadStringsByPublication(ctx, q, `
        SELECT publication_id, url
        FROM publication_photos
        WHERE publication_id = ANY($1)
        ORDER BY publication_id, position, id`, ids)
}

func loadStringsByPublication(ctx context.Context, q querier, sql string, ids []int64) (map[int64][]string, error) {
	rows, err := q.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query publication details: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]string, len(ids))
	for rows.Next() {
		var id int64
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("failed to scan publication detail: %w", err)
		}
		out[id] = append(out[id], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publication details: %w", err)
	}
	return out, nil
}

func (r *RepositoryImpl) loadFavorites(ctx context.Context, userID uuid.UUID, ids []int64) (map[int64]bool, error) {
	rows, err := r.pgpool.Query(ctx, `
        SELECT publication_id
        FROM favorites
        WHERE user_id = $1 AND publication_id = ANY($2)`, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	favorites := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites[id] = true
	}
	if err := rows.Err(); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return favorites, nil
		}
		return nil, fmt.Errorf("error iterating favorites: %w", err)
	}
	return favorites, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
