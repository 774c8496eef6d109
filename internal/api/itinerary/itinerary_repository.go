package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/wanderplan/app/db"
	"github.com/FACorreiaa/wanderplan/app/observability/metrics"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	// CreatePending inserts it in pending state and fills ID and timestamps.
	CreatePending(ctx context.Context, it *types.Itinerary) error
	MarkFailed(ctx context.Context, id int64, text string, kind types.FailureKind) error
	MarkCompleted(ctx context.Context, id int64, text string, publicationIDs []int64, validation *types.ValidationResult) error
	GetByID(ctx context.Context, id int64, userID uuid.UUID) (*types.Itinerary, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.Itinerary, int, error)
	Delete(ctx context.Context, id int64, userID uuid.UUID) error
	UpdateCustomPlan(ctx context.Context, id int64, userID uuid.UUID, plan types.Plan, validation *types.ValidationResult) error
	// FailStalePending fails every pending itinerary created before cutoff.
	FailStalePending(ctx context.Context, cutoff time.Time, text string) (int64, error)
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

const itineraryColumns = `
    id, user_id, destination, start_date, end_date, budget, cant_persons, trip_type,
    arrival_time, departure_time, comments, generated_itinerary, status, failure_kind,
    publication_ids, custom_plan, validation, created_at, updated_at`

func (r *RepositoryImpl) CreatePending(ctx context.Context, it *types.Itinerary) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "CreatePending", trace.WithAttributes(
		attribute.String("user.id", it.UserID.String()),
		attribute.String("destination", it.Destination),
	))
	defer span.End()

	query := `
        INSERT INTO itineraries (
            user_id, destination, start_date, end_date, budget, cant_persons, trip_type,
            arrival_time, departure_time, comments, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending')
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query,
		it.UserID, it.Destination, it.StartDate.Time, it.EndDate.Time, it.Budget, it.CantPersons, it.TripType,
		it.ArrivalTime, it.DepartureTime, it.Comments,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	metrics.ObserveQuery(ctx, "itinerary_create", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to create itinerary: %w", err)
	}
	it.Status = types.ItineraryStatusPending
	it.PublicationIDs = []int64{}

	span.SetAttributes(attribute.Int64("itinerary.id", it.ID))
	r.logger.DebugContext(ctx, "Itinerary created", slog.Int64("id", it.ID))
	return nil
}

// MarkFailed is the pending -> failed transition. The publication ids and any
// validation are cleared.
func (r *RepositoryImpl) MarkFailed(ctx context.Context, id int64, text string, kind types.FailureKind) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "MarkFailed", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
		attribute.String("failure.kind", string(kind)),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE itineraries
        SET status = 'failed', generated_itinerary = $2, failure_kind = $3,
            publication_ids = '[]'::jsonb, validation = NULL, updated_at = now()
        WHERE id = $1 AND status = 'pending'`, id, text, string(kind))
	metrics.ObserveQuery(ctx, "itinerary_mark_failed", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("failed to mark itinerary %d failed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not pending")
		return fmt.Errorf("itinerary %d: %w", id, types.ErrInvalidTransition)
	}
	return nil
}

// MarkCompleted is the pending -> completed transition.
func (r *RepositoryImpl) MarkCompleted(ctx context.Context, id int64, text string, publicationIDs []int64, validation *types.ValidationResult) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "MarkCompleted", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
		attribute.Int("publications.count", len(publicationIDs)),
	))
	defer span.End()

	if publicationIDs == nil {
		publicationIDs = []int64{}
	}

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE itineraries
        SET status = 'completed', generated_itinerary = $2, failure_kind = NULL,
            publication_ids = $3, validation = $4, updated_at = now()
        WHERE id = $1 AND status = 'pending'`, id, text, publicationIDs, validation)
	metrics.ObserveQuery(ctx, "itinerary_mark_completed", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("failed to mark itinerary %d completed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "not pending")
		return fmt.Errorf("itinerary %d: %w", id, types.ErrInvalidTransition)
	}
	return nil
}

func (r *RepositoryImpl) GetByID(ctx context.Context, id int64, userID uuid.UUID) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "GetByID", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
	))
	defer span.End()

	start := time.Now()
	it, err := scanItinerary(r.pgpool.QueryRow(ctx, `SELECT`+itineraryColumns+`
        FROM itineraries
        WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveQuery(ctx, "itinerary_get", start, nil)
		return nil, fmt.Errorf("itinerary %d: %w", id, types.ErrNotFound)
	}
	metrics.ObserveQuery(ctx, "itinerary_get", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to get itinerary %d: %w", id, err)
	}
	return it, nil
}

// ListByUser returns one page of the user's itineraries, newest first, and the
// total number of itineraries the user owns.
func (r *RepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]types.Itinerary, int, error) {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "ListByUser", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	))
	defer span.End()

	start := time.Now()
	var total int
	if err := r.pgpool.QueryRow(ctx, `SELECT count(*) FROM itineraries WHERE user_id = $1`, userID).Scan(&total); err != nil {
		metrics.ObserveQuery(ctx, "itinerary_count", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, 0, fmt.Errorf("failed to count itineraries: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `SELECT`+itineraryColumns+`
        FROM itineraries
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		metrics.ObserveQuery(ctx, "itinerary_list", start, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, 0, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer rows.Close()

	items := make([]types.Itinerary, 0)
	for rows.Next() {
		it, err := scanItinerary(rows)
		if err != nil {
			span.RecordError(err)
			return nil, 0, err
		}
		items = append(items, *it)
	}
	err = rows.Err()
	metrics.ObserveQuery(ctx, "itinerary_list", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "row iteration failed")
		return nil, 0, fmt.Errorf("error iterating itinerary rows: %w", err)
	}

	span.SetAttributes(attribute.Int("results.count", len(items)), attribute.Int("total", total))
	return items, total, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int64, userID uuid.UUID) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "Delete", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM itineraries WHERE id = $1 AND user_id = $2`, id, userID)
	metrics.ObserveQuery(ctx, "itinerary_delete", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete itinerary %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("itinerary %d: %w", id, types.ErrNotFound)
	}
	r.logger.InfoContext(ctx, "Itinerary deleted", slog.Int64("id", id))
	return nil
}

func (r *RepositoryImpl) UpdateCustomPlan(ctx context.Context, id int64, userID uuid.UUID, plan types.Plan, validation *types.ValidationResult) error {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "UpdateCustomPlan", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
		attribute.Int("plan.days", len(plan)),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE itineraries
        SET custom_plan = $3, validation = $4, updated_at = now()
        WHERE id = $1 AND user_id = $2`, id, userID, plan, validation)
	metrics.ObserveQuery(ctx, "itinerary_update_plan", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return fmt.Errorf("failed to update plan of itinerary %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("itinerary %d: %w", id, types.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) FailStalePending(ctx context.Context, cutoff time.Time, text string) (int64, error) {
	ctx, span := otel.Tracer("ItineraryRepository").Start(ctx, "FailStalePending", trace.WithAttributes(
		attribute.String("cutoff", cutoff.Format(time.RFC3339)),
	))
	defer span.End()

	start := time.Now()
	tag, err := r.pgpool.Exec(ctx, `
        UPDATE itineraries
        SET status = 'failed', generated_itinerary = $2, failure_kind = $3,
            publication_ids = '[]'::jsonb, updated_at = now()
        WHERE status = 'pending' AND created_at < $1`, cutoff, text, string(types.FailureAbandoned))
	metrics.ObserveQuery(ctx, "itinerary_fail_stale", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return 0, fmt.Errorf("failed to reap pending itineraries: %w", err)
	}
	span.SetAttributes(attribute.Int64("reaped", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func scanItinerary(row pgx.Row) (*types.Itinerary, error) {
	var (
		it          types.Itinerary
		start, end  time.Time
		status      string
		failureKind *string
	)
	err := row.Scan(
		&it.ID, &it.UserID, &it.Destination, &start, &end, &it.Budget, &it.CantPersons, &it.TripType,
		&it.ArrivalTime, &it.DepartureTime, &it.Comments, &it.GeneratedItinerary, &status, &failureKind,
		&it.PublicationIDs, &it.CustomPlan, &it.Validation, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan itinerary: %w", err)
	}
	if err := it.Status.Scan(status); err != nil {
		return nil, err
	}
	if failureKind != nil {
		kind := types.FailureKind(*failureKind)
		it.FailureKind = &kind
	}
	it.StartDate = types.NewDate(start)
	it.EndDate = types.NewDate(end)
	if it.PublicationIDs == nil {
		it.PublicationIDs = []int64{}
	}
	it.Publications = []types.PublicationCard{}
	return &it, nil
}
