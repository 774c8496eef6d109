package user

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

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user data persistence.
type UserRepo interface {
	// GetUserByID retrieves a user's travel profile by their unique ID.
	// Returns types.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserTravelProfile, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresUserRepo(pgpool database.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserTravelProfile, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	var (
		profile types.UserTravelProfile
		role    string
	)
	start := time.Now()
	err := r.pgpool.QueryRow(ctx, `
        SELECT id, email, role, travel_preferences, created_at
        FROM users
        WHERE id = $1`, userID).Scan(
		&profile.ID, &profile.Email, &role, &profile.TravelPreferences, &profile.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveQuery(ctx, "user_by_id", start, nil)
		span.SetStatus(codes.Error, "user not found")
		return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
	}
	metrics.ObserveQuery(ctx, "user_by_id", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		r.logger.ErrorContext(ctx, "Failed to fetch user", slog.String("userID", userID.String()), slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	profile.Role = types.Role(role)

	span.SetStatus(codes.Ok, "user found")
	return &profile, nil
}
