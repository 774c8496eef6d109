package llmInteraction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/wanderplan/app/db"
	"github.com/FACorreiaa/wanderplan/app/observability/metrics"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

var _ LLmInteractionRepository = (*PostgresLlmInteractionRepo)(nil)

type LLmInteractionRepository interface {
	// SaveInteraction stores one prompt/response exchange and fills its ID.
	SaveInteraction(ctx context.Context, interaction *types.LlmInteraction) error
}

type PostgresLlmInteractionRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresLlmInteractionRepo(pgpool database.Pool, logger *slog.Logger) *PostgresLlmInteractionRepo {
	return &PostgresLlmInteractionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresLlmInteractionRepo) SaveInteraction(ctx context.Context, interaction *types.LlmInteraction) error {
	ctx, span := otel.Tracer("LlmInteractionRepo").Start(ctx, "SaveInteraction", trace.WithAttributes(
		attribute.Int64("itinerary.id", interaction.ItineraryID),
		attribute.String("llm.model", interaction.ModelUsed),
	))
	defer span.End()

	query := `
        INSERT INTO llm_interactions (
            itinerary_id, user_id, prompt, response_text, model_used, latency_ms, error_message
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`

	start := time.Now()
	err := r.pgpool.QueryRow(ctx, query,
		interaction.ItineraryID, interaction.UserID, interaction.Prompt, interaction.ResponseText,
		interaction.ModelUsed, interaction.LatencyMs, interaction.ErrorMessage,
	).Scan(&interaction.ID, &interaction.CreatedAt)
	metrics.ObserveQuery(ctx, "llm_interaction_insert", start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to save llm interaction: %w", err)
	}
	r.logger.DebugContext(ctx, "LLM interaction saved",
		slog.String("id", interaction.ID.String()),
		slog.Int("latency_ms", interaction.LatencyMs))
	return nil
}
