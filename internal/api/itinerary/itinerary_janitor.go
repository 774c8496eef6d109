package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/wanderplan/app/observability/metrics"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

const abandonedText = errorTextPrefix + "la generación no terminó a tiempo y la solicitud fue abandonada"

// Janitor fails itineraries left pending by requests that died mid-generation.
type Janitor struct {
	logger *slog.Logger
	repo   Repository
	now    func() time.Time
}

func NewJanitor(repo Repository, logger *slog.Logger) *Janitor {
	return &Janitor{logger: logger, repo: repo, now: time.Now}
}

// ReapStalePending marks every itinerary pending for longer than olderThan as
// failed with failure kind abandoned and returns how many rows changed.
func (j *Janitor) ReapStalePending(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("cutoff must be positive, got %s", olderThan)
	}
	cutoff := j.now().Add(-olderThan)

	ctx, span := otel.Tracer("ItineraryJanitor").Start(ctx, "ReapStalePending", trace.WithAttributes(
		attribute.String("cutoff", cutoff.Format(time.RFC3339)),
	))
	defer span.End()

	n, err := j.repo.FailStalePending(ctx, cutoff, abandonedText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reap failed")
		return 0, fmt.Errorf("failed to reap pending itineraries: %w", err)
	}

	if n > 0 {
		metrics.Get().ItinerariesTotal.Add(ctx, n, metric.WithAttributes(
			attribute.String("status", string(types.ItineraryStatusFailed)),
			attribute.String("failure_kind", string(types.FailureAbandoned)),
		))
	}
	j.logger.InfoContext(ctx, "Reaped stale pending itineraries",
		slog.Int64("count", n),
		slog.Time("cutoff", cutoff))
	span.SetAttributes(attribute.Int64("reaped", n))
	span.SetStatus(codes.Ok, "")
	return n, nil
}
