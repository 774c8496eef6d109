package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/wanderplan/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/wanderplan/internal/api/generative_ai"
	"github.com/FACorreiaa/wanderplan/internal/api/publication"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

const (
	MaxTripDays      = 30
	errorTextPrefix  = "Error al generar itinerario: "
	noPublicationMsg = "No se encontraron publicaciones aprobadas para el destino %q. Prueba con otro destino o revisa cómo lo escribiste."
)

// PreferencesProvider supplies the user's stored travel preferences.
type PreferencesProvider interface {
	GetTravelPreferences(ctx context.Context, userID uuid.UUID) (*string, error)
}

// InteractionRecorder persists the audit row of a generation call.
type InteractionRecorder interface {
	SaveInteraction(ctx context.Context, interaction *types.LlmInteraction) error
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// RequestItinerary runs the whole generation flow. Empty pools and model
	// failures are reported through the returned itinerary's status, not as
	// errors.
	RequestItinerary(ctx context.Context, userID uuid.UUID, req types.ItineraryRequest) (*types.Itinerary, error)
	GetItinerary(ctx context.Context, userID uuid.UUID, id int64) (*types.Itinerary, error)
	ListUserItineraries(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItineraries, error)
	// ListItinerariesByUser lists ownerID's itineraries for the owner or an admin.
	ListItinerariesByUser(ctx context.Context, requesterID uuid.UUID, role types.Role, ownerID uuid.UUID, page, pageSize int) (*types.PaginatedItineraries, error)
	DeleteItinerary(ctx context.Context, userID uuid.UUID, id int64) error
	UpdateCustomPlan(ctx context.Context, userID uuid.UUID, id int64, plan types.Plan) (*types.ValidationResult, error)
	ValidatePlan(ctx context.Context, req types.ValidatePlanRequest) (*types.ValidationResult, error)
}

type ServiceImpl struct {
	logger       *slog.Logger
	repo         Repository
	publications publication.Service
	preferences  PreferencesProvider
	llm          generativeAI.TextGenerator
	interactions InteractionRecorder
	extractor    *UsageExtractor
	llmTimeout   time.Duration
}

func NewServiceImpl(
	repo Repository,
	publications publication.Service,
	preferences PreferencesProvider,
	llm generativeAI.TextGenerator,
	interactions InteractionRecorder,
	llmTimeout time.Duration,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:       logger,
		repo:         repo,
		publications: publications,
		preferences:  preferences,
		llm:          llm,
		interactions: interactions,
		extractor:    NewUsageExtractor(DefaultCues),
		llmTimeout:   llmTimeout,
	}
}

func (s *ServiceImpl) RequestItinerary(ctx context.Context, userID uuid.UUID, req types.ItineraryRequest) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "RequestItinerary", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("destination", req.Destination),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "RequestItinerary"), slog.String("userID", userID.String()))

	start, end, err := parseTripDates(req.StartDate, req.EndDate)
	if err != nil {
		span.SetStatus(codes.Error, "invalid dates")
		return nil, err
	}
	destination := strings.TrimSpace(req.Destination)
	if destination == "" {
		return nil, types.NewInputError("El destino es obligatorio")
	}

	it := &types.Itinerary{
		UserID:        userID,
		Destination:   destination,
		StartDate:     start,
		EndDate:       end,
		Budget:        req.Budget,
		CantPersons:   req.CantPersons,
		TripType:      req.TripType,
		ArrivalTime:   req.ArrivalTime,
		DepartureTime: req.DepartureTime,
		Comments:      req.Comments,
	}
	if err := s.repo.CreatePending(ctx, it); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int64("itinerary.id", it.ID))
	l = l.With(slog.Int64("itineraryID", it.ID))

	var (
		pool  []types.Publication
		prefs *string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pool, err = s.publications.SelectPool(gctx, destination)
		return err
	})
	g.Go(func() error {
		var err error
		prefs, err = s.preferences.GetTravelPreferences(gctx, userID)
		if err != nil {
			l.WarnContext(gctx, "Travel preferences unavailable, continuing without them", slog.Any("error", err))
			prefs = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pool selection failed")
		return nil, fmt.Errorf("failed to select publications: %w", err)
	}
	metrics.Get().PoolSize.Record(ctx, int64(len(pool)))
	span.SetAttributes(attribute.Int("pool.size", len(pool)))

	if len(pool) == 0 {
		l.InfoContext(ctx, "No publications for destination", slog.String("destination", destination))
		return s.fail(ctx, it, fmt.Sprintf(noPublicationMsg, destination), types.FailureNoPublications)
	}

	in := PromptInput{
		Destination:   destination,
		StartDate:     start,
		EndDate:       end,
		Budget:        req.Budget,
		CantPersons:   req.CantPersons,
		TripType:      req.TripType,
		ArrivalTime:   req.ArrivalTime,
		DepartureTime: req.DepartureTime,
		Comments:      req.Comments,
		Preferences:   prefs,
		Pool:          pool,
	}
	prompt := BuildPrompt(in)

	text, latency, genErr := s.generate(ctx, prompt)
	s.recordInteraction(ctx, it, prompt, text, latency, genErr)

	if genErr != nil {
		if ctx.Err() != nil {
			// caller went away; the row stays pending for the janitor
			l.WarnContext(ctx, "Request cancelled during generation", slog.Any("error", ctx.Err()))
			return nil, ctx.Err()
		}
		kind := classifyFailure(genErr)
		l.ErrorContext(ctx, "Itinerary generation failed", slog.String("failure_kind", string(kind)), slog.Any("error", genErr))
		span.RecordError(genErr)
		return s.fail(ctx, it, errorTextPrefix+genErr.Error(), kind)
	}

	text = ensureNotice(text, len(pool), in.TripDays())
	usedIDs := s.extractor.Extract(text, pool)
	poolByID := make(map[int64]types.Publication, len(pool))
	for _, p := range pool {
		poolByID[p.ID] = p
	}
	used := make([]types.Publication, 0, len(usedIDs))
	for _, id := range usedIDs {
		used = append(used, poolByID[id])
	}
	validation := ValidatePlan(PlanInput{
		Usage:       SummarizeUsage(text, start, used),
		Budget:      float64(req.Budget),
		CantPersons: req.CantPersons,
		StartDate:   start.String(),
		EndDate:     end.String(),
	}, poolByID)
	recordValidation(ctx, validation)

	if err := s.repo.MarkCompleted(ctx, it.ID, text, usedIDs, validation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete failed")
		return nil, err
	}
	it.Status = types.ItineraryStatusCompleted
	it.GeneratedItinerary = text
	it.PublicationIDs = usedIDs
	it.Validation = validation
	it.Publications = s.cards(ctx, userID, usedIDs)
	recordOutcome(ctx, it)

	l.InfoContext(ctx, "Itinerary completed",
		slog.Int("pool_size", len(pool)),
		slog.Int("used", len(usedIDs)),
		slog.Bool("valid", validation.Valid))
	span.SetStatus(codes.Ok, "itinerary completed")
	return it, nil
}

// generate calls the model under the configured timeout. An empty answer is
// reported as ErrEmptyLLMResponse.
func (s *ServiceImpl) generate(ctx context.Context, prompt string) (string, time.Duration, error) {
	llmCtx := ctx
	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.llm.GenerateText(llmCtx, prompt)
	latency := time.Since(start)
	metrics.Get().LLMRequestDurationSeconds.Record(ctx, latency.Seconds(),
		metric.WithAttributes(attribute.String("model", s.llm.Model()), attribute.Bool("error", err != nil)))
	if err != nil {
		if errors.Is(llmCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return "", latency, err
	}
	if strings.TrimSpace(text) == "" {
		return "", latency, types.ErrEmptyLLMResponse
	}
	return text, latency, nil
}

func (s *ServiceImpl) recordInteraction(ctx context.Context, it *types.Itinerary, prompt, text string, latency time.Duration, genErr error) {
	if s.interactions == nil {
		return
	}
	interaction := &types.LlmInteraction{
		ItineraryID:  it.ID,
		UserID:       it.UserID,
		Prompt:       prompt,
		ResponseText: text,
		ModelUsed:    s.llm.Model(),
		LatencyMs:    int(latency.Milliseconds()),
	}
	if genErr != nil {
		msg := genErr.Error()
		interaction.ErrorMessage = &msg
	}
	if err := s.interactions.SaveInteraction(context.WithoutCancel(ctx), interaction); err != nil {
		s.logger.WarnContext(ctx, "Failed to save llm interaction",
			slog.Int64("itineraryID", it.ID), slog.Any("error", err))
	}
}

func (s *ServiceImpl) fail(ctx context.Context, it *types.Itinerary, text string, kind types.FailureKind) (*types.Itinerary, error) {
	if err := s.repo.MarkFailed(ctx, it.ID, text, kind); err != nil {
		return nil, err
	}
	it.Status = types.ItineraryStatusFailed
	it.GeneratedItinerary = text
	it.FailureKind = &kind
	it.PublicationIDs = []int64{}
	it.Publications = []types.PublicationCard{}
	recordOutcome(ctx, it)
	return it, nil
}

func classifyFailure(err error) types.FailureKind {
	switch {
	case errors.Is(err, types.ErrLLMNotConfigured):
		return types.FailureLLMNotConfigured
	case errors.Is(err, context.DeadlineExceeded):
		return types.FailureLLMTimeout
	case errors.Is(err, types.ErrEmptyLLMResponse):
		return types.FailureEmptyResponse
	default:
		return types.FailureLLMError
	}
}

func (s *ServiceImpl) GetItinerary(ctx context.Context, userID uuid.UUID, id int64) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GetItinerary", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
	))
	defer span.End()

	it, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	it.Publications = s.cards(ctx, userID, it.PublicationIDs)
	return it, nil
}

func (s *ServiceImpl) ListUserItineraries(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItineraries, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ListUserItineraries", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("page", page),
	))
	defer span.End()

	return s.list(ctx, userID, userID, page, pageSize)
}

func (s *ServiceImpl) ListItinerariesByUser(ctx context.Context, requesterID uuid.UUID, role types.Role, ownerID uuid.UUID, page, pageSize int) (*types.PaginatedItineraries, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ListItinerariesByUser", trace.WithAttributes(
		attribute.String("owner.id", ownerID.String()),
		attribute.String("requester.role", string(role)),
	))
	defer span.End()

	if requesterID != ownerID && role != types.RoleAdmin {
		span.SetStatus(codes.Error, "forbidden")
		return nil, types.ErrForbidden
	}
	return s.list(ctx, requesterID, ownerID, page, pageSize)
}

// list pages ownerID's itineraries; favorites are those of viewerID.
func (s *ServiceImpl) list(ctx context.Context, viewerID, ownerID uuid.UUID, page, pageSize int) (*types.PaginatedItineraries, error) {
	page = max(page, 1)
	if pageSize < 1 {
		pageSize = 20
	}
	items, total, err := s.repo.ListByUser(ctx, ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	// one card lookup for the whole page
	var ids []int64
	for _, it := range items {
		ids = append(ids, it.PublicationIDs...)
	}
	byID := make(map[int64]types.PublicationCard)
	for _, c := range s.cards(ctx, viewerID, ids) {
		byID[c.ID] = c
	}
	for i := range items {
		cards := make([]types.PublicationCard, 0, len(items[i].PublicationIDs))
		for _, id := range items[i].PublicationIDs {
			if c, ok := byID[id]; ok {
				cards = append(cards, c)
			}
		}
		items[i].Publications = cards
	}

	return &types.PaginatedItineraries{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// cards hydrates ids; lookup failures degrade to an empty list.
func (s *ServiceImpl) cards(ctx context.Context, userID uuid.UUID, ids []int64) []types.PublicationCard {
	if len(ids) == 0 {
		return []types.PublicationCard{}
	}
	cards, err := s.publications.GetCards(ctx, userID, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to hydrate publications", slog.Int("count", len(ids)), slog.Any("error", err))
		return []types.PublicationCard{}
	}
	return cards
}

func (s *ServiceImpl) DeleteItinerary(ctx context.Context, userID uuid.UUID, id int64) error {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "DeleteItinerary", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
	))
	defer span.End()

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *ServiceImpl) UpdateCustomPlan(ctx context.Context, userID uuid.UUID, id int64, plan types.Plan) (*types.ValidationResult, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "UpdateCustomPlan", trace.WithAttributes(
		attribute.Int64("itinerary.id", id),
	))
	defer span.End()

	if len(plan) == 0 {
		return nil, types.NewInputError("El plan no puede estar vacío")
	}
	it, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	pubs, err := s.publications.GetByIDs(ctx, planEntryIDs(plan))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	validation := ValidatePlan(PlanInput{
		CustomPlan:  plan,
		Budget:      float64(it.Budget),
		CantPersons: it.CantPersons,
		StartDate:   it.StartDate.String(),
		EndDate:     it.EndDate.String(),
	}, pubs)
	recordValidation(ctx, validation)

	if err := s.repo.UpdateCustomPlan(ctx, id, userID, plan, validation); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return validation, nil
}

func (s *ServiceImpl) ValidatePlan(ctx context.Context, req types.ValidatePlanRequest) (*types.ValidationResult, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "ValidatePlan")
	defer span.End()

	hasUsage, hasPlan := len(req.Usage) > 0, len(req.CustomPlan) > 0
	if hasUsage == hasPlan {
		return nil, types.NewInputError("Envía exactamente uno de los campos usage o custom_plan")
	}

	in := PlanInput{
		Budget:      req.Budget,
		CantPersons: req.CantPersons,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	var ids []int64
	if hasUsage {
		in.Usage = req.Usage
		ids = PlanPublicationIDs(req.Usage)
	} else {
		in.CustomPlan = req.CustomPlan
		ids = planEntryIDs(req.CustomPlan)
	}

	pubs, err := s.publications.GetByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	validation := ValidatePlan(in, pubs)
	recordValidation(ctx, validation)
	return validation, nil
}

func planEntryIDs(plan types.Plan) []int64 {
	seen := map[int64]struct{}{}
	ids := make([]int64, 0)
	for _, periods := range plan {
		for _, slots := range periods {
			for _, entry := range slots {
				if entry.PublicationID == 0 {
					continue
				}
				if _, ok := seen[entry.PublicationID]; ok {
					continue
				}
				seen[entry.PublicationID] = struct{}{}
				ids = append(ids, entry.PublicationID)
			}
		}
	}
	return ids
}

func parseTripDates(startRaw, endRaw string) (types.Date, types.Date, error) {
	start, err := types.ParseDate(startRaw)
	if err != nil {
		return types.Date{}, types.Date{}, types.NewInputError("La fecha de inicio debe tener el formato AAAA-MM-DD")
	}
	end, err := types.ParseDate(endRaw)
	if err != nil {
		return types.Date{}, types.Date{}, types.NewInputError("La fecha de fin debe tener el formato AAAA-MM-DD")
	}
	if end.Before(start.Time) {
		return types.Date{}, types.Date{}, types.NewInputError("La fecha de fin no puede ser anterior a la fecha de inicio")
	}
	if types.DaysBetweenInclusive(start, end) > MaxTripDays {
		return types.Date{}, types.Date{}, types.NewInputError(fmt.Sprintf("El viaje no puede durar más de %d días", MaxTripDays))
	}
	return start, end, nil
}

func recordOutcome(ctx context.Context, it *types.Itinerary) {
	attrs := []attribute.KeyValue{attribute.String("status", string(it.Status))}
	if it.FailureKind != nil {
		attrs = append(attrs, attribute.String("failure_kind", string(*it.FailureKind)))
	}
	metrics.Get().ItinerariesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func recordValidation(ctx context.Context, v *types.ValidationResult) {
	m := metrics.Get()
	for _, e := range v.Errors {
		m.ValidationIssuesTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(e.Type)), attribute.String("severity", "error")))
	}
	for _, w := range v.Warnings {
		m.ValidationIssuesTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(w.Type)), attribute.String("severity", "warning")))
	}
}
