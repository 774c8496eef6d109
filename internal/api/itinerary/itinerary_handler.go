package itinerary

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/wanderplan/internal/api"
	"github.com/FACorreiaa/wanderplan/internal/api/auth"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	RequestItineraryHandler(w http.ResponseWriter, r *http.Request)
	GetMyItinerariesHandler(w http.ResponseWriter, r *http.Request)
	GetItinerariesByUserHandler(w http.ResponseWriter, r *http.Request)
	GetItineraryHandler(w http.ResponseWriter, r *http.Request)
	DeleteItineraryHandler(w http.ResponseWriter, r *http.Request)
	UpdatePlanHandler(w http.ResponseWriter, r *http.Request)
	ValidatePlanHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// RequestItineraryHandler godoc
// @Summary      Generate an itinerary
// @Description  Selects approved publications for the destination, asks the language model for a day-by-day plan and validates it. Empty pools and model failures return 200 with status=failed.
// @Tags         Itineraries
// @Accept       json
// @Produce      json
// @Param        request body types.ItineraryRequest true "Trip request"
// @Success      200 {object} types.Itinerary
// @Failure      400 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Failure      403 {object} map[string]interface{}
// @Failure      429 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /itineraries/request [post]
func (h *HandlerImpl) RequestItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "RequestItineraryHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/request"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "RequestItineraryHandler"))

	userID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}

	var req types.ItineraryRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		l.WarnContext(ctx, "Invalid itinerary request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.String("destination", req.Destination))

	it, err := h.service.RequestItinerary(ctx, userID, req)
	if err != nil {
		h.writeError(w, r, span, l, err, "Error al generar el itinerario")
		return
	}

	l.InfoContext(ctx, "Itinerary request handled",
		slog.Int64("itineraryID", it.ID),
		slog.String("status", string(it.Status)))
	span.SetAttributes(attribute.Int64("itinerary.id", it.ID), attribute.String("itinerary.status", string(it.Status)))
	span.SetStatus(codes.Ok, "Itinerary handled")
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

// GetMyItinerariesHandler godoc
// @Summary      List my itineraries
// @Description  Returns the authenticated user's itineraries, newest first, with hydrated publications.
// @Tags         Itineraries
// @Produce      json
// @Param        page      query int false "Page number (default 1)"
// @Param        page_size query int false "Page size (default 20, max 100)"
// @Success      200 {object} types.PaginatedItineraries
// @Failure      401 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /itineraries/my-itineraries [get]
func (h *HandlerImpl) GetMyItinerariesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetMyItinerariesHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/my-itineraries"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetMyItinerariesHandler"))

	userID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}
	page, pageSize := api.ParsePagination(r)

	result, err := h.service.ListUserItineraries(ctx, userID, page, pageSize)
	if err != nil {
		h.writeError(w, r, span, l, err, "Error al obtener los itinerarios")
		return
	}
	span.SetStatus(codes.Ok, "Itineraries listed")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// GetItinerariesByUserHandler godoc
// @Summary      List a user's itineraries
// @Description  Same as my-itineraries for any user id. Allowed for the user themself or an admin.
// @Tags         Itineraries
// @Produce      json
// @Param        userID    path  string true  "User ID"
// @Param        page      query int    false "Page number (default 1)"
// @Param        page_size query int    false "Page size (default 20, max 100)"
// @Success      200 {object} types.PaginatedItineraries
// @Failure      400 {object} map[string]interface{}
// @Failure      403 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /itineraries/by-user/{userID} [get]
func (h *HandlerImpl) GetItinerariesByUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetItinerariesByUserHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/by-user/{userID}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetItinerariesByUserHandler"))

	requesterID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}
	role, _ := auth.GetUserRoleFromContext(ctx)

	ownerIDStr := chi.URLParam(r, "userID")
	ownerID, err := uuid.Parse(ownerIDStr)
	if err != nil {
		l.WarnContext(ctx, "Invalid owner ID", slog.String("userID", ownerIDStr))
		span.SetStatus(codes.Error, "Invalid user ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "ID de usuario inválido")
		return
	}
	page, pageSize := api.ParsePagination(r)

	result, err := h.service.ListItinerariesByUser(ctx, requesterID, types.Role(role), ownerID, page, pageSize)
	if err != nil {
		h.writeError(w, r, span, l, err, "Error al obtener los itinerarios")
		return
	}
	span.SetStatus(codes.Ok, "Itineraries listed")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// GetItineraryHandler godoc
// @Summary      Get an itinerary
// @Tags         Itineraries
// @Produce      json
// @Param        id path int true "Itinerary ID"
// @Success      200 {object} types.Itinerary
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /itineraries/{id} [get]
func (h *HandlerImpl) GetItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetItineraryHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetItineraryHandler"))

	userID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}
	id, ok := h.itineraryID(w, r, span)
	if !ok {
		return
	}

	it, err := h.service.GetItinerary(ctx, userID, id)
	if err != nil {
		h.writeError(w, r, span, l, err, "Error al obtener el itinerario")
		return
	}
	span.SetStatus(codes.Ok, "Itinerary found")
	api.WriteJSONResponse(w, r, http.StatusOK, it)
}

// DeleteItineraryHandler godoc
// @Summary      Delete an itinerary
// @Tags         Itineraries
// @Param        id path int true "Itinerary ID"
// @Success      204
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /itineraries/{id} [delete]
func (h *HandlerImpl) DeleteItineraryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "DeleteItineraryHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{id}"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "DeleteItineraryHandler"))

	userID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}
	id, ok := h.itineraryID(w, r, span)
	if !ok {
		return
	}

	if err := h.service.DeleteItinerary(ctx, userID, id); err != nil {
		h.writeError(w, r, span, l, err, "Error al eliminar el itinerario")
		return
	}
	l.InfoContext(ctx, "Itinerary deleted", slog.Int64("itineraryID", id))
	span.SetStatus(codes.Ok, "Itinerary deleted")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

// UpdatePlanHandler godoc
// @Summary      Store a custom plan
// @Description  Replaces the custom plan of an owned itinerary and returns its validation.
// @Tags         Itineraries
// @Accept       json
// @Produce      json
// @Param        id      path int                     true "Itinerary ID"
// @Param        request body types.UpdatePlanRequest true "Custom plan"
// @Success      200 {object} types.ValidationResult
// @Failure      400 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /itineraries/{id}/plan [put]
func (h *HandlerImpl) UpdatePlanHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "UpdatePlanHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/{id}/plan"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdatePlanHandler"))

	userID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}
	id, ok := h.itineraryID(w, r, span)
	if !ok {
		return
	}

	var req types.UpdatePlanRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.UpdateCustomPlan(ctx, userID, id, req.Plan)
	if err != nil {
		h.writeError(w, r, span, l, err, "Error al guardar el plan")
		return
	}
	span.SetAttributes(attribute.Bool("plan.valid", result.Valid))
	span.SetStatus(codes.Ok, "Plan stored")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// ValidatePlanHandler godoc
// @Summary      Validate a plan
// @Description  Validates either an AI-usage summary or a custom plan without storing it.
// @Tags         Itineraries
// @Accept       json
// @Produce      json
// @Param        request body types.ValidatePlanRequest true "Plan to validate"
// @Success      200 {object} types.ValidationResult
// @Failure      400 {object} map[string]interface{}
// @Failure      500 {object} map[string]interface{}
// @Security     BearerAuth
// @Router       /itineraries/validate [post]
func (h *HandlerImpl) ValidatePlanHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ValidatePlanHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/itineraries/validate"),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ValidatePlanHandler"))

	if _, ok := h.userID(w, r, span, l); !ok {
		return
	}

	var req types.ValidatePlanRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := api.ValidateStruct(req); err != nil {
		span.SetStatus(codes.Error, "Invalid request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ValidatePlan(ctx, req)
	if err != nil {
		h.writeError(w, r, span, l, err, "Error al validar el plan")
		return
	}
	span.SetAttributes(attribute.Bool("plan.valid", result.Valid))
	span.SetStatus(codes.Ok, "Plan validated")
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

func (h *HandlerImpl) userID(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger) (uuid.UUID, bool) {
	ctx := r.Context()
	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Autenticación requerida")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "ID de usuario inválido")
		return uuid.Nil, false
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))
	return userID, true
}

func (h *HandlerImpl) itineraryID(w http.ResponseWriter, r *http.Request, span trace.Span) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		span.SetStatus(codes.Error, "Invalid itinerary ID")
		api.ErrorResponse(w, r, http.StatusBadRequest, "ID de itinerario inválido")
		return 0, false
	}
	span.SetAttributes(attribute.Int64("itinerary.id", id))
	return id, true
}

// writeError maps service errors onto HTTP statuses.
func (h *HandlerImpl) writeError(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger, err error, fallback string) {
	ctx := r.Context()
	var inputErr *types.InputError
	switch {
	case errors.As(err, &inputErr):
		span.SetStatus(codes.Error, "Invalid input")
		api.ErrorResponse(w, r, http.StatusBadRequest, inputErr.Message)
	case errors.Is(err, types.ErrInvalidInput):
		span.SetStatus(codes.Error, "Invalid input")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Solicitud inválida")
	case errors.Is(err, types.ErrNotFound):
		span.SetStatus(codes.Error, "Not found")
		api.ErrorResponse(w, r, http.StatusNotFound, "Itinerario no encontrado")
	case errors.Is(err, types.ErrForbidden):
		span.SetStatus(codes.Error, "Forbidden")
		api.ErrorResponse(w, r, http.StatusForbidden, "No tiene permisos para ver estos itinerarios")
	default:
		l.ErrorContext(ctx, fallback, slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, fallback)
		api.ErrorResponse(w, r, http.StatusInternalServerError, fallback)
	}
}
