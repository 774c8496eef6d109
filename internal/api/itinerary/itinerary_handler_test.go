package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/wanderplan/internal/api/auth"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

// MockService is a mock implementation of Service
type MockService struct {
	mock.Mock
}

func (m *MockService) RequestItinerary(ctx context.Context, userID uuid.UUID, req types.ItineraryRequest) (*types.Itinerary, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

func (m *MockService) GetItinerary(ctx context.Context, userID uuid.UUID, id int64) (*types.Itinerary, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Itinerary), args.Error(1)
}

func (m *MockService) ListUserItineraries(ctx context.Context, userID uuid.UUID, page, pageSize int) (*types.PaginatedItineraries, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PaginatedItineraries), args.Error(1)
}

func (m *MockService) ListItinerariesByUser(ctx context.Context, requesterID uuid.UUID, role types.Role, ownerID uuid.UUID, page, pageSize int) (*types.PaginatedItineraries, error) {
	args := m.Called(ctx, requesterID, role, ownerID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PaginatedItineraries), args.Error(1)
}

func (m *MockService) DeleteItinerary(ctx context.Context, userID uuid.UUID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockService) UpdateCustomPlan(ctx context.Context, userID uuid.UUID, id int64, plan types.Plan) (*types.ValidationResult, error) {
	args := m.Called(ctx, userID, id, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ValidationResult), args.Error(1)
}

func (m *MockService) ValidatePlan(ctx context.Context, req types.ValidatePlanRequest) (*types.ValidationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ValidationResult), args.Error(1)
}

func newTestHandler() (*HandlerImpl, *MockService) {
	svc := new(MockService)
	return NewHandler(svc, discardLogger()), svc
}

// authedRequest builds a request carrying the user in context and optional chi URL params.
func authedRequest(method, target, body string, userID uuid.UUID, role types.Role, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	ctx := auth.WithUser(req.Context(), userID.String(), string(role))
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	msg, _ := body["error"].(string)
	return msg
}

const validRequestBody = `{
	"destination": "Buenos Aires",
	"start_date": "2025-03-10",
	"end_date": "2025-03-12",
	"budget": 500,
	"cant_persons": 2,
	"trip_type": "cultural"
}`

func TestRequestItineraryHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("unauthenticated", func(t *testing.T) {
		h, svc := newTestHandler()
		req := httptest.NewRequest(http.MethodPost, "/itineraries/request", strings.NewReader(validRequestBody))
		rr := httptest.NewRecorder()

		h.RequestItineraryHandler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "RequestItinerary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed user id", func(t *testing.T) {
		h, _ := newTestHandler()
		req := httptest.NewRequest(http.MethodPost, "/itineraries/request", strings.NewReader(validRequestBody))
		req = req.WithContext(auth.WithUser(req.Context(), "not-a-uuid", "user"))
		rr := httptest.NewRecorder()

		h.RequestItineraryHandler(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		h, _ := newTestHandler()
		rr := httptest.NewRecorder()

		h.RequestItineraryHandler(rr, authedRequest(http.MethodPost, "/itineraries/request", `{"destination":`, userID, types.RoleUser, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "JSON mal formado")
	})

	t.Run("validation failure", func(t *testing.T) {
		h, svc := newTestHandler()
		rr := httptest.NewRecorder()
		body := strings.Replace(validRequestBody, `"cant_persons": 2`, `"cant_persons": 0`, 1)

		h.RequestItineraryHandler(rr, authedRequest(http.MethodPost, "/itineraries/request", body, userID, types.RoleUser, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "cant_persons")
		svc.AssertNotCalled(t, "RequestItinerary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completed", func(t *testing.T) {
		h, svc := newTestHandler()
		start := mustDate(t, "2025-03-10")
		it := &types.Itinerary{
			ID: 42, UserID: userID, Destination: "Buenos Aires", StartDate: start, EndDate: start.AddDays(2),
			Status: types.ItineraryStatusCompleted, GeneratedItinerary: "Día 1",
			PublicationIDs: []int64{1}, Publications: []types.PublicationCard{},
		}
		svc.On("RequestItinerary", mock.Anything, userID, mock.MatchedBy(func(r types.ItineraryRequest) bool {
			return r.Destination == "Buenos Aires" && r.CantPersons == 2 && r.Budget == 500
		})).Return(it, nil).Once()
		rr := httptest.NewRecorder()

		h.RequestItineraryHandler(rr, authedRequest(http.MethodPost, "/itineraries/request", validRequestBody, userID, types.RoleUser, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got types.Itinerary
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, int64(42), got.ID)
		assert.Equal(t, types.ItineraryStatusCompleted, got.Status)
		assert.Equal(t, "2025-03-10", got.StartDate.String())
		svc.AssertExpectations(t)
	})

	t.Run("failed generation is still 200", func(t *testing.T) {
		h, svc := newTestHandler()
		kind := types.FailureNoPublications
		it := &types.Itinerary{
			ID: 43, Status: types.ItineraryStatusFailed, FailureKind: &kind,
			GeneratedItinerary: "No se encontraron publicaciones aprobadas", PublicationIDs: []int64{},
		}
		svc.On("RequestItinerary", mock.Anything, userID, mock.Anything).Return(it, nil).Once()
		rr := httptest.NewRecorder()

		h.RequestItineraryHandler(rr, authedRequest(http.MethodPost, "/itineraries/request", validRequestBody, userID, types.RoleUser, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "failed", got["status"])
		assert.Equal(t, "no_publications", got["failure_kind"])
	})

	t.Run("input error from service", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("RequestItinerary", mock.Anything, userID, mock.Anything).
			Return(nil, types.NewInputError("La fecha de fin no puede ser anterior a la fecha de inicio")).Once()
		rr := httptest.NewRecorder()

		h.RequestItineraryHandler(rr, authedRequest(http.MethodPost, "/itineraries/request", validRequestBody, userID, types.RoleUser, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "La fecha de fin no puede ser anterior a la fecha de inicio", decodeError(t, rr))
	})

	t.Run("infrastructure error", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("RequestItinerary", mock.Anything, userID, mock.Anything).
			Return(nil, errors.New("connection refused")).Once()
		rr := httptest.NewRecorder()

		h.RequestItineraryHandler(rr, authedRequest(http.MethodPost, "/itineraries/request", validRequestBody, userID, types.RoleUser, nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, decodeError(t, rr), "connection refused")
	})
}

func TestGetMyItinerariesHandler(t *testing.T) {
	userID := uuid.New()
	h, svc := newTestHandler()
	page := &types.PaginatedItineraries{Items: []types.Itinerary{{ID: 1}}, Page: 2, PageSize: 5, Total: 6}
	svc.On("ListUserItineraries", mock.Anything, userID, 2, 5).Return(page, nil).Once()
	rr := httptest.NewRecorder()

	h.GetMyItinerariesHandler(rr, authedRequest(http.MethodGet, "/itineraries/my-itineraries?page=2&page_size=5", "", userID, types.RoleUser, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got types.PaginatedItineraries
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 6, got.Total)
	require.Len(t, got.Items, 1)
	svc.AssertExpectations(t)
}

func TestGetMyItinerariesHandlerDefaultsPagination(t *testing.T) {
	userID := uuid.New()
	h, svc := newTestHandler()
	svc.On("ListUserItineraries", mock.Anything, userID, 1, 20).
		Return(&types.PaginatedItineraries{Items: []types.Itinerary{}, Page: 1, PageSize: 20}, nil).Once()
	rr := httptest.NewRecorder()

	h.GetMyItinerariesHandler(rr, authedRequest(http.MethodGet, "/itineraries/my-itineraries?page=-3&page_size=abc", "", userID, types.RoleUser, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	svc.AssertExpectations(t)
}

func TestGetItinerariesByUserHandler(t *testing.T) {
	requester, owner := uuid.New(), uuid.New()

	t.Run("forbidden", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("ListItinerariesByUser", mock.Anything, requester, types.RoleUser, owner, 1, 20).
			Return(nil, types.ErrForbidden).Once()
		rr := httptest.NewRecorder()

		h.GetItinerariesByUserHandler(rr, authedRequest(http.MethodGet, "/itineraries/by-user/"+owner.String(), "", requester, types.RoleUser,
			map[string]string{"userID": owner.String()}))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("ListItinerariesByUser", mock.Anything, requester, types.RoleAdmin, owner, 1, 20).
			Return(&types.PaginatedItineraries{Items: []types.Itinerary{}, Page: 1, PageSize: 20}, nil).Once()
		rr := httptest.NewRecorder()

		h.GetItinerariesByUserHandler(rr, authedRequest(http.MethodGet, "/itineraries/by-user/"+owner.String(), "", requester, types.RoleAdmin,
			map[string]string{"userID": owner.String()}))

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("bad owner id", func(t *testing.T) {
		h, _ := newTestHandler()
		rr := httptest.NewRecorder()

		h.GetItinerariesByUserHandler(rr, authedRequest(http.MethodGet, "/itineraries/by-user/xyz", "", requester, types.RoleAdmin,
			map[string]string{"userID": "xyz"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetItineraryHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("found", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("GetItinerary", mock.Anything, userID, int64(7)).
			Return(&types.Itinerary{ID: 7, Status: types.ItineraryStatusPending, PublicationIDs: []int64{}}, nil).Once()
		rr := httptest.NewRecorder()

		h.GetItineraryHandler(rr, authedRequest(http.MethodGet, "/itineraries/7", "", userID, types.RoleUser, map[string]string{"id": "7"}))

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("GetItinerary", mock.Anything, userID, int64(8)).Return(nil, types.ErrNotFound).Once()
		rr := httptest.NewRecorder()

		h.GetItineraryHandler(rr, authedRequest(http.MethodGet, "/itineraries/8", "", userID, types.RoleUser, map[string]string{"id": "8"}))

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Itinerario no encontrado", decodeError(t, rr))
	})

	t.Run("invalid id", func(t *testing.T) {
		h, svc := newTestHandler()
		rr := httptest.NewRecorder()

		h.GetItineraryHandler(rr, authedRequest(http.MethodGet, "/itineraries/abc", "", userID, types.RoleUser, map[string]string{"id": "abc"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "GetItinerary", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteItineraryHandler(t *testing.T) {
	userID := uuid.New()
	h, svc := newTestHandler()
	svc.On("DeleteItinerary", mock.Anything, userID, int64(3)).Return(nil).Once()
	svc.On("DeleteItinerary", mock.Anything, userID, int64(4)).Return(types.ErrNotFound).Once()

	rr := httptest.NewRecorder()
	h.DeleteItineraryHandler(rr, authedRequest(http.MethodDelete, "/itineraries/3", "", userID, types.RoleUser, map[string]string{"id": "3"}))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = httptest.NewRecorder()
	h.DeleteItineraryHandler(rr, authedRequest(http.MethodDelete, "/itineraries/4", "", userID, types.RoleUser, map[string]string{"id": "4"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	svc.AssertExpectations(t)
}

func TestUpdatePlanHandler(t *testing.T) {
	userID := uuid.New()
	body := `{"plan":{"day_1":{"morning":{"09:00-10:00":{"publication_id":1,"name":"Museo"}}}}}`

	t.Run("stores and returns validation", func(t *testing.T) {
		h, svc := newTestHandler()
		result := &types.ValidationResult{Valid: true, Errors: []types.ValidationIssue{}, Warnings: []types.ValidationIssue{}, RealTotalCost: 40}
		svc.On("UpdateCustomPlan", mock.Anything, userID, int64(9), mock.MatchedBy(func(p types.Plan) bool {
			return p["day_1"][types.PeriodMorning]["09:00-10:00"].PublicationID == 1
		})).Return(result, nil).Once()
		rr := httptest.NewRecorder()

		h.UpdatePlanHandler(rr, authedRequest(http.MethodPut, "/itineraries/9/plan", body, userID, types.RoleUser, map[string]string{"id": "9"}))

		require.Equal(t, http.StatusOK, rr.Code)
		var got types.ValidationResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.True(t, got.Valid)
		assert.InDelta(t, 40.0, got.RealTotalCost, 0.001)
		svc.AssertExpectations(t)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		h, svc := newTestHandler()
		rr := httptest.NewRecorder()

		h.UpdatePlanHandler(rr, authedRequest(http.MethodPut, "/itineraries/9/plan", `{"plan":{},"extra":1}`, userID, types.RoleUser, map[string]string{"id": "9"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "extra")
		svc.AssertNotCalled(t, "UpdateCustomPlan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown period rejected", func(t *testing.T) {
		h, svc := newTestHandler()
		rr := httptest.NewRecorder()
		body := `{"plan":{"day_1":{"Morning":{"09:00-10:00":{"publication_id":99}}}}}`

		h.UpdatePlanHandler(rr, authedRequest(http.MethodPut, "/itineraries/9/plan", body, userID, types.RoleUser, map[string]string{"id": "9"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "morning, afternoon, evening")
		svc.AssertNotCalled(t, "UpdateCustomPlan", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestValidatePlanHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("usage shape", func(t *testing.T) {
		h, svc := newTestHandler()
		body := `{"budget":100,"cant_persons":2,"start_date":"2025-03-10","end_date":"2025-03-12",
			"usage":[{"publication_id":1,"times_used":1,"days_used":["2025-03-10"],"hours_used":[]}]}`
		result := &types.ValidationResult{
			Valid:    false,
			Errors:   []types.ValidationIssue{{Type: types.IssueBudgetExceeded, Message: "El costo total supera el presupuesto"}},
			Warnings: []types.ValidationIssue{},
		}
		svc.On("ValidatePlan", mock.Anything, mock.MatchedBy(func(r types.ValidatePlanRequest) bool {
			return len(r.Usage) == 1 && r.Usage[0].PublicationID == 1 && r.CustomPlan == nil
		})).Return(result, nil).Once()
		rr := httptest.NewRecorder()

		h.ValidatePlanHandler(rr, authedRequest(http.MethodPost, "/itineraries/validate", body, userID, types.RoleUser, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var got types.ValidationResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.False(t, got.Valid)
		require.Len(t, got.Errors, 1)
		assert.Equal(t, types.IssueBudgetExceeded, got.Errors[0].Type)
		svc.AssertExpectations(t)
	})

	t.Run("both shapes", func(t *testing.T) {
		h, svc := newTestHandler()
		svc.On("ValidatePlan", mock.Anything, mock.Anything).
			Return(nil, types.NewInputError("Envía exactamente uno de los campos usage o custom_plan")).Once()
		rr := httptest.NewRecorder()
		body := `{"cant_persons":1,"start_date":"2025-03-10","end_date":"2025-03-12"}`

		h.ValidatePlanHandler(rr, authedRequest(http.MethodPost, "/itineraries/validate", body, userID, types.RoleUser, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Envía exactamente uno de los campos usage o custom_plan", decodeError(t, rr))
	})

	t.Run("unknown period in custom plan", func(t *testing.T) {
		h, svc := newTestHandler()
		rr := httptest.NewRecorder()
		body := `{"cant_persons":1,"start_date":"2025-03-10","end_date":"2025-03-12",
			"custom_plan":{"day_1":{"night":{"22:00-23:00":{"publication_id":98}}}}}`

		h.ValidatePlanHandler(rr, authedRequest(http.MethodPost, "/itineraries/validate", body, userID, types.RoleUser, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr), "morning, afternoon, evening")
		svc.AssertNotCalled(t, "ValidatePlan", mock.Anything, mock.Anything)
	})
}
