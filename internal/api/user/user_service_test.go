package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserTravelProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserTravelProfile), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetTravelPreferences(t *testing.T) {
	userID := uuid.New()
	prefs := `{"ritmo":"tranquilo"}`
	blank := "   "

	tests := []struct {
		name    string
		profile *types.UserTravelProfile
		err     error
		want    *string
		wantErr bool
	}{
		{name: "stored", profile: &types.UserTravelProfile{ID: userID, TravelPreferences: &prefs}, want: &prefs},
		{name: "none", profile: &types.UserTravelProfile{ID: userID}},
		{name: "blank", profile: &types.UserTravelProfile{ID: userID, TravelPreferences: &blank}},
		{name: "missing user", err: types.ErrNotFound, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepo)
			svc := NewUserService(repo, discardLogger())
			if tt.profile != nil {
				repo.On("GetUserByID", mock.Anything, userID).Return(tt.profile, nil)
			} else {
				repo.On("GetUserByID", mock.Anything, userID).Return(nil, tt.err)
			}

			got, err := svc.GetTravelPreferences(context.Background(), userID)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, types.ErrNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestPostgresUserRepoGetUserByID(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()
	repo := NewPostgresUserRepo(pool, discardLogger())

	userID := uuid.New()
	prefs := "museos y vino"
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	pool.ExpectQuery(`SELECT id, email, role, travel_preferences, created_at\s+FROM users`).
		WithArgs(userID).
		WillReturnRows(pool.NewRows([]string{"id", "email", "role", "travel_preferences", "created_at"}).
			AddRow(userID, "ana@example.com", "premium", &prefs, created))

	got, err := repo.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, types.RolePremium, got.Role)
	assert.Equal(t, "museos y vino", *got.TravelPreferences)
	assert.Equal(t, created, got.CreatedAt)

	pool.ExpectQuery(`FROM users`).WithArgs(userID).WillReturnError(pgx.ErrNoRows)
	_, err = repo.GetUserByID(context.Background(), userID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.NoError(t, pool.ExpectationsWereMet())
}
