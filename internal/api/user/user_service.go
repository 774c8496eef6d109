package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

type UserService interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserTravelProfile, error)
	// GetTravelPreferences returns the user's free-text or JSON travel
	// preferences, or nil when none were stored.
	GetTravelPreferences(ctx context.Context, userID uuid.UUID) (*string, error)
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *UserServiceImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserTravelProfile, error) {
	l := s.logger.With(slog.String("method", "GetUserProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Fetching user profile")

	profile, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user profile", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}
	return profile, nil
}

func (s *UserServiceImpl) GetTravelPreferences(ctx context.Context, userID uuid.UUID) (*string, error) {
	profile, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.TravelPreferences == nil || strings.TrimSpace(*profile.TravelPreferences) == "" {
		return nil, nil
	}
	return profile.TravelPreferences, nil
}
