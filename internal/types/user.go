package types

import (
	"time"

	"github.com/google/uuid"
)

// UserTravelProfile is the slice of the user record the itinerary engine reads.
// TravelPreferences holds either free text or a JSON object.
type UserTravelProfile struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Role              Role      `json:"role"`
	TravelPreferences *string   `json:"travel_preferences,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
