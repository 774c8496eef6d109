package types

import (
	"time"

	"github.com/google/uuid"
)

// LlmInteraction is the audit row written for every generation call.
type LlmInteraction struct {
	ID           uuid.UUID `json:"id"`
	ItineraryID  int64     `json:"itinerary_id"`
	UserID       uuid.UUID `json:"user_id"`
	Prompt       string    `json:"prompt"`
	ResponseText string    `json:"response_text"`
	ModelUsed    string    `json:"model_used"`
	LatencyMs    int       `json:"latency_ms"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
