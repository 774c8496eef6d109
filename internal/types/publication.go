package types

import "time"

type PublicationStatus string

const (
	PublicationStatusPending  PublicationStatus = "pending"
	PublicationStatusApproved PublicationStatus = "approved"
	PublicationStatusRejected PublicationStatus = "rejected"
	PublicationStatusDeleted  PublicationStatus = "deleted"
)

// Publication is a curated place or activity. Empty AvailableDays or
// AvailableHours means the publication has no day/hour restriction.
type Publication struct {
	ID             int64             `json:"id"`
	PlaceName      string            `json:"place_name"`
	Country        string            `json:"country"`
	Province       string            `json:"province"`
	City           string            `json:"city"`
	Address        string            `json:"address"`
	Description    string            `json:"description"`
	Status         PublicationStatus `json:"status"`
	Continent      string            `json:"continent,omitempty"`
	Climate        string            `json:"climate,omitempty"`
	Activities     []string          `json:"activities"`
	CostPerDay     *float64          `json:"cost_per_day"`    // nil means free
	DurationMin    *int              `json:"duration_min"`    // minutes
	AvailableDays  []string          `json:"available_days"`  // Spanish weekday names
	AvailableHours []string          `json:"available_hours"` // "HH:MM-HH:MM"
	RatingAvg      float64           `json:"rating_avg"`
	RatingCount    int               `json:"rating_count"`
	Photos         []string          `json:"photos"`
	Categories     []string          `json:"categories"`
	CreatedAt      time.Time         `json:"created_at"`
}

// IsApproved reports whether the publication may enter a pool.
func (p Publication) IsApproved() bool {
	return p.Status == PublicationStatusApproved
}

// PublicationCard is the hydrated publication returned alongside itineraries.
type PublicationCard struct {
	Publication
	IsFavorite bool `json:"is_favorite"`
}

// SelectionPass records which selector pass produced a pool.
type SelectionPass string

const (
	SelectionPassExact   SelectionPass = "exact"
	SelectionPassKeyword SelectionPass = "keyword"
	SelectionPassNone    SelectionPass = "none"
)
