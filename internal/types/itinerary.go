package types

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

// Date is a calendar date serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days after d.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// DaysBetweenInclusive counts the calendar days from start to end, both included.
func DaysBetweenInclusive(start, end Date) int {
	return int(end.Sub(start.Time).Hours()/24) + 1
}

// ItineraryStatus mirrors the itinerary_status check constraint.
type ItineraryStatus string

const (
	ItineraryStatusPending   ItineraryStatus = "pending"
	ItineraryStatusCompleted ItineraryStatus = "completed"
	ItineraryStatusFailed    ItineraryStatus = "failed"
)

// Scan implements the sql.Scanner interface for ItineraryStatus.
func (s *ItineraryStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan ItineraryStatus: expected string or []byte, got %T", value)
		}
		strVal = string(bytesVal)
	}
	switch ItineraryStatus(strVal) {
	case ItineraryStatusPending, ItineraryStatusCompleted, ItineraryStatusFailed:
		*s = ItineraryStatus(strVal)
		return nil
	default:
		return fmt.Errorf("unknown ItineraryStatus value: %s", strVal)
	}
}

// Value implements the driver.Valuer interface for ItineraryStatus.
func (s ItineraryStatus) Value() (driver.Value, error) {
	switch s {
	case ItineraryStatusPending, ItineraryStatusCompleted, ItineraryStatusFailed:
		return string(s), nil
	default:
		return nil, fmt.Errorf("invalid ItineraryStatus value: %s", s)
	}
}

// FailureKind classifies why an itinerary ended up failed. The human readable
// explanation lives in GeneratedItinerary.
type FailureKind string

const (
	FailureNoPublications   FailureKind = "no_publications"
	FailureLLMNotConfigured FailureKind = "llm_not_configured"
	FailureLLMError         FailureKind = "llm_error"
	FailureLLMTimeout       FailureKind = "llm_timeout"
	FailureEmptyResponse    FailureKind = "empty_response"
	FailureAbandoned        FailureKind = "abandoned"
)

// ItineraryRequest is the body of POST /itineraries/request.
type ItineraryRequest struct {
	Destination   string  `json:"destination" validate:"required,max=200" example:"Buenos Aires"`
	StartDate     string  `json:"start_date" validate:"required,datetime=2006-01-02" example:"2025-03-10"`
	EndDate       string  `json:"end_date" validate:"required,datetime=2006-01-02" example:"2025-03-12"`
	Budget        int     `json:"budget" validate:"gte=0" example:"500"`
	CantPersons   int     `json:"cant_persons" validate:"required,gte=1,lte=50" example:"2"`
	TripType      string  `json:"trip_type" validate:"required,oneof=aventura relax cultural gastronomico familiar romantico negocios" example:"cultural"`
	ArrivalTime   *string `json:"arrival_time,omitempty" validate:"omitempty,datetime=15:04" example:"10:30"`
	DepartureTime *string `json:"departure_time,omitempty" validate:"omitempty,datetime=15:04" example:"18:00"`
	Comments      *string `json:"comments,omitempty" validate:"omitempty,max=1000"`
}

// Itinerary is the persisted request plus its generation outcome.
type Itinerary struct {
	ID                 int64             `json:"id"`
	UserID             uuid.UUID         `json:"user_id"`
	Destination        string            `json:"destination"`
	StartDate          Date              `json:"start_date"`
	EndDate            Date              `json:"end_date"`
	Budget             int               `json:"budget"`
	CantPersons        int               `json:"cant_persons"`
	TripType           string            `json:"trip_type"`
	ArrivalTime        *string           `json:"arrival_time,omitempty"`
	DepartureTime      *string           `json:"departure_time,omitempty"`
	Comments           *string           `json:"comments,omitempty"`
	GeneratedItinerary string            `json:"generated_itinerary"`
	Status             ItineraryStatus   `json:"status"`
	FailureKind        *FailureKind      `json:"failure_kind,omitempty"`
	PublicationIDs     []int64           `json:"publication_ids"`
	CustomPlan         Plan              `json:"custom_plan,omitempty"`
	Validation         *ValidationResult `json:"validation,omitempty"`
	Publications       []PublicationCard `json:"publications"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// TripDays is the inclusive number of calendar days covered by the itinerary.
func (i Itinerary) TripDays() int {
	return DaysBetweenInclusive(i.StartDate, i.EndDate)
}

type PaginatedItineraries struct {
	Items    []Itinerary `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int         `json:"total"`
}
