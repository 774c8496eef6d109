package types

// Period is one of the three blocks a plan day is split into.
type Period string

const (
	PeriodMorning   Period = "morning"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
)

// Valid reports whether p is one of the three known periods. Keys are
// case-sensitive.
func (p Period) Valid() bool {
	switch p {
	case PeriodMorning, PeriodAfternoon, PeriodEvening:
		return true
	}
	return false
}

// Plan maps "day_N" to period to "HH:MM-HH:MM" slot to the scheduled activity.
type Plan map[string]map[Period]map[string]ActivityEntry

type ActivityEntry struct {
	PublicationID  int64  `json:"publication_id"`
	Name           string `json:"name,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	IsContinuation bool   `json:"is_continuation,omitempty"`
}

// PublicationUsage is the aggregated use of one publication across a plan.
// DaysUsed holds YYYY-MM-DD dates and HoursUsed holds HH:MM start times.
type PublicationUsage struct {
	PublicationID   int64    `json:"publication_id"`
	TimesUsed       int      `json:"times_used"`
	DaysUsed        []string `json:"days_used"`
	HoursUsed       []string `json:"hours_used"`
	AIEstimatedCost *float64 `json:"ai_estimated_cost,omitempty"`
}

type UpdatePlanRequest struct {
	Plan Plan `json:"plan" validate:"required,dive,dive,keys,oneof=morning afternoon evening,endkeys"`
}
