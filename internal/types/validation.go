package types

type IssueKind string

const (
	IssuePublicationNotFound IssueKind = "PUBLICATION_NOT_FOUND"
	IssueDayNotAvailable     IssueKind = "DAY_NOT_AVAILABLE"
	IssueTimeNotAvailable    IssueKind = "TIME_NOT_AVAILABLE"
	IssueInvalidDateFormat   IssueKind = "INVALID_DATE_FORMAT"
	IssueInvalidDateRange    IssueKind = "INVALID_DATE_RANGE"
	IssueDateOutOfRange      IssueKind = "DATE_OUT_OF_RANGE"
	IssueBudgetExceeded      IssueKind = "BUDGET_EXCEEDED"
	IssueInvalidPeriod       IssueKind = "INVALID_PERIOD"

	// warnings
	IssueCostMismatch        IssueKind = "COST_MISMATCH"
	IssueUnderutilizedBudget IssueKind = "UNDERUTILIZED_BUDGET"
)

type ValidationIssue struct {
	Type          IssueKind `json:"type"`
	Message       string    `json:"message"`
	PublicationID *int64    `json:"publication_id,omitempty"`
	Day           string    `json:"day,omitempty"`
	Hour          string    `json:"hour,omitempty"`
}

type PublicationReport struct {
	PublicationID     int64    `json:"publication_id"`
	Name              string   `json:"name"`
	TimesUsed         int      `json:"times_used"`
	DaysUsed          []string `json:"days_used"`
	HoursUsed         []string `json:"hours_used"`
	AIEstimatedCost   *float64 `json:"ai_estimated_cost,omitempty"`
	RealCost          float64  `json:"real_cost"`
	AvailabilityValid bool     `json:"availability_valid"`
}

// ValidationResult is valid exactly when Errors is empty.
type ValidationResult struct {
	Valid              bool                `json:"valid"`
	Errors             []ValidationIssue   `json:"errors"`
	Warnings           []ValidationIssue   `json:"warnings"`
	RealTotalCost      float64             `json:"real_total_cost"`
	Budget             float64             `json:"budget"`
	UtilizationPercent float64             `json:"utilization_percent"`
	Publications       []PublicationReport `json:"publications"`
}

// HasError reports whether the result carries an error of the given kind.
func (v *ValidationResult) HasError(kind IssueKind) bool {
	for _, e := range v.Errors {
		if e.Type == kind {
			return true
		}
	}
	return false
}

func (v *ValidationResult) HasWarning(kind IssueKind) bool {
	for _, w := range v.Warnings {
		if w.Type == kind {
			return true
		}
	}
	return false
}

// ValidatePlanRequest is the body of POST /itineraries/validate. Exactly one of
// Usage and CustomPlan must be set.
type ValidatePlanRequest struct {
	Budget      float64            `json:"budget" validate:"gte=0"`
	CantPersons int                `json:"cant_persons" validate:"required,gte=1"`
	StartDate   string             `json:"start_date" validate:"required"`
	EndDate     string             `json:"end_date" validate:"required"`
	Usage       []PublicationUsage `json:"usage,omitempty" validate:"omitempty,dive"`
	CustomPlan  Plan               `json:"custom_plan,omitempty" validate:"omitempty,dive,dive,keys,oneof=morning afternoon evening,endkeys"`
}
