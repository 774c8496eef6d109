package itinerary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/wanderplan/internal/types"
)

// 2025-03-10 is a Monday.
const (
	tripStart = "2025-03-10"
	tripEnd   = "2025-03-16"
)

func priced(id int64, name string, cost float64) types.Publication {
	p := place(id, name)
	p.CostPerDay = &cost
	return p
}

func pubsByID(pubs ...types.Publication) map[int64]types.Publication {
	m := make(map[int64]types.Publication, len(pubs))
	for _, p := range pubs {
		m[p.ID] = p
	}
	return m
}

func usageInput(budget float64, persons int, usage ...types.PublicationUsage) PlanInput {
	return PlanInput{Usage: usage, Budget: budget, CantPersons: persons, StartDate: tripStart, EndDate: tripEnd}
}

func kinds(issues []types.ValidationIssue) []types.IssueKind {
	out := make([]types.IssueKind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Type)
	}
	return out
}

func TestValidatePlanRealCost(t *testing.T) {
	res := ValidatePlan(usageInput(1000, 2, types.PublicationUsage{
		PublicationID: 1, TimesUsed: 2, DaysUsed: []string{"2025-03-10", "2025-03-11"},
	}), pubsByID(priced(1, "Caminito", 50)))

	require.Len(t, res.Publications, 1)
	assert.InDelta(t, 200.0, res.Publications[0].RealCost, 0.001)
	assert.InDelta(t, 200.0, res.RealTotalCost, 0.001)
	assert.Equal(t, 20.0, res.UtilizationPercent)
	assert.True(t, res.Valid)
	assert.Equal(t, "Caminito", res.Publications[0].Name)
	assert.True(t, res.Publications[0].AvailabilityValid)
}

func TestValidatePlanCostCountsEveryListedDay(t *testing.T) {
	res := ValidatePlan(usageInput(1000, 1, types.PublicationUsage{
		PublicationID: 1, TimesUsed: 2, DaysUsed: []string{"2025-03-10", "2025-03-10"},
	}), pubsByID(priced(1, "Caminito", 50)))

	assert.InDelta(t, 100.0, res.RealTotalCost, 0.001)
}

func TestValidatePlanOverBudget(t *testing.T) {
	res := ValidatePlan(usageInput(100, 1, types.PublicationUsage{
		PublicationID: 1, TimesUsed: 2, DaysUsed: []string{"2025-03-10", "2025-03-11"},
	}), pubsByID(priced(1, "Tour en bicicleta", 80)))

	assert.InDelta(t, 160.0, res.RealTotalCost, 0.001)
	assert.True(t, res.HasError(types.IssueBudgetExceeded))
	assert.False(t, res.Valid)
	assert.Equal(t, 160.0, res.UtilizationPercent)
}

func TestValidatePlanUnderutilizedBudget(t *testing.T) {
	res := ValidatePlan(usageInput(1000, 1, types.PublicationUsage{
		PublicationID: 1, TimesUsed: 2, DaysUsed: []string{"2025-03-10", "2025-03-11"},
	}), pubsByID(priced(1, "Tour en bicicleta", 50)))

	assert.InDelta(t, 100.0, res.RealTotalCost, 0.001)
	assert.Empty(t, res.Errors)
	assert.True(t, res.Valid)
	assert.Equal(t, []types.IssueKind{types.IssueUnderutilizedBudget}, kinds(res.Warnings))
	assert.Equal(t, 10.0, res.UtilizationPercent)
}

func TestValidatePlanFreePublicationAndZeroBudget(t *testing.T) {
	res := ValidatePlan(usageInput(0, 3, types.PublicationUsage{
		PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"2025-03-10"},
	}), pubsByID(place(1, "Plaza de Mayo")))

	assert.True(t, res.Valid)
	assert.Zero(t, res.RealTotalCost)
	assert.Zero(t, res.UtilizationPercent)
	assert.Empty(t, res.Warnings)
}

func TestValidatePlanDayAvailability(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		day       string
		wantError bool
	}{
		{"monday on tuesday-only", []string{"martes"}, "2025-03-10", true},
		{"english alias", []string{"Tuesday"}, "2025-03-10", true},
		{"accented name matches", []string{"Miércoles"}, "2025-03-12", false},
		{"upper case matches", []string{"LUNES", "viernes"}, "2025-03-10", false},
		{"no restriction", nil, "2025-03-15", false},
		{"saturday", []string{"sábado"}, "2025-03-15", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := place(1, "Feria de San Telmo")
			p.AvailableDays = tt.available
			res := ValidatePlan(usageInput(100, 1, types.PublicationUsage{
				PublicationID: 1, TimesUsed: 1, DaysUsed: []string{tt.day},
			}), pubsByID(p))

			assert.Equal(t, tt.wantError, res.HasError(types.IssueDayNotAvailable))
			assert.Equal(t, !tt.wantError, res.Publications[0].AvailabilityValid)
		})
	}
}

func TestValidatePlanTimeAvailability(t *testing.T) {
	tests := []struct {
		name      string
		ranges    []string
		hour      string
		wantError bool
	}{
		{"outside range", []string{"09:00-12:00"}, "13:00", true},
		{"inside range", []string{"09:00-12:00"}, "10:30", false},
		{"inclusive end", []string{"09:00-12:00"}, "12:00", false},
		{"second range", []string{"09:00-12:00", "14:00-18:00"}, "15:00", false},
		{"overnight inside", []string{"22:00-02:00"}, "01:00", false},
		{"overnight outside", []string{"22:00-02:00"}, "03:00", true},
		{"malformed hour", []string{"09:00-12:00"}, "mediodía", true},
		{"no restriction", nil, "03:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := place(1, "Bar Sur")
			p.AvailableHours = tt.ranges
			res := ValidatePlan(usageInput(100, 1, types.PublicationUsage{
				PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"2025-03-10"}, HoursUsed: []string{tt.hour},
			}), pubsByID(p))

			assert.Equal(t, tt.wantError, res.HasError(types.IssueTimeNotAvailable))
		})
	}
}

func TestValidatePlanPublicationNotFound(t *testing.T) {
	res := ValidatePlan(usageInput(100, 1, types.PublicationUsage{
		PublicationID: 99, TimesUsed: 1, DaysUsed: []string{"2025-03-10"},
	}), pubsByID())

	require.Len(t, res.Errors, 1)
	assert.Equal(t, types.IssuePublicationNotFound, res.Errors[0].Type)
	require.NotNil(t, res.Errors[0].PublicationID)
	assert.Equal(t, int64(99), *res.Errors[0].PublicationID)
	assert.False(t, res.Valid)
}

func TestValidatePlanDates(t *testing.T) {
	usage := types.PublicationUsage{PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"2025-03-10"}}
	pubs := pubsByID(place(1, "Caminito"))

	t.Run("bad start", func(t *testing.T) {
		in := usageInput(100, 1, usage)
		in.StartDate = "10/03/2025"
		assert.True(t, ValidatePlan(in, pubs).HasError(types.IssueInvalidDateFormat))
	})
	t.Run("end before start", func(t *testing.T) {
		in := usageInput(100, 1, usage)
		in.StartDate, in.EndDate = "2025-03-12", "2025-03-10"
		res := ValidatePlan(in, pubs)
		assert.True(t, res.HasError(types.IssueInvalidDateRange))
		assert.False(t, res.HasError(types.IssueDateOutOfRange))
	})
	t.Run("day outside trip", func(t *testing.T) {
		in := usageInput(100, 1, types.PublicationUsage{PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"2025-04-01"}})
		res := ValidatePlan(in, pubs)
		require.True(t, res.HasError(types.IssueDateOutOfRange))
		assert.Equal(t, "2025-04-01", res.Errors[0].Day)
	})
	t.Run("bad usage day", func(t *testing.T) {
		in := usageInput(100, 1, types.PublicationUsage{PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"lunes"}})
		assert.True(t, ValidatePlan(in, pubs).HasError(types.IssueInvalidDateFormat))
	})
}

func TestValidatePlanCostMismatch(t *testing.T) {
	estimate := 150.0
	exact := 200.0
	pubs := pubsByID(priced(1, "Caminito", 50))

	res := ValidatePlan(usageInput(1000, 2, types.PublicationUsage{
		PublicationID: 1, TimesUsed: 2, DaysUsed: []string{"2025-03-10", "2025-03-11"}, AIEstimatedCost: &estimate,
	}), pubs)
	assert.True(t, res.HasWarning(types.IssueCostMismatch))
	assert.True(t, res.Valid)

	res = ValidatePlan(usageInput(1000, 2, types.PublicationUsage{
		PublicationID: 1, TimesUsed: 2, DaysUsed: []string{"2025-03-10", "2025-03-11"}, AIEstimatedCost: &exact,
	}), pubs)
	assert.False(t, res.HasWarning(types.IssueCostMismatch))
}

func TestValidatePlanCustomPlanUnavailableDay(t *testing.T) {
	p := priced(1, "Feria de Mataderos", 10)
	p.AvailableDays = []string{"sábado"}
	plan := types.Plan{
		"day_3": {
			types.PeriodMorning: {"10:00-12:00": {PublicationID: 1, Name: "Feria de Mataderos"}},
		},
	}

	res := ValidatePlan(PlanInput{CustomPlan: plan, Budget: 100, CantPersons: 1, StartDate: tripStart, EndDate: tripEnd}, pubsByID(p))

	require.True(t, res.HasError(types.IssueDayNotAvailable))
	issue := res.Errors[0]
	require.NotNil(t, issue.PublicationID)
	assert.Equal(t, int64(1), *issue.PublicationID)
	assert.Equal(t, "2025-03-12", issue.Day)
	assert.False(t, res.Valid)
}

func TestAggregatePlan(t *testing.T) {
	plan := types.Plan{
		"day_2": {
			types.PeriodMorning: {"10:00-12:00": {PublicationID: 1, IsContinuation: true}},
		},
		"day_1": {
			types.PeriodEvening:   {"20:00-22:00": {PublicationID: 2, StartTime: "20:30"}},
			types.PeriodMorning:   {"09:00-11:00": {PublicationID: 1}},
			types.PeriodAfternoon: {"14:00-16:00": {PublicationID: 1}, "16:00-17:00": {}},
		},
		"dia_uno": {},
	}

	usage, issues := AggregatePlan(plan, mustDate(t, tripStart), true)

	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueInvalidDateFormat, issues[0].Type)
	assert.Equal(t, []types.PublicationUsage{
		{PublicationID: 1, TimesUsed: 2, DaysUsed: []string{"2025-03-10", "2025-03-11"}, HoursUsed: []string{"09:00", "14:00", "10:00"}},
		{PublicationID: 2, TimesUsed: 1, DaysUsed: []string{"2025-03-10"}, HoursUsed: []string{"20:30"}},
	}, usage)
	assert.Equal(t, []int64{1, 2}, PlanPublicationIDs(usage))
}

func TestValidatePlanCustomPlanUnknownPeriods(t *testing.T) {
	plan := types.Plan{
		"day_1": {
			"Morning": {"09:00-10:00": {PublicationID: 99}},
			"night":   {"22:00-23:00": {PublicationID: 98}},
		},
	}

	res := ValidatePlan(PlanInput{CustomPlan: plan, Budget: 100, CantPersons: 1, StartDate: tripStart, EndDate: tripEnd}, pubsByID())

	assert.False(t, res.Valid)
	assert.True(t, res.HasError(types.IssueInvalidPeriod))
	assert.True(t, res.HasError(types.IssuePublicationNotFound))
	require.Len(t, res.Publications, 2)
	assert.Equal(t, int64(99), res.Publications[0].PublicationID)
	assert.Equal(t, int64(98), res.Publications[1].PublicationID)
}

func TestAggregatePlanKnownPeriodsFirst(t *testing.T) {
	plan := types.Plan{
		"day_1": {
			"night":             {"22:00-23:00": {PublicationID: 3}},
			types.PeriodEvening: {"20:00-21:00": {PublicationID: 2}},
			types.PeriodMorning: {"09:00-10:00": {PublicationID: 1}},
		},
	}

	usage, issues := AggregatePlan(plan, mustDate(t, tripStart), true)

	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueInvalidPeriod, issues[0].Type)
	assert.Equal(t, "2025-03-10", issues[0].Day)
	assert.Equal(t, []int64{1, 2, 3}, PlanPublicationIDs(usage))
	assert.Equal(t, []string{"22:00"}, usage[2].HoursUsed)
}

func TestValidatePlanValidIffNoErrors(t *testing.T) {
	p := priced(1, "Caminito", 80)
	p.AvailableDays = []string{"martes"}
	p.AvailableHours = []string{"09:00-12:00"}
	inputs := []PlanInput{
		usageInput(1000, 1, types.PublicationUsage{PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"2025-03-11"}, HoursUsed: []string{"10:00"}}),
		usageInput(1000, 1, types.PublicationUsage{PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"2025-03-10"}, HoursUsed: []string{"10:00"}}),
		usageInput(50, 1, types.PublicationUsage{PublicationID: 1, TimesUsed: 1, DaysUsed: []string{"2025-03-11"}}),
		usageInput(1000, 1, types.PublicationUsage{PublicationID: 2, TimesUsed: 1}),
		{Budget: 10, CantPersons: 1, StartDate: "x", EndDate: tripEnd},
	}
	for _, in := range inputs {
		res := ValidatePlan(in, pubsByID(p))
		assert.Equal(t, len(res.Errors) == 0, res.Valid)
		assert.NotNil(t, res.Errors)
		assert.NotNil(t, res.Warnings)
		assert.NotNil(t, res.Publications)
	}
}

func TestSpanishWeekday(t *testing.T) {
	want := []string{"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo"}
	start := mustDate(t, tripStart)
	for i, name := range want {
		assert.Equal(t, name, SpanishWeekday(start.AddDays(i)))
	}
}
