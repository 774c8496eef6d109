package itinerary

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/wanderplan/internal/api/textnorm"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

const (
	underutilizedRatio = 0.30
	costTolerance      = 0.01
)

// spanishWeekdays is indexed by time.Weekday.
var spanishWeekdays = [7]string{"domingo", "lunes", "martes", "miercoles", "jueves", "viernes", "sabado"}

var weekdayAliases = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var periodOrder = []types.Period{types.PeriodMorning, types.PeriodAfternoon, types.PeriodEvening}

// SpanishWeekday returns the accent-less Spanish name of d's weekday.
func SpanishWeekday(d types.Date) string {
	return spanishWeekdays[d.Weekday()]
}

func parseWeekday(name string) (time.Weekday, bool) {
	n := textnorm.Normalize(name)
	for i, es := range spanishWeekdays {
		if n == es {
			return time.Weekday(i), true
		}
	}
	wd, ok := weekdayAliases[n]
	return wd, ok
}

// PlanInput is what ValidatePlan checks. Usage takes precedence when both
// shapes are set; otherwise CustomPlan is aggregated into usage first.
type PlanInput struct {
	Usage       []types.PublicationUsage
	CustomPlan  types.Plan
	Budget      float64
	CantPersons int
	StartDate   string
	EndDate     string
}

// ValidatePlan checks a plan against the publications it references. pubs
// holds every publication that could be resolved; missing ids are reported,
// never fatal. The result is built fresh on every call.
func ValidatePlan(in PlanInput, pubs map[int64]types.Publication) *types.ValidationResult {
	res := &types.ValidationResult{
		Errors:       []types.ValidationIssue{},
		Warnings:     []types.ValidationIssue{},
		Budget:       in.Budget,
		Publications: []types.PublicationReport{},
	}

	start, startErr := types.ParseDate(in.StartDate)
	end, endErr := types.ParseDate(in.EndDate)
	datesOK := startErr == nil && endErr == nil
	switch {
	case startErr != nil:
		res.Errors = append(res.Errors, types.ValidationIssue{
			Type:    types.IssueInvalidDateFormat,
			Message: fmt.Sprintf("Fecha de inicio inválida: %q (formato esperado AAAA-MM-DD)", in.StartDate),
			Day:     in.StartDate,
		})
	case endErr != nil:
		res.Errors = append(res.Errors, types.ValidationIssue{
			Type:    types.IssueInvalidDateFormat,
			Message: fmt.Sprintf("Fecha de fin inválida: %q (formato esperado AAAA-MM-DD)", in.EndDate),
			Day:     in.EndDate,
		})
	case end.Before(start.Time):
		datesOK = false
		res.Errors = append(res.Errors, types.ValidationIssue{
			Type:    types.IssueInvalidDateRange,
			Message: fmt.Sprintf("La fecha de fin (%s) es anterior a la fecha de inicio (%s)", end, start),
		})
	}
	usage := in.Usage
	if usage == nil && in.CustomPlan != nil {
		var planIssues []types.ValidationIssue
		usage, planIssues = AggregatePlan(in.CustomPlan, start, startErr == nil)
		res.Errors = append(res.Errors, planIssues...)
	}

	persons := max(in.CantPersons, 1)
	for _, u := range usage {
		id := u.PublicationID
		report := types.PublicationReport{
			PublicationID:     id,
			TimesUsed:         u.TimesUsed,
			DaysUsed:          nonNil(u.DaysUsed),
			HoursUsed:         nonNil(u.HoursUsed),
			AIEstimatedCost:   u.AIEstimatedCost,
			AvailabilityValid: true,
		}

		p, ok := pubs[id]
		if !ok {
			report.AvailabilityValid = false
			res.Errors = append(res.Errors, types.ValidationIssue{
				Type:          types.IssuePublicationNotFound,
				Message:       fmt.Sprintf("La publicación %d no existe", id),
				PublicationID: ptr(id),
			})
			res.Publications = append(res.Publications, report)
			continue
		}
		report.Name = p.PlaceName

		for _, day := range u.DaysUsed {
			d, err := types.ParseDate(day)
			if err != nil {
				report.AvailabilityValid = false
				res.Errors = append(res.Errors, types.ValidationIssue{
					Type:          types.IssueInvalidDateFormat,
					Message:       fmt.Sprintf("Fecha inválida %q para %s", day, p.PlaceName),
					PublicationID: ptr(id),
					Day:           day,
				})
				continue
			}
			if datesOK && (d.Before(start.Time) || d.After(end.Time)) {
				report.AvailabilityValid = false
				res.Errors = append(res.Errors, types.ValidationIssue{
					Type:          types.IssueDateOutOfRange,
					Message:       fmt.Sprintf("%s está programado el %s, fuera del viaje (%s a %s)", p.PlaceName, day, start, end),
					PublicationID: ptr(id),
					Day:           day,
				})
			}
			if !dayAvailable(p.AvailableDays, d) {
				report.AvailabilityValid = false
				res.Errors = append(res.Errors, types.ValidationIssue{
					Type: types.IssueDayNotAvailable,
					Message: fmt.Sprintf("%s no está disponible el %s (%s); días disponibles: %s",
						p.PlaceName, SpanishWeekday(d), day, strings.Join(p.AvailableDays, ", ")),
					PublicationID: ptr(id),
					Day:           day,
				})
			}
		}

		if len(p.AvailableHours) > 0 {
			for _, hour := range u.HoursUsed {
				if hourAvailable(p.AvailableHours, hour) {
					continue
				}
				report.AvailabilityValid = false
				res.Errors = append(res.Errors, types.ValidationIssue{
					Type: types.IssueTimeNotAvailable,
					Message: fmt.Sprintf("%s no está disponible a las %s; horarios: %s",
						p.PlaceName, hour, strings.Join(p.AvailableHours, ", ")),
					PublicationID: ptr(id),
					Hour:          hour,
				})
			}
		}

		cost := 0.0
		if p.CostPerDay != nil {
			cost = *p.CostPerDay
		}
		report.RealCost = cost * float64(persons) * float64(len(u.DaysUsed))
		res.RealTotalCost += report.RealCost

		if u.AIEstimatedCost != nil && math.Abs(report.RealCost-*u.AIEstimatedCost) > costTolerance {
			res.Warnings = append(res.Warnings, types.ValidationIssue{
				Type: types.IssueCostMismatch,
				Message: fmt.Sprintf("El costo estimado de %s (%.2f) no coincide con el costo real (%.2f)",
					p.PlaceName, *u.AIEstimatedCost, report.RealCost),
				PublicationID: ptr(id),
			})
		}
		res.Publications = append(res.Publications, report)
	}

	if res.RealTotalCost > in.Budget {
		res.Errors = append(res.Errors, types.ValidationIssue{
			Type:    types.IssueBudgetExceeded,
			Message: fmt.Sprintf("El costo total (%.2f) supera el presupuesto (%.2f)", res.RealTotalCost, in.Budget),
		})
	}
	if in.Budget > 0 {
		res.UtilizationPercent = math.Round(res.RealTotalCost/in.Budget*10000) / 100
		if res.RealTotalCost < in.Budget*underutilizedRatio {
			res.Warnings = append(res.Warnings, types.ValidationIssue{
				Type: types.IssueUnderutilizedBudget,
				Message: fmt.Sprintf("Solo se utiliza el %.2f%% del presupuesto; podrías agregar más actividades",
					res.UtilizationPercent),
			})
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// AggregatePlan flattens a custom plan into per-publication usage. Keys must
// look like "day_N"; day N maps to start+N-1. Unknown period keys are reported
// but their entries still count, so every referenced id gets checked.
// Continuation slots add their day and hour without counting as a new use.
// Entries without a publication id are ignored.
func AggregatePlan(plan types.Plan, start types.Date, startOK bool) ([]types.PublicationUsage, []types.ValidationIssue) {
	var issues []types.ValidationIssue

	type dayKey struct {
		key string
		n   int
	}
	days := make([]dayKey, 0, len(plan))
	for key := range plan {
		n, ok := parseDayKey(key)
		if !ok {
			issues = append(issues, types.ValidationIssue{
				Type:    types.IssueInvalidDateFormat,
				Message: fmt.Sprintf("Clave de día inválida %q (se espera day_N)", key),
				Day:     key,
			})
			continue
		}
		days = append(days, dayKey{key: key, n: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].n < days[j].n })

	order := make([]int64, 0)
	byID := map[int64]*types.PublicationUsage{}
	for _, dk := range days {
		date := dk.key
		if startOK {
			date = start.AddDays(dk.n - 1).String()
		}
		periods := plan[dk.key]
		for _, period := range dayPeriods(periods) {
			if !period.Valid() {
				issues = append(issues, types.ValidationIssue{
					Type:    types.IssueInvalidPeriod,
					Message: fmt.Sprintf("Periodo inválido %q en %s (se espera morning, afternoon o evening)", period, dk.key),
					Day:     date,
				})
			}
			slots := periods[period]
			keys := make([]string, 0, len(slots))
			for slot := range slots {
				keys = append(keys, slot)
			}
			sort.Strings(keys)
			for _, slot := range keys {
				entry := slots[slot]
				if entry.PublicationID == 0 {
					continue
				}
				u := byID[entry.PublicationID]
				if u == nil {
					u = &types.PublicationUsage{PublicationID: entry.PublicationID, DaysUsed: []string{}, HoursUsed: []string{}}
					byID[entry.PublicationID] = u
					order = append(order, entry.PublicationID)
				}
				if !entry.IsContinuation {
					u.TimesUsed++
				}
				if !containsString(u.DaysUsed, date) {
					u.DaysUsed = append(u.DaysUsed, date)
				}
				hour := entry.StartTime
				if hour == "" {
					hour, _, _ = strings.Cut(slot, "-")
				}
				hour = strings.TrimSpace(hour)
				if hour != "" && !containsString(u.HoursUsed, hour) {
					u.HoursUsed = append(u.HoursUsed, hour)
				}
			}
		}
	}

	usage := make([]types.PublicationUsage, 0, len(order))
	for _, id := range order {
		usage = append(usage, *byID[id])
	}
	return usage, issues
}

// dayPeriods returns the period keys of a day, known periods first in day
// order and any others sorted after them.
func dayPeriods(periods map[types.Period]map[string]types.ActivityEntry) []types.Period {
	out := make([]types.Period, 0, len(periods))
	for _, period := range periodOrder {
		if _, ok := periods[period]; ok {
			out = append(out, period)
		}
	}
	extra := make([]types.Period, 0)
	for period := range periods {
		if !period.Valid() {
			extra = append(extra, period)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// PlanPublicationIDs lists the distinct publication ids a usage set refers to.
func PlanPublicationIDs(usage []types.PublicationUsage) []int64 {
	ids := make([]int64, 0, len(usage))
	seen := map[int64]struct{}{}
	for _, u := range usage {
		if _, ok := seen[u.PublicationID]; ok {
			continue
		}
		seen[u.PublicationID] = struct{}{}
		ids = append(ids, u.PublicationID)
	}
	return ids
}

func parseDayKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(key)), "day_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func dayAvailable(available []string, d types.Date) bool {
	if len(available) == 0 {
		return true
	}
	for _, name := range available {
		if wd, ok := parseWeekday(name); ok && wd == d.Weekday() {
			return true
		}
	}
	return false
}

// hourAvailable reports whether hour falls inside any "HH:MM-HH:MM" range,
// bounds included. A range whose end precedes its start wraps past midnight.
func hourAvailable(ranges []string, hour string) bool {
	h, ok := parseClock(hour)
	if !ok {
		return false
	}
	for _, r := range ranges {
		from, to, found := strings.Cut(r, "-")
		if !found {
			continue
		}
		lo, ok1 := parseClock(from)
		hi, ok2 := parseClock(to)
		if !ok1 || !ok2 {
			continue
		}
		if lo <= hi {
			if h >= lo && h <= hi {
				return true
			}
		} else if h >= lo || h <= hi {
			return true
		}
	}
	return false
}

// parseClock returns minutes since midnight for "HH:MM".
func parseClock(s string) (int, bool) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		return 0, false
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func ptr[T any](v T) *T {
	return &v
}
