package itinerary

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/FACorreiaa/wanderplan/internal/api/textnorm"
	"github.com/FACorreiaa/wanderplan/internal/types"
)

var (
	// "Día 2", "**Día 2 - Martes**", "### Day 2:" ... on folded text.
	dayHeading = regexp.MustCompile(`^[\s#*_>\-]*(?:dia|day)\s+(\d{1,3})\b`)
	clockTime  = regexp.MustCompile(`\b([01]?\d|2[0-3])[:h]([0-5]\d)\b`)
)

// SummarizeUsage turns generated text into the AI-usage shape. Text is split
// into day sections by "Día N" headings; every line of section N that names a
// used publication counts as one use on startDate+N-1, at the first clock
// time found on that line.
func SummarizeUsage(text string, startDate types.Date, used []types.Publication) []types.PublicationUsage {
	terms := make(map[int64][]string, len(used))
	for _, p := range used {
		terms[p.ID] = SearchTerms(p.PlaceName)
	}

	type acc struct {
		times int
		days  map[string]struct{}
		hours []string
	}
	byID := make(map[int64]*acc, len(used))

	day := 0
	for _, line := range strings.Split(textnorm.Fold(text), "\n") {
		if m := dayHeading.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil && n > 0 {
				day = n
			}
		}
		if day == 0 {
			continue
		}
		date := startDate.AddDays(day - 1).String()
		hour := firstClockTime(line)
		for _, p := range used {
			if !mentions(line, terms[p.ID]) {
				continue
			}
			a := byID[p.ID]
			if a == nil {
				a = &acc{days: map[string]struct{}{}}
				byID[p.ID] = a
			}
			a.times++
			a.days[date] = struct{}{}
			if hour != "" && !containsString(a.hours, hour) {
				a.hours = append(a.hours, hour)
			}
		}
	}

	usage := make([]types.PublicationUsage, 0, len(byID))
	for _, p := range used {
		a, ok := byID[p.ID]
		if !ok {
			continue
		}
		days := make([]string, 0, len(a.days))
		for d := range a.days {
			days = append(days, d)
		}
		sort.Strings(days)
		hours := a.hours
		if hours == nil {
			hours = []string{}
		}
		usage = append(usage, types.PublicationUsage{
			PublicationID: p.ID,
			TimesUsed:     a.times,
			DaysUsed:      days,
			HoursUsed:     hours,
		})
	}
	return usage
}

func mentions(line string, terms []string) bool {
	for _, t := range terms {
		if len(wordOccurrences(line, t)) > 0 {
			return true
		}
	}
	return false
}

func firstClockTime(line string) string {
	m := clockTime.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	h, _ := strconv.Atoi(m[1])
	return fmt.Sprintf("%02d:%s", h, m[2])
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
