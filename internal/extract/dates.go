package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "sept": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	// 2024-03-12, 2024/03/12, 2024.03.12
	isoDateRe = regexp.MustCompile(`\b(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})\b`)
	// 12/03/2024, 3-12-24, 12.03.2024
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[-/.](\d{1,2})[-/.](\d{2}|\d{4})\b`)
	// 12 March 2024, 12th Mar, 2024
	dayMonthDateRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthPattern + `\.?,?\s+(\d{4})\b`)
	// March 12, 2024
	monthDayDateRe = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
)

type span struct {
	start, end int
}

type dateMatch struct {
	span
	date time.Time
}

// extractDates returns every calendar date in text in order of appearance.
// Overlapping matches from different patterns count once; the earliest, longest match wins.
// Ambiguous numeric dates (both parts <= 12) are read day-first.
func extractDates(text string) []time.Time {
	var matches []dateMatch

	for _, m := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		if d, ok := makeDate(atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]]), atoi(text[m[6]:m[7]])); ok {
			matches = append(matches, dateMatch{span{m[0], m[1]}, d})
		}
	}

	for _, m := range numericDateRe.FindAllStringSubmatchIndex(text, -1) {
		a, b := atoi(text[m[2]:m[3]]), atoi(text[m[4]:m[5]])
		year := expandYear(text[m[6]:m[7]])
		day, month := a, b
		if b > 12 && a <= 12 {
			day, month = b, a
		}
		if d, ok := makeDate(year, month, day); ok {
			matches = append(matches, dateMatch{span{m[0], m[1]}, d})
		}
	}

	for _, m := range dayMonthDateRe.FindAllStringSubmatchIndex(text, -1) {
		month := parseMonth(text[m[4]:m[5]])
		if d, ok := makeDate(atoi(text[m[6]:m[7]]), int(month), atoi(text[m[2]:m[3]])); ok {
			matches = append(matches, dateMatch{span{m[0], m[1]}, d})
		}
	}

	for _, m := range monthDayDateRe.FindAllStringSubmatchIndex(text, -1) {
		month := parseMonth(text[m[2]:m[3]])
		if d, ok := makeDate(atoi(text[m[6]:m[7]]), int(month), atoi(text[m[4]:m[5]])); ok {
			matches = append(matches, dateMatch{span{m[0], m[1]}, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	dates := make([]time.Time, 0, len(matches))
	lastEnd := -1
	for _, m := range matches {
		if m.start < lastEnd {
			continue
		}
		dates = append(dates, m.date)
		lastEnd = m.end
	}
	return dates
}

// makeDate validates the calendar date; time.Date would silently normalise 31/02
func makeDate(year, month, day int) (time.Time, bool) {
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func expandYear(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		if y < 70 {
			return 2000 + y
		}
		return 1900 + y
	}
	return y
}

func parseMonth(s string) time.Month {
	s = strings.ToLower(s)
	if m, ok := monthNames[s]; ok {
		return m
	}
	if len(s) >= 3 {
		return monthNames[s[:3]]
	}
	return 0
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
