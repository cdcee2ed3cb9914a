// Package dateparse turns short natural-language expressions into sync
// windows: "today", "yesterday", "last 3 days", "this week", "last week"
// or a pair of ISO dates ("2024-02-01 2024-02-05").
package dateparse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognised indicates the expression did not match any supported
// form.
var ErrUnrecognised = errors.New("unrecognised date expression")

var (
	lastDaysPattern = regexp.MustCompile(`^last\s+(\d+)\s+days?$`)
	isoPairPattern  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\d{4}-\d{2}-\d{2})$`)
	isoDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Range is an inclusive date range.
type Range struct {
	From time.Time
	To   time.Time
}

// Days returns the range length in whole days, minimum 1.
func (r Range) Days() int {
	d := int(r.To.Sub(r.From).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// Parse interprets the expression relative to now. Dates are truncated to
// midnight in now's location.
func Parse(text string, now time.Time) (Range, error) {
	today := truncate(now)
	expr := strings.ToLower(strings.TrimSpace(text))

	switch expr {
	case "", "today":
		return Range{From: today, To: today}, nil
	case "yesterday":
		y := today.AddDate(0, 0, -1)
		return Range{From: y, To: y}, nil
	case "this week":
		return Range{From: mondayOf(today), To: today}, nil
	case "last week":
		monday := mondayOf(today).AddDate(0, 0, -7)
		return Range{From: monday, To: monday.AddDate(0, 0, 6)}, nil
	}

	if m := lastDaysPattern.FindStringSubmatch(expr); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil || days < 1 {
			return Range{}, fmt.Errorf("%w: %q", ErrUnrecognised, text)
		}
		return Range{From: today.AddDate(0, 0, -(days - 1)), To: today}, nil
	}

	if m := isoPairPattern.FindStringSubmatch(expr); m != nil {
		from, err1 := time.ParseInLocation("2006-01-02", m[1], now.Location())
		to, err2 := time.ParseInLocation("2006-01-02", m[2], now.Location())
		if err1 != nil || err2 != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrUnrecognised, text)
		}
		if to.Before(from) {
			from, to = to, from
		}
		return Range{From: from, To: to}, nil
	}

	if isoDatePattern.MatchString(expr) {
		d, err := time.ParseInLocation("2006-01-02", expr, now.Location())
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrUnrecognised, text)
		}
		return Range{From: d, To: d}, nil
	}

	return Range{}, fmt.Errorf("%w: %q (try: today, yesterday, last 3 days, 2024-02-01 2024-02-05)",
		ErrUnrecognised, text)
}

// LastDays returns the range covering the past n days ending today.
func LastDays(n int, now time.Time) Range {
	today := truncate(now)
	if n < 1 {
		n = 1
	}
	return Range{From: today.AddDate(0, 0, -(n - 1)), To: today}
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func mondayOf(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
