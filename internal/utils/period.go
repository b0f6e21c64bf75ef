package utils

import (
	"errors"
	"strings"
	"time"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

var ErrUnknownPeriod = errors.New("unknown period")

func ParsePeriod(raw string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(raw))) {
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodYear:
		return PeriodYear, nil
	case PeriodAll, "":
		return PeriodAll, nil
	default:
		return "", ErrUnknownPeriod
	}
}

// PeriodStart returns the calendar-aligned start of the window ending at now:
// week starts Sunday 00:00 local, month the 1st, year Jan 1. The second
// return is false for the unbounded all-time window.
func PeriodStart(p Period, now time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return midnight.AddDate(0, 0, -int(now.Weekday())), true
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case PeriodYear:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), true
	default:
		return time.Time{}, false
	}
}

// DateOnly truncates a timestamp to its calendar date in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
