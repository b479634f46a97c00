package model

import (
	"fmt"
	"strings"
	"time"
)

// Resolution is the sampling step between consecutive bars.
type Resolution int

const (
	Minute Resolution = iota
	Hour
	Day
)

// Step returns the duration of one bar.
func (r Resolution) Step() time.Duration {
	switch r {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

// Code returns the resolution code used by the candle endpoint.
func (r Resolution) Code() string {
	switch r {
	case Minute:
		return "1"
	case Hour:
		return "60"
	default:
		return "D"
	}
}

func (r Resolution) String() string {
	switch r {
	case Minute:
		return "MINUTE"
	case Hour:
		return "HOUR"
	default:
		return "DAY"
	}
}

// ChartRange is a named window of history shown on a chart.
type ChartRange string

const (
	RangeDay        ChartRange = "DAY"
	RangeWeek       ChartRange = "WEEK"
	RangeMonth      ChartRange = "MONTH"
	RangeYearToDate ChartRange = "YEAR_TO_DATE"
	RangeYear       ChartRange = "YEAR"
)

// ParseChartRange accepts a range name case-insensitively. Empty maps to DAY.
func ParseChartRange(s string) (ChartRange, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch ChartRange(s) {
	case "":
		return RangeDay, nil
	case RangeDay, RangeWeek, RangeMonth, RangeYearToDate, RangeYear:
		return ChartRange(s), nil
	case "YTD":
		return RangeYearToDate, nil
	}
	return "", fmt.Errorf("unknown chart range %q", s)
}

// Window returns the [from, to] interval and default resolution for a range
// evaluated at now. The trading day is taken as 14:30 to 21:00 UTC.
func (c ChartRange) Window(now time.Time) (from, to time.Time, res Resolution) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch c {
	case RangeWeek:
		return now.AddDate(0, 0, -7), now, Hour
	case RangeMonth:
		return now.AddDate(0, -1, 0), now, Hour
	case RangeYearToDate:
		from = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		if now.Month() < time.April {
			return from, now, Hour
		}
		return from, now, Day
	case RangeYear:
		return now.AddDate(-1, 0, 0), now, Day
	default:
		return midnight.Add(14*time.Hour + 30*time.Minute), midnight.Add(21 * time.Hour), Minute
	}
}

// ForecastWindow returns the history window and resolution used to forecast
// a chart range. Short ranges borrow a longer window so every indicator
// has enough bars to warm up.
func (c ChartRange) ForecastWindow(now time.Time) (from, to time.Time, res Resolution) {
	switch c {
	case RangeDay:
		from, to, _ = RangeDay.Window(now)
		return from, to, Minute
	case RangeWeek:
		from, to, _ = RangeMonth.Window(now)
		return from, to, Hour
	default:
		from, to, _ = RangeYear.Window(now)
		return from, to, Day
	}
}
