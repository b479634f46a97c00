package markethours

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// ET is the New York exchange time zone.
var ET = mustLoad("America/New_York")

// Regular session hours in ET.
const (
	OpenHour    = 9
	OpenMinute  = 30
	CloseHour   = 16
	CloseMinute = 0
)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("markethours: load %s: %v", name, err))
	}
	return loc
}

// IsTradingDay reports whether the ET calendar date of t is a weekday that
// is not an exchange holiday.
func IsTradingDay(t time.Time) bool {
	et := t.In(ET)
	wd := et.Weekday()
	return wd != time.Saturday && wd != time.Sunday && !IsHoliday(et)
}

// IsMarketOpen reports whether t falls inside the regular session.
func IsMarketOpen(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	et := t.In(ET)
	hm := et.Hour()*60 + et.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// LastSession returns the date (midnight UTC) of the most recent session
// that has closed by t. Daily bars are stamped with this date.
func LastSession(t time.Time) time.Time {
	et := t.In(ET)
	d := time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, ET)
	closed := et.Hour()*60+et.Minute() >= CloseHour*60+CloseMinute
	if !closed || !IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	for i := 0; i < 10 && !IsTradingDay(d); i++ {
		d = d.AddDate(0, 0, -1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// NextOpen returns the next session open at or after t.
func NextOpen(t time.Time) time.Time {
	et := t.In(ET)
	open := time.Date(et.Year(), et.Month(), et.Day(), OpenHour, OpenMinute, 0, 0, ET)
	if et.Before(open) && IsTradingDay(et) {
		return open
	}
	for i := 0; i < 10; i++ {
		open = open.AddDate(0, 0, 1)
		if IsTradingDay(open) {
			return open
		}
	}
	return open
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		et := t.In(ET)
		cl := time.Date(et.Year(), et.Month(), et.Day(), CloseHour, CloseMinute, 0, 0, ET)
		return fmt.Sprintf("Market open, closes in %s", fmtDur(cl.Sub(t)))
	}
	next := NextOpen(t)
	return fmt.Sprintf("Market closed, opens %s %s ET (%s)",
		next.Weekday().String()[:3], next.Format("15:04"), fmtDur(next.Sub(t)))
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
