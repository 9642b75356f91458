package utils

import (
	"time"
)

// ET is the US Eastern time zone the NYSE trades in.
var ET *time.Location

func init() {
	var err error
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		// No tz database; EST without DST is close enough for status output.
		ET = time.FixedZone("EST", -5*60*60)
	}
}

// NowET returns the current time in US Eastern.
func NowET() time.Time {
	return time.Now().In(ET)
}

// MarketOpenTime returns the NYSE opening bell (9:30 ET) on the given date.
func MarketOpenTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 9, 30, 0, 0, ET)
}

// MarketCloseTime returns the NYSE closing bell (16:00 ET) on the given date.
func MarketCloseTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 16, 0, 0, 0, ET)
}

// PreMarketStart returns the start of extended pre-market trading (4:00 ET).
func PreMarketStart(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 4, 0, 0, 0, ET)
}

// AfterHoursEnd returns the end of extended after-hours trading (20:00 ET).
func AfterHoursEnd(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 20, 0, 0, 0, ET)
}

// IsMarketOpenAt reports whether the regular session is open at t.
func IsMarketOpenAt(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	return !t.Before(MarketOpenTime(t)) && t.Before(MarketCloseTime(t))
}

// IsTradingDay checks if the given date is a weekday and not an NYSE holiday.
func IsTradingDay(t time.Time) bool {
	t = t.In(ET)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(t)
}

// IsTradingHoliday checks if the given date is a full-day NYSE closure.
// The list is maintained per calendar year.
func IsTradingHoliday(t time.Time) bool {
	_, ok := nyseHolidays[t.In(ET).Format("2006-01-02")]
	return ok
}

var nyseHolidays = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-04-03": "Good Friday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

// NextTradingDay returns the first trading day strictly after from.
func NextTradingDay(from time.Time) time.Time {
	next := from.In(ET).AddDate(0, 0, 1)
	for !IsTradingDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// MarketStatusAt describes the session state at t.
func MarketStatusAt(t time.Time) string {
	t = t.In(ET)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if name, ok := nyseHolidays[t.Format("2006-01-02")]; ok {
		return "CLOSED (" + name + ")"
	}

	switch {
	case t.Before(PreMarketStart(t)):
		return "CLOSED"
	case t.Before(MarketOpenTime(t)):
		return "PRE-MARKET"
	case t.Before(MarketCloseTime(t)):
		return "OPEN"
	case t.Before(AfterHoursEnd(t)):
		return "AFTER-HOURS"
	default:
		return "CLOSED"
	}
}

// MarketStatus returns the current session state.
func MarketStatus() string {
	return MarketStatusAt(NowET())
}
