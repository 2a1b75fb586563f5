package timezone

import "time"

const DefaultTimezone = "Europe/Berlin"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func Now() time.Time {
	return time.Now().In(Location(DefaultTimezone))
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}

// Today returns midnight of the given instant's calendar day in tz.
func Today(tz string, at time.Time) time.Time {
	local := at.In(Location(tz))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// IsPastDate reports whether a YYYY-MM-DD date lies before the current day
// in tz. Unparseable dates are not considered past.
func IsPastDate(tz, date string, now time.Time) bool {
	d, err := time.ParseInLocation("2006-01-02", date, Location(tz))
	if err != nil {
		return false
	}
	return d.Before(Today(tz, now))
}
