package model

import "time"

// Status is a credential's compliance state, either derived from its expiry
// date or set manually by an admin.
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiring_soon"
	StatusExpired      Status = "expired"
	StatusPending      Status = "pending"
)

// ExpiringSoonWindowDays is how close to expiry a credential flips from
// active to expiring_soon.
const ExpiringSoonWindowDays = 30

func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusExpiringSoon, StatusExpired, StatusPending:
		return true
	}
	return false
}

// StatusColor maps a status to its display color. Unknown values fall back
// to gray rather than erroring, since a stored manual status is already
// validated at write time.
func StatusColor(s Status) string {
	switch s {
	case StatusActive:
		return "green"
	case StatusExpiringSoon:
		return "yellow"
	case StatusExpired:
		return "red"
	case StatusPending:
		return "gray"
	default:
		return "gray"
	}
}

// CalculatedStatus derives the status purely from the expiry date relative
// to today:
//
//   - no expiry date   -> pending
//   - expiry <= today  -> expired (a credential expiring today is already expired)
//   - within 30 days   -> expiring_soon
//   - otherwise        -> active
func CalculatedStatus(expiry *time.Time, today time.Time) Status {
	if expiry == nil {
		return StatusPending
	}

	days := DaysUntil(*expiry, today)
	if days <= 0 {
		return StatusExpired
	}
	if days <= ExpiringSoonWindowDays {
		return StatusExpiringSoon
	}
	return StatusActive
}

// DaysUntil counts whole calendar days from today until the target date,
// negative when the target is in the past. Only the civil dates of the two
// values are compared; stored expiry dates carry UTC midnight while today
// comes from the server clock, so a location-sensitive subtraction would
// shift the boundary by the zone offset.
func DaysUntil(target, today time.Time) int {
	return int(civilDate(target).Sub(civilDate(today)).Hours() / 24)
}

// civilDate reduces a timestamp to its calendar date, fixed in UTC so
// subtracting two of them always yields an exact multiple of 24 hours.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
