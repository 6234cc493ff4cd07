package leave

import (
	"errors"
	"time"
)

var (
	errEndBeforeStart   = errors.New("end date before start date")
	errInvalidHalfRange = errors.New("invalid half-day range")
)

// CivilDate drops the time of day, keeping the calendar date t has in its
// own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CalculateDays returns the inclusive count of calendar days between start
// and end. Times of day are ignored.
func CalculateDays(start, end time.Time) (float64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, errors.New("start and end dates are required")
	}
	start, end = CivilDate(start), CivilDate(end)
	if end.Before(start) {
		return 0, errEndBeforeStart
	}
	return float64(end.Sub(start)/(24*time.Hour)) + 1, nil
}

// CalculateRequestDays returns inclusive leave day count with optional half-day start/end boundaries.
func CalculateRequestDays(start, end time.Time, startHalf, endHalf bool) (float64, error) {
	days, err := CalculateDays(start, end)
	if err != nil {
		return 0, err
	}

	if days == 1 && startHalf && endHalf {
		return 0, errInvalidHalfRange
	}
	if startHalf {
		days -= 0.5
	}
	if endHalf {
		days -= 0.5
	}
	if days <= 0 {
		return 0, errInvalidHalfRange
	}
	return days, nil
}
