package shared

import (
	"time"

	"ptoinfo/internal/domain/leave"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD and returns the calendar date.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		parsed, err = time.Parse(time.DateOnly, value)
		if err != nil {
			return time.Time{}, err
		}
	}
	return leave.CivilDate(parsed), nil
}
