package server

import (
	"time"

	"github.com/smallbiznis/duebook/internal/schedule"
)

// dateLayout is how calendar dates travel over the wire. The ledger cares
// about days, not instants.
const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.DateOnly(t), nil
}

func parseDatePtr(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
