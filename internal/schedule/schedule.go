// Package schedule contains the pure calendar math for recurring billing
// schedules. All dates are calendar dates normalized to midnight UTC; there is
// no timezone or wall-clock handling here.
package schedule

import "time"

// Period is the billing cadence of a periodic subscription.
type Period string

const (
	PeriodWeekly    Period = "WEEKLY"
	PeriodMonthly   Period = "MONTHLY"
	PeriodQuarterly Period = "QUARTERLY"
	PeriodYearly    Period = "YEARLY"
)

// DateOnly truncates t to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextDueDate computes the next occurrence of a periodic schedule after ref.
//
// Weekly adds seven days and ignores chargeDay. Monthly and Quarterly add one
// or three calendar months; when chargeDay is set the result's day-of-month is
// clamped to the target month's length, so chargeDay=31 lands on Feb 28/29 or
// the 30th as needed. Yearly adds one calendar year; a chargeDay of at most
// 365 anchors the result to that day-of-year in the target year.
//
// An unrecognized period falls back to one calendar month rather than failing.
func NextDueDate(period Period, ref time.Time, chargeDay *int) time.Time {
	ref = DateOnly(ref)

	switch period {
	case PeriodWeekly:
		return ref.AddDate(0, 0, 7)
	case PeriodMonthly:
		return addMonthsAnchored(ref, 1, chargeDay)
	case PeriodQuarterly:
		return addMonthsAnchored(ref, 3, chargeDay)
	case PeriodYearly:
		if chargeDay != nil && *chargeDay >= 1 && *chargeDay <= 365 {
			return time.Date(ref.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC).
				AddDate(0, 0, *chargeDay-1)
		}
		// Feb 29 clamps to Feb 28 in non-leap target years.
		return time.Date(ref.Year()+1, ref.Month(), clampDay(ref.Day(), ref.Year()+1, ref.Month()), 0, 0, 0, 0, time.UTC)
	default:
		return addMonthsAnchored(ref, 1, chargeDay)
	}
}

// InitialDueDate computes the first due date of a periodic subscription
// starting at startDate.
//
// With a chargeDay set, Monthly anchors to that day within the start month and
// Yearly to that day within the start year; a candidate that falls before the
// start date rolls forward one period via NextDueDate. Quarterly and Weekly
// schedules do not anchor their first occurrence and begin at startDate, as do
// subscriptions without a chargeDay.
func InitialDueDate(period Period, startDate time.Time, chargeDay *int) time.Time {
	startDate = DateOnly(startDate)
	if chargeDay == nil {
		return startDate
	}

	switch period {
	case PeriodMonthly:
		day := clampDay(*chargeDay, startDate.Year(), startDate.Month())
		candidate := time.Date(startDate.Year(), startDate.Month(), day, 0, 0, 0, 0, time.UTC)
		if candidate.Before(startDate) {
			return NextDueDate(period, candidate, chargeDay)
		}
		return candidate
	case PeriodYearly:
		if *chargeDay < 1 || *chargeDay > 365 {
			return startDate
		}
		candidate := time.Date(startDate.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, *chargeDay-1)
		if candidate.Before(startDate) {
			return NextDueDate(period, candidate, chargeDay)
		}
		return candidate
	default:
		return startDate
	}
}

// AdvanceDueDate applies NextDueDate n times in sequence.
func AdvanceDueDate(period Period, ref time.Time, chargeDay *int, n int) time.Time {
	due := DateOnly(ref)
	for i := 0; i < n; i++ {
		due = NextDueDate(period, due, chargeDay)
	}
	return due
}

func addMonthsAnchored(ref time.Time, months int, chargeDay *int) time.Time {
	year, month, day := ref.Date()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)

	anchor := day
	if chargeDay != nil && *chargeDay >= 1 {
		anchor = *chargeDay
	}
	return time.Date(target.Year(), target.Month(), clampDay(anchor, target.Year(), target.Month()), 0, 0, 0, 0, time.UTC)
}

func clampDay(day int, year int, month time.Month) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}
