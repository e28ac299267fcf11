package calendar

import "time"

// Day is one cell of a month grid.
type Day struct {
	Date           Date `json:"date"`
	IsCurrentMonth bool `json:"is_current_month"`
	IsToday        bool `json:"is_today"`
}

// DaysPerWeek is the number of columns in every grid.
const DaysPerWeek = 7

// BuildMonthGrid returns the Sunday-first grid for the month containing
// reference. See BuildMonthGridFrom.
func BuildMonthGrid(reference, today Date) []Day {
	return BuildMonthGridFrom(reference, today, time.Sunday)
}

// BuildMonthGridFrom returns complete weeks covering the month containing
// reference, starting on weekStart. Leading cells come from the end of the
// previous month and trailing cells from the start of the next, so the
// length is always 28, 35 or 42. IsToday is set on the cell equal to today,
// including padding cells.
func BuildMonthGridFrom(reference, today Date, weekStart time.Weekday) []Day {
	first := reference.FirstOfMonth()
	n := DaysIn(first.Year, first.Month)

	lead := (int(first.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
	total := lead + n
	if rem := total % DaysPerWeek; rem != 0 {
		total += DaysPerWeek - rem
	}

	start := first.AddDays(-lead)
	days := make([]Day, 0, total)
	for i := 0; i < total; i++ {
		d := start.AddDays(i)
		days = append(days, Day{
			Date:           d,
			IsCurrentMonth: d.SameMonth(first),
			IsToday:        d == today,
		})
	}
	return days
}

// Weeks splits a grid into rows of DaysPerWeek. A trailing partial row is
// kept as-is.
func Weeks[T any](days []T) [][]T {
	rows := make([][]T, 0, (len(days)+DaysPerWeek-1)/DaysPerWeek)
	for i := 0; i < len(days); i += DaysPerWeek {
		end := min(i+DaysPerWeek, len(days))
		rows = append(rows, days[i:end])
	}
	return rows
}

// WeekOf returns the seven dates of the week containing d, starting on
// weekStart.
func WeekOf(d Date, weekStart time.Weekday) []Date {
	offset := (int(d.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
	start := d.AddDays(-offset)
	out := make([]Date, DaysPerWeek)
	for i := range out {
		out[i] = start.AddDays(i)
	}
	return out
}
