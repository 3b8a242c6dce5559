// Package stats computes derived monthly statistics for a student from the
// session history and the recurring weekly schedule. Everything in this
// package is a pure function over its inputs: no I/O, no mutation, total
// over malformed data.
package stats

import (
	"time"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
)

// ExpandSchedule counts how many scheduled sessions fall inside the given
// calendar month. Each day of the month is matched against the weekly slots;
// duplicate slots on the same weekday each count, since a double-booked slot
// is a double-paid slot. An empty schedule yields 0.
func ExpandSchedule(slots []models.ScheduleSlot, month time.Month, year int) int {
	if len(slots) == 0 {
		return 0
	}

	var perWeekday [7]int
	for _, slot := range slots {
		if slot.Weekday.Valid() {
			perWeekday[slot.Weekday]++
		}
	}

	total := 0
	for d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC); d.Month() == month; d = d.AddDate(0, 0, 1) {
		total += perWeekday[models.WeekdayOf(d)]
	}
	return total
}
