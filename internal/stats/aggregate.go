package stats

import (
	"time"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
)

// Aggregate reduces a student's full history and weekly schedule into the
// monthly snapshot. It never fails: nil slices behave as empty, unknown
// enum values are excluded from every subset, and empty denominators report
// averages of 0. Inputs are only read, never mutated, so concurrent callers
// need no locking.
func Aggregate(history []models.StudyRecord, slots []models.ScheduleSlot, month time.Month, year int, baseSalary int64) models.MonthlyStats {
	out := models.MonthlyStats{Month: month, Year: year}

	out.TotalSessions = ExpandSchedule(slots, month, year)

	for _, r := range history {
		if r.Date.Month() != month || r.Date.Year() != year {
			continue
		}

		switch r.Status {
		case models.StatusAttended:
			out.AttendedCount++
		case models.StatusMakeup:
			out.MakeupCount++
		case models.StatusAbsent:
			out.AbsentCount++
		}

		if includeHomework(r) {
			out.ValidHomeworkCount++
			switch r.Homework {
			case models.HomeworkNotDone:
				out.HomeworkCounts.None++
			case models.HomeworkPartial:
				out.HomeworkCounts.Incomplete++
			case models.HomeworkSatisfactory:
				out.HomeworkCounts.Satisfactory++
			}
		}
		if includeFormulaTest(r) && r.FormulaTest == models.TriPass {
			out.FormulaPassCount++
		}
		if includeOldLessonTest(r) && r.OldLessonTest == models.TriPass {
			out.OldLessonPassCount++
		}
		if includeRegularHomework(r) && r.RegularHomeworkResult == models.RegularHomeworkDone {
			out.RegularHomeworkPassCount++
		}
		if includeAssigned(r) {
			out.ValidAssignedCount++
			switch r.AssignedHomework {
			case models.AnswerYes:
				out.AssignedHomeworkCount++
			case models.AnswerNo:
				out.NoHomeworkCount++
			}
		}
		if includeOutside(r) {
			out.ValidOutsideCount++
			if r.HasRegularHomework == models.AnswerYes {
				out.HasRegularHomeworkCount++
			}
		}
	}

	out.ActiveCount = out.AttendedCount + out.MakeupCount
	out.TotalSalary = int64(out.ActiveCount) * baseSalary

	out.ValidKnowledgeCount, out.AvgScores.Knowledge = meanInt(history, month, year, includeKnowledge, func(r models.StudyRecord) int { return *r.EvalNewKnowledge })
	_, out.AvgScores.Quantity = meanInt(history, month, year, includeQuantity, func(r models.StudyRecord) int { return *r.EvalQuantity })
	out.ValidTestCount, out.AvgScores.Test = meanFloat(history, month, year, includeTest, func(r models.StudyRecord) float64 { return *r.TestScore })

	return out
}

func meanInt(history []models.StudyRecord, month time.Month, year int, include func(models.StudyRecord) bool, value func(models.StudyRecord) int) (int, float64) {
	count := 0
	sum := 0
	for _, r := range history {
		if r.Date.Month() != month || r.Date.Year() != year {
			continue
		}
		if include(r) {
			count++
			sum += value(r)
		}
	}
	if count == 0 {
		return 0, 0
	}
	return count, float64(sum) / float64(count)
}

func meanFloat(history []models.StudyRecord, month time.Month, year int, include func(models.StudyRecord) bool, value func(models.StudyRecord) float64) (int, float64) {
	count := 0
	sum := 0.0
	for _, r := range history {
		if r.Date.Month() != month || r.Date.Year() != year {
			continue
		}
		if include(r) {
			count++
			sum += value(r)
		}
	}
	if count == 0 {
		return 0, 0
	}
	return count, sum / float64(count)
}
