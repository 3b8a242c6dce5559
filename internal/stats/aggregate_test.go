package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func attended(d int) models.StudyRecord {
	return models.StudyRecord{
		Date:                  day(d),
		Status:                models.StatusAttended,
		Homework:              models.HomeworkNA,
		FormulaTest:           models.TriNA,
		OldLessonTest:         models.TriNA,
		RegularHomeworkResult: models.RegularHomeworkNA,
		AssignedHomework:      models.AnswerNA,
		HasRegularHomework:    models.AnswerNA,
	}
}

func absent(d int) models.StudyRecord {
	r := attended(d)
	r.Status = models.StatusAbsent
	return r
}

func TestAggregateZeroHistory(t *testing.T) {
	slots := []models.ScheduleSlot{slot(models.Monday, models.SessionAfternoon)}

	got := Aggregate(nil, slots, time.January, 2024, 140000)

	assert.Equal(t, time.January, got.Month)
	assert.Equal(t, 2024, got.Year)
	assert.Equal(t, ExpandSchedule(slots, time.January, 2024), got.TotalSessions)
	assert.Zero(t, got.AttendedCount)
	assert.Zero(t, got.MakeupCount)
	assert.Zero(t, got.AbsentCount)
	assert.Zero(t, got.ActiveCount)
	assert.Zero(t, got.TotalSalary)
	assert.Zero(t, got.AvgScores.Knowledge)
	assert.Zero(t, got.AvgScores.Quantity)
	assert.Zero(t, got.AvgScores.Test)
	assert.Zero(t, got.ValidHomeworkCount)
	assert.Zero(t, got.ValidKnowledgeCount)
	assert.Zero(t, got.ValidTestCount)
	assert.Zero(t, got.ValidAssignedCount)
	assert.Zero(t, got.ValidOutsideCount)
}

func TestAggregateSalary(t *testing.T) {
	history := []models.StudyRecord{
		attended(1), attended(8), attended(15),
		func() models.StudyRecord { r := attended(22); r.Status = models.StatusMakeup; return r }(),
		func() models.StudyRecord { r := attended(29); r.Status = models.StatusMakeup; return r }(),
		absent(16), absent(23),
	}

	got := Aggregate(history, nil, time.January, 2024, 140000)

	assert.Equal(t, 3, got.AttendedCount)
	assert.Equal(t, 2, got.MakeupCount)
	assert.Equal(t, 2, got.AbsentCount)
	assert.Equal(t, 5, got.ActiveCount)
	assert.Equal(t, int64(700000), got.TotalSalary)
}

func TestAggregateFiltersToTargetMonth(t *testing.T) {
	history := []models.StudyRecord{
		attended(10),
		func() models.StudyRecord {
			r := attended(10)
			r.Date = time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
			return r
		}(),
		func() models.StudyRecord {
			r := attended(10)
			r.Date = time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC)
			return r
		}(),
	}

	got := Aggregate(history, nil, time.January, 2024, 100)
	assert.Equal(t, 1, got.AttendedCount)
	assert.Equal(t, int64(100), got.TotalSalary)
}

func TestAggregateAbsentNeverEntersPedagogicalStats(t *testing.T) {
	// Malformed record: absent but still carrying evaluation data.
	bad := absent(5)
	bad.Homework = models.HomeworkSatisfactory
	bad.EvalNewKnowledge = intp(10)
	bad.TestScore = floatp(9.5)
	bad.AssignedHomework = models.AnswerYes
	bad.HasRegularHomework = models.AnswerYes

	got := Aggregate([]models.StudyRecord{bad}, nil, time.January, 2024, 1000)

	assert.Equal(t, 1, got.AbsentCount)
	assert.Zero(t, got.TotalSalary)
	assert.Zero(t, got.ValidHomeworkCount)
	assert.Zero(t, got.ValidKnowledgeCount)
	assert.Zero(t, got.ValidTestCount)
	assert.Zero(t, got.ValidAssignedCount)
	assert.Zero(t, got.ValidOutsideCount)
	assert.Zero(t, got.AvgScores.Knowledge)
	assert.Zero(t, got.AvgScores.Test)
}

func TestAggregateIgnoreFlagGating(t *testing.T) {
	base := attended(8)
	base.EvalNewKnowledge = intp(7)
	base.EvalQuantity = intp(6)

	ignored := base
	ignored.IgnoreMidStats = true

	counted := Aggregate([]models.StudyRecord{base}, nil, time.January, 2024, 0)
	skipped := Aggregate([]models.StudyRecord{ignored}, nil, time.January, 2024, 0)

	assert.Equal(t, 1, counted.ValidKnowledgeCount)
	assert.Equal(t, 0, skipped.ValidKnowledgeCount)
	// The mid-session flag gates both mid scores at once.
	assert.InDelta(t, 6.0, counted.AvgScores.Quantity, 1e-9)
	assert.Zero(t, skipped.AvgScores.Quantity)
	// Attendance is unaffected by pedagogical ignore flags.
	assert.Equal(t, 1, counted.AttendedCount)
	assert.Equal(t, 1, skipped.AttendedCount)
}

func TestAggregateQuantityAverageIndependentOfKnowledge(t *testing.T) {
	a := attended(1)
	a.EvalQuantity = intp(9) // knowledge stays nil
	b := attended(8)
	b.EvalQuantity = intp(4)
	b.EvalNewKnowledge = intp(10)
	c := attended(15) // both nil

	got := Aggregate([]models.StudyRecord{a, b, c}, nil, time.January, 2024, 0)

	assert.InDelta(t, 6.5, got.AvgScores.Quantity, 1e-9)
	assert.InDelta(t, 10.0, got.AvgScores.Knowledge, 1e-9)
	assert.Equal(t, 1, got.ValidKnowledgeCount)
}

func TestAggregateAverageWithMixedNA(t *testing.T) {
	a := attended(1)
	a.EvalNewKnowledge = intp(8)
	b := attended(8) // knowledge stays nil
	c := attended(15)
	c.EvalNewKnowledge = intp(6)

	got := Aggregate([]models.StudyRecord{a, b, c}, nil, time.January, 2024, 0)

	assert.Equal(t, 2, got.ValidKnowledgeCount)
	assert.InDelta(t, 7.0, got.AvgScores.Knowledge, 1e-9)
}

func TestAggregateTestScoreAverage(t *testing.T) {
	a := attended(1)
	a.TestScore = floatp(7.25)
	b := attended(8)
	b.TestScore = floatp(8.75)
	skipped := attended(15)
	skipped.TestScore = floatp(2.0)
	skipped.IgnoreTestStats = true

	got := Aggregate([]models.StudyRecord{a, b, skipped}, nil, time.January, 2024, 0)

	assert.Equal(t, 2, got.ValidTestCount)
	assert.InDelta(t, 8.0, got.AvgScores.Test, 1e-9)
}

func TestAggregateHomeworkPartition(t *testing.T) {
	records := make([]models.StudyRecord, 0, 4)
	for i, hw := range []models.HomeworkStatus{
		models.HomeworkNotDone,
		models.HomeworkPartial,
		models.HomeworkSatisfactory,
		models.HomeworkSatisfactory,
	} {
		r := attended(i + 1)
		r.Homework = hw
		records = append(records, r)
	}

	got := Aggregate(records, nil, time.January, 2024, 0)

	assert.Equal(t, 4, got.ValidHomeworkCount)
	assert.Equal(t, 1, got.HomeworkCounts.None)
	assert.Equal(t, 1, got.HomeworkCounts.Incomplete)
	assert.Equal(t, 2, got.HomeworkCounts.Satisfactory)
	// Derived check: the three buckets partition the valid subset when every
	// valid value is one of the three recorded grades.
	sum := got.HomeworkCounts.None + got.HomeworkCounts.Incomplete + got.HomeworkCounts.Satisfactory
	assert.Equal(t, got.ValidHomeworkCount, sum)
}

func TestAggregatePassAndAnswerCounts(t *testing.T) {
	a := attended(1)
	a.FormulaTest = models.TriPass
	a.OldLessonTest = models.TriFail
	a.RegularHomeworkResult = models.RegularHomeworkDone
	a.AssignedHomework = models.AnswerYes
	a.HasRegularHomework = models.AnswerYes

	b := attended(8)
	b.FormulaTest = models.TriFail
	b.OldLessonTest = models.TriPass
	b.RegularHomeworkResult = models.RegularHomeworkNotDone
	b.AssignedHomework = models.AnswerNo
	b.HasRegularHomework = models.AnswerNA

	got := Aggregate([]models.StudyRecord{a, b}, nil, time.January, 2024, 0)

	assert.Equal(t, 1, got.FormulaPassCount)
	assert.Equal(t, 1, got.OldLessonPassCount)
	assert.Equal(t, 1, got.RegularHomeworkPassCount)
	assert.Equal(t, 1, got.AssignedHomeworkCount)
	assert.Equal(t, 1, got.NoHomeworkCount)
	assert.Equal(t, 2, got.ValidAssignedCount)
	assert.Equal(t, 1, got.ValidOutsideCount)
	assert.Equal(t, 1, got.HasRegularHomeworkCount)
}

func TestAggregateUnknownStatusFailsClosed(t *testing.T) {
	r := attended(1)
	r.Status = "vanished"
	r.EvalNewKnowledge = intp(10)

	got := Aggregate([]models.StudyRecord{r}, nil, time.January, 2024, 500)

	assert.Zero(t, got.AttendedCount)
	assert.Zero(t, got.MakeupCount)
	assert.Zero(t, got.AbsentCount)
	assert.Zero(t, got.ActiveCount)
	assert.Zero(t, got.TotalSalary)
	assert.Zero(t, got.ValidKnowledgeCount)
}

func TestAggregateIsPureAndIdempotent(t *testing.T) {
	a := attended(1)
	a.EvalNewKnowledge = intp(8)
	a.Homework = models.HomeworkSatisfactory
	history := []models.StudyRecord{a, absent(8)}
	slots := []models.ScheduleSlot{slot(models.Monday, models.SessionMorning)}

	historyCopy := make([]models.StudyRecord, len(history))
	copy(historyCopy, history)
	slotsCopy := make([]models.ScheduleSlot, len(slots))
	copy(slotsCopy, slots)

	first := Aggregate(history, slots, time.January, 2024, 140000)
	second := Aggregate(history, slots, time.January, 2024, 140000)

	require.Equal(t, first, second)
	assert.Equal(t, historyCopy, history, "history must not be mutated")
	assert.Equal(t, slotsCopy, slots, "schedule must not be mutated")
}
