package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestIsActive(t *testing.T) {
	assert.True(t, IsActive(models.StudyRecord{Status: models.StatusAttended}))
	assert.True(t, IsActive(models.StudyRecord{Status: models.StatusMakeup}))
	assert.False(t, IsActive(models.StudyRecord{Status: models.StatusAbsent}))
	assert.False(t, IsActive(models.StudyRecord{Status: "???"}))
	assert.False(t, IsActive(models.StudyRecord{}))
}

func TestDimensionGatesRequireActiveStatus(t *testing.T) {
	// A malformed absent record carrying evaluation data must stay out of
	// every subset regardless of its ignore flags.
	r := models.StudyRecord{
		Status:                models.StatusAbsent,
		Homework:              models.HomeworkSatisfactory,
		FormulaTest:           models.TriPass,
		OldLessonTest:         models.TriFail,
		RegularHomeworkResult: models.RegularHomeworkDone,
		EvalNewKnowledge:      intp(9),
		EvalQuantity:          intp(8),
		AssignedHomework:      models.AnswerYes,
		HasRegularHomework:    models.AnswerYes,
		TestScore:             floatp(7.5),
	}

	assert.False(t, includeHomework(r))
	assert.False(t, includeFormulaTest(r))
	assert.False(t, includeOldLessonTest(r))
	assert.False(t, includeRegularHomework(r))
	assert.False(t, includeKnowledge(r))
	assert.False(t, includeQuantity(r))
	assert.False(t, includeTest(r))
	assert.False(t, includeAssigned(r))
	assert.False(t, includeOutside(r))
}

func TestDimensionGatesAreIndependent(t *testing.T) {
	r := models.StudyRecord{
		Status:           models.StatusAttended,
		Homework:         models.HomeworkPartial,
		IgnoreEarlyStats: true,
		EvalNewKnowledge: intp(6),
		AssignedHomework: models.AnswerNo,
	}

	// Early dimension ignored, mid and late untouched.
	assert.False(t, includeHomework(r))
	assert.True(t, includeKnowledge(r))
	assert.True(t, includeAssigned(r))
}

func TestDimensionGatesExcludeNAAndUnknown(t *testing.T) {
	r := models.StudyRecord{
		Status:             models.StatusMakeup,
		Homework:           models.HomeworkNA,
		FormulaTest:        "maybe",
		AssignedHomework:   models.AnswerNA,
		HasRegularHomework: models.AnswerYes,
	}

	assert.False(t, includeHomework(r), "NA value excluded")
	assert.False(t, includeFormulaTest(r), "unrecognized value fails closed")
	assert.False(t, includeAssigned(r))
	assert.True(t, includeOutside(r))
	assert.False(t, includeKnowledge(r), "nil numeric value excluded")
	assert.False(t, includeTest(r), "missing test score excluded")
}
