package stats

import "github.com/thuongvd0411/theodoihoctoan/internal/models"

// IsActive reports whether the record enters pedagogical denominators at
// all. Only attended and makeup sessions do; absences count toward
// attendance figures and nothing else. Unknown statuses fail closed.
func IsActive(r models.StudyRecord) bool {
	return r.Status == models.StatusAttended || r.Status == models.StatusMakeup
}

// Each dimension has an independent inclusion gate: the record must be
// active, the dimension's ignore override must be off, and the value must be
// a recognized, recorded one. N/A and unrecognized values never count. The
// session editor already forces every dimension to N/A on absent records,
// but the gates re-check status so malformed rows degrade instead of
// polluting a statistic.

func includeHomework(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreEarlyStats && r.Homework.Known()
}

func includeFormulaTest(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreEarlyStats && r.FormulaTest.Known()
}

func includeOldLessonTest(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreEarlyStats && r.OldLessonTest.Known()
}

func includeRegularHomework(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreEarlyStats && r.RegularHomeworkResult.Known()
}

func includeKnowledge(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreMidStats && r.EvalNewKnowledge != nil
}

func includeQuantity(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreMidStats && r.EvalQuantity != nil
}

func includeTest(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreTestStats && r.TestScore != nil
}

func includeAssigned(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreLateStats && r.AssignedHomework.Known()
}

func includeOutside(r models.StudyRecord) bool {
	return IsActive(r) && !r.IgnoreOutsideStats && r.HasRegularHomework.Known()
}
