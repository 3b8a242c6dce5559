package models

import "time"

// AttendanceStatus represents how a session instance was attended.
type AttendanceStatus string

const (
	StatusAttended AttendanceStatus = "attended"
	StatusAbsent   AttendanceStatus = "absent"
	StatusMakeup   AttendanceStatus = "makeup"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusAttended, StatusAbsent, StatusMakeup:
		return true
	default:
		return false
	}
}

// ValueNA is the shared not-applicable sentinel for categorical dimensions.
const ValueNA = "na"

// HomeworkStatus grades the homework check at the start of a session.
type HomeworkStatus string

const (
	HomeworkNotDone      HomeworkStatus = "not_done"
	HomeworkPartial      HomeworkStatus = "partial"
	HomeworkSatisfactory HomeworkStatus = "satisfactory"
	HomeworkNA           HomeworkStatus = ValueNA
)

// Known reports whether the value is a recognized, recorded grade.
// Unknown values and NA are both excluded from statistics.
func (h HomeworkStatus) Known() bool {
	switch h {
	case HomeworkNotDone, HomeworkPartial, HomeworkSatisfactory:
		return true
	default:
		return false
	}
}

// TriStateResult is a pass/fail check with a not-applicable state.
type TriStateResult string

const (
	TriPass TriStateResult = "pass"
	TriFail TriStateResult = "fail"
	TriNA   TriStateResult = ValueNA
)

// Known reports whether the value is a recorded pass/fail outcome.
func (t TriStateResult) Known() bool {
	return t == TriPass || t == TriFail
}

// RegularHomeworkResult grades the recurring out-of-session homework.
type RegularHomeworkResult string

const (
	RegularHomeworkDone    RegularHomeworkResult = "done"
	RegularHomeworkNotDone RegularHomeworkResult = "not_done"
	RegularHomeworkNA      RegularHomeworkResult = ValueNA
)

// Known reports whether the value is a recorded outcome.
func (r RegularHomeworkResult) Known() bool {
	return r == RegularHomeworkDone || r == RegularHomeworkNotDone
}

// YesNoNA is a yes/no answer with a not-applicable state.
type YesNoNA string

const (
	AnswerYes YesNoNA = "yes"
	AnswerNo  YesNoNA = "no"
	AnswerNA  YesNoNA = ValueNA
)

// Known reports whether the value is a recorded answer.
func (y YesNoNA) Known() bool {
	return y == AnswerYes || y == AnswerNo
}

// StudyRecord captures one actual session instance: attendance plus five
// independent evaluation dimensions, each with its own ignore override.
type StudyRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Weekday   Weekday          `db:"weekday" json:"weekday"`
	Session   SessionType      `db:"session" json:"session"`
	Status    AttendanceStatus `db:"status" json:"status"`

	AbsentReason *string `db:"absent_reason" json:"absent_reason,omitempty"`

	// Early-session checks.
	Homework              HomeworkStatus        `db:"homework" json:"homework"`
	FormulaTest           TriStateResult        `db:"formula_test" json:"formula_test"`
	OldLessonTest         TriStateResult        `db:"old_lesson_test" json:"old_lesson_test"`
	RegularHomeworkResult RegularHomeworkResult `db:"regular_homework_result" json:"regular_homework_result"`
	IgnoreEarlyStats      bool                  `db:"ignore_early_stats" json:"ignore_early_stats"`

	// Mid-session scoring, 1-10 scale. Nil means not applicable.
	EvalNewKnowledge *int `db:"eval_new_knowledge" json:"eval_new_knowledge,omitempty"`
	EvalQuantity     *int `db:"eval_quantity" json:"eval_quantity,omitempty"`
	IgnoreMidStats   bool `db:"ignore_mid_stats" json:"ignore_mid_stats"`

	// Late-session: whether new homework was assigned.
	AssignedHomework YesNoNA `db:"assigned_homework" json:"assigned_homework"`
	IgnoreLateStats  bool    `db:"ignore_late_stats" json:"ignore_late_stats"`

	// Outside-session: whether recurring homework exists.
	HasRegularHomework YesNoNA `db:"has_regular_homework" json:"has_regular_homework"`
	IgnoreOutsideStats bool    `db:"ignore_outside_stats" json:"ignore_outside_stats"`

	// Periodic test score, 0-10 with quarter-point granularity. Nil means no test.
	TestScore       *float64 `db:"test_score" json:"test_score,omitempty"`
	IgnoreTestStats bool     `db:"ignore_test_stats" json:"ignore_test_stats"`

	MockTests []MockTest `json:"mock_tests"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MockTest stores a practice-exam score attached to a study record.
type MockTest struct {
	ID       string    `db:"id" json:"id"`
	RecordID string    `db:"record_id" json:"record_id"`
	Date     time.Time `db:"date" json:"date"`
	Score    float64   `db:"score" json:"score"`
}

// RecordFilter scopes study record listing queries.
type RecordFilter struct {
	StudentID string
	Status    *AttendanceStatus
	Month     time.Month
	Year      int
	Page      int
	PageSize  int
	SortOrder string
}
