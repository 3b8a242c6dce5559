package models

import "time"

// AvgScores groups the arithmetic means over the valid subsets.
// A dimension without any valid record reports 0, never NaN.
type AvgScores struct {
	Knowledge float64 `json:"knowledge"`
	Quantity  float64 `json:"quantity"`
	Test      float64 `json:"test"`
}

// HomeworkCounts partitions the valid early-homework subset by grade.
type HomeworkCounts struct {
	None         int `json:"none"`
	Incomplete   int `json:"incomplete"`
	Satisfactory int `json:"satisfactory"`
}

// MonthlyStats is the derived monthly snapshot for one student. It is a
// value recomputed on demand, never persisted as a row of its own.
type MonthlyStats struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`

	TotalSessions int   `json:"total_sessions"`
	AttendedCount int   `json:"attended_count"`
	AbsentCount   int   `json:"absent_count"`
	MakeupCount   int   `json:"makeup_count"`
	ActiveCount   int   `json:"active_count"`
	TotalSalary   int64 `json:"total_salary"`

	AvgScores      AvgScores      `json:"avg_scores"`
	HomeworkCounts HomeworkCounts `json:"homework_counts"`

	FormulaPassCount         int `json:"formula_pass_count"`
	OldLessonPassCount       int `json:"old_lesson_pass_count"`
	RegularHomeworkPassCount int `json:"regular_homework_pass_count"`
	AssignedHomeworkCount    int `json:"assigned_homework_count"`
	NoHomeworkCount          int `json:"no_homework_count"`
	HasRegularHomeworkCount  int `json:"has_regular_homework_count"`

	ValidHomeworkCount  int `json:"valid_homework_count"`
	ValidKnowledgeCount int `json:"valid_knowledge_count"`
	ValidTestCount      int `json:"valid_test_count"`
	ValidAssignedCount  int `json:"valid_assigned_count"`
	ValidOutsideCount   int `json:"valid_outside_count"`
}

// PayrollRow is one student's salary line in the monthly payroll summary.
type PayrollRow struct {
	StudentID    string `json:"student_id"`
	FullName     string `json:"full_name"`
	ClassName    string `json:"class_name"`
	PaidSessions int    `json:"paid_sessions"`
	Salary       int64  `json:"salary"`
}

// PayrollSummary aggregates salary owed across all active students for a month.
type PayrollSummary struct {
	Month       time.Month   `json:"month"`
	Year        int          `json:"year"`
	Rows        []PayrollRow `json:"rows"`
	GrandTotal  int64        `json:"grand_total"`
	GeneratedAt time.Time    `json:"generated_at"`
}
