package models

import "time"

// Student represents a tutored learner with a recurring weekly schedule.
type Student struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	ClassName  string    `db:"class_name" json:"class_name"`
	BaseSalary int64     `db:"base_salary" json:"base_salary"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassName string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with its schedule slots.
// Slots are a composition: they live and die with the student.
type StudentDetail struct {
	Student
	Schedules []ScheduleSlot `json:"schedules"`
}
