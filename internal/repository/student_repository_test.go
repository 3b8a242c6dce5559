package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "class_name", "base_salary", "active", "created_at", "updated_at"}).
		AddRow("s1", "Nguyen Van A", "8A", int64(150000), true, time.Now(), time.Now())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT s.id, s.full_name, s.class_name, s.base_salary").
		WillReturnRows(studentRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	active := true
	mock.ExpectQuery("SELECT s.id, s.full_name").
		WithArgs("8A", true, "%an%").
		WillReturnRows(studentRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students`).
		WithArgs("8A", true, "%an%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.StudentFilter{ClassName: "8A", Active: &active, Search: "An"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT id, full_name, class_name, base_salary").
		WithArgs("s1").
		WillReturnRows(studentRows())
	mock.ExpectQuery("SELECT id, student_id, weekday, session").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "weekday", "session", "created_at"}).
			AddRow("slot1", "s1", 0, "evening", time.Now()).
			AddRow("slot2", "s1", 4, "evening", time.Now()))

	detail, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Nguyen Van A", detail.FullName)
	assert.Len(t, detail.Schedules, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "Nguyen Van A", "8A", int64(150000), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO schedule_slots").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), models.Monday, models.SessionEvening, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	student := &models.Student{FullName: "Nguyen Van A", ClassName: "8A", BaseSalary: 150000, Active: true}
	slots := []models.ScheduleSlot{{Weekday: models.Monday, Session: models.SessionEvening}}
	err := repo.Create(context.Background(), student, slots)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, student.ID, slots[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateReplacesSlots(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE students SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM schedule_slots").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO schedule_slots").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	student := &models.Student{ID: "s1", FullName: "Nguyen Van A", ClassName: "9A", BaseSalary: 160000, Active: true}
	err := repo.Update(context.Background(), student, []models.ScheduleSlot{{Weekday: models.Friday, Session: models.SessionAfternoon}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeactivate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET active = false").
		WithArgs("s1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListActiveWithSlots(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT id, full_name, class_name, base_salary").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "class_name", "base_salary", "active", "created_at", "updated_at"}).
			AddRow("s1", "Nguyen Van A", "8A", int64(150000), true, time.Now(), time.Now()).
			AddRow("s2", "Tran Thi B", "8B", int64(140000), true, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT id, student_id, weekday, session").
		WithArgs("s1", "s2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "weekday", "session", "created_at"}).
			AddRow("slot1", "s1", 0, "evening", time.Now()).
			AddRow("slot2", "s2", 2, "morning", time.Now()).
			AddRow("slot3", "s2", 5, "morning", time.Now()))

	details, err := repo.ListActiveWithSlots(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Len(t, details[0].Schedules, 1)
	assert.Len(t, details[1].Schedules, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
