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

func newRecordMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var recordColumnNames = []string{
	"id", "student_id", "date", "weekday", "session", "status", "absent_reason",
	"homework", "formula_test", "old_lesson_test", "regular_homework_result", "ignore_early_stats",
	"eval_new_knowledge", "eval_quantity", "ignore_mid_stats",
	"assigned_homework", "ignore_late_stats", "has_regular_homework", "ignore_outside_stats",
	"test_score", "ignore_test_stats", "created_at", "updated_at",
}

func addRecordRow(rows *sqlmock.Rows, id, studentID string, date time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, studentID, date, 0, "evening", "attended", nil,
		"satisfactory", "pass", "pass", "done", false,
		8, 7, false,
		"yes", false, "yes", false,
		7.5, false, time.Now(), time.Now(),
	)
}

func TestRecordRepositoryList(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows(recordColumnNames)
	addRecordRow(rows, "r1", "s1", time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT id, student_id, date, weekday").
		WithArgs("s1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM study_records`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, record_id, date, score FROM mock_tests").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "record_id", "date", "score"}).
			AddRow("m1", "r1", time.Now(), 8.5))

	records, total, err := repo.List(context.Background(), models.RecordFilter{StudentID: "s1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Len(t, records[0].MockTests, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryListMonthFilter(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, student_id, date, weekday").
		WithArgs("s1", from, from.AddDate(0, 1, 0)).
		WillReturnRows(sqlmock.NewRows(recordColumnNames))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM study_records`).
		WithArgs("s1", from, from.AddDate(0, 1, 0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	records, total, err := repo.List(context.Background(), models.RecordFilter{StudentID: "s1", Month: time.March, Year: 2024})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryListForMonth(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(recordColumnNames)
	addRecordRow(rows, "r1", "s1", from.AddDate(0, 0, 4))
	addRecordRow(rows, "r2", "s1", from.AddDate(0, 0, 11))
	mock.ExpectQuery("SELECT id, student_id, date, weekday").
		WithArgs("s1", from, from.AddDate(0, 1, 0)).
		WillReturnRows(rows)

	records, err := repo.ListForMonth(context.Background(), "s1", time.February, 2024)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO study_records").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO mock_tests").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record := &models.StudyRecord{
		StudentID: "s1",
		Date:      time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		Weekday:   models.Monday,
		Session:   models.SessionEvening,
		Status:    models.StatusAttended,
		MockTests: []models.MockTest{{Date: time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), Score: 9}},
	}
	err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, record.ID, record.MockTests[0].RecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryUpdateReplacesMockTests(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE study_records SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM mock_tests").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mock_tests").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record := &models.StudyRecord{
		ID:        "r1",
		StudentID: "s1",
		Date:      time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		Status:    models.StatusAttended,
		MockTests: []models.MockTest{{Date: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), Score: 6.5}},
	}
	require.NoError(t, repo.Update(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRecordMock(t)
	defer cleanup()
	repo := NewRecordRepository(db)

	mock.ExpectExec("DELETE FROM study_records").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
