package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
)

type mockMonthRecords struct {
	byStudent map[string][]models.StudyRecord
	calls     int
}

func (m *mockMonthRecords) ListForMonth(ctx context.Context, studentID string, month time.Month, year int) ([]models.StudyRecord, error) {
	m.calls++
	return m.byStudent[studentID], nil
}

type mockStatsStudents struct {
	details map[string]models.StudentDetail
}

func (m *mockStatsStudents) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStatsStudents) ListActiveWithSlots(ctx context.Context) ([]models.StudentDetail, error) {
	out := make([]models.StudentDetail, 0, len(m.details))
	for _, d := range m.details {
		out = append(out, d)
	}
	return out, nil
}

type mockStatsCache struct {
	store map[string]interface{}
	hits  int
	sets  int
}

func (m *mockStatsCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if v, ok := m.store[key]; ok {
		m.hits++
		switch d := dest.(type) {
		case *models.MonthlyStats:
			*d = v.(models.MonthlyStats)
		case *models.PayrollSummary:
			*d = v.(models.PayrollSummary)
		}
		return true, nil
	}
	return false, nil
}

func (m *mockStatsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string]interface{})
	}
	switch v := value.(type) {
	case models.MonthlyStats:
		m.store[key] = v
	case *models.PayrollSummary:
		m.store[key] = *v
	default:
		m.store[key] = v
	}
	m.sets++
	return nil
}

func attendedOn(day time.Time) models.StudyRecord {
	return models.StudyRecord{
		Date:                  day,
		Status:                models.StatusAttended,
		Homework:              models.HomeworkNA,
		FormulaTest:           models.TriNA,
		OldLessonTest:         models.TriNA,
		RegularHomeworkResult: models.RegularHomeworkNA,
		AssignedHomework:      models.AnswerNA,
		HasRegularHomework:    models.AnswerNA,
	}
}

func TestStatsServiceMonthlyComputesAndCaches(t *testing.T) {
	march := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	records := &mockMonthRecords{byStudent: map[string][]models.StudyRecord{
		"s1": {attendedOn(march(4)), attendedOn(march(11)), attendedOn(march(18))},
	}}
	students := &mockStatsStudents{details: map[string]models.StudentDetail{
		"s1": {
			Student:   models.Student{ID: "s1", BaseSalary: 140000, Active: true},
			Schedules: []models.ScheduleSlot{{Weekday: models.Monday, Session: models.SessionEvening}},
		},
	}}
	cache := &mockStatsCache{}
	svc := NewStatsService(records, students, cache, nil, time.Minute, zap.NewNop())

	result, err := svc.Monthly(context.Background(), "s1", time.March, 2024)
	require.NoError(t, err)
	assert.Equal(t, 3, result.AttendedCount)
	assert.Equal(t, int64(420000), result.TotalSalary)
	assert.Equal(t, 4, result.TotalSessions)
	assert.Equal(t, 1, cache.sets)

	// Second call must come from cache.
	again, err := svc.Monthly(context.Background(), "s1", time.March, 2024)
	require.NoError(t, err)
	assert.Equal(t, result.TotalSalary, again.TotalSalary)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, records.calls)
}

func TestStatsServiceMonthlyValidatesInput(t *testing.T) {
	svc := NewStatsService(&mockMonthRecords{}, &mockStatsStudents{}, nil, nil, time.Minute, zap.NewNop())

	_, err := svc.Monthly(context.Background(), "s1", time.Month(0), 2024)
	require.Error(t, err)
	_, err = svc.Monthly(context.Background(), "s1", time.Month(13), 2024)
	require.Error(t, err)
	_, err = svc.Monthly(context.Background(), "s1", time.March, 1800)
	require.Error(t, err)
}

func TestStatsServicePayrollValidatesInput(t *testing.T) {
	svc := NewStatsService(&mockMonthRecords{}, &mockStatsStudents{}, nil, nil, time.Minute, zap.NewNop())

	_, err := svc.MonthlyPayroll(context.Background(), time.Month(13), 2024)
	require.Error(t, err)
	_, err = svc.MonthlyPayroll(context.Background(), time.March, 1800)
	require.Error(t, err)
	_, err = svc.MonthlyPayroll(context.Background(), time.March, 2500)
	require.Error(t, err)
}

func TestStatsServiceMonthlyUnknownStudent(t *testing.T) {
	svc := NewStatsService(&mockMonthRecords{}, &mockStatsStudents{}, nil, nil, time.Minute, zap.NewNop())

	_, err := svc.Monthly(context.Background(), "missing", time.March, 2024)
	require.Error(t, err)
}

func TestStatsServiceMonthlyPayroll(t *testing.T) {
	march := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }
	makeup := attendedOn(march(5))
	makeup.Status = models.StatusMakeup
	records := &mockMonthRecords{byStudent: map[string][]models.StudyRecord{
		"s1": {attendedOn(march(4)), makeup},
		"s2": {attendedOn(march(6))},
	}}
	students := &mockStatsStudents{details: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", FullName: "A", BaseSalary: 100000, Active: true}},
		"s2": {Student: models.Student{ID: "s2", FullName: "B", BaseSalary: 150000, Active: true}},
	}}
	svc := NewStatsService(records, students, nil, nil, time.Minute, zap.NewNop())

	summary, err := svc.MonthlyPayroll(context.Background(), time.March, 2024)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 2)
	assert.Equal(t, int64(350000), summary.GrandTotal)

	total := 0
	for _, row := range summary.Rows {
		total += row.PaidSessions
	}
	assert.Equal(t, 3, total)
}

func TestStatsServicePayrollUsesCache(t *testing.T) {
	records := &mockMonthRecords{}
	students := &mockStatsStudents{}
	cache := &mockStatsCache{store: map[string]interface{}{
		PayrollKey(time.March, 2024): models.PayrollSummary{Month: time.March, Year: 2024, GrandTotal: 999},
	}}
	svc := NewStatsService(records, students, cache, nil, time.Minute, zap.NewNop())

	summary, err := svc.MonthlyPayroll(context.Background(), time.March, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(999), summary.GrandTotal)
	assert.Zero(t, records.calls)
}
