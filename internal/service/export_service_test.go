package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
	"github.com/thuongvd0411/theodoihoctoan/pkg/storage"
)

type mockStatsProvider struct {
	stats models.MonthlyStats
}

func (m *mockStatsProvider) Monthly(ctx context.Context, studentID string, month time.Month, year int) (*models.MonthlyStats, error) {
	s := m.stats
	s.Month = month
	s.Year = year
	return &s, nil
}

type memoryStorage struct {
	files map[string][]byte
}

func (m *memoryStorage) Save(filename string, data []byte) (string, error) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = data
	return filename, nil
}

func (m *memoryStorage) Open(filename string) (*os.File, error) { return nil, os.ErrNotExist }
func (m *memoryStorage) Delete(filename string) error           { delete(m.files, filename); return nil }
func (m *memoryStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func TestExportServiceGenerateCSV(t *testing.T) {
	stats := &mockStatsProvider{stats: models.MonthlyStats{
		TotalSessions: 4,
		AttendedCount: 3,
		MakeupCount:   1,
		ActiveCount:   4,
		TotalSalary:   560000,
		AvgScores:     models.AvgScores{Knowledge: 8.5, Quantity: 7.0, Test: 9.0},
	}}
	students := &mockStudentLookup{known: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", FullName: "Nguyen Van A"}},
	}}
	store := &memoryStorage{}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(stats, students, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)

	job := &models.ReportJob{
		ID: "job-1",
		Params: models.ReportJobParams{
			StudentID: "s1", Month: time.March, Year: 2024, Format: models.ReportFormatCSV,
		},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/reports/download/"))
	assert.NotEmpty(t, result.Token)
	require.Len(t, store.files, 1)

	var payload string
	for name, data := range store.files {
		assert.Contains(t, name, "2024-03")
		assert.True(t, strings.HasSuffix(name, ".csv"))
		payload = string(data)
	}
	assert.Contains(t, payload, "Salary")
	assert.Contains(t, payload, "560000")
	assert.Contains(t, payload, "8.50")

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportServiceGeneratePDF(t *testing.T) {
	stats := &mockStatsProvider{stats: models.MonthlyStats{TotalSessions: 2}}
	students := &mockStudentLookup{known: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", FullName: "Nguyen Van A"}},
	}}
	store := &memoryStorage{}
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(stats, students, store, signer, ExportConfig{}, zap.NewNop(), nil, nil)

	job := &models.ReportJob{
		ID: "job-2",
		Params: models.ReportJobParams{
			StudentID: "s1", Month: time.January, Year: 2025, Format: models.ReportFormatPDF,
		},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))

	data := store.files[result.RelativePath]
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestExportServiceUnsupportedFormat(t *testing.T) {
	students := &mockStudentLookup{known: map[string]models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1"}},
	}}
	svc := NewExportService(&mockStatsProvider{}, students, &memoryStorage{}, storage.NewSignedURLSigner("secret", time.Hour), ExportConfig{}, zap.NewNop(), nil, nil)

	_, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-3",
		Params: models.ReportJobParams{StudentID: "s1", Month: time.March, Year: 2024, Format: "xlsx"},
	})
	require.Error(t, err)
}
