package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/thuongvd0411/theodoihoctoan/internal/dto"
	"github.com/thuongvd0411/theodoihoctoan/internal/models"
	"github.com/thuongvd0411/theodoihoctoan/internal/repository"
	"github.com/thuongvd0411/theodoihoctoan/pkg/jobs"
)

type mockJobStore struct {
	jobs map[string]models.ReportJob
}

func newMockJobStore() *mockJobStore {
	return &mockJobStore{jobs: make(map[string]models.ReportJob)}
}

func (m *mockJobStore) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockJobStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	if j, ok := m.jobs[id]; ok {
		return &j, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockJobStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	j, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		j.Status = *params.Status
	}
	if params.Progress != nil {
		j.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		j.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		j.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		j.FinishedAt = params.FinishedAt
	}
	m.jobs[id] = j
	return nil
}

func (m *mockJobStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, j := range m.jobs {
		if j.Status == models.ReportStatusQueued {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *mockJobStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	fail     bool
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.fail {
		return errors.New("queue full")
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockGenerator struct {
	result *ExportResult
	err    error
}

func (m *mockGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	return m.result, m.err
}

func TestReportServiceCreateJob(t *testing.T) {
	store := newMockJobStore()
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), "s1", dto.ReportRequest{
		Month: 3, Year: 2024, Format: models.ReportFormatCSV,
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)

	stored := store.jobs[resp.ID]
	assert.Equal(t, "s1", stored.Params.StudentID)
	assert.Equal(t, time.March, stored.Params.Month)
	assert.Equal(t, "u1", stored.CreatedBy)
}

func TestReportServiceCreateJobValidation(t *testing.T) {
	svc := NewReportService(newMockJobStore(), &mockDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), "", dto.ReportRequest{Month: 3, Year: 2024, Format: models.ReportFormatCSV}, "u1")
	require.Error(t, err)

	_, err = svc.CreateJob(context.Background(), "s1", dto.ReportRequest{Month: 13, Year: 2024, Format: models.ReportFormatCSV}, "u1")
	require.Error(t, err)

	_, err = svc.CreateJob(context.Background(), "s1", dto.ReportRequest{Month: 3, Year: 2024, Format: "xlsx"}, "u1")
	require.Error(t, err)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newMockJobStore()
	svc := NewReportService(store, &mockDispatcher{fail: true}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), "s1", dto.ReportRequest{Month: 3, Year: 2024, Format: models.ReportFormatPDF}, "u1")
	require.Error(t, err)
	require.Len(t, store.jobs, 1)
	for _, j := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, j.Status)
	}
}

func TestReportServiceGetStatusOwnership(t *testing.T) {
	store := newMockJobStore()
	url := "/api/v1/reports/download/tok"
	store.jobs["job-1"] = models.ReportJob{
		ID: "job-1", Status: models.ReportStatusFinished, Progress: 100,
		ResultURL: &url, CreatedBy: "u1",
		Params: models.ReportJobParams{StudentID: "s1", Month: time.March, Year: 2024, Format: models.ReportFormatCSV},
	}
	svc := NewReportService(store, &mockDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.GetStatus(context.Background(), "job-1", "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, resp.Status)
	require.NotNil(t, resp.ResultURL)
	assert.Equal(t, url, *resp.ResultURL)

	_, err = svc.GetStatus(context.Background(), "job-1", "u2")
	require.Error(t, err)

	_, err = svc.GetStatus(context.Background(), "missing", "u1")
	require.Error(t, err)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	store := newMockJobStore()
	store.jobs["job-1"] = models.ReportJob{
		ID: "job-1", Status: models.ReportStatusQueued,
		Params: models.ReportJobParams{StudentID: "s1", Month: time.March, Year: 2024, Format: models.ReportFormatCSV},
	}
	gen := &mockGenerator{result: &ExportResult{URL: "/api/v1/reports/download/tok"}}
	worker := NewReportWorker(store, gen, nil, 3, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))
	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.NotNil(t, job.FinishedAt)
}

func TestReportWorkerHandleRetriesThenFails(t *testing.T) {
	store := newMockJobStore()
	store.jobs["job-1"] = models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued}
	gen := &mockGenerator{err: errors.New("boom")}
	worker := NewReportWorker(store, gen, nil, 2, zap.NewNop())

	// Below the retry limit the job goes back to queued.
	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))
	assert.Equal(t, models.ReportStatusQueued, store.jobs["job-1"].Status)

	// At the limit it is marked failed.
	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2}))
	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "boom", *job.ErrorMessage)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := newMockJobStore()
	store.jobs["job-1"] = models.ReportJob{ID: "job-1", Status: models.ReportStatusQueued}
	store.jobs["job-2"] = models.ReportJob{ID: "job-2", Status: models.ReportStatusFinished}
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}
