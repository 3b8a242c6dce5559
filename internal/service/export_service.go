package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
	"github.com/thuongvd0411/theodoihoctoan/pkg/export"
	"github.com/thuongvd0411/theodoihoctoan/pkg/storage"
)

type monthlyStatsProvider interface {
	Monthly(ctx context.Context, studentID string, month time.Month, year int) (*models.MonthlyStats, error)
}

type studentNameLookup interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders monthly report files and persists them.
type ExportService struct {
	stats    monthlyStatsProvider
	students studentNameLookup
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(statsProv monthlyStatsProvider, students studentNameLookup, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		stats:    statsProv,
		students: students,
		storage:  store,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate builds the monthly dataset for the job and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/reports/download/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	detail, err := s.students.FindByID(ctx, params.StudentID)
	if err != nil {
		return export.Dataset{}, "", err
	}
	monthly, err := s.stats.Monthly(ctx, params.StudentID, params.Month, params.Year)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := []map[string]string{
		{"Metric": "Scheduled Sessions", "Value": fmt.Sprintf("%d", monthly.TotalSessions)},
		{"Metric": "Attended", "Value": fmt.Sprintf("%d", monthly.AttendedCount)},
		{"Metric": "Makeup", "Value": fmt.Sprintf("%d", monthly.MakeupCount)},
		{"Metric": "Absent", "Value": fmt.Sprintf("%d", monthly.AbsentCount)},
		{"Metric": "Paid Sessions", "Value": fmt.Sprintf("%d", monthly.ActiveCount)},
		{"Metric": "Salary", "Value": fmt.Sprintf("%d", monthly.TotalSalary)},
		{"Metric": "Avg Knowledge Score", "Value": fmt.Sprintf("%.2f", monthly.AvgScores.Knowledge)},
		{"Metric": "Avg Quantity Score", "Value": fmt.Sprintf("%.2f", monthly.AvgScores.Quantity)},
		{"Metric": "Avg Test Score", "Value": fmt.Sprintf("%.2f", monthly.AvgScores.Test)},
		{"Metric": "Homework Not Done", "Value": fmt.Sprintf("%d", monthly.HomeworkCounts.None)},
		{"Metric": "Homework Partial", "Value": fmt.Sprintf("%d", monthly.HomeworkCounts.Incomplete)},
		{"Metric": "Homework Satisfactory", "Value": fmt.Sprintf("%d", monthly.HomeworkCounts.Satisfactory)},
		{"Metric": "Formula Tests Passed", "Value": fmt.Sprintf("%d", monthly.FormulaPassCount)},
		{"Metric": "Old Lesson Tests Passed", "Value": fmt.Sprintf("%d", monthly.OldLessonPassCount)},
		{"Metric": "Regular Homework Done", "Value": fmt.Sprintf("%d", monthly.RegularHomeworkPassCount)},
		{"Metric": "Homework Assigned", "Value": fmt.Sprintf("%d", monthly.AssignedHomeworkCount)},
		{"Metric": "No Homework Assigned", "Value": fmt.Sprintf("%d", monthly.NoHomeworkCount)},
		{"Metric": "Has Regular Homework", "Value": fmt.Sprintf("%d", monthly.HasRegularHomeworkCount)},
	}

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Monthly Report %s %04d-%02d", detail.FullName, params.Year, int(params.Month))
	return dataset, title, nil
}

// buildFilename shards exports into per-month directories so storage cleanup
// can prune whole months once their files expire.
func buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%04d-%02d/monthly_%s_%s.%s",
		job.Params.Year, int(job.Params.Month), sanitizeFilename(job.Params.StudentID), timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
