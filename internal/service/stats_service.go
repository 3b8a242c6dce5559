package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
	"github.com/thuongvd0411/theodoihoctoan/internal/stats"
	appErrors "github.com/thuongvd0411/theodoihoctoan/pkg/errors"
)

type monthRecordLister interface {
	ListForMonth(ctx context.Context, studentID string, month time.Month, year int) ([]models.StudyRecord, error)
}

type payrollStudentLister interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	ListActiveWithSlots(ctx context.Context) ([]models.StudentDetail, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatsService computes monthly statistics on demand, with a read-through
// redis cache in front of the aggregation.
type StatsService struct {
	records  monthRecordLister
	students payrollStudentLister
	cache    statsCache
	metrics  *MetricsService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewStatsService constructs the stats service.
func NewStatsService(records monthRecordLister, students payrollStudentLister, cache statsCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *StatsService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{records: records, students: students, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Monthly returns one student's statistics for a calendar month.
func (s *StatsService) Monthly(ctx context.Context, studentID string, month time.Month, year int) (*models.MonthlyStats, error) {
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month out of range")
	}
	if year < 2000 || year > 2200 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}

	key := StatsKey(studentID, month, year)
	if s.cache != nil {
		var cached models.MonthlyStats
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	detail, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	history, err := s.records.ListForMonth(ctx, studentID, month, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load records")
	}

	start := time.Now()
	result := stats.Aggregate(history, detail.Schedules, month, year, detail.BaseSalary)
	if s.metrics != nil {
		s.metrics.ObserveStatsCompute(time.Since(start))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return &result, nil
}

// MonthlyPayroll sums the salary owed across every active student for a
// month. Rows keep per-student detail so the caller can render a breakdown.
func (s *StatsService) MonthlyPayroll(ctx context.Context, month time.Month, year int) (*models.PayrollSummary, error) {
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month out of range")
	}
	if year < 2000 || year > 2200 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}

	key := PayrollKey(month, year)
	if s.cache != nil {
		var cached models.PayrollSummary
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	details, err := s.students.ListActiveWithSlots(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	summary := &models.PayrollSummary{Month: month, Year: year, GeneratedAt: time.Now().UTC()}
	for _, detail := range details {
		history, err := s.records.ListForMonth(ctx, detail.ID, month, year)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load records")
		}
		start := time.Now()
		monthly := stats.Aggregate(history, detail.Schedules, month, year, detail.BaseSalary)
		if s.metrics != nil {
			s.metrics.ObserveStatsCompute(time.Since(start))
		}
		summary.Rows = append(summary.Rows, models.PayrollRow{
			StudentID:    detail.ID,
			FullName:     detail.FullName,
			ClassName:    detail.ClassName,
			PaidSessions: monthly.ActiveCount,
			Salary:       monthly.TotalSalary,
		})
		summary.GrandTotal += monthly.TotalSalary
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("payroll cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, nil
}
