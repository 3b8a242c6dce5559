package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
	appErrors "github.com/thuongvd0411/theodoihoctoan/pkg/errors"
)

type recordRepository interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.StudyRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.StudyRecord, error)
	Create(ctx context.Context, record *models.StudyRecord) error
	Update(ctx context.Context, record *models.StudyRecord) error
	Delete(ctx context.Context, id string) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// MockTestRequest is one practice-exam entry in a record payload.
type MockTestRequest struct {
	Date  time.Time `json:"date" validate:"required"`
	Score float64   `json:"score" validate:"gte=0,lte=10"`
}

// RecordRequest is the payload for creating or updating a study record.
type RecordRequest struct {
	Date         time.Time `json:"date" validate:"required"`
	Session      string    `json:"session" validate:"required"`
	Status       string    `json:"status" validate:"required"`
	AbsentReason *string   `json:"absentReason,omitempty"`

	Homework              string `json:"homework"`
	FormulaTest           string `json:"formulaTest"`
	OldLessonTest         string `json:"oldLessonTest"`
	RegularHomeworkResult string `json:"regularHomeworkResult"`
	IgnoreEarlyStats      bool   `json:"ignoreEarlyStats"`

	EvalNewKnowledge *int `json:"evalNewKnowledge,omitempty" validate:"omitempty,gte=1,lte=10"`
	EvalQuantity     *int `json:"evalQuantity,omitempty" validate:"omitempty,gte=1,lte=10"`
	IgnoreMidStats   bool `json:"ignoreMidStats"`

	AssignedHomework string `json:"assignedHomework"`
	IgnoreLateStats  bool   `json:"ignoreLateStats"`

	HasRegularHomework string `json:"hasRegularHomework"`
	IgnoreOutsideStats bool   `json:"ignoreOutsideStats"`

	TestScore       *float64 `json:"testScore,omitempty" validate:"omitempty,gte=0,lte=10"`
	IgnoreTestStats bool     `json:"ignoreTestStats"`

	MockTests []MockTestRequest `json:"mockTests" validate:"dive"`
}

// RecordService handles the per-session editing use-cases.
type RecordService struct {
	repo      recordRepository
	students  studentLookup
	cache     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecordService constructs the record service.
func NewRecordService(repo recordRepository, students studentLookup, cache statsInvalidator, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{repo: repo, students: students, cache: cache, validator: validate, logger: logger}
}

// List returns study records and pagination metadata.
func (s *RecordService) List(ctx context.Context, filter models.RecordFilter) ([]models.StudyRecord, *models.Pagination, error) {
	if filter.StudentID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return records, pagination, nil
}

// Get returns a single record with its mock tests.
func (s *RecordService) Get(ctx context.Context, id string) (*models.StudyRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return record, nil
}

// Create stores a new study record for a student.
func (s *RecordService) Create(ctx context.Context, studentID string, req RecordRequest) (*models.StudyRecord, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	record, err := s.buildRecord(studentID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create record")
	}
	s.invalidate(ctx, studentID)
	return record, nil
}

// Update replaces the content of an existing record.
func (s *RecordService) Update(ctx context.Context, id string, req RecordRequest) (*models.StudyRecord, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	record, err := s.buildRecord(existing.StudentID, req)
	if err != nil {
		return nil, err
	}
	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update record")
	}
	s.invalidate(ctx, existing.StudentID)
	return record, nil
}

// Delete removes a record and its mock tests.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	s.invalidate(ctx, existing.StudentID)
	return nil
}

// buildRecord validates the payload and materializes it, applying the
// absence rules before anything reaches storage.
func (s *RecordService) buildRecord(studentID string, req RecordRequest) (*models.StudyRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
	}
	session := models.SessionType(req.Session)
	if !session.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown session")
	}
	status := models.AttendanceStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
	}

	// Dates are wall-clock calendar dates. Take the client's year/month/day
	// as-is and pin it to UTC midnight, so a +07:00 evening entry does not
	// slide into the previous day once stored.
	year, month, day := req.Date.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	record := &models.StudyRecord{
		StudentID: studentID,
		Date:      date,
		Weekday:   models.WeekdayOf(date),
		Session:   session,
		Status:    status,

		Homework:              models.HomeworkStatus(orNA(req.Homework)),
		FormulaTest:           models.TriStateResult(orNA(req.FormulaTest)),
		OldLessonTest:         models.TriStateResult(orNA(req.OldLessonTest)),
		RegularHomeworkResult: models.RegularHomeworkResult(orNA(req.RegularHomeworkResult)),
		IgnoreEarlyStats:      req.IgnoreEarlyStats,

		EvalNewKnowledge: req.EvalNewKnowledge,
		EvalQuantity:     req.EvalQuantity,
		IgnoreMidStats:   req.IgnoreMidStats,

		AssignedHomework: models.YesNoNA(orNA(req.AssignedHomework)),
		IgnoreLateStats:  req.IgnoreLateStats,

		HasRegularHomework: models.YesNoNA(orNA(req.HasRegularHomework)),
		IgnoreOutsideStats: req.IgnoreOutsideStats,

		TestScore:       req.TestScore,
		IgnoreTestStats: req.IgnoreTestStats,
	}

	for _, mt := range req.MockTests {
		my, mm, md := mt.Date.Date()
		record.MockTests = append(record.MockTests, models.MockTest{Date: time.Date(my, mm, md, 0, 0, 0, 0, time.UTC), Score: mt.Score})
	}

	if status == models.StatusAbsent {
		normalizeAbsent(record, req.AbsentReason)
	}
	return record, nil
}

// normalizeAbsent forces an absent session into its canonical shape: every
// evaluation dimension becomes not-applicable and only the reason survives.
// The outside-session flag is the one dimension ignored by default, since a
// missed session says nothing about homework done at home.
func normalizeAbsent(record *models.StudyRecord, reason *string) {
	record.AbsentReason = reason

	record.Homework = models.HomeworkNA
	record.FormulaTest = models.TriNA
	record.OldLessonTest = models.TriNA
	record.RegularHomeworkResult = models.RegularHomeworkNA
	record.IgnoreEarlyStats = false

	record.EvalNewKnowledge = nil
	record.EvalQuantity = nil
	record.IgnoreMidStats = false

	record.AssignedHomework = models.AnswerNA
	record.IgnoreLateStats = false

	record.HasRegularHomework = models.AnswerNA
	record.IgnoreOutsideStats = true

	record.TestScore = nil
	record.IgnoreTestStats = false
}

func (s *RecordService) invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

// orNA maps an empty payload field to the NA sentinel and keeps everything
// else verbatim. Unknown strings are stored as-is and simply never enter
// any statistic.
func orNA(raw string) string {
	if raw == "" {
		return models.ValueNA
	}
	return raw
}
