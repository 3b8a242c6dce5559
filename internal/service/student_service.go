package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
	appErrors "github.com/thuongvd0411/theodoihoctoan/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student, slots []models.ScheduleSlot) error
	Update(ctx context.Context, student *models.Student, slots []models.ScheduleSlot) error
	Deactivate(ctx context.Context, id string) error
}

type statsInvalidator interface {
	InvalidateStudent(ctx context.Context, studentID string) error
}

// ScheduleSlotRequest is one weekly slot in a student payload.
type ScheduleSlotRequest struct {
	Weekday int    `json:"weekday"`
	Session string `json:"session" validate:"required"`
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	FullName   string                `json:"fullName" validate:"required"`
	ClassName  string                `json:"className"`
	BaseSalary int64                 `json:"baseSalary" validate:"gte=0"`
	Schedules  []ScheduleSlotRequest `json:"schedules" validate:"dive"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FullName   string                `json:"fullName" validate:"required"`
	ClassName  string                `json:"className"`
	BaseSalary int64                 `json:"baseSalary" validate:"gte=0"`
	Active     bool                  `json:"active"`
	Schedules  []ScheduleSlotRequest `json:"schedules" validate:"dive"`
}

// StudentService handles student and schedule use-cases.
type StudentService struct {
	repo      studentRepository
	cache     statsInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, cache statsInvalidator, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a student with its weekly schedule.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return detail, nil
}

// Create registers a new student with its weekly schedule.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	slots, err := buildSlots(req.Schedules)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		FullName:   req.FullName,
		ClassName:  req.ClassName,
		BaseSalary: req.BaseSalary,
		Active:     true,
	}
	if err := s.repo.Create(ctx, student, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.Int("slots", len(slots)))
	return &models.StudentDetail{Student: *student, Schedules: slots}, nil
}

// Update modifies a student and replaces its weekly schedule. Salary and
// schedule feed the monthly statistics, so cached months are dropped.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	slots, err := buildSlots(req.Schedules)
	if err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	student := &models.Student{
		ID:         id,
		FullName:   req.FullName,
		ClassName:  req.ClassName,
		BaseSalary: req.BaseSalary,
		Active:     req.Active,
		CreatedAt:  existing.CreatedAt,
	}
	if err := s.repo.Update(ctx, student, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.invalidate(ctx, id)
	return &models.StudentDetail{Student: *student, Schedules: slots}, nil
}

// Deactivate marks the student inactive without deleting history.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *StudentService) invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStudent(ctx, studentID); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("student_id", studentID), zap.Error(err))
	}
}

func buildSlots(reqs []ScheduleSlotRequest) ([]models.ScheduleSlot, error) {
	slots := make([]models.ScheduleSlot, 0, len(reqs))
	for _, r := range reqs {
		wd := models.Weekday(r.Weekday)
		if !wd.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "weekday out of range")
		}
		session := models.SessionType(r.Session)
		if !session.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown session")
		}
		slots = append(slots, models.ScheduleSlot{Weekday: wd, Session: session})
	}
	return slots, nil
}
