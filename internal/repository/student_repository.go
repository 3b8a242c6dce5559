package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thuongvd0411/theodoihoctoan/internal/models"
)

// StudentRepository manages persistence for students and their schedule slots.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.ClassName != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_name = $%d", len(args)+1))
		args = append(args, filter.ClassName)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(s.full_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"full_name":  "s.full_name",
		"class_name": "s.class_name",
		"created_at": "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.full_name, s.class_name, s.base_salary, s.active, s.created_at, s.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student with its schedule slots.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT id, full_name, class_name, base_salary, active, created_at, updated_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	slots, err := r.ListSlots(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.StudentDetail{Student: student, Schedules: slots}, nil
}

// ListSlots returns the schedule slots owned by a student.
func (r *StudentRepository) ListSlots(ctx context.Context, studentID string) ([]models.ScheduleSlot, error) {
	const query = `SELECT id, student_id, weekday, session, created_at
        FROM schedule_slots WHERE student_id = $1 ORDER BY weekday, session`
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, query, studentID); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}
	return slots, nil
}

// Create inserts a new student together with its schedule slots.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student, slots []models.ScheduleSlot) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertStudent = `INSERT INTO students (id, full_name, class_name, base_salary, active, created_at, updated_at)
        VALUES (:id, :full_name, :class_name, :base_salary, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertStudent, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	if err := insertSlots(ctx, tx, student.ID, slots); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student: %w", err)
	}
	return nil
}

// Update modifies an existing student and replaces its schedule slots.
// Slots are composition-owned: the stored set always mirrors the request.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student, slots []models.ScheduleSlot) error {
	student.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const updateStudent = `UPDATE students SET full_name = :full_name, class_name = :class_name,
        base_salary = :base_salary, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateStudent, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE student_id = $1`, student.ID); err != nil {
		return fmt.Errorf("clear schedule slots: %w", err)
	}
	if err := insertSlots(ctx, tx, student.ID, slots); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update student: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive.
func (r *StudentRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE students SET active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return nil
}

// ListActiveWithSlots returns every active student with schedule slots
// attached. Used by the monthly payroll summary.
func (r *StudentRepository) ListActiveWithSlots(ctx context.Context) ([]models.StudentDetail, error) {
	const query = `SELECT id, full_name, class_name, base_salary, active, created_at, updated_at
        FROM students WHERE active = true ORDER BY full_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list active students: %w", err)
	}
	if len(students) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	slotQuery, slotArgs, err := sqlx.In(`SELECT id, student_id, weekday, session, created_at
        FROM schedule_slots WHERE student_id IN (?) ORDER BY weekday, session`, ids)
	if err != nil {
		return nil, fmt.Errorf("build slot query: %w", err)
	}
	slotQuery = r.db.Rebind(slotQuery)
	var slots []models.ScheduleSlot
	if err := r.db.SelectContext(ctx, &slots, slotQuery, slotArgs...); err != nil {
		return nil, fmt.Errorf("list schedule slots: %w", err)
	}

	byStudent := make(map[string][]models.ScheduleSlot, len(students))
	for _, slot := range slots {
		byStudent[slot.StudentID] = append(byStudent[slot.StudentID], slot)
	}

	details := make([]models.StudentDetail, 0, len(students))
	for _, s := range students {
		details = append(details, models.StudentDetail{Student: s, Schedules: byStudent[s.ID]})
	}
	return details, nil
}

func insertSlots(ctx context.Context, tx *sqlx.Tx, studentID string, slots []models.ScheduleSlot) error {
	const insertSlot = `INSERT INTO schedule_slots (id, student_id, weekday, session, created_at)
        VALUES (:id, :student_id, :weekday, :session, :created_at)`
	now := time.Now().UTC()
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
		slots[i].StudentID = studentID
		if slots[i].CreatedAt.IsZero() {
			slots[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, insertSlot, slots[i]); err != nil {
			return fmt.Errorf("create schedule slot: %w", err)
		}
	}
	return nil
}
