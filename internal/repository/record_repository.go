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

const studyRecordColumns = `id, student_id, date, weekday, session, status, absent_reason,
        homework, formula_test, old_lesson_test, regular_homework_result, ignore_early_stats,
        eval_new_knowledge, eval_quantity, ignore_mid_stats,
        assigned_homework, ignore_late_stats, has_regular_homework, ignore_outside_stats,
        test_score, ignore_test_stats, created_at, updated_at`

// RecordRepository manages persistence for study records and mock tests.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// List returns study records matching the provided filters.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.StudyRecord, int, error) {
	base := "FROM study_records"
	args := []interface{}{filter.StudentID}
	conditions := []string{"student_id = $1"}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Year != 0 && filter.Month != 0 {
		from := time.Date(filter.Year, filter.Month, 1, 0, 0, 0, 0, time.UTC)
		conditions = append(conditions, fmt.Sprintf("date >= $%d AND date < $%d", len(args)+1, len(args)+2))
		args = append(args, from, from.AddDate(0, 1, 0))
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

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
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY date %s LIMIT %d OFFSET %d", studyRecordColumns, base, order, size, offset)

	var records []models.StudyRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list study records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count study records: %w", err)
	}

	if err := r.attachMockTests(ctx, records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListForMonth returns every record of a student inside a calendar month.
// This is the statistics engine's input snapshot.
func (r *RecordRepository) ListForMonth(ctx context.Context, studentID string, month time.Month, year int) ([]models.StudyRecord, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	query := fmt.Sprintf(`SELECT %s FROM study_records
        WHERE student_id = $1 AND date >= $2 AND date < $3 ORDER BY date`, studyRecordColumns)
	var records []models.StudyRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, from, from.AddDate(0, 1, 0)); err != nil {
		return nil, fmt.Errorf("list month records: %w", err)
	}
	return records, nil
}

// FindByID fetches a record with its mock tests.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.StudyRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM study_records WHERE id = $1", studyRecordColumns)
	var record models.StudyRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	records := []models.StudyRecord{record}
	if err := r.attachMockTests(ctx, records); err != nil {
		return nil, err
	}
	return &records[0], nil
}

// Create inserts a new study record together with its mock tests.
func (r *RecordRepository) Create(ctx context.Context, record *models.StudyRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create record: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO study_records (id, student_id, date, weekday, session, status, absent_reason,
        homework, formula_test, old_lesson_test, regular_homework_result, ignore_early_stats,
        eval_new_knowledge, eval_quantity, ignore_mid_stats,
        assigned_homework, ignore_late_stats, has_regular_homework, ignore_outside_stats,
        test_score, ignore_test_stats, created_at, updated_at)
        VALUES (:id, :student_id, :date, :weekday, :session, :status, :absent_reason,
        :homework, :formula_test, :old_lesson_test, :regular_homework_result, :ignore_early_stats,
        :eval_new_knowledge, :eval_quantity, :ignore_mid_stats,
        :assigned_homework, :ignore_late_stats, :has_regular_homework, :ignore_outside_stats,
        :test_score, :ignore_test_stats, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create study record: %w", err)
	}
	if err := replaceMockTests(ctx, tx, record.ID, record.MockTests); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create record: %w", err)
	}
	return nil
}

// Update modifies an existing study record and replaces its mock tests.
func (r *RecordRepository) Update(ctx context.Context, record *models.StudyRecord) error {
	record.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update record: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE study_records SET date = :date, weekday = :weekday, session = :session,
        status = :status, absent_reason = :absent_reason,
        homework = :homework, formula_test = :formula_test, old_lesson_test = :old_lesson_test,
        regular_homework_result = :regular_homework_result, ignore_early_stats = :ignore_early_stats,
        eval_new_knowledge = :eval_new_knowledge, eval_quantity = :eval_quantity, ignore_mid_stats = :ignore_mid_stats,
        assigned_homework = :assigned_homework, ignore_late_stats = :ignore_late_stats,
        has_regular_homework = :has_regular_homework, ignore_outside_stats = :ignore_outside_stats,
        test_score = :test_score, ignore_test_stats = :ignore_test_stats, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update study record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM mock_tests WHERE record_id = $1`, record.ID); err != nil {
		return fmt.Errorf("clear mock tests: %w", err)
	}
	if err := replaceMockTests(ctx, tx, record.ID, record.MockTests); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update record: %w", err)
	}
	return nil
}

// Delete removes a study record. Mock tests cascade at the schema level.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM study_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete study record: %w", err)
	}
	return nil
}

func (r *RecordRepository) attachMockTests(ctx context.Context, records []models.StudyRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	query, args, err := sqlx.In(`SELECT id, record_id, date, score FROM mock_tests WHERE record_id IN (?) ORDER BY date`, ids)
	if err != nil {
		return fmt.Errorf("build mock test query: %w", err)
	}
	query = r.db.Rebind(query)
	var tests []models.MockTest
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return fmt.Errorf("list mock tests: %w", err)
	}
	byRecord := make(map[string][]models.MockTest, len(records))
	for _, mt := range tests {
		byRecord[mt.RecordID] = append(byRecord[mt.RecordID], mt)
	}
	for i := range records {
		records[i].MockTests = byRecord[records[i].ID]
	}
	return nil
}

func replaceMockTests(ctx context.Context, tx *sqlx.Tx, recordID string, tests []models.MockTest) error {
	const query = `INSERT INTO mock_tests (id, record_id, date, score) VALUES (:id, :record_id, :date, :score)`
	for i := range tests {
		if tests[i].ID == "" {
			tests[i].ID = uuid.NewString()
		}
		tests[i].RecordID = recordID
		if _, err := tx.NamedExecContext(ctx, query, tests[i]); err != nil {
			return fmt.Errorf("create mock test: %w", err)
		}
	}
	return nil
}
