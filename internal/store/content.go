package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/model"
)

// testContent is the JSON-encoded part of a test row.
type testContent struct {
	Sections []model.Section `json:"sections,omitempty"`
	Tasks    []model.Task    `json:"tasks,omitempty"`
}

// PutTest inserts or replaces a test.
func (s *Store) PutTest(ctx context.Context, t model.Test) error {
	content, err := json.Marshal(testContent{Sections: t.Sections, Tasks: t.Tasks})
	if err != nil {
		return fmt.Errorf("encode test content: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO tests (id, title, skill, test_type, difficulty, active, content_json, total_questions, total_marks, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, skill = excluded.skill, test_type = excluded.test_type,
			difficulty = excluded.difficulty, active = excluded.active, content_json = excluded.content_json,
			total_questions = excluded.total_questions, total_marks = excluded.total_marks,
			updated_at = excluded.updated_at`),
		t.ID, t.Title, t.Skill, t.TestType, t.Difficulty, t.Active, string(content),
		t.TotalQuestions, t.TotalMarks, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

const testColumns = `id, title, skill, test_type, difficulty, active, content_json, total_questions, total_marks, created_at, updated_at`

func scanTest(row interface{ Scan(...any) error }) (model.Test, error) {
	var t model.Test
	var content string
	err := row.Scan(&t.ID, &t.Title, &t.Skill, &t.TestType, &t.Difficulty, &t.Active, &content,
		&t.TotalQuestions, &t.TotalMarks, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	var c testContent
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		return t, fmt.Errorf("decode test %s content: %w", t.ID, err)
	}
	t.Sections, t.Tasks = c.Sections, c.Tasks
	return t, nil
}

// GetTest returns a test by ID.
func (s *Store) GetTest(ctx context.Context, id string) (model.Test, error) {
	t, err := scanTest(s.db.QueryRowContext(ctx, s.q(`SELECT `+testColumns+` FROM tests WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Test{}, fmt.Errorf("test %s: %w", id, exam.ErrNotFound)
	}
	return t, err
}

// ListTests returns all tests ordered by ID.
func (s *Store) ListTests(ctx context.Context) ([]model.Test, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+testColumns+` FROM tests ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tests []model.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// PutExam inserts or replaces an exam.
func (s *Store) PutExam(ctx context.Context, e model.Exam) error {
	_, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO exams (id, title, active, listening_test_id, reading_test_id, writing_test_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, active = excluded.active,
			listening_test_id = excluded.listening_test_id, reading_test_id = excluded.reading_test_id,
			writing_test_id = excluded.writing_test_id`),
		e.ID, e.Title, e.Active, e.ListeningTestID, e.ReadingTestID, e.WritingTestID, e.CreatedAt,
	)
	return err
}

// CreateExam inserts an exam. A taken ID yields exam.ErrConflict.
func (s *Store) CreateExam(ctx context.Context, e model.Exam) error {
	res, err := s.db.ExecContext(ctx, s.q(
		`INSERT INTO exams (id, title, active, listening_test_id, reading_test_id, writing_test_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`),
		e.ID, e.Title, e.Active, e.ListeningTestID, e.ReadingTestID, e.WritingTestID, e.CreatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("exam %s: %w", e.ID, exam.ErrConflict)
	}
	return nil
}

// ListExams returns all exams ordered by ID.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, active, listening_test_id, reading_test_id, writing_test_id, created_at
		 FROM exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Active, &e.ListeningTestID, &e.ReadingTestID, &e.WritingTestID, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(ctx context.Context, id string) (model.Exam, error) {
	var e model.Exam
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, title, active, listening_test_id, reading_test_id, writing_test_id, created_at
		 FROM exams WHERE id = ?`), id,
	).Scan(&e.ID, &e.Title, &e.Active, &e.ListeningTestID, &e.ReadingTestID, &e.WritingTestID, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exam{}, fmt.Errorf("exam %s: %w", id, exam.ErrNotFound)
	}
	return e, err
}
