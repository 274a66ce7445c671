package exam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/bandscore/internal/model"
)

// Document is the on-disk format for authored content.
type Document struct {
	Tests []model.Test `json:"tests"`
	Exams []model.Exam `json:"exams"`
}

// ParseDocument decodes an import document.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return doc, nil
}

// ImportResult summarizes an import.
type ImportResult struct {
	Tests   int      `json:"tests"`
	Exams   int      `json:"exams"`
	ExamIDs []string `json:"examIds"`
}

// ValidateTest checks a test's structure before it is stored.
func ValidateTest(t model.Test) error {
	if t.ID == "" {
		return fmt.Errorf("%w: test id is required", ErrInvalidInput)
	}
	if !model.ValidSkill(t.Skill) {
		return fmt.Errorf("%w: test %s has unknown skill %q", ErrInvalidInput, t.ID, t.Skill)
	}
	if t.Skill == model.SkillWriting {
		for _, task := range t.Tasks {
			if task.TaskNumber != 1 && task.TaskNumber != 2 {
				return fmt.Errorf("%w: test %s has task number %d", ErrInvalidInput, t.ID, task.TaskNumber)
			}
		}
		return nil
	}
	seen := make(map[int]bool)
	for _, s := range t.Sections {
		for _, q := range s.Questions {
			if q.QuestionNumber < 1 {
				return fmt.Errorf("%w: test %s section %d has question number %d", ErrInvalidInput, t.ID, s.Number, q.QuestionNumber)
			}
			if seen[q.QuestionNumber] {
				return fmt.Errorf("%w: test %s repeats question %d", ErrInvalidInput, t.ID, q.QuestionNumber)
			}
			seen[q.QuestionNumber] = true
		}
	}
	return nil
}

func (s *Service) checkExamTests(ctx context.Context, e model.Exam) error {
	for _, skill := range []model.Skill{model.SkillListening, model.SkillReading, model.SkillWriting} {
		id := e.TestID(skill)
		if id == "" {
			return fmt.Errorf("%w: exam %q has no %s test", ErrInvalidInput, e.Title, skill)
		}
		t, err := s.repo.GetTest(ctx, id)
		if err != nil {
			return fmt.Errorf("exam %q %s test: %w", e.Title, skill, err)
		}
		if t.Skill != skill {
			return fmt.Errorf("%w: exam %q uses %s test %s as %s", ErrInvalidInput, e.Title, t.Skill, id, skill)
		}
	}
	return nil
}

// maxIDAttempts bounds how many taken exam ids createExam skips.
const maxIDAttempts = 100

// sameExam reports whether a and b name the same title and tests.
func sameExam(a, b model.Exam) bool {
	return a.Title == b.Title &&
		a.ListeningTestID == b.ListeningTestID &&
		a.ReadingTestID == b.ReadingTestID &&
		a.WritingTestID == b.WritingTestID
}

// createExam stores e under the next exam id not already in use.
func (s *Service) createExam(ctx context.Context, e *model.Exam) error {
	for range maxIDAttempts {
		id, err := s.nextID(ctx, s.cfg.ExamPrefix)
		if err != nil {
			return err
		}
		e.ID = id
		err = s.repo.CreateExam(ctx, *e)
		if !errors.Is(err, ErrConflict) {
			return err
		}
		slog.Debug("exam id taken, trying next", "exam_id", id)
	}
	return fmt.Errorf("no free exam id after %d attempts: %w", maxIDAttempts, ErrConflict)
}

// Import stores every test of doc, then every exam. Exams with an id are
// stored first and replace existing records. An exam without an id reuses
// the id of a stored exam with the same title and tests, or gets the next
// free id from the exam sequence.
func (s *Service) Import(ctx context.Context, doc Document) (ImportResult, error) {
	for _, t := range doc.Tests {
		if err := ValidateTest(t); err != nil {
			return ImportResult{}, err
		}
	}

	var res ImportResult
	now := s.now()
	for _, t := range doc.Tests {
		t.RecomputeTotals()
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		if err := s.repo.PutTest(ctx, t); err != nil {
			return res, fmt.Errorf("store test %s: %w", t.ID, err)
		}
		res.Tests++
	}

	if len(doc.Exams) == 0 {
		slog.Info("content imported", "tests", res.Tests, "exams", 0)
		return res, nil
	}
	for _, e := range doc.Exams {
		if err := s.checkExamTests(ctx, e); err != nil {
			return res, err
		}
	}
	known, err := s.repo.ListExams(ctx)
	if err != nil {
		return res, fmt.Errorf("list exams: %w", err)
	}

	ids := make([]string, len(doc.Exams))
	for i, e := range doc.Exams {
		if e.ID == "" {
			continue
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if err := s.repo.PutExam(ctx, e); err != nil {
			return res, fmt.Errorf("store exam %s: %w", e.ID, err)
		}
		ids[i] = e.ID
		known = append(known, e)
	}
	for i, e := range doc.Exams {
		if e.ID != "" {
			continue
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		matched := false
		for _, k := range known {
			if sameExam(k, e) {
				e.ID, e.CreatedAt, matched = k.ID, k.CreatedAt, true
				break
			}
		}
		if matched {
			err = s.repo.PutExam(ctx, e)
		} else {
			err = s.createExam(ctx, &e)
		}
		if err != nil {
			return res, fmt.Errorf("store exam %q: %w", e.Title, err)
		}
		ids[i] = e.ID
		known = append(known, e)
	}
	res.Exams = len(ids)
	res.ExamIDs = ids
	slog.Info("content imported", "tests", res.Tests, "exams", res.Exams)
	return res, nil
}

// Tests lists the stored tests, answer keys included.
func (s *Service) Tests(ctx context.Context) ([]model.Test, error) {
	tests, err := s.repo.ListTests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}
