package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/bandscore/internal/model"
	"github.com/pavelanni/bandscore/internal/scoring"
)

// Start opens a session for the candidate, or returns their existing
// not-completed session for the same exam. created reports which happened.
func (s *Service) Start(ctx context.Context, examID string, c model.Candidate) (sess model.ExamSession, created bool, err error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.NationalID = strings.TrimSpace(c.NationalID)
	if c.Name == "" || c.NationalID == "" {
		return model.ExamSession{}, false, fmt.Errorf("%w: candidate name and national id are required", ErrInvalidInput)
	}

	e, err := s.repo.GetExam(ctx, examID)
	if err != nil {
		return model.ExamSession{}, false, err
	}
	if !e.Active {
		return model.ExamSession{}, false, fmt.Errorf("exam %s is not active: %w", examID, ErrNotFound)
	}
	// Tests can be removed or re-imported as another skill after the exam is stored.
	if err := s.checkExamTests(ctx, e); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.ExamSession{}, false, err
		}
		return model.ExamSession{}, false, fmt.Errorf("exam %s is not usable (%v): %w", examID, err, ErrNotFound)
	}

	existing, err := s.repo.FindOpenSession(ctx, examID, c.NationalID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, ErrNotFound):
		return model.ExamSession{}, false, fmt.Errorf("find open session: %w", err)
	}

	id, err := s.nextID(ctx, s.cfg.SessionPrefix)
	if err != nil {
		return model.ExamSession{}, false, err
	}
	sess = model.ExamSession{
		SessionID:      id,
		ExamID:         examID,
		Candidate:      c,
		Answers:        model.Answers{Listening: []model.StudentAnswer{}, Reading: []model.StudentAnswer{}},
		Status:         model.StatusInProgress,
		CurrentSection: model.StageListening,
		StartedAt:      s.now(),
	}

	if err := s.repo.CreateSession(ctx, sess); err != nil {
		// A concurrent start for the same candidate may have won the insert.
		if existing, ferr := s.repo.FindOpenSession(ctx, examID, c.NationalID); ferr == nil {
			return existing, false, nil
		}
		return model.ExamSession{}, false, fmt.Errorf("create session: %w", err)
	}
	slog.Info("session started", "session_id", sess.SessionID, "exam", examID)
	s.publish(ctx, EventSessionStarted, map[string]any{
		"sessionId":  sess.SessionID,
		"examId":     examID,
		"nationalId": c.NationalID,
	})
	return sess, true, nil
}

// Session returns a session by id.
func (s *Service) Session(ctx context.Context, sessionID string) (model.ExamSession, error) {
	return s.repo.GetSession(ctx, sessionID)
}

// SubmitListening scores the listening answers and advances to reading.
func (s *Service) SubmitListening(ctx context.Context, sessionID string, answers []model.StudentAnswer) (model.ExamSession, error) {
	return s.submitObjective(ctx, sessionID, model.SkillListening, answers)
}

// SubmitReading scores the reading answers and advances to writing.
func (s *Service) SubmitReading(ctx context.Context, sessionID string, answers []model.StudentAnswer) (model.ExamSession, error) {
	return s.submitObjective(ctx, sessionID, model.SkillReading, answers)
}

func (s *Service) openSession(ctx context.Context, sessionID string, want model.Stage) (model.ExamSession, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return model.ExamSession{}, err
	}
	if sess.Status == model.StatusCompleted {
		return model.ExamSession{}, fmt.Errorf("session %s is already completed: %w", sessionID, ErrInvalidState)
	}
	if sess.CurrentSection != want {
		return model.ExamSession{}, fmt.Errorf("session %s expects %s, not %s: %w", sessionID, sess.CurrentSection, want, ErrInvalidState)
	}
	return sess, nil
}

func (s *Service) submitObjective(ctx context.Context, sessionID string, skill model.Skill, answers []model.StudentAnswer) (model.ExamSession, error) {
	sess, err := s.openSession(ctx, sessionID, model.Stage(skill))
	if err != nil {
		return model.ExamSession{}, err
	}
	e, err := s.repo.GetExam(ctx, sess.ExamID)
	if err != nil {
		return model.ExamSession{}, err
	}
	test, err := s.repo.GetTest(ctx, e.TestID(skill))
	if err != nil {
		return model.ExamSession{}, err
	}
	table, err := scoring.TableFor(skill, test.TestType)
	if err != nil {
		return model.ExamSession{}, err
	}

	if answers == nil {
		answers = []model.StudentAnswer{}
	}
	raw := scoring.CountCorrect(answers, test.Sections)
	score := model.SectionScore{Raw: raw, Band: table.Band(raw)}
	switch skill {
	case model.SkillListening:
		sess.Answers.Listening = answers
		sess.Scores.Listening = score
	case model.SkillReading:
		sess.Answers.Reading = answers
		sess.Scores.Reading = score
	}
	sess.CurrentSection = sess.CurrentSection.Next()

	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return model.ExamSession{}, err
	}
	sess.Version++
	s.publish(ctx, EventSectionSubmitted, map[string]any{
		"sessionId": sess.SessionID,
		"section":   skill,
		"raw":       score.Raw,
		"band":      score.Band,
	})
	return sess, nil
}

// SubmitWriting stores the writing responses and completes the session.
// The overall band covers listening and reading until writing bands are recorded.
func (s *Service) SubmitWriting(ctx context.Context, sessionID string, w model.WritingAnswers) (model.ExamSession, error) {
	sess, err := s.openSession(ctx, sessionID, model.StageWriting)
	if err != nil {
		return model.ExamSession{}, err
	}
	completed := s.now()
	sess.Answers.Writing = w
	sess.CurrentSection = model.StageCompleted
	sess.Status = model.StatusCompleted
	sess.CompletedAt = &completed
	sess.Scores.Overall = scoring.Aggregate(sess.Scores.Listening.Band, sess.Scores.Reading.Band)

	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return model.ExamSession{}, err
	}
	sess.Version++
	slog.Info("session completed", "session_id", sess.SessionID, "overall", sess.Scores.Overall)
	s.publish(ctx, EventSessionCompleted, map[string]any{
		"sessionId": sess.SessionID,
		"overall":   sess.Scores.Overall,
	})
	return sess, nil
}

// RecordWritingBands stores examiner writing bands and recomputes the
// overall band. It works in any session status and overwrites earlier values.
func (s *Service) RecordWritingBands(ctx context.Context, sessionID string, task1, task2 float64) (model.ExamSession, error) {
	if !scoring.ValidBand(task1) || !scoring.ValidBand(task2) {
		return model.ExamSession{}, fmt.Errorf("%w: writing bands must be 0-9 in steps of 0.5", ErrInvalidInput)
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return model.ExamSession{}, err
	}
	sess.Scores.Writing = model.WritingScore{
		Task1Band:   task1,
		Task2Band:   task2,
		OverallBand: scoring.WritingOverall(task1, task2),
	}
	sess.Scores.Overall = scoring.Aggregate(
		sess.Scores.Listening.Band,
		sess.Scores.Reading.Band,
		sess.Scores.Writing.OverallBand,
	)
	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return model.ExamSession{}, err
	}
	sess.Version++
	s.publish(ctx, EventWritingRecorded, map[string]any{
		"sessionId": sess.SessionID,
		"writing":   sess.Scores.Writing.OverallBand,
		"overall":   sess.Scores.Overall,
	})
	return sess, nil
}

// Results returns the export rows of all sessions, optionally for one exam.
func (s *Service) Results(ctx context.Context, examID string) (model.ResultsExport, error) {
	sessions, err := s.repo.ListSessions(ctx, examID)
	if err != nil {
		return model.ResultsExport{}, fmt.Errorf("list sessions: %w", err)
	}
	out := model.ResultsExport{
		ExportedAt: s.now(),
		ExamID:     examID,
		Sessions:   len(sessions),
		Results:    make([]model.SessionResult, 0, len(sessions)),
	}
	for _, sess := range sessions {
		out.Results = append(out.Results, model.NewSessionResult(sess))
	}
	return out, nil
}
