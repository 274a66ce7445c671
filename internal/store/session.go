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

const sessionColumns = `session_id, exam_id, candidate_name, candidate_phone, candidate_national_id,
	status, current_section, answers_json, scores_json, started_at, completed_at, version`

func scanSession(row interface{ Scan(...any) error }) (model.ExamSession, error) {
	var sess model.ExamSession
	var answers, scores string
	err := row.Scan(&sess.SessionID, &sess.ExamID, &sess.Candidate.Name, &sess.Candidate.Phone,
		&sess.Candidate.NationalID, &sess.Status, &sess.CurrentSection, &answers, &scores,
		&sess.StartedAt, &sess.CompletedAt, &sess.Version)
	if err != nil {
		return sess, err
	}
	if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
		return sess, fmt.Errorf("decode session %s answers: %w", sess.SessionID, err)
	}
	if err := json.Unmarshal([]byte(scores), &sess.Scores); err != nil {
		return sess, fmt.Errorf("decode session %s scores: %w", sess.SessionID, err)
	}
	return sess, nil
}

func encodeSession(sess model.ExamSession) (answers, scores string, err error) {
	a, err := json.Marshal(sess.Answers)
	if err != nil {
		return "", "", fmt.Errorf("encode answers: %w", err)
	}
	sc, err := json.Marshal(sess.Scores)
	if err != nil {
		return "", "", fmt.Errorf("encode scores: %w", err)
	}
	return string(a), string(sc), nil
}

// CreateSession inserts a new exam session.
func (s *Store) CreateSession(ctx context.Context, sess model.ExamSession) error {
	answers, scores, err := encodeSession(sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO exam_sessions (session_id, exam_id, candidate_name, candidate_phone, candidate_national_id,
			status, current_section, answers_json, scores_json, overall_band, started_at, completed_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sess.SessionID, sess.ExamID, sess.Candidate.Name, sess.Candidate.Phone, sess.Candidate.NationalID,
		sess.Status, sess.CurrentSection, answers, scores, sess.Scores.Overall,
		sess.StartedAt, sess.CompletedAt, sess.Version,
	)
	return err
}

// GetSession returns a session by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (model.ExamSession, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, s.q(
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE session_id = ?`), sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExamSession{}, fmt.Errorf("session %s: %w", sessionID, exam.ErrNotFound)
	}
	return sess, err
}

// FindOpenSession returns the candidate's not-completed session for an exam.
func (s *Store) FindOpenSession(ctx context.Context, examID, nationalID string) (model.ExamSession, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx, s.q(
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE exam_id = ? AND candidate_national_id = ? AND status <> ?
		 ORDER BY started_at DESC LIMIT 1`), examID, nationalID, model.StatusCompleted))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExamSession{}, exam.ErrNotFound
	}
	return sess, err
}

// UpdateSession writes sess when the stored version still equals sess.Version.
func (s *Store) UpdateSession(ctx context.Context, sess model.ExamSession) error {
	answers, scores, err := encodeSession(sess)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE exam_sessions SET status = ?, current_section = ?, answers_json = ?, scores_json = ?,
			overall_band = ?, completed_at = ?, version = version + 1
		 WHERE session_id = ? AND version = ?`),
		sess.Status, sess.CurrentSection, answers, scores, sess.Scores.Overall, sess.CompletedAt,
		sess.SessionID, sess.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetSession(ctx, sess.SessionID); err != nil {
			return err
		}
		return fmt.Errorf("session %s: %w", sess.SessionID, exam.ErrConflict)
	}
	return nil
}

// ListSessions returns sessions, newest first. An empty examID lists all.
func (s *Store) ListSessions(ctx context.Context, examID string) ([]model.ExamSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM exam_sessions`
	var args []any
	if examID != "" {
		query += ` WHERE exam_id = ?`
		args = append(args, examID)
	}
	query += ` ORDER BY started_at DESC, session_id DESC`
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.ExamSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
