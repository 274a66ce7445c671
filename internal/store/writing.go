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

// optionalJSON encodes v, or returns "" for a nil pointer.
func optionalJSON[T any](v *T) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeOptional[T any](data string) (*T, error) {
	if data == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

type submissionRow struct {
	scores, feedback, suggestion string
}

func encodeSubmission(sub model.WritingSubmission) (submissionRow, error) {
	var r submissionRow
	var err error
	if r.scores, err = optionalJSON(sub.Scores); err != nil {
		return r, fmt.Errorf("encode scores: %w", err)
	}
	if r.feedback, err = optionalJSON(sub.Feedback); err != nil {
		return r, fmt.Errorf("encode feedback: %w", err)
	}
	if r.suggestion, err = optionalJSON(sub.Suggestion); err != nil {
		return r, fmt.Errorf("encode suggestion: %w", err)
	}
	return r, nil
}

// CreateWritingSubmission stores a new writing submission.
func (s *Store) CreateWritingSubmission(ctx context.Context, sub model.WritingSubmission) error {
	r, err := encodeSubmission(sub)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO writing_submissions (id, test_id, task_number, submitted_by, response, word_count,
			scores_json, band_score, feedback_json, suggestion_json, marking_status, marked_by, marked_at, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sub.ID, sub.TestID, sub.TaskNumber, sub.SubmittedBy, sub.Response, sub.WordCount,
		r.scores, sub.BandScore, r.feedback, r.suggestion, sub.MarkingStatus, sub.MarkedBy, sub.MarkedAt, sub.SubmittedAt,
	)
	return err
}

// GetWritingSubmission returns a writing submission by ID.
func (s *Store) GetWritingSubmission(ctx context.Context, id string) (model.WritingSubmission, error) {
	var sub model.WritingSubmission
	var r submissionRow
	var band sql.NullFloat64
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT id, test_id, task_number, submitted_by, response, word_count, scores_json, band_score,
			feedback_json, suggestion_json, marking_status, marked_by, marked_at, submitted_at
		 FROM writing_submissions WHERE id = ?`), id,
	).Scan(&sub.ID, &sub.TestID, &sub.TaskNumber, &sub.SubmittedBy, &sub.Response, &sub.WordCount,
		&r.scores, &band, &r.feedback, &r.suggestion, &sub.MarkingStatus, &sub.MarkedBy, &sub.MarkedAt, &sub.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, fmt.Errorf("writing submission %s: %w", id, exam.ErrNotFound)
	}
	if err != nil {
		return sub, err
	}
	if band.Valid {
		sub.BandScore = &band.Float64
	}
	if sub.Scores, err = decodeOptional[model.CriteriaScores](r.scores); err != nil {
		return sub, fmt.Errorf("decode scores: %w", err)
	}
	if sub.Feedback, err = decodeOptional[model.WritingFeedback](r.feedback); err != nil {
		return sub, fmt.Errorf("decode feedback: %w", err)
	}
	if sub.Suggestion, err = decodeOptional[model.WritingSuggestion](r.suggestion); err != nil {
		return sub, fmt.Errorf("decode suggestion: %w", err)
	}
	return sub, nil
}

// UpdateWritingSubmission overwrites the marking fields of a submission.
func (s *Store) UpdateWritingSubmission(ctx context.Context, sub model.WritingSubmission) error {
	r, err := encodeSubmission(sub)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.q(
		`UPDATE writing_submissions SET scores_json = ?, band_score = ?, feedback_json = ?, suggestion_json = ?,
			marking_status = ?, marked_by = ?, marked_at = ?
		 WHERE id = ?`),
		r.scores, sub.BandScore, r.feedback, r.suggestion, sub.MarkingStatus, sub.MarkedBy, sub.MarkedAt, sub.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("writing submission %s: %w", sub.ID, exam.ErrNotFound)
	}
	return nil
}

// ListWritingSubmissions returns submissions with the given marking status,
// oldest first. An empty status lists all.
func (s *Store) ListWritingSubmissions(ctx context.Context, status model.MarkingStatus) ([]model.WritingSubmission, error) {
	query := `SELECT id FROM writing_submissions`
	var args []any
	if status != "" {
		query += ` WHERE marking_status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY submitted_at`
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	subs := make([]model.WritingSubmission, 0, len(ids))
	for _, id := range ids {
		sub, err := s.GetWritingSubmission(ctx, id)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
