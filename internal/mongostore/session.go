package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/model"
)

// CreateSession inserts a new session. A second in-progress session for
// the same candidate and exam fails with exam.ErrConflict.
func (s *Store) CreateSession(ctx context.Context, sess model.ExamSession) error {
	_, err := s.sessions.InsertOne(ctx, sess)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("create session %s: %w", sess.SessionID, exam.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("create session %s: %w", sess.SessionID, err)
	}
	return nil
}

// GetSession returns a session by ID.
func (s *Store) GetSession(ctx context.Context, sessionID string) (model.ExamSession, error) {
	return findOne[model.ExamSession](ctx, s.sessions, bson.M{"_id": sessionID}, "session", sessionID)
}

// FindOpenSession returns the candidate's session for examID that is not completed.
func (s *Store) FindOpenSession(ctx context.Context, examID, nationalID string) (model.ExamSession, error) {
	filter := bson.M{
		"exam_id":          examID,
		"user.national_id": nationalID,
		"status":           bson.M{"$ne": string(model.StatusCompleted)},
	}
	return findOne[model.ExamSession](ctx, s.sessions, filter, "open session", examID+"/"+nationalID)
}

// UpdateSession replaces the session if its stored version still equals
// sess.Version and bumps the version.
func (s *Store) UpdateSession(ctx context.Context, sess model.ExamSession) error {
	filter := bson.M{"_id": sess.SessionID, "version": sess.Version}
	next := sess
	next.Version++
	res, err := s.sessions.ReplaceOne(ctx, filter, next)
	if err != nil {
		return fmt.Errorf("update session %s: %w", sess.SessionID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.sessions.CountDocuments(ctx, bson.M{"_id": sess.SessionID})
	if err != nil {
		return fmt.Errorf("update session %s: %w", sess.SessionID, err)
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", sess.SessionID, exam.ErrNotFound)
	}
	return fmt.Errorf("session %s: %w", sess.SessionID, exam.ErrConflict)
}

// ListSessions returns sessions newest first; an empty examID lists all.
func (s *Store) ListSessions(ctx context.Context, examID string) ([]model.ExamSession, error) {
	filter := bson.M{}
	if examID != "" {
		filter["exam_id"] = examID
	}
	opts := options.Find().SetSort(bson.D{{Key: "started_at", Value: -1}, {Key: "_id", Value: -1}})
	sessions, err := findAll[model.ExamSession](ctx, s.sessions, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
