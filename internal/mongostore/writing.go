package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pavelanni/bandscore/internal/exam"
	"github.com/pavelanni/bandscore/internal/model"
)

// CreateWritingSubmission inserts a submission.
func (s *Store) CreateWritingSubmission(ctx context.Context, sub model.WritingSubmission) error {
	if _, err := s.writing.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("create writing submission %s: %w", sub.ID, err)
	}
	return nil
}

// GetWritingSubmission returns a submission by ID.
func (s *Store) GetWritingSubmission(ctx context.Context, id string) (model.WritingSubmission, error) {
	return findOne[model.WritingSubmission](ctx, s.writing, bson.M{"_id": id}, "writing submission", id)
}

// UpdateWritingSubmission replaces an existing submission.
func (s *Store) UpdateWritingSubmission(ctx context.Context, sub model.WritingSubmission) error {
	res, err := s.writing.ReplaceOne(ctx, bson.M{"_id": sub.ID}, sub)
	if err != nil {
		return fmt.Errorf("update writing submission %s: %w", sub.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("writing submission %s: %w", sub.ID, exam.ErrNotFound)
	}
	return nil
}

// ListWritingSubmissions returns submissions oldest first; an empty status lists all.
func (s *Store) ListWritingSubmissions(ctx context.Context, status model.MarkingStatus) ([]model.WritingSubmission, error) {
	filter := bson.M{}
	if status != "" {
		filter["marking_status"] = string(status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}, {Key: "_id", Value: 1}})
	subs, err := findAll[model.WritingSubmission](ctx, s.writing, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list writing submissions: %w", err)
	}
	return subs, nil
}
