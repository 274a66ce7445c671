package exam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/bandscore/internal/model"
	"github.com/pavelanni/bandscore/internal/scoring"
)

// Minimum word counts per writing task. They are advisory only.
const (
	MinWordsTask1 = 150
	MinWordsTask2 = 250
)

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// MinWords returns the advisory minimum for a task number.
func MinWords(task int) int {
	if task == 1 {
		return MinWordsTask1
	}
	return MinWordsTask2
}

// Receipt describes an accepted writing response.
type Receipt struct {
	ID               string `json:"id"`
	WordCount        int    `json:"wordCount"`
	MinWordsRequired int    `json:"minWordsRequired"`
	MeetsRequirement bool   `json:"meetsRequirement"`
}

// SubmitWritingResponse stores a standalone writing response for marking.
// Short responses are accepted; the receipt reports the shortfall.
func (s *Service) SubmitWritingResponse(ctx context.Context, testID string, taskNumber int, response, submittedBy string) (Receipt, error) {
	if taskNumber != 1 && taskNumber != 2 {
		return Receipt{}, fmt.Errorf("%w: task number must be 1 or 2", ErrInvalidInput)
	}
	test, err := s.repo.GetTest(ctx, testID)
	if err != nil {
		return Receipt{}, err
	}
	if test.Skill != model.SkillWriting {
		return Receipt{}, fmt.Errorf("%w: test %s is a %s test", ErrInvalidInput, testID, test.Skill)
	}

	sub := model.WritingSubmission{
		ID:            uuid.NewString(),
		TestID:        testID,
		TaskNumber:    taskNumber,
		SubmittedBy:   submittedBy,
		Response:      response,
		WordCount:     CountWords(response),
		MarkingStatus: model.MarkingPending,
		SubmittedAt:   s.now(),
	}
	if err := s.repo.CreateWritingSubmission(ctx, sub); err != nil {
		return Receipt{}, fmt.Errorf("create writing submission: %w", err)
	}
	minWords := MinWords(taskNumber)
	s.publish(ctx, EventWritingSubmitted, map[string]any{
		"submissionId": sub.ID,
		"testId":       testID,
		"taskNumber":   taskNumber,
		"wordCount":    sub.WordCount,
	})
	return Receipt{
		ID:               sub.ID,
		WordCount:        sub.WordCount,
		MinWordsRequired: minWords,
		MeetsRequirement: sub.WordCount >= minWords,
	}, nil
}

// WritingSubmission returns a submission by id.
func (s *Service) WritingSubmission(ctx context.Context, id string) (model.WritingSubmission, error) {
	return s.repo.GetWritingSubmission(ctx, id)
}

// WritingQueue lists submissions in the given marking status.
func (s *Service) WritingQueue(ctx context.Context, status model.MarkingStatus) ([]model.WritingSubmission, error) {
	switch status {
	case "", model.MarkingPending, model.MarkingInReview, model.MarkingMarked:
	default:
		return nil, fmt.Errorf("%w: unknown marking status %q", ErrInvalidInput, status)
	}
	return s.repo.ListWritingSubmissions(ctx, status)
}

// StartReview moves a pending submission to in-review so other examiners
// can see it is taken. Starting a review that is already open is a no-op.
// Marked submissions are re-marked with MarkSubmission directly.
func (s *Service) StartReview(ctx context.Context, id, reviewer string) (model.WritingSubmission, error) {
	sub, err := s.repo.GetWritingSubmission(ctx, id)
	if err != nil {
		return model.WritingSubmission{}, err
	}
	switch sub.MarkingStatus {
	case model.MarkingInReview:
		return sub, nil
	case model.MarkingMarked:
		return model.WritingSubmission{}, fmt.Errorf("writing submission %s is already marked: %w", id, ErrInvalidState)
	}
	sub.MarkingStatus = model.MarkingInReview
	if err := s.repo.UpdateWritingSubmission(ctx, sub); err != nil {
		return model.WritingSubmission{}, fmt.Errorf("update writing submission: %w", err)
	}
	slog.Info("writing review started", "submission_id", id, "reviewer", reviewer)
	s.publish(ctx, EventWritingReview, map[string]any{
		"submissionId": sub.ID,
		"reviewer":     reviewer,
	})
	return sub, nil
}

// MarkSubmission records examiner criteria, computes the task band and
// marks the submission. Marking again overwrites the previous marks.
func (s *Service) MarkSubmission(ctx context.Context, id string, scores model.CriteriaScores, feedback model.WritingFeedback, markedBy string) (model.WritingSubmission, error) {
	for _, v := range scores.Values() {
		if !scoring.ValidBand(v) {
			return model.WritingSubmission{}, fmt.Errorf("%w: criteria scores must be 0-9 in steps of 0.5", ErrInvalidInput)
		}
	}
	sub, err := s.repo.GetWritingSubmission(ctx, id)
	if err != nil {
		return model.WritingSubmission{}, err
	}
	band := scoring.CriteriaBand(scores)
	now := s.now()
	sub.Scores = &scores
	sub.BandScore = &band
	sub.Feedback = &feedback
	sub.MarkingStatus = model.MarkingMarked
	sub.MarkedBy = markedBy
	sub.MarkedAt = &now

	if err := s.repo.UpdateWritingSubmission(ctx, sub); err != nil {
		return model.WritingSubmission{}, fmt.Errorf("update writing submission: %w", err)
	}
	s.publish(ctx, EventWritingMarked, map[string]any{
		"submissionId": sub.ID,
		"bandScore":    band,
		"markedBy":     markedBy,
	})
	return sub, nil
}

// SuggestMarks asks the assessor for advisory criteria scores and stores
// them on the submission. The marking status is left unchanged.
func (s *Service) SuggestMarks(ctx context.Context, id string) (model.WritingSubmission, error) {
	if s.assessor == nil {
		return model.WritingSubmission{}, fmt.Errorf("writing assessor: %w", ErrUnavailable)
	}
	sub, err := s.repo.GetWritingSubmission(ctx, id)
	if err != nil {
		return model.WritingSubmission{}, err
	}
	test, err := s.repo.GetTest(ctx, sub.TestID)
	if err != nil {
		return model.WritingSubmission{}, err
	}
	task, ok := test.Task(sub.TaskNumber)
	if !ok {
		task = model.Task{TaskNumber: sub.TaskNumber}
	}

	sugg, err := s.assessor.AssessWriting(ctx, task, sub.Response)
	if err != nil {
		return model.WritingSubmission{}, fmt.Errorf("assess writing: %w", err)
	}
	sugg.Scores = model.CriteriaScores{
		TaskAchievement:   scoring.ClampBand(sugg.Scores.TaskAchievement),
		CoherenceCohesion: scoring.ClampBand(sugg.Scores.CoherenceCohesion),
		LexicalResource:   scoring.ClampBand(sugg.Scores.LexicalResource),
		GrammaticalRange:  scoring.ClampBand(sugg.Scores.GrammaticalRange),
	}
	sugg.BandScore = scoring.CriteriaBand(sugg.Scores)
	if sugg.CreatedAt.IsZero() {
		sugg.CreatedAt = s.now()
	}
	sub.Suggestion = &sugg

	if err := s.repo.UpdateWritingSubmission(ctx, sub); err != nil {
		return model.WritingSubmission{}, fmt.Errorf("update writing submission: %w", err)
	}
	s.publish(ctx, EventWritingSuggestion, map[string]any{
		"submissionId": sub.ID,
		"bandScore":    sugg.BandScore,
	})
	return sub, nil
}
