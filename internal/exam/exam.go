// Package exam drives exam sessions through their sections, scores each
// submission, and manages the manual writing-marking workflow.
package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/bandscore/internal/model"
)

var (
	// ErrNotFound is returned when a session, exam, test or submission is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState is returned for submissions the session cannot accept.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict is returned when a record changed between read and write.
	ErrConflict = errors.New("concurrent modification")
	// ErrInvalidInput is returned for malformed or out-of-range values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned when an optional collaborator is not configured.
	ErrUnavailable = errors.New("unavailable")
)

// Repository persists exams, tests, sessions and writing submissions.
// Getters return an error wrapping ErrNotFound for absent records.
type Repository interface {
	GetExam(ctx context.Context, id string) (model.Exam, error)
	PutExam(ctx context.Context, e model.Exam) error
	// CreateExam inserts e and fails with ErrConflict when the id is taken.
	CreateExam(ctx context.Context, e model.Exam) error
	ListExams(ctx context.Context) ([]model.Exam, error)
	GetTest(ctx context.Context, id string) (model.Test, error)
	PutTest(ctx context.Context, t model.Test) error
	ListTests(ctx context.Context) ([]model.Test, error)

	CreateSession(ctx context.Context, s model.ExamSession) error
	GetSession(ctx context.Context, sessionID string) (model.ExamSession, error)
	// FindOpenSession returns the not-completed session of a candidate for an exam.
	FindOpenSession(ctx context.Context, examID, nationalID string) (model.ExamSession, error)
	// UpdateSession writes s if the stored version equals s.Version and
	// stores it with the version incremented. A mismatch yields ErrConflict.
	UpdateSession(ctx context.Context, s model.ExamSession) error
	ListSessions(ctx context.Context, examID string) ([]model.ExamSession, error)

	CreateWritingSubmission(ctx context.Context, sub model.WritingSubmission) error
	GetWritingSubmission(ctx context.Context, id string) (model.WritingSubmission, error)
	UpdateWritingSubmission(ctx context.Context, sub model.WritingSubmission) error
	// ListWritingSubmissions returns submissions oldest first; an empty status lists all.
	ListWritingSubmissions(ctx context.Context, status model.MarkingStatus) ([]model.WritingSubmission, error)
}

// Sequencer hands out monotonically increasing numbers per key.
type Sequencer interface {
	Next(ctx context.Context, key string) (int64, error)
}

// Publisher emits domain events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Assessor produces an advisory assessment of a writing response.
type Assessor interface {
	AssessWriting(ctx context.Context, task model.Task, response string) (model.WritingSuggestion, error)
}

// Event types.
const (
	EventSessionStarted    = "session.started"
	EventSectionSubmitted  = "session.section_submitted"
	EventSessionCompleted  = "session.completed"
	EventWritingRecorded   = "session.writing_recorded"
	EventWritingSubmitted  = "writing.submitted"
	EventWritingReview     = "writing.review_started"
	EventWritingMarked     = "writing.marked"
	EventWritingSuggestion = "writing.suggested"
)

// Config holds service options.
type Config struct {
	SessionPrefix string
	ExamPrefix    string
	// Assessor is optional; SuggestMarks returns ErrUnavailable without it.
	Assessor Assessor
	Now      func() time.Time
}

// Service implements the exam session engine.
type Service struct {
	repo     Repository
	seq      Sequencer
	events   Publisher
	assessor Assessor
	cfg      Config
	now      func() time.Time
}

// NewService creates a service. Empty prefixes default to "ES" and "EX".
func NewService(repo Repository, seq Sequencer, events Publisher, cfg Config) *Service {
	if cfg.SessionPrefix == "" {
		cfg.SessionPrefix = "ES"
	}
	if cfg.ExamPrefix == "" {
		cfg.ExamPrefix = "EX"
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     repo,
		seq:      seq,
		events:   events,
		assessor: cfg.Assessor,
		cfg:      cfg,
		now:      func() time.Time { return now().UTC() },
	}
}

// FormatID renders <prefix><YY><NNNNN>.
func FormatID(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s%02d%05d", prefix, year%100, n)
}

func (s *Service) nextID(ctx context.Context, prefix string) (string, error) {
	year := s.now().Year()
	n, err := s.seq.Next(ctx, fmt.Sprintf("%s%02d", prefix, year%100))
	if err != nil {
		return "", fmt.Errorf("next %s sequence: %w", prefix, err)
	}
	return FormatID(prefix, year, n), nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		slog.Warn("publish event", "type", eventType, "error", err)
	}
}
