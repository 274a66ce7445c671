package exam

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pavelanni/bandscore/internal/model"
)

type memRepo struct {
	mu       sync.Mutex
	exams    map[string]model.Exam
	tests    map[string]model.Test
	sessions map[string]model.ExamSession
	subs     map[string]model.WritingSubmission
	updates  int
}

func newMemRepo() *memRepo {
	return &memRepo{
		exams:    make(map[string]model.Exam),
		tests:    make(map[string]model.Test),
		sessions: make(map[string]model.ExamSession),
		subs:     make(map[string]model.WritingSubmission),
	}
}

func (r *memRepo) GetExam(_ context.Context, id string) (model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.exams[id]
	if !ok {
		return model.Exam{}, fmt.Errorf("exam %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (r *memRepo) PutExam(_ context.Context, e model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exams[e.ID] = e
	return nil
}

func (r *memRepo) CreateExam(_ context.Context, e model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exams[e.ID]; ok {
		return fmt.Errorf("exam %s: %w", e.ID, ErrConflict)
	}
	r.exams[e.ID] = e
	return nil
}

func (r *memRepo) ListExams(_ context.Context) ([]model.Exam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Exam, 0, len(r.exams))
	for _, e := range r.exams {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) GetTest(_ context.Context, id string) (model.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tests[id]
	if !ok {
		return model.Test{}, fmt.Errorf("test %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (r *memRepo) PutTest(_ context.Context, t model.Test) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tests[t.ID] = t
	return nil
}

func (r *memRepo) ListTests(_ context.Context) ([]model.Test, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Test, 0, len(r.tests))
	for _, t := range r.tests {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) CreateSession(_ context.Context, s model.ExamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.SessionID]; ok {
		return fmt.Errorf("session %s exists", s.SessionID)
	}
	r.sessions[s.SessionID] = s
	return nil
}

func (r *memRepo) GetSession(_ context.Context, id string) (model.ExamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return model.ExamSession{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (r *memRepo) FindOpenSession(_ context.Context, examID, nationalID string) (model.ExamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ExamID == examID && s.Candidate.NationalID == nationalID && s.Status != model.StatusCompleted {
			return s, nil
		}
	}
	return model.ExamSession{}, ErrNotFound
}

func (r *memRepo) UpdateSession(_ context.Context, s model.ExamSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[s.SessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", s.SessionID, ErrNotFound)
	}
	if cur.Version != s.Version {
		return fmt.Errorf("session %s: %w", s.SessionID, ErrConflict)
	}
	s.Version++
	r.sessions[s.SessionID] = s
	r.updates++
	return nil
}

func (r *memRepo) ListSessions(_ context.Context, examID string) ([]model.ExamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ExamSession
	for _, s := range r.sessions {
		if examID == "" || s.ExamID == examID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func (r *memRepo) CreateWritingSubmission(_ context.Context, sub model.WritingSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.ID] = sub
	return nil
}

func (r *memRepo) GetWritingSubmission(_ context.Context, id string) (model.WritingSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[id]
	if !ok {
		return model.WritingSubmission{}, fmt.Errorf("writing submission %s: %w", id, ErrNotFound)
	}
	return sub, nil
}

func (r *memRepo) UpdateWritingSubmission(_ context.Context, sub model.WritingSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.ID]; !ok {
		return fmt.Errorf("writing submission %s: %w", sub.ID, ErrNotFound)
	}
	r.subs[sub.ID] = sub
	return nil
}

func (r *memRepo) ListWritingSubmissions(_ context.Context, status model.MarkingStatus) ([]model.WritingSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.WritingSubmission
	for _, sub := range r.subs {
		if status == "" || sub.MarkingStatus == status {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memSeq struct {
	mu   sync.Mutex
	vals map[string]int64
}

func (s *memSeq) Next(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vals == nil {
		s.vals = make(map[string]int64)
	}
	s.vals[key]++
	return s.vals[key], nil
}

type recordedEvent struct {
	Type    string
	Payload any
}

type memEvents struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *memEvents) Publish(_ context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: payload})
	return p.err
}

func (p *memEvents) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type stubAssessor struct {
	scores model.CriteriaScores
	err    error
	task   model.Task
}

func (a *stubAssessor) AssessWriting(_ context.Context, task model.Task, _ string) (model.WritingSuggestion, error) {
	a.task = task
	if a.err != nil {
		return model.WritingSuggestion{}, a.err
	}
	return model.WritingSuggestion{Scores: a.scores, Feedback: "ok", Model: "stub"}, nil
}

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// questions builds n single-answer questions numbered from start with answer "a<number>".
func questions(start, n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		num := start + i
		qs[i] = model.Question{QuestionNumber: num, CorrectAnswer: model.Single(fmt.Sprintf("a%d", num)), Marks: 1}
	}
	return qs
}

// answers returns correct answers for the first `correct` of n questions and wrong ones for the rest.
func answers(start, n, correct int) []model.StudentAnswer {
	out := make([]model.StudentAnswer, n)
	for i := range out {
		num := start + i
		ans := fmt.Sprintf("A%d.", num)
		if i >= correct {
			ans = "wrong"
		}
		out[i] = model.StudentAnswer{QuestionNumber: num, Answer: model.Single(ans)}
	}
	return out
}

type fixture struct {
	repo   *memRepo
	seq    *memSeq
	events *memEvents
	svc    *Service
}

func newFixture(assessor Assessor) *fixture {
	f := &fixture{repo: newMemRepo(), seq: &memSeq{}, events: &memEvents{}}
	f.repo.tests["L1"] = model.Test{ID: "L1", Skill: model.SkillListening, Active: true,
		Sections: []model.Section{{Number: 1, Questions: questions(1, 20)}, {Number: 2, Questions: questions(21, 20)}}}
	f.repo.tests["R1"] = model.Test{ID: "R1", Skill: model.SkillReading, TestType: model.TestTypeAcademic, Active: true,
		Sections: []model.Section{{Number: 1, Questions: questions(1, 40)}}}
	f.repo.tests["W1"] = model.Test{ID: "W1", Skill: model.SkillWriting, Active: true,
		Tasks: []model.Task{{TaskNumber: 1, Prompt: "Describe the chart."}, {TaskNumber: 2, Prompt: "Discuss both views."}}}
	f.repo.exams["EX2500001"] = model.Exam{ID: "EX2500001", Title: "Mock", Active: true,
		ListeningTestID: "L1", ReadingTestID: "R1", WritingTestID: "W1"}
	f.repo.exams["EX2500002"] = model.Exam{ID: "EX2500002", Title: "Retired", Active: false,
		ListeningTestID: "L1", ReadingTestID: "R1", WritingTestID: "W1"}
	f.svc = NewService(f.repo, f.seq, f.events, Config{
		Assessor: assessor,
		Now:      func() time.Time { return fixedNow },
	})
	return f
}

var alice = model.Candidate{Name: "Alice", Phone: "+100", NationalID: "N-1"}
