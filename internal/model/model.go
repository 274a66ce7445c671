package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleCandidate sits the exam.
	UserRoleCandidate UserRole = "candidate"
	// UserRoleExaminer marks writing submissions.
	UserRoleExaminer UserRole = "examiner"
	// UserRoleAdmin manages content, users and final scores.
	UserRoleAdmin UserRole = "admin"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r UserRole) bool {
	switch r {
	case UserRoleCandidate, UserRoleExaminer, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthSession represents an authentication session. Its ID doubles as the
// token identifier, so deleting the row revokes the token.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type authSessionCtxKey struct{}

// ContextWithAuthSession stores the token's auth session ID in context.
func ContextWithAuthSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, authSessionCtxKey{}, id)
}

// AuthSessionFromContext returns the auth session ID, or "".
func AuthSessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(authSessionCtxKey{}).(string)
	return id
}

// Skill is one of the scored parts of an exam.
type Skill string

const (
	SkillListening Skill = "listening"
	SkillReading   Skill = "reading"
	SkillWriting   Skill = "writing"
)

// ValidSkill reports whether s is a known skill.
func ValidSkill(s Skill) bool {
	switch s {
	case SkillListening, SkillReading, SkillWriting:
		return true
	}
	return false
}

// Stage is the section pointer of an exam session.
type Stage string

const (
	StageListening Stage = "listening"
	StageReading   Stage = "reading"
	StageWriting   Stage = "writing"
	StageCompleted Stage = "completed"
)

// Next returns the stage that follows s. StageCompleted is terminal.
func (s Stage) Next() Stage {
	switch s {
	case StageListening:
		return StageReading
	case StageReading:
		return StageWriting
	default:
		return StageCompleted
	}
}

// SessionStatus represents the status of an exam session.
type SessionStatus string

const (
	// StatusNotStarted is never stored; Start creates sessions in progress.
	StatusNotStarted SessionStatus = "not-started"
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
)

// TestType selects the reading band table.
type TestType string

const (
	TestTypeAcademic        TestType = "academic"
	TestTypeGeneralTraining TestType = "general-training"
)

// MarkingStatus tracks a writing submission through manual marking.
type MarkingStatus string

const (
	MarkingPending  MarkingStatus = "pending"
	MarkingInReview MarkingStatus = "in-review"
	MarkingMarked   MarkingStatus = "marked"
)

// Question is a single auto-markable item.
type Question struct {
	QuestionNumber    int      `json:"questionNumber" bson:"question_number"`
	Type              string   `json:"type,omitempty" bson:"type,omitempty"`
	Prompt            string   `json:"prompt,omitempty" bson:"prompt,omitempty"`
	Options           []string `json:"options,omitempty" bson:"options,omitempty"`
	CorrectAnswer     Answer   `json:"correctAnswer" bson:"correct_answer"`
	AcceptableAnswers []string `json:"acceptableAnswers,omitempty" bson:"acceptable_answers,omitempty"`
	Marks             int      `json:"marks" bson:"marks"`
}

// Section groups questions under shared material (audio or passage).
type Section struct {
	Number       int        `json:"number" bson:"number"`
	Title        string     `json:"title,omitempty" bson:"title,omitempty"`
	Instructions string     `json:"instructions,omitempty" bson:"instructions,omitempty"`
	AudioURL     string     `json:"audioUrl,omitempty" bson:"audio_url,omitempty"`
	Passage      string     `json:"passage,omitempty" bson:"passage,omitempty"`
	Questions    []Question `json:"questions" bson:"questions"`
}

// Task is a writing prompt.
type Task struct {
	TaskNumber int    `json:"taskNumber" bson:"task_number"`
	Prompt     string `json:"prompt" bson:"prompt"`
	ImageURL   string `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
}

// Test holds the content of one skill paper.
type Test struct {
	ID             string    `json:"id" bson:"_id"`
	Title          string    `json:"title" bson:"title"`
	Skill          Skill     `json:"skill" bson:"skill"`
	TestType       TestType  `json:"testType,omitempty" bson:"test_type,omitempty"`
	Difficulty     string    `json:"difficulty,omitempty" bson:"difficulty,omitempty"`
	Active         bool      `json:"active" bson:"active"`
	Sections       []Section `json:"sections,omitempty" bson:"sections,omitempty"`
	Tasks          []Task    `json:"tasks,omitempty" bson:"tasks,omitempty"`
	TotalQuestions int       `json:"totalQuestions" bson:"total_questions"`
	TotalMarks     int       `json:"totalMarks" bson:"total_marks"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updated_at"`
}

// RecomputeTotals refreshes TotalQuestions and TotalMarks from the content.
// Questions without marks count as one mark.
func (t *Test) RecomputeTotals() {
	t.TotalQuestions, t.TotalMarks = 0, 0
	for i := range t.Sections {
		for j := range t.Sections[i].Questions {
			q := &t.Sections[i].Questions[j]
			if q.Marks < 1 {
				q.Marks = 1
			}
			t.TotalQuestions++
			t.TotalMarks += q.Marks
		}
	}
	if t.Skill == SkillWriting {
		t.TotalQuestions = len(t.Tasks)
		t.TotalMarks = len(t.Tasks)
	}
}

// Task returns the writing task with the given number.
func (t Test) Task(number int) (Task, bool) {
	for _, task := range t.Tasks {
		if task.TaskNumber == number {
			return task, true
		}
	}
	return Task{}, false
}

// Exam bundles one test per skill into a sittable exam.
type Exam struct {
	ID              string    `json:"id" bson:"_id"`
	Title           string    `json:"title" bson:"title"`
	Active          bool      `json:"active" bson:"active"`
	ListeningTestID string    `json:"listeningTestId" bson:"listening_test_id"`
	ReadingTestID   string    `json:"readingTestId" bson:"reading_test_id"`
	WritingTestID   string    `json:"writingTestId" bson:"writing_test_id"`
	CreatedAt       time.Time `json:"createdAt" bson:"created_at"`
}

// TestID returns the id of the exam's test for skill.
func (e Exam) TestID(skill Skill) string {
	switch skill {
	case SkillListening:
		return e.ListeningTestID
	case SkillReading:
		return e.ReadingTestID
	case SkillWriting:
		return e.WritingTestID
	}
	return ""
}

// Candidate is the identity snapshot taken when a session starts.
type Candidate struct {
	Name       string `json:"name" bson:"name"`
	Phone      string `json:"phone" bson:"phone"`
	NationalID string `json:"nationalId" bson:"national_id"`
}

// StudentAnswer is one submitted answer.
type StudentAnswer struct {
	QuestionNumber int    `json:"questionNumber" bson:"question_number" validate:"min=1"`
	Answer         Answer `json:"answer" bson:"answer"`
}

// WritingAnswers holds the free-text responses of the writing section.
type WritingAnswers struct {
	Task1 string `json:"task1" bson:"task1"`
	Task2 string `json:"task2" bson:"task2"`
}

// Answers holds everything a candidate submitted in a session.
type Answers struct {
	Listening []StudentAnswer `json:"listening" bson:"listening"`
	Reading   []StudentAnswer `json:"reading" bson:"reading"`
	Writing   WritingAnswers  `json:"writing" bson:"writing"`
}

// SectionScore is the result of an auto-marked section.
type SectionScore struct {
	Raw  int     `json:"raw" bson:"raw"`
	Band float64 `json:"band" bson:"band"`
}

// WritingScore holds examiner-supplied writing bands.
type WritingScore struct {
	Task1Band   float64 `json:"task1Band" bson:"task1_band"`
	Task2Band   float64 `json:"task2Band" bson:"task2_band"`
	OverallBand float64 `json:"overallBand" bson:"overall_band"`
}

// Scores of a session. Zero means "not yet scored".
type Scores struct {
	Listening SectionScore `json:"listening" bson:"listening"`
	Reading   SectionScore `json:"reading" bson:"reading"`
	Writing   WritingScore `json:"writing" bson:"writing"`
	Overall   float64      `json:"overall" bson:"overall"`
}

// ExamSession is one candidate's attempt at an exam.
type ExamSession struct {
	SessionID      string        `json:"sessionId" bson:"_id"`
	ExamID         string        `json:"examId" bson:"exam_id"`
	Candidate      Candidate     `json:"user" bson:"user"`
	Answers        Answers       `json:"answers" bson:"answers"`
	Scores         Scores        `json:"scores" bson:"scores"`
	Status         SessionStatus `json:"status" bson:"status"`
	CurrentSection Stage         `json:"currentSection" bson:"current_section"`
	StartedAt      time.Time     `json:"startedAt" bson:"started_at"`
	CompletedAt    *time.Time    `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
	Version        int64         `json:"version" bson:"version"`
}

// CriteriaScores are the four examiner criteria of a writing task, each 0-9 in 0.5 steps.
type CriteriaScores struct {
	TaskAchievement   float64 `json:"taskAchievement" bson:"task_achievement"`
	CoherenceCohesion float64 `json:"coherenceCohesion" bson:"coherence_cohesion"`
	LexicalResource   float64 `json:"lexicalResource" bson:"lexical_resource"`
	GrammaticalRange  float64 `json:"grammaticalRange" bson:"grammatical_range"`
}

// Values returns the criteria in a fixed order.
func (c CriteriaScores) Values() []float64 {
	return []float64{c.TaskAchievement, c.CoherenceCohesion, c.LexicalResource, c.GrammaticalRange}
}

// WritingFeedback is free-text examiner feedback.
type WritingFeedback struct {
	General      string `json:"general,omitempty" bson:"general,omitempty"`
	Strengths    string `json:"strengths,omitempty" bson:"strengths,omitempty"`
	Improvements string `json:"improvements,omitempty" bson:"improvements,omitempty"`
}

// WritingSuggestion is an advisory machine assessment; it never replaces marking.
type WritingSuggestion struct {
	Scores    CriteriaScores `json:"scores" bson:"scores"`
	BandScore float64        `json:"bandScore" bson:"band_score"`
	Feedback  string         `json:"feedback" bson:"feedback"`
	Model     string         `json:"model" bson:"model"`
	CreatedAt time.Time      `json:"createdAt" bson:"created_at"`
}

// WritingSubmission is a standalone writing response awaiting or holding marks.
type WritingSubmission struct {
	ID            string             `json:"id" bson:"_id"`
	TestID        string             `json:"testId" bson:"test_id"`
	TaskNumber    int                `json:"taskNumber" bson:"task_number"`
	SubmittedBy   string             `json:"submittedBy,omitempty" bson:"submitted_by,omitempty"`
	Response      string             `json:"response" bson:"response"`
	WordCount     int                `json:"wordCount" bson:"word_count"`
	Scores        *CriteriaScores    `json:"scores,omitempty" bson:"scores,omitempty"`
	BandScore     *float64           `json:"bandScore,omitempty" bson:"band_score,omitempty"`
	Feedback      *WritingFeedback   `json:"feedback,omitempty" bson:"feedback,omitempty"`
	Suggestion    *WritingSuggestion `json:"suggestion,omitempty" bson:"suggestion,omitempty"`
	MarkingStatus MarkingStatus      `json:"markingStatus" bson:"marking_status"`
	MarkedBy      string             `json:"markedBy,omitempty" bson:"marked_by,omitempty"`
	MarkedAt      *time.Time         `json:"markedAt,omitempty" bson:"marked_at,omitempty"`
	SubmittedAt   time.Time          `json:"submittedAt" bson:"submitted_at"`
}
