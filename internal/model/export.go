package model

import "time"

// ResultsExport is the top-level JSON structure for session result export.
type ResultsExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	ExamID     string          `json:"exam_id,omitempty"`
	Sessions   int             `json:"sessions"`
	Results    []SessionResult `json:"results"`
}

// SessionResult holds one candidate's session outcome for export.
type SessionResult struct {
	SessionID      string        `json:"session_id"`
	ExamID         string        `json:"exam_id"`
	Name           string        `json:"name"`
	Phone          string        `json:"phone"`
	NationalID     string        `json:"national_id"`
	Status         SessionStatus `json:"status"`
	CurrentSection Stage         `json:"current_section"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	Listening      SectionScore  `json:"listening"`
	Reading        SectionScore  `json:"reading"`
	Writing        WritingScore  `json:"writing"`
	Overall        float64       `json:"overall"`
}

// NewSessionResult flattens a session for export.
func NewSessionResult(s ExamSession) SessionResult {
	return SessionResult{
		SessionID:      s.SessionID,
		ExamID:         s.ExamID,
		Name:           s.Candidate.Name,
		Phone:          s.Candidate.Phone,
		NationalID:     s.Candidate.NationalID,
		Status:         s.Status,
		CurrentSection: s.CurrentSection,
		StartedAt:      s.StartedAt,
		CompletedAt:    s.CompletedAt,
		Listening:      s.Scores.Listening,
		Reading:        s.Scores.Reading,
		Writing:        s.Scores.Writing,
		Overall:        s.Scores.Overall,
	}
}
