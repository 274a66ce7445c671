package scoring

import "github.com/pavelanni/bandscore/internal/model"

// QuestionResult is the marking outcome of one submitted answer.
type QuestionResult struct {
	QuestionNumber    int          `json:"questionNumber"`
	Answer            model.Answer `json:"answer"`
	CorrectAnswer     model.Answer `json:"correctAnswer"`
	AcceptableAnswers []string     `json:"acceptableAnswers,omitempty"`
	Correct           bool         `json:"correct"`
}

// Report is a detailed grading of a set of answers against a test.
type Report struct {
	Raw            int              `json:"raw"`
	Band           float64          `json:"band"`
	TotalQuestions int              `json:"totalQuestions"`
	Results        []QuestionResult `json:"results"`
}

// index maps question numbers to questions. The first occurrence wins.
func index(sections []model.Section) map[int]model.Question {
	idx := make(map[int]model.Question)
	for _, s := range sections {
		for _, q := range s.Questions {
			if _, ok := idx[q.QuestionNumber]; !ok {
				idx[q.QuestionNumber] = q
			}
		}
	}
	return idx
}

// CountCorrect returns how many submitted answers match their question.
// Answers to unknown question numbers are ignored; each submitted entry is
// marked on its own, so duplicates are not collapsed.
func CountCorrect(answers []model.StudentAnswer, sections []model.Section) int {
	idx := index(sections)
	raw := 0
	for _, a := range answers {
		q, ok := idx[a.QuestionNumber]
		if !ok {
			continue
		}
		if IsCorrect(a.Answer, q.CorrectAnswer, q.AcceptableAnswers) {
			raw++
		}
	}
	return raw
}

// Grade marks answers against sections and converts the count with table.
// Raw in the report always equals CountCorrect for the same input.
func Grade(answers []model.StudentAnswer, sections []model.Section, table *Table) Report {
	idx := index(sections)
	r := Report{TotalQuestions: len(idx), Results: make([]QuestionResult, 0, len(answers))}
	for _, a := range answers {
		q, ok := idx[a.QuestionNumber]
		if !ok {
			continue
		}
		res := QuestionResult{
			QuestionNumber:    a.QuestionNumber,
			Answer:            a.Answer,
			CorrectAnswer:     q.CorrectAnswer,
			AcceptableAnswers: q.AcceptableAnswers,
			Correct:           IsCorrect(a.Answer, q.CorrectAnswer, q.AcceptableAnswers),
		}
		if res.Correct {
			r.Raw++
		}
		r.Results = append(r.Results, res)
	}
	r.Band = table.Band(r.Raw)
	return r
}
