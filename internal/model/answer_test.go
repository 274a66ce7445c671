package model

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestAnswerUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		multi bool
		want  []string
	}{
		{"string", `"Paris"`, false, []string{"Paris"}},
		{"number", `42`, false, []string{"42"}},
		{"bool", `true`, false, []string{"true"}},
		{"array", `["a","B"]`, true, []string{"a", "B"}},
		{"mixed array", `["a",3]`, true, []string{"a", "3"}},
		{"empty array", `[]`, true, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Answer
			if err := json.Unmarshal([]byte(tt.input), &a); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if a.IsMulti() != tt.multi {
				t.Errorf("IsMulti() = %v, want %v", a.IsMulti(), tt.multi)
			}
			got := a.Values()
			if len(got) != len(tt.want) {
				t.Fatalf("Values() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Values()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAnswerUnmarshalJSONRejectsObjects(t *testing.T) {
	var a Answer
	if err := json.Unmarshal([]byte(`{"x":1}`), &a); err == nil {
		t.Error("expected error for object answer")
	}
}

func TestAnswerNullIsEmpty(t *testing.T) {
	var q Question
	if err := json.Unmarshal([]byte(`{"questionNumber":1,"correctAnswer":null}`), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !q.CorrectAnswer.IsEmpty() {
		t.Errorf("null answer should be empty, got %v", q.CorrectAnswer)
	}
}

func TestAnswerMarshalJSON(t *testing.T) {
	b, err := json.Marshal(StudentAnswer{QuestionNumber: 3, Answer: Multi("x", "y")})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"questionNumber":3,"answer":["x","y"]}` {
		t.Errorf("got %s", b)
	}
	b, err = json.Marshal(Single("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"hello"` {
		t.Errorf("got %s", b)
	}
}

func TestAnswerBSON(t *testing.T) {
	in := Question{QuestionNumber: 7, CorrectAnswer: Multi("north", "south"), Marks: 1}
	data, err := bson.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Question
	if err := bson.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.CorrectAnswer.IsMulti() || out.CorrectAnswer.String() != "[north, south]" {
		t.Errorf("got %v", out.CorrectAnswer)
	}

	in.CorrectAnswer = Single("east")
	data, err = bson.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out = Question{}
	if err := bson.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.CorrectAnswer.IsMulti() || out.CorrectAnswer.Text() != "east" {
		t.Errorf("got %v", out.CorrectAnswer)
	}
}

func TestRecomputeTotals(t *testing.T) {
	test := Test{
		Skill: SkillListening,
		Sections: []Section{
			{Number: 1, Questions: []Question{{QuestionNumber: 1}, {QuestionNumber: 2, Marks: 2}}},
			{Number: 2, Questions: []Question{{QuestionNumber: 3}}},
		},
	}
	test.RecomputeTotals()
	if test.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", test.TotalQuestions)
	}
	if test.TotalMarks != 4 {
		t.Errorf("TotalMarks = %d, want 4", test.TotalMarks)
	}
	if test.Sections[0].Questions[0].Marks != 1 {
		t.Errorf("default marks = %d, want 1", test.Sections[0].Questions[0].Marks)
	}
}

func TestStageNext(t *testing.T) {
	tests := []struct {
		in, want Stage
	}{
		{StageListening, StageReading},
		{StageReading, StageWriting},
		{StageWriting, StageCompleted},
		{StageCompleted, StageCompleted},
	}
	for _, tt := range tests {
		if got := tt.in.Next(); got != tt.want {
			t.Errorf("%s.Next() = %s, want %s", tt.in, got, tt.want)
		}
	}
}
