package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/bandscore/internal/events"
	"github.com/pavelanni/bandscore/internal/exam"
	appI18n "github.com/pavelanni/bandscore/internal/i18n"
	"github.com/pavelanni/bandscore/internal/model"
	"github.com/pavelanni/bandscore/internal/scoring"
	"github.com/pavelanni/bandscore/internal/sequence"
	"github.com/pavelanni/bandscore/internal/store"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const contentDoc = `{
  "tests": [
    {"id": "L1", "title": "Listening 1", "skill": "listening", "active": true, "sections": [
      {"number": 1, "questions": [
        {"questionNumber": 1, "correctAnswer": "library", "acceptableAnswers": ["the library"]},
        {"questionNumber": 2, "correctAnswer": ["B", "D"]}
      ]}
    ]},
    {"id": "R1", "title": "Reading 1", "skill": "reading", "testType": "academic", "active": true, "sections": [
      {"number": 1, "questions": [
        {"questionNumber": 1, "correctAnswer": "TRUE"},
        {"questionNumber": 2, "correctAnswer": "not given"}
      ]}
    ]},
    {"id": "W1", "title": "Writing 1", "skill": "writing", "active": true, "tasks": [
      {"taskNumber": 1, "prompt": "Describe the graph."},
      {"taskNumber": 2, "prompt": "Discuss both views."}
    ]}
  ],
  "exams": [
    {"id": "EX2500001", "title": "Mock", "active": true,
     "listeningTestId": "L1", "readingTestId": "R1", "writingTestId": "W1"}
  ]
}`

// syncBuffer collects log output written from server goroutines.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type testServer struct {
	srv   *httptest.Server
	store *store.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	pub := events.NewLog(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := exam.NewService(st, sequence.NewStore(st), pub, exam.Config{})
	h := New(svc, st, Config{
		JWTSecret: []byte("test-secret"),
		TokenTTL:  time.Hour,
		Checks:    map[string]func(context.Context) error{"db": st.Ping},
	})
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)

	ts := &testServer{srv: srv, store: st}
	ts.addUser(t, "admin", "admin-pass", model.UserRoleAdmin)
	ts.addUser(t, "marker", "marker-pass", model.UserRoleExaminer)
	ts.addUser(t, "cand", "cand-pass", model.UserRoleCandidate)
	return ts
}

func (ts *testServer) addUser(t *testing.T, username, password string, role model.UserRole) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	id, err := ts.store.CreateUser(context.Background(), model.User{
		Username: username, DisplayName: username, PasswordHash: string(hash), Role: role, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

// do sends a request and decodes the JSON response into out when non-nil.
func (ts *testServer) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (ts *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	var resp loginResponse
	code := ts.do(t, http.MethodPost, "/api/auth/login", "", loginRequest{Username: username, Password: password}, &resp)
	if code != http.StatusOK || resp.Token == "" {
		t.Fatalf("login %s: status %d", username, code)
	}
	return resp.Token
}

func (ts *testServer) importContent(t *testing.T, adminToken string) {
	t.Helper()
	var res exam.ImportResult
	if code := ts.do(t, http.MethodPost, "/api/admin/tests/import", adminToken, contentDoc, &res); code != http.StatusOK {
		t.Fatalf("import: status %d", code)
	}
	if res.Tests != 3 || res.Exams != 1 {
		t.Fatalf("import result = %+v", res)
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	disabled := ts.addUser(t, "gone", "gone-pass", model.UserRoleCandidate)
	if _, err := ts.store.ToggleUserActive(context.Background(), disabled); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"ok", loginRequest{"admin", "admin-pass"}, http.StatusOK, ""},
		{"wrong password", loginRequest{"admin", "nope"}, http.StatusUnauthorized, "invalid_credentials"},
		{"unknown user", loginRequest{"ghost", "x"}, http.StatusUnauthorized, "invalid_credentials"},
		{"disabled", loginRequest{"gone", "gone-pass"}, http.StatusForbidden, "account_disabled"},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest, "validation_failed"},
		{"bad json", "{", http.StatusBadRequest, "bad_json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			code := ts.do(t, http.MethodPost, "/api/auth/login", "", tt.body, &body)
			if code != tt.wantCode {
				t.Errorf("status = %d, want %d (%v)", code, tt.wantCode, body)
			}
			if tt.wantErr != "" && body["code"] != tt.wantErr {
				t.Errorf("code = %v, want %s", body["code"], tt.wantErr)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	var body errorBody
	if code := ts.do(t, http.MethodGet, "/api/sessions/ES2500001", "", nil, &body); code != http.StatusUnauthorized {
		t.Errorf("no token: status %d", code)
	}
	if body.Code != "unauthorized" {
		t.Errorf("code = %q", body.Code)
	}
	if code := ts.do(t, http.MethodGet, "/api/sessions/ES2500001", "garbage", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("bad token: status %d", code)
	}

	// A token signed with another key is rejected.
	other := New(nil, ts.store, Config{JWTSecret: []byte("other")})
	forged, err := other.issueToken(&model.User{ID: 1, Role: model.UserRoleAdmin},
		model.AuthSession{ID: "x", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if code := ts.do(t, http.MethodGet, "/api/auth/me", forged, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("forged token: status %d", code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.login(t, "cand", "cand-pass")

	var me model.User
	if code := ts.do(t, http.MethodGet, "/api/auth/me", tok, nil, &me); code != http.StatusOK || me.Username != "cand" {
		t.Fatalf("me: %d %+v", code, me)
	}
	if code := ts.do(t, http.MethodPost, "/api/auth/logout", tok, nil, nil); code != http.StatusOK {
		t.Fatalf("logout: status %d", code)
	}
	if code := ts.do(t, http.MethodGet, "/api/auth/me", tok, nil, nil); code != http.StatusUnauthorized {
		t.Errorf("after logout: status %d, want 401", code)
	}
}

func TestRoleChecks(t *testing.T) {
	ts := newTestServer(t)
	cand := ts.login(t, "cand", "cand-pass")
	marker := ts.login(t, "marker", "marker-pass")

	tests := []struct {
		name  string
		token string
		path  string
		want  int
	}{
		{"candidate users", cand, "/api/admin/users", http.StatusForbidden},
		{"candidate queue", cand, "/api/admin/writing/submissions", http.StatusForbidden},
		{"examiner queue", marker, "/api/admin/writing/submissions", http.StatusOK},
		{"examiner users", marker, "/api/admin/users", http.StatusForbidden},
		{"examiner results", marker, "/api/admin/results", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := ts.do(t, http.MethodGet, tt.path, tt.token, nil, nil); code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestExamFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")
	cand := ts.login(t, "cand", "cand-pass")
	ts.importContent(t, admin)

	start := startSessionRequest{ExamID: "EX2500001", Name: "Alice", Phone: "+100", NationalID: "N-1"}
	var sess model.ExamSession
	if code := ts.do(t, http.MethodPost, "/api/sessions", cand, start, &sess); code != http.StatusCreated {
		t.Fatalf("start: status %d", code)
	}
	year := time.Now().UTC().Year() % 100
	if want := fmt.Sprintf("ES%02d00001", year); sess.SessionID != want {
		t.Errorf("session id = %s, want %s", sess.SessionID, want)
	}
	id := sess.SessionID

	var again model.ExamSession
	if code := ts.do(t, http.MethodPost, "/api/sessions", cand, start, &again); code != http.StatusOK || again.SessionID != id {
		t.Errorf("resume: status %d id %s", code, again.SessionID)
	}

	// Reading before listening is out of order.
	var errResp errorBody
	reading := map[string]any{"answers": []map[string]any{
		{"questionNumber": 1, "answer": "true"},
		{"questionNumber": 2, "answer": "Not Given."},
	}}
	if code := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/reading", cand, reading, &errResp); code != http.StatusConflict {
		t.Errorf("reading first: status %d", code)
	}
	if errResp.Code != "invalid_state" {
		t.Errorf("code = %q", errResp.Code)
	}

	listening := map[string]any{"answers": []map[string]any{
		{"questionNumber": 1, "answer": "The Library"},
		{"questionNumber": 2, "answer": []string{"b", "d"}},
	}}
	if code := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/listening", cand, listening, &sess); code != http.StatusOK {
		t.Fatalf("listening: status %d", code)
	}
	if sess.Scores.Listening.Raw != 2 || sess.CurrentSection != model.StageReading {
		t.Errorf("after listening = %+v %s", sess.Scores.Listening, sess.CurrentSection)
	}

	if code := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/reading", cand, reading, &sess); code != http.StatusOK {
		t.Fatalf("reading: status %d", code)
	}
	if sess.Scores.Reading.Raw != 2 {
		t.Errorf("reading raw = %d", sess.Scores.Reading.Raw)
	}

	writing := writingRequest{Task1: "The graph shows...", Task2: "Some people believe..."}
	logs := &syncBuffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(logs, nil)))
	code := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/writing", cand, writing, &sess)
	slog.SetDefault(prev)
	if code != http.StatusOK {
		t.Fatalf("writing: status %d", code)
	}
	if n := strings.Count(logs.String(), `msg="session completed"`); n != 1 {
		t.Errorf("session completed logged %d times", n)
	}
	if !strings.Contains(logs.String(), "session_id="+id) {
		t.Errorf("completion log lacks session_id: %s", logs.String())
	}
	lb := scoring.Listening.Band(2)
	rb := scoring.ReadingAcademic.Band(2)
	if sess.Status != model.StatusCompleted || sess.Scores.Overall != scoring.Aggregate(lb, rb) {
		t.Errorf("completed session = %s overall %v", sess.Status, sess.Scores.Overall)
	}

	if code := ts.do(t, http.MethodPost, "/api/sessions/"+id+"/writing", cand, writing, nil); code != http.StatusConflict {
		t.Errorf("second writing: status %d, want 409", code)
	}

	bands := map[string]float64{"task1Band": 6, "task2Band": 7}
	if code := ts.do(t, http.MethodPost, "/api/admin/sessions/"+id+"/writing-bands", cand, bands, nil); code != http.StatusForbidden {
		t.Errorf("candidate bands: status %d", code)
	}
	if code := ts.do(t, http.MethodPost, "/api/admin/sessions/"+id+"/writing-bands", admin, bands, &sess); code != http.StatusOK {
		t.Fatalf("bands: status %d", code)
	}
	if sess.Scores.Writing.OverallBand != 7.0 {
		t.Errorf("writing overall = %v, want 7.0", sess.Scores.Writing.OverallBand)
	}
	if want := scoring.Aggregate(lb, rb, 7.0); sess.Scores.Overall != want {
		t.Errorf("overall = %v, want %v", sess.Scores.Overall, want)
	}

	var export model.ResultsExport
	if code := ts.do(t, http.MethodGet, "/api/admin/results?examId=EX2500001", admin, nil, &export); code != http.StatusOK {
		t.Fatalf("results: status %d", code)
	}
	if export.Sessions != 1 || export.Results[0].NationalID != "N-1" || export.Results[0].Overall != sess.Scores.Overall {
		t.Errorf("export = %+v", export)
	}
}

func TestStartSessionValidation(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")
	ts.importContent(t, admin)

	var body errorBody
	code := ts.do(t, http.MethodPost, "/api/sessions", admin, map[string]string{"examId": "EX2500001", "name": "Bob"}, &body)
	if code != http.StatusBadRequest || body.Code != "validation_failed" {
		t.Fatalf("status %d code %q", code, body.Code)
	}
	if _, ok := body.Fields["nationalId"]; !ok {
		t.Errorf("fields = %v, want nationalId", body.Fields)
	}

	code = ts.do(t, http.MethodPost, "/api/sessions", admin, startSessionRequest{ExamID: "EX2599999", Name: "Bob", NationalID: "N-2"}, &body)
	if code != http.StatusNotFound || body.Code != "not_found" {
		t.Errorf("unknown exam: status %d code %q", code, body.Code)
	}
}

func TestInvalidBands(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")
	ts.importContent(t, admin)

	var sess model.ExamSession
	ts.do(t, http.MethodPost, "/api/sessions", admin, startSessionRequest{ExamID: "EX2500001", Name: "A", NationalID: "N-9"}, &sess)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"missing", map[string]float64{"task1Band": 6}, "validation_failed"},
		{"above nine", map[string]float64{"task1Band": 9.5, "task2Band": 6}, "validation_failed"},
		{"off step", map[string]float64{"task1Band": 6.25, "task2Band": 6}, "invalid_input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			code := ts.do(t, http.MethodPost, "/api/admin/sessions/"+sess.SessionID+"/writing-bands", admin, tt.body, &body)
			if code != http.StatusBadRequest || body.Code != tt.code {
				t.Errorf("status %d code %q, want 400 %s", code, body.Code, tt.code)
			}
		})
	}
}

func TestGradeTest(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")
	ts.importContent(t, admin)

	var report scoring.Report
	body := map[string]any{"answers": []map[string]any{
		{"questionNumber": 1, "answer": "library!"},
		{"questionNumber": 2, "answer": []string{"D", "B"}},
	}}
	if code := ts.do(t, http.MethodPost, "/api/admin/tests/L1/grade", admin, body, &report); code != http.StatusOK {
		t.Fatalf("grade: status %d", code)
	}
	if report.Raw != 1 || report.TotalQuestions != 2 || len(report.Results) != 2 {
		t.Errorf("report = %+v", report)
	}
	if !report.Results[0].Correct || report.Results[1].Correct {
		t.Errorf("results = %+v", report.Results)
	}

	if code := ts.do(t, http.MethodPost, "/api/admin/tests/W1/grade", admin, body, nil); code != http.StatusBadRequest {
		t.Errorf("writing test: status %d", code)
	}
	marker := ts.login(t, "marker", "marker-pass")
	if code := ts.do(t, http.MethodPost, "/api/admin/tests/L1/grade", marker, body, nil); code != http.StatusOK {
		t.Errorf("examiner grade: status %d", code)
	}
	cand := ts.login(t, "cand", "cand-pass")
	if code := ts.do(t, http.MethodPost, "/api/admin/tests/L1/grade", cand, body, nil); code != http.StatusForbidden {
		t.Errorf("candidate grade: status %d", code)
	}
	bad := map[string]any{"answers": []map[string]any{{"questionNumber": 0, "answer": "x"}}}
	var eb errorBody
	if code := ts.do(t, http.MethodPost, "/api/admin/tests/L1/grade", admin, bad, &eb); code != http.StatusBadRequest {
		t.Errorf("question 0: status %d", code)
	}
	if _, ok := eb.Fields["answers[0].questionNumber"]; !ok {
		t.Errorf("fields = %v", eb.Fields)
	}
}

func TestWritingMarking(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")
	marker := ts.login(t, "marker", "marker-pass")
	cand := ts.login(t, "cand", "cand-pass")
	ts.importContent(t, admin)

	var rc receiptResponse
	req := writingSubmissionRequest{TestID: "W1", TaskNumber: 1, Response: "Too short."}
	if code := ts.do(t, http.MethodPost, "/api/writing/submissions", cand, req, &rc); code != http.StatusCreated {
		t.Fatalf("submit: status %d", code)
	}
	if rc.WordCount != 2 || rc.MinWordsRequired != 150 || rc.MeetsRequirement {
		t.Errorf("receipt = %+v", rc)
	}
	if rc.Message != "Response has 2 words; at least 150 are required." {
		t.Errorf("message = %q", rc.Message)
	}

	var queue queueResponse
	if code := ts.do(t, http.MethodGet, "/api/admin/writing/submissions?status=pending", marker, nil, &queue); code != http.StatusOK {
		t.Fatalf("queue: status %d", code)
	}
	if queue.Count != 1 || queue.Submissions[0].ID != rc.ID || queue.Submissions[0].SubmittedBy != "cand" {
		t.Errorf("queue = %+v", queue)
	}

	var sub model.WritingSubmission
	if code := ts.do(t, http.MethodPost, "/api/admin/writing/submissions/"+rc.ID+"/review", marker, nil, &sub); code != http.StatusOK {
		t.Fatalf("review: status %d", code)
	}
	if sub.MarkingStatus != model.MarkingInReview {
		t.Errorf("status after review = %s", sub.MarkingStatus)
	}
	if code := ts.do(t, http.MethodGet, "/api/admin/writing/submissions?status=in-review", marker, nil, &queue); code != http.StatusOK || queue.Count != 1 {
		t.Errorf("in-review queue: status %d count %d", code, queue.Count)
	}
	if code := ts.do(t, http.MethodPost, "/api/admin/writing/submissions/"+rc.ID+"/review", cand, nil, nil); code != http.StatusForbidden {
		t.Errorf("candidate review: status %d", code)
	}

	mark := markRequest{Scores: model.CriteriaScores{TaskAchievement: 5, CoherenceCohesion: 6, LexicalResource: 6, GrammaticalRange: 6}}
	if code := ts.do(t, http.MethodPost, "/api/admin/writing/submissions/"+rc.ID+"/mark", marker, mark, &sub); code != http.StatusOK {
		t.Fatalf("mark: status %d", code)
	}
	// (5 + 6 + 6 + 6) / 4 = 5.75
	if sub.BandScore == nil || *sub.BandScore != 6.0 || sub.MarkedBy != "marker" || sub.MarkingStatus != model.MarkingMarked {
		t.Errorf("marked = %+v", sub)
	}

	if code := ts.do(t, http.MethodPost, "/api/admin/writing/submissions/"+rc.ID+"/review", marker, nil, nil); code != http.StatusConflict {
		t.Errorf("review after marking: status %d", code)
	}

	var errResp errorBody
	if code := ts.do(t, http.MethodPost, "/api/admin/writing/submissions/"+rc.ID+"/suggest", marker, nil, &errResp); code != http.StatusServiceUnavailable {
		t.Errorf("suggest without LLM: status %d", code)
	}
	if errResp.Code != "assessor_unavailable" {
		t.Errorf("code = %q", errResp.Code)
	}

	if code := ts.do(t, http.MethodGet, "/api/writing/submissions/missing", cand, nil, nil); code != http.StatusNotFound {
		t.Errorf("missing submission: status %d", code)
	}
	bad := writingSubmissionRequest{TestID: "W1", TaskNumber: 3}
	if code := ts.do(t, http.MethodPost, "/api/writing/submissions", cand, bad, nil); code != http.StatusBadRequest {
		t.Errorf("task 3: status %d", code)
	}
}

func TestAdminUsers(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")

	var u model.User
	req := createUserRequest{Username: "examiner2", Password: "long-enough", Role: "examiner"}
	if code := ts.do(t, http.MethodPost, "/api/admin/users", admin, req, &u); code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if u.ID == 0 || u.DisplayName != "examiner2" || u.Role != model.UserRoleExaminer || !u.Active {
		t.Errorf("created = %+v", u)
	}
	if code := ts.do(t, http.MethodPost, "/api/admin/users", admin, req, nil); code != http.StatusConflict {
		t.Errorf("duplicate: status %d", code)
	}
	badRole := createUserRequest{Username: "x-user", Password: "long-enough", Role: "owner"}
	if code := ts.do(t, http.MethodPost, "/api/admin/users", admin, badRole, nil); code != http.StatusBadRequest {
		t.Errorf("bad role: status %d", code)
	}

	var users []model.User
	if code := ts.do(t, http.MethodGet, "/api/admin/users", admin, nil, &users); code != http.StatusOK || len(users) != 4 {
		t.Errorf("list: status %d, %d users", code, len(users))
	}

	var toggled map[string]any
	path := fmt.Sprintf("/api/admin/users/%d/toggle", u.ID)
	if code := ts.do(t, http.MethodPost, path, admin, nil, &toggled); code != http.StatusOK || toggled["active"] != false {
		t.Errorf("toggle: status %d %v", code, toggled)
	}
	if code := ts.do(t, http.MethodPost, "/api/admin/users/9999/toggle", admin, nil, nil); code != http.StatusNotFound {
		t.Errorf("toggle missing: status %d", code)
	}
	if code := ts.do(t, http.MethodPost, "/api/admin/users/abc/toggle", admin, nil, nil); code != http.StatusBadRequest {
		t.Errorf("toggle bad id: status %d", code)
	}
}

func TestListTests(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")
	ts.importContent(t, admin)

	var tests []model.Test
	if code := ts.do(t, http.MethodGet, "/api/admin/tests", admin, nil, &tests); code != http.StatusOK {
		t.Fatalf("list tests: status %d", code)
	}
	if len(tests) != 3 || tests[0].ID != "L1" || tests[0].TotalQuestions != 2 {
		t.Errorf("tests = %+v", tests)
	}

	marker := ts.login(t, "marker", "marker-pass")
	if code := ts.do(t, http.MethodGet, "/api/admin/tests", marker, nil, nil); code != http.StatusForbidden {
		t.Errorf("examiner listing tests: status %d", code)
	}
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "admin", "admin-pass")

	doc := `{"tests": [{"id": "X", "skill": "speaking"}]}`
	if code := ts.do(t, http.MethodPost, "/api/admin/tests/import", admin, doc, nil); code != http.StatusBadRequest {
		t.Errorf("bad skill: status %d", code)
	}
	if code := ts.do(t, http.MethodPost, "/api/admin/tests/import", admin, "not json", nil); code != http.StatusBadRequest {
		t.Errorf("bad json: status %d", code)
	}
}

func TestLocalizedErrors(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.login(t, "cand", "cand-pass")

	req, _ := http.NewRequest(http.MethodGet, ts.srv.URL+"/api/sessions/ES2599999", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept-Language", "ru")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body errorBody
	json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusNotFound || body.Error != "Запись не найдена." || body.Code != "not_found" {
		t.Errorf("status %d body %+v", resp.StatusCode, body)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]any
	if code := ts.do(t, http.MethodGet, "/healthz", "", nil, &body); code != http.StatusOK {
		t.Errorf("healthz: status %d %v", code, body)
	}
	checks, _ := body["checks"].(map[string]any)
	if checks["db"] != "ok" {
		t.Errorf("checks = %v", checks)
	}
}
