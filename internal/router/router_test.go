package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/bank"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/exam"
	"github.com/stemsi/exstem-cbt/internal/handler"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/service"
	"github.com/stemsi/exstem-cbt/internal/store"
	"github.com/stemsi/exstem-cbt/internal/validator"
)

// idleTicks never fires, so attempts only end by explicit submit.
type idleTicks struct{ ch chan time.Time }

func (s idleTicks) C() <-chan time.Time { return s.ch }
func (s idleTicks) Stop()               {}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type server struct {
	t      *testing.T
	engine http.Handler
	exams  *service.ExamService
}

func newServer(t *testing.T) *server {
	t.Helper()
	validator.Setup()

	cfg := &config.Config{
		GinMode:     "test",
		StoreDriver: config.StoreMemory,
		JWTSecret:   "test-secret",
		JWTExpiry:   time.Hour,
	}
	b, err := bank.Default()
	if err != nil {
		t.Fatalf("bank: %v", err)
	}
	mem := store.NewMemoryStore()
	log := zerolog.Nop()

	auth := service.NewAuthService(cfg)
	exams := service.NewExamService(b, model.DefaultExamConfiguration(), mem, mem, log,
		service.WithTickSource(func() exam.TickSource { return idleTicks{ch: make(chan time.Time)} }))
	profiles := service.NewProfileService(mem, log)
	t.Cleanup(exams.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	engine := SetupRouter(ctx, auth, &Handlers{
		Auth:      handler.NewAuthHandler(auth, log),
		Candidate: handler.NewCandidateHandler(profiles, exams),
		Exam:      handler.NewExamHandler(exams),
		WS:        handler.NewWSHandler(exams, log, nil),
		System:    handler.NewSystemHandler(nil, cfg.StoreDriver, b.Len(), log),
	}, cfg)

	return &server{t: t, engine: engine, exams: exams}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (T, string) {
	t.Helper()
	var env envelope
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if env.Error != nil {
		return out, env.Error.Code
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return out, ""
}

func (s *server) token() string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/anonymous", "", nil)
	if w.Code != http.StatusCreated {
		s.t.Fatalf("anonymous: %d %s", w.Code, w.Body.String())
	}
	got, _ := decode[struct {
		Token       string `json:"token"`
		CandidateID string `json:"candidate_id"`
	}](s.t, w)
	if got.Token == "" || got.CandidateID == "" {
		s.t.Fatalf("anonymous: %+v", got)
	}
	return got.Token
}

type attemptBody struct {
	Attempt model.AttemptState `json:"attempt"`
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	got, _ := decode[struct {
		Status      string `json:"status"`
		StoreDriver string `json:"store_driver"`
		BankSize    int    `json:"bank_size"`
	}](t, w)
	if got.Status != "ok" || got.StoreDriver != "memory" || got.BankSize == 0 {
		t.Fatalf("health = %+v", got)
	}
}

func TestDepartments(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/api/v1/exam/departments", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.HasPrefix(cc, "public") {
		t.Fatalf("Cache-Control = %q", cc)
	}
	got, _ := decode[struct {
		Departments    []model.Department `json:"departments"`
		TotalQuestions int                `json:"total_questions"`
	}](t, w)
	if len(got.Departments) == 0 || got.TotalQuestions != 50 {
		t.Fatalf("departments = %+v", got)
	}
}

func TestAttemptRequiresToken(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodPost, "/api/v1/exam/attempts", "", model.StartAttemptRequest{Name: "Ada", Department: "IMMIGRATION_NIS"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", w.Code)
	}
	w = s.do(http.MethodPost, "/api/v1/exam/attempts", "not-a-jwt", model.StartAttemptRequest{Name: "Ada", Department: "IMMIGRATION_NIS"})
	if _, code := decode[any](t, w); w.Code != http.StatusUnauthorized || code != "TOKEN_INVALID" {
		t.Fatalf("status %d code %s", w.Code, code)
	}
}

func TestStartValidation(t *testing.T) {
	s := newServer(t)
	tok := s.token()

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing department", map[string]string{"name": "Ada"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad department tag", map[string]string{"name": "Ada", "department": "IMMIGRATION NIS"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"no name and no profile", map[string]string{"department": "IMMIGRATION_NIS"}, http.StatusBadRequest, "NAME_REQUIRED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/exam/attempts", tok, tt.body)
			_, code := decode[any](t, w)
			if w.Code != tt.status || code != tt.code {
				t.Fatalf("got %d %s, want %d %s", w.Code, code, tt.status, tt.code)
			}
		})
	}
}

func TestAttemptLifecycle(t *testing.T) {
	s := newServer(t)
	tok := s.token()

	w := s.do(http.MethodPost, "/api/v1/exam/attempts", tok, model.StartAttemptRequest{Name: "Ada", Department: "immigration_nis"})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
	started, _ := decode[attemptBody](t, w)
	st := started.Attempt
	if st.QuestionCount != 50 || st.Department != "IMMIGRATION_NIS" || st.Status != model.SessionStatusInProgress {
		t.Fatalf("attempt = %+v", st)
	}
	base := "/api/v1/exam/attempts/" + st.AttemptID.String()

	// Current question must not leak the answer key.
	w = s.do(http.MethodGet, base, tok, nil)
	if strings.Contains(w.Body.String(), "correct_option") {
		t.Fatal("state exposes the answer key")
	}

	q := st.Current
	w = s.do(http.MethodPut, base+"/answers", tok, model.AnswerRequest{QuestionID: q.ID, Option: strings.ToLower(q.Options[0].Label)})
	answered, code := decode[attemptBody](t, w)
	if w.Code != http.StatusOK || answered.Attempt.AnsweredCount != 1 {
		t.Fatalf("answer: %d %s %+v", w.Code, code, answered.Attempt)
	}

	w = s.do(http.MethodPut, base+"/answers", tok, model.AnswerRequest{QuestionID: "nope", Option: "A"})
	if _, code := decode[any](t, w); w.Code != http.StatusBadRequest || code != "UNKNOWN_QUESTION" {
		t.Fatalf("unknown question: %d %s", w.Code, code)
	}

	w = s.do(http.MethodPost, base+"/navigate", tok, model.NavigateRequest{Delta: 1})
	moved, _ := decode[attemptBody](t, w)
	if moved.Attempt.CurrentIndex != 1 {
		t.Fatalf("navigate: index %d", moved.Attempt.CurrentIndex)
	}
	last := 49
	w = s.do(http.MethodPost, base+"/jump", tok, model.JumpRequest{Index: &last})
	jumped, _ := decode[attemptBody](t, w)
	if jumped.Attempt.CurrentIndex != 49 {
		t.Fatalf("jump: index %d", jumped.Attempt.CurrentIndex)
	}

	w = s.do(http.MethodGet, base+"/result", tok, nil)
	if _, code := decode[any](t, w); w.Code != http.StatusConflict || code != "ATTEMPT_NOT_SUBMITTED" {
		t.Fatalf("early result: %d %s", w.Code, code)
	}

	w = s.do(http.MethodPost, base+"/submit", tok, nil)
	first, _ := decode[model.SubmitOutcome](t, w)
	if w.Code != http.StatusOK || !first.Persisted || first.Result.TotalQuestions != 50 || first.Result.Score > 1 {
		t.Fatalf("submit: %d %+v", w.Code, first)
	}

	w = s.do(http.MethodPost, base+"/submit", tok, nil)
	again, _ := decode[model.SubmitOutcome](t, w)
	if again.Result.ID != first.Result.ID {
		t.Fatal("second submit produced a new result")
	}

	w = s.do(http.MethodPut, base+"/answers", tok, model.AnswerRequest{QuestionID: q.ID, Option: q.Options[0].Label})
	if _, code := decode[any](t, w); w.Code != http.StatusConflict || code != "ATTEMPT_CLOSED" {
		t.Fatalf("answer after submit: %d %s", w.Code, code)
	}

	w = s.do(http.MethodGet, base+"/report", tok, nil)
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("report Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.HasSuffix(w.Body.String(), "/50\n") {
		t.Fatalf("report tail = %q", w.Body.String()[max(0, w.Body.Len()-20):])
	}

	w = s.do(http.MethodGet, "/api/v1/candidate/results", tok, nil)
	history, _ := decode[struct {
		Results []model.ResultRecord `json:"results"`
	}](t, w)
	if len(history.Results) != 1 || history.Results[0].AttemptID != st.AttemptID {
		t.Fatalf("history = %+v", history.Results)
	}

	w = s.do(http.MethodGet, "/api/v1/candidate/profile", tok, nil)
	profile, _ := decode[struct {
		Profile model.CandidateProfile `json:"profile"`
	}](t, w)
	if profile.Profile.Name != "Ada" || profile.Profile.ExamsTaken != 1 {
		t.Fatalf("profile = %+v", profile.Profile)
	}
}

func TestAttemptOwnership(t *testing.T) {
	s := newServer(t)
	owner, other := s.token(), s.token()

	w := s.do(http.MethodPost, "/api/v1/exam/attempts", owner, model.StartAttemptRequest{Name: "Ada", Department: "MATHS"})
	started, _ := decode[attemptBody](t, w)

	w = s.do(http.MethodGet, "/api/v1/exam/attempts/"+started.Attempt.AttemptID.String(), other, nil)
	if _, code := decode[any](t, w); w.Code != http.StatusNotFound || code != "ATTEMPT_NOT_FOUND" {
		t.Fatalf("foreign attempt: %d %s", w.Code, code)
	}

	w = s.do(http.MethodGet, "/api/v1/exam/attempts/not-a-uuid", owner, nil)
	if _, code := decode[any](t, w); w.Code != http.StatusBadRequest || code != "INVALID_ID" {
		t.Fatalf("bad id: %d %s", w.Code, code)
	}
}

func TestProfileUpdate(t *testing.T) {
	s := newServer(t)
	tok := s.token()

	w := s.do(http.MethodPut, "/api/v1/candidate/profile", tok, model.UpdateProfileRequest{Name: "  Grace  "})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}

	// The stored name now satisfies a start without one.
	w = s.do(http.MethodPost, "/api/v1/exam/attempts", tok, map[string]string{"department": "GENERAL_ALL"})
	started, code := decode[attemptBody](t, w)
	if w.Code != http.StatusCreated || started.Attempt.CandidateName != "Grace" {
		t.Fatalf("start: %d %s %+v", w.Code, code, started.Attempt)
	}

	w = s.do(http.MethodPut, "/api/v1/candidate/profile", tok, map[string]string{})
	if _, code := decode[any](t, w); code != "VALIDATION_ERROR" {
		t.Fatalf("empty update: %s", code)
	}
}
