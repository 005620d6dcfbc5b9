package service

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/exam"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/report"
	"github.com/stemsi/exstem-cbt/internal/store"
)

var (
	ErrAttemptNotFound     = errors.New("exam attempt not found")
	ErrAttemptNotSubmitted = errors.New("exam attempt has not been submitted")
	ErrNameRequired        = errors.New("candidate name is required")
)

// attemptRetention is how long a submitted attempt stays reachable in memory.
const attemptRetention = 6 * time.Hour

// QuestionBank is what the service needs from a question bank.
type QuestionBank interface {
	exam.QuestionSource
	PoolSizes() map[string]int
}

// Attempt is one candidate's run through an exam.
type Attempt struct {
	ID          uuid.UUID
	CandidateID string
	Name        string
	Department  string

	session *exam.Session
	timer   *exam.Timer

	submitOnce sync.Once
	done       chan struct{}
	outcome    model.SubmitOutcome
}

// Done is closed once the attempt has been scored.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

func (a *Attempt) submitted() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// ExamServiceOption customises an ExamService.
type ExamServiceOption func(*ExamService)

// WithTickSource replaces the one-second ticker, mainly for tests.
func WithTickSource(newSource func() exam.TickSource) ExamServiceOption {
	return func(s *ExamService) { s.newTicker = newSource }
}

// WithSelectorOptions passes options through to the exam selector.
func WithSelectorOptions(opts ...exam.SelectorOption) ExamServiceOption {
	return func(s *ExamService) { s.selectorOpts = append(s.selectorOpts, opts...) }
}

// WithPersistTimeout bounds each result save.
func WithPersistTimeout(d time.Duration) ExamServiceOption {
	return func(s *ExamService) { s.persistTimeout = d }
}

// ExamService runs exam attempts: it builds them, routes candidate actions
// to their session and scores them exactly once.
type ExamService struct {
	bank     QuestionBank
	cfg      model.ExamConfiguration
	selector *exam.Selector
	results  store.ResultStore
	profiles store.ProfileStore
	log      zerolog.Logger

	newTicker      func() exam.TickSource
	selectorOpts   []exam.SelectorOption
	persistTimeout time.Duration
	now            func() time.Time

	mu       sync.RWMutex
	attempts map[uuid.UUID]*Attempt
}

// NewExamService creates a new ExamService.
func NewExamService(
	bank QuestionBank,
	cfg model.ExamConfiguration,
	results store.ResultStore,
	profiles store.ProfileStore,
	log zerolog.Logger,
	opts ...ExamServiceOption,
) *ExamService {
	s := &ExamService{
		bank:           bank,
		cfg:            cfg,
		results:        results,
		profiles:       profiles,
		log:            log.With().Str("component", "exam_service").Logger(),
		persistTimeout: 5 * time.Second,
		now:            time.Now,
		attempts:       make(map[uuid.UUID]*Attempt),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.selector = exam.NewSelector(bank, s.selectorOpts...)
	return s
}

// Config returns the exam layout in use.
func (s *ExamService) Config() model.ExamConfiguration {
	return s.cfg
}

// Departments lists the selectable departments: every non-fixed subject in
// the bank, plus the all-subjects choice when one is configured.
func (s *ExamService) Departments() []model.Department {
	sizes := s.bank.PoolSizes()

	out := make([]model.Department, 0, len(sizes)+1)
	for subject, n := range sizes {
		if s.cfg.IsFixed(subject) {
			continue
		}
		out = append(out, model.Department{Subject: subject, Display: report.DisplayName(subject), PoolSize: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })

	if s.cfg.AllSubjectsSentinel != "" {
		out = append(out, model.Department{
			Subject:  s.cfg.AllSubjectsSentinel,
			Display:  report.DisplayName(s.cfg.CatchAllSubject) + " (ALL)",
			PoolSize: sizes[s.cfg.CatchAllSubject],
		})
	}
	return out
}

// StoredName returns the name saved on the candidate's profile, if any.
func (s *ExamService) StoredName(ctx context.Context, candidateID string) string {
	p, err := s.profiles.Load(ctx, candidateID)
	if err != nil {
		if !errors.Is(err, store.ErrProfileNotFound) {
			s.log.Warn().Err(err).Str("candidate_id", candidateID).Msg("profile lookup failed")
		}
		return ""
	}
	return p.Name
}

// Start builds an exam for the candidate and starts its clock.
// An empty name falls back to the one stored on the profile.
func (s *ExamService) Start(ctx context.Context, candidateID, name, department string) (*Attempt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.StoredName(ctx, candidateID)
	}
	if name == "" {
		return nil, ErrNameRequired
	}
	department = strings.ToUpper(strings.TrimSpace(department))

	session, err := s.selector.Build(s.cfg, department)
	if err != nil {
		return nil, err
	}

	a := &Attempt{
		ID:          uuid.New(),
		CandidateID: candidateID,
		Name:        name,
		Department:  department,
		session:     session,
		timer:       exam.NewTimer(s.newTicker),
		done:        make(chan struct{}),
	}
	log := s.log.With().Str("attempt_id", a.ID.String()).Str("department", department).Logger()

	for _, sf := range session.Shortfalls() {
		log.Warn().
			Str("subject", sf.Subject).
			Int("requested", sf.Requested).
			Int("available", sf.Available).
			Msg("question pool under-filled")
	}
	if s.cfg.TotalExpected > 0 && session.Len() != s.cfg.TotalExpected {
		log.Error().
			Int("expected", s.cfg.TotalExpected).
			Int("actual", session.Len()).
			Msg("exam length does not match configured total")
	}

	if err := s.profiles.SaveName(ctx, candidateID, name); err != nil {
		log.Warn().Err(err).Msg("save candidate name failed")
	}

	s.mu.Lock()
	s.pruneLocked()
	s.attempts[a.ID] = a
	s.mu.Unlock()

	if err := a.timer.Start(session, func() { s.submit(a, true) }); err != nil {
		return nil, err
	}

	log.Info().Int("questions", session.Len()).Msg("exam attempt started")
	return a, nil
}

func (s *ExamService) pruneLocked() {
	cutoff := s.now().Add(-attemptRetention)
	for id, a := range s.attempts {
		if !a.submitted() {
			continue
		}
		if at := a.outcome.Result.SubmittedAt; at.Before(cutoff) {
			delete(s.attempts, id)
		}
	}
}

// Get returns the candidate's attempt.
func (s *ExamService) Get(candidateID string, id uuid.UUID) (*Attempt, error) {
	s.mu.RLock()
	a, ok := s.attempts[id]
	s.mu.RUnlock()

	if !ok || a.CandidateID != candidateID {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}

// State returns the candidate-facing snapshot of an attempt.
func (s *ExamService) State(candidateID string, id uuid.UUID) (model.AttemptState, error) {
	a, err := s.Get(candidateID, id)
	if err != nil {
		return model.AttemptState{}, err
	}
	return s.snapshot(a), nil
}

// Snapshot builds the state of an attempt the caller already holds.
func (s *ExamService) Snapshot(a *Attempt) model.AttemptState {
	return s.snapshot(a)
}

func (s *ExamService) snapshot(a *Attempt) model.AttemptState {
	sess := a.session
	st := model.AttemptState{
		AttemptID:            a.ID,
		CandidateName:        a.Name,
		Department:           a.Department,
		Status:               model.SessionStatusInProgress,
		CurrentIndex:         sess.CurrentIndex(),
		QuestionCount:        sess.Len(),
		TotalExpected:        s.cfg.TotalExpected,
		AnsweredCount:        sess.AnsweredCount(),
		TimeRemainingSeconds: sess.TimeRemaining(),
		FinalMinute:          sess.InFinalMinute(),
		StartedAt:            sess.StartedAt(),
		Grid:                 sess.Grid(),
	}
	if sess.Frozen() {
		st.Status = model.SessionStatusCompleted
	}
	if q, err := sess.CurrentQuestion(); err == nil {
		st.Current = q.ForCandidate()
		st.ChosenOption, _ = sess.Answer(q.ID)
	}
	return st
}

// Answer records the candidate's choice for a question.
func (s *ExamService) Answer(candidateID string, id uuid.UUID, questionID, option string) (model.AttemptState, error) {
	a, err := s.Get(candidateID, id)
	if err != nil {
		return model.AttemptState{}, err
	}
	if err := a.session.RecordAnswer(questionID, strings.ToUpper(strings.TrimSpace(option))); err != nil {
		return model.AttemptState{}, err
	}
	return s.snapshot(a), nil
}

// Navigate moves the cursor by delta.
func (s *ExamService) Navigate(candidateID string, id uuid.UUID, delta int) (model.AttemptState, error) {
	a, err := s.Get(candidateID, id)
	if err != nil {
		return model.AttemptState{}, err
	}
	a.session.Navigate(delta)
	return s.snapshot(a), nil
}

// Jump moves the cursor to index.
func (s *ExamService) Jump(candidateID string, id uuid.UUID, index int) (model.AttemptState, error) {
	a, err := s.Get(candidateID, id)
	if err != nil {
		return model.AttemptState{}, err
	}
	a.session.JumpTo(index)
	return s.snapshot(a), nil
}

// Submit scores the attempt. Repeated calls, and a submit racing the clock
// running out, all return the same outcome.
func (s *ExamService) Submit(candidateID string, id uuid.UUID) (model.SubmitOutcome, error) {
	a, err := s.Get(candidateID, id)
	if err != nil {
		return model.SubmitOutcome{}, err
	}
	return s.submit(a, false), nil
}

// submit runs the submission critical section once per attempt.
func (s *ExamService) submit(a *Attempt, timedOut bool) model.SubmitOutcome {
	a.submitOnce.Do(func() {
		a.timer.Stop()
		a.session.Freeze(s.now())

		rec := exam.Score(a.session, s.cfg, timedOut)
		rec.ID = uuid.New()
		rec.AttemptID = a.ID
		rec.CandidateID = a.CandidateID
		rec.CandidateName = a.Name
		rec.Department = a.Department

		log := s.log.With().Str("attempt_id", a.ID.String()).Logger()

		ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
		defer cancel()

		persisted := true
		sc := model.SaveContext{CandidateID: a.CandidateID, CandidateName: a.Name, Department: a.Department}
		if err := s.results.Save(ctx, rec, sc); err != nil {
			persisted = false
			log.Error().Err(err).Msg("persist result failed")
		}
		if err := s.profiles.RecordExam(ctx, a.CandidateID, rec.SubmittedAt); err != nil {
			log.Error().Err(err).Msg("update candidate profile failed")
		}

		a.outcome = model.SubmitOutcome{Result: rec, Persisted: persisted}
		close(a.done)

		log.Info().
			Int("score", rec.Score).
			Int("total", rec.TotalQuestions).
			Bool("timed_out", timedOut).
			Bool("persisted", persisted).
			Msg("exam attempt submitted")
	})
	<-a.done
	return a.outcome
}

// Result returns the outcome of a submitted attempt.
func (s *ExamService) Result(candidateID string, id uuid.UUID) (model.SubmitOutcome, error) {
	a, err := s.Get(candidateID, id)
	if err != nil {
		return model.SubmitOutcome{}, err
	}
	if !a.submitted() {
		return model.SubmitOutcome{}, ErrAttemptNotSubmitted
	}
	return a.outcome, nil
}

// Report renders the review of a submitted attempt as plain text.
func (s *ExamService) Report(candidateID string, id uuid.UUID) (string, error) {
	out, err := s.Result(candidateID, id)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := report.NewRenderer(false).Render(&buf, out.Result); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// History lists the candidate's stored results, newest first.
func (s *ExamService) History(ctx context.Context, candidateID string, limit int) ([]model.ResultRecord, error) {
	return s.results.ListByCandidate(ctx, candidateID, limit)
}

// Shutdown stops the clock of every running attempt. Unsubmitted attempts
// are left as they are.
func (s *ExamService) Shutdown() {
	s.mu.RLock()
	running := make([]*Attempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		if !a.submitted() {
			running = append(running, a)
		}
	}
	s.mu.RUnlock()

	for _, a := range running {
		a.timer.Stop()
	}
	s.log.Info().Int("stopped", len(running)).Msg("exam clocks stopped")
}
