package exam

import (
	"time"

	"github.com/stemsi/exstem-cbt/internal/model"
)

// QuestionSource is the read side of a question bank.
type QuestionSource interface {
	BySubject(subject string) []model.Question
}

// Selector builds exam instances from a question source.
type Selector struct {
	source QuestionSource
	rng    Rand
	now    func() time.Time
}

// SelectorOption customises a Selector.
type SelectorOption func(*Selector)

// WithRand overrides the shuffle source.
func WithRand(r Rand) SelectorOption {
	return func(s *Selector) { s.rng = r }
}

// WithClock overrides the clock used for StartedAt.
func WithClock(now func() time.Time) SelectorOption {
	return func(s *Selector) { s.now = now }
}

// NewSelector creates a Selector over source.
func NewSelector(source QuestionSource, opts ...SelectorOption) *Selector {
	s := &Selector{
		source: source,
		rng:    DefaultRand,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build draws one exam for departmentChoice.
//
// Each fixed subject contributes a shuffled prefix of its pool sized by its
// quota. The resolved department contributes the departmental quota unless it
// is already a fixed subject. The concatenation is shuffled again so subjects
// interleave. A subject is never drawn twice. Pools smaller than their quota
// are recorded as shortfalls on the returned session rather than failing the
// build.
func (s *Selector) Build(cfg model.ExamConfiguration, departmentChoice string) (*Session, error) {
	var (
		questions  []model.Question
		shortfalls []Shortfall
	)

	drawn := make(map[string]struct{}, len(cfg.FixedSubjects)+1)
	draw := func(subject string, quota int) {
		if _, ok := drawn[subject]; ok {
			return
		}
		drawn[subject] = struct{}{}
		pool := s.source.BySubject(subject)
		picked := shuffleTake(s.rng, pool, quota)
		if len(picked) < quota {
			shortfalls = append(shortfalls, Shortfall{
				Subject:   subject,
				Requested: quota,
				Available: len(picked),
			})
		}
		questions = append(questions, picked...)
	}

	for _, subject := range cfg.FixedSubjects {
		draw(subject, cfg.PerSubjectQuota[subject])
	}

	department := cfg.ResolveDepartment(departmentChoice)
	if department != "" && !cfg.IsFixed(department) {
		draw(department, cfg.PerSubjectQuota[cfg.DepartmentalQuotaKey])
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	Shuffle(s.rng, questions)

	return newSession(questions, cfg.TimeLimitSeconds, s.now(), shortfalls), nil
}
