package exam

import (
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/exstem-cbt/internal/model"
)

// finalMinute is the remaining-time threshold for the last-minute warning.
const finalMinute = 60

// Session is the state of one exam attempt.
//
// A session has a single owner. The mutex only serialises the owner's calls
// against the timer's tick, which is the one background writer.
type Session struct {
	mu sync.Mutex

	questions  []model.Question
	index      map[string]int
	shortfalls []Shortfall

	answers       map[string]string
	currentIndex  int
	timeLimit     int
	timeRemaining int
	startedAt     time.Time
	submittedAt   *time.Time
}

// NewSession creates a session over a fixed question sequence.
func NewSession(questions []model.Question, timeLimitSeconds int, startedAt time.Time) *Session {
	return newSession(append([]model.Question(nil), questions...), timeLimitSeconds, startedAt, nil)
}

func newSession(questions []model.Question, timeLimitSeconds int, startedAt time.Time, shortfalls []Shortfall) *Session {
	if timeLimitSeconds < 0 {
		timeLimitSeconds = 0
	}
	index := make(map[string]int, len(questions))
	for i, q := range questions {
		index[q.ID] = i
	}
	return &Session{
		questions:     questions,
		index:         index,
		shortfalls:    shortfalls,
		answers:       make(map[string]string),
		timeLimit:     timeLimitSeconds,
		timeRemaining: timeLimitSeconds,
		startedAt:     startedAt,
	}
}

// CurrentQuestion returns the question under the cursor.
func (s *Session) CurrentQuestion() (model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.questions) == 0 {
		return model.Question{}, ErrNoQuestions
	}
	return s.questions[s.currentIndex], nil
}

// RecordAnswer sets the chosen option for a question, replacing any earlier choice.
func (s *Session) RecordAnswer(questionID, optionLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submittedAt != nil {
		return ErrSessionClosed
	}

	i, ok := s.index[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if !s.questions[i].HasOption(optionLabel) {
		return fmt.Errorf("%w: %q on %s", ErrInvalidOption, optionLabel, questionID)
	}

	s.answers[questionID] = optionLabel
	return nil
}

// Navigate moves the cursor by delta. Moves that would leave the question range are ignored.
func (s *Session) Navigate(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submittedAt != nil {
		return
	}
	next := s.currentIndex + delta
	if next >= 0 && next < len(s.questions) {
		s.currentIndex = next
	}
}

// JumpTo moves the cursor to index if it is in range.
func (s *Session) JumpTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submittedAt != nil {
		return
	}
	if index >= 0 && index < len(s.questions) {
		s.currentIndex = index
	}
}

// Tick removes one second from the clock, never going below zero.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submittedAt != nil {
		return
	}
	if s.timeRemaining > 0 {
		s.timeRemaining--
	}
}

// IsAnswered reports whether questionID has a recorded answer.
func (s *Session) IsAnswered(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.answers[questionID]
	return ok
}

// Answer returns the recorded option for questionID.
func (s *Session) Answer(questionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	label, ok := s.answers[questionID]
	return label, ok
}

// Freeze terminates the session. Only the first call has an effect.
func (s *Session) Freeze(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submittedAt != nil {
		return
	}
	s.submittedAt = &at
}

// Frozen reports whether the session has been submitted.
func (s *Session) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submittedAt != nil
}

// SubmittedAt returns the freeze time, if any.
func (s *Session) SubmittedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submittedAt == nil {
		return time.Time{}, false
	}
	return *s.submittedAt, true
}

// Questions returns the question sequence in exam order.
func (s *Session) Questions() []model.Question {
	// questions is never mutated after construction.
	return append([]model.Question(nil), s.questions...)
}

// Len returns the number of questions in the exam.
func (s *Session) Len() int {
	return len(s.questions)
}

// Answers returns a copy of the recorded answers keyed by question id.
func (s *Session) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// AnsweredCount returns how many questions have an answer.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

// CurrentIndex returns the cursor position.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentIndex
}

// TimeRemaining returns the seconds left on the clock.
func (s *Session) TimeRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemaining
}

// TimeLimit returns the configured duration in seconds.
func (s *Session) TimeLimit() int {
	return s.timeLimit
}

// InFinalMinute reports whether the clock is in its last minute but not yet out.
func (s *Session) InFinalMinute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeRemaining > 0 && s.timeRemaining <= finalMinute
}

// StartedAt returns the construction time.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Shortfalls lists the subject pools that could not fill their quota.
func (s *Session) Shortfalls() []Shortfall {
	return append([]Shortfall(nil), s.shortfalls...)
}

// Underfilled reports whether any pool was short.
func (s *Session) Underfilled() bool {
	return len(s.shortfalls) > 0
}

// Grid returns the navigation grid in exam order.
func (s *Session) Grid() []model.GridCell {
	s.mu.Lock()
	defer s.mu.Unlock()

	cells := make([]model.GridCell, len(s.questions))
	for i, q := range s.questions {
		_, answered := s.answers[q.ID]
		cells[i] = model.GridCell{
			Index:    i,
			ID:       q.ID,
			Answered: answered,
			Current:  i == s.currentIndex,
		}
	}
	return cells
}
