package exam

import (
	"errors"
	"fmt"
)

// Core errors.
var (
	ErrDataIntegrity   = errors.New("question bank data integrity violation")
	ErrInvalidOption   = errors.New("option is not defined for question")
	ErrUnknownQuestion = errors.New("question is not part of this exam")
	ErrSessionClosed   = errors.New("exam session is already submitted")
	ErrNoQuestions     = errors.New("exam session has no questions")
	ErrTimerRunning    = errors.New("timer is already running")
)

// DataIntegrityError describes a bank entry that cannot be scored.
type DataIntegrityError struct {
	QuestionID string
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("question %q: %s", e.QuestionID, e.Reason)
}

func (e *DataIntegrityError) Unwrap() error {
	return ErrDataIntegrity
}

// Shortfall records a subject pool that was smaller than its quota.
// It is the non-fatal under-filled pool warning surfaced by the Selector.
type Shortfall struct {
	Subject   string `json:"subject"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Missing returns how many questions the exam is short for this subject.
func (s Shortfall) Missing() int {
	return s.Requested - s.Available
}

func (s Shortfall) String() string {
	return fmt.Sprintf("%s: requested %d, available %d", s.Subject, s.Requested, s.Available)
}
