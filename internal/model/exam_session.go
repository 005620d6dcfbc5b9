package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam attempt states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// GridCell is one entry of the question navigation grid.
type GridCell struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Answered bool   `json:"answered"`
	Current  bool   `json:"current"`
}

// AttemptState is the candidate-facing snapshot of a running attempt.
type AttemptState struct {
	AttemptID            uuid.UUID            `json:"attempt_id"`
	CandidateName        string               `json:"candidate_name"`
	Department           string               `json:"department"`
	Status               SessionStatus        `json:"status"`
	CurrentIndex         int                  `json:"current_index"`
	QuestionCount        int                  `json:"question_count"`
	TotalExpected        int                  `json:"total_expected"`
	AnsweredCount        int                  `json:"answered_count"`
	TimeRemainingSeconds int                  `json:"time_remaining_seconds"`
	FinalMinute          bool                 `json:"final_minute"`
	StartedAt            time.Time            `json:"started_at"`
	Current              QuestionForCandidate `json:"current"`
	ChosenOption         string               `json:"chosen_option,omitempty"`
	Grid                 []GridCell           `json:"grid"`
}

// StartAttemptRequest is the payload for starting an exam. An empty name
// falls back to the name on the candidate profile.
type StartAttemptRequest struct {
	Name       string `json:"name" binding:"omitempty,max=120"`
	Department string `json:"department" binding:"required,max=64,subject_tag"`
}

// AnswerRequest records one answer.
type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,max=64"`
	Option     string `json:"option" binding:"required,option_label"`
}

// NavigateRequest moves the cursor relative to its position.
type NavigateRequest struct {
	Delta int `json:"delta" binding:"required,min=-1000,max=1000"`
}

// JumpRequest moves the cursor to an absolute index.
type JumpRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

// UpdateProfileRequest sets the candidate display name.
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
}
