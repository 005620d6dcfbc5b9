package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultEntry is the scored outcome for one question, in session order.
type ResultEntry struct {
	QuestionID    string   `json:"question_id"`
	Subject       string   `json:"subject"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correct_option"`
	// ChosenOption is Unanswered when the candidate never picked an option.
	ChosenOption string `json:"chosen_option"`
	IsCorrect    bool   `json:"is_correct"`
	Explanation  string `json:"explanation"`
}

// Answered reports whether the candidate picked any option.
func (e ResultEntry) Answered() bool {
	return e.ChosenOption != Unanswered
}

// ResultRecord is the scored outcome of one completed attempt.
type ResultRecord struct {
	ID               uuid.UUID     `json:"id"`
	AttemptID        uuid.UUID     `json:"attempt_id"`
	CandidateID      string        `json:"candidate_id"`
	CandidateName    string        `json:"candidate_name"`
	Department       string        `json:"department"`
	Score            int           `json:"score"`
	TotalQuestions   int           `json:"total_questions"`
	QuestionCount    int           `json:"question_count"`
	Percentage       float64       `json:"percentage"`
	TimeSpentSeconds int           `json:"time_spent_seconds"`
	TimedOut         bool          `json:"is_timeout"`
	SubmittedAt      time.Time     `json:"submitted_at"`
	Entries          []ResultEntry `json:"questions"`
}

// SaveContext identifies who a result belongs to.
type SaveContext struct {
	CandidateID   string
	CandidateName string
	Department    string
}

// SubmitOutcome is returned to the candidate after submission.
type SubmitOutcome struct {
	Result    ResultRecord `json:"result"`
	Persisted bool         `json:"persisted"`
}
