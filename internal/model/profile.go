package model

import "time"

// CandidateProfile is the stored identity of a candidate.
type CandidateProfile struct {
	CandidateID string     `json:"candidate_id"`
	Name        string     `json:"name"`
	ExamsTaken  int        `json:"exams_taken"`
	LastExamAt  *time.Time `json:"last_exam_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
