package websocket

import "github.com/stemsi/exstem-cbt/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionJump     Action = "jump"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is any client message. Fields not used by the action are ignored.
type RequestPayload struct {
	Action     Action `json:"action"`
	QuestionID string `json:"q_id,omitempty"`
	Option     string `json:"option,omitempty"`
	Delta      int    `json:"delta,omitempty"`
	Index      *int   `json:"index,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventState  Event = "state"
	EventTick   Event = "tick"
	EventGraded Event = "graded"
	EventPong   Event = "pong"
)

type StateResponse struct {
	Event Event              `json:"event"`
	State model.AttemptState `json:"state"`
}

// TickResponse is pushed once per second while the clock runs.
type TickResponse struct {
	Event                Event  `json:"event"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
	Clock                string `json:"clock"`
	FinalMinute          bool   `json:"final_minute"`
}

type GradedResponse struct {
	Event      Event   `json:"event"`
	Status     string  `json:"status"`
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	TimedOut   bool    `json:"is_timeout"`
	Persisted  bool    `json:"persisted"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// Graded builds the graded event for a submission outcome.
func Graded(out model.SubmitOutcome) GradedResponse {
	return GradedResponse{
		Event:      EventGraded,
		Status:     "completed",
		Score:      out.Result.Score,
		Total:      out.Result.TotalQuestions,
		Percentage: out.Result.Percentage,
		TimedOut:   out.Result.TimedOut,
		Persisted:  out.Persisted,
	}
}
