package exam_test

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stemsi/exstem-cbt/internal/exam"
)

func newTestSession(n, limit int) *exam.Session {
	return exam.NewSession(pool("MATHS", "M", n), limit, time.Unix(0, 0))
}

func TestRecordAnswer(t *testing.T) {
	s := newTestSession(3, 60)

	if err := s.RecordAnswer("M1", "A"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if err := s.RecordAnswer("M1", "A"); err != nil {
		t.Fatalf("repeat RecordAnswer: %v", err)
	}
	if got, _ := s.Answer("M1"); got != "A" {
		t.Fatalf("answer = %q, want A", got)
	}
	if s.AnsweredCount() != 1 {
		t.Fatalf("AnsweredCount = %d after repeat", s.AnsweredCount())
	}

	if err := s.RecordAnswer("M1", "B"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ := s.Answer("M1"); got != "B" {
		t.Fatalf("answer = %q, want B", got)
	}
	if s.AnsweredCount() != 1 {
		t.Fatalf("AnsweredCount = %d after overwrite", s.AnsweredCount())
	}
	if !s.IsAnswered("M1") || s.IsAnswered("M2") {
		t.Fatal("IsAnswered mismatch")
	}
}

func TestRecordAnswer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		question string
		option   string
		want     error
	}{
		{name: "unknown question", question: "X9", option: "A", want: exam.ErrUnknownQuestion},
		{name: "undefined option", question: "M1", option: "E", want: exam.ErrInvalidOption},
		{name: "lowercase label is distinct", question: "M1", option: "a", want: exam.ErrInvalidOption},
		{name: "unanswered marker is not an option", question: "M1", option: "N/A", want: exam.ErrInvalidOption},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSession(2, 60)
			err := s.RecordAnswer(tc.question, tc.option)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if s.AnsweredCount() != 0 {
				t.Fatal("rejected answer was recorded")
			}
		})
	}
}

func TestNavigate_StaysInRange(t *testing.T) {
	s := newTestSession(7, 60)
	r := rand.New(rand.NewPCG(3, 4))

	for i := 0; i < 2000; i++ {
		s.Navigate(r.IntN(9) - 4)
		if idx := s.CurrentIndex(); idx < 0 || idx >= 7 {
			t.Fatalf("step %d: index %d out of range", i, idx)
		}
	}
}

func TestNavigate(t *testing.T) {
	s := newTestSession(3, 60)

	s.Navigate(-1)
	if s.CurrentIndex() != 0 {
		t.Fatalf("moved before start: %d", s.CurrentIndex())
	}
	s.Navigate(1)
	s.Navigate(1)
	if s.CurrentIndex() != 2 {
		t.Fatalf("index = %d, want 2", s.CurrentIndex())
	}
	s.Navigate(1)
	if s.CurrentIndex() != 2 {
		t.Fatalf("wrapped past end: %d", s.CurrentIndex())
	}
	s.Navigate(-5)
	if s.CurrentIndex() != 2 {
		t.Fatalf("partial move applied: %d", s.CurrentIndex())
	}

	q, err := s.CurrentQuestion()
	if err != nil || q.ID != "M3" {
		t.Fatalf("CurrentQuestion = %v, %v", q.ID, err)
	}
}

func TestJumpTo(t *testing.T) {
	s := newTestSession(4, 60)

	s.JumpTo(3)
	if s.CurrentIndex() != 3 {
		t.Fatalf("index = %d", s.CurrentIndex())
	}
	s.JumpTo(4)
	s.JumpTo(-1)
	if s.CurrentIndex() != 3 {
		t.Fatalf("out of range jump applied: %d", s.CurrentIndex())
	}

	grid := s.Grid()
	if len(grid) != 4 || !grid[3].Current || grid[0].Current {
		t.Fatalf("grid = %+v", grid)
	}
}

func TestCurrentQuestion_Empty(t *testing.T) {
	s := exam.NewSession(nil, 60, time.Now())
	if _, err := s.CurrentQuestion(); !errors.Is(err, exam.ErrNoQuestions) {
		t.Fatalf("err = %v", err)
	}
	s.Navigate(1)
	s.JumpTo(0)
	if s.CurrentIndex() != 0 {
		t.Fatalf("index = %d", s.CurrentIndex())
	}
}

func TestTick_FloorsAtZero(t *testing.T) {
	s := newTestSession(1, 2)

	if s.InFinalMinute() != true {
		t.Fatal("2 seconds left should be the final minute")
	}
	s.Tick()
	s.Tick()
	s.Tick()
	if s.TimeRemaining() != 0 {
		t.Fatalf("TimeRemaining = %d", s.TimeRemaining())
	}
	if s.InFinalMinute() {
		t.Fatal("final minute reported after expiry")
	}
}

func TestFreeze(t *testing.T) {
	s := newTestSession(3, 10)
	if err := s.RecordAnswer("M1", "A"); err != nil {
		t.Fatal(err)
	}
	s.Navigate(1)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Freeze(at)
	s.Freeze(at.Add(time.Hour))

	if got, ok := s.SubmittedAt(); !ok || !got.Equal(at) {
		t.Fatalf("SubmittedAt = %v, %v", got, ok)
	}

	if err := s.RecordAnswer("M2", "B"); !errors.Is(err, exam.ErrSessionClosed) {
		t.Fatalf("RecordAnswer after freeze: %v", err)
	}
	s.Navigate(1)
	s.JumpTo(0)
	s.Tick()

	if s.CurrentIndex() != 1 {
		t.Errorf("cursor moved after freeze: %d", s.CurrentIndex())
	}
	if s.TimeRemaining() != 10 {
		t.Errorf("clock ticked after freeze: %d", s.TimeRemaining())
	}
	if s.AnsweredCount() != 1 {
		t.Errorf("answers changed after freeze: %d", s.AnsweredCount())
	}
}
