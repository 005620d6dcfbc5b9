package bank

import (
	"errors"
	"strings"
	"testing"

	"github.com/stemsi/exstem-cbt/internal/exam"
	"github.com/stemsi/exstem-cbt/internal/model"
)

func TestDefault(t *testing.T) {
	b, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if b.Len() != 269 {
		t.Fatalf("Len = %d", b.Len())
	}

	sizes := b.PoolSizes()
	for subject, want := range map[string]int{
		"MATHS":               55,
		"ENGLISH":             50,
		"GENERAL":             70,
		"IMMIGRATION_NIS":     25,
		"CIVIL_DEFENCE_NSCDC": 25,
		"FIRE_FFS":            24,
		"CORRECTIONAL_NCS":    20,
	} {
		if sizes[subject] != want {
			t.Errorf("pool %s = %d, want %d", subject, sizes[subject], want)
		}
	}

	for _, q := range b.BySubject("ENGLISH") {
		if q.Subject != "ENGLISH" {
			t.Fatalf("question %s tagged %s in ENGLISH pool", q.ID, q.Subject)
		}
	}
	if len(b.Subjects()) != 7 {
		t.Errorf("Subjects = %v", b.Subjects())
	}
}

func TestBySubject_ReturnsCopy(t *testing.T) {
	b, err := New("t", []model.Question{validQuestion("Q1")})
	if err != nil {
		t.Fatal(err)
	}
	got := b.BySubject("MATHS")
	got[0].CorrectOption = "A"
	if b.BySubject("MATHS")[0].CorrectOption != "B" {
		t.Fatal("caller mutated the bank")
	}
	if len(b.BySubject("NOPE")) != 0 {
		t.Fatal("unknown subject returned questions")
	}
}

func validQuestion(id string) model.Question {
	return model.Question{
		ID:      id,
		Subject: "MATHS",
		Prompt:  "2 + 2?",
		Options: []model.Option{
			{Label: "A", Text: "3"},
			{Label: "B", Text: "4"},
		},
		CorrectOption: "B",
	}
}

func TestNew_Integrity(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *model.Question)
		dup    bool
	}{
		{name: "missing id", mutate: func(q *model.Question) { q.ID = "" }},
		{name: "missing subject", mutate: func(q *model.Question) { q.Subject = "" }},
		{name: "answer key not an option", mutate: func(q *model.Question) { q.CorrectOption = "C" }},
		{name: "single option", mutate: func(q *model.Question) { q.Options = q.Options[:1]; q.CorrectOption = "A" }},
		{name: "duplicate label", mutate: func(q *model.Question) { q.Options[1].Label = "A"; q.CorrectOption = "A" }},
		{name: "reserved label", mutate: func(q *model.Question) { q.Options[0].Label = model.Unanswered }},
		{name: "duplicate id", mutate: func(q *model.Question) {}, dup: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuestion("Q2")
			tc.mutate(&q)
			questions := []model.Question{q}
			if tc.dup {
				questions = append(questions, validQuestion("Q2"))
			}

			_, err := New("t", questions)
			if !errors.Is(err, exam.ErrDataIntegrity) {
				t.Fatalf("err = %v", err)
			}
			var die *exam.DataIntegrityError
			if !errors.As(err, &die) || die.QuestionID != q.ID {
				t.Fatalf("err = %#v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	const doc = `{"title":"mini","questions":[
		{"id":"m1","subject":"MATHS","prompt":"1+1","options":[{"label":"A","text":"2"},{"label":"B","text":"3"}],"correct_option":"A","explanation":"sum"}
	]}`
	b, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.Title() != "mini" || b.Len() != 1 {
		t.Fatalf("title=%q len=%d", b.Title(), b.Len())
	}

	if _, err := Load(strings.NewReader("{")); err == nil {
		t.Fatal("truncated document accepted")
	}
}
