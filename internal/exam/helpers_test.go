package exam_test

import (
	"fmt"

	"github.com/stemsi/exstem-cbt/internal/model"
)

// fakeSource is an in-memory QuestionSource.
type fakeSource map[string][]model.Question

func (f fakeSource) BySubject(subject string) []model.Question {
	return append([]model.Question(nil), f[subject]...)
}

func pool(subject, prefix string, n int) []model.Question {
	out := make([]model.Question, n)
	for i := range out {
		out[i] = model.Question{
			ID:      fmt.Sprintf("%s%d", prefix, i+1),
			Subject: subject,
			Prompt:  fmt.Sprintf("%s question %d", subject, i+1),
			Options: []model.Option{
				{Label: "A", Text: "alpha"},
				{Label: "B", Text: "bravo"},
				{Label: "C", Text: "charlie"},
				{Label: "D", Text: "delta"},
			},
			CorrectOption: "B",
			Explanation:   "bravo is right",
		}
	}
	return out
}

// scenarioSource is the four-subject bank used throughout the selector tests.
func scenarioSource() fakeSource {
	return fakeSource{
		"MATHS":           pool("MATHS", "M", 15),
		"ENGLISH":         pool("ENGLISH", "E", 15),
		"GENERAL":         pool("GENERAL", "G", 20),
		"IMMIGRATION_NIS": pool("IMMIGRATION_NIS", "I", 15),
	}
}
