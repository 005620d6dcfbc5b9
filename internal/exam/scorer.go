package exam

import (
	"github.com/stemsi/exstem-cbt/internal/model"
)

// Score computes the result of session as it stands now.
//
// Entries follow session order. The percentage denominator is the configured
// total, not the number of questions actually drawn, so an under-filled exam
// is still reported against the intended size. Score does not freeze the
// session; callers freeze first.
func Score(session *Session, cfg model.ExamConfiguration, timedOut bool) model.ResultRecord {
	questions := session.Questions()
	answers := session.Answers()

	total := cfg.TotalExpected
	if total <= 0 {
		total = len(questions)
	}

	record := model.ResultRecord{
		TotalQuestions:   total,
		QuestionCount:    len(questions),
		TimeSpentSeconds: elapsedSeconds(session.TimeLimit(), session.TimeRemaining()),
		TimedOut:         timedOut,
		Entries:          make([]model.ResultEntry, 0, len(questions)),
	}
	if at, ok := session.SubmittedAt(); ok {
		record.SubmittedAt = at
	}

	for _, q := range questions {
		chosen, answered := answers[q.ID]
		correct := answered && chosen == q.CorrectOption
		if !answered {
			chosen = model.Unanswered
		}
		if correct {
			record.Score++
		}
		record.Entries = append(record.Entries, model.ResultEntry{
			QuestionID:    q.ID,
			Subject:       q.Subject,
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			ChosenOption:  chosen,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}

	record.Percentage = Percentage(record.Score, total)
	return record
}

// Percentage returns score as a percentage of total, or 0 for an empty total.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

func elapsedSeconds(limit, remaining int) int {
	spent := limit - remaining
	if spent < 0 {
		return 0
	}
	return spent
}
