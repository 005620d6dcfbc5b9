// Package report renders scored results for people: the review listing,
// the exam clock and subject display names.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// agencyTags are the trailing subject-tag parts shown in parentheses.
var agencyTags = map[string]struct{}{
	"NIS":   {},
	"NSCDC": {},
	"NCS":   {},
	"FFS":   {},
}

// DisplayName turns a subject tag into its display form,
// e.g. CIVIL_DEFENCE_NSCDC becomes "CIVIL DEFENCE (NSCDC)".
func DisplayName(subject string) string {
	parts := strings.Split(subject, "_")
	if n := len(parts); n > 1 {
		if _, ok := agencyTags[parts[n-1]]; ok {
			parts[n-1] = "(" + parts[n-1] + ")"
		}
	}
	return strings.Join(parts, " ")
}

// FormatClock renders seconds as MM:SS. Negative values render as 00:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Renderer writes results as text, optionally with ANSI colour.
type Renderer struct {
	good  *color.Color
	bad   *color.Color
	warn  *color.Color
	title *color.Color
	faint *color.Color
}

// NewRenderer returns a renderer. With colour off the output is plain text
// regardless of the terminal.
func NewRenderer(colour bool) *Renderer {
	r := &Renderer{
		good:  color.New(color.FgGreen, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		title: color.New(color.FgCyan, color.Bold),
		faint: color.New(color.Faint),
	}
	for _, c := range []*color.Color{r.good, r.bad, r.warn, r.title, r.faint} {
		if colour {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Clock renders the remaining time, highlighted during the final minute.
func (r *Renderer) Clock(remaining int, finalMinute bool) string {
	s := FormatClock(remaining)
	if finalMinute {
		return r.bad.Sprint(s)
	}
	return s
}

// Summary is the one-line score, e.g. "42/50 (84.0%)".
func (r *Renderer) Summary(rec model.ResultRecord) string {
	return fmt.Sprintf("%d/%d (%.1f%%)", rec.Score, rec.TotalQuestions, rec.Percentage)
}

// Render writes the score card and the per-question review in session order.
// The last line is always score/total.
func (r *Renderer) Render(w io.Writer, rec model.ResultRecord) error {
	var b strings.Builder

	b.WriteString(r.title.Sprint("RESULT") + "\n")
	if rec.CandidateName != "" {
		fmt.Fprintf(&b, "Candidate:  %s\n", rec.CandidateName)
	}
	if rec.Department != "" {
		fmt.Fprintf(&b, "Department: %s\n", DisplayName(rec.Department))
	}
	fmt.Fprintf(&b, "Score:      %s\n", r.Summary(rec))
	fmt.Fprintf(&b, "Time spent: %s\n", FormatClock(rec.TimeSpentSeconds))
	if rec.TimedOut {
		b.WriteString(r.warn.Sprint("Submitted automatically when time ran out.") + "\n")
	}
	if rec.QuestionCount > 0 && rec.QuestionCount != rec.TotalQuestions {
		b.WriteString(r.warn.Sprintf("Only %d of %d questions were available.", rec.QuestionCount, rec.TotalQuestions) + "\n")
	}

	for i, e := range rec.Entries {
		b.WriteString("\n")
		r.entry(&b, i, e)
	}

	fmt.Fprintf(&b, "\n%d/%d\n", rec.Score, rec.TotalQuestions)

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) entry(b *strings.Builder, i int, e model.ResultEntry) {
	b.WriteString(r.faint.Sprintf("Subject: %s", DisplayName(e.Subject)) + "\n")
	fmt.Fprintf(b, "Q%d. %s\n", i+1, e.Prompt)

	for _, o := range e.Options {
		line := fmt.Sprintf("%s. %s", o.Label, o.Text)
		switch {
		case o.Label == e.CorrectOption:
			b.WriteString("  " + r.good.Sprint("+ "+line) + "\n")
		case o.Label == e.ChosenOption:
			b.WriteString("  " + r.bad.Sprint("x "+line) + "\n")
		default:
			b.WriteString("    " + line + "\n")
		}
	}

	status := r.bad.Sprint("Incorrect")
	switch {
	case e.IsCorrect:
		status = r.good.Sprint("Correct")
	case !e.Answered():
		status = r.warn.Sprint("Not answered")
	}
	fmt.Fprintf(b, "Your answer: %s | Status: %s\n", e.ChosenOption, status)
	if e.Explanation != "" {
		fmt.Fprintf(b, "Explanation: %s\n", e.Explanation)
	}
}

// Question writes the live view of the question under the cursor,
// marking the option already chosen.
func (r *Renderer) Question(w io.Writer, st model.AttemptState) error {
	var b strings.Builder

	q := st.Current
	fmt.Fprintf(&b, "%s  %s  answered %d/%d\n",
		r.title.Sprintf("Question %d of %d", st.CurrentIndex+1, st.QuestionCount),
		r.Clock(st.TimeRemainingSeconds, st.FinalMinute),
		st.AnsweredCount, st.QuestionCount)
	if st.FinalMinute {
		b.WriteString(r.warn.Sprint("Less than a minute left.") + "\n")
	}
	b.WriteString(r.faint.Sprintf("Subject: %s", DisplayName(q.Subject)) + "\n")
	fmt.Fprintf(&b, "%s\n", q.Prompt)

	for _, o := range q.Options {
		line := fmt.Sprintf("%s. %s", o.Label, o.Text)
		if o.Label == st.ChosenOption {
			b.WriteString("  " + r.good.Sprint("> "+line) + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Grid writes the navigation grid ten cells to a row. Answered cells read
// [n] and the current one reads <n>.
func (r *Renderer) Grid(w io.Writer, cells []model.GridCell) error {
	var b strings.Builder
	for i, c := range cells {
		label := fmt.Sprintf("%2d", c.Index+1)
		switch {
		case c.Current:
			label = r.title.Sprint("<" + label + ">")
		case c.Answered:
			label = r.good.Sprint("[" + label + "]")
		default:
			label = " " + label + " "
		}
		b.WriteString(label)
		if (i+1)%10 == 0 || i == len(cells)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
