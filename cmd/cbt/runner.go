package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-cbt/internal/exam"
	"github.com/stemsi/exstem-cbt/internal/model"
	"github.com/stemsi/exstem-cbt/internal/report"
	"github.com/stemsi/exstem-cbt/internal/service"
)

const help = "Commands: A-E answer | n next | p previous | j <number> jump | g grid | s submit"

// runner drives one exam attempt over a line-based terminal.
type runner struct {
	svc         *service.ExamService
	render      *report.Renderer
	out         io.Writer
	lines       <-chan string
	candidateID string
}

func newRunner(svc *service.ExamService, render *report.Renderer, in io.Reader, out io.Writer, candidateID string) *runner {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return &runner{svc: svc, render: render, out: out, lines: lines, candidateID: candidateID}
}

// readLine waits for input. ok is false once input is exhausted.
func (r *runner) readLine() (string, bool) {
	line, ok := <-r.lines
	return line, ok
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// run collects the candidate's details, runs the exam and prints the review.
func (r *runner) run(ctx context.Context) (model.SubmitOutcome, error) {
	name, err := r.askName(ctx)
	if err != nil {
		return model.SubmitOutcome{}, err
	}
	dept, err := r.askDepartment()
	if err != nil {
		return model.SubmitOutcome{}, err
	}

	a, err := r.svc.Start(ctx, r.candidateID, name, dept)
	if err != nil {
		return model.SubmitOutcome{}, err
	}
	cfg := r.svc.Config()
	r.printf("\nYou have %s for %d questions.\n%s\n\n", report.FormatClock(cfg.TimeLimitSeconds), cfg.TotalExpected, help)

	out, err := r.loop(a)
	if err != nil {
		return model.SubmitOutcome{}, err
	}

	r.printf("\n")
	if out.Result.TimedOut {
		r.printf("Time is up. Your exam was submitted automatically.\n\n")
	}
	if !out.Persisted {
		r.printf("Your result could not be saved, but here is your score.\n\n")
	}
	if err := r.render.Render(r.out, out.Result); err != nil {
		return out, err
	}
	return out, nil
}

func (r *runner) askName(ctx context.Context) (string, error) {
	stored := r.svc.StoredName(ctx, r.candidateID)
	for {
		if stored != "" {
			r.printf("Full name [%s]: ", stored)
		} else {
			r.printf("Full name: ")
		}
		line, ok := r.readLine()
		if !ok {
			return "", io.ErrUnexpectedEOF
		}
		if line != "" {
			return line, nil
		}
		if stored != "" {
			return stored, nil
		}
	}
}

func (r *runner) askDepartment() (string, error) {
	depts := r.svc.Departments()
	r.printf("\nDepartments:\n")
	for i, d := range depts {
		r.printf("  %d. %s\n", i+1, d.Display)
	}
	for {
		r.printf("Choose a department (1-%d): ", len(depts))
		line, ok := r.readLine()
		if !ok {
			return "", io.ErrUnexpectedEOF
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(depts) {
			return depts[n-1].Subject, nil
		}
		for _, d := range depts {
			if strings.EqualFold(line, d.Subject) {
				return d.Subject, nil
			}
		}
		r.printf("Not a department: %q\n", line)
	}
}

// loop handles commands until the attempt is submitted, by the candidate or the clock.
func (r *runner) loop(a *service.Attempt) (model.SubmitOutcome, error) {
	for {
		st, err := r.svc.State(r.candidateID, a.ID)
		if err != nil {
			return model.SubmitOutcome{}, err
		}
		if st.Status == model.SessionStatusCompleted {
			return r.svc.Result(r.candidateID, a.ID)
		}
		if err := r.render.Question(r.out, st); err != nil {
			return model.SubmitOutcome{}, err
		}
		r.printf("> ")

		var line string
		select {
		case <-a.Done():
			return r.svc.Result(r.candidateID, a.ID)
		case l, ok := <-r.lines:
			if !ok {
				// Input closed: hand in what was answered.
				return r.svc.Submit(r.candidateID, a.ID)
			}
			line = l
		}

		done, err := r.command(a, st, line)
		if err != nil {
			return model.SubmitOutcome{}, err
		}
		if done {
			return r.svc.Result(r.candidateID, a.ID)
		}
		r.printf("\n")
	}
}

// command applies one line of input. done reports a confirmed submit.
func (r *runner) command(a *service.Attempt, st model.AttemptState, line string) (bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false, nil
	}

	var err error
	switch fields[0] {
	case "n":
		_, err = r.svc.Navigate(r.candidateID, a.ID, 1)
	case "p":
		_, err = r.svc.Navigate(r.candidateID, a.ID, -1)
	case "j":
		n := 0
		if len(fields) > 1 {
			n, _ = strconv.Atoi(fields[1])
		}
		if n < 1 || n > st.QuestionCount {
			r.printf("Jump to a number between 1 and %d.\n", st.QuestionCount)
			return false, nil
		}
		_, err = r.svc.Jump(r.candidateID, a.ID, n-1)
	case "g":
		return false, r.render.Grid(r.out, st.Grid)
	case "s":
		return r.confirmSubmit(a, st)
	default:
		if len(fields[0]) != 1 {
			r.printf("%s\n", help)
			return false, nil
		}
		_, err = r.svc.Answer(r.candidateID, a.ID, st.Current.ID, strings.ToUpper(fields[0]))
	}

	if err != nil && !isUserError(err) {
		return false, err
	}
	if err != nil {
		r.printf("%v\n", err)
	}
	return false, nil
}

func (r *runner) confirmSubmit(a *service.Attempt, st model.AttemptState) (bool, error) {
	r.printf("You have answered %d out of %d questions. Submit now? (y/N): ", st.AnsweredCount, st.QuestionCount)
	select {
	case <-a.Done():
		return true, nil
	case line, ok := <-r.lines:
		if ok && !strings.EqualFold(line, "y") && !strings.EqualFold(line, "yes") {
			return false, nil
		}
	}
	_, err := r.svc.Submit(r.candidateID, a.ID)
	return err == nil, err
}

// isUserError reports errors caused by a bad command rather than a broken exam.
func isUserError(err error) bool {
	return errors.Is(err, exam.ErrInvalidOption) ||
		errors.Is(err, exam.ErrUnknownQuestion) ||
		errors.Is(err, exam.ErrSessionClosed)
}
