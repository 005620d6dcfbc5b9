package bank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/stemsi/exstem-cbt/internal/exam"
	"github.com/stemsi/exstem-cbt/internal/model"
)

//go:embed assets/questions.json
var defaultCatalog []byte

// minOptions is the smallest option count a scorable question may have.
const minOptions = 2

// Bank is a read-only question repository indexed by subject.
// It is safe for concurrent use because it is never mutated after Load.
type Bank struct {
	title     string
	questions []model.Question
	bySubject map[string][]model.Question
}

// Default loads the bank compiled into the binary.
func Default() (*Bank, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile loads and validates a bank from a JSON catalog file.
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a JSON catalog.
// Any unscorable entry fails the whole load with a *exam.DataIntegrityError.
func Load(r io.Reader) (*Bank, error) {
	var catalog model.QuestionCatalog
	if err := json.NewDecoder(r).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return New(catalog.Title, catalog.Questions)
}

// New builds a bank from questions after validating every entry.
func New(title string, questions []model.Question) (*Bank, error) {
	b := &Bank{
		title:     title,
		questions: make([]model.Question, 0, len(questions)),
		bySubject: make(map[string][]model.Question),
	}

	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if err := validate(q); err != nil {
			return nil, err
		}
		if _, dup := seen[q.ID]; dup {
			return nil, &exam.DataIntegrityError{QuestionID: q.ID, Reason: "duplicate question id"}
		}
		seen[q.ID] = struct{}{}

		b.questions = append(b.questions, q)
		b.bySubject[q.Subject] = append(b.bySubject[q.Subject], q)
	}

	return b, nil
}

func validate(q model.Question) error {
	fail := func(reason string) error {
		return &exam.DataIntegrityError{QuestionID: q.ID, Reason: reason}
	}

	if q.ID == "" {
		return fail("missing id")
	}
	if q.Subject == "" {
		return fail("missing subject")
	}
	if len(q.Options) < minOptions {
		return fail(fmt.Sprintf("has %d options, need at least %d", len(q.Options), minOptions))
	}

	labels := make(map[string]struct{}, len(q.Options))
	for _, o := range q.Options {
		if o.Label == "" || o.Label == model.Unanswered {
			return fail(fmt.Sprintf("invalid option label %q", o.Label))
		}
		if _, dup := labels[o.Label]; dup {
			return fail(fmt.Sprintf("duplicate option label %q", o.Label))
		}
		labels[o.Label] = struct{}{}
	}

	if _, ok := labels[q.CorrectOption]; !ok {
		return fail(fmt.Sprintf("correct option %q is not one of its options", q.CorrectOption))
	}
	return nil
}

// Title returns the catalog title.
func (b *Bank) Title() string {
	return b.title
}

// BySubject returns the pool for subject in bank order. The slice is a copy.
func (b *Bank) BySubject(subject string) []model.Question {
	return append([]model.Question(nil), b.bySubject[subject]...)
}

// All returns every question in bank order.
func (b *Bank) All() []model.Question {
	return append([]model.Question(nil), b.questions...)
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int {
	return len(b.questions)
}

// Subjects returns the subject tags present in the bank, sorted.
func (b *Bank) Subjects() []string {
	out := make([]string, 0, len(b.bySubject))
	for s := range b.bySubject {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// PoolSizes returns the number of questions per subject.
func (b *Bank) PoolSizes() map[string]int {
	out := make(map[string]int, len(b.bySubject))
	for s, qs := range b.bySubject {
		out[s] = len(qs)
	}
	return out
}
