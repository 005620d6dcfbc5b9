package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/model"
)

func sampleRecord(score int, at time.Time) model.ResultRecord {
	return model.ResultRecord{
		ID:               uuid.New(),
		AttemptID:        uuid.New(),
		Score:            score,
		TotalQuestions:   50,
		Percentage:       float64(score) * 2,
		TimeSpentSeconds: 600,
		SubmittedAt:      at,
		Entries: []model.ResultEntry{{
			QuestionID:    "m1",
			Subject:       "MATHS",
			Prompt:        "1+1",
			Options:       []model.Option{{Label: "A", Text: "2"}, {Label: "B", Text: "3"}},
			CorrectOption: "A",
			ChosenOption:  model.Unanswered,
		}},
	}
}

// backends returns every store that can run without external services.
func backends(t *testing.T) map[string]*Backend {
	t.Helper()
	cfg := &config.Config{
		StoreDriver: config.StoreSQLite,
		SQLitePath:  "file:" + filepath.Join(t.TempDir(), "cbt.db"),
	}
	sqlite, closeFn, err := Open(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(closeFn)

	mem, _, err := Open(context.Background(), &config.Config{StoreDriver: config.StoreMemory}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	return map[string]*Backend{"memory": mem, "sqlite": sqlite}
}

func TestResultStore(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sc := model.SaveContext{CandidateID: "cand-1", CandidateName: "Ada", Department: "FIRE_FFS"}
			base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

			for i := 0; i < 3; i++ {
				if err := b.Results.Save(ctx, sampleRecord(10+i, base.Add(time.Duration(i)*time.Hour)), sc); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}
			other := model.SaveContext{CandidateID: "cand-2", CandidateName: "Bo", Department: "GENERAL"}
			if err := b.Results.Save(ctx, sampleRecord(1, base), other); err != nil {
				t.Fatal(err)
			}

			got, err := b.Results.ListByCandidate(ctx, "cand-1", 2)
			if err != nil {
				t.Fatalf("ListByCandidate: %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("len = %d", len(got))
			}
			if got[0].Score != 12 || got[1].Score != 11 {
				t.Fatalf("order = %d, %d", got[0].Score, got[1].Score)
			}
			r := got[0]
			if r.CandidateName != "Ada" || r.Department != "FIRE_FFS" {
				t.Fatalf("context not stamped: %+v", r)
			}
			if len(r.Entries) != 1 || r.Entries[0].ChosenOption != model.Unanswered {
				t.Fatalf("entries = %+v", r.Entries)
			}
		})
	}
}

func TestProfileStore(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, err := b.Profiles.Load(ctx, "nobody"); !errors.Is(err, ErrProfileNotFound) {
				t.Fatalf("Load missing = %v", err)
			}

			if err := b.Profiles.SaveName(ctx, "cand-1", "Ada"); err != nil {
				t.Fatal(err)
			}
			if err := b.Profiles.SaveName(ctx, "cand-1", "Ada L."); err != nil {
				t.Fatal(err)
			}
			at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
			for i := 0; i < 2; i++ {
				if err := b.Profiles.RecordExam(ctx, "cand-1", at); err != nil {
					t.Fatal(err)
				}
			}

			p, err := b.Profiles.Load(ctx, "cand-1")
			if err != nil {
				t.Fatal(err)
			}
			if p.Name != "Ada L." || p.ExamsTaken != 2 {
				t.Fatalf("profile = %+v", p)
			}
			if p.LastExamAt == nil || !p.LastExamAt.Equal(at) {
				t.Fatalf("last exam = %v", p.LastExamAt)
			}
		})
	}
}

func TestSQLiteDuplicateAttemptIgnored(t *testing.T) {
	b := backends(t)["sqlite"]
	ctx := context.Background()
	sc := model.SaveContext{CandidateID: "cand-1"}

	r := sampleRecord(5, time.Now())
	for i := 0; i < 2; i++ {
		if err := b.Results.Save(ctx, r, sc); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	got, err := b.Results.ListByCandidate(ctx, "cand-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("stored %d copies", len(got))
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), &config.Config{StoreDriver: "nope"}, zerolog.Nop())
	if err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func ExampleMemoryStore() {
	m := NewMemoryStore()
	ctx := context.Background()
	_ = m.Save(ctx, model.ResultRecord{Score: 40, TotalQuestions: 50}, model.SaveContext{CandidateID: "c"})
	got, _ := m.ListByCandidate(ctx, "c", 0)
	fmt.Println(got[0].Score, got[0].CandidateID)
	// Output: 40 c
}
