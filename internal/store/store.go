// Package store persists scored results and candidate profiles.
//
// The exam core never depends on a store for correctness: a failed save is
// reported to the caller, and the in-memory result is still shown.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-cbt/internal/model"
)

var (
	ErrStoreUnavailable = errors.New("result store unavailable")
	ErrProfileNotFound  = errors.New("candidate profile not found")
)

// DefaultListLimit caps ListByCandidate when the caller passes zero.
const DefaultListLimit = 20

// ResultStore keeps completed exam results.
type ResultStore interface {
	Save(ctx context.Context, record model.ResultRecord, sc model.SaveContext) error
	ListByCandidate(ctx context.Context, candidateID string, limit int) ([]model.ResultRecord, error)
}

// ProfileStore keeps the candidate's name and exam counter.
type ProfileStore interface {
	Load(ctx context.Context, candidateID string) (model.CandidateProfile, error)
	SaveName(ctx context.Context, candidateID, name string) error
	RecordExam(ctx context.Context, candidateID string, at time.Time) error
}

// Backend bundles the stores selected for one process.
type Backend struct {
	Driver   string
	Results  ResultStore
	Profiles ProfileStore

	// Set only for the redis driver, whose queue is drained into Postgres.
	Postgres *PostgresStore
	Redis    *redis.Client
}

// stamp copies the save context onto the record so stored rows are self-describing.
func stamp(record model.ResultRecord, sc model.SaveContext) model.ResultRecord {
	record.CandidateID = sc.CandidateID
	record.CandidateName = sc.CandidateName
	record.Department = sc.Department
	return record
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
