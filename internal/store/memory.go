package store

import (
	"context"
	"sync"
	"time"

	"github.com/stemsi/exstem-cbt/internal/model"
)

// MemoryStore keeps results and profiles for the life of the process.
type MemoryStore struct {
	mu       sync.RWMutex
	results  map[string][]model.ResultRecord
	profiles map[string]model.CandidateProfile
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		results:  map[string][]model.ResultRecord{},
		profiles: map[string]model.CandidateProfile{},
		now:      time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, record model.ResultRecord, sc model.SaveContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record = stamp(record, sc)
	m.results[sc.CandidateID] = append(m.results[sc.CandidateID], record)
	return nil
}

// ListByCandidate returns the newest results first.
func (m *MemoryStore) ListByCandidate(_ context.Context, candidateID string, limit int) ([]model.ResultRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.results[candidateID]
	limit = listLimit(limit)
	out := make([]model.ResultRecord, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *MemoryStore) Load(_ context.Context, candidateID string) (model.CandidateProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[candidateID]
	if !ok {
		return model.CandidateProfile{}, ErrProfileNotFound
	}
	return p, nil
}

func (m *MemoryStore) SaveName(_ context.Context, candidateID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.profileLocked(candidateID)
	p.Name = name
	m.profiles[candidateID] = p
	return nil
}

func (m *MemoryStore) RecordExam(_ context.Context, candidateID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.profileLocked(candidateID)
	p.ExamsTaken++
	p.LastExamAt = &at
	m.profiles[candidateID] = p
	return nil
}

func (m *MemoryStore) profileLocked(candidateID string) model.CandidateProfile {
	p, ok := m.profiles[candidateID]
	if !ok {
		p = model.CandidateProfile{CandidateID: candidateID, CreatedAt: m.now()}
	}
	return p
}
