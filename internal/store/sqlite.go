package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// SQLiteStore is the offline durable store. Times are stored as unix seconds.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Save(ctx context.Context, record model.ResultRecord, sc model.SaveContext) error {
	record = stamp(record, sc)
	qj, err := json.Marshal(record.Entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exam_results
		   (id, attempt_id, candidate_id, candidate_name, department, score, total_questions,
		    percentage, time_spent_seconds, is_timeout, questions_json, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (attempt_id) DO NOTHING`,
		record.ID.String(), record.AttemptID.String(), record.CandidateID, record.CandidateName,
		record.Department, record.Score, record.TotalQuestions, record.Percentage,
		record.TimeSpentSeconds, record.TimedOut, string(qj), record.SubmittedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListByCandidate(ctx context.Context, candidateID string, limit int) ([]model.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attempt_id, candidate_id, candidate_name, department, score, total_questions,
		        percentage, time_spent_seconds, is_timeout, questions_json, submitted_at
		 FROM exam_results
		 WHERE candidate_id = ?
		 ORDER BY submitted_at DESC
		 LIMIT ?`, candidateID, listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []model.ResultRecord
	for rows.Next() {
		var (
			r             model.ResultRecord
			id, attemptID string
			qjson         string
			submittedAt   int64
		)
		if err := rows.Scan(&id, &attemptID, &r.CandidateID, &r.CandidateName, &r.Department,
			&r.Score, &r.TotalQuestions, &r.Percentage, &r.TimeSpentSeconds, &r.TimedOut,
			&qjson, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse result id: %w", err)
		}
		if r.AttemptID, err = uuid.Parse(attemptID); err != nil {
			return nil, fmt.Errorf("parse attempt id: %w", err)
		}
		if err := json.Unmarshal([]byte(qjson), &r.Entries); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
		r.QuestionCount = len(r.Entries)
		r.SubmittedAt = time.Unix(submittedAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Load(ctx context.Context, candidateID string) (model.CandidateProfile, error) {
	var (
		p          model.CandidateProfile
		lastExamAt sql.NullInt64
		createdAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT candidate_id, name, exams_taken, last_exam_at, created_at
		 FROM candidate_profiles WHERE candidate_id = ?`, candidateID,
	).Scan(&p.CandidateID, &p.Name, &p.ExamsTaken, &lastExamAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.CandidateProfile{}, ErrProfileNotFound
		}
		return model.CandidateProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if lastExamAt.Valid {
		t := time.Unix(lastExamAt.Int64, 0).UTC()
		p.LastExamAt = &t
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func (s *SQLiteStore) SaveName(ctx context.Context, candidateID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_profiles (candidate_id, name, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (candidate_id) DO UPDATE SET name = excluded.name`,
		candidateID, name, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save profile name: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordExam(ctx context.Context, candidateID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_profiles (candidate_id, exams_taken, last_exam_at, created_at)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT (candidate_id) DO UPDATE
		 SET exams_taken = candidate_profiles.exams_taken + 1, last_exam_at = excluded.last_exam_at`,
		candidateID, at.Unix(), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record exam: %w", err)
	}
	return nil
}
