package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// PostgresStore is the durable online store. Its schema lives in migrations/.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Save(ctx context.Context, record model.ResultRecord, sc model.SaveContext) error {
	record = stamp(record, sc)
	qj, err := json.Marshal(record.Entries)
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO exam_results
		   (id, attempt_id, candidate_id, candidate_name, department, score, total_questions,
		    percentage, time_spent_seconds, is_timeout, questions, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (attempt_id) DO NOTHING`,
		record.ID, record.AttemptID, record.CandidateID, record.CandidateName, record.Department,
		record.Score, record.TotalQuestions, record.Percentage, record.TimeSpentSeconds,
		record.TimedOut, qj, record.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// InsertBatch writes many stamped records in one statement. Rows whose
// attempt already has a result are skipped.
func (s *PostgresStore) InsertBatch(ctx context.Context, records []model.ResultRecord) error {
	n := len(records)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, n)
	attemptIDs := make([]uuid.UUID, n)
	candidateIDs := make([]string, n)
	names := make([]string, n)
	departments := make([]string, n)
	scores := make([]int32, n)
	totals := make([]int32, n)
	percentages := make([]float64, n)
	spent := make([]int32, n)
	timeouts := make([]bool, n)
	questions := make([]string, n)
	submittedAts := make([]time.Time, n)

	for i, r := range records {
		qj, err := json.Marshal(r.Entries)
		if err != nil {
			return fmt.Errorf("encode entries for %s: %w", r.AttemptID, err)
		}
		ids[i] = r.ID
		attemptIDs[i] = r.AttemptID
		candidateIDs[i] = r.CandidateID
		names[i] = r.CandidateName
		departments[i] = r.Department
		scores[i] = int32(r.Score)
		totals[i] = int32(r.TotalQuestions)
		percentages[i] = r.Percentage
		spent[i] = int32(r.TimeSpentSeconds)
		timeouts[i] = r.TimedOut
		questions[i] = string(qj)
		submittedAts[i] = r.SubmittedAt
	}

	query := `
		INSERT INTO exam_results
			(id, attempt_id, candidate_id, candidate_name, department, score, total_questions,
			 percentage, time_spent_seconds, is_timeout, questions, submitted_at)
		SELECT u.id, u.attempt_id, u.candidate_id, u.candidate_name, u.department, u.score,
		       u.total_questions, u.percentage, u.time_spent_seconds, u.is_timeout,
		       u.questions::jsonb, u.submitted_at
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::int[],
			$7::int[],
			$8::float8[],
			$9::int[],
			$10::bool[],
			$11::text[],
			$12::timestamptz[]
		) AS u (id, attempt_id, candidate_id, candidate_name, department, score, total_questions,
		        percentage, time_spent_seconds, is_timeout, questions, submitted_at)
		ON CONFLICT (attempt_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query, ids, attemptIDs, candidateIDs, names, departments,
		scores, totals, percentages, spent, timeouts, questions, submittedAts)
	return err
}

func (s *PostgresStore) ListByCandidate(ctx context.Context, candidateID string, limit int) ([]model.ResultRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, attempt_id, candidate_id, candidate_name, department, score, total_questions,
		        percentage, time_spent_seconds, is_timeout, questions, submitted_at
		 FROM exam_results
		 WHERE candidate_id = $1
		 ORDER BY submitted_at DESC
		 LIMIT $2`, candidateID, listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []model.ResultRecord
	for rows.Next() {
		var (
			r  model.ResultRecord
			qj []byte
		)
		if err := rows.Scan(&r.ID, &r.AttemptID, &r.CandidateID, &r.CandidateName, &r.Department,
			&r.Score, &r.TotalQuestions, &r.Percentage, &r.TimeSpentSeconds, &r.TimedOut,
			&qj, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if err := json.Unmarshal(qj, &r.Entries); err != nil {
			return nil, fmt.Errorf("decode entries: %w", err)
		}
		r.QuestionCount = len(r.Entries)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Load(ctx context.Context, candidateID string) (model.CandidateProfile, error) {
	p := model.CandidateProfile{}
	err := s.pool.QueryRow(ctx,
		`SELECT candidate_id, name, exams_taken, last_exam_at, created_at
		 FROM candidate_profiles WHERE candidate_id = $1`, candidateID,
	).Scan(&p.CandidateID, &p.Name, &p.ExamsTaken, &p.LastExamAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.CandidateProfile{}, ErrProfileNotFound
		}
		return model.CandidateProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) SaveName(ctx context.Context, candidateID, name string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO candidate_profiles (candidate_id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (candidate_id) DO UPDATE SET name = EXCLUDED.name`,
		candidateID, name,
	)
	if err != nil {
		return fmt.Errorf("save profile name: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordExam(ctx context.Context, candidateID string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO candidate_profiles (candidate_id, exams_taken, last_exam_at)
		 VALUES ($1, 1, $2)
		 ON CONFLICT (candidate_id) DO UPDATE
		 SET exams_taken = candidate_profiles.exams_taken + 1, last_exam_at = EXCLUDED.last_exam_at`,
		candidateID, at,
	)
	if err != nil {
		return fmt.Errorf("record exam: %w", err)
	}
	return nil
}
