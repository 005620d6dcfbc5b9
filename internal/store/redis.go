package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/model"
)

// recentResultsCap bounds the per-candidate result list kept in Redis.
const recentResultsCap = 50

// RedisQueueStore acknowledges a save once the result is queued in Redis.
// worker.ResultWorker drains the queue into PostgreSQL.
type RedisQueueStore struct {
	rdb *redis.Client
}

func NewRedisQueueStore(rdb *redis.Client) *RedisQueueStore {
	return &RedisQueueStore{rdb: rdb}
}

func (s *RedisQueueStore) Save(ctx context.Context, record model.ResultRecord, sc model.SaveContext) error {
	raw, err := json.Marshal(stamp(record, sc))
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	listKey := config.CacheKey.CandidateResultsKey(sc.CandidateID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
	pipe.LPush(ctx, listKey, raw)
	pipe.LTrim(ctx, listKey, 0, recentResultsCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue result: %w", err)
	}
	return nil
}

// ListByCandidate reads the capped recent-results list, newest first.
func (s *RedisQueueStore) ListByCandidate(ctx context.Context, candidateID string, limit int) ([]model.ResultRecord, error) {
	items, err := s.rdb.LRange(ctx, config.CacheKey.CandidateResultsKey(candidateID), 0, int64(listLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	out := make([]model.ResultRecord, 0, len(items))
	for _, item := range items {
		var r model.ResultRecord
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisQueueStore) Load(ctx context.Context, candidateID string) (model.CandidateProfile, error) {
	fields, err := s.rdb.HGetAll(ctx, config.CacheKey.CandidateProfileKey(candidateID)).Result()
	if err != nil {
		return model.CandidateProfile{}, fmt.Errorf("load profile: %w", err)
	}
	if len(fields) == 0 {
		return model.CandidateProfile{}, ErrProfileNotFound
	}

	p := model.CandidateProfile{CandidateID: candidateID, Name: fields["name"]}
	if v, ok := fields["exams_taken"]; ok {
		p.ExamsTaken, _ = strconv.Atoi(v)
	}
	if v, ok := fields["last_exam_at"]; ok {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			t := time.Unix(sec, 0).UTC()
			p.LastExamAt = &t
		}
	}
	if v, ok := fields["created_at"]; ok {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.CreatedAt = time.Unix(sec, 0).UTC()
		}
	}
	return p, nil
}

func (s *RedisQueueStore) SaveName(ctx context.Context, candidateID, name string) error {
	key := config.CacheKey.CandidateProfileKey(candidateID)
	pipe := s.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, "created_at", time.Now().Unix())
	pipe.HSet(ctx, key, "name", name)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save profile name: %w", err)
	}
	return nil
}

func (s *RedisQueueStore) RecordExam(ctx context.Context, candidateID string, at time.Time) error {
	key := config.CacheKey.CandidateProfileKey(candidateID)
	pipe := s.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, "created_at", time.Now().Unix())
	pipe.HIncrBy(ctx, key, "exams_taken", 1)
	pipe.HSet(ctx, key, "last_exam_at", at.Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record exam: %w", err)
	}
	return nil
}
