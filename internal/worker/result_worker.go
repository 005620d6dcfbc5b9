package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultSink is where drained results end up.
type ResultSink interface {
	InsertBatch(ctx context.Context, records []model.ResultRecord) error
	Save(ctx context.Context, record model.ResultRecord, sc model.SaveContext) error
}

// Queue is the subset of the Redis client the worker needs.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// ResultWorker drains the Redis result queue into the durable store in batches.
type ResultWorker struct {
	sink ResultSink
	rdb  Queue
	log  zerolog.Logger
}

func NewResultWorker(sink ResultSink, rdb Queue, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		sink: sink,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]model.ResultRecord, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var r model.ResultRecord
			if err := json.Unmarshal([]byte(item[1]), &r); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, r)
		}
	}
}

// flushSafe writes a batch, falling back to one insert per record and
// requeueing the ones that still fail.
func (w *ResultWorker) flushSafe(ctx context.Context, batch []model.ResultRecord) {
	if len(batch) == 0 {
		return
	}

	err := w.sink.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("result batch persisted")
		return
	}
	w.log.Warn().Err(err).Msg("bulk result insert failed, using fallback")

	for _, r := range batch {
		sc := model.SaveContext{
			CandidateID:   r.CandidateID,
			CandidateName: r.CandidateName,
			Department:    r.Department,
		}
		if err := w.sink.Save(ctx, r, sc); err != nil {
			w.log.Error().Err(err).Str("attempt_id", r.AttemptID.String()).Msg("single insert failed, requeueing")
			raw, _ := json.Marshal(r)
			w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
		}
	}
}
