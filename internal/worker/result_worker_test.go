package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/model"
)

type fakeSink struct {
	mu       sync.Mutex
	batchErr error
	failID   uuid.UUID
	batches  [][]model.ResultRecord
	singles  []model.ResultRecord
}

func (f *fakeSink) InsertBatch(_ context.Context, records []model.ResultRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batchErr != nil {
		return f.batchErr
	}
	f.batches = append(f.batches, append([]model.ResultRecord(nil), records...))
	return nil
}

func (f *fakeSink) Save(_ context.Context, r model.ResultRecord, sc model.SaveContext) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.AttemptID == f.failID {
		return errors.New("constraint violation")
	}
	r.CandidateID = sc.CandidateID
	f.singles = append(f.singles, r)
	return nil
}

type fakeQueue struct {
	mu     sync.Mutex
	pushed []string
}

func (q *fakeQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	select {
	case <-ctx.Done():
		cmd.SetErr(ctx.Err())
	case <-time.After(5 * time.Millisecond):
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (q *fakeQueue) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		q.pushed = append(q.pushed, string(v.([]byte)))
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(len(q.pushed)))
	return cmd
}

func records(n int) []model.ResultRecord {
	out := make([]model.ResultRecord, n)
	for i := range out {
		out[i] = model.ResultRecord{ID: uuid.New(), AttemptID: uuid.New(), CandidateID: "c", Score: i}
	}
	return out
}

func TestFlushSafe_Batch(t *testing.T) {
	sink := &fakeSink{}
	w := NewResultWorker(sink, &fakeQueue{}, zerolog.Nop())

	w.flushSafe(context.Background(), records(3))
	if len(sink.batches) != 1 || len(sink.batches[0]) != 3 || len(sink.singles) != 0 {
		t.Fatalf("batches=%d singles=%d", len(sink.batches), len(sink.singles))
	}
}

func TestFlushSafe_FallbackRequeuesFailures(t *testing.T) {
	batch := records(3)
	sink := &fakeSink{batchErr: errors.New("bulk failed"), failID: batch[1].AttemptID}
	q := &fakeQueue{}
	w := NewResultWorker(sink, q, zerolog.Nop())

	w.flushSafe(context.Background(), batch)

	if len(sink.singles) != 2 {
		t.Fatalf("singles = %d", len(sink.singles))
	}
	if sink.singles[0].CandidateID != "c" {
		t.Fatal("save context not carried through fallback")
	}
	if len(q.pushed) != 1 {
		t.Fatalf("requeued = %d", len(q.pushed))
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	w := NewResultWorker(&fakeSink{}, &fakeQueue{}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
