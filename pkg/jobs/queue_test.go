package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesByType(t *testing.T) {
	q := NewQueue("mail", QueueConfig{Workers: 2, RetryDelay: time.Millisecond})
	done := make(chan Job, 1)
	q.Register("verification_mail", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "verification_mail", Payload: "a@b.c"}))

	select {
	case job := <-done:
		assert.Equal(t, "a@b.c", job.Payload)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	q := NewQueue("mail", QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})
	var calls int32
	done := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("smtp unavailable")
		}
		close(done)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "flaky"}))

	select {
	case <-done:
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueueEnqueueRequiresStart(t *testing.T) {
	q := NewQueue("mail", QueueConfig{})
	err := q.Enqueue(Job{ID: "1", Type: "x"})
	assert.ErrorIs(t, err, ErrNotStarted)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{ID: "2", Type: "x"}), ErrNotStarted)
}

func TestQueueFull(t *testing.T) {
	q := NewQueue("mail", QueueConfig{Workers: 1, BufferSize: 1})
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	q.Register("slow", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-block
		return nil
	})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "slow"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "2", Type: "slow"}))
	assert.ErrorIs(t, q.Enqueue(Job{ID: "3", Type: "slow"}), ErrQueueFull)
	assert.Equal(t, 1, q.Pending())
}
