package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/deckforge/internal/queue"
	"github.com/phrazzld/deckforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestQueue(t *testing.T) (*JobQueue, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	q := NewJobQueue(db, time.Minute, testLogger())
	q.now = func() time.Time { return fixedNow }
	return q, mock
}

func TestJobQueue_Enqueue(t *testing.T) {
	t.Parallel()
	q, mock := newTestQueue(t)
	id := uuid.NewString()

	mock.ExpectExec(regexp.QuoteMeta(enqueueJobQuery)).
		WithArgs(sqlmock.AnyArg(), "generate_presentation_task", id, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job, err := q.Enqueue(context.Background(), "generate_presentation_task", id)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, id, job.Payload)
	assert.Zero(t, job.Attempts)
}

func TestJobQueue_Dequeue(t *testing.T) {
	t.Parallel()
	q, mock := newTestQueue(t)
	jobID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(claimJobQuery)).
		WithArgs(fixedNow.Add(time.Minute), fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "payload", "attempts", "enqueued_at"}).
			AddRow(jobID.String(), "generate_presentation_task", "payload", 2, fixedNow.Add(-time.Hour)))

	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jobID, job.ID)
	assert.Equal(t, 2, job.Attempts)
	assert.True(t, job.Redelivered())
}

func TestJobQueue_DequeueEmpty(t *testing.T) {
	t.Parallel()
	q, mock := newTestQueue(t)

	mock.ExpectQuery(regexp.QuoteMeta(claimJobQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "payload", "attempts", "enqueued_at"}))

	_, err := q.Dequeue(context.Background())
	assert.ErrorIs(t, err, queue.ErrNoJob)
}

func TestJobQueue_Complete(t *testing.T) {
	t.Parallel()

	for _, affected := range []int64{1, 0} {
		q, mock := newTestQueue(t)
		job := &queue.Job{ID: uuid.New(), Attempts: 3}

		mock.ExpectExec(regexp.QuoteMeta(completeJobQuery)).
			WithArgs(job.ID.String(), 3).
			WillReturnResult(sqlmock.NewResult(0, affected))

		assert.NoError(t, q.Complete(context.Background(), job), "affected=%d", affected)
	}
}

func TestJobQueue_ExtendLease(t *testing.T) {
	t.Parallel()
	q, mock := newTestQueue(t)
	job := &queue.Job{ID: uuid.New(), Attempts: 1}

	mock.ExpectExec(regexp.QuoteMeta(extendLeaseQuery)).
		WithArgs(fixedNow.Add(time.Minute), job.ID.String(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(extendLeaseQuery)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, q.ExtendLease(context.Background(), job))
	assert.ErrorIs(t, q.ExtendLease(context.Background(), job), store.ErrNotFound, "lost claim")
}

func TestJobQueue_Closed(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(t)
	q.Close()
	q.Close()

	_, err := q.Enqueue(context.Background(), "x", "y")
	assert.ErrorIs(t, err, queue.ErrQueueClosed)
	_, err = q.Dequeue(context.Background())
	assert.ErrorIs(t, err, queue.ErrQueueClosed)
}

func TestNewJobQueue_DefaultLease(t *testing.T) {
	t.Parallel()
	db, _ := newMockDB(t)
	assert.Equal(t, DefaultLease, NewJobQueue(db, 0, testLogger()).lease)
}
