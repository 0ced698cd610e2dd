package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-code-reviewer/internal/domain"
	"github.com/fairyhunter13/ai-code-reviewer/internal/domain/mocks"
)

func newDLQService(t *testing.T) (DLQService, *mocks.DLQStore, *mocks.JobStore, *mocks.Queue) {
	t.Helper()
	dlq := mocks.NewDLQStore(t)
	jobs := mocks.NewJobStore(t)
	queue := mocks.NewQueue(t)
	return NewDLQService(dlq, jobs, queue), dlq, jobs, queue
}

func Test_DLQRetry_ResendsAndMovesJobBack(t *testing.T) {
	svc, dlq, jobs, queue := newDLQService(t)
	entry := domain.DLQEntry{
		ID:           "dlq-1",
		JobID:        "job-1",
		MessageID:    "msg-old",
		Body:         []byte(`{"job_id":"job-1"}`),
		ReceiveCount: 5,
	}

	dlq.On("Get", mock.Anything, "dlq-1").Return(entry, nil)
	queue.On("ResendToMain", mock.Anything, entry.Body).Return("msg-new", nil)
	dlq.On("IncrementRetry", mock.Anything, "dlq-1").Return(nil)
	jobs.On("ReopenFromDLQ", mock.Anything, "job-1").Return(nil)

	msgID, err := svc.Retry(context.Background(), "dlq-1")
	require.NoError(t, err)
	require.Equal(t, "msg-new", msgID)
	jobs.AssertCalled(t, "ReopenFromDLQ", mock.Anything, "job-1")
}

func Test_DLQRetry_ResolvedEntryConflicts(t *testing.T) {
	svc, dlq, _, _ := newDLQService(t)
	dlq.On("Get", mock.Anything, "dlq-2").Return(domain.DLQEntry{ID: "dlq-2", Resolved: true}, nil)

	_, err := svc.Retry(context.Background(), "dlq-2")
	require.ErrorIs(t, err, domain.ErrConflict)
}

func Test_DLQRetry_ResendFailureLeavesEntryUntouched(t *testing.T) {
	svc, dlq, _, queue := newDLQService(t)
	dlq.On("Get", mock.Anything, "dlq-3").Return(domain.DLQEntry{ID: "dlq-3", JobID: "job-3"}, nil)
	queue.On("ResendToMain", mock.Anything, mock.Anything).Return("", errors.New("redis down"))

	_, err := svc.Retry(context.Background(), "dlq-3")
	require.Error(t, err)
}

func Test_DLQResolve_RequiresReason(t *testing.T) {
	svc, _, _, _ := newDLQService(t)

	err := svc.Resolve(context.Background(), "dlq-1", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	err = svc.Resolve(context.Background(), "", "fixed upstream")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func Test_DLQList_ClampsPagination(t *testing.T) {
	svc, dlq, _, _ := newDLQService(t)

	dlq.On("List", mock.Anything, (*bool)(nil), maxDLQLimit, 0).Return([]domain.DLQEntry{}, nil).Once()
	_, err := svc.List(context.Background(), nil, 1000, -5)
	require.NoError(t, err)

	dlq.On("List", mock.Anything, (*bool)(nil), defaultDLQLimit, 10).Return([]domain.DLQEntry{}, nil).Once()
	_, err = svc.List(context.Background(), nil, 0, 10)
	require.NoError(t, err)
}

func Test_DLQGet_RequiresID(t *testing.T) {
	svc, _, _, _ := newDLQService(t)
	_, err := svc.Get(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
