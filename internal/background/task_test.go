package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betterresume/internal/config"
)

func taskResult(processID string, status TaskStatus, createdAt time.Time) *TaskResult {
	return &TaskResult{
		ProcessID: processID,
		Type:      TaskTypeIngest,
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestInMemoryTaskStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryTaskStore()

	result := taskResult("proc-1", TaskStatusAccepted, time.Now())
	require.NoError(t, store.Store(ctx, result))

	got, err := store.Get(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusAccepted, got.Status)

	result.Status = TaskStatusSuccess
	require.NoError(t, store.Update(ctx, result))

	got, err = store.Get(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, TaskStatusSuccess, got.Status)

	require.NoError(t, store.Delete(ctx, "proc-1"))
	_, err = store.Get(ctx, "proc-1")
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestInMemoryTaskStoreMissingTask(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryTaskStore()

	_, err := store.Get(ctx, "nope")
	assert.True(t, errors.Is(err, ErrTaskNotFound))

	err = store.Update(ctx, taskResult("nope", TaskStatusSuccess, time.Now()))
	assert.True(t, errors.Is(err, ErrTaskNotFound))

	err = store.Delete(ctx, "nope")
	assert.True(t, errors.Is(err, ErrTaskNotFound))
}

func TestInMemoryTaskStoreCleanup(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryTaskStore()

	require.NoError(t, store.Store(ctx, taskResult("old", TaskStatusSuccess, time.Now().Add(-48*time.Hour))))
	require.NoError(t, store.Store(ctx, taskResult("fresh", TaskStatusSuccess, time.Now())))

	require.NoError(t, store.Cleanup(ctx, 24*time.Hour))

	_, err := store.Get(ctx, "old")
	assert.True(t, errors.Is(err, ErrTaskNotFound))

	_, err = store.Get(ctx, "fresh")
	assert.NoError(t, err)

	results, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestValidateTaskManagerConfig(t *testing.T) {
	tests := []struct {
		name        string
		workers     int
		queueSize   int
		wantWorkers int
		wantQueue   int
		wantErr     bool
	}{
		{name: "defaults", workers: 0, queueSize: 0, wantWorkers: DefaultMaxWorkers, wantQueue: DefaultMaxQueueSize},
		{name: "explicit values", workers: 4, queueSize: 50, wantWorkers: 4, wantQueue: 50},
		{name: "workers above maximum", workers: MaxWorkers + 1, queueSize: 50, wantErr: true},
		{name: "queue above maximum", workers: 4, queueSize: MaxQueueSize + 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.BackgroundTasks.MaxConcurrentTasks = tt.workers
			cfg.BackgroundTasks.QueueSize = tt.queueSize

			workers, queue, err := validateTaskManagerConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWorkers, workers)
			assert.Equal(t, tt.wantQueue, queue)
		})
	}
}

func TestWaitForUserNoInflight(t *testing.T) {
	tm := NewTaskManager(&config.Config{})
	assert.NoError(t, tm.WaitForUser(context.Background(), "user1"))
}

func TestWaitForUserBlocksUntilDone(t *testing.T) {
	tm := NewTaskManager(&config.Config{})
	tm.beginUser("user1")

	done := make(chan error, 1)
	go func() {
		done <- tm.WaitForUser(context.Background(), "user1")
	}()

	select {
	case <-done:
		t.Fatal("WaitForUser returned while ingestion was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	tm.endUser("user1")

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForUser did not return after ingestion finished")
	}
}

func TestWaitForUserHonorsContext(t *testing.T) {
	tm := NewTaskManager(&config.Config{})
	tm.beginUser("user1")
	defer tm.endUser("user1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tm.WaitForUser(ctx, "user1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
