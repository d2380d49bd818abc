package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"betterresume/internal/config"
	"betterresume/internal/ingest"
	"betterresume/internal/logging"
	"betterresume/internal/logging/types"
	"betterresume/pkg/models"
)

// Task manager configuration constants
const (
	// Default configuration values
	DefaultMaxWorkers   = 10
	DefaultMaxQueueSize = 100

	// Minimum configuration values to prevent misconfiguration
	MinWorkers   = 1
	MinQueueSize = 1

	// Maximum configuration values for safety
	MaxWorkers   = 1000
	MaxQueueSize = 10000
)

// TaskManager defines the interface for managing background tasks
type TaskManager interface {
	// Start starts the task manager
	Start(ctx context.Context) error

	// Stop stops the task manager gracefully
	Stop(ctx context.Context) error

	// SubmitIngestTask submits a records ingestion task for background processing
	SubmitIngestTask(ctx context.Context, processID string, userID string, records []models.RecordEntry, svc *ingest.Service) error

	// GetTaskResult retrieves the result of a task by process ID
	GetTaskResult(ctx context.Context, processID string) (*TaskResult, error)

	// GetTaskStatus retrieves the status of a task by process ID
	GetTaskStatus(ctx context.Context, processID string) (TaskStatus, error)

	// ListTasks lists all active tasks (for monitoring)
	ListTasks(ctx context.Context) ([]*TaskResult, error)

	// WaitForUser blocks until no ingestion is in flight for the given user
	WaitForUser(ctx context.Context, userID string) error

	// IsHealthy checks if the task manager is healthy
	IsHealthy() bool
}

// TaskManagerImpl implements the TaskManager interface
type TaskManagerImpl struct {
	config       *config.Config
	store        TaskStore
	logger       *TaskCompletionLogger
	appLogger    types.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	running      bool
	taskChan     chan *TaskExecution
	maxWorkers   int
	maxQueueSize int

	inflightMu sync.Mutex
	inflight   map[string]*userInflight
}

// userInflight tracks how many tasks are pending for a single user. The done
// channel is closed when the count drops to zero.
type userInflight struct {
	count int
	done  chan struct{}
}

// TaskExecution represents a task execution context
type TaskExecution struct {
	ProcessID     string
	Type          TaskType
	Context       context.Context
	Cancel        context.CancelFunc
	ExecuteFunc   func(context.Context) (*TaskResult, error)
	CompletedChan chan *TaskResult
}

// validateTaskManagerConfig validates and returns safe configuration values
func validateTaskManagerConfig(cfg *config.Config) (maxWorkers, maxQueueSize int, err error) {
	maxWorkers = cfg.BackgroundTasks.MaxConcurrentTasks
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers < MinWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) is below minimum (%d)", maxWorkers, MinWorkers)
	} else if maxWorkers > MaxWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) exceeds maximum (%d)", maxWorkers, MaxWorkers)
	}

	maxQueueSize = cfg.BackgroundTasks.QueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	} else if maxQueueSize < MinQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) is below minimum (%d)", maxQueueSize, MinQueueSize)
	} else if maxQueueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) exceeds maximum (%d)", maxQueueSize, MaxQueueSize)
	}

	return maxWorkers, maxQueueSize, nil
}

// NewTaskManager creates a new task manager backed by the in-memory store
func NewTaskManager(cfg *config.Config) *TaskManagerImpl {
	return NewTaskManagerWithStore(cfg, NewInMemoryTaskStore())
}

// NewTaskManagerWithStore creates a new task manager with a custom task store
func NewTaskManagerWithStore(cfg *config.Config, store TaskStore) *TaskManagerImpl {
	logger := logging.GetGlobalLogger()

	maxWorkers, maxQueueSize, err := validateTaskManagerConfig(cfg)
	if err != nil {
		logger.Warn("Task manager configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		maxWorkers = DefaultMaxWorkers
		maxQueueSize = DefaultMaxQueueSize
	}

	logger.Info("Task manager configuration initialized", map[string]interface{}{
		"max_workers":    maxWorkers,
		"max_queue_size": maxQueueSize,
		"using_defaults": err != nil,
	})

	return &TaskManagerImpl{
		config:       cfg,
		store:        store,
		logger:       NewTaskCompletionLogger(),
		appLogger:    logger,
		maxWorkers:   maxWorkers,
		maxQueueSize: maxQueueSize,
		taskChan:     make(chan *TaskExecution, maxQueueSize),
		inflight:     make(map[string]*userInflight),
	}
}

// Start starts the task manager
func (tm *TaskManagerImpl) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.running {
		return fmt.Errorf("task manager already running")
	}

	tm.ctx, tm.cancel = context.WithCancel(ctx)
	tm.running = true

	for i := 0; i < tm.maxWorkers; i++ {
		tm.wg.Add(1)
		go tm.worker(i)
	}

	tm.wg.Add(1)
	go tm.cleanupRoutine()

	tm.appLogger.Info("Task manager started", map[string]interface{}{
		"max_workers": tm.maxWorkers,
	})
	return nil
}

// Stop stops the task manager gracefully
func (tm *TaskManagerImpl) Stop(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if !tm.running {
		return nil
	}

	tm.appLogger.Info("Stopping task manager...", map[string]interface{}{})

	// Cancel context to signal workers to stop
	tm.cancel()

	// Close task channel
	close(tm.taskChan)

	// Wait for workers to finish with timeout
	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		tm.appLogger.Info("Task manager stopped gracefully", map[string]interface{}{})
	case <-ctx.Done():
		tm.appLogger.Warn("Task manager shutdown timed out", map[string]interface{}{})
	}

	tm.running = false
	return nil
}

// SubmitIngestTask submits a records ingestion task for background processing
func (tm *TaskManagerImpl) SubmitIngestTask(ctx context.Context, processID string, userID string, records []models.RecordEntry, svc *ingest.Service) error {
	if !tm.IsHealthy() {
		return fmt.Errorf("task manager is not healthy")
	}

	result := &TaskResult{
		ProcessID: processID,
		Type:      TaskTypeIngest,
		Status:    TaskStatusAccepted,
		CreatedAt: time.Now(),
		Metadata: map[string]interface{}{
			"user_id": userID,
			"rows":    len(records),
		},
	}

	if err := tm.store.Store(ctx, result); err != nil {
		return fmt.Errorf("failed to store task result: %w", err)
	}

	tm.logger.LogTaskAccepted(processID, TaskTypeIngest)
	tm.beginUser(userID)

	// Create task execution with derived context for better isolation
	taskCtx, cancelFunc := context.WithCancel(tm.ctx)
	execution := &TaskExecution{
		ProcessID: processID,
		Type:      TaskTypeIngest,
		Context:   taskCtx,
		Cancel:    cancelFunc,
		ExecuteFunc: func(execCtx context.Context) (*TaskResult, error) {
			defer tm.endUser(userID)
			return tm.executeIngestTask(execCtx, processID, userID, records, svc)
		},
		CompletedChan: make(chan *TaskResult, 1),
	}

	// Submit to worker pool
	select {
	case tm.taskChan <- execution:
		return nil
	case <-ctx.Done():
		tm.endUser(userID)
		cancelFunc()
		return ctx.Err()
	default:
		tm.endUser(userID)
		cancelFunc()
		return fmt.Errorf("task queue is full")
	}
}

// GetTaskResult retrieves the result of a task by process ID
func (tm *TaskManagerImpl) GetTaskResult(ctx context.Context, processID string) (*TaskResult, error) {
	return tm.store.Get(ctx, processID)
}

// GetTaskStatus retrieves the status of a task by process ID
func (tm *TaskManagerImpl) GetTaskStatus(ctx context.Context, processID string) (TaskStatus, error) {
	result, err := tm.store.Get(ctx, processID)
	if err != nil {
		return "", err
	}
	return result.Status, nil
}

// ListTasks lists all active tasks (for monitoring)
func (tm *TaskManagerImpl) ListTasks(ctx context.Context) ([]*TaskResult, error) {
	return tm.store.List(ctx)
}

// IsHealthy checks if the task manager is healthy
func (tm *TaskManagerImpl) IsHealthy() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.running && tm.ctx.Err() == nil
}

// WaitForUser blocks until every in-flight ingestion for the user has
// finished, so generation reads a settled record store and index.
func (tm *TaskManagerImpl) WaitForUser(ctx context.Context, userID string) error {
	for {
		tm.inflightMu.Lock()
		entry, ok := tm.inflight[userID]
		tm.inflightMu.Unlock()

		if !ok {
			return nil
		}

		select {
		case <-entry.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (tm *TaskManagerImpl) beginUser(userID string) {
	tm.inflightMu.Lock()
	defer tm.inflightMu.Unlock()

	entry, ok := tm.inflight[userID]
	if !ok {
		entry = &userInflight{done: make(chan struct{})}
		tm.inflight[userID] = entry
	}
	entry.count++
}

func (tm *TaskManagerImpl) endUser(userID string) {
	tm.inflightMu.Lock()
	defer tm.inflightMu.Unlock()

	entry, ok := tm.inflight[userID]
	if !ok {
		return
	}
	entry.count--
	if entry.count <= 0 {
		close(entry.done)
		delete(tm.inflight, userID)
	}
}

// worker processes tasks from the task channel
func (tm *TaskManagerImpl) worker(workerID int) {
	defer tm.wg.Done()

	tm.appLogger.Info("Task worker started", map[string]interface{}{
		"worker_id": workerID,
	})

	for {
		select {
		case <-tm.ctx.Done():
			tm.appLogger.Info("Task worker stopping", map[string]interface{}{
				"worker_id": workerID,
			})
			return
		case task, ok := <-tm.taskChan:
			if !ok {
				tm.appLogger.Info("Task channel closed, worker stopping", map[string]interface{}{
					"worker_id": workerID,
				})
				return
			}

			tm.processTask(workerID, task)
		}
	}
}

// processTask processes a single task
func (tm *TaskManagerImpl) processTask(workerID int, task *TaskExecution) {
	startTime := time.Now()

	tm.appLogger.Info("Processing task", map[string]interface{}{
		"worker_id":  workerID,
		"process_id": task.ProcessID,
		"task_type":  task.Type,
	})

	if err := tm.updateTaskStatus(task.ProcessID, TaskStatusProcessing); err != nil {
		tm.appLogger.Error("Failed to update task status to processing", map[string]interface{}{
			"error": err.Error(),
		})
	}

	tm.logger.LogTaskStart(task.ProcessID, task.Type)

	result, err := task.ExecuteFunc(task.Context)
	processingTime := time.Since(startTime)

	if err != nil {
		tm.appLogger.Error("Task execution failed", map[string]interface{}{
			"worker_id":       workerID,
			"process_id":      task.ProcessID,
			"task_type":       task.Type,
			"processing_time": processingTime,
			"error":           err.Error(),
		})

		// Retrieve existing task result to preserve original CreatedAt
		existingResult, getErr := tm.store.Get(task.Context, task.ProcessID)
		if getErr != nil {
			tm.appLogger.Error("Failed to retrieve existing task result for failure update", map[string]interface{}{
				"error": getErr.Error(),
			})
			result = &TaskResult{
				ProcessID:      task.ProcessID,
				Type:           task.Type,
				Status:         TaskStatusFailure,
				Error:          err.Error(),
				CreatedAt:      time.Now(),
				ProcessingTime: &processingTime,
			}
		} else {
			existingResult.Status = TaskStatusFailure
			existingResult.Error = err.Error()
			existingResult.ProcessingTime = &processingTime
			result = existingResult
		}

		tm.logger.LogTaskError(task.ProcessID, task.Type, err)
	} else {
		tm.appLogger.Info("Task execution completed successfully", map[string]interface{}{
			"worker_id":       workerID,
			"process_id":      task.ProcessID,
			"task_type":       task.Type,
			"processing_time": processingTime,
		})

		result.Status = TaskStatusSuccess
		result.ProcessingTime = &processingTime
		completedAt := time.Now()
		result.CompletedAt = &completedAt

		tm.logger.LogTaskSuccess(task.ProcessID, task.Type, processingTime)
	}

	if err := tm.store.Update(task.Context, result); err != nil {
		tm.appLogger.Error("Failed to store task result", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := tm.logger.LogTaskCompletion(result); err != nil {
		tm.appLogger.Error("Failed to log task completion", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cancel the task context to prevent context leaks
	if task.Cancel != nil {
		task.Cancel()
	}
}

// updateTaskStatus updates the status of a task
func (tm *TaskManagerImpl) updateTaskStatus(processID string, status TaskStatus) error {
	result, err := tm.store.Get(context.Background(), processID)
	if err != nil {
		return err
	}

	result.Status = status
	return tm.store.Update(context.Background(), result)
}

// cleanupRoutine periodically cleans up old task results
func (tm *TaskManagerImpl) cleanupRoutine() {
	defer tm.wg.Done()

	interval := tm.config.BackgroundTasks.CleanupInterval
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	maxAge := tm.config.BackgroundTasks.MaxTaskAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-tm.ctx.Done():
			return
		case <-ticker.C:
			if err := tm.store.Cleanup(context.Background(), maxAge); err != nil {
				tm.appLogger.Error("Failed to cleanup old task results", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}

// executeIngestTask executes a records ingestion task in the background
func (tm *TaskManagerImpl) executeIngestTask(ctx context.Context, processID string, userID string, records []models.RecordEntry, svc *ingest.Service) (*TaskResult, error) {
	// Retrieve the existing task result to preserve original CreatedAt
	existingResult, err := tm.store.Get(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve existing task result: %w", err)
	}

	timeout := tm.config.BackgroundTasks.TaskTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ingestResult, err := svc.IngestRecords(taskCtx, userID, records)
	if err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}

	existingResult.Data = &IngestTaskData{
		UserID: userID,
		Rows:   ingestResult.Rows,
		Hash:   ingestResult.Hash,
	}
	if existingResult.Metadata == nil {
		existingResult.Metadata = make(map[string]interface{})
	}
	existingResult.Metadata["hash"] = ingestResult.Hash

	return existingResult, nil
}
