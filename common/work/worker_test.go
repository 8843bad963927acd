package work

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name            string
		numWorkers      int
		taskChannelSize int
		expectError     bool
	}{
		{"valid pool", 5, 10, false},
		{"zero workers", 0, 10, true},
		{"negative workers", -1, 10, true},
		{"negative channel size", 5, -1, true},
		{"zero channel size", 5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewWorkerPool[string](tt.numWorkers, tt.taskChannelSize)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if pool == nil {
				t.Error("Expected pool but got nil")
			}
		})
	}
}

func TestWorkerPoolBasicOperation(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](2, 5)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "test-pool")
	defer pool.Stop()

	var executedCount int64
	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			atomic.AddInt64(&executedCount, 1)
			return "mined", nil
		},
		WithID[string]("job-1"),
		WithErrorHandler[string](func(err error) {
			t.Errorf("Unexpected error: %v", err)
		}),
		WithTimeout[string](5*time.Second),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if !result.IsSuccess() {
			t.Errorf("Task failed: %v", result.Error)
		}
		if result.Result != "mined" {
			t.Errorf("Expected 'mined', got '%s'", result.Result)
		}
		if result.TaskID != "job-1" {
			t.Errorf("Expected task id 'job-1', got '%s'", result.TaskID)
		}
		if atomic.LoadInt64(&executedCount) != 1 {
			t.Errorf("Expected 1 execution, got %d", executedCount)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestWorkerPoolConcurrency(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[int](3, 10)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "concurrency-test-pool")
	defer pool.Stop()

	const numTasks = 10
	var completedTasks int64

	for i := 0; i < numTasks; i++ {
		taskNum := i
		task, err := NewTask[int](
			func(ctx context.Context) (int, error) {
				time.Sleep(50 * time.Millisecond)
				atomic.AddInt64(&completedTasks, 1)
				return taskNum * 2, nil
			},
			WithErrorHandler[int](func(err error) {
				t.Errorf("Task %d failed: %v", taskNum, err)
			}),
			WithTimeout[int](5*time.Second),
		)
		if err != nil {
			t.Fatal(err)
		}
		if err := pool.AddTask(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	received := 0
	timeout := time.After(5 * time.Second)
	for received < numTasks {
		select {
		case result := <-pool.Results():
			if !result.IsSuccess() {
				t.Errorf("Task failed: %v", result.Error)
			}
			received++
		case <-timeout:
			t.Fatalf("Timeout: received %d of %d results", received, numTasks)
		}
	}

	if atomic.LoadInt64(&completedTasks) != numTasks {
		t.Errorf("Expected %d completed tasks, got %d", numTasks, completedTasks)
	}
}

func TestWorkerPoolTaskError(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](1, 2)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "error-test-pool")
	defer pool.Stop()

	taskErr := errors.New("mining failed")
	var handlerCalled int64
	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			return "", taskErr
		},
		WithErrorHandler[string](func(err error) {
			atomic.AddInt64(&handlerCalled, 1)
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if result.IsSuccess() {
			t.Error("Expected failure result")
		}
		if !errors.Is(result.Error, taskErr) {
			t.Errorf("Expected %v, got %v", taskErr, result.Error)
		}
		if atomic.LoadInt64(&handlerCalled) != 1 {
			t.Errorf("Error handler called %d times, want 1", handlerCalled)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestWorkerPoolTaskTimeout(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](1, 2)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "timeout-test-pool")
	defer pool.Stop()

	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(10 * time.Second):
				return "too late", nil
			}
		},
		WithErrorHandler[string](func(err error) {}),
		WithTimeout[string](100*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if result.IsSuccess() {
			t.Error("Expected timeout failure")
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestWorkerPoolAddTaskNonBlocking(t *testing.T) {
	pool, err := NewWorkerPool[string](1, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Pool deliberately not started; a zero-size queue with no workers is
	// always full.
	task := MustNewTask[string](func(ctx context.Context) (string, error) {
		return "", nil
	})
	if err := pool.AddTaskNonBlocking(task); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}
}

func TestWorkerPoolStop(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](2, 5)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "stop-test-pool")
	pool.Stop()

	task := MustNewTask[string](func(ctx context.Context) (string, error) {
		return "", nil
	})
	if err := pool.AddTask(ctx, task); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped, got %v", err)
	}

	// Stop twice must be safe.
	pool.Stop()
}

func TestWorkerPoolStats(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](2, 5)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "stats-test-pool")
	defer pool.Stop()

	task := MustNewTask[string](func(ctx context.Context) (string, error) {
		return "done", nil
	})
	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case <-pool.Results():
	case <-time.After(3 * time.Second):
		t.Fatal("Timeout waiting for result")
	}

	stats := pool.Stats()
	if stats.TasksQueued != 1 {
		t.Errorf("TasksQueued = %d, want 1", stats.TasksQueued)
	}
	if stats.TasksCompleted != 1 {
		t.Errorf("TasksCompleted = %d, want 1", stats.TasksCompleted)
	}
}
