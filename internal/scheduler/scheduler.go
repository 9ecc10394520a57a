// Package scheduler drives each flux controller's poll cycle on a fixed
// cadence, one independent recurring task per controller.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task one recurring invocation: a name for logs, a cadence, an initial delay
// and the function to run.
type Task struct {
	Name         string
	Interval     time.Duration
	InitialDelay time.Duration
	Run          func(ctx context.Context)
}

// Scheduler runs every added task on its own goroutine. Invocations of one
// task never overlap: the next tick of a task does not start while a previous
// invocation of the same task is still running. Invocations of different
// tasks run concurrently.
type Scheduler struct {
	tasks  []Task
	logger *zap.Logger
	wg     sync.WaitGroup
}

// New creates an empty scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Add registers a task. Must be called before Start.
func (s *Scheduler) Add(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start launches one goroutine per task and returns. Cancelling ctx stops
// scheduling further invocations; in-flight invocations complete.
func (s *Scheduler) Start(ctx context.Context) {
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}
}

// Wait blocks until every task loop has exited after ctx cancellation.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	if task.InitialDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(task.InitialDelay):
		}
	}

	s.logger.Info("task scheduled",
		zap.String("task", task.Name), zap.Duration("interval", task.Interval))

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("task stopped", zap.String("task", task.Name))
			return
		case <-ticker.C:
			// Run executes on this goroutine, so invocations of the same
			// task are serialized by construction.
			task.Run(ctx)
		}
	}
}
