package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"socmint/internal/components/telemetry"
)

const report_scheduler_run = "scheduler.run"

var ErrDuplicateTask = errors.New("duplicate task name")

// Task is one named lookup of a batch, names are the keys of the result map.
type Task struct {
	Name string
	Run  func(ctx context.Context) (any, error)
}

// Result is the outcome of a Task, it is absent when the task failed.
type Result struct {
	Value any
	Err   error
}

func (r Result) Absent() bool {
	return r.Err != nil
}

type Mode int

const (
	Concurrent Mode = iota
	Sequential
)

func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "concurrent"
}

type Scheduler struct {
	pool *Pool
	mode Mode
	tel  telemetry.API
}

// NewScheduler creates a scheduler, pool may be nil in Sequential mode.
func NewScheduler(pool *Pool, mode Mode, tel telemetry.API) Scheduler {
	if pool == nil && mode == Concurrent {
		panic("concurrent scheduler requires a worker pool")
	}
	return Scheduler{
		pool: pool,
		mode: mode,
		tel:  telemetry.NewScopedAPI("fanout", tel),
	}
}

func (s Scheduler) Mode() Mode {
	return s.mode
}

// Run executes every task and blocks until all of them finished. The result
// always holds exactly one entry per submitted name, with failed, panicking
// and unsubmittable tasks mapped to an absent Result.
func (s Scheduler) Run(ctx context.Context, tasks []Task) map[string]Result {
	results := make(map[string]Result, len(tasks))

	seen := make(map[string]struct{}, len(tasks))
	duplicate := false
	for _, t := range tasks {
		if _, ok := seen[t.Name]; ok {
			duplicate = true
		}
		seen[t.Name] = struct{}{}
	}
	if duplicate {
		s.tel.ReportBroken(report_scheduler_run, ErrDuplicateTask)
		for name := range seen {
			results[name] = Result{Err: ErrDuplicateTask}
		}
		return results
	}

	if s.mode == Sequential {
		for _, t := range tasks {
			results[t.Name] = s.execute(ctx, t)
		}
		return results
	}

	var mu sync.Mutex
	wg := sync.WaitGroup{}
	for _, t := range tasks {
		wg.Add(1)
		err := s.pool.Submit(ctx, func() {
			defer wg.Done()
			res := s.execute(ctx, t)
			mu.Lock()
			results[t.Name] = res
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			s.tel.ReportBroken(report_scheduler_run, err, t.Name)
			mu.Lock()
			results[t.Name] = Result{Err: err}
			mu.Unlock()
		}
	}
	wg.Wait()

	return results
}

func (s Scheduler) execute(ctx context.Context, t Task) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("task %s panicked: %v", t.Name, r)
			s.tel.ReportBroken(report_scheduler_run, err, t.Name)
			res = Result{Err: err}
		}
	}()

	value, err := t.Run(ctx)
	if err != nil {
		s.tel.ReportBroken(report_scheduler_run, err, t.Name)
		return Result{Err: err}
	}
	s.tel.ReportDebug("task done", t.Name)
	return Result{Value: value}
}
