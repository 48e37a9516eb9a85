// Package settle provides a fan-out combinator that runs tasks concurrently
// and collects every outcome instead of failing fast. The aggregator uses it
// to tolerate individual catalog failures; the OpenLibrary adapter uses it
// for per-author lookups.
package settle

import (
	"context"
	"sync"
)

// Task produces a value or an error.
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the result of a single task, in submission order.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Results holds the outcomes of an All call.
type Results[T any] struct {
	Outcomes []Outcome[T]
}

// Successes returns the values of tasks that completed without error,
// preserving submission order.
func (r Results[T]) Successes() []T {
	values := make([]T, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Err == nil {
			values = append(values, o.Value)
		}
	}
	return values
}

// Failures returns the errors of tasks that failed, preserving submission order.
func (r Results[T]) Failures() []error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// AllFailed reports whether every task failed. Vacuously false for no tasks.
func (r Results[T]) AllFailed() bool {
	return len(r.Outcomes) > 0 && len(r.Failures()) == len(r.Outcomes)
}

// All runs every task concurrently and waits for all of them to settle.
// A failed task never cancels its siblings.
func All[T any](ctx context.Context, tasks ...Task[T]) Results[T] {
	outcomes := make([]Outcome[T], len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task[T]) {
			defer wg.Done()
			value, err := task(ctx)
			outcomes[i] = Outcome[T]{Value: value, Err: err}
		}(i, task)
	}
	wg.Wait()

	return Results[T]{Outcomes: outcomes}
}
