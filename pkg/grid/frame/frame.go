// Package frame serializes engine work onto one logical thread.
//
// The tiling engine never mutates its state from more than one goroutine.
// Work reaches it through a [Scheduler]: [Scheduler.Post] queues a task to
// run as soon as the owner drains the queue (fetch completions, viewport
// crossings), and [Scheduler.Frame] defers a task to the next rendering tick
// so that bursts of layout writes (resize, option changes) apply in one pass.
//
// [Queue] is the standard implementation. Hosts with their own event loop
// call [Queue.Wait] and [Queue.RunTasks] / [Queue.Tick] from it; standalone
// programs call [Queue.Run]; tests call [Queue.Flush].
package frame

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the rendering tick used by [Queue.Run] when no
// interval is given.
const DefaultInterval = 16 * time.Millisecond

// Scheduler accepts work for the owning thread.
type Scheduler interface {
	// Post queues task to run on the owning thread.
	Post(task func())

	// Frame queues task to run in the next rendering tick.
	Frame(task func())
}

// Queue is a [Scheduler] whose tasks run when the owner drains it.
// Post and Frame are safe to call from any goroutine; the draining methods
// must only be called from the owning goroutine.
type Queue struct {
	mu    sync.Mutex
	tasks []func()
	frame []func()
	wake  chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Post implements [Scheduler].
func (q *Queue) Post(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()
	q.signal()
}

// Frame implements [Scheduler].
func (q *Queue) Frame(task func()) {
	q.mu.Lock()
	q.frame = append(q.frame, task)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks and frame tasks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) + len(q.frame)
}

// RunTasks runs posted tasks until none remain, including tasks posted by
// the tasks it runs. Frame tasks are left for [Queue.Tick].
func (q *Queue) RunTasks() int {
	var n int
	for {
		q.mu.Lock()
		batch := q.tasks
		q.tasks = nil
		q.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, task := range batch {
			task()
		}
		n += len(batch)
	}
}

// Tick runs the frame tasks queued before the call. Frame tasks queued while
// ticking run in the next tick.
func (q *Queue) Tick() int {
	q.mu.Lock()
	batch := q.frame
	q.frame = nil
	q.mu.Unlock()
	for _, task := range batch {
		task()
	}
	return len(batch)
}

// Flush alternates RunTasks and Tick until the queue is empty and returns
// the number of tasks run.
func (q *Queue) Flush() int {
	var total int
	for {
		n := q.RunTasks() + q.Tick()
		if n == 0 {
			return total
		}
		total += n
	}
}

// Wait blocks until work may be pending or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	if q.Pending() > 0 {
		return nil
	}
	select {
	case <-q.wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue on the calling goroutine until ctx is done. Posted
// tasks run as they arrive; frame tasks run once per interval.
func (q *Queue) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
			q.RunTasks()
		case <-ticker.C:
			q.RunTasks()
			q.Tick()
		}
	}
}
