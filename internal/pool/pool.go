// Package pool runs submitted tasks with a fixed concurrency ceiling.
// Admission is first come first served: a single dispatch loop owns the
// queue and hands tasks to workers in submission order.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"platter/internal/logging"
)

// ErrClosed is returned for tasks submitted after Close.
var ErrClosed = errors.New("pool: closed")

// Task is a unit of work executed on a pool slot.
type Task func(ctx context.Context) error

// Pool bounds how many tasks run at once.
type Pool struct {
	logger *slog.Logger
	tasks  chan *job
	notify chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []*job
	closed bool

	pending    sync.WaitGroup
	dispatcher sync.WaitGroup
	workers    sync.WaitGroup
}

type job struct {
	ctx  context.Context
	task Task
	done chan error
}

// New starts a pool with the given number of worker slots. Sizes below one
// are treated as one.
func New(size int, logger *slog.Logger, name string) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		logger: logging.WithComponent(logger, name),
		tasks:  make(chan *job),
		notify: make(chan struct{}, 1),
		cancel: cancel,
	}
	p.workers.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(ctx)
	}
	p.dispatcher.Add(1)
	go p.dispatch(ctx)
	return p
}

// Submit queues a task and returns a channel that yields its result once.
// The returned channel is buffered so the result never blocks a worker.
// Submit itself never blocks on a full pool.
func (p *Pool) Submit(ctx context.Context, task Task) <-chan error {
	done := make(chan error, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		done <- ErrClosed
		return done
	}
	p.pending.Add(1)
	p.queue = append(p.queue, &job{ctx: ctx, task: task, done: done})
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return done
}

// Wait blocks until every task submitted so far has finished.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Close waits for in-flight tasks, then stops the workers. Tasks submitted
// afterwards fail with ErrClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.pending.Wait()
	p.cancel()
	p.dispatcher.Wait()
	p.workers.Wait()
}

func (p *Pool) dispatch(ctx context.Context) {
	defer p.dispatcher.Done()
	for {
		j := p.next()
		if j == nil {
			select {
			case <-p.notify:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case p.tasks <- j:
		case <-ctx.Done():
			j.done <- ErrClosed
			p.pending.Done()
			return
		}
	}
}

func (p *Pool) next() *job {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil
	}
	j := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return j
}

func (p *Pool) worker(ctx context.Context) {
	defer p.workers.Done()
	for {
		select {
		case j := <-p.tasks:
			p.runTask(j)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) runTask(j *job) {
	defer p.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", logging.Any("panic", r))
			j.done <- errors.New("pool: task panicked")
		}
	}()

	if err := j.ctx.Err(); err != nil {
		j.done <- err
		return
	}
	j.done <- j.task(j.ctx)
}
