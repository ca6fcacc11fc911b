package sequencer

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"platter/internal/logging"
	"platter/internal/metrics"
)

// Priority orders queued requests. Lower values dispatch first; equal
// priorities dispatch in enqueue order.
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityNormal
	PriorityLow
)

// Call performs one attempt of the sequenced request. The supplied context
// carries the per-attempt timeout.
type Call func(ctx context.Context) error

// Result reports a successful request, including how many retries it took.
type Result struct {
	Retries int
}

// Config describes sequencer timing and retry behavior.
type Config struct {
	// MinInterval is the minimum spacing between dispatches.
	MinInterval time.Duration
	// RequestTimeout bounds each individual attempt.
	RequestTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BackoffBase scales the exponential retry backoff. Defaults to 1s,
	// giving the 1s, 2s, 4s... progression.
	BackoffBase time.Duration
}

// Sequencer is the single-lane rate-limited pipeline.
type Sequencer struct {
	cfg     Config
	logger  *slog.Logger
	sink    metrics.Sink
	limiter *rate.Limiter

	submitCh chan *request
	stopped  chan struct{}
	cancel   context.CancelFunc
	seq      atomic.Uint64
}

type request struct {
	name     string
	priority Priority
	seq      uint64
	call     Call
	ctx      context.Context
	done     chan outcome
}

type outcome struct {
	result Result
	err    error
}

// New starts a sequencer with the provided configuration.
func New(cfg Config, logger *slog.Logger, sink metrics.Sink) *Sequencer {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sequencer{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "sequencer"),
		sink:     sink,
		limiter:  rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		submitCh: make(chan *request, 64),
		stopped:  make(chan struct{}),
		cancel:   cancel,
	}
	go s.run(ctx)
	return s
}

// Close stops the scheduling loop. Queued requests fail with ErrClosed.
func (s *Sequencer) Close() {
	s.cancel()
	<-s.stopped
}

// Do enqueues a request and blocks until it completes, fails, or the caller's
// context ends while it is still queued.
func (s *Sequencer) Do(ctx context.Context, priority Priority, name string, call Call) (Result, error) {
	req := &request{
		name:     name,
		priority: priority,
		seq:      s.seq.Add(1),
		call:     call,
		ctx:      ctx,
		done:     make(chan outcome, 1),
	}

	select {
	case s.submitCh <- req:
	case <-s.stopped:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case out := <-req.done:
		return out.result, out.err
	case <-s.stopped:
		// The loop may have answered in the same instant it stopped.
		select {
		case out := <-req.done:
			return out.result, out.err
		default:
			return Result{}, ErrClosed
		}
	}
}

func (s *Sequencer) run(ctx context.Context) {
	defer close(s.stopped)

	pending := &requestHeap{}
	heap.Init(pending)

	for {
		if pending.Len() == 0 {
			select {
			case req := <-s.submitCh:
				heap.Push(pending, req)
			case <-ctx.Done():
				s.failPending(pending)
				return
			}
		}

		// Absorb everything already submitted so priority ordering holds
		// across requests queued while the lane was busy.
	drain:
		for {
			select {
			case req := <-s.submitCh:
				heap.Push(pending, req)
			default:
				break drain
			}
		}

		req := heap.Pop(pending).(*request)
		if err := req.ctx.Err(); err != nil {
			req.done <- outcome{err: err}
			continue
		}

		result, err := s.execute(ctx, req)
		req.done <- outcome{result: result, err: err}

		if ctx.Err() != nil {
			s.failPending(pending)
			return
		}
	}
}

func (s *Sequencer) failPending(pending *requestHeap) {
	for pending.Len() > 0 {
		req := heap.Pop(pending).(*request)
		req.done <- outcome{err: ErrClosed}
	}
	for {
		select {
		case req := <-s.submitCh:
			req.done <- outcome{err: ErrClosed}
		default:
			return
		}
	}
}

func (s *Sequencer) execute(ctx context.Context, req *request) (Result, error) {
	attempts := s.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := s.cfg.BackoffBase << uint(attempt-2)
			if err := s.sleep(ctx, req.ctx, backoff); err != nil {
				return Result{}, &RequestError{Retries: attempt - 1, Err: err}
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return Result{}, &RequestError{Retries: attempt - 1, Err: ErrClosed}
		}

		attemptCtx, cancel := context.WithTimeout(req.ctx, s.cfg.RequestTimeout)
		start := time.Now()
		err := req.call(attemptCtx)
		duration := time.Since(start)
		cancel()

		metrics.Observe(s.sink, metrics.Call{
			Provider:   req.name,
			Operation:  "request",
			StatusCode: statusCode(err),
			Duration:   duration,
			Attempt:    attempt,
			Outcome:    attemptOutcome(err),
		})

		if err == nil {
			return Result{Retries: attempt - 1}, nil
		}
		lastErr = err

		if req.ctx.Err() != nil {
			return Result{}, &RequestError{Retries: attempt - 1, Err: err}
		}
		if !Retryable(err) {
			return Result{}, &RequestError{Retries: attempt - 1, Err: err}
		}
		if attempt < attempts {
			s.logger.Warn("retrying request",
				logging.String("request", req.name),
				logging.Int("attempt", attempt),
				logging.Error(err))
		}
	}

	return Result{}, &RequestError{Retries: s.cfg.MaxRetries, Err: lastErr}
}

func (s *Sequencer) sleep(ctx, reqCtx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ErrClosed
	case <-reqCtx.Done():
		return reqCtx.Err()
	}
}

func statusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}

func attemptOutcome(err error) metrics.Outcome {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}

// requestHeap orders requests by priority, then enqueue order.
type requestHeap []*request

func (h requestHeap) Len() int { return len(h) }

func (h requestHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h requestHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *requestHeap) Push(x any) { *h = append(*h, x.(*request)) }

func (h *requestHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
