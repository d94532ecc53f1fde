// Package outbox provides an in-process asynchronous task dispatcher for
// best-effort integration calls. Tasks are enqueued after the database work
// commits and retried with backoff; failures are logged and never reach the
// request that produced them.
package outbox

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type task struct {
	id   string
	name string
	run  func(ctx context.Context) error
}

// Dispatcher owns a bounded queue and a set of workers that execute tasks
// with retry. It must be Started before use and Closed on shutdown, which
// drains the queue.
type Dispatcher struct {
	logger         zerolog.Logger
	queue          chan task
	workers        int
	maxRetries     int
	retryDelays    []time.Duration
	attemptTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) { d.workers = n }
}

// WithMaxRetries sets how many times a failing task is retried after its
// first attempt.
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) { d.maxRetries = n }
}

// WithRetryDelays sets the backoff delays between attempts. The last delay
// repeats when there are more retries than delays.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(d *Dispatcher) { d.retryDelays = delays }
}

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(d *Dispatcher) { d.queue = make(chan task, n) }
}

// WithAttemptTimeout bounds the duration of a single task attempt.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.attemptTimeout = timeout }
}

// New builds a Dispatcher with sensible defaults.
func New(logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:         logger,
		queue:          make(chan task, 256),
		workers:        1,
		maxRetries:     3,
		retryDelays:    []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		attemptTimeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for t := range d.queue {
				d.process(t)
			}
		}()
	}
}

// Enqueue schedules a task. It never blocks: when the queue is full the task
// is dropped and logged, honoring the best-effort contract.
func (d *Dispatcher) Enqueue(name string, run func(ctx context.Context) error) bool {
	t := task{id: uuid.New().String(), name: name, run: run}
	select {
	case d.queue <- t:
		return true
	default:
		d.logger.Warn().Str("task", name).Str("task_id", t.id).Msg("outbox queue full, task dropped")
		return false
	}
}

// Close stops accepting tasks and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *Dispatcher) process(t task) {
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.attemptTimeout)
		err := t.run(ctx)
		cancel()

		if err == nil {
			if attempt > 0 {
				d.logger.Info().Str("task", t.name).Str("task_id", t.id).Int("attempt", attempt+1).Msg("outbox task succeeded after retry")
			}
			return
		}

		if attempt >= d.maxRetries {
			d.logger.Error().Err(err).Str("task", t.name).Str("task_id", t.id).Int("attempts", attempt+1).Msg("outbox task abandoned")
			return
		}

		delay := d.retryDelays[len(d.retryDelays)-1]
		if attempt < len(d.retryDelays) {
			delay = d.retryDelays[attempt]
		}
		d.logger.Warn().Err(err).Str("task", t.name).Str("task_id", t.id).Int("attempt", attempt+1).Dur("retry_in", delay).Msg("outbox task failed, retrying")
		time.Sleep(delay)
	}
}
