// internal/pkg/notification/dispatcher.go
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Job is a unit of notification work executed off the request path.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs notification jobs on a background worker. Submission
// never blocks the caller: when the queue is full the job is dropped and
// logged, because a slow mail server must not slow down checkouts or
// cancellations.
type Dispatcher struct {
	jobs    chan Job
	logger  *logrus.Logger
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given queue size and starts
// its worker.
func NewDispatcher(queueSize int, logger *logrus.Logger) *Dispatcher {
	if queueSize < 1 {
		queueSize = 64
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Dispatcher{
		jobs:    make(chan Job, queueSize),
		logger:  logger,
		timeout: 30 * time.Second,
	}
	d.wg.Add(1)
	go d.worker()
	return d
}

// Submit queues a job for background execution. It returns immediately;
// the job's failure only ever reaches the log. Submitting after Close
// drops the job the same way a full queue does.
func (d *Dispatcher) Submit(job Job) {
	// The read lock keeps Close from closing the channel between the
	// closed check and the send.
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.WithField("job", job.Name).Warn("dispatcher closed, dropping job")
		return
	}

	select {
	case d.jobs <- job:
	default:
		d.logger.WithField("job", job.Name).Warn("notification queue full, dropping job")
	}
}

// Close stops accepting jobs and waits for the queue to drain. Safe to
// call concurrently with Submit and safe to call more than once.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := job.Run(ctx); err != nil {
			d.logger.WithError(err).WithField("job", job.Name).Warn("notification job failed")
		}
		cancel()
	}
}
