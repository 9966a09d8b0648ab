package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	sendTimeout        = 10 * time.Second
)

// Dispatcher delivers confirmations in the background so that a transport
// failure never reaches the order-creation caller. Each job gets a bounded
// number of attempts with exponential backoff; exhausted jobs are logged as
// dead letters.
type Dispatcher struct {
	transport   Transport
	logger      *zap.Logger
	jobs        chan Confirmation
	maxAttempts int
	backoff     time.Duration

	once   sync.Once
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

func NewDispatcher(transport Transport, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		transport:   transport,
		logger:      logger,
		jobs:        make(chan Confirmation, defaultQueueSize),
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
}

// Start launches the worker goroutine.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for job := range d.jobs {
			d.deliver(job)
		}
	}()
}

// Enqueue hands a confirmation to the dispatcher without blocking. When the
// queue is full, or the dispatcher is already closed, the job is dropped
// with a log; order creation is never held up by notification backpressure.
func (d *Dispatcher) Enqueue(c Confirmation) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Warn("Dispatcher closed, dropping confirmation",
			zap.String("order_id", c.OrderID))
		return false
	}
	select {
	case d.jobs <- c:
		return true
	default:
		d.logger.Warn("Notification queue full, dropping confirmation",
			zap.String("order_id", c.OrderID))
		return false
	}
}

// Close stops accepting jobs and waits for in-flight deliveries to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) deliver(job Confirmation) {
	job.Message = job.Format()
	body, err := json.Marshal(job)
	if err != nil {
		d.logger.Error("Failed to encode confirmation",
			zap.String("order_id", job.OrderID), zap.Error(err))
		return
	}

	backoff := d.backoff
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err = d.send(body)
		if err == nil {
			d.logger.Info("Order confirmation dispatched",
				zap.String("order_id", job.OrderID),
				zap.Int("attempt", attempt))
			return
		}
		d.logger.Warn("Notification delivery failed",
			zap.String("order_id", job.OrderID),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < d.maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	// Dead letter: keep the full payload in the log so the message can be
	// replayed by hand if it matters.
	d.logger.Error("Order confirmation dead-lettered",
		zap.String("order_id", job.OrderID),
		zap.String("recipient", job.Email),
		zap.ByteString("payload", body),
		zap.Error(err))
}

func (d *Dispatcher) send(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return d.transport.Send(ctx, body)
}
