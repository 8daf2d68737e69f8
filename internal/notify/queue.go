package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"timebank-go/internal/metrics"
	"timebank-go/pkg/logger"
)

const defaultSendTimeout = 30 * time.Second

// Queue is an unbounded fire-and-forget queue drained by background workers.
// Notify never blocks on delivery; failures are logged and dropped.
type Queue struct {
	sender  Sender
	log     logger.Logger
	timeout time.Duration

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Message
	closed  bool
	wg      sync.WaitGroup
}

func NewQueue(sender Sender, log logger.Logger, workers int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	q := &Queue{
		sender:  sender,
		log:     log,
		timeout: defaultSendTimeout,
	}
	q.cond = sync.NewCond(&q.mu)

	q.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go q.worker()
	}
	return q
}

func (q *Queue) Notify(ctx context.Context, recipient, subject, body string) {
	msg := Message{
		ID:      uuid.NewString(),
		To:      recipient,
		Subject: subject,
		Body:    body,
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.log.Warn("notify.queue: dropped after close", "message_id", msg.ID, "subject", subject)
		metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		return
	}
	q.pending = append(q.pending, msg)
	metrics.NotificationQueueDepth.Set(float64(len(q.pending)))
	q.mu.Unlock()
	q.cond.Signal()
}

// Close stops accepting messages and waits until queued ones are handled or ctx ends.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		msg, ok := q.next()
		if !ok {
			return
		}
		q.deliver(msg)
	}
}

func (q *Queue) next() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) == 0 {
		if q.closed {
			return Message{}, false
		}
		q.cond.Wait()
	}
	msg := q.pending[0]
	q.pending[0] = Message{}
	q.pending = q.pending[1:]
	metrics.NotificationQueueDepth.Set(float64(len(q.pending)))
	return msg, true
}

func (q *Queue) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := q.sender.Send(ctx, msg); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		q.log.InternalError("notify.queue: send failed", err, "message_id", msg.ID, "subject", msg.Subject)
		return
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()
	q.log.Debug("notify.queue: sent", "message_id", msg.ID, "subject", msg.Subject)
}
