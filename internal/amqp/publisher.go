package amqp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

const DefaultPublishBuffer = 256

var (
	ErrPublishQueueFull = errors.New("publish queue is full")
	ErrPublisherClosed  = errors.New("publisher is closed")
)

// SignPublisher is the synchronous publish call, satisfied by *Client.
type SignPublisher interface {
	PublishSignResolved(ctx context.Context, sign string, month, day int) error
}

type signEvent struct {
	sign       string
	month, day int
}

// AsyncPublisher queues sign events and publishes them from one background
// goroutine, so callers never wait on the broker. Events that do not fit in
// the buffer are dropped and counted.
type AsyncPublisher struct {
	next  SignPublisher
	queue chan signEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool

	dropped int64
	failed  int64
}

// NewAsyncPublisher starts draining into next. Close stops it.
func NewAsyncPublisher(next SignPublisher, buffer int) *AsyncPublisher {
	if buffer <= 0 {
		buffer = DefaultPublishBuffer
	}
	p := &AsyncPublisher{
		next:  next,
		queue: make(chan signEvent, buffer),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// PublishSignResolved enqueues the event and returns at once. ctx is only
// checked for cancellation; delivery uses its own publish timeout.
func (p *AsyncPublisher) PublishSignResolved(ctx context.Context, sign string, month, day int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- signEvent{sign: sign, month: month, day: day}:
		return nil
	default:
		atomic.AddInt64(&p.dropped, 1)
		return ErrPublishQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for ev := range p.queue {
		err := p.next.PublishSignResolved(context.Background(), ev.sign, ev.month, ev.day)
		if err != nil {
			atomic.AddInt64(&p.failed, 1)
			slog.Warn("Failed to publish sign resolved event",
				"error", err,
				"sign", ev.sign,
				"month", ev.month,
				"day", ev.day)
		}
	}
}

// Dropped returns how many events were refused because the queue was full.
func (p *AsyncPublisher) Dropped() int64 {
	return atomic.LoadInt64(&p.dropped)
}

// Failed returns how many queued events the broker did not accept.
func (p *AsyncPublisher) Failed() int64 {
	return atomic.LoadInt64(&p.failed)
}

// Close stops accepting events, waits for queued ones to be attempted and
// closes the underlying publisher when it holds a connection.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	if c, ok := p.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
