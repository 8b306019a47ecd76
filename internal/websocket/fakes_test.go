package websocket

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"driver-location-be/internal/model"
	"driver-location-be/pkg/pubsub"

	"github.com/gofiber/websocket/v2"
)

var errConnClosed = errors.New("use of closed connection")

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type frame struct {
	data []byte
	pong bool
}

// fakeConn emulates read deadlines and protocol pongs, and flags overlapping
// writes.
type fakeConn struct {
	inbound chan frame
	closed  chan struct{}

	mu           sync.Mutex
	readDeadline time.Time
	pongHandler  func(string) error
	written      []string
	closeOnce    sync.Once

	writing    atomic.Int32
	overlapped atomic.Bool
	writeDelay time.Duration
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan frame, 64),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) send(text string) { c.inbound <- frame{data: []byte(text)} }
func (c *fakeConn) pong()            { c.inbound <- frame{pong: true} }

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	for {
		c.mu.Lock()
		deadline := c.readDeadline
		handler := c.pongHandler
		c.mu.Unlock()

		wait := 5 * time.Millisecond
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return 0, nil, timeoutError{}
			}
			if remaining < wait {
				wait = remaining
			}
		}

		select {
		case <-c.closed:
			return 0, nil, errConnClosed
		case f := <-c.inbound:
			if f.pong {
				if handler != nil {
					_ = handler("")
				}
				continue
			}
			return websocket.TextMessage, f.data, nil
		case <-time.After(wait):
		}
	}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.writing.Add(1) > 1 {
		c.overlapped.Store(true)
	}
	defer c.writing.Add(-1)

	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	if c.writeDelay > 0 {
		time.Sleep(c.writeDelay)
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	c.mu.Lock()
	c.written = append(c.written, string(data))
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.readDeadline = t
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadLimit(int64)               {}

func (c *fakeConn) SetPongHandler(h func(string) error) {
	c.mu.Lock()
	c.pongHandler = h
	c.mu.Unlock()
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func (c *fakeConn) count(text string) int {
	n := 0
	for _, f := range c.frames() {
		if f == text {
			n++
		}
	}
	return n
}

type fakeSubscription struct {
	ch     chan []byte
	closed atomic.Bool
}

func (s *fakeSubscription) Messages() <-chan []byte { return s.ch }
func (s *fakeSubscription) Close() error {
	s.closed.Store(true)
	return nil
}

// fakeBus fails the first failures Subscribe calls.
type fakeBus struct {
	mu       sync.Mutex
	failures int
	attempts int
	subs     []*fakeSubscription
}

func (b *fakeBus) Publish(context.Context, string, []byte) (int64, error) { return 0, nil }

func (b *fakeBus) Subscribe(_ context.Context, _ string) (pubsub.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts++
	if b.attempts <= b.failures {
		return nil, errors.New("redis unavailable")
	}
	sub := &fakeSubscription{ch: make(chan []byte, 4)}
	b.subs = append(b.subs, sub)
	return sub, nil
}

func (b *fakeBus) attemptCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

func (b *fakeBus) subscription() *fakeSubscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return nil
	}
	return b.subs[len(b.subs)-1]
}

type fakeRecorder struct {
	mu        sync.Mutex
	positions []model.Position
	err       error
}

func (r *fakeRecorder) RecordPosition(_ context.Context, _ string, p model.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = append(r.positions, p)
	return r.err
}

func (r *fakeRecorder) recorded() []model.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Position(nil), r.positions...)
}

// warnCounter counts WARN entries and drops everything else.
type warnCounter struct {
	n atomic.Int32
}

func (l *warnCounter) Debug(string, string, map[string]interface{}) {}
func (l *warnCounter) Info(string, string, map[string]interface{})  {}
func (l *warnCounter) Warn(string, string, map[string]interface{})  { l.n.Add(1) }
func (l *warnCounter) Error(string, string, map[string]interface{}) {}
func (l *warnCounter) Sync() error                                  { return nil }
