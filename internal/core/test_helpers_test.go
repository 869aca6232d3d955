package core

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// recordingConn stores every event it receives and can be switched to fail.
type recordingConn struct {
	mu     sync.Mutex
	events []*Event
	fail   error
	closed int
}

func (c *recordingConn) Send(ctx context.Context, ev *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *recordingConn) failWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

func (c *recordingConn) received() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *recordingConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

func (c *recordingConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// blockingConn never completes a send until its context ends or it is closed.
type blockingConn struct {
	recordingConn
	once     sync.Once
	released chan struct{}
}

func newBlockingConn() *blockingConn {
	return &blockingConn{released: make(chan struct{})}
}

func (c *blockingConn) Send(ctx context.Context, _ *Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.released:
		return errors.New("connection closed")
	}
}

func (c *blockingConn) Close() error {
	c.once.Do(func() { close(c.released) })
	return c.recordingConn.Close()
}

func mustJoin(t *testing.T, hub *Hub, conn Conn, room, user string) {
	t.Helper()
	if err := hub.Join(context.Background(), conn, room, user); err != nil {
		t.Fatalf("join %s to %s: %v", user, room, err)
	}
}

// summary flattens events into "kind:payload" strings for compact assertions.
func summary(events []*Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		switch ev.Kind {
		case EventUsers:
			s := "users:"
			for i, u := range ev.Users {
				if i > 0 {
					s += ","
				}
				s += u
			}
			out = append(out, s)
		case EventMessage:
			out = append(out, "message:"+ev.Username+":"+ev.Content)
		default:
			out = append(out, ev.Kind.String()+":"+ev.Content)
		}
	}
	return out
}
