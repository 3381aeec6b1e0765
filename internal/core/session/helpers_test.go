package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

type recordingNav struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNav) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNav) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

func (n *recordingNav) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

type stubProfileClient struct {
	mu        sync.Mutex
	fetch     func(ctx context.Context, role domain.Role, token string) (json.RawMessage, error)
	login     func(ctx context.Context, role domain.Role, email, password string) (*ports.LoginResult, error)
	submitted [][]string
	submitErr error
	fetches   int
}

func (c *stubProfileClient) Login(ctx context.Context, role domain.Role, email, password string) (*ports.LoginResult, error) {
	if c.login == nil {
		return nil, domain.ErrInvalidCredentials
	}
	return c.login(ctx, role, email, password)
}

func (c *stubProfileClient) FetchProfile(ctx context.Context, role domain.Role, token string) (json.RawMessage, error) {
	c.mu.Lock()
	c.fetches++
	fetch := c.fetch
	c.mu.Unlock()
	if fetch == nil {
		return nil, domain.ErrTransient
	}
	return fetch(ctx, role, token)
}

func (c *stubProfileClient) SubmitVerification(_ context.Context, _ string, documents []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submitErr != nil {
		return c.submitErr
	}
	c.submitted = append(c.submitted, documents)
	return nil
}

func (c *stubProfileClient) fetchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// brokenKV fails every operation.
type brokenKV struct{}

var errStorage = errors.New("storage quota exceeded")

func (brokenKV) Get(context.Context, string) (string, bool, error) { return "", false, errStorage }
func (brokenKV) Set(context.Context, string, string) error         { return errStorage }
func (brokenKV) Delete(context.Context, ...string) error           { return errStorage }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// syncEvents delivers events synchronously to every listener.
type syncEvents struct {
	mu        sync.Mutex
	listeners map[int]func(domain.UIEvent)
	next      int
}

func newSyncEvents() *syncEvents {
	return &syncEvents{listeners: make(map[int]func(domain.UIEvent))}
}

func (e *syncEvents) Subscribe(fn func(domain.UIEvent)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.next
	e.next++
	e.listeners[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *syncEvents) emit(kind domain.ActivityKind) {
	e.mu.Lock()
	fns := make([]func(domain.UIEvent), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(domain.UIEvent{Kind: kind})
	}
}

func (e *syncEvents) size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
