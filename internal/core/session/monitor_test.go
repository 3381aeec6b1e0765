package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/storage/memory"
)

type monitorFixture struct {
	sessionKV *memory.Store
	durableKV *memory.Store
	creds     *CredentialStore
	markers   *MarkerStore
	nav       *recordingNav
	events    *syncEvents
	clock     *fakeClock
}

func newMonitorFixture() *monitorFixture {
	f := &monitorFixture{
		sessionKV: memory.New(),
		durableKV: memory.New(),
		nav:       &recordingNav{},
		events:    newSyncEvents(),
		clock:     newFakeClock(testEpoch),
	}
	f.creds = NewCredentialStore(f.durableKV, zerolog.Nop())
	f.markers = NewMarkerStore(f.sessionKV, f.durableKV, zerolog.Nop())
	return f
}

func (f *monitorFixture) monitor(opts ...MonitorOption) *LifecycleMonitor {
	opts = append([]MonitorOption{
		WithMonitorClock(f.clock.Now),
		WithSessionIDGenerator(func() string { return "sess-new" }),
	}, opts...)
	return NewLifecycleMonitor(f.markers, f.creds, f.nav, f.events, zerolog.Nop(), opts...)
}

func (f *monitorFixture) loginAll(ctx context.Context) {
	for _, role := range domain.Roles {
		f.creds.Set(ctx, domain.CredentialRecord{Role: role, Token: "tok", Profile: json.RawMessage(`{}`)})
	}
}

func (f *monitorFixture) assertNoCredentials(t *testing.T) {
	t.Helper()
	for _, role := range domain.Roles {
		if f.creds.HasToken(context.Background(), role) {
			t.Fatalf("expected %s credentials to be purged", role)
		}
	}
}

func TestMonitor_FreshSessionPurgesCredentials(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	f.loginAll(ctx)

	m := f.monitor()
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()

	f.assertNoCredentials(t)
	if m.SessionID() != "sess-new" {
		t.Fatalf("expected new session id, got %q", m.SessionID())
	}
	if got := f.markers.Load(ctx); got.SessionID != "sess-new" || !got.LastActivityAt.Equal(testEpoch) {
		t.Fatalf("unexpected marker after init: %+v", got)
	}
	if f.nav.count() != 0 {
		t.Fatalf("fresh session purge must not navigate")
	}
}

func TestMonitor_ContinuingSessionKeepsCredentials(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	f.loginAll(ctx)
	f.markers.SetSessionID(ctx, "sess-old")
	f.markers.SetLastActivity(ctx, testEpoch.Add(-23*time.Hour))

	m := f.monitor()
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()

	for _, role := range domain.Roles {
		if !f.creds.HasToken(ctx, role) {
			t.Fatalf("expected %s credentials to survive", role)
		}
	}
	if m.SessionID() != "sess-old" {
		t.Fatalf("expected session id to be kept, got %q", m.SessionID())
	}
}

func TestMonitor_StaleActivityOnInitPurges(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	f.loginAll(ctx)
	f.markers.SetSessionID(ctx, "sess-old")
	f.markers.SetLastActivity(ctx, testEpoch.Add(-25*time.Hour))

	m := f.monitor()
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()

	f.assertNoCredentials(t)
	if !m.LastActivity().Equal(testEpoch) {
		t.Fatalf("expected activity clock reset to now, got %v", m.LastActivity())
	}
}

func TestMonitor_InitTwiceAndAfterDispose(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	m := f.monitor()

	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if err := m.Init(ctx); !errors.Is(err, ErrMonitorStarted) {
		t.Fatalf("expected ErrMonitorStarted, got %v", err)
	}
	m.Dispose()
	m.Dispose()
	if f.events.size() != 0 {
		t.Fatalf("expected listener removed on dispose")
	}

	other := f.monitor()
	other.Dispose()
	if err := other.Init(ctx); !errors.Is(err, ErrMonitorDisposed) {
		t.Fatalf("expected ErrMonitorDisposed, got %v", err)
	}
}

func TestMonitor_ActivityIsMonotonic(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	m := f.monitor()
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()

	f.clock.Advance(10 * time.Second)
	f.events.emit(domain.ActivityKeyDown)
	want := testEpoch.Add(10 * time.Second)
	if !m.LastActivity().Equal(want) {
		t.Fatalf("expected %v, got %v", want, m.LastActivity())
	}
	if got := f.markers.Load(ctx).LastActivityAt; !got.Equal(want) {
		t.Fatalf("expected persisted activity %v, got %v", want, got)
	}

	// A clock step backwards must not move the activity clock back.
	f.clock.Advance(-5 * time.Second)
	f.events.emit(domain.ActivityClick)
	if !m.LastActivity().Equal(want) {
		t.Fatalf("activity clock moved backwards: %v", m.LastActivity())
	}

	// Untracked events are ignored.
	f.clock.Advance(time.Minute)
	f.events.emit(domain.ActivityKind("mousemove"))
	if !m.LastActivity().Equal(want) {
		t.Fatalf("untracked event refreshed activity: %v", m.LastActivity())
	}
}

func TestMonitor_SweepExpiresAfterTimeout(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	f.markers.SetSessionID(ctx, "sess-old")
	f.markers.SetLastActivity(ctx, testEpoch)
	f.loginAll(ctx)

	m := f.monitor()
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()

	expired := 0
	m.OnExpire(func(context.Context) { expired++ })

	f.clock.Advance(24 * time.Hour)
	if m.Sweep(ctx) {
		t.Fatalf("sweep at exactly the timeout must not expire")
	}

	f.clock.Advance(time.Minute)
	if !m.Sweep(ctx) {
		t.Fatalf("expected sweep to expire the session")
	}
	f.assertNoCredentials(t)
	if f.nav.last() != domain.HomeRoute {
		t.Fatalf("expected redirect home, got %q", f.nav.last())
	}
	if expired != 1 {
		t.Fatalf("expected expire hook once, got %d", expired)
	}

	if m.Sweep(ctx) {
		t.Fatalf("sweep right after a forced logout must not fire again")
	}
}

func TestMonitor_SweepLoopRunsWithoutInput(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	m := f.monitor(WithSweepInterval(5*time.Millisecond), WithInactivityTimeout(time.Hour))
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()

	f.clock.Advance(2 * time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for f.nav.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweep loop never expired the session")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if f.nav.last() != domain.HomeRoute {
		t.Fatalf("expected redirect home, got %q", f.nav.last())
	}
}

func TestMonitor_VisibilityExpiry(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	m := f.monitor()
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()
	f.loginAll(ctx)

	f.events.emit(domain.VisibilityHidden)
	if got := f.markers.Load(ctx).HiddenAt; got == nil {
		t.Fatalf("expected hiddenAt to be recorded")
	}

	f.clock.Advance(2 * time.Hour)
	f.events.emit(domain.VisibilityVisible)
	if f.nav.count() != 0 {
		t.Fatalf("short hide must not expire the session")
	}
	if got := f.markers.Load(ctx).HiddenAt; got != nil {
		t.Fatalf("expected hiddenAt cleared on visible, got %v", got)
	}

	f.events.emit(domain.VisibilityHidden)
	f.clock.Advance(25 * time.Hour)
	f.events.emit(domain.VisibilityVisible)

	f.assertNoCredentials(t)
	if f.nav.last() != domain.HomeRoute {
		t.Fatalf("expected redirect home, got %q", f.nav.last())
	}
}

func TestMonitor_VisibleWithoutHiddenIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newMonitorFixture()
	m := f.monitor()
	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer m.Dispose()

	f.clock.Advance(48 * time.Hour)
	m.HandleEvent(ctx, domain.UIEvent{Kind: domain.VisibilityVisible})
	if f.nav.count() != 0 {
		t.Fatalf("visible without hidden must not navigate")
	}
}
