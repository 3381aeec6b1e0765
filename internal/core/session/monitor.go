package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/metrics"
)

const (
	DefaultInactivityTimeout = 24 * time.Hour
	DefaultSweepInterval     = 60 * time.Second

	// activityWriteInterval throttles durable writes of the activity clock;
	// the in-memory value is always exact.
	activityWriteInterval = time.Second
)

const (
	purgeFreshSession   = "fresh_session"
	purgeInactiveOnInit = "inactive_on_start"
	purgeSweep          = "sweep"
	purgeVisibility     = "visibility"
)

var (
	ErrMonitorStarted  = errors.New("lifecycle monitor already initialised")
	ErrMonitorDisposed = errors.New("lifecycle monitor disposed")
)

// LifecycleMonitor decides whether stored credentials still belong to a live
// session. It purges them on a fresh browser session, after the inactivity
// timeout, and after the window has been hidden longer than the timeout.
//
// One monitor is built by the composition root, initialised once and disposed once.
type LifecycleMonitor struct {
	markers ports.MarkerStore
	purger  ports.CredentialPurger
	nav     ports.Navigator
	events  ports.EventSource
	log     zerolog.Logger

	now      func() time.Time
	newID    func() string
	timeout  time.Duration
	interval time.Duration

	mu            sync.Mutex
	sessionID     string
	lastActivity  time.Time
	lastPersisted time.Time
	hiddenAt      *time.Time
	onExpire      []func(context.Context)
	initialised   bool
	disposed      bool
	cancel        context.CancelFunc
	done          chan struct{}
	unsubscribe   func()
}

// MonitorOption customises a LifecycleMonitor.
type MonitorOption func(*LifecycleMonitor)

// WithMonitorClock sets the time source (primarily for testing).
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *LifecycleMonitor) { m.now = now }
}

// WithInactivityTimeout overrides the 24 hour inactivity timeout.
func WithInactivityTimeout(d time.Duration) MonitorOption {
	return func(m *LifecycleMonitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithSweepInterval overrides the 60 second sweep period.
func WithSweepInterval(d time.Duration) MonitorOption {
	return func(m *LifecycleMonitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithSessionIDGenerator replaces the uuid generator (primarily for testing).
func WithSessionIDGenerator(gen func() string) MonitorOption {
	return func(m *LifecycleMonitor) { m.newID = gen }
}

// NewLifecycleMonitor wires the monitor. events may be nil when the host
// delivers UI events by calling HandleEvent directly.
func NewLifecycleMonitor(
	markers ports.MarkerStore,
	purger ports.CredentialPurger,
	nav ports.Navigator,
	events ports.EventSource,
	log zerolog.Logger,
	opts ...MonitorOption,
) *LifecycleMonitor {
	m := &LifecycleMonitor{
		markers:  markers,
		purger:   purger,
		nav:      nav,
		events:   events,
		log:      log,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		timeout:  DefaultInactivityTimeout,
		interval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnExpire registers a hook run after a forced logout purge, before the
// redirect. Role sessions use it to drop their in-memory state.
func (m *LifecycleMonitor) OnExpire(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = append(m.onExpire, fn)
}

// Init runs fresh-session detection, starts listening for UI events and
// starts the periodic sweep. It must complete before any role session reads
// the credential store.
func (m *LifecycleMonitor) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrMonitorDisposed
	}
	if m.initialised {
		m.mu.Unlock()
		return ErrMonitorStarted
	}
	m.initialised = true
	m.mu.Unlock()

	now := m.now()
	marker := m.markers.Load(ctx)

	switch {
	case marker.SessionID == "":
		m.purger.ClearAll(ctx)
		id := m.newID()
		m.markers.SetSessionID(ctx, id)
		m.markers.SetLastActivity(ctx, now)
		marker.SessionID = id
		marker.LastActivityAt = now
		metrics.SessionPurgesTotal.WithLabelValues(purgeFreshSession).Inc()
		m.log.Info().Str("session_id", id).Msg("fresh browser session, stored credentials purged")

	case marker.LastActivityAt.IsZero():
		m.markers.SetLastActivity(ctx, now)
		marker.LastActivityAt = now

	case now.Sub(marker.LastActivityAt) > m.timeout:
		m.purger.ClearAll(ctx)
		m.markers.SetLastActivity(ctx, now)
		metrics.SessionPurgesTotal.WithLabelValues(purgeInactiveOnInit).Inc()
		m.log.Info().
			Time("last_activity", marker.LastActivityAt).
			Dur("timeout", m.timeout).
			Msg("session inactive beyond timeout, stored credentials purged")
		marker.LastActivityAt = now

	default:
		m.log.Debug().Str("session_id", marker.SessionID).Msg("continuing browser session")
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	m.mu.Lock()
	m.sessionID = marker.SessionID
	m.lastActivity = marker.LastActivityAt
	m.lastPersisted = marker.LastActivityAt
	m.hiddenAt = marker.HiddenAt
	m.cancel = cancel
	m.done = done
	if m.events != nil {
		m.unsubscribe = m.events.Subscribe(func(ev domain.UIEvent) { m.HandleEvent(loopCtx, ev) })
	}
	m.mu.Unlock()

	go m.sweepLoop(loopCtx, done)
	return nil
}

// Dispose stops the sweep and removes the UI listener. Safe to call more than once.
func (m *LifecycleMonitor) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	cancel, done, unsubscribe := m.cancel, m.done, m.unsubscribe
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

// HandleEvent is the UI listener. Tracked input refreshes the activity
// clock; visibility changes drive hidden-time expiry.
func (m *LifecycleMonitor) HandleEvent(ctx context.Context, ev domain.UIEvent) {
	switch {
	case ev.Kind.IsTracked():
		m.RecordActivity(ctx)
	case ev.Kind == domain.VisibilityHidden:
		m.markHidden(ctx)
	case ev.Kind == domain.VisibilityVisible:
		m.checkVisible(ctx)
	}
}

// RecordActivity moves the activity clock forward; it never moves it back.
func (m *LifecycleMonitor) RecordActivity(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	if !now.After(m.lastActivity) {
		m.mu.Unlock()
		return
	}
	m.lastActivity = now
	persist := now.Sub(m.lastPersisted) >= activityWriteInterval
	if persist {
		m.lastPersisted = now
	}
	m.mu.Unlock()

	if persist {
		m.markers.SetLastActivity(ctx, now)
	}
}

// SessionID is the current browser session marker, empty before Init.
func (m *LifecycleMonitor) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// LastActivity is the in-memory activity clock.
func (m *LifecycleMonitor) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// Sweep enforces the inactivity timeout without any user input. The sweep
// loop calls it every interval.
func (m *LifecycleMonitor) Sweep(ctx context.Context) bool {
	m.mu.Lock()
	idle := m.now().Sub(m.lastActivity)
	m.mu.Unlock()

	if idle <= m.timeout {
		return false
	}
	m.log.Info().Dur("idle", idle).Msg("inactivity timeout reached")
	m.expire(ctx, purgeSweep)
	return true
}

func (m *LifecycleMonitor) sweepLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

func (m *LifecycleMonitor) markHidden(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	m.hiddenAt = &now
	m.mu.Unlock()

	m.markers.SetHiddenAt(ctx, &now)
}

func (m *LifecycleMonitor) checkVisible(ctx context.Context) {
	m.mu.Lock()
	hiddenAt := m.hiddenAt
	m.hiddenAt = nil
	m.mu.Unlock()

	m.markers.SetHiddenAt(ctx, nil)
	if hiddenAt == nil {
		return
	}

	hidden := m.now().Sub(*hiddenAt)
	if hidden > m.timeout {
		m.log.Info().Dur("hidden", hidden).Msg("window hidden beyond timeout")
		m.expire(ctx, purgeVisibility)
	}
}

// expire is the forced logout: purge every role, reset the activity clock so
// the next sweep does not fire again, then send the user home.
func (m *LifecycleMonitor) expire(ctx context.Context, reason string) {
	m.purger.ClearAll(ctx)

	now := m.now()
	m.mu.Lock()
	m.lastActivity = now
	m.lastPersisted = now
	hooks := append([]func(context.Context){}, m.onExpire...)
	m.mu.Unlock()

	m.markers.SetLastActivity(ctx, now)
	metrics.SessionPurgesTotal.WithLabelValues(reason).Inc()

	for _, hook := range hooks {
		hook(ctx)
	}
	m.log.Info().Str("reason", reason).Msg("forced logout, redirecting home")
	m.nav.Navigate(domain.HomeRoute)
}
