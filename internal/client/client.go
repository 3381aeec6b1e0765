// Package client is the composition root of the storefront session
// subsystem. It builds the stores, the lifecycle monitor, one role session
// per role, their route guards and the seller access gate, and owns their
// start and shutdown order.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/core/session"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/events"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/profileapi"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/storage/memory"
	redisstore "github.com/wholesalehub/sessiongate/internal/infrastructure/storage/redis"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/storage/sqlite"
	"github.com/wholesalehub/sessiongate/internal/pkg/config"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var (
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrStarted        = errors.New("client already started")
)

// Regions maps each navigational region to the roles active in it.
type Regions map[session.Region][]domain.Role

// DefaultRegions keeps the admin identity out of the storefront and the
// storefront identities out of the admin area.
var DefaultRegions = Regions{
	session.RegionAdmin:      {domain.RoleAdmin},
	session.RegionStorefront: {domain.RoleSeller, domain.RoleBuyer},
}

func (r Regions) of(role domain.Role) []session.Region {
	var out []session.Region
	for region, roles := range r {
		for _, candidate := range roles {
			if candidate == role {
				out = append(out, region)
			}
		}
	}
	return out
}

// Options configures New. Zero-valued collaborators are built from Config.
type Options struct {
	Config    *config.Config
	Navigator ports.Navigator
	Regions   Regions
	Log       zerolog.Logger

	// Durable replaces the store built from Config.Store.
	Durable ports.KeyValueStore
	// SessionStore holds the per-session marker; it defaults to process memory,
	// so a new process is a new browser session.
	SessionStore ports.KeyValueStore
	// Profiles replaces the HTTP profile client built from Config.Profile.
	Profiles ports.ProfileClient

	MonitorOptions []session.MonitorOption
	GateOptions    []session.GateOption
}

// Client wires the session subsystem for one browser client.
type Client struct {
	events   *events.Bus
	monitor  *session.LifecycleMonitor
	store    *session.CredentialStore
	sessions map[domain.Role]*session.RoleSession
	guards   map[domain.Role]*session.RouteGuard
	gate     *session.AccessGate
	log      zerolog.Logger

	closers []io.Closer
	cancel  context.CancelFunc
	once    sync.Once

	mu      sync.Mutex
	started bool
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Config == nil {
		return nil, errors.New("client: nil config")
	}
	if opts.Navigator == nil {
		return nil, errors.New("client: nil navigator")
	}
	if opts.Regions == nil {
		opts.Regions = DefaultRegions
	}
	cfg := opts.Config
	log := opts.Log.With().Str("component", "session").Logger()

	c := &Client{
		sessions: make(map[domain.Role]*session.RoleSession, len(domain.Roles)),
		guards:   make(map[domain.Role]*session.RouteGuard, len(domain.Roles)),
		log:      log,
	}

	durable := opts.Durable
	if durable == nil {
		kv, closer, err := openDurable(ctx, cfg.Store, cfg.Redis)
		if err != nil {
			return nil, err
		}
		durable = kv
		if closer != nil {
			c.closers = append(c.closers, closer)
		}
	}
	sessionKV := opts.SessionStore
	if sessionKV == nil {
		sessionKV = memory.New()
	}
	profiles := opts.Profiles
	if profiles == nil {
		profiles = profileapi.New(cfg.Profile.BaseURL, cfg.Profile.Timeout)
	}

	c.store = session.NewCredentialStore(durable, log)
	markers := session.NewMarkerStore(sessionKV, durable, log)
	c.events = events.NewBus(0, log)

	monitorOpts := append([]session.MonitorOption{
		session.WithInactivityTimeout(cfg.Session.InactivityTimeout),
		session.WithSweepInterval(cfg.Session.SweepInterval),
	}, opts.MonitorOptions...)
	c.monitor = session.NewLifecycleMonitor(markers, c.store, opts.Navigator, c.events, log, monitorOpts...)

	for _, role := range domain.Roles {
		sessOpts := []session.RoleSessionOption{session.WithRegions(opts.Regions.of(role)...)}
		if role == domain.RoleBuyer {
			sessOpts = append(sessOpts, session.WithoutRevalidation())
		}
		s := session.NewRoleSession(role, c.store, profiles, opts.Navigator, log, sessOpts...)
		c.sessions[role] = s
		c.monitor.OnExpire(s.Expire)
	}
	for _, role := range domain.Roles {
		foreign := make(map[domain.Role]session.Expirer, len(c.sessions)-1)
		for other, s := range c.sessions {
			if other != role {
				foreign[other] = s
			}
		}
		c.guards[role] = session.NewRouteGuard(c.sessions[role], c.store, opts.Navigator, log,
			session.WithForeignSessions(foreign))
	}

	gateOpts := append([]session.GateOption{
		session.WithTrialPolicy(domain.TrialPolicy{
			LengthDays:  cfg.Session.TrialDays,
			WarningDays: cfg.Session.TrialWarningDays,
		}),
	}, opts.GateOptions...)
	c.gate = session.NewAccessGate(c.sessions[domain.RoleSeller], profiles, log, gateOpts...)

	return c, nil
}

func openDurable(ctx context.Context, store config.StoreConfig, rc config.RedisConfig) (ports.KeyValueStore, io.Closer, error) {
	switch store.Backend {
	case BackendSQLite, "":
		kv, err := sqlite.Open(store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return kv, kv, nil
	case BackendRedis:
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return redisstore.NewStore(rdb, store.Namespace), rdb, nil
	case BackendMemory:
		return memory.New(), nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, store.Backend)
}

// Start runs the lifecycle monitor before any role session reads the
// store, then initialises every role session for region.
// Start may only be called once.
func (c *Client) Start(ctx context.Context, region session.Region) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrStarted
	}
	c.started = true
	c.mu.Unlock()

	if err := c.monitor.Init(ctx); err != nil {
		return fmt.Errorf("start lifecycle monitor: %w", err)
	}

	busCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	c.events.Start(busCtx)

	var g errgroup.Group
	for _, s := range c.sessions {
		s := s
		g.Go(func() error {
			s.Init(ctx, region)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.log.Info().Str("region", string(region)).Str("session_id", c.monitor.SessionID()).Msg("session subsystem started")
	return nil
}

// Publish forwards a host UI event to the monitor. It never blocks.
func (c *Client) Publish(ev domain.UIEvent) bool {
	return c.events.Publish(ev)
}

func (c *Client) Session(role domain.Role) *session.RoleSession { return c.sessions[role] }

func (c *Client) Guard(role domain.Role) *session.RouteGuard { return c.guards[role] }

func (c *Client) SellerGate() *session.AccessGate { return c.gate }

func (c *Client) Monitor() *session.LifecycleMonitor { return c.monitor }

// Wait blocks until every role session has settled its background work.
func (c *Client) Wait() {
	for _, s := range c.sessions {
		s.Wait()
	}
}

// Close disposes the monitor, stops the event bus, waits for in-flight
// revalidations and closes the durable store. Safe to call more than once.
func (c *Client) Close() error {
	var errs []error
	c.once.Do(func() {
		c.monitor.Dispose()
		c.mu.Lock()
		cancel := c.cancel
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		c.Wait()
		for _, closer := range c.closers {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
