package daemon

import (
	"context"
	"crypto/rand"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/api"
	"github.com/matheus3301/lnf/internal/bus"
	"github.com/matheus3301/lnf/internal/claim"
	"github.com/matheus3301/lnf/internal/config"
	"github.com/matheus3301/lnf/internal/handoff"
	"github.com/matheus3301/lnf/internal/lock"
	"github.com/matheus3301/lnf/internal/logging"
	"github.com/matheus3301/lnf/internal/metrics"
	"github.com/matheus3301/lnf/internal/profile"
	"github.com/matheus3301/lnf/internal/session"
	"github.com/matheus3301/lnf/internal/store"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	SocketPath  string // optional override for testing; empty = use default
	// ConfigPath and EnvPath override the config sources; empty = use defaults.
	ConfigPath string
	EnvPath    string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideMetrics,
			provideLock,
			provideStore,
			provideProfile,
			provideHandoff,
			provideManager,
			provideClaimService,
			provideProfileService,
			NewServer,
			NewHTTPServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	envPath := p.EnvPath
	if envPath == "" {
		envPath = session.EnvPath(p.SessionName)
	}
	return config.Resolve(path, envPath)
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName, cfg.LogLevel)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideMetrics(b *bus.Bus) *metrics.Metrics {
	m := metrics.New()
	m.Gauge("bus_subscribers", "Live event bus subscriptions.", func() float64 {
		return float64(b.Subscribers())
	})
	m.Gauge("bus_dropped_events", "Events dropped because a subscriber was slow.", func() float64 {
		return float64(b.Dropped())
	})
	return m
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

// provideStore takes the lock so the database is never opened by two daemons.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.AppDBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideProfile(p Params, cfg *config.Config, db *store.DB, m *metrics.Metrics, logger *zap.Logger) (*profile.Service, error) {
	secret, err := secretOrRandom(cfg.TokenSecret, "token", logger)
	if err != nil {
		return nil, err
	}
	return profile.NewService(db, profile.Options{
		Secret:      secret,
		TokenTTL:    cfg.TokenTTL.Duration,
		MediaDir:    session.MediaDir(p.SessionName),
		SignInBurst: 5,
	}, m, logger), nil
}

func provideHandoff(cfg *config.Config, logger *zap.Logger) (*handoff.Issuer, error) {
	secret, err := secretOrRandom(cfg.HandoffSecret, "handoff", logger)
	if err != nil {
		return nil, err
	}
	return handoff.NewIssuer(secret, cfg.HandoffTTL.Duration), nil
}

func provideManager(cfg *config.Config, db *store.DB, b *bus.Bus, m *metrics.Metrics, svc *profile.Service, issuer *handoff.Issuer, logger *zap.Logger) *claim.Manager {
	return claim.NewManager(claim.Deps{
		Repo:     db,
		Bus:      b,
		Metrics:  m,
		Logger:   logger,
		Karma:    svc,
		Handoff:  issuer,
		Searcher: db,
		Users:    svc,
	}, claim.Config{
		SimulateReplies: cfg.SimulateReplies,
		ReplyDelay:      cfg.ReplyDelay.Duration,
	})
}

func provideClaimService(mgr *claim.Manager, b *bus.Bus, logger *zap.Logger) *api.ClaimService {
	return api.NewClaimService(mgr, b, logger)
}

func provideProfileService(svc *profile.Service, b *bus.Bus, logger *zap.Logger) *api.ProfileService {
	return api.NewProfileService(svc, b, logger)
}

// secretOrRandom returns configured, or 32 random bytes when it is empty.
// Random secrets do not survive a restart.
func secretOrRandom(configured, name string, logger *zap.Logger) ([]byte, error) {
	if configured != "" {
		return []byte(configured), nil
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate %s secret: %w", name, err)
	}
	logger.Warn("no secret configured, tokens will not survive a restart", zap.String("secret", name))
	return buf, nil
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, srv *Server, web *HTTPServer, mgr *claim.Manager, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Replies fire on the manager's own context, not the start deadline.
			mgr.Start(context.Background())

			if cfg.SeedDemo {
				n, err := mgr.Seed(ctx)
				if err != nil {
					return fmt.Errorf("seed demo data: %w", err)
				}
				if n == 0 {
					logger.Debug("store already has conversations, skipping seed")
				}
			}

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			return web.Start()
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			web.Stop(ctx)
			mgr.Stop()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
