// Command profile-service serves registration, login, role-bound profiles
// and seller verification for the storefront session subsystem.
//
//	@title			Storefront Profile Service
//	@version		1.0
//	@description	Role-scoped authentication and seller verification.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/sync/errgroup"

	_ "github.com/wholesalehub/sessiongate/docs"
	"github.com/wholesalehub/sessiongate/internal/api"
	"github.com/wholesalehub/sessiongate/internal/api/handler"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
	"github.com/wholesalehub/sessiongate/internal/core/service"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/db/memory"
	"github.com/wholesalehub/sessiongate/internal/infrastructure/db/mongo"
	redisstore "github.com/wholesalehub/sessiongate/internal/infrastructure/storage/redis"
	"github.com/wholesalehub/sessiongate/internal/pkg/config"
	"github.com/wholesalehub/sessiongate/pkg/logger"
)

const (
	backendMongo  = "mongo"
	backendMemory = "memory"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "profile-service: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg, err := config.LoadWith(ctx, envconfig.OsLookuper())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "profile-service",
	})
	if cfg.Service.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	health := map[string]handler.Pinger{}
	var closers []func(context.Context) error

	repo, err := accountRepository(ctx, cfg, health, &closers, log)
	if err != nil {
		return err
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, readiness will not report it")
		} else {
			health["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
			closers = append(closers, func(context.Context) error { return rdb.Close() })
		}
	}

	opts := []service.Option{service.WithTrialDays(cfg.Session.TrialDays)}
	authSvc := service.NewAuthService(repo, cfg.Service.JWTSecret, cfg.Service.TokenTTL, logger.Component("auth"), opts...)
	verificationSvc := service.NewVerificationService(repo, logger.Component("verification"), opts...)

	e := api.NewRouter(api.Deps{
		Auth:         authSvc,
		Verification: verificationSvc,
		JWTSecret:    cfg.Service.JWTSecret,
		Health:       health,
		LoginRate:    cfg.Service.LoginRate,
		LoginBurst:   cfg.Service.LoginBurst,
		Log:          logger.Component("http"),
	})

	address := ":" + cfg.Service.Port
	log.Info().Str("address", address).Str("account_backend", cfg.Service.AccountBackend).Msg("starting profile service")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		for _, closeFn := range closers {
			err = errors.Join(err, closeFn(shutdownCtx))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server exited properly")
	return nil
}

func accountRepository(
	ctx context.Context,
	cfg *config.Config,
	health map[string]handler.Pinger,
	closers *[]func(context.Context) error,
	log zerolog.Logger,
) (ports.AccountRepository, error) {
	switch cfg.Service.AccountBackend {
	case backendMongo:
		conn, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		repo := mongo.NewAccountRepository(conn.DB)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = conn.Close(ctx)
			return nil, fmt.Errorf("ensure account indexes: %w", err)
		}
		health["mongo"] = conn
		*closers = append(*closers, conn.Close)
		return repo, nil
	case backendMemory:
		log.Warn().Msg("using in-memory account repository, accounts are lost on restart")
		return memory.NewAccountRepository(), nil
	}
	return nil, fmt.Errorf("unknown ACCOUNT_BACKEND %q", cfg.Service.AccountBackend)
}
