package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres"
	memoryrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/memory"
	questionrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/question"
	reviewlogrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/reviewlog"
	sessionrepo "github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/adapter/postgres/session"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/auth"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/config"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/catalog"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/service/study/leitner"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/transport/middleware"
	"github.com/Qwurdi/loklernen-bahn-meister-sub002/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, wires services and transport, and blocks serving HTTP until
// ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := Migrate(ctx, pool); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	questions := questionrepo.New(pool)
	records := memoryrepo.New(pool)
	reviews := reviewlogrepo.New(pool)
	sessions := sessionrepo.New(pool)
	txManager := postgres.NewTxManager(pool)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTTL)
	entitlement := auth.NewEntitlement(strings.Split(cfg.Auth.OpenCategories, ","))

	catalogSvc := catalog.NewService(logger, questions, entitlement)
	studySvc := study.NewService(
		logger,
		catalogSvc,
		records,
		reviews,
		sessions,
		txManager,
		study.SystemClock{},
		leitnerConfig(cfg.SRS),
		cfg.SRS.DefaultBatchSize,
	)

	health := rest.NewHealthHandler(pool, BuildVersion())
	router := rest.NewRouter(logger, studySvc, catalogSvc, health)

	mws := []middleware.Middleware{
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	}
	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitPerMinute, time.Minute)
		defer limiter.Stop()
		mws = append(mws, limiter.Limit())
	}
	mws = append(mws, middleware.Auth(jwtManager))

	handler := middleware.Chain(mws...)(router)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}

func leitnerConfig(cfg config.SRSConfig) leitner.Config {
	return leitner.Config{
		DefaultEase:            cfg.DefaultEaseFactor,
		MinEase:                cfg.MinEaseFactor,
		EaseBonus:              cfg.EaseBonus,
		EasePenalty:            cfg.EasePenalty,
		MaxBox:                 cfg.MaxBox,
		MinIntervalDays:        cfg.MinIntervalDays,
		MaxIntervalDays:        cfg.MaxIntervalDays,
		GraduatingIntervalDays: cfg.GraduatingInterval,
	}
}
