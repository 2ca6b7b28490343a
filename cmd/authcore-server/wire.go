package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/config"
	"github.com/MrEthical07/authcore/internal/rate"
	"github.com/MrEthical07/authcore/revocation"
	"github.com/MrEthical07/authcore/session"
	"github.com/MrEthical07/authcore/store"
	"github.com/MrEthical07/authcore/store/memory"
	"github.com/MrEthical07/authcore/store/sqlstore"
)

const redisPrefix = "authcore"

// application owns the engine and every backend handle it was built on.
type application struct {
	engine   *authcore.Engine
	throttle *rate.Limiter
	closers  []io.Closer
	log      *zap.Logger
}

// Close stops the engine first so queued audit events still reach their
// sink, then releases backends in reverse order.
func (a *application) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close backend", zap.Error(err))
		}
	}
}

func wire(ctx context.Context, cfg config.Server, log *zap.Logger) (*application, error) {
	app := &application{log: log}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	b := authcore.New().
		WithConfig(engineConfig(cfg)).
		WithLogger(log)

	identities, sessions, err := app.sqlOrMemory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var rdb redis.UniversalClient
	if cfg.UsesRedis() {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		app.closers = append(app.closers, rdb)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
	}
	if cfg.SessionStore == config.StoreRedis {
		sessions = session.NewStore(rdb, session.Config{Prefix: redisPrefix})
	}
	if cfg.RevocationStore == config.StoreRedis {
		b.WithRevocationRegistry(revocation.NewRedis(rdb, redisPrefix, cfg.AccessTTL, nil))
	}
	b.WithIdentityStore(identities).WithSessionStore(sessions)
	if cfg.RateLimitEnabled {
		app.throttle = rate.New(rdb, rate.Config{
			Prefix:             redisPrefix,
			MaxLoginAttempts:   cfg.RateLimitLoginAttempts,
			LoginWindow:        cfg.RateLimitLoginWindow,
			MaxRefreshAttempts: cfg.RateLimitRefreshAttempts,
			RefreshWindow:      cfg.RateLimitRefreshWindow,
		})
	}

	if cfg.AuditEnabled {
		if cfg.AuditLogFile != "" {
			sink, closer := authcore.NewRotatingFileSink(authcore.RotatingFileConfig{
				Path:     cfg.AuditLogFile,
				Compress: true,
			})
			app.closers = append(app.closers, closer)
			b.WithAuditSink(sink)
		} else {
			b.WithAuditSink(authcore.NewZapSink(log))
		}
	}

	engine, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	app.engine = engine
	ok = true
	return app, nil
}

func (a *application) sqlOrMemory(ctx context.Context, cfg config.Server) (store.IdentityStore, store.SessionStore, error) {
	var dialect sqlstore.Dialect
	switch cfg.Store {
	case config.StorePostgres:
		dialect = sqlstore.DialectPostgres
	case config.StoreSQLite:
		dialect = sqlstore.DialectSQLite
	default:
		mem := memory.New(nil)
		return mem, mem, nil
	}

	s, err := sqlstore.Open(ctx, dialect, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, s)
	return s, s, nil
}

func engineConfig(cfg config.Server) authcore.Config {
	out := authcore.DefaultConfig()
	out.JWT.Secret = []byte(cfg.AccessSecret)
	out.JWT.AccessTTL = cfg.AccessTTL
	out.JWT.RefreshTTL = cfg.RefreshTTL
	out.Password.Algorithm = cfg.PasswordHasher
	out.Password.WorkFactor = cfg.PasswordWorkFactor
	out.Password.MaxConcurrent = cfg.PasswordMaxConcurrent
	out.Audit.Enabled = cfg.AuditEnabled
	out.Metrics.Enabled = cfg.MetricsEnabled
	out.Metrics.EnableLatencyHistograms = cfg.MetricsEnabled
	return out
}
