// Package app wires the Rollcall server runtime: config, logging,
// storage, HTTP routes and the live feed gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rollcall/cmd/identity"
	"rollcall/cmd/internal/attendance"
	authapi "rollcall/cmd/internal/auth/api"
	"rollcall/cmd/internal/auth/session"
	"rollcall/cmd/internal/livefeed"
	"rollcall/cmd/internal/students"
	"rollcall/cmd/security/fieldcrypt"
	"rollcall/cmd/security/password"
)

// App is the Rollcall server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	auth       *authapi.Handler
	students   *students.Handler
	attendance *attendance.Handler
	feed       *livefeed.Gateway
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	var (
		pool      *pgxpool.Pool
		dbEnabled bool

		userStore   identity.Store
		sessStore   session.Store
		rosterStore students.Store
		marksStore  attendance.Store
	)

	if cfg.DatabaseURL != "" {
		if cfg.MigrateOnStart {
			if err := RunMigrations(ctx, cfg.DatabaseURL); err != nil {
				return nil, err
			}
			log.Info("db.migrations.ok")
		}

		var err error
		pool, err = NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dbEnabled = true
		log.Info("db.enabled.postgres_store")

		idStore, err := identity.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		stStore, err := students.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		atStore, err := attendance.NewPostgresStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}

		userStore = idStore
		sessStore = session.NewPostgresStore(pool)
		rosterStore = stStore
		marksStore = atStore
	} else {
		log.Info("db.disabled.inmemory_store")
		userStore = identity.NewMemoryStore()
		sessStore = session.NewMemoryStore()
		rosterStore = students.NewMemoryStore()
		marksStore = attendance.NewMemoryStore()
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		closePool(pool)
		return nil, err
	}
	tokens, err := session.NewJWTManager(sessCfg)
	if err != nil {
		closePool(pool)
		return nil, err
	}
	hasher := password.Config{Cost: EnvInt("ROLLCALL_BCRYPT_COST", password.DefaultConfig().Cost)}
	if err := hasher.ValidateConfig(); err != nil {
		closePool(pool)
		return nil, err
	}
	sessions := session.NewService(sessCfg, userStore, sessStore, tokens, hasher)

	authCfg := authapi.LoadConfigFromEnv()
	authHandler, err := authapi.NewHandler(log, authCfg, sessions)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	key, err := ageKey(cfg, log)
	if err != nil {
		closePool(pool)
		return nil, err
	}
	cipher, err := fieldcrypt.New(key)
	if err != nil {
		closePool(pool)
		return nil, err
	}
	rosterSvc, err := students.NewService(rosterStore, cipher)
	if err != nil {
		closePool(pool)
		return nil, err
	}
	rosterHandler, err := students.NewHandler(log, rosterSvc, authCfg.MaxBodyBytes)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	hub := livefeed.NewHub(log)
	feed := livefeed.NewGateway(log, hub, sessions, authCfg.CookieName)

	marksHandler, err := attendance.NewHandler(log, marksStore, hub, authCfg.MaxBodyBytes)
	if err != nil {
		closePool(pool)
		return nil, err
	}

	return &App{
		cfg:        cfg,
		log:        log,
		dbPool:     pool,
		dbEnabled:  dbEnabled,
		auth:       authHandler,
		students:   rosterHandler,
		attendance: marksHandler,
		feed:       feed,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.auth, a.students, a.attendance, a.feed)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	closePool(a.dbPool)
	a.log.Info("server.stopped")
	return nil
}

func closePool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
