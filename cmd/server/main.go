package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yuya1213/dental-clinic-app/internal/config"
	"github.com/yuya1213/dental-clinic-app/internal/database"
	"github.com/yuya1213/dental-clinic-app/internal/export"
	"github.com/yuya1213/dental-clinic-app/internal/handler/health"
	"github.com/yuya1213/dental-clinic-app/internal/logging"
	"github.com/yuya1213/dental-clinic-app/internal/migrations"
	"github.com/yuya1213/dental-clinic-app/internal/notify"
	"github.com/yuya1213/dental-clinic-app/internal/server"
	"github.com/yuya1213/dental-clinic-app/internal/submission"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logFile := logging.New(stdout, cfg.Log)
	defer logFile.Close()
	slog.SetDefault(logger)

	checks := map[string]health.Checker{}

	// --- Store ---
	var store server.Store
	if cfg.DatabaseURL != "" {
		pool, err := database.OpenPool(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgres(ctx, pool); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		store = server.NewPGStore(pool)
		checks["postgres"] = poolChecker{pool}
		logger.Info("connected to postgres")
	} else {
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to sqlite: %w", err)
		}
		defer db.Close()

		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		store = server.NewDocStore(db)
		checks["sqlite"] = dbChecker{db}
		logger.Info("connected to sqlite", "path", cfg.DBPath)
	}

	// --- Redis (optional, shares the export lock across instances) ---
	var locker export.Locker
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		locker = export.NewRedisLocker(rdb, cfg.Export.LockTTL, logger)
		checks["redis"] = redisChecker{rdb}
		logger.Info("connected to redis")
	}

	// --- Export ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	builder, err := export.NewPDFBuilder(cfg.Export.FontPath)
	if err != nil {
		return fmt.Errorf("loading pdf font: %w", err)
	}
	renderer := export.NewRodRenderer(cfg.Export.ChromeBin, cfg.Export.ChromeURL, logger)
	defer renderer.Close()

	coord := export.NewCoordinator(renderer, builder, cfg.Profile, logger, export.Options{
		PDFMode:       cfg.Export.PDFMode,
		Capture:       cfg.Export.Capture,
		RenderTimeout: cfg.Export.RenderTimeout,
		Locker:        locker,
		Metrics:       export.NewMetrics(reg),
		ViewportWidth: cfg.Export.ViewportWidth,
	})
	logger.Info("export configured",
		"pdf_mode", cfg.Export.PDFMode,
		"capture", cfg.Export.Capture,
		"pdf_lang", builder.Lang(),
	)

	// --- Sessions ---
	sessions := server.NewSessions(func(id string, onChange func(*submission.Flow)) *submission.Flow {
		return submission.New(store, coord, cfg.Profile, submission.Options{
			ID:       id,
			Now:      cfg.Now,
			Logger:   logger,
			OnChange: onChange,
		})
	}, cfg.SessionTTL, logger)

	deps := server.Deps{
		Store:    store,
		Exporter: coord,
		Sessions: sessions,
		Profile:  cfg.Profile,
		SPADir:   cfg.SPADir,
		Now:      cfg.Now,
	}
	if cfg.SMTP.Enabled() {
		deps.Notifier = notify.New(cfg.SMTP, cfg.Profile, logger)
		logger.Info("result mail enabled", "host", cfg.SMTP.Host)
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, deps, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	g.Go(func() error {
		return sessions.Run(gctx)
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// poolChecker adapts *pgxpool.Pool to health.Checker.
type poolChecker struct{ pool *pgxpool.Pool }

func (p poolChecker) Check(ctx context.Context) error { return p.pool.Ping(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
