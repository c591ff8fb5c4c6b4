package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AdamBeresnev/chesseirb/internal/config"
	"github.com/AdamBeresnev/chesseirb/internal/db"
	"github.com/AdamBeresnev/chesseirb/internal/events"
	"github.com/AdamBeresnev/chesseirb/internal/live"
	"github.com/AdamBeresnev/chesseirb/internal/metrics"
	"github.com/AdamBeresnev/chesseirb/internal/middleware"
	"github.com/AdamBeresnev/chesseirb/internal/service"
	"github.com/AdamBeresnev/chesseirb/internal/timeparse"
	"github.com/AdamBeresnev/chesseirb/internal/token"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	configPath := os.Getenv("CHESSEIRB_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	middleware.InitAuth(cfg.Auth)

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Server.SessionLifetime
	if cfg.Database.Driver == "sqlite3" {
		sessionManager.Store = sqlite3store.New(database.DB)
	} else {
		sessionManager.Store = memstore.New()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)
	hub := live.NewHub(cfg.Server.AllowedOrigins)

	app := &application{
		cfg:      cfg,
		services: service.New(database, events.Fanout{hub, recorder}),
		sessions: sessionManager,
		tokens:   token.NewService(cfg.JWT.Secret, cfg.JWT.DefaultTTL),
		hub:      hub,
		metrics:  recorder,
		limiter:  middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst),
		times:    timeparse.New(),
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: app.routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
