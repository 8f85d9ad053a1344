package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/stepwise/internal/adapters/http"
	natsadapter "github.com/samirrijal/stepwise/internal/adapters/nats"
	"github.com/samirrijal/stepwise/internal/adapters/postgres"
	temporaladapter "github.com/samirrijal/stepwise/internal/adapters/temporal"
	"github.com/samirrijal/stepwise/internal/adapters/valkey"
	"github.com/samirrijal/stepwise/internal/core/ports"
	"github.com/samirrijal/stepwise/internal/core/usecases"
	"github.com/samirrijal/stepwise/internal/pkg/config"
	"github.com/samirrijal/stepwise/internal/pkg/logging"
	"github.com/samirrijal/stepwise/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("stepwise-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)

	tuning, err := cfg.Navigation.Tuning()
	if err != nil {
		log.Fatalf("navigation config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolStats(ctx, 15*time.Second)

	// Cache. Services take interfaces, so a failed client must stay a nil
	// interface rather than a nil *valkey.Cache.
	var routeCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, "stepwise:")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		routeCache = cache
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, session events will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	var natsConn *nats.Conn
	if pub != nil {
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
		}
	}

	// Temporal safety escalation
	var escalator ports.SafetyEscalator
	if cfg.Temporal.Enabled {
		esc, err := temporaladapter.NewEscalator(cfg.Temporal.HostPort, cfg.Temporal.Namespace, cfg.Temporal.TaskQueue)
		if err != nil {
			slog.Warn("temporal unavailable, geofence alerts will not be escalated", "error", err)
		} else {
			defer esc.Close()
			escalator = esc
		}
	}

	// Use cases
	routeSvc := usecases.NewRouteService(postgres.NewRouteRepo(db), routeCache)
	sessionSvc := usecases.NewSessionService(routeSvc, publisher, escalator, usecases.SessionOptions{
		Tuning:      tuning,
		TTL:         cfg.Navigation.SessionTTL,
		MaxSessions: cfg.Navigation.MaxSessions,
	})
	go sessionSvc.Run(ctx, time.Minute)

	// Devices that cannot hold an HTTP connection push samples through NATS.
	if cfg.NATS.SubscribeSamples && pub != nil {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			slog.Warn("sample subscriber unavailable", "error", err)
		} else {
			defer sub.Close()
			if err := sub.SubscribeSamples(ctx, sessionSvc.HandleSample); err != nil {
				slog.Warn("subscribe samples failed", "error", err)
			} else {
				slog.Info("consuming samples", "subject", natsadapter.SampleSubjectPrefix+">")
			}
		}
	}

	deps := &http.Dependencies{
		Routes:   routeSvc,
		Sessions: sessionSvc,
		NATS:     natsConn,
		DB:       db,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024, // samples are tiny
		AppName:      "Stepwise API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "geofence_mode", tuning.GeofenceMode)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String(), "sessions", sessionSvc.Count())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
