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
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/navboard/navboard/internal/adapters/http"
	"github.com/navboard/navboard/internal/adapters/local"
	natsadapter "github.com/navboard/navboard/internal/adapters/nats"
	"github.com/navboard/navboard/internal/adapters/postgres"
	"github.com/navboard/navboard/internal/adapters/valkey"
	"github.com/navboard/navboard/internal/core/ports"
	"github.com/navboard/navboard/internal/core/usecases"
	"github.com/navboard/navboard/internal/pkg/config"
	"github.com/navboard/navboard/internal/pkg/logging"
	"github.com/navboard/navboard/internal/pkg/telemetry"
	"github.com/navboard/navboard/internal/workflows"
)

func main() {
	cfg, err := config.Load("navboard-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry init failed", "error", err)
	} else {
		defer telemetry.Shutdown(shutdownTracer)
	}

	deps := &http.Dependencies{StaticDir: cfg.Paths.StaticDir}

	// Event broker: NATS when enabled, otherwise in-process
	var publisher ports.EventPublisher
	broker := local.NewBroker()
	publisher, deps.Events = broker, broker
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, using in-process events", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			deps.Events = natsadapter.NewSubscriber(pub.Conn())
			deps.NATS = pub.Conn()
		}
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
		}
	}

	// Storage
	var (
		waypointRepo ports.WaypointRepository = local.NewWaypointStore()
		missionRepo  ports.MissionRepository  = local.NewMissionStore(cfg.Paths.MissionDir)
	)
	if cfg.Storage.Driver == "postgres" {
		db, err := postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportStats(ctx, 15*time.Second)
		waypointRepo = postgres.NewWaypointRepo(db)
		missionRepo = postgres.NewMissionRepo(db)
		deps.DB = db
	}

	// Use cases
	logs := usecases.NewLogService(publisher, "")
	waypoints := usecases.NewWaypointService(waypointRepo, logs, usecases.NewCommandLog(cfg.Server.MaxPending, time.Hour))
	if err := waypoints.Restore(ctx); err != nil {
		log.Fatalf("restore waypoints: %v", err)
	}
	deps.Waypoints = waypoints
	deps.Missions = usecases.NewMissionService(missionRepo, waypoints, logs, cfg.Paths.ExportDir).WithCache(cache)
	deps.Zones = usecases.NewZoneService(cfg.Paths.ZonesFile, cache, 300)
	deps.Telemetry = usecases.NewTelemetryService(cfg.Robot.Start(), publisher)
	deps.Logs = logs

	// Mission loads run as a Temporal saga when enabled
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    temporallog.NewStructuredLogger(slog.Default()),
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		defer tc.Close()

		w := workflows.NewWorker(tc, cfg.Temporal.TaskQueue, &workflows.MissionActivities{
			Missions:  missionRepo,
			Waypoints: waypoints,
			Logs:      logs,
		})
		if err := w.Start(); err != nil {
			log.Fatalf("temporal worker: %v", err)
		}
		defer w.Stop()
		deps.Loader = workflows.NewRunner(tc, cfg.Temporal.TaskQueue)
		slog.Info("mission loads routed through temporal", "task_queue", cfg.Temporal.TaskQueue)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "navboard",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps, http.Options{RateLimit: cfg.Server.RateLimit})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
