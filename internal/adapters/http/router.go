package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/navboard/navboard/api"
	"github.com/navboard/navboard/internal/pkg/metrics"
	"github.com/navboard/navboard/internal/pkg/telemetry"
)

// Options tunes the middleware stack.
type Options struct {
	RateLimit      int           // requests per minute per IP; 0 disables
	RequestTimeout time.Duration // per-request handler timeout
	Docs           []byte        // OpenAPI document served under /docs
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 15 * time.Second
	}
	if o.Docs == nil {
		o.Docs = api.OpenAPI
	}
	return o
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, opts Options) {
	opts = opts.withDefaults()

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(telemetry.Middleware())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return errTooManyRequests(c, "too many requests, please try again later")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/health", HealthHandler(deps))
	app.Get("/ready", ReadyHandler(deps))

	with := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, opts.RequestTimeout)
	}

	// Waypoint commands
	app.Post("/add_waypoint", with(AddWaypointHandler(deps)))
	app.Post("/del_waypoint", with(DeleteWaypointHandler(deps)))
	app.Post("/update_waypoint", with(UpdateWaypointHandler(deps)))
	app.Get("/clear_waypoints", with(ClearWaypointsHandler(deps)))
	app.Get("/waypoints", with(ListWaypointsHandler(deps)))

	// Missions
	app.Post("/save_mission", with(SaveMissionHandler(deps)))
	app.Post("/load_mission", with(LoadMissionHandler(deps)))
	app.Post("/export_waypoints", with(ExportWaypointsHandler(deps)))
	app.Get("/missions", with(ListMissionsHandler(deps)))

	// Robot telemetry
	app.Post("/robot/pose", with(ReportPoseHandler(deps)))
	app.Get("/robot/pose", GetPoseHandler(deps))

	// Keepout zones; the file route is registered ahead of the static mount
	app.Get("/static/zones/default_keepout_zones.json", with(KeepoutZonesHandler(deps)))
	app.Get("/zones/contains", with(ZoneContainsHandler(deps)))
	if deps.StaticDir != "" {
		app.Static("/static", deps.StaticDir)
	}

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app, opts.Docs)

	// WebSocket
	if deps.Events != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.Events)))
	}
}
