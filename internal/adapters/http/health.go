package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler is the liveness probe.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"uptime":    time.Since(startedAt).Round(time.Second).String(),
			"waypoints": len(deps.Waypoints.List()),
		})
	}
}

// readinessCheck returns nil when the dependency is usable. A nil check
// means the dependency is not configured.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

func readinessChecks(deps *Dependencies) []readinessCheck {
	checks := []readinessCheck{
		{name: "zones", check: func(ctx context.Context) error {
			_, err := deps.Zones.Document(ctx)
			return err
		}},
		{name: "database"},
		{name: "nats"},
		{name: "cache"},
	}
	if deps.DB != nil {
		checks[1].check = func(ctx context.Context) error { return deps.DB.Pool.Ping(ctx) }
	}
	if deps.NATS != nil {
		checks[2].check = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	if deps.Cache != nil {
		checks[3].check = deps.Cache.Ping
	}
	return checks
}

type readinessError string

func (e readinessError) Error() string { return string(e) }

const errDisconnected readinessError = "disconnected"

// ReadyHandler is the readiness probe. Storage, NATS and the cache are
// optional; the keepout zones document must load.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]string)
		ready := true
		for _, rc := range readinessChecks(deps) {
			if rc.check == nil {
				results[rc.name] = "not configured"
				continue
			}
			if err := rc.check(ctx); err != nil {
				results[rc.name] = "error: " + err.Error()
				ready = false
			} else {
				results[rc.name] = "ok"
			}
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": results})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
