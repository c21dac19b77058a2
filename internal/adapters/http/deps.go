package http

import (
	"github.com/nats-io/nats.go"

	"github.com/navboard/navboard/internal/adapters/postgres"
	"github.com/navboard/navboard/internal/adapters/valkey"
	"github.com/navboard/navboard/internal/core/ports"
	"github.com/navboard/navboard/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Waypoints *usecases.WaypointService
	Missions  *usecases.MissionService
	Zones     *usecases.ZoneService
	Telemetry *usecases.TelemetryService
	Logs      *usecases.LogService
	// Loader activates missions; the Temporal runner when enabled,
	// otherwise Missions itself.
	Loader    ports.MissionLoader
	Events    ports.EventSubscriber
	StaticDir string
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}

func (d *Dependencies) loader() ports.MissionLoader {
	if d.Loader != nil {
		return d.Loader
	}
	return d.Missions
}
