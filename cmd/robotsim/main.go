package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/navboard/navboard/internal/adapters/backend"
	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/pkg/config"
	"github.com/navboard/navboard/internal/pkg/geospatial"
	"github.com/navboard/navboard/internal/pkg/logging"
)

// robotsim drives a fake robot from the configured start pose, stepping by
// the configured delta every interval and reporting each pose to the
// backend. It turns back when it leaves the patrol radius.
func main() {
	radius := flag.Float64("radius", 200, "patrol radius in meters around the start pose")
	flag.Parse()

	cfg, err := config.Load("navboard-robotsim")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.New(cfg.Board.BackendURL, nil)
	start := cfg.Robot.Start()
	area := geospatial.BoundingBox(start.Lat, start.Lng, *radius)

	sim := &simulator{pose: start, delta: cfg.Robot.Delta(), area: area}
	interval := time.Duration(cfg.Robot.IntervalMS) * time.Millisecond

	slog.Info("robot simulator started", "backend", cfg.Board.BackendURL, "interval", interval, "radius_m", *radius)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("robot simulator stopped")
			return
		case <-ticker.C:
			pose := sim.step()
			reqCtx, cancel := context.WithTimeout(ctx, cfg.Board.Timeout())
			if err := client.ReportPose(reqCtx, pose); err != nil {
				slog.Warn("pose report failed", "error", err)
			}
			cancel()
		}
	}
}

type simulator struct {
	pose  domain.RobotPose
	delta domain.GeoPoint
	area  domain.Bounds
}

func (s *simulator) step() domain.RobotPose {
	next := s.pose.Add(s.delta)
	if !s.area.Contains(next) {
		s.delta = domain.GeoPoint{Lat: -s.delta.Lat, Lng: -s.delta.Lng}
		next = s.pose.Add(s.delta)
	}
	s.pose = domain.RobotPose{GeoPoint: next, Heading: geospatial.Bearing(s.pose.GeoPoint, next)}
	return s.pose
}
