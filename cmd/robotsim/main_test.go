package main

import (
	"testing"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/pkg/geospatial"
)

func TestSimulator_TurnsAtEdge(t *testing.T) {
	start := domain.RobotPose{GeoPoint: domain.GeoPoint{Lat: 44.96945, Lng: -93.5174}}
	sim := &simulator{
		pose:  start,
		delta: domain.GeoPoint{Lat: 0.0001},
		area:  geospatial.BoundingBox(start.Lat, start.Lng, 25),
	}

	turned := false
	for i := 0; i < 20; i++ {
		p := sim.step()
		if !sim.area.Contains(p.GeoPoint) {
			t.Fatalf("step %d left the patrol area: %v", i, p.GeoPoint)
		}
		if sim.delta.Lat < 0 {
			turned = true
		}
	}
	if !turned {
		t.Error("expected the simulator to have turned back")
	}
}

func TestSimulator_Heading(t *testing.T) {
	start := domain.RobotPose{GeoPoint: domain.GeoPoint{Lat: 44.96945, Lng: -93.5174}}
	sim := &simulator{
		pose:  start,
		delta: domain.GeoPoint{Lat: 0.0001},
		area:  geospatial.BoundingBox(start.Lat, start.Lng, 1000),
	}
	if h := sim.step().Heading; h > 0.01 && h < 359.99 {
		t.Errorf("expected a northbound heading, got %v", h)
	}
}
