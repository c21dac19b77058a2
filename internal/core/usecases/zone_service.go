package usecases

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/ports"
	"github.com/navboard/navboard/internal/pkg/geospatial"
)

const zonesCacheKey = "navboard:zones:default"

// ZoneService serves the predefined keepout zone document.
type ZoneService struct {
	path  string
	cache ports.CacheService
	ttl   int
}

// NewZoneService creates a ZoneService reading the feature collection at path.
// cache may be nil.
func NewZoneService(path string, cache ports.CacheService, ttlSeconds int) *ZoneService {
	if ttlSeconds <= 0 {
		ttlSeconds = 300
	}
	return &ZoneService{path: path, cache: cache, ttl: ttlSeconds}
}

// Document returns the raw, validated GeoJSON document.
func (s *ZoneService) Document(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, zonesCacheKey); err == nil && len(data) > 0 {
			return data, nil
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read zones %s: %w", s.path, err)
	}
	if _, err := geospatial.ParseZones(data); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, zonesCacheKey, data, s.ttl)
	}
	return data, nil
}

// Zones returns the parsed feature collection.
func (s *ZoneService) Zones(ctx context.Context) (*geojson.FeatureCollection, error) {
	data, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return geospatial.ParseZones(data)
}

// Contains reports whether p falls inside any predefined keepout zone.
func (s *ZoneService) Contains(ctx context.Context, p domain.GeoPoint) (bool, error) {
	fc, err := s.Zones(ctx)
	if err != nil {
		return false, err
	}
	return geospatial.InZones(fc, p), nil
}
