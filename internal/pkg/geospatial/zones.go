package geospatial

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/navboard/navboard/internal/core/domain"
)

// ParseZones decodes a GeoJSON feature collection of keepout zones.
// Features without polygon geometry are rejected.
func ParseZones(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse feature collection: %w", err)
	}
	for i, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("feature %d: unsupported geometry %T", i, f.Geometry)
		}
	}
	return fc, nil
}

// InZones reports whether p lies inside any polygon of fc.
func InZones(fc *geojson.FeatureCollection, p domain.GeoPoint) bool {
	if fc == nil {
		return false
	}
	pt := orb.Point{p.Lng, p.Lat}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, pt) {
				return true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, pt) {
				return true
			}
		}
	}
	return false
}
