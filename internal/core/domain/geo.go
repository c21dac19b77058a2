package domain

import "strconv"

// GeoPoint represents a geographic coordinate (WGS 84).
// Two points are the same waypoint target only if both fields are exactly equal.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Add returns p shifted by delta.
func (p GeoPoint) Add(delta GeoPoint) GeoPoint {
	return GeoPoint{Lat: p.Lat + delta.Lat, Lng: p.Lng + delta.Lng}
}

// String formats the point as "[lat, lng]".
func (p GeoPoint) String() string {
	return "[" + strconv.FormatFloat(p.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(p.Lng, 'f', -1, 64) + "]"
}

// RobotPose is the robot's reported position and heading in degrees.
type RobotPose struct {
	GeoPoint
	Heading float64 `json:"heading"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p lies inside b (edges included).
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
