package board

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/pkg/geospatial"
)

// KeepoutOverlay is the toggle-able set of predefined keepout zones. The
// zones are held only while loaded and are never sent back to the backend.
type KeepoutOverlay struct {
	fetch   func(ctx context.Context) ([]byte, error)
	zones   *geojson.FeatureCollection
	loading bool
}

// NewKeepoutOverlay returns an unloaded overlay that fetches its document
// with fetch.
func NewKeepoutOverlay(fetch func(ctx context.Context) ([]byte, error)) *KeepoutOverlay {
	return &KeepoutOverlay{fetch: fetch}
}

// Fetch downloads and parses the zone document without touching overlay
// state, so it may run off the event loop.
func (o *KeepoutOverlay) Fetch(ctx context.Context) (*geojson.FeatureCollection, error) {
	data, err := o.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch keepout zones: %w", err)
	}
	fc, err := geospatial.ParseZones(data)
	if err != nil {
		return nil, fmt.Errorf("parse keepout zones: %w", err)
	}
	return fc, nil
}

// Load fetches the zones and shows them. On failure the overlay stays
// unloaded.
func (o *KeepoutOverlay) Load(ctx context.Context) (*geojson.FeatureCollection, error) {
	fc, err := o.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	o.Show(fc)
	return fc, nil
}

// Show installs an already fetched collection.
func (o *KeepoutOverlay) Show(fc *geojson.FeatureCollection) {
	o.zones = fc
	o.loading = false
}

// Unload removes the zones. It is a no-op when nothing is loaded.
func (o *KeepoutOverlay) Unload() {
	o.zones = nil
}

// Toggle unloads when loaded and loads otherwise.
func (o *KeepoutOverlay) Toggle(ctx context.Context) error {
	if o.Loaded() {
		o.Unload()
		return nil
	}
	_, err := o.Load(ctx)
	return err
}

func (o *KeepoutOverlay) Loaded() bool { return o.zones != nil }

// Zones returns the loaded collection, or nil.
func (o *KeepoutOverlay) Zones() *geojson.FeatureCollection { return o.zones }

// Count returns the number of zones currently shown.
func (o *KeepoutOverlay) Count() int {
	if o.zones == nil {
		return 0
	}
	return len(o.zones.Features)
}

// Contains reports whether p lies in any loaded zone.
func (o *KeepoutOverlay) Contains(p domain.GeoPoint) bool {
	if o.zones == nil {
		return false
	}
	return geospatial.InZones(o.zones, p)
}
