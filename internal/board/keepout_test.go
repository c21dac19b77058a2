package board

import (
	"context"
	"errors"
	"testing"

	"github.com/navboard/navboard/internal/core/domain"
)

func TestKeepoutOverlay_Toggle(t *testing.T) {
	fetches := 0
	o := NewKeepoutOverlay(func(ctx context.Context) ([]byte, error) {
		fetches++
		return []byte(squareZone), nil
	})
	ctx := context.Background()

	if err := o.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if !o.Loaded() || o.Count() != 1 {
		t.Fatalf("expected loaded overlay with 1 zone, got %v/%d", o.Loaded(), o.Count())
	}
	if !o.Contains(domain.GeoPoint{Lat: 44.965, Lng: -93.515}) {
		t.Error("expected point inside zone")
	}

	if err := o.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	if o.Loaded() || o.Zones() != nil || o.Count() != 0 {
		t.Error("expected all geometry removed")
	}
	if o.Contains(domain.GeoPoint{Lat: 44.965, Lng: -93.515}) {
		t.Error("unloaded overlay must not contain anything")
	}

	o.Unload()
	if fetches != 1 {
		t.Errorf("expected 1 fetch, got %d", fetches)
	}
}

func TestKeepoutOverlay_LoadFailures(t *testing.T) {
	tests := map[string]func(ctx context.Context) ([]byte, error){
		"fetch": func(ctx context.Context) ([]byte, error) { return nil, errors.New("timeout") },
		"parse": func(ctx context.Context) ([]byte, error) { return []byte("not json"), nil },
	}
	for name, fetch := range tests {
		o := NewKeepoutOverlay(fetch)
		if _, err := o.Load(context.Background()); err == nil {
			t.Errorf("%s: expected error", name)
		}
		if o.Loaded() {
			t.Errorf("%s: overlay must stay unloaded", name)
		}
	}
}
