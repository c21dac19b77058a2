// Package local provides single-process adapters: an in-memory waypoint
// store, JSON mission files, and an in-process event broker.
package local

import (
	"context"
	"sync"

	"github.com/navboard/navboard/internal/core/domain"
)

// WaypointStore implements ports.WaypointRepository in memory. The list
// does not survive a restart.
type WaypointStore struct {
	mu  sync.Mutex
	wps []domain.Waypoint
}

func NewWaypointStore() *WaypointStore {
	return &WaypointStore{}
}

func (s *WaypointStore) Load(ctx context.Context) ([]domain.Waypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Waypoint, len(s.wps))
	copy(out, s.wps)
	return out, nil
}

func (s *WaypointStore) Save(ctx context.Context, wps []domain.Waypoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wps = make([]domain.Waypoint, len(wps))
	copy(s.wps, wps)
	return nil
}
