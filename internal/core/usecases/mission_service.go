package usecases

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/ports"
)

const (
	maxFileNameLen   = 128
	missionsCacheKey = "navboard:missions:index"
	missionsCacheTTL = 60
)

// ValidateFileName trims name and checks it is usable as a mission or export
// file name: 1-128 characters from [A-Za-z0-9._-], not starting with a dot.
func ValidateFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty name: %w", domain.ErrInvalidFileName)
	}
	if len(name) > maxFileNameLen {
		return "", fmt.Errorf("name longer than %d characters: %w", maxFileNameLen, domain.ErrInvalidFileName)
	}
	if name[0] == '.' {
		return "", fmt.Errorf("name %q starts with a dot: %w", name, domain.ErrInvalidFileName)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
		default:
			return "", fmt.Errorf("name %q contains %q: %w", name, r, domain.ErrInvalidFileName)
		}
	}
	return name, nil
}

// MissionService handles mission save/load and waypoint export.
type MissionService struct {
	missions  ports.MissionRepository
	waypoints *WaypointService
	logs      *LogService
	exportDir string
	cache     ports.CacheService
	now       func() time.Time
	create    func(path string) (io.WriteCloser, error)
}

// NewMissionService creates a new MissionService writing CSV exports to exportDir.
func NewMissionService(missions ports.MissionRepository, waypoints *WaypointService, logs *LogService, exportDir string) *MissionService {
	return &MissionService{
		missions:  missions,
		waypoints: waypoints,
		logs:      logs,
		exportDir: exportDir,
		now:       time.Now,
		create:    func(path string) (io.WriteCloser, error) { return os.Create(path) },
	}
}

// WithCache enables the read-through mission index cache. Saves invalidate it.
func (s *MissionService) WithCache(cache ports.CacheService) *MissionService {
	s.cache = cache
	return s
}

// Save stores the active waypoints under name, overwriting any previous mission.
func (s *MissionService) Save(ctx context.Context, name string) (*domain.Mission, error) {
	name, err := ValidateFileName(name)
	if err != nil {
		return nil, err
	}

	m := &domain.Mission{
		Name:      name,
		Waypoints: s.waypoints.List(),
		SavedAt:   s.now().UTC(),
	}
	if err := s.missions.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save mission %s: %w", name, err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, missionsCacheKey)
	}

	s.logs.Infof(ctx, "Saved mission %s (%d waypoints)", name, len(m.Waypoints))
	return m, nil
}

// LoadMission replaces the active waypoints with the stored mission.
func (s *MissionService) LoadMission(ctx context.Context, name string) (*domain.Mission, error) {
	name, err := ValidateFileName(name)
	if err != nil {
		return nil, err
	}

	m, err := s.missions.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get mission %s: %w", name, err)
	}
	if err := s.waypoints.Replace(ctx, m.Waypoints); err != nil {
		return nil, err
	}
	m.Waypoints = s.waypoints.List()

	s.logs.Infof(ctx, "Loaded mission %s (%d waypoints)", name, len(m.Waypoints))
	return m, nil
}

// Get returns a stored mission without activating it.
func (s *MissionService) Get(ctx context.Context, name string) (*domain.Mission, error) {
	name, err := ValidateFileName(name)
	if err != nil {
		return nil, err
	}
	return s.missions.Get(ctx, name)
}

// List returns all stored missions.
func (s *MissionService) List(ctx context.Context) ([]domain.Mission, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, missionsCacheKey); err == nil && len(data) > 0 {
			var cached []domain.Mission
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	missions, err := s.missions.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if data, err := json.Marshal(missions); err == nil {
			_ = s.cache.Set(ctx, missionsCacheKey, data, missionsCacheTTL)
		}
	}
	return missions, nil
}

// Export writes the active waypoints to <exportDir>/<name>.csv and returns the path.
func (s *MissionService) Export(ctx context.Context, name string) (string, error) {
	name, err := ValidateFileName(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(s.exportDir, name+".csv")
	f, err := s.create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	wps := s.waypoints.List()
	w := csv.NewWriter(f)
	rows := make([][]string, 0, len(wps)+1)
	rows = append(rows, []string{"Latitude", "Longitude"})
	for _, wp := range wps {
		rows = append(rows, []string{
			strconv.FormatFloat(wp.Lat, 'f', -1, 64),
			strconv.FormatFloat(wp.Lng, 'f', -1, 64),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	s.logs.Infof(ctx, "Exported %d waypoints to %s", len(wps), path)
	return path, nil
}
