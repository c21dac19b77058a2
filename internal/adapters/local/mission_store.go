package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/navboard/navboard/internal/core/domain"
)

// MissionStore implements ports.MissionRepository as one JSON file per
// mission (<dir>/<name>.json). Names are validated by the caller.
type MissionStore struct {
	dir string
}

func NewMissionStore(dir string) *MissionStore {
	return &MissionStore{dir: dir}
}

func (s *MissionStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *MissionStore) Save(ctx context.Context, m *domain.Mission) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create mission dir: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	// Readers never see a partially written mission.
	tmp := s.path(m.Name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(m.Name))
}

func (s *MissionStore) Get(ctx context.Context, name string) (*domain.Mission, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("mission %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var m domain.Mission
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mission %s: %w", name, err)
	}
	return &m, nil
}

func (s *MissionStore) List(ctx context.Context) ([]domain.Mission, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var missions []domain.Mission
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		m, err := s.Get(ctx, strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		missions = append(missions, *m)
	}
	sort.Slice(missions, func(i, j int) bool { return missions[i].Name < missions[j].Name })
	return missions, nil
}
