package board

import (
	"context"
	"log/slog"
	"strings"

	"github.com/navboard/navboard/internal/core/domain"
)

// Indicator names. Each one is a field highlighted on error.
const (
	IndicatorWaypoints   = "waypoints"
	IndicatorSaveMission = "saveMissionFilename"
	IndicatorLoadMission = "loadMissionFilename"
	IndicatorExport      = "waypointsFilename"
)

// Indicators tracks which fields are highlighted.
type Indicators map[string]bool

func (i Indicators) Set(name string, on bool) {
	if on {
		i[name] = true
		return
	}
	delete(i, name)
}

func (i Indicators) On(name string) bool { return i[name] }

func (i Indicators) clone() map[string]bool {
	out := make(map[string]bool, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// MissionActions are the save/load/export pass-throughs. A blank file name
// sets the field's indicator and sends nothing.
type MissionActions struct {
	backend    Backend
	spawn      spawnFunc
	indicators Indicators
	logf       func(level, msg string)
	onLoaded   func(*domain.Mission)
}

func newMissionActions(backend Backend, spawn spawnFunc, ind Indicators, logf func(level, msg string), onLoaded func(*domain.Mission)) *MissionActions {
	return &MissionActions{
		backend:    backend,
		spawn:      spawn,
		indicators: ind,
		logf:       logf,
		onLoaded:   onLoaded,
	}
}

// Save asks the backend to store the active waypoints under name.
func (m *MissionActions) Save(name string) bool {
	return m.run(IndicatorSaveMission, name, func(ctx context.Context, name string) (string, error) {
		return m.backend.SaveMission(ctx, name)
	}, nil)
}

// Load asks the backend to activate a stored mission; on success the local
// list is replaced with the mission's waypoints.
func (m *MissionActions) Load(name string) bool {
	var loaded *domain.Mission
	return m.run(IndicatorLoadMission, name, func(ctx context.Context, name string) (string, error) {
		mission, err := m.backend.LoadMission(ctx, name)
		if err != nil {
			return "", err
		}
		loaded = mission
		return "Loaded mission " + mission.Name, nil
	}, func() {
		if m.onLoaded != nil {
			m.onLoaded(loaded)
		}
	})
}

// Export asks the backend to write the active waypoints as CSV.
func (m *MissionActions) Export(name string) bool {
	return m.run(IndicatorExport, name, func(ctx context.Context, name string) (string, error) {
		return m.backend.ExportWaypoints(ctx, name)
	}, nil)
}

func (m *MissionActions) run(field, name string, call func(context.Context, string) (string, error), onSuccess func()) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		m.indicators.Set(field, true)
		return false
	}

	m.spawn(func(ctx context.Context) func() {
		resp, err := call(ctx, name)
		return func() {
			if err != nil {
				m.indicators.Set(field, true)
				m.logf(domain.LevelError, err.Error())
				return
			}
			m.indicators.Set(field, false)
			if onSuccess != nil {
				onSuccess()
			}
			slog.Debug("mission action done", "field", field, "response", resp)
		}
	})
	return true
}
