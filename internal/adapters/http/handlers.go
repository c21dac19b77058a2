package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/core/usecases"
	"github.com/navboard/navboard/internal/pkg/metrics"
)

// Command replies carry what happened to the command and, for sequenced
// commands, the session's applied seq after it. Error replies carry the
// applied seq as well.
const (
	HeaderCommandStatus = "X-Command-Status"
	HeaderAppliedSeq    = "X-Applied-Seq"
)

// sequencing fields shared by all waypoint mutations
type commandMeta struct {
	ID      string `json:"id"`
	Session string `json:"session"`
	Seq     uint64 `json:"seq"`
}

type waypointRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
	commandMeta
}

type updateWaypointRequest struct {
	OldLat *float64 `json:"old_lat"`
	OldLng *float64 `json:"old_lng"`
	NewLat *float64 `json:"new_lat"`
	NewLng *float64 `json:"new_lng"`
	commandMeta
}

type fileRequest struct {
	FileName string `json:"file_name"`
}

type poseRequest struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Heading float64  `json:"heading"`
}

func point(lat, lng *float64) (domain.GeoPoint, bool) {
	if lat == nil || lng == nil {
		return domain.GeoPoint{}, false
	}
	return domain.GeoPoint{Lat: *lat, Lng: *lng}, true
}

func (m commandMeta) command(op domain.Op) domain.Command {
	return domain.Command{Session: m.Session, Seq: m.Seq, ID: m.ID, Op: op}
}

// AddWaypointHandler appends a waypoint to the active list.
func AddWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req waypointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, ok := point(req.Lat, req.Lng)
		if !ok {
			return errBadRequest(c, "lat and lng are required")
		}

		cmd := req.command(domain.OpAdd)
		cmd.Point = p
		return applyCommand(c, deps, cmd, "Added waypoint: "+p.String()+" successfully")
	}
}

// DeleteWaypointHandler removes a waypoint, by id when given, otherwise the
// first one at exactly lat/lng.
func DeleteWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req waypointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, ok := point(req.Lat, req.Lng)
		if !ok && req.ID == "" {
			return errBadRequest(c, "lat and lng (or id) are required")
		}

		cmd := req.command(domain.OpRemove)
		cmd.Point = p
		return applyCommand(c, deps, cmd, "Deleted waypoint: "+p.String()+" successfully")
	}
}

// UpdateWaypointHandler moves a waypoint in place.
func UpdateWaypointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateWaypointRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		oldP, okOld := point(req.OldLat, req.OldLng)
		newP, okNew := point(req.NewLat, req.NewLng)
		if !okNew || (!okOld && req.ID == "") {
			return errBadRequest(c, "old_lat, old_lng, new_lat and new_lng are required")
		}

		cmd := req.command(domain.OpUpdate)
		cmd.Old = oldP
		cmd.Point = newP
		return applyCommand(c, deps, cmd, "Updated waypoint: "+oldP.String()+" -> "+newP.String()+" successfully")
	}
}

// ClearWaypointsHandler empties the active list.
func ClearWaypointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cmd := domain.Command{Op: domain.OpClear, Session: c.Query("session")}
		if raw := c.Query("seq"); raw != "" {
			seq, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return errBadRequest(c, "seq must be a positive integer")
			}
			cmd.Seq = seq
		}
		return applyCommand(c, deps, cmd, "Cleared waypoints")
	}
}

func applyCommand(c *fiber.Ctx, deps *Dependencies, cmd domain.Command, success string) error {
	res, err := deps.Waypoints.Apply(c.UserContext(), cmd)
	if cmd.Sequenced() {
		c.Set(HeaderAppliedSeq, strconv.FormatUint(res.AppliedSeq, 10))
	}
	if err != nil {
		metrics.WaypointCommands.WithLabelValues(string(cmd.Op), "error").Inc()
		if errors.Is(err, domain.ErrCommandGap) || errors.Is(err, domain.ErrUnknownSession) {
			LoggerFromCtx(c.UserContext()).Warn("command rejected",
				"session", cmd.Session, "seq", cmd.Seq, "op", cmd.Op, "error", err)
		}
		return domainError(c, err)
	}
	metrics.WaypointCommands.WithLabelValues(string(cmd.Op), string(res.Status)).Inc()
	metrics.ActiveWaypoints.Set(float64(len(deps.Waypoints.List())))

	c.Set(HeaderCommandStatus, string(res.Status))
	switch res.Status {
	case usecases.StatusQueued:
		LoggerFromCtx(c.UserContext()).Debug("command queued", "session", cmd.Session, "seq", cmd.Seq, "op", cmd.Op)
		return c.Status(fiber.StatusAccepted).SendString(fmt.Sprintf("Queued %s #%d", cmd.Op, cmd.Seq))
	case usecases.StatusDuplicate:
		return c.SendString(fmt.Sprintf("Duplicate %s #%d ignored", cmd.Op, cmd.Seq))
	}
	return c.SendString(success)
}

// ListWaypointsHandler returns the active list. With ?session= it also
// reports the last seq applied for that session.
func ListWaypointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session := c.Query("session"); session != "" {
			c.Set(HeaderAppliedSeq, strconv.FormatUint(deps.Waypoints.AppliedSeq(session), 10))
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(deps.Waypoints.List())
	}
}

// SaveMissionHandler stores the active list under file_name.
func SaveMissionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req fileRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		m, err := deps.Missions.Save(c.UserContext(), req.FileName)
		if err != nil {
			return missionError(c, "save", err)
		}
		metrics.MissionOps.WithLabelValues("save", "ok").Inc()
		return c.SendString("Saved Mission: " + m.Name)
	}
}

// LoadMissionHandler activates a stored mission and returns it.
func LoadMissionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req fileRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		name, err := usecases.ValidateFileName(req.FileName)
		if err != nil {
			return missionError(c, "load", err)
		}
		m, err := deps.loader().LoadMission(c.UserContext(), name)
		if err != nil {
			return missionError(c, "load", err)
		}
		metrics.MissionOps.WithLabelValues("load", "ok").Inc()
		metrics.ActiveWaypoints.Set(float64(len(m.Waypoints)))
		return c.JSON(m)
	}
}

// ExportWaypointsHandler writes the active list as CSV.
func ExportWaypointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req fileRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if _, err := deps.Missions.Export(c.UserContext(), req.FileName); err != nil {
			return missionError(c, "export", err)
		}
		metrics.MissionOps.WithLabelValues("export", "ok").Inc()
		return c.SendString("Exported waypoints")
	}
}

// ListMissionsHandler returns one page of stored missions, ordered by name.
func ListMissionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		missions, err := deps.Missions.List(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}

		p := parsePagination(c, len(missions))
		start, end := p.window()
		page := append([]domain.Mission{}, missions[start:end]...)

		SetLinkHeaders(c, p)
		return c.JSON(PaginatedResponse{Data: page, Pagination: p})
	}
}

func missionError(c *fiber.Ctx, op string, err error) error {
	metrics.MissionOps.WithLabelValues(op, "error").Inc()
	return domainError(c, err)
}

// ReportPoseHandler ingests a robot telemetry report.
func ReportPoseHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req poseRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		p, ok := point(req.Lat, req.Lng)
		if !ok {
			return errBadRequest(c, "lat and lng are required")
		}
		if err := deps.Telemetry.Report(c.UserContext(), domain.RobotPose{GeoPoint: p, Heading: req.Heading}); err != nil {
			return errBadRequest(c, err.Error())
		}
		metrics.PoseReports.Inc()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GetPoseHandler returns the latest robot pose.
func GetPoseHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pose, at := deps.Telemetry.Latest()
		resp := fiber.Map{"lat": pose.Lat, "lng": pose.Lng, "heading": pose.Heading}
		if !at.IsZero() {
			resp["updated_at"] = at.UTC()
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(resp)
	}
}

// KeepoutZonesHandler serves the predefined keepout feature collection.
func KeepoutZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Zones.Document(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Content-Type", "application/geo+json")
		return c.Send(data)
	}
}

// ZoneContainsHandler reports whether ?lat&lng falls in a keepout zone.
func ZoneContainsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
		if errLat != nil || errLng != nil {
			return errBadRequest(c, "lat and lng are required")
		}
		inside, err := deps.Zones.Contains(c.UserContext(), domain.GeoPoint{Lat: lat, Lng: lng})
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"inside": inside})
	}
}
