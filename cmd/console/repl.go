package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/navboard/navboard/internal/board"
	"github.com/navboard/navboard/internal/core/domain"
	"github.com/navboard/navboard/internal/pkg/geospatial"
)

const prompt = "> "

const helpText = `commands:
  mode <move|waypoints|keepout>   select the interaction mode
  click <lat> <lng>               click the map
  drag <id> <lat> <lng>           move a waypoint
  rm <id> | rm <lat> <lng>        remove a waypoint
  clear                           remove every waypoint
  save|load|export <name>         mission file actions
  keepout                         toggle the keepout overlay
  sync                            replace the list with the backend's
  robot [dlat dlng]               step the robot marker
  show                            print the board state
  log                             print the visible console lines
  scroll <n>                      scroll the console by n lines
  quit`

var errUsage = errors.New("usage")

type repl struct {
	board     *board.Board
	out       io.Writer
	robotStep domain.GeoPoint
}

// exec runs one command line. It reports true when the session should end.
func (r *repl) exec(line string) (bool, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(f[0]), f[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(r.out, helpText)
		return false, nil
	case "mode":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: mode <move|waypoints|keepout>", errUsage)
		}
		m, err := board.ParseMode(args[0])
		if err != nil {
			return false, err
		}
		return false, r.board.SelectMode(m)
	case "click":
		p, err := parsePoint(args)
		if err != nil {
			return false, err
		}
		action, err := r.board.Click(p)
		if err != nil {
			return false, err
		}
		if action == board.ActionNone {
			fmt.Fprintln(r.out, "click ignored in this mode")
		}
		return false, nil
	case "drag":
		if len(args) != 3 {
			return false, fmt.Errorf("%w: drag <id> <lat> <lng>", errUsage)
		}
		p, err := parsePoint(args[1:])
		if err != nil {
			return false, err
		}
		ok, err := r.board.DragWaypoint(args[0], p)
		if err == nil && !ok {
			fmt.Fprintf(r.out, "no waypoint %s\n", args[0])
		}
		return false, err
	case "rm":
		var (
			ok  bool
			err error
		)
		switch len(args) {
		case 1:
			ok, err = r.board.RemoveWaypoint(args[0])
		case 2:
			var p domain.GeoPoint
			if p, err = parsePoint(args); err != nil {
				return false, err
			}
			ok, err = r.board.RemoveAt(p)
		default:
			return false, fmt.Errorf("%w: rm <id> | rm <lat> <lng>", errUsage)
		}
		if err == nil && !ok {
			fmt.Fprintln(r.out, "no such waypoint")
		}
		return false, err
	case "clear":
		return false, r.board.ClearWaypoints()
	case "save", "load", "export":
		name := strings.Join(args, " ")
		var err error
		switch cmd {
		case "save":
			_, err = r.board.SaveMission(name)
		case "load":
			_, err = r.board.LoadMission(name)
		default:
			_, err = r.board.ExportWaypoints(name)
		}
		return false, err
	case "keepout":
		return false, r.board.ToggleKeepout()
	case "sync":
		return false, r.board.Reconcile()
	case "robot":
		delta := r.robotStep
		if len(args) > 0 {
			p, err := parsePoint(args)
			if err != nil {
				return false, err
			}
			delta = p
		}
		return false, r.board.AdvanceRobot(delta)
	case "show":
		st, err := r.board.Snapshot()
		if err != nil {
			return false, err
		}
		r.show(st)
		return false, nil
	case "log":
		lines, bottom, err := r.board.ConsoleView()
		if err != nil {
			return false, err
		}
		for _, l := range lines {
			fmt.Fprintln(r.out, l)
		}
		if !bottom {
			fmt.Fprintln(r.out, "-- more below --")
		}
		return false, nil
	case "scroll":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: scroll <n>", errUsage)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return false, fmt.Errorf("scroll: %w", err)
		}
		return false, r.board.ScrollConsole(n)
	}
	return false, fmt.Errorf("unknown command %q, try help", cmd)
}

func (r *repl) show(st board.State) {
	fmt.Fprintf(r.out, "mode: %s\n", st.Mode)
	fmt.Fprintf(r.out, "robot: [%.6f, %.6f] heading %.1f\n", st.Robot.Lat, st.Robot.Lng, st.Robot.Heading)
	for i, wp := range st.Waypoints {
		fmt.Fprintf(r.out, "  %d. %s [%.6f, %.6f]\n", i+1, wp.ID, wp.Lat, wp.Lng)
	}
	fmt.Fprintf(r.out, "route: %d waypoints, %.1f m\n", len(st.Waypoints), geospatial.PathLength(st.Points))
	keepout := "hidden"
	if st.KeepoutLoaded {
		keepout = fmt.Sprintf("%d zones", st.KeepoutZones)
	}
	fmt.Fprintf(r.out, "keepout: %s\n", keepout)
	for name, on := range st.Indicators {
		if on {
			fmt.Fprintf(r.out, "! %s\n", name)
		}
	}
	fmt.Fprintf(r.out, "session %s seq %d queued %d\n", st.Session, st.Seq, st.Queued)
}

func parsePoint(args []string) (domain.GeoPoint, error) {
	if len(args) != 2 {
		return domain.GeoPoint{}, fmt.Errorf("%w: expected <lat> <lng>", errUsage)
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("lng: %w", err)
	}
	return domain.GeoPoint{Lat: lat, Lng: lng}, nil
}
