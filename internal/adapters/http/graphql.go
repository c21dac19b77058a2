package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/navboard/navboard/internal/core/domain"
)

func waypointMaps(wps []domain.Waypoint) []map[string]any {
	out := make([]map[string]any, len(wps))
	for i, wp := range wps {
		out[i] = map[string]any{"id": wp.ID, "lat": wp.Lat, "lng": wp.Lng}
	}
	return out
}

func missionMap(m *domain.Mission) map[string]any {
	return map[string]any{
		"name":      m.Name,
		"saved_at":  m.SavedAt.UTC().Format(time.RFC3339),
		"waypoints": waypointMaps(m.Waypoints),
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"id":  &graphql.Field{Type: graphql.String},
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	missionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mission",
		Fields: graphql.Fields{
			"name":      &graphql.Field{Type: graphql.String},
			"saved_at":  &graphql.Field{Type: graphql.String},
			"waypoints": &graphql.Field{Type: graphql.NewList(waypointType)},
		},
	})

	poseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RobotPose",
		Fields: graphql.Fields{
			"lat":        &graphql.Field{Type: graphql.Float},
			"lng":        &graphql.Field{Type: graphql.Float},
			"heading":    &graphql.Field{Type: graphql.Float},
			"updated_at": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"waypoints": &graphql.Field{
				Type:        graphql.NewList(waypointType),
				Description: "Active waypoint list in traversal order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return waypointMaps(deps.Waypoints.List()), nil
				},
			},
			"missions": &graphql.Field{
				Type:        graphql.NewList(missionType),
				Description: "Stored missions, by name",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					missions, err := deps.Missions.List(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]any, len(missions))
					for i := range missions {
						out[i] = missionMap(&missions[i])
					}
					return out, nil
				},
			},
			"mission": &graphql.Field{
				Type:        missionType,
				Description: "Get a stored mission without activating it",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name, _ := p.Args["name"].(string)
					m, err := deps.Missions.Get(p.Context, name)
					if err != nil {
						return nil, err
					}
					return missionMap(m), nil
				},
			},
			"robot": &graphql.Field{
				Type:        poseType,
				Description: "Latest reported robot pose",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pose, at := deps.Telemetry.Latest()
					out := map[string]any{"lat": pose.Lat, "lng": pose.Lng, "heading": pose.Heading}
					if !at.IsZero() {
						out["updated_at"] = at.UTC().Format(time.RFC3339)
					}
					return out, nil
				},
			},
			"zoneCount": &graphql.Field{
				Type:        graphql.Int,
				Description: "Number of predefined keepout zones",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fc, err := deps.Zones.Zones(p.Context)
					if err != nil {
						return nil, err
					}
					return len(fc.Features), nil
				},
			},
			"inKeepout": &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Whether a point lies inside any keepout zone",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat, _ := p.Args["lat"].(float64)
					lng, _ := p.Args["lng"].(float64)
					return deps.Zones.Contains(p.Context, domain.GeoPoint{Lat: lat, Lng: lng})
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
