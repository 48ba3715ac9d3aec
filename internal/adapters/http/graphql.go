package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	trackPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TrackPoint",
		Fields: graphql.Fields{
			"timestamp": &graphql.Field{Type: graphql.DateTime},
			"location":  &graphql.Field{Type: geoPointType},
			"speed":     &graphql.Field{Type: graphql.Float},
		},
	})

	vesselSummaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VesselSummary",
		Fields: graphql.Fields{
			"mmsi":      &graphql.Field{Type: graphql.String},
			"distance":  &graphql.Field{Type: graphql.Float, Description: "Nautical miles"},
			"avg_speed": &graphql.Field{Type: graphql.Float, Description: "Knots"},
			"track": &graphql.Field{
				Type: graphql.NewList(geoPointType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					s, ok := p.Source.(domain.VesselSummary)
					if !ok {
						return nil, nil
					}
					return s.Vessel().Track, nil
				},
			},
		},
	})

	vesselType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vessel",
		Fields: graphql.Fields{
			"mmsi":  &graphql.Field{Type: graphql.String},
			"track": &graphql.Field{Type: graphql.NewList(trackPointType)},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VesselStats",
		Fields: graphql.Fields{
			"mmsi":       &graphql.Field{Type: graphql.String},
			"distance":   &graphql.Field{Type: graphql.Float},
			"avg_speed":  &graphql.Field{Type: graphql.Float},
			"start_time": &graphql.Field{Type: graphql.DateTime},
			"end_time":   &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"vessels": &graphql.Field{
				Type:        graphql.NewList(vesselSummaryType),
				Description: "All vessels with full-window stats and tracks",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Vessels.Summaries(p.Context)
				},
			},
			"vessel": &graphql.Field{
				Type:        vesselType,
				Description: "One vessel's valid fixes",
				Args: graphql.FieldConfigArgument{
					"mmsi": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					mmsi := p.Args["mmsi"].(string)
					track, err := deps.Vessels.Track(p.Context, mmsi)
					if err != nil {
						return nil, err
					}
					if len(track) == 0 {
						return nil, nil
					}
					return map[string]any{"mmsi": mmsi, "track": track}, nil
				},
			},
			"vesselStats": &graphql.Field{
				Type:        statsType,
				Description: "Distance and average speed inside a time window",
				Args: graphql.FieldConfigArgument{
					"mmsi": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"from": &graphql.ArgumentConfig{Type: graphql.String},
					"to":   &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					mmsi := p.Args["mmsi"].(string)
					from, to := usecases.DefaultWindowStart, usecases.DefaultWindowEnd
					if s, ok := p.Args["from"].(string); ok && s != "" {
						t, err := usecases.ParseTimestamp(s)
						if err != nil {
							return nil, fmt.Errorf("from: %w", err)
						}
						from = t
					}
					if s, ok := p.Args["to"].(string); ok && s != "" {
						t, err := usecases.ParseTimestamp(s)
						if err != nil {
							return nil, fmt.Errorf("to: %w", err)
						}
						to = t
					}
					return deps.Vessels.Stats(p.Context, mmsi, from, to)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
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
