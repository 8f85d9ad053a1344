package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stepwise/internal/core/domain"
)

// ListRoutesHandler returns stored routes, newest first.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 50
		}

		routes, err := deps.Routes.List(c.UserContext(), limit, offset)
		if err != nil {
			return errFromDomain(c, err)
		}
		total, err := deps.Routes.Count(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		if routes == nil {
			routes = []domain.RouteSummary{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: routes, Pagination: pg})
	}
}

// NearbyRoutesHandler returns routes that start within a radius of a point,
// nearest first.
func NearbyRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		center := domain.Coordinate{Lat: c.QueryFloat("lat", 0), Lon: c.QueryFloat("lon", 0)}
		radius := c.QueryFloat("radius", 500)
		limit := c.QueryInt("limit", 20)

		if radius <= 0 || radius > 10000 {
			return errBadRequest(c, "radius must be between 1 and 10000 meters")
		}

		routes, err := deps.Routes.FindNearby(c.UserContext(), center, radius, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if routes == nil {
			routes = []domain.RouteSummary{}
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(routes)
	}
}

// GetRouteHandler returns a route with its waypoints and geofences.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}

		route, err := deps.Routes.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(route)
	}
}

type startSessionRequest struct {
	RouteID string `json:"route_id"`
}

// StartSessionHandler begins a navigation session on a stored route.
func StartSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req startSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.RouteID == "" {
			return errBadRequest(c, "route_id is required")
		}

		info, err := deps.Sessions.Start(c.UserContext(), req.RouteID)
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Location("/v1/sessions/" + info.ID)
		return c.Status(fiber.StatusCreated).JSON(info)
	}
}

// GetSessionHandler returns the progress of a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		info, err := deps.Sessions.Progress(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(info)
	}
}

// EndSessionHandler discards a session.
func EndSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.End(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// IngestResponse is returned for each posted sample.
type IngestResponse struct {
	Events   []domain.SessionEvent `json:"events"`
	Progress *domain.SessionInfo   `json:"session"`
}

// IngestSampleHandler feeds one sensor sample into a session and returns the
// events it produced, in emission order.
func IngestSampleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sample domain.Sample
		if err := c.BodyParser(&sample); err != nil {
			return errBadRequest(c, "invalid sample body")
		}
		if sample.Position == nil && sample.Heading == nil && sample.Magnetic == nil {
			return errBadRequest(c, "sample needs a position, heading or magnetic reading")
		}

		id := c.Params("id")
		events, err := deps.Sessions.Ingest(c.UserContext(), id, sample)
		if err != nil {
			return errFromDomain(c, err)
		}
		info, err := deps.Sessions.Progress(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		if events == nil {
			events = []domain.SessionEvent{}
		}
		return c.JSON(IngestResponse{Events: events, Progress: info})
	}
}
