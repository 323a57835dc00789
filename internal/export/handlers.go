package export

import (
	"context"
	"errors"

	"backend-trailkeeper/internal/trail"

	"github.com/gofiber/fiber/v2"
)

type TrailSource interface {
	Get(ctx context.Context, id string) (trail.Trail, error)
}

// RegisterRoutes adds /:id/gpx and /:id/geojson to the trails router.
func RegisterRoutes(r fiber.Router, trails TrailSource) {
	r.Get("/:id/gpx", render(trails, GPX, "application/gpx+xml", ".gpx"))
	r.Get("/:id/geojson", render(trails, GeoJSON, "application/geo+json", ".geojson"))
}

func render(trails TrailSource, encode func(trail.Trail) ([]byte, error), contentType, ext string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := trails.Get(c.Context(), c.Params("id"))
		if errors.Is(err, trail.ErrTrailNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "trail not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		body, err := encode(t)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Attachment(t.ID + ext)
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(body)
	}
}
