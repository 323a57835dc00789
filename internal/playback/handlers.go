package playback

import (
	"errors"

	"backend-trailkeeper/internal/trail"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, m *Manager, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			TrailID string  `json:"trail_id"`
			Speed   float64 `json:"speed"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TrailID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "trail_id required")
		}
		snap, err := m.Start(c.Context(), req.TrailID, req.Speed)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(snap)
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		snap, err := m.Get(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(snap)
	})

	r.Post("/sessions/:id/play", authMiddleware, func(c *fiber.Ctx) error {
		snap, err := m.Play(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(snap)
	})

	r.Post("/sessions/:id/pause", authMiddleware, func(c *fiber.Ctx) error {
		snap, err := m.Pause(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(snap)
	})

	r.Post("/sessions/:id/seek", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Fraction *float64 `json:"fraction"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Fraction == nil {
			return fiber.NewError(fiber.StatusBadRequest, "fraction required")
		}
		snap, err := m.Seek(c.Params("id"), *req.Fraction)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(snap)
	})

	r.Post("/sessions/:id/speed", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		snap, err := m.SetSpeed(c.Params("id"), req.Speed)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(snap)
	})

	r.Delete("/sessions/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := m.Stop(c.Params("id")); err != nil {
			return toHTTPError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, trail.ErrTrailNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidSpeed), errors.Is(err, ErrInvalidTrail):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPreempted):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
