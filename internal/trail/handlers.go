package trail

import (
	"errors"

	"backend-trailkeeper/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		trails, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		summaries := make([]Summary, 0, len(trails))
		for _, t := range trails {
			summaries = append(summaries, t.Summary())
		}
		return c.JSON(summaries)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req struct {
			Name string      `json:"name"`
			Path []geo.Point `json:"path"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		t, err := svc.Create(c.Context(), req.Name, req.Path)
		if errors.Is(err, ErrTrivialPath) || errors.Is(err, ErrInvalidPath) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		t, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrTrailNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "trail not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(t)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		err := svc.Delete(c.Context(), c.Params("id"))
		if errors.Is(err, ErrTrailNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "trail not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
