package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend-trailkeeper/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type startRequest struct {
	Name string `json:"name"`
	geo.Point
}

type abortRequest struct {
	Reason string `json:"reason"`
	Keep   bool   `json:"keep"`
}

func RegisterRoutes(r fiber.Router, m *Manager, authMiddleware fiber.Handler) {
	r.Post("/sessions", authMiddleware, func(c *fiber.Ctx) error {
		var req startRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		session, err := m.Start(c.Context(), req.Name, stamp(req.Point))
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/:id/fixes", authMiddleware, func(c *fiber.Ctx) error {
		var fix geo.Point
		if err := c.BodyParser(&fix); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		res, err := m.Offer(c.Context(), c.Params("id"), stamp(fix))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	r.Post("/sessions/:id/stop", authMiddleware, func(c *fiber.Ctx) error {
		res, err := m.Stop(c.Context(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	r.Post("/sessions/:id/abort", authMiddleware, func(c *fiber.Ctx) error {
		var req abortRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		if req.Reason == "" {
			req.Reason = "aborted by client"
		}
		res, err := m.Abort(c.Context(), c.Params("id"), errors.New(req.Reason), req.Keep)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	r.Get("/sessions/:id", func(c *fiber.Ctx) error {
		session, err := m.Get(c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(session)
	})

	// Fixes streamed over a websocket feed the session in the background.
	// A dropped connection aborts the recording; a clean close only stops
	// the feed.
	r.Get("/sessions/:id/ws", authMiddleware, websocket.New(func(c *websocket.Conn) {
		src := NewChannelSource(16)
		stop, err := m.Watch(context.Background(), c.Params("id"), src)
		if err != nil {
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
			return
		}

		ctx := context.Background()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					stop()
				} else {
					src.Fail(err)
				}
				return
			}
			var fix geo.Point
			if err := json.Unmarshal(msg, &fix); err != nil {
				logf("recording %s: bad fix message: %v", c.Params("id"), err)
				continue
			}
			if err := src.Push(ctx, stamp(fix)); err != nil {
				return
			}
		}
	}))
}

// stamp fills in the receive time for fixes sent without one.
func stamp(fix geo.Point) geo.Point {
	if fix.Timestamp == 0 {
		fix.Timestamp = time.Now().UnixMilli()
	}
	return fix
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidFix):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrPreempted), errors.Is(err, ErrReplaced):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
