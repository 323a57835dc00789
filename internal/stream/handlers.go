package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes exposes session events over websockets. Clients only listen;
// anything they send is read and dropped so close frames are noticed.
func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/sessions/:sessionID", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"session_id":  c.Params("sessionID"),
			"subscribers": hub.Subscribers(c.Params("sessionID")),
		})
	})

	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		client := hub.Register(c.Params("sessionID"))
		defer hub.Unregister(client)

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
