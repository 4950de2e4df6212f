package handlers

import (
	"log/slog"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Jitenmohanty/SelfEx-Job-tracker/internal/realtime"
)

type wsClientMessage struct {
	Event  string `json:"event"`
	UserID string `json:"userId"`
}

// WSUpgrade rejects plain HTTP requests to the socket endpoint.
func WSUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// JobSocket handles one websocket session: the client sends a join event
// with its user id, gets a roomJoined ack, then receives jobUpdate pushes
// until it disconnects.
func JobSocket(hub *realtime.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		defer func() {
			hub.Drop(c)
			c.Close()
		}()

		for {
			var msg wsClientMessage
			if err := c.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Event != "join" || msg.UserID == "" {
				continue
			}

			hub.Join(msg.UserID, c)
			ack := struct {
				Event   string `json:"event"`
				UserID  string `json:"userId"`
				Message string `json:"message"`
			}{Event: "roomJoined", UserID: msg.UserID, Message: "Successfully joined personal room"}
			// The hub serializes this against jobUpdate pushes that may
			// already be targeting the freshly joined room.
			if err := hub.Send(c, ack); err != nil {
				slog.Warn("roomJoined ack failed", "user", msg.UserID, "err", err)
				return
			}
		}
	})
}
