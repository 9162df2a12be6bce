package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"parley/config"
	"parley/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientCommand is what subscribers send over the socket.
type clientCommand struct {
	Action  string `json:"action"` // subscribe | unsubscribe
	Channel string `json:"channel"`
}

// Serve upgrades the connection and runs the subscribe/unsubscribe loop.
// The token travels as a query parameter since browsers cannot set headers
// on WebSocket dials.
func Serve(cfg *config.JWTConfig, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		token := c.Query("token")
		if token == "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"token required"}`))
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			return
		}
		client := &Client{
			UserID:   claims.UserID,
			SocketID: uuid.NewString(),
			Send:     make(chan []byte, 256),
		}
		hub.Register(client)
		defer client.Close()

		hello, _ := json.Marshal(Message{Event: "connection_established", Data: map[string]interface{}{"socket_id": client.SocketID}})
		client.Send <- hello

		go writePump(client, conn)
		readPump(c, client, hub, conn)
	}
}

func readPump(c *gin.Context, client *Client, hub *Hub, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd clientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Channel == "" {
			continue
		}
		switch cmd.Action {
		case "subscribe":
			if err := hub.Subscribe(c.Request.Context(), client, cmd.Channel); err != nil {
				hub.send(client, Message{Channel: cmd.Channel, Event: "subscription_error", Data: map[string]interface{}{"error": err.Error()}})
			}
		case "unsubscribe":
			hub.Unsubscribe(client, cmd.Channel)
		}
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
