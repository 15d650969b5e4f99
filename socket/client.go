package socket

import (
	"encoding/json"
	"net/http"
	"time"

	docmodel "naskahweb/internal/document/model"
	"naskahweb/internal/profile/model"
	"naskahweb/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are already filtered by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Client struct {
	Hub        *Hub
	Conn       *websocket.Conn
	RoomID     string
	Identity   *model.Identity
	Permission docmodel.Permission
	Metadata   map[string]interface{}
	Send       chan []byte
}

// ServeWs upgrades a request for GET /ws?docId= into a room connection. Only
// users admitted by the session bootstrap may connect.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, identity *model.Identity) {
	if identity == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	roomID := r.URL.Query().Get("docId")
	if roomID == "" {
		http.Error(w, "Missing docId parameter", http.StatusBadRequest)
		return
	}

	grant, ok := hub.admitted(roomID, identity.ID)
	if !ok {
		logger.Sugar.Warnf("Connection rejected: user %s was not admitted to room %s", identity.ID, roomID)
		http.Error(w, "Not admitted to this document", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:        hub,
		Conn:       conn,
		RoomID:     roomID,
		Identity:   identity,
		Permission: grant.Permission,
		Metadata:   grant.Metadata,
		Send:       make(chan []byte, 256),
	}

	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}

		// Server-authoritative fields.
		msg.DocID = c.RoomID
		msg.UserID = c.Identity.ID

		switch msg.Type {
		case UpdateType:
			if c.Permission != docmodel.PermissionWrite {
				logger.Sugar.Warnf("Permission Denied: User %s (%s) tried to edit doc %s", c.Identity.ID, c.Permission, c.RoomID)
				continue
			}
		case CursorType:
		default:
			logger.Sugar.Debugf("Ignoring %q message from user %s", msg.Type, c.Identity.ID)
			continue
		}

		c.Hub.Broadcast <- msg
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
