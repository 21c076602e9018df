package socket

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"bulletin/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	BoardID  int64
	Username string
	Send     chan []byte
}

// ServeWs upgrades the connection and subscribes the caller to a board feed.
// The board must exist; feeds for unknown boards are rejected.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, username string) {
	boardID, err := strconv.ParseInt(r.URL.Query().Get("boardId"), 10, 64)
	if err != nil {
		http.Error(w, "Missing or invalid boardId parameter", http.StatusBadRequest)
		return
	}

	var exists bool
	if err := hub.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM boards WHERE id = $1)`, boardID).Scan(&exists); err != nil {
		logger.Sugar.Errorf("Database error checking board %d: %v", boardID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !exists {
		logger.Sugar.Warnf("Connection rejected: board %d not found", boardID)
		http.Error(w, "Board not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := &Client{
		Hub:      hub,
		Conn:     conn,
		BoardID:  boardID,
		Username: username,
		Send:     make(chan []byte, 256),
	}
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so control frames are processed and a closed
// peer is noticed. Feeds are listen-only; inbound payloads are discarded.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return // Connection is dead
			}
		}
	}
}
