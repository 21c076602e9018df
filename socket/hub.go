package socket

import (
	"database/sql"
	"encoding/json"
	"sync"

	"bulletin/pkg/logger"
)

const (
	ArticleCreated = "ARTICLE_CREATED"
	ArticleUpdated = "ARTICLE_UPDATED"
	ArticleDeleted = "ARTICLE_DELETED"
)

// Event is a board-scoped article lifecycle notification pushed to every
// client subscribed to that board's feed.
type Event struct {
	Type    string          `json:"type"`
	BoardID int64           `json:"board_id"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans article events out to the clients subscribed to each board. Feeds
// are server-to-client only; the hub never accepts client-authored events.
type Hub struct {
	Feeds      map[int64]map[*Client]bool
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client
	db         *sql.DB
	mu         sync.Mutex
}

func NewHub(db *sql.DB) *Hub {
	return &Hub{
		Feeds:      make(map[int64]map[*Client]bool),
		Broadcast:  make(chan Event),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		db:         db,
	}
}

// Publish hands a mutation event to the hub without blocking the caller's
// request when the hub is not running (tests, or feeds disabled).
func (h *Hub) Publish(event Event) {
	select {
	case h.Broadcast <- event:
	default:
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Feeds[client.BoardID] == nil {
				h.Feeds[client.BoardID] = make(map[*Client]bool)
			}
			h.Feeds[client.BoardID][client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.remove(client)

		case event := <-h.Broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast event: %v", err)
				continue
			}

			// Collect recipients under the lock, write outside it.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Feeds[event.BoardID]))
			for client := range h.Feeds[event.BoardID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// A full send buffer means the client is lagging;
					// drop it so the hub never blocks.
					logger.Sugar.Warnf("Client %s's send buffer is full. Dropping.", client.Username)
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Feeds[client.BoardID][client]; ok {
		delete(h.Feeds[client.BoardID], client)
		close(client.Send)
		if len(h.Feeds[client.BoardID]) == 0 {
			delete(h.Feeds, client.BoardID)
			logger.Sugar.Infof("Closed empty feed for board %d", client.BoardID)
		}
	}
}
