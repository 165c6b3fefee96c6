package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard clients connect cross-origin
	},
}

// Hub maintains the set of active websocket clients watching election
// progress and broadcasts data-entry and committee-session transition
// events to all of them.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Msg("websocket write failed, dropping client")
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe handles incoming websocket connections for the live dashboard.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mutex.Unlock()

	log.Debug().Int("clients", count).Msg("websocket client connected")

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, conn)
			remaining := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			log.Debug().Int("clients", remaining).Msg("websocket client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warn().Err(err).Msg("websocket read error")
				}
				break
			}
		}
	}()
}

// Broadcast sends a raw payload to every connected client.
func (h *Hub) Broadcast(data []byte) {
	if h == nil {
		return
	}
	h.broadcast <- data
}

// transitionEvent is the payload pushed to dashboard clients whenever a
// polling station's data-entry status or a committee session's status
// changes. BroadcastTransition marshals it and drops the event if the
// hub is nil, so handlers can call it unconditionally in tests that
// construct an APIHandler without a hub.
type transitionEvent struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Status  string `json:"status"`
}

func (h *Hub) BroadcastTransition(kind, subject, status string) {
	if h == nil {
		return
	}
	data, err := json.Marshal(transitionEvent{Kind: kind, Subject: subject, Status: status})
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal transition event")
		return
	}
	h.Broadcast(data)
}
