package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"parkease/internal/domain"
	"parkease/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Cho phép kết nối từ mọi nguồn
	},
}

// WebSocketManager fans spot-status events out to every connected client.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	mutex      sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
	}
}

func (wsm *WebSocketManager) Start() {
	for {
		select {
		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			total := len(wsm.clients)
			wsm.mutex.Unlock()
			metrics.SetWSClients(total)
			log.Info().Int("total", total).Msg("WebSocket client connected")

		case client := <-wsm.unregister:
			wsm.mutex.Lock()
			if _, ok := wsm.clients[client]; ok {
				delete(wsm.clients, client)
				client.Close()
			}
			total := len(wsm.clients)
			wsm.mutex.Unlock()
			metrics.SetWSClients(total)
			log.Info().Int("total", total).Msg("WebSocket client disconnected")

		case message := <-wsm.broadcast:
			wsm.mutex.Lock()
			for client := range wsm.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Warn().Err(err).Msg("Error writing to WebSocket client")
					client.Close()
					delete(wsm.clients, client)
				}
			}
			metrics.SetWSClients(len(wsm.clients))
			wsm.mutex.Unlock()
		}
	}
}

// BroadcastSpotEvent pushes a spot-status change to all clients.
// Drops the message when the broadcast channel is full.
func (wsm *WebSocketManager) BroadcastSpotEvent(event domain.SpotStatusEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Error marshaling spot event")
		return
	}

	select {
	case wsm.broadcast <- message:
	default:
		log.Warn().Msg("Broadcast channel is full, dropping message")
	}
}

type WebSocketHandler struct {
	wsManager *WebSocketManager
}

func NewWebSocketHandler(wsManager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	h.wsManager.register <- conn

	// Keep connection alive và handle disconnect
	go func() {
		defer func() {
			h.wsManager.unregister <- conn
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Warn().Err(err).Msg("WebSocket error")
				}
				break
			}
		}
	}()
}
