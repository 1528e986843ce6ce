package handlers

import (
	"net/http"

	"couples-workout-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients connect from app schemes
	},
}

// WebSocketHandler upgrades connections and keeps them registered in the hub
type WebSocketHandler struct {
	hub    *services.WSHub
	tokens *services.TokenService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, tokens *services.TokenService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
	}
}

// HandleWebSocket handles GET /ws. The access token comes in as a query
// parameter because browsers and mobile WS clients cannot set headers on the
// upgrade request.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "token required"})
		return
	}

	userID, err := h.tokens.ValidateAccess(token)
	if err != nil {
		respondJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	// The hub only pushes server-side events; the read loop exists to detect
	// disconnects and drain client pings.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}
	}
}
