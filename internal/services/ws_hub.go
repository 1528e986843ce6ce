package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket event sent to a connected client
type WSMessage struct {
	Type        string `json:"type"`
	Timestamp   int64  `json:"timestamp,omitempty"`
	PartnerID   string `json:"partner_id,omitempty"`
	PartnerName string `json:"partner_name,omitempty"`
	CoupleID    string `json:"couple_id,omitempty"`
	Date        string `json:"date,omitempty"`
	Online      *bool  `json:"online,omitempty"`
	Message     string `json:"message,omitempty"`
}

// WSHub manages the WebSocket connections of online users and fans partner
// events out to them. One connection per user; a newer connection replaces
// the older one.
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
	couples     PartnerFinder
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(couples PartnerFinder) *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
		couples:     couples,
	}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	go h.notifyPartnerStatus(userID, true)
}

// Unregister removes the user's WebSocket connection. When conn is stale
// (a newer connection already replaced it) the current one is left alone.
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	current, ok := h.connections[userID]
	if !ok || current != conn {
		h.mu.Unlock()
		return
	}
	current.Close()
	delete(h.connections, userID)
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	go h.notifyPartnerStatus(userID, false)
}

// IsOnline checks if a user has a registered connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// NotifyPartnerJoined tells the owner that their partner accepted the invite
func (h *WSHub) NotifyPartnerJoined(ownerID, partnerID, partnerName, coupleID string) {
	if !h.IsOnline(ownerID) {
		return
	}
	msg := WSMessage{
		Type:        "partner_joined",
		Timestamp:   time.Now().UnixMilli(),
		PartnerID:   partnerID,
		PartnerName: partnerName,
		CoupleID:    coupleID,
	}
	if err := h.SendToUser(ownerID, msg); err != nil {
		log.Error().Err(err).Str("user_id", ownerID).Msg("Failed to send partner_joined")
	}
}

// NotifySnapshotShared tells a viewer that a snapshot they may see was posted
func (h *WSHub) NotifySnapshotShared(viewerID, ownerID, date string) {
	if !h.IsOnline(viewerID) {
		return
	}
	msg := WSMessage{
		Type:      "snapshot_shared",
		Timestamp: time.Now().UnixMilli(),
		PartnerID: ownerID,
		Date:      date,
	}
	if err := h.SendToUser(viewerID, msg); err != nil {
		log.Error().Err(err).Str("user_id", viewerID).Msg("Failed to send snapshot_shared")
	}
}

// notifyPartnerStatus tells the user's partner about an online/offline change
func (h *WSHub) notifyPartnerStatus(userID string, online bool) {
	partner, err := h.couples.GetPartner(context.Background(), userID)
	if err != nil {
		return
	}
	if !h.IsOnline(partner.UserID) {
		return
	}
	msg := WSMessage{
		Type:      "partner_status",
		Timestamp: time.Now().UnixMilli(),
		PartnerID: userID,
		Online:    &online,
	}
	if err := h.SendToUser(partner.UserID, msg); err != nil {
		log.Error().Err(err).Str("user_id", partner.UserID).Msg("Failed to send partner_status")
	}
}
