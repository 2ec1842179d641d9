package service

import (
	"fmt"
	"strings"

	"github.com/campus-connect/relay/src/hub"
	"github.com/campus-connect/relay/src/types"
	"github.com/rs/zerolog"
)

// Service provides the read and admin API over the hub for the HTTP layer.
type Service struct {
	hub    *hub.Hub
	logger zerolog.Logger
}

// New creates a new relay service backed by the given hub.
func New(h *hub.Hub, logger zerolog.Logger) *Service {
	return &Service{hub: h, logger: logger.With().Str("component", "service").Logger()}
}

// GetHistory returns the retained messages of a room, oldest first.
func (s *Service) GetHistory(roomID string) ([]types.ChatMessage, error) {
	if strings.TrimSpace(roomID) == "" {
		return nil, fmt.Errorf("room id is required")
	}
	return s.hub.History(roomID), nil
}

// Announce posts a system message into a room.
func (s *Service) Announce(roomID, text string) (types.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return types.ChatMessage{}, fmt.Errorf("text is required")
	}
	msg, err := s.hub.Announce(roomID, text)
	if err != nil {
		return types.ChatMessage{}, err
	}
	s.logger.Info().Str("room", roomID).Str("message_id", msg.ID).Msg("announcement posted")
	return msg, nil
}

// GetRooms returns every known room.
func (s *Service) GetRooms() []types.RoomInfo {
	return s.hub.Rooms()
}

// GetConnectedClients returns info for every connected client.
func (s *Service) GetConnectedClients() []types.ClientInfo {
	ids := s.hub.ConnectedClients()
	infos := make([]types.ClientInfo, 0, len(ids))
	for _, id := range ids {
		if info := s.hub.ClientInfo(id); info != nil {
			infos = append(infos, *info)
		}
	}
	return infos
}

// GetClientInfo returns info for a connected client, or error.
func (s *Service) GetClientInfo(clientID string) (*types.ClientInfo, error) {
	info := s.hub.ClientInfo(clientID)
	if info == nil {
		return nil, fmt.Errorf("%w: %s", hub.ErrClientNotFound, clientID)
	}
	return info, nil
}

// SendToClient sends an event directly to a specific client.
func (s *Service) SendToClient(clientID, event string, data any) error {
	env, err := types.NewEnvelope(event, data)
	if err != nil {
		return err
	}
	if err := s.hub.SendToClient(clientID, env); err != nil {
		return fmt.Errorf("send to %s: %w", clientID, err)
	}
	return nil
}

// OnConnection registers a callback for new connections.
func (s *Service) OnConnection(cb func(clientID string)) {
	s.hub.OnConnection(cb)
}

// OnDisconnection registers a callback for disconnections.
func (s *Service) OnDisconnection(cb func(clientID string)) {
	s.hub.OnDisconnection(cb)
}
