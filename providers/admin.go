package providers

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/campus-connect/relay/src/hub"
	"github.com/gofiber/fiber/v3"
)

type announceRequest struct {
	Text string `json:"text"`
}

type sendRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"name":    s.Name(),
		"version": s.Version(),
		"active":  s.IsActive(),
	})
}

func (s *Server) handleRooms(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"rooms": s.service.GetRooms()})
}

func (s *Server) handleHistory(c fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	messages, err := s.service.GetHistory(roomID)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{"roomId": roomID, "messages": messages})
}

func (s *Server) handleAnnounce(c fiber.Ctx) error {
	roomID, err := roomParam(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req announceRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	msg, err := s.service.Announce(roomID, req.Text)
	switch {
	case errors.Is(err, hub.ErrStopped):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (s *Server) handleClients(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"clients": s.service.GetConnectedClients()})
}

func (s *Server) handleClient(c fiber.Ctx) error {
	info, err := s.service.GetClientInfo(c.Params("clientId"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(info)
}

func (s *Server) handleSendToClient(c fiber.Ctx) error {
	var req sendRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "invalid JSON body")
	}
	if strings.TrimSpace(req.Event) == "" {
		return badRequest(c, "event is required")
	}

	err := s.service.SendToClient(c.Params("clientId"), req.Event, req.Data)
	switch {
	case errors.Is(err, hub.ErrClientNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, hub.ErrStopped), errors.Is(err, hub.ErrSendBufferFull):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return badRequest(c, err.Error())
	}
	return c.SendStatus(fiber.StatusAccepted)
}

// roomParam returns the unescaped :roomId route parameter.
func roomParam(c fiber.Ctx) (string, error) {
	roomID, err := url.PathUnescape(c.Params("roomId"))
	if err != nil {
		return "", errors.New("malformed room id")
	}
	if strings.TrimSpace(roomID) == "" {
		return "", errors.New("room id is required")
	}
	return roomID, nil
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
