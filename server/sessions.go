package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

type sessionResponse struct {
	SessionID string    `json:"sessionId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type titleRequest struct {
	Title string `json:"title"`
}

func toSessionResponse(s *core.ChatSession) sessionResponse {
	return sessionResponse{SessionID: s.ID, Title: s.Title, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

func (s *Server) createSession(c echo.Context) error {
	session, err := s.sessions.Create(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

func (s *Server) listSessions(c echo.Context) error {
	sessions, err := s.sessions.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]sessionResponse, len(sessions))
	for i, session := range sessions {
		out[i] = toSessionResponse(session)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) sessionMessages(c echo.Context) error {
	msgs, err := s.sessions.Messages(c.Request().Context(), c.Param("id"))
	if err != nil {
		return sessionError(err)
	}
	out := make([]messageResponse, len(msgs))
	for i, msg := range msgs {
		out[i] = messageResponse{Role: msg.Role.String(), Content: msg.Content, CreatedAt: msg.CreatedAt}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) updateTitle(c echo.Context) error {
	var req titleRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := s.sessions.UpdateTitle(c.Request().Context(), c.Param("id"), req.Title); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusOK)
}

func (s *Server) deleteSession(c echo.Context) error {
	if err := s.sessions.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return sessionError(err)
	}
	return c.NoContent(http.StatusOK)
}

func sessionError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, core.ErrInvalidSession):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
