package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/poiesic/ragchat/chat"
)

// defaultQuery is asked when the request carries no message.
const defaultQuery = "Tell me about this document"

type tokenEvent struct {
	Token string `json:"token"`
}

type errorEvent struct {
	Error string `json:"error"`
}

func (s *Server) streamRAG(c echo.Context) error {
	return s.streamChat(c, chat.ModeRAG)
}

func (s *Server) streamPlain(c echo.Context) error {
	return s.streamChat(c, chat.ModePlain)
}

// streamChat writes reply tokens as server-sent events until the reply
// ends or the client goes away.
func (s *Server) streamChat(c echo.Context, mode chat.Mode) error {
	req := chat.Request{
		Query:     c.QueryParam("message"),
		Model:     c.QueryParam("model"),
		SessionID: c.QueryParam("sessionId"),
	}
	if strings.TrimSpace(req.Query) == "" {
		req.Query = defaultQuery
	}

	ctx := c.Request().Context()
	var (
		stream *chat.Stream
		err    error
	)
	if mode == chat.ModePlain {
		stream, err = s.chat.StreamPlain(ctx, req)
	} else {
		stream, err = s.chat.StreamRAG(ctx, req)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer stream.Close()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream;charset=UTF-8")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	for token := range stream.Tokens() {
		if err := writeEvent(resp, "", tokenEvent{Token: token}); err != nil {
			s.logger.Debug("client went away", "session", stream.SessionID(), "err", err)
			return nil
		}
	}
	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		_ = writeEvent(resp, "error", errorEvent{Error: err.Error()})
	}
	return nil
}

func writeEvent(resp *echo.Response, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		if _, err := fmt.Fprintf(resp, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(resp, "data: %s\n\n", data); err != nil {
		return err
	}
	resp.Flush()
	return nil
}
