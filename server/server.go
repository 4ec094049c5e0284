// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/ragchat/ai"
	"github.com/poiesic/ragchat/chat"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/ingestion"
)

// Indexer starts ingestion runs and reports their progress.
type Indexer interface {
	Trigger(ctx context.Context) *ingestion.Future
	Status() core.ProcessingState
}

// ChatStreamer streams chat replies.
type ChatStreamer interface {
	StreamRAG(ctx context.Context, req chat.Request) (*chat.Stream, error)
	StreamPlain(ctx context.Context, req chat.Request) (*chat.Stream, error)
}

// Sessions manages chat sessions.
type Sessions interface {
	Create(ctx context.Context) (*core.ChatSession, error)
	List(ctx context.Context) ([]*core.ChatSession, error)
	Messages(ctx context.Context, sessionID string) ([]*core.ChatMessage, error)
	UpdateTitle(ctx context.Context, sessionID, title string) error
	Delete(ctx context.Context, sessionID string) error
}

// Server is the HTTP surface of ragchat.
type Server struct {
	echo        *echo.Echo
	indexer     Indexer
	uploader    *ingestion.Uploader
	chat        ChatStreamer
	sessions    Sessions
	models      ai.ModelFactory
	lister      ai.ModelLister
	metrics     *Metrics
	corsOrigins []string
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithModelLister enables listing installed models.
func WithModelLister(l ai.ModelLister) Option {
	return func(s *Server) error {
		s.lister = l
		return nil
	}
}

// WithCORSOrigins restricts cross-origin requests. Default allows all origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) error {
		if len(origins) > 0 {
			s.corsOrigins = origins
		}
		return nil
	}
}

// WithMetrics exposes m on /metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "http")
		return nil
	}
}

// New creates a server and registers its routes.
func New(
	indexer Indexer,
	uploader *ingestion.Uploader,
	streamer ChatStreamer,
	sessions Sessions,
	models ai.ModelFactory,
	opts ...Option,
) (*Server, error) {
	switch {
	case indexer == nil:
		return nil, ErrIndexerRequired
	case uploader == nil:
		return nil, ErrUploaderRequired
	case streamer == nil:
		return nil, ErrChatRequired
	case sessions == nil:
		return nil, ErrSessionsRequired
	case models == nil:
		return nil, ErrModelsRequired
	}

	s := &Server{
		indexer:     indexer,
		uploader:    uploader,
		chat:        streamer,
		sessions:    sessions,
		models:      models,
		corsOrigins: []string{"*"},
		logger:      slog.Default().With("component", "http"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.corsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	s.echo.Use(s.requestLogger())
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	docs := s.echo.Group("/api/documents")
	docs.GET("/status", s.status)
	docs.POST("/reindex", s.reindex)
	docs.POST("/upload", s.upload, middleware.BodyLimit("21M"))

	sessions := s.echo.Group("/api/chat/sessions")
	sessions.POST("", s.createSession)
	sessions.GET("", s.listSessions)
	sessions.GET("/:id/messages", s.sessionMessages)
	sessions.PUT("/:id/title", s.updateTitle)
	sessions.DELETE("/:id", s.deleteSession)

	s.echo.GET("/ai/rag/stream", s.streamRAG)
	s.echo.GET("/ai/simple/stream", s.streamPlain)

	s.echo.GET("/api/models", s.listModels)
	s.echo.GET("/api/ollama/models", s.listModels)

	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
	s.echo.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleError writes errors as {"error": message}.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "err", err)
	}
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "path", v.URIPath, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				s.logger.Warn("request", append(attrs, "err", v.Error)...)
				return nil
			}
			s.logger.Debug("request", attrs...)
			return nil
		},
	})
}
