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


package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// SessionService manages chat sessions on behalf of the HTTP surface.
// Unlike the orchestrator it reports unknown sessions as storage.ErrNotFound.
type SessionService struct {
	sessions storage.SessionRepository
	messages storage.MessageRepository
	logger   *slog.Logger
}

// NewSessionService creates a session service.
func NewSessionService(sessions storage.SessionRepository, messages storage.MessageRepository, logger *slog.Logger) (*SessionService, error) {
	if sessions == nil {
		return nil, ErrSessionRepositoryRequired
	}
	if messages == nil {
		return nil, ErrMessageRepositoryRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions: sessions,
		messages: messages,
		logger:   logger.With("component", "sessions"),
	}, nil
}

// Create starts a new session titled with the default title.
func (s *SessionService) Create(ctx context.Context) (*core.ChatSession, error) {
	session, err := s.sessions.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("session created", "session", session.ID)
	return session, nil
}

// List returns all sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context) ([]*core.ChatSession, error) {
	return s.sessions.ListSessions(ctx)
}

// Messages returns the visible history of a session. The fallback session
// has no session record but may still hold messages.
func (s *SessionService) Messages(ctx context.Context, sessionID string) ([]*core.ChatMessage, error) {
	if sessionID != core.DefaultSessionID {
		if err := s.requireSession(ctx, sessionID); err != nil {
			return nil, err
		}
	}
	return s.messages.GetMessages(ctx, sessionID)
}

// UpdateTitle renames a session. The title is trimmed and must not be blank.
func (s *SessionService) UpdateTitle(ctx context.Context, sessionID, title string) error {
	title = strings.TrimSpace(title)
	if err := core.ValidateTitle(title); err != nil {
		return err
	}
	if err := s.sessions.UpdateTitle(ctx, sessionID, title); err != nil {
		return fmt.Errorf("update title of %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes a session together with its messages.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	s.logger.Info("session deleted", "session", sessionID)
	return nil
}

func (s *SessionService) requireSession(ctx context.Context, sessionID string) error {
	exists, err := s.sessions.SessionExists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("session %s: %w", sessionID, storage.ErrNotFound)
	}
	return nil
}
