package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
// Sessions are stored under their id with a secondary updatedAt index
// used for recency ordering.
type SessionRepository struct {
	backend *Backend
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) *SessionRepository {
	return &SessionRepository{
		backend: backend,
	}
}

// CreateSession creates a session with a fresh UUID and the default title.
func (r *SessionRepository) CreateSession(ctx context.Context) (*core.ChatSession, error) {
	now := time.Now().UTC()
	session := &core.ChatSession{
		ID:        uuid.New().String(),
		Title:     core.DefaultSessionTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := r.writeSession(tx, session); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (r *SessionRepository) ListSessions(ctx context.Context) ([]*core.ChatSession, error) {
	var sessions []*core.ChatSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionIndexPrefix)
		opts.PrefetchValues = false
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration must start past the last key sharing the prefix.
		seek := append([]byte(sessionIndexPrefix), 0xFF)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			sessionID := string(key[len(sessionIndexPrefix)+8:])
			session, err := r.readSession(tx, sessionID)
			if err != nil {
				return err
			}
			if session != nil {
				sessions = append(sessions, session)
			}
		}
		return nil
	}, false)
	return sessions, err
}

// GetSession retrieves a session by id.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*core.ChatSession, error) {
	var session *core.ChatSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		session, err = r.readSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateTitle sets the title of a session and bumps UpdatedAt.
func (r *SessionRepository) UpdateTitle(ctx context.Context, sessionID, title string) error {
	return r.update(sessionID, func(s *core.ChatSession) {
		s.Title = title
	})
}

// Touch bumps UpdatedAt of a session.
func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	return r.update(sessionID, func(*core.ChatSession) {})
}

// SessionExists reports whether a session exists.
func (r *SessionRepository) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	exists := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeSessionKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// DeleteSession removes a session, its index entry and all of its messages
// in a single transaction.
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		session, err := r.readSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(makeSessionIndexKey(session.UpdatedAt, session.ID)); err != nil {
			return err
		}
		if err := tx.Delete(makeSessionKey(session.ID)); err != nil {
			return err
		}
		if err := deletePrefix(tx, makeMessagePrefix(session.ID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// update applies fn to a stored session, bumps UpdatedAt and rewrites the
// recency index.
func (r *SessionRepository) update(sessionID string, fn func(*core.ChatSession)) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		session, err := r.readSession(tx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(makeSessionIndexKey(session.UpdatedAt, session.ID)); err != nil {
			return err
		}
		fn(session)
		session.UpdatedAt = time.Now().UTC()
		if err := r.writeSession(tx, session); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

func (r *SessionRepository) writeSession(tx *badger.Txn, session *core.ChatSession) error {
	if err := tx.Set(makeSessionKey(session.ID), storage.MarshalChatSession(session)); err != nil {
		return err
	}
	return tx.Set(makeSessionIndexKey(session.UpdatedAt, session.ID), nil)
}

// readSession returns nil, nil if the session doesn't exist.
func (r *SessionRepository) readSession(tx *badger.Txn, sessionID string) (*core.ChatSession, error) {
	item, err := tx.Get(makeSessionKey(sessionID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session *core.ChatSession
	err = item.Value(func(val []byte) error {
		session, err = storage.UnmarshalChatSession(val)
		return err
	})
	return session, err
}
