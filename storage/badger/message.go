package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// MessageRepository implements storage.MessageRepository for BadgerDB.
// Messages are keyed by session, creation time and sequence id so a
// prefix scan returns them in conversation order.
type MessageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(backend *Backend) (*MessageRepository, error) {
	idSeq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		return nil, err
	}

	return &MessageRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *MessageRepository) Close() error {
	return r.idSeq.Release()
}

// GetMessages returns the visible history of a session.
func (r *MessageRepository) GetMessages(ctx context.Context, sessionID string) ([]*core.ChatMessage, error) {
	all, err := r.LoadAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	visible := make([]*core.ChatMessage, 0, len(all))
	for _, msg := range all {
		if msg.Role.Visible() {
			visible = append(visible, msg)
		}
	}
	return visible, nil
}

// LoadAll returns every message of a session in conversation order.
func (r *MessageRepository) LoadAll(ctx context.Context, sessionID string) ([]*core.ChatMessage, error) {
	var messages []*core.ChatMessage
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMessagePrefix(sessionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				msg, err := storage.UnmarshalChatMessage(val)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return messages, err
}

// ReplaceAll deletes every message of the session and writes the given
// set in the same transaction. Messages without an ID get one from the
// sequence; CreatedAt is defaulted to now and clamped so the stored order
// matches the slice order.
func (r *MessageRepository) ReplaceAll(ctx context.Context, sessionID string, messages []*core.ChatMessage) error {
	if sessionID == "" {
		return core.ErrEmptyID
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, makeMessagePrefix(sessionID)); err != nil {
			return err
		}

		var last time.Time
		for _, msg := range messages {
			msg.SessionID = sessionID
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = time.Now().UTC()
			}
			msg.CreatedAt = msg.CreatedAt.Truncate(time.Microsecond)
			if msg.CreatedAt.Before(last) {
				msg.CreatedAt = last
			}
			last = msg.CreatedAt

			if err := core.ValidateChatMessage(msg); err != nil {
				return err
			}

			if msg.ID == 0 {
				id, err := r.nextID()
				if err != nil {
					return err
				}
				msg.ID = id
			}

			key := makeMessageKey(sessionID, msg.CreatedAt, msg.ID)
			if err := tx.Set(key, storage.MarshalChatMessage(msg)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func (r *MessageRepository) nextID() (core.ID, error) {
	next, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		if next, err = r.idSeq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(next), nil
}
