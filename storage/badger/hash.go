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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ragchat/core"
	"github.com/poiesic/ragchat/storage"
)

// HashRepository implements storage.HashRepository for BadgerDB.
type HashRepository struct {
	backend *Backend
}

var _ storage.HashRepository = (*HashRepository)(nil)

// NewHashRepository creates a new HashRepository.
func NewHashRepository(backend *Backend) *HashRepository {
	return &HashRepository{
		backend: backend,
	}
}

// GetHash retrieves the stored hash for a document.
func (r *HashRepository) GetHash(ctx context.Context, docID string) (*core.DocumentHash, error) {
	var hash *core.DocumentHash
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeDocHashKey(docID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			hash, err = storage.UnmarshalDocumentHash(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return hash, nil
}

// PutHash inserts or overwrites the hash for a document.
func (r *HashRepository) PutHash(ctx context.Context, docID, hash string) error {
	return r.PutHashes(ctx, map[string]string{docID: hash})
}

// PutHashes upserts several document hashes in one transaction.
func (r *HashRepository) PutHashes(ctx context.Context, hashes map[string]string) error {
	if len(hashes) == 0 {
		return nil
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for docID, hash := range hashes {
			if docID == "" {
				return core.ErrEmptyID
			}
			record := &core.DocumentHash{
				DocumentID: docID,
				Hash:       hash,
				UpdatedAt:  now,
			}
			if err := tx.Set(makeDocHashKey(docID), storage.MarshalDocumentHash(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ListHashes returns every stored hash ordered by document id.
func (r *HashRepository) ListHashes(ctx context.Context) ([]*core.DocumentHash, error) {
	var hashes []*core.DocumentHash
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(docHashPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				hash, err := storage.UnmarshalDocumentHash(val)
				if err != nil {
					return err
				}
				hashes = append(hashes, hash)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return hashes, err
}

// DeleteHash removes the hash of a document.
func (r *HashRepository) DeleteHash(ctx context.Context, docID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeDocHashKey(docID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
