// Copyright 2025 Pruqanda Project
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
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pruqanda/pruqanda/core"
)

const embeddedKeyPrefix = "embedded:"

// CheckpointStore records which message ids have already been embedded, so
// an interrupted embedding run can skip finished work when restarted.
type CheckpointStore struct {
	backend *Backend
}

// NewCheckpointStore creates a checkpoint store on top of a backend.
func NewCheckpointStore(backend *Backend) (*CheckpointStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &CheckpointStore{backend: backend}, nil
}

func makeEmbeddedKey(id string) []byte {
	return []byte(embeddedKeyPrefix + id)
}

// MarkEmbedded records the given message ids as embedded.
func (s *CheckpointStore) MarkEmbedded(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	// Completion time as the value; useful when inspecting the store.
	value := []byte(time.Now().UTC().Format(time.RFC3339))

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Set(makeEmbeddedKey(id), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Embedded reports whether a message id has been recorded as embedded.
func (s *CheckpointStore) Embedded(ctx context.Context, id string) (bool, error) {
	var found bool
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeEmbeddedKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	}, false)
	return found, err
}

// FilterPending returns the subset of messages not yet recorded as embedded,
// preserving input order.
func (s *CheckpointStore) FilterPending(ctx context.Context, messages []core.Message) ([]core.Message, error) {
	pending := make([]core.Message, 0, len(messages))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, msg := range messages {
			_, err := tx.Get(makeEmbeddedKey(msg.Id))
			if err == badger.ErrKeyNotFound {
				pending = append(pending, msg)
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return pending, nil
}
