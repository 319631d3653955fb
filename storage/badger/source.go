// Copyright 2026 Echotwin Labs
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
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

// SourceRepository implements storage.SourceRepository for BadgerDB.
type SourceRepository struct {
	backend *Backend
}

var _ storage.SourceRepository = (*SourceRepository)(nil)

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(backend *Backend) (storage.SourceRepository, error) {
	return &SourceRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *SourceRepository) Close() error {
	return nil
}

// AddSource registers a content source against a persona.
// IDs are content-based so re-registering the same source overwrites in place
// instead of accumulating duplicates.
func (r *SourceRepository) AddSource(ctx context.Context, source *core.ContentSource) (*core.ContentSource, error) {
	if source.Id == 0 {
		basis := source.URL
		if basis == "" {
			// URL-less document uploads are identified by their payload.
			basis = string(source.RawContent)
		}
		source.Id = core.IDFromContent(source.PersonaId + "\x00" + basis)
	}
	if source.AddedAt.IsZero() {
		source.AddedAt = time.Now().UTC()
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(source.PersonaId, source.Id)

		// Re-registering keeps the original registration time and ingest mark.
		old, err := readSource(tx, key)
		if err != nil {
			return err
		}
		if old != nil {
			source.AddedAt = old.AddedAt
			source.LastProcessedAt = old.LastProcessedAt
		}

		if err := tx.Set(key, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return source, err
}

// GetSource retrieves a source of a persona by ID.
func (r *SourceRepository) GetSource(ctx context.Context, personaID string, id core.ID) (*core.ContentSource, error) {
	var result *core.ContentSource
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSource(tx, makeSourceKey(personaID, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListSources retrieves all sources registered for a persona.
// Results are ordered by registration time, oldest first.
func (r *SourceRepository) ListSources(ctx context.Context, personaID string) ([]*core.ContentSource, error) {
	var results []*core.ContentSource
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSourceScanPrefix(personaID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var source *core.ContentSource
			err := iter.Item().Value(func(val []byte) error {
				var err error
				source, err = storage.UnmarshalSource(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, source)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	sortSourcesByAddedAt(results)
	return results, nil
}

// DeleteSource removes a source registration.
func (r *SourceRepository) DeleteSource(ctx context.Context, personaID string, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(personaID, id)
		source, err := readSource(tx, key)
		if err != nil {
			return err
		}
		if source == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MarkProcessed records a successful ingest time on the source.
func (r *SourceRepository) MarkProcessed(ctx context.Context, personaID string, id core.ID, processedAt time.Time) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeSourceKey(personaID, id)
		source, err := readSource(tx, key)
		if err != nil {
			return err
		}
		if source == nil {
			return storage.ErrNotFound
		}

		source.LastProcessedAt = processedAt.UTC()
		if err := tx.Set(key, storage.MarshalSource(source)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readSource reads a content source record from the transaction.
func readSource(tx *badger.Txn, key []byte) (*core.ContentSource, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var source *core.ContentSource
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		source, unmarshalErr = storage.UnmarshalSource(val)
		return unmarshalErr
	})
	return source, err
}

// sortSourcesByAddedAt orders sources oldest-first, falling back to ID for
// sources registered in the same microsecond.
func sortSourcesByAddedAt(sources []*core.ContentSource) {
	slices.SortFunc(sources, func(a, b *core.ContentSource) int {
		if c := a.AddedAt.Compare(b.AddedAt); c != 0 {
			return c
		}
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		default:
			return 0
		}
	})
}
