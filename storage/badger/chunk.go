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
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	return &ChunkRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *ChunkRepository) Close() error {
	return nil
}

// StoreChunks persists one or more content chunks.
func (r *ChunkRepository) StoreChunks(ctx context.Context, chunks ...*core.ContentChunk) ([]*core.ContentChunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := writeChunks(tx, chunks); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return chunks, err
}

// SearchSimilar finds a persona's chunks most similar to the query vector.
// Chunks whose vector length differs from the query are skipped.
// Returns ErrInvalidQuery for an empty query vector or a non-positive limit.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, personaID string, vector []float32, limit int) ([]*core.RetrievedChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit %d", storage.ErrInvalidQuery, limit)
	}

	var results []*core.RetrievedChunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkScanPrefix(personaID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.ContentChunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			// Vectors of a different dimension are unsearchable, not errors.
			if len(chunk.Vector) == 0 || len(chunk.Vector) != len(vector) {
				continue
			}

			results = append(results, &core.RetrievedChunk{
				Chunk:      chunk,
				Similarity: cosineSimilarity(vector, chunk.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.RetrievedChunk) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteBySource removes all chunks of a persona from the given source URL.
func (r *ChunkRepository) DeleteBySource(ctx context.Context, personaID, sourceURL string) (int, error) {
	var deleted int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		deleted, err = deleteSourceChunks(tx, personaID, sourceURL)
		if err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return deleted, err
}

// ReplaceSource atomically swaps all chunks of a (persona, source URL) pair
// for the provided chunks. The delete and insert commit in one transaction so
// readers never observe the source half-replaced.
func (r *ChunkRepository) ReplaceSource(ctx context.Context, personaID, sourceURL string, chunks []*core.ContentChunk) ([]*core.ContentChunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := deleteSourceChunks(tx, personaID, sourceURL); err != nil {
			return err
		}
		if err := writeChunks(tx, chunks); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return chunks, err
}

// writeChunks assigns IDs and timestamps and stores chunks with their
// source index entries.
func writeChunks(tx *badger.Txn, chunks []*core.ContentChunk) error {
	for _, chunk := range chunks {
		if chunk.Id == 0 {
			chunk.Id = core.IDFromContent(chunk.PersonaId + "\x00" + chunk.URL + "\x00" + chunk.Text)
		}
		if chunk.InsertedAt.IsZero() {
			chunk.InsertedAt = time.Now().UTC()
		}

		key := makeChunkKey(chunk.PersonaId, chunk.Id)
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}

		indexKey := makeChunkSourceKey(chunk.PersonaId, chunk.URL, chunk.Id)
		if err := tx.Set(indexKey, storage.MarshalID(chunk.Id)); err != nil {
			return err
		}
	}
	return nil
}

// deleteSourceChunks removes a source's chunks and index entries within tx.
func deleteSourceChunks(tx *badger.Txn, personaID, sourceURL string) (int, error) {
	// Collect first: deleting while iterating invalidates the iterator.
	var indexKeys [][]byte
	var chunkIDs []core.ID

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkSourcePrefix(personaID, sourceURL)
	iter := tx.NewIterator(opts)

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var chunkID core.ID
		err := iter.Item().Value(func(val []byte) error {
			var err error
			chunkID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			iter.Close()
			return 0, err
		}
		indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
		chunkIDs = append(chunkIDs, chunkID)
	}
	iter.Close()

	for i, chunkID := range chunkIDs {
		if err := tx.Delete(makeChunkKey(personaID, chunkID)); err != nil {
			return 0, err
		}
		if err := tx.Delete(indexKeys[i]); err != nil {
			return 0, err
		}
	}
	return len(chunkIDs), nil
}

// cosineSimilarity calculates the cosine of the angle between two vectors.
// Returns 0 when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
