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
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
// Jobs are append-only: every ingestion attempt gets its own record and only
// the worker that owns the attempt updates it.
type JobRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) (storage.JobRepository, error) {
	idSeq, err := backend.GetSequence(jobIDSeq)
	if err != nil {
		return nil, err
	}

	return &JobRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *JobRepository) Close() error {
	return r.idSeq.Release()
}

// AppendJob persists a new job attempt, assigning a sequence ID.
func (r *JobRepository) AppendJob(ctx context.Context, job *core.CrawlJob) (*core.CrawlJob, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return nil, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return nil, err
		}
	}
	job.Id = core.ID(nextID)

	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}
		indexKey := makeJobPersonaKey(job.PersonaId, job.Id)
		if err := tx.Set(indexKey, storage.MarshalID(job.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return job, err
}

// UpdateJob overwrites an existing job record.
func (r *JobRepository) UpdateJob(ctx context.Context, job *core.CrawlJob) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(job.Id)
		old, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves a job by ID.
func (r *JobRepository) GetJob(ctx context.Context, id core.ID) (*core.CrawlJob, error) {
	var result *core.CrawlJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readJob(tx, makeJobKey(id))
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

// LatestBySource returns the most recent job per source URL for a persona.
func (r *JobRepository) LatestBySource(ctx context.Context, personaID string) (map[string]*core.CrawlJob, error) {
	latest := make(map[string]*core.CrawlJob)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeJobPersonaPrefix(personaID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var jobID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				jobID, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			job, err := readJob(tx, makeJobKey(jobID))
			if err != nil {
				return err
			}
			if job == nil {
				continue
			}

			current, ok := latest[job.URL]
			if !ok || jobMoreRecent(job, current) {
				latest[job.URL] = job
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return latest, nil
}

// jobMoreRecent reports whether a supersedes b: later enqueue time wins,
// with the higher sequence ID breaking ties.
func jobMoreRecent(a, b *core.CrawlJob) bool {
	if !a.EnqueuedAt.Equal(b.EnqueuedAt) {
		return a.EnqueuedAt.After(b.EnqueuedAt)
	}
	return a.Id > b.Id
}

// readJob reads a crawl job record from the transaction.
func readJob(tx *badger.Txn, key []byte) (*core.CrawlJob, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *core.CrawlJob
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}
