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


package echotwin

import (
	"context"
	"log/slog"

	"github.com/echotwin/echotwin/ai"
	"github.com/echotwin/echotwin/ai/openai"
	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/crawler"
	"github.com/echotwin/echotwin/ingestion"
	"github.com/echotwin/echotwin/rag"
	"github.com/echotwin/echotwin/storage"
	"github.com/echotwin/echotwin/storage/badger"
)

// Database bundles the storage backend, repositories and AI provider behind
// one handle. It is the entry point for embedding echotwin in a program.
type Database struct {
	backend     *badger.Backend
	chunkRepo   storage.ChunkRepository
	personaRepo storage.PersonaRepository
	sourceRepo  storage.SourceRepository
	jobRepo     storage.JobRepository
	provider    ai.Provider
	crawlers    *crawler.Registry
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI backend configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithAIProvider injects a pre-built AI provider, bypassing the config.
// Mainly useful for tests and embedders with custom backends.
func WithAIProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemoryStorage keeps all data in memory instead of on disk.
func WithInMemoryStorage() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens (or creates) an echotwin database at filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	personaRepo, err := badger.NewPersonaRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	sourceRepo, err := badger.NewSourceRepository(backend)
	if err != nil {
		personaRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	jobRepo, err := badger.NewJobRepository(backend)
	if err != nil {
		sourceRepo.Close()
		personaRepo.Close()
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings unless one was injected
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			jobRepo.Close()
			sourceRepo.Close()
			personaRepo.Close()
			chunkRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:     backend,
		chunkRepo:   chunkRepo,
		personaRepo: personaRepo,
		sourceRepo:  sourceRepo,
		jobRepo:     jobRepo,
		provider:    provider,
		crawlers:    crawler.NewRegistry(),
		logger:      slog.Default(),
	}, nil
}

// Close releases the AI provider, repositories and backing storage.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.jobRepo.Close(); err != nil {
		db.logger.Error("error closing job repository", "err", err)
		return err
	}
	if err := db.sourceRepo.Close(); err != nil {
		db.logger.Error("error closing source repository", "err", err)
		return err
	}
	if err := db.personaRepo.Close(); err != nil {
		db.logger.Error("error closing persona repository", "err", err)
		return err
	}
	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) PersonaRepository() storage.PersonaRepository {
	return db.personaRepo
}

func (db *Database) SourceRepository() storage.SourceRepository {
	return db.sourceRepo
}

func (db *Database) JobRepository() storage.JobRepository {
	return db.jobRepo
}

func (db *Database) CrawlerRegistry() *crawler.Registry {
	return db.crawlers
}

// NewIngestionPipeline creates a pipeline wired to this database.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.chunkRepo, db.sourceRepo, db.jobRepo, db.crawlers, db.provider, opts...)
}

// NewResponder creates a chat responder wired to this database.
func (db *Database) NewResponder(opts ...rag.Option) (*rag.Responder, error) {
	return rag.NewResponder(db.personaRepo, db.chunkRepo, db.provider, opts...)
}

// RemoveSource deletes a source registration and cascades removal of every
// chunk that came from it.
func (db *Database) RemoveSource(ctx context.Context, personaID string, id core.ID) error {
	source, err := db.sourceRepo.GetSource(ctx, personaID, id)
	if err != nil {
		return err
	}
	if err := db.sourceRepo.DeleteSource(ctx, personaID, id); err != nil {
		return err
	}

	deleted, err := db.chunkRepo.DeleteBySource(ctx, personaID, source.URL)
	if err != nil {
		return err
	}
	db.logger.Info("source removed", "personaId", personaID, "sourceId", uint64(id), "chunksDeleted", deleted)
	return nil
}
