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


// Package storage provides the storage abstraction layer for echotwin.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Repositories
//
//   - ChunkRepository: embedded content chunks and vector similarity search
//   - PersonaRepository: persona profiles plus their facts, Q&A examples,
//     topics to avoid and keyword rules
//   - SourceRepository: registered content sources per persona
//   - JobRepository: append-only crawl job attempt history
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interface types to enforce
// abstraction and enable multiple storage backend implementations:
//
//	chunks, err := badger.NewChunkRepository(backend)  // returns storage.ChunkRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. A chat turn reads persona configuration
// records concurrently; the ingestion workers write chunks concurrently.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific timeout
// requirements.
package storage
