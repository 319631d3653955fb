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

import "github.com/echotwin/echotwin/storage"

// MemoryRepositories bundles in-memory repositories for testing.
// Caller must Close when done.
type MemoryRepositories struct {
	Chunks   storage.ChunkRepository
	Personas storage.PersonaRepository
	Sources  storage.SourceRepository
	Jobs     storage.JobRepository

	backend *Backend
}

// NewMemoryRepositories creates in-memory repositories backed by a single
// transient BadgerDB instance.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	chunks, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	personas, err := NewPersonaRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	sources, err := NewSourceRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	jobs, err := NewJobRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Chunks:   chunks,
		Personas: personas,
		Sources:  sources,
		Jobs:     jobs,
		backend:  backend,
	}, nil
}

// Close releases the repositories and the backing database.
func (m *MemoryRepositories) Close() error {
	m.Jobs.Close()
	m.Sources.Close()
	m.Personas.Close()
	m.Chunks.Close()
	return m.backend.Close()
}
