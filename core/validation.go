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


package core

import "fmt"

// ValidateSourceType validates that a SourceType has a valid value.
func ValidateSourceType(t SourceType) error {
	switch t {
	case SourceTypeVideo, SourceTypeSocial, SourceTypeDocument:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidSourceType, t)
	}
}

// ValidateSource validates a ContentSource according to domain rules.
//
// Validation rules:
//   - PersonaId must not be empty
//   - Type must be one of the closed source-type set
//   - URL must not be empty unless RawContent carries an uploaded payload
//
// NOT validated:
//   - ID (0 is valid from database sequences)
//   - LastProcessedAt (zero until first successful ingest)
func ValidateSource(source *ContentSource) error {
	if source == nil {
		return fmt.Errorf("%w: source is nil", ErrInvalidSource)
	}

	if source.PersonaId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSource, ErrEmptyPersonaId)
	}

	if err := ValidateSourceType(source.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}

	if source.URL == "" && len(source.RawContent) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSource, ErrEmptySourceURL)
	}

	return nil
}

// ValidateChunk validates a ContentChunk according to domain rules.
//
// Validation rules:
//   - PersonaId must not be empty
//   - Text must not be empty
//   - Type must be one of the closed source-type set
//
// NOT validated (populated by the pipeline):
//   - Vector (can be empty until embedded; dimension is enforced at search time)
//   - ID (assigned from content hash on store)
func ValidateChunk(chunk *ContentChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.PersonaId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyPersonaId)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	if err := ValidateSourceType(chunk.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	return nil
}

// ValidatePersona validates a Persona according to domain rules.
func ValidatePersona(persona *Persona) error {
	if persona == nil {
		return fmt.Errorf("%w: persona is nil", ErrInvalidPersona)
	}

	if persona.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrEmptyPersonaId)
	}

	if persona.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPersona, ErrEmptyPersonaName)
	}

	return nil
}
