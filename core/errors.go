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

import "errors"

// Domain validation errors
var (
	// ErrInvalidSourceType indicates a source type outside the closed set.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrInvalidSource indicates a ContentSource failed validation.
	ErrInvalidSource = errors.New("invalid content source")

	// ErrInvalidChunk indicates a ContentChunk failed validation.
	ErrInvalidChunk = errors.New("invalid content chunk")

	// ErrInvalidPersona indicates a Persona failed validation.
	ErrInvalidPersona = errors.New("invalid persona")

	// ErrEmptyPersonaId indicates the persona id field is empty.
	ErrEmptyPersonaId = errors.New("persona id cannot be empty")

	// ErrEmptySourceURL indicates the source URL field is empty.
	ErrEmptySourceURL = errors.New("source url cannot be empty")

	// ErrEmptyChunkText indicates the chunk text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrEmptyPersonaName indicates the persona name field is empty.
	ErrEmptyPersonaName = errors.New("persona name cannot be empty")
)
