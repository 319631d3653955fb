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


package ai

import "errors"

var (
	// ErrEmbeddingBackend indicates the embedding backend failed a batch.
	// The whole batch is aborted; partial results are never returned.
	ErrEmbeddingBackend = errors.New("embedding backend error")

	// ErrGenerationBackend indicates the generation backend failed or
	// returned an unusable result.
	ErrGenerationBackend = errors.New("generation backend error")

	// ErrDimensionMismatch indicates an embedding had an unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
