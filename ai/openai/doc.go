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


// Package openai implements the ai package interfaces against any
// OpenAI-compatible HTTP API.
//
// Both the embedder and the generator are thin wrappers over langchaingo's
// openai client. Because the endpoints are configured per service, the
// embedding and generation backends can live on different hosts (for example
// a local Ollama for embeddings and a hosted API for generation).
package openai
