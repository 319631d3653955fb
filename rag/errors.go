package rag

import "errors"

var (
	// ErrPersonaNotFound is returned when the requested persona doesn't exist.
	// It is the only hard failure a chat turn can produce.
	ErrPersonaNotFound = errors.New("persona not found")

	// ErrPersonaRepositoryRequired is returned when a persona repository is not provided.
	ErrPersonaRepositoryRequired = errors.New("persona repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)
