package mock

import "github.com/echotwin/echotwin/ai"

// MockProvider bundles mock services behind the ai.Provider interface.
type MockProvider struct {
	MockEmbedder  *MockEmbedder
	MockGenerator *MockGenerator
	CloseCalled   bool
}

// NewMockProvider creates a MockProvider with default mock services.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		MockEmbedder:  NewMockEmbedder(),
		MockGenerator: NewMockGenerator(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.MockEmbedder
}

// Generator returns the mock generation service.
func (p *MockProvider) Generator() ai.Generator {
	return p.MockGenerator
}

// Close records that it was called.
func (p *MockProvider) Close() error {
	p.CloseCalled = true
	return nil
}
