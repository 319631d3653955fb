package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotwin/echotwin/ai/mock"
	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage/badger"
)

func newTestResponder(t *testing.T, opts ...Option) (*Responder, *badger.MemoryRepositories, *mock.MockProvider) {
	t.Helper()

	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	provider := mock.NewMockProvider()
	responder, err := NewResponder(repos.Personas, repos.Chunks, provider, opts...)
	require.NoError(t, err)

	return responder, repos, provider
}

func seedPersona(t *testing.T, repos *badger.MemoryRepositories) {
	t.Helper()
	require.NoError(t, repos.Personas.PutPersona(context.Background(), &core.Persona{
		Id:   "persona-1",
		Name: "Alex Rivera",
		Bio:  "Travel filmmaker and camera nerd.",
	}))
}

func TestChat_PersonaNotFound(t *testing.T) {
	responder, _, provider := newTestResponder(t)

	_, err := responder.Chat(context.Background(), "nobody", "hello")
	assert.ErrorIs(t, err, ErrPersonaNotFound)
	assert.Zero(t, provider.MockEmbedder.CallCount())
	assert.Zero(t, provider.MockGenerator.CallCount())
}

func TestChat_KeywordRuleShortCircuits(t *testing.T) {
	responder, repos, provider := newTestResponder(t)
	ctx := context.Background()
	seedPersona(t, repos)

	require.NoError(t, repos.Personas.PutKeywordRules(ctx, "persona-1", []core.KeywordRule{
		{Keywords: "sponsor, sponsorship", Response: "For sponsorships, email mgmt@example.com.", Priority: 1},
	}))

	reply, err := responder.Chat(ctx, "persona-1", "Hey! Interested in a sponsorship?")
	require.NoError(t, err)
	assert.Equal(t, "For sponsorships, email mgmt@example.com.", reply.Text)
	assert.Empty(t, reply.Sources)

	// The canned response path must never touch the models.
	assert.Zero(t, provider.MockEmbedder.CallCount())
	assert.Zero(t, provider.MockGenerator.CallCount())
}

func TestChat_PromptCarriesPersonaContext(t *testing.T) {
	responder, repos, provider := newTestResponder(t)
	ctx := context.Background()
	seedPersona(t, repos)

	require.NoError(t, repos.Personas.PutFacts(ctx, "persona-1", []string{"Based in Lisbon"}))
	require.NoError(t, repos.Personas.PutQAPairs(ctx, "persona-1", []core.QAPair{
		{Question: "Favorite lens?", Answer: "The 35mm f/1.4, no contest."},
	}))
	require.NoError(t, repos.Personas.PutTopicsToAvoid(ctx, "persona-1", []string{"politics"}))

	_, err := responder.Chat(ctx, "persona-1", "what do you think about the election?")
	require.NoError(t, err)

	prompt := provider.MockGenerator.LastSystemPrompt
	assert.Contains(t, prompt, "Alex Rivera")
	assert.Contains(t, prompt, "Travel filmmaker and camera nerd.")
	assert.Contains(t, prompt, "Based in Lisbon")
	assert.Contains(t, prompt, "The 35mm f/1.4, no contest.")
	assert.Contains(t, prompt, "politics")
	assert.Equal(t, "what do you think about the election?", provider.MockGenerator.LastUserMessage)
}

func TestChat_RetrievedChunksFeedPromptAndSources(t *testing.T) {
	responder, repos, provider := newTestResponder(t)
	ctx := context.Background()
	seedPersona(t, repos)

	message := "What camera do you use for b-roll?"

	// Store a chunk whose vector equals the message embedding, so it comes
	// back with similarity 1.
	_, err := repos.Chunks.StoreChunks(ctx, &core.ContentChunk{
		PersonaId: "persona-1",
		Type:      core.SourceTypeVideo,
		URL:       "https://youtu.be/abc12345678",
		Text:      "I shoot most of my b-roll on the Sony A7IV.",
		Vector:    mock.DeterministicVector(message),
	})
	require.NoError(t, err)

	reply, err := responder.Chat(ctx, "persona-1", message)
	require.NoError(t, err)

	prompt := provider.MockGenerator.LastSystemPrompt
	assert.Contains(t, prompt, "I shoot most of my b-roll on the Sony A7IV.")
	assert.Contains(t, prompt, "[video]")

	require.Len(t, reply.Sources, 1)
	assert.Equal(t, core.SourceTypeVideo, reply.Sources[0].Type)
	assert.Equal(t, "https://youtu.be/abc12345678", reply.Sources[0].URL)
	assert.InDelta(t, 1.0, reply.Sources[0].Similarity, 0.0001)
}

func TestChat_EmbedderFailureDegradesToNoRetrieval(t *testing.T) {
	responder, repos, provider := newTestResponder(t)
	ctx := context.Background()
	seedPersona(t, repos)

	_, err := repos.Chunks.StoreChunks(ctx, &core.ContentChunk{
		PersonaId: "persona-1",
		Type:      core.SourceTypeVideo,
		URL:       "https://youtu.be/abc12345678",
		Text:      "unreachable without an embedding",
		Vector:    mock.DeterministicVector("anything"),
	})
	require.NoError(t, err)

	provider.MockEmbedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("backend down")
	}

	reply, err := responder.Chat(ctx, "persona-1", "hello there")
	require.NoError(t, err)
	assert.Empty(t, reply.Sources)
	assert.NotContains(t, provider.MockGenerator.LastSystemPrompt, "unreachable without an embedding")
	assert.NotEmpty(t, reply.Text)
}

func TestChat_GenerationFailureApologizesAsPersona(t *testing.T) {
	responder, repos, provider := newTestResponder(t)
	ctx := context.Background()
	seedPersona(t, repos)

	provider.MockGenerator.GenerateFunc = func(ctx context.Context, systemPrompt, userMessage string) (string, error) {
		return "", errors.New("model crashed")
	}

	reply, err := responder.Chat(ctx, "persona-1", "hello")
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Alex Rivera")
	assert.True(t, strings.HasPrefix(reply.Text, "Sorry,"))
	assert.Empty(t, reply.Sources)
}

func TestChat_MaxHitsBoundsRetrieval(t *testing.T) {
	responder, repos, _ := newTestResponder(t, WithMaxHits(2))
	ctx := context.Background()
	seedPersona(t, repos)

	message := "tell me about cameras"
	for _, text := range []string{"chunk one", "chunk two", "chunk three", "chunk four"} {
		_, err := repos.Chunks.StoreChunks(ctx, &core.ContentChunk{
			PersonaId: "persona-1",
			Type:      core.SourceTypeDocument,
			URL:       "https://example.com/notes.pdf",
			Text:      text,
			Vector:    mock.DeterministicVector(message),
		})
		require.NoError(t, err)
	}

	reply, err := responder.Chat(ctx, "persona-1", message)
	require.NoError(t, err)
	assert.Len(t, reply.Sources, 2)
}

func TestNewResponder_MissingDependencies(t *testing.T) {
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()
	provider := mock.NewMockProvider()

	_, err = NewResponder(nil, repos.Chunks, provider)
	assert.ErrorIs(t, err, ErrPersonaRepositoryRequired)

	_, err = NewResponder(repos.Personas, nil, provider)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewResponder(repos.Personas, repos.Chunks, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}
