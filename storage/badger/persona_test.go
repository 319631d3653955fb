package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotwin/echotwin/core"
	"github.com/echotwin/echotwin/storage"
)

func TestPutGetPersona(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	persona := &core.Persona{
		Id:   "persona-1",
		Name: "Alex Rivera",
		Bio:  "Travel filmmaker and camera nerd.",
	}

	require.NoError(t, repos.Personas.PutPersona(ctx, persona))
	assert.False(t, persona.InsertedAt.IsZero())
	assert.False(t, persona.UpdatedAt.IsZero())

	loaded, err := repos.Personas.GetPersona(ctx, "persona-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex Rivera", loaded.Name)
	assert.Equal(t, "Travel filmmaker and camera nerd.", loaded.Bio)
}

func TestPutPersona_UpdatePreservesInsertedAt(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	persona := &core.Persona{Id: "persona-1", Name: "Alex"}
	require.NoError(t, repos.Personas.PutPersona(ctx, persona))
	insertedAt := persona.InsertedAt

	updated := &core.Persona{Id: "persona-1", Name: "Alex Rivera", Bio: "Updated bio"}
	require.NoError(t, repos.Personas.PutPersona(ctx, updated))

	loaded, err := repos.Personas.GetPersona(ctx, "persona-1")
	require.NoError(t, err)
	assert.Equal(t, insertedAt, loaded.InsertedAt)
	assert.Equal(t, "Updated bio", loaded.Bio)
}

func TestGetPersona_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	_, err = repos.Personas.GetPersona(context.Background(), "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeletePersona_RemovesConfiguration(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()
	require.NoError(t, repos.Personas.PutPersona(ctx, &core.Persona{Id: "persona-1", Name: "Alex"}))
	require.NoError(t, repos.Personas.PutFacts(ctx, "persona-1", []string{"fact one"}))

	require.NoError(t, repos.Personas.DeletePersona(ctx, "persona-1"))

	_, err = repos.Personas.GetPersona(ctx, "persona-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	facts, err := repos.Personas.GetFacts(ctx, "persona-1")
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestDeletePersona_NotFound(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	err = repos.Personas.DeletePersona(context.Background(), "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPersonaConfigurationRecords(t *testing.T) {
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer repos.Close()

	ctx := context.Background()

	t.Run("facts", func(t *testing.T) {
		facts := []string{"Shoots on Sony bodies", "Based in Lisbon"}
		require.NoError(t, repos.Personas.PutFacts(ctx, "persona-1", facts))

		loaded, err := repos.Personas.GetFacts(ctx, "persona-1")
		require.NoError(t, err)
		assert.Equal(t, facts, loaded)
	})

	t.Run("qa pairs", func(t *testing.T) {
		pairs := []core.QAPair{{Question: "Favorite lens?", Answer: "The 35mm f/1.4."}}
		require.NoError(t, repos.Personas.PutQAPairs(ctx, "persona-1", pairs))

		loaded, err := repos.Personas.GetQAPairs(ctx, "persona-1")
		require.NoError(t, err)
		assert.Equal(t, pairs, loaded)
	})

	t.Run("topics to avoid", func(t *testing.T) {
		topics := []string{"politics", "religion"}
		require.NoError(t, repos.Personas.PutTopicsToAvoid(ctx, "persona-1", topics))

		loaded, err := repos.Personas.GetTopicsToAvoid(ctx, "persona-1")
		require.NoError(t, err)
		assert.Equal(t, topics, loaded)
	})

	t.Run("keyword rules keep stored order", func(t *testing.T) {
		rules := []core.KeywordRule{
			{Keywords: "sponsor", Response: "Email mgmt.", Priority: 1},
			{Keywords: "merch", Response: "Soon!", Priority: 2},
		}
		require.NoError(t, repos.Personas.PutKeywordRules(ctx, "persona-1", rules))

		loaded, err := repos.Personas.GetKeywordRules(ctx, "persona-1")
		require.NoError(t, err)
		assert.Equal(t, rules, loaded)
	})

	t.Run("missing records yield empty, not error", func(t *testing.T) {
		facts, err := repos.Personas.GetFacts(ctx, "persona-unconfigured")
		require.NoError(t, err)
		assert.Empty(t, facts)

		rules, err := repos.Personas.GetKeywordRules(ctx, "persona-unconfigured")
		require.NoError(t, err)
		assert.Empty(t, rules)
	})
}
