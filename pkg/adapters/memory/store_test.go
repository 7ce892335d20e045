package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/storyboard/pkg/adapters/memory"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunKVStoreContract(t, store)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	buf := []byte(`{"nodeId":"a1s1"}`)
	require.NoError(t, store.Set(ctx, "k", buf))
	buf[2] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"nodeId":"a1s1"}`, string(got))
}

func TestMemorySource_Contract(t *testing.T) {
	docs := map[string]string{
		"intro":  `{"title": "Intro", "steps": ["Hello"]}`,
		"finale": `{"steps": ["Bye"]}`,
	}
	source := memory.NewSource(docs)

	seeded := make(map[string][]byte, len(docs))
	for id, d := range docs {
		seeded[id] = []byte(d)
	}
	ports.RunScenarioSourceContract(t, source, seeded)

	refs, err := source.Index(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "finale", refs[0].ID)
	assert.Empty(t, refs[0].Title)
	assert.Equal(t, "Intro", refs[1].Title)
}
