package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/storyboard/pkg/adapters/file"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestFileSource_Contract(t *testing.T) {
	dir := t.TempDir()
	seeded := map[string][]byte{
		"intro":  []byte(`{"title": "Intro", "steps": ["Hi"]}`),
		"finale": []byte("title: Finale\nsteps:\n  - Bye\n"),
	}
	writeFiles(t, dir, map[string]string{
		"intro.json":  string(seeded["intro"]),
		"finale.yaml": string(seeded["finale"]),
		"notes.txt":   "ignored",
	})

	source := file.NewSource(dir)
	ports.RunScenarioSourceContract(t, source, seeded)

	t.Run("Format follows extension", func(t *testing.T) {
		doc, err := source.Fetch(context.Background(), "finale")
		require.NoError(t, err)
		assert.Equal(t, "yaml", doc.Format)
	})

	t.Run("Derived index reads titles", func(t *testing.T) {
		refs, err := source.Index(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []domain.ScenarioRef{{ID: "finale", Title: "Finale"}, {ID: "intro", Title: "Intro"}}, refs)
	})

	t.Run("Path traversal is rejected", func(t *testing.T) {
		_, err := source.Fetch(context.Background(), "../intro")
		assert.ErrorIs(t, err, domain.ErrScenarioNotFound)
	})
}

func TestFileSource_IndexFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.json":     `{}`,
		"index.json": `[{"id": "a", "title": "Curated A"}, {"title": "no id"}]`,
	})

	refs, err := file.NewSource(dir).Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ScenarioRef{{ID: "a", Title: "Curated A"}}, refs)

	writeFiles(t, dir, map[string]string{"index.json": `{"scenarios": [{"id": "b"}]}`})
	refs, err = file.NewSource(dir).Index(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.ScenarioRef{{ID: "b"}}, refs)

	writeFiles(t, dir, map[string]string{"index.json": `nope`})
	_, err = file.NewSource(dir).Index(context.Background())
	assert.ErrorIs(t, err, domain.ErrLoadFailed)
}
