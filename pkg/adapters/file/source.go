package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/storyboard/internal/compiler"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
)

// IndexFile is the optional picker index inside a scenario directory.
const IndexFile = "index.json"

var documentExts = []string{".json", ".yaml", ".yml"}

// Source implements ports.ScenarioSource over a directory of documents named
// "<id>.json", "<id>.yaml" or "<id>.yml".
type Source struct {
	Dir string
}

var _ ports.ScenarioSource = (*Source)(nil)

// NewSource creates a Source reading from dir.
func NewSource(dir string) *Source {
	if dir == "" {
		dir = "."
	}
	return &Source{Dir: dir}
}

// Fetch reads the document for id, trying each known extension in turn.
func (s *Source) Fetch(ctx context.Context, id string) (ports.Document, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == ".." || strings.TrimSuffix(IndexFile, ".json") == id {
		return ports.Document{}, fmt.Errorf("%w: %q", domain.ErrScenarioNotFound, id)
	}

	for _, ext := range documentExts {
		data, err := os.ReadFile(filepath.Join(s.Dir, id+ext))
		if err == nil {
			return ports.Document{ID: id, Format: compiler.FormatFromPath(ext), Data: data}, nil
		}
		if !os.IsNotExist(err) {
			return ports.Document{}, fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
		}
	}
	return ports.Document{}, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
}

// Index returns the entries of index.json when present, else one entry per
// document file with the title read from the document.
func (s *Source) Index(ctx context.Context) ([]domain.ScenarioRef, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, IndexFile))
	switch {
	case err == nil:
		return parseIndex(data)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
	}

	seen := make(map[string]bool)
	var refs []domain.ScenarioRef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !isDocumentExt(ext) || name == IndexFile {
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if seen[id] {
			continue
		}
		seen[id] = true

		ref := domain.ScenarioRef{ID: id}
		if doc, err := os.ReadFile(filepath.Join(s.Dir, name)); err == nil {
			ref.Title = compiler.Title(doc, compiler.FormatFromPath(name))
		}
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

func isDocumentExt(ext string) bool {
	for _, e := range documentExts {
		if e == ext {
			return true
		}
	}
	return false
}

// parseIndex accepts a bare array of {id, title} or {"scenarios": [...]}.
// Entries without an id are skipped.
func parseIndex(data []byte) ([]domain.ScenarioRef, error) {
	var refs []domain.ScenarioRef
	if err := json.Unmarshal(data, &refs); err != nil {
		var wrapped struct {
			Scenarios []domain.ScenarioRef `json:"scenarios"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("%w: index: %v", domain.ErrLoadFailed, err)
		}
		refs = wrapped.Scenarios
	}

	out := refs[:0]
	for _, r := range refs {
		if r.ID != "" {
			out = append(out, r)
		}
	}
	return out, nil
}
