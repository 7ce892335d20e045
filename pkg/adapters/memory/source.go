package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/storyboard/internal/compiler"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
)

// Source implements ports.ScenarioSource over documents held in memory.
type Source struct {
	mu   sync.RWMutex
	docs map[string]ports.Document
}

var _ ports.ScenarioSource = (*Source)(nil)

// NewSource creates a source from raw JSON documents keyed by scenario id.
func NewSource(docs map[string]string) *Source {
	s := &Source{docs: make(map[string]ports.Document, len(docs))}
	for id, data := range docs {
		s.Put(id, compiler.FormatJSON, []byte(data))
	}
	return s
}

// Put adds or replaces a document.
func (s *Source) Put(id, format string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = ports.Document{ID: id, Format: format, Data: append([]byte(nil), data...)}
}

// Fetch returns the document stored under id.
func (s *Source) Fetch(ctx context.Context, id string) (ports.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return ports.Document{}, fmt.Errorf("%w: %s", domain.ErrScenarioNotFound, id)
	}
	doc.Data = append([]byte(nil), doc.Data...)
	return doc, nil
}

// Index lists every document by id, with titles read from the documents.
func (s *Source) Index(ctx context.Context) ([]domain.ScenarioRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refs := make([]domain.ScenarioRef, 0, len(s.docs))
	for id, doc := range s.docs {
		refs = append(refs, domain.ScenarioRef{ID: id, Title: compiler.Title(doc.Data, doc.Format)})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}
