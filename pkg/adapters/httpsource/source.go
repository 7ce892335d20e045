// Package httpsource fetches scenario documents from a static HTTP host:
// "{base}/{id}.json" for documents and "{base}/index.json" for the picker.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/storyboard/internal/compiler"
	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
)

// maxDocumentSize caps a fetched body.
const maxDocumentSize = 8 << 20

// Option configures the Source.
type Option func(*Source)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithExtension changes the document suffix, e.g. ".yaml".
func WithExtension(ext string) Option {
	return func(s *Source) {
		if ext != "" {
			s.ext = ext
		}
	}
}

// Source implements ports.ScenarioSource over HTTP.
type Source struct {
	base   string
	ext    string
	client *http.Client
}

var _ ports.ScenarioSource = (*Source)(nil)

// New creates a Source rooted at baseURL.
func New(baseURL string, opts ...Option) *Source {
	s := &Source{
		base:   strings.TrimRight(baseURL, "/"),
		ext:    ".json",
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch downloads the document for id. A 404 maps to
// domain.ErrScenarioNotFound; any other failure to domain.ErrLoadFailed.
func (s *Source) Fetch(ctx context.Context, id string) (ports.Document, error) {
	if id == "" {
		return ports.Document{}, fmt.Errorf("%w: empty id", domain.ErrScenarioNotFound)
	}
	data, err := s.get(ctx, s.base+"/"+url.PathEscape(id)+s.ext)
	if err != nil {
		return ports.Document{}, err
	}
	return ports.Document{ID: id, Format: compiler.FormatFromPath(s.ext), Data: data}, nil
}

// Index downloads index.json. Both a bare array of {id, title} and
// {"scenarios": [...]} are accepted.
func (s *Source) Index(ctx context.Context) ([]domain.ScenarioRef, error) {
	data, err := s.get(ctx, s.base+"/index.json")
	if err != nil {
		return nil, err
	}

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

func (s *Source) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLoadFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: GET %s", domain.ErrScenarioNotFound, target)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: GET %s: status %d", domain.ErrLoadFailed, target, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrLoadFailed, err)
	}
	return data, nil
}
