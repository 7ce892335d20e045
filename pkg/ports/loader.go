package ports

import (
	"context"

	"github.com/aretw0/storyboard/pkg/domain"
)

// Document is a raw, undecoded scenario document.
type Document struct {
	ID string
	// Format is "json" or "yaml". Empty means json.
	Format string
	Data   []byte
}

// ScenarioSource defines how scenario documents are retrieved.
// This allows the storage layer (filesystem, HTTP, memory) to be decoupled.
type ScenarioSource interface {
	// Fetch retrieves the raw document for a scenario id.
	// Implementations wrap domain.ErrScenarioNotFound or domain.ErrLoadFailed.
	Fetch(ctx context.Context, id string) (Document, error)

	// Index lists the scenarios available from this source.
	Index(ctx context.Context) ([]domain.ScenarioRef, error)
}
