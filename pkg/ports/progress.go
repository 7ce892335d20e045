package ports

import (
	"context"

	"github.com/aretw0/storyboard/pkg/domain"
)

// ProgressStore persists the position of one (scenario, act) pair.
// pkg/progress provides the implementation over any KVStore.
type ProgressStore interface {
	Save(ctx context.Context, scenarioID, actID string, p domain.Progress) error

	// Load returns domain.ErrProgressNotFound when nothing is stored.
	Load(ctx context.Context, scenarioID, actID string) (domain.Progress, error)

	// Reset deletes the stored entry.
	Reset(ctx context.Context, scenarioID, actID string) error
}
