// Package progress stores per-act play progress on top of a key/value store.
//
// Entries live under "{prefix}:{scenarioId}:{actId}" and hold the JSON value
// {"nodeId": ..., "meters": {...}, "baseline": {...}}. The key format and the
// value shape are stable so sessions saved by older builds keep loading.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
)

// Option configures the Store.
type Option func(*Store)

// WithPrefix overrides domain.DefaultProgressPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// Store implements ports.ProgressStore.
type Store struct {
	kv     ports.KVStore
	prefix string
}

var _ ports.ProgressStore = (*Store)(nil)

// New creates a Store backed by kv.
func New(kv ports.KVStore, opts ...Option) *Store {
	s := &Store{kv: kv, prefix: domain.DefaultProgressPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefix returns the key prefix in use.
func (s *Store) Prefix() string { return s.prefix }

// Key derives the storage key of a (scenario, act) pair.
func (s *Store) Key(scenarioID, actID string) string {
	return s.prefix + ":" + scenarioID + ":" + actID
}

// Save writes p, replacing any previous entry.
func (s *Store) Save(ctx context.Context, scenarioID, actID string, p domain.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := s.kv.Set(ctx, s.Key(scenarioID, actID), data); err != nil {
		return fmt.Errorf("failed to save progress for %s/%s: %w", scenarioID, actID, err)
	}
	return nil
}

// stored accepts the legacy "currentNodeId" field written by early builds.
type stored struct {
	domain.Progress
	CurrentNodeID string `json:"currentNodeId,omitempty"`
}

// Load returns the stored entry or domain.ErrProgressNotFound.
func (s *Store) Load(ctx context.Context, scenarioID, actID string) (domain.Progress, error) {
	data, err := s.kv.Get(ctx, s.Key(scenarioID, actID))
	if err != nil {
		if errors.Is(err, domain.ErrProgressNotFound) {
			return domain.Progress{}, err
		}
		return domain.Progress{}, fmt.Errorf("failed to load progress for %s/%s: %w", scenarioID, actID, err)
	}

	var v stored
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.Progress{}, fmt.Errorf("corrupt progress entry %q: %w", s.Key(scenarioID, actID), err)
	}
	if v.NodeID == "" {
		v.NodeID = v.CurrentNodeID
	}
	return v.Progress, nil
}

// Reset deletes the entry. The caller reinitialises meters from the baseline.
func (s *Store) Reset(ctx context.Context, scenarioID, actID string) error {
	if err := s.kv.Delete(ctx, s.Key(scenarioID, actID)); err != nil {
		return fmt.Errorf("failed to reset progress for %s/%s: %w", scenarioID, actID, err)
	}
	return nil
}

// Entry identifies one stored progress entry.
type Entry struct {
	Key        string `json:"key"`
	ScenarioID string `json:"scenarioId"`
	ActID      string `json:"actId"`
}

// ErrListUnsupported is returned by List when the backing store cannot
// enumerate keys.
var ErrListUnsupported = errors.New("store does not support listing")

// List enumerates stored entries, optionally restricted to one scenario.
// The backing store must implement ports.KeyLister.
func (s *Store) List(ctx context.Context, scenarioID string) ([]Entry, error) {
	lister, ok := s.kv.(ports.KeyLister)
	if !ok {
		return nil, ErrListUnsupported
	}

	prefix := s.prefix + ":"
	if scenarioID != "" {
		prefix += scenarioID + ":"
	}
	keys, err := lister.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	sort.Strings(keys)

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		rest := strings.TrimPrefix(key, s.prefix+":")
		i := strings.LastIndex(rest, ":")
		if i <= 0 {
			continue
		}
		// Act ids never contain ':' so the last separator splits the pair.
		entry := Entry{Key: key, ScenarioID: rest[:i], ActID: rest[i+1:]}
		if scenarioID != "" && entry.ScenarioID != scenarioID {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
