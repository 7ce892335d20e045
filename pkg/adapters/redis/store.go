package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultIndexKey is the sorted set tracking stored keys for Keys.
const DefaultIndexKey = "storyboard:index"

// noExpiry is the index score of entries without TTL (2100-01-01).
const noExpiry = 4102444800

// Store implements ports.KVStore using Redis. Values are stored verbatim
// under namespace+key, so progress keys keep their documented format.
type Store struct {
	client    *backend.Client
	namespace string
	indexKey  string
	ttl       time.Duration
}

var (
	_ ports.KVStore   = (*Store)(nil)
	_ ports.KeyLister = (*Store)(nil)
)

type Option func(*Store)

// WithTTL sets the expiration for entries.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithNamespace prepends ns to every key, including the index.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		s.namespace = ns
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:   client,
		indexKey: DefaultIndexKey,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to build a Locker.
func (s *Store) Client() *backend.Client { return s.client }

func (s *Store) key(key string) string {
	return s.namespace + key
}

func (s *Store) index() string {
	return s.namespace + s.indexKey
}

// Set stores value and records key in the index.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(key), value, s.ttl)

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = noExpiry
	}
	pipe.ZAdd(ctx, s.index(), backend.Z{Score: score, Member: key})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get retrieves the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// Delete removes the key and its index entry.
func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(key))
	pipe.ZRem(ctx, s.index(), key)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Keys lists indexed keys starting with prefix. Expired entries are pruned
// from the index first.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.index(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired keys: %w", err)
	}

	members, err := s.client.ZRange(ctx, s.index(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make([]string, 0, len(members))
	for _, m := range members {
		if strings.HasPrefix(m, prefix) {
			keys = append(keys, m)
		}
	}
	return keys, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
