// Package natskv stores task lists in a NATS JetStream key-value bucket.
package natskv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rpggio/todoflow/internal/repository"
)

// keyValue is the subset of jetstream.KeyValue used by SlotStore.
type keyValue interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// Config holds NATS KV slot configuration.
type Config struct {
	// Conn is the NATS connection to use.
	Conn *nats.Conn

	// Bucket is the KV bucket name.
	Bucket string

	// History is the number of revisions to keep per key.
	// Default: 1
	History int

	// MaxValueSize is the maximum value size in bytes.
	// Default: 1MB
	MaxValueSize int32

	// Timeout bounds each KV call.
	// Default: 5s
	Timeout time.Duration
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Bucket:       "todoflow",
		History:      1,
		MaxValueSize: 1024 * 1024,
		Timeout:      5 * time.Second,
	}
}

// SlotStore implements task.Slot on a JetStream KV bucket.
type SlotStore struct {
	kv      keyValue
	timeout time.Duration
}

// New creates the bucket if needed and returns a SlotStore bound to it.
func New(ctx context.Context, cfg Config) (*SlotStore, error) {
	if cfg.Conn == nil {
		return nil, fmt.Errorf("nats connection required")
	}
	cfg = withDefaults(cfg)

	js, err := jetstream.New(cfg.Conn)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*cfg.Timeout)
	defer cancel()

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:       cfg.Bucket,
		History:      uint8(cfg.History),
		MaxValueSize: cfg.MaxValueSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create kv bucket %s: %w", cfg.Bucket, err)
	}

	return newSlotStore(kv, cfg.Timeout), nil
}

func newSlotStore(kv keyValue, timeout time.Duration) *SlotStore {
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	return &SlotStore{kv: kv, timeout: timeout}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Bucket == "" {
		cfg.Bucket = def.Bucket
	}
	if cfg.History <= 0 {
		cfg.History = def.History
	}
	if cfg.MaxValueSize <= 0 {
		cfg.MaxValueSize = def.MaxValueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return cfg
}

// Get retrieves the value stored under key.
func (s *SlotStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}

	return entry.Value(), nil
}

// Put replaces the value stored under key.
func (s *SlotStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return repository.ErrInvalidInput
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}

	return nil
}
