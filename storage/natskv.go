package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the JetStream KV bucket holding store payloads.
const DefaultBucket = "HUDDLE_STATE"

// KVBackend persists store payloads in a NATS JetStream key-value bucket,
// one key per store name.
type KVBackend struct {
	kv jetstream.KeyValue
}

// NewKVBackend creates a KV backend, creating the bucket if it does not
// exist.
func NewKVBackend(ctx context.Context, js jetstream.JetStream, bucket string) (*KVBackend, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	kv, err := js.KeyValue(ctx, bucket)
	if err != nil {
		// Bucket doesn't exist, create it
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      bucket,
			Description: "Huddle state storage",
			History:     5, // Keep last 5 revisions
		})
		if err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &KVBackend{kv: kv}, nil
}

// Load implements Backend.
func (b *KVBackend) Load(ctx context.Context, name string) ([]byte, error) {
	entry, err := b.kv.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", name, err)
	}
	return entry.Value(), nil
}

// Save implements Backend.
func (b *KVBackend) Save(ctx context.Context, name string, data []byte) error {
	if _, err := b.kv.Put(ctx, name, data); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}
