package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AzielCF/az-estate/infrastructure/valkey"
)

// ValkeySessionStore implements session.Store on top of Valkey string keys
// with native expiry. Safe for several nodes sharing one server.
type ValkeySessionStore struct {
	client *valkey.Client
	prefix string
}

func NewValkeySessionStore(client *valkey.Client) *ValkeySessionStore {
	return &ValkeySessionStore{
		client: client,
		prefix: client.Key("session") + ":",
	}
}

func (s *ValkeySessionStore) fullKey(key string) string {
	return s.prefix + key
}

func (s *ValkeySessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, found, err := s.client.GetString(ctx, s.fullKey(key))
	if err != nil {
		return "", false, fmt.Errorf("failed to get session key %s: %w", key, err)
	}
	return value, found, nil
}

func (s *ValkeySessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("invalid ttl %v for session key %s", ttl, key)
	}
	if err := s.client.SetWithTTL(ctx, s.fullKey(key), value, ttl); err != nil {
		return fmt.Errorf("failed to save session key %s: %w", key, err)
	}
	return nil
}

func (s *ValkeySessionStore) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, key)
}

func (s *ValkeySessionStore) DeleteMany(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.fullKey(k)
	}
	if err := s.client.Del(ctx, full...); err != nil {
		return fmt.Errorf("failed to delete %d session keys: %w", len(keys), err)
	}
	return nil
}

// List scans the keys starting with prefix. Returned keys have the store
// prefix stripped.
func (s *ValkeySessionStore) List(ctx context.Context, prefix string) ([]string, error) {
	found, err := s.client.ScanKeys(ctx, s.fullKey(prefix)+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan session keys: %w", err)
	}
	keys := make([]string, 0, len(found))
	for _, k := range found {
		keys = append(keys, strings.TrimPrefix(k, s.prefix))
	}
	return keys, nil
}
