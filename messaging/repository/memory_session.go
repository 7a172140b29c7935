package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// MemorySessionStore implements session.Store with a map in process memory.
// It is the default for single node setups; data is lost on restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	stopCh   chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	value    string
	expireAt time.Time
}

// NewMemorySessionStore starts a cleanup goroutine that evicts expired keys.
// Call Close to stop it.
func NewMemorySessionStore() *MemorySessionStore {
	ms := &MemorySessionStore{
		entries: make(map[string]memoryEntry),
		stopCh:  make(chan struct{}),
	}
	go ms.cleanupLoop(30 * time.Second)
	return ms
}

func (ms *MemorySessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	e, ok := ms.entries[key]
	if !ok {
		return "", false, nil
	}
	// Expired entries are left for the cleanup loop
	if time.Now().After(e.expireAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (ms *MemorySessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.entries[key] = memoryEntry{value: value, expireAt: time.Now().Add(ttl)}
	return nil
}

func (ms *MemorySessionStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

func (ms *MemorySessionStore) DeleteMany(ctx context.Context, keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for _, key := range keys {
		delete(ms.entries, key)
	}
	return nil
}

// List returns the live keys starting with prefix, sorted.
func (ms *MemorySessionStore) List(ctx context.Context, prefix string) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	var result []string
	for key, e := range ms.entries {
		if now.After(e.expireAt) {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			result = append(result, key)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (ms *MemorySessionStore) Close() {
	ms.stopOnce.Do(func() { close(ms.stopCh) })
}

func (ms *MemorySessionStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stopCh:
			return
		case <-ticker.C:
			ms.cleanup()
		}
	}
}

func (ms *MemorySessionStore) cleanup() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range ms.entries {
		if now.After(e.expireAt) {
			delete(ms.entries, key)
			removed++
			logrus.Debugf("[MemorySessionStore] Cleaned up expired key: %s", key)
		}
	}
	if removed > 0 {
		logrus.Infof("[MemorySessionStore] Cleanup: removed %d expired keys", removed)
	}
	return removed
}

// Stats returns basic statistics about the store
func (ms *MemorySessionStore) Stats() (total int, expired int) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	for _, e := range ms.entries {
		total++
		if now.After(e.expireAt) {
			expired++
		}
	}
	return
}
