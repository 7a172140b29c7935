package session

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager is the typed view over a Store. Flow code only deals in State values;
// strings exist at the Store boundary only.
type Manager struct {
	store   Store
	flowTTL time.Duration
	roleTTL time.Duration
}

func NewManager(store Store, flowTTL, roleTTL time.Duration) *Manager {
	if flowTTL <= 0 {
		flowTTL = DefaultFlowTTL
	}
	if roleTTL <= 0 {
		roleTTL = DefaultRoleTTL
	}
	return &Manager{store: store, flowTTL: flowTTL, roleTTL: roleTTL}
}

// Load returns the zero State when nothing is stored. A value that cannot be
// decoded is dropped and treated the same way.
func (m *Manager) Load(ctx context.Context, ns Namespace, sender string) (State, error) {
	key := Key(ns, sender)
	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		return State{}, fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !found {
		return State{}, nil
	}
	st, err := Decode(raw)
	if err != nil {
		logrus.WithError(err).Warnf("[SESSION] Discarding unreadable state under %s", key)
		if err := m.store.Delete(ctx, key); err != nil {
			logrus.WithError(err).Warnf("[SESSION] Unreadable state under %s was not removed", key)
		}
		return State{}, nil
	}
	return st, nil
}

func (m *Manager) Save(ctx context.Context, ns Namespace, sender string, st State) error {
	raw, err := st.Encode()
	if err != nil {
		return err
	}
	key := Key(ns, sender)
	if err := m.store.Set(ctx, key, raw, m.flowTTL); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (m *Manager) Clear(ctx context.Context, ns Namespace, sender string) error {
	key := Key(ns, sender)
	if err := m.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to clear %s: %w", key, err)
	}
	return nil
}

// SelectedRole returns the remembered role name, "" when none.
func (m *Manager) SelectedRole(ctx context.Context, sender string) (string, error) {
	key := Key(NamespaceRole, sender)
	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	if !found {
		return "", nil
	}
	return raw, nil
}

func (m *Manager) RememberRole(ctx context.Context, sender, role string) error {
	key := Key(NamespaceRole, sender)
	if err := m.store.Set(ctx, key, role, m.roleTTL); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (m *Manager) ForgetRole(ctx context.Context, sender string) error {
	return m.Clear(ctx, NamespaceRole, sender)
}

// Keys lists every key that may exist for sender, role selection first.
func Keys(sender string) []string {
	keys := []string{Key(NamespaceRole, sender)}
	for _, ns := range FlowNamespaces() {
		keys = append(keys, Key(ns, sender))
	}
	return keys
}

// Reset drops the remembered role and every flow state of sender in one call.
func (m *Manager) Reset(ctx context.Context, sender string) error {
	if err := m.store.DeleteMany(ctx, Keys(sender)...); err != nil {
		return fmt.Errorf("failed to reset session of %s: %w", sender, err)
	}
	return nil
}

// Snapshot returns the raw stored value of every key of sender. Used by the
// session inspection endpoint.
func (m *Manager) Snapshot(ctx context.Context, sender string) (map[string]string, error) {
	out := make(map[string]string)
	for _, key := range Keys(sender) {
		raw, found, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", key, err)
		}
		if found {
			out[key] = raw
		}
	}
	return out, nil
}
