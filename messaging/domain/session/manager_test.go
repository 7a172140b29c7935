package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/AzielCF/az-estate/messaging/repository"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*session.Manager, *repository.MemorySessionStore) {
	t.Helper()
	store := repository.NewMemorySessionStore()
	t.Cleanup(store.Close)
	return session.NewManager(store, 50*time.Millisecond, time.Hour), store
}

func TestManagerRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	st, err := m.Load(ctx, session.NamespaceTenant, "234801")
	require.NoError(t, err)
	assert.True(t, st.IsZero())

	want := session.Step("awaiting_description", session.Payload{ID: 7})
	require.NoError(t, m.Save(ctx, session.NamespaceTenant, "234801", want))

	got, err := m.Load(ctx, session.NamespaceTenant, "234801")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, m.Clear(ctx, session.NamespaceTenant, "234801"))
	got, err = m.Load(ctx, session.NamespaceTenant, "234801")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestManagerFlowStateExpires(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	require.NoError(t, m.Save(ctx, session.NamespaceFacility, "234801", session.Bare("awaiting_update")))
	time.Sleep(80 * time.Millisecond)

	got, err := m.Load(ctx, session.NamespaceFacility, "234801")
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestManagerRoleOutlivesFlowState(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	require.NoError(t, m.RememberRole(ctx, "234801", "property_owner"))
	require.NoError(t, m.Save(ctx, session.NamespaceOwner, "234801", session.Bare("idle")))
	time.Sleep(80 * time.Millisecond)

	role, err := m.SelectedRole(ctx, "234801")
	require.NoError(t, err)
	assert.Equal(t, "property_owner", role)

	st, err := m.Load(ctx, session.NamespaceOwner, "234801")
	require.NoError(t, err)
	assert.True(t, st.IsZero())
}

func TestManagerResetDeletesEverything(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	require.NoError(t, m.RememberRole(ctx, "234801", "tenant"))
	require.NoError(t, m.Save(ctx, session.NamespaceTenant, "234801", session.Bare("awaiting_description")))
	require.NoError(t, m.Save(ctx, session.NamespaceTenant, "234999", session.Bare("awaiting_description")))

	snap, err := m.Snapshot(ctx, "234801")
	require.NoError(t, err)
	assert.Len(t, snap, 2)

	require.NoError(t, m.Reset(ctx, "234801"))

	snap, err = m.Snapshot(ctx, "234801")
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, found, err := store.Get(ctx, session.Key(session.NamespaceTenant, "234999"))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestManagerDropsUnreadableState(t *testing.T) {
	ctx := context.Background()
	m, store := newManager(t)

	key := session.Key(session.NamespaceDefault, "234801")
	require.NoError(t, store.Set(ctx, key, "{broken", time.Minute))

	st, err := m.Load(ctx, session.NamespaceDefault, "234801")
	require.NoError(t, err)
	assert.True(t, st.IsZero())

	_, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

// failingDelete keeps the stored value when asked to delete it.
type failingDelete struct {
	*repository.MemorySessionStore
}

func (failingDelete) Delete(context.Context, string) error {
	return errors.New("store unavailable")
}

func TestManagerLogsFailedCleanupOfUnreadableState(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	ctx := context.Background()
	store := repository.NewMemorySessionStore()
	t.Cleanup(store.Close)
	m := session.NewManager(failingDelete{store}, time.Minute, time.Hour)

	key := session.Key(session.NamespaceDefault, "234801")
	require.NoError(t, store.Set(ctx, key, "{broken", time.Minute))

	st, err := m.Load(ctx, session.NamespaceDefault, "234801")
	require.NoError(t, err)
	assert.True(t, st.IsZero())

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "was not removed") {
			warned = true
			assert.EqualError(t, e.Data[logrus.ErrorKey].(error), "store unavailable")
		}
	}
	assert.True(t, warned)
}
