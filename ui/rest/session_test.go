package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AzielCF/az-estate/messaging/domain/session"
	"github.com/AzielCF/az-estate/messaging/repository"
	"github.com/AzielCF/az-estate/pkg/phone"
	"github.com/AzielCF/az-estate/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionApp(t *testing.T) (*fiber.App, *session.Manager) {
	t.Helper()
	store := repository.NewMemorySessionStore()
	t.Cleanup(store.Close)
	manager := session.NewManager(store, 0, 0)

	app := newApp()
	InitRestSession(app, manager, phone.NewNormalizer("234"))
	return app, manager
}

func doJSON(t *testing.T, app *fiber.App, method, path string) (int, utils.ResponseData) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var res utils.ResponseData
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	return resp.StatusCode, res
}

func TestGetSession(t *testing.T) {
	app, manager := newSessionApp(t)
	ctx := context.Background()
	sender := "2348011111111"
	require.NoError(t, manager.RememberRole(ctx, sender, "tenant"))
	require.NoError(t, manager.Save(ctx, session.NamespaceTenant, sender,
		session.Step("select_property", session.Payload{IDs: []uint{3, 4}})))

	status, res := doJSON(t, app, http.MethodGet, "/sessions/08011111111")
	require.Equal(t, http.StatusOK, status)

	results := res.Results.(map[string]any)
	assert.Equal(t, sender, results["sender"])
	entries := results["entries"].([]any)
	require.Len(t, entries, 2)

	role := entries[0].(map[string]any)
	assert.Equal(t, "selected_role_"+sender, role["key"])
	assert.Equal(t, "tenant", role["raw"])
	assert.Nil(t, role["tag"])

	flow := entries[1].(map[string]any)
	assert.Equal(t, "service_request_state_"+sender, flow["key"])
	assert.Equal(t, "select_property", flow["tag"])
}

func TestResetSession(t *testing.T) {
	app, manager := newSessionApp(t)
	ctx := context.Background()
	sender := "2348011111111"
	require.NoError(t, manager.RememberRole(ctx, sender, "landlord"))

	status, _ := doJSON(t, app, http.MethodDelete, "/sessions/2348011111111")
	require.Equal(t, http.StatusOK, status)

	snapshot, err := manager.Snapshot(ctx, sender)
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestSessionRejectsPhoneWithoutDigits(t *testing.T) {
	app, _ := newSessionApp(t)
	status, res := doJSON(t, app, http.MethodGet, "/sessions/abc")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", res.Code)
}

func TestGetSessionUnknownSender(t *testing.T) {
	app, _ := newSessionApp(t)
	status, res := doJSON(t, app, http.MethodGet, "/sessions/08099999999")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND_ERROR", res.Code)
	assert.Equal(t, "no session state for 2348099999999", res.Message)
}
