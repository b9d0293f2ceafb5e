package delivery

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"somplus/domain"
)

type fakeMonitorUC struct {
	statuses []domain.RunStatus
}

func (f *fakeMonitorUC) RunCycle(ctx context.Context) error { return nil }

func (f *fakeMonitorUC) Statuses() []domain.RunStatus { return f.statuses }

func newTestApp(uc domain.MonitorUseCase, trigger chan struct{}) *fiber.App {
	app := fiber.New()
	NewMonitorDelivery(app, uc, "ops-token", trigger)
	return app
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(&fakeMonitorUC{}, make(chan struct{}, 1))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	uc := &fakeMonitorUC{statuses: []domain.RunStatus{
		{Username: "alice", Domain: domain.DomainGrades, State: domain.StateIdle, Changes: 2},
	}}
	app := newTestApp(uc, make(chan struct{}, 1))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded struct {
		Success bool               `json:"success"`
		Data    []domain.RunStatus `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(body, &decoded))
	assert.True(t, decoded.Success)
	require.Len(t, decoded.Data, 1)
	assert.Equal(t, "alice", decoded.Data[0].Username)
	assert.Equal(t, 2, decoded.Data[0].Changes)
}

func TestRunEndpointRequiresToken(t *testing.T) {
	app := newTestApp(&fakeMonitorUC{}, make(chan struct{}, 1))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/run", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRunEndpointTriggersCycle(t *testing.T) {
	trigger := make(chan struct{}, 1)
	app := newTestApp(&fakeMonitorUC{}, trigger)

	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	req.Header.Set("Authorization", "Bearer ops-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.Len(t, trigger, 1)

	// A second trigger while one is pending reports a conflict.
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
