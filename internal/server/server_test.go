package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/normrepo/nrs-go/internal/config"
	"github.com/normrepo/nrs-go/internal/repository/repotest"
)

type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := config.Config{
		JWTSecret:        "test-secret",
		JWTExpiry:        time.Hour,
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
		ModuleNamePrefix: "Module",
	}
	h, err := NewRouter(ctx, cfg, repotest.NewStore(t), zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &apiClient{t: t, srv: srv}
}

// do sends body (marshalled unless it is a string) and decodes a JSON
// response into out when out is not nil.
func (c *apiClient) do(method, path, token string, body any, out any) int {
	c.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *apiClient) register(login string) string {
	c.t.Helper()

	var resp struct{ Token string }
	status := c.do(http.MethodPost, "/users", "", map[string]string{
		"login": login, "full_name": login, "email": login + "@example.com", "password": "password123",
	}, &resp)
	require.Equal(c.t, http.StatusCreated, status)
	require.NotEmpty(c.t, resp.Token)
	return resp.Token
}

func (c *apiClient) createProject(token string) int64 {
	c.t.Helper()

	var resp struct{ ID int64 }
	status := c.do(http.MethodPost, "/project", token, map[string]any{"name": "alpha", "target": 1}, &resp)
	require.Equal(c.t, http.StatusCreated, status)
	return resp.ID
}

func TestHealth(t *testing.T) {
	api := newAPI(t)

	resp, err := api.srv.Client().Get(api.srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	api := newAPI(t)
	api.do(http.MethodGet, "/user", "", nil, nil)

	resp, err := api.srv.Client().Get(api.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), `nrs_auth_token_failures_total{reason="missing"} 1`)
	assert.Contains(t, string(body), "nrs_http_requests_total")
}

func TestAccountFlow(t *testing.T) {
	api := newAPI(t)
	token := api.register("ann")

	var account map[string]string
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/user", token, nil, &account))
	assert.Equal(t, map[string]string{"login": "ann", "full_name": "ann", "email": "ann@example.com"}, account)

	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/user", token, map[string]string{"full_name": "Ann Lee"}, &account))
	assert.Equal(t, "Ann Lee", account["full_name"])

	var errResp map[string]string
	status := api.do(http.MethodPut, "/user/password", token,
		map[string]string{"old_password": "nope", "new_password": "next"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "old password does not match", errResp["error"])

	status = api.do(http.MethodPut, "/user/password", token,
		map[string]string{"old_password": "password123", "new_password": "next"}, nil)
	assert.Equal(t, http.StatusNoContent, status)

	var login struct{ Token string }
	status = api.do(http.MethodPost, "/users/login", "", map[string]string{"email": "ann@example.com", "password": "next"}, &login)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, login.Token)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/user", token, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/user", token, nil, nil))
}

func TestRegisterAndLoginErrors(t *testing.T) {
	api := newAPI(t)
	api.register("ann")

	var errResp map[string]string
	status := api.do(http.MethodPost, "/users", "", map[string]string{
		"login": "ann", "full_name": "Ann", "email": "other@example.com", "password": "pw",
	}, &errResp)
	assert.Equal(t, http.StatusConflict, status)

	status = api.do(http.MethodPost, "/users/login", "", map[string]string{"email": "ann@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = api.do(http.MethodPost, "/users/login", "", map[string]string{"email": "nobody@example.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestValidationReportsEveryField(t *testing.T) {
	api := newAPI(t)

	var resp struct {
		Error      string
		Violations map[string]string
	}
	status := api.do(http.MethodPost, "/users", "", map[string]string{
		"login": "", "full_name": "", "email": "not-an-email", "password": "",
	}, &resp)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, resp.Violations, 4)
	assert.Contains(t, resp.Violations, "email")
	assert.Contains(t, resp.Error, "Input validation error")
}

func TestMalformedBodies(t *testing.T) {
	api := newAPI(t)

	var errResp map[string]string
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/users", "", "{not json", &errResp))
	assert.Equal(t, "invalid request body", errResp["error"])

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/project", api.register("ann"), "[]", nil))
}

func TestInvalidTokenIsOpaque(t *testing.T) {
	api := newAPI(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		var errResp map[string]string
		status := api.do(http.MethodGet, "/project", token, nil, &errResp)
		assert.Equal(t, http.StatusBadRequest, status, token)
		assert.Equal(t, "invalid token", errResp["error"], token)
	}
}

func TestProjectEndpoints(t *testing.T) {
	api := newAPI(t)
	owner := api.register("owner")
	other := api.register("other")
	id := api.createProject(owner)
	path := fmt.Sprintf("/project/%d", id)

	var project map[string]any
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, path, owner, nil, &project))
	assert.Equal(t, "alpha", project["name"])
	assert.NotContains(t, project, "user_id")

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, other, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, path, other, map[string]string{"name": "x"}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, other, nil, nil))

	var list []map[string]any
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/project", other, nil, &list))
	assert.Empty(t, list)

	require.Equal(t, http.StatusOK, api.do(http.MethodPut, path, owner, map[string]string{"name": "beta"}, &project))
	assert.Equal(t, "beta", project["name"])

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/project/abc", owner, nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, "/project", owner, map[string]any{"name": "x", "target": 7}, nil))

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, owner, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, owner, nil, nil))
}

func TestModuleEndpoints(t *testing.T) {
	api := newAPI(t)
	owner := api.register("owner")
	other := api.register("other")
	projectID := api.createProject(owner)
	base := fmt.Sprintf("/project/%d/module", projectID)

	var created struct {
		ID   int64
		Name string
	}
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, base, owner, map[string]any{"visibility": 0}, &created))
	assert.Equal(t, "Module.001", created.Name)

	var child struct {
		ID   int64
		Name string
	}
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, base, owner, map[string]any{"module_id": created.ID}, &child))
	assert.Equal(t, "Module.001", child.Name)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, base, owner, map[string]any{}, &created))
	assert.Equal(t, "Module.002", created.Name)

	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, base, owner, map[string]any{"name": "Module.002"}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, base, owner, map[string]any{"module_id": 9999}, nil))

	path := fmt.Sprintf("%s/%d", base, child.ID)
	var module map[string]any
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, path, owner, nil, &module))
	assert.EqualValues(t, child.ID, module["id"])

	require.Equal(t, http.StatusOK, api.do(http.MethodPut, path, owner, map[string]any{"name": "core", "visibility": 1}, &module))
	assert.Equal(t, "core", module["name"])
	assert.EqualValues(t, 1, module["visibility"])

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, base, other, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, base, other, map[string]any{}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, other, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPut, path, other, map[string]any{"name": "x"}, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, other, nil, nil))

	var list []map[string]any
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, base, owner, nil, &list))
	assert.Len(t, list, 3)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, owner, nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, owner, nil, nil))
}
