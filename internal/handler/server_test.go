package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/servers", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"servers":[],"total":0}`, w.Body.String())

	w = env.do(http.MethodPost, "/api/servers", map[string]any{"name": "web-1", "ip_address": "10.0.0.1"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "mutations need a token")

	w = env.do(http.MethodPost, "/api/servers", map[string]any{"name": "web-1", "ip_address": "not-an-ip"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.invalid_request", decode(t, w)["error_key"])

	srv := env.mustCreate("/api/servers", map[string]any{"name": "web-1", "ip_address": "10.0.0.1", "x_position": 40})
	assert.Equal(t, "web-1", srv["name"])
	assert.Equal(t, 40.0, srv["x_position"])
	assert.EqualValues(t, 1, countAuditLogs(env.db))

	w = env.do(http.MethodPost, "/api/servers", map[string]any{"name": "web-1", "ip_address": "10.0.0.2"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.name_exists", decode(t, w)["error_key"])

	path := fmt.Sprintf("/api/servers/%d", idOf(srv))
	w = env.do(http.MethodPut, path, map[string]any{"name": "web-2", "ip_address": "fe80::1"}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "web-2", decode(t, w)["name"])

	w = env.do(http.MethodPatch, path+"/position", map[string]any{"x_position": 5.5, "y_position": -2}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -2.0, decode(t, w)["y_position"])

	w = env.do(http.MethodGet, path, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5.5, decode(t, w)["x_position"])

	w = env.do(http.MethodGet, "/api/servers/abc", nil, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.invalid_id", decode(t, w)["error_key"])

	w = env.do(http.MethodDelete, path, nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, path, nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error.not_found", decode(t, w)["error_key"])

	// create, update, delete; moves are not audited
	assert.EqualValues(t, 3, countAuditLogs(env.db))
}

func TestServerConnectionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustCreate("/api/servers", map[string]any{"name": "a", "ip_address": "10.0.0.1"})
	b := env.mustCreate("/api/servers", map[string]any{"name": "b", "ip_address": "10.0.0.2"})

	link := env.mustCreate("/api/server-connections", map[string]any{"source": idOf(a), "target": idOf(b)})
	assert.Equal(t, "a", link["source_name"])
	assert.Equal(t, true, link["is_healthy"])

	w := env.do(http.MethodPost, "/api/server-connections", map[string]any{"source": idOf(a), "target": idOf(b)}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.connection_exists", decode(t, w)["error_key"])

	w = env.do(http.MethodPost, "/api/server-connections", map[string]any{"source": idOf(a), "target": 999}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.unknown_endpoint", decode(t, w)["error_key"])

	healthPath := fmt.Sprintf("/api/server-connections/%d/health", idOf(link))
	w = env.do(http.MethodPatch, healthPath, map[string]any{}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code, "is_healthy is required")

	w = env.do(http.MethodPatch, healthPath, map[string]any{"is_healthy": false}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["is_healthy"])

	w = env.do(http.MethodGet, "/api/server-connections", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["total"])

	w = env.do(http.MethodDelete, fmt.Sprintf("/api/servers/%d", idOf(b)), nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/server-connections", nil, false)
	assert.EqualValues(t, 0, decode(t, w)["total"], "links follow their servers")
}

func TestLegacyGraphEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/services", map[string]any{"name": "auth", "url": "not a url"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s1 := env.mustCreate("/api/services", map[string]any{"name": "auth", "url": "https://auth.example.com"})
	s2 := env.mustCreate("/api/services", map[string]any{"name": "users", "url": "https://users.example.com"})

	w = env.do(http.MethodPost, "/api/connections", map[string]any{"source": idOf(s1), "target": idOf(s1)}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error.self_connection", decode(t, w)["error_key"])

	conn := env.mustCreate("/api/connections", map[string]any{"source": idOf(s1), "target": idOf(s2)})
	assert.Equal(t, "users", conn["target_name"])

	w = env.do(http.MethodPut, fmt.Sprintf("/api/connections/%d", idOf(conn)), map[string]any{"source": idOf(s2), "target": idOf(s1)}, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "users", decode(t, w)["source_name"])

	w = env.do(http.MethodGet, "/api/services", nil, false)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = env.do(http.MethodDelete, fmt.Sprintf("/api/services/%d", idOf(s2)), nil, true)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, fmt.Sprintf("/api/connections/%d", idOf(conn)), nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownAPIRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/nope", nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/health", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
}
