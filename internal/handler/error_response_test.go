package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/web-casa/topoviz/internal/compose"
	"github.com/web-casa/topoviz/internal/service"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		key    string
	}{
		{fmt.Errorf("get stack: %w", service.ErrNotFound), http.StatusNotFound, "error.not_found"},
		{service.ErrNameExists, http.StatusBadRequest, "error.name_exists"},
		{service.ErrSelfConnection, http.StatusBadRequest, "error.self_connection"},
		{service.ErrConnectionExists, http.StatusBadRequest, "error.connection_exists"},
		{fmt.Errorf("stack server 3: %w", service.ErrUnknownEndpoint), http.StatusBadRequest, "error.unknown_endpoint"},
		{&compose.Error{Kind: compose.KindEmptyInput, Msg: "empty"}, http.StatusBadRequest, "error.compose_empty"},
		{&compose.Error{Kind: compose.KindMalformedDocument, Msg: "invalid YAML"}, http.StatusBadRequest, "error.compose_malformed"},
		{&compose.Error{Kind: compose.KindProcessing, Msg: "bad"}, http.StatusUnprocessableEntity, "error.compose_processing"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "error.internal"},
	}
	for _, tc := range cases {
		status, msg, key := classifyError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.key, key, tc.err.Error())
		assert.NotEmpty(t, msg)
	}
}

// For any id that does not exist, every single-object endpoint answers 404
// with a translatable error key, for reads and mutations alike.
func TestPropertyMissingObjectsReturnErrorKey(t *testing.T) {
	env := newTestEnv(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	resources := []string{"servers", "server-connections", "stacks", "container-services", "services", "connections"}

	properties.Property("GET and DELETE of a missing id return 404 with error_key", prop.ForAll(
		func(id uint32, idx int) bool {
			path := fmt.Sprintf("/api/%s/%d", resources[idx], id)

			w := env.do(http.MethodGet, path, nil, false)
			if w.Code != http.StatusNotFound || !responseHasErrorKey(w) {
				return false
			}
			w = env.do(http.MethodDelete, path, nil, true)
			return w.Code == http.StatusNotFound && responseHasErrorKey(w)
		},
		gen.UInt32Range(1, 1<<31-1),
		gen.IntRange(0, len(resources)-1),
	))

	properties.Property("compose import of arbitrary text never answers without error_key on failure", prop.ForAll(
		func(text string) bool {
			stackID := seedStackForProperty(env)
			w := env.do(http.MethodPost, fmt.Sprintf("/api/stacks/%d/parse_compose", stackID),
				map[string]any{"docker_compose_content": text}, true)
			switch w.Code {
			case http.StatusOK:
				return true
			case http.StatusBadRequest, http.StatusUnprocessableEntity:
				return responseHasErrorKey(w)
			default:
				return false
			}
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

var propertyStackCounter int

func seedStackForProperty(env *testEnv) uint {
	env.t.Helper()
	propertyStackCounter++
	srv := env.mustCreate("/api/servers", map[string]any{
		"name":       fmt.Sprintf("prop-%d", propertyStackCounter),
		"ip_address": "10.1.0.1",
	})
	stack := env.mustCreate("/api/stacks", map[string]any{"server": idOf(srv), "name": "s"})
	return idOf(stack)
}
