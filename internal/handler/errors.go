package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/compose"
	"github.com/web-casa/topoviz/internal/service"
)

type errorMapping struct {
	err    error
	status int
	msg    string
}

var sentinelErrors = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrNameExists, http.StatusBadRequest, "Name already exists"},
	{service.ErrSelfConnection, http.StatusBadRequest, "A service cannot connect to itself"},
	{service.ErrConnectionExists, http.StatusBadRequest, "Connection already exists"},
	{service.ErrUnknownEndpoint, http.StatusBadRequest, "Referenced object does not exist"},
}

// classifyError maps a service error to an HTTP status, a human message and
// the i18n key the frontend translates.
func classifyError(err error) (int, string, string) {
	for _, m := range sentinelErrors {
		if errors.Is(err, m.err) {
			return m.status, m.msg, m.err.Error()
		}
	}

	var ce *compose.Error
	if errors.As(err, &ce) {
		if ce.Kind == compose.KindProcessing {
			return http.StatusUnprocessableEntity, ce.Error(), ce.Kind.Key()
		}
		return http.StatusBadRequest, ce.Error(), ce.Kind.Key()
	}

	return http.StatusInternalServerError, err.Error(), "error.internal"
}

func respondError(c *gin.Context, err error) {
	status, msg, key := classifyError(err)
	c.JSON(status, gin.H{"error": msg, "error_key": key})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_key": "error.invalid_request"})
}

func respondInvalidID(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID", "error_key": "error.invalid_id"})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}

// queryID reads an optional numeric filter such as ?server_id=. Absent
// means zero, which the services treat as "no filter".
func queryID(c *gin.Context, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
