package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/model"
	"github.com/web-casa/topoviz/internal/service"
	"gorm.io/gorm"
)

// ServerConnectionHandler manages links between servers
type ServerConnectionHandler struct {
	svc *service.ServerConnectionService
	auditor
}

// NewServerConnectionHandler creates a new ServerConnectionHandler
func NewServerConnectionHandler(svc *service.ServerConnectionService, db *gorm.DB) *ServerConnectionHandler {
	return &ServerConnectionHandler{svc: svc, auditor: auditor{db: db, target: "server_connection"}}
}

// List returns all server connections
func (h *ServerConnectionHandler) List(c *gin.Context) {
	conns, err := h.svc.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"server_connections": nonNil(conns), "total": len(conns)})
}

// Get returns a single server connection
func (h *ServerConnectionHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	conn, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// Create links two servers
func (h *ServerConnectionHandler) Create(c *gin.Context) {
	var req model.ServerConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	conn, err := h.svc.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "CREATE", conn.ID, fmt.Sprintf("Linked '%s' → '%s'", conn.SourceName, conn.TargetName))
	c.JSON(http.StatusCreated, conn)
}

// Update re-targets a server connection
func (h *ServerConnectionHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	var req model.ServerConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	conn, err := h.svc.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "UPDATE", conn.ID, fmt.Sprintf("Updated link '%s' → '%s'", conn.SourceName, conn.TargetName))
	c.JSON(http.StatusOK, conn)
}

// SetHealth flips a connection between healthy and unhealthy
func (h *ServerConnectionHandler) SetHealth(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	var req model.HealthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	conn, err := h.svc.SetHealth(id, *req.IsHealthy)
	if err != nil {
		respondError(c, err)
		return
	}

	state := "UNHEALTHY"
	if *req.IsHealthy {
		state = "HEALTHY"
	}
	h.audit(c, state, conn.ID, fmt.Sprintf("Marked link '%s' → '%s' %s", conn.SourceName, conn.TargetName, state))
	c.JSON(http.StatusOK, conn)
}

// Delete removes a server connection
func (h *ServerConnectionHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	if err := h.svc.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "DELETE", id, "Deleted server connection")
	c.JSON(http.StatusOK, gin.H{"message": "Server connection deleted successfully"})
}
