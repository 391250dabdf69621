package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/model"
	"github.com/web-casa/topoviz/internal/service"
	"gorm.io/gorm"
)

// ServerHandler manages server CRUD endpoints
type ServerHandler struct {
	svc *service.ServerService
	auditor
}

// NewServerHandler creates a new ServerHandler
func NewServerHandler(svc *service.ServerService, db *gorm.DB) *ServerHandler {
	return &ServerHandler{svc: svc, auditor: auditor{db: db, target: "server"}}
}

// List returns all servers
func (h *ServerHandler) List(c *gin.Context) {
	servers, err := h.svc.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"servers": nonNil(servers), "total": len(servers)})
}

// Get returns a single server
func (h *ServerHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	server, err := h.svc.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, server)
}

// Create adds a new server
func (h *ServerHandler) Create(c *gin.Context) {
	var req model.ServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	server, err := h.svc.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "CREATE", server.ID, fmt.Sprintf("Created server '%s' (%s)", server.Name, server.IPAddress))
	c.JSON(http.StatusCreated, server)
}

// Update modifies an existing server
func (h *ServerHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	var req model.ServerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	server, err := h.svc.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "UPDATE", server.ID, fmt.Sprintf("Updated server '%s'", server.Name))
	c.JSON(http.StatusOK, server)
}

// Move stores the server's canvas position. Not audited; dragging nodes
// would flood the log.
func (h *ServerHandler) Move(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	var req model.PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	server, err := h.svc.Move(id, req.XPosition, req.YPosition)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, server)
}

// Delete removes a server with its stacks and connections
func (h *ServerHandler) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondInvalidID(c)
		return
	}

	if err := h.svc.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	h.audit(c, "DELETE", id, "Deleted server")
	c.JSON(http.StatusOK, gin.H{"message": "Server deleted successfully"})
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
